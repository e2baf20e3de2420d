// Package store provides SQLite-backed storage for the reference batch
// endpoint.
//
// The store holds two tables:
//   - user_items: one row per (owner, item) with quantity and activated
//     quantity, activated always within [0, quantity]
//   - batches: an audit row per applied batch, including the full outcome
//
// # Unit semantics
//
// Every action changes exactly one unit. Capacity is checked per unit:
// activating a fully active line fails, deactivating an inactive one fails,
// removing from a missing line fails. Removing the last unit deletes the
// line; removing below the activated count clamps activation.
//
// # Idempotency
//
// Batches are keyed by their batch id. Applying a batch id that was already
// applied returns the recorded outcome and changes nothing.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait on lock contention
//   - Single connection: SQLite has one writer
package store
