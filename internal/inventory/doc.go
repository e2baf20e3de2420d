// Package inventory keeps feature state optimistic and reconciles it with
// the server.
//
// Each adapter (Admin, Live) owns one Dispatcher and one Reconciler. A
// mutation is applied to the local value-typed state synchronously, then the
// matching unit actions are enqueued. The reconciler reacts to every settled
// flush:
//
//   - success: schedule a short debounced resync
//   - any failure: cancel the pending resync, restore the snapshot taken
//     before the first mutation of the cycle, and resync immediately
//
// Fetched state always replaces local state. Fetches overtaken by a newer
// resync are dropped.
package inventory
