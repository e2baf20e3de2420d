// Package action defines the unit-granular action records exchanged between
// the optimistic inventory adapters, the batching engine and the batch
// endpoint.
//
// This package contains value types only. All other internal packages
// import action; action imports nothing internal.
//
// Key design constraints:
//   - An Action is exactly one unit. Multi-unit requests are expanded with
//     Expand before they are queued; there is no quantity field.
//   - Actions are immutable once created (unexported fields, value receivers).
//   - Identity slots are the comparable Key struct, never a concatenated
//     string, so keys from different families cannot collide.
//   - Wire JSON uses camelCase to match the batch endpoint.
package action
