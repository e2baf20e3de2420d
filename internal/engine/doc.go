// Package engine batches unit inventory actions behind a debounce window.
//
// A Dispatcher owns one pending queue and one quiet-period timer per feature.
// Callers enqueue single-unit actions and receive a Call that settles once
// the batch containing (or cancelling) the action completes.
//
// Flush pipeline:
//  1. The timer fires after the quiet period (every enqueue restarts it).
//  2. The queue is drained atomically into a local slice.
//  3. Optimize collapses opposite actions per identity key into the minimal
//     unit-granular list.
//  4. The BatchClient is called once with that list. An all-cancelled
//     window skips the network entirely.
//  5. The broadcaster settles every Call by Key and Kind.
//
// Failures are data. Transport errors, client panics and missing results all
// settle calls with Success=false; nothing is retried at this layer.
package engine
