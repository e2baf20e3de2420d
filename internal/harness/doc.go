// Package harness runs YAML scenarios against a real Dispatcher.
//
// A scenario enqueues actions, advances a manual clock and forces flushes.
// The harness records every enqueue, every request that reaches the batch
// client and every settled call as a trace, then checks the scenario's
// expectations against it. Runs are fully deterministic: the clock only
// moves when a step advances it and batch ids come from a sequential
// generator, so traces can be compared byte for byte with golden files.
//
// The batch client is scripted in process. It accepts every record except
// those whose identity key is listed under endpoint.reject, and fails the
// whole request when endpoint.fail_transport is set.
package harness
