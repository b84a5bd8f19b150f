// Package harness runs YAML scenarios against the demo application.
//
// A scenario drives a real container: it calls actions, fires events on
// rendered markup and navigates, optionally starting from server-rendered
// markup with events delivered before hydration. Every loop event is
// journaled, and the journal is the scenario's trace.
//
// Runs are deterministic: the bus is stamped by a testutil
// DeterministicClock, cancellation tokens come from testutil
// SequenceTokens, and deferred next actions are drained on the calling
// goroutine after every step. The same scenario always yields the same
// trace, which is what golden comparison relies on:
//
//	go test ./internal/harness -update
//
// regenerates testdata/golden.
package harness
