// Package engine implements the samwire proposal pipeline.
//
// A proposal is a named, possibly cancellable unit of asynchronous work.
// The Pipeline awaits its value, decides whether it may still mutate the
// model, and runs the accept step between two render passes:
//
//	propose -> await -> token check -> busy -> render(thinking)
//	        -> accept -> render(settled) -> release -> defer next action
//
// Single writer:
// The busy flag admits one mutation at a time. Proposals arriving while it
// is held are rejected, never queued. Cancellable proposals sharing a name
// are resolved by token: only the most recently issued one may reach accept.
//
// Deferred work:
// The next-action hook never runs on the proposer's stack. It is handed to
// a Scheduler; Loop drains tasks on a single goroutine and TimerScheduler
// uses the runtime timer.
//
// Observation:
// Every proposal outcome and render pass is emitted on a Bus, stamped with
// a logical Clock sequence number. Wall time is recorded for metrics only
// and never used for ordering.
package engine
