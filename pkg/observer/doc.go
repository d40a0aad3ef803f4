// Package observer provides an event-driven observer pattern for pipeline
// run execution.
//
// # Overview
//
// Observers can track run lifecycle and node execution without coupling to
// the runner implementation. The runner notifies a Manager of run/node
// start, success, failure and end events; the Manager assigns each event a
// sequence number and hands it to a dedicated worker goroutine per
// registered Observer.
//
// # Basic Usage
//
//	mgr := observer.NewManagerWithObservers(observer.NewConsoleObserver())
//	mgr.Notify(ctx, observer.Event{Type: observer.EventRunStart, RunID: runID})
//	defer mgr.Close()
//
// # Built-in Observers
//
//   - NoOpObserver: ignores all events; usable as a placeholder observer.
//   - ConsoleObserver: logs events through a pkg/logging.Logger, at debug
//     level for node start/success and info/warn/error for run lifecycle
//     and node failure.
//
// # Backpressure
//
// Each Observer gets its own bounded queue (Manager does not share one
// queue across observers, so one slow Observer can't starve another's).
// Notify never blocks the caller: if an observer's queue is full the event
// is dropped and counted; see Manager.DroppedEvents. Call Manager.Close
// after a run to block until every observer has drained its queue, instead
// of sleeping a fixed duration and hoping delivery finished first.
//
// # Error Handling
//
// Observer panics are recovered per-delivery and do not affect other
// observers or the run in progress.
//
// # Thread Safety
//
// Manager and the built-in observers are safe for concurrent use.
package observer
