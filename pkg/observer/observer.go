// Package observer provides the Observer pattern implementation for
// pipeline run execution monitoring. This allows library consumers to
// track and monitor run execution behavior without coupling to the
// runner implementation.
package observer

import (
	"context"
	"time"
)

// EventType represents the type of execution event.
type EventType string

const (
	// Run-level events.
	EventRunStart EventType = "run_start"
	EventRunEnd   EventType = "run_end"

	// Node-level events.
	EventNodeStart   EventType = "node_start"
	EventNodeEnd     EventType = "node_end"
	EventNodeSuccess EventType = "node_success"
	EventNodeFailure EventType = "node_failure"
)

// ExecutionStatus represents the status of a node or run execution.
type ExecutionStatus string

const (
	StatusStarted   ExecutionStatus = "started"
	StatusSuccess   ExecutionStatus = "success"
	StatusFailure   ExecutionStatus = "failure"
	StatusCompleted ExecutionStatus = "completed"
)

// Event represents an execution event with all relevant metadata. Seq is
// assigned by the Manager that emitted it and increases monotonically
// across every event the Manager has ever notified, regardless of which
// run or node produced it; observers that buffer events out of arrival
// order (e.g. to batch them) can use it to restore emission order.
type Event struct {
	// Event identification.
	Seq       uint64          `json:"seq"`
	Type      EventType       `json:"type"`
	Status    ExecutionStatus `json:"status"`
	Timestamp time.Time       `json:"timestamp"`

	// Execution context.
	RunID string `json:"run_id"`

	// Node-specific data (empty for run-level events).
	NodeName string `json:"node_name,omitempty"`

	// Timing information.
	StartTime   time.Time     `json:"start_time,omitempty"`
	ElapsedTime time.Duration `json:"elapsed_time,omitempty"`

	// Execution results.
	Result interface{} `json:"result,omitempty"`
	Error  error       `json:"error,omitempty"`

	// Additional metadata.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Observer defines the interface for run execution observers. Observers
// receive notifications about various stages of run execution. OnEvent runs
// on a Manager-owned worker goroutine dedicated to this Observer: it may
// block or take time without affecting other observers, but it must not
// call back into the Manager that owns it.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}
