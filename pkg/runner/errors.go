package runner

import "fmt"

// NodeExecutionError wraps a failure raised by a node's Run, surfaced with
// the node's identity attached.
type NodeExecutionError struct {
	NodeName string
	Cause    error
}

func (e *NodeExecutionError) Error() string {
	return fmt.Sprintf("runner: node %q failed: %v", e.NodeName, e.Cause)
}

func (e *NodeExecutionError) Unwrap() error { return e.Cause }
