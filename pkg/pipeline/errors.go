package pipeline

import (
	"fmt"
	"strings"
)

// ConfigurationError is raised for any structural problem detected at
// Pipeline construction time or by a selector given an unknown name: a nil
// node list, duplicate node names, a transcoding/namespace collision, or an
// unknown node or dataset name passed to a selector.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }

func newConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Message: fmt.Sprintf(format, args...)}
}

// OutputNotUniqueError is raised when two or more nodes in the same
// Pipeline produce the same output namespace.
type OutputNotUniqueError struct {
	Outputs []string
}

func (e *OutputNotUniqueError) Error() string {
	return fmt.Sprintf("output(s) %s are returned by more than one node; node outputs must be unique", strings.Join(e.Outputs, ", "))
}

// CircularDependencyError is raised when the dependency graph implied by
// node inputs/outputs contains a cycle.
type CircularDependencyError struct {
	Cycle []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependencies exist among these nodes: %s", strings.Join(e.Cycle, ", "))
}
