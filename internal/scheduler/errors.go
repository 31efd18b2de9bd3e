package scheduler

import (
	"errors"
	"fmt"
)

// GraphErrorReason tags why a task set failed structural validation.
type GraphErrorReason int

const (
	DuplicateID GraphErrorReason = iota
	UnknownDependency
	SelfDependency
	Cycle
)

func (r GraphErrorReason) String() string {
	switch r {
	case DuplicateID:
		return "duplicate task id"
	case UnknownDependency:
		return "unknown dependency"
	case SelfDependency:
		return "self dependency"
	case Cycle:
		return "cycle"
	}
	return "invalid graph"
}

// GraphError reports a structural defect in a submitted task set.
// It is fatal to the run: no worker call is issued once raised.
type GraphError struct {
	Reason GraphErrorReason
	TaskID int // Offending task, 0 if not attributable
	DepID  int // Offending dependency, 0 if not applicable
}

func (e *GraphError) Error() string {
	switch e.Reason {
	case DuplicateID:
		return fmt.Sprintf("invalid graph: duplicate task id %d", e.TaskID)
	case UnknownDependency:
		return fmt.Sprintf("invalid graph: task %d depends on unknown task %d", e.TaskID, e.DepID)
	case SelfDependency:
		return fmt.Sprintf("invalid graph: task %d depends on itself", e.TaskID)
	case Cycle:
		if e.TaskID != 0 {
			return fmt.Sprintf("invalid graph: cycle involving task %d", e.TaskID)
		}
		return "invalid graph: cycle detected"
	}
	return "invalid graph"
}

// Per-task failures captured into Results, never raised across a task
// boundary.
var (
	// ErrTimeout marks a task whose worker call exceeded its deadline.
	ErrTimeout = errors.New("timeout")

	// ErrDependencyFailed marks a task skipped because at least one of
	// its dependencies failed. The task was never issued to a worker.
	ErrDependencyFailed = errors.New("dependency failed")
)
