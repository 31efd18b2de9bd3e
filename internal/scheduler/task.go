package scheduler

// Task represents a unit of work bound to a named worker.
// Tasks are constructed by the planner and are immutable for the
// duration of one run.
type Task struct {
	ID          int    `json:"id"`           // Unique within a submitted task set, positive
	Description string `json:"description"`  // Free-form instruction text
	Worker      string `json:"worker"`       // Name of the remote worker to use
	DependsOn   []int  `json:"depends_on"`   // Task IDs this task depends on
}

// Result is the outcome of attempting one task.
// Err is nil on success; otherwise ErrTimeout, ErrDependencyFailed,
// or the worker-call failure.
type Result struct {
	TaskID   int     `json:"task_id"`
	Worker   string  `json:"worker"`
	Response string  `json:"response"`
	Tokens   int     `json:"tokens"`
	Elapsed  float64 `json:"elapsed_seconds"`
	Err      error   `json:"-"`
}

// Failed reports whether the task ended in any error state.
func (r Result) Failed() bool {
	return r.Err != nil
}

// ErrorMessage returns the error text for serialization, empty on success.
func (r Result) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// FanOut builds the degenerate dependency-free task set that issues the
// same instruction to every listed worker (a single-layer DAG).
func FanOut(instruction string, workers []string) []Task {
	tasks := make([]Task, 0, len(workers))
	for i, w := range workers {
		tasks = append(tasks, Task{
			ID:          i + 1,
			Description: instruction,
			Worker:      w,
		})
	}
	return tasks
}
