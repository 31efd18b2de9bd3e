package events

import (
	"time"
)

// Event is the base interface for all run lifecycle events.
type Event interface {
	EventType() string
	Run() string
}

// Event type constants
const (
	EventTypeRunStarted    = "run.started"
	EventTypeRunFinished   = "run.finished"
	EventTypeLayerStarted  = "layer.started"
	EventTypeTaskStarted   = "task.started"
	EventTypeTaskCompleted = "task.completed"
	EventTypeTaskFailed    = "task.failed"
	EventTypeTaskSkipped   = "task.skipped"
)

// RunStartedEvent is published once per run before layer 0 executes.
type RunStartedEvent struct {
	RunID     string
	Tasks     int
	Layers    int
	Timestamp time.Time
}

func (e RunStartedEvent) EventType() string { return EventTypeRunStarted }
func (e RunStartedEvent) Run() string       { return e.RunID }

// RunFinishedEvent is published after the last layer completes.
type RunFinishedEvent struct {
	RunID     string
	Succeeded int
	Failed    int
	Timestamp time.Time
}

func (e RunFinishedEvent) EventType() string { return EventTypeRunFinished }
func (e RunFinishedEvent) Run() string       { return e.RunID }

// LayerStartedEvent is published when a layer's runnable tasks fan out.
type LayerStartedEvent struct {
	RunID     string
	Index     int
	TaskIDs   []int
	Timestamp time.Time
}

func (e LayerStartedEvent) EventType() string { return EventTypeLayerStarted }
func (e LayerStartedEvent) Run() string       { return e.RunID }

// TaskStartedEvent is published when a task's worker call is issued.
type TaskStartedEvent struct {
	RunID     string
	TaskID    int
	Worker    string
	Timestamp time.Time
}

func (e TaskStartedEvent) EventType() string { return EventTypeTaskStarted }
func (e TaskStartedEvent) Run() string       { return e.RunID }

// TaskCompletedEvent is published when a task completes successfully.
type TaskCompletedEvent struct {
	RunID     string
	TaskID    int
	Worker    string
	Tokens    int
	Elapsed   float64
	Timestamp time.Time
}

func (e TaskCompletedEvent) EventType() string { return EventTypeTaskCompleted }
func (e TaskCompletedEvent) Run() string       { return e.RunID }

// TaskFailedEvent is published when a task's final result carries an error.
type TaskFailedEvent struct {
	RunID     string
	TaskID    int
	Worker    string
	Err       error
	Timestamp time.Time
}

func (e TaskFailedEvent) EventType() string { return EventTypeTaskFailed }
func (e TaskFailedEvent) Run() string       { return e.RunID }

// TaskSkippedEvent is published when a task is skipped because a
// dependency failed. The task was never issued to a worker.
type TaskSkippedEvent struct {
	RunID     string
	TaskID    int
	Timestamp time.Time
}

func (e TaskSkippedEvent) EventType() string { return EventTypeTaskSkipped }
func (e TaskSkippedEvent) Run() string       { return e.RunID }
