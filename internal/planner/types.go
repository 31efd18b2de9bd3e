package planner

import (
	"github.com/paramind/paramind/internal/scheduler"
)

// Execution modes.
const (
	// ModeFanOut issues the same instruction to several workers.
	ModeFanOut = "A"
	// ModeDecompose splits the instruction into dependent subtasks.
	ModeDecompose = "B"
)

// Plan is an execution plan for one user instruction.
type Plan struct {
	Mode      string           `json:"mode"`
	Reasoning string           `json:"reasoning,omitempty"`
	Workers   []string         `json:"workers,omitempty"`  // Mode A
	Subtasks  []scheduler.Task `json:"subtasks,omitempty"` // Mode B
}

// Tasks renders the plan as the task set the engine executes.
func (p *Plan) Tasks(prompt string) []scheduler.Task {
	if p.Mode == ModeDecompose {
		return p.Subtasks
	}
	return scheduler.FanOut(prompt, p.Workers)
}

// llmPlan is the wire shape the decision worker is asked to emit.
type llmPlan struct {
	Mode      string `json:"mode"`
	Reasoning string `json:"reasoning"`
	Plan      struct {
		Workers  []string     `json:"workers"`
		Subtasks []llmSubtask `json:"subtasks"`
	} `json:"plan"`
}

type llmSubtask struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	Worker      string `json:"worker"`
	DependsOn   []int  `json:"depends_on"`
}
