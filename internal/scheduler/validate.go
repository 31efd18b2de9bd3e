package scheduler

import (
	"fmt"

	"github.com/gammazero/toposort"
)

// visitState tags a node during depth-first cycle detection.
type visitState int

const (
	unvisited visitState = iota
	onPath
	visited
)

// Validate checks that a task set forms a well-formed DAG: ids distinct,
// every dependency refers to a sibling task, no self-loops, no cycles.
// Returns a *GraphError describing the first defect found, nil otherwise.
func Validate(tasks []Task) error {
	byID := make(map[int]Task, len(tasks))
	for _, t := range tasks {
		if _, exists := byID[t.ID]; exists {
			return &GraphError{Reason: DuplicateID, TaskID: t.ID}
		}
		byID[t.ID] = t
	}

	for _, t := range tasks {
		for _, depID := range t.DependsOn {
			if depID == t.ID {
				return &GraphError{Reason: SelfDependency, TaskID: t.ID}
			}
			if _, exists := byID[depID]; !exists {
				return &GraphError{Reason: UnknownDependency, TaskID: t.ID, DepID: depID}
			}
		}
	}

	// Cycle detection via DFS with explicit three-state tagging.
	state := make(map[int]visitState, len(tasks))
	var visit func(id int) bool
	visit = func(id int) bool {
		state[id] = onPath
		for _, depID := range byID[id].DependsOn {
			switch state[depID] {
			case onPath:
				return true
			case unvisited:
				if visit(depID) {
					return true
				}
			}
		}
		state[id] = visited
		return false
	}
	for _, t := range tasks {
		if state[t.ID] == unvisited && visit(t.ID) {
			return &GraphError{Reason: Cycle, TaskID: t.ID}
		}
	}

	// Cross-check with a full topological sort. The DFS above should have
	// caught everything; a mismatch here means an internal inconsistency.
	if err := toposortCheck(tasks); err != nil {
		return err
	}

	return nil
}

// toposortCheck runs a topological sort over the task set and verifies no
// task is lost (catches disconnected defects the per-edge checks missed).
func toposortCheck(tasks []Task) error {
	var edges []toposort.Edge
	for _, t := range tasks {
		if len(t.DependsOn) == 0 {
			// No dependencies - edge from nil ensures the task is included.
			edges = append(edges, toposort.Edge{nil, t.ID})
			continue
		}
		for _, depID := range t.DependsOn {
			edges = append(edges, toposort.Edge{depID, t.ID})
		}
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		return &GraphError{Reason: Cycle}
	}

	placed := 0
	for _, id := range sorted {
		if id != nil {
			placed++
		}
	}
	if placed != len(tasks) {
		return fmt.Errorf("internal: topological sort lost %d tasks", len(tasks)-placed)
	}
	return nil
}
