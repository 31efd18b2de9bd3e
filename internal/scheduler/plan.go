package scheduler

import "sort"

// PlanLayers partitions an already-validated task set into execution
// layers: layer 0 holds every task with no dependencies, layer k every
// remaining task whose dependencies all sit in layers 0..k-1.
//
// Callers must run Validate first. A malformed graph still fails here
// with a *GraphError rather than silently dropping tasks: the peeling
// loop is bounded at len(tasks)+2 iterations. Within a layer tasks are
// ordered by ascending id so the output is deterministic for a given
// input.
func PlanLayers(tasks []Task) ([][]Task, error) {
	known := make(map[int]bool, len(tasks))
	for _, t := range tasks {
		known[t.ID] = true
	}

	placed := make(map[int]bool, len(tasks))
	var layers [][]Task

	maxIter := len(tasks) + 2
	for iter := 0; len(placed) < len(tasks); iter++ {
		if iter > maxIter {
			return nil, &GraphError{Reason: Cycle}
		}

		var layer []Task
		for _, t := range tasks {
			if placed[t.ID] {
				continue
			}
			ready := true
			for _, depID := range t.DependsOn {
				if !known[depID] {
					return nil, &GraphError{Reason: UnknownDependency, TaskID: t.ID, DepID: depID}
				}
				if !placed[depID] {
					ready = false
					break
				}
			}
			if ready {
				layer = append(layer, t)
			}
		}

		if len(layer) == 0 {
			return nil, &GraphError{Reason: Cycle}
		}

		sort.Slice(layer, func(i, j int) bool { return layer[i].ID < layer[j].ID })
		for _, t := range layer {
			placed[t.ID] = true
		}
		layers = append(layers, layer)
	}

	return layers, nil
}
