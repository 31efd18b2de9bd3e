package scheduler

import (
	"errors"
	"testing"
)

// TestPlanLayers checks the layering invariants: each task placed
// exactly once, every task strictly after its dependencies, siblings
// ordered by ascending id.
func TestPlanLayers(t *testing.T) {
	tests := []struct {
		name       string
		tasks      []Task
		wantLayers [][]int // expected task ids per layer
	}{
		{
			name: "single layer",
			tasks: []Task{
				{ID: 2, Worker: "w"},
				{ID: 1, Worker: "w"},
				{ID: 3, Worker: "w"},
			},
			wantLayers: [][]int{{1, 2, 3}},
		},
		{
			name: "linear chain",
			tasks: []Task{
				{ID: 1, Worker: "w"},
				{ID: 2, Worker: "w", DependsOn: []int{1}},
				{ID: 3, Worker: "w", DependsOn: []int{2}},
			},
			wantLayers: [][]int{{1}, {2}, {3}},
		},
		{
			name: "diamond",
			tasks: []Task{
				{ID: 1, Worker: "w"},
				{ID: 2, Worker: "w", DependsOn: []int{1}},
				{ID: 3, Worker: "w", DependsOn: []int{1}},
				{ID: 4, Worker: "w", DependsOn: []int{2, 3}},
			},
			wantLayers: [][]int{{1}, {2, 3}, {4}},
		},
		{
			name: "wide second layer",
			tasks: []Task{
				{ID: 5, Worker: "w", DependsOn: []int{1}},
				{ID: 1, Worker: "w"},
				{ID: 4, Worker: "w", DependsOn: []int{1}},
				{ID: 2, Worker: "w"},
				{ID: 3, Worker: "w", DependsOn: []int{2}},
			},
			wantLayers: [][]int{{1, 2}, {3, 4, 5}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layers, err := PlanLayers(tt.tasks)
			if err != nil {
				t.Fatalf("PlanLayers() error = %v", err)
			}

			if len(layers) != len(tt.wantLayers) {
				t.Fatalf("got %d layers, want %d", len(layers), len(tt.wantLayers))
			}
			for i, layer := range layers {
				if len(layer) != len(tt.wantLayers[i]) {
					t.Fatalf("layer %d has %d tasks, want %d", i, len(layer), len(tt.wantLayers[i]))
				}
				for j, task := range layer {
					if task.ID != tt.wantLayers[i][j] {
						t.Errorf("layer %d position %d = task %d, want %d", i, j, task.ID, tt.wantLayers[i][j])
					}
				}
			}

			// Every task exactly once, strictly after its dependencies.
			layerOf := make(map[int]int)
			for i, layer := range layers {
				for _, task := range layer {
					if _, seen := layerOf[task.ID]; seen {
						t.Errorf("task %d placed twice", task.ID)
					}
					layerOf[task.ID] = i
				}
			}
			if len(layerOf) != len(tt.tasks) {
				t.Errorf("placed %d tasks, want %d", len(layerOf), len(tt.tasks))
			}
			for _, task := range tt.tasks {
				for _, depID := range task.DependsOn {
					if layerOf[task.ID] <= layerOf[depID] {
						t.Errorf("task %d in layer %d not after dependency %d in layer %d",
							task.ID, layerOf[task.ID], depID, layerOf[depID])
					}
				}
			}
		})
	}
}

// TestPlanLayersDeterministic verifies the same input yields the same
// layering on repeated runs.
func TestPlanLayersDeterministic(t *testing.T) {
	tasks := []Task{
		{ID: 3, Worker: "w"},
		{ID: 1, Worker: "w"},
		{ID: 4, Worker: "w", DependsOn: []int{1, 3}},
		{ID: 2, Worker: "w"},
	}

	first, err := PlanLayers(tasks)
	if err != nil {
		t.Fatalf("PlanLayers() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := PlanLayers(tasks)
		if err != nil {
			t.Fatalf("PlanLayers() error = %v", err)
		}
		for li := range first {
			for ti := range first[li] {
				if first[li][ti].ID != again[li][ti].ID {
					t.Fatalf("run %d: layer %d position %d differs", i, li, ti)
				}
			}
		}
	}
}

// TestPlanLayersMalformed verifies cyclic or dangling graphs fail with
// a tagged error instead of dropping tasks.
func TestPlanLayersMalformed(t *testing.T) {
	tests := []struct {
		name       string
		tasks      []Task
		wantReason GraphErrorReason
	}{
		{
			name: "cycle",
			tasks: []Task{
				{ID: 1, Worker: "w", DependsOn: []int{2}},
				{ID: 2, Worker: "w", DependsOn: []int{1}},
			},
			wantReason: Cycle,
		},
		{
			name: "unknown dependency",
			tasks: []Task{
				{ID: 1, Worker: "w", DependsOn: []int{42}},
			},
			wantReason: UnknownDependency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PlanLayers(tt.tasks)
			if err == nil {
				t.Fatal("PlanLayers() = nil, want error")
			}
			var graphErr *GraphError
			if !errors.As(err, &graphErr) {
				t.Fatalf("PlanLayers() = %v, want *GraphError", err)
			}
			if graphErr.Reason != tt.wantReason {
				t.Errorf("reason = %v, want %v", graphErr.Reason, tt.wantReason)
			}
		})
	}
}

// TestFanOut checks the degenerate single-layer task set builder.
func TestFanOut(t *testing.T) {
	tasks := FanOut("compare things", []string{"w1", "w2"})
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(tasks))
	}
	for i, task := range tasks {
		if task.ID != i+1 {
			t.Errorf("task %d id = %d, want %d", i, task.ID, i+1)
		}
		if task.Description != "compare things" {
			t.Errorf("task %d description = %q", i, task.Description)
		}
		if len(task.DependsOn) != 0 {
			t.Errorf("task %d has dependencies", i)
		}
	}

	layers, err := PlanLayers(tasks)
	if err != nil {
		t.Fatalf("PlanLayers() error = %v", err)
	}
	if len(layers) != 1 {
		t.Errorf("fan-out produced %d layers, want 1", len(layers))
	}
}
