package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/paramind/paramind/internal/events"
)

// skippedResponse is the response text of a cascading-skip Result.
const skippedResponse = "Skipped due to failed dependency"

// Executor drives one orchestration run: it validates the task set,
// plans layers, and executes them in order. Within a layer all runnable
// tasks fan out concurrently through the Runner; the executor waits for
// the whole layer before advancing, so no task ever starts before all
// of its dependencies' Results exist.
type Executor struct {
	runner *Runner
	bus    *events.Bus // nil disables event publishing
	log    *slog.Logger
}

// NewExecutor creates an Executor. bus may be nil.
func NewExecutor(runner *Runner, bus *events.Bus, log *slog.Logger) *Executor {
	if log == nil {
		log = slog.Default()
	}
	return &Executor{runner: runner, bus: bus, log: log}
}

// Run executes a task set and returns every task's final Result.
//
// Structural graph errors abort before any worker call (*GraphError,
// nil results). Per-task failures are recorded in their Result and
// never abort sibling tasks; a failed task's dependents are skipped
// with ErrDependencyFailed, cascading forward through later layers.
// Configuration errors (unroutable worker names) are fatal and abort
// the run with the results accumulated so far.
func (e *Executor) Run(ctx context.Context, tasks []Task) ([]Result, error) {
	if err := Validate(tasks); err != nil {
		return nil, err
	}
	layers, err := PlanLayers(tasks)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := e.log.With("run_id", runID)
	log.Info("run started", "tasks", len(tasks), "layers", len(layers))
	e.publish(events.RunStartedEvent{RunID: runID, Tasks: len(tasks), Layers: len(layers), Timestamp: time.Now()})

	results := make(map[int]Result, len(tasks))
	failed := make(map[int]bool)
	out := make([]Result, 0, len(tasks))

	for i, layer := range layers {
		var runnable []Task
		for _, t := range layer {
			if depFailed(t, failed) {
				log.Warn("skipping task, dependency failed", "task", t.ID)
				res := Result{
					TaskID:   t.ID,
					Worker:   t.Worker,
					Response: skippedResponse,
					Err:      ErrDependencyFailed,
				}
				results[t.ID] = res
				out = append(out, res)
				failed[t.ID] = true
				e.publish(events.TaskSkippedEvent{RunID: runID, TaskID: t.ID, Timestamp: time.Now()})
				continue
			}
			runnable = append(runnable, t)
		}

		if len(runnable) == 0 {
			continue
		}

		ids := make([]int, len(runnable))
		for j, t := range runnable {
			ids[j] = t.ID
		}
		log.Info("layer started", "layer", i, "tasks", ids)
		e.publish(events.LayerStartedEvent{RunID: runID, Index: i, TaskIDs: ids, Timestamp: time.Now()})

		var mu sync.Mutex
		layerOut := make([]Result, 0, len(runnable))

		g, gctx := errgroup.WithContext(ctx)
		for _, t := range runnable {
			t := t
			// Context is a pure function of the already-frozen results map;
			// render it before the fan-out so goroutines never read the map.
			instruction := Instruction(t, results)

			g.Go(func() error {
				e.publish(events.TaskStartedEvent{RunID: runID, TaskID: t.ID, Worker: t.Worker, Timestamp: time.Now()})

				res, err := e.runner.Run(gctx, t.Worker, instruction)
				if err != nil {
					return err // fatal: configuration error or run cancellation
				}
				res.TaskID = t.ID
				res.Worker = t.Worker

				if res.Err == nil {
					if refined, ok := ShouldRefine(instruction, res); ok {
						log.Info("refining low-quality result", "task", t.ID)
						rres, rerr := e.runner.Run(gctx, t.Worker, refined)
						if rerr != nil {
							return rerr
						}
						rres.TaskID = t.ID
						rres.Worker = t.Worker
						// The refinement outcome replaces the original
						// unconditionally, even when it failed.
						res = rres
					}
				}

				mu.Lock()
				layerOut = append(layerOut, res)
				mu.Unlock()
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return out, err
		}

		// Fold the layer's results in completion order.
		for _, res := range layerOut {
			results[res.TaskID] = res
			out = append(out, res)
			if res.Err != nil {
				failed[res.TaskID] = true
				log.Warn("task failed", "task", res.TaskID, "error", res.Err)
				e.publish(events.TaskFailedEvent{RunID: runID, TaskID: res.TaskID, Worker: res.Worker, Err: res.Err, Timestamp: time.Now()})
			} else {
				e.publish(events.TaskCompletedEvent{RunID: runID, TaskID: res.TaskID, Worker: res.Worker, Tokens: res.Tokens, Elapsed: res.Elapsed, Timestamp: time.Now()})
			}
		}
	}

	succeeded := 0
	for _, res := range out {
		if res.Err == nil {
			succeeded++
		}
	}
	log.Info("run finished", "succeeded", succeeded, "failed", len(out)-succeeded)
	e.publish(events.RunFinishedEvent{RunID: runID, Succeeded: succeeded, Failed: len(out) - succeeded, Timestamp: time.Now()})

	return out, nil
}

func depFailed(t Task, failed map[int]bool) bool {
	for _, depID := range t.DependsOn {
		if failed[depID] {
			return true
		}
	}
	return false
}

func (e *Executor) publish(ev events.Event) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}
