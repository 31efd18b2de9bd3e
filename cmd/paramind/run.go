package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/paramind/paramind/internal/events"
	"github.com/paramind/paramind/internal/planner"
)

func newRunCmd() *cobra.Command {
	var (
		mode      string
		aggregate string
		quiet     bool
	)

	cmd := &cobra.Command{
		Use:   "run <prompt>",
		Short: "Plan and execute one instruction",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")

			eng, err := buildEngine(cmd)
			if err != nil {
				return err
			}
			defer eng.close()

			var progress sync.WaitGroup
			if !quiet {
				ch := eng.bus.Subscribe(0)
				progress.Add(1)
				go func() {
					defer progress.Done()
					printProgress(cmd, ch)
				}()
			}

			var plan *planner.Plan
			switch mode {
			case "":
				plan = eng.controller.AnalyzeAndPlan(cmd.Context(), prompt)
			case planner.ModeFanOut:
				plan = &planner.Plan{Mode: planner.ModeFanOut, Workers: eng.cfg.Workers}
			default:
				return fmt.Errorf("unknown mode %q (leave empty for automatic, or use A)", mode)
			}

			if !quiet && plan.Reasoning != "" {
				cmd.Printf("Plan: mode %s - %s\n", plan.Mode, plan.Reasoning)
			}

			results, err := eng.executor.Run(cmd.Context(), plan.Tasks(prompt))
			if err != nil {
				return err
			}

			var combined string
			switch aggregate {
			case "summary":
				combined, err = eng.agg.Summarize(cmd.Context(), results)
			case "best":
				combined, err = eng.agg.BestOfN(cmd.Context(), results, prompt)
			case "list":
				combined = eng.agg.ListAll(results)
			default:
				return fmt.Errorf("unknown aggregation %q (summary, best, list)", aggregate)
			}
			if err != nil {
				eng.log.Warn("aggregation failed, listing raw results", "error", err)
				combined = eng.agg.ListAll(results)
			}

			eng.bus.Close()
			progress.Wait()

			cmd.Println(combined)
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "execution mode: empty for automatic planning, A for plain fan-out")
	cmd.Flags().StringVar(&aggregate, "aggregate", "summary", "how to merge results: summary, best, or list")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")

	return cmd
}

// printProgress renders run lifecycle events until the bus closes.
func printProgress(cmd *cobra.Command, ch <-chan events.Event) {
	for ev := range ch {
		switch e := ev.(type) {
		case events.RunStartedEvent:
			cmd.PrintErrf("run %s: %d tasks in %d layers\n", e.RunID[:8], e.Tasks, e.Layers)
		case events.LayerStartedEvent:
			cmd.PrintErrf("  layer %d: tasks %v\n", e.Index+1, e.TaskIDs)
		case events.TaskCompletedEvent:
			cmd.PrintErrf("    task %d (%s) done in %.2fs\n", e.TaskID, e.Worker, e.Elapsed)
		case events.TaskFailedEvent:
			cmd.PrintErrf("    task %d (%s) failed: %v\n", e.TaskID, e.Worker, e.Err)
		case events.TaskSkippedEvent:
			cmd.PrintErrf("    task %d skipped (dependency failed)\n", e.TaskID)
		case events.RunFinishedEvent:
			cmd.PrintErrf("run complete: %d succeeded, %d failed\n", e.Succeeded, e.Failed)
		}
	}
}
