package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/paramind/paramind/internal/aggregator"
	"github.com/paramind/paramind/internal/cache"
	"github.com/paramind/paramind/internal/config"
	"github.com/paramind/paramind/internal/events"
	"github.com/paramind/paramind/internal/logging"
	"github.com/paramind/paramind/internal/planner"
	"github.com/paramind/paramind/internal/scheduler"
	"github.com/paramind/paramind/internal/worker"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "paramind",
		Short:         "Dispatch instructions across a fleet of LLM workers",
		Long:          "paramind plans an instruction into parallel (optionally dependent) subtasks and executes them concurrently across remote workers.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newInitCmd())

	return root
}

// engine bundles the wired components one command needs.
type engine struct {
	cfg        *config.Config
	log        *slog.Logger
	bus        *events.Bus
	controller *planner.Controller
	executor   *scheduler.Executor
	agg        *aggregator.Aggregator

	cacheStore *cache.Store // nil when caching is disabled
}

// buildEngine loads config and wires the full stack.
func buildEngine(cmd *cobra.Command) (*engine, error) {
	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, err
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	client := worker.NewResilient(
		worker.NewOpenAIClient(os.Getenv("OPENAI_API_KEY"), os.Getenv("GROQ_API_KEY"), log),
		worker.DefaultRetryConfig(),
		log,
	)

	opts := []scheduler.RunnerOption{
		scheduler.WithConcurrency(cfg.MaxConcurrent),
		scheduler.WithTimeout(time.Duration(cfg.DefaultTimeoutSeconds) * time.Second),
		scheduler.WithLogger(log),
	}

	var store *cache.Store
	if cfg.CachePath != "" {
		store, err = cache.NewStore(cmd.Context(), cfg.CachePath)
		if err != nil {
			return nil, fmt.Errorf("opening response cache: %w", err)
		}
		opts = append(opts, scheduler.WithCache(store))
	}

	runner := scheduler.NewRunner(client, opts...)
	bus := events.NewBus()

	return &engine{
		cfg:        cfg,
		log:        log,
		bus:        bus,
		controller: planner.New(client, cfg.ControllerWorker, cfg.Workers, log),
		executor:   scheduler.NewExecutor(runner, bus, log),
		agg:        aggregator.New(client, cfg.ControllerWorker),
		cacheStore: store,
	}, nil
}

// close releases engine resources.
func (e *engine) close() {
	e.bus.Close()
	if e.cacheStore != nil {
		if err := e.cacheStore.Close(); err != nil {
			e.log.Warn("closing cache", "error", err)
		}
	}
}
