// Package api exposes the engine over HTTP.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/paramind/paramind/internal/aggregator"
	"github.com/paramind/paramind/internal/planner"
	"github.com/paramind/paramind/internal/scheduler"
)

// Server wires the planner, executor, and aggregator behind HTTP routes.
type Server struct {
	controller *planner.Controller
	executor   *scheduler.Executor
	agg        *aggregator.Aggregator
	log        *slog.Logger
}

// NewServer creates a Server.
func NewServer(controller *planner.Controller, executor *scheduler.Executor, agg *aggregator.Aggregator, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{controller: controller, executor: executor, agg: agg, log: log}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", s.handleHealth)
	r.POST("/analyze", s.handleAnalyze)
	r.POST("/execute", s.handleExecute)

	return r
}

type promptRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

type executeRequest struct {
	Mode   string       `json:"mode" binding:"required"`
	Plan   planner.Plan `json:"plan"`
	Prompt string       `json:"prompt"`
}

type resultJSON struct {
	TaskID   int     `json:"task_id"`
	Worker   string  `json:"worker"`
	Response string  `json:"response"`
	Tokens   int     `json:"tokens"`
	Elapsed  float64 `json:"elapsed_seconds"`
	Error    string  `json:"error,omitempty"`
}

type metricsJSON struct {
	ParallelTime       float64 `json:"parallel_time"`
	SequentialBaseline float64 `json:"sequential_baseline"`
	Speedup            float64 `json:"speedup"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "system": "paramind"})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan := s.controller.AnalyzeAndPlan(c.Request.Context(), req.Prompt)
	c.JSON(http.StatusOK, plan)
}

func (s *Server) handleExecute(c *gin.Context) {
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var tasks []scheduler.Task
	switch req.Mode {
	case planner.ModeFanOut:
		if req.Prompt == "" || len(req.Plan.Workers) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "mode A requires a prompt and plan.workers"})
			return
		}
		tasks = scheduler.FanOut(req.Prompt, req.Plan.Workers)
	case planner.ModeDecompose:
		if len(req.Plan.Subtasks) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "mode B requires plan.subtasks"})
			return
		}
		tasks = req.Plan.Subtasks
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mode"})
		return
	}

	start := time.Now()
	results, err := s.executor.Run(c.Request.Context(), tasks)
	parallel := time.Since(start).Seconds()

	if err != nil {
		var graphErr *scheduler.GraphError
		if errors.As(err, &graphErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": graphErr.Error()})
			return
		}
		s.log.Error("execute failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	combined, err := s.agg.Summarize(c.Request.Context(), results)
	if err != nil {
		s.log.Warn("summarize failed, listing raw results", "error", err)
		combined = s.agg.ListAll(results)
	}

	baseline := 0.0
	for _, r := range results {
		baseline += r.Elapsed
	}
	speedup := 0.0
	if parallel > 0 {
		speedup = baseline / parallel
	}

	wire := make([]resultJSON, 0, len(results))
	for _, r := range results {
		wire = append(wire, resultJSON{
			TaskID:   r.TaskID,
			Worker:   r.Worker,
			Response: r.Response,
			Tokens:   r.Tokens,
			Elapsed:  r.Elapsed,
			Error:    r.ErrorMessage(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"results":         wire,
		"combined_result": combined,
		"metrics": metricsJSON{
			ParallelTime:       parallel,
			SequentialBaseline: baseline,
			Speedup:            speedup,
		},
	})
}
