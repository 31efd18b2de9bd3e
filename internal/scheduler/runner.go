package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/paramind/paramind/internal/cache"
	"github.com/paramind/paramind/internal/worker"
)

// DefaultConcurrency is the fleet-wide cap on simultaneous worker calls.
const DefaultConcurrency = 3

// DefaultTimeout bounds a single worker call.
const DefaultTimeout = 30 * time.Second

// formatDirective is appended to every dispatched instruction.
const formatDirective = "\n\nIMPORTANT: Format your response using Markdown. Use tables for structured data, bullet points for lists, and bold text for key information."

// ResponseCache is the optional result-cache collaborator consulted
// before a worker call is issued. A hit bypasses the gate and timeout
// entirely; only successful calls are written back.
type ResponseCache interface {
	Get(ctx context.Context, worker, instruction string) (cache.Entry, bool, error)
	Set(ctx context.Context, worker, instruction string, e cache.Entry) error
}

// Runner wraps one opaque worker call with a per-call timeout and a
// fleet-wide concurrency gate. Timeouts and worker failures become
// structured Results; only configuration errors propagate as errors.
type Runner struct {
	client  worker.Client
	cache   ResponseCache // nil disables caching
	gate    *semaphore.Weighted
	timeout time.Duration
	log     *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithCache attaches a response cache.
func WithCache(c ResponseCache) RunnerOption {
	return func(r *Runner) { r.cache = c }
}

// WithConcurrency sets the gate capacity (values <= 0 keep the default).
func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.gate = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithTimeout sets the per-call timeout (values <= 0 keep the default).
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRunner creates a Runner around the given worker client.
func NewRunner(client worker.Client, opts ...RunnerOption) *Runner {
	r := &Runner{
		client:  client,
		gate:    semaphore.NewWeighted(DefaultConcurrency),
		timeout: DefaultTimeout,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run issues one instruction to the named worker. The returned error is
// non-nil only for fatal conditions (configuration errors, run-level
// cancellation); per-call timeouts and worker failures are captured in
// the Result.
func (r *Runner) Run(ctx context.Context, workerName, instruction string) (Result, error) {
	full := instruction + formatDirective

	if r.cache != nil {
		if entry, ok, err := r.cache.Get(ctx, workerName, full); err != nil {
			r.log.Warn("cache lookup failed", "worker", workerName, "error", err)
		} else if ok {
			r.log.Debug("cache hit", "worker", workerName)
			return Result{
				Worker:   workerName,
				Response: entry.Response,
				Tokens:   entry.Tokens,
				Elapsed:  entry.Elapsed,
			}, nil
		}
	}

	// Admission gate: FIFO-fair, released exactly once on every exit path.
	if err := r.gate.Acquire(ctx, 1); err != nil {
		return Result{}, err
	}
	defer r.gate.Release(1)

	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type outcome struct {
		resp worker.Response
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		resp, err := r.client.Call(cctx, workerName, full)
		done <- outcome{resp, err}
	}()

	select {
	case <-cctx.Done():
		if ctx.Err() != nil {
			// The run itself was cancelled, not this call's deadline.
			return Result{}, ctx.Err()
		}
		r.log.Warn("worker call timed out", "worker", workerName, "timeout", r.timeout)
		return Result{
			Worker:  workerName,
			Elapsed: r.timeout.Seconds(),
			Err:     ErrTimeout,
		}, nil

	case out := <-done:
		if out.err != nil {
			var cfgErr *worker.ConfigurationError
			if errors.As(out.err, &cfgErr) {
				return Result{}, out.err
			}
			if cctx.Err() == context.DeadlineExceeded {
				return Result{
					Worker:  workerName,
					Elapsed: r.timeout.Seconds(),
					Err:     ErrTimeout,
				}, nil
			}
			r.log.Warn("worker call failed", "worker", workerName, "error", out.err)
			return Result{Worker: workerName, Err: out.err}, nil
		}

		res := Result{
			Worker:   workerName,
			Response: out.resp.Text,
			Tokens:   out.resp.Tokens,
			Elapsed:  out.resp.Elapsed,
		}

		if r.cache != nil {
			if err := r.cache.Set(ctx, workerName, full, cache.Entry{
				Response: res.Response,
				Tokens:   res.Tokens,
				Elapsed:  res.Elapsed,
			}); err != nil {
				r.log.Warn("cache write failed", "worker", workerName, "error", err)
			}
		}

		return res, nil
	}
}

// Timeout returns the per-call timeout.
func (r *Runner) Timeout() time.Duration {
	return r.timeout
}
