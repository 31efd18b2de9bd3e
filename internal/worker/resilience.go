package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

// RetryConfig configures exponential backoff retry behavior.
type RetryConfig struct {
	InitialInterval     time.Duration // Initial retry interval (default 100ms)
	MaxInterval         time.Duration // Maximum retry interval (default 10s)
	MaxElapsedTime      time.Duration // Maximum total retry time (default 2min)
	Multiplier          float64       // Backoff multiplier (default 2.0)
	RandomizationFactor float64       // Jitter factor (default 0.5)
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialInterval:     100 * time.Millisecond,
		MaxInterval:         10 * time.Second,
		MaxElapsedTime:      2 * time.Minute,
		Multiplier:          2.0,
		RandomizationFactor: 0.5,
	}
}

// Resilient wraps a Client with exponential backoff retry and a
// per-worker circuit breaker. Configuration errors and context
// cancellation are never retried; everything else surfaces only after
// retries exhaust.
type Resilient struct {
	inner    Client
	retryCfg RetryConfig
	log      *slog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewResilient wraps inner with retry and circuit breaking.
func NewResilient(inner Client, retryCfg RetryConfig, log *slog.Logger) *Resilient {
	if log == nil {
		log = slog.Default()
	}
	return &Resilient{
		inner:    inner,
		retryCfg: retryCfg,
		log:      log,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Call implements Client.
func (r *Resilient) Call(ctx context.Context, worker, instruction string, opts ...CallOption) (Response, error) {
	cb := r.breaker(worker)

	var resp Response

	operation := func() error {
		// Fail fast if the caller is gone.
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}

		result, err := cb.Execute(func() (interface{}, error) {
			return r.inner.Call(ctx, worker, instruction, opts...)
		})
		if err != nil {
			// Unroutable worker names are caller bugs, not transient faults.
			var cfgErr *ConfigurationError
			if errors.As(err, &cfgErr) {
				return backoff.Permanent(err)
			}

			// Circuit is open - don't hammer a failing endpoint.
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(err)
			}

			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}

			r.log.Warn("worker call failed, retrying", "worker", worker, "error", err)
			return err
		}

		resp = result.(Response)
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.retryCfg.InitialInterval
	policy.MaxInterval = r.retryCfg.MaxInterval
	policy.MaxElapsedTime = r.retryCfg.MaxElapsedTime
	policy.Multiplier = r.retryCfg.Multiplier
	policy.RandomizationFactor = r.retryCfg.RandomizationFactor

	err := backoff.Retry(operation, backoff.WithContext(policy, ctx))
	return resp, err
}

// breaker returns the circuit breaker for a worker, creating it on
// first use.
func (r *Resilient) breaker(worker string) *gobreaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[worker]; ok {
		return cb
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        worker,
		MaxRequests: 3,                // Test requests allowed in half-open state
		Interval:    0,                // Don't clear counts automatically
		Timeout:     30 * time.Second, // Stay open for 30s before testing recovery
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			r.log.Warn("circuit breaker state change", "worker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			// Caller cancellation and caller bugs say nothing about endpoint health.
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return true
			}
			var cfgErr *ConfigurationError
			return errors.As(err, &cfgErr)
		},
	})

	r.breakers[worker] = cb
	return cb
}
