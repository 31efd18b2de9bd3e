package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedClient fails a fixed number of times before succeeding, or
// always returns err when set.
type scriptedClient struct {
	mu       sync.Mutex
	calls    int
	failures int
	err      error
}

func (s *scriptedClient) Call(ctx context.Context, worker, instruction string, _ ...CallOption) (Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return Response{}, s.err
	}
	if s.calls <= s.failures {
		return Response{}, errors.New("provider returned 503")
	}
	return Response{Text: "recovered answer", Tokens: 5, Elapsed: 0.1}, nil
}

func (s *scriptedClient) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		InitialInterval:     time.Millisecond,
		MaxInterval:         5 * time.Millisecond,
		MaxElapsedTime:      time.Second,
		Multiplier:          1.5,
		RandomizationFactor: 0,
	}
}

func TestResilientRetriesTransientFailures(t *testing.T) {
	inner := &scriptedClient{failures: 2}
	r := NewResilient(inner, fastRetryConfig(), nil)

	resp, err := r.Call(context.Background(), "llama-3.1-8b-instant", "analyze")
	require.NoError(t, err)
	assert.Equal(t, "recovered answer", resp.Text)
	assert.Equal(t, 3, inner.callCount())
}

func TestResilientConfigurationErrorNotRetried(t *testing.T) {
	inner := &scriptedClient{err: &ConfigurationError{Worker: "bogus"}}
	r := NewResilient(inner, fastRetryConfig(), nil)

	_, err := r.Call(context.Background(), "bogus", "analyze")
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, 1, inner.callCount())
}

func TestResilientCancelledContextNotRetried(t *testing.T) {
	inner := &scriptedClient{failures: 100}
	r := NewResilient(inner, fastRetryConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Call(ctx, "llama-3.1-8b-instant", "analyze")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, inner.callCount())
}

func TestResilientCircuitOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &scriptedClient{err: errors.New("provider returned 503")}
	// One attempt per Call: give the policy no retry budget.
	cfg := fastRetryConfig()
	cfg.MaxElapsedTime = time.Nanosecond
	r := NewResilient(inner, cfg, nil)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := r.Call(ctx, "llama-3.1-8b-instant", "analyze")
		require.Error(t, err)
	}
	require.Equal(t, 5, inner.callCount())

	// Tripped breaker fails fast without touching the endpoint.
	_, err := r.Call(ctx, "llama-3.1-8b-instant", "analyze")
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 5, inner.callCount())

	// Breakers are per worker: a sibling still reaches the endpoint.
	_, err = r.Call(ctx, "llama-3.3-70b-versatile", "analyze")
	require.Error(t, err)
	assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 6, inner.callCount())
}
