package worker

import (
	"context"
	"fmt"
)

// Response is what a worker returns for one instruction.
type Response struct {
	Text    string  // Response text
	Tokens  int     // Total tokens consumed
	Elapsed float64 // Wall-clock seconds for the call
}

// ConfigurationError reports a worker name no client can route.
// It is fatal: never retried, never recorded as a per-task failure.
type ConfigurationError struct {
	Worker string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("unsupported worker %q", e.Worker)
}

// Client is the opaque worker-call collaborator. Implementations must
// be safe for concurrent use and must honor ctx cancellation.
type Client interface {
	Call(ctx context.Context, worker, instruction string, opts ...CallOption) (Response, error)
}

// CallOption adjusts a single call.
type CallOption func(*callOptions)

type callOptions struct {
	systemPrompt string
	temperature  float32
	hasTemp      bool
	maxTokens    int
}

// WithSystemPrompt prepends a system message to the call.
func WithSystemPrompt(prompt string) CallOption {
	return func(o *callOptions) { o.systemPrompt = prompt }
}

// WithTemperature overrides the default sampling temperature.
func WithTemperature(t float32) CallOption {
	return func(o *callOptions) {
		o.temperature = t
		o.hasTemp = true
	}
}

// WithMaxTokens caps the response length.
func WithMaxTokens(n int) CallOption {
	return func(o *callOptions) { o.maxTokens = n }
}

func applyOptions(opts []CallOption) callOptions {
	// Defaults match the original deployment: temperature 0.7, 1000 tokens.
	o := callOptions{temperature: 0.7, maxTokens: 1000}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
