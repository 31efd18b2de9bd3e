// Package aggregator merges the per-task Results of a run into a single
// user-facing answer.
package aggregator

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/paramind/paramind/internal/scheduler"
	"github.com/paramind/paramind/internal/worker"
)

const allFailed = "All agents failed."

// Aggregator combines run results, using a judge/synthesis worker where
// needed.
type Aggregator struct {
	client worker.Client
	worker string // synthesis/judge worker
}

// New creates an Aggregator that synthesizes through the given worker.
func New(client worker.Client, synthesisWorker string) *Aggregator {
	return &Aggregator{client: client, worker: synthesisWorker}
}

// ListAll renders every result as a labeled block, annotating failures.
func (a *Aggregator) ListAll(results []scheduler.Result) string {
	blocks := make([]string, 0, len(results))
	for i, r := range results {
		if r.Failed() {
			blocks = append(blocks, fmt.Sprintf("**Agent %d (%s):** Error - %s", i+1, r.Worker, r.ErrorMessage()))
			continue
		}
		blocks = append(blocks, fmt.Sprintf("**Agent %d (%s):**\n%s\n", i+1, r.Worker, r.Response))
	}
	return strings.Join(blocks, "\n\n")
}

// Summarize synthesizes all successful results into one coherent answer.
func (a *Aggregator) Summarize(ctx context.Context, results []scheduler.Result) (string, error) {
	valid := successful(results)
	if len(valid) == 0 {
		return allFailed, nil
	}

	sections := make([]string, 0, len(valid))
	for _, r := range valid {
		sections = append(sections, fmt.Sprintf("Worker %s: %s", r.Worker, r.Response))
	}

	prompt := fmt.Sprintf(`Synthesize these responses into a coherent summary:

%s

Provide a comprehensive summary that captures key insights from all responses.`, strings.Join(sections, "\n\n"))

	resp, err := a.client.Call(ctx, a.worker, prompt, worker.WithMaxTokens(500))
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return resp.Text, nil
}

// BestOfN asks a judge worker to pick the strongest response. Returns
// the first valid response when the judge's answer can't be parsed.
func (a *Aggregator) BestOfN(ctx context.Context, results []scheduler.Result, originalPrompt string) (string, error) {
	valid := successful(results)
	if len(valid) == 0 {
		return allFailed, nil
	}
	if len(valid) == 1 {
		return valid[0].Response, nil
	}

	var numbered strings.Builder
	for i, r := range valid {
		fmt.Fprintf(&numbered, "%d. %s\n", i+1, r.Response)
	}

	prompt := fmt.Sprintf(`Original Question: %s

Evaluate these responses and return ONLY the number (1, 2, 3, etc.) of the best response:

%s
Best response number:`, originalPrompt, numbered.String())

	resp, err := a.client.Call(ctx, a.worker, prompt,
		worker.WithTemperature(0.1),
		worker.WithMaxTokens(10),
	)
	if err != nil {
		return "", fmt.Errorf("best-of-n: %w", err)
	}

	idx, err := strconv.Atoi(strings.TrimSpace(resp.Text))
	if err != nil || idx < 1 || idx > len(valid) {
		return valid[0].Response, nil
	}
	return valid[idx-1].Response, nil
}

func successful(results []scheduler.Result) []scheduler.Result {
	var valid []scheduler.Result
	for _, r := range results {
		if !r.Failed() {
			valid = append(valid, r)
		}
	}
	return valid
}
