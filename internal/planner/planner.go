// Package planner decides how to execute a user instruction: fan the
// same prompt out across workers, or decompose it into a dependency
// graph of subtasks. An LLM makes the first attempt; a semantic
// fallback takes over when its output can't be salvaged.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/paramind/paramind/internal/scheduler"
	"github.com/paramind/paramind/internal/worker"
)

// Controller turns a user instruction into an execution plan.
type Controller struct {
	client  worker.Client
	worker  string   // decision worker
	allowed []string // worker allow-list for plan tasks
	log     *slog.Logger
}

// New creates a Controller. allowed must hold at least one worker name;
// its first two entries seed default fan-out plans.
func New(client worker.Client, decisionWorker string, allowed []string, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{client: client, worker: decisionWorker, allowed: allowed, log: log}
}

// AnalyzeAndPlan returns an execution plan for the instruction. It never
// fails outright: when the LLM decision is unusable the semantic
// fallback produces a plan.
func (c *Controller) AnalyzeAndPlan(ctx context.Context, prompt string) *Plan {
	c.log.Info("analyzing instruction", "length", len(prompt))

	if plan := c.llmDecision(ctx, prompt); plan != nil && c.validatePlan(plan) {
		c.log.Info("llm decision accepted", "mode", plan.Mode)
		return plan
	}

	c.log.Warn("llm decision failed validation, using semantic fallback")
	return c.semanticFallback(prompt)
}

// llmDecision asks the decision worker for a plan and salvages its
// output. Returns nil when nothing parseable comes back.
func (c *Controller) llmDecision(ctx context.Context, prompt string) *Plan {
	resp, err := c.client.Call(ctx, c.worker, prompt,
		worker.WithSystemPrompt(c.systemPrompt()),
		worker.WithTemperature(0),
		worker.WithMaxTokens(1000),
	)
	if err != nil {
		c.log.Error("decision call failed", "error", err)
		return nil
	}

	plan, err := c.parsePlan(resp.Text)
	if err == nil {
		return plan
	}
	c.log.Warn("plan parse failed, attempting self-correction", "error", err)

	// One self-correction round: feed the broken output back.
	correction := fmt.Sprintf("The previous JSON was invalid. Fix it and return ONLY valid JSON.\nError: %v\nInvalid JSON: %s", err, resp.Text)
	fixed, err := c.client.Call(ctx, c.worker, correction,
		worker.WithSystemPrompt("You are a JSON fixer. Return ONLY valid JSON."),
		worker.WithTemperature(0),
	)
	if err != nil {
		c.log.Error("self-correction call failed", "error", err)
		return nil
	}

	plan, err = c.parsePlan(fixed.Text)
	if err != nil {
		c.log.Error("self-correction produced unusable JSON", "error", err)
		return nil
	}
	return plan
}

var (
	fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	jsonRe  = regexp.MustCompile(`(?s)\{.*\}`)
)

// parsePlan extracts, repairs, and decodes a plan from raw worker output,
// then rewrites out-of-allow-list worker names.
func (c *Controller) parsePlan(raw string) (*Plan, error) {
	text := strings.TrimSpace(raw)

	if m := fenceRe.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	if m := jsonRe.FindString(text); m != "" {
		text = m
	}

	var wire llmPlan
	if err := json.Unmarshal([]byte(text), &wire); err != nil {
		repaired, rerr := jsonrepair.JSONRepair(text)
		if rerr != nil {
			return nil, fmt.Errorf("decoding plan: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), &wire); err != nil {
			return nil, fmt.Errorf("decoding repaired plan: %w", err)
		}
	}

	plan := &Plan{
		Mode:      strings.ToUpper(strings.TrimSpace(wire.Mode)),
		Reasoning: wire.Reasoning,
		Workers:   wire.Plan.Workers,
	}
	for _, st := range wire.Plan.Subtasks {
		plan.Subtasks = append(plan.Subtasks, scheduler.Task{
			ID:          st.ID,
			Description: st.Description,
			Worker:      st.Worker,
			DependsOn:   st.DependsOn,
		})
	}

	c.fixWorkers(plan)
	return plan, nil
}

// fixWorkers enforces the allow-list: Mode A plans drop unknown workers
// and backfill to two; Mode B subtasks with unknown workers are remapped
// by id parity so siblings still spread across workers.
func (c *Controller) fixWorkers(plan *Plan) {
	switch plan.Mode {
	case ModeFanOut:
		var valid []string
		for _, w := range plan.Workers {
			if c.isAllowed(w) {
				valid = append(valid, w)
			}
		}
		if len(valid) < len(plan.Workers) {
			c.log.Warn("removed workers outside allow-list", "kept", len(valid), "proposed", len(plan.Workers))
		}
		if len(valid) < 2 {
			valid = c.defaultWorkers()
		}
		plan.Workers = valid

	case ModeDecompose:
		for i := range plan.Subtasks {
			if !c.isAllowed(plan.Subtasks[i].Worker) {
				c.log.Warn("remapping subtask worker outside allow-list", "task", plan.Subtasks[i].ID)
				defaults := c.defaultWorkers()
				plan.Subtasks[i].Worker = defaults[plan.Subtasks[i].ID%len(defaults)]
			}
		}
	}
}

func (c *Controller) isAllowed(w string) bool {
	for _, a := range c.allowed {
		if a == w {
			return true
		}
	}
	return false
}

func (c *Controller) defaultWorkers() []string {
	if len(c.allowed) >= 2 {
		return c.allowed[:2]
	}
	return c.allowed
}

// validatePlan checks the structural contract before the plan is trusted:
// Mode A needs at least one worker, Mode B needs 2-5 subtasks forming a
// valid DAG.
func (c *Controller) validatePlan(plan *Plan) bool {
	switch plan.Mode {
	case ModeFanOut:
		return len(plan.Workers) >= 1

	case ModeDecompose:
		if len(plan.Subtasks) < 2 || len(plan.Subtasks) > 5 {
			c.log.Warn("decompose plan has wrong subtask count", "count", len(plan.Subtasks))
			return false
		}
		if err := scheduler.Validate(plan.Subtasks); err != nil {
			c.log.Warn("decompose plan has invalid dependencies", "error", err)
			return false
		}
		return true
	}

	c.log.Warn("unknown plan mode", "mode", plan.Mode)
	return false
}

// systemPrompt builds the few-shot decision prompt over the allow-list.
func (c *Controller) systemPrompt() string {
	defaults := c.defaultWorkers()
	first := defaults[0]
	second := first
	if len(defaults) > 1 {
		second = defaults[1]
	}

	var b strings.Builder
	b.WriteString("You are an expert task analyzer. Decide execution mode and output ONLY valid JSON.\n\n")
	b.WriteString("AVAILABLE WORKERS (use ONLY these exact names):\n")
	for _, w := range c.allowed {
		fmt.Fprintf(&b, "- %s\n", w)
	}
	b.WriteString(`
MODE A - Data Parallel (same prompt, multiple workers):
- Comparisons: "Compare X vs Y"
- Multiple perspectives: "What do experts think about..."
- Variations: "Generate 3 different versions of..."

MODE B - Instruction Parallel (decompose into subtasks):
- Multi-component requests: "Plan trip with budget AND attractions AND food"
- Independent research: "Research history, current state, and future of X"
- Dependent tasks: "Research X then write a summary" (task 2 depends on task 1)

EXAMPLES:

Input: "Compare Python vs JavaScript"
Output:
`)
	fmt.Fprintf(&b, `{"mode":"A","reasoning":"Comparison task requires multiple perspectives","plan":{"workers":["%s","%s"]}}`, first, second)
	b.WriteString(`

Input: "Research the history of Bitcoin and then write a summary based on that research"
Output:
`)
	fmt.Fprintf(&b, `{"mode":"B","reasoning":"Sequential task: summary depends on research","plan":{"subtasks":[{"id":1,"description":"Research the detailed history and origins of Bitcoin","worker":"%s","depends_on":[]},{"id":2,"description":"Write a concise summary of Bitcoin's history based on the research","worker":"%s","depends_on":[1]}]}}`, first, first)
	b.WriteString(`

CRITICAL RULES:
1. Output ONLY valid JSON with NO markdown, NO code blocks, NO explanations
2. ALWAYS include both "mode" and "plan" keys
3. Mode A: "plan" must have a "workers" array of 2 workers from the available list
4. Mode B: "plan" must have a "subtasks" array with 2-5 subtasks
5. Each subtask MUST have: id, description, worker, and depends_on (array of ids)
6. NEVER invent worker names - use ONLY the available workers listed above
7. If uncertain, choose Mode A (safer default)

Now analyze this request and respond with ONLY the JSON:`)
	return b.String()
}
