package planner

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/paramind/paramind/internal/scheduler"
)

// promptAnalysis summarizes the surface structure of an instruction.
type promptAnalysis struct {
	isComparison   bool
	andCount       int
	commaCount     int
	taskCount      int
	componentCount int
}

var comparisonPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bcompare\b`),
	regexp.MustCompile(`\bversus\b`),
	regexp.MustCompile(`\bvs\.?\b`),
	regexp.MustCompile(`\bbetter\b`),
	regexp.MustCompile(`\bwhich\b`),
	regexp.MustCompile(`\bdifference\b`),
	regexp.MustCompile(`\bpros and cons\b`),
	regexp.MustCompile(`\badvantages?\b`),
}

var andSplitRe = regexp.MustCompile(`(?i)\band\b`)

var taskVerbs = []string{
	"plan", "create", "design", "list", "research",
	"analyze", "develop", "write", "generate",
}

// semanticFallback plans without the LLM: comparison phrasing fans out,
// multi-component phrasing decomposes, everything else fans out.
func (c *Controller) semanticFallback(prompt string) *Plan {
	analysis := analyzePrompt(prompt)

	if analysis.isComparison {
		c.log.Info("fallback: comparison pattern detected")
		return c.fanOutPlan("Detected comparison request")
	}

	if analysis.componentCount >= 2 {
		c.log.Info("fallback: multi-component request", "components", analysis.componentCount)
		return c.decomposePlan(prompt, analysis)
	}

	c.log.Info("fallback: defaulting to fan-out")
	return c.fanOutPlan("Default: single task best suited for multiple perspectives")
}

// analyzePrompt detects comparison phrasing and estimates how many
// independent components the instruction contains.
func analyzePrompt(prompt string) promptAnalysis {
	lower := strings.ToLower(prompt)

	a := promptAnalysis{
		andCount:   len(andSplitRe.FindAllString(lower, -1)),
		commaCount: strings.Count(lower, ","),
	}

	for _, p := range comparisonPatterns {
		if p.MatchString(lower) {
			a.isComparison = true
			break
		}
	}

	for _, verb := range taskVerbs {
		if strings.Contains(lower, verb) {
			a.taskCount++
		}
	}

	switch {
	case a.andCount >= 2:
		a.componentCount = a.andCount + 1
	case a.commaCount >= 2:
		a.componentCount = a.commaCount + 1
	case a.taskCount >= 2:
		a.componentCount = a.taskCount
	}

	return a
}

func (c *Controller) fanOutPlan(reasoning string) *Plan {
	return &Plan{
		Mode:      ModeFanOut,
		Reasoning: reasoning,
		Workers:   c.defaultWorkers(),
	}
}

// decomposePlan splits the instruction on "and" or commas into
// independent subtasks, alternating workers. Falls back to fan-out when
// the split yields fewer than two usable parts.
func (c *Controller) decomposePlan(prompt string, analysis promptAnalysis) *Plan {
	var parts []string
	switch {
	case analysis.andCount >= 2:
		parts = andSplitRe.Split(prompt, -1)
	case analysis.commaCount >= 2:
		parts = strings.Split(prompt, ",")
	default:
		return c.fanOutPlan("Cannot decompose into independent tasks")
	}

	var cleaned []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if len(p) > 10 {
			cleaned = append(cleaned, p)
		}
		if len(cleaned) == 5 {
			break
		}
	}
	if len(cleaned) < 2 {
		return c.fanOutPlan("Decomposition resulted in too few subtasks")
	}

	workers := c.defaultWorkers()
	subtasks := make([]scheduler.Task, 0, len(cleaned))
	for i, part := range cleaned {
		subtasks = append(subtasks, scheduler.Task{
			ID:          i + 1,
			Description: part,
			Worker:      workers[i%len(workers)],
		})
	}

	return &Plan{
		Mode:      ModeDecompose,
		Reasoning: fmt.Sprintf("Detected %d independent components", len(cleaned)),
		Subtasks:  subtasks,
	}
}
