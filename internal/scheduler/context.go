package scheduler

import (
	"fmt"
	"strings"
)

const (
	// maxDependencyChars bounds how much of one upstream response is
	// rendered into a downstream task's context.
	maxDependencyChars = 2000

	truncationMarker = "...(truncated)"

	contextHeader = "### Previous Results:"
)

// BuildContext renders the upstream results a task depends on into a
// bounded text block, one labeled section per dependency in depends_on
// order. Pure function of its inputs; returns "" when the task has no
// dependencies.
func BuildContext(task Task, results map[int]Result) string {
	if len(task.DependsOn) == 0 {
		return ""
	}

	parts := []string{contextHeader}
	for _, depID := range task.DependsOn {
		res, ok := results[depID]
		if !ok {
			continue
		}
		text := res.Response
		// Bound by characters, not bytes: a byte slice could split a
		// multibyte rune and leave invalid UTF-8 in the instruction.
		if runes := []rune(text); len(runes) > maxDependencyChars {
			text = string(runes[:maxDependencyChars]) + truncationMarker
		}
		parts = append(parts, fmt.Sprintf("From Task %d:\n%s\n", depID, text))
	}

	return strings.Join(parts, "\n")
}

// Instruction renders the full instruction sent to a task's worker:
// dependency context followed by the task description, or the
// description alone when there is no context.
func Instruction(task Task, results map[int]Result) string {
	ctx := BuildContext(task, results)
	if ctx == "" {
		return task.Description
	}
	return fmt.Sprintf("%s\n\nTask: %s", ctx, task.Description)
}
