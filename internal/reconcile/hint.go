package reconcile

import (
	"fmt"
	"strings"

	"storysync/internal/story"
	"storysync/internal/todo"
)

// RenderHint builds the markdown block handed back to the assistant after
// a story is loaded. It lists the projected tasks and explains how their
// prefixes tie todo items to checkboxes.
func RenderHint(storyID, path string, tasks []story.Task, fresh []todo.Item, kept int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Story %s loaded into the todo list\n\n", storyID)
	if path != "" {
		fmt.Fprintf(&b, "Source: `%s`\n\n", path)
	}

	if len(tasks) == 0 {
		b.WriteString("No checkbox tasks were found under Acceptance Criteria, Tasks / Subtasks or Implementation Notes.\n")
		return b.String()
	}

	counts := map[story.Section]int{}
	done := 0
	for _, t := range tasks {
		counts[t.Section]++
		if t.Checked {
			done++
		}
	}
	var parts []string
	for _, s := range story.Sections {
		if n := counts[s]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, s.Label()))
		}
	}
	fmt.Fprintf(&b, "%d tasks (%s), %d already checked.", len(tasks), strings.Join(parts, ", "), done)
	if kept > 0 {
		fmt.Fprintf(&b, " %d existing todos were kept.", kept)
	}
	b.WriteString("\n\n")

	for _, item := range fresh {
		mark := " "
		if item.Status == todo.StatusCompleted {
			mark = "x"
		}
		fmt.Fprintf(&b, "- [%s] %s\n", mark, item.Content)
	}

	b.WriteString("\nKeep each item's id and its `[")
	b.WriteString(storyID)
	b.WriteString(story.Delimiter)
	b.WriteString("...]` prefix unchanged. Marking an item completed checks its box in the story document; reopening it unchecks the box.\n")
	return b.String()
}
