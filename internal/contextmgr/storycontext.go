package contextmgr

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"storysync/internal/todo"
	"storysync/internal/tracker"
)

// StoryHeader marks the start of the story context block.
const StoryHeader = "[CURRENT_STORY]"

var statusOrder = map[todo.Status]int{
	todo.StatusInProgress: 0,
	todo.StatusPending:    1,
	todo.StatusCompleted:  2,
	todo.StatusCancelled:  3,
}

var statusMarks = map[todo.Status]string{
	todo.StatusInProgress: "[>]",
	todo.StatusPending:    "[ ]",
	todo.StatusCompleted:  "[x]",
	todo.StatusCancelled:  "[-]",
}

// BuildStoryContext 渲染当前故事与待办，超出预算的待办被省略
// BuildStoryContext renders the current story and its todos. Todo lines
// that do not fit in budget tokens are dropped, active ones last. A budget
// of zero or less disables truncation.
func BuildStoryContext(st tracker.State, budget int, tok *Tokenizer) string {
	if st.CurrentStory == nil && len(st.CurrentTodos) == 0 {
		return ""
	}
	if tok == nil {
		tok = Heuristic()
	}

	lines := []string{StoryHeader}
	if s := st.CurrentStory; s != nil {
		lines = append(lines, fmt.Sprintf("Story %s (%s), started %s", s.ID, s.Status, s.StartedAt.UTC().Format(time.RFC3339)))
		if title := storyTitle(s.Content); title != "" {
			lines = append(lines, "Title: "+title)
		}
		if s.Path != "" {
			lines = append(lines, "Source: "+s.Path)
		}
	}
	done := 0
	for _, item := range st.CurrentTodos {
		if item.Status == todo.StatusCompleted {
			done++
		}
	}
	lines = append(lines, fmt.Sprintf("Todos: %d/%d completed", done, len(st.CurrentTodos)))

	items := todo.Clone(st.CurrentTodos)
	sort.SliceStable(items, func(i, j int) bool {
		return statusOrder[items[i].Status] < statusOrder[items[j].Status]
	})

	used := tok.CountLines(lines)
	omitted := 0
	for i, item := range items {
		line := fmt.Sprintf("- %s %s", statusMarks[item.Status], item.Content)
		cost := tok.CountText(line) + 1
		if budget > 0 && used+cost > budget {
			omitted = len(items) - i
			break
		}
		lines = append(lines, line)
		used += cost
	}
	if omitted > 0 {
		lines = append(lines, fmt.Sprintf("... %d more todos omitted", omitted))
	}
	return strings.Join(lines, "\n")
}

// storyTitle returns the first markdown heading of a story document.
func storyTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "#"))
		}
	}
	return ""
}
