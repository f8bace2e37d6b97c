package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"storysync/internal/reconcile"
	"storysync/internal/storage"
	"storysync/internal/todo"
	"storysync/internal/tracker"
)

var todoMarks = map[todo.Status]string{
	todo.StatusPending:    "[ ]",
	todo.StatusInProgress: "[>]",
	todo.StatusCompleted:  "[x]",
	todo.StatusCancelled:  "[-]",
}

// RenderMarkdown 使用 Glamour 渲染 markdown 文本
// RenderMarkdown renders markdown text using Glamour
func RenderMarkdown(content string, width int) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content
	}

	return strings.TrimRight(rendered, "\n")
}

// RenderDiffLine 为 diff 行添加颜色
// RenderDiffLine colorizes a diff line
func RenderDiffLine(line string, theme Theme) string {
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return line
	}

	switch {
	case strings.HasPrefix(trimmed, "+++"), strings.HasPrefix(trimmed, "---"),
		strings.HasPrefix(trimmed, "diff --"), strings.HasPrefix(trimmed, "index "):
		return theme.MutedStyle.Render(line)
	case strings.HasPrefix(trimmed, "@@"):
		return theme.DiffHunkStyle.Render(line)
	case strings.HasPrefix(trimmed, "+"):
		return theme.DiffAddStyle.Render(line)
	case strings.HasPrefix(trimmed, "-"):
		return theme.DiffDelStyle.Render(line)
	default:
		return line
	}
}

// RenderDiff 渲染完整 diff
// RenderDiff renders a complete diff with colors
func RenderDiff(diff string, theme Theme) string {
	if strings.TrimSpace(diff) == "" {
		return ""
	}

	lines := strings.Split(diff, "\n")
	rendered := make([]string, 0, len(lines))
	for _, line := range lines {
		rendered = append(rendered, RenderDiffLine(line, theme))
	}
	return strings.Join(rendered, "\n")
}

// RenderTodoLine 渲染单条待办
// RenderTodoLine renders a single todo with its status mark
func RenderTodoLine(item todo.Item, theme Theme) string {
	mark, ok := todoMarks[item.Status]
	if !ok {
		mark = "[?]"
	}
	return theme.TodoStyle(item.Status).Render(mark + " " + item.Content)
}

// RenderStatus 渲染当前故事与待办概览
// RenderStatus renders the current story and its todo list
func RenderStatus(st tracker.State, theme Theme) string {
	var b strings.Builder
	if s := st.CurrentStory; s != nil {
		fmt.Fprintf(&b, "%s %s\n", theme.TitleStyle.Render("Story "+s.ID), theme.StoryStyle(s.Status).Render(string(s.Status)))
		if s.Path != "" {
			b.WriteString(theme.MutedStyle.Render("  "+s.Path) + "\n")
		}
		started := s.StartedAt.UTC().Format(time.RFC3339)
		if s.CompletedAt != nil {
			started += " → " + s.CompletedAt.UTC().Format(time.RFC3339)
		}
		b.WriteString(theme.MutedStyle.Render("  "+started) + "\n")
	} else {
		b.WriteString(theme.MutedStyle.Render("No story loaded") + "\n")
	}
	if st.SessionID != "" {
		b.WriteString(theme.MutedStyle.Render("  session "+st.SessionID) + "\n")
	}

	if len(st.CurrentTodos) == 0 {
		b.WriteString("\n" + theme.MutedStyle.Render("No todos"))
		return b.String()
	}
	done := 0
	for _, item := range st.CurrentTodos {
		if item.Status == todo.StatusCompleted {
			done++
		}
	}
	fmt.Fprintf(&b, "\n%s %d/%d\n", theme.TitleStyle.Render("Todos"), done, len(st.CurrentTodos))
	for _, item := range st.CurrentTodos {
		b.WriteString("  " + RenderTodoLine(item, theme) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderReport 渲染一次同步的结果，含预览 diff
// RenderReport renders a reconcile report, including dry-run diffs
func RenderReport(r reconcile.Report, theme Theme) string {
	style := theme.SuccessStyle
	switch {
	case r.Disabled:
		style = theme.MutedStyle
	case r.LowConfidence+r.IdentityMisses+r.LocateMisses > 0 || len(r.Invalid) > 0:
		style = theme.WarningStyle
	}
	lines := []string{style.Render(r.String())}
	for _, inv := range r.Invalid {
		lines = append(lines, theme.ErrorStyle.Render(fmt.Sprintf("  item %d: %s", inv.Index, inv.Reason)))
	}
	for _, p := range r.Previews {
		lines = append(lines, RenderDiff(p.Diff, theme))
	}
	return strings.Join(lines, "\n")
}

// RenderHistory 渲染故事状态历史
// RenderHistory renders story status history, oldest first
func RenderHistory(entries []tracker.HistoryEntry, theme Theme) string {
	if len(entries) == 0 {
		return theme.MutedStyle.Render("No history")
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%s  %-6s %s",
			theme.MutedStyle.Render(e.Timestamp.UTC().Format(time.RFC3339)),
			e.StoryID,
			theme.StoryStyle(e.Status).Render(string(e.Status))))
	}
	return strings.Join(lines, "\n")
}

// RenderEvents 渲染同步事件，最新在前
// RenderEvents renders stored sync events, newest first
func RenderEvents(events []storage.SyncEvent, theme Theme) string {
	if len(events) == 0 {
		return theme.MutedStyle.Render("No sync events")
	}
	lines := make([]string, 0, len(events))
	for _, e := range events {
		mode := ""
		if e.DryRun {
			mode = " (dry run)"
		}
		lines = append(lines, fmt.Sprintf("%s  %-6s processed %d, updated %d, skipped %d%s",
			theme.MutedStyle.Render(e.CreatedAt.UTC().Format(time.RFC3339)),
			e.StoryID, e.Processed, e.Updated,
			e.LowConfidence+e.IdentityMisses+e.LocateMisses, mode))
	}
	return strings.Join(lines, "\n")
}
