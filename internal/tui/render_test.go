package tui

import (
	"strings"
	"testing"
	"time"

	"storysync/internal/reconcile"
	"storysync/internal/storage"
	"storysync/internal/todo"
	"storysync/internal/tracker"
)

func TestRenderMarkdown_Basic(t *testing.T) {
	input := "# Hello\n\nThis is **bold** text."
	result := RenderMarkdown(input, 80)
	if result == "" {
		t.Fatal("RenderMarkdown returned empty")
	}
	// Glamour 应该渲染了标题 / Glamour should have rendered the heading
	if !strings.Contains(result, "Hello") {
		t.Fatalf("result should contain 'Hello': %q", result)
	}
}

func TestRenderMarkdown_Empty(t *testing.T) {
	if RenderMarkdown("", 80) != "" {
		t.Fatal("empty input should return empty")
	}
	if RenderMarkdown("  ", 80) != "" {
		t.Fatal("whitespace input should return empty")
	}
}

func TestRenderMarkdown_CodeBlock(t *testing.T) {
	input := "```go\nfunc main() {}\n```"
	result := RenderMarkdown(input, 80)
	if !strings.Contains(result, "func") {
		t.Fatalf("code block should contain 'func': %q", result)
	}
}

func TestRenderDiffLine(t *testing.T) {
	theme := DarkTheme()

	tests := []struct {
		input  string
		expect string
	}{
		{"+added line", "added"},
		{"-removed line", "removed"},
		{"@@ -1,3 +1,4 @@", "@@"},
		{" context line", " context line"},
		{"", ""},
	}
	for _, tt := range tests {
		got := RenderDiffLine(tt.input, theme)
		if tt.expect != "" && !strings.Contains(got, tt.expect) {
			t.Errorf("RenderDiffLine(%q) should contain %q, got %q", tt.input, tt.expect, got)
		}
	}
}

func TestRenderDiff(t *testing.T) {
	theme := DarkTheme()
	diff := "--- a/story.md\n+++ b/story.md\n@@ -5 @@\n ## Tasks\n-- [ ] Implement login\n+- [x] Implement login"
	result := RenderDiff(diff, theme)
	if result == "" {
		t.Fatal("RenderDiff returned empty")
	}
	if !strings.Contains(result, "[x] Implement login") {
		t.Fatalf("should contain the checked line: %q", result)
	}
}

func TestRenderStatus(t *testing.T) {
	theme := DarkTheme()
	if got := RenderStatus(tracker.State{}, theme); !strings.Contains(got, "No story loaded") || !strings.Contains(got, "No todos") {
		t.Fatalf("unexpected empty status: %q", got)
	}

	st := boardState()
	got := RenderStatus(st, theme)
	for _, want := range []string{"Story 2.3", "in_progress", "2.3.login.md", "1/2", "[ ] [2.3ΔTask2] Add logout"} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in %q", want, got)
		}
	}
}

func TestRenderReport(t *testing.T) {
	theme := DarkTheme()
	r := reconcile.Report{
		DryRun:    true,
		Processed: 1,
		Invalid:   []todo.Invalid{{Index: 2, Reason: "missing content"}},
		Previews:  []reconcile.Preview{{Path: "s.md", Line: 6, Checked: true, Diff: "@@ -6 @@\n-- [ ] a\n+- [x] a"}},
	}
	got := RenderReport(r, theme)
	for _, want := range []string{"would update 1", "item 2: missing content", "+- [x] a"} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in %q", want, got)
		}
	}
	if got := RenderReport(reconcile.Report{Disabled: true}, theme); !strings.Contains(got, "sync disabled") {
		t.Fatalf("unexpected disabled report: %q", got)
	}
}

func TestRenderHistoryAndEvents(t *testing.T) {
	theme := DarkTheme()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	if !strings.Contains(RenderHistory(nil, theme), "No history") {
		t.Fatal("expected empty history marker")
	}
	hist := RenderHistory([]tracker.HistoryEntry{
		{StoryID: "2.3", Status: tracker.StatusLoading, Timestamp: at},
		{StoryID: "2.3", Status: tracker.StatusCompleted, Timestamp: at.Add(time.Hour)},
	}, theme)
	if !strings.Contains(hist, "2026-03-01T09:00:00Z") || !strings.Contains(hist, "completed") {
		t.Fatalf("unexpected history: %q", hist)
	}

	if !strings.Contains(RenderEvents(nil, theme), "No sync events") {
		t.Fatal("expected empty events marker")
	}
	ev := RenderEvents([]storage.SyncEvent{{StoryID: "2.3", Processed: 3, Updated: 1, LocateMisses: 1, DryRun: true, CreatedAt: at}}, theme)
	if !strings.Contains(ev, "processed 3, updated 1, skipped 1 (dry run)") {
		t.Fatalf("unexpected events: %q", ev)
	}
}
