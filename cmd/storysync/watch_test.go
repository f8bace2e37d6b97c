package main

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"storysync/internal/todo"
)

func TestReloadChangedSkipsOwnWritesAndReloadsOnEdits(t *testing.T) {
	c := newCLI(t)
	c.mustRun(t, "", "load", "2.3")
	c.mustRun(t, hookPayloadJSON(c.root, `[
		{"content": "[2.3ΔTask1] Implement login", "status": "completed"},
		{"content": "[2.3ΔTask2] Add logout", "status": "in_progress"}
	]`), "hook")
	if !strings.Contains(c.document(t), "- [x] Implement login") {
		t.Fatalf("hook did not check the box:\n%s", c.document(t))
	}

	opts := &rootOptions{workspace: c.root, logLevel: "error"}
	ctx := context.Background()
	var out bytes.Buffer

	// the checkbox flip written by the hook is not drift
	if err := opts.reloadChanged(ctx, &out, []string{c.docPath}); err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 {
		t.Fatalf("unexpected reload after own write: %q", out.String())
	}
	if got := trackedStatus(t, opts, "[2.3ΔTask2] Add logout"); got != todo.StatusInProgress {
		t.Fatalf("in_progress item was reset to %q", got)
	}

	// paths other than the current story are ignored
	if err := opts.reloadChanged(ctx, &out, []string{c.root + "/docs/stories/9.9.other.md"}); err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 {
		t.Fatalf("unexpected reload for unrelated path: %q", out.String())
	}

	// an externally inserted task is drift
	if err := os.WriteFile(c.docPath, []byte(c.document(t)+"- [ ] Write release notes\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := opts.reloadChanged(ctx, &out, []string{c.docPath}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "reloaded story 2.3: 3 tasks") {
		t.Fatalf("expected reload, got %q", out.String())
	}
	if got := trackedStatus(t, opts, "[2.3ΔTask3] Write release notes"); got != todo.StatusPending {
		t.Fatalf("new task status = %q", got)
	}
}

func TestOpenReusesLongLivedLoader(t *testing.T) {
	c := newCLI(t)
	opts := &rootOptions{workspace: c.root, logLevel: "error"}

	first, err := opts.open()
	if err != nil {
		t.Fatal(err)
	}
	first.Close()
	opts.loader = first.loader

	second, err := opts.open()
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()
	if second.loader != first.loader {
		t.Fatal("open built a new loader instead of reusing the kept one")
	}

	data, err := opts.readDocument(c.docPath)
	if err != nil || string(data) != storyDoc {
		t.Fatalf("readDocument = %q, %v", data, err)
	}

	other := &rootOptions{workspace: t.TempDir(), logLevel: "error", loader: first.loader}
	third, err := other.open()
	if err != nil {
		t.Fatal(err)
	}
	defer third.Close()
	if third.loader == first.loader {
		t.Fatal("loader of another workspace was reused")
	}
}

func trackedStatus(t *testing.T, opts *rootOptions, content string) todo.Status {
	t.Helper()
	a, err := opts.open()
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	for _, item := range a.tracker.CurrentTodos() {
		if item.Content == content {
			return item.Status
		}
	}
	t.Fatalf("no tracked item %q in %+v", content, a.tracker.CurrentTodos())
	return ""
}
