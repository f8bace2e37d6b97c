package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storysync/internal/reconcile"
	"storysync/internal/security"
	"storysync/internal/story"
	"storysync/internal/tracker"
)

const storyDoc = `# Story 2.3

## Tasks / Subtasks
- [ ] Implement login
- [ ] Add logout
`

type toolEnv struct {
	registry *Registry
	tracker  *tracker.Tracker
	docPath  string
}

func newToolEnv(t *testing.T) toolEnv {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "docs", "stories")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	docPath := filepath.Join(dir, "2.3.login.md")
	if err := os.WriteFile(docPath, []byte(storyDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	ws, err := security.NewWorkspace(root)
	if err != nil {
		t.Fatal(err)
	}
	loader, err := story.NewLoader(ws, story.LoaderOptions{Dirs: []string{"docs/stories"}})
	if err != nil {
		t.Fatal(err)
	}
	tr := tracker.Open(&tracker.MemoryStore{}, root, tracker.Options{})
	engine := reconcile.New(tr, reconcile.Options{Enabled: true, Resolver: loader})

	reg := NewRegistry(
		NewTodoReadTool(tr),
		NewTodoWriteTool(engine),
		NewStoryLoadTool(loader, engine),
		NewStoryStatusTool(tr),
	)
	return toolEnv{registry: reg, tracker: tr, docPath: docPath}
}

func decode(t *testing.T, out string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(out), &m); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	return m
}

func TestRegistryNamesAndDefinitions(t *testing.T) {
	env := newToolEnv(t)
	names := env.registry.Names()
	want := []string{"story_load", "story_status", "todoread", "todowrite"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("names=%v", names)
	}
	defs := env.registry.Definitions()
	if len(defs) != 4 || defs[0].Function.Name != "story_load" {
		t.Fatalf("unexpected definitions: %+v", defs)
	}
	if _, err := env.registry.Execute(context.Background(), "bash", nil); err == nil {
		t.Fatal("expected unknown tool error")
	}
}

func TestStoryLoadThenTodoWriteChecksBox(t *testing.T) {
	env := newToolEnv(t)
	ctx := context.Background()

	out, err := env.registry.ExecuteCall(ctx, Call{
		Name:  "story_load",
		Input: json.RawMessage(`"{\"story_id\": \"story-2.3\"}"`),
	})
	if err != nil {
		t.Fatal(err)
	}
	loaded := decode(t, out)
	if loaded["story_id"] != "2.3" || !strings.Contains(loaded["hint"].(string), "[2.3ΔTask1] Implement login") {
		t.Fatalf("unexpected load result: %v", loaded)
	}

	readOut, err := env.registry.Execute(ctx, "todoread", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := decode(t, readOut)["count"]; got != float64(2) {
		t.Fatalf("count=%v", got)
	}

	args := `{"todos": [
		{"id": "2.3ΔtasksΔ3", "content": "[2.3ΔTask1] Implement login", "status": "completed", "priority": "medium"},
		{"id": "2.3ΔtasksΔ4", "content": "[2.3ΔTask2] Add logout", "status": "in_progress", "priority": "medium"},
		{"content": "write release notes", "status": "pending", "priority": "low"}
	]}`
	writeOut, err := env.registry.Execute(ctx, "todowrite", json.RawMessage(args))
	if err != nil {
		t.Fatal(err)
	}
	written := decode(t, writeOut)
	if written["count"] != float64(3) {
		t.Fatalf("count=%v", written["count"])
	}
	if _, ok := written["warning"]; ok {
		t.Fatalf("unexpected warning: %v", written["warning"])
	}

	data, err := os.ReadFile(env.docPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "- [x] Implement login") || !strings.Contains(string(data), "- [ ] Add logout") {
		t.Fatalf("document not updated as expected:\n%s", data)
	}

	statusOut, err := env.registry.Execute(ctx, "story_status", nil)
	if err != nil {
		t.Fatal(err)
	}
	st := decode(t, statusOut)["story"].(map[string]any)
	if st["status"] != string(tracker.StatusInProgress) {
		t.Fatalf("status=%v", st["status"])
	}
}

func TestTodoWriteWarnsOnSeveralInProgress(t *testing.T) {
	env := newToolEnv(t)
	args := `{"todos": [
		{"content": "a", "status": "in_progress", "priority": "high"},
		{"content": "b", "status": "in_progress", "priority": "high"}
	]}`
	out, err := env.registry.Execute(context.Background(), "todowrite", json.RawMessage(args))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := decode(t, out)["warning"]; !ok {
		t.Fatalf("expected warning in %s", out)
	}
	if got := len(env.tracker.CurrentTodos()); got != 2 {
		t.Fatalf("snapshot size=%d", got)
	}
}

func TestTodoWriteRejectsNonList(t *testing.T) {
	env := newToolEnv(t)
	if _, err := env.registry.Execute(context.Background(), "todowrite", json.RawMessage(`{"todos": {"a": 1}}`)); err == nil {
		t.Fatal("expected error for non-list todos")
	}
	out, err := env.registry.Execute(context.Background(), "todowrite", json.RawMessage(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if decode(t, out)["count"] != float64(0) {
		t.Fatalf("expected empty list: %s", out)
	}
}

func TestStoryStatusTransitions(t *testing.T) {
	env := newToolEnv(t)
	ctx := context.Background()

	out, err := env.registry.Execute(ctx, "story_status", json.RawMessage(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if decode(t, out)["story"] != nil {
		t.Fatalf("expected no story: %s", out)
	}
	if _, err := env.registry.Execute(ctx, "story_status", json.RawMessage(`{"status":"completed"}`)); err == nil {
		t.Fatal("expected error without a current story")
	}

	if _, err := env.registry.Execute(ctx, "story_load", json.RawMessage(`{"story_id":"2.3"}`)); err != nil {
		t.Fatal(err)
	}
	if _, err := env.registry.Execute(ctx, "story_status", json.RawMessage(`{"status":"needs_review"}`)); err != nil {
		t.Fatal(err)
	}
	if _, err := env.registry.Execute(ctx, "story_status", json.RawMessage(`{"status":"blocked"}`)); err == nil {
		t.Fatal("needs_review -> blocked should be rejected")
	}
	if _, err := env.registry.Execute(ctx, "story_load", json.RawMessage(`{"story_id":"9.9"}`)); err == nil {
		t.Fatal("expected missing story error")
	}
}

func TestCallArgsShapes(t *testing.T) {
	cases := map[string]string{
		``:                 `{}`,
		`null`:             `{}`,
		`""`:               `{}`,
		`{"status":"x"}`:   `{"status":"x"}`,
		`"{\"status\":1}"`: `{"status":1}`,
	}
	for in, want := range cases {
		got, err := Call{Name: "story_status", Input: json.RawMessage(in)}.Args()
		if err != nil {
			t.Fatalf("Args(%q) error = %v", in, err)
		}
		if string(got) != want {
			t.Fatalf("Args(%q) = %s, want %s", in, got, want)
		}
	}
	if _, err := (Call{Name: "x", Input: json.RawMessage(`"unterminated`)}).Args(); err == nil {
		t.Fatal("expected error for malformed string input")
	}
}
