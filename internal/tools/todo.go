package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"storysync/internal/reconcile"
	"storysync/internal/todo"
	"storysync/internal/tracker"
)

type TodoReadTool struct {
	tracker *tracker.Tracker
}

type TodoWriteTool struct {
	engine *reconcile.Engine
}

func NewTodoReadTool(tr *tracker.Tracker) *TodoReadTool {
	return &TodoReadTool{tracker: tr}
}

func NewTodoWriteTool(engine *reconcile.Engine) *TodoWriteTool {
	return &TodoWriteTool{engine: engine}
}

func (t *TodoReadTool) Name() string {
	return "todoread"
}

func (t *TodoWriteTool) Name() string {
	return "todowrite"
}

func (t *TodoReadTool) Definition() Spec {
	return functionSpec(t.Name(), "Read the current todo list, including items seeded from the loaded story", map[string]any{})
}

func (t *TodoWriteTool) Definition() Spec {
	item := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":       map[string]any{"type": "string"},
			"content":  map[string]any{"type": "string"},
			"status":   map[string]any{"type": "string", "enum": []string{"pending", "in_progress", "completed", "cancelled"}},
			"priority": map[string]any{"type": "string", "enum": []string{"high", "medium", "low"}},
		},
		"required": []string{"content", "status", "priority"},
	}
	return functionSpec(t.Name(),
		"Replace the todo list. Completing a story item checks its box in the story document; keep ids and [story] prefixes unchanged",
		map[string]any{"todos": map[string]any{"type": "array", "items": item}},
		"todos")
}

func (t *TodoReadTool) Execute(_ context.Context, _ json.RawMessage) (string, error) {
	if t.tracker == nil {
		return "", fmt.Errorf("todo tracker unavailable")
	}
	items := t.tracker.CurrentTodos()
	if items == nil {
		items = []todo.Item{}
	}
	return okResult(map[string]any{
		"session_id":  t.tracker.SessionID(),
		"items":       items,
		"count":       len(items),
		"in_progress": todo.CountInProgress(items),
	}), nil
}

func (t *TodoWriteTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	if t.engine == nil {
		return "", fmt.Errorf("reconcile engine unavailable")
	}
	var in struct {
		Todos json.RawMessage `json:"todos"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("todowrite args: %w", err)
	}
	if len(in.Todos) == 0 || string(in.Todos) == "null" {
		in.Todos = json.RawMessage("[]")
	}

	report, err := t.engine.ReconcileJSON(ctx, in.Todos)
	if err != nil {
		return "", fmt.Errorf("todowrite args: %w", err)
	}
	items := t.engine.Tracker().CurrentTodos()
	if items == nil {
		items = []todo.Item{}
	}
	out := map[string]any{
		"session_id": t.engine.Tracker().SessionID(),
		"count":      len(items),
		"items":      items,
		"sync":       report,
		"summary":    report.String(),
	}
	if n := todo.CountInProgress(items); n > 1 {
		out["warning"] = fmt.Sprintf("%d items are in_progress; keep one item in progress at a time", n)
	}
	return okResult(out), nil
}
