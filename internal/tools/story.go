package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"storysync/internal/reconcile"
	"storysync/internal/story"
	"storysync/internal/tracker"
)

// StoryLoader finds and reads story documents.
type StoryLoader interface {
	Load(storyID string) (story.Document, error)
}

// StoryLoadTool loads a story and seeds the todo list from its checkboxes.
type StoryLoadTool struct {
	loader StoryLoader
	engine *reconcile.Engine
}

// StoryStatusTool reads or moves the current story's status.
type StoryStatusTool struct {
	tracker *tracker.Tracker
}

func NewStoryLoadTool(loader StoryLoader, engine *reconcile.Engine) *StoryLoadTool {
	return &StoryLoadTool{loader: loader, engine: engine}
}

func NewStoryStatusTool(tr *tracker.Tracker) *StoryStatusTool {
	return &StoryStatusTool{tracker: tr}
}

func (t *StoryLoadTool) Name() string { return "story_load" }

func (t *StoryStatusTool) Name() string { return "story_status" }

func (t *StoryLoadTool) Definition() Spec {
	return functionSpec(t.Name(),
		"Load a story document (e.g. 2.3) and seed the todo list with its acceptance criteria and tasks",
		map[string]any{
			"story_id": map[string]any{"type": "string", "description": "story id in epic.number form"},
		},
		"story_id")
}

func (t *StoryStatusTool) Definition() Spec {
	statuses := []string{
		string(tracker.StatusInProgress), string(tracker.StatusBlocked),
		string(tracker.StatusNeedsReview), string(tracker.StatusCompleted),
	}
	return functionSpec(t.Name(),
		"Show the current story, or move it to a new status when status is given",
		map[string]any{"status": map[string]any{"type": "string", "enum": statuses}})
}

func (t *StoryLoadTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	if t.loader == nil || t.engine == nil {
		return "", fmt.Errorf("story loader unavailable")
	}
	var in struct {
		StoryID string `json:"story_id"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("story_load args: %w", err)
	}
	if strings.TrimSpace(in.StoryID) == "" {
		return "", fmt.Errorf("story_load: story_id is required")
	}

	doc, err := t.loader.Load(in.StoryID)
	if err != nil {
		return "", err
	}
	res, err := t.engine.LoadStory(ctx, doc.StoryID, doc.Raw, doc.Path)
	if err != nil {
		return "", err
	}
	return okResult(map[string]any{
		"story_id": res.StoryID,
		"path":     res.Path,
		"tasks":    len(res.Tasks),
		"hint":     res.Hint,
		"todos":    res.Todos,
	}), nil
}

func (t *StoryStatusTool) Execute(_ context.Context, args json.RawMessage) (string, error) {
	if t.tracker == nil {
		return "", fmt.Errorf("story tracker unavailable")
	}
	var in struct {
		Status string `json:"status"`
	}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &in); err != nil {
			return "", fmt.Errorf("story_status args: %w", err)
		}
	}
	if status := strings.TrimSpace(in.Status); status != "" {
		if err := t.tracker.UpdateStoryStatus(tracker.Status(status)); err != nil {
			return "", err
		}
	}
	current, ok := t.tracker.CurrentStory()
	if !ok {
		return okResult(map[string]any{"story": nil}), nil
	}
	return okResult(map[string]any{
		"story": map[string]any{
			"id":         current.ID,
			"status":     current.Status,
			"path":       current.Path,
			"started_at": current.StartedAt,
		},
	}), nil
}
