package tracker

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"storysync/internal/logging"
	"storysync/internal/todo"
)

// Options configures a tracker.
type Options struct {
	Logger *log.Logger
	// Now overrides the clock.
	Now func() time.Time
}

// Tracker owns the current story and its todo snapshot. Every mutation is
// persisted before the call returns; persistence failures are returned but
// the in-memory state is kept.
type Tracker struct {
	mu     sync.Mutex
	store  StateStore
	state  State
	now    func() time.Time
	logger *log.Logger
}

// Open loads the persisted state for projectDir. A missing, corrupt or
// foreign-project state starts empty. The session id is always new.
func Open(store StateStore, projectDir string, opts Options) *Tracker {
	t := &Tracker{
		store:  store,
		now:    opts.Now,
		logger: logging.OrDiscard(opts.Logger),
	}
	if t.now == nil {
		t.now = time.Now
	}
	projectDir = cleanDir(projectDir)

	t.state = t.load(projectDir)
	t.state.ProjectDir = projectDir
	t.state.SessionID = NewSessionID(t.now())
	return t
}

func (t *Tracker) load(projectDir string) State {
	if t.store == nil {
		return State{}
	}
	data, err := t.store.Load()
	if err != nil {
		t.logger.Warn("state unreadable, starting empty", "error", err)
		return State{}
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return State{}
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		t.logger.Warn("state corrupt, starting empty", "error", err)
		return State{}
	}
	if cleanDir(st.ProjectDir) != projectDir {
		t.logger.Info("state belongs to another project, discarding", "persisted", st.ProjectDir, "project", projectDir)
		return State{}
	}
	for i, item := range st.CurrentTodos {
		st.CurrentTodos[i] = todo.Normalize(item)
	}
	return st
}

func cleanDir(dir string) string {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return ""
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return filepath.Clean(dir)
}

// SetCurrentStory makes the story current with status loading. Loading a
// story replaces whatever story was current before.
func (t *Tracker) SetCurrentStory(id, content, path string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.stamp()
	t.state.CurrentStory = &Story{
		ID:        id,
		Content:   content,
		Status:    StatusLoading,
		StartedAt: now,
		Path:      path,
	}
	t.state.History = append(t.state.History, HistoryEntry{StoryID: id, Status: StatusLoading, Timestamp: now})
	return t.persist()
}

// UpdateStoryStatus moves the current story to status.
func (t *Tracker) UpdateStoryStatus(status Status) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	story := t.state.CurrentStory
	if story == nil {
		return ErrNoCurrentStory
	}
	if err := checkTransition(story.Status, status); err != nil {
		return err
	}
	if story.Status == status {
		return nil
	}

	now := t.stamp()
	story.Status = status
	if status == StatusCompleted {
		story.CompletedAt = &now
	}
	t.state.History = append(t.state.History, HistoryEntry{StoryID: story.ID, Status: status, Timestamp: now})
	return t.persist()
}

// SetCurrentTodos replaces the todo snapshot.
func (t *Tracker) SetCurrentTodos(items []todo.Item) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.CurrentTodos = todo.Clone(items)
	if t.state.CurrentTodos == nil {
		t.state.CurrentTodos = []todo.Item{}
	}
	return t.persist()
}

// Clear drops the current story, the snapshot and the history.
func (t *Tracker) Clear() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state = State{SessionID: t.state.SessionID, ProjectDir: t.state.ProjectDir}
	return t.persist()
}

// CurrentStory returns a copy of the current story.
func (t *Tracker) CurrentStory() (Story, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.CurrentStory == nil {
		return Story{}, false
	}
	return *t.state.clone().CurrentStory, true
}

// CurrentTodos returns a copy of the todo snapshot.
func (t *Tracker) CurrentTodos() []todo.Item {
	t.mu.Lock()
	defer t.mu.Unlock()
	return todo.Clone(t.state.CurrentTodos)
}

// SessionID returns this process's session id.
func (t *Tracker) SessionID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.SessionID
}

// ProjectDir returns the project the state is bound to.
func (t *Tracker) ProjectDir() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.ProjectDir
}

// History returns a copy of the status history, oldest first.
func (t *Tracker) History() []HistoryEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]HistoryEntry(nil), t.state.History...)
}

// Snapshot returns a deep copy of the whole state.
func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.clone()
}

// StoryFinished reports whether the latest recorded status of storyID is
// completed.
func (t *Tracker) StoryFinished(storyID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.state.History) - 1; i >= 0; i-- {
		if t.state.History[i].StoryID == storyID {
			return t.state.History[i].Status == StatusCompleted
		}
	}
	return false
}

// stamp returns now, clamped so history never goes backwards.
func (t *Tracker) stamp() time.Time {
	now := t.now().UTC()
	if n := len(t.state.History); n > 0 {
		if last := t.state.History[n-1].Timestamp; now.Before(last) {
			return last
		}
	}
	return now
}

func (t *Tracker) persist() error {
	if t.store == nil {
		return nil
	}
	data, err := json.MarshalIndent(t.state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := t.store.Save(data); err != nil {
		t.logger.Error("persist state failed", "error", err)
		return fmt.Errorf("persist state: %w", err)
	}
	return nil
}
