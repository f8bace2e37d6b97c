// Package tracker keeps the "current story" state machine and the todo
// snapshot it owns, persisted across process restarts.
package tracker

import (
	"errors"
	"fmt"
	"time"

	"storysync/internal/todo"
)

// Status 故事生命周期状态 / Lifecycle status of the current story
type Status string

const (
	StatusLoading     Status = "loading"
	StatusInProgress  Status = "in_progress"
	StatusBlocked     Status = "blocked"
	StatusNeedsReview Status = "needs_review"
	StatusCompleted   Status = "completed"
)

var (
	// ErrInvalidTransition is returned for a status change the state machine
	// does not allow.
	ErrInvalidTransition = errors.New("invalid story status transition")
	// ErrNoCurrentStory is returned when a status update arrives before any
	// story was loaded.
	ErrNoCurrentStory = errors.New("no current story")
)

var transitions = map[Status][]Status{
	StatusLoading:     {StatusInProgress, StatusBlocked, StatusNeedsReview, StatusCompleted},
	StatusInProgress:  {StatusCompleted, StatusBlocked, StatusNeedsReview},
	StatusBlocked:     {StatusInProgress},
	StatusNeedsReview: {StatusCompleted, StatusInProgress},
	StatusCompleted:   nil,
}

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, bool) {
	s := Status(raw)
	_, ok := transitions[s]
	return s, ok
}

// CanTransition reports whether from may move to to. Staying put is always
// allowed.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func checkTransition(from, to Status) error {
	if _, ok := transitions[to]; !ok {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// Story is the story currently being worked.
type Story struct {
	ID          string     `json:"id"`
	Content     string     `json:"content"`
	Status      Status     `json:"status"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Path        string     `json:"path,omitempty"`
}

// HistoryEntry records one status change. Entries are append-only and
// never go back in time.
type HistoryEntry struct {
	StoryID   string    `json:"storyId"`
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// State is the persisted document.
type State struct {
	CurrentStory *Story         `json:"currentStory"`
	CurrentTodos []todo.Item    `json:"currentTodos"`
	SessionID    string         `json:"sessionId"`
	ProjectDir   string         `json:"projectDir"`
	History      []HistoryEntry `json:"history"`
}

func (s State) clone() State {
	out := s
	if s.CurrentStory != nil {
		story := *s.CurrentStory
		if s.CurrentStory.CompletedAt != nil {
			at := *s.CurrentStory.CompletedAt
			story.CompletedAt = &at
		}
		out.CurrentStory = &story
	}
	out.CurrentTodos = todo.Clone(s.CurrentTodos)
	out.History = append([]HistoryEntry(nil), s.History...)
	return out
}
