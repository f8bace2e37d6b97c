package tui

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"storysync/internal/i18n"
	"storysync/internal/storage"
	"storysync/internal/todo"
	"storysync/internal/tracker"
)

func boardState() tracker.State {
	return tracker.State{
		SessionID: "sess_1_abcd1234",
		CurrentStory: &tracker.Story{
			ID:        "2.3",
			Content:   "# Story 2.3\n",
			Status:    tracker.StatusInProgress,
			StartedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
			Path:      "/ws/docs/stories/2.3.login.md",
		},
		CurrentTodos: []todo.Item{
			{ID: "2.3ΔtasksΔ6", Content: "[2.3ΔTask1] Implement login", Status: todo.StatusCompleted, Priority: todo.PriorityHigh},
			{ID: "2.3ΔtasksΔ7", Content: "[2.3ΔTask2] Add logout", Status: todo.StatusPending, Priority: todo.PriorityMedium},
		},
	}
}

func newBoard(t *testing.T, read func(string) ([]byte, error)) App {
	t.Helper()
	app := NewApp(Options{Workspace: "/ws", ReadDocument: read, Locale: i18n.New("en")})
	m, _ := app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m.(App)
}

func TestAppUpdate_PanelsAndQuit(t *testing.T) {
	app := newBoard(t, nil)

	m, _ := app.Update(tea.KeyMsg{Type: tea.KeyTab})
	updated := m.(App)
	if updated.activePanel != PanelStory {
		t.Fatalf("expected story panel, got %v", updated.activePanel)
	}
	m, _ = updated.Update(tea.KeyMsg{Type: tea.KeyTab})
	m, _ = m.(App).Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.(App).activePanel != PanelTodos {
		t.Fatalf("expected wrap to todos panel")
	}

	_, cmd := updated.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}

func TestAppUpdate_StateLoadsStoryDocument(t *testing.T) {
	var readPath string
	app := newBoard(t, func(path string) ([]byte, error) {
		readPath = path
		return []byte("# Story 2.3\n\n- [x] Implement login\n"), nil
	})

	m, _ := app.Update(StateMsg{State: boardState()})
	updated := m.(App)
	if readPath != "/ws/docs/stories/2.3.login.md" {
		t.Fatalf("unexpected document read: %q", readPath)
	}
	if !strings.Contains(updated.storyBody, "Implement login") {
		t.Fatalf("story body not loaded: %q", updated.storyBody)
	}
	if !strings.Contains(updated.renderTodos(), "[x] [2.3ΔTask1] Implement login") {
		t.Fatalf("todos not rendered: %q", updated.renderTodos())
	}
	if !strings.Contains(updated.View(), "sess_1_abcd1234") {
		t.Fatalf("sidebar should show session id")
	}
}

func TestAppUpdate_MissingDocumentFallsBackToSnapshot(t *testing.T) {
	app := newBoard(t, func(string) ([]byte, error) { return nil, os.ErrNotExist })

	m, _ := app.Update(StateMsg{State: boardState()})
	updated := m.(App)
	if updated.storyBody != "# Story 2.3\n" {
		t.Fatalf("expected snapshot content, got %q", updated.storyBody)
	}
	if !strings.Contains(updated.logContent.String(), "file does not exist") {
		t.Fatalf("expected read warning in log: %q", updated.logContent.String())
	}
}

func TestAppUpdate_EventsNoticesAndErrors(t *testing.T) {
	app := newBoard(t, nil)
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	m, _ := app.Update(StateMsg{Events: []storage.SyncEvent{
		{StoryID: "2.3", Processed: 2, Updated: 1, CreatedAt: at},
		{StoryID: "2.3", Processed: 1, CreatedAt: at.Add(-time.Minute)},
	}})
	updated := m.(App)
	if updated.syncs != 2 || !strings.Contains(updated.events, "processed 2, updated 1") {
		t.Fatalf("events not rendered: %q", updated.events)
	}

	m, _ = updated.Update(NoticeMsg{Text: "reloaded story 2.3", At: at})
	updated = m.(App)
	if !strings.Contains(updated.logContent.String(), "10:00:00 reloaded story 2.3") {
		t.Fatalf("notice not logged: %q", updated.logContent.String())
	}

	m, _ = updated.Update(ErrMsg{Err: errors.New("boom")})
	updated = m.(App)
	if updated.lastError != "boom" {
		t.Fatalf("unexpected last error: %q", updated.lastError)
	}

	m, _ = updated.Update(StateMsg{State: tracker.State{}})
	updated = m.(App)
	if updated.lastError != "" {
		t.Fatal("fresh state should clear the error")
	}
	if updated.syncs != 2 {
		t.Fatal("a state without events keeps the previous event list")
	}
}

func TestAppRefreshKey(t *testing.T) {
	calls := 0
	app := NewApp(Options{Refresh: func() tea.Msg {
		calls++
		return StateMsg{}
	}})
	if app.Init() == nil {
		t.Fatal("Init should refresh")
	}
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if cmd == nil {
		t.Fatal("expected refresh command")
	}
	if _, ok := cmd().(StateMsg); !ok || calls != 1 {
		t.Fatalf("refresh not invoked, calls=%d", calls)
	}
}

func TestRenderProgressBar(t *testing.T) {
	if got := renderProgressBar(50, 10); got != "█████░░░░░" {
		t.Fatalf("unexpected bar: %q", got)
	}
	if got := renderProgressBar(150, 4); got != "████" {
		t.Fatalf("bar should clamp: %q", got)
	}
}

func TestAppLocalizedChrome(t *testing.T) {
	app := NewApp(Options{Locale: i18n.New("zh-CN")})
	if got := app.View(); got != "初始化中..." {
		t.Fatalf("unexpected initial view: %q", got)
	}
	m, _ := app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	view := m.(App).View()
	if !strings.Contains(view, "待办") || !strings.Contains(view, "暂无待办") {
		t.Fatalf("expected zh-CN labels in view:\n%s", view)
	}
}
