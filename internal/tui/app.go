package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"storysync/internal/i18n"
	"storysync/internal/storage"
	"storysync/internal/tracker"
)

// PanelID 面板标识
// PanelID identifies a panel
type PanelID int

const (
	PanelTodos PanelID = iota
	PanelStory
	PanelLog
)

const panelCount = 3

// --- Tea Messages ---

// StateMsg 跟踪器快照更新，可附带最近的同步事件
// StateMsg carries a fresh tracker snapshot and, when the backend keeps
// them, the latest sync events (newest first).
type StateMsg struct {
	State  tracker.State
	Events []storage.SyncEvent
}

// NoticeMsg 追加到同步日志的一行
// NoticeMsg appends a line to the sync log
type NoticeMsg struct {
	Text string
	At   time.Time
}

// ErrMsg 后台错误
// ErrMsg reports a background failure
type ErrMsg struct{ Err error }

// Options 看板选项
// Options configures the board
type Options struct {
	Workspace string
	// Refresh 返回最新快照，按 r 时调用 / Refresh is invoked on the refresh key
	Refresh func() tea.Msg
	// ReadDocument 读取故事文档，默认 os.ReadFile
	// ReadDocument reads a story document; defaults to os.ReadFile
	ReadDocument func(path string) ([]byte, error)
	// Locale 默认 i18n.Global() / Locale defaults to i18n.Global()
	Locale *i18n.I18n
}

// App 看板 Bubble Tea Model
// App is the story board Bubble Tea model
type App struct {
	// 布局 / Layout
	width  int
	height int

	// 面板 / Panels
	activePanel PanelID
	todosView   viewport.Model
	storyView   viewport.Model
	logView     viewport.Model

	// 数据 / Data
	state      tracker.State
	storyPath  string
	storyBody  string
	events     string
	logContent strings.Builder
	lastError  string
	syncs      int

	// 配置 / Config
	opts   Options
	theme  Theme
	keys   KeyMap
	locale *i18n.I18n
}

// NewApp 创建看板
// NewApp creates a new board
func NewApp(opts Options) App {
	if opts.ReadDocument == nil {
		opts.ReadDocument = os.ReadFile
	}
	if opts.Locale == nil {
		opts.Locale = i18n.Global()
	}
	return App{
		activePanel: PanelTodos,
		opts:        opts,
		theme:       DarkTheme(),
		keys:        DefaultKeyMap(),
		locale:      opts.Locale,
	}
}

func (a App) Init() tea.Cmd {
	if a.opts.Refresh == nil {
		return nil
	}
	return a.opts.Refresh
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, a.keys.SwitchPanel):
			a.activePanel = (a.activePanel + 1) % panelCount
			return a, nil
		case key.Matches(msg, a.keys.Refresh):
			if a.opts.Refresh != nil {
				return a, a.opts.Refresh
			}
			return a, nil
		}
		view := a.activeView()
		updated, cmd := view.Update(msg)
		*view = updated
		return a, cmd

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.relayout()
		return a, nil

	case StateMsg:
		a.state = msg.State
		a.lastError = ""
		a.todosView.SetContent(a.renderTodos())
		a.loadStory()
		if msg.Events != nil {
			a.syncs = len(msg.Events)
			a.events = RenderEvents(msg.Events, a.theme)
			a.refreshLog()
		}
		return a, nil

	case NoticeMsg:
		at := msg.At
		if at.IsZero() {
			at = time.Now()
		}
		a.appendLog(fmt.Sprintf("%s %s", a.theme.MutedStyle.Render(at.Format("15:04:05")), msg.Text))
		return a, nil

	case ErrMsg:
		if msg.Err != nil {
			a.lastError = msg.Err.Error()
			a.appendLog(a.theme.ErrorStyle.Render(a.locale.T("status.error", msg.Err.Error())))
		}
		return a, nil
	}
	return a, nil
}

func (a App) View() string {
	if a.width == 0 || a.height == 0 {
		return a.locale.T("status.initializing")
	}

	// 计算布局尺寸 / Calculate layout dimensions
	sidebarWidth := clampSidebar(a.width)
	if a.width < 80 {
		sidebarWidth = 0
	}
	mainWidth := a.width - sidebarWidth
	if sidebarWidth > 0 {
		mainWidth-- // border
	}
	panelHeight := a.height - 2
	if panelHeight < 3 {
		panelHeight = 3
	}

	main := lipgloss.JoinVertical(lipgloss.Left, a.renderTabs(), a.renderActivePanel(mainWidth, panelHeight))
	if sidebarWidth > 0 {
		main = lipgloss.JoinHorizontal(lipgloss.Top, main, a.renderSidebar(sidebarWidth, a.height-1))
	}
	return lipgloss.JoinVertical(lipgloss.Left, main, a.renderStatusBar(a.width))
}

// --- 内部方法 / Internal methods ---

func (a *App) activeView() *viewport.Model {
	switch a.activePanel {
	case PanelStory:
		return &a.storyView
	case PanelLog:
		return &a.logView
	default:
		return &a.todosView
	}
}

func (a *App) relayout() {
	width := a.width
	if width >= 80 {
		width -= clampSidebar(a.width) + 1
	}
	height := a.height - 2
	if height < 3 {
		height = 3
	}

	a.todosView = viewport.New(width, height)
	a.todosView.SetContent(a.renderTodos())

	a.storyView = viewport.New(width, height)
	a.storyView.SetContent(RenderMarkdown(a.storyBody, width))

	a.logView = viewport.New(width, height)
	a.refreshLog()
}

func clampSidebar(width int) int {
	w := width * 25 / 100
	if w < 20 {
		return 20
	}
	if w > 40 {
		return 40
	}
	return w
}

func (a *App) loadStory() {
	s := a.state.CurrentStory
	if s == nil {
		a.storyPath, a.storyBody = "", ""
		a.storyView.SetContent("")
		return
	}
	body := s.Content
	if s.Path != "" {
		if data, err := a.opts.ReadDocument(s.Path); err == nil {
			body = string(data)
		} else {
			a.appendLog(a.theme.WarningStyle.Render(a.locale.T("status.read_failed", s.Path, err.Error())))
		}
	}
	a.storyPath, a.storyBody = s.Path, body
	a.storyView.SetContent(RenderMarkdown(body, a.storyView.Width))
}

func (a *App) appendLog(text string) {
	a.logContent.WriteString(text + "\n")
	a.refreshLog()
}

// refreshLog shows stored events above the notices of this session.
func (a *App) refreshLog() {
	content := a.logContent.String()
	if a.events != "" {
		content = a.events + "\n\n" + content
	}
	a.logView.SetContent(content)
	a.logView.GotoBottom()
}

func (a App) renderTodos() string {
	if len(a.state.CurrentTodos) == 0 {
		return a.theme.MutedStyle.Render("  " + a.locale.T("empty.todos"))
	}
	lines := make([]string, 0, len(a.state.CurrentTodos))
	for _, item := range a.state.CurrentTodos {
		lines = append(lines, "  "+RenderTodoLine(item, a.theme))
	}
	return strings.Join(lines, "\n")
}

// --- 渲染方法 / Render methods ---

func (a App) renderTabs() string {
	tabs := []struct {
		id   PanelID
		name string
	}{
		{PanelTodos, a.locale.T("panel.todos")},
		{PanelStory, a.locale.T("panel.story")},
		{PanelLog, a.locale.T("panel.log")},
	}

	var parts []string
	for _, tab := range tabs {
		style := a.theme.InactiveTabStyle
		if tab.id == a.activePanel {
			style = a.theme.ActiveTabStyle
		}
		parts = append(parts, style.Render(tab.name))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (a App) renderActivePanel(width, height int) string {
	style := lipgloss.NewStyle().
		Width(width).
		Height(height)

	var content string
	switch a.activePanel {
	case PanelTodos:
		content = a.todosView.View()
	case PanelStory:
		if a.storyBody == "" {
			content = a.theme.MutedStyle.Render("  " + a.locale.T("empty.story"))
		} else {
			content = a.storyView.View()
		}
	case PanelLog:
		if a.logContent.Len() == 0 && a.events == "" {
			content = a.theme.MutedStyle.Render("  " + a.locale.T("empty.log"))
		} else {
			content = a.logView.View()
		}
	}
	return style.Render(content)
}

func (a App) renderSidebar(width, height int) string {
	var parts []string

	parts = append(parts, a.theme.TitleStyle.Render(" storysync"))
	parts = append(parts, "")

	parts = append(parts, a.theme.TitleStyle.Render(" "+a.locale.T("sidebar.story")))
	if s := a.state.CurrentStory; s != nil {
		parts = append(parts, "  "+s.ID)
		parts = append(parts, "  "+a.theme.StoryStyle(s.Status).Render(string(s.Status)))
	} else {
		parts = append(parts, a.theme.MutedStyle.Render("  "+a.locale.T("sidebar.none")))
	}
	parts = append(parts, "")

	done, total := 0, len(a.state.CurrentTodos)
	for _, item := range a.state.CurrentTodos {
		if item.Done() {
			done++
		}
	}
	pct := 0.0
	if total > 0 {
		pct = float64(done) * 100 / float64(total)
	}
	parts = append(parts, a.theme.TitleStyle.Render(" "+a.locale.T("sidebar.progress")))
	parts = append(parts, "  "+renderProgressBar(pct, width-4))
	parts = append(parts, "  "+a.locale.T("sidebar.done", done, total))
	parts = append(parts, "")

	parts = append(parts, a.theme.TitleStyle.Render(" "+a.locale.T("sidebar.session")))
	parts = append(parts, "  "+a.state.SessionID)
	parts = append(parts, "  "+a.locale.T("sidebar.syncs", a.syncs))

	style := a.theme.SidebarStyle.
		Width(width).
		Height(height)
	return style.Render(strings.Join(parts, "\n"))
}

func (a App) renderStatusBar(width int) string {
	left := " " + a.keys.HelpLine()
	if a.lastError != "" {
		left = " " + a.theme.ErrorStyle.Render(a.lastError)
	}
	right := fmt.Sprintf("%s  ", a.opts.Workspace)

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	bar := left + strings.Repeat(" ", gap) + right
	return a.theme.StatusBarStyle.Width(width).Render(bar)
}

func renderProgressBar(percent float64, width int) string {
	if width < 4 {
		width = 4
	}
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// Run 启动看板；feed 中的消息会转发给程序
// Run starts the board. Messages received on feed are forwarded to the
// program until it exits or feed is closed.
func Run(opts Options, feed <-chan tea.Msg) error {
	p := tea.NewProgram(NewApp(opts), tea.WithAltScreen(), tea.WithMouseCellMotion())
	done := make(chan struct{})
	defer close(done)
	if feed != nil {
		go func() {
			for {
				select {
				case <-done:
					return
				case msg, ok := <-feed:
					if !ok {
						return
					}
					p.Send(msg)
				}
			}
		}()
	}
	_, err := p.Run()
	return err
}
