package tui

import (
	"github.com/charmbracelet/lipgloss"

	"storysync/internal/todo"
	"storysync/internal/tracker"
)

// Theme 定义看板色彩和样式
// Theme defines board colors and styles
type Theme struct {
	// 基础色 / Base colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Danger    lipgloss.Color
	Warning   lipgloss.Color
	Success   lipgloss.Color
	Muted     lipgloss.Color
	Text      lipgloss.Color
	TextDim   lipgloss.Color
	BgBar     lipgloss.Color
	Border    lipgloss.Color

	// 预构建样式 / Pre-built styles
	TitleStyle       lipgloss.Style
	ActiveTabStyle   lipgloss.Style
	InactiveTabStyle lipgloss.Style
	StatusBarStyle   lipgloss.Style
	SidebarStyle     lipgloss.Style
	ErrorStyle       lipgloss.Style
	SuccessStyle     lipgloss.Style
	WarningStyle     lipgloss.Style
	MutedStyle       lipgloss.Style
	ActiveStyle      lipgloss.Style
	DiffAddStyle     lipgloss.Style
	DiffDelStyle     lipgloss.Style
	DiffHunkStyle    lipgloss.Style
}

// DarkTheme 暗色主题（默认）
// DarkTheme is the default dark theme
func DarkTheme() Theme {
	t := Theme{
		Primary:   lipgloss.Color("#7C3AED"),
		Secondary: lipgloss.Color("#06B6D4"),
		Accent:    lipgloss.Color("#F59E0B"),
		Danger:    lipgloss.Color("#EF4444"),
		Warning:   lipgloss.Color("#F59E0B"),
		Success:   lipgloss.Color("#10B981"),
		Muted:     lipgloss.Color("#6B7280"),
		Text:      lipgloss.Color("#E5E7EB"),
		TextDim:   lipgloss.Color("#9CA3AF"),
		BgBar:     lipgloss.Color("#111827"),
		Border:    lipgloss.Color("#374151"),
	}

	t.TitleStyle = lipgloss.NewStyle().
		Foreground(t.Primary).
		Bold(true)

	t.ActiveTabStyle = lipgloss.NewStyle().
		Foreground(t.Text).
		Background(t.Primary).
		Padding(0, 2).
		Bold(true)

	t.InactiveTabStyle = lipgloss.NewStyle().
		Foreground(t.TextDim).
		Padding(0, 2)

	t.StatusBarStyle = lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.BgBar)

	t.SidebarStyle = lipgloss.NewStyle().
		Foreground(t.Text).
		BorderLeft(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(t.Border)

	t.ErrorStyle = lipgloss.NewStyle().
		Foreground(t.Danger).
		Bold(true)

	t.SuccessStyle = lipgloss.NewStyle().
		Foreground(t.Success)

	t.WarningStyle = lipgloss.NewStyle().
		Foreground(t.Warning)

	t.MutedStyle = lipgloss.NewStyle().
		Foreground(t.Muted)

	t.ActiveStyle = lipgloss.NewStyle().
		Foreground(t.Secondary).
		Bold(true)

	t.DiffAddStyle = lipgloss.NewStyle().
		Foreground(t.Success)

	t.DiffDelStyle = lipgloss.NewStyle().
		Foreground(t.Danger)

	t.DiffHunkStyle = lipgloss.NewStyle().
		Foreground(t.Secondary)

	return t
}

// TodoStyle 返回待办状态对应的样式
// TodoStyle picks the style for a todo status
func (t Theme) TodoStyle(status todo.Status) lipgloss.Style {
	switch status {
	case todo.StatusInProgress:
		return t.ActiveStyle
	case todo.StatusCompleted:
		return t.SuccessStyle
	case todo.StatusCancelled:
		return t.MutedStyle
	default:
		return lipgloss.NewStyle().Foreground(t.Text)
	}
}

// StoryStyle 返回故事状态对应的样式
// StoryStyle picks the style for a story status
func (t Theme) StoryStyle(status tracker.Status) lipgloss.Style {
	switch status {
	case tracker.StatusInProgress:
		return t.ActiveStyle
	case tracker.StatusBlocked:
		return t.ErrorStyle
	case tracker.StatusNeedsReview:
		return t.WarningStyle
	case tracker.StatusCompleted:
		return t.SuccessStyle
	default:
		return t.MutedStyle
	}
}
