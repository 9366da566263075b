package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary   = lipgloss.Color("#5B8DEF")
	colorSecondary = lipgloss.Color("#3FB9A8")
	colorAccent    = lipgloss.Color("#E8716D")
	colorMuted     = lipgloss.Color("#6B7089")
	colorSuccess   = lipgloss.Color("#5FBF77")
	colorWarning   = lipgloss.Color("#E5A84B")
	colorError     = lipgloss.Color("#E05561")
	colorFg        = lipgloss.Color("#D4D8E8")
	colorSubtle    = lipgloss.Color("#3A3F58")
	colorHighlight = lipgloss.Color("#9AB8F5")
)

// kindColors colors grid cells and chart bars by display kind. Free-text
// kinds fall back to the accent.
var kindColors = map[string]lipgloss.Color{
	"lecture":  colorHighlight,
	"lab":      colorSuccess,
	"tutorial": colorSecondary,
	"break":    colorWarning,
}

func kindColor(kind string) lipgloss.Color {
	if c, ok := kindColors[kind]; ok {
		return c
	}
	return colorAccent
}

// Tabs and panels
var (
	activeTabStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorPrimary).Padding(0, 2)
	inactiveTabStyle = lipgloss.NewStyle().Foreground(colorMuted).Padding(0, 2)

	panelStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorSubtle).Padding(1, 2)
	activePanelStyle = panelStyle.BorderForeground(colorPrimary)

	headerStyle = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(colorMuted).Padding(0, 1)
)

// Grid
var (
	cellStyle         = lipgloss.NewStyle().Padding(0, 1).Height(3)
	selectedCellStyle = cellStyle.Background(colorSubtle)
	gridHeaderStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorFg).Align(lipgloss.Center)
	slotLabelStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorMuted)
)

// Notifications
var (
	noticeSuccessStyle = lipgloss.NewStyle().Bold(true).Foreground(colorSuccess)
	noticeErrorStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorError)
	noticeInfoStyle    = lipgloss.NewStyle().Foreground(colorHighlight)
)

// Text and lists
var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorFg)
	subtitleStyle  = lipgloss.NewStyle().Foreground(colorSecondary)
	successStyle   = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle   = lipgloss.NewStyle().Foreground(colorWarning)
	mutedStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	highlightStyle = lipgloss.NewStyle().Foreground(colorHighlight)

	selectedItemStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	normalItemStyle   = lipgloss.NewStyle().Foreground(colorFg)
)
