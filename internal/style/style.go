package style

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/rescp17/landrop/pkg/notify"
)

// --- Reusable Colors ---
var (
	colorPink      = lipgloss.Color("205")
	colorDarkGray  = lipgloss.Color("240")
	colorLightGray = lipgloss.Color("229")
	colorBlue      = lipgloss.Color("57")
	colorCyan      = lipgloss.Color("212")
	colorPurple    = lipgloss.Color("99")
	colorRed       = lipgloss.Color("196")
	colorGreen     = lipgloss.Color("42")
	colorYellow    = lipgloss.Color("214")
	colorTeal      = lipgloss.Color("37")
)

// --- General Purpose Styles ---
var (
	ErrorStyle = lipgloss.NewStyle().Foreground(colorRed)
	HelpStyle  = lipgloss.NewStyle().Faint(true)
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPink)
)

// --- Layout ---
var (
	DocStyle           = lipgloss.NewStyle().Margin(1, 2)
	BaseStyle          = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(colorDarkGray)
	HighlightFontStyle = lipgloss.NewStyle().Foreground(colorCyan)
	HeaderStyle        = lipgloss.NewStyle().Bold(true).Padding(0, 1)

	ActiveTabStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorLightGray).Background(colorBlue).Padding(0, 2)
	InactiveTabStyle = lipgloss.NewStyle().Foreground(colorDarkGray).Padding(0, 2)

	StatusOnStyle  = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	StatusOffStyle = lipgloss.NewStyle().Foreground(colorDarkGray)
)

// --- File Picker Styles ---
var (
	CursorStyle   = lipgloss.NewStyle().Foreground(colorCyan).SetString("> ")
	NoCursorStyle = lipgloss.NewStyle().SetString("  ")
	DirStyle      = lipgloss.NewStyle().Foreground(colorPurple)
	FileStyle     = lipgloss.NewStyle().Foreground(colorLightGray)
	DisabledStyle = lipgloss.NewStyle().Foreground(colorDarkGray)
	PromptStyle   = lipgloss.NewStyle().Foreground(colorPurple)
	InputCursor   = lipgloss.NewStyle().Foreground(colorCyan)
)

// --- Notification Styles ---
var (
	notificationBox = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)

	notificationColors = map[notify.Kind]lipgloss.Color{
		notify.KindSuccess: colorGreen,
		notify.KindError:   colorRed,
		notify.KindWarning: colorYellow,
		notify.KindInfo:    colorBlue,
		notify.KindFile:    colorPurple,
		notify.KindText:    colorTeal,
	}
)

// Notification returns the box style for a notification of the given kind.
func Notification(kind notify.Kind) lipgloss.Style {
	c, ok := notificationColors[kind]
	if !ok {
		c = colorDarkGray
	}
	return notificationBox.BorderForeground(c)
}

// NotificationTitle returns the title style for a notification of the given kind.
func NotificationTitle(kind notify.Kind) lipgloss.Style {
	c, ok := notificationColors[kind]
	if !ok {
		c = colorLightGray
	}
	return lipgloss.NewStyle().Bold(true).Foreground(c)
}

// --- Common Components ---

// NewSpinner creates a spinner with a consistent style.
func NewSpinner() spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorPink)
	return s
}

// NewTableStyles returns the default styles for tables, with our custom selection style.
func NewTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.BorderStyle(lipgloss.NormalBorder()).BorderForeground(colorDarkGray).BorderBottom(true).Bold(true)
	styles.Selected = styles.Selected.Foreground(colorLightGray).Background(colorBlue).Bold(false)
	return styles
}
