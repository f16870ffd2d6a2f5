package styles

import (
	"github.com/charmbracelet/lipgloss"

	"vault2notion/internal/domain"
)

var (
	// Colors
	Primary   = lipgloss.Color("#7C3AED") // Purple
	Secondary = lipgloss.Color("#10B981") // Green
	Muted     = lipgloss.Color("#6B7280") // Gray
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Error     = lipgloss.Color("#EF4444") // Red
	White     = lipgloss.Color("#FFFFFF")

	// Progress bar gradient endpoints
	GradientStart = "#7C3AED"
	GradientEnd   = "#10B981"

	// Base styles
	App = lipgloss.NewStyle().
		Padding(1, 2)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		MarginBottom(1)

	Subtitle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	Section = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	Selected = lipgloss.NewStyle().
			Background(Primary).
			Foreground(White).
			Bold(true)

	Spinner = lipgloss.NewStyle().
		Foreground(Primary)

	// Status bar
	StatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("#1F2937")).
			Foreground(White).
			Padding(0, 1)

	// Help styles
	HelpKey = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)

	HelpDesc = lipgloss.NewStyle().
			Foreground(Muted)

	// Message styles
	Success = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	WarningMsg = lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true)

	ErrorMsg = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	// Muted text style (for using Muted color as a style)
	MutedText = lipgloss.NewStyle().
			Foreground(Muted)
)

// StatusStyle returns the style used to render a document status label
func StatusStyle(status domain.DocumentStatus) lipgloss.Style {
	switch status {
	case domain.StatusMigrated:
		return Success
	case domain.StatusPartial:
		return WarningMsg
	case domain.StatusFailed:
		return ErrorMsg
	default:
		return MutedText
	}
}
