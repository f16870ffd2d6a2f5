package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"vault2notion/internal/adapters/tui/styles"
)

// HelpKeyMap defines key bindings for the help view
type HelpKeyMap struct {
	Close key.Binding
}

var HelpKeys = HelpKeyMap{
	Close: key.NewBinding(
		key.WithKeys("esc", "q", "?"),
		key.WithHelp("esc/q/?", "close"),
	),
}

// HelpModel is the model for the help view
type HelpModel struct {
	ViewState
}

// NewHelpModel creates a new help view model
func NewHelpModel() *HelpModel {
	return &HelpModel{}
}

// Init initializes the help view
func (m *HelpModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view
func (m *HelpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, HelpKeys.Close) {
			return m, func() tea.Msg {
				return CloseHelpMsg{}
			}
		}
	}

	return m, nil
}

// View renders the help view
func (m *HelpModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("vault2notion Help"))
	b.WriteString("\n\n")

	b.WriteString(styles.Subtitle.Render("Obsidian vault to Notion database migration"))
	b.WriteString("\n\n")

	b.WriteString(styles.Section.Render("While running"))
	b.WriteString("\n")
	b.WriteString(helpBinding(ProgressKeys.Cancel, "Stop after the current document"))
	b.WriteString("\n")

	b.WriteString(styles.Section.Render("Results"))
	b.WriteString("\n")
	b.WriteString(helpLine("j / k / ↑ / ↓", "Move up/down"))
	b.WriteString(helpLine("ctrl+f / ctrl+b", "Next/previous page"))
	b.WriteString(helpBinding(ResultsKeys.Filter, "Show all documents or only problems"))
	b.WriteString(helpBinding(ResultsKeys.Open, "Open the selected note in Obsidian"))
	b.WriteString(helpBinding(ResultsKeys.Edit, "Edit the selected note in $EDITOR"))
	b.WriteString(helpBinding(ResultsKeys.Copy, "Copy the run summary"))
	b.WriteString(helpBinding(ResultsKeys.Quit, "Quit"))
	b.WriteString("\n")

	b.WriteString(styles.Section.Render("Statuses"))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("  migrated : every block was appended"))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("  partial  : page exists but some blocks were not appended"))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("  failed   : nothing was appended"))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("  skipped  : unchanged since the last run"))
	b.WriteString("\n\n")

	b.WriteString(styles.HelpDesc.Render("Press "))
	b.WriteString(styles.HelpKey.Render("esc"))
	b.WriteString(styles.HelpDesc.Render(" or "))
	b.WriteString(styles.HelpKey.Render("?"))
	b.WriteString(styles.HelpDesc.Render(" to close"))

	return styles.App.Render(b.String())
}

func helpBinding(k key.Binding, desc string) string {
	return helpLine(k.Help().Key, desc)
}

func helpLine(key, desc string) string {
	return "  " + styles.HelpKey.Render(padRight(key, 20)) + styles.HelpDesc.Render(desc) + "\n"
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}
