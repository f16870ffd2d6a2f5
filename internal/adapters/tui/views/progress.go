package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"vault2notion/internal/adapters/tui/styles"
	"vault2notion/internal/application/commands"
	"vault2notion/internal/domain"
)

const recentOutcomes = 5

// ProgressKeyMap defines key bindings for the progress view
type ProgressKeyMap struct {
	Cancel key.Binding
	Help   key.Binding
}

var ProgressKeys = ProgressKeyMap{
	Cancel: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "cancel"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
}

// ProgressModel shows a running migration
type ProgressModel struct {
	ViewState
	database string
	dryRun   bool

	bar     progress.Model
	spinner spinner.Model

	phase     commands.Phase
	done      int
	total     int
	current   string
	stats     domain.MigrationStats
	recent    []domain.DocumentOutcome
	canceling bool
}

// NewProgressModel creates the progress view for a run against databaseID
func NewProgressModel(databaseID string, dryRun bool) *ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	return &ProgressModel{
		database: databaseID,
		dryRun:   dryRun,
		bar:      progress.New(progress.WithGradient(styles.GradientStart, styles.GradientEnd), progress.WithWidth(40)),
		spinner:  s,
	}
}

// Init starts the spinner
func (m *ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages for the progress view
func (m *ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ProgressMsg:
		m.apply(msg.Progress)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, ProgressKeys.Cancel):
			if m.canceling {
				return m, nil
			}
			m.canceling = true
			m.SetMessage("Canceling after the current document...", false)
			return m, func() tea.Msg { return CancelMsg{} }
		case key.Matches(msg, ProgressKeys.Help):
			return m, func() tea.Msg { return SwitchToHelpMsg{} }
		}
	}

	return m, nil
}

func (m *ProgressModel) apply(p commands.Progress) {
	m.phase = p.Phase
	m.done = p.Done
	m.total = p.Total
	m.current = p.Document
	m.stats = p.Stats
	if p.Outcome != nil {
		m.recent = append(m.recent, *p.Outcome)
		if len(m.recent) > recentOutcomes {
			m.recent = m.recent[len(m.recent)-recentOutcomes:]
		}
	}
}

// Percent returns the completed fraction of the current phase
func (m *ProgressModel) Percent() float64 {
	if m.total == 0 {
		return 0
	}
	return float64(m.done) / float64(m.total)
}

// View renders the progress view
func (m *ProgressModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Migrating vault to Notion"))
	b.WriteString("\n")
	target := "Database " + m.database
	if m.dryRun {
		target += " (dry run)"
	}
	b.WriteString(styles.Subtitle.Render(target))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "%s %s %d/%d\n", m.spinner.View(), phaseLabel(m.phase), m.done, m.total)
	b.WriteString(m.bar.ViewAs(m.Percent()))
	b.WriteString("\n")
	if m.current != "" {
		b.WriteString(styles.MutedText.Render(m.current))
	}
	b.WriteString("\n\n")

	b.WriteString(styles.Section.Render("So far"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s migrated  %s partial  %s failed  %s unchanged\n",
		styles.Success.Render(fmt.Sprint(m.stats.Succeeded)),
		styles.WarningMsg.Render(fmt.Sprint(m.stats.Partial)),
		styles.ErrorMsg.Render(fmt.Sprint(m.stats.Failed)),
		styles.MutedText.Render(fmt.Sprint(m.stats.Skipped)))
	fmt.Fprintf(&b, "  %d assets uploaded, %d broken links\n", m.stats.TotalUploaded(), m.stats.BrokenLinks)

	if len(m.recent) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.Section.Render("Recent"))
		b.WriteString("\n")
		for _, o := range m.recent {
			fmt.Fprintf(&b, "  %s %s\n", styles.StatusStyle(o.Status).Render(padRight(string(o.Status), 9)), o.Document.RelPath)
		}
	}

	if m.Message != "" {
		b.WriteString("\n")
		if m.MessageErr {
			b.WriteString(styles.ErrorMsg.Render(m.Message))
		} else {
			b.WriteString(styles.WarningMsg.Render(m.Message))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.HelpKey.Render("q"))
	b.WriteString(styles.HelpDesc.Render(" cancel, "))
	b.WriteString(styles.HelpKey.Render("?"))
	b.WriteString(styles.HelpDesc.Render(" help"))

	return styles.App.Render(b.String())
}

func phaseLabel(p commands.Phase) string {
	switch p {
	case commands.PhasePages:
		return "Creating pages"
	case commands.PhaseDocuments:
		return "Converting documents"
	default:
		return "Finishing"
	}
}
