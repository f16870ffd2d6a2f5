package views

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"vault2notion/internal/adapters/report"
	"vault2notion/internal/adapters/tui/styles"
	"vault2notion/internal/application/commands"
	"vault2notion/internal/domain"
)

// NoteOpener opens a vault note in Obsidian
type NoteOpener interface {
	OpenNote(relPath string) error
}

// NoteEditor builds the command editing a vault note in the terminal
type NoteEditor interface {
	Command(relPath string) (*exec.Cmd, error)
}

// writeClipboard is replaced in tests
var writeClipboard = clipboard.WriteAll

// ResultsKeyMap defines key bindings for the results view
type ResultsKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	NextPage key.Binding
	PrevPage key.Binding
	Filter   key.Binding
	Copy     key.Binding
	Open     key.Binding
	Edit     key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var ResultsKeys = ResultsKeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j", "down"),
	),
	NextPage: key.NewBinding(
		key.WithKeys("ctrl+f", "pgdown"),
		key.WithHelp("ctrl+f", "next page"),
	),
	PrevPage: key.NewBinding(
		key.WithKeys("ctrl+b", "pgup"),
		key.WithHelp("ctrl+b", "prev page"),
	),
	Filter: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "toggle all/attention"),
	),
	Copy: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "copy summary"),
	),
	Open: key.NewBinding(
		key.WithKeys("o", "enter"),
		key.WithHelp("o", "open in Obsidian"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit in $EDITOR"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ResultsModel lists per-document outcomes once a migration has returned
type ResultsModel struct {
	ViewState
	opener NoteOpener
	editor NoteEditor

	result  *commands.MigrateResult
	runErr  error
	showAll bool
	items   []domain.DocumentOutcome
	pager   *Paginator
}

// NewResultsModel creates the results view. opener and editor may be nil.
func NewResultsModel(opener NoteOpener, editor NoteEditor) *ResultsModel {
	return &ResultsModel{
		opener: opener,
		editor: editor,
		pager:  NewPaginator(10),
	}
}

// SetResult loads the outcome of a run. Only documents needing attention are
// listed until the filter is toggled.
func (m *ResultsModel) SetResult(result *commands.MigrateResult, err error) {
	m.result = result
	m.runErr = err
	m.showAll = false
	m.refresh()
	if len(m.items) == 0 && result != nil {
		m.showAll = true
		m.refresh()
	}
}

func (m *ResultsModel) refresh() {
	m.items = m.items[:0]
	if m.result != nil {
		for _, o := range m.result.Outcomes {
			if m.showAll || needsAttention(o) {
				m.items = append(m.items, o)
			}
		}
	}
	m.pager.Reset()
	m.pager.SetTotal(len(m.items))
}

func needsAttention(o domain.DocumentOutcome) bool {
	return o.Status == domain.StatusFailed || o.Status == domain.StatusPartial || len(o.Report.BrokenLinks) > 0
}

// Items returns the outcomes currently listed
func (m *ResultsModel) Items() []domain.DocumentOutcome {
	return m.items
}

// Selected returns the outcome under the cursor
func (m *ResultsModel) Selected() (domain.DocumentOutcome, bool) {
	if len(m.items) == 0 {
		return domain.DocumentOutcome{}, false
	}
	return m.items[m.pager.Cursor()], true
}

// Init initializes the results view
func (m *ResultsModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the results view
func (m *ResultsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		// Leave room for the header, details and key hints
		m.pager.SetPageSize(max(msg.Height-20, 5))
		return m, nil

	case noteOpenedMsg:
		if msg.Err != nil {
			m.SetMessage(fmt.Sprintf("Could not open %s: %v", msg.RelPath, msg.Err), true)
		} else {
			m.SetMessage("Opened "+msg.RelPath, false)
		}
		return m, nil

	case editorFinishedMsg:
		if msg.Err != nil {
			m.SetMessage(fmt.Sprintf("Editor exited: %v", msg.Err), true)
		} else {
			m.ClearMessage()
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, ResultsKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, ResultsKeys.Up):
			m.pager.CursorUp()
		case key.Matches(msg, ResultsKeys.Down):
			m.pager.CursorDown()
		case key.Matches(msg, ResultsKeys.NextPage):
			m.pager.NextPage()
		case key.Matches(msg, ResultsKeys.PrevPage):
			m.pager.PrevPage()
		case key.Matches(msg, ResultsKeys.Filter):
			m.showAll = !m.showAll
			m.refresh()
		case key.Matches(msg, ResultsKeys.Copy):
			m.copySummary()
		case key.Matches(msg, ResultsKeys.Open):
			return m, m.openSelected()
		case key.Matches(msg, ResultsKeys.Edit):
			return m, m.editSelected()
		case key.Matches(msg, ResultsKeys.Help):
			return m, func() tea.Msg { return SwitchToHelpMsg{} }
		}
	}

	return m, nil
}

func (m *ResultsModel) copySummary() {
	if m.result == nil {
		m.SetMessage("Nothing to copy", true)
		return
	}
	if err := writeClipboard(report.Summary(m.result.Stats)); err != nil {
		m.SetMessage("Clipboard unavailable: "+err.Error(), true)
		return
	}
	m.SetMessage("Summary copied to clipboard", false)
}

func (m *ResultsModel) openSelected() tea.Cmd {
	o, ok := m.Selected()
	if !ok {
		return nil
	}
	if m.opener == nil {
		m.SetMessage("Opening notes is not available", true)
		return nil
	}
	rel := o.Document.RelPath
	opener := m.opener
	return func() tea.Msg {
		return noteOpenedMsg{RelPath: rel, Err: opener.OpenNote(rel)}
	}
}

func (m *ResultsModel) editSelected() tea.Cmd {
	o, ok := m.Selected()
	if !ok {
		return nil
	}
	if m.editor == nil {
		m.SetMessage("Editing notes is not available", true)
		return nil
	}
	rel := o.Document.RelPath
	cmd, err := m.editor.Command(rel)
	if err != nil {
		m.SetMessage(err.Error(), true)
		return nil
	}
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editorFinishedMsg{RelPath: rel, Err: err}
	})
}

// View renders the results view
func (m *ResultsModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Migration finished"))
	b.WriteString("\n")

	if m.runErr != nil {
		b.WriteString(styles.ErrorMsg.Render("Run stopped: " + m.runErr.Error()))
		b.WriteString("\n")
	}
	if m.result != nil {
		b.WriteString(report.Summary(m.result.Stats))
	}
	b.WriteString("\n")

	if m.showAll {
		b.WriteString(styles.Section.Render("All documents"))
	} else {
		b.WriteString(styles.Section.Render("Documents needing attention"))
	}
	b.WriteString("\n")

	if len(m.items) == 0 {
		b.WriteString(styles.MutedText.Render("  None"))
		b.WriteString("\n")
	}

	start, end := m.pager.VisibleRange()
	for i := start; i < end; i++ {
		o := m.items[i]
		status := styles.StatusStyle(o.Status).Render(padRight(string(o.Status), 9))
		if i == m.pager.Cursor() {
			fmt.Fprintf(&b, "%s %s\n", status, styles.Selected.Render(" > "+o.Document.RelPath+" "))
		} else {
			fmt.Fprintf(&b, "%s    %s\n", status, o.Document.RelPath)
		}
	}
	if m.pager.TotalPages() > 1 {
		b.WriteString(styles.MutedText.Render(fmt.Sprintf("Page %d/%d", m.pager.CurrentPage(), m.pager.TotalPages())))
		b.WriteString("\n")
	}

	if o, ok := m.Selected(); ok {
		b.WriteString("\n")
		b.WriteString(renderDetails(o))
	}

	if m.Message != "" {
		b.WriteString("\n")
		if m.MessageErr {
			b.WriteString(styles.ErrorMsg.Render(m.Message))
		} else {
			b.WriteString(styles.Success.Render(m.Message))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.HelpKey.Render("j/k"))
	b.WriteString(styles.HelpDesc.Render(" navigate, "))
	b.WriteString(styles.HelpKey.Render("f"))
	b.WriteString(styles.HelpDesc.Render(" filter, "))
	b.WriteString(styles.HelpKey.Render("o"))
	b.WriteString(styles.HelpDesc.Render(" open, "))
	b.WriteString(styles.HelpKey.Render("e"))
	b.WriteString(styles.HelpDesc.Render(" edit, "))
	b.WriteString(styles.HelpKey.Render("c"))
	b.WriteString(styles.HelpDesc.Render(" copy, "))
	b.WriteString(styles.HelpKey.Render("q"))
	b.WriteString(styles.HelpDesc.Render(" quit"))

	return styles.App.Render(b.String())
}

func renderDetails(o domain.DocumentOutcome) string {
	var b strings.Builder
	if o.PageID != "" {
		b.WriteString(styles.Section.Render("Page: "))
		b.WriteString(commands.PageURL(o.PageID))
		b.WriteString("\n")
	}
	if o.BlocksTotal > 0 {
		b.WriteString(styles.Section.Render("Blocks: "))
		fmt.Fprintf(&b, "%d/%d emitted\n", o.BlocksEmitted, o.BlocksTotal)
	}
	if o.Err != nil {
		b.WriteString(styles.Section.Render("Error: "))
		b.WriteString(styles.ErrorMsg.Render(o.Err.Error()))
		b.WriteString("\n")
	}
	if n := len(o.Report.BrokenLinks); n > 0 {
		b.WriteString(styles.Section.Render("Broken links: "))
		b.WriteString(styles.MutedText.Render(strings.Join(o.Report.BrokenLinks, ", ")))
		b.WriteString("\n")
	}
	return b.String()
}
