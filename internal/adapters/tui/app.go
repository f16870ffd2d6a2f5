package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"vault2notion/internal/adapters/tui/views"
	"vault2notion/internal/application/commands"
)

// ViewState represents the current view
type ViewState int

const (
	ViewProgress ViewState = iota
	ViewResults
	ViewHelp
)

// Options configure the progress and results views
type Options struct {
	Database string
	DryRun   bool
	Opener   views.NoteOpener // Optional
	Editor   views.NoteEditor // Optional
}

// RunFunc executes a migration, reporting progress through observe
type RunFunc func(ctx context.Context, observe commands.Observer) (*commands.MigrateResult, error)

// App is the main TUI application model
type App struct {
	cancel context.CancelFunc

	state    ViewState
	previous ViewState
	progress *views.ProgressModel
	results  *views.ResultsModel
	help     *views.HelpModel

	result *commands.MigrateResult
	err    error
	done   bool

	width  int
	height int
}

// NewApp creates a new TUI application. cancel stops the running migration.
func NewApp(opts Options, cancel context.CancelFunc) *App {
	return &App{
		cancel:   cancel,
		state:    ViewProgress,
		progress: views.NewProgressModel(opts.Database, opts.DryRun),
		results:  views.NewResultsModel(opts.Opener, opts.Editor),
		help:     views.NewHelpModel(),
	}
}

// Init initializes the application
func (a *App) Init() tea.Cmd {
	return a.progress.Init()
}

// Update handles messages for the application
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.progress.Update(msg)
		a.results.Update(msg)
		a.help.SetSize(msg.Width, msg.Height)
		return a, nil

	case views.ProgressMsg:
		_, cmd := a.progress.Update(msg)
		return a, cmd

	case spinner.TickMsg:
		// Keeps spinning behind the help view until the run returns
		if a.done {
			return a, nil
		}
		_, cmd := a.progress.Update(msg)
		return a, cmd

	case views.DoneMsg:
		a.done = true
		a.result = msg.Result
		a.err = msg.Err
		a.results.SetResult(msg.Result, msg.Err)
		if a.state == ViewHelp {
			a.previous = ViewResults
		} else {
			a.state = ViewResults
		}
		return a, nil

	case views.CancelMsg:
		if a.cancel != nil {
			a.cancel()
		}
		return a, nil

	case views.SwitchToHelpMsg:
		a.previous = a.state
		a.state = ViewHelp
		return a, nil

	case views.CloseHelpMsg:
		a.state = a.previous
		return a, nil
	}

	// Delegate to current view
	var cmd tea.Cmd
	switch a.state {
	case ViewProgress:
		_, cmd = a.progress.Update(msg)
	case ViewResults:
		_, cmd = a.results.Update(msg)
	case ViewHelp:
		_, cmd = a.help.Update(msg)
	}

	return a, cmd
}

// View renders the current view
func (a *App) View() string {
	switch a.state {
	case ViewResults:
		return a.results.View()
	case ViewHelp:
		return a.help.View()
	default:
		return a.progress.View()
	}
}

// State returns the view currently shown
func (a *App) State() ViewState {
	return a.state
}

// Done reports whether the migration has returned
func (a *App) Done() bool {
	return a.done
}

// Result returns the migration outcome once the run is done
func (a *App) Result() (*commands.MigrateResult, error) {
	return a.result, a.err
}

// Run shows the migration progress while run executes on its own goroutine.
// It returns once the user quits the results view. Quitting while the
// migration is still running cancels it and waits for it to return.
func Run(ctx context.Context, opts Options, run RunFunc) (*commands.MigrateResult, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	app := NewApp(opts, cancel)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	type outcome struct {
		result *commands.MigrateResult
		err    error
	}
	finished := make(chan outcome, 1)

	go func() {
		result, err := run(runCtx, func(pr commands.Progress) {
			p.Send(views.ProgressMsg{Progress: pr})
		})
		finished <- outcome{result, err}
		p.Send(views.DoneMsg{Result: result, Err: err})
	}()

	_, uiErr := p.Run()
	cancel()
	out := <-finished
	if out.err == nil && uiErr != nil {
		return out.result, uiErr
	}
	return out.result, out.err
}
