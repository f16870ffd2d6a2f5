package views

import (
	"vault2notion/internal/application/commands"
)

// ViewState contains common state shared by all view models.
// Embed this struct in view models to get width/height and message handling.
type ViewState struct {
	Width      int
	Height     int
	Message    string
	MessageErr bool
}

// SetSize updates the view dimensions
func (s *ViewState) SetSize(width, height int) {
	s.Width = width
	s.Height = height
}

// SetMessage sets a message to display in the view
func (s *ViewState) SetMessage(msg string, isErr bool) {
	s.Message = msg
	s.MessageErr = isErr
}

// ClearMessage clears the current message
func (s *ViewState) ClearMessage() {
	s.Message = ""
	s.MessageErr = false
}

// Messages

// ProgressMsg carries one observer notification from the running migration
type ProgressMsg struct {
	commands.Progress
}

// DoneMsg is sent once the migration returns
type DoneMsg struct {
	Result *commands.MigrateResult
	Err    error
}

// SwitchToHelpMsg requests the help view
type SwitchToHelpMsg struct{}

// CloseHelpMsg returns from the help view to the previous one
type CloseHelpMsg struct{}

// CancelMsg asks the app to stop the running migration
type CancelMsg struct{}

// noteOpenedMsg reports the result of opening a note in Obsidian
type noteOpenedMsg struct {
	RelPath string
	Err     error
}

// editorFinishedMsg is sent when the external editor exits
type editorFinishedMsg struct {
	RelPath string
	Err     error
}
