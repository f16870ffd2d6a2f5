package editor

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// fallbackEditors are tried in order when neither $EDITOR nor $VISUAL is set
var fallbackEditors = []string{"nvim", "vim", "vi", "nano"}

// Opener opens vault notes in the user's terminal editor
type Opener struct {
	vaultRoot string
	lookPath  func(string) (string, error)
}

// NewOpener creates an opener for notes below vaultRoot
func NewOpener(vaultRoot string) *Opener {
	return &Opener{
		vaultRoot: vaultRoot,
		lookPath:  exec.LookPath,
	}
}

// Command returns an exec.Cmd editing the note at relPath. It is meant for
// bubbletea's ExecProcess, which hands the terminal over while it runs.
func (o *Opener) Command(relPath string) (*exec.Cmd, error) {
	path, err := o.notePath(relPath)
	if err != nil {
		return nil, err
	}

	editor := o.findEditor()
	if editor == "" {
		return nil, fmt.Errorf("no editor found: set $EDITOR environment variable")
	}

	// $EDITOR may carry arguments, e.g. "code --wait"
	fields := strings.Fields(editor)
	cmd := exec.Command(fields[0], append(fields[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd, nil
}

func (o *Opener) notePath(relPath string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(relPath))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("note %s is outside the vault", relPath)
	}
	return filepath.Join(o.vaultRoot, clean), nil
}

// findEditor returns the editor to use
func (o *Opener) findEditor() string {
	if editor := strings.TrimSpace(os.Getenv("EDITOR")); editor != "" {
		return editor
	}
	if visual := strings.TrimSpace(os.Getenv("VISUAL")); visual != "" {
		return visual
	}
	for _, editor := range fallbackEditors {
		if path, err := o.lookPath(editor); err == nil {
			return path
		}
	}
	return ""
}
