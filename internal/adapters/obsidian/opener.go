// Package obsidian builds obsidian:// links back to vault notes.
package obsidian

import (
	"fmt"
	"net/url"
	"os/exec"
	"path"
	"path/filepath"
	"runtime"
	"strings"
)

// Opener builds and opens obsidian:// URIs for the notes of one vault
type Opener struct {
	vaultPath string
	vaultName string
}

// NewOpener creates a new Obsidian opener for the given vault path
func NewOpener(vaultPath string) *Opener {
	return &Opener{
		vaultPath: vaultPath,
		vaultName: filepath.Base(vaultPath),
	}
}

// OpenNote opens a vault-relative note in Obsidian
func (o *Opener) OpenNote(relPath string) error {
	uri, err := o.NoteURI(relPath)
	if err != nil {
		return err
	}
	return o.openURI(uri)
}

// BuildURI constructs the obsidian:// URI for an absolute file path
func (o *Opener) BuildURI(filePath string) (string, error) {
	relPath, err := filepath.Rel(o.vaultPath, filePath)
	if err != nil {
		return "", fmt.Errorf("failed to get relative path: %w", err)
	}
	return o.NoteURI(filepath.ToSlash(relPath))
}

// NoteURI constructs the obsidian:// URI for a vault-relative note path
func (o *Opener) NoteURI(relPath string) (string, error) {
	relPath = path.Clean(strings.TrimPrefix(relPath, "/"))
	if relPath == "." || relPath == ".." || strings.HasPrefix(relPath, "../") {
		return "", fmt.Errorf("file is outside the vault: %s", relPath)
	}

	// Obsidian resolves notes without their extension
	relPath = strings.TrimSuffix(relPath, ".md")

	return fmt.Sprintf("obsidian://open?vault=%s&file=%s", escape(o.vaultName), escape(relPath)), nil
}

// escape query-escapes s with %20 for spaces, which Obsidian expects
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func (o *Opener) openURI(uri string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", uri)
	case "linux":
		cmd = exec.Command("xdg-open", uri)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", uri)
	default:
		return fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	return cmd.Start()
}
