package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"strings"

	"github.com/goliatone/go-slug"
)

// VaultDocument is one markdown note read from the vault
type VaultDocument struct {
	Path        string // Absolute path on disk (identity)
	RelPath     string // Slash-separated path relative to the vault root
	Folder      string // Slash-separated containing folder, "" at the root
	Title       string // Front matter title or file stem
	Slug        string // Stable identifier derived from RelPath
	Text        string // Markdown body with front matter removed
	ContentHash string // sha256 of the raw file
}

// VaultEntry describes a file or directory known to the vault catalog
type VaultEntry struct {
	AbsPath string
	RelPath string // Slash-separated, relative to the vault root
	IsDir   bool
	Size    int64
}

// Name returns the base name of the entry
func (e VaultEntry) Name() string {
	return path.Base(e.RelPath)
}

// Slugify derives the document identifier for a vault-relative path. Each path
// segment is normalized on its own so folder structure survives in the slug.
func Slugify(relPath string) string {
	relPath = strings.TrimSuffix(relPath, path.Ext(relPath))
	segments := strings.Split(relPath, "/")

	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg == "" || seg == "." {
			continue
		}
		normalized, err := slug.Normalize(seg)
		if err != nil || normalized == "" {
			normalized = shortHash(seg)
		}
		out = append(out, normalized)
	}

	if len(out) == 0 {
		return shortHash(relPath)
	}
	return strings.Join(out, "/")
}

// HashContent returns the hex sha256 of raw document bytes
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:6])
}
