package filesystem

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"
	"golang.org/x/text/unicode/norm"

	"vault2notion/internal/application"
	"vault2notion/internal/domain"
	"vault2notion/internal/ports"
)

// DefaultExcludedDirs are vault folders that never hold notes
var DefaultExcludedDirs = []string{".obsidian", ".trash", ".git"}

// Vault implements ports.VaultSource and ports.VaultCatalog over a vault
// directory on disk
type Vault struct {
	root     string
	excluded map[string]bool
	logger   *slog.Logger

	entries []domain.VaultEntry
	byPath  map[string]int
	byFold  map[string]int
	byName  map[string][]int
	scanned bool
}

// Option configures a Vault
type Option func(*Vault)

// WithExcludedDirs replaces the folder names skipped while walking
func WithExcludedDirs(names ...string) Option {
	return func(v *Vault) {
		v.excluded = make(map[string]bool, len(names))
		for _, n := range names {
			v.excluded[n] = true
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(v *Vault) {
		if l != nil {
			v.logger = l
		}
	}
}

// NewVault creates a vault rooted at vaultPath
func NewVault(vaultPath string, opts ...Option) (*Vault, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(vaultPath, "~") {
		home, _ := os.UserHomeDir()
		vaultPath = filepath.Join(home, vaultPath[1:])
	}

	abs, err := filepath.Abs(vaultPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve vault path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault path %s: %w", abs, application.ErrNotADirectory)
	}

	v := &Vault{
		root:   abs,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	WithExcludedDirs(DefaultExcludedDirs...)(v)
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Root returns the absolute vault root
func (v *Vault) Root() string {
	return v.root
}

// Catalog returns the vault itself, scanning the tree on first use
func (v *Vault) Catalog() ports.VaultCatalog {
	if err := v.scan(); err != nil {
		v.logger.Warn("failed to scan vault", "root", v.root, "error", err)
	}
	return v
}

// Rescan forgets the cached file catalog
func (v *Vault) Rescan() error {
	v.scanned = false
	return v.scan()
}

// Lookup finds an entry by its exact vault-relative path
func (v *Vault) Lookup(relPath string) (domain.VaultEntry, bool) {
	if i, ok := v.byPath[key(relPath)]; ok {
		return v.entries[i], true
	}
	return domain.VaultEntry{}, false
}

// LookupFold finds an entry ignoring case
func (v *Vault) LookupFold(relPath string) (domain.VaultEntry, bool) {
	if i, ok := v.byFold[foldKey(relPath)]; ok {
		return v.entries[i], true
	}
	return domain.VaultEntry{}, false
}

// FindByName returns entries whose base name matches ignoring case,
// shallowest first
func (v *Vault) FindByName(name string) []domain.VaultEntry {
	idx := v.byName[foldKey(name)]
	out := make([]domain.VaultEntry, len(idx))
	for i, j := range idx {
		out[i] = v.entries[j]
	}
	return out
}

// Documents returns every markdown document in traversal order
func (v *Vault) Documents() ([]domain.VaultDocument, error) {
	if err := v.scan(); err != nil {
		return nil, err
	}

	var docs []domain.VaultDocument
	seen := make(map[string]string)
	for _, e := range v.entries {
		if e.IsDir || !domain.IsMarkdown(e.RelPath) {
			continue
		}
		doc, err := v.load(e.AbsPath, e.RelPath)
		if err != nil {
			v.logger.Warn("skipping unreadable document", "doc", e.RelPath, "error", err)
			continue
		}
		if other, dup := seen[doc.Slug]; dup {
			v.logger.Warn("documents share a slug", "slug", doc.Slug, "doc", e.RelPath, "other", other)
		}
		seen[doc.Slug] = e.RelPath
		docs = append(docs, *doc)
	}
	return docs, nil
}

// ReadDocument loads a single document by absolute or vault-relative path
func (v *Vault) ReadDocument(p string) (*domain.VaultDocument, error) {
	abs := p
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(v.root, filepath.FromSlash(p))
	}
	rel, err := filepath.Rel(v.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("%s is outside the vault: %w", p, application.ErrNotFound)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("document %s: %w", p, application.ErrNotFound)
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("document %s: %w", p, application.ErrIsDirectory)
	}
	return v.load(abs, filepath.ToSlash(rel))
}

// scan walks the vault once, recording every file and folder. Entries are
// kept in lexical walk order, which is the document traversal order.
func (v *Vault) scan() error {
	if v.scanned {
		return nil
	}

	v.entries = nil
	v.byPath = make(map[string]int)
	v.byFold = make(map[string]int)
	v.byName = make(map[string][]int)

	err := filepath.WalkDir(v.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			v.logger.Debug("skipping unreadable path", "path", p, "error", err)
			if d != nil && d.IsDir() && p != v.root {
				return filepath.SkipDir
			}
			return nil
		}
		if p == v.root {
			return nil
		}
		if d.IsDir() && v.excluded[d.Name()] {
			return filepath.SkipDir
		}

		rel, err := filepath.Rel(v.root, p)
		if err != nil {
			return nil
		}
		entry := domain.VaultEntry{
			AbsPath: p,
			RelPath: filepath.ToSlash(rel),
			IsDir:   d.IsDir(),
		}
		if !d.IsDir() {
			if info, err := d.Info(); err == nil {
				entry.Size = info.Size()
			}
		}
		v.add(entry)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk vault: %w", err)
	}

	for name, idx := range v.byName {
		sort.SliceStable(idx, func(i, j int) bool {
			return strings.Count(v.entries[idx[i]].RelPath, "/") < strings.Count(v.entries[idx[j]].RelPath, "/")
		})
		v.byName[name] = idx
	}

	v.scanned = true
	v.logger.Debug("vault scanned", "root", v.root, "entries", len(v.entries))
	return nil
}

func (v *Vault) add(e domain.VaultEntry) {
	i := len(v.entries)
	v.entries = append(v.entries, e)
	v.byPath[key(e.RelPath)] = i
	if _, taken := v.byFold[foldKey(e.RelPath)]; !taken {
		v.byFold[foldKey(e.RelPath)] = i
	}
	name := foldKey(path.Base(e.RelPath))
	v.byName[name] = append(v.byName[name], i)
}

// load reads a document and strips its front matter
func (v *Vault) load(abs, rel string) (*domain.VaultDocument, error) {
	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	var meta struct {
		Title string `yaml:"title"`
	}
	text := string(raw)
	body, err := frontmatter.Parse(bytes.NewReader(raw), &meta)
	if err != nil {
		v.logger.Warn("ignoring malformed front matter", "doc", rel, "error", err)
	} else {
		text = string(body)
	}

	title := strings.TrimSpace(meta.Title)
	if title == "" {
		base := path.Base(rel)
		title = strings.TrimSuffix(base, path.Ext(base))
	}

	folder := path.Dir(rel)
	if folder == "." {
		folder = ""
	}

	return &domain.VaultDocument{
		Path:        abs,
		RelPath:     rel,
		Folder:      folder,
		Title:       title,
		Slug:        domain.Slugify(rel),
		Text:        text,
		ContentHash: domain.HashContent(raw),
	}, nil
}

// key normalizes a relative path so names typed in NFC match names stored
// in NFD by some filesystems
func key(rel string) string {
	return norm.NFC.String(strings.TrimPrefix(path.Clean("/"+rel), "/"))
}

func foldKey(rel string) string {
	return strings.ToLower(key(rel))
}
