package commands

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"vault2notion/internal/application"
	"vault2notion/internal/domain"
	"vault2notion/internal/ports"
)

type memorySource struct {
	docs []domain.VaultDocument
}

func newMemorySource(files ...string) *memorySource {
	s := &memorySource{}
	for i := 0; i+1 < len(files); i += 2 {
		rel, text := files[i], files[i+1]
		s.docs = append(s.docs, domain.VaultDocument{
			Path:        "/vault/" + rel,
			RelPath:     rel,
			Title:       strings.TrimSuffix(rel, ".md"),
			Slug:        domain.Slugify(rel),
			Text:        text,
			ContentHash: domain.HashContent([]byte(text)),
		})
	}
	return s
}

func (s *memorySource) Catalog() ports.VaultCatalog { return nil }

func (s *memorySource) Documents() ([]domain.VaultDocument, error) {
	return s.docs, nil
}

func (s *memorySource) ReadDocument(path string) (*domain.VaultDocument, error) {
	for i := range s.docs {
		if s.docs[i].RelPath == path || s.docs[i].Path == path {
			d := s.docs[i]
			return &d, nil
		}
	}
	return nil, application.ErrNotFound
}

// recordingPages hands out sequential page ids and can fail chosen calls.
// With byTitle set it returns the existing page for a known title, as the
// database lookup does.
type recordingPages struct {
	byTitle     bool
	titles      map[string]string
	created     []string
	failCreate  map[string]bool
	failAppend  map[int]bool // 1-based append call numbers
	appendCalls int
	appends     map[string][][]ports.BlockObject
}

func newRecordingPages() *recordingPages {
	return &recordingPages{
		titles:     make(map[string]string),
		failCreate: make(map[string]bool),
		failAppend: make(map[int]bool),
		appends:    make(map[string][][]ports.BlockObject),
	}
}

func (p *recordingPages) CreateOrGetPage(_ context.Context, title, _ string) (string, error) {
	if p.failCreate[title] {
		return "", &application.StatusError{Op: "create page", StatusCode: http.StatusBadRequest}
	}
	if id, ok := p.titles[title]; ok && p.byTitle {
		return id, nil
	}
	p.created = append(p.created, title)
	id := fmt.Sprintf("0000000%d-0000-0000-0000-000000000000", len(p.created))
	p.titles[title] = id
	return id, nil
}

func (p *recordingPages) AppendBlocks(_ context.Context, pageID string, blocks []ports.BlockObject) error {
	p.appendCalls++
	if p.failAppend[p.appendCalls] {
		return &application.StatusError{Op: "append blocks", StatusCode: http.StatusBadRequest}
	}
	p.appends[pageID] = append(p.appends[pageID], blocks)
	return nil
}

// memoryLedger is an in-memory ports.Ledger
type memoryLedger struct {
	entries map[string]domain.LedgerEntry
	links   map[string][]domain.LedgerLink
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{
		entries: make(map[string]domain.LedgerEntry),
		links:   make(map[string][]domain.LedgerLink),
	}
}

func (l *memoryLedger) Open(string, string) error { return nil }
func (l *memoryLedger) Close() error              { return nil }
func (l *memoryLedger) NeedsReset() bool          { return false }
func (l *memoryLedger) Reset() error {
	l.entries = make(map[string]domain.LedgerEntry)
	l.links = make(map[string][]domain.LedgerLink)
	return nil
}

func (l *memoryLedger) GetEntry(slug string) (*domain.LedgerEntry, error) {
	e, ok := l.entries[slug]
	if !ok {
		return nil, application.ErrNotFound
	}
	return &e, nil
}

func (l *memoryLedger) ListEntries() ([]domain.LedgerEntry, error) {
	var out []domain.LedgerEntry
	for _, e := range l.entries {
		out = append(out, e)
	}
	return out, nil
}

func (l *memoryLedger) BrokenLinks(slug string) ([]domain.LedgerLink, error) {
	return l.links[slug], nil
}

func (l *memoryLedger) BeginTx() (ports.LedgerTx, error) {
	return &memoryTx{ledger: l}, nil
}

type memoryTx struct {
	ledger  *memoryLedger
	entries []domain.LedgerEntry
	deletes []string
	links   []domain.LedgerLink
	done    bool
}

func (tx *memoryTx) UpsertEntry(e *domain.LedgerEntry) error {
	tx.entries = append(tx.entries, *e)
	return nil
}

func (tx *memoryTx) DeleteLinksFrom(slug string) error {
	tx.deletes = append(tx.deletes, slug)
	return nil
}

func (tx *memoryTx) InsertLink(link *domain.LedgerLink) error {
	tx.links = append(tx.links, *link)
	return nil
}

func (tx *memoryTx) Commit() error {
	if tx.done {
		return fmt.Errorf("transaction already finished")
	}
	tx.done = true
	for _, e := range tx.entries {
		tx.ledger.entries[e.Slug] = e
	}
	for _, slug := range tx.deletes {
		delete(tx.ledger.links, slug)
	}
	for _, link := range tx.links {
		tx.ledger.links[link.SourceSlug] = append(tx.ledger.links[link.SourceSlug], link)
	}
	return nil
}

func (tx *memoryTx) Rollback() error {
	tx.done = true
	return nil
}

// slugResolver resolves wiki-links by document title and fails on "[[boom]]"
type slugResolver struct {
	titles map[string]string
}

func (r slugResolver) Resolve(_ context.Context, raw, _ string, report *domain.ConversionReport) (domain.ResolvedLink, error) {
	if raw == "[[boom]]" {
		return domain.ResolvedLink{}, &application.UploadError{Path: "boom.png", Err: fmt.Errorf("forbidden")}
	}
	if raw == "[[pic.png]]" {
		report.AddUpload(domain.AssetImage)
		return domain.Asset("https://cdn/pic.png", domain.AssetImage), nil
	}
	name := strings.TrimSuffix(strings.TrimPrefix(raw, "[["), "]]")
	if rel, ok := r.titles[name]; ok {
		return domain.Document(domain.Slugify(rel)), nil
	}
	report.BrokenLinks = append(report.BrokenLinks, raw)
	return domain.Broken(raw), nil
}
