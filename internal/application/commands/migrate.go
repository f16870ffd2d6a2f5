package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"

	"vault2notion/internal/application"
	"vault2notion/internal/application/emit"
	"vault2notion/internal/application/markdown"
	"vault2notion/internal/application/retry"
	"vault2notion/internal/domain"
	"vault2notion/internal/ports"
)

// Phase identifies a stage of a migration run
type Phase int

const (
	PhasePages Phase = iota
	PhaseDocuments
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhasePages:
		return "pages"
	case PhaseDocuments:
		return "documents"
	default:
		return "done"
	}
}

// Progress is reported to observers as the run advances
type Progress struct {
	Phase    Phase
	Done     int
	Total    int
	Document string                  // Vault-relative path being worked on
	Outcome  *domain.DocumentOutcome // Set once a document has finished
	Stats    domain.MigrationStats
}

// Observer receives progress updates. It is called from the migration
// goroutine and must not block for long.
type Observer func(Progress)

// MigrateDeps are the collaborators of a migration run
type MigrateDeps struct {
	Source    ports.VaultSource
	Pages     ports.PageClient
	Parser    *markdown.Parser
	Ledger    ports.Ledger // Optional
	Policy    retry.Policy // Applied to page creation and block appends
	Pacer     *retry.Pacer // Shared by every call to the page client
	MaxBlocks int
	Observer  Observer
	Logger    *slog.Logger
}

// MigrateResult contains the result of a migration run
type MigrateResult struct {
	RunID     string
	StartedAt time.Time
	Stats     domain.MigrationStats
	Outcomes  []domain.DocumentOutcome
}

// MigrateCommand migrates every document of a vault into a database
type MigrateCommand struct {
	source   ports.VaultSource
	pages    ports.PageClient
	parser   *markdown.Parser
	emitter  *emit.Emitter
	ledger   ports.Ledger
	policy   retry.Policy
	pacer    *retry.Pacer
	pageMap  *PageMap
	observer Observer
	logger   *slog.Logger
	total    int

	DatabaseID string
	Force      bool // Re-emit documents the ledger marks as migrated
}

// NewMigrateCommand creates a new MigrateCommand
func NewMigrateCommand(deps MigrateDeps, databaseID string) *MigrateCommand {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	policy := deps.Policy
	if policy.MaxAttempts == 0 {
		policy = retry.DefaultPolicy()
	}
	pacer := deps.Pacer
	if pacer == nil {
		pacer = retry.NewPacer(emit.DefaultInterval)
	}

	c := &MigrateCommand{
		source:     deps.Source,
		pages:      deps.Pages,
		parser:     deps.Parser,
		ledger:     deps.Ledger,
		policy:     policy,
		pacer:      pacer,
		pageMap:    NewPageMap(),
		observer:   deps.Observer,
		logger:     logger,
		DatabaseID: databaseID,
	}
	c.emitter = emit.NewEmitter(deps.Pages,
		emit.WithLinker(c.pageMap),
		emit.WithPolicy(policy),
		emit.WithPacer(pacer),
		emit.WithMaxBlocks(deps.MaxBlocks),
		emit.WithLogger(logger),
	)
	return c
}

// PageMap returns the slug to page id bindings made by the run
func (c *MigrateCommand) PageMap() *PageMap {
	return c.pageMap
}

// SetObserver replaces the progress observer. Call it before Execute.
func (c *MigrateCommand) SetObserver(o Observer) {
	c.observer = o
}

// Validate checks if the migrate operation is valid
func (c *MigrateCommand) Validate() error {
	if err := application.ValidateRequired("databaseID", c.DatabaseID); err != nil {
		return err
	}
	if c.source == nil || c.pages == nil || c.parser == nil {
		return &application.ValidationError{
			Field:   "deps",
			Message: "vault source, page client and parser are required",
		}
	}
	return nil
}

// Execute runs the migration. Per-document failures are recorded in the
// result and never abort the run; only a failure to list the vault or a
// canceled context returns an error.
func (c *MigrateCommand) Execute(ctx context.Context) (*MigrateResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	result := &MigrateResult{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	defer func() {
		result.Stats.Duration = time.Since(result.StartedAt)
	}()

	docs, err := c.source.Documents()
	if err != nil {
		return nil, fmt.Errorf("failed to list vault documents: %w", err)
	}
	c.total = len(docs)
	c.logger.Info("starting migration", "run", result.RunID, "documents", len(docs), "database", c.DatabaseID)

	pending, err := c.bindPages(ctx, docs, result)
	if err != nil {
		return result, err
	}

	for _, doc := range pending {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		c.notify(Progress{Phase: PhaseDocuments, Done: len(result.Outcomes), Total: c.total, Document: doc.RelPath, Stats: result.Stats})

		outcome := c.migrateDocument(ctx, doc)
		c.record(result, outcome)
	}

	c.notify(Progress{Phase: PhaseDone, Done: len(result.Outcomes), Total: c.total, Stats: result.Stats})
	c.logger.Info("migration finished",
		"run", result.RunID,
		"succeeded", result.Stats.Succeeded,
		"partial", result.Stats.Partial,
		"failed", result.Stats.Failed,
		"skipped", result.Stats.Skipped,
	)
	return result, nil
}

// errSlugCollision marks documents whose slug was taken by an earlier one
var errSlugCollision = errors.New("slug collision")

// errPageCollision marks documents whose page is already bound to another one
var errPageCollision = errors.New("page collision")

// bindPages creates or finds the page of every document before any content
// is emitted, so links between documents can point at real pages. Documents
// whose page cannot be obtained fail here; the rest are returned in order.
func (c *MigrateCommand) bindPages(ctx context.Context, docs []domain.VaultDocument, result *MigrateResult) ([]domain.VaultDocument, error) {
	pending := make([]domain.VaultDocument, 0, len(docs))
	owners := make(map[string]string, len(docs))
	pageOwners := make(map[string]string, len(docs))
	titles := pageTitles(docs)

	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c.notify(Progress{Phase: PhasePages, Done: i, Total: len(docs), Document: doc.RelPath, Stats: result.Stats})

		// The first document owns a slug; later ones would share its page
		if owner, taken := owners[doc.Slug]; taken {
			c.logger.Warn("slug collision", "doc", doc.RelPath, "slug", doc.Slug, "owner", owner)
			c.record(result, domain.DocumentOutcome{
				Document: doc,
				Status:   domain.StatusFailed,
				Err:      fmt.Errorf("%w: %q is already used by %s", errSlugCollision, doc.Slug, owner),
			})
			continue
		}
		owners[doc.Slug] = doc.RelPath

		pageID := ""
		if entry := c.ledgerEntry(doc.Slug); entry != nil && entry.PageID != "" {
			pageID = entry.PageID
		} else {
			title := titles[doc.RelPath]
			err := c.policy.Do(ctx, func(ctx context.Context) error {
				if err := c.pacer.Wait(ctx); err != nil {
					return err
				}
				id, err := c.pages.CreateOrGetPage(ctx, title, c.DatabaseID)
				pageID = id
				return err
			})
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				c.logger.Error("failed to create page", "doc", doc.RelPath, "error", err)
				c.record(result, domain.DocumentOutcome{
					Document: doc,
					Status:   domain.StatusFailed,
					Err:      fmt.Errorf("failed to create page: %w", err),
				})
				continue
			}
		}

		// Two documents must never write into one page
		if owner, taken := pageOwners[pageID]; taken {
			c.logger.Warn("page collision", "doc", doc.RelPath, "page", pageID, "owner", owner)
			c.record(result, domain.DocumentOutcome{
				Document: doc,
				Status:   domain.StatusFailed,
				Err:      fmt.Errorf("%w: page %s is already used by %s", errPageCollision, pageID, owner),
			})
			continue
		}
		pageOwners[pageID] = doc.RelPath

		c.pageMap.Set(doc.Slug, pageID)
		pending = append(pending, doc)
	}
	return pending, nil
}

// pageTitles returns the page title of every document. Titles shared by
// several documents get the document folder appended, so the title lookup
// of the page client finds a distinct page for each.
func pageTitles(docs []domain.VaultDocument) map[string]string {
	counts := make(map[string]int, len(docs))
	for _, doc := range docs {
		counts[doc.Title]++
	}

	titles := make(map[string]string, len(docs))
	for _, doc := range docs {
		title := doc.Title
		if counts[title] > 1 {
			if dir := path.Dir(doc.RelPath); dir != "." {
				title = fmt.Sprintf("%s (%s)", title, dir)
			}
		}
		titles[doc.RelPath] = title
	}
	return titles
}

// migrateDocument parses and emits one document; it never returns an error,
// failures are carried in the outcome. A document the ledger records as
// partial for the same content and page resumes after its emitted blocks.
func (c *MigrateCommand) migrateDocument(ctx context.Context, doc domain.VaultDocument) domain.DocumentOutcome {
	pageID, _ := c.pageMap.PageID(doc.Slug)
	outcome := domain.DocumentOutcome{Document: doc, PageID: pageID}

	resumeFrom := 0
	if !c.Force {
		entry := c.ledgerEntry(doc.Slug)
		if entry.Migrated(doc.ContentHash) {
			outcome.Status = domain.StatusSkipped
			outcome.BlocksEmitted = entry.BlocksEmitted
			outcome.BlocksTotal = entry.BlocksEmitted
			return outcome
		}
		if entry != nil && entry.Status == domain.StatusPartial &&
			entry.ContentHash == doc.ContentHash && entry.PageID == pageID {
			resumeFrom = entry.BlocksEmitted
		}
	}

	blocks, report, err := c.parser.Parse(ctx, doc.Text, doc.RelPath)
	outcome.Report = report
	outcome.BlocksTotal = len(blocks)
	if err != nil {
		outcome.Status = domain.StatusFailed
		outcome.Err = fmt.Errorf("failed to convert document: %w", err)
		return outcome
	}

	resumeFrom = min(max(resumeFrom, 0), len(blocks))
	if resumeFrom > 0 {
		c.logger.Info("resuming partial document", "doc", doc.RelPath, "from", resumeFrom, "total", len(blocks))
	}

	out, err := c.emitter.Emit(ctx, blocks[resumeFrom:], pageID)
	outcome.BlocksEmitted = resumeFrom + out.Emitted
	switch {
	case out.Status == emit.StatusSuccess:
		outcome.Status = domain.StatusMigrated
	case out.Status == emit.StatusPartial || outcome.BlocksEmitted > 0:
		outcome.Status = domain.StatusPartial
	default:
		outcome.Status = domain.StatusFailed
	}
	if err != nil {
		outcome.Err = err
	}
	return outcome
}

// record folds an outcome into the run statistics and the ledger
func (c *MigrateCommand) record(result *MigrateResult, outcome domain.DocumentOutcome) {
	stats := &result.Stats
	switch outcome.Status {
	case domain.StatusMigrated:
		stats.Succeeded++
	case domain.StatusPartial:
		stats.Partial++
	case domain.StatusSkipped:
		stats.Skipped++
	default:
		stats.Failed++
	}
	stats.Merge(outcome.Report)
	result.Outcomes = append(result.Outcomes, outcome)

	attrs := []any{
		"doc", outcome.Document.RelPath,
		"status", string(outcome.Status),
		"blocks", outcome.BlocksEmitted,
		"total", outcome.BlocksTotal,
	}
	switch {
	case outcome.Err != nil:
		c.logger.Warn("document not fully migrated", append(attrs, "error", outcome.Err)...)
	case len(outcome.Report.BrokenLinks) > 0:
		c.logger.Info("document migrated with broken links", append(attrs, "broken", len(outcome.Report.BrokenLinks))...)
	default:
		c.logger.Debug("document migrated", attrs...)
	}

	// The ledger row of a colliding slug belongs to its first document
	if outcome.Status != domain.StatusSkipped && !errors.Is(outcome.Err, errSlugCollision) {
		if err := c.saveLedger(outcome); err != nil {
			c.logger.Warn("failed to update ledger", "doc", outcome.Document.RelPath, "error", err)
		}
	}

	c.notify(Progress{
		Phase:    PhaseDocuments,
		Done:     len(result.Outcomes),
		Total:    c.total,
		Document: outcome.Document.RelPath,
		Outcome:  &outcome,
		Stats:    result.Stats,
	})
}

func (c *MigrateCommand) ledgerEntry(slug string) *domain.LedgerEntry {
	if c.ledger == nil {
		return nil
	}
	entry, err := c.ledger.GetEntry(slug)
	if err != nil {
		if !errors.Is(err, application.ErrNotFound) {
			c.logger.Warn("failed to read ledger", "slug", slug, "error", err)
		}
		return nil
	}
	return entry
}

func (c *MigrateCommand) saveLedger(outcome domain.DocumentOutcome) error {
	if c.ledger == nil {
		return nil
	}

	tx, err := c.ledger.BeginTx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	doc := outcome.Document
	entry := &domain.LedgerEntry{
		Slug:          doc.Slug,
		RelPath:       doc.RelPath,
		Title:         doc.Title,
		PageID:        outcome.PageID,
		ContentHash:   doc.ContentHash,
		Status:        outcome.Status,
		BlocksEmitted: outcome.BlocksEmitted,
		UpdatedAt:     time.Now(),
	}
	if err := tx.UpsertEntry(entry); err != nil {
		return err
	}
	if err := tx.DeleteLinksFrom(doc.Slug); err != nil {
		return err
	}
	for _, raw := range outcome.Report.BrokenLinks {
		if err := tx.InsertLink(&domain.LedgerLink{SourceSlug: doc.Slug, LinkText: raw}); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (c *MigrateCommand) notify(p Progress) {
	if c.observer != nil {
		c.observer(p)
	}
}
