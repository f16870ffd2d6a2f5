package sqlite

import (
	"database/sql"

	"vault2notion/internal/domain"
	"vault2notion/internal/ports"
)

// ledgerTx implements ports.LedgerTx
type ledgerTx struct {
	tx *sql.Tx
}

// Ensure ledgerTx implements LedgerTx
var _ ports.LedgerTx = (*ledgerTx)(nil)

// UpsertEntry inserts or replaces a document record
func (t *ledgerTx) UpsertEntry(e *domain.LedgerEntry) error {
	_, err := t.tx.Exec(`
		INSERT OR REPLACE INTO documents (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.Slug, e.RelPath, e.Title, e.PageID, e.ContentHash, string(e.Status), e.BlocksEmitted, e.UpdatedAt.Unix())
	return err
}

// DeleteLinksFrom removes all broken links recorded for a document
func (t *ledgerTx) DeleteLinksFrom(slug string) error {
	_, err := t.tx.Exec(`DELETE FROM broken_links WHERE source_slug = ?`, slug)
	return err
}

// InsertLink records a broken link
func (t *ledgerTx) InsertLink(link *domain.LedgerLink) error {
	_, err := t.tx.Exec(`
		INSERT OR IGNORE INTO broken_links (source_slug, link_text)
		VALUES (?, ?)
	`, link.SourceSlug, link.LinkText)
	return err
}

// Commit commits the transaction
func (t *ledgerTx) Commit() error {
	return t.tx.Commit()
}

// Rollback aborts the transaction
func (t *ledgerTx) Rollback() error {
	return t.tx.Rollback()
}
