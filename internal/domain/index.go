package domain

import "time"

// LedgerEntry is the persisted migration record of one document
type LedgerEntry struct {
	Slug          string // Primary key
	RelPath       string
	Title         string
	PageID        string
	ContentHash   string
	Status        DocumentStatus
	BlocksEmitted int
	UpdatedAt     time.Time
}

// Migrated reports whether the entry records a complete migration of the
// content identified by hash
func (e *LedgerEntry) Migrated(hash string) bool {
	return e != nil && e.Status == StatusMigrated && e.ContentHash == hash && e.PageID != ""
}

// LedgerLink is an unresolved link found in a document
type LedgerLink struct {
	SourceSlug string
	LinkText   string // Original link text
}
