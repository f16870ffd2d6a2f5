package ports

import "vault2notion/internal/domain"

// Ledger remembers which documents were migrated to which destination pages,
// so a rerun can reuse pages and skip unchanged documents
type Ledger interface {
	// Lifecycle
	Open(path string, vaultRoot string) error
	Close() error

	// NeedsReset reports whether the stored ledger belongs to another vault
	// or an older schema
	NeedsReset() bool
	Reset() error

	// Entry queries
	GetEntry(slug string) (*domain.LedgerEntry, error)
	ListEntries() ([]domain.LedgerEntry, error)
	BrokenLinks(slug string) ([]domain.LedgerLink, error)

	// BeginTx starts an atomic update of one document's record
	BeginTx() (LedgerTx, error)
}

// LedgerTx represents a transaction for atomic ledger updates
type LedgerTx interface {
	UpsertEntry(entry *domain.LedgerEntry) error
	DeleteLinksFrom(slug string) error
	InsertLink(link *domain.LedgerLink) error

	// Transaction control
	Commit() error
	Rollback() error
}
