package sqlite

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"vault2notion/internal/application"
	"vault2notion/internal/domain"
	"vault2notion/internal/ports"

	_ "modernc.org/sqlite"
)

const schemaVersion = "1"

// Ledger implements ports.Ledger using SQLite
type Ledger struct {
	db        *sql.DB
	vaultRoot string
	dbPath    string
}

// Ensure Ledger implements ports.Ledger
var _ ports.Ledger = (*Ledger)(nil)

// NewLedger creates a new SQLite ledger
func NewLedger() *Ledger {
	return &Ledger{}
}

// Open initializes the ledger at dbPath for the given vault root. An empty
// dbPath selects a per-vault file under the XDG data directory.
func (l *Ledger) Open(dbPath, vaultRoot string) error {
	// Expand ~ in path
	if len(vaultRoot) > 0 && vaultRoot[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		vaultRoot = filepath.Join(home, vaultRoot[1:])
	}

	l.vaultRoot = vaultRoot
	if dbPath == "" {
		dbPath = DefaultPath(vaultRoot)
	}
	l.dbPath = dbPath

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(l.dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", l.dbPath+"?mode=rwc")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	l.db = db

	// Pragmas + schema in single batch (reduces round-trips)
	_, err = db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
		PRAGMA busy_timeout = 5000;
		PRAGMA temp_store = MEMORY;

		CREATE TABLE IF NOT EXISTS documents (
			slug TEXT PRIMARY KEY,
			rel_path TEXT NOT NULL,
			title TEXT NOT NULL,
			page_id TEXT NOT NULL DEFAULT '',
			content_hash TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			blocks_emitted INTEGER NOT NULL DEFAULT 0,
			updated_at INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS broken_links (
			source_slug TEXT NOT NULL,
			link_text TEXT NOT NULL,
			PRIMARY KEY (source_slug, link_text)
		);
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
	`)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to setup database: %w", err)
	}

	// A fresh database belongs to this vault
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM meta`).Scan(&count); err != nil {
		db.Close()
		return fmt.Errorf("failed to read metadata: %w", err)
	}
	if count == 0 {
		if err := l.updateMeta(); err != nil {
			db.Close()
			return fmt.Errorf("failed to update metadata: %w", err)
		}
	}

	return nil
}

// Close closes the database connection
func (l *Ledger) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// Path returns the database file in use
func (l *Ledger) Path() string {
	return l.dbPath
}

// NeedsReset returns true if the ledger was written by another schema
// version or for another vault
func (l *Ledger) NeedsReset() bool {
	var version, vaultHash string

	l.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&version)
	l.db.QueryRow("SELECT value FROM meta WHERE key = 'vault_path_hash'").Scan(&vaultHash)

	return version != schemaVersion || vaultHash != hashVaultPath(l.vaultRoot)
}

// Reset drops every record and claims the ledger for the current vault
func (l *Ledger) Reset() error {
	for _, table := range []string{"documents", "broken_links"} {
		if _, err := l.db.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("failed to clear ledger: %w", err)
		}
	}
	return l.updateMeta()
}

// DefaultPath returns the ledger location for a vault
func DefaultPath(vaultRoot string) string {
	// Hash vault path for unique DB name
	return filepath.Join(xdg.DataHome, "vault2notion", hashVaultPath(vaultRoot)+".db")
}

// hashVaultPath returns a short hash of the vault path
func hashVaultPath(vaultRoot string) string {
	h := sha256.Sum256([]byte(vaultRoot))
	return hex.EncodeToString(h[:8]) // First 8 bytes = 16 hex chars
}

// updateMeta updates the schema version and vault path hash
func (l *Ledger) updateMeta() error {
	_, err := l.db.Exec(`
		INSERT OR REPLACE INTO meta (key, value)
		VALUES ('schema_version', ?), ('vault_path_hash', ?)
	`, schemaVersion, hashVaultPath(l.vaultRoot))
	return err
}

const entryColumns = `slug, rel_path, title, page_id, content_hash, status, blocks_emitted, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	var status string
	var updated int64
	err := row.Scan(&e.Slug, &e.RelPath, &e.Title, &e.PageID, &e.ContentHash, &status, &e.BlocksEmitted, &updated)
	if err != nil {
		return e, err
	}
	e.Status = domain.DocumentStatus(status)
	e.UpdatedAt = time.Unix(updated, 0)
	return e, nil
}

// GetEntry retrieves the record of a document by slug
func (l *Ledger) GetEntry(slug string) (*domain.LedgerEntry, error) {
	e, err := scanEntry(l.db.QueryRow(`SELECT `+entryColumns+` FROM documents WHERE slug = ?`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ledger entry %s: %w", slug, application.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListEntries returns every record ordered by vault path
func (l *Ledger) ListEntries() ([]domain.LedgerEntry, error) {
	rows, err := l.db.Query(`SELECT ` + entryColumns + ` FROM documents ORDER BY rel_path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// BrokenLinks returns the unresolved links recorded for a document
func (l *Ledger) BrokenLinks(slug string) ([]domain.LedgerLink, error) {
	rows, err := l.db.Query(`
		SELECT source_slug, link_text FROM broken_links
		WHERE source_slug = ? ORDER BY rowid
	`, slug)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []domain.LedgerLink
	for rows.Next() {
		var link domain.LedgerLink
		if err := rows.Scan(&link.SourceSlug, &link.LinkText); err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// BeginTx starts a new transaction
func (l *Ledger) BeginTx() (ports.LedgerTx, error) {
	tx, err := l.db.Begin()
	if err != nil {
		return nil, err
	}
	return &ledgerTx{tx: tx}, nil
}
