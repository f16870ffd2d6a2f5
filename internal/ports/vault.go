package ports

import "vault2notion/internal/domain"

// VaultCatalog answers file lookups against the vault tree
type VaultCatalog interface {
	// Root returns the absolute vault root
	Root() string

	// Lookup finds an entry by its exact vault-relative path
	Lookup(relPath string) (domain.VaultEntry, bool)

	// LookupFold finds an entry ignoring case
	LookupFold(relPath string) (domain.VaultEntry, bool)

	// FindByName returns entries whose base name matches (ignoring case),
	// shallowest first
	FindByName(name string) []domain.VaultEntry
}

// VaultSource enumerates the documents of a vault
type VaultSource interface {
	// Catalog returns the file catalog used for link resolution
	Catalog() VaultCatalog

	// Documents returns every markdown document in traversal order
	Documents() ([]domain.VaultDocument, error)

	// ReadDocument loads a single document by absolute or vault-relative path
	ReadDocument(path string) (*domain.VaultDocument, error)
}
