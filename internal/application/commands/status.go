package commands

import (
	"context"
	"fmt"
	"sort"

	"vault2notion/internal/domain"
	"vault2notion/internal/ports"
)

// StatusResult summarizes what the ledger knows about earlier runs
type StatusResult struct {
	Entries     []domain.LedgerEntry
	Counts      map[domain.DocumentStatus]int
	BrokenLinks map[string][]domain.LedgerLink // By document slug
}

// StatusCommand reports the migration ledger
type StatusCommand struct {
	ledger ports.Ledger
	Filter domain.DocumentStatus // Empty lists every entry
}

// NewStatusCommand creates a new StatusCommand
func NewStatusCommand(ledger ports.Ledger, filter domain.DocumentStatus) *StatusCommand {
	return &StatusCommand{ledger: ledger, Filter: filter}
}

// Execute runs the status command
func (c *StatusCommand) Execute(ctx context.Context) (*StatusResult, error) {
	entries, err := c.ledger.ListEntries()
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	result := &StatusResult{
		Counts:      make(map[domain.DocumentStatus]int),
		BrokenLinks: make(map[string][]domain.LedgerLink),
	}
	for _, e := range entries {
		result.Counts[e.Status]++
		if c.Filter != "" && e.Status != c.Filter {
			continue
		}
		result.Entries = append(result.Entries, e)

		links, err := c.ledger.BrokenLinks(e.Slug)
		if err != nil {
			return nil, fmt.Errorf("failed to read broken links of %s: %w", e.Slug, err)
		}
		if len(links) > 0 {
			result.BrokenLinks[e.Slug] = links
		}
	}

	sort.Slice(result.Entries, func(i, j int) bool {
		return result.Entries[i].RelPath < result.Entries[j].RelPath
	})
	return result, nil
}
