package commands

import (
	"context"
	"fmt"

	"vault2notion/internal/application"
	"vault2notion/internal/application/emit"
	"vault2notion/internal/application/markdown"
	"vault2notion/internal/domain"
	"vault2notion/internal/ports"
)

// ConvertResult contains the conversion of a single document
type ConvertResult struct {
	Document *domain.VaultDocument
	Blocks   []domain.Block
	Objects  []ports.BlockObject
	Report   domain.ConversionReport
}

// ConvertCommand converts one document to block objects without emitting
// them. Document links resolve against pages recorded in the ledger.
type ConvertCommand struct {
	source ports.VaultSource
	parser *markdown.Parser
	ledger ports.Ledger
	Path   string
}

// NewConvertCommand creates a new ConvertCommand. The ledger may be nil.
func NewConvertCommand(source ports.VaultSource, parser *markdown.Parser, ledger ports.Ledger, path string) *ConvertCommand {
	return &ConvertCommand{
		source: source,
		parser: parser,
		ledger: ledger,
		Path:   path,
	}
}

// Validate checks if the convert operation is valid
func (c *ConvertCommand) Validate() error {
	return application.ValidateRequired("documentPath", c.Path)
}

// Execute runs the convert command
func (c *ConvertCommand) Execute(ctx context.Context) (*ConvertResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	doc, err := c.source.ReadDocument(c.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	blocks, report, err := c.parser.Parse(ctx, doc.Text, doc.RelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to convert document: %w", err)
	}

	pages, err := c.knownPages()
	if err != nil {
		return nil, err
	}
	items, err := emit.NewSerializer(pages).Serialize(blocks)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize blocks: %w", err)
	}

	return &ConvertResult{
		Document: doc,
		Blocks:   blocks,
		Objects:  emit.Objects(items),
		Report:   report,
	}, nil
}

func (c *ConvertCommand) knownPages() (*PageMap, error) {
	pages := NewPageMap()
	if c.ledger == nil {
		return pages, nil
	}
	entries, err := c.ledger.ListEntries()
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	for _, e := range entries {
		if e.PageID != "" {
			pages.Set(e.Slug, e.PageID)
		}
	}
	return pages, nil
}
