package ports

import "context"

// BlockObject is one block in the destination's native JSON shape
type BlockObject = map[string]any

// PageClient creates destination pages and appends blocks to them
type PageClient interface {
	// CreateOrGetPage returns the page titled title in the given database,
	// creating it when missing
	CreateOrGetPage(ctx context.Context, title, databaseID string) (string, error)

	// AppendBlocks appends children to the page, preserving order
	AppendBlocks(ctx context.Context, pageID string, blocks []BlockObject) error
}
