// Package dryrun provides destination adapters that record what a migration
// would do without touching the network.
package dryrun

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"vault2notion/internal/ports"
)

// Pages implements ports.PageClient by handing out random page ids
type Pages struct {
	mu      sync.Mutex
	byTitle map[string]string
	appends map[string]int
	calls   int
}

// Ensure Pages implements PageClient
var _ ports.PageClient = (*Pages)(nil)

// NewPages creates a dry-run page client
func NewPages() *Pages {
	return &Pages{
		byTitle: make(map[string]string),
		appends: make(map[string]int),
	}
}

// CreateOrGetPage returns a stable fake id per title
func (p *Pages) CreateOrGetPage(_ context.Context, title, databaseID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := databaseID + "\x00" + title
	if id, ok := p.byTitle[key]; ok {
		return id, nil
	}
	id := uuid.NewString()
	p.byTitle[key] = id
	return id, nil
}

// AppendBlocks counts the blocks that would be appended
func (p *Pages) AppendBlocks(_ context.Context, pageID string, blocks []ports.BlockObject) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls++
	p.appends[pageID] += len(blocks)
	return nil
}

// Blocks returns how many top-level blocks were appended to a page
func (p *Pages) Blocks(pageID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.appends[pageID]
}

// Calls returns the number of append requests made
func (p *Pages) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Assets implements ports.AssetHost by returning placeholder URLs
type Assets struct {
	mu      sync.Mutex
	baseURL string
	files   map[string]int
}

// Ensure Assets implements AssetHost
var _ ports.AssetHost = (*Assets)(nil)

// DefaultAssetURL prefixes the placeholder URLs
const DefaultAssetURL = "https://dry-run.invalid/"

// NewAssets creates a dry-run asset host
func NewAssets() *Assets {
	return &Assets{baseURL: DefaultAssetURL, files: make(map[string]int)}
}

// PutFile records the file size and returns where it would be served
func (a *Assets) PutFile(_ context.Context, remotePath string, data []byte, _ string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.files[remotePath] = len(data)
	return a.baseURL + remotePath, nil
}

// Files returns the recorded remote paths and sizes
func (a *Assets) Files() map[string]int {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[string]int, len(a.files))
	for k, v := range a.files {
		out[k] = v
	}
	return out
}
