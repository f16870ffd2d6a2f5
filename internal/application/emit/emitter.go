// Package emit serializes parsed blocks and appends them to destination pages
// in ordered, size-limited chunks.
package emit

import (
	"context"
	"io"
	"log/slog"
	"time"

	"vault2notion/internal/application"
	"vault2notion/internal/application/retry"
	"vault2notion/internal/domain"
	"vault2notion/internal/ports"
)

const (
	// DefaultMaxBlocks is the destination's limit of top-level blocks per append
	DefaultMaxBlocks = 100

	// DefaultMaxObjects is the destination's limit of objects per append,
	// nested children included
	DefaultMaxObjects = 1000

	// DefaultInterval keeps appends near three requests per second
	DefaultInterval = 350 * time.Millisecond
)

// Status summarizes how much of a document reached the destination
type Status int

const (
	StatusSuccess Status = iota
	StatusPartial
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusPartial:
		return "partial"
	default:
		return "failure"
	}
}

// Outcome reports the result of emitting one document
type Outcome struct {
	Status  Status
	Emitted int // source blocks in chunks that were appended
	Total   int
	Calls   int // successful append calls
}

// Chunk is one append call's worth of items
type Chunk struct {
	Items []Item
}

// Sources returns the number of source blocks carried by the chunk
func (c Chunk) Sources() int {
	n := 0
	for _, it := range c.Items {
		n += it.Sources
	}
	return n
}

// Emitter appends serialized blocks to a page
type Emitter struct {
	client     ports.PageClient
	serializer *Serializer
	policy     retry.Policy
	pacer      *retry.Pacer
	maxBlocks  int
	maxObjects int
	logger     *slog.Logger
}

// Option configures the Emitter
type Option func(*Emitter)

// WithLinker sets how document links are turned into page URLs
func WithLinker(l Linker) Option {
	return func(e *Emitter) {
		e.serializer = NewSerializer(l)
	}
}

// WithPolicy sets the retry policy for append calls
func WithPolicy(p retry.Policy) Option {
	return func(e *Emitter) {
		e.policy = p
	}
}

// WithPacer sets the pacer spacing append calls
func WithPacer(p *retry.Pacer) Option {
	return func(e *Emitter) {
		e.pacer = p
	}
}

// WithMaxBlocks sets the top-level block limit per append
func WithMaxBlocks(n int) Option {
	return func(e *Emitter) {
		if n > 0 {
			e.maxBlocks = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(e *Emitter) {
		e.logger = l
	}
}

// NewEmitter creates an emitter writing through client
func NewEmitter(client ports.PageClient, opts ...Option) *Emitter {
	e := &Emitter{
		client:     client,
		serializer: NewSerializer(nil),
		policy:     retry.DefaultPolicy(),
		pacer:      retry.NewPacer(DefaultInterval),
		maxBlocks:  DefaultMaxBlocks,
		maxObjects: DefaultMaxObjects,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Serializer returns the serializer used for block objects
func (e *Emitter) Serializer() *Serializer {
	return e.serializer
}

// Plan serializes blocks and groups them into append-sized chunks
func (e *Emitter) Plan(blocks []domain.Block) ([]Chunk, error) {
	items, err := e.serializer.Serialize(blocks)
	if err != nil {
		return nil, err
	}
	return chunk(items, e.maxBlocks, e.maxObjects), nil
}

// Emit appends blocks to pageID in source order. The first chunk that fails
// after retries stops the document; the outcome then reports how many blocks
// made it and the error is an *application.EmitError.
func (e *Emitter) Emit(ctx context.Context, blocks []domain.Block, pageID string) (Outcome, error) {
	out := Outcome{Status: StatusSuccess, Total: len(blocks)}

	chunks, err := e.Plan(blocks)
	if err != nil {
		out.Status = StatusFailure
		return out, &application.EmitError{PageID: pageID, Total: out.Total, Err: err}
	}

	for i, c := range chunks {
		objects := Objects(c.Items)
		err := e.policy.Do(ctx, func(ctx context.Context) error {
			if err := e.pacer.Wait(ctx); err != nil {
				return err
			}
			return e.client.AppendBlocks(ctx, pageID, objects)
		})
		if err != nil {
			out.Status = StatusPartial
			if out.Emitted == 0 {
				out.Status = StatusFailure
			}
			e.logger.Warn("append failed, abandoning remaining chunks",
				"page", pageID,
				"chunk", i+1,
				"chunks", len(chunks),
				"emitted", out.Emitted,
				"error", err,
			)
			return out, &application.EmitError{PageID: pageID, Emitted: out.Emitted, Total: out.Total, Err: err}
		}

		out.Calls++
		out.Emitted += c.Sources()
		e.logger.Debug("appended chunk", "page", pageID, "chunk", i+1, "objects", len(objects))
	}
	return out, nil
}

// chunk groups items greedily so each chunk holds at most maxBlocks items
// and maxObjects objects. An item larger than maxObjects travels alone.
func chunk(items []Item, maxBlocks, maxObjects int) []Chunk {
	var chunks []Chunk
	var cur Chunk
	size := 0

	for _, it := range items {
		if len(cur.Items) > 0 && (len(cur.Items) >= maxBlocks || size+it.Size > maxObjects) {
			chunks = append(chunks, cur)
			cur = Chunk{}
			size = 0
		}
		cur.Items = append(cur.Items, it)
		size += it.Size
	}
	if len(cur.Items) > 0 {
		chunks = append(chunks, cur)
	}
	return chunks
}
