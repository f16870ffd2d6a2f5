package emit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"vault2notion/internal/application"
	"vault2notion/internal/application/retry"
	"vault2notion/internal/domain"
	"vault2notion/internal/ports"
)

// fakePages fails the append calls listed in failOn (1-based) with status
type fakePages struct {
	failOn  map[int]int
	appends [][]ports.BlockObject
	calls   int
}

func (p *fakePages) CreateOrGetPage(_ context.Context, title, _ string) (string, error) {
	return "page-" + title, nil
}

func (p *fakePages) AppendBlocks(_ context.Context, _ string, blocks []ports.BlockObject) error {
	p.calls++
	if status, ok := p.failOn[p.calls]; ok {
		return &application.StatusError{Op: "append blocks", StatusCode: status}
	}
	p.appends = append(p.appends, blocks)
	return nil
}

func paragraphs(n int) []domain.Block {
	blocks := make([]domain.Block, n)
	for i := range blocks {
		blocks[i] = domain.Paragraph{Runs: []domain.TextRun{domain.Plain(fmt.Sprintf("p%d", i))}}
	}
	return blocks
}

func noSleep(context.Context, time.Duration) error { return nil }

func newTestEmitter(pages *fakePages) *Emitter {
	return NewEmitter(pages,
		WithPolicy(retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, Sleep: noSleep}),
		WithPacer(retry.NewPacer(0)),
	)
}

func firstText(obj ports.BlockObject) string {
	typ := obj["type"].(string)
	body := obj[typ].(ports.BlockObject)
	rich := body["rich_text"].([]ports.BlockObject)
	return rich[0]["text"].(ports.BlockObject)["content"].(string)
}

func TestEmitter_AllChunksInOrder(t *testing.T) {
	pages := &fakePages{}
	e := newTestEmitter(pages)

	out, err := e.Emit(context.Background(), paragraphs(250), "page-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Status != StatusSuccess || out.Emitted != 250 || out.Total != 250 || out.Calls != 3 {
		t.Errorf("outcome = %+v", out)
	}

	sizes := []int{100, 100, 50}
	if len(pages.appends) != len(sizes) {
		t.Fatalf("appends = %d, want %d", len(pages.appends), len(sizes))
	}
	next := 0
	for i, batch := range pages.appends {
		if len(batch) != sizes[i] {
			t.Errorf("chunk %d has %d blocks, want %d", i+1, len(batch), sizes[i])
		}
		for _, obj := range batch {
			if got, want := firstText(obj), fmt.Sprintf("p%d", next); got != want {
				t.Fatalf("block order broken: got %s, want %s", got, want)
			}
			next++
		}
	}
}

func TestEmitter_SecondChunkFailsIsPartial(t *testing.T) {
	pages := &fakePages{failOn: map[int]int{2: http.StatusBadRequest}}
	e := newTestEmitter(pages)

	out, err := e.Emit(context.Background(), paragraphs(250), "page-1")

	if out.Status != StatusPartial {
		t.Errorf("Status = %v, want partial", out.Status)
	}
	if out.Emitted != 100 {
		t.Errorf("Emitted = %d, want 100 (first chunk only)", out.Emitted)
	}
	if pages.calls != 2 {
		t.Errorf("append calls = %d, want 2 (no call after the failure)", pages.calls)
	}

	if !errors.Is(err, application.ErrEmitPartial) {
		t.Errorf("err = %v, want ErrEmitPartial", err)
	}
	var emitErr *application.EmitError
	if !errors.As(err, &emitErr) {
		t.Fatalf("err = %T, want *EmitError", err)
	}
	if emitErr.Emitted != 100 || emitErr.Total != 250 {
		t.Errorf("EmitError = %+v", emitErr)
	}
}

func TestEmitter_FirstChunkFailsIsFailure(t *testing.T) {
	pages := &fakePages{failOn: map[int]int{1: http.StatusUnauthorized}}
	e := newTestEmitter(pages)

	out, err := e.Emit(context.Background(), paragraphs(10), "page-1")
	if out.Status != StatusFailure || out.Emitted != 0 {
		t.Errorf("outcome = %+v, want failure with nothing emitted", out)
	}
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, application.ErrEmitPartial) {
		t.Error("nothing emitted should not count as partial")
	}
}

func TestEmitter_RetriesTransientAppend(t *testing.T) {
	pages := &fakePages{failOn: map[int]int{1: http.StatusTooManyRequests, 2: http.StatusBadGateway}}
	e := newTestEmitter(pages)

	out, err := e.Emit(context.Background(), paragraphs(5), "page-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusSuccess || out.Emitted != 5 {
		t.Errorf("outcome = %+v", out)
	}
	if pages.calls != 3 {
		t.Errorf("append calls = %d, want 3", pages.calls)
	}
}

func TestEmitter_EmptyDocument(t *testing.T) {
	pages := &fakePages{}
	out, err := newTestEmitter(pages).Emit(context.Background(), nil, "page-1")
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != StatusSuccess || pages.calls != 0 {
		t.Errorf("outcome = %+v, calls = %d", out, pages.calls)
	}
}

func TestEmitter_NestedItemsCountAsSources(t *testing.T) {
	blocks := []domain.Block{
		domain.BulletItem{Depth: 0, Runs: []domain.TextRun{domain.Plain("a")}},
		domain.BulletItem{Depth: 1, Runs: []domain.TextRun{domain.Plain("b")}},
		domain.Paragraph{Runs: []domain.TextRun{domain.Plain("c")}},
	}
	pages := &fakePages{}

	out, err := newTestEmitter(pages).Emit(context.Background(), blocks, "page-1")
	if err != nil {
		t.Fatal(err)
	}
	if out.Emitted != 3 {
		t.Errorf("Emitted = %d, want 3", out.Emitted)
	}
	if len(pages.appends) != 1 || len(pages.appends[0]) != 2 {
		t.Errorf("appends = %v, want one call with 2 top-level objects", pages.appends)
	}
}

func TestChunk(t *testing.T) {
	item := func(size int) Item { return Item{Sources: 1, Size: size} }

	tests := []struct {
		name  string
		items []Item
		want  []int
	}{
		{"empty", nil, nil},
		{"under limits", []Item{item(1), item(1)}, []int{2}},
		{"block limit", []Item{item(1), item(1), item(1), item(1), item(1)}, []int{2, 2, 1}},
		{"object limit", []Item{item(6), item(6), item(3)}, []int{1, 2}},
		{"oversized item alone", []Item{item(1), item(20), item(1)}, []int{1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := chunk(tt.items, 2, 10)
			var got []int
			for _, c := range chunks {
				got = append(got, len(c.Items))
			}
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("chunk sizes = %v, want %v", got, tt.want)
			}
		})
	}
}
