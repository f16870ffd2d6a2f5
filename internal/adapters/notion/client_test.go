package notion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vault2notion/internal/application"
	"vault2notion/internal/ports"
)

const testDatabase = "0123abcd456789abcdef0123456789ab"

type recordedRequest struct {
	Method string
	Path   string
	Body   map[string]any
}

// fakeNotion serves the three endpoints the client uses
type fakeNotion struct {
	existing map[string]string // title -> page id
	requests []recordedRequest
	failWith int
}

func (f *fakeNotion) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	f.requests = append(f.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: body})

	if r.Header.Get("Notion-Version") != APIVersion || r.Header.Get("Authorization") != "Bearer secret_token" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if f.failWith != 0 {
		w.WriteHeader(f.failWith)
		w.Write([]byte(`{"object":"error","message":"nope"}`))
		return
	}

	switch {
	case strings.HasSuffix(r.URL.Path, "/query"):
		filter := body["filter"].(map[string]any)
		title := filter["title"].(map[string]any)["equals"].(string)
		results := []map[string]string{}
		if id, ok := f.existing[title]; ok {
			results = append(results, map[string]string{"id": id})
		}
		json.NewEncoder(w).Encode(map[string]any{"results": results})
	case r.URL.Path == "/pages":
		json.NewEncoder(w).Encode(map[string]string{"id": "new-page"})
	case strings.HasSuffix(r.URL.Path, "/children"):
		w.Write([]byte(`{"results":[]}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, f *fakeNotion) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return NewClient("secret_token", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
}

func TestClient_CreateOrGetPage(t *testing.T) {
	f := &fakeNotion{existing: map[string]string{"Existing": "old-page"}}
	c := newTestClient(t, f)

	id, err := c.CreateOrGetPage(context.Background(), "Existing", testDatabase)
	if err != nil || id != "old-page" {
		t.Errorf("existing page = %q, %v", id, err)
	}
	if len(f.requests) != 1 {
		t.Errorf("requests = %d, want 1 query", len(f.requests))
	}

	id, err = c.CreateOrGetPage(context.Background(), "Fresh", testDatabase)
	if err != nil || id != "new-page" {
		t.Fatalf("new page = %q, %v", id, err)
	}

	query := f.requests[1]
	if query.Path != "/databases/0123abcd-4567-89ab-cdef-0123456789ab/query" {
		t.Errorf("query path = %q", query.Path)
	}
	create := f.requests[2]
	if create.Method != http.MethodPost || create.Path != "/pages" {
		t.Errorf("create = %s %s", create.Method, create.Path)
	}
	parent := create.Body["parent"].(map[string]any)
	if parent["database_id"] != "0123abcd-4567-89ab-cdef-0123456789ab" {
		t.Errorf("parent = %v", parent)
	}
	name := create.Body["properties"].(map[string]any)["Name"].(map[string]any)
	content := name["title"].([]any)[0].(map[string]any)["text"].(map[string]any)["content"]
	if content != "Fresh" {
		t.Errorf("title content = %v", content)
	}
}

func TestClient_TitleProperty(t *testing.T) {
	f := &fakeNotion{}
	srv := httptest.NewServer(f)
	defer srv.Close()
	c := NewClient("secret_token", WithBaseURL(srv.URL), WithTitleProperty("Title"))

	if _, err := c.CreateOrGetPage(context.Background(), strings.Repeat("x", 2500), testDatabase); err != nil {
		t.Fatal(err)
	}
	filter := f.requests[0].Body["filter"].(map[string]any)
	if filter["property"] != "Title" {
		t.Errorf("filter property = %v", filter["property"])
	}
	if got := filter["title"].(map[string]any)["equals"].(string); len(got) != maxTitleLength {
		t.Errorf("title length = %d, want %d", len(got), maxTitleLength)
	}
	if _, ok := f.requests[1].Body["properties"].(map[string]any)["Title"]; !ok {
		t.Error("page not created with the configured title property")
	}
}

func TestClient_InvalidDatabase(t *testing.T) {
	f := &fakeNotion{}
	c := newTestClient(t, f)

	var vErr *application.ValidationError
	if _, err := c.CreateOrGetPage(context.Background(), "x", "not-an-id"); !errors.As(err, &vErr) {
		t.Errorf("expected ValidationError, got %v", err)
	}
	if len(f.requests) != 0 {
		t.Errorf("requests = %d, want 0", len(f.requests))
	}
}

func TestClient_AppendBlocks(t *testing.T) {
	f := &fakeNotion{}
	c := newTestClient(t, f)

	blocks := []ports.BlockObject{
		{"object": "block", "type": "divider", "divider": ports.BlockObject{}},
		{"object": "block", "type": "paragraph", "paragraph": ports.BlockObject{"rich_text": []ports.BlockObject{}}},
	}
	if err := c.AppendBlocks(context.Background(), "page-1", blocks); err != nil {
		t.Fatalf("AppendBlocks failed: %v", err)
	}

	req := f.requests[0]
	if req.Method != http.MethodPatch || req.Path != "/blocks/page-1/children" {
		t.Errorf("request = %s %s", req.Method, req.Path)
	}
	children := req.Body["children"].([]any)
	if len(children) != 2 || children[0].(map[string]any)["type"] != "divider" {
		t.Errorf("children = %v", children)
	}

	if err := c.AppendBlocks(context.Background(), "page-1", nil); err != nil || len(f.requests) != 1 {
		t.Errorf("empty append should not call the API")
	}
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		status    int
		temporary bool
	}{
		{http.StatusBadRequest, false},
		{http.StatusTooManyRequests, true},
		{http.StatusServiceUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, &fakeNotion{failWith: tt.status})

			err := c.AppendBlocks(context.Background(), "p", []ports.BlockObject{{"type": "divider"}})
			var statusErr *application.StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("expected StatusError, got %v", err)
			}
			if statusErr.StatusCode != tt.status || statusErr.Temporary() != tt.temporary || statusErr.Message != "nope" {
				t.Errorf("status error = %+v", statusErr)
			}
		})
	}
}
