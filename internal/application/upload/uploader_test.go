package upload

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vault2notion/internal/application"
	"vault2notion/internal/application/retry"
	"vault2notion/internal/domain"
)

// fakeHost answers PutFile from a scripted list of status codes
type fakeHost struct {
	statuses []int
	calls    []string
	onCall   func()
}

func (h *fakeHost) PutFile(_ context.Context, remotePath string, _ []byte, _ string) (string, error) {
	h.calls = append(h.calls, remotePath)
	if h.onCall != nil {
		h.onCall()
	}
	status := http.StatusCreated
	if n := len(h.calls) - 1; n < len(h.statuses) {
		status = h.statuses[n]
	}
	if status >= 400 {
		return "", &application.StatusError{Op: "put file", StatusCode: status}
	}
	return "https://assets.example.com/" + remotePath, nil
}

type recordedSleeps struct {
	delays []time.Duration
}

func (r *recordedSleeps) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestUploader(host *fakeHost, root string, sleeps *recordedSleeps) *Uploader {
	policy := retry.Policy{MaxAttempts: 5, BaseDelay: 10 * time.Millisecond, MaxDelay: time.Second, Sleep: sleeps.sleep}
	return NewUploader(host, root, WithPolicy(policy), WithPacer(retry.NewPacer(0)))
}

func TestUploader_IdempotentPerFile(t *testing.T) {
	root := t.TempDir()
	img := filepath.Join(root, "images", "cat.png")
	writeFile(t, img, "png-bytes")

	host := &fakeHost{}
	u := newTestUploader(host, root, &recordedSleeps{})

	first, err := u.Upload(context.Background(), img)
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}
	second, err := u.Upload(context.Background(), filepath.Join(root, "images", "..", "images", "cat.png"))
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}

	if first.URL != second.URL {
		t.Errorf("URLs differ: %q vs %q", first.URL, second.URL)
	}
	if len(host.calls) != 1 {
		t.Errorf("host calls = %d, want 1", len(host.calls))
	}
	if first.Cached {
		t.Error("first upload reported as cached")
	}
	if !second.Cached {
		t.Error("second upload not reported as cached")
	}
	if first.Class != domain.AssetImage {
		t.Errorf("Class = %v, want image", first.Class)
	}
}

func TestUploader_SymlinkSharesRecord(t *testing.T) {
	root := t.TempDir()
	img := filepath.Join(root, "cat.png")
	writeFile(t, img, "png-bytes")
	link := filepath.Join(root, "alias.png")
	if err := os.Symlink(img, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	host := &fakeHost{}
	u := newTestUploader(host, root, &recordedSleeps{})

	if _, err := u.Upload(context.Background(), img); err != nil {
		t.Fatal(err)
	}
	if _, err := u.Upload(context.Background(), link); err != nil {
		t.Fatal(err)
	}
	if len(host.calls) != 1 {
		t.Errorf("host calls = %d, want 1", len(host.calls))
	}
}

func TestUploader_SizeLimitMakesNoCalls(t *testing.T) {
	root := t.TempDir()
	big := filepath.Join(root, "video.mov")
	f, err := os.Create(big)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Truncate(150 * 1024 * 1024); err != nil {
		f.Close()
		t.Fatal(err)
	}
	f.Close()

	host := &fakeHost{}
	sleeps := &recordedSleeps{}
	u := newTestUploader(host, root, sleeps)

	_, err = u.Upload(context.Background(), big)
	if !errors.Is(err, application.ErrSizeLimitExceeded) {
		t.Fatalf("err = %v, want ErrSizeLimitExceeded", err)
	}
	var sizeErr *application.SizeLimitError
	if !errors.As(err, &sizeErr) {
		t.Fatalf("err = %T, want *SizeLimitError", err)
	}
	if sizeErr.Limit != DefaultMaxSize {
		t.Errorf("Limit = %d, want %d", sizeErr.Limit, DefaultMaxSize)
	}
	if len(host.calls) != 0 {
		t.Errorf("host calls = %d, want 0", len(host.calls))
	}
	if len(sleeps.delays) != 0 {
		t.Errorf("delays = %v, want none", sleeps.delays)
	}
	if u.Record().Len() != 0 {
		t.Errorf("record has %d entries, want 0", u.Record().Len())
	}
}

func TestUploader_RetriesRateLimitThenSucceeds(t *testing.T) {
	root := t.TempDir()
	pdf := filepath.Join(root, "docs", "paper.pdf")
	writeFile(t, pdf, "%PDF-1.4")

	sleeps := &recordedSleeps{}
	host := &fakeHost{statuses: []int{
		http.StatusTooManyRequests,
		http.StatusTooManyRequests,
		http.StatusTooManyRequests,
		http.StatusCreated,
	}}
	u := newTestUploader(host, root, sleeps)

	var recordSizes []int
	host.onCall = func() {
		recordSizes = append(recordSizes, u.Record().Len())
	}

	res, err := u.Upload(context.Background(), pdf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(host.calls) != 4 {
		t.Errorf("host calls = %d, want 4", len(host.calls))
	}
	if len(sleeps.delays) != 3 {
		t.Errorf("backoff delays = %v, want 3", sleeps.delays)
	}
	for i, n := range recordSizes {
		if n != 0 {
			t.Errorf("record populated before call %d returned", i+1)
		}
	}
	if u.Record().Len() != 1 {
		t.Errorf("record has %d entries, want 1", u.Record().Len())
	}
	if url, ok := u.Record().Lookup(canonicalPath(pdf)); !ok || url != res.URL {
		t.Errorf("record lookup = %q, %v; want %q", url, ok, res.URL)
	}
	if res.Class != domain.AssetPDF {
		t.Errorf("Class = %v, want pdf", res.Class)
	}
}

func TestUploader_PermanentFailure(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "notes.zip")
	writeFile(t, file, "zip")

	sleeps := &recordedSleeps{}
	host := &fakeHost{statuses: []int{http.StatusUnauthorized}}
	u := newTestUploader(host, root, sleeps)

	_, err := u.Upload(context.Background(), file)
	var uploadErr *application.UploadError
	if !errors.As(err, &uploadErr) {
		t.Fatalf("err = %v, want *UploadError", err)
	}
	if len(host.calls) != 1 {
		t.Errorf("host calls = %d, want 1", len(host.calls))
	}
	if len(sleeps.delays) != 0 {
		t.Errorf("delays = %v, want none", sleeps.delays)
	}
	if u.Record().Len() != 0 {
		t.Error("failed upload was recorded")
	}
}

func TestUploader_MissingAndDirectory(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "folder"), 0o755); err != nil {
		t.Fatal(err)
	}
	u := newTestUploader(&fakeHost{}, root, &recordedSleeps{})

	if _, err := u.Upload(context.Background(), filepath.Join(root, "nope.png")); !errors.Is(err, application.ErrAssetNotFound) {
		t.Errorf("missing file err = %v, want ErrAssetNotFound", err)
	}
	if _, err := u.Upload(context.Background(), filepath.Join(root, "folder")); !errors.Is(err, application.ErrIsDirectory) {
		t.Errorf("directory err = %v, want ErrIsDirectory", err)
	}
}

func TestUploader_RemotePath(t *testing.T) {
	root := t.TempDir()
	u := NewUploader(&fakeHost{}, root)

	tests := []struct {
		name string
		rel  string
		want string
	}{
		{"root file", "cat.png", "uploads/root/cat.png"},
		{"nested", "Daily Notes/2024/a b.png", "uploads/Daily%20Notes/2024/a%20b.png"},
		{"reserved chars", "R&D (old)/x.pdf", "uploads/R%26D%20%28old%29/x.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := u.RemotePath(filepath.Join(root, filepath.FromSlash(tt.rel)))
			if got != tt.want {
				t.Errorf("RemotePath(%q) = %q, want %q", tt.rel, got, tt.want)
			}
		})
	}

	outside := u.RemotePath(filepath.Join(filepath.Dir(root), "elsewhere", "x.png"))
	if !strings.HasPrefix(outside, "uploads/") || !strings.HasSuffix(outside, "/x.png") {
		t.Errorf("outside path = %q", outside)
	}
}

func TestUploader_CustomPrefix(t *testing.T) {
	root := t.TempDir()
	u := NewUploader(&fakeHost{}, root, WithPrefix("/assets/vault/"))

	got := u.RemotePath(filepath.Join(root, "a.png"))
	if got != "assets/vault/root/a.png" {
		t.Errorf("RemotePath = %q, want %q", got, "assets/vault/root/a.png")
	}
}

func TestContentType(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"a.png", "", "image/png"},
		{"a.PDF", "", "application/pdf"},
		{"noext", "plain words", "text/plain; charset=utf-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContentType(tt.name, []byte(tt.data)); got != tt.want {
				t.Errorf("ContentType(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}
