// Package upload relocates local vault assets to the asset host.
package upload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"vault2notion/internal/application"
	"vault2notion/internal/application/pathenc"
	"vault2notion/internal/application/retry"
	"vault2notion/internal/domain"
	"vault2notion/internal/ports"
)

const (
	// DefaultMaxSize is the largest file the asset host accepts
	DefaultMaxSize int64 = 100 * 1024 * 1024

	// DefaultPrefix is the remote folder all uploads live under
	DefaultPrefix = "uploads"

	// DefaultInterval keeps uploads under the host's request ceilings
	DefaultInterval = 300 * time.Millisecond

	rootFolder = "root"
)

// Result describes a completed (or cached) upload
type Result struct {
	URL        string
	RemotePath string
	Class      domain.AssetClass
	Cached     bool // True when served from the record without a network call
}

// Uploader uploads each local file at most once per run
type Uploader struct {
	host      ports.AssetHost
	record    *Record
	policy    retry.Policy
	pacer     *retry.Pacer
	vaultRoot string
	prefix    string
	maxSize   int64
	logger    *slog.Logger
}

// Option configures the Uploader
type Option func(*Uploader)

// WithRecord shares an existing upload record
func WithRecord(r *Record) Option {
	return func(u *Uploader) {
		u.record = r
	}
}

// WithPolicy sets the retry policy for host calls
func WithPolicy(p retry.Policy) Option {
	return func(u *Uploader) {
		u.policy = p
	}
}

// WithPacer sets the pacer spacing host calls
func WithPacer(p *retry.Pacer) Option {
	return func(u *Uploader) {
		u.pacer = p
	}
}

// WithPrefix sets the remote folder uploads are placed under
func WithPrefix(prefix string) Option {
	return func(u *Uploader) {
		u.prefix = strings.Trim(prefix, "/")
	}
}

// WithMaxSize sets the largest accepted file size in bytes
func WithMaxSize(n int64) Option {
	return func(u *Uploader) {
		u.maxSize = n
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(u *Uploader) {
		u.logger = l
	}
}

// NewUploader creates an uploader for assets below vaultRoot
func NewUploader(host ports.AssetHost, vaultRoot string, opts ...Option) *Uploader {
	u := &Uploader{
		host:      host,
		record:    NewRecord(),
		policy:    retry.DefaultPolicy(),
		pacer:     retry.NewPacer(DefaultInterval),
		vaultRoot: canonicalPath(vaultRoot),
		prefix:    DefaultPrefix,
		maxSize:   DefaultMaxSize,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Record returns the upload record backing this uploader
func (u *Uploader) Record() *Record {
	return u.record
}

// Upload sends the file at localPath to the asset host and returns its URL.
// Repeated calls for the same file return the recorded URL without touching
// the network. Oversized files fail with a *application.SizeLimitError before
// any call is made.
func (u *Uploader) Upload(ctx context.Context, localPath string) (Result, error) {
	canonical := canonicalPath(localPath)
	class := domain.ClassifyAsset(canonical)

	if url, ok := u.record.Lookup(canonical); ok {
		return Result{URL: url, RemotePath: u.RemotePath(canonical), Class: class, Cached: true}, nil
	}

	info, err := os.Stat(canonical)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{}, &application.UploadError{Path: canonical, Err: application.ErrAssetNotFound}
		}
		return Result{}, &application.UploadError{Path: canonical, Err: err}
	}
	if info.IsDir() {
		return Result{}, &application.UploadError{Path: canonical, Err: application.ErrIsDirectory}
	}
	if u.maxSize > 0 && info.Size() > u.maxSize {
		return Result{}, &application.SizeLimitError{Path: canonical, Size: info.Size(), Limit: u.maxSize}
	}

	data, err := os.ReadFile(canonical)
	if err != nil {
		return Result{}, &application.UploadError{Path: canonical, Err: err}
	}

	remote := u.RemotePath(canonical)
	contentType := ContentType(canonical, data)

	u.logger.Debug("uploading asset",
		"path", canonical,
		"remote", remote,
		"bytes", len(data),
		"class", class.String(),
	)

	var url string
	err = u.policy.Do(ctx, func(ctx context.Context) error {
		if err := u.pacer.Wait(ctx); err != nil {
			return err
		}
		var putErr error
		url, putErr = u.host.PutFile(ctx, remote, data, contentType)
		return putErr
	})
	if err != nil {
		return Result{}, &application.UploadError{Path: canonical, Err: err}
	}

	u.record.Store(canonical, url)
	u.logger.Info("uploaded asset", "path", canonical, "url", url)

	return Result{URL: url, RemotePath: remote, Class: class}, nil
}

// RemotePath returns the deterministic remote location for a local file:
// <prefix>/<encoded folder path>/<encoded filename>. Files at the vault root
// use the folder "root"; files outside the vault use a hash of their folder.
func (u *Uploader) RemotePath(localPath string) string {
	canonical := canonicalPath(localPath)
	name := filepath.Base(canonical)

	folder := rootFolder
	rel, err := filepath.Rel(u.vaultRoot, canonical)
	switch {
	case err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)):
		sum := sha256.Sum256([]byte(filepath.Dir(canonical)))
		folder = hex.EncodeToString(sum[:4])
	default:
		if dir := filepath.ToSlash(filepath.Dir(rel)); dir != "." && dir != "" {
			folder = dir
		}
	}

	parts := make([]string, 0, 3)
	if u.prefix != "" {
		parts = append(parts, pathenc.EncodePath(u.prefix))
	}
	parts = append(parts, pathenc.EncodePath(folder), pathenc.EncodeSegment(name))
	return path.Join(parts...)
}

// ContentType guesses the MIME type of an asset from its name, then its bytes
func ContentType(name string, data []byte) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}

// canonicalPath resolves a path to an absolute, symlink-free form so the same
// file reached through different links shares one record entry
func canonicalPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		abs = filepath.Clean(p)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
