package application

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Sentinel errors for common conditions
var (
	ErrNotFound          = errors.New("not found")
	ErrAssetNotFound     = errors.New("asset not found")
	ErrIsDirectory       = errors.New("path is a directory")
	ErrNotADirectory     = errors.New("not a directory")
	ErrSizeLimitExceeded = errors.New("size limit exceeded")
	ErrEmitPartial       = errors.New("document partially emitted")
	ErrUnsupportedBlock  = errors.New("unsupported block")
)

// ValidationError represents a validation failure with details
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// StatusError is a failed call to a remote API that returned an HTTP status
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
	RetryAfter time.Duration // Zero when the server did not ask for a delay
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: HTTP %d %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, e.Message)
}

// Temporary reports whether retrying the call may succeed (429 and 5xx)
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// SizeLimitError is returned when an asset exceeds the upload limit
type SizeLimitError struct {
	Path  string
	Size  int64
	Limit int64
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("%s is %.1fMB, limit is %.1fMB",
		e.Path, float64(e.Size)/1024/1024, float64(e.Limit)/1024/1024)
}

func (e *SizeLimitError) Is(target error) bool {
	return target == ErrSizeLimitExceeded
}

// UploadError wraps a permanent asset upload failure
type UploadError struct {
	Path string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Path, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// EmitError reports that a document's blocks were only partly appended
type EmitError struct {
	PageID  string
	Emitted int
	Total   int
	Err     error
}

func (e *EmitError) Error() string {
	return fmt.Sprintf("emitted %d of %d blocks to page %s: %v", e.Emitted, e.Total, e.PageID, e.Err)
}

func (e *EmitError) Unwrap() error {
	return e.Err
}

func (e *EmitError) Is(target error) bool {
	return target == ErrEmitPartial && e.Emitted > 0
}
