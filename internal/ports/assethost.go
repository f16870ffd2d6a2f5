package ports

import "context"

// AssetHost stores binary files and serves them from a public URL
type AssetHost interface {
	// PutFile writes data at remotePath and returns its retrievable URL.
	// Failures carry an *application.StatusError when the host answered.
	PutFile(ctx context.Context, remotePath string, data []byte, contentType string) (string, error)
}
