// Package github stores vault assets in a GitHub repository through the
// contents API and serves them from raw.githubusercontent.com.
package github

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"vault2notion/internal/adapters/httpx"
	"vault2notion/internal/application"
	"vault2notion/internal/ports"
)

const (
	DefaultAPIURL = "https://api.github.com"
	DefaultRawURL = "https://raw.githubusercontent.com"
	DefaultBranch = "main"
)

// Host implements ports.AssetHost on a GitHub repository
type Host struct {
	client *http.Client
	token  string
	owner  string
	repo   string
	branch string
	apiURL string
	rawURL string
}

// Ensure Host implements AssetHost
var _ ports.AssetHost = (*Host)(nil)

// Option configures a Host
type Option func(*Host)

// WithBranch sets the branch files are committed to
func WithBranch(branch string) Option {
	return func(h *Host) {
		if branch != "" {
			h.branch = branch
		}
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(h *Host) {
		if c != nil {
			h.client = c
		}
	}
}

// WithBaseURLs points the host at other API and raw content servers
func WithBaseURLs(apiURL, rawURL string) Option {
	return func(h *Host) {
		h.apiURL = strings.TrimSuffix(apiURL, "/")
		h.rawURL = strings.TrimSuffix(rawURL, "/")
	}
}

// NewHost creates a GitHub asset host for owner/repo
func NewHost(token, owner, repo string, opts ...Option) *Host {
	h := &Host{
		client: httpx.NewClient(),
		token:  token,
		owner:  owner,
		repo:   repo,
		branch: DefaultBranch,
		apiURL: DefaultAPIURL,
		rawURL: DefaultRawURL,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// PutFile commits data at remotePath, which must already be URL-escaped.
// A file that already exists at that path counts as uploaded.
func (h *Host) PutFile(ctx context.Context, remotePath string, data []byte, contentType string) (string, error) {
	remotePath = strings.TrimPrefix(remotePath, "/")
	if remotePath == "" {
		return "", &application.ValidationError{Field: "remotePath", Message: "remote path is required"}
	}

	name := path.Base(remotePath)
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}

	endpoint := fmt.Sprintf("%s/repos/%s/%s/contents/%s", h.apiURL, h.owner, h.repo, remotePath)
	body := map[string]string{
		"message": "Upload " + name,
		"content": base64.StdEncoding.EncodeToString(data),
		"branch":  h.branch,
	}

	_, err := httpx.DoJSON(ctx, h.client, "upload "+remotePath, http.MethodPut, endpoint, h.header(), body, nil)
	if err != nil {
		var statusErr *application.StatusError
		if !errors.As(err, &statusErr) {
			return "", err
		}
		switch {
		case statusErr.StatusCode == http.StatusUnprocessableEntity:
			// The path is taken; the asset is already hosted
		case statusErr.StatusCode == http.StatusForbidden && isRateLimited(statusErr):
			// Secondary rate limits answer 403
			statusErr.StatusCode = http.StatusTooManyRequests
			return "", statusErr
		default:
			return "", statusErr
		}
	}

	return h.URL(remotePath), nil
}

// URL returns where a committed file is served from
func (h *Host) URL(remotePath string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", h.rawURL, h.owner, h.repo, h.branch, strings.TrimPrefix(remotePath, "/"))
}

func (h *Host) header() http.Header {
	header := http.Header{}
	header.Set("Authorization", "token "+h.token)
	header.Set("Accept", "application/vnd.github.v3+json")
	return header
}

func isRateLimited(err *application.StatusError) bool {
	return err.RetryAfter > 0 || strings.Contains(strings.ToLower(err.Message), "rate limit")
}
