// Package httpx holds the HTTP plumbing shared by the API adapters.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"vault2notion/internal/application"
)

// DefaultTimeout is the default HTTP request timeout
const DefaultTimeout = 60 * time.Second

// maxErrorBody bounds how much of a failed response is kept in the error
const maxErrorBody = 2048

// NewClient returns an HTTP client with the default timeout
func NewClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// DoJSON sends body as JSON and decodes a successful response into out,
// which may be nil. Non-2xx answers become *application.StatusError.
func DoJSON(ctx context.Context, client *http.Client, op, method, url string, header http.Header, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s: request failed: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, NewStatusError(op, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return resp.StatusCode, nil
}

// NewStatusError builds the error for a non-2xx response, reading the
// API's message field when there is one
func NewStatusError(op string, resp *http.Response) *application.StatusError {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	msg := strings.TrimSpace(string(data))
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Message != "" {
		msg = payload.Message
	}

	return &application.StatusError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Message:    msg,
		RetryAfter: RetryAfter(resp.Header, time.Now()),
	}
}

// RetryAfter parses a Retry-After header given in seconds or as an HTTP date
func RetryAfter(h http.Header, now time.Time) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs * float64(time.Second))
	}
	if t, err := http.ParseTime(v); err == nil && t.After(now) {
		return t.Sub(now)
	}
	return 0
}
