package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vault2notion/internal/application"
)

func TestRetryAfter(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"missing", "", 0},
		{"seconds", "3", 3 * time.Second},
		{"fraction", "0.5", 500 * time.Millisecond},
		{"negative", "-1", 0},
		{"date", now.Add(10 * time.Second).Format(http.TimeFormat), 10 * time.Second},
		{"past date", now.Add(-time.Minute).Format(http.TimeFormat), 0},
		{"garbage", "soon", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.value != "" {
				h.Set("Retry-After", tt.value)
			}
			if got := RetryAfter(h, now); got != tt.want {
				t.Errorf("RetryAfter(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestDoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			if r.Header.Get("Content-Type") != "application/json" || r.Header.Get("X-Test") != "yes" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.Write([]byte(`{"id":"abc"}`))
		case "/limited":
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"message":"slow down"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("nothing here"))
		}
	}))
	defer srv.Close()

	header := http.Header{}
	header.Set("X-Test", "yes")

	var out struct {
		ID string `json:"id"`
	}
	code, err := DoJSON(context.Background(), srv.Client(), "test", http.MethodPost, srv.URL+"/ok", header, map[string]string{"a": "b"}, &out)
	if err != nil || code != http.StatusOK || out.ID != "abc" {
		t.Errorf("DoJSON = %d, %v, %+v", code, err, out)
	}

	_, err = DoJSON(context.Background(), srv.Client(), "test", http.MethodGet, srv.URL+"/limited", nil, nil, nil)
	var statusErr *application.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if !statusErr.Temporary() || statusErr.RetryAfter != 2*time.Second || statusErr.Message != "slow down" {
		t.Errorf("status error = %+v", statusErr)
	}

	_, err = DoJSON(context.Background(), srv.Client(), "test", http.MethodGet, srv.URL+"/missing", nil, nil, nil)
	if !errors.As(err, &statusErr) || statusErr.Temporary() || statusErr.Message != "nothing here" {
		t.Errorf("status error = %v", err)
	}
}
