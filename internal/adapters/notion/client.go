// Package notion talks to the Notion REST API.
package notion

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"vault2notion/internal/adapters/httpx"
	"vault2notion/internal/application"
	"vault2notion/internal/ports"
)

const (
	DefaultBaseURL       = "https://api.notion.com/v1"
	APIVersion           = "2022-06-28"
	DefaultTitleProperty = "Name"

	maxTitleLength = 2000
)

// Client implements ports.PageClient against a Notion database
type Client struct {
	http          *http.Client
	token         string
	baseURL       string
	titleProperty string
}

// Ensure Client implements PageClient
var _ ports.PageClient = (*Client)(nil)

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at another API server
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTitleProperty sets the database property holding page titles
func WithTitleProperty(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.titleProperty = name
		}
	}
}

// NewClient creates a Notion client authenticated by an integration token
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		http:          httpx.NewClient(),
		token:         token,
		baseURL:       DefaultBaseURL,
		titleProperty: DefaultTitleProperty,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type pageRef struct {
	ID string `json:"id"`
}

type queryResponse struct {
	Results []pageRef `json:"results"`
}

// CreateOrGetPage returns the id of the database page titled title,
// creating the page when the database has none
func (c *Client) CreateOrGetPage(ctx context.Context, title, databaseID string) (string, error) {
	databaseID, ok := application.NormalizeNotionID(databaseID)
	if !ok {
		return "", &application.ValidationError{Field: "databaseID", Message: "not a Notion id"}
	}
	title = truncate(title, maxTitleLength)

	query := map[string]any{
		"filter": map[string]any{
			"property": c.titleProperty,
			"title":    map[string]any{"equals": title},
		},
		"page_size": 1,
	}
	var found queryResponse
	if _, err := httpx.DoJSON(ctx, c.http, "query database", http.MethodPost,
		c.baseURL+"/databases/"+databaseID+"/query", c.header(), query, &found); err != nil {
		return "", err
	}
	if len(found.Results) > 0 && found.Results[0].ID != "" {
		return found.Results[0].ID, nil
	}

	page := map[string]any{
		"parent": map[string]any{"database_id": databaseID},
		"properties": map[string]any{
			c.titleProperty: map[string]any{
				"title": []any{
					map[string]any{"text": map[string]any{"content": title}},
				},
			},
		},
	}
	var created pageRef
	if _, err := httpx.DoJSON(ctx, c.http, "create page", http.MethodPost,
		c.baseURL+"/pages", c.header(), page, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("create page: response has no page id")
	}
	return created.ID, nil
}

// AppendBlocks appends children to the page in one request
func (c *Client) AppendBlocks(ctx context.Context, pageID string, blocks []ports.BlockObject) error {
	if len(blocks) == 0 {
		return nil
	}
	body := map[string]any{"children": blocks}
	_, err := httpx.DoJSON(ctx, c.http, "append blocks", http.MethodPatch,
		c.baseURL+"/blocks/"+pageID+"/children", c.header(), body, nil)
	return err
}

func (c *Client) header() http.Header {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.token)
	header.Set("Notion-Version", APIVersion)
	return header
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
