package commands

import "strings"

// PageBaseURL is where destination pages are served from
const PageBaseURL = "https://www.notion.so/"

// PageMap binds document slugs to destination page ids. It is filled before
// any content is emitted so links between documents can be materialized.
type PageMap struct {
	ids map[string]string
}

// NewPageMap creates an empty page map
func NewPageMap() *PageMap {
	return &PageMap{ids: make(map[string]string)}
}

// Set records the page id for a slug
func (m *PageMap) Set(slug, pageID string) {
	m.ids[slug] = pageID
}

// PageID returns the page id recorded for a slug
func (m *PageMap) PageID(slug string) (string, bool) {
	id, ok := m.ids[slug]
	return id, ok
}

// PageURL returns the destination URL for a slug's page
func (m *PageMap) PageURL(slug string) (string, bool) {
	id, ok := m.ids[slug]
	if !ok || id == "" {
		return "", false
	}
	return PageURL(id), true
}

// Len returns the number of bound slugs
func (m *PageMap) Len() int {
	return len(m.ids)
}

// PageURL builds the destination URL for a page id
func PageURL(pageID string) string {
	return PageBaseURL + strings.ReplaceAll(pageID, "-", "")
}
