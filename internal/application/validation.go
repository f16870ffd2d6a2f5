package application

import (
	"fmt"
	"regexp"
	"strings"
)

// notionIDPattern matches a 32-hex-digit id with or without dashes
var notionIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-?[0-9a-fA-F]{4}-?[0-9a-fA-F]{4}-?[0-9a-fA-F]{4}-?[0-9a-fA-F]{12}$`)

// ValidateRequired checks if a string field is non-empty (after trimming whitespace).
// Returns a ValidationError if the field is empty.
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		// Format field name with spaces for error message (e.g., "databaseID" -> "database ID")
		displayName := formatFieldName(fieldName)
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s is required", displayName),
		}
	}
	return nil
}

// formatFieldName converts camelCase field names to space-separated words
// for more readable error messages (e.g., "databaseID" -> "database ID")
func formatFieldName(fieldName string) string {
	// Handle common patterns directly
	replacements := map[string]string{
		"databaseID":   "database ID",
		"pageID":       "page ID",
		"vaultPath":    "vault path",
		"documentPath": "document path",
		"notionToken":  "Notion token",
		"githubToken":  "GitHub token",
		"githubOwner":  "GitHub owner",
		"githubRepo":   "GitHub repository",
		"link":         "link",
	}

	if formatted, ok := replacements[fieldName]; ok {
		return formatted
	}

	// Fallback: just return the field name as-is
	return fieldName
}

// NormalizeNotionID accepts a bare id, a dashed id or a Notion URL ending in
// an id, and returns the dashed form
func NormalizeNotionID(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndexAny(s, "/-"); i >= 0 && len(s)-i-1 == 32 {
		s = s[i+1:]
	}
	if !notionIDPattern.MatchString(s) {
		return "", false
	}

	hex := strings.ToLower(strings.ReplaceAll(s, "-", ""))
	return fmt.Sprintf("%s-%s-%s-%s-%s", hex[0:8], hex[8:12], hex[12:16], hex[16:20], hex[20:32]), true
}

// ValidateNotionID checks that a field holds a Notion object id.
// Returns a ValidationError if it does not.
func ValidateNotionID(fieldName, id string) error {
	if err := ValidateRequired(fieldName, id); err != nil {
		return err
	}
	if _, ok := NormalizeNotionID(id); !ok {
		displayName := formatFieldName(fieldName)
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("expected %s, got: %s", displayName, id),
		}
	}
	return nil
}
