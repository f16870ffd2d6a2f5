// Package pathenc turns filesystem-derived names into URL-safe path strings.
package pathenc

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

const upperhex = "0123456789ABCDEF"

// EncodeSegment percent-encodes a single path segment. Everything outside the
// unreserved set A-Z a-z 0-9 - . _ ~ is escaped, including "/", space, "&",
// "(" and ")". Input is normalized to NFC first so the same name typed on
// different systems encodes identically.
func EncodeSegment(segment string) string {
	segment = norm.NFC.String(segment)

	var sb strings.Builder
	sb.Grow(len(segment))
	for i := 0; i < len(segment); i++ {
		c := segment[i]
		if isUnreserved(c) {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(upperhex[c>>4])
		sb.WriteByte(upperhex[c&0x0F])
	}
	return sb.String()
}

// EncodePath encodes each "/"-separated segment and keeps the separators.
// Backslashes are treated as separators and empty segments are dropped.
func EncodePath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	parts := strings.Split(p, "/")

	encoded := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" || part == "." {
			continue
		}
		encoded = append(encoded, EncodeSegment(part))
	}
	return strings.Join(encoded, "/")
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}
