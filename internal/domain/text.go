package domain

import "strings"

// Style is a set of inline formatting flags
type Style uint8

const (
	StyleBold Style = 1 << iota
	StyleItalic
	StyleStrikethrough
	StyleCode
)

// Has reports whether every flag in f is set
func (s Style) Has(f Style) bool {
	return s&f == f
}

// TextRun is a span of literal text sharing one style and optional link
type TextRun struct {
	Text  string
	Style Style
	Link  *ResolvedLink
}

// Plain builds an unstyled run
func Plain(text string) TextRun {
	return TextRun{Text: text}
}

// RunsText concatenates the literal text of runs
func RunsText(runs []TextRun) string {
	var sb strings.Builder
	for _, r := range runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// LinkKind discriminates ResolvedLink
type LinkKind int

const (
	LinkExternal LinkKind = iota
	LinkAsset
	LinkDocument
	LinkBroken
)

func (k LinkKind) String() string {
	switch k {
	case LinkExternal:
		return "external"
	case LinkAsset:
		return "asset"
	case LinkDocument:
		return "document"
	case LinkBroken:
		return "broken"
	default:
		return "unknown"
	}
}

// ResolvedLink is the outcome of resolving a link or embed target.
//
//   - External: Target is the URL as written
//   - Asset: Target is the remote URL returned by the asset host
//   - Document: Target is the slug of another vault document
//   - Broken: Target is the original raw text, unchanged
type ResolvedLink struct {
	Kind   LinkKind
	Target string
	Class  AssetClass // set for Asset links
}

// External builds an external link
func External(url string) ResolvedLink {
	return ResolvedLink{Kind: LinkExternal, Target: url}
}

// Asset builds a link to an uploaded asset
func Asset(url string, class AssetClass) ResolvedLink {
	return ResolvedLink{Kind: LinkAsset, Target: url, Class: class}
}

// Document builds a pending link to another vault document
func Document(slug string) ResolvedLink {
	return ResolvedLink{Kind: LinkDocument, Target: slug}
}

// Broken builds an unresolved link preserving the original text
func Broken(original string) ResolvedLink {
	return ResolvedLink{Kind: LinkBroken, Target: original}
}

// IsBroken reports whether the link could not be resolved
func (l ResolvedLink) IsBroken() bool {
	return l.Kind == LinkBroken
}
