package emit

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"vault2notion/internal/application"
	"vault2notion/internal/domain"
	"vault2notion/internal/ports"
)

const (
	// MaxTextLength is the longest content one rich text object may carry
	MaxTextLength = 2000

	// MaxNestingDepth is how many levels of children one append may carry
	MaxNestingDepth = 2

	// MaxArrayLength is the longest array the destination accepts in one
	// request: rich text, table rows and block children alike
	MaxArrayLength = 100
)

// Linker maps document slugs to the URL of their destination page
type Linker interface {
	PageURL(slug string) (string, bool)
}

// LinkerFunc adapts a function to the Linker interface
type LinkerFunc func(slug string) (string, bool)

func (f LinkerFunc) PageURL(slug string) (string, bool) {
	return f(slug)
}

// Item is one top-level block object ready to append, with the number of
// source blocks folded into it (a list item plus its nested children)
type Item struct {
	Object  ports.BlockObject
	Sources int
	Size    int // objects including nested children
}

// Serializer converts parsed blocks into destination block objects
type Serializer struct {
	linker Linker
}

// NewSerializer creates a serializer. A nil linker drops document links.
func NewSerializer(linker Linker) *Serializer {
	return &Serializer{linker: linker}
}

// Serialize converts blocks, nesting list items under their parents.
// Items deeper than MaxNestingDepth are attached at the deepest allowed level.
// A list item whose parent already holds MaxArrayLength children, or whose
// top-level item would outgrow DefaultMaxObjects, moves up a level. Blocks
// with more rich text than one array holds continue in follow-up blocks.
func (s *Serializer) Serialize(blocks []domain.Block) ([]Item, error) {
	var items []Item
	var parents []ports.BlockObject // body of the last list item at each depth
	top := -1                       // item owning parents[0]

	for _, b := range blocks {
		pieces, body, err := s.objects(b)
		if err != nil {
			return nil, err
		}

		depth, isItem := domain.ListDepth(b)
		if !isItem {
			parents = parents[:0]
			items = appendPieces(items, pieces)
			continue
		}

		depth = min(depth, MaxNestingDepth, len(parents))
		for depth > 0 && !fits(parents[depth-1], items[top], len(pieces)) {
			depth--
		}
		if depth == 0 {
			top = len(items)
			items = appendPieces(items, pieces)
		} else {
			parent := parents[depth-1]
			children, _ := parent["children"].([]ports.BlockObject)
			parent["children"] = append(children, pieces...)

			items[top].Sources++
			items[top].Size += len(pieces)
		}
		parents = append(parents[:depth], body)
	}
	return items, nil
}

// fits reports whether n more children can go under parent within the
// limits of one append
func fits(parent ports.BlockObject, owner Item, n int) bool {
	children, _ := parent["children"].([]ports.BlockObject)
	return len(children)+n <= MaxArrayLength && owner.Size+n <= DefaultMaxObjects
}

// appendPieces adds the objects of one source block as top-level items. The
// source block is counted on its last piece, once all of it is carried.
func appendPieces(items []Item, pieces []ports.BlockObject) []Item {
	for i, obj := range pieces {
		sources := 0
		if i == len(pieces)-1 {
			sources = 1
		}
		items = append(items, Item{Object: obj, Sources: sources, Size: objectSize(obj)})
	}
	return items
}

// Objects returns only the block objects of items
func Objects(items []Item) []ports.BlockObject {
	objs := make([]ports.BlockObject, len(items))
	for i, it := range items {
		objs[i] = it.Object
	}
	return objs
}

// objects returns the block objects carrying b and the type body of the
// first one, where children go. Most blocks need a single object; long rich
// text and tall tables continue in further objects.
func (s *Serializer) objects(b domain.Block) ([]ports.BlockObject, ports.BlockObject, error) {
	var body ports.BlockObject
	var more []ports.BlockObject

	typ := blockType(b)
	switch v := b.(type) {
	case domain.Heading:
		body, more = s.textBlocks(typ, v.Runs, nil)
	case domain.Paragraph:
		body, more = s.textBlocks(typ, v.Runs, nil)
	case domain.BulletItem:
		body, more = s.textBlocks(typ, v.Runs, nil)
	case domain.NumberedItem:
		body, more = s.textBlocks(typ, v.Runs, nil)
	case domain.ToDo:
		body, more = s.textBlocks(typ, v.Runs, ports.BlockObject{"checked": v.Checked})
	case domain.Quote:
		body, more = s.textBlocks(typ, v.Runs, nil)
	case domain.CodeBlock:
		body, more = s.textBlocks(typ, []domain.TextRun{domain.Plain(v.Text)}, ports.BlockObject{"language": Language(v.Language)})
	case domain.Divider:
		body = ports.BlockObject{}
	case domain.Table:
		tables := s.tables(v)
		body = tables[0]
		for _, t := range tables[1:] {
			more = append(more, block(typ, t))
		}
	case domain.Image:
		body = external(v.URL)
		if v.Caption != "" {
			body["caption"] = capRichText(s.richText([]domain.TextRun{domain.Plain(v.Caption)}))
		}
	case domain.File:
		body = external(v.URL)
		if v.Name != "" {
			body["caption"] = capRichText(s.richText([]domain.TextRun{domain.Plain(v.Name)}))
		}
	default:
		return nil, nil, fmt.Errorf("%w: %T", application.ErrUnsupportedBlock, b)
	}

	return append([]ports.BlockObject{block(typ, body)}, more...), body, nil
}

func block(typ string, body ports.BlockObject) ports.BlockObject {
	return ports.BlockObject{
		"object": "block",
		"type":   typ,
		typ:      body,
	}
}

// textBlocks builds the body of a text block and the blocks continuing its
// rich text past MaxArrayLength objects. Paragraphs, quotes and code continue
// as blocks of their own type, everything else as paragraphs.
func (s *Serializer) textBlocks(typ string, runs []domain.TextRun, extra ports.BlockObject) (ports.BlockObject, []ports.BlockObject) {
	segments := splitObjects(s.richText(runs), MaxArrayLength)

	body := ports.BlockObject{"rich_text": segments[0]}
	for k, v := range extra {
		body[k] = v
	}

	contType := "paragraph"
	switch typ {
	case "paragraph", "quote", "code":
		contType = typ
	}

	var more []ports.BlockObject
	for _, seg := range segments[1:] {
		b := ports.BlockObject{"rich_text": seg}
		if lang, ok := extra["language"]; ok && contType == "code" {
			b["language"] = lang
		}
		more = append(more, block(contType, b))
	}
	return body, more
}

// splitObjects cuts objs into slices of at most limit elements. It always
// returns at least one, possibly empty, slice.
func splitObjects(objs []ports.BlockObject, limit int) [][]ports.BlockObject {
	if len(objs) <= limit {
		return [][]ports.BlockObject{objs}
	}
	var out [][]ports.BlockObject
	for len(objs) > limit {
		out = append(out, objs[:limit:limit])
		objs = objs[limit:]
	}
	if len(objs) > 0 {
		out = append(out, objs)
	}
	return out
}

// capRichText folds rich text past MaxArrayLength objects into the last
// allowed object as plain text, cut to MaxTextLength characters. It serves
// places that cannot continue in another block, like captions and cells.
func capRichText(objs []ports.BlockObject) []ports.BlockObject {
	if len(objs) <= MaxArrayLength {
		return objs
	}

	var rest strings.Builder
	for _, obj := range objs[MaxArrayLength-1:] {
		text, _ := obj["text"].(ports.BlockObject)
		content, _ := text["content"].(string)
		rest.WriteString(content)
	}
	last := ports.BlockObject{
		"type": "text",
		"text": ports.BlockObject{"content": splitText(rest.String(), MaxTextLength)[0]},
	}
	return append(objs[:MaxArrayLength-1:MaxArrayLength-1], last)
}

func blockType(b domain.Block) string {
	switch v := b.(type) {
	case domain.Heading:
		return fmt.Sprintf("heading_%d", min(max(v.Level, 1), 3))
	case domain.File:
		if v.Class == domain.AssetPDF {
			return "pdf"
		}
		return "file"
	default:
		return b.Kind().String()
	}
}

// tables builds the table body, split into several tables when the rows
// outgrow one children array. Continuation tables repeat the header row.
func (s *Serializer) tables(t domain.Table) []ports.BlockObject {
	width := t.Width()
	rows := make([]ports.BlockObject, 0, len(t.Rows))
	for _, row := range t.Rows {
		cells := make([]any, width)
		for i := range cells {
			var runs []domain.TextRun
			if i < len(row) {
				runs = row[i].Runs
			}
			cells[i] = capRichText(s.richText(runs))
		}
		rows = append(rows, ports.BlockObject{
			"object":    "block",
			"type":      "table_row",
			"table_row": ports.BlockObject{"cells": cells},
		})
	}

	var header []ports.BlockObject
	data := rows
	if t.HasHeader && len(rows) > 0 {
		header, data = rows[:1], rows[1:]
	}
	per := MaxArrayLength - len(header)

	var bodies []ports.BlockObject
	for first := true; first || len(data) > 0; first = false {
		n := min(per, len(data))
		children := append(append([]ports.BlockObject{}, header...), data[:n]...)
		data = data[n:]
		bodies = append(bodies, ports.BlockObject{
			"table_width":       width,
			"has_column_header": t.HasHeader,
			"has_row_header":    false,
			"children":          children,
		})
	}
	return bodies
}

func external(u string) ports.BlockObject {
	return ports.BlockObject{
		"type":     "external",
		"external": ports.BlockObject{"url": u},
	}
}

// richText converts runs to rich text objects, splitting long content
func (s *Serializer) richText(runs []domain.TextRun) []ports.BlockObject {
	out := make([]ports.BlockObject, 0, len(runs))
	for _, r := range runs {
		href := s.href(r.Link)
		for _, part := range splitText(r.Text, MaxTextLength) {
			text := ports.BlockObject{"content": part}
			if href != "" {
				text["link"] = ports.BlockObject{"url": href}
			}
			out = append(out, ports.BlockObject{
				"type": "text",
				"text": text,
				"annotations": ports.BlockObject{
					"bold":          r.Style.Has(domain.StyleBold),
					"italic":        r.Style.Has(domain.StyleItalic),
					"strikethrough": r.Style.Has(domain.StyleStrikethrough),
					"underline":     false,
					"code":          r.Style.Has(domain.StyleCode),
					"color":         "default",
				},
			})
		}
	}
	return out
}

// href returns the URL a link run should point at, or "" to render it as
// plain text
func (s *Serializer) href(l *domain.ResolvedLink) string {
	if l == nil {
		return ""
	}
	switch l.Kind {
	case domain.LinkExternal, domain.LinkAsset:
		if linkable(l.Target) {
			return l.Target
		}
	case domain.LinkDocument:
		if s.linker != nil {
			if u, ok := s.linker.PageURL(l.Target); ok {
				return u
			}
		}
	}
	return ""
}

// linkable reports whether the destination accepts u as a link URL
func linkable(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		return parsed.Host != ""
	case "mailto":
		return true
	}
	return false
}

// splitText cuts s into pieces of at most limit characters on rune
// boundaries
func splitText(s string, limit int) []string {
	if utf8.RuneCountInString(s) <= limit {
		return []string{s}
	}
	var parts []string
	for s != "" {
		n, count := 0, 0
		for n < len(s) && count < limit {
			_, size := utf8.DecodeRuneInString(s[n:])
			n += size
			count++
		}
		parts = append(parts, s[:n])
		s = s[n:]
	}
	return parts
}

// objectSize counts an object and every nested child object
func objectSize(obj ports.BlockObject) int {
	n := 1
	typ, _ := obj["type"].(string)
	body, _ := obj[typ].(ports.BlockObject)
	children, _ := body["children"].([]ports.BlockObject)
	for _, c := range children {
		n += objectSize(c)
	}
	return n
}
