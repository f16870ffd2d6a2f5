package markdown

import (
	"context"
	"io"
	"log/slog"
	"path"
	"regexp"
	"strings"

	"vault2notion/internal/application/linking"
	"vault2notion/internal/domain"
)

// DefaultIndentWidth is the number of spaces that make one list level
const DefaultIndentWidth = 2

var (
	headingPattern   = regexp.MustCompile(`^(#{1,6})(?:[ \t]+(.*?))?(?:[ \t]+#+)?[ \t]*$`)
	listPattern      = regexp.MustCompile(`^([ \t]*)([-*+]|\d{1,9}[.)])(?:[ \t]+(.*))?$`)
	taskPattern      = regexp.MustCompile(`^\[([ xX])\](?:[ \t]+(.*))?$`)
	separatorPattern = regexp.MustCompile(`^\|?[ \t]*:?-+:?[ \t]*(\|[ \t]*:?-+:?[ \t]*)*\|?$`)
)

// LinkResolver classifies link targets found in a document
type LinkResolver interface {
	Resolve(ctx context.Context, raw, docPath string, report *domain.ConversionReport) (domain.ResolvedLink, error)
}

// Parser turns document text into blocks
type Parser struct {
	resolver    LinkResolver
	indentWidth int
	logger      *slog.Logger
}

// Option configures the Parser
type Option func(*Parser)

// WithIndentWidth sets how many spaces make one list nesting level
func WithIndentWidth(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.indentWidth = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		p.logger = l
	}
}

// NewParser creates a parser. A nil resolver leaves every local link broken.
func NewParser(resolver LinkResolver, opts ...Option) *Parser {
	p := &Parser{
		resolver:    resolver,
		indentWidth: DefaultIndentWidth,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse converts the markdown text of the document at docPath (vault-relative)
// into blocks. Malformed markdown never fails: it falls back to paragraphs.
// The error is set only when an asset upload failed permanently; the blocks
// parsed so far are still returned.
func (p *Parser) Parse(ctx context.Context, text, docPath string) ([]domain.Block, domain.ConversionReport, error) {
	st := &parseState{
		ctx:       ctx,
		parser:    p,
		docPath:   docPath,
		prevDepth: -1,
	}
	st.inline = NewFormatter(st.resolve)

	if err := ctx.Err(); err != nil {
		return nil, st.report, err
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	for i := 0; i < len(lines); i++ {
		if st.fence != nil {
			st.fenceLine(lines[i])
			continue
		}
		i += st.line(lines, i)
	}
	st.finish()

	if st.err != nil {
		p.logger.Warn("document conversion failed", "doc", docPath, "error", st.err)
	}
	return st.blocks, st.report, st.err
}

type fenceState struct {
	char     byte
	length   int
	language string
	lines    []string
}

type itemState struct {
	kind    domain.BlockKind
	depth   int
	checked bool
	lines   []string
}

type parseState struct {
	ctx     context.Context
	parser  *Parser
	docPath string
	inline  *Formatter
	report  domain.ConversionReport
	err     error
	blocks  []domain.Block

	para      []string
	quote     []string
	item      *itemState
	prevDepth int
	fence     *fenceState
}

// resolve is the link func handed to the inline formatter. The first fatal
// resolver error is kept and later links are left as text.
func (st *parseState) resolve(raw string) domain.ResolvedLink {
	if st.err != nil {
		return domain.Broken(raw)
	}
	if st.parser.resolver == nil {
		if linking.IsExternal(strings.TrimSpace(raw)) {
			return domain.External(strings.TrimSpace(raw))
		}
		st.report.BrokenLinks = append(st.report.BrokenLinks, raw)
		return domain.Broken(raw)
	}

	l, err := st.parser.resolver.Resolve(st.ctx, raw, st.docPath, &st.report)
	if err != nil {
		st.err = err
		return domain.Broken(raw)
	}
	return l
}

// line handles lines[i] outside a code fence and returns how many extra
// lines it consumed
func (st *parseState) line(lines []string, i int) int {
	line := lines[i]
	trimmed := strings.TrimSpace(line)
	left := strings.TrimLeft(line, " \t")

	switch {
	case trimmed == "":
		st.flushAll()
		return 0

	case st.openFence(left):
		return 0

	case strings.HasPrefix(left, "#"):
		if m := headingPattern.FindStringSubmatch(trimmed); m != nil {
			st.flushAll()
			st.heading(len(m[1]), m[2])
			return 0
		}

	case isRule(trimmed):
		st.flushAll()
		st.blocks = append(st.blocks, domain.Divider{})
		return 0
	}

	if isTableStart(lines, i) {
		st.flushAll()
		return st.table(lines, i)
	}

	if strings.HasPrefix(left, ">") {
		st.endParagraph()
		st.endList()
		st.quote = append(st.quote, stripQuote(left))
		return 0
	}

	if embeds, ok := scanEmbedLine(trimmed); ok {
		st.flushAll()
		for _, e := range embeds {
			st.embed(e)
		}
		return 0
	}

	if m := listPattern.FindStringSubmatch(line); m != nil {
		st.endParagraph()
		st.endQuote()
		st.listItem(m[1], m[2], m[3])
		return 0
	}

	st.endQuote()
	if st.item != nil {
		st.item.lines = append(st.item.lines, trimmed)
		return 0
	}
	st.para = append(st.para, trimmed)
	return 0
}

func (st *parseState) openFence(left string) bool {
	if !strings.HasPrefix(left, "```") && !strings.HasPrefix(left, "~~~") {
		return false
	}
	c := left[0]
	n := runLength(left, 0, c)
	info := strings.TrimSpace(left[n:])
	if c == '`' && strings.Contains(info, "`") {
		return false
	}

	st.flushAll()
	language := ""
	if fields := strings.Fields(info); len(fields) > 0 {
		language = strings.ToLower(fields[0])
	}
	st.fence = &fenceState{char: c, length: n, language: language}
	return true
}

func (st *parseState) fenceLine(line string) {
	left := strings.TrimLeft(line, " \t")
	if n := runLength(left, 0, st.fence.char); n >= st.fence.length && strings.TrimSpace(left[n:]) == "" {
		st.endFence()
		return
	}
	st.fence.lines = append(st.fence.lines, line)
}

func (st *parseState) endFence() {
	if st.fence == nil {
		return
	}
	st.blocks = append(st.blocks, domain.CodeBlock{
		Language: st.fence.language,
		Text:     strings.Join(st.fence.lines, "\n"),
	})
	st.fence = nil
}

func (st *parseState) heading(level int, text string) {
	runs := st.inline.Parse(text)
	if level <= 3 {
		st.blocks = append(st.blocks, domain.Heading{Level: level, Runs: runs})
		return
	}
	for i := range runs {
		runs[i].Style |= domain.StyleBold
	}
	st.report.Degradations++
	st.blocks = append(st.blocks, domain.Paragraph{Runs: runs})
}

func (st *parseState) listItem(indent, marker, content string) {
	st.endItem()

	depth := st.indentDepth(indent)
	if depth > st.prevDepth+1 {
		depth = st.prevDepth + 1
	}
	st.prevDepth = depth

	item := &itemState{kind: domain.KindBulletItem, depth: depth}
	if marker[0] >= '0' && marker[0] <= '9' {
		item.kind = domain.KindNumberedItem
	}
	if m := taskPattern.FindStringSubmatch(content); m != nil {
		item.kind = domain.KindToDo
		item.checked = m[1] != " "
		content = m[2]
	}
	item.lines = append(item.lines, strings.TrimSpace(content))
	st.item = item
}

// indentDepth converts leading whitespace to a nesting level, rounding down.
// A tab counts as one full level.
func (st *parseState) indentDepth(indent string) int {
	width := st.parser.indentWidth
	cols := 0
	for _, c := range indent {
		if c == '\t' {
			cols += width
		} else {
			cols++
		}
	}
	return cols / width
}

func (st *parseState) table(lines []string, i int) int {
	header := splitRow(lines[i])
	width := len(header)
	rows := [][]string{header}

	consumed := 1 // separator
	for j := i + 2; j < len(lines); j++ {
		t := strings.TrimSpace(lines[j])
		if t == "" || !strings.Contains(t, "|") {
			break
		}
		rows = append(rows, splitRow(t))
		consumed++
	}

	table := domain.Table{HasHeader: true}
	for _, row := range rows {
		cells := make([]domain.TableCell, width)
		for c := 0; c < width && c < len(row); c++ {
			cells[c] = domain.TableCell{Runs: st.inline.Parse(row[c])}
		}
		table.Rows = append(table.Rows, cells)
	}
	st.blocks = append(st.blocks, table)
	return consumed
}

// isTableStart reports whether lines[i] is a table header: a pipe row
// followed by a delimiter row with the same number of cells
func isTableStart(lines []string, i int) bool {
	if i+1 >= len(lines) || !strings.Contains(lines[i], "|") {
		return false
	}
	sep := strings.TrimSpace(lines[i+1])
	if !separatorPattern.MatchString(sep) {
		return false
	}
	return len(splitRow(sep)) == len(splitRow(lines[i]))
}

// splitRow splits a pipe table row on unescaped pipes outside code spans
func splitRow(row string) []string {
	row = strings.TrimSpace(row)
	row = strings.TrimPrefix(row, "|")
	if strings.HasSuffix(row, "|") && !strings.HasSuffix(row, `\|`) {
		row = row[:len(row)-1]
	}

	var cells []string
	start := 0
	inCode := false
	for i := 0; i < len(row); i++ {
		switch row[i] {
		case '\\':
			i++
		case '`':
			inCode = !inCode
		case '|':
			if !inCode {
				cells = append(cells, strings.TrimSpace(row[start:i]))
				start = i + 1
			}
		}
	}
	return append(cells, strings.TrimSpace(row[start:]))
}

type embedRef struct {
	source string // full embed text, "![...](...)" or "![[...]]"
	span   linkSpan
}

// scanEmbedLine reports whether line consists only of image/file embeds
func scanEmbedLine(line string) ([]embedRef, bool) {
	var embeds []embedRef
	i := 0
	for i < len(line) {
		if line[i] == ' ' || line[i] == '\t' {
			i++
			continue
		}
		if line[i] != '!' || i+1 >= len(line) || line[i+1] != '[' {
			return nil, false
		}
		span, ok := scanWikiLink(line, i+1)
		if !ok {
			span, ok = scanLink(line, i+1)
		}
		if !ok {
			return nil, false
		}
		embeds = append(embeds, embedRef{source: line[i:span.end], span: span})
		i = span.end
	}
	return embeds, len(embeds) > 0
}

func (st *parseState) embed(e embedRef) {
	resolved := st.resolve(e.span.raw)
	caption := strings.TrimSpace(e.span.label)
	if e.span.wiki && caption == e.span.target {
		caption = ""
	}

	switch resolved.Kind {
	case domain.LinkAsset:
		if resolved.Class == domain.AssetImage {
			st.blocks = append(st.blocks, domain.Image{URL: resolved.Target, Caption: caption})
			return
		}
		name := caption
		if name == "" {
			name = path.Base(e.span.target)
		}
		st.blocks = append(st.blocks, domain.File{URL: resolved.Target, Name: name, Class: resolved.Class})

	case domain.LinkExternal:
		if domain.IsImage(externalPath(resolved.Target)) {
			st.blocks = append(st.blocks, domain.Image{URL: resolved.Target, Caption: caption})
			return
		}
		st.linkedParagraph(e, resolved, caption)

	case domain.LinkDocument:
		st.report.Degradations++
		st.linkedParagraph(e, resolved, caption)

	default:
		st.blocks = append(st.blocks, domain.Paragraph{Runs: []domain.TextRun{domain.Plain(e.source)}})
	}
}

func (st *parseState) linkedParagraph(e embedRef, link domain.ResolvedLink, label string) {
	if label == "" {
		label = path.Base(strings.Trim(e.span.target, "<>"))
	}
	l := link
	st.blocks = append(st.blocks, domain.Paragraph{Runs: []domain.TextRun{{Text: label, Link: &l}}})
}

func (st *parseState) endParagraph() {
	if len(st.para) == 0 {
		return
	}
	st.blocks = append(st.blocks, domain.Paragraph{Runs: st.inline.Parse(strings.Join(st.para, "\n"))})
	st.para = nil
}

func (st *parseState) endQuote() {
	if len(st.quote) == 0 {
		return
	}
	st.blocks = append(st.blocks, domain.Quote{Runs: st.inline.Parse(strings.Join(st.quote, "\n"))})
	st.quote = nil
}

func (st *parseState) endItem() {
	if st.item == nil {
		return
	}
	item := st.item
	st.item = nil

	runs := st.inline.Parse(strings.Join(item.lines, "\n"))
	switch item.kind {
	case domain.KindNumberedItem:
		st.blocks = append(st.blocks, domain.NumberedItem{Depth: item.depth, Runs: runs})
	case domain.KindToDo:
		st.blocks = append(st.blocks, domain.ToDo{Depth: item.depth, Checked: item.checked, Runs: runs})
	default:
		st.blocks = append(st.blocks, domain.BulletItem{Depth: item.depth, Runs: runs})
	}
}

func (st *parseState) endList() {
	st.endItem()
	st.prevDepth = -1
}

func (st *parseState) flushAll() {
	st.endParagraph()
	st.endQuote()
	st.endList()
}

func (st *parseState) finish() {
	st.endFence()
	st.flushAll()
}

// isRule matches thematic breaks: three or more of one of - * _ with
// optional spaces between them
func isRule(trimmed string) bool {
	if len(trimmed) < 3 {
		return false
	}
	c := trimmed[0]
	if c != '-' && c != '*' && c != '_' {
		return false
	}
	count := 0
	for i := 0; i < len(trimmed); i++ {
		switch trimmed[i] {
		case c:
			count++
		case ' ', '\t':
		default:
			return false
		}
	}
	return count >= 3
}

func stripQuote(line string) string {
	for strings.HasPrefix(line, ">") {
		line = strings.TrimPrefix(line, ">")
		line = strings.TrimPrefix(line, " ")
	}
	return strings.TrimRight(line, " \t")
}

// externalPath returns the path component of a URL, without query or fragment
func externalPath(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	return u
}
