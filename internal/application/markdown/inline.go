// Package markdown turns vault markdown into typed blocks and styled runs.
package markdown

import (
	"path"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"vault2notion/internal/application/linking"
	"vault2notion/internal/domain"
)

// sizeAlias matches Obsidian's embed size hints ("300", "300x200")
var sizeAlias = regexp.MustCompile(`^\d+(x\d+)?$`)

// LinkFunc resolves the raw target of a link. Wiki-links are passed with
// their brackets, standard links as the destination only.
type LinkFunc func(raw string) domain.ResolvedLink

// Formatter parses inline spans into styled text runs
type Formatter struct {
	link LinkFunc
}

// NewFormatter creates a formatter. A nil link func treats URLs with a scheme
// as external and everything else as broken.
func NewFormatter(link LinkFunc) *Formatter {
	if link == nil {
		link = func(raw string) domain.ResolvedLink {
			if linking.IsExternal(raw) {
				return domain.External(raw)
			}
			return domain.Broken(raw)
		}
	}
	return &Formatter{link: link}
}

// Parse splits text into runs. It accepts any input: markers without a
// partner stay literal and unresolved links keep their source text.
func (f *Formatter) Parse(text string) []domain.TextRun {
	var out runList
	f.parse(&out, text, 0, nil, true)
	return out.runs
}

type runList struct {
	runs []domain.TextRun
}

func (l *runList) add(text string, style domain.Style, link *domain.ResolvedLink) {
	if text == "" {
		return
	}
	if n := len(l.runs); n > 0 {
		last := &l.runs[n-1]
		if last.Style == style && sameLink(last.Link, link) {
			last.Text += text
			return
		}
	}
	l.runs = append(l.runs, domain.TextRun{Text: text, Style: style, Link: link})
}

func sameLink(a, b *domain.ResolvedLink) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (f *Formatter) parse(out *runList, s string, style domain.Style, link *domain.ResolvedLink, allowLinks bool) {
	start := 0
	flush := func(end int) {
		out.add(s[start:end], style, link)
	}

	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s) && isEscapable(s[i+1]):
			flush(i)
			out.add(s[i+1:i+2], style, link)
			i += 2
			start = i

		case c == '`':
			n := runLength(s, i, '`')
			end, ok := codeSpanEnd(s, i, n)
			if !ok {
				i += n
				continue
			}
			flush(i)
			out.add(s[i+n:end], style|domain.StyleCode, link)
			i = end + n
			start = i

		case c == '*' || c == '_' || c == '~':
			n := runLength(s, i, c)
			k := min(n, 3)
			if c == '~' {
				k = 2
			}
			if n < k {
				i += n
				continue
			}
			open := i + n - k
			end, ok := f.findCloser(s, i, open, k, c)
			if !ok {
				i += n
				continue
			}
			flush(open)
			f.parse(out, s[open+k:end], style|emphasis(c, k), link, allowLinks)
			i = end + k
			start = i

		case allowLinks && (c == '[' || (c == '!' && i+1 < len(s) && s[i+1] == '[')):
			at := i
			if c == '!' {
				at = i + 1
			}
			span, ok := scanWikiLink(s, at)
			if !ok {
				span, ok = scanLink(s, at)
			}
			if !ok {
				i++
				continue
			}
			flush(i)
			f.emitLink(out, s[i:span.end], span, style)
			i = span.end
			start = i

		case allowLinks && c == 'h' && isURLStart(s, i):
			end := scanURL(s, i)
			if end <= i {
				i++
				continue
			}
			flush(i)
			u := s[i:end]
			l := domain.External(u)
			out.add(u, style, &l)
			i = end
			start = i

		default:
			i++
		}
	}
	flush(len(s))
}

func (f *Formatter) emitLink(out *runList, source string, span linkSpan, style domain.Style) {
	resolved := f.link(span.raw)
	if resolved.IsBroken() {
		out.add(source, style, nil)
		return
	}

	l := resolved
	label := span.label
	if strings.TrimSpace(label) == "" {
		label = path.Base(strings.Trim(span.target, "<>"))
	}
	if span.wiki {
		out.add(label, style, &l)
		return
	}
	f.parse(out, label, style, &l, false)
}

func emphasis(c byte, k int) domain.Style {
	if c == '~' {
		return domain.StyleStrikethrough
	}
	switch k {
	case 1:
		return domain.StyleItalic
	case 2:
		return domain.StyleBold
	default:
		return domain.StyleBold | domain.StyleItalic
	}
}

// findCloser looks for a delimiter run of exactly k copies of c that closes
// the opener at open. runStart is where the opener's run begins.
func (f *Formatter) findCloser(s string, runStart, open, k int, c byte) (int, bool) {
	from := open + k
	if from >= len(s) || isSpaceByte(s[from]) {
		return 0, false
	}
	if c == '_' && alnumBefore(s, runStart) {
		return 0, false
	}

	j := from
	for j < len(s) {
		switch s[j] {
		case '\\':
			j += 2
		case '`':
			m := runLength(s, j, '`')
			if end, ok := codeSpanEnd(s, j, m); ok {
				j = end + m
			} else {
				j += m
			}
		case c:
			m := runLength(s, j, c)
			if m == k && j > from && !isSpaceByte(s[j-1]) && (c != '_' || !alnumAt(s, j+m)) {
				return j, true
			}
			j += m
		default:
			j++
		}
	}
	return 0, false
}

// codeSpanEnd finds the closing backtick run of length n for the opener at i
func codeSpanEnd(s string, i, n int) (int, bool) {
	j := i + n
	for j < len(s) {
		if s[j] != '`' {
			j++
			continue
		}
		m := runLength(s, j, '`')
		if m == n {
			return j, true
		}
		j += m
	}
	return 0, false
}

func runLength(s string, i int, c byte) int {
	n := 0
	for i+n < len(s) && s[i+n] == c {
		n++
	}
	return n
}

type linkSpan struct {
	end    int    // index just past the construct
	raw    string // what the link resolver receives
	label  string
	target string
	wiki   bool
}

// scanWikiLink matches [[target]] or [[target|alias]] at s[at]
func scanWikiLink(s string, at int) (linkSpan, bool) {
	if !strings.HasPrefix(s[at:], "[[") {
		return linkSpan{}, false
	}
	idx := strings.Index(s[at+2:], "]]")
	if idx < 0 {
		return linkSpan{}, false
	}
	inner := s[at+2 : at+2+idx]
	if strings.ContainsAny(inner, "[\n") {
		return linkSpan{}, false
	}

	end := at + 2 + idx + 2
	target, label := wikiLabel(inner)
	return linkSpan{
		end:    end,
		raw:    s[at:end],
		label:  label,
		target: target,
		wiki:   true,
	}, true
}

// wikiLabel splits a wiki-link body into its target and display text
func wikiLabel(inner string) (target, label string) {
	target = inner
	if i := strings.Index(inner, "|"); i >= 0 {
		target = inner[:i]
		alias := strings.TrimSpace(inner[i+1:])
		if alias != "" && !sizeAlias.MatchString(alias) {
			return strings.TrimSpace(target), alias
		}
	}
	target = strings.TrimSpace(target)
	return target, target
}

// scanLink matches [label](destination "title") at s[at]
func scanLink(s string, at int) (linkSpan, bool) {
	if at >= len(s) || s[at] != '[' {
		return linkSpan{}, false
	}

	depth := 0
	j := at
	closeLabel := -1
scanLabel:
	for j < len(s) {
		switch s[j] {
		case '\\':
			j += 2
			continue
		case '`':
			m := runLength(s, j, '`')
			if end, ok := codeSpanEnd(s, j, m); ok {
				j = end + m
			} else {
				j += m
			}
			continue
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				closeLabel = j
				break scanLabel
			}
		}
		j++
	}
	if closeLabel < 0 || closeLabel+1 >= len(s) || s[closeLabel+1] != '(' {
		return linkSpan{}, false
	}

	depth = 0
	j = closeLabel + 1
	closeDest := -1
scanDest:
	for j < len(s) {
		switch s[j] {
		case '\\':
			j += 2
			continue
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				closeDest = j
				break scanDest
			}
		}
		j++
	}
	if closeDest < 0 {
		return linkSpan{}, false
	}

	target := destination(s[closeLabel+2 : closeDest])
	if target == "" {
		return linkSpan{}, false
	}
	return linkSpan{
		end:    closeDest + 1,
		raw:    target,
		label:  s[at+1 : closeLabel],
		target: target,
	}, true
}

// destination drops an optional quoted link title and surrounding space.
// Unquoted spaces belong to the path, as vault links often leave them
// unencoded.
func destination(inner string) string {
	t := strings.TrimSpace(inner)
	if strings.HasPrefix(t, "<") {
		if e := strings.Index(t, ">"); e > 0 {
			return t[:e+1]
		}
	}
	if i := titleStart(t); i > 0 {
		t = strings.TrimSpace(t[:i])
	}
	return t
}

// titleStart returns where a trailing "title", 'title' or (title) begins,
// or -1. The title must be separated from the path by white space.
func titleStart(t string) int {
	if len(t) < 2 {
		return -1
	}
	var open byte
	switch t[len(t)-1] {
	case '"':
		open = '"'
	case '\'':
		open = '\''
	case ')':
		open = '('
	default:
		return -1
	}
	i := strings.LastIndexByte(t[:len(t)-1], open)
	if i <= 0 || !isSpaceByte(t[i-1]) {
		return -1
	}
	return i
}

func isURLStart(s string, i int) bool {
	rest := s[i:]
	if !strings.HasPrefix(rest, "http://") && !strings.HasPrefix(rest, "https://") {
		return false
	}
	return !alnumBefore(s, i)
}

// scanURL returns the end of a bare URL starting at i, without trailing
// punctuation that usually belongs to the sentence
func scanURL(s string, i int) int {
	end := i
	for end < len(s) {
		r, size := utf8.DecodeRuneInString(s[end:])
		if unicode.IsSpace(r) || r == '<' || r == '>' || r == '`' {
			break
		}
		end += size
	}

	for end > i {
		last := s[end-1]
		if strings.IndexByte(".,;:!?\"'*_~", last) >= 0 {
			end--
			continue
		}
		if last == ')' && strings.Count(s[i:end], "(") < strings.Count(s[i:end], ")") {
			end--
			continue
		}
		break
	}

	scheme := strings.Index(s[i:end], "://")
	if scheme < 0 || i+scheme+3 >= end {
		return i
	}
	return end
}

func isEscapable(c byte) bool {
	return c < utf8.RuneSelf && unicode.IsPunct(rune(c)) || c == '`' || c == '|' || c == '~' || c == '$' || c == '+' || c == '<' || c == '>' || c == '=' || c == '^'
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func alnumBefore(s string, i int) bool {
	if i <= 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func alnumAt(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
