package domain

// BlockKind identifies the concrete type behind a Block
type BlockKind int

const (
	KindHeading BlockKind = iota
	KindParagraph
	KindBulletItem
	KindNumberedItem
	KindToDo
	KindQuote
	KindCode
	KindDivider
	KindTable
	KindImage
	KindFile
)

var blockKindNames = map[BlockKind]string{
	KindHeading:      "heading",
	KindParagraph:    "paragraph",
	KindBulletItem:   "bulleted_list_item",
	KindNumberedItem: "numbered_list_item",
	KindToDo:         "to_do",
	KindQuote:        "quote",
	KindCode:         "code",
	KindDivider:      "divider",
	KindTable:        "table",
	KindImage:        "image",
	KindFile:         "file",
}

// String returns a human-readable name for the block kind
func (k BlockKind) String() string {
	if name, ok := blockKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Block is a node of a parsed document. The set of implementations is closed:
// only types in this package can satisfy it.
type Block interface {
	Kind() BlockKind
	isBlock()
}

// Heading is a section title, Level is always 1..3
type Heading struct {
	Level int
	Runs  []TextRun
}

// Paragraph is a run of text lines merged into one block
type Paragraph struct {
	Runs []TextRun
}

// BulletItem is an unordered list entry
type BulletItem struct {
	Depth int
	Runs  []TextRun
}

// NumberedItem is an ordered list entry
type NumberedItem struct {
	Depth int
	Runs  []TextRun
}

// ToDo is a task list entry ("- [ ]" / "- [x]")
type ToDo struct {
	Depth   int
	Checked bool
	Runs    []TextRun
}

// Quote groups consecutive "> " lines
type Quote struct {
	Runs []TextRun
}

// CodeBlock holds fenced content verbatim
type CodeBlock struct {
	Language string
	Text     string
}

// Divider is a horizontal rule
type Divider struct{}

// TableCell is the inline content of one table cell
type TableCell struct {
	Runs []TextRun
}

// Table is a pipe table. Every row has the same number of cells.
type Table struct {
	HasHeader bool
	Rows      [][]TableCell
}

// Width returns the number of columns in the table
func (t Table) Width() int {
	if len(t.Rows) == 0 {
		return 0
	}
	return len(t.Rows[0])
}

// Image is an embedded picture with a retrievable URL
type Image struct {
	URL     string
	Caption string
}

// File is an embedded non-image asset (PDF or other binary)
type File struct {
	URL   string
	Name  string
	Class AssetClass
}

func (Heading) Kind() BlockKind      { return KindHeading }
func (Paragraph) Kind() BlockKind    { return KindParagraph }
func (BulletItem) Kind() BlockKind   { return KindBulletItem }
func (NumberedItem) Kind() BlockKind { return KindNumberedItem }
func (ToDo) Kind() BlockKind         { return KindToDo }
func (Quote) Kind() BlockKind        { return KindQuote }
func (CodeBlock) Kind() BlockKind    { return KindCode }
func (Divider) Kind() BlockKind      { return KindDivider }
func (Table) Kind() BlockKind        { return KindTable }
func (Image) Kind() BlockKind        { return KindImage }
func (File) Kind() BlockKind         { return KindFile }

func (Heading) isBlock()      {}
func (Paragraph) isBlock()    {}
func (BulletItem) isBlock()   {}
func (NumberedItem) isBlock() {}
func (ToDo) isBlock()         {}
func (Quote) isBlock()        {}
func (CodeBlock) isBlock()    {}
func (Divider) isBlock()      {}
func (Table) isBlock()        {}
func (Image) isBlock()        {}
func (File) isBlock()         {}

// ListDepth returns the nesting depth of a list item block and whether the
// block is a list item at all
func ListDepth(b Block) (int, bool) {
	switch v := b.(type) {
	case BulletItem:
		return v.Depth, true
	case NumberedItem:
		return v.Depth, true
	case ToDo:
		return v.Depth, true
	default:
		return 0, false
	}
}
