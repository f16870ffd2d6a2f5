package views

// Paginator tracks a cursor over a list shown one page at a time
type Paginator struct {
	pageSize   int
	pageOffset int
	cursor     int
	totalItems int
}

// NewPaginator creates a new paginator with the given page size
func NewPaginator(pageSize int) *Paginator {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Paginator{pageSize: pageSize}
}

// SetTotal sets the item count, keeping the cursor in range
func (p *Paginator) SetTotal(total int) {
	p.totalItems = max(total, 0)
	p.cursor = p.clamp(p.cursor)
	p.follow()
}

// SetPageSize changes how many rows a page holds
func (p *Paginator) SetPageSize(size int) {
	if size <= 0 {
		return
	}
	p.pageSize = size
	p.follow()
}

// Cursor returns the absolute index of the selected item
func (p *Paginator) Cursor() int {
	return p.cursor
}

// CursorUp moves the cursor up by one
func (p *Paginator) CursorUp() bool {
	if p.cursor == 0 {
		return false
	}
	p.cursor--
	p.follow()
	return true
}

// CursorDown moves the cursor down by one
func (p *Paginator) CursorDown() bool {
	if p.cursor >= p.totalItems-1 {
		return false
	}
	p.cursor++
	p.follow()
	return true
}

// VisibleRange returns the half-open index range of the current page
func (p *Paginator) VisibleRange() (start, end int) {
	return p.pageOffset, min(p.pageOffset+p.pageSize, p.totalItems)
}

// TotalPages returns the number of pages, at least one
func (p *Paginator) TotalPages() int {
	if p.totalItems == 0 {
		return 1
	}
	return (p.totalItems + p.pageSize - 1) / p.pageSize
}

// CurrentPage returns the current page number (1-based)
func (p *Paginator) CurrentPage() int {
	return p.pageOffset/p.pageSize + 1
}

// NextPage moves to the first item of the next page
func (p *Paginator) NextPage() bool {
	if p.pageOffset+p.pageSize >= p.totalItems {
		return false
	}
	p.pageOffset += p.pageSize
	p.cursor = p.pageOffset
	return true
}

// PrevPage moves to the first item of the previous page
func (p *Paginator) PrevPage() bool {
	if p.pageOffset == 0 {
		return false
	}
	p.pageOffset = max(p.pageOffset-p.pageSize, 0)
	p.cursor = p.pageOffset
	return true
}

// Reset returns to the first item
func (p *Paginator) Reset() {
	p.cursor = 0
	p.pageOffset = 0
}

func (p *Paginator) clamp(pos int) int {
	if pos >= p.totalItems {
		pos = p.totalItems - 1
	}
	return max(pos, 0)
}

// follow moves the page so that it contains the cursor
func (p *Paginator) follow() {
	if p.cursor < p.pageOffset || p.cursor >= p.pageOffset+p.pageSize {
		p.pageOffset = (p.cursor / p.pageSize) * p.pageSize
	}
}
