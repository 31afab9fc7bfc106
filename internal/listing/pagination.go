package listing

// Link is one pager entry as rendered by the server. Labels may carry
// HTML entities ("&laquo; Previous"); they are not used for display.
type Link struct {
	URL    *string `json:"url"`
	Label  string  `json:"label"`
	Active bool    `json:"active"`
}

// Envelope is the pagination wrapper returned with every list response.
type Envelope struct {
	CurrentPage int    `json:"current_page"`
	LastPage    int    `json:"last_page"`
	PerPage     int    `json:"per_page"`
	Total       int    `json:"total"`
	From        *int   `json:"from"`
	To          *int   `json:"to"`
	Links       []Link `json:"links,omitempty"`
}

// Page converts the envelope to the canonical pagination contract.
func (e Envelope) Page() Page {
	p := Page{
		Number:     e.CurrentPage,
		TotalPages: e.LastPage,
		PerPage:    e.PerPage,
		Total:      e.Total,
	}
	if e.From != nil {
		p.From = *e.From
	}
	if e.To != nil {
		p.To = *e.To
	}
	return p.normalize()
}

// Page is the canonical pagination state: plain integers, 1-based.
// From and To are 1-based row positions, zero when the page is empty.
type Page struct {
	Number     int
	TotalPages int
	PerPage    int
	Total      int
	From       int
	To         int
}

// NewPage computes a page for a 1-based page number over total rows.
// Numbers past the last page are clamped to it.
func NewPage(number, perPage, total int) Page {
	if perPage < 1 {
		perPage = 1
	}
	p := Page{
		Number:     number,
		PerPage:    perPage,
		Total:      total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	p = p.normalize()
	if total > 0 {
		p.From = (p.Number-1)*perPage + 1
		p.To = min(p.Number*perPage, total)
	}
	return p
}

func (p Page) normalize() Page {
	if p.TotalPages < 1 {
		p.TotalPages = 1
	}
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Number > p.TotalPages {
		p.Number = p.TotalPages
	}
	return p
}

// Offset returns the number of rows preceding the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// HasPrev reports whether a previous page exists.
func (p Page) HasPrev() bool { return p.Number > 1 }

// HasNext reports whether a next page exists.
func (p Page) HasNext() bool { return p.Number < p.TotalPages }

// Prev returns the previous page number, or the current one on the first page.
func (p Page) Prev() int {
	if p.HasPrev() {
		return p.Number - 1
	}
	return p.Number
}

// Next returns the next page number, or the current one on the last page.
func (p Page) Next() int {
	if p.HasNext() {
		return p.Number + 1
	}
	return p.Number
}
