package catalog

import "storefront-service/internal/domain"

// Mode says how a fetched page is reconciled into the accumulated list.
type Mode int

const (
	Replace Mode = iota
	Append
)

func (m Mode) String() string {
	if m == Append {
		return "append"
	}
	return "replace"
}

// ModeFor returns Replace for the first page of an epoch and Append otherwise.
func ModeFor(page int) Mode {
	if page <= 1 {
		return Replace
	}
	return Append
}

// Pager tracks the page cursor and the accumulated product list of one
// epoch. The accumulated list never grows past knownTotal.
type Pager struct {
	cursor     int
	items      []domain.Product
	knownTotal int
	loading    bool
	complete   bool // the page at cursor has been applied
}

func NewPager() *Pager {
	return &Pager{cursor: 1, items: []domain.Product{}}
}

// ResetTo discards the accumulated list and moves the cursor to page,
// marking the pager as loading that page.
func (p *Pager) ResetTo(page int) {
	if page < 1 {
		page = 1
	}
	p.items = []domain.Product{}
	p.cursor = page
	p.loading = true
	p.complete = false
}

// Advance moves to the next page when more items are known to exist and no
// page is loading. If the page at the cursor never arrived (its fetch
// failed), that page is requested again instead of skipping it.
func (p *Pager) Advance() (page int, ok bool) {
	if p.loading || len(p.items) >= p.knownTotal {
		return p.cursor, false
	}
	if p.complete {
		p.cursor++
		p.complete = false
	}
	p.loading = true
	return p.cursor, true
}

// ApplyPage reconciles a fetched page into the accumulated list.
func (p *Pager) ApplyPage(products []domain.Product, mode Mode) {
	if mode == Replace {
		p.items = append([]domain.Product{}, products...)
	} else {
		p.items = append(p.items, products...)
	}
	if len(p.items) > p.knownTotal {
		p.knownTotal = len(p.items) // The remote undercounted; never offer more than was delivered
	}
	p.loading = false
	p.complete = true
}

// Fail records that fetching page did not succeed. The accumulated list is
// untouched and the cursor returns to the last page that was applied.
func (p *Pager) Fail(page int) {
	p.loading = false
	if page > 1 && !p.complete {
		p.cursor = page - 1
		p.complete = true
	}
}

// SetKnownTotal sets the total for the current epoch. It never drops below
// the number of items already accumulated.
func (p *Pager) SetKnownTotal(total int) {
	if total < len(p.items) {
		total = len(p.items)
	}
	p.knownTotal = total
}

func (p *Pager) Cursor() int     { return p.cursor }
func (p *Pager) KnownTotal() int { return p.knownTotal }
func (p *Pager) Loading() bool   { return p.loading }
func (p *Pager) Len() int        { return len(p.items) }

// CanLoadMore reports whether a "load more" should be offered.
func (p *Pager) CanLoadMore() bool {
	return len(p.items) < p.knownTotal
}

// Items returns a copy of the accumulated list.
func (p *Pager) Items() []domain.Product {
	out := make([]domain.Product, len(p.items))
	copy(out, p.items)
	return out
}
