package catalog

import (
	"storefront-service/internal/domain"
	"storefront-service/internal/gateway"
)

// FilterSelection is the shopper's active filters: a set of category ids
// (kept in selection order, never duplicated) and at most one price bucket.
type FilterSelection struct {
	Categories []string            `json:"categories"`
	Price      *domain.PriceBucket `json:"price"`
}

// Empty reports whether no filter is active, i.e. the unfiltered listing applies.
func (f FilterSelection) Empty() bool {
	return len(f.Categories) == 0 && f.Price == nil
}

// Request builds the filtered listing request for page.
func (f FilterSelection) Request(page int) gateway.FilterRequest {
	req := gateway.FilterRequest{
		Checked: append([]string{}, f.Categories...),
		Radio:   []int{},
		Page:    page,
	}
	if f.Price != nil {
		req.Radio = f.Price.Range()
	}
	return req
}

func (f FilterSelection) clone() FilterSelection {
	out := FilterSelection{Categories: append([]string{}, f.Categories...)}
	if f.Price != nil {
		b := *f.Price
		out.Price = &b
	}
	return out
}

// FilterState owns a FilterSelection. Its mutators report whether the
// selection actually changed; only a change starts a new catalog epoch.
type FilterState struct {
	sel FilterSelection
}

// ToggleCategory adds or removes id. Adding a present id or removing an
// absent one changes nothing.
func (s *FilterState) ToggleCategory(id string, included bool) bool {
	idx := -1
	for i, c := range s.sel.Categories {
		if c == id {
			idx = i
			break
		}
	}

	switch {
	case included && idx < 0:
		s.sel.Categories = append(s.sel.Categories, id)
		return true
	case !included && idx >= 0:
		next := make([]string, 0, len(s.sel.Categories)-1)
		next = append(next, s.sel.Categories[:idx]...)
		s.sel.Categories = append(next, s.sel.Categories[idx+1:]...)
		return true
	}
	return false
}

// SelectPriceBucket replaces the active bucket; nil clears it.
func (s *FilterState) SelectPriceBucket(bucket *domain.PriceBucket) bool {
	switch {
	case bucket == nil && s.sel.Price == nil:
		return false
	case bucket != nil && s.sel.Price != nil && *bucket == *s.sel.Price:
		return false
	}
	if bucket == nil {
		s.sel.Price = nil
	} else {
		b := *bucket
		s.sel.Price = &b
	}
	return true
}

// Clear drops every filter.
func (s *FilterState) Clear() bool {
	if s.sel.Empty() {
		return false
	}
	s.sel = FilterSelection{}
	return true
}

// Selection returns a copy of the current selection.
func (s *FilterState) Selection() FilterSelection {
	return s.sel.clone()
}
