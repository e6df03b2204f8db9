package catalog

import (
	"context"

	"storefront-service/internal/domain"
)

// CategoryPage is a category landing page: every product of one category,
// listed once, never paginated.
type CategoryPage struct {
	Slug        string           `json:"slug"`
	Category    domain.Category  `json:"category"`
	Products    []domain.Product `json:"products"`
	ResultCount int              `json:"result_count"`
	Notices     []Notice         `json:"notices"`
}

// LoadCategoryPage fetches the landing page for slug. A failure yields an
// empty page and a notice. Only the latest requested landing page is kept
// for product lookups.
func (e *Engine) LoadCategoryPage(ctx context.Context, slug string) CategoryPage {
	e.mu.Lock()
	e.landingSeq++
	seq := e.landingSeq
	e.mu.Unlock()

	page := CategoryPage{Slug: slug, Products: []domain.Product{}}
	res, err := e.catalog.ProductsByCategory(context.WithoutCancel(ctx), slug)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.logger.Printf("ERROR: %s %q: %v", msgCategoryFailed, slug, err)
		e.notices.post(msgCategoryFailed)
		page.Notices = e.notices.active()
		return page
	}

	pager := NewPager()
	pager.ResetTo(1)
	pager.SetKnownTotal(len(res.Products))
	pager.ApplyPage(res.Products, Replace)

	page.Category = res.Category
	page.Products = pager.Items()
	page.ResultCount = pager.Len()
	page.Notices = e.notices.active()

	if seq == e.landingSeq {
		landing := page
		e.landing = &landing
	} else {
		e.logger.Printf("INFO: Not retaining superseded category page %q", slug)
	}
	return page
}
