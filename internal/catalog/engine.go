// Package catalog keeps the storefront's product listing consistent with the
// shopper's filters and page cursor.
//
// The Engine is a small state machine. Shopper actions produce the
// filtersChanged and pageAdvanced transitions, each of which may issue one
// gateway request; the request's completion produces fetchSucceeded or
// fetchFailed. Every request is tagged with the epoch it was issued in and
// its own id, and its result is applied only if it is still the request the
// engine is waiting for. Superseded requests run to completion and are dropped.
package catalog

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"storefront-service/internal/domain"
	"storefront-service/internal/gateway"
)

// Shopper-facing notice texts
const (
	msgProductsFailed   = "Error in getting products"
	msgTotalFailed      = "Error in getting total count"
	msgFilterFailed     = "Error while filtering products"
	msgCategoryFailed   = "Error in getting category products"
	msgCategoriesFailed = "Something went wrong in getting category"
)

// View is a consistent snapshot of the catalog for rendering.
type View struct {
	Products    []domain.Product  `json:"products"`
	Categories  []domain.Category `json:"categories"`
	Selection   FilterSelection   `json:"selection"`
	Page        int               `json:"page"`
	KnownTotal  int               `json:"known_total"`
	Loading     bool              `json:"loading"`
	CanLoadMore bool              `json:"can_load_more"`
	Notices     []Notice          `json:"notices"`
}

// Options tunes an Engine. The zero value is usable.
type Options struct {
	NoticeTTL time.Duration
	Now       func() time.Time
}

type fetchRequest struct {
	id        uint64
	epoch     uint64
	page      int
	mode      Mode
	selection FilterSelection
	needTotal bool // also fetch the unfiltered total, which is still unknown
}

type fetchResult struct {
	products  []domain.Product
	total     int
	haveTotal bool
}

// Engine binds the filter state, the pager, and the catalog gateway together.
// It is safe for concurrent use; gateway calls run without holding its lock.
type Engine struct {
	catalog gateway.CatalogGateway
	logger  *log.Logger

	mu                  sync.Mutex
	filters             FilterState
	pager               *Pager
	categories          []domain.Category
	unfilteredTotal     int
	haveUnfilteredTotal bool
	epoch               uint64
	lastRequestID       uint64
	pending             *fetchRequest
	notices             noticeBoard
	landing             *CategoryPage
	landingSeq          uint64
}

// NewEngine creates an Engine. Call Mount before use.
func NewEngine(catalog gateway.CatalogGateway, logger *log.Logger, opts Options) *Engine {
	return &Engine{
		catalog:    catalog,
		logger:     logger,
		pager:      NewPager(),
		categories: []domain.Category{},
		notices:    newNoticeBoard(opts.NoticeTTL, opts.Now),
	}
}

// --- Shopper actions ---

// Mount loads the category list and the unfiltered total, then the first
// unfiltered page.
func (e *Engine) Mount(ctx context.Context) View {
	ctx = context.WithoutCancel(ctx)

	categories, err := e.catalog.ListCategories(ctx)
	if err != nil {
		e.logger.Printf("ERROR: %s: %v", msgCategoriesFailed, err)
	}
	total, totalErr := e.catalog.CountProducts(ctx)
	if totalErr != nil {
		e.logger.Printf("ERROR: %s: %v", msgTotalFailed, totalErr)
	}

	e.mu.Lock()
	if err == nil {
		e.categories = categories
	}
	if totalErr == nil {
		e.unfilteredTotal = total
		e.haveUnfilteredTotal = true
	} else {
		e.notices.post(msgTotalFailed)
	}
	req := e.filtersChanged(false)
	e.mu.Unlock()

	e.run(ctx, req)
	return e.Snapshot()
}

// ToggleCategory includes or excludes a category filter.
func (e *Engine) ToggleCategory(ctx context.Context, categoryID string, included bool) View {
	e.mu.Lock()
	var req *fetchRequest
	if e.filters.ToggleCategory(categoryID, included) {
		req = e.filtersChanged(!e.haveUnfilteredTotal)
	}
	e.mu.Unlock()

	e.run(ctx, req)
	return e.Snapshot()
}

// SelectPriceBucket sets the price filter; nil clears it.
func (e *Engine) SelectPriceBucket(ctx context.Context, bucket *domain.PriceBucket) View {
	e.mu.Lock()
	var req *fetchRequest
	if e.filters.SelectPriceBucket(bucket) {
		req = e.filtersChanged(!e.haveUnfilteredTotal)
	}
	e.mu.Unlock()

	e.run(ctx, req)
	return e.Snapshot()
}

// ClearFilters drops all filters and restarts the unfiltered listing from page 1.
func (e *Engine) ClearFilters(ctx context.Context) View {
	e.mu.Lock()
	var req *fetchRequest
	if e.filters.Clear() {
		req = e.filtersChanged(!e.haveUnfilteredTotal)
	}
	e.mu.Unlock()

	e.run(ctx, req)
	return e.Snapshot()
}

// LoadMore fetches the next page of the active listing. It does nothing while
// a page is loading or when everything known has been fetched.
func (e *Engine) LoadMore(ctx context.Context) View {
	e.mu.Lock()
	req := e.pageAdvanced()
	e.mu.Unlock()

	e.run(ctx, req)
	return e.Snapshot()
}

// DismissNotice removes a notice; it reports whether it was present.
func (e *Engine) DismissNotice(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.notices.dismiss(id)
}

// Snapshot returns the current view.
func (e *Engine) Snapshot() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return View{
		Products:    e.pager.Items(),
		Categories:  append([]domain.Category{}, e.categories...),
		Selection:   e.filters.Selection(),
		Page:        e.pager.Cursor(),
		KnownTotal:  e.pager.KnownTotal(),
		Loading:     e.pager.Loading(),
		CanLoadMore: e.pager.CanLoadMore(),
		Notices:     e.notices.active(),
	}
}

// Product finds a product the shopper can currently see, in the
// accumulated list or on the last category landing page.
func (e *Engine) Product(id string) (domain.Product, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range e.pager.items {
		if p.ID == id {
			return p, true
		}
	}
	if e.landing != nil {
		for _, p := range e.landing.Products {
			if p.ID == id {
				return p, true
			}
		}
	}
	return domain.Product{}, false
}

// --- Transitions (called with e.mu held) ---

// filtersChanged starts a new epoch: the accumulated list is discarded and
// the active listing is requested from page 1.
func (e *Engine) filtersChanged(needTotal bool) *fetchRequest {
	e.epoch++
	e.pager.ResetTo(1)

	sel := e.filters.Selection()
	if sel.Empty() {
		e.pager.SetKnownTotal(e.unfilteredTotal)
	} else {
		e.pager.SetKnownTotal(0) // Unknown until the filtered response arrives
		needTotal = false
	}
	return e.issue(1, sel, needTotal)
}

func (e *Engine) pageAdvanced() *fetchRequest {
	page, ok := e.pager.Advance()
	if !ok {
		return nil
	}
	sel := e.filters.Selection()
	return e.issue(page, sel, sel.Empty() && !e.haveUnfilteredTotal)
}

func (e *Engine) issue(page int, sel FilterSelection, needTotal bool) *fetchRequest {
	e.lastRequestID++
	req := &fetchRequest{
		id:        e.lastRequestID,
		epoch:     e.epoch,
		page:      page,
		mode:      ModeFor(page),
		selection: sel,
		needTotal: needTotal,
	}
	e.pending = req
	return req
}

// current reports whether req is still the request the engine waits for.
func (e *Engine) current(req *fetchRequest) bool {
	return e.pending != nil && e.pending.id == req.id && req.epoch == e.epoch
}

func (e *Engine) fetchSucceeded(req *fetchRequest, res *fetchResult) {
	if !e.current(req) {
		e.logger.Printf("INFO: Discarding stale catalog response (epoch %d page %d, current epoch %d)", req.epoch, req.page, e.epoch)
		return
	}
	e.pending = nil

	if req.selection.Empty() {
		if res.haveTotal {
			e.unfilteredTotal = res.total
			e.haveUnfilteredTotal = true
		}
		e.pager.SetKnownTotal(e.unfilteredTotal)
	} else {
		e.pager.SetKnownTotal(res.total)
	}
	e.pager.ApplyPage(res.products, req.mode)
}

func (e *Engine) fetchFailed(req *fetchRequest, err error) {
	if !e.current(req) {
		e.logger.Printf("INFO: Discarding stale catalog failure (epoch %d page %d): %v", req.epoch, req.page, err)
		return
	}
	e.pending = nil
	e.pager.Fail(req.page)

	msg := msgProductsFailed
	if !req.selection.Empty() {
		msg = msgFilterFailed
	}
	e.logger.Printf("ERROR: %s (page %d): %v", msg, req.page, err)
	e.notices.post(msg)
}

// --- Gateway I/O (called without e.mu) ---

// run performs req and feeds the outcome back into the state machine.
// In-flight requests are never cancelled; the caller's cancellation does not
// reach the gateway.
func (e *Engine) run(ctx context.Context, req *fetchRequest) {
	if req == nil {
		return
	}
	res, err := e.fetch(context.WithoutCancel(ctx), req)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.fetchFailed(req, err)
		return
	}
	e.fetchSucceeded(req, res)
}

func (e *Engine) fetch(ctx context.Context, req *fetchRequest) (*fetchResult, error) {
	if !req.selection.Empty() {
		filtered, err := e.catalog.FilterProducts(ctx, req.selection.Request(req.page))
		if err != nil {
			return nil, fmt.Errorf("catalog: filtered page %d: %w", req.page, err)
		}
		return &fetchResult{products: filtered.Products, total: filtered.TotalFiltered, haveTotal: true}, nil
	}

	products, err := e.catalog.ListProductsPage(ctx, req.page)
	if err != nil {
		return nil, fmt.Errorf("catalog: page %d: %w", req.page, err)
	}
	res := &fetchResult{products: products}
	if req.needTotal {
		total, err := e.catalog.CountProducts(ctx)
		if err != nil {
			e.logger.Printf("ERROR: %s: %v", msgTotalFailed, err) // The page itself is still usable
		} else {
			res.total, res.haveTotal = total, true
		}
	}
	return res, nil
}
