package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"storefront-service/internal/catalog"
	"storefront-service/internal/checkout"
	"storefront-service/internal/domain"
)

// CatalogEngine is the catalog state the handler drives.
type CatalogEngine interface {
	Snapshot() catalog.View
	ToggleCategory(ctx context.Context, categoryID string, included bool) catalog.View
	SelectPriceBucket(ctx context.Context, bucket *domain.PriceBucket) catalog.View
	ClearFilters(ctx context.Context) catalog.View
	LoadMore(ctx context.Context) catalog.View
	DismissNotice(id string) bool
	LoadCategoryPage(ctx context.Context, slug string) catalog.CategoryPage
	Product(id string) (domain.Product, bool)
}

// CartStorer is the shared cart both the catalog and cart pages mutate.
type CartStorer interface {
	Add(ctx context.Context, p domain.Product) error
	Remove(ctx context.Context, productID string) (bool, error)
	Clear(ctx context.Context) error
}

// CheckoutSummary summarizes the cart and starts payments.
type CheckoutSummary interface {
	View(shopper domain.Shopper) checkout.View
	InitiateCheckout(ctx context.Context, shopper domain.Shopper) (*checkout.PaymentOptions, error)
}

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	engine   CatalogEngine
	cart     CartStorer
	checkout CheckoutSummary
	validate *validator.Validate
	logger   *log.Logger
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(engine CatalogEngine, cart CartStorer, summary CheckoutSummary, logger *log.Logger) *HTTPHandler {
	return &HTTPHandler{
		engine:   engine,
		cart:     cart,
		checkout: summary,
		validate: validator.New(),
		logger:   logger,
	}
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("ERROR: Failed to encode JSON response: %v", err)
		}
	}
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
// It writes the 400 response itself and reports whether the handler may go on.
func (h *HTTPHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return false
	}
	return true
}

// shopperFromRequest reads the identity the front end forwards for the
// signed-in shopper. Checkout bodies carry the full record instead.
func shopperFromRequest(r *http.Request) domain.Shopper {
	token := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	return domain.Shopper{
		Token:   token,
		Address: r.Header.Get("X-Shopper-Address"),
	}
}

// --- Catalog Handlers ---

func (h *HTTPHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.engine.Snapshot())
}

// CategoryFilterInput includes or excludes one category.
type CategoryFilterInput struct {
	CategoryID string `json:"category_id" validate:"required"`
	Checked    bool   `json:"checked"`
}

func (h *HTTPHandler) ToggleCategory(w http.ResponseWriter, r *http.Request) {
	var input CategoryFilterInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	respondWithJSON(w, http.StatusOK, h.engine.ToggleCategory(r.Context(), input.CategoryID, input.Checked))
}

// PriceFilterInput selects a bucket from domain.Prices; a null id clears the price filter.
type PriceFilterInput struct {
	BucketID *int `json:"bucket_id" validate:"omitempty,min=0"`
}

func (h *HTTPHandler) SelectPriceBucket(w http.ResponseWriter, r *http.Request) {
	var input PriceFilterInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}

	var bucket *domain.PriceBucket
	if input.BucketID != nil {
		b, ok := domain.PriceBucketByID(*input.BucketID)
		if !ok {
			respondWithError(w, http.StatusBadRequest, "Unknown price bucket")
			return
		}
		bucket = &b
	}
	respondWithJSON(w, http.StatusOK, h.engine.SelectPriceBucket(r.Context(), bucket))
}

func (h *HTTPHandler) ClearFilters(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.engine.ClearFilters(r.Context()))
}

func (h *HTTPHandler) LoadMore(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.engine.LoadMore(r.Context()))
}

func (h *HTTPHandler) DismissNotice(w http.ResponseWriter, r *http.Request) {
	if !h.engine.DismissNotice(chi.URLParam(r, "noticeId")) {
		respondWithError(w, http.StatusNotFound, "Notice not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) ListPriceBuckets(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, domain.Prices)
}

func (h *HTTPHandler) GetCategoryPage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	respondWithJSON(w, http.StatusOK, h.engine.LoadCategoryPage(r.Context(), slug))
}

// --- Cart Handlers ---

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.checkout.View(shopperFromRequest(r)))
}

// CartItemInput adds a product the shopper can currently see.
type CartItemInput struct {
	ProductID string `json:"product_id" validate:"required"`
}

func (h *HTTPHandler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var input CartItemInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}

	product, ok := h.engine.Product(input.ProductID)
	if !ok {
		respondWithError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err := h.cart.Add(r.Context(), product); err != nil {
		h.logger.Printf("ERROR: Adding %q to cart failed: %v", product.ID, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to update cart")
		return
	}
	respondWithJSON(w, http.StatusCreated, h.checkout.View(shopperFromRequest(r)))
}

func (h *HTTPHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	removed, err := h.cart.Remove(r.Context(), productID)
	if err != nil {
		h.logger.Printf("ERROR: Removing %q from cart failed: %v", productID, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to update cart")
		return
	}
	if !removed {
		respondWithError(w, http.StatusNotFound, "Product is not in the cart")
		return
	}
	respondWithJSON(w, http.StatusOK, h.checkout.View(shopperFromRequest(r)))
}

func (h *HTTPHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cart.Clear(r.Context()); err != nil {
		h.logger.Printf("ERROR: Clearing cart failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to update cart")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Checkout Handlers ---

// CheckoutInput is the shopper record forwarded by the front end.
type CheckoutInput struct {
	Token   string `json:"token"`
	Name    string `json:"name" validate:"max=255"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone" validate:"max=32"`
	Address string `json:"address"`
}

// ReadinessResponse explains why checkout is unavailable.
type ReadinessResponse struct {
	Readiness checkout.Readiness `json:"readiness"`
	Hint      string             `json:"hint"`
}

func (h *HTTPHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var input CheckoutInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	shopper := domain.Shopper{
		Token:   input.Token,
		Name:    input.Name,
		Email:   input.Email,
		Phone:   input.Phone,
		Address: input.Address,
	}

	if view := h.checkout.View(shopper); view.Readiness != checkout.Ready {
		respondWithJSON(w, http.StatusConflict, ReadinessResponse{Readiness: view.Readiness, Hint: view.Hint})
		return
	}

	options, err := h.checkout.InitiateCheckout(r.Context(), shopper)
	if err != nil {
		if errors.Is(err, checkout.ErrNotReady) { // The cart changed underneath us
			view := h.checkout.View(shopper)
			respondWithJSON(w, http.StatusConflict, ReadinessResponse{Readiness: view.Readiness, Hint: view.Hint})
			return
		}
		h.logger.Printf("ERROR: Checkout failed: %v", err)
		respondWithError(w, http.StatusBadGateway, "Failed to initiate checkout")
		return
	}
	respondWithJSON(w, http.StatusOK, options)
}

// RegisterRoutes sets up the HTTP routes for the service.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/", h.GetCatalog)                         // GET /api/v1/catalog
		r.Post("/more", h.LoadMore)                      // POST /api/v1/catalog/more
		r.Post("/filters/categories", h.ToggleCategory)  // POST /api/v1/catalog/filters/categories
		r.Put("/filters/price", h.SelectPriceBucket)     // PUT /api/v1/catalog/filters/price
		r.Delete("/filters", h.ClearFilters)             // DELETE /api/v1/catalog/filters
		r.Delete("/notices/{noticeId}", h.DismissNotice) // DELETE /api/v1/catalog/notices/{noticeId}
	})

	r.Get("/api/v1/price-buckets", h.ListPriceBuckets)
	r.Get("/api/v1/categories/{slug}/products", h.GetCategoryPage)

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)                            // GET /api/v1/cart
		r.Delete("/", h.ClearCart)                       // DELETE /api/v1/cart
		r.Post("/items", h.AddCartItem)                  // POST /api/v1/cart/items
		r.Delete("/items/{productId}", h.RemoveCartItem) // DELETE /api/v1/cart/items/{productId}
	})

	r.Post("/api/v1/checkout", h.Checkout)
}
