package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"storefront-service/internal/domain"
)

// Predefined errors for gateway calls
var (
	ErrUnsuccessful    = errors.New("gateway: remote reported failure")
	ErrInvalidResponse = errors.New("gateway: invalid response payload")
)

// StatusError is returned when the remote answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway: remote returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("gateway: remote returned HTTP %d: %s", e.StatusCode, e.Message)
}

// Client implements CatalogGateway and PaymentGateway over the storefront's REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	validate   *validator.Validate
	logger     *log.Logger
}

// NewClient creates a Client rooted at baseURL (e.g. "https://shop.example.com").
func NewClient(baseURL string, timeout time.Duration, logger *log.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		validate:   validator.New(),
		logger:     logger,
	}
}

// --- Helpers ---

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("gateway: encoding %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("gateway: building %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway: %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var errBody struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(res.Body, 64<<10)).Decode(&errBody) // Best effort, the status is what matters
		msg := errBody.Message
		if msg == "" {
			msg = errBody.Error
		}
		return &StatusError{StatusCode: res.StatusCode, Message: msg}
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrInvalidResponse, method, path, err)
	}
	return nil
}

// validProducts drops records that fail boundary validation instead of
// failing the whole page.
func (c *Client) validProducts(products []domain.Product) []domain.Product {
	valid := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if err := c.validate.Struct(p); err != nil {
			c.logger.Printf("WARN: Dropping invalid product record %q: %v", p.ID, err)
			continue
		}
		valid = append(valid, p)
	}
	return valid
}

// --- CatalogGateway Implementation ---

func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var resp struct {
		Success  bool              `json:"success"`
		Category []domain.Category `json:"category"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/category/get-category", nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, ErrUnsuccessful
	}

	categories := make([]domain.Category, 0, len(resp.Category))
	for _, cat := range resp.Category {
		if err := c.validate.Struct(cat); err != nil {
			c.logger.Printf("WARN: Dropping invalid category record %q: %v", cat.ID, err)
			continue
		}
		categories = append(categories, cat)
	}
	return categories, nil
}

func (c *Client) CountProducts(ctx context.Context) (int, error) {
	var resp struct {
		Total *int `json:"total"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/product/product-count", nil, &resp); err != nil {
		return 0, err
	}
	if resp.Total == nil || *resp.Total < 0 {
		return 0, fmt.Errorf("%w: product count missing or negative", ErrInvalidResponse)
	}
	return *resp.Total, nil
}

func (c *Client) ListProductsPage(ctx context.Context, page int) ([]domain.Product, error) {
	if page < 1 {
		page = 1
	}
	var resp struct {
		Products []domain.Product `json:"products"`
	}
	path := "/api/v1/product/product-list/" + strconv.Itoa(page)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return c.validProducts(resp.Products), nil
}

func (c *Client) FilterProducts(ctx context.Context, req FilterRequest) (*FilterResult, error) {
	if req.Checked == nil {
		req.Checked = []string{}
	}
	if req.Radio == nil {
		req.Radio = []int{} // The endpoint expects [] rather than null
	}
	var resp struct {
		Products      []domain.Product `json:"products"`
		TotalFiltered int              `json:"totalFiltered"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/product/product-filters", req, &resp); err != nil {
		return nil, err
	}
	if resp.TotalFiltered < 0 {
		resp.TotalFiltered = 0
	}
	return &FilterResult{
		Products:      c.validProducts(resp.Products),
		TotalFiltered: resp.TotalFiltered,
	}, nil
}

func (c *Client) ProductsByCategory(ctx context.Context, slug string) (*CategoryProducts, error) {
	var resp struct {
		Products []domain.Product `json:"products"`
		Category domain.Category  `json:"category"`
	}
	path := "/api/v1/product/product-category/" + url.PathEscape(slug)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if err := c.validate.Struct(resp.Category); err != nil {
		return nil, fmt.Errorf("%w: category %q: %v", ErrInvalidResponse, slug, err)
	}
	return &CategoryProducts{
		Category: resp.Category,
		Products: c.validProducts(resp.Products),
	}, nil
}

// --- PaymentGateway Implementation ---

func (c *Client) GetKey(ctx context.Context) (*domain.PaymentKey, error) {
	var key domain.PaymentKey
	if err := c.do(ctx, http.MethodGet, "/api/getkey", nil, &key); err != nil {
		return nil, err
	}
	if err := c.validate.Struct(key); err != nil {
		return nil, fmt.Errorf("%w: payment key: %v", ErrInvalidResponse, err)
	}
	return &key, nil
}

func (c *Client) Checkout(ctx context.Context, req CheckoutRequest) (*domain.Order, error) {
	body := struct {
		Amount json.Number      `json:"amount"`
		Cart   []domain.Product `json:"cart"`
	}{
		Amount: json.Number(req.Amount.String()),
		Cart:   req.Cart,
	}
	if body.Cart == nil {
		body.Cart = []domain.Product{}
	}

	var resp struct {
		Order *domain.Order `json:"order"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/checkout", body, &resp); err != nil {
		return nil, err
	}
	if resp.Order == nil {
		return nil, fmt.Errorf("%w: checkout response has no order", ErrInvalidResponse)
	}
	if err := c.validate.Struct(resp.Order); err != nil {
		return nil, fmt.Errorf("%w: order: %v", ErrInvalidResponse, err)
	}
	if resp.Order.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: order amount is negative", ErrInvalidResponse)
	}
	return resp.Order, nil
}
