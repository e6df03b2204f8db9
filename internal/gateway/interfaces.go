package gateway

import (
	"context"

	"github.com/shopspring/decimal"

	"storefront-service/internal/domain"
)

// FilterRequest is the body of the filtered product listing call.
// Radio is either an inclusive `[min, max]` pair or empty.
type FilterRequest struct {
	Checked []string `json:"checked"`
	Radio   []int    `json:"radio"`
	Page    int      `json:"page"`
}

// FilterResult is one page of filtered products plus the filtered total.
type FilterResult struct {
	Products      []domain.Product
	TotalFiltered int
}

// CategoryProducts is the category landing page payload.
type CategoryProducts struct {
	Category domain.Category
	Products []domain.Product
}

// CheckoutRequest asks the payment gateway for an order. Cart entries must
// already have their photo payload stripped.
type CheckoutRequest struct {
	Amount decimal.Decimal
	Cart   []domain.Product
}

// CatalogGateway defines the remote catalog endpoints the storefront consumes.
type CatalogGateway interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CountProducts(ctx context.Context) (int, error)
	ListProductsPage(ctx context.Context, page int) ([]domain.Product, error)
	FilterProducts(ctx context.Context, req FilterRequest) (*FilterResult, error)
	ProductsByCategory(ctx context.Context, slug string) (*CategoryProducts, error)
}

// PaymentGateway defines the payment endpoints used at checkout.
type PaymentGateway interface {
	GetKey(ctx context.Context) (*domain.PaymentKey, error)
	Checkout(ctx context.Context, req CheckoutRequest) (*domain.Order, error)
}
