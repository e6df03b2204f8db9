// Package checkout derives the cart total and hands it to the payment gateway.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"storefront-service/internal/domain"
	"storefront-service/internal/gateway"
)

// ErrNotReady is returned by InitiateCheckout when a precondition is missing.
var ErrNotReady = errors.New("checkout: shopper is not ready to check out")

// Readiness reports which checkout precondition, if any, is missing.
type Readiness int

const (
	Ready Readiness = iota
	NeedsLogin
	NeedsAddress
	EmptyCart
)

func (r Readiness) String() string {
	switch r {
	case Ready:
		return "ready"
	case NeedsLogin:
		return "needs_login"
	case NeedsAddress:
		return "needs_address"
	case EmptyCart:
		return "empty_cart"
	}
	return fmt.Sprintf("readiness(%d)", int(r))
}

// MarshalText renders the readiness by name in JSON payloads.
func (r Readiness) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Hint is the shopper-facing instruction for resolving the precondition.
func (r Readiness) Hint() string {
	switch r {
	case NeedsLogin:
		return "Please login to checkout"
	case NeedsAddress:
		return "Update your address before checking out"
	case EmptyCart:
		return "Add something to your cart first"
	}
	return ""
}

// ReadinessOf evaluates the preconditions in the order the shopper has to resolve them.
func ReadinessOf(shopper domain.Shopper, itemCount int) Readiness {
	switch {
	case !shopper.Authenticated():
		return NeedsLogin
	case !shopper.HasAddress():
		return NeedsAddress
	case itemCount == 0:
		return EmptyCart
	}
	return Ready
}

// Total sums the price of every entry. Prices that could not be parsed were
// already zeroed when the product was decoded, so they add nothing.
func Total(items []domain.Product) decimal.Decimal {
	total := decimal.Zero
	for _, p := range items {
		total = total.Add(p.Price)
	}
	return total
}

// CartReader is the read side of the cart the summary works from.
type CartReader interface {
	Items() []domain.Product
}

// Options configures the hosted payment UI.
type Options struct {
	Currency     string
	MerchantName string
	Description  string
	ThemeColor   string
	CallbackURL  string
}

// View is the cart page summary.
type View struct {
	Items     []domain.Product `json:"items"`
	Count     int              `json:"count"`
	Total     decimal.Decimal  `json:"total"`
	Message   string           `json:"message"`
	Readiness Readiness        `json:"readiness"`
	Hint      string           `json:"hint,omitempty"`
}

// Summary builds cart summaries and starts payments.
type Summary struct {
	cart     CartReader
	payments gateway.PaymentGateway
	opts     Options
	logger   *log.Logger
}

func NewSummary(cart CartReader, payments gateway.PaymentGateway, opts Options, logger *log.Logger) *Summary {
	return &Summary{cart: cart, payments: payments, opts: opts, logger: logger}
}

// Total is the running total of the current cart.
func (s *Summary) Total() decimal.Decimal {
	return Total(s.cart.Items())
}

// View summarizes the cart for shopper.
func (s *Summary) View(shopper domain.Shopper) View {
	items := s.cart.Items()
	readiness := ReadinessOf(shopper, len(items))
	return View{
		Items:     items,
		Count:     len(items),
		Total:     Total(items),
		Message:   cartMessage(len(items), shopper.Authenticated()),
		Readiness: readiness,
		Hint:      readiness.Hint(),
	}
}

func cartMessage(count int, authenticated bool) string {
	if count == 0 {
		return "Your cart is empty"
	}
	msg := fmt.Sprintf("You have %d items in your cart", count)
	if !authenticated {
		msg += ", please login to checkout"
	}
	return msg
}

// InitiateCheckout requests a payment key and an order for the current cart
// and returns the options the hosted payment UI is opened with. It returns
// ErrNotReady without contacting the gateway when a precondition is missing.
func (s *Summary) InitiateCheckout(ctx context.Context, shopper domain.Shopper) (*PaymentOptions, error) {
	items := s.cart.Items()
	if r := ReadinessOf(shopper, len(items)); r != Ready {
		return nil, fmt.Errorf("%w: %s", ErrNotReady, r)
	}

	key, err := s.payments.GetKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("checkout: fetching payment key: %w", err)
	}

	cart := make([]domain.Product, len(items))
	for i, p := range items {
		cart[i] = p.WithoutPhoto()
	}
	total := Total(items)
	order, err := s.payments.Checkout(ctx, gateway.CheckoutRequest{Amount: total, Cart: cart})
	if err != nil {
		return nil, fmt.Errorf("checkout: creating order: %w", err)
	}
	s.logger.Printf("INFO: Created order %s for %d items totalling %s", order.ID, len(items), total)

	return s.paymentOptions(key, order, shopper), nil
}
