package domain

import "github.com/shopspring/decimal"

// PaymentKey is the short-lived authorization key issued by the payment gateway.
type PaymentKey struct {
	Key string `json:"key" validate:"required"`
}

// Order is the order record the payment gateway creates for a checkout.
// Amount is in the gateway's minor currency unit.
type Order struct {
	ID       string          `json:"id" validate:"required"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency,omitempty"`
}

// Shopper carries the identity fields the session knows about the current shopper.
// An empty Token means the shopper is not signed in.
type Shopper struct {
	Token   string `json:"token"`
	Name    string `json:"name"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (s Shopper) Authenticated() bool { return s.Token != "" }

func (s Shopper) HasAddress() bool { return s.Address != "" }
