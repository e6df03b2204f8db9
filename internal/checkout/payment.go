package checkout

import (
	"github.com/shopspring/decimal"

	"storefront-service/internal/domain"
)

// PaymentOptions is everything the hosted payment UI needs to open.
type PaymentOptions struct {
	Key         string          `json:"key"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	OrderID     string          `json:"order_id"`
	CallbackURL string          `json:"callback_url"`
	Prefill     Prefill         `json:"prefill"`
	Notes       Notes           `json:"notes"`
	Theme       Theme           `json:"theme"`
}

type Prefill struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Contact string `json:"contact,omitempty"`
}

type Notes struct {
	Address string `json:"address,omitempty"`
}

type Theme struct {
	Color string `json:"color,omitempty"`
}

func (s *Summary) paymentOptions(key *domain.PaymentKey, order *domain.Order, shopper domain.Shopper) *PaymentOptions {
	currency := order.Currency
	if currency == "" {
		currency = s.opts.Currency
	}
	return &PaymentOptions{
		Key:         key.Key,
		Amount:      order.Amount,
		Currency:    currency,
		Name:        s.opts.MerchantName,
		Description: s.opts.Description,
		OrderID:     order.ID,
		CallbackURL: s.opts.CallbackURL,
		Prefill: Prefill{
			Name:    shopper.Name,
			Email:   shopper.Email,
			Contact: shopper.Phone,
		},
		Notes: Notes{Address: shopper.Address},
		Theme: Theme{Color: s.opts.ThemeColor},
	}
}
