package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Category represents a product category supplied by the remote catalog.
// The json tags follow the catalog API's document shape (`_id`).
type Category struct {
	ID   string `json:"_id" validate:"required"`
	Name string `json:"name" validate:"required"`
	Slug string `json:"slug,omitempty"`
}

// CategoryRef is a product's reference to its category. The catalog sends
// either the bare identifier or a populated category document.
type CategoryRef struct {
	ID   string
	Name string
}

func (c *CategoryRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = CategoryRef{}
		return nil
	}
	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*c = CategoryRef{ID: id}
		return nil
	}
	var doc struct {
		ID   string `json:"_id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*c = CategoryRef{ID: doc.ID, Name: doc.Name}
	return nil
}

func (c CategoryRef) MarshalJSON() ([]byte, error) {
	if c.Name == "" {
		return json.Marshal(c.ID) // Bare id, the shape the catalog sends for unpopulated refs
	}
	return json.Marshal(struct {
		ID   string `json:"_id"`
		Name string `json:"name"`
	}{ID: c.ID, Name: c.Name})
}

// Product represents one catalog item. Products are immutable once fetched;
// the catalog view and the cart hold them by value.
type Product struct {
	ID          string          `json:"_id" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	Slug        string          `json:"slug,omitempty"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    CategoryRef     `json:"category"`
	Quantity    int             `json:"quantity,omitempty"` // Stock as reported by the catalog, not a cart quantity
	Photo       json.RawMessage `json:"photo,omitempty"`    // Opaque image payload, kept only for rendering
}

// productAlias drops Product's JSON methods so the codecs below can reuse the field set.
type productAlias Product

// UnmarshalJSON defaults a missing, negative, or non-numeric price to zero
// instead of rejecting the whole record.
func (p *Product) UnmarshalJSON(data []byte) error {
	aux := struct {
		*productAlias
		Price json.RawMessage `json:"price"`
	}{productAlias: (*productAlias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.Price = ParsePrice(aux.Price)
	return nil
}

// MarshalJSON writes the price as a JSON number, matching the catalog's wire format.
func (p Product) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		productAlias
		Price json.Number `json:"price"`
	}{
		productAlias: productAlias(p),
		Price:        json.Number(p.Price.String()),
	})
}

// WithoutPhoto returns a copy of the product with the photo payload removed.
func (p Product) WithoutPhoto() Product {
	p.Photo = nil
	return p
}

// ParsePrice reads a raw JSON price value. Numbers and numeric strings are
// accepted; anything else, including negative amounts, reads as zero.
func ParsePrice(raw json.RawMessage) decimal.Decimal {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero
	}

	text := string(raw)
	if raw[0] == '"' {
		unquoted, err := strconv.Unquote(text)
		if err != nil {
			return decimal.Zero
		}
		text = strings.TrimSpace(unquoted)
	}

	price, err := decimal.NewFromString(text)
	if err != nil || price.IsNegative() {
		return decimal.Zero
	}
	return price
}
