package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	cases := map[string]string{
		`10`:       "10",
		`10.5`:     "10.5",
		`"42"`:     "42",
		`" 7.25 "`: "7.25",
		`"bad"`:    "0",
		`null`:     "0",
		``:         "0",
		`-3`:       "0",
		`true`:     "0",
		`{"a":1}`:  "0",
	}
	for raw, want := range cases {
		got := ParsePrice(json.RawMessage(raw))
		assert.True(t, decimal.RequireFromString(want).Equal(got), "price %q: want %s, got %s", raw, want, got)
	}
}

func TestProduct_UnmarshalDefaultsBadPrice(t *testing.T) {
	var products []Product
	err := json.Unmarshal([]byte(`[
		{"_id":"p1","name":"Lamp","price":10,"category":"c1"},
		{"_id":"p2","name":"Rug","price":"bad","category":{"_id":"c2","name":"Home"}}
	]`), &products)
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.True(t, products[0].Price.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, CategoryRef{ID: "c1"}, products[0].Category)

	assert.True(t, products[1].Price.IsZero())
	assert.Equal(t, CategoryRef{ID: "c2", Name: "Home"}, products[1].Category)
}

func TestProduct_MarshalKeepsWireShape(t *testing.T) {
	p := Product{
		ID:       "p1",
		Name:     "Lamp",
		Price:    decimal.RequireFromString("19.99"),
		Category: CategoryRef{ID: "c1"},
		Photo:    json.RawMessage(`{"data":"AAAA"}`),
	}
	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var generic map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Equal(t, 19.99, generic["price"]) // A JSON number, not a quoted string
	assert.Equal(t, "c1", generic["category"])
	assert.Contains(t, generic, "photo")

	var back Product
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, p.ID, back.ID)
	assert.True(t, p.Price.Equal(back.Price))
	assert.JSONEq(t, string(p.Photo), string(back.Photo))
}

func TestProduct_WithoutPhoto(t *testing.T) {
	p := Product{ID: "p1", Name: "Lamp", Photo: json.RawMessage(`"img"`)}
	stripped := p.WithoutPhoto()

	assert.Nil(t, stripped.Photo)
	assert.NotNil(t, p.Photo, "the source product keeps its photo for rendering")

	raw, err := json.Marshal(stripped)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "photo")
}

func TestPriceBucketByID(t *testing.T) {
	b, ok := PriceBucketByID(5)
	require.True(t, ok)
	assert.Equal(t, []int{100, 9999}, b.Range())

	_, ok = PriceBucketByID(42)
	assert.False(t, ok)
}
