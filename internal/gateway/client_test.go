package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/domain"
)

func newTestClient(t *testing.T, router http.Handler) *Client {
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/", 2*time.Second, log.New(io.Discard, "", 0))
}

func writeJSON(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(body))
}

func TestClient_ListCategories(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/v1/category/get-category", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		writeJSON(w, http.StatusOK, `{"success":true,"category":[{"_id":"c1","name":"Books"},{"_id":"","name":"broken"}]}`)
	})
	c := newTestClient(t, r)

	categories, err := c.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Category{{ID: "c1", Name: "Books"}}, categories)
}

func TestClient_ListCategories_Unsuccessful(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/v1/category/get-category", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":false}`)
	})
	c := newTestClient(t, r)

	_, err := c.ListCategories(context.Background())
	assert.True(t, errors.Is(err, ErrUnsuccessful))
}

func TestClient_CountProducts(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/v1/product/product-count", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true,"total":25}`)
	})
	c := newTestClient(t, r)

	total, err := c.CountProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 25, total)
}

func TestClient_CountProducts_Missing(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/v1/product/product-count", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true}`)
	})
	c := newTestClient(t, r)

	_, err := c.CountProducts(context.Background())
	assert.True(t, errors.Is(err, ErrInvalidResponse))
}

func TestClient_ListProductsPage(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/v1/product/product-list/{page}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", chi.URLParam(r, "page"))
		writeJSON(w, http.StatusOK, `{"products":[{"_id":"p1","name":"Lamp","price":"bad"},{"name":"no id"}]}`)
	})
	c := newTestClient(t, r)

	products, err := c.ListProductsPage(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, products, 1, "record without an id is dropped")
	assert.Equal(t, "p1", products[0].ID)
	assert.True(t, products[0].Price.IsZero())
}

func TestClient_FilterProducts_SendsEmptyRadio(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/v1/product/product-filters", func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"checked":["c1"],"radio":[],"page":1}`, string(raw))
		writeJSON(w, http.StatusOK, `{"success":true,"products":[{"_id":"p1","name":"Lamp","price":12}],"totalFiltered":3}`)
	})
	c := newTestClient(t, r)

	result, err := c.FilterProducts(context.Background(), FilterRequest{Checked: []string{"c1"}, Page: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalFiltered)
	require.Len(t, result.Products, 1)
	assert.True(t, result.Products[0].Price.Equal(decimal.NewFromInt(12)))
}

func TestClient_StatusError(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/v1/product/product-filters", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"success":false,"message":"Error while filtering products"}`)
	})
	c := newTestClient(t, r)

	_, err := c.FilterProducts(context.Background(), FilterRequest{Page: 1})
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, "Error while filtering products", statusErr.Message)
}

func TestClient_ProductsByCategory(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/v1/product/product-category/{slug}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "home-decor", chi.URLParam(r, "slug"))
		writeJSON(w, http.StatusOK, `{"success":true,"category":{"_id":"c2","name":"Home Decor","slug":"home-decor"},"products":[{"_id":"p9","name":"Vase","price":30}]}`)
	})
	c := newTestClient(t, r)

	page, err := c.ProductsByCategory(context.Background(), "home-decor")
	require.NoError(t, err)
	assert.Equal(t, "Home Decor", page.Category.Name)
	require.Len(t, page.Products, 1)
}

func TestClient_GetKeyAndCheckout(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/getkey", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"key":"rzp_test_123"}`)
	})
	r.Post("/api/checkout", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "30.5", string(body["amount"]))
		assert.NotContains(t, string(body["cart"]), "photo")
		writeJSON(w, http.StatusOK, `{"success":true,"order":{"id":"order_1","amount":3050,"currency":"INR"}}`)
	})
	c := newTestClient(t, r)

	key, err := c.GetKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rzp_test_123", key.Key)

	order, err := c.Checkout(context.Background(), CheckoutRequest{
		Amount: decimal.RequireFromString("30.5"),
		Cart:   []domain.Product{{ID: "p1", Name: "Lamp", Price: decimal.RequireFromString("30.5")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "order_1", order.ID)
	assert.True(t, order.Amount.Equal(decimal.NewFromInt(3050)))
}

func TestClient_Checkout_MissingOrder(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/checkout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true}`)
	})
	c := newTestClient(t, r)

	_, err := c.Checkout(context.Background(), CheckoutRequest{Amount: decimal.Zero})
	assert.True(t, errors.Is(err, ErrInvalidResponse))
}
