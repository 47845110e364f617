package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/db"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/globals"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/models"
)

type productMap map[string]models.Product

func (m productMap) Lookup(_ context.Context, id string) (models.Product, error) {
	p, ok := m[id]
	if !ok {
		return models.Product{}, db.ErrNotFound
	}
	return p, nil
}

func f(v float64) *float64 { return &v }

func catalog() productMap {
	return productMap{
		"guji": {
			ID: "guji", Name: "Ethiopia Guji", IsActive: true,
			Price: 4.5, PriceUSD: 11.7, PriceSAR: 43.9,
		},
		"huila": {
			ID: "huila", Name: "Colombia Huila", IsActive: true,
			Properties: []models.ProductProperty{{
				Name: "Weight", AffectsPrice: true,
				Options: []models.ProductPropertyOption{
					{ID: "w250", Value: "250g", Label: "250 g", PriceOMR: f(3.25), PriceUSD: f(8.45)},
					{ID: "w1k", Value: "1kg", Label: "1 kg", PriceOMR: f(11.5), PriceUSD: f(29.9)},
				},
			}},
		},
		"retired": {ID: "retired", Name: "Old Blend", Price: 2},
	}
}

func newService() *Service {
	return NewService(db.For[models.CartItem](db.NewMemory(), db.CartItemsCollection), catalog())
}

func TestAdd_MergesSameSelection(t *testing.T) {
	s := newService()
	ctx := context.Background()

	first, err := s.Add(ctx, "u1", "huila", "w250", 1)
	require.NoError(t, err)
	second, err := s.Add(ctx, "u1", "huila", "250g", 2)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "option value and id resolve to the same line")
	assert.Equal(t, 3, second.Quantity)

	_, err = s.Add(ctx, "u1", "huila", "w1k", 1)
	require.NoError(t, err)

	items, err := s.Items(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestAdd_Rejections(t *testing.T) {
	s := newService()
	ctx := context.Background()

	_, err := s.Add(ctx, "u1", "guji", "", 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = s.Add(ctx, "u1", "guji", "", MaxQuantity+1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = s.Add(ctx, "u1", "missing", "", 1)
	assert.ErrorIs(t, err, ErrProductUnavailable)
	_, err = s.Add(ctx, "u1", "retired", "", 1)
	assert.ErrorIs(t, err, ErrProductUnavailable)
	_, err = s.Add(ctx, "u1", "huila", "5kg", 1)
	assert.ErrorIs(t, err, ErrUnknownOption)

	_, err = s.Add(ctx, "u1", "guji", "", 90)
	require.NoError(t, err)
	_, err = s.Add(ctx, "u1", "guji", "", 10)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestSetQuantityAndRemove_OwnerOnly(t *testing.T) {
	s := newService()
	ctx := context.Background()
	item, err := s.Add(ctx, "u1", "guji", "", 1)
	require.NoError(t, err)

	_, err = s.SetQuantity(ctx, "u2", item.ID, 5)
	assert.ErrorIs(t, err, db.ErrNotFound)
	_, err = s.SetQuantity(ctx, "u1", item.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	updated, err := s.SetQuantity(ctx, "u1", item.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Quantity)

	assert.ErrorIs(t, s.Remove(ctx, "u2", item.ID), db.ErrNotFound)
	require.NoError(t, s.Remove(ctx, "u1", item.ID))
	items, err := s.Items(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSummary_PricesServerSide(t *testing.T) {
	s := newService()
	ctx := context.Background()
	_, err := s.Add(ctx, "u1", "guji", "", 2)
	require.NoError(t, err)
	_, err = s.Add(ctx, "u1", "huila", "w1k", 1)
	require.NoError(t, err)
	_, err = s.Add(ctx, "u2", "guji", "", 1)
	require.NoError(t, err)

	sum, err := s.Summary(ctx, "u1", models.OMR)
	require.NoError(t, err)
	require.Len(t, sum.Lines, 2)
	assert.Equal(t, 20.5, sum.Subtotal)
	assert.Equal(t, 3, sum.Count)

	usd, err := s.Summary(ctx, "u1", models.USD)
	require.NoError(t, err)
	assert.Equal(t, 53.3, usd.Subtotal)

	for _, line := range sum.Lines {
		if line.ProductID == "huila" {
			assert.Equal(t, "1 kg", line.OptionLabel)
			assert.Equal(t, 11.5, line.UnitPrice)
		}
	}
}

func TestPriced_SkipsVanishedProducts(t *testing.T) {
	products := catalog()
	s := NewService(db.For[models.CartItem](db.NewMemory(), db.CartItemsCollection), products)
	ctx := context.Background()
	_, err := s.Add(ctx, "u1", "guji", "", 1)
	require.NoError(t, err)
	_, err = s.Add(ctx, "u1", "huila", "", 1)
	require.NoError(t, err)

	delete(products, "guji")
	priced, err := s.Priced(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, priced, 1)
	assert.Equal(t, "huila", priced[0].Product.ID)
	assert.Equal(t, 3.25, priced[0].Unit[models.OMR].Amount)
}

func TestClear(t *testing.T) {
	s := newService()
	ctx := context.Background()
	_, _ = s.Add(ctx, "u1", "guji", "", 1)
	_, _ = s.Add(ctx, "u1", "huila", "", 1)
	_, _ = s.Add(ctx, "u2", "guji", "", 1)

	require.NoError(t, s.Clear(ctx, "u1"))
	mine, _ := s.Items(ctx, "u1")
	theirs, _ := s.Items(ctx, "u2")
	assert.Empty(t, mine)
	assert.Len(t, theirs, 1)
}

func TestHandlers(t *testing.T) {
	s := newService()
	router := httprouter.New()
	router.GET("/api/cart", s.Get)
	router.POST("/api/cart", s.AddHandler)
	router.PATCH("/api/cart/:id", s.UpdateHandler)
	router.DELETE("/api/cart/:id", s.RemoveHandler)
	router.DELETE("/api/cart", s.ClearHandler)

	do := func(method, target, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		req = req.WithContext(context.WithValue(req.Context(), globals.UserIDKey, "u1"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodPost, "/api/cart", `{"product_id":"guji"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var added struct {
		Item models.CartItem `json:"item"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &added))
	assert.Equal(t, 1, added.Item.Quantity)

	rec = do(http.MethodPost, "/api/cart", `{"product_id":"retired"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(http.MethodPatch, "/api/cart/"+added.Item.ID, `{"quantity":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(http.MethodPatch, "/api/cart/"+added.Item.ID, `{"quantity":4}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(http.MethodGet, "/api/cart?currency=sar", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sum Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	assert.Equal(t, models.SAR, sum.Currency)
	assert.Equal(t, 175.6, sum.Subtotal)

	rec = do(http.MethodDelete, "/api/cart/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(http.MethodDelete, "/api/cart", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
