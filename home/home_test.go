package home

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/cache"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/categories"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/db"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/models"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/pages"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/products"
)

func newService(t *testing.T) (*Service, *products.Store, *pages.Service) {
	t.Helper()
	conn := db.NewMemory()
	catalog := products.NewStore(
		db.For[models.Product](conn, db.ProductsCollection),
		cache.NewLRU[[]models.Product](10), cache.NewLRU[models.Product](10),
		time.Minute, time.Minute,
	)
	content := pages.NewService(db.For[models.Page](conn, db.PagesCollection))
	cats := categories.NewService(db.For[models.Category](conn, db.CategoriesCollection))
	return NewService(catalog, cats, content), catalog, content
}

func TestSections(t *testing.T) {
	s, catalog, content := newService(t)
	ctx := context.Background()
	_, err := catalog.Create(ctx, models.Product{Name: "Featured Roast", IsActive: true, IsFeatured: true})
	require.NoError(t, err)
	_, err = catalog.Create(ctx, models.Product{Name: "Hidden Featured", IsFeatured: true})
	require.NoError(t, err)
	_, err = catalog.Create(ctx, models.Product{Name: "Top Seller", IsActive: true, IsBestseller: true})
	require.NoError(t, err)
	_, err = content.Upsert(ctx, pages.HomepageSlug, models.Page{Title: "Welcome", IsPublished: true})
	require.NoError(t, err)

	out, degraded := s.Sections(ctx)
	assert.Empty(t, degraded)

	featured := out["featured"].([]models.Product)
	require.Len(t, featured, 1)
	assert.Equal(t, "Featured Roast", featured[0].Name)
	assert.Len(t, out["bestsellers"].([]models.Product), 1)
	assert.Empty(t, out["on_sale"].([]models.Product))
	assert.Equal(t, "Welcome", out["page"].(models.Page).Title)
}

func TestHandlers(t *testing.T) {
	s, _, _ := newService(t)
	router := httprouter.New()
	router.GET("/api/home", s.GetHomeContent)
	router.GET("/api/home/:section", s.GetSection)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/home", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=60", rec.Header().Get("Cache-Control"))
	var body struct {
		Sections map[string]json.RawMessage `json:"sections"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Sections, 5)
	assert.Equal(t, "null", string(body.Sections["page"]))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/home/Featured", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/home/news", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
