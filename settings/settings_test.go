package settings

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/db"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/models"
)

func newService() *Service {
	return NewService(db.For[models.SiteSettings](db.NewMemory(), db.SettingsCollection))
}

func TestCurrent_DefaultsWhenMissing(t *testing.T) {
	res := newService().Current(context.Background())
	require.True(t, res.OK())
	assert.Equal(t, Defaults(), res.Data)
}

func TestSave_ValidatesAndPersists(t *testing.T) {
	s := newService()
	ctx := context.Background()

	in := Defaults()
	in.TaxRate = 1.5
	_, err := s.Save(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidSetting)

	in = Defaults()
	in.DefaultCurrency = "EUR"
	_, err = s.Save(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidSetting)

	in = Defaults()
	in.TaxRate = 0.05
	_, err = s.Save(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 0.05, s.Current(ctx).Data.TaxRate)
}

func TestUpdateHandler_MergesOverCurrent(t *testing.T) {
	s := newService()
	router := httprouter.New()
	router.GET("/api/settings", s.Get)
	router.PUT("/api/admin/settings", s.Update)

	req := httptest.NewRequest(http.MethodPut, "/api/admin/settings", strings.NewReader(`{"store_name":"Spirit Hub Muscat"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	got := s.Current(context.Background()).Data
	assert.Equal(t, "Spirit Hub Muscat", got.StoreName)
	assert.Equal(t, Defaults().ShippingFee, got.ShippingFee)

	req = httptest.NewRequest(http.MethodPut, "/api/admin/settings", strings.NewReader(`{"tax_rate":-1}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Spirit Hub Muscat")
}
