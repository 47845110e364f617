package newsletters

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
	return NewService(db.For[models.Newsletter](db.NewMemory(), db.NewslettersCollection))
}

func TestSubscribe_IdempotentPerEmail(t *testing.T) {
	s := newService()
	ctx := context.Background()

	_, created, err := s.Subscribe(ctx, "Fan@Example.com ")
	require.NoError(t, err)
	assert.True(t, created)

	sub, created, err := s.Subscribe(ctx, "fan@example.com")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "fan@example.com", sub.Email)

	assert.Len(t, s.Active(ctx, 10).Data, 1)

	_, _, err = s.Subscribe(ctx, "not an email")
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestUnsubscribeAndReactivate(t *testing.T) {
	s := newService()
	ctx := context.Background()
	_, _, err := s.Subscribe(ctx, "a@b.om")
	require.NoError(t, err)

	require.NoError(t, s.Unsubscribe(ctx, "A@B.om"))
	require.NoError(t, s.Unsubscribe(ctx, "never@b.om"))
	assert.Empty(t, s.Active(ctx, 10).Data)

	sub, created, err := s.Subscribe(ctx, "a@b.om")
	require.NoError(t, err)
	assert.False(t, created)
	assert.True(t, sub.IsActive)
	assert.Len(t, s.Active(ctx, 10).Data, 1)
}

func TestSubscribeHandler(t *testing.T) {
	s := newService()
	router := httprouter.New()
	router.POST("/api/newsletter", s.SubscribeHandler)

	post := func(body string) int {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/newsletter", strings.NewReader(body)))
		return rec.Code
	}
	assert.Equal(t, http.StatusCreated, post(`{"email":"x@y.om"}`))
	assert.Equal(t, http.StatusOK, post(`{"email":"x@y.om"}`))
	assert.Equal(t, http.StatusBadRequest, post(`{"email":"x"}`))
	assert.Equal(t, http.StatusBadRequest, post(`{`))
}
