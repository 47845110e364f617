package users

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
	"github.com/spirithubcafe/spirithubcafe-web-sub001/globals"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/models"
)

func newService() *Service {
	return NewService(db.For[models.User](db.NewMemory(), db.UsersCollection))
}

func str(s string) *string { return &s }

func TestProfile_CreatedOnFirstAccess(t *testing.T) {
	s := newService()
	ctx := context.Background()

	u, err := s.Profile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, RoleCustomer, u.Role)

	again, err := s.Profile(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, u.CreatedAt.Equal(again.CreatedAt))
}

func TestUpdateProfile(t *testing.T) {
	s := newService()
	ctx := context.Background()

	_, err := s.UpdateProfile(ctx, "u1", ProfileUpdate{Email: str("nope")})
	require.Error(t, err)

	u, err := s.UpdateProfile(ctx, "u1", ProfileUpdate{FullName: str(" Aisha "), Email: str("aisha@example.om")})
	require.NoError(t, err)
	assert.Equal(t, "Aisha", u.FullName)

	u, err = s.UpdateProfile(ctx, "u1", ProfileUpdate{Phone: str("+968 9000 0000")})
	require.NoError(t, err)
	assert.Equal(t, "Aisha", u.FullName, "omitted fields keep their value")
	assert.Equal(t, "+968 9000 0000", u.Phone)
}

func TestSetRole(t *testing.T) {
	s := newService()
	ctx := context.Background()
	_, err := s.Profile(ctx, "u1")
	require.NoError(t, err)

	assert.ErrorIs(t, s.SetRole(ctx, "u1", "root"), ErrInvalidRole)
	assert.ErrorIs(t, s.SetRole(ctx, "ghost", RoleAdmin), db.ErrNotFound)
	require.NoError(t, s.SetRole(ctx, "u1", RoleAdmin))

	u, err := s.Profile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, u.Role)
	assert.Len(t, s.List(ctx, 10).Data, 1)
}

func TestHandlers(t *testing.T) {
	s := newService()
	router := httprouter.New()
	router.GET("/api/me", s.Me)
	router.PATCH("/api/me", s.UpdateMe)
	router.GET("/api/admin/users", s.ListHandler)

	do := func(method, target, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		req = req.WithContext(context.WithValue(req.Context(), globals.UserIDKey, "u7"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodGet, "/api/me", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"u7"`)

	rec = do(http.MethodPatch, "/api/me", `{"email":"bad"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email")

	rec = do(http.MethodPatch, "/api/me", `{"full_name":"Omar"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Omar")

	rec = do(http.MethodGet, "/api/admin/users", "")
	assert.Contains(t, rec.Body.String(), "Omar")
}
