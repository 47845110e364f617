package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/utils"
)

const secret = "test-secret"

func token(t *testing.T, key string, userID string, roles ...string) string {
	t.Helper()
	claims := Claims{
		UserID: userID,
		Role:   roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return "Bearer " + s
}

func serve(h httprouter.Handle, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	h(rec, req, nil)
	return rec
}

func echoUser(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	_, _ = w.Write([]byte(utils.GetUserIDFromRequest(r)))
}

func TestAuthenticate(t *testing.T) {
	auth := NewAuth(secret)
	h := auth.Authenticate(echoUser)

	ok := serve(h, token(t, secret, "u1"))
	assert.Equal(t, http.StatusOK, ok.Code)
	assert.Equal(t, "u1", ok.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(h, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, "Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, token(t, "other-secret", "u1")).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, token(t, secret, "")).Code)
}

func TestAuthenticate_NoSecretRejectsEverything(t *testing.T) {
	h := NewAuth("").Authenticate(echoUser)
	assert.Equal(t, http.StatusUnauthorized, serve(h, token(t, secret, "u1")).Code)
}

func TestOptionalAuth(t *testing.T) {
	h := NewAuth(secret).OptionalAuth(echoUser)
	assert.Equal(t, "u1", serve(h, token(t, secret, "u1")).Body.String())

	anon := serve(h, "")
	assert.Equal(t, http.StatusOK, anon.Code)
	assert.Empty(t, anon.Body.String())
}

func TestRequireRoles(t *testing.T) {
	auth := NewAuth(secret)
	h := Chain(auth.Authenticate, RequireRoles("admin"))(echoUser)

	assert.Equal(t, http.StatusOK, serve(h, token(t, secret, "u1", "user", "admin")).Code)
	assert.Equal(t, http.StatusForbidden, serve(h, token(t, secret, "u2", "user")).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, "").Code)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next httprouter.Handle) httprouter.Handle {
			return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
				order = append(order, name)
				next(w, r, ps)
			}
		}
	}
	Chain(mw("a"), mw("b"), mw("c"))(func(http.ResponseWriter, *http.Request, httprouter.Params) {
		order = append(order, "handler")
	})(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, []string{"a", "b", "c", "handler"}, order)
}

func TestSecurityHeadersAndLogging(t *testing.T) {
	h := Logging(SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
