package utils

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/db"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/globals"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "ethiopia-guji-natural", Slugify("  Ethiopia Guji (Natural) "))
	assert.Equal(t, "v60-filter", Slugify("V60 -- Filter!"))
	assert.Equal(t, "", Slugify("***"))
}

func TestParseLimit(t *testing.T) {
	req := func(q string) *http.Request { return httptest.NewRequest(http.MethodGet, "/?"+q, nil) }
	assert.Equal(t, 20, ParseLimit(req(""), 20, 100))
	assert.Equal(t, 20, ParseLimit(req("limit=abc"), 20, 100))
	assert.Equal(t, 20, ParseLimit(req("limit=0"), 20, 100))
	assert.Equal(t, 5, ParseLimit(req("limit=5"), 20, 100))
	assert.Equal(t, 100, ParseLimit(req("limit=1000"), 20, 100))
}

func TestParseBool(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?featured=true&active=0&odd=maybe", nil)
	require.NotNil(t, ParseBool(r, "featured"))
	assert.True(t, *ParseBool(r, "featured"))
	require.NotNil(t, ParseBool(r, "active"))
	assert.False(t, *ParseBool(r, "active"))
	assert.Nil(t, ParseBool(r, "odd"))
	assert.Nil(t, ParseBool(r, "missing"))
}

func TestValidatorMessages(t *testing.T) {
	type input struct {
		Email  string  `json:"customer_email" validate:"required,basic_email"`
		Amount float64 `json:"amount" validate:"gt=0"`
		Code   string  `json:"currency" validate:"omitempty,oneof=OMR USD SAR"`
	}
	v := NewValidator()

	fe, ok := FirstFieldError(v.Struct(input{Email: "nope", Amount: 1}))
	require.True(t, ok)
	assert.Equal(t, "customer_email", fe.Field)
	assert.Equal(t, "customer_email must be a valid email address", fe.Message)

	fe, ok = FirstFieldError(v.Struct(input{Email: "a@b.co", Amount: 0}))
	require.True(t, ok)
	assert.Equal(t, "amount must be greater than 0", fe.Message)

	fe, ok = FirstFieldError(v.Struct(input{Email: "a@b.co", Amount: 1, Code: "EUR"}))
	require.True(t, ok)
	assert.Equal(t, "currency must be one of: OMR, USD, SAR", fe.Message)

	assert.NoError(t, v.Struct(input{Email: "a@b.co", Amount: 1}))
	_, ok = FirstFieldError(assert.AnError)
	assert.False(t, ok)
}

func TestIsBasicEmail(t *testing.T) {
	assert.True(t, IsBasicEmail("barista@spirithub.cafe"))
	assert.False(t, IsBasicEmail("barista@localhost"))
	assert.False(t, IsBasicEmail("two words@x.io"))
}

func TestRespondWithResult(t *testing.T) {
	ok := httptest.NewRecorder()
	RespondWithResult(ok, "items", db.Result[[]string]{Data: []string{"a"}, Outcome: db.OK}, "failed")
	assert.Equal(t, http.StatusOK, ok.Code)
	assert.Empty(t, ok.Header().Get("X-Degraded"))

	degraded := httptest.NewRecorder()
	RespondWithResult(degraded, "items", db.Result[[]string]{Outcome: db.Degraded, Reason: db.ReasonQuota}, "failed")
	assert.Equal(t, http.StatusOK, degraded.Code)
	assert.Equal(t, db.ReasonQuota, degraded.Header().Get("X-Degraded"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(degraded.Body.Bytes(), &body))
	assert.Equal(t, true, body["degraded"])
	assert.Equal(t, db.ReasonQuota, body["reason"])

	missing := httptest.NewRecorder()
	RespondWithResult(missing, "item", db.Result[string]{Outcome: db.Degraded, Reason: db.ReasonNotFound}, "failed")
	assert.Equal(t, http.StatusNotFound, missing.Code)

	failed := httptest.NewRecorder()
	RespondWithResult(failed, "item", db.Result[string]{Outcome: db.Failed, Reason: db.ReasonUnknown}, "Failed to load")
	assert.Equal(t, http.StatusInternalServerError, failed.Code)
	assert.Contains(t, failed.Body.String(), "Failed to load")
}

func TestRequestIdentity(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, GetUserIDFromRequest(r))
	assert.False(t, HasRole(r, "admin"))

	ctx := context.WithValue(r.Context(), globals.UserIDKey, "u1")
	ctx = context.WithValue(ctx, globals.RoleKey, []string{"customer", "admin"})
	r = r.WithContext(ctx)
	assert.Equal(t, "u1", GetUserIDFromRequest(r))
	assert.True(t, HasRole(r, "admin"))
	assert.False(t, HasRole(r, "barista"))
}

func TestStableID(t *testing.T) {
	a := StableID("u1", "p1", "")
	assert.Equal(t, a, StableID("u1", "p1", ""))
	assert.NotEqual(t, a, StableID("u1", "p1", "o1"))
	assert.Len(t, a, 36)
}
