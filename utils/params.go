package utils

import (
	"net/http"
	"strconv"
)

// ParseLimit reads ?limit= and clamps it to (0, max], falling back to def.
func ParseLimit(r *http.Request, def, max int) int {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// ParseBool reads an optional boolean query parameter.
func ParseBool(r *http.Request, name string) *bool {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}
