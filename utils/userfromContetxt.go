package utils

import (
	"net/http"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/globals"
)

func GetUserIDFromRequest(r *http.Request) string {
	ctx := r.Context()
	requestingUserID, ok := ctx.Value(globals.UserIDKey).(string)
	if !ok || requestingUserID == "" {
		return ""
	}
	return requestingUserID
}

func HasRole(r *http.Request, role string) bool {
	roles, _ := r.Context().Value(globals.RoleKey).([]string)
	for _, got := range roles {
		if got == role {
			return true
		}
	}
	return false
}
