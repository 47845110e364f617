package utils

import (
	"encoding/json"
	"net/http"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/db"
)

func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, map[string]string{"error": msg})
}

// Sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// RespondWithData writes a read result. Degraded reads still answer 200 but
// carry the reason so the client can tell fallback data from real data.
func RespondWithData(w http.ResponseWriter, key string, data any, degraded bool, reason string) {
	body := M{key: data}
	if degraded {
		w.Header().Set("X-Degraded", reason)
		body["degraded"] = true
		body["reason"] = reason
	}
	RespondWithJSON(w, http.StatusOK, body)
}

type M map[string]interface{}

// RespondWithResult writes a guarded store read: 200 with data for OK or
// degraded results, 404 for a missing document, 500 for a failure.
func RespondWithResult[T any](w http.ResponseWriter, key string, res db.Result[T], failMsg string) {
	switch {
	case res.Reason == db.ReasonNotFound:
		RespondWithError(w, http.StatusNotFound, "Not found")
	case res.Outcome == db.Failed:
		RespondWithError(w, http.StatusInternalServerError, failMsg)
	default:
		RespondWithData(w, key, res.Data, res.Degraded(), res.Reason)
	}
}
