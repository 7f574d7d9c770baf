package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// errorResponse is the envelope of every failed request.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// filters echoes the query filters of a list request. Unset filters are
// reported as "all" or "none".
type filters map[string]any

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg, detail string) {
	writeJSON(w, status, errorResponse{Error: msg, Message: detail})
}

// writeStoreError reports an unexpected store failure as a 500.
func writeStoreError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.Error("store query failed", "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, msg, err.Error())
}

// listOf keeps empty results encoded as [] rather than null.
func listOf[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
