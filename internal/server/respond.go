package server

import (
	"encoding/json"
	"net/http"
)

// User-facing error strings. Device command failures are localized for the
// staff UI; protocol-level errors stay in English.
const (
	msgUpstreamDown = "Αποτυχία σύνδεσης"
	msgUnauthorized = "Unauthorized"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func respondOK(w http.ResponseWriter) {
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
