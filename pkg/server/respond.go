package server

import (
	"encoding/json"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// notFoundOrTenantMiss renders a 404: spec.md §6 requires cross-tenant
// access be indistinguishable from a missing resource.
func notFoundOrTenantMiss(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "not found")
}
