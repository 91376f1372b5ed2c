// Package requests exposes the emergency request store over HTTP.
package requests

import (
	"encoding/json"
	"net/http"

	"github.com/respondhq/respond/core/dispatch"
)

// NewHandler returns an HTTP handler for GET /api/requests. Without
// parameters it lists every request; ?id= fetches one.
func NewHandler(store *dispatch.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if id := r.URL.Query().Get("id"); id != "" {
			req, ok := store.Get(id)
			if !ok {
				http.Error(w, "request not found", http.StatusNotFound)
				return
			}
			if err := json.NewEncoder(w).Encode(req); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		if err := json.NewEncoder(w).Encode(store.List()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

// NewSelectHandler returns an HTTP handler for POST /api/requests/select
// which changes the request highlighted for detail views. An empty or
// unknown id clears the selection.
func NewSelectHandler(store *dispatch.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var body struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		store.Select(body.ID)
		w.Header().Set("Content-Type", "application/json")
		if sel, ok := store.Selected(); ok {
			_ = json.NewEncoder(w).Encode(sel)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
