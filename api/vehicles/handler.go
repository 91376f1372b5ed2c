// Package vehicles exposes the vehicle registry over HTTP.
package vehicles

import (
	"encoding/json"
	"net/http"

	"github.com/respondhq/respond/core/model"
	"github.com/respondhq/respond/core/registry"
)

// NewHandler returns an HTTP handler serving proximity-ordered vehicles via
// GET /api/vehicles. An optional status query parameter filters the result.
func NewHandler(reg *registry.Registry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		list := reg.Nearby()
		if status := r.URL.Query().Get("status"); status != "" {
			filtered := make([]model.Vehicle, 0, len(list))
			for _, v := range list {
				if string(v.Status) == status {
					filtered = append(filtered, v)
				}
			}
			list = filtered
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(list); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
