package infra

import (
	"fmt"
	"net/http"

	"github.com/mandalnilabja/pixelrelay/internal/transport/http/handler/shared"
	"github.com/mandalnilabja/pixelrelay/internal/version"
)

// RootStatus returns JSON status and version information at /.
func (h *Handlers) RootStatus(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, map[string]any{
		"name":    "pixelrelay",
		"version": version.Version,
		"status":  "running",
		"api":     "/api/generate",
		"admin":   "/api/admin",
	}, http.StatusOK)
}

// HealthCheck handles GET /api/health.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, map[string]string{
		"status":  "OK",
		"message": fmt.Sprintf("Server is running on port %s", h.Port),
	}, http.StatusOK)
}

// NotFound answers unknown routes with a JSON 404.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, map[string]string{
		"error":   "Not found",
		"message": fmt.Sprintf("Route %s not found", r.URL.Path),
	}, http.StatusNotFound)
}
