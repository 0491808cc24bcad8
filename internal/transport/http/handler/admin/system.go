package admin

import (
	"net/http"
	"runtime"
	"time"

	"github.com/mandalnilabja/pixelrelay/internal/config"
	"github.com/mandalnilabja/pixelrelay/internal/transport/http/handler/shared"
	"github.com/mandalnilabja/pixelrelay/internal/version"
)

// AdminHealth handles GET /api/admin/health.
func (h *Handlers) AdminHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	storeStatus := "connected"

	if err := h.Store.Ping(r.Context()); err != nil {
		status = "degraded"
		storeStatus = "error: " + err.Error()
	}

	shared.WriteJSON(w, map[string]any{
		"status":    status,
		"log_store": storeStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// AdminInfo handles GET /api/admin/info.
func (h *Handlers) AdminInfo(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.StartTime)

	info := map[string]any{
		"version":       version.Version,
		"go_version":    runtime.Version(),
		"uptime":        uptime.String(),
		"uptime_secs":   int64(uptime.Seconds()),
		"data_dir":      config.DataDir(),
		"log_store":     h.Settings.LogBackend,
		"log_capacity":  h.Store.Capacity(),
		"relay_enabled": h.Settings.RelayEnabled,
		"upstream_url":  h.Settings.UpstreamURL,
	}
	if h.CacheStats != nil {
		info["image_cache"] = h.CacheStats()
	}

	shared.WriteJSON(w, info, http.StatusOK)
}
