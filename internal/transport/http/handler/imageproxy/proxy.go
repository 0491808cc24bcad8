package imageproxy

import (
	"context"
	"errors"
	"net/http"

	"github.com/mandalnilabja/pixelrelay/internal/transport/http/handler/shared"
	"github.com/mandalnilabja/pixelrelay/internal/transport/http/middleware"
)

// ProxyImage handles /api/proxy-image?url=. Errors are JSON.
func (h *Handlers) ProxyImage(w http.ResponseWriter, r *http.Request) {
	if !h.preflight(w, r, func() {
		writeCORS(w)
		shared.MethodNotAllowed(w, http.MethodGet, http.MethodOptions)
	}) {
		return
	}

	target := r.URL.Query().Get("url")
	if target == "" {
		writeCORS(w)
		shared.WriteJSONError(w, "Missing url parameter", http.StatusBadRequest)
		return
	}
	if _, err := h.checkURL(r.Context(), target); err != nil {
		writeCORS(w)
		shared.WriteJSONError(w, "URL not allowed", http.StatusBadRequest)
		return
	}

	res, err := h.serve(r.Context(), w, target, nil)
	if err != nil {
		status := h.failureStatus(r, target, err)
		writeCORS(w)
		if errors.Is(err, errBlockedURL) {
			shared.WriteJSONError(w, "URL not allowed", status)
			return
		}
		var statusErr *upstreamStatusError
		if errors.As(err, &statusErr) {
			shared.WriteJSONError(w, "Failed to fetch image", statusErr.status)
			return
		}
		shared.WriteJSON(w, map[string]any{
			"error":   "Failed to fetch image",
			"message": err.Error(),
		}, status)
		return
	}
	h.logServed(r, target, res)
}

// DownloadImage handles /api/download-image?url=, which adds an attachment
// disposition. Errors are plain text.
func (h *Handlers) DownloadImage(w http.ResponseWriter, r *http.Request) {
	if !h.preflight(w, r, func() {
		writeCORS(w)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}) {
		return
	}

	target := r.URL.Query().Get("url")
	if target == "" {
		writeCORS(w)
		http.Error(w, "Missing url", http.StatusBadRequest)
		return
	}
	if _, err := h.checkURL(r.Context(), target); err != nil {
		writeCORS(w)
		http.Error(w, "URL not allowed", http.StatusBadRequest)
		return
	}

	res, err := h.serve(r.Context(), w, target, func(header http.Header) {
		header.Set("Content-Disposition", `attachment; filename="downloaded-image"`)
	})
	if err != nil {
		status := h.failureStatus(r, target, err)
		var statusErr *upstreamStatusError
		if errors.As(err, &statusErr) {
			status = http.StatusInternalServerError
		}
		writeCORS(w)
		if errors.Is(err, errBlockedURL) {
			http.Error(w, "URL not allowed", status)
			return
		}
		http.Error(w, "Failed to fetch image", status)
		return
	}
	h.logServed(r, target, res)
}

// preflight answers OPTIONS and rejects other non-GET methods. It reports
// whether the handler should continue.
func (h *Handlers) preflight(w http.ResponseWriter, r *http.Request, reject func()) bool {
	switch r.Method {
	case http.MethodGet:
		return true
	case http.MethodOptions:
		writeCORS(w)
		w.WriteHeader(http.StatusNoContent)
		return false
	default:
		reject()
		return false
	}
}

// failureStatus logs a failed fetch and picks the status for it.
func (h *Handlers) failureStatus(r *http.Request, target string, err error) int {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBlockedURL):
		status = http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	var statusErr *upstreamStatusError
	if errors.As(err, &statusErr) {
		status = statusErr.status
	}

	h.logger.Warn("image fetch failed",
		"url", target,
		"status", status,
		"error", err,
		"request_id", middleware.GetRequestID(r.Context()),
	)
	return status
}

func (h *Handlers) logServed(r *http.Request, target string, res served) {
	h.logger.Debug("image proxied",
		"url", target,
		"bytes", res.bytes,
		"cache_hit", res.cacheHit,
		"request_id", middleware.GetRequestID(r.Context()),
	)
}
