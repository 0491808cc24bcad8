package admin

import (
	"net/http"
	"strconv"

	"github.com/mandalnilabja/pixelrelay/internal/storage"
	"github.com/mandalnilabja/pixelrelay/internal/transport/http/handler/shared"
)

// Config handles GET /api/admin/config.
func (h *Handlers) Config(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		shared.MethodNotAllowed(w, http.MethodGet)
		return
	}

	shared.WriteJSON(w, map[string]any{
		"API_BASE_URL":   h.Settings.APIBaseURL,
		"DEFAULT_PARAMS": h.Settings.Defaults,
	}, http.StatusOK)
}

// Stats handles GET /api/admin/stats.
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		shared.MethodNotAllowed(w, http.MethodGet)
		return
	}
	ctx := r.Context()

	totalGenerations, err := h.Store.Count(ctx, storage.StreamGenerations)
	if err != nil {
		writeReadError(w, storage.StreamGenerations)
		return
	}
	totalErrors, err := h.Store.Count(ctx, storage.StreamErrors)
	if err != nil {
		writeReadError(w, storage.StreamErrors)
		return
	}
	lastGeneration, err := h.Store.Latest(ctx, storage.StreamGenerations)
	if err != nil {
		writeReadError(w, storage.StreamGenerations)
		return
	}
	lastError, err := h.Store.Latest(ctx, storage.StreamErrors)
	if err != nil {
		writeReadError(w, storage.StreamErrors)
		return
	}

	shared.WriteJSON(w, map[string]any{
		"totalGenerations": totalGenerations,
		"totalErrors":      totalErrors,
		"lastGeneration":   lastGeneration,
		"lastError":        lastError,
	}, http.StatusOK)
}

// Errors handles GET /api/admin/errors.
func (h *Handlers) Errors(w http.ResponseWriter, r *http.Request) {
	h.listStream(w, r, storage.StreamErrors)
}

// Generations handles GET /api/admin/generations.
func (h *Handlers) Generations(w http.ResponseWriter, r *http.Request) {
	h.listStream(w, r, storage.StreamGenerations)
}

// listStream writes the newest ?limit= records of stream as a JSON array.
func (h *Handlers) listStream(w http.ResponseWriter, r *http.Request, stream storage.Stream) {
	if r.Method != http.MethodGet {
		shared.MethodNotAllowed(w, http.MethodGet)
		return
	}

	limit, err := h.parseLimit(r)
	if err != nil {
		shared.WriteJSONError(w, "limit must be a positive integer", http.StatusBadRequest)
		return
	}

	records, err := h.Store.Recent(r.Context(), stream, limit)
	if err != nil {
		writeReadError(w, stream)
		return
	}
	if records == nil {
		records = []storage.Record{}
	}

	shared.WriteJSON(w, records, http.StatusOK)
}

// parseLimit reads ?limit=, defaulting to DefaultLimit and capping at the
// store capacity.
func (h *Handlers) parseLimit(r *http.Request) (int, error) {
	limit := DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return 0, strconv.ErrSyntax
		}
		limit = n
	}
	if c := h.Store.Capacity(); c > 0 && limit > c {
		limit = c
	}
	return limit, nil
}

// writeReadError writes 500 {"error": "Failed to read <name> log"}.
func writeReadError(w http.ResponseWriter, stream storage.Stream) {
	name := "generations"
	if stream == storage.StreamErrors {
		name = "errors"
	}
	shared.WriteJSONError(w, "Failed to read "+name+" log", http.StatusInternalServerError)
}
