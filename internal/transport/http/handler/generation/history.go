package generation

import (
	"net/http"

	"github.com/mandalnilabja/pixelrelay/internal/clientinfo"
	"github.com/mandalnilabja/pixelrelay/internal/storage"
	"github.com/mandalnilabja/pixelrelay/internal/transport/http/handler/shared"
	"github.com/mandalnilabja/pixelrelay/internal/transport/http/middleware"
)

// backfilled are client fields older entries may lack.
var backfilled = []string{"userIP", "userAgent", "deviceType"}

// History handles GET /api/user-history. It always answers 200; a failed
// read yields an empty history.
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		shared.MethodNotAllowed(w, http.MethodGet)
		return
	}

	records, err := h.Store.Recent(r.Context(), storage.StreamGenerations, HistoryLimit)
	if err != nil {
		h.Logger.Error("failed to read history",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		records = nil
	}

	history := make([]storage.Record, 0, len(records))
	for _, rec := range records {
		for _, key := range backfilled {
			if rec.String(key) == "" {
				rec[key] = clientinfo.Unknown
			}
		}
		history = append(history, rec)
	}

	shared.WriteJSON(w, map[string]any{"history": history}, http.StatusOK)
}
