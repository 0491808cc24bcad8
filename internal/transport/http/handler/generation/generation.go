// Package generation serves /api/generate and /api/user-history.
package generation

import (
	"context"
	"log/slog"
	"time"

	"github.com/mandalnilabja/pixelrelay/internal/metrics"
	"github.com/mandalnilabja/pixelrelay/internal/provider"
	"github.com/mandalnilabja/pixelrelay/internal/relay"
	"github.com/mandalnilabja/pixelrelay/internal/storage"
	"github.com/mandalnilabja/pixelrelay/internal/types"
)

// HistoryLimit is the number of generations returned by /api/user-history.
const HistoryLimit = 20

// LogStore is the subset of *storage.Store the handlers use.
type LogStore interface {
	Append(ctx context.Context, stream storage.Stream, entry any) error
	Recent(ctx context.Context, stream storage.Stream, n int) ([]storage.Record, error)
}

// Handlers holds the dependencies for generation HTTP handlers.
type Handlers struct {
	Generator provider.Generator
	// Relay is nil when no blob storage is configured.
	Relay    relay.Relayer
	Store    LogStore
	Defaults types.Defaults
	Logger   *slog.Logger
	Now      func() time.Time
}

// New creates generation handlers. A nil relayer disables relaying.
func New(gen provider.Generator, rel relay.Relayer, store LogStore, defaults types.Defaults, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		Generator: gen,
		Relay:     rel,
		Store:     store,
		Defaults:  defaults,
		Logger:    logger,
		Now:       time.Now,
	}
}

// appendLog writes one entry. Failures are logged and counted but never
// change the response already decided for the client.
func (h *Handlers) appendLog(ctx context.Context, stream storage.Stream, entry any, requestID string) {
	// The entry must land even when the client has gone away.
	ctx = context.WithoutCancel(ctx)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := h.Store.Append(ctx, stream, entry); err != nil {
		metrics.LogWriteFailures.WithLabelValues(string(stream)).Inc()
		h.Logger.Error("failed to append log entry",
			"stream", stream,
			"error", err,
			"request_id", requestID,
		)
	}
}
