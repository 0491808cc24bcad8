// Package admin serves the read-only /api/admin endpoints.
package admin

import (
	"context"
	"time"

	"github.com/mandalnilabja/pixelrelay/internal/storage"
	"github.com/mandalnilabja/pixelrelay/internal/types"
)

// DefaultLimit is the number of records returned when ?limit= is absent.
const DefaultLimit = 100

// LogReader is the subset of *storage.Store the admin handlers use.
type LogReader interface {
	Recent(ctx context.Context, stream storage.Stream, n int) ([]storage.Record, error)
	Latest(ctx context.Context, stream storage.Stream) (storage.Record, error)
	Count(ctx context.Context, stream storage.Stream) (int, error)
	Capacity() int
	Ping(ctx context.Context) error
}

// Settings are the values reported by the config and info endpoints.
type Settings struct {
	APIBaseURL   string
	Defaults     types.Defaults
	LogBackend   string
	RelayEnabled bool
	UpstreamURL  string
}

// Handlers holds the dependencies for admin HTTP handlers.
type Handlers struct {
	Store     LogReader
	Settings  Settings
	StartTime time.Time
	// CacheStats reports image cache usage; nil omits it.
	CacheStats func() map[string]any
}

// New creates a new instance of admin handlers.
func New(store LogReader, settings Settings, startTime time.Time) *Handlers {
	return &Handlers{
		Store:     store,
		Settings:  settings,
		StartTime: startTime,
	}
}
