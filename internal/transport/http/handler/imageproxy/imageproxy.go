// Package imageproxy serves /api/proxy-image and /api/download-image, which
// fetch a remote image server-side so the browser can display or save it
// without cross-origin restrictions.
package imageproxy

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Options configures the proxy handlers.
type Options struct {
	Timeout      time.Duration
	CacheControl string
	// CacheMaxBytes <= 0 disables the in-memory cache.
	CacheMaxBytes int64
	CacheItemMax  int64
	CacheTTL      time.Duration
	BlockPrivate  bool
	HTTPClient    *http.Client
	Logger        *slog.Logger
}

// Handlers holds the dependencies for image proxy HTTP handlers.
type Handlers struct {
	client       *http.Client
	timeout      time.Duration
	cacheControl string
	cache        *ristretto.Cache[string, *cachedImage] // nil when disabled
	cacheItemMax int64
	cacheTTL     time.Duration
	blockPrivate bool
	lookupIP     func(ctx context.Context, host string) ([]net.IP, error)
	logger       *slog.Logger
}

// New creates image proxy handlers.
func New(opts Options) (*Handlers, error) {
	cache, err := newCache(opts.CacheMaxBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create image cache: %w", err)
	}

	h := &Handlers{
		timeout:      opts.Timeout,
		cacheControl: opts.CacheControl,
		cache:        cache,
		cacheItemMax: opts.CacheItemMax,
		cacheTTL:     opts.CacheTTL,
		blockPrivate: opts.BlockPrivate,
		lookupIP: func(ctx context.Context, host string) ([]net.IP, error) {
			return net.DefaultResolver.LookupIP(ctx, "ip", host)
		},
		logger: opts.Logger,
	}
	h.client = &http.Client{}
	if opts.HTTPClient != nil {
		client := *opts.HTTPClient
		h.client = &client
	}
	if h.blockPrivate {
		h.client.CheckRedirect = h.checkRedirect
		if opts.HTTPClient == nil {
			h.client.Transport = guardedTransport()
		}
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h, nil
}

// Close releases the cache.
func (h *Handlers) Close() {
	if h.cache != nil {
		h.cache.Close()
	}
}

// CacheStats reports cache usage for the admin system endpoint.
func (h *Handlers) CacheStats() map[string]any {
	if h.cache == nil || h.cache.Metrics == nil {
		return map[string]any{"enabled": h.cache != nil}
	}
	m := h.cache.Metrics
	return map[string]any{
		"enabled":   true,
		"hits":      m.Hits(),
		"misses":    m.Misses(),
		"ratio":     m.Ratio(),
		"cost_used": m.CostAdded() - m.CostEvicted(),
	}
}

// writeCORS sets the permissive headers both endpoints answer with.
func writeCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}
