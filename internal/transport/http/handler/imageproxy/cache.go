package imageproxy

import (
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/mandalnilabja/pixelrelay/internal/metrics"
)

// cachedImage is one fully buffered upstream image.
type cachedImage struct {
	contentType string
	body        []byte
}

// newCache creates a byte-bounded image cache. maxBytes <= 0 disables
// caching and returns nil.
func newCache(maxBytes int64) (*ristretto.Cache[string, *cachedImage], error) {
	if maxBytes <= 0 {
		return nil, nil
	}
	return ristretto.NewCache(&ristretto.Config[string, *cachedImage]{
		// Roughly 10x the number of 100KB images that fit.
		NumCounters: max(maxBytes/10_000, 1000),
		MaxCost:     maxBytes,
		BufferItems: 64,
		Metrics:     true,
	})
}

// lookup returns a cached image and records the hit or miss.
func (h *Handlers) lookup(key string) (*cachedImage, bool) {
	if h.cache == nil {
		return nil, false
	}
	img, found := h.cache.Get(key)
	if found {
		metrics.ProxyCacheLookups.WithLabelValues("hit").Inc()
		return img, true
	}
	metrics.ProxyCacheLookups.WithLabelValues("miss").Inc()
	return nil, false
}

// store caches img with its byte length as cost. Ristretto admits items
// asynchronously, so a following lookup may still miss.
func (h *Handlers) store(key string, img *cachedImage) {
	if h.cache == nil {
		return
	}
	ttl := h.cacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	h.cache.SetWithTTL(key, img, int64(len(img.body)), ttl)
}

// cacheable reports whether a response of declared length fits the cache.
func (h *Handlers) cacheable(contentLength int64) bool {
	return h.cache != nil && contentLength > 0 && contentLength <= h.cacheItemMax
}
