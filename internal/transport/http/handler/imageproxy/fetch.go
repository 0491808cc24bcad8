package imageproxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// upstreamStatusError is a non-2xx response from the image host.
type upstreamStatusError struct {
	status int
}

func (e *upstreamStatusError) Error() string {
	return fmt.Sprintf("image host returned status %d", e.status)
}

// served describes what was written, for logging.
type served struct {
	cacheHit bool
	bytes    int64
}

// serve fetches target (or takes it from the cache) and writes the image
// with headers applied. Nothing is written to w when an error is returned.
func (h *Handlers) serve(ctx context.Context, w http.ResponseWriter, target string, extraHeaders func(http.Header)) (served, error) {
	if img, ok := h.lookup(target); ok {
		h.writeHeaders(w, img.contentType, int64(len(img.body)), "HIT", extraHeaders)
		n, _ := w.Write(img.body)
		return served{cacheHit: true, bytes: int64(n)}, nil
	}

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return served{}, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return served{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return served{}, &upstreamStatusError{status: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}

	xCache := ""
	if h.cache != nil {
		xCache = "MISS"
	}

	if h.cacheable(resp.ContentLength) {
		body, err := io.ReadAll(io.LimitReader(resp.Body, h.cacheItemMax+1))
		if err != nil {
			return served{}, err
		}
		if int64(len(body)) != resp.ContentLength {
			return served{}, fmt.Errorf("image host sent %d bytes, declared %d", len(body), resp.ContentLength)
		}
		h.store(target, &cachedImage{contentType: contentType, body: body})
		h.writeHeaders(w, contentType, resp.ContentLength, xCache, extraHeaders)
		n, _ := w.Write(body)
		return served{bytes: int64(n)}, nil
	}

	h.writeHeaders(w, contentType, resp.ContentLength, xCache, extraHeaders)
	n, err := io.Copy(w, resp.Body)
	if err != nil && !errors.Is(err, context.Canceled) {
		// Headers are gone; the client sees a truncated body.
		h.logger.Warn("image stream interrupted", "url", target, "bytes", n, "error", err)
	}
	return served{bytes: n}, nil
}

func (h *Handlers) writeHeaders(w http.ResponseWriter, contentType string, length int64, xCache string, extra func(http.Header)) {
	header := w.Header()
	writeCORS(w)
	header.Set("Content-Type", contentType)
	if length > 0 {
		header.Set("Content-Length", fmt.Sprint(length))
	}
	if h.cacheControl != "" {
		header.Set("Cache-Control", h.cacheControl)
	}
	if xCache != "" {
		header.Set("X-Cache", xCache)
	}
	if extra != nil {
		extra(header)
	}
	w.WriteHeader(http.StatusOK)
}
