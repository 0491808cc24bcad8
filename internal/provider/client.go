package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mandalnilabja/pixelrelay/internal/metrics"
	"github.com/mandalnilabja/pixelrelay/internal/types"
)

// maxResponseBytes bounds how much of an upstream body is read.
const maxResponseBytes = 4 << 20

// Client posts generation payloads to a single upstream URL.
// It is safe for concurrent use.
type Client struct {
	url        string
	timeout    time.Duration
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds each Generate call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// NewClient creates a client for the generation API at url.
func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url:        url,
		timeout:    120 * time.Second,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the upstream endpoint.
func (c *Client) URL() string {
	return c.url
}

// Generate sends one POST with payload as the JSON body.
func (c *Client) Generate(ctx context.Context, payload types.GenerationPayload) (types.UpstreamResult, error) {
	start := time.Now()
	result, err := c.generate(ctx, payload)

	outcome := "success"
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		outcome = string(upErr.Kind)
	}
	metrics.UpstreamDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	return result, err
}

func (c *Client) generate(ctx context.Context, payload types.GenerationPayload) (types.UpstreamResult, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &UpstreamError{Kind: KindTransport, Status: http.StatusInternalServerError, Message: err.Error(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, &UpstreamError{Kind: KindTransport, Status: http.StatusInternalServerError, Message: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, transportError(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{
			Kind:    KindUpstream,
			Status:  resp.StatusCode,
			Message: errorDetail(raw, resp.StatusCode),
		}
	}

	var result types.UpstreamResult
	if err := json.Unmarshal(raw, &result); err != nil || result == nil {
		return nil, &UpstreamError{
			Kind:    KindMalformed,
			Status:  http.StatusBadGateway,
			Message: "External API returned an invalid response",
			Err:     err,
		}
	}

	return result, nil
}

// transportError maps a failed round trip to a transport or timeout error.
func transportError(ctx context.Context, err error) *UpstreamError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &UpstreamError{
			Kind:    KindTimeout,
			Status:  http.StatusGatewayTimeout,
			Message: "External API did not respond in time",
			Err:     err,
		}
	}
	return &UpstreamError{
		Kind:    KindTransport,
		Status:  http.StatusInternalServerError,
		Message: err.Error(),
		Err:     err,
	}
}

// errorDetail extracts body.detail, falling back to a generic message.
func errorDetail(raw []byte, status int) string {
	var body struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		switch d := body.Detail.(type) {
		case string:
			if d != "" {
				return d
			}
		case nil:
		default:
			// FastAPI validation errors carry a list of objects.
			if b, err := json.Marshal(d); err == nil {
				return string(b)
			}
		}
	}
	return fmt.Sprintf("External API error: %d", status)
}
