// Package relay copies a generated image into object storage after
// optional transcoding.
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mandalnilabja/pixelrelay/internal/blob"
	"github.com/mandalnilabja/pixelrelay/internal/imaging"
	"github.com/mandalnilabja/pixelrelay/internal/metrics"
)

// Stage names the relay step that failed.
type Stage string

const (
	StageFetch     Stage = "fetch"
	StageTranscode Stage = "transcode"
	StageUpload    Stage = "upload"
)

// RelayError reports which stage of a relay failed.
type RelayError struct {
	Stage Stage
	Err   error
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("relay %s failed: %v", e.Stage, e.Err)
}

func (e *RelayError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the relay ran out of time.
func (e *RelayError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// Relayer is the dependency the generation handler holds.
type Relayer interface {
	Relay(ctx context.Context, imageURL, outputFormat string) (string, error)
}

// Relay fetches, transcodes and uploads images.
type Relay struct {
	uploader   blob.Uploader
	httpClient *http.Client
	timeout    time.Duration
	maxBytes   int64
	now        func() time.Time
}

// Option configures a Relay.
type Option func(*Relay)

// WithHTTPClient replaces the client used to fetch source images.
func WithHTTPClient(hc *http.Client) Option {
	return func(r *Relay) { r.httpClient = hc }
}

// WithTimeout bounds the whole relay. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(r *Relay) { r.timeout = d }
}

// WithMaxBytes caps the fetched image size.
func WithMaxBytes(n int64) Option {
	return func(r *Relay) { r.maxBytes = n }
}

// WithClock overrides the clock used to name objects.
func WithClock(now func() time.Time) Option {
	return func(r *Relay) { r.now = now }
}

// New creates a Relay that uploads through uploader.
func New(uploader blob.Uploader, opts ...Option) *Relay {
	r := &Relay{
		uploader:   uploader,
		httpClient: &http.Client{},
		timeout:    60 * time.Second,
		maxBytes:   32 << 20,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Relay downloads imageURL, transcodes it for outputFormat and returns the
// public URL of the stored copy.
func (r *Relay) Relay(ctx context.Context, imageURL, outputFormat string) (string, error) {
	start := time.Now()
	publicURL, err := r.relay(ctx, imageURL, outputFormat)

	outcome := "success"
	var relayErr *RelayError
	if errors.As(err, &relayErr) {
		outcome = string(relayErr.Stage)
	}
	metrics.RelayDuration.WithLabelValues(strings.ToLower(outputFormat), outcome).Observe(time.Since(start).Seconds())

	return publicURL, err
}

func (r *Relay) relay(ctx context.Context, imageURL, outputFormat string) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	data, err := r.fetch(ctx, imageURL)
	if err != nil {
		return "", &RelayError{Stage: StageFetch, Err: err}
	}

	out, ext, err := imaging.Transcode(data, outputFormat)
	if err != nil {
		return "", &RelayError{Stage: StageTranscode, Err: err}
	}

	key := objectKey(r.now(), ext)
	publicURL, err := r.uploader.Upload(ctx, key, ext.ContentType(), out)
	if err != nil {
		return "", &RelayError{Stage: StageUpload, Err: err}
	}

	return publicURL, nil
}

func (r *Relay) fetch(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if r.maxBytes > 0 {
		body = io.LimitReader(resp.Body, r.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if r.maxBytes > 0 && int64(len(data)) > r.maxBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", r.maxBytes)
	}
	return data, nil
}

// objectKey names an upload. The random suffix keeps relays that share a
// millisecond from overwriting each other.
func objectKey(now time.Time, ext imaging.Extension) string {
	return fmt.Sprintf("generated-%d-%s%s", now.UnixMilli(), uuid.NewString()[:8], ext)
}
