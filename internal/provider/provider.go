// Package provider implements the client for the external image generation API.
package provider

import (
	"context"
	"fmt"

	"github.com/mandalnilabja/pixelrelay/internal/types"
)

// Generator defines the upstream generation call the orchestrator depends on.
type Generator interface {
	// Generate forwards payload and returns the upstream JSON body.
	// Failures are returned as *UpstreamError.
	Generate(ctx context.Context, payload types.GenerationPayload) (types.UpstreamResult, error)
}

// ErrorKind classifies an upstream failure.
type ErrorKind string

const (
	// KindUpstream is a non-2xx response from the generation API.
	KindUpstream ErrorKind = "upstream"
	// KindTransport is a network level failure (DNS, refused, reset).
	KindTransport ErrorKind = "transport"
	// KindTimeout is an expired call deadline.
	KindTimeout ErrorKind = "timeout"
	// KindMalformed is a 2xx response whose body is not a JSON object.
	KindMalformed ErrorKind = "malformed"
)

// UpstreamError carries the status to mirror to the client and a message.
type UpstreamError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s error (status %d): %s", e.Kind, e.Status, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
