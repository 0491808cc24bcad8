// Package models defines the records persisted by the log store.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Error kinds recorded in ErrorEntry.Kind.
const (
	KindUpstream    = "upstream"
	KindTransport   = "transport"
	KindTimeout     = "timeout"
	KindMalformed   = "malformed"
	KindEmptyResult = "empty_result"
	KindRelay       = "relay"
)

// Client identifies who issued a generation.
type Client struct {
	UserIP     string `json:"userIP"`
	UserAgent  string `json:"userAgent"`
	DeviceType string `json:"deviceType"`
}

// GenerationEntry is appended to the generations stream for every
// successful attempt.
type GenerationEntry struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Prompt         string    `json:"prompt"`
	NegativePrompt string    `json:"negative_prompt"`
	StylePreset    string    `json:"style_preset"`
	AspectRatio    string    `json:"aspect_ratio"`
	OutputFormat   string    `json:"output_format"`
	Seed           int64     `json:"seed"`
	ImageURL       *string   `json:"image_url"`
	Success        bool      `json:"success"`
	Client
	RequestID string `json:"request_id,omitempty"`
}

// ErrorEntry is appended to the generation_errors stream for every failed
// attempt that passed validation.
type ErrorEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Payload   any       `json:"payload"`
	Client
	RequestID string `json:"request_id,omitempty"`
}

// NewID returns a random entry identifier.
func NewID() string {
	return uuid.New().String()
}
