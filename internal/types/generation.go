package types

import (
	"errors"
	"strings"
)

// ErrMissingPrompt is returned when video_description is absent or blank.
var ErrMissingPrompt = errors.New("missing required field: video_description")

// Default generation parameters.
const (
	DefaultNegativePrompt = "blurry, low quality, distorted faces, poor lighting, extra limbs, deformed, ugly, bad anatomy"
	DefaultStylePreset    = "neon-punk"
	DefaultAspectRatio    = "16:9"
	DefaultOutputFormat   = "png"
	DefaultSeed           = 0
)

// Defaults holds the values applied to optional generation fields.
type Defaults struct {
	NegativePrompt string `json:"negative_prompt"`
	StylePreset    string `json:"style_preset"`
	AspectRatio    string `json:"aspect_ratio"`
	OutputFormat   string `json:"output_format"`
	Seed           int64  `json:"seed"`
}

// BuiltinDefaults returns the stock generation defaults.
func BuiltinDefaults() Defaults {
	return Defaults{
		NegativePrompt: DefaultNegativePrompt,
		StylePreset:    DefaultStylePreset,
		AspectRatio:    DefaultAspectRatio,
		OutputFormat:   DefaultOutputFormat,
		Seed:           DefaultSeed,
	}
}

// GenerationRequest is the body accepted by POST /api/generate.
type GenerationRequest struct {
	// Required: text description of the image
	Prompt string `json:"video_description"`

	NegativePrompt string `json:"negative_prompt,omitempty"`
	StylePreset    string `json:"style_preset,omitempty"`
	AspectRatio    string `json:"aspect_ratio,omitempty"`
	OutputFormat   string `json:"output_format,omitempty"`
	Seed           *int64 `json:"seed,omitempty"`
}

// GenerationPayload is the request with defaults applied. It is forwarded to
// the upstream service field for field and echoed into log entries.
type GenerationPayload struct {
	Prompt         string `json:"video_description"`
	NegativePrompt string `json:"negative_prompt"`
	StylePreset    string `json:"style_preset"`
	AspectRatio    string `json:"aspect_ratio"`
	OutputFormat   string `json:"output_format"`
	Seed           int64  `json:"seed"`
}

// Validate reports ErrMissingPrompt for an empty or whitespace-only prompt.
func (r *GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return ErrMissingPrompt
	}
	return nil
}

// Payload applies defaults to every unset field. Empty strings and a zero
// seed count as unset.
func (r *GenerationRequest) Payload(d Defaults) GenerationPayload {
	p := GenerationPayload{
		Prompt:         r.Prompt,
		NegativePrompt: orDefault(r.NegativePrompt, d.NegativePrompt),
		StylePreset:    orDefault(r.StylePreset, d.StylePreset),
		AspectRatio:    orDefault(r.AspectRatio, d.AspectRatio),
		OutputFormat:   orDefault(r.OutputFormat, d.OutputFormat),
		Seed:           d.Seed,
	}
	if r.Seed != nil && *r.Seed != 0 {
		p.Seed = *r.Seed
	}
	return p
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
