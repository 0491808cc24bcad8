package types

// UpstreamResult is the upstream JSON body, kept verbatim so fields the
// service adds later still reach the client.
type UpstreamResult map[string]any

// Succeeded is false only when the upstream explicitly reports success=false.
func (r UpstreamResult) Succeeded() bool {
	if v, ok := r["success"].(bool); ok {
		return v
	}
	return true
}

// ImageURL returns direct_url, falling back to image_url.
func (r UpstreamResult) ImageURL() string {
	for _, key := range []string{"direct_url", "image_url"} {
		if s, ok := r[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// SetImageURL overwrites both URL fields.
func (r UpstreamResult) SetImageURL(u string) {
	r["direct_url"] = u
	r["image_url"] = u
}

// Message returns the first human readable message the upstream supplied.
func (r UpstreamResult) Message() string {
	for _, key := range []string{"detail", "error", "message"} {
		if s, ok := r[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
