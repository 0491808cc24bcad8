// Package blob stores relayed images in object storage.
package blob

import "context"

// Uploader stores data under key and returns the URL clients can fetch it at.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
}
