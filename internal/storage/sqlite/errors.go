package sqlite

import "github.com/mandalnilabja/pixelrelay/internal/storage/models"

// Common errors returned by storage operations
var (
	ErrStorageClosed = models.ErrStorageClosed
	ErrInvalidInput  = models.ErrInvalidInput
)
