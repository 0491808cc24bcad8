package models

import "errors"

// Errors shared by every log store backend.
var (
	ErrStorageClosed = errors.New("storage is closed")
	ErrInvalidInput  = errors.New("invalid input")
)
