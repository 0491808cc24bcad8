// Package infra serves process level endpoints: health, root status and
// the JSON not-found fallback.
package infra

import "time"

// Handlers holds the dependencies for infrastructure HTTP handlers.
type Handlers struct {
	Port      string
	StartTime time.Time
}

// New creates a new instance of infrastructure handlers.
func New(port string, startTime time.Time) *Handlers {
	return &Handlers{
		Port:      port,
		StartTime: startTime,
	}
}
