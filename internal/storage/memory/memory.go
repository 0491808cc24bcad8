// Package memory provides an in-process log store backend.
package memory

import (
	"context"
	"sync"

	"github.com/mandalnilabja/pixelrelay/internal/storage/models"
)

// ErrStorageClosed is returned after Close.
var ErrStorageClosed = models.ErrStorageClosed

// Storage keeps each stream as a bounded slice, newest first.
type Storage struct {
	mu      sync.RWMutex
	streams map[string][][]byte
	closed  bool
}

// New creates an empty memory backend.
func New() *Storage {
	return &Storage{streams: make(map[string][][]byte)}
}

// Push prepends a copy of value and drops entries beyond capacity.
func (s *Storage) Push(_ context.Context, stream string, value []byte, capacity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	queue := append([][]byte{append([]byte(nil), value...)}, s.streams[stream]...)
	if capacity > 0 && len(queue) > capacity {
		queue = queue[:capacity]
	}
	s.streams[stream] = queue
	return nil
}

// Range returns up to n values, most recent first.
func (s *Storage) Range(_ context.Context, stream string, n int) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	queue := s.streams[stream]
	if n < len(queue) {
		queue = queue[:max(n, 0)]
	}
	out := make([][]byte, len(queue))
	copy(out, queue)
	return out, nil
}

// Len returns the number of values held for stream.
func (s *Storage) Len(_ context.Context, stream string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrStorageClosed
	}
	return len(s.streams[stream]), nil
}

func (s *Storage) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrStorageClosed
	}
	return nil
}

func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.streams = nil
	return nil
}
