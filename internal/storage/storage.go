// Package storage provides the generation log store and its backends.
package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mandalnilabja/pixelrelay/internal/storage/models"
)

// Stream names a log.
type Stream string

const (
	StreamGenerations Stream = "generations"
	StreamErrors      Stream = "generation_errors"
)

// DefaultCapacity is the number of entries kept per stream.
const DefaultCapacity = 1000

// Re-export types from models package for convenience
type (
	GenerationEntry = models.GenerationEntry
	ErrorEntry      = models.ErrorEntry
	Client          = models.Client
)

// Re-export the errors every backend returns
var (
	ErrStorageClosed = models.ErrStorageClosed
	ErrInvalidInput  = models.ErrInvalidInput
)

// Backend is a set of capped, newest-first byte lists.
type Backend interface {
	// Push adds value at the head of stream, then trims the stream to its
	// capacity most recent values.
	Push(ctx context.Context, stream string, value []byte, capacity int) error
	// Range returns up to n values, most recent first.
	Range(ctx context.Context, stream string, n int) ([][]byte, error)
	Len(ctx context.Context, stream string) (int, error)
	Ping(ctx context.Context) error
	Close() error
}

// Store encodes entries as JSON on top of a Backend.
type Store struct {
	backend  Backend
	capacity int
}

// NewStore wraps backend. A non-positive capacity selects DefaultCapacity.
func NewStore(backend Backend, capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{backend: backend, capacity: capacity}
}

// Capacity returns the per-stream entry limit.
func (s *Store) Capacity() int {
	return s.capacity
}

// Append marshals entry and pushes it onto stream.
func (s *Store) Append(ctx context.Context, stream Stream, entry any) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode %s entry: %w", stream, err)
	}
	if err := s.backend.Push(ctx, string(stream), data, s.capacity); err != nil {
		return fmt.Errorf("failed to append to %s: %w", stream, err)
	}
	return nil
}

// Recent returns up to n decoded records, newest first. Values that are
// not JSON objects are skipped.
func (s *Store) Recent(ctx context.Context, stream Stream, n int) ([]Record, error) {
	values, err := s.backend.Range(ctx, string(stream), n)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", stream, err)
	}

	records := make([]Record, 0, len(values))
	for _, v := range values {
		if rec, ok := DecodeRecord(v); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// Latest returns the newest decodable record, or nil for an empty stream.
func (s *Store) Latest(ctx context.Context, stream Stream) (Record, error) {
	records, err := s.Recent(ctx, stream, 1)
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return records[0], nil
}

// Count returns the number of stored values in stream.
func (s *Store) Count(ctx context.Context, stream Stream) (int, error) {
	n, err := s.backend.Len(ctx, string(stream))
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", stream, err)
	}
	return n, nil
}

// Ping checks the backend.
func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
