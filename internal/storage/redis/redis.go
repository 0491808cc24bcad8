// Package redis provides a Redis list backed log store backend.
package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mandalnilabja/pixelrelay/internal/storage/models"
)

// ErrStorageClosed is returned after Close.
var ErrStorageClosed = models.ErrStorageClosed

// Storage maps each stream to one Redis list, newest at the head.
type Storage struct {
	client goredis.UniversalClient
	prefix string
}

// Options configures the Redis connection.
type Options struct {
	URL       string
	Password  string
	KeyPrefix string
}

// New connects using a redis:// URL. Password overrides the URL's.
func New(ctx context.Context, opts Options) (*Storage, error) {
	parsed, err := goredis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if opts.Password != "" {
		parsed.Password = opts.Password
	}

	client := goredis.NewClient(parsed)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewWithClient(client, opts.KeyPrefix), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client goredis.UniversalClient, prefix string) *Storage {
	return &Storage{client: client, prefix: prefix}
}

// Push runs LPUSH and LTRIM in one MULTI/EXEC block.
func (s *Storage) Push(ctx context.Context, stream string, value []byte, capacity int) error {
	key := s.key(stream)
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, value)
	if capacity > 0 {
		pipe.LTrim(ctx, key, 0, int64(capacity-1))
	}
	_, err := pipe.Exec(ctx)
	return mapErr(err)
}

// Range returns up to n values, most recent first.
func (s *Storage) Range(ctx context.Context, stream string, n int) ([][]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	values, err := s.client.LRange(ctx, s.key(stream), 0, int64(n-1)).Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return nil, mapErr(err)
	}
	result := make([][]byte, 0, len(values))
	for _, v := range values {
		result = append(result, []byte(v))
	}
	return result, nil
}

// Len returns the list length for stream.
func (s *Storage) Len(ctx context.Context, stream string) (int, error) {
	n, err := s.client.LLen(ctx, s.key(stream)).Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return 0, mapErr(err)
	}
	return int(n), nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return mapErr(s.client.Ping(ctx).Err())
}

func (s *Storage) Close() error {
	return s.client.Close()
}

// mapErr reports a closed client as ErrStorageClosed.
func mapErr(err error) error {
	if errors.Is(err, goredis.ErrClosed) {
		return fmt.Errorf("%w: %v", ErrStorageClosed, err)
	}
	return err
}

func (s *Storage) key(stream string) string {
	return s.prefix + stream
}
