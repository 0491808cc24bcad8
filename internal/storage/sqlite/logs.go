package sqlite

import (
	"context"
	"fmt"
)

// Push inserts value at the head of stream and deletes rows beyond the
// capacity most recent in the same transaction.
func (s *Storage) Push(ctx context.Context, stream string, value []byte, capacity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}
	if stream == "" || capacity <= 0 {
		return ErrInvalidInput
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO log_entries (stream, body) VALUES (?, ?)
	`, stream, string(value)); err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM log_entries
		WHERE stream = ? AND seq NOT IN (
			SELECT seq FROM log_entries WHERE stream = ? ORDER BY seq DESC LIMIT ?
		)
	`, stream, stream, capacity); err != nil {
		return fmt.Errorf("failed to trim stream: %w", err)
	}

	return tx.Commit()
}

// Range returns up to n values of stream, most recent first.
func (s *Storage) Range(ctx context.Context, stream string, n int) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}
	if n <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT body FROM log_entries WHERE stream = ? ORDER BY seq DESC LIMIT ?
	`, stream, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values [][]byte
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		values = append(values, []byte(body))
	}

	return values, rows.Err()
}

// Len returns the number of values held for stream.
func (s *Storage) Len(ctx context.Context, stream string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrStorageClosed
	}

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM log_entries WHERE stream = ?
	`, stream).Scan(&count)
	return count, err
}
