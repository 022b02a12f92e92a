package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SessionRecord is a saved workspace session. Blob is empty in list results.
type SessionRecord struct {
	ID          string
	Name        string
	Description string
	Instances   int
	Blob        []byte
	CreatedAt   time.Time
}

// PutSession inserts or replaces a session
func (s *Store) PutSession(ctx context.Context, rec SessionRecord) error {
	const q = `
		INSERT INTO sessions (id, name, description, instances, blob, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name        = excluded.name,
			description = excluded.description,
			instances   = excluded.instances,
			blob        = excluded.blob,
			created_at  = excluded.created_at
	`
	_, err := s.exec(ctx, q, rec.ID, rec.Name, rec.Description, rec.Instances, rec.Blob, toMillis(rec.CreatedAt))
	if err != nil {
		return fmt.Errorf("put session %s: %w", rec.ID, err)
	}
	return nil
}

// GetSession returns the full session including its blob, or ErrNotFound
func (s *Store) GetSession(ctx context.Context, id string) (SessionRecord, error) {
	const q = `SELECT id, name, description, instances, blob, created_at FROM sessions WHERE id = ?`

	var rec SessionRecord
	var created int64
	err := s.db.QueryRowContext(ctx, q, id).Scan(&rec.ID, &rec.Name, &rec.Description, &rec.Instances, &rec.Blob, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRecord{}, ErrNotFound
	}
	if err != nil {
		return SessionRecord{}, fmt.Errorf("get session %s: %w", id, err)
	}
	rec.CreatedAt = fromMillis(created)
	return rec, nil
}

// ListSessions returns session metadata, newest first
func (s *Store) ListSessions(ctx context.Context) ([]SessionRecord, error) {
	const q = `SELECT id, name, description, instances, created_at FROM sessions ORDER BY created_at DESC, id DESC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var created int64
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Description, &rec.Instances, &created); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		rec.CreatedAt = fromMillis(created)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteSession removes a session and reports whether it existed
func (s *Store) DeleteSession(ctx context.Context, id string) (bool, error) {
	res, err := s.exec(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete session %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete session %s: %w", id, err)
	}
	return n > 0, nil
}

// CountSessions returns the number of saved sessions
func (s *Store) CountSessions(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}
