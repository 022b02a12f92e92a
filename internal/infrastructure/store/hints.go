package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// HintRecord is the persisted hint for one application
type HintRecord struct {
	AppID       string
	InitialPath string
	State       []byte
	UpdatedAt   time.Time
}

// PutPath records the last initial path used to launch appID
func (s *Store) PutPath(ctx context.Context, appID, path string) error {
	const q = `
		INSERT INTO app_hints (app_id, initial_path, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(app_id) DO UPDATE SET
			initial_path = excluded.initial_path,
			updated_at   = excluded.updated_at
	`
	if _, err := s.exec(ctx, q, appID, path, toMillis(s.now())); err != nil {
		return fmt.Errorf("put path hint %s: %w", appID, err)
	}
	return nil
}

// PutState records the encoded window state hint for appID
func (s *Store) PutState(ctx context.Context, appID string, state []byte) error {
	const q = `
		INSERT INTO app_hints (app_id, state, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(app_id) DO UPDATE SET
			state      = excluded.state,
			updated_at = excluded.updated_at
	`
	if _, err := s.exec(ctx, q, appID, state, toMillis(s.now())); err != nil {
		return fmt.Errorf("put state hint %s: %w", appID, err)
	}
	return nil
}

// GetHint returns the hint for appID or ErrNotFound
func (s *Store) GetHint(ctx context.Context, appID string) (HintRecord, error) {
	const q = `SELECT app_id, initial_path, state, updated_at FROM app_hints WHERE app_id = ?`
	rec, err := scanHint(s.db.QueryRowContext(ctx, q, appID))
	if errors.Is(err, sql.ErrNoRows) {
		return HintRecord{}, ErrNotFound
	}
	if err != nil {
		return HintRecord{}, fmt.Errorf("get hint %s: %w", appID, err)
	}
	return rec, nil
}

// ListHints returns every hint ordered by app id
func (s *Store) ListHints(ctx context.Context) ([]HintRecord, error) {
	const q = `SELECT app_id, initial_path, state, updated_at FROM app_hints ORDER BY app_id`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list hints: %w", err)
	}
	defer rows.Close()

	var out []HintRecord
	for rows.Next() {
		rec, err := scanHint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan hint: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteHint removes the hint for appID
func (s *Store) DeleteHint(ctx context.Context, appID string) error {
	if _, err := s.exec(ctx, `DELETE FROM app_hints WHERE app_id = ?`, appID); err != nil {
		return fmt.Errorf("delete hint %s: %w", appID, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHint(row scanner) (HintRecord, error) {
	var rec HintRecord
	var updated int64
	if err := row.Scan(&rec.AppID, &rec.InitialPath, &rec.State, &updated); err != nil {
		return HintRecord{}, err
	}
	rec.UpdatedAt = fromMillis(updated)
	return rec, nil
}
