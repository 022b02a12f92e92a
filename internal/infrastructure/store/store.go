// Package store persists app-scoped hints and saved workspace sessions in a
// local SQLite database.
//
// The store is deliberately narrow: it is keyed by app id or session id and
// carries opaque blobs. It takes no part in the instance registry's
// consistency guarantees.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	_ "modernc.org/sqlite" // register sqlite driver
)

// ErrNotFound is returned when a hint or session does not exist
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS app_hints (
	app_id       TEXT PRIMARY KEY,
	initial_path TEXT    NOT NULL DEFAULT '',
	state        BLOB,
	updated_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT PRIMARY KEY,
	name        TEXT    NOT NULL,
	description TEXT    NOT NULL DEFAULT '',
	instances   INTEGER NOT NULL DEFAULT 0,
	blob        BLOB    NOT NULL,
	created_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at);
`

const memoryPath = ":memory:"

type config struct {
	busyTimeout int
	mkdirAll    bool
	logger      *zap.Logger
}

// Option customises Open behaviour
type Option func(*config)

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds. Default: 5000.
func WithBusyTimeout(ms int) Option { return func(c *config) { c.busyTimeout = ms } }

// WithMkdirAll creates parent directories of the database path before opening
func WithMkdirAll() Option { return func(c *config) { c.mkdirAll = true } }

// WithLogger sets the store logger
func WithLogger(logger *zap.Logger) Option { return func(c *config) { c.logger = logger } }

// Store is a SQLite-backed key-value store
type Store struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(path string, opts ...Option) (*Store, error) {
	cfg := config{busyTimeout: 5000, logger: zap.NewNop()}
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.mkdirAll && path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(path, cfg.busyTimeout))
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	if path == memoryPath {
		// Each connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	cfg.logger.Info("store opened", zap.String("path", path))
	return &Store{db: db, logger: cfg.logger, now: time.Now}, nil
}

// dsn encodes the pragmas as _pragma parameters so every pooled connection
// gets them, not just the first one.
func dsn(path string, busyTimeout int) string {
	pragmas := []string{
		fmt.Sprintf("_pragma=busy_timeout(%d)", busyTimeout),
		"_pragma=foreign_keys(1)",
		"_pragma=synchronous(NORMAL)",
	}
	if path != memoryPath {
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	}
	return path + "?" + strings.Join(pragmas, "&")
}

// Close releases the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection is alive
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// IsBusy reports whether err indicates an SQLite BUSY condition
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked")
}

const maxRetries = 3

// exec runs a statement, retrying briefly while the database is busy
func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var lastErr error
	for i := range maxRetries {
		res, err := s.db.ExecContext(ctx, query, args...)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if !IsBusy(err) {
			return nil, err
		}
		s.logger.Debug("store busy, retrying", zap.Int("attempt", i+1))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(50*(i+1)) * time.Millisecond):
		}
	}
	return nil, lastErr
}

func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }
