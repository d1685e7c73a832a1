package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	"github.com/leapstack-labs/rbridge/pkg/value"
)

// SQLiteStore is a persistent cache backed by a SQLite file. Entries hold
// the JSON encoding of the decoded result.
type SQLiteStore struct {
	db         *sql.DB
	path       string
	maxEntries int
	logger     *slog.Logger
	now        func() time.Time

	misses atomic.Int64
}

// NewSQLiteStore creates a store that keeps at most maxEntries entries
// (unbounded if maxEntries <= 0). Call Open before use.
func NewSQLiteStore(maxEntries int, logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{maxEntries: maxEntries, logger: logger, now: time.Now}
}

// NewSQLiteStoreWithDB wraps an already opened database. No migrations are
// run.
func NewSQLiteStoreWithDB(db *sql.DB, maxEntries int) *SQLiteStore {
	s := NewSQLiteStore(maxEntries, nil)
	s.db = db
	return s
}

// Open opens (creating if needed) the database at path and migrates it.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping cache database: %w", err)
	}

	s.db = db
	s.path = path

	if err := s.Migrate(); err != nil {
		_ = db.Close()
		s.db = nil
		return err
	}

	s.logger.Debug("opened cache database", slog.String("path", path))
	return nil
}

// Path returns the database path given to Open.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the entry for key and records the access.
func (s *SQLiteStore) Get(ctx context.Context, key string) (value.Value, bool, error) {
	if s.db == nil {
		return value.Value{}, false, fmt.Errorf("database not opened")
	}

	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM cache_entries WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		s.misses.Add(1)
		return value.Value{}, false, nil
	}
	if err != nil {
		return value.Value{}, false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	v, err := value.DecodeJSON([]byte(payload))
	if err != nil {
		return value.Value{}, false, fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE cache_entries SET hits = hits + 1, accessed_at = ? WHERE key = ?`,
		s.now().UnixNano(), key,
	); err != nil {
		return value.Value{}, false, fmt.Errorf("failed to touch cache entry: %w", err)
	}

	return v, true, nil
}

// Put stores v under key and prunes the least recently used entries beyond
// the size bound.
func (s *SQLiteStore) Put(ctx context.Context, key string, v value.Value) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	payload, err := v.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	now := s.now().UnixNano()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO cache_entries (key, payload, hits, created_at, accessed_at) VALUES (?, ?, 0, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, accessed_at = excluded.accessed_at`,
		key, string(payload), now, now,
	); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}

	if s.maxEntries > 0 {
		res, err := s.db.ExecContext(ctx,
			`DELETE FROM cache_entries WHERE key NOT IN (SELECT key FROM cache_entries ORDER BY accessed_at DESC LIMIT ?)`,
			s.maxEntries,
		)
		if err != nil {
			return fmt.Errorf("failed to prune cache: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			s.logger.Debug("pruned cache entries", slog.Int64("count", n))
		}
	}
	return nil
}

// Stats returns entry and hit counts. Misses cover this process only.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	if s.db == nil {
		return Stats{}, fmt.Errorf("database not opened")
	}

	var st Stats
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(hits), 0) FROM cache_entries`,
	).Scan(&st.Entries, &st.Hits); err != nil {
		return Stats{}, fmt.Errorf("failed to read cache stats: %w", err)
	}
	st.Misses = s.misses.Load()
	return st, nil
}

// Clear deletes every entry and returns how many were removed.
func (s *SQLiteStore) Clear(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear cache: %w", err)
	}
	return res.RowsAffected()
}
