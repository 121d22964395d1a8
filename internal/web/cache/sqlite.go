package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS parse_cache (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS parse_cache_expires_at ON parse_cache (expires_at);
`

// SQLiteConfig holds SQLite-specific configuration
type SQLiteConfig struct {
	// Path is the database file path
	Path string
	// MaxOpenConns is the maximum number of open connections (default 4)
	MaxOpenConns int
	// BusyTimeout is how long a connection waits on a locked database
	BusyTimeout time.Duration

	Config Config
}

// SQLiteCache implements a cache persisted in a SQLite database, so parses
// survive service restarts. Expired rows are skipped on read and removed by
// Prune.
type SQLiteCache struct {
	db     *sql.DB
	config Config
}

// NewSQLiteCache opens or creates the database at config.Path
func NewSQLiteCache(ctx context.Context, config SQLiteConfig) (*SQLiteCache, error) {
	if config.Path == "" {
		return nil, errors.New("sqlite cache path is empty")
	}
	if config.MaxOpenConns <= 0 {
		config.MaxOpenConns = 4
	}
	if config.BusyTimeout <= 0 {
		config.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=%d", config.Path, config.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", config.Path, err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema in %s: %w", config.Path, err)
	}

	return &SQLiteCache{db: db, config: config.Config}, nil
}

// Get retrieves a value from the cache
func (s *SQLiteCache) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM parse_cache WHERE key = ? AND (expires_at = 0 OR expires_at > ?)`,
		s.config.Prefix+key, time.Now().UnixNano(),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCacheMiss{Key: key}
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores a value in the cache with a TTL
func (s *SQLiteCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = s.config.DefaultTTL
	}
	var expiresAt int64
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).UnixNano()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO parse_cache (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		s.config.Prefix+key, value, expiresAt,
	)
	return err
}

// Delete removes a value from the cache
func (s *SQLiteCache) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM parse_cache WHERE key = ?`, s.config.Prefix+key)
	return err
}

// Clear removes every key under the prefix
func (s *SQLiteCache) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM parse_cache WHERE substr(key, 1, ?) = ?`,
		len(s.config.Prefix), s.config.Prefix,
	)
	return err
}

// Prune deletes expired rows and reports how many were removed
func (s *SQLiteCache) Prune(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM parse_cache WHERE expires_at != 0 AND expires_at <= ?`,
		time.Now().UnixNano(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Len returns the number of stored rows, expired or not
func (s *SQLiteCache) Len(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM parse_cache`).Scan(&n)
	return n, err
}

// Close closes the database
func (s *SQLiteCache) Close() error {
	return s.db.Close()
}
