package cache

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

//go:embed sqlite_schema.sql
var sqliteSchema string

type dialect struct {
	name      string
	get       string
	set       string
	dropStale string
	del       string
	cleanup   string
	count     string
}

var sqliteDialect = dialect{
	name:      "sqlite",
	get:       `SELECT value, expires_at FROM cache WHERE key = ?`,
	set:       `INSERT OR REPLACE INTO cache (key, value, expires_at) VALUES (?, ?, ?)`,
	dropStale: `DELETE FROM cache WHERE key = ? AND expires_at = ?`,
	del:       `DELETE FROM cache WHERE key = ?`,
	cleanup:   `DELETE FROM cache WHERE expires_at <= ?`,
	count:     `SELECT COUNT(*) FROM cache`,
}

var postgresDialect = dialect{
	name: "postgres",
	get:  `SELECT value, expires_at FROM result_cache WHERE key = $1`,
	set: `INSERT INTO result_cache (key, value, expires_at) VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at`,
	dropStale: `DELETE FROM result_cache WHERE key = $1 AND expires_at = $2`,
	del:       `DELETE FROM result_cache WHERE key = $1`,
	cleanup:   `DELETE FROM result_cache WHERE expires_at <= $1`,
	count:     `SELECT COUNT(*) FROM result_cache`,
}

// SQLStore keeps entries in a (key, value, expires_at) table. Expiry is epoch milliseconds.
type SQLStore struct {
	db  *sql.DB
	d   dialect
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database file at path and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	s, err := NewSQLite(ctx, db, nil)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLite wraps an open sqlite handle. The handle is limited to one connection so an
// in-memory database survives and writes are serialised.
func NewSQLite(ctx context.Context, db *sql.DB, now func() time.Time) (*SQLStore, error) {
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("apply cache schema: %w", err)
	}
	return newSQLStore(db, sqliteDialect, now), nil
}

// OpenPostgres connects to dsn. The table comes from the migrations, not from here.
func OpenPostgres(ctx context.Context, dsn string, timeout time.Duration) (*SQLStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgres(db, nil), nil
}

// NewPostgres wraps an open postgres handle.
func NewPostgres(db *sql.DB, now func() time.Time) *SQLStore {
	return newSQLStore(db, postgresDialect, now)
}

func newSQLStore(db *sql.DB, d dialect, now func() time.Time) *SQLStore {
	if now == nil {
		now = time.Now
	}
	return &SQLStore{db: db, d: d, now: now}
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		value     string
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx, s.d.get, key).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if s.now().UnixMilli() >= expiresAt {
		// only the row we saw, a concurrent Set may already have replaced it
		if _, err := s.db.ExecContext(ctx, s.d.dropStale, key, expiresAt); err != nil {
			return nil, false, fmt.Errorf("cache drop expired %s: %w", key, err)
		}
		return nil, false, nil
	}
	return []byte(value), true, nil
}

func (s *SQLStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	expiresAt := s.now().Add(ttl).UnixMilli()
	if _, err := s.db.ExecContext(ctx, s.d.set, key, string(value), expiresAt); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.d.del, key); err != nil {
		return fmt.Errorf("cache delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Cleanup(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.d.cleanup, s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("cache cleanup: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLStore) Stats(ctx context.Context) (Stats, error) {
	st := Stats{Backend: s.d.name}
	if err := s.db.QueryRowContext(ctx, s.d.count).Scan(&st.Count); err != nil {
		return st, fmt.Errorf("cache stats: %w", err)
	}
	return st, nil
}

func (s *SQLStore) Close() error { return s.db.Close() }
