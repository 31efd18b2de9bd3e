// Package cache provides a content-addressed store of successful worker
// responses, keyed by a deterministic hash of (worker, instruction).
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/mitchellh/hashstructure/v2"
	_ "modernc.org/sqlite"
)

// Entry is one cached worker response.
type Entry struct {
	Response string
	Tokens   int
	Elapsed  float64
}

// Store is a SQLite-backed response cache.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) a cache database at the given path.
// Creates parent directories if needed. Enables WAL mode and a busy
// timeout so concurrent layer writes don't trip over each other.
func NewStore(ctx context.Context, dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create parent directories: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	return store, nil
}

// NewMemoryStore creates an in-memory cache for testing. Each store gets
// its own named database; the shared cache keeps the pool's connections
// pointed at the same one.
func NewMemoryStore(ctx context.Context) (*Store, error) {
	name := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := sql.Open("sqlite", name)
	if err != nil {
		return nil, fmt.Errorf("failed to open memory database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS responses (
		key TEXT PRIMARY KEY,
		worker TEXT NOT NULL,
		response TEXT NOT NULL,
		tokens INTEGER NOT NULL,
		elapsed REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_responses_worker ON responses(worker);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Get looks up the cached response for a (worker, instruction) pair.
// The second return value is false on a miss.
func (s *Store) Get(ctx context.Context, worker, instruction string) (Entry, bool, error) {
	key, err := cacheKey(worker, instruction)
	if err != nil {
		return Entry{}, false, err
	}

	var e Entry
	err = s.db.QueryRowContext(ctx,
		`SELECT response, tokens, elapsed FROM responses WHERE key = ?`, key,
	).Scan(&e.Response, &e.Tokens, &e.Elapsed)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("cache lookup failed: %w", err)
	}

	return e, true, nil
}

// Set stores a successful response. Idempotent: replaying the same pair
// overwrites the prior row.
func (s *Store) Set(ctx context.Context, worker, instruction string, e Entry) error {
	key, err := cacheKey(worker, instruction)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO responses (key, worker, response, tokens, elapsed)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			response = excluded.response,
			tokens = excluded.tokens,
			elapsed = excluded.elapsed,
			created_at = CURRENT_TIMESTAMP
	`, key, worker, e.Response, e.Tokens, e.Elapsed)
	if err != nil {
		return fmt.Errorf("cache write failed: %w", err)
	}

	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// cacheKey derives the deterministic key for a (worker, instruction) pair.
func cacheKey(worker, instruction string) (string, error) {
	h, err := hashstructure.Hash(struct {
		Worker      string
		Instruction string
	}{worker, instruction}, hashstructure.FormatV2, nil)
	if err != nil {
		return "", fmt.Errorf("cache key derivation failed: %w", err)
	}
	return fmt.Sprintf("%016x", h), nil
}
