package flashcache

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"
	"time"

	"studyhall/internal/flashcards"
	"studyhall/internal/logging"
	"studyhall/internal/sqlitedb"
)

// ShapeVersion identifies the serialized set layout. Bump it whenever the
// Set or Card encoding changes so stale entries are ignored.
const ShapeVersion = 1

//go:embed migrations/*.sql
var migrationFS embed.FS

// Entry describes one cached document.
type Entry struct {
	DocumentID   string
	ShapeVersion int
	SetCount     int
	CardCount    int
	Bytes        int
	UpdatedAt    time.Time
	// Stale marks entries written under another shape version; reads skip them.
	Stale bool
}

// Cache persists flashcard sets keyed by document id.
type Cache struct {
	db      *sql.DB
	path    string
	logger  *slog.Logger
	version int
	now     func() time.Time
	mu      sync.Mutex
}

// Option customizes the cache.
type Option func(*Cache)

// WithLogger routes cache diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logging.NewComponentLogger(logger, "flashcache")
	}
}

// WithShapeVersion overrides the version stamped on writes and required on reads.
func WithShapeVersion(version int) Option {
	return func(c *Cache) {
		c.version = version
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// Open connects to or creates the cache database at path.
func Open(ctx context.Context, path string, opts ...Option) (*Cache, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("flashcache: path required")
	}
	migrations, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("flashcache: migrations: %w", err)
	}
	db, err := sqlitedb.Open(ctx, path, migrations)
	if err != nil {
		return nil, fmt.Errorf("flashcache: %w", err)
	}
	cache := &Cache{
		db:      db,
		path:    path,
		logger:  logging.NewNop(),
		version: ShapeVersion,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(cache)
	}
	return cache, nil
}

// Path returns the database file backing the cache.
func (c *Cache) Path() string {
	return c.path
}

// Close releases the database handle.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Read returns the cached sets for documentID. ok is false when nothing usable
// is cached: no entry, an entry from another shape version, or a payload that
// fails to decode.
func (c *Cache) Read(ctx context.Context, documentID string) ([]flashcards.Set, bool, error) {
	var (
		version int
		payload string
	)
	err := c.db.QueryRowContext(ctx,
		"SELECT shape_version, payload FROM flashcard_cache WHERE document_id = ?",
		documentID,
	).Scan(&version, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("flashcache read %s: %w", documentID, err)
	}
	if version != c.version {
		c.logger.Debug("cache entry ignored",
			logging.DocumentID(documentID),
			logging.Int("entry_version", version),
			logging.Int("shape_version", c.version),
			logging.EventType("cache_version_mismatch"),
		)
		return nil, false, nil
	}
	var sets []flashcards.Set
	if err := json.Unmarshal([]byte(payload), &sets); err != nil {
		logging.WarnWithContext(c.logger, "cache entry corrupt; ignoring", "cache_corrupt",
			logging.DocumentID(documentID),
			logging.Error(err),
			logging.Hint("run 'studyhall cache remove' for this document"),
			logging.Impact("flashcards load from the backend instead"),
		)
		return nil, false, nil
	}
	return sets, true, nil
}

// Write replaces the entry for documentID with sets.
func (c *Cache) Write(ctx context.Context, documentID string, sets []flashcards.Set) error {
	if strings.TrimSpace(documentID) == "" {
		return errors.New("flashcache write: document id required")
	}
	if sets == nil {
		sets = []flashcards.Set{}
	}
	payload, err := json.Marshal(sets)
	if err != nil {
		return fmt.Errorf("flashcache encode %s: %w", documentID, err)
	}
	cards := 0
	for _, set := range sets {
		cards += len(set.Cards)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO flashcard_cache (document_id, shape_version, payload, set_count, card_count, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(document_id) DO UPDATE SET
            shape_version = excluded.shape_version,
            payload = excluded.payload,
            set_count = excluded.set_count,
            card_count = excluded.card_count,
            updated_at = excluded.updated_at`,
		documentID,
		c.version,
		string(payload),
		len(sets),
		cards,
		c.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("flashcache write %s: %w", documentID, err)
	}
	return nil
}

// Remove deletes the entry for documentID. Removing a missing entry is not an error.
func (c *Cache) Remove(ctx context.Context, documentID string) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM flashcard_cache WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("flashcache remove %s: %w", documentID, err)
	}
	return nil
}

// Clear deletes every entry and returns how many were removed.
func (c *Cache) Clear(ctx context.Context) (int, error) {
	res, err := c.db.ExecContext(ctx, "DELETE FROM flashcard_cache")
	if err != nil {
		return 0, fmt.Errorf("flashcache clear: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("flashcache clear: %w", err)
	}
	return int(removed), nil
}

// List returns every entry, most recently updated first.
func (c *Cache) List(ctx context.Context) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT document_id, shape_version, set_count, card_count, LENGTH(payload), updated_at
         FROM flashcard_cache ORDER BY updated_at DESC, document_id`)
	if err != nil {
		return nil, fmt.Errorf("flashcache list: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry   Entry
			updated string
		)
		if err := rows.Scan(&entry.DocumentID, &entry.ShapeVersion, &entry.SetCount, &entry.CardCount, &entry.Bytes, &updated); err != nil {
			return nil, fmt.Errorf("flashcache list scan: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, updated); err == nil {
			entry.UpdatedAt = ts
		}
		entry.Stale = entry.ShapeVersion != c.version
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
