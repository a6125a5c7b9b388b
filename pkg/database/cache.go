package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lepinkainen/cricket-forge/pkg/cricket"
)

// DefaultCacheTable is the table name used by the scrape cache.
const DefaultCacheTable = "api_cache"

// CacheEntry is a single cached payload.
type CacheEntry struct {
	Key       string
	Value     string
	ExpiresAt time.Time
	UpdatedAt time.Time
}

// CacheStats summarizes the cache table.
type CacheStats struct {
	Total   int64 `json:"total" yaml:"total"`
	Valid   int64 `json:"valid" yaml:"valid"`
	Expired int64 `json:"expired" yaml:"expired"`
}

// Cache is a keyed TTL store in a SQLite table. Expiry times are stored as
// unix milliseconds and compared against the injected clock, so a row is
// invisible the moment its TTL passes even before CleanupExpired removes it.
type Cache struct {
	db        *Database
	tableName string
	now       func() time.Time
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithClock replaces time.Now, used by tests to move past a TTL.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache creates a cache over tableName and creates the table if needed.
func NewCache(db *Database, tableName string, opts ...CacheOption) (*Cache, error) {
	if tableName == "" {
		tableName = DefaultCacheTable
	}
	c := &Cache{
		db:        db,
		tableName: tableName,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.initialize(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cache) initialize() error {
	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			key TEXT NOT NULL UNIQUE,
			value TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_%[1]s_expires ON %[1]s(expires_at);
	`, c.tableName)

	if err := c.db.ExecuteSchema(schema); err != nil {
		return fmt.Errorf("failed to initialize cache table %s: %w", c.tableName, err)
	}
	return nil
}

func (c *Cache) nowMillis() int64 {
	return c.now().UnixMilli()
}

// Get returns the value for key if an unexpired row exists.
func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = ? AND expires_at > ?`, c.tableName)

	var value string
	err := c.db.DB().QueryRowContext(ctx, query, key, c.nowMillis()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &cricket.CacheReadError{Key: key, Err: err}
	}

	return value, true, nil
}

// Set upserts key with expiry now+ttl. If the upsert fails the row is
// replaced with a delete and insert in one transaction.
func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	expiresAt := c.now().Add(ttl).UnixMilli()

	upsert := fmt.Sprintf(`
		INSERT INTO %s (key, value, expires_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			updated_at = CURRENT_TIMESTAMP
	`, c.tableName)

	_, err := c.db.DB().ExecContext(ctx, upsert, key, value, expiresAt)
	if err == nil {
		return nil
	}

	slog.Debug("Cache upsert failed, replacing row", "key", key, "error", err)

	replaceErr := c.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, c.tableName), key); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s (key, value, expires_at) VALUES (?, ?, ?)`, c.tableName),
			key, value, expiresAt)
		return err
	})
	if replaceErr != nil {
		return &cricket.CacheWriteError{Key: key, Err: errors.Join(err, replaceErr)}
	}
	return nil
}

// Delete removes a value from the cache
func (c *Cache) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, c.tableName)

	if _, err := c.db.DB().ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete cache value: %w", err)
	}
	return nil
}

// CleanupExpired removes expired rows and returns how many were deleted.
func (c *Cache) CleanupExpired(ctx context.Context) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE expires_at <= ?`, c.tableName)

	result, err := c.db.DB().ExecContext(ctx, query, c.nowMillis())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired entries: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected > 0 {
		slog.Debug("Cleaned up expired cache entries", "table", c.tableName, "count", rowsAffected)
	}
	return rowsAffected, nil
}

// Stats counts total, valid and expired rows.
func (c *Cache) Stats(ctx context.Context) (CacheStats, error) {
	var stats CacheStats
	query := fmt.Sprintf(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN expires_at > ? THEN 1 ELSE 0 END), 0)
		FROM %s
	`, c.tableName)

	if err := c.db.DB().QueryRowContext(ctx, query, c.nowMillis()).Scan(&stats.Total, &stats.Valid); err != nil {
		return stats, fmt.Errorf("failed to get cache stats: %w", err)
	}
	stats.Expired = stats.Total - stats.Valid
	return stats, nil
}

// Clear removes all entries from the cache
func (c *Cache) Clear(ctx context.Context) error {
	if _, err := c.db.DB().ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, c.tableName)); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// Entry returns the raw row for key including its expiry, expired or not.
func (c *Cache) Entry(ctx context.Context, key string) (CacheEntry, bool, error) {
	query := fmt.Sprintf(`SELECT key, value, expires_at, updated_at FROM %s WHERE key = ?`, c.tableName)

	var (
		entry     CacheEntry
		expiresMs int64
	)
	err := c.db.DB().QueryRowContext(ctx, query, key).Scan(&entry.Key, &entry.Value, &expiresMs, &entry.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return entry, false, nil
	}
	if err != nil {
		return entry, false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	entry.ExpiresAt = time.UnixMilli(expiresMs)
	return entry, true, nil
}
