// Package database wraps the SQLite file that holds the scrape cache and the
// team/player tables populated by scrape-all.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/lepinkainen/cricket-forge/pkg/filesystem"
)

var (
	// openDatabases shares one handle per file path
	openDatabases = make(map[string]*Database)
	openMu        sync.Mutex
)

// Database is a pooled SQLite handle safe for concurrent use.
type Database struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// Config holds database configuration
type Config struct {
	Path    string
	Driver  string
	Timeout time.Duration
}

// DefaultConfig returns the default database configuration
func DefaultConfig() Config {
	return Config{
		Path:    "cricket.db",
		Driver:  "sqlite",
		Timeout: 30 * time.Second,
	}
}

// connectionPragmas are per-connection settings, so they travel in the DSN
// and every pooled connection gets them.
var connectionPragmas = []string{
	"busy_timeout(5000)",
	"foreign_keys(1)",
	"synchronous(NORMAL)",
	"temp_store(memory)",
}

// dsn appends the connection pragmas to a plain file path.
func dsn(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	params := make([]string, 0, len(connectionPragmas))
	for _, p := range connectionPragmas {
		params = append(params, "_pragma="+p)
	}
	return path + "?" + strings.Join(params, "&")
}

// NewDatabase opens (or reuses) the database at config.Path.
func NewDatabase(config Config) (*Database, error) {
	openMu.Lock()
	defer openMu.Unlock()

	config.Path = filesystem.ExpandHome(config.Path)
	if existing, ok := openDatabases[config.Path]; ok {
		return existing, nil
	}

	if config.Driver == "" {
		config.Driver = "sqlite"
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}

	if err := filesystem.EnsureDirectoryExists(config.Path); err != nil {
		return nil, err
	}

	source := config.Path
	if config.Driver == "sqlite" {
		source = dsn(config.Path)
	}

	db, err := sql.Open(config.Driver, source)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", config.Path, err)
	}

	closeOnErr := func(cause error) (*Database, error) {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("Failed to close database", "path", config.Path, "error", closeErr)
		}
		return nil, cause
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()

	if config.Driver == "sqlite" {
		if err := configureSQLite(ctx, db); err != nil {
			return closeOnErr(err)
		}
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		return closeOnErr(fmt.Errorf("failed to ping database: %w", err))
	}

	database := &Database{db: db, dbPath: config.Path}
	openDatabases[config.Path] = database

	slog.Debug("Opened database", "path", config.Path)
	return database, nil
}

// configureSQLite switches the file to WAL. journal_mode is persistent, so
// setting it once on any connection is enough.
func configureSQLite(ctx context.Context, db *sql.DB) error {
	var journalMode string
	if err := db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to read journal_mode: %w", err)
	}
	if !strings.EqualFold(journalMode, "wal") {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			return fmt.Errorf("failed to enable WAL: %w", err)
		}
	}
	return nil
}

// Close closes the handle and forgets it so the path can be reopened.
func (d *Database) Close() error {
	openMu.Lock()
	defer openMu.Unlock()

	delete(openDatabases, d.dbPath)

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.db.Close()
}

// DB returns the underlying *sql.DB
func (d *Database) DB() *sql.DB {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.db
}

// Path returns the database file path
func (d *Database) Path() string {
	return d.dbPath
}

// ExecuteSchema runs one or more DDL statements.
func (d *Database) ExecuteSchema(schema string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Transaction runs fn inside a transaction, rolling back on error or panic.
func (d *Database) Transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	rollback := func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			slog.Error("Failed to rollback transaction", "error", rollbackErr)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		rollback()
		return err
	}

	return tx.Commit()
}
