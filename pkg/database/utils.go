package database

import (
	"context"
	"fmt"
	"os"
)

// GetDatabaseSize returns the size of the database file in bytes
func GetDatabaseSize(dbPath string) (int64, error) {
	info, err := os.Stat(dbPath)
	if err != nil {
		return 0, fmt.Errorf("failed to get database file info: %w", err)
	}

	return info.Size(), nil
}

// Vacuum reclaims space after large deletes such as a cache clear.
func (d *Database) Vacuum(ctx context.Context) error {
	if _, err := d.DB().ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	return nil
}

// Info describes the database file for the `cache stats` command.
type Info struct {
	SQLiteVersion string `json:"sqliteVersion" yaml:"sqliteVersion"`
	FileSizeBytes int64  `json:"fileSizeBytes" yaml:"fileSizeBytes"`
	TableCount    int    `json:"tableCount" yaml:"tableCount"`
}

// GetInfo returns version, size and table count.
func (d *Database) GetInfo(ctx context.Context) (Info, error) {
	var info Info

	if err := d.DB().QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&info.SQLiteVersion); err != nil {
		return info, fmt.Errorf("failed to get SQLite version: %w", err)
	}

	if size, err := GetDatabaseSize(d.Path()); err == nil {
		info.FileSizeBytes = size
	}

	if err := d.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='table'").Scan(&info.TableCount); err != nil {
		return info, fmt.Errorf("failed to get table count: %w", err)
	}

	return info, nil
}
