package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// openTestDB opens a fresh database file under t.TempDir.
func openTestDB(t *testing.T) *Database {
	t.Helper()

	db, err := NewDatabase(Config{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("NewDatabase() error = %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return db
}

func TestGetDatabaseSize(t *testing.T) {
	tempDir := t.TempDir()

	testData := "This is test data for size testing"
	smallFile := filepath.Join(tempDir, "small.db")
	if err := os.WriteFile(smallFile, []byte(testData), 0o644); err != nil {
		t.Fatalf("Failed to create small test file: %v", err)
	}

	tests := []struct {
		name         string
		dbPath       string
		expectError  bool
		expectedSize int64
	}{
		{"small file", smallFile, false, int64(len(testData))},
		{"non-existing file", filepath.Join(tempDir, "nonexistent.db"), true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size, err := GetDatabaseSize(tt.dbPath)
			if (err != nil) != tt.expectError {
				t.Fatalf("GetDatabaseSize(%q) error = %v, expectError = %v", tt.dbPath, err, tt.expectError)
			}
			if !tt.expectError && size != tt.expectedSize {
				t.Errorf("GetDatabaseSize(%q) = %d, expected %d", tt.dbPath, size, tt.expectedSize)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Driver != "sqlite" {
		t.Errorf("DefaultConfig().Driver = %q, expected %q", config.Driver, "sqlite")
	}
	if config.Timeout != 30*time.Second {
		t.Errorf("DefaultConfig().Timeout = %v, expected %v", config.Timeout, 30*time.Second)
	}
	if config.Path != "cricket.db" {
		t.Errorf("DefaultConfig().Path = %q, expected %q", config.Path, "cricket.db")
	}
}

func TestNewDatabase_ReusesHandlePerPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")

	first, err := NewDatabase(Config{Path: path})
	if err != nil {
		t.Fatalf("NewDatabase() error = %v", err)
	}
	second, err := NewDatabase(Config{Path: path})
	if err != nil {
		t.Fatalf("NewDatabase() second call error = %v", err)
	}
	if first != second {
		t.Errorf("NewDatabase() returned a new handle for the same path")
	}

	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := NewDatabase(Config{Path: path})
	if err != nil {
		t.Fatalf("NewDatabase() after close error = %v", err)
	}
	defer reopened.Close()
	if reopened == first {
		t.Errorf("NewDatabase() returned a closed handle")
	}
}

func TestDatabase_GetInfo(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := NewCache(db, ""); err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}

	info, err := db.GetInfo(ctx)
	if err != nil {
		t.Fatalf("GetInfo() error = %v", err)
	}
	if info.SQLiteVersion == "" {
		t.Errorf("GetInfo().SQLiteVersion is empty")
	}
	if info.TableCount < 1 {
		t.Errorf("GetInfo().TableCount = %d, expected at least 1", info.TableCount)
	}
}
