// Package filesystem resolves the locations of configuration and database
// files.
package filesystem

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AppDirName is the per-user directory under $HOME.
const AppDirName = ".cricket-forge"

// ErrDirNotFound is returned when a parent directory cannot be created.
var ErrDirNotFound = errors.New("directory not found")

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// ExecutableDir returns the directory holding the running binary.
func ExecutableDir() (string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	return filepath.Dir(exePath), nil
}

// UserDir returns ~/.cricket-forge, or "" when there is no home directory.
func UserDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, AppDirName)
}

// SearchDirs are the directories ResolvePath falls back to, in order: next to
// the executable, then the per-user directory.
func SearchDirs() []string {
	var dirs []string
	if dir, err := ExecutableDir(); err == nil {
		dirs = append(dirs, dir)
	}
	if dir := UserDir(); dir != "" {
		dirs = append(dirs, dir)
	}
	return dirs
}

// ResolvePath returns path itself when it is absolute or exists relative to
// the working directory, otherwise the first dirs/path that exists. When
// nothing exists the expanded path is returned unchanged.
func ResolvePath(path string, dirs ...string) string {
	path = ExpandHome(path)
	if filepath.IsAbs(path) {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	for _, dir := range dirs {
		candidate := filepath.Join(dir, path)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return path
}

// EnsureDirectoryExists creates the parent directory of filePath.
func EnsureDirectoryExists(filePath string) error {
	dir := filepath.Dir(filePath)
	if dir == "." || dir == "" {
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrDirNotFound, dir)
		}
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
