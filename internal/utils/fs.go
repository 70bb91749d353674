package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}
	return path
}

// DirExists reports whether path exists and is a directory
func DirExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// IsNonEmptyDir reports whether path is a directory with at least one entry
func IsNonEmptyDir(path string) bool {
	if !DirExists(path) {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	names, err := f.Readdirnames(1)
	return err == nil && len(names) > 0
}

// CanonicalPath returns the absolute, symlink-free form of path
func CanonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// MkdirTempCanonical creates a temporary directory under dir (the OS
// default when empty) and returns its canonical path.
func MkdirTempCanonical(dir, prefix string) (string, error) {
	tmp, err := os.MkdirTemp(ExpandPath(dir), prefix+"*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}

	canonical, err := CanonicalPath(tmp)
	if err != nil {
		os.RemoveAll(tmp)
		return "", fmt.Errorf("resolve temp dir: %w", err)
	}
	return canonical, nil
}

// IsWritableDir checks whether a file can be created inside dir
func IsWritableDir(dir string) bool {
	f, err := os.CreateTemp(ExpandPath(dir), ".remotetheme-write-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}
