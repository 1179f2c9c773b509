// Package vfs abstracts filesystem probing and environment lookup so the
// installation detector and pipeline builders can run against an
// in-memory fake in tests.
package vfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Provider is the capability surface the toolchain layers are allowed to
// touch: existence checks, directory listing, buffered reads, and
// environment lookups.
type Provider interface {
	Exists(path string) bool
	ReadFile(path string) ([]byte, error)
	// ReadDir returns the entry names (not full paths) of a directory.
	ReadDir(path string) ([]string, error)
	Getenv(key string) string
}

// OS is the real-filesystem Provider.
type OS struct{}

// Exists reports only paths that stat cleanly; an unreadable or
// otherwise broken path must not pass a structural probe.
func (OS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (OS) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

func (OS) ReadDir(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

func (OS) Getenv(key string) string { return os.Getenv(key) }

// ExpandHome expands a leading '~' to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}
