package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/20lawsobk/maxbooster7.5-sub011/internal/sim"
)

// Local persists snapshots as plain files under a root directory. Writes go
// through a temp file and a rename so a crashed process never leaves a
// half-written snapshot behind.
type Local struct {
	root string
}

var _ sim.SnapshotStore = (*Local)(nil)

// NewLocal creates the root directory if needed and returns a disk-backed
// store rooted there.
func NewLocal(root string) (*Local, error) {
	if root == "" {
		return nil, fmt.Errorf("local store: empty root directory")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating local store root: %w", err)
	}
	return &Local{root: root}, nil
}

func (l *Local) fullPath(path string) string {
	return filepath.Join(l.root, filepath.FromSlash(path))
}

// Write stores data under path, creating parent directories as needed.
func (l *Local) Write(path string, data []byte) error {
	full := l.fullPath(path)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot temp file: %w", err)
	}
	if err := os.Rename(tmp, full); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("committing snapshot file: %w", err)
	}
	return nil
}

// Read returns the content stored under path, or ErrNotFound.
func (l *Local) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(l.fullPath(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot file: %w", err)
	}
	return data, nil
}

// List returns all keys under prefix in lexical order.
func (l *Local) List(prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(l.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(p, ".tmp") {
			return nil
		}
		rel, err := filepath.Rel(l.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking local store: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op for the disk backend.
func (l *Local) Close() error { return nil }
