package store

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/20lawsobk/maxbooster7.5-sub011/internal/sim"
)

// Gzip wraps another store and compresses payloads on the way in. Keys gain
// a ".gz" suffix in the underlying backend; List strips it again so callers
// see the logical names. Long runs produce tens of thousands of snapshots,
// and the JSON compresses roughly 10x.
type Gzip struct {
	inner sim.SnapshotStore
}

var _ sim.SnapshotStore = (*Gzip)(nil)

// NewGzip wraps inner with transparent compression.
func NewGzip(inner sim.SnapshotStore) *Gzip {
	return &Gzip{inner: inner}
}

// Write compresses data and stores it under path + ".gz".
func (g *Gzip) Write(path string, data []byte) error {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return fmt.Errorf("gzip write: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("gzip close: %w", err)
	}
	return g.inner.Write(path+".gz", buf.Bytes())
}

// Read fetches path + ".gz" and decompresses it.
func (g *Gzip) Read(path string) ([]byte, error) {
	raw, err := g.inner.Read(path + ".gz")
	if err != nil {
		return nil, err
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("gzip open: %w", err)
	}
	defer zr.Close()
	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("gzip read: %w", err)
	}
	return data, nil
}

// List delegates to the inner store and hides the ".gz" suffix.
func (g *Gzip) List(prefix string) ([]string, error) {
	keys, err := g.inner.List(prefix)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.TrimSuffix(k, ".gz"))
	}
	return out, nil
}

// Close closes the inner store.
func (g *Gzip) Close() error { return g.inner.Close() }
