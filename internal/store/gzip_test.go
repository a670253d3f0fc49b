package store

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGzipRoundtrip(t *testing.T) {
	inner, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	g := NewGzip(inner)

	payload := []byte(strings.Repeat(`{"metrics":{"users":12345}}`, 200))
	require.NoError(t, g.Write("snapshots/run_a/day_00001.json", payload))

	got, err := g.Read("snapshots/run_a/day_00001.json")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestGzipStoresCompressedUnderSuffixedKey(t *testing.T) {
	inner, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	g := NewGzip(inner)

	payload := []byte(strings.Repeat(`{"label":"day_00001"}`, 500))
	require.NoError(t, g.Write("snapshots/run_a/day_00001.json", payload))

	// The logical key must not exist in the backend, the .gz twin must.
	_, err = inner.Read("snapshots/run_a/day_00001.json")
	assert.ErrorIs(t, err, ErrNotFound)

	raw, err := inner.Read("snapshots/run_a/day_00001.json.gz")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte{0x1f, 0x8b}), "gzip magic bytes missing")
	assert.Less(t, len(raw), len(payload), "repetitive JSON must shrink")
}

func TestGzipListHidesSuffix(t *testing.T) {
	inner, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	g := NewGzip(inner)

	require.NoError(t, g.Write("snapshots/run_a/day_00001.json", []byte("x")))
	require.NoError(t, g.Write("snapshots/run_a/day_00002.json", []byte("y")))

	keys, err := g.List("snapshots/run_a/")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"snapshots/run_a/day_00001.json",
		"snapshots/run_a/day_00002.json",
	}, keys)
}

func TestGzipReadMissing(t *testing.T) {
	inner, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	g := NewGzip(inner)

	_, err = g.Read("snapshots/none/day_00001.json")
	assert.ErrorIs(t, err, ErrNotFound)
}
