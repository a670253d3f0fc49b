package store

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/20lawsobk/maxbooster7.5-sub011/internal/sim"
)

// flakyStore fails every call until healed.
type flakyStore struct {
	healthy bool
	calls   int
}

var errBackendDown = errors.New("backend down")

func (f *flakyStore) Write(string, []byte) error {
	f.calls++
	if !f.healthy {
		return errBackendDown
	}
	return nil
}

func (f *flakyStore) Read(string) ([]byte, error) {
	f.calls++
	if !f.healthy {
		return nil, errBackendDown
	}
	return []byte("ok"), nil
}

func (f *flakyStore) List(string) ([]string, error) {
	f.calls++
	if !f.healthy {
		return nil, errBackendDown
	}
	return []string{"k"}, nil
}

func (f *flakyStore) Close() error { return nil }

func TestBreakerPassesThroughWhenHealthy(t *testing.T) {
	inner, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	b := NewBreaker(inner, zerolog.Nop())

	require.NoError(t, b.Write("snapshots/run_a/day_00001.json", []byte("x")))

	got, err := b.Read("snapshots/run_a/day_00001.json")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), got)

	keys, err := b.List("snapshots/run_a/")
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &flakyStore{}
	b := NewBreaker(inner, zerolog.Nop())

	// The first five failures hit the backend and surface its error.
	for i := 0; i < 5; i++ {
		err := b.Write("k", []byte("x"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, sim.ErrStoreUnavailable, "call %d should reach the backend", i)
	}
	assert.Equal(t, 5, inner.calls)

	// The sixth call finds the circuit open and fails fast.
	err := b.Write("k", []byte("x"))
	assert.ErrorIs(t, err, sim.ErrStoreUnavailable)
	assert.Equal(t, 5, inner.calls, "open circuit must not touch the backend")

	// Reads and lists trip on the same circuit.
	_, err = b.Read("k")
	assert.ErrorIs(t, err, sim.ErrStoreUnavailable)
	_, err = b.List("k")
	assert.ErrorIs(t, err, sim.ErrStoreUnavailable)
}

func TestBreakerIgnoresMissingKeys(t *testing.T) {
	inner, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	b := NewBreaker(inner, zerolog.Nop())

	// Misses are a normal outcome, not a backend failure: they must never
	// open the circuit no matter how many pile up.
	for i := 0; i < 20; i++ {
		_, err := b.Read("snapshots/none/day_00001.json")
		assert.ErrorIs(t, err, ErrNotFound)
	}

	require.NoError(t, b.Write("snapshots/run_a/day_00001.json", []byte("x")))
	got, err := b.Read("snapshots/run_a/day_00001.json")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), got)
}
