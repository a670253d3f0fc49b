package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/20lawsobk/maxbooster7.5-sub011/internal/sim"
)

// Breaker wraps another store with a circuit breaker so a dead backend
// (unreachable S3, full disk) fails fast instead of stalling every snapshot
// on its timeout. While the circuit is open all calls return
// sim.ErrStoreUnavailable immediately; after the cool-down one probe request
// is let through.
type Breaker struct {
	inner sim.SnapshotStore
	cb    *gobreaker.CircuitBreaker
}

var _ sim.SnapshotStore = (*Breaker)(nil)

// NewBreaker wraps inner with a breaker that trips after 5 consecutive
// failures and probes again after 30 seconds.
func NewBreaker(inner sim.SnapshotStore, log zerolog.Logger) *Breaker {
	st := gobreaker.Settings{Name: "snapshot-store"}
	st.MaxRequests = 1
	st.Interval = 60 * time.Second
	st.Timeout = 30 * time.Second
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= 5
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn().
			Str("breaker", name).
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("snapshot store breaker state change")
	}
	return &Breaker{inner: inner, cb: gobreaker.NewCircuitBreaker(st)}
}

func (b *Breaker) execute(fn func() (interface{}, error)) (interface{}, error) {
	out, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", sim.ErrStoreUnavailable, err)
	}
	return out, err
}

// Write forwards to the inner store through the breaker.
func (b *Breaker) Write(path string, data []byte) error {
	_, err := b.execute(func() (interface{}, error) {
		return nil, b.inner.Write(path, data)
	})
	return err
}

// Read forwards to the inner store through the breaker. A missing key does
// not count as a backend failure.
func (b *Breaker) Read(path string) ([]byte, error) {
	out, err := b.execute(func() (interface{}, error) {
		data, err := b.inner.Read(path)
		if errors.Is(err, ErrNotFound) {
			return data, nil
		}
		return data, err
	})
	if err != nil {
		return nil, err
	}
	data, _ := out.([]byte)
	if data == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return data, nil
}

// List forwards to the inner store through the breaker.
func (b *Breaker) List(prefix string) ([]string, error) {
	out, err := b.execute(func() (interface{}, error) {
		return b.inner.List(prefix)
	})
	if err != nil {
		return nil, err
	}
	keys, _ := out.([]string)
	return keys, nil
}

// Close closes the inner store directly; teardown should not be gated on
// breaker state.
func (b *Breaker) Close() error { return b.inner.Close() }
