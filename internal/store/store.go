// Package store provides the persistence backends behind the engine's
// snapshot pipeline: local disk, S3 and Redis, plus composable gzip and
// circuit-breaker wrappers. Every backend implements sim.SnapshotStore and
// treats paths as forward-slash keys ("snapshots/<run>/day_00001.json").
package store

import "errors"

// ErrNotFound is returned by Read when the key does not exist in the
// backend. Callers can distinguish it from transport failures.
var ErrNotFound = errors.New("store: key not found")
