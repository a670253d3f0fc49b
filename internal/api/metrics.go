// Prometheus metrics for the simulation control plane, exposed on /metrics.
package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/20lawsobk/maxbooster7.5-sub011/internal/sim"
)

// SimulationsRunning tracks engines currently inside Run.
var SimulationsRunning = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "maxbooster",
	Name:      "simulations_running",
	Help:      "Number of simulation runs currently executing.",
})

// SimulationsCompleted counts finished runs by final verdict.
var SimulationsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "maxbooster",
	Name:      "simulations_completed_total",
	Help:      "Total finished simulation runs by verdict.",
}, []string{"verdict"})

// SimulatedDays counts simulated days stepped across all runs.
var SimulatedDays = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "maxbooster",
	Name:      "simulated_days_total",
	Help:      "Total simulated days stepped.",
})

// EventsEmitted counts simulation events by category.
var EventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "maxbooster",
	Name:      "events_emitted_total",
	Help:      "Total simulation events emitted by category.",
}, []string{"category"})

// SnapshotWrites counts snapshot store writes by outcome.
var SnapshotWrites = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "maxbooster",
	Name:      "snapshot_writes_total",
	Help:      "Snapshot store writes by outcome.",
}, []string{"outcome"})

// WebsocketClients tracks connected live-feed clients.
var WebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "maxbooster",
	Name:      "websocket_clients",
	Help:      "Connected live-feed websocket clients.",
})

// instrumentedStore wraps a snapshot store and counts write outcomes.
type instrumentedStore struct {
	inner sim.SnapshotStore
}

// InstrumentStore adds write metrics to a snapshot store. A nil inner store
// passes through as nil so the engine keeps its in-memory-only behavior.
func InstrumentStore(inner sim.SnapshotStore) sim.SnapshotStore {
	if inner == nil {
		return nil
	}
	return &instrumentedStore{inner: inner}
}

func (s *instrumentedStore) Write(path string, data []byte) error {
	err := s.inner.Write(path, data)
	if err != nil {
		SnapshotWrites.WithLabelValues("error").Inc()
	} else {
		SnapshotWrites.WithLabelValues("ok").Inc()
	}
	return err
}

func (s *instrumentedStore) Read(path string) ([]byte, error) { return s.inner.Read(path) }

func (s *instrumentedStore) List(prefix string) ([]string, error) { return s.inner.List(prefix) }

func (s *instrumentedStore) Close() error { return s.inner.Close() }
