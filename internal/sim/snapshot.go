package sim

import (
	"encoding/json"
	"fmt"
	"time"
)

// snapshotEventWindow is how many trailing events a snapshot carries.
const snapshotEventWindow = 100

// Snapshot is a frozen view of the simulation after a completed day. All
// nested state is copied by value, so mutating the engine afterwards never
// changes a snapshot already taken.
type Snapshot struct {
	Label        string            `json:"label"` // "initial", "day_00042", "final"
	Period       string            `json:"period"`
	Day          int               `json:"day"`
	SimDate      time.Time         `json:"sim_date"`
	Timestamp    time.Time         `json:"timestamp"`
	Metrics      SystemMetrics     `json:"metrics"`
	Market       MarketConditions  `json:"market"`
	RecentEvents []SimulationEvent `json:"recent_events"`
	Autonomous   map[string]string `json:"autonomous_status"`
}

// SnapshotStore persists snapshots outside the engine. Implementations live
// in internal/store (local disk, S3, Redis); all of them are optional, and
// failures are logged once and otherwise ignored so a dead store never
// kills a run.
type SnapshotStore interface {
	Write(path string, data []byte) error
	Read(path string) ([]byte, error)
	List(prefix string) ([]string, error)
	Close() error
}

// SnapshotKey is the store path for one snapshot of one run.
func SnapshotKey(runID string, day int) string {
	return fmt.Sprintf("snapshots/%s/day_%05d.json", runID, day)
}

// SnapshotPrefix is the store path prefix holding all of a run's snapshots.
func SnapshotPrefix(runID string) string {
	return fmt.Sprintf("snapshots/%s/", runID)
}

// takeSnapshotLocked freezes the current state, appends it to the in-memory
// history, notifies the observer and persists it best-effort. Callers hold
// the write lock. An empty label names the snapshot after the current day.
func (s *Simulation) takeSnapshotLocked(label string) {
	day := s.clock.Day()
	if label == "" {
		label = fmt.Sprintf("day_%05d", day)
	}

	recent := s.events
	if len(recent) > snapshotEventWindow {
		recent = recent[len(recent)-snapshotEventWindow:]
	}
	events := make([]SimulationEvent, len(recent))
	copy(events, recent)

	status := make(map[string]string, len(s.autonomous))
	for k, v := range s.autonomous {
		status[k] = v
	}

	snap := Snapshot{
		Label:        label,
		Period:       s.cfg.PeriodName,
		Day:          day,
		SimDate:      s.clock.Now(),
		Timestamp:    s.deps.Now(),
		Metrics:      s.metrics.Copy(),
		Market:       s.market.Conditions(),
		RecentEvents: events,
		Autonomous:   status,
	}
	s.snapshots = append(s.snapshots, snap)

	if s.deps.Observers.OnSnapshot != nil {
		s.deps.Observers.OnSnapshot(snap)
	}
	s.persistSnapshotLocked(snap)
}

// persistSnapshotLocked writes one snapshot to the configured store. Store
// trouble is warned about once per run, then silenced until a write goes
// through again; the run itself never fails because of the store.
func (s *Simulation) persistSnapshotLocked(snap Snapshot) {
	if s.deps.SnapshotStore == nil {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		s.deps.Logger.Error("snapshot marshal failed", map[string]interface{}{
			"run_id": s.cfg.RunID, "day": snap.Day, "error": err.Error(),
		})
		return
	}
	if err := s.deps.SnapshotStore.Write(SnapshotKey(s.cfg.RunID, snap.Day), data); err != nil {
		if !s.storeWarned {
			s.storeWarned = true
			s.deps.Logger.Warn("snapshot store unavailable, continuing without persistence", map[string]interface{}{
				"run_id": s.cfg.RunID, "day": snap.Day, "error": err.Error(),
			})
		}
		return
	}
	s.storeWarned = false
}

// syncAggregatesLocked recomputes the derived metric block from the
// aggregate store, the catalog and the sample pool. Runs at the end of
// every day step and after any out-of-band population change.
func (s *Simulation) syncAggregatesLocked() {
	agg := s.users.Aggregates()

	s.metrics.Users.Total = agg.Total
	for tier, n := range agg.ByTier {
		s.metrics.Users.ByTier[tier] = n
	}
	for arch, n := range agg.ByArchetype {
		s.metrics.Users.ByArchetype[arch] = n
	}
	ratio := s.users.ActiveRatio(s.clock.Now(), 7*24*time.Hour)
	s.metrics.Users.Active = int64(float64(agg.Total) * ratio)

	s.metrics.Revenue.MRR = agg.TotalRevenue
	s.metrics.Revenue.Monthly = agg.TotalRevenue
	s.metrics.Revenue.Yearly = agg.TotalRevenue * 12
	s.metrics.Revenue.ARR = agg.TotalRevenue * 12

	var totalStreams int64
	for _, r := range s.releases {
		totalStreams += r.TotalStreams
	}
	s.metrics.Streams.Total = totalStreams
	if n := len(s.releases); n > 0 {
		s.metrics.Streams.AvgPerRelease = float64(totalStreams) / float64(n)
	} else {
		s.metrics.Streams.AvgPerRelease = 0
	}
	var ringSum int64
	for _, v := range s.streamRing {
		ringSum += v
	}
	s.metrics.Streams.Monthly = ringSum

	poolFollowers := s.users.PoolFollowers()
	s.users.SetFollowerTotal(poolFollowers)
	s.metrics.Social.TotalFollowers = poolFollowers
	s.metrics.Social.EngagementRate = s.poolAvgEngagementLocked()
}

func (s *Simulation) poolAvgEngagementLocked() float64 {
	n := s.users.PoolSize()
	if n == 0 {
		return 0
	}
	var sum float64
	s.users.EachSample(func(u *SimulatedUser) {
		sum += u.EngagementRate
	})
	return sum / float64(n)
}
