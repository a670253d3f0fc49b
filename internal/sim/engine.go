// Package sim implements the real-life simulation engine: a discrete-event,
// time-accelerated projection of the whole business (users, revenue,
// streams, social activity, platform health) across horizons from one month
// to fifty years. Populations are tracked as cohort counters plus a bounded
// sample pool, so a 50-year run with tens of millions of simulated users
// stays in constant memory.
package sim

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Revenue per stream: $3.50 per thousand streams, the industry RPM
// benchmark the product quotes.
const (
	StreamRPM             = 3.50
	revenuePerStream      = StreamRPM / 1000.0
	ViralStreamMultiplier = 5.0

	// Releases whose stream curve has decayed to noise stop being walked
	// every day. 420 days is past seven half-lives of the 60-day decay.
	releaseRetirementDays = 420

	// Cap on representative events sampled per path per day, keeping the
	// log bounded while the counters carry the true volumes.
	maxSampledEventsPerPath = 3

	// A run aborts after this many consecutive day-step failures.
	maxConsecutiveFailures = 5
)

// Simulation is one engine instance. Instances share nothing; run several
// concurrently without locks between them. Within an instance, a single
// goroutine drives Run while control-plane calls (Status, Pause, events
// queries) synchronize through the embedded mutex.
type Simulation struct {
	mu sync.RWMutex

	cfg  Config
	deps Dependencies

	state State

	clock  *Clock
	rng    *RNG
	market *MarketModel
	growth *GrowthController
	users  *AggregateStore
	gen    *EventGenerator

	metrics       SystemMetrics
	lastCompleted SystemMetrics // what Status() reads: the last fully finished day

	events         []SimulationEvent
	snapshots      []Snapshot
	releases       []*SimulatedRelease
	active         []*SimulatedRelease
	transactions   []*SimulatedTransaction
	pendingPayouts []pendingPayout
	autonomous     map[string]string

	streamRing [30]int64 // trailing 30 days of streams
	ringIdx    int

	seeded         bool
	initialMRR     float64
	totalSignups   int64
	totalChurn     int64
	consecFailures int
	storeWarned    bool
	stopRequested  bool
	criticalIssues []string

	startedReal time.Time
	endedReal   time.Time

	pacer  *rate.Limiter
	result *SimulationResult
}

// New validates the config and assembles a simulation. The RNG seeded here
// is shared by the market model, growth controller and event generator, so
// a fixed seed replays the entire run.
func New(cfg Config, deps Dependencies) (*Simulation, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Logger == nil {
		deps.Logger = NopLogger{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	rng := NewRNG(cfg.Seed)
	clock := NewClock(cfg.SimStartDate)
	s := &Simulation{
		cfg:    cfg,
		deps:   deps,
		state:  StateNotStarted,
		clock:  clock,
		rng:    rng,
		market: NewMarketModel(rng, cfg.InitialTrends),
		growth: NewGrowthController(rng, cfg.InitialUsers),
		users:  NewAggregateStore(cfg.MaxSampleSize),
		gen:    NewEventGenerator(rng, DefaultProbabilities()),
	}
	s.metrics = NewSystemMetrics(deps.Now(), clock.Now())
	s.lastCompleted = s.metrics.Copy()
	s.autonomous = initialAutonomousStatus(cfg.EnableAutonomousSystems)
	if cfg.RealTimeTracking {
		s.pacer = rate.NewLimiter(rate.Every(RealMillisPerSimulatedDay*time.Millisecond), 1)
	}
	return s, nil
}

func initialAutonomousStatus(enabled bool) map[string]string {
	status := "active"
	if !enabled {
		status = "disabled"
	}
	return map[string]string{
		"marketing_autopilot":  status,
		"release_distributor":  status,
		"social_scheduler":     status,
		"pricing_engine":       status,
		"anomaly_detector":     status,
		"algorithm_adaptation": status,
	}
}

// Config returns the effective configuration (defaults applied).
func (s *Simulation) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Seed returns the RNG seed in use, for replay.
func (s *Simulation) Seed() int64 { return s.rng.Seed() }

// State returns the lifecycle state.
func (s *Simulation) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Run executes the whole simulation and returns its result. Only a fresh
// simulation accepts Run; everything else fails with ErrAlreadyRunning.
// Cancelling the context behaves like Stop: the run ends cleanly after the
// current day with partial results.
func (s *Simulation) Run(ctx context.Context) (*SimulationResult, error) {
	s.mu.Lock()
	if s.state != StateNotStarted {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: state %s", ErrAlreadyRunning, s.state)
	}
	s.state = StateRunning
	s.startedReal = s.deps.Now()
	s.mu.Unlock()

	s.deps.Logger.Info("simulation starting", map[string]interface{}{
		"run_id": s.cfg.RunID,
		"period": s.cfg.PeriodName,
		"days":   s.cfg.DaysToSimulate,
		"users":  s.cfg.InitialUsers,
		"seed":   s.rng.Seed(),
	})

	s.mu.Lock()
	s.seedPopulation()
	s.takeSnapshotLocked("initial")
	s.mu.Unlock()

	total := s.cfg.DaysToSimulate
	aborted := false
	for day := 1; day <= total; day++ {
		if s.waitIfPaused(ctx) {
			break // stopped or cancelled
		}
		if s.pacer != nil {
			if err := s.pacer.Wait(ctx); err != nil {
				break
			}
		}

		if err := s.StepDay(); err != nil {
			s.deps.Logger.Error("day step failed", map[string]interface{}{
				"run_id": s.cfg.RunID, "day": day, "error": err.Error(),
			})
			if s.failureCount() >= maxConsecutiveFailures {
				s.noteCriticalIssue("day step aborted")
				aborted = true
				break
			}
			continue
		}

		s.mu.Lock()
		if day%s.cfg.SnapshotIntervalDays == 0 {
			s.takeSnapshotLocked("")
		}
		s.mu.Unlock()

		if day%s.cfg.BatchSize == 0 {
			s.publishProgress(day, total)
			runtime.Gosched()
		}
	}

	return s.finalize(aborted)
}

// waitIfPaused blocks while the simulation is paused, polling with a short
// real-time delay. It returns true when the run should end (stop requested
// or context cancelled). Pausing draws nothing from the RNG, so a paused
// and resumed run replays identically to an uninterrupted one.
func (s *Simulation) waitIfPaused(ctx context.Context) bool {
	for {
		select {
		case <-ctx.Done():
			return true
		default:
		}
		s.mu.RLock()
		stop := s.stopRequested
		paused := s.state == StatePaused
		s.mu.RUnlock()
		if stop {
			return true
		}
		if !paused {
			return false
		}
		time.Sleep(20 * time.Millisecond)
	}
}

// Pause suspends the run at the next day boundary.
func (s *Simulation) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return fmt.Errorf("%w: pause from %s", ErrInvalidTransition, s.state)
	}
	s.state = StatePaused
	return nil
}

// Resume continues a paused run.
func (s *Simulation) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePaused {
		return fmt.Errorf("%w: resume from %s", ErrInvalidTransition, s.state)
	}
	s.state = StateRunning
	return nil
}

// Stop ends the run after the current day completes. Terminal: a stopped
// simulation cannot be resumed or rerun.
func (s *Simulation) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateRunning, StatePaused:
		s.stopRequested = true
		s.state = StateStopped
		return nil
	default:
		return fmt.Errorf("%w: stop from %s", ErrInvalidTransition, s.state)
	}
}

// StatusReport is the control-plane view of a run.
type StatusReport struct {
	State           State         `json:"state"`
	Running         bool          `json:"running"`
	Paused          bool          `json:"paused"`
	CurrentDay      int           `json:"current_day"`
	TotalDays       int           `json:"total_days"`
	PercentComplete float64       `json:"percent_complete"`
	Metrics         SystemMetrics `json:"metrics"`
}

// Status reads a consistent snapshot of the last fully completed day.
func (s *Simulation) Status() StatusReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	day := s.clock.Day()
	pct := 0.0
	if s.cfg.DaysToSimulate > 0 {
		pct = math.Min(100, float64(day)/float64(s.cfg.DaysToSimulate)*100)
	}
	return StatusReport{
		State:           s.state,
		Running:         s.state == StateRunning,
		Paused:          s.state == StatePaused,
		CurrentDay:      day,
		TotalDays:       s.cfg.DaysToSimulate,
		PercentComplete: pct,
		Metrics:         s.lastCompleted.Copy(),
	}
}

// Metrics returns the last completed day's metric block.
func (s *Simulation) Metrics() SystemMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastCompleted.Copy()
}

// MarketConditions returns the current market state.
func (s *Simulation) MarketConditions() MarketConditions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.market.Conditions()
}

// Snapshots returns the snapshot history taken so far.
func (s *Simulation) Snapshots() []Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Snapshot, len(s.snapshots))
	copy(out, s.snapshots)
	return out
}

// EventFilter narrows Events queries.
type EventFilter struct {
	Category EventCategory
	Impact   ImpactLevel
	Limit    int
}

// Events returns the newest matching events, oldest first, at most
// filter.Limit entries (unlimited when <= 0).
func (s *Simulation) Events(filter EventFilter) []SimulationEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]SimulationEvent, 0, 256)
	for _, ev := range s.events {
		if filter.Category != "" && ev.Category != filter.Category {
			continue
		}
		if filter.Impact != "" && ev.Impact != filter.Impact {
			continue
		}
		matched = append(matched, ev)
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[len(matched)-filter.Limit:]
	}
	return matched
}

// Result returns the final result once the run has ended, nil before.
func (s *Simulation) Result() *SimulationResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

func (s *Simulation) failureCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.consecFailures
}

func (s *Simulation) noteCriticalIssue(issue string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criticalIssues = append(s.criticalIssues, issue)
}

func (s *Simulation) publishProgress(day, total int) {
	if s.deps.Observers.OnProgress == nil {
		return
	}
	s.mu.RLock()
	p := Progress{
		Day:             day,
		TotalDays:       total,
		PercentComplete: float64(day) / float64(total) * 100,
		Users:           s.lastCompleted.Users.Total,
		MRR:             s.lastCompleted.Revenue.MRR,
		State:           s.state,
	}
	s.mu.RUnlock()
	s.deps.Observers.OnProgress(p)
}

// emitLocked appends an event and notifies the observer. Callers hold the
// write lock.
func (s *Simulation) emitLocked(ev SimulationEvent) {
	s.events = append(s.events, ev)
	if s.deps.Observers.OnEvent != nil {
		s.deps.Observers.OnEvent(ev)
	}
}

// seedPopulation creates the initial users and catalog before day 1. It
// runs exactly once, from Run or from the first direct StepDay call.
func (s *Simulation) seedPopulation() {
	if s.seeded {
		return
	}
	s.seeded = true
	simNow := s.clock.Now()

	for i := int64(0); i < s.cfg.InitialUsers; i++ {
		if !s.users.HasSampleCapacity() {
			break
		}
		u := s.gen.NewUser(simNow)
		u.CreatedAt = simNow.AddDate(0, 0, -s.rng.Between(0, 365))
		u.LastActiveAt = simNow.AddDate(0, 0, -s.rng.Between(0, 13))
		s.users.AdmitUser(u)
	}
	if rest := s.cfg.InitialUsers - s.users.Total(); rest > 0 {
		s.users.AddUsers(rest, BlendedTierDistribution(), ArchetypeDistribution(), WeightedAvgRevenue())
	}

	var seededStreams int64
	for i := 0; i < s.cfg.InitialReleases; i++ {
		ownerID := "catalog_import"
		if owner := s.users.RandomSample(s.rng, nil); owner != nil {
			ownerID = owner.ID
			owner.TotalReleases++
		}
		r := s.gen.NewRelease(ownerID, simNow)
		r.ReleasedAt = simNow.AddDate(0, 0, -s.rng.Between(7, 365))
		r.TotalStreams = int64(s.rng.Between(1000, 500000))
		r.PeakStreams = int64(s.rng.Between(200, 5000))
		r.Revenue = float64(r.TotalStreams) * revenuePerStream
		seededStreams += r.TotalStreams
		s.releases = append(s.releases, r)
		s.active = append(s.active, r)
	}
	s.users.AddStreams(seededStreams)

	// Lifetime revenue opens with the seed money plus the booked expected
	// LTV of the launch population.
	s.metrics.Revenue.Lifetime = s.cfg.SeedMoney + float64(s.cfg.InitialUsers)*WeightedAvgLTV()

	s.syncAggregatesLocked()
	s.initialMRR = s.metrics.Revenue.MRR
	s.lastCompleted = s.metrics.Copy()
}

// InjectEvent lets the control surface force an event mid-run (manual
// what-if probing). Supported kinds: user_signup, market, system.
func (s *Simulation) InjectEvent(kind string, params map[string]interface{}) (SimulationEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	realNow, simNow, day := s.deps.Now(), s.clock.Now(), s.clock.Day()

	switch kind {
	case EventUserSignup, "user":
		u := s.gen.NewUser(simNow)
		s.users.AdmitUser(u)
		s.metrics.Users.NewToday++
		s.totalSignups++
		s.syncAggregatesLocked()
		ev := s.gen.SignupEvent(u, day, realNow, simNow, 1)
		s.emitLocked(ev)
		return ev, nil
	case "market":
		impact := s.rng.Range(-0.20, 0.20)
		if v, ok := params["impact"].(float64); ok {
			impact = clamp(v, -0.20, 0.20)
		}
		kindLabel := "industry_trend"
		if v, ok := params["kind"].(string); ok && v != "" {
			kindLabel = v
		}
		level := ImpactMedium
		if math.Abs(impact) > 0.12 {
			level = ImpactHigh
		}
		ev := s.gen.newEvent("market_"+kindLabel, day, realNow, simNow, 1, level, MarketData{
			Kind:         kindLabel,
			Impact:       impact,
			DurationDays: 30,
			Description:  marketEventDescription(kindLabel, impact),
		})
		s.market.AdjustGrowthMultiplier(impact * 0.25)
		s.emitLocked(ev)
		return ev, nil
	case "system":
		severity := s.rng.Range(0.3, 1.0)
		if v, ok := params["severity"].(float64); ok {
			severity = clamp(v, 0, 1)
		}
		ev := s.gen.InternalFailureEvent(day, realNow, simNow, "manual injection")
		ev.Type = "system_manual"
		ev.Impact = impactForSeverity(severity)
		ev.Data = SystemData{Kind: "manual", Severity: severity, AutoResolved: severity <= 0.95, Detail: "manual injection"}
		s.metrics.Platform.Uptime = clamp(s.metrics.Platform.Uptime-0.001, 0, 100)
		s.metrics.Autonomous.InterventionsRequired++
		s.emitLocked(ev)
		return ev, nil
	default:
		return SimulationEvent{}, fmt.Errorf("%w: unsupported event kind %q", ErrConfigInvalid, kind)
	}
}

func impactForSeverity(severity float64) ImpactLevel {
	switch {
	case severity > 0.95:
		return ImpactCritical
	case severity > 0.80:
		return ImpactHigh
	case severity > 0.50:
		return ImpactMedium
	default:
		return ImpactLow
	}
}
