package api

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/20lawsobk/maxbooster7.5-sub011/internal/logx"
	"github.com/20lawsobk/maxbooster7.5-sub011/internal/sim"
)

// ErrTooManyRuns rejects new runs once the configured concurrency ceiling
// is reached.
var ErrTooManyRuns = errors.New("too many concurrent simulations")

// NewRunID mints a simulation id: sim_<unix_ms>_<6-char-base36>.
func NewRunID(now time.Time) string {
	return fmt.Sprintf("sim_%d_%s", now.UnixMilli(), randomSuffix())
}

// NewFullRunID mints a full-lifecycle id: full_<unix_ms>.
func NewFullRunID(now time.Time) string {
	return fmt.Sprintf("full_%d", now.UnixMilli())
}

func randomSuffix() string {
	s := strconv.FormatUint(uint64(uuid.New().ID()), 36)
	const n = 6
	if len(s) > n {
		s = s[len(s)-n:]
	}
	for len(s) < n {
		s = "0" + s
	}
	return s
}

// RunHandle tracks one control-plane entry: a single simulation, or a
// full-lifecycle sequence stepping through every period preset.
type RunHandle struct {
	ID        string
	FullRun   bool
	CreatedAt time.Time
	Logs      *LogRing

	cancel context.CancelFunc

	mu      sync.Mutex
	current *sim.Simulation
	presets []sim.PeriodPreset
	seqIdx  int
	results []*sim.SimulationResult
	stopped bool
	done    bool
	err     error
}

// Current returns the engine currently attached to the handle.
func (h *RunHandle) Current() *sim.Simulation {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// LastResult returns the most recent finished result, nil if none yet.
func (h *RunHandle) LastResult() *sim.SimulationResult {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.results) == 0 {
		return nil
	}
	return h.results[len(h.results)-1]
}

// Results returns all finished results (one per completed period).
func (h *RunHandle) Results() []*sim.SimulationResult {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*sim.SimulationResult(nil), h.results...)
}

// Done reports whether the handle has finished all its work.
func (h *RunHandle) Done() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.done
}

// Err returns the terminal error, if the run ended with one.
func (h *RunHandle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// SequencePosition returns (index, total) of the period sequence; total is
// 1 for plain runs.
func (h *RunHandle) SequencePosition() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.FullRun {
		return 0, 1
	}
	return h.seqIdx, len(h.presets)
}

// Stop ends the handle's work: the current engine finishes its day and, for
// full runs, no further presets start.
func (h *RunHandle) Stop() error {
	h.mu.Lock()
	h.stopped = true
	cur := h.current
	h.mu.Unlock()
	if cur == nil {
		return nil
	}
	return cur.Stop()
}

// RegistryOptions wires the collaborators every run receives.
type RegistryOptions struct {
	Logger        zerolog.Logger
	Store         sim.SnapshotStore
	Hub           *Hub
	InitialTrends []string
	DefaultSeed   int64
	LogLines      int
	MaxConcurrent int
}

// Registry owns the process's simulations. The HTTP layer is stateless;
// everything it serves resolves through here.
type Registry struct {
	opts RegistryOptions

	mu   sync.RWMutex
	runs map[string]*RunHandle
}

// NewRegistry builds an empty registry.
func NewRegistry(opts RegistryOptions) *Registry {
	return &Registry{opts: opts, runs: make(map[string]*RunHandle)}
}

// Get resolves a simulation id.
func (r *Registry) Get(id string) (*RunHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.runs[id]
	return h, ok
}

// Counts reports how many handles are running versus done.
func (r *Registry) Counts() (running, completed, total int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, h := range r.runs {
		if h.Done() {
			completed++
		} else {
			running++
		}
	}
	return running, completed, len(r.runs)
}

// Handles returns every registered handle, newest first.
func (r *Registry) Handles() []*RunHandle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*RunHandle, 0, len(r.runs))
	for _, h := range r.runs {
		out = append(out, h)
	}
	return out
}

// Delete stops a run if needed and removes it with its results and logs.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	h, ok := r.runs[id]
	if ok {
		delete(r.runs, id)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	_ = h.Stop()
	if h.cancel != nil {
		h.cancel()
	}
	return true
}

// Shutdown stops every running simulation; in-flight day steps complete.
func (r *Registry) Shutdown() {
	for _, h := range r.Handles() {
		_ = h.Stop()
		if h.cancel != nil {
			h.cancel()
		}
	}
}

func (r *Registry) admit() error {
	if r.opts.MaxConcurrent <= 0 {
		return nil
	}
	running, _, _ := r.Counts()
	if running >= r.opts.MaxConcurrent {
		return fmt.Errorf("%w: %d already running", ErrTooManyRuns, running)
	}
	return nil
}

// Start launches a single simulation and returns its handle immediately;
// the run proceeds on its own goroutine.
func (r *Registry) Start(cfg sim.Config) (*RunHandle, error) {
	if err := r.admit(); err != nil {
		return nil, err
	}

	now := time.Now()
	h := &RunHandle{
		ID:        NewRunID(now),
		CreatedAt: now,
		Logs:      NewLogRing(r.opts.LogLines),
	}

	cfg.RunID = h.ID
	if cfg.Seed == 0 {
		cfg.Seed = r.opts.DefaultSeed
	}
	if len(cfg.InitialTrends) == 0 {
		cfg.InitialTrends = r.opts.InitialTrends
	}

	eng, err := r.buildEngine(h, cfg)
	if err != nil {
		return nil, err
	}
	h.current = eng

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel

	r.register(h)
	go r.runOne(ctx, h, eng)
	return h, nil
}

// StartFull launches the full-lifecycle sequence: every period preset
// back-to-back, shortest first, each with its own engine.
func (r *Registry) StartFull(base sim.Config) (*RunHandle, error) {
	if err := r.admit(); err != nil {
		return nil, err
	}

	now := time.Now()
	h := &RunHandle{
		ID:        NewFullRunID(now),
		FullRun:   true,
		CreatedAt: now,
		Logs:      NewLogRing(r.opts.LogLines),
		presets:   sim.Periods(),
	}

	if base.Seed == 0 {
		base.Seed = r.opts.DefaultSeed
	}
	if len(base.InitialTrends) == 0 {
		base.InitialTrends = r.opts.InitialTrends
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel

	r.register(h)
	go r.runSequence(ctx, h, base)
	return h, nil
}

func (r *Registry) register(h *RunHandle) {
	r.mu.Lock()
	r.runs[h.ID] = h
	r.mu.Unlock()
}

// buildEngine assembles a simulation with the registry's collaborators:
// per-run tee logger, websocket observers, prometheus counters, snapshot
// store.
func (r *Registry) buildEngine(h *RunHandle, cfg sim.Config) (*sim.Simulation, error) {
	zl := r.opts.Logger.With().Str("run_id", cfg.RunID).Logger()

	obs := promObservers()
	if r.opts.Hub != nil {
		// Subscribe under the handle ID, not cfg.RunID: a full-run sequence
		// changes cfg.RunID per period but live clients follow one feed.
		obs = composeObservers(obs, r.opts.Hub.Observers(h.ID))
	}

	deps := sim.Dependencies{
		Logger:        newRunLogger(logx.NewAdapter(zl, "sim"), h.Logs),
		Observers:     obs,
		SnapshotStore: InstrumentStore(r.opts.Store),
	}
	return sim.New(cfg, deps)
}

func (r *Registry) runOne(ctx context.Context, h *RunHandle, eng *sim.Simulation) {
	SimulationsRunning.Inc()
	defer SimulationsRunning.Dec()

	res, err := eng.Run(ctx)

	h.mu.Lock()
	if res != nil {
		h.results = append(h.results, res)
	}
	h.err = err
	h.done = true
	h.mu.Unlock()

	if err != nil {
		r.opts.Logger.Error().Str("run_id", h.ID).Err(err).Msg("simulation run failed")
	}
}

func (r *Registry) runSequence(ctx context.Context, h *RunHandle, base sim.Config) {
	SimulationsRunning.Inc()
	defer SimulationsRunning.Dec()

	for i, preset := range h.presets {
		h.mu.Lock()
		stopped := h.stopped
		h.seqIdx = i
		h.mu.Unlock()
		if stopped || ctx.Err() != nil {
			break
		}

		cfg := base
		cfg.RunID = fmt.Sprintf("%s_%s", h.ID, preset.Name)
		cfg.PeriodName = preset.Name
		cfg.DaysToSimulate = preset.Days
		cfg.SnapshotIntervalDays = 0 // re-derive per horizon

		eng, err := r.buildEngine(h, cfg)
		if err != nil {
			h.mu.Lock()
			h.err = err
			h.mu.Unlock()
			break
		}

		h.mu.Lock()
		h.current = eng
		h.mu.Unlock()

		res, err := eng.Run(ctx)
		h.mu.Lock()
		if res != nil {
			h.results = append(h.results, res)
		}
		if err != nil {
			h.err = err
		}
		h.mu.Unlock()
		if err != nil {
			r.opts.Logger.Error().Str("run_id", cfg.RunID).Err(err).Msg("full-run period failed")
			break
		}
	}

	h.mu.Lock()
	h.done = true
	h.mu.Unlock()
}

// promObservers bumps the prometheus counters as runs progress.
func promObservers() sim.Observers {
	return sim.Observers{
		OnEvent: func(ev sim.SimulationEvent) {
			EventsEmitted.WithLabelValues(string(ev.Category)).Inc()
		},
		OnComplete: func(res *sim.SimulationResult) {
			SimulationsCompleted.WithLabelValues(res.Verdict()).Inc()
			SimulatedDays.Add(float64(res.SimulatedDays))
		},
	}
}

// composeObservers fans one observer set out to two.
func composeObservers(a, b sim.Observers) sim.Observers {
	return sim.Observers{
		OnEvent: func(ev sim.SimulationEvent) {
			if a.OnEvent != nil {
				a.OnEvent(ev)
			}
			if b.OnEvent != nil {
				b.OnEvent(ev)
			}
		},
		OnSnapshot: func(s sim.Snapshot) {
			if a.OnSnapshot != nil {
				a.OnSnapshot(s)
			}
			if b.OnSnapshot != nil {
				b.OnSnapshot(s)
			}
		},
		OnProgress: func(p sim.Progress) {
			if a.OnProgress != nil {
				a.OnProgress(p)
			}
			if b.OnProgress != nil {
				b.OnProgress(p)
			}
		},
		OnComplete: func(res *sim.SimulationResult) {
			if a.OnComplete != nil {
				a.OnComplete(res)
			}
			if b.OnComplete != nil {
				b.OnComplete(res)
			}
		},
	}
}
