package sim

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the engine's public operations.
var (
	// ErrConfigInvalid wraps any construction-time validation failure.
	ErrConfigInvalid = errors.New("simulation config invalid")
	// ErrAlreadyRunning rejects run() on anything but a fresh simulation.
	ErrAlreadyRunning = errors.New("simulation already running")
	// ErrInvalidTransition rejects pause/resume/stop outside the state machine.
	ErrInvalidTransition = errors.New("invalid simulation state transition")
	// ErrStoreUnavailable marks snapshot-store write failures (non-fatal).
	ErrStoreUnavailable = errors.New("snapshot store unavailable")
)

// State is the engine lifecycle state.
type State string

const (
	StateNotStarted State = "not_started"
	StateRunning    State = "running"
	StatePaused     State = "paused"
	StateStopped    State = "stopped"
	StateCompleted  State = "completed"
)

// DefaultSimStartDate anchors the simulated calendar. It is fixed (not
// wall clock) so that seeded runs started on different real days still
// replay identically through the seasonal curves.
var DefaultSimStartDate = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// Config describes one simulation run.
type Config struct {
	RunID          string `json:"run_id,omitempty"`
	PeriodName     string `json:"period_name"`
	DaysToSimulate int    `json:"days_to_simulate"`

	InitialUsers    int64   `json:"initial_users"`
	InitialReleases int     `json:"initial_releases"`
	SeedMoney       float64 `json:"seed_money"`

	EnableAutonomousSystems  bool `json:"enable_autonomous_systems"`
	EnableSystemFailures     bool `json:"enable_system_failures"`
	EnableMarketFluctuations bool `json:"enable_market_fluctuations"`
	RealTimeTracking         bool `json:"real_time_tracking"`
	DetailedMode             bool `json:"detailed_mode"`

	SnapshotIntervalDays int   `json:"snapshot_interval_days"`
	Seed                 int64 `json:"seed,omitempty"`

	MaxSampleSize   int     `json:"max_sample_size"`
	BatchSize       int     `json:"batch_size"`
	MRRFloorPerUser float64 `json:"mrr_floor_per_user"`

	// InitialTrends seeds the market model's trend labels (e.g. from the
	// industry feed). Empty uses the built-in defaults.
	InitialTrends []string `json:"initial_trends,omitempty"`

	// SimStartDate anchors the simulated calendar; zero value uses
	// DefaultSimStartDate.
	SimStartDate time.Time `json:"sim_start_date,omitempty"`
}

// ApplyDefaults fills the zero values that have calibrated defaults.
// InitialUsers and InitialReleases are left alone: zero is a valid,
// bootstrap-from-nothing configuration.
func (c *Config) ApplyDefaults() {
	if c.RunID == "" {
		c.RunID = "local"
	}
	if c.DaysToSimulate == 0 && c.PeriodName != "" {
		if days, ok := PeriodDays(c.PeriodName); ok {
			c.DaysToSimulate = days
		}
	}
	if c.SnapshotIntervalDays == 0 {
		// Roughly one snapshot per simulated "page": daily up to a year,
		// then one per year-equivalent of days.
		c.SnapshotIntervalDays = c.DaysToSimulate / 365
		if c.SnapshotIntervalDays < 1 {
			c.SnapshotIntervalDays = 1
		}
	}
	if c.MaxSampleSize == 0 {
		c.MaxSampleSize = DefaultMaxSampleSize
	}
	if c.BatchSize == 0 {
		c.BatchSize = 10
	}
	if c.MRRFloorPerUser == 0 {
		c.MRRFloorPerUser = 5
	}
	if c.SimStartDate.IsZero() {
		c.SimStartDate = DefaultSimStartDate
	}
}

// Validate fails fast on configurations run() could not honor.
func (c Config) Validate() error {
	if c.PeriodName != "" {
		days, ok := PeriodDays(c.PeriodName)
		if !ok {
			return fmt.Errorf("%w: unknown period %q", ErrConfigInvalid, c.PeriodName)
		}
		if c.DaysToSimulate != 0 && c.DaysToSimulate != days {
			return fmt.Errorf("%w: days_to_simulate %d inconsistent with period %q (%d days)",
				ErrConfigInvalid, c.DaysToSimulate, c.PeriodName, days)
		}
	}
	if c.DaysToSimulate <= 0 {
		return fmt.Errorf("%w: days_to_simulate must be positive", ErrConfigInvalid)
	}
	if c.InitialUsers < 0 {
		return fmt.Errorf("%w: initial_users must not be negative", ErrConfigInvalid)
	}
	if c.InitialReleases < 0 {
		return fmt.Errorf("%w: initial_releases must not be negative", ErrConfigInvalid)
	}
	if c.SeedMoney < 0 {
		return fmt.Errorf("%w: seed_money must not be negative", ErrConfigInvalid)
	}
	if c.SnapshotIntervalDays < 1 {
		return fmt.Errorf("%w: snapshot_interval_days must be >= 1", ErrConfigInvalid)
	}
	if c.MaxSampleSize < 1 {
		return fmt.Errorf("%w: max_sample_size must be >= 1", ErrConfigInvalid)
	}
	return nil
}
