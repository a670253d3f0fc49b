//go:build ignore
// +build ignore

// Snapshot Store Benchmark Tool
// Measures write/read/list throughput of the snapshot persistence backends
// using synthetic daily snapshots shaped like real engine output.
//
// Usage:
//   go run scripts/snapshot_benchmark.go \
//     --backend=local \
//     --dir=/tmp/snapbench \
//     --runs=50 \
//     --days=365 \
//     --workers=8
//
// Or against Redis with gzip compression:
//   go run scripts/snapshot_benchmark.go \
//     --backend=redis \
//     --redis-url=redis://localhost:6379/0 \
//     --compress \
//     --runs=20 --days=90
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/20lawsobk/maxbooster7.5-sub011/internal/sim"
	"github.com/20lawsobk/maxbooster7.5-sub011/internal/store"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

type BenchConfig struct {
	Backend  string // local | redis
	Dir      string
	RedisURL string
	Compress bool

	Runs    int // synthetic simulation runs
	Days    int // snapshots per run
	Events  int // trailing events embedded in each snapshot
	Workers int
}

func DefaultBenchConfig() *BenchConfig {
	return &BenchConfig{
		Backend: "local",
		Dir:     "/tmp/snapbench",
		Runs:    50,
		Days:    365,
		Events:  100,
		Workers: runtime.NumCPU(),
	}
}

// =============================================================================
// SYNTHETIC SNAPSHOTS
// =============================================================================

// syntheticSnapshot builds a snapshot the size and shape of what a mature
// run produces: full metric block, market state and a trailing event window.
func syntheticSnapshot(runID string, day, events int, rng *rand.Rand) sim.Snapshot {
	now := time.Now()
	simNow := now.AddDate(0, 0, day)

	m := sim.NewSystemMetrics(now, simNow)
	m.Users.Total = int64(10000 + day*37)
	m.Users.Active = int64(float64(m.Users.Total) * 0.7)
	m.Users.NewToday = int64(rng.Intn(400))
	m.Users.ByTier[sim.TierMonthly] = m.Users.Total * 70 / 100
	m.Users.ByTier[sim.TierYearly] = m.Users.Total * 25 / 100
	m.Users.ByTier[sim.TierLifetime] = m.Users.Total * 5 / 100
	m.Revenue.MRR = float64(m.Users.Total) * 3.4
	m.Revenue.ARR = m.Revenue.MRR * 12
	m.Streams.Total = int64(day) * 1_500_000
	m.Streams.Daily = 1_500_000
	m.Social.TotalFollowers = m.Users.Total * 180

	recent := make([]sim.SimulationEvent, events)
	for i := range recent {
		recent[i] = sim.SimulationEvent{
			ID:          fmt.Sprintf("evt_%s_%d_%d", runID, day, i),
			Type:        "user_signup",
			Category:    sim.CategoryUser,
			Day:         day,
			Timestamp:   now,
			SimTime:     simNow,
			Probability: rng.Float64(),
			Triggered:   true,
			Impact:      sim.ImpactLow,
			Handled:     true,
		}
	}

	return sim.Snapshot{
		Label:     fmt.Sprintf("day_%05d", day),
		Period:    "benchmark",
		Day:       day,
		SimDate:   simNow,
		Timestamp: now,
		Metrics:   m,
		Market: sim.MarketConditions{
			GrowthMultiplier:      1.0 + rng.Float64()*0.2,
			CompetitionLevel:      0.6,
			EconomicHealth:        0.8,
			StreamingMarketGrowth: 0.12,
			Trends:                []string{"ai_mastering", "short_form_video"},
			DominantPlatforms:     []string{"spotify", "tiktok", "youtube"},
		},
		RecentEvents: recent,
		Autonomous:   map[string]string{"marketing": "active", "distribution": "active"},
	}
}

// =============================================================================
// BENCHMARK RUNNER
// =============================================================================

type BenchRunner struct {
	cfg   *BenchConfig
	store sim.SnapshotStore

	writes       atomic.Int64
	reads        atomic.Int64
	bytesWritten atomic.Int64
	errors       atomic.Int64
}

func NewBenchRunner(cfg *BenchConfig) (*BenchRunner, error) {
	var snap sim.SnapshotStore
	var err error

	switch cfg.Backend {
	case "local":
		snap, err = store.NewLocal(cfg.Dir)
	case "redis":
		snap, err = store.NewRedis(cfg.RedisURL, "snapbench", time.Hour)
	default:
		return nil, fmt.Errorf("unknown backend %q (want local or redis)", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Compress {
		snap = store.NewGzip(snap)
	}
	// Wrap in the breaker exactly as cmd/server does, so measured numbers
	// include its bookkeeping overhead.
	snap = store.NewBreaker(snap, zerolog.New(os.Stderr).Level(zerolog.WarnLevel))

	return &BenchRunner{cfg: cfg, store: snap}, nil
}

func (r *BenchRunner) Run() error {
	defer r.store.Close()
	total := r.cfg.Runs * r.cfg.Days

	fmt.Println("================================================================================")
	fmt.Println("  SNAPSHOT STORE BENCHMARK")
	fmt.Println("================================================================================")
	fmt.Printf("  Backend:   %s (compress=%v)\n", r.cfg.Backend, r.cfg.Compress)
	fmt.Printf("  Workload:  %d runs x %d days = %d snapshots, %d events each\n",
		r.cfg.Runs, r.cfg.Days, total, r.cfg.Events)
	fmt.Printf("  Workers:   %d\n\n", r.cfg.Workers)

	writeDur := r.phase("WRITE", r.writeWorker)
	readDur := r.phase("READ", r.readWorker)

	listStart := time.Now()
	var listed int
	for run := 0; run < r.cfg.Runs; run++ {
		keys, err := r.store.List(sim.SnapshotPrefix(r.benchRunID(run)))
		if err != nil {
			return fmt.Errorf("list failed: %w", err)
		}
		listed += len(keys)
	}
	listDur := time.Since(listStart)

	if listed != total {
		return fmt.Errorf("list returned %d keys, expected %d", listed, total)
	}
	r.printResults(writeDur, readDur, listDur, total)
	return nil
}

// phase fans the per-snapshot work out over the worker pool and times it.
func (r *BenchRunner) phase(name string, work func(runID string, day int)) time.Duration {
	fmt.Printf("  %s phase...\n", name)
	jobs := make(chan [2]int, r.cfg.Workers*4)
	var wg sync.WaitGroup

	start := time.Now()
	for w := 0; w < r.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				work(r.benchRunID(j[0]), j[1])
			}
		}()
	}
	for run := 0; run < r.cfg.Runs; run++ {
		for day := 1; day <= r.cfg.Days; day++ {
			jobs <- [2]int{run, day}
		}
	}
	close(jobs)
	wg.Wait()
	return time.Since(start)
}

func (r *BenchRunner) benchRunID(run int) string {
	return fmt.Sprintf("bench_%04d", run)
}

func (r *BenchRunner) writeWorker(runID string, day int) {
	rng := rand.New(rand.NewSource(int64(day)))
	snap := syntheticSnapshot(runID, day, r.cfg.Events, rng)
	data, err := json.Marshal(snap)
	if err != nil {
		r.errors.Add(1)
		return
	}
	if err := r.store.Write(sim.SnapshotKey(runID, day), data); err != nil {
		r.errors.Add(1)
		return
	}
	r.writes.Add(1)
	r.bytesWritten.Add(int64(len(data)))
}

func (r *BenchRunner) readWorker(runID string, day int) {
	data, err := r.store.Read(sim.SnapshotKey(runID, day))
	if err != nil || len(data) == 0 {
		r.errors.Add(1)
		return
	}
	r.reads.Add(1)
}

// =============================================================================
// RESULTS
// =============================================================================

func (r *BenchRunner) printResults(writeDur, readDur, listDur time.Duration, total int) {
	writesPerSec := float64(r.writes.Load()) / writeDur.Seconds()
	readsPerSec := float64(r.reads.Load()) / readDur.Seconds()
	mb := float64(r.bytesWritten.Load()) / (1024 * 1024)

	fmt.Println("\n================================================================================")
	fmt.Println("  RESULTS")
	fmt.Println("================================================================================")
	fmt.Printf("  Writes:    %d in %s (%.0f/sec, %.1f MB total, %.1f MB/s)\n",
		r.writes.Load(), writeDur.Round(time.Millisecond), writesPerSec, mb, mb/writeDur.Seconds())
	fmt.Printf("  Reads:     %d in %s (%.0f/sec)\n",
		r.reads.Load(), readDur.Round(time.Millisecond), readsPerSec)
	fmt.Printf("  List:      %d runs in %s\n", r.cfg.Runs, listDur.Round(time.Millisecond))
	fmt.Printf("  Errors:    %d\n\n", r.errors.Load())

	// A year-long run snapshots once per simulated day, i.e. roughly every
	// 0.48s of real time. 100 concurrent runs therefore need ~208 writes/sec.
	switch {
	case writesPerSec >= 2000:
		fmt.Println("  RESULT: EXCELLENT - Sustains 1000+ concurrent simulation runs")
	case writesPerSec >= 500:
		fmt.Println("  RESULT: GOOD - Sustains 200+ concurrent simulation runs")
	case writesPerSec >= 210:
		fmt.Println("  RESULT: ACCEPTABLE - Sustains 100 concurrent simulation runs")
	default:
		fmt.Println("  RESULT: NEEDS OPTIMIZATION - Below the 100-run target")
	}
	fmt.Println("================================================================================")
}

// =============================================================================
// MAIN
// =============================================================================

func main() {
	cfg := DefaultBenchConfig()

	flag.StringVar(&cfg.Backend, "backend", cfg.Backend, "Store backend: local or redis")
	flag.StringVar(&cfg.Dir, "dir", cfg.Dir, "Directory for the local backend")
	flag.StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "Redis URL for the redis backend")
	flag.BoolVar(&cfg.Compress, "compress", cfg.Compress, "Gzip snapshots before writing")
	flag.IntVar(&cfg.Runs, "runs", cfg.Runs, "Number of synthetic simulation runs")
	flag.IntVar(&cfg.Days, "days", cfg.Days, "Snapshots per run")
	flag.IntVar(&cfg.Events, "events", cfg.Events, "Trailing events per snapshot")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "Number of parallel workers")
	flag.Parse()

	runner, err := NewBenchRunner(cfg)
	if err != nil {
		log.Fatalf("Benchmark setup failed: %v", err)
	}
	if err := runner.Run(); err != nil {
		log.Fatalf("Benchmark failed: %v", err)
	}
}
