package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/20lawsobk/maxbooster7.5-sub011/internal/api"
	"github.com/20lawsobk/maxbooster7.5-sub011/internal/config"
	"github.com/20lawsobk/maxbooster7.5-sub011/internal/logx"
	"github.com/20lawsobk/maxbooster7.5-sub011/internal/sim"
	"github.com/20lawsobk/maxbooster7.5-sub011/internal/store"
	"github.com/20lawsobk/maxbooster7.5-sub011/internal/trends"
)

// checkPortAvailable verifies that the target port is not already in use.
// This prevents confusion from a stale process occupying the port.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

// buildStore assembles the snapshot store chain from config: backend,
// optional gzip compression, optional circuit breaker.
func buildStore(cfg config.StoreConfig, log zerolog.Logger) (sim.SnapshotStore, error) {
	var snap sim.SnapshotStore
	var err error

	switch cfg.Backend {
	case "none":
		return nil, nil
	case "local":
		snap, err = store.NewLocal(cfg.Local.Dir)
	case "s3":
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		snap, err = store.NewS3(ctx, store.S3Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Profile:   cfg.S3.Profile,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			KeyPrefix: cfg.S3.KeyPrefix,
		})
	case "redis":
		snap, err = store.NewRedis(cfg.Redis.URL, cfg.Redis.KeyPrefix,
			time.Duration(cfg.Redis.TTLHours)*time.Hour)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Compress {
		snap = store.NewGzip(snap)
	}
	if cfg.Breaker {
		snap = store.NewBreaker(snap, log)
	}
	return snap, nil
}

func main() {
	fmt.Println("╔════════════════════════════════════════════════════════════╗")
	fmt.Println("║  MAXBOOSTER Real-Life Simulation Engine (cmd/server)       ║")
	fmt.Println("║  Time-accelerated business simulation + live control API  ║")
	fmt.Println("╚════════════════════════════════════════════════════════════╝")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	log := logx.New(cfg.Logging.Level, cfg.Logging.Console)

	// Pre-flight check: verify the target port is available
	if err := checkPortAvailable(cfg.Server.Host, cfg.Server.Port); err != nil {
		log.Fatal().Err(err).Msg("pre-flight check failed")
	}
	log.Info().Int("port", cfg.Server.Port).Msg("pre-flight check passed")

	// Snapshot store
	snapStore, err := buildStore(cfg.Store, log)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("failed to initialize snapshot store")
	}
	if snapStore != nil {
		log.Info().
			Str("backend", cfg.Store.Backend).
			Bool("compress", cfg.Store.Compress).
			Bool("breaker", cfg.Store.Breaker).
			Msg("snapshot store initialized")
	} else {
		log.Info().Msg("snapshot persistence disabled (backend: none)")
	}

	// Seed the market's trend list from industry feeds. Best effort: runs
	// fall back to the built-in trend pool when feeds are unreachable.
	var initialTrends []string
	if cfg.Trends.Enabled {
		fetcher := trends.NewFetcher(cfg.Trends.Feeds, log)
		tctx, tcancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.Trends.TimeoutSeconds)*time.Second)
		initialTrends = fetcher.FetchTrends(tctx)
		tcancel()
		if len(initialTrends) > 0 {
			log.Info().Strs("trends", initialTrends).Msg("market trends seeded from feeds")
		} else {
			log.Warn().Msg("no trends extracted from feeds, using built-in pool")
		}
	}

	hub := api.NewHub(log, cfg.Simulation.StreamRatePerSec, cfg.Simulation.StreamBurst)

	registry := api.NewRegistry(api.RegistryOptions{
		Logger:        log,
		Store:         snapStore,
		Hub:           hub,
		InitialTrends: initialTrends,
		DefaultSeed:   cfg.Simulation.DefaultSeed,
		LogLines:      cfg.Simulation.LogBufferLines,
		MaxConcurrent: cfg.Simulation.MaxConcurrentRuns,
	})

	server := api.NewServer(cfg.Server, registry, hub, log)

	// Graceful shutdown on SIGINT/SIGTERM
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Info().Str("addr", addr).Msg("starting server")
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	log.Info().
		Int("acceleration_percent", sim.AccelerationPercent).
		Int("periods", len(sim.Periods())).
		Msg("simulation engine ready")

	<-done
	log.Info().Msg("shutting down...")

	// Stop running simulations first so final snapshots land before the
	// store closes.
	registry.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	if snapStore != nil {
		if err := snapStore.Close(); err != nil {
			log.Error().Err(err).Msg("snapshot store close error")
		}
	}

	log.Info().Msg("server stopped")
}
