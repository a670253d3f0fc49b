package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/20lawsobk/maxbooster7.5-sub011/internal/logx"
	"github.com/20lawsobk/maxbooster7.5-sub011/internal/report"
	"github.com/20lawsobk/maxbooster7.5-sub011/internal/sim"
	"github.com/20lawsobk/maxbooster7.5-sub011/internal/store"
)

func newRunCmd() *cobra.Command {
	var (
		period    string
		seed      int64
		users     int64
		releases  int
		seedMoney float64
		detailed  bool
		outPath   string
		snapsDir  string
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a headless simulation and print the verdict",
		Long: `Run one simulation to completion without the HTTP server.

Example usage:
  simctl run --period 1_month --seed 12345 --users 100 --releases 50
  simctl run --period 1_year --detailed --out report.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := sim.Config{
				PeriodName:               period,
				Seed:                     seed,
				InitialUsers:             users,
				InitialReleases:          releases,
				SeedMoney:                seedMoney,
				DetailedMode:             detailed,
				EnableAutonomousSystems:  true,
				EnableSystemFailures:     true,
				EnableMarketFluctuations: true,
			}

			deps := sim.Dependencies{
				Observers: sim.Observers{
					OnProgress: func(p sim.Progress) {
						fmt.Printf("\r  day %d/%d (%.1f%%)  users=%d mrr=$%.2f   ",
							p.Day, p.TotalDays, p.PercentComplete, p.Users, p.MRR)
					},
				},
			}
			if verbose {
				deps.Logger = logx.NewAdapter(logx.New("debug", true), "sim")
			}
			if snapsDir != "" {
				local, err := store.NewLocal(snapsDir)
				if err != nil {
					return fmt.Errorf("snapshot dir: %w", err)
				}
				defer local.Close()
				deps.SnapshotStore = local
			}

			eng, err := sim.New(cfg, deps)
			if err != nil {
				return err
			}

			// Ctrl-C stops the run at the next day boundary; the partial
			// result still prints.
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			effective := eng.Config()
			fmt.Printf("Simulating %s (%d days, seed %d)...\n",
				effective.PeriodName, effective.DaysToSimulate, eng.Seed())

			res, err := eng.Run(ctx)
			fmt.Println()
			if err != nil {
				return err
			}

			printResult(res)

			if outPath != "" {
				md, err := report.NewRenderer().Markdown(res)
				if err != nil {
					return fmt.Errorf("rendering report: %w", err)
				}
				if err := os.WriteFile(outPath, []byte(md), 0644); err != nil {
					return fmt.Errorf("writing report: %w", err)
				}
				fmt.Printf("\nReport written: %s\n", outPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&period, "period", "1_month", "Period preset name (see 'simctl periods')")
	cmd.Flags().Int64Var(&seed, "seed", 0, "RNG seed; 0 seeds from the wall clock")
	cmd.Flags().Int64Var(&users, "users", 100, "Initial user count")
	cmd.Flags().IntVar(&releases, "releases", 50, "Initial release catalog size")
	cmd.Flags().Float64Var(&seedMoney, "money", 10000, "Starting cash balance")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "Hour-by-hour mode instead of day steps")
	cmd.Flags().StringVar(&outPath, "out", "", "Write the Markdown report to this file")
	cmd.Flags().StringVar(&snapsDir, "snapshots", "", "Persist snapshots under this directory")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Log engine internals to stderr")

	return cmd
}

func printResult(res *sim.SimulationResult) {
	state := "completed"
	if !res.Completed {
		state = "stopped early"
	}
	fmt.Printf("\n=== Simulation %s: %s, %d days in %s ===\n",
		state, res.Config.PeriodName, res.SimulatedDays, res.RealDuration.Round(10*time.Millisecond))
	fmt.Printf("Verdict: %s\n\n", res.Verdict())

	m := res.FinalMetrics
	fmt.Println("Final metrics:")
	fmt.Printf("  Users:    %d total, %d active (+%d signups, -%d churned)\n",
		m.Users.Total, m.Users.Active, res.TotalSignups, res.TotalChurn)
	fmt.Printf("  Revenue:  MRR $%.2f, ARR $%.2f, lifetime $%.2f\n",
		m.Revenue.MRR, m.Revenue.ARR, m.Revenue.Lifetime)
	fmt.Printf("  Streams:  %d total across %d viral releases\n",
		m.Streams.Total, m.Streams.ViralReleases)
	fmt.Printf("  Platform: %.2f%% uptime, %.0fms response\n",
		m.Platform.Uptime, m.Platform.ResponseTimeMs)

	k := res.KPIs
	fmt.Println("\nKPIs:")
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "  user growth\t%.1f%%/mo\n", k.UserGrowthRate)
	fmt.Fprintf(w, "  revenue growth\t%.1f%%/mo\n", k.RevenueGrowthRate)
	fmt.Fprintf(w, "  churn\t%.2f%%/mo\n", k.ChurnRate)
	fmt.Fprintf(w, "  LTV / CAC\t$%.2f / $%.2f (%.1fx)\n", k.LTV, k.CAC, k.LTVToCAC)
	fmt.Fprintf(w, "  viral coefficient\t%.2f\n", k.ViralCoefficient)
	fmt.Fprintf(w, "  NPS\t%.0f\n", k.NPS)
	fmt.Fprintf(w, "  uptime\t%.2f%%\n", k.SystemUptime)
	fmt.Fprintf(w, "  autonomous efficiency\t%.1f%%\n", k.AutonomousEfficiency)
	w.Flush()

	t := res.SystemTests
	fmt.Printf("\nSystem tests: %d passed, %d failed, %d warnings\n", t.Passed, t.Failed, t.Warnings)
	for _, issue := range t.CriticalIssues {
		fmt.Printf("  CRITICAL: %s\n", issue)
	}
	if len(res.Recommendations) > 0 {
		fmt.Println("\nRecommendations:")
		for i, rec := range res.Recommendations {
			fmt.Printf("  %d. %s\n", i+1, rec)
		}
	}
}
