package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/20lawsobk/maxbooster7.5-sub011/internal/sim"
)

func newPeriodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "periods",
		Short: "List the selectable simulation horizons",
		Run: func(cmd *cobra.Command, args []string) {
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDAYS\tREAL TIME\tDESCRIPTION")
			for _, p := range sim.Periods() {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
					p.Name, p.Days, p.EstimatedRealTime.Round(time.Second), p.Description)
			}
			w.Flush()

			fmt.Printf("\n%d%% time compression: one simulated day every %.2fs of real time\n",
				sim.AccelerationPercent, sim.RealSecondsPerDay)
		},
	}
}
