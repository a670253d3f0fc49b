package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the base command for the simctl CLI
var rootCmd = &cobra.Command{
	Use:   "simctl",
	Short: "MAXBOOSTER simulation engine operator CLI",
	Long: `simctl drives the MAXBOOSTER real-life simulation engine from the
command line: list time-compression presets, run headless simulations,
and execute the deterministic verification harnesses.`,
}

func init() {
	rootCmd.AddCommand(newPeriodsCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newSelftestCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
