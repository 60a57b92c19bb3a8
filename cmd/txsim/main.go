package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "txsim",
		Short: "Agent-based mobile money transaction simulator",
		Long: `txsim generates synthetic mobile money transaction logs.

Clients, merchants and banks are simulated step by step. Each client draws
actions from statistical profiles, and the resulting records are written to
CSV files and, optionally, to SQLite, PostgreSQL, Kafka, Redis or Neo4j.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./txsim.yaml when present)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug or trace (overrides config)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newValidateCmd(),
		newStatsCmd(),
		newConfigCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
