package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/nvandessel/txsim/internal/models"
	"github.com/nvandessel/txsim/internal/store"
	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats [run-id]",
		Short: "Show stored runs and their per-action totals",
		Long: `Show runs recorded in the SQLite store.

Without an argument every run is listed, most recent first. With a run id
the per-action totals of that run are shown.

Examples:
  txsim stats                          # List runs
  txsim stats 0b6c...                  # Totals for one run
  txsim stats 0b6c... --action transfer  # One action of one run
  txsim stats --db output/txsim.db     # Explicit database`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			dbPath, _ := cmd.Flags().GetString("db")
			actionName, _ := cmd.Flags().GetString("action")

			var action models.ActionType
			if actionName != "" {
				if len(args) == 0 {
					return fmt.Errorf("--action requires a run id")
				}
				a, err := models.ParseActionType(actionName)
				if err != nil {
					return err
				}
				action = a
			}

			if dbPath == "" {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				dbPath = cfg.Output.SQLite
				if dbPath == "" {
					dbPath = store.DefaultDatabasePath(cfg.Output.Dir)
				}
			}
			if _, err := os.Stat(dbPath); os.IsNotExist(err) {
				return fmt.Errorf("no run database at %s. Enable output.sqlite and run 'txsim run' first", dbPath)
			}

			s, err := store.NewSQLiteStore(dbPath)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				runs, err := s.Runs(ctx)
				if err != nil {
					return err
				}
				if jsonOut {
					return json.NewEncoder(out).Encode(map[string]any{"runs": runs, "count": len(runs)})
				}
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded.")
					return nil
				}
				fmt.Fprintf(out, "%-36s  %-16s  %6s  %12s  %10s\n", "RUN", "NAME", "STEPS", "TRANSACTIONS", "ERROR")
				fmt.Fprintln(out, strings.Repeat("-", 88))
				for _, r := range runs {
					status := ""
					if r.Aborted {
						status = "  (stopped early)"
					}
					fmt.Fprintf(out, "%-36s  %-16s  %6d  %12d  %10.4f%s\n",
						r.ID, r.Name, r.Steps, r.Transactions, r.TotalError, status)
				}
				return nil
			}

			runID := args[0]
			totals, err := s.ActionTotals(ctx, runID)
			if err != nil {
				return err
			}
			if len(totals) == 0 {
				return fmt.Errorf("run not found: %s", runID)
			}
			if action != "" {
				totals = filterTotals(totals, action)
			}
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]any{"run_id": runID, "actions": totals})
			}

			fmt.Fprintf(out, "Run %s\n\n", runID)
			fmt.Fprintf(out, "%-10s  %8s  %16s  %6s  %8s  %9s  %6s\n",
				"ACTION", "COUNT", "SUM", "FRAUD", "FLAGGED", "OVERDRAFT", "FAILED")
			fmt.Fprintln(out, strings.Repeat("-", 75))
			for _, t := range totals {
				fmt.Fprintf(out, "%-10s  %8d  %16.2f  %6d  %8d  %9d  %6d\n",
					t.Action, t.Count, t.Sum, t.Fraud, t.FlaggedFraud, t.UnauthorizedOverdrafts, t.Failed)
			}
			return nil
		},
	}

	cmd.Flags().String("db", "", "SQLite database (default output.sqlite or <output>/txsim.db)")
	cmd.Flags().String("action", "", "Only show one action type (e.g. transfer, CASH_OUT)")
	return cmd
}

func filterTotals(totals []store.ActionTotal, action models.ActionType) []store.ActionTotal {
	out := make([]store.ActionTotal, 0, 1)
	for _, t := range totals {
		if t.Action == action {
			out = append(out, t)
		}
	}
	return out
}
