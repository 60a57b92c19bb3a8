package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nvandessel/txsim/internal/config"
	"github.com/nvandessel/txsim/internal/logging"
	"github.com/nvandessel/txsim/internal/pathutil"
	"github.com/nvandessel/txsim/internal/profiles"
	"github.com/nvandessel/txsim/internal/ratelimit"
	"github.com/nvandessel/txsim/internal/simulation"
	"github.com/nvandessel/txsim/internal/store"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation and write its transaction log",
		Long: `Run a simulation and write its transaction log.

Parameters come from the config file, TXSIM_* environment variables and the
flags below, in increasing order of precedence. Ctrl+C stops the run at the
next step boundary; the steps already simulated are still written.

Examples:
  txsim run                          # Defaults, CSV files under ./output
  txsim run --seed 42 --steps 24     # One simulated day
  txsim run --profiles paysim.yaml   # Custom profile bundle
  txsim run --json                   # Print the run summary as JSON`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applyRunFlags(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			logger := newLogger(cmd, cfg, cmd.ErrOrStderr())
			ctx, stop := interruptContext(cmd.Context(), logger)
			defer stop()

			sum, err := runSimulation(ctx, cfg, logger)
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			return printSummary(cmd.OutOrStdout(), sum, jsonOut)
		},
	}

	cmd.Flags().Uint64("seed", 0, "Random seed (overrides config)")
	cmd.Flags().Int("steps", 0, "Number of steps, one per simulated hour (overrides config)")
	cmd.Flags().Int("clients", 0, "Client population (overrides config; 0 derives it from the profiles)")
	cmd.Flags().String("name", "", "Run name used to prefix output files (overrides config)")
	cmd.Flags().String("output", "", "Output directory (overrides config)")
	cmd.Flags().String("profiles", "", "Profile bundle YAML (overrides config)")
	cmd.Flags().Float64("multiplier", 0, "Scale factor for every step target count (overrides config)")

	return cmd
}

// applyRunFlags copies the flags the user set onto cfg.
func applyRunFlags(cmd *cobra.Command, cfg *config.SimConfig) {
	f := cmd.Flags()
	if f.Changed("seed") {
		cfg.Simulation.Seed, _ = f.GetUint64("seed")
	}
	if f.Changed("steps") {
		cfg.Simulation.Steps, _ = f.GetInt("steps")
	}
	if f.Changed("clients") {
		cfg.Simulation.Clients, _ = f.GetInt("clients")
	}
	if f.Changed("name") {
		cfg.Simulation.Name, _ = f.GetString("name")
	}
	if f.Changed("output") {
		cfg.Output.Dir, _ = f.GetString("output")
	}
	if f.Changed("profiles") {
		cfg.Profiles.Path, _ = f.GetString("profiles")
	}
	if f.Changed("multiplier") {
		cfg.Simulation.Multiplier, _ = f.GetFloat64("multiplier")
	}
}

// runSimulation wires profiles, sinks, logging and pacing around a Runner.
func runSimulation(ctx context.Context, cfg *config.SimConfig, logger *slog.Logger) (store.Summary, error) {
	bundle, err := profiles.LoadOrDefault(cfg.Profiles.Path)
	if err != nil {
		return store.Summary{}, err
	}
	ps, err := profiles.NewStore(bundle)
	if err != nil {
		return store.Summary{}, fmt.Errorf("loading profiles: %w", err)
	}

	sink, err := openSinks(ctx, cfg, logger)
	if err != nil {
		return store.Summary{}, err
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil {
			logger.Warn("failed to close sinks", "error", cerr)
		}
	}()

	decisions := logging.NewDecisionLogger(cfg.Output.Dir, cfg.Logging.Level)
	defer decisions.Close()

	runner := simulation.NewRunner(ps, sink,
		simulation.WithLogger(logger),
		simulation.WithDecisionLogger(decisions),
		simulation.WithPacer(ratelimit.NewPacer(cfg.Simulation.StepsPerSecond)),
	)
	res, err := runner.Run(ctx, simulation.ScenarioFromConfig(cfg))
	if err != nil {
		return store.Summary{}, fmt.Errorf("simulation failed: %w", err)
	}
	return res.Summary, nil
}

// openSinks builds every sink the output section enables. Sinks opened before
// a failure are closed again.
func openSinks(ctx context.Context, cfg *config.SimConfig, logger *slog.Logger) (*store.MultiSink, error) {
	out := cfg.Output
	var sinks []store.Sink
	fail := func(err error) (*store.MultiSink, error) {
		cerr := store.NewMultiSink(sinks...).Close()
		return nil, errors.Join(err, cerr)
	}

	if out.CSV {
		sinks = append(sinks, store.NewCSVSink(out.Dir))
	}
	if out.SQLite != "" {
		if err := pathutil.ValidateOutputPath(out.SQLite, out.Dir); err != nil {
			return fail(fmt.Errorf("sqlite path: %w", err))
		}
		s, err := store.NewSQLiteStore(out.SQLite)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, s)
	}
	if out.PostgresDSN != "" {
		s, err := store.NewPostgresStore(ctx, out.PostgresDSN)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, s)
	}
	if len(out.KafkaBrokers) > 0 {
		sinks = append(sinks, store.NewKafkaStore(out.KafkaBrokers, out.KafkaTopic, logger))
	}
	if out.RedisAddr != "" {
		s, err := store.NewRedisStore(ctx, out.RedisAddr, out.RedisPassword, out.RedisStream)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, s)
	}
	if out.Neo4jURI != "" {
		s, err := store.NewNeo4jStore(ctx, store.Neo4jOptions{
			URI:      out.Neo4jURI,
			Username: out.Neo4jUser,
			Password: out.Neo4jPassword,
			Database: out.Neo4jDatabase,
		})
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, s)
	}

	ms := store.NewMultiSink(sinks...)
	logger.Debug("sinks opened", "sinks", ms.Name(), "output", out.Redacted().String())
	return ms, nil
}

func printSummary(w io.Writer, sum store.Summary, jsonOut bool) error {
	if jsonOut {
		return json.NewEncoder(w).Encode(map[string]any{
			"run_id":         sum.Run.ID,
			"name":           sum.Run.Name,
			"seed":           sum.Run.Seed,
			"steps":          sum.Run.Steps,
			"clients":        sum.Run.Clients,
			"fraudsters":     sum.Run.Fraudsters,
			"transactions":   sum.Transactions,
			"total_error":    sum.TotalError,
			"aborted":        sum.Aborted,
			"profile_counts": sum.ProfileCounts,
		})
	}

	fmt.Fprintf(w, "Run %s (%s)\n", sum.Run.Name, sum.Run.ID)
	fmt.Fprintf(w, "  Seed:          %d\n", sum.Run.Seed)
	fmt.Fprintf(w, "  Steps:         %d\n", sum.Run.Steps)
	fmt.Fprintf(w, "  Clients:       %d (%d fraudsters)\n", sum.Run.Clients, sum.Run.Fraudsters)
	fmt.Fprintf(w, "  Merchants:     %d\n", sum.Run.Merchants)
	fmt.Fprintf(w, "  Banks:         %d\n", sum.Run.Banks)
	fmt.Fprintf(w, "  Transactions:  %d\n", sum.Transactions)
	fmt.Fprintf(w, "  Total error:   %.4f\n", sum.TotalError)
	if sum.Aborted {
		fmt.Fprintln(w, "  Status:        stopped early")
	}
	return nil
}

