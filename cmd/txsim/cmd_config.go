package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/nvandessel/txsim/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage txsim configuration",
		Long: `View and modify txsim configuration settings.

Configuration is read from --config, or ./txsim.yaml when present, with
TXSIM_* environment variables (and a .env file) applied on top.

Examples:
  txsim config list                          # Show effective settings
  txsim config get simulation.seed           # Get a specific setting
  txsim config set simulation.steps 48       # Write a setting to txsim.yaml
  txsim config set output.kafka_brokers a:9092,b:9092`,
	}

	cmd.AddCommand(
		newConfigListCmd(),
		newConfigGetCmd(),
		newConfigSetCmd(),
	)

	return cmd
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				redacted := *cfg
				redacted.Output = cfg.Output.Redacted()
				return json.NewEncoder(out).Encode(redacted)
			}

			for _, section := range []string{"simulation", "profiles", "output", "logging"} {
				fmt.Fprintf(out, "%s:\n", section)
				for _, key := range configKeys {
					if !strings.HasPrefix(key, section+".") {
						continue
					}
					v, _ := getConfigValue(cfg, key)
					fmt.Fprintf(out, "  %-26s %v\n", key+":", valueOrDefault(v, "(not set)"))
				}
			}
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			key := args[0]

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			value, found := getConfigValue(cfg, key)
			if !found {
				return fmt.Errorf("unknown configuration key: %s", key)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]any{"key": key, "value": value})
			}
			fmt.Fprintf(out, "%s = %v\n", key, value)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value in the config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			key, value := args[0], args[1]

			path, _ := cmd.Flags().GetString("config")
			if path == "" {
				path = config.DefaultConfigFile
			}

			// Env overrides and ${VAR} expansion stay out of the saved file.
			cfg, err := config.ReadFile(path)
			if errors.Is(err, fs.ErrNotExist) {
				cfg, err = config.Default(), nil
			}
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if err := setConfigValue(cfg, key, value); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid value for %s: %w", key, err)
			}
			if err := saveConfig(cfg, path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]any{
					"status": "updated",
					"key":    key,
					"file":   path,
				})
			}
			fmt.Fprintf(out, "Set %s in %s\n", key, path)
			return nil
		},
	}
}

// configKeys lists every dot-notation key in display order.
var configKeys = []string{
	"simulation.name",
	"simulation.seed",
	"simulation.steps",
	"simulation.clients",
	"simulation.merchants",
	"simulation.banks",
	"simulation.transfer_limit",
	"simulation.multiplier",
	"simulation.max_transactions",
	"simulation.fraud_share",
	"simulation.steps_per_second",
	"profiles.path",
	"output.dir",
	"output.csv",
	"output.sqlite",
	"output.postgres_dsn",
	"output.kafka_brokers",
	"output.kafka_topic",
	"output.redis_addr",
	"output.redis_password",
	"output.redis_stream",
	"output.neo4j_uri",
	"output.neo4j_user",
	"output.neo4j_password",
	"output.neo4j_database",
	"logging.level",
}

// getConfigValue retrieves a configuration value by dot-notation key.
// Secrets are returned redacted.
func getConfigValue(cfg *config.SimConfig, key string) (any, bool) {
	s, o := cfg.Simulation, cfg.Output.Redacted()
	switch key {
	case "simulation.name":
		return s.Name, true
	case "simulation.seed":
		return s.Seed, true
	case "simulation.steps":
		return s.Steps, true
	case "simulation.clients":
		return s.Clients, true
	case "simulation.merchants":
		return s.Merchants, true
	case "simulation.banks":
		return s.Banks, true
	case "simulation.transfer_limit":
		return s.TransferLimit, true
	case "simulation.multiplier":
		return s.Multiplier, true
	case "simulation.max_transactions":
		return s.MaxTransactions, true
	case "simulation.fraud_share":
		return s.FraudShare, true
	case "simulation.steps_per_second":
		return s.StepsPerSecond, true
	case "profiles.path":
		return cfg.Profiles.Path, true
	case "output.dir":
		return o.Dir, true
	case "output.csv":
		return o.CSV, true
	case "output.sqlite":
		return o.SQLite, true
	case "output.postgres_dsn":
		return o.PostgresDSN, true
	case "output.kafka_brokers":
		return strings.Join(o.KafkaBrokers, ","), true
	case "output.kafka_topic":
		return o.KafkaTopic, true
	case "output.redis_addr":
		return o.RedisAddr, true
	case "output.redis_password":
		return o.RedisPassword, true
	case "output.redis_stream":
		return o.RedisStream, true
	case "output.neo4j_uri":
		return o.Neo4jURI, true
	case "output.neo4j_user":
		return o.Neo4jUser, true
	case "output.neo4j_password":
		return o.Neo4jPassword, true
	case "output.neo4j_database":
		return o.Neo4jDatabase, true
	case "logging.level":
		return cfg.Logging.Level, true
	default:
		return nil, false
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.SimConfig, key, value string) error {
	s, o := &cfg.Simulation, &cfg.Output

	var err error
	switch key {
	case "simulation.name":
		s.Name = value
	case "simulation.seed":
		s.Seed, err = strconv.ParseUint(value, 10, 64)
	case "simulation.steps":
		s.Steps, err = strconv.Atoi(value)
	case "simulation.clients":
		s.Clients, err = strconv.Atoi(value)
	case "simulation.merchants":
		s.Merchants, err = strconv.Atoi(value)
	case "simulation.banks":
		s.Banks, err = strconv.Atoi(value)
	case "simulation.transfer_limit":
		s.TransferLimit, err = strconv.ParseFloat(value, 64)
	case "simulation.multiplier":
		s.Multiplier, err = strconv.ParseFloat(value, 64)
	case "simulation.max_transactions":
		s.MaxTransactions, err = strconv.Atoi(value)
	case "simulation.fraud_share":
		s.FraudShare, err = strconv.ParseFloat(value, 64)
	case "simulation.steps_per_second":
		s.StepsPerSecond, err = strconv.ParseFloat(value, 64)
	case "profiles.path":
		cfg.Profiles.Path = value
	case "output.dir":
		o.Dir = value
	case "output.csv":
		o.CSV, err = strconv.ParseBool(value)
	case "output.sqlite":
		o.SQLite = value
	case "output.postgres_dsn":
		o.PostgresDSN = value
	case "output.kafka_brokers":
		o.KafkaBrokers = nil
		for _, b := range strings.Split(value, ",") {
			if b = strings.TrimSpace(b); b != "" {
				o.KafkaBrokers = append(o.KafkaBrokers, b)
			}
		}
	case "output.kafka_topic":
		o.KafkaTopic = value
	case "output.redis_addr":
		o.RedisAddr = value
	case "output.redis_password":
		o.RedisPassword = value
	case "output.redis_stream":
		o.RedisStream = value
	case "output.neo4j_uri":
		o.Neo4jURI = value
	case "output.neo4j_user":
		o.Neo4jUser = value
	case "output.neo4j_password":
		o.Neo4jPassword = value
	case "output.neo4j_database":
		o.Neo4jDatabase = value
	case "logging.level":
		cfg.Logging.Level = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	if err != nil {
		return fmt.Errorf("invalid value for %s: %q", key, value)
	}
	return nil
}

// saveConfig writes cfg as YAML to path.
func saveConfig(cfg *config.SimConfig, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// valueOrDefault renders empty values as def.
func valueOrDefault(v any, def string) any {
	if s, ok := v.(string); ok && s == "" {
		return def
	}
	return v
}

