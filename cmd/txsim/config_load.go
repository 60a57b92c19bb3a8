package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/nvandessel/txsim/internal/config"
	"github.com/nvandessel/txsim/internal/logging"
	"github.com/spf13/cobra"
)

// loadConfig reads the config named by --config (or ./txsim.yaml) and applies
// --log-level on top of it.
func loadConfig(cmd *cobra.Command) (*config.SimConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	return cfg, nil
}

// newLogger writes text logs, or JSON lines when --json is set, to w.
func newLogger(cmd *cobra.Command, cfg *config.SimConfig, w io.Writer) *slog.Logger {
	jsonOut, _ := cmd.Flags().GetBool("json")
	if jsonOut {
		return logging.NewJSONLogger(cfg.Logging.Level, w)
	}
	return logging.NewLogger(cfg.Logging.Level, w)
}
