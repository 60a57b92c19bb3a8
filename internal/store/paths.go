package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// Output file names, relative to the output directory. Per-run files are
// prefixed with the run name.
const (
	rawLogSuffix     = "_rawLog.csv"
	aggregateSuffix  = "_aggregatedTransactions.csv"
	profilesSuffix   = "_clientsProfiles.csv"
	parametersSuffix = "_parameters.yaml"
	fraudstersSuffix = "_fraudsters.csv"
	errorsSuffix     = "_summary.csv"
	summaryFile      = "summary.csv"
	databaseFile     = "txsim.db"
)

// RawLogPath is the per-transaction CSV of a run.
func RawLogPath(dir, name string) string { return filepath.Join(dir, name+rawLogSuffix) }

// AggregatePath is the per-step aggregate CSV of a run.
func AggregatePath(dir, name string) string { return filepath.Join(dir, name+aggregateSuffix) }

// ProfilesPath is the client profile distribution CSV of a run.
func ProfilesPath(dir, name string) string { return filepath.Join(dir, name+profilesSuffix) }

// ParametersPath is the parameter dump of a run.
func ParametersPath(dir, name string) string { return filepath.Join(dir, name+parametersSuffix) }

// FraudstersPath lists the fraud-labelled clients of a run and their outcome.
func FraudstersPath(dir, name string) string { return filepath.Join(dir, name+fraudstersSuffix) }

// RunSummaryPath is the per-action count error breakdown of a run.
func RunSummaryPath(dir, name string) string { return filepath.Join(dir, name+errorsSuffix) }

// SummaryPath is the global summary shared by every run written to dir.
func SummaryPath(dir string) string { return filepath.Join(dir, summaryFile) }

// DefaultDatabasePath is where the SQLite store lives when no path is set.
func DefaultDatabasePath(dir string) string { return filepath.Join(dir, databaseFile) }

// EnsureDir creates dir if it doesn't exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}
