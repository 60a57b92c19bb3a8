// Package store defines the Sink interface transaction records are written
// through, and its implementations: CSV files, SQLite, Postgres, Kafka, Redis
// streams and Neo4j.
package store

import (
	"context"
	"time"

	"github.com/nvandessel/txsim/internal/aggregate"
	"github.com/nvandessel/txsim/internal/models"
)

// RunInfo identifies a simulation run and the parameters it was started with.
type RunInfo struct {
	ID            string    `json:"id" yaml:"id"`
	Name          string    `json:"name" yaml:"name"`
	Seed          uint64    `json:"seed" yaml:"seed"`
	Steps         int       `json:"steps" yaml:"steps"`
	Clients       int       `json:"clients" yaml:"clients"`
	Merchants     int       `json:"merchants" yaml:"merchants"`
	Banks         int       `json:"banks" yaml:"banks"`
	Fraudsters    int       `json:"fraudsters" yaml:"fraudsters"`
	TransferLimit float64   `json:"transfer_limit" yaml:"transfer_limit"`
	Multiplier    float64   `json:"multiplier" yaml:"multiplier"`
	Profiles      string    `json:"profiles" yaml:"profiles"` // bundle path, "" for the embedded one
	StartedAt     time.Time `json:"started_at" yaml:"started_at"`
}

// ProfileCount is how many clients were assigned one client profile.
type ProfileCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Summary is what a sink receives once the run is over.
type Summary struct {
	Run           RunInfo                    `json:"run"`
	Transactions  int                        `json:"transactions"`
	TotalError    float64                    `json:"total_error"`
	ActionErrors  []aggregate.ActionError    `json:"action_errors"`
	Aborted       bool                       `json:"aborted"`
	Aggregates    []models.StepActionProfile `json:"aggregates"`
	ProfileCounts []ProfileCount             `json:"profile_counts"`
	Fraudsters    []aggregate.Fraudster      `json:"fraudsters"` // one entry per fraud-labelled client
	FinishedAt    time.Time                  `json:"finished_at"`
}

// Sink receives the output of a run. The simulation calls Begin once, Write
// once per step with that step's records (possibly none), Finish once the
// last step has run, then Close.
//
// Write is only ever called between steps, never while agents act.
type Sink interface {
	// Name identifies the sink in errors and logs.
	Name() string

	Begin(ctx context.Context, run RunInfo) error
	Write(ctx context.Context, step int, txs []models.Transaction) error
	Finish(ctx context.Context, sum Summary) error
	Close() error
}
