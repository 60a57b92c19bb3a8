package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nvandessel/txsim/internal/models"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "out", "txsim.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewSQLiteStore(t *testing.T) {
	s := newTestSQLite(t)
	if _, err := os.Stat(s.Path()); os.IsNotExist(err) {
		t.Error("database file was not created")
	}

	var version int
	if err := s.db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&version); err != nil {
		t.Fatalf("failed to read schema version: %v", err)
	}
	if version != SchemaVersion {
		t.Errorf("schema version = %d, want %d", version, SchemaVersion)
	}
}

func TestInitSchema_Idempotent(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	if err := InitSchema(ctx, s.db); err != nil {
		t.Fatalf("second InitSchema() error = %v", err)
	}
	if err := ValidateIntegrity(ctx, s.db); err != nil {
		t.Errorf("ValidateIntegrity() error = %v", err)
	}
}

func TestInitSchema_NewerVersion(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_version (version, applied_at) VALUES (?, datetime('now'))`, SchemaVersion+1); err != nil {
		t.Fatalf("failed to bump version: %v", err)
	}
	if err := InitSchema(ctx, s.db); err == nil {
		t.Error("expected error for a schema newer than supported")
	}
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	mustT(t, s.Begin(ctx, testRun()))
	mustT(t, s.Write(ctx, 0, testTransactions()))
	mustT(t, s.Write(ctx, 1, nil))
	mustT(t, s.Finish(ctx, testSummary()))

	runs, err := s.Runs(ctx)
	if err != nil {
		t.Fatalf("Runs() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	r := runs[0]
	if r.ID != "run-1" || r.Seed != 42 || r.Transactions != 3 || r.TotalError != 0.125 || r.FinishedAt == "" {
		t.Errorf("run = %+v", r)
	}
	if !r.StartedAt.Equal(testRun().StartedAt) {
		t.Errorf("StartedAt = %v, want %v", r.StartedAt, testRun().StartedAt)
	}

	aggs, err := s.Aggregates(ctx, "run-1")
	if err != nil {
		t.Fatalf("Aggregates() error = %v", err)
	}
	if len(aggs) != 2 || aggs[0].Action != models.ActionCashIn || aggs[1].Mean != 510.25 {
		t.Errorf("aggregates = %+v", aggs)
	}

	totals, err := s.ActionTotals(ctx, "run-1")
	if err != nil {
		t.Fatalf("ActionTotals() error = %v", err)
	}
	if len(totals) != 2 {
		t.Fatalf("got %d totals, want 2", len(totals))
	}
	transfer := totals[1]
	if transfer.Action != models.ActionTransfer || transfer.Count != 2 || transfer.Fraud != 2 ||
		transfer.FlaggedFraud != 1 || transfer.Failed != 1 {
		t.Errorf("transfer totals = %+v", transfer)
	}
}

func TestSQLiteStore_SequenceAcrossSteps(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	mustT(t, s.Begin(ctx, testRun()))
	mustT(t, s.Write(ctx, 0, testTransactions()))
	mustT(t, s.Write(ctx, 1, testTransactions()))

	var count, maxSeq int
	row := s.db.QueryRow(`SELECT COUNT(*), MAX(seq) FROM transactions WHERE run_id = ?`, "run-1")
	if err := row.Scan(&count, &maxSeq); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if count != 6 || maxSeq != 5 {
		t.Errorf("count = %d, max seq = %d; want 6 and 5", count, maxSeq)
	}
}

func TestSQLiteStore_WriteBeforeBegin(t *testing.T) {
	s := newTestSQLite(t)
	if err := s.Write(context.Background(), 0, testTransactions()); err == nil {
		t.Error("expected error writing before Begin")
	}
}

func TestSQLiteStore_DuplicateRun(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	mustT(t, s.Begin(ctx, testRun()))
	if err := s.Begin(ctx, testRun()); err == nil {
		t.Error("expected error for a duplicate run id")
	}
}
