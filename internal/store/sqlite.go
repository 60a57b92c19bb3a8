package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/nvandessel/txsim/internal/models"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore keeps runs, their raw transactions and their aggregates in a
// SQLite database. It is both a Sink and the read side of the stats command.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
	runID  string
	seq    int64
}

var _ Sink = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with single writer
	db.SetMaxOpenConns(1)

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: path}, nil
}

func (s *SQLiteStore) Name() string { return "sqlite" }

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.dbPath }

func (s *SQLiteStore) Begin(ctx context.Context, run RunInfo) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, name, seed, steps, clients, merchants, banks, fraudsters,
			transfer_limit, multiplier, profiles, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Name, strconv.FormatUint(run.Seed, 10), run.Steps, run.Clients, run.Merchants,
		run.Banks, run.Fraudsters, run.TransferLimit, run.Multiplier, run.Profiles,
		run.StartedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	s.runID = run.ID
	s.seq = 0
	return nil
}

// Write inserts the step's records in a single transaction.
func (s *SQLiteStore) Write(ctx context.Context, step int, txs []models.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	if s.runID == "" {
		return fmt.Errorf("sqlite store not started")
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.PrepareContext(ctx, `
		INSERT INTO transactions (run_id, seq, step, action, amount,
			name_orig, old_balance_orig, new_balance_orig,
			name_dest, old_balance_dest, new_balance_dest,
			is_fraud, is_flagged_fraud, is_unauthorized_overdraft, is_successful)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, tx := range txs {
		o, d := tx.Origin(), tx.Dest()
		if _, err := stmt.ExecContext(ctx, s.runID, s.seq, tx.Step(), string(tx.Action()), tx.Amount(),
			o.ID, o.BalanceBefore, o.BalanceAfter,
			d.ID, d.BalanceBefore, d.BalanceAfter,
			boolToInt(tx.IsFraud()), boolToInt(tx.IsFlaggedFraud()),
			boolToInt(tx.IsUnauthorizedOverdraft()), boolToInt(tx.IsSuccessful())); err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}
		s.seq++
	}
	return dbTx.Commit()
}

// Finish stores the aggregates and closes the run row.
func (s *SQLiteStore) Finish(ctx context.Context, sum Summary) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	for _, a := range sum.Aggregates {
		if _, err := dbTx.ExecContext(ctx, `
			INSERT OR REPLACE INTO step_aggregates (run_id, step, action, month, day, hour,
				count, sum, mean, std, probability)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sum.Run.ID, a.Step, string(a.Action), a.Month, a.Day, a.Hour,
			a.Count, a.Sum, a.Mean, a.Std, a.Probability); err != nil {
			return fmt.Errorf("failed to insert aggregate: %w", err)
		}
	}

	if _, err := dbTx.ExecContext(ctx, `
		UPDATE runs SET finished_at = ?, transactions = ?, total_error = ?, aborted = ?
		WHERE id = ?`,
		sum.FinishedAt.UTC().Format(time.RFC3339), sum.Transactions, sum.TotalError,
		boolToInt(sum.Aborted), sum.Run.ID); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return dbTx.Commit()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RunRecord is a stored run as read back by the stats command.
type RunRecord struct {
	RunInfo
	FinishedAt   string  `json:"finished_at,omitempty"`
	Transactions int     `json:"transactions"`
	TotalError   float64 `json:"total_error"`
	Aborted      bool    `json:"aborted"`
}

// Runs returns every stored run, most recent first.
func (s *SQLiteStore) Runs(ctx context.Context) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, seed, steps, clients, merchants, banks, fraudsters, transfer_limit,
			multiplier, COALESCE(profiles, ''), started_at, COALESCE(finished_at, ''),
			COALESCE(transactions, 0), COALESCE(total_error, 0), COALESCE(aborted, 0)
		FROM runs ORDER BY started_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var seed, started string
		var aborted int
		if err := rows.Scan(&r.ID, &r.Name, &seed, &r.Steps, &r.Clients, &r.Merchants, &r.Banks,
			&r.Fraudsters, &r.TransferLimit, &r.Multiplier, &r.Profiles, &started, &r.FinishedAt,
			&r.Transactions, &r.TotalError, &aborted); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Seed, _ = strconv.ParseUint(seed, 10, 64)
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		r.Aborted = aborted != 0
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Aggregates returns the stored step aggregates of a run.
func (s *SQLiteStore) Aggregates(ctx context.Context, runID string) ([]models.StepActionProfile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT step, action, month, day, hour, count, sum, mean, std, probability
		FROM step_aggregates WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query aggregates: %w", err)
	}
	defer rows.Close()

	var out []models.StepActionProfile
	for rows.Next() {
		var a models.StepActionProfile
		var action string
		if err := rows.Scan(&a.Step, &action, &a.Month, &a.Day, &a.Hour,
			&a.Count, &a.Sum, &a.Mean, &a.Std, &a.Probability); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate: %w", err)
		}
		a.Action = models.ActionType(action)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	models.SortStepActionProfiles(out)
	return out, nil
}

// ActionTotal summarizes the raw transactions of one action in a run.
type ActionTotal struct {
	Action                 models.ActionType `json:"action"`
	Count                  int               `json:"count"`
	Sum                    float64           `json:"sum"`
	Fraud                  int               `json:"fraud"`
	FlaggedFraud           int               `json:"flagged_fraud"`
	UnauthorizedOverdrafts int               `json:"unauthorized_overdrafts"`
	Failed                 int               `json:"failed"`
}

// ActionTotals returns per-action totals of a run in canonical action order.
func (s *SQLiteStore) ActionTotals(ctx context.Context, runID string) ([]ActionTotal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT action, COUNT(*), SUM(amount), SUM(is_fraud), SUM(is_flagged_fraud),
			SUM(is_unauthorized_overdraft), SUM(1 - is_successful)
		FROM transactions WHERE run_id = ? GROUP BY action`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query totals: %w", err)
	}
	defer rows.Close()

	byAction := make(map[models.ActionType]ActionTotal)
	for rows.Next() {
		var t ActionTotal
		var action string
		if err := rows.Scan(&action, &t.Count, &t.Sum, &t.Fraud, &t.FlaggedFraud,
			&t.UnauthorizedOverdrafts, &t.Failed); err != nil {
			return nil, fmt.Errorf("failed to scan totals: %w", err)
		}
		t.Action = models.ActionType(action)
		byAction[t.Action] = t
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []ActionTotal
	for _, a := range models.Actions {
		if t, ok := byAction[a]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
