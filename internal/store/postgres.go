package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nvandessel/txsim/internal/models"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS txsim_runs (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    seed TEXT NOT NULL,
    steps INTEGER NOT NULL,
    clients INTEGER NOT NULL,
    started_at TIMESTAMPTZ NOT NULL,
    finished_at TIMESTAMPTZ,
    transactions INTEGER,
    total_error DOUBLE PRECISION,
    aborted BOOLEAN DEFAULT FALSE
);
CREATE TABLE IF NOT EXISTS txsim_transactions (
    run_id TEXT NOT NULL REFERENCES txsim_runs(id) ON DELETE CASCADE,
    seq BIGINT NOT NULL,
    step INTEGER NOT NULL,
    action TEXT NOT NULL,
    amount NUMERIC(18,2) NOT NULL,
    name_orig TEXT NOT NULL,
    old_balance_orig NUMERIC(18,2) NOT NULL,
    new_balance_orig NUMERIC(18,2) NOT NULL,
    name_dest TEXT NOT NULL,
    old_balance_dest NUMERIC(18,2) NOT NULL,
    new_balance_dest NUMERIC(18,2) NOT NULL,
    is_fraud BOOLEAN NOT NULL,
    is_flagged_fraud BOOLEAN NOT NULL,
    is_unauthorized_overdraft BOOLEAN NOT NULL,
    is_successful BOOLEAN NOT NULL,
    PRIMARY KEY (run_id, seq)
);
`

const postgresInsert = `
INSERT INTO txsim_transactions (run_id, seq, step, action, amount,
    name_orig, old_balance_orig, new_balance_orig,
    name_dest, old_balance_dest, new_balance_dest,
    is_fraud, is_flagged_fraud, is_unauthorized_overdraft, is_successful)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

// PostgresStore writes runs and raw transactions to PostgreSQL through a
// connection pool, one batch per step.
type PostgresStore struct {
	pool  *pgxpool.Pool
	runID string
	seq   int64
}

var _ Sink = (*PostgresStore)(nil)

// NewPostgresStore connects to dsn and creates the tables if needed.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	poolConfig.MaxConns = 4
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if _, err := pool.Exec(connectCtx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create postgres schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Name() string { return "postgres" }

func (s *PostgresStore) Begin(ctx context.Context, run RunInfo) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO txsim_runs (id, name, seed, steps, clients, started_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.Name, strconv.FormatUint(run.Seed, 10), run.Steps, run.Clients, run.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	s.runID = run.ID
	s.seq = 0
	return nil
}

// Write sends the step's records as one batch.
func (s *PostgresStore) Write(ctx context.Context, step int, txs []models.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	batch := s.batch(txs)
	br := s.pool.SendBatch(ctx, batch)
	for range txs {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to insert transaction: %w", err)
		}
	}
	return br.Close()
}

func (s *PostgresStore) batch(txs []models.Transaction) *pgx.Batch {
	batch := &pgx.Batch{}
	for _, tx := range txs {
		batch.Queue(postgresInsert, postgresArgs(s.runID, s.seq, tx)...)
		s.seq++
	}
	return batch
}

// postgresArgs renders money columns as fixed-point strings so NUMERIC
// columns receive exactly what the CSV output shows.
func postgresArgs(runID string, seq int64, tx models.Transaction) []any {
	o, d := tx.Origin(), tx.Dest()
	return []any{
		runID, seq, tx.Step(), string(tx.Action()), formatAmount(tx.Amount()),
		o.ID, formatAmount(o.BalanceBefore), formatAmount(o.BalanceAfter),
		d.ID, formatAmount(d.BalanceBefore), formatAmount(d.BalanceAfter),
		tx.IsFraud(), tx.IsFlaggedFraud(), tx.IsUnauthorizedOverdraft(), tx.IsSuccessful(),
	}
}

func (s *PostgresStore) Finish(ctx context.Context, sum Summary) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE txsim_runs SET finished_at = $1, transactions = $2, total_error = $3, aborted = $4 WHERE id = $5`,
		sum.FinishedAt, sum.Transactions, sum.TotalError, sum.Aborted, sum.Run.ID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
