package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nvandessel/txsim/internal/aggregate"
	"github.com/nvandessel/txsim/internal/models"
)

func testRun() RunInfo {
	return RunInfo{
		ID:            "run-1",
		Name:          "test",
		Seed:          42,
		Steps:         2,
		Clients:       2,
		Merchants:     1,
		Banks:         1,
		TransferLimit: 1000,
		Multiplier:    1,
		StartedAt:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func testTransactions() []models.Transaction {
	return []models.Transaction{
		models.NewTransaction(0, models.ActionCashIn, 100,
			models.Party{ID: "C0", BalanceBefore: 1000, BalanceAfter: 1100},
			models.Party{ID: "M0", BalanceBefore: 50, BalanceAfter: 50},
			models.TransactionFlags{Successful: true}),
		models.NewTransaction(0, models.ActionTransfer, 1000.5,
			models.Party{ID: "C0", BalanceBefore: 1100, BalanceAfter: 99.5},
			models.Party{ID: "C1", BalanceBefore: 0, BalanceAfter: 1000.5},
			models.TransactionFlags{Fraud: true, Successful: true}),
		models.NewTransaction(0, models.ActionTransfer, 20,
			models.Party{ID: "C0", BalanceBefore: 99.5, BalanceAfter: 99.5},
			models.Party{ID: "C1", BalanceBefore: 1000.5, BalanceAfter: 1000.5},
			models.TransactionFlags{Fraud: true, FlaggedFraud: true}),
	}
}

func testSummary() Summary {
	return Summary{
		Run:          testRun(),
		Transactions: 3,
		TotalError:   0.125,
		Aggregates: []models.StepActionProfile{
			{Step: 0, Action: models.ActionCashIn, Count: 1, Sum: 100, Mean: 100, Probability: 1.0 / 3},
			{Step: 0, Action: models.ActionTransfer, Count: 2, Sum: 1020.5, Mean: 510.25, Std: 490.25, Probability: 2.0 / 3},
		},
		ProfileCounts: []ProfileCount{{Name: "retail", Count: 3}, {Name: "saver", Count: 1}},
		ActionErrors: []aggregate.ActionError{
			{Action: models.ActionCashIn, Expected: 2, Produced: 1, Error: 0.5},
			{Action: models.ActionTransfer, Expected: 2, Produced: 2, Error: 0},
		},
		Fraudsters: []aggregate.Fraudster{
			{ID: "C0", Victims: 1, Profit: 1000.5},
			{ID: "C3", Victims: 0, Profit: 0},
		},
		FinishedAt:    time.Date(2024, 1, 2, 3, 5, 0, 0, time.UTC),
	}
}

// recordingSink remembers the calls it receives and fails on demand.
type recordingSink struct {
	name     string
	calls    []string
	failOn   string
	closeErr error
}

var errInjected = errors.New("injected")

func (r *recordingSink) Name() string { return r.name }

func (r *recordingSink) call(name string) error {
	r.calls = append(r.calls, name)
	if r.failOn == name {
		return errInjected
	}
	return nil
}

func (r *recordingSink) Begin(context.Context, RunInfo) error { return r.call("begin") }

func (r *recordingSink) Write(context.Context, int, []models.Transaction) error {
	return r.call("write")
}

func (r *recordingSink) Finish(context.Context, Summary) error { return r.call("finish") }

func (r *recordingSink) Close() error {
	r.calls = append(r.calls, "close")
	return r.closeErr
}

func mustT(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
