package simulation

import (
	"math"
	"testing"

	"github.com/nvandessel/txsim/internal/models"
)

const balanceTolerance = 1e-6

// AssertBalanceChains asserts that every account's records chain: each
// record's balance before equals the balance after of the same account's
// previous record, the first one starts at the initial balance and the last
// one ends at the final balance.
func AssertBalanceChains(t *testing.T, result SimulationResult, txs []models.Transaction) {
	t.Helper()
	accounts := make(map[string]AccountState, len(result.Accounts))
	last := make(map[string]float64, len(result.Accounts))
	for _, a := range result.Accounts {
		accounts[a.ID] = a
		last[a.ID] = a.InitialBalance
	}

	check := func(i int, p models.Party) {
		prev, ok := last[p.ID]
		if !ok {
			t.Errorf("AssertBalanceChains: record %d: unknown account %s", i, p.ID)
			return
		}
		if math.Abs(prev-p.BalanceBefore) > balanceTolerance {
			t.Errorf("AssertBalanceChains: record %d: %s balance before %.2f, previous after %.2f", i, p.ID, p.BalanceBefore, prev)
		}
		last[p.ID] = p.BalanceAfter
	}
	for i, tx := range txs {
		check(i, tx.Origin())
		check(i, tx.Dest())
	}

	for id, bal := range last {
		if math.Abs(bal-accounts[id].Balance) > balanceTolerance {
			t.Errorf("AssertBalanceChains: %s last recorded balance %.2f, final balance %.2f", id, bal, accounts[id].Balance)
		}
	}
}

// AssertChunksWithinLimit asserts that no transfer record exceeds limit.
func AssertChunksWithinLimit(t *testing.T, txs []models.Transaction, limit float64) {
	t.Helper()
	for i, tx := range txs {
		if tx.Action() == models.ActionTransfer && tx.Amount() > limit+balanceTolerance {
			t.Errorf("AssertChunksWithinLimit: record %d: transfer of %.2f above limit %.2f", i, tx.Amount(), limit)
		}
	}
}

// AssertFraudLabels asserts that the fraud label only appears on CASH_OUT and
// TRANSFER records of fraud-labelled clients, and always appears there.
func AssertFraudLabels(t *testing.T, result SimulationResult, txs []models.Transaction) {
	t.Helper()
	fraud := make(map[string]bool, len(result.Accounts))
	for _, a := range result.Accounts {
		fraud[a.ID] = a.Fraud
	}
	for i, tx := range txs {
		labelled := tx.Action() == models.ActionCashOut || tx.Action() == models.ActionTransfer
		want := labelled && fraud[tx.Origin().ID]
		if tx.IsFraud() != want {
			t.Errorf("AssertFraudLabels: record %d: %s by %s isFraud=%t, want %t", i, tx.Action(), tx.Origin().ID, tx.IsFraud(), want)
		}
	}
}

// AssertAggregatesCover asserts that the aggregate counts and sums add up to
// the collected records.
func AssertAggregatesCover(t *testing.T, result SimulationResult, txs []models.Transaction) {
	t.Helper()
	var count int
	var sum float64
	for _, rec := range result.Summary.Aggregates {
		count += rec.Count
		sum += rec.Sum
	}
	var want float64
	for _, tx := range txs {
		want += tx.Amount()
	}
	if count != len(txs) || count != result.Summary.Transactions {
		t.Errorf("AssertAggregatesCover: aggregate count %d, records %d, summary %d", count, len(txs), result.Summary.Transactions)
	}
	if math.Abs(sum-want) > 1e-6*math.Max(1, want) {
		t.Errorf("AssertAggregatesCover: aggregate sum %.2f, records sum %.2f", sum, want)
	}
}
