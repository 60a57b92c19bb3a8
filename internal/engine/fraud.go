package engine

import (
	"github.com/nvandessel/txsim/internal/constants"
	"github.com/nvandessel/txsim/internal/ledger"
)

// FraudHeuristic is the naive in-system fraud check applied to transfers. It
// is unrelated to the ground-truth fraud label of an account.
type FraudHeuristic struct {
	TransferLimit float64
}

// Blocks reports whether a transfer of amount by a should be blocked.
//
// During the first FraudWarmupTransfers transfers the heuristic only records
// the account's balance high-water mark and never blocks. Afterwards it blocks
// when balanceMax - balance - amount > FraudThresholdMultiplier * TransferLimit.
func (f FraudHeuristic) Blocks(a *ledger.Account, amount float64) bool {
	if a.TransferCount < constants.FraudWarmupTransfers {
		a.TransferCount++
		a.BalanceMax = max(a.BalanceMax, a.Balance())
		return false
	}
	return a.BalanceMax-a.Balance()-amount > constants.FraudThresholdMultiplier*f.TransferLimit
}
