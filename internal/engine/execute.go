// Package engine implements the per-agent decision and execution loop:
// choosing how many actions a client performs in a step, which actions,
// for which amounts, and executing them against the ledgers.
package engine

import (
	"fmt"

	"github.com/nvandessel/txsim/internal/ledger"
	"github.com/nvandessel/txsim/internal/models"
	"github.com/nvandessel/txsim/internal/random"
)

// Params are the run-wide parameters the engine needs.
type Params struct {
	// TransferLimit is the largest amount one transfer chunk may carry.
	// Zero or negative disables chunking.
	TransferLimit float64
}

// Engine executes client actions against the account ledgers.
type Engine struct {
	dir    ledger.Directory
	params Params
	fraud  FraudHeuristic
}

// New returns an engine picking counterparties from dir.
func New(dir ledger.Directory, params Params) *Engine {
	return &Engine{
		dir:    dir,
		params: params,
		fraud:  FraudHeuristic{TransferLimit: params.TransferLimit},
	}
}

// Execute performs one action of client c and returns the emitted records.
// Transfers above the transfer limit produce one record per chunk.
func (e *Engine) Execute(step int, action models.ActionType, amount float64, c *ledger.Account, rng random.Sampler) ([]models.Transaction, error) {
	switch action {
	case models.ActionCashIn:
		m, err := e.dir.PickMerchant(rng)
		if err != nil {
			return nil, err
		}
		return []models.Transaction{e.cashIn(step, amount, c, m)}, nil

	case models.ActionCashOut:
		m, err := e.dir.PickMerchant(rng)
		if err != nil {
			return nil, err
		}
		return []models.Transaction{e.cashOut(step, amount, c, m)}, nil

	case models.ActionDebit:
		if c.Bank == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingBank, c.ID)
		}
		return []models.Transaction{e.debit(step, amount, c, c.Bank)}, nil

	case models.ActionPayment:
		m, err := e.dir.PickMerchant(rng)
		if err != nil {
			return nil, err
		}
		return []models.Transaction{e.payment(step, amount, c, m)}, nil

	case models.ActionTransfer:
		dest, err := e.dir.PickClientExcluding(c.ID, rng)
		if err != nil {
			return nil, err
		}
		return e.transfer(step, amount, c, dest), nil

	case models.ActionDeposit:
		if c.Bank == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingBank, c.ID)
		}
		return []models.Transaction{e.deposit(step, amount, c, c.Bank)}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

// snapshot captures the balances of both parties before a mutation.
type snapshot struct {
	orig, dest *ledger.Account
	origBefore float64
	destBefore float64
}

func take(orig, dest *ledger.Account) snapshot {
	return snapshot{orig: orig, dest: dest, origBefore: orig.Balance(), destBefore: dest.Balance()}
}

func (s snapshot) record(step int, action models.ActionType, amount float64, flags models.TransactionFlags) models.Transaction {
	return models.NewTransaction(step, action, amount,
		models.Party{ID: s.orig.ID, BalanceBefore: s.origBefore, BalanceAfter: s.orig.Balance()},
		models.Party{ID: s.dest.ID, BalanceBefore: s.destBefore, BalanceAfter: s.dest.Balance()},
		flags,
	)
}

// cashIn credits the client itself; the merchant is only the channel.
func (e *Engine) cashIn(step int, amount float64, c, m *ledger.Account) models.Transaction {
	s := take(c, m)
	c.Deposit(amount)
	m.Remember(c)
	return s.record(step, models.ActionCashIn, amount, models.TransactionFlags{Successful: true})
}

func (e *Engine) cashOut(step int, amount float64, c, m *ledger.Account) models.Transaction {
	s := take(c, m)
	overdraft := c.Withdraw(amount)
	m.Remember(c)
	return s.record(step, models.ActionCashOut, amount, models.TransactionFlags{
		Fraud:                 c.Fraud,
		UnauthorizedOverdraft: overdraft,
		Successful:            true,
	})
}

func (e *Engine) debit(step int, amount float64, c, b *ledger.Account) models.Transaction {
	s := take(c, b)
	overdraft := c.Withdraw(amount)
	b.Remember(c)
	return s.record(step, models.ActionDebit, amount, models.TransactionFlags{
		UnauthorizedOverdraft: overdraft,
		Successful:            true,
	})
}

// payment credits the merchant only when the withdrawal stayed within the
// client's authorized overdraft.
func (e *Engine) payment(step int, amount float64, c, m *ledger.Account) models.Transaction {
	s := take(c, m)
	overdraft := c.Withdraw(amount)
	if !overdraft {
		m.Deposit(amount)
	}
	m.Remember(c)
	return s.record(step, models.ActionPayment, amount, models.TransactionFlags{
		UnauthorizedOverdraft: overdraft,
		Successful:            true,
	})
}

// deposit credits the client; the bank is recorded for reporting only.
func (e *Engine) deposit(step int, amount float64, c, b *ledger.Account) models.Transaction {
	s := take(c, b)
	c.Deposit(amount)
	b.Remember(c)
	return s.record(step, models.ActionDeposit, amount, models.TransactionFlags{Successful: true})
}

// transfer splits amount into chunks of at most TransferLimit. The first
// failed chunk stops the sequence; records already emitted stand.
func (e *Engine) transfer(step int, amount float64, c, dest *ledger.Account) []models.Transaction {
	limit := e.params.TransferLimit
	if limit <= 0 {
		return []models.Transaction{e.transferChunk(step, amount, c, dest)}
	}

	var txs []models.Transaction
	remaining := amount
	failed := false
	for remaining > limit && !failed {
		t := e.transferChunk(step, limit, c, dest)
		txs = append(txs, t)
		failed = !t.IsSuccessful()
		remaining -= limit
	}
	if remaining > 0 && !failed {
		txs = append(txs, e.transferChunk(step, remaining, c, dest))
	}
	return txs
}

func (e *Engine) transferChunk(step int, amount float64, c, dest *ledger.Account) models.Transaction {
	s := take(c, dest)
	dest.Remember(c)

	if e.fraud.Blocks(c, amount) {
		return s.record(step, models.ActionTransfer, amount, models.TransactionFlags{
			Fraud:        c.Fraud,
			FlaggedFraud: true,
		})
	}

	overdraft := c.Withdraw(amount)
	if !overdraft {
		dest.Deposit(amount)
	}
	return s.record(step, models.ActionTransfer, amount, models.TransactionFlags{
		Fraud:                 c.Fraud,
		UnauthorizedOverdraft: overdraft,
		Successful:            !overdraft,
	})
}
