// Package ledger holds the balance-carrying participants of a simulation:
// clients, merchants and banks. All three share the same ledger capability
// (balance, deposit, withdraw, remember counterparty) and are distinguished
// by their Kind tag.
package ledger

import (
	"github.com/nvandessel/txsim/internal/models"
)

// Kind tags the role of an account.
type Kind string

const (
	KindClient   Kind = "client"
	KindMerchant Kind = "merchant"
	KindBank     Kind = "bank"
)

// Account is a balance-holding participant. Accounts are created once at the
// start of a run and mutated in place; the balance only changes through
// Deposit and Withdraw.
type Account struct {
	ID    string
	Kind  Kind
	Fraud bool // ground-truth label copied onto CASH_OUT and TRANSFER records

	// OverdraftLimit is the authorized negative balance, as a positive number.
	OverdraftLimit float64

	// Client-only state.
	Profile                models.ActionProfile
	Weight                 float64 // share of the global step target count
	ExpectedAvgTransaction float64
	Bank                   *Account

	// Fraud heuristic state.
	BalanceMax    float64
	TransferCount int

	balance        float64
	initialBalance float64
	counterparties []string
	seen           map[string]struct{}
}

// New creates an account of the given kind with an opening balance.
func New(id string, kind Kind, balance float64) *Account {
	return &Account{
		ID:             id,
		Kind:           kind,
		balance:        balance,
		initialBalance: balance,
	}
}

// Balance returns the current balance.
func (a *Account) Balance() float64 {
	return a.balance
}

// InitialBalance returns the balance the account was opened with.
func (a *Account) InitialBalance() float64 {
	return a.initialBalance
}

// Deposit credits amount to the account. It always succeeds.
func (a *Account) Deposit(amount float64) {
	a.balance += amount
}

// Withdraw debits amount from the account. The withdrawal is always applied;
// the result reports whether the new balance is past the authorized limit.
func (a *Account) Withdraw(amount float64) (unauthorizedOverdraft bool) {
	a.balance -= amount
	return a.balance < -a.OverdraftLimit
}

// Remember records that other has interacted with this account. It is
// bookkeeping only and never moves funds.
func (a *Account) Remember(other *Account) {
	if other == nil {
		return
	}
	if a.seen == nil {
		a.seen = make(map[string]struct{})
	}
	if _, ok := a.seen[other.ID]; ok {
		return
	}
	a.seen[other.ID] = struct{}{}
	a.counterparties = append(a.counterparties, other.ID)
}

// Counterparties returns the ids of accounts that interacted with this one,
// in first-seen order.
func (a *Account) Counterparties() []string {
	out := make([]string, len(a.counterparties))
	copy(out, a.counterparties)
	return out
}
