package models

import (
	"fmt"
	"strings"
)

// ActionType is the kind of economic action an agent performs in a step.
type ActionType string

const (
	ActionCashIn   ActionType = "CASH_IN"   // Client receives cash through a merchant
	ActionCashOut  ActionType = "CASH_OUT"  // Client takes cash out through a merchant
	ActionDebit    ActionType = "DEBIT"     // Client is debited by its bank
	ActionPayment  ActionType = "PAYMENT"   // Client pays a merchant
	ActionTransfer ActionType = "TRANSFER"  // Client sends money to another client
	ActionDeposit  ActionType = "DEPOSIT"   // Client deposits money at its bank
)

// Actions lists every action type in canonical order. Anything that iterates
// over actions while consuming randomness must use this order.
var Actions = []ActionType{
	ActionCashIn,
	ActionCashOut,
	ActionDebit,
	ActionPayment,
	ActionTransfer,
	ActionDeposit,
}

// Valid reports whether a is one of the known action types.
func (a ActionType) Valid() bool {
	switch a {
	case ActionCashIn, ActionCashOut, ActionDebit, ActionPayment, ActionTransfer, ActionDeposit:
		return true
	default:
		return false
	}
}

// IsInflow reports whether the action increases the acting client's balance.
func (a ActionType) IsInflow() bool {
	return a == ActionCashIn || a == ActionDeposit
}

// String implements fmt.Stringer.
func (a ActionType) String() string {
	return string(a)
}

// ParseActionType converts a case-insensitive name into an ActionType.
func ParseActionType(s string) (ActionType, error) {
	a := ActionType(strings.ToUpper(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("unknown action type: %q", s)
	}
	return a, nil
}

// ActionIndex returns the position of a in Actions, or -1.
func ActionIndex(a ActionType) int {
	for i, known := range Actions {
		if known == a {
			return i
		}
	}
	return -1
}
