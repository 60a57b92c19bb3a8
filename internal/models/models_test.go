package models

import (
	"math"
	"testing"
)

func TestParseActionType(t *testing.T) {
	tests := []struct {
		in      string
		want    ActionType
		wantErr bool
	}{
		{"CASH_IN", ActionCashIn, false},
		{" transfer ", ActionTransfer, false},
		{"deposit", ActionDeposit, false},
		{"REFUND", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseActionType(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseActionType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseActionType(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestActionClasses(t *testing.T) {
	inflow := map[ActionType]bool{ActionCashIn: true, ActionDeposit: true}
	for i, a := range Actions {
		if ActionIndex(a) != i {
			t.Errorf("ActionIndex(%s) = %d, want %d", a, ActionIndex(a), i)
		}
		if a.IsInflow() != inflow[a] {
			t.Errorf("%s.IsInflow() = %v", a, a.IsInflow())
		}
	}
	if ActionIndex("REFUND") != -1 {
		t.Error("unknown action should have index -1")
	}
}

func TestTransaction_Accessors(t *testing.T) {
	tx := NewTransaction(3, ActionTransfer, 150,
		Party{ID: "C1", BalanceBefore: 200, BalanceAfter: 50},
		Party{ID: "C2", BalanceBefore: 10, BalanceAfter: 160},
		TransactionFlags{Fraud: true, Successful: true},
	)

	if tx.Step() != 3 || tx.Action() != ActionTransfer || tx.Amount() != 150 {
		t.Errorf("unexpected header fields: %+v", tx.Record())
	}
	if tx.Origin().ID != "C1" || tx.Dest().BalanceAfter != 160 {
		t.Errorf("unexpected parties: %+v / %+v", tx.Origin(), tx.Dest())
	}
	want := TransactionFlags{Fraud: true, Successful: true}
	if tx.Flags() != want {
		t.Errorf("Flags() = %+v, want %+v", tx.Flags(), want)
	}
	if tx.IsFlaggedFraud() || tx.IsUnauthorizedOverdraft() {
		t.Error("unexpected flags set")
	}
}

func TestActionProfile_ExpectedTransaction(t *testing.T) {
	p := ActionProfile{Actions: map[ActionType]ActionStats{
		ActionPayment:  {Probability: 0.5, Mean: 100, Std: 20},
		ActionTransfer: {Probability: 0.5, Mean: 300, Std: 40},
	}}

	mean, std := p.ExpectedTransaction()
	if mean != 200 {
		t.Errorf("mean = %v, want 200", mean)
	}
	if want := math.Sqrt(10*10 + 20*20); math.Abs(std-want) > 1e-9 {
		t.Errorf("std = %v, want %v", std, want)
	}

	known := p.Known()
	if len(known) != 2 || known[0] != ActionPayment || known[1] != ActionTransfer {
		t.Errorf("Known() = %v, want [PAYMENT TRANSFER]", known)
	}
}

func TestStepProfile(t *testing.T) {
	var nilStep *StepProfile
	if nilStep.TargetCount() != 0 || nilStep.Probabilities() != nil || nilStep.Action(ActionDebit) != nil {
		t.Error("nil step profile should be empty")
	}

	s := &StepProfile{Step: 5, Actions: map[ActionType]StepActionProfile{
		ActionCashIn:  {Count: 30},
		ActionPayment: {Count: 70},
		ActionDebit:   {Probability: 0.25},
	}}
	if s.TargetCount() != 100 {
		t.Errorf("TargetCount() = %d, want 100", s.TargetCount())
	}
	probs := s.Probabilities()
	if probs[ActionCashIn] != 0.3 || probs[ActionPayment] != 0.7 || probs[ActionDebit] != 0.25 {
		t.Errorf("Probabilities() = %v", probs)
	}
	if s.Action(ActionTransfer) != nil {
		t.Error("undefined action should be nil")
	}
}

func TestStepProfile_ZeroShareActionsAreUndefined(t *testing.T) {
	s := &StepProfile{Step: 0, Actions: map[ActionType]StepActionProfile{
		ActionCashIn:  {Count: 10, Mean: 100},
		ActionPayment: {Count: 0, Mean: -10000, Std: 1},
	}}

	if _, ok := s.Probabilities()[ActionPayment]; ok {
		t.Error("zero-share action must not appear in Probabilities()")
	}
	if s.Action(ActionPayment) != nil {
		t.Error("zero-share action must not be returned by Action()")
	}
	if s.Action(ActionCashIn) == nil || s.Probabilities()[ActionCashIn] != 1 {
		t.Errorf("defined action lost: %v", s.Probabilities())
	}

	s.Actions[ActionPayment] = StepActionProfile{Probability: 0.2, Mean: 50}
	if s.Action(ActionPayment) == nil || s.Probabilities()[ActionPayment] != 0.2 {
		t.Error("action with an explicit probability is defined")
	}
}

func TestSortStepActionProfiles(t *testing.T) {
	ps := []StepActionProfile{
		{Step: 1, Action: ActionDeposit},
		{Step: 0, Action: ActionTransfer},
		{Step: 1, Action: ActionCashIn},
		{Step: 0, Action: ActionCashOut},
	}
	SortStepActionProfiles(ps)

	want := []struct {
		step   int
		action ActionType
	}{
		{0, ActionCashOut}, {0, ActionTransfer}, {1, ActionCashIn}, {1, ActionDeposit},
	}
	for i, w := range want {
		if ps[i].Step != w.step || ps[i].Action != w.action {
			t.Errorf("[%d] = (%d, %s), want (%d, %s)", i, ps[i].Step, ps[i].Action, w.step, w.action)
		}
	}
}
