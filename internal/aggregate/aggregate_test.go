package aggregate

import (
	"math"
	"testing"

	"github.com/nvandessel/txsim/internal/models"
)

func tx(step int, action models.ActionType, amount float64) models.Transaction {
	return models.NewTransaction(step, action, amount,
		models.Party{ID: "C0"}, models.Party{ID: "M0"}, models.TransactionFlags{Successful: true})
}

func TestAggregator_RunningStats(t *testing.T) {
	a := New()
	a.Consume(3, []models.Transaction{
		tx(3, models.ActionPayment, 10),
		tx(3, models.ActionPayment, 20),
		tx(3, models.ActionCashIn, 100),
	})
	a.Consume(3, []models.Transaction{tx(3, models.ActionPayment, 30)})

	recs := a.Records()
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	// canonical order puts CASH_IN before PAYMENT
	cashIn, payment := recs[0], recs[1]
	if cashIn.Action != models.ActionCashIn || payment.Action != models.ActionPayment {
		t.Fatalf("order = %s, %s", cashIn.Action, payment.Action)
	}

	if payment.Count != 3 || payment.Sum != 60 || payment.Mean != 20 {
		t.Errorf("payment = %+v", payment)
	}
	if want := math.Sqrt(200.0 / 3); math.Abs(payment.Std-want) > 1e-12 {
		t.Errorf("payment std = %v, want %v", payment.Std, want)
	}
	if payment.Probability != 0.75 || cashIn.Probability != 0.25 {
		t.Errorf("probabilities = %v / %v, want 0.75 / 0.25", payment.Probability, cashIn.Probability)
	}
	if cashIn.Std != 0 {
		t.Errorf("single-sample std = %v, want 0", cashIn.Std)
	}
	if payment.Step != 3 || payment.Hour != 3 || payment.Day != 0 || payment.Month != 0 {
		t.Errorf("calendar = step %d %d/%d/%d", payment.Step, payment.Month, payment.Day, payment.Hour)
	}
	if a.Total() != 4 || a.StepCount(3) != 4 {
		t.Errorf("Total = %d, StepCount(3) = %d", a.Total(), a.StepCount(3))
	}
}

func TestAggregator_RecordsOrderedByStep(t *testing.T) {
	a := New()
	for _, step := range []int{50, 2, 26} {
		a.Consume(step, []models.Transaction{tx(step, models.ActionTransfer, 1), tx(step, models.ActionCashOut, 1)})
	}
	recs := a.Records()
	wantSteps := []int{2, 2, 26, 26, 50, 50}
	for i, r := range recs {
		if r.Step != wantSteps[i] {
			t.Errorf("record %d step = %d, want %d", i, r.Step, wantSteps[i])
		}
	}
	if recs[0].Action != models.ActionCashOut {
		t.Errorf("first action = %s, want CASH_OUT", recs[0].Action)
	}
}

func TestAggregator_CountError(t *testing.T) {
	a := New()
	a.Consume(0, []models.Transaction{tx(0, models.ActionPayment, 1), tx(0, models.ActionPayment, 1)})
	a.Consume(1, []models.Transaction{tx(1, models.ActionPayment, 1)})

	expected := map[int]int{0: 4, 1: 1, 2: 0}
	got := a.CountError(3, func(step int) int { return expected[step] })
	// step 0: |2-4|/4 = 0.5, step 1: 0, step 2 skipped
	if math.Abs(got-0.25) > 1e-12 {
		t.Errorf("CountError() = %v, want 0.25", got)
	}
	if got := New().CountError(3, func(int) int { return 0 }); got != 0 {
		t.Errorf("CountError() with no targets = %v, want 0", got)
	}
}

func TestAggregator_ActionCountErrors(t *testing.T) {
	a := New()
	a.Consume(0, []models.Transaction{
		tx(0, models.ActionPayment, 1), tx(0, models.ActionPayment, 1), tx(0, models.ActionCashIn, 1),
	})
	a.Consume(1, []models.Transaction{tx(1, models.ActionPayment, 1), tx(1, models.ActionDebit, 1)})

	expected := map[models.ActionType][]int{
		models.ActionPayment: {4, 1},
		models.ActionCashIn:  {1, 2},
	}
	got := a.ActionCountErrors(2, func(action models.ActionType, step int) int {
		if counts, ok := expected[action]; ok {
			return counts[step]
		}
		return 0
	})

	want := []ActionError{
		// step 0: |1-1|/1, step 1: |0-2|/2
		{Action: models.ActionCashIn, Expected: 3, Produced: 1, Error: 0.5},
		// nothing expected, so nothing to measure
		{Action: models.ActionDebit, Expected: 0, Produced: 1, Error: 0},
		// step 0: |2-4|/4, step 1: |1-1|/1
		{Action: models.ActionPayment, Expected: 5, Produced: 3, Error: 0.25},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		g, w := got[i], want[i]
		if g.Action != w.Action || g.Expected != w.Expected || g.Produced != w.Produced || math.Abs(g.Error-w.Error) > 1e-12 {
			t.Errorf("entry %d = %+v, want %+v", i, g, w)
		}
	}
}

func TestAggregator_Fraudster(t *testing.T) {
	fraud := func(action models.ActionType, dest string, amount float64, ok bool) models.Transaction {
		return models.NewTransaction(0, action, amount,
			models.Party{ID: "C0"}, models.Party{ID: dest},
			models.TransactionFlags{Fraud: true, Successful: ok})
	}
	a := New()
	a.Consume(0, []models.Transaction{
		fraud(models.ActionTransfer, "C1", 1000, true),
		fraud(models.ActionTransfer, "C1", 500, true),
		fraud(models.ActionTransfer, "C2", 700, false),
		fraud(models.ActionCashOut, "M0", 200, true),
		// honest activity of the same client is not counted
		tx(0, models.ActionPayment, 90),
	})

	got := a.Fraudster("C0")
	if got.ID != "C0" || got.Victims != 3 || got.Profit != 1700 {
		t.Errorf("Fraudster(C0) = %+v, want 3 victims and 1700 profit", got)
	}
	if quiet := a.Fraudster("C9"); quiet.Victims != 0 || quiet.Profit != 0 {
		t.Errorf("Fraudster(C9) = %+v, want zero tally", quiet)
	}
}
