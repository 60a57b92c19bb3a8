package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/nvandessel/txsim/internal/models"
	"github.com/nvandessel/txsim/internal/random"
)

const tolerance = 1e-9

func TestBlend_ProbabilitiesSumToOne(t *testing.T) {
	profile := testProfile()
	stepProbs := map[models.ActionType]float64{
		models.ActionCashIn:   0.1,
		models.ActionCashOut:  0.3,
		models.ActionDebit:    0.02,
		models.ActionPayment:  0.38,
		models.ActionTransfer: 0.15,
		models.ActionDeposit:  0.05,
	}
	mean, _ := profile.ExpectedTransaction()

	rng := random.New(99)
	for i := 0; i < 500; i++ {
		balance := rng.Normal(0, 50*mean)
		d := Blend(profile, stepProbs, balance, mean)

		if got := sum(d.Raw); math.Abs(got-1) > tolerance {
			t.Fatalf("balance %.2f: raw sum = %v, want 1", balance, got)
		}
		if got := d.NewProbInflow + d.NewProbOutflow; math.Abs(got-1) > tolerance {
			t.Fatalf("balance %.2f: new inflow+outflow = %v, want 1", balance, got)
		}
		if d.NewProbInflow < 0 || d.NewProbInflow > 1 || d.NewProbOutflow < 0 || d.NewProbOutflow > 1 {
			t.Fatalf("balance %.2f: corrected probabilities out of [0,1]: %v / %v", balance, d.NewProbInflow, d.NewProbOutflow)
		}

		var in, out float64
		for j, a := range d.Actions {
			if a.IsInflow() {
				in += d.Final[j]
			} else {
				out += d.Final[j]
			}
		}
		if math.Abs(in-d.NewProbInflow) > tolerance {
			t.Fatalf("balance %.2f: inflow class sums to %v, want %v", balance, in, d.NewProbInflow)
		}
		if math.Abs(out-d.NewProbOutflow) > tolerance {
			t.Fatalf("balance %.2f: outflow class sums to %v, want %v", balance, out, d.NewProbOutflow)
		}
		if got := sum(d.Final); math.Abs(got-1) > tolerance {
			t.Fatalf("balance %.2f: final sum = %v, want 1", balance, got)
		}
	}
}

func TestBlend_AveragesOnlyDefinedStepActions(t *testing.T) {
	profile := testProfile()
	stepProbs := map[models.ActionType]float64{models.ActionPayment: 0.55}

	d := Blend(profile, stepProbs, 0, 0)
	for i, a := range d.Actions {
		want := profile.Actions[a].Probability
		if a == models.ActionPayment {
			want = (0.35 + 0.55) / 2
		}
		if math.Abs(d.Raw[i]-want) > tolerance {
			t.Errorf("raw[%s] = %v, want %v", a, d.Raw[i], want)
		}
	}
}

func TestBlend_CanonicalOrder(t *testing.T) {
	d := Blend(testProfile(), nil, 0, 100)
	for i, a := range d.Actions {
		if a != models.Actions[i] {
			t.Errorf("Actions[%d] = %s, want %s", i, a, models.Actions[i])
		}
	}
}

func TestBlend_EmptyInflowClassContributesZero(t *testing.T) {
	profile := models.ActionProfile{
		Name: "spender",
		Actions: map[models.ActionType]models.ActionStats{
			models.ActionPayment:  {Probability: 0.7, Mean: 10, Std: 1},
			models.ActionTransfer: {Probability: 0.3, Mean: 10, Std: 1},
		},
	}
	d := Blend(profile, nil, -1e6, 10)
	if d.ProbInflow != 0 {
		t.Fatalf("ProbInflow = %v, want 0", d.ProbInflow)
	}
	for i, a := range d.Actions {
		if a.IsInflow() && d.Final[i] != 0 {
			t.Errorf("inflow action %s has final probability %v", a, d.Final[i])
		}
	}
}

func TestSpringInflow(t *testing.T) {
	tests := []struct {
		name        string
		probIn      float64
		balance     float64
		expectedAvg float64
		want        float64
	}{
		{"at equilibrium keeps raw inflow", 0.3, 4000, 100, 0.3},
		{"no expected transaction disables spring", 0.3, 1e9, 0, 0.3},
		{"far below equilibrium clamps to 1", 0.5, -1e12, 100, 1},
		{"far above equilibrium clamps to 0", 0.5, 1e12, 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SpringInflow(tt.probIn, 1-tt.probIn, tt.balance, tt.expectedAvg)
			if math.Abs(got-tt.want) > tolerance {
				t.Errorf("SpringInflow() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSpringInflow_PullsTowardEquilibrium(t *testing.T) {
	low := SpringInflow(0.3, 0.7, 0, 100)
	high := SpringInflow(0.3, 0.7, 8000, 100)
	if !(low > 0.3 && high < 0.3) {
		t.Errorf("expected inflow boost below equilibrium and cut above it, got low=%v high=%v", low, high)
	}
}

func TestSelectAction(t *testing.T) {
	rng := &scriptedSampler{weighted: 3}
	got, err := SelectAction(testProfile(), nil, 0, 100, rng)
	if err != nil {
		t.Fatalf("SelectAction: %v", err)
	}
	if got != models.ActionPayment {
		t.Errorf("SelectAction() = %s, want PAYMENT", got)
	}
}

func TestSelectAction_NoPositiveProbability(t *testing.T) {
	profile := models.ActionProfile{
		Name: "empty",
		Actions: map[models.ActionType]models.ActionStats{
			models.ActionPayment: {Probability: 0, Mean: 10},
		},
	}
	_, err := SelectAction(profile, nil, 0, 10, random.New(1))
	if !errors.Is(err, ErrNoAction) {
		t.Errorf("error = %v, want ErrNoAction", err)
	}
}

func TestSelectCount(t *testing.T) {
	rng := random.New(4)
	for i := 0; i < 100; i++ {
		n := SelectCount(30, 0.2, rng)
		if n < 0 || n > 30 {
			t.Fatalf("SelectCount(30, 0.2) = %d", n)
		}
	}
	if n := SelectCount(0, 0.5, rng); n != 0 {
		t.Errorf("SelectCount(0, 0.5) = %d, want 0", n)
	}
}
