package engine

import (
	"testing"

	"github.com/nvandessel/txsim/internal/ledger"
	"github.com/nvandessel/txsim/internal/models"
)

// scriptedSampler replays fixed draws so tests can follow one exact path.
type scriptedSampler struct {
	ints     []int
	normals  []float64
	binomial int
	weighted int
}

func (s *scriptedSampler) Float64() float64 { return 0.5 }

func (s *scriptedSampler) IntN(n int) int {
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	return v % n
}

func (s *scriptedSampler) Normal(mean, std float64) float64 {
	if len(s.normals) == 0 {
		return mean
	}
	v := s.normals[0]
	s.normals = s.normals[1:]
	return v
}

func (s *scriptedSampler) Binomial(n int, p float64) int {
	if s.binomial > n {
		return n
	}
	return s.binomial
}

func (s *scriptedSampler) Weighted(weights []float64) (int, bool) {
	if s.weighted >= len(weights) || weights[s.weighted] <= 0 {
		return 0, false
	}
	return s.weighted, true
}

// fixture is a small world: two clients, one merchant, one bank.
type fixture struct {
	reg      *ledger.Registry
	client   *ledger.Account
	other    *ledger.Account
	merchant *ledger.Account
	bank     *ledger.Account
}

func newFixture(t *testing.T, balance float64) fixture {
	t.Helper()
	f := fixture{
		reg:      ledger.NewRegistry(),
		client:   ledger.New("C0", ledger.KindClient, balance),
		other:    ledger.New("C1", ledger.KindClient, 0),
		merchant: ledger.New("M0", ledger.KindMerchant, 5000),
		bank:     ledger.New("B0", ledger.KindBank, 0),
	}
	f.client.Bank = f.bank
	f.other.Bank = f.bank
	for _, a := range []*ledger.Account{f.client, f.other, f.merchant, f.bank} {
		if err := f.reg.Add(a); err != nil {
			t.Fatalf("Add(%s): %v", a.ID, err)
		}
	}
	return f
}

func testProfile() models.ActionProfile {
	return models.ActionProfile{
		Name:        "test",
		TargetCount: 100,
		Actions: map[models.ActionType]models.ActionStats{
			models.ActionCashIn:   {Probability: 0.2, Mean: 150, Std: 40},
			models.ActionCashOut:  {Probability: 0.2, Mean: 120, Std: 30},
			models.ActionDebit:    {Probability: 0.05, Mean: 60, Std: 10},
			models.ActionPayment:  {Probability: 0.35, Mean: 40, Std: 15},
			models.ActionTransfer: {Probability: 0.15, Mean: 300, Std: 100},
			models.ActionDeposit:  {Probability: 0.05, Mean: 500, Std: 100},
		},
	}
}

func sum(xs []float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total
}
