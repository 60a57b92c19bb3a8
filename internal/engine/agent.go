package engine

import (
	"fmt"

	"github.com/nvandessel/txsim/internal/ledger"
	"github.com/nvandessel/txsim/internal/models"
	"github.com/nvandessel/txsim/internal/random"
)

// BatchConsumer receives the records of each executed action. Returning
// false tells the acting client to stop emitting actions for the rest of the
// step.
type BatchConsumer func(txs []models.Transaction) bool

// StepInput is what a client needs to know about the current step.
type StepInput struct {
	Step        int
	TargetCount int
	Profile     *models.StepProfile // nil when the step defines no profile
}

// StepResult summarizes one client's step.
type StepResult struct {
	Planned      int // actions drawn for the step
	Actions      int
	Transactions int
	Aborted      bool
}

// Step runs one client's full action sequence for a step. Ledger mutations
// are applied immediately, so clients processed later in the same step see
// them.
func (e *Engine) Step(in StepInput, c *ledger.Account, rng random.Sampler, consume BatchConsumer) (StepResult, error) {
	var res StepResult
	if in.TargetCount <= 0 {
		return res, nil
	}

	stepProbs := in.Profile.Probabilities()
	count := SelectCount(in.TargetCount, c.Weight, rng)
	res.Planned = count

	for i := 0; i < count; i++ {
		action, err := SelectAction(c.Profile, stepProbs, c.Balance(), c.ExpectedAvgTransaction, rng)
		if err != nil {
			return res, fmt.Errorf("client %s step %d: %w", c.ID, in.Step, err)
		}
		amount, err := SampleAmount(action, c.Profile, in.Profile.Action(action), rng)
		if err != nil {
			return res, fmt.Errorf("client %s step %d: %w", c.ID, in.Step, err)
		}
		txs, err := e.Execute(in.Step, action, amount, c, rng)
		if err != nil {
			return res, fmt.Errorf("client %s step %d: %w", c.ID, in.Step, err)
		}

		res.Actions++
		res.Transactions += len(txs)
		if !consume(txs) {
			res.Aborted = true
			return res, nil
		}
	}
	return res, nil
}

// OverdraftLookup maps a client's randomized mean transaction to its
// authorized overdraft.
type OverdraftLookup interface {
	Limit(meanTransaction float64) float64
}

// OpenClient attaches a profile to a client account and derives its expected
// average transaction and overdraft limit. The overdraft is looked up from a
// draw of N(expectedAvg, std), std = sqrt(Σ (std·p)²).
func OpenClient(c *ledger.Account, profile models.ActionProfile, weight float64, rng random.Sampler, overdraft OverdraftLookup) {
	c.Profile = profile
	c.Weight = weight

	mean, std := profile.ExpectedTransaction()
	c.ExpectedAvgTransaction = mean

	randomized := rng.Normal(mean, std)
	c.OverdraftLimit = overdraft.Limit(randomized)
}
