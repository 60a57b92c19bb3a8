package engine

import (
	"fmt"

	"github.com/nvandessel/txsim/internal/constants"
	"github.com/nvandessel/txsim/internal/models"
	"github.com/nvandessel/txsim/internal/random"
)

// SelectCount draws the number of actions an agent performs in a step:
// B(targetCount, weight), weight being the agent's share of the step target.
func SelectCount(targetCount int, weight float64, rng random.Sampler) int {
	return rng.Binomial(targetCount, weight)
}

// Distribution is the action distribution of one agent at one moment, before
// and after spring correction. Actions, Raw and Final are index-aligned and
// follow the canonical action order.
type Distribution struct {
	Actions []models.ActionType
	Raw     []float64
	Final   []float64

	ProbInflow     float64
	ProbOutflow    float64
	NewProbInflow  float64
	NewProbOutflow float64
}

// Blend computes the spring-corrected distribution for an agent.
// stepProbs may be nil when the current step defines no profile.
func Blend(agent models.ActionProfile, stepProbs map[models.ActionType]float64, balance, expectedAvg float64) Distribution {
	actions := agent.Known()
	d := Distribution{
		Actions: actions,
		Raw:     make([]float64, len(actions)),
		Final:   make([]float64, len(actions)),
	}

	for i, a := range actions {
		p := agent.Actions[a].Probability
		if sp, ok := stepProbs[a]; ok {
			p = (p + sp) / 2
		}
		d.Raw[i] = p
		if a.IsInflow() {
			d.ProbInflow += p
		}
	}
	d.ProbOutflow = 1 - d.ProbInflow

	d.NewProbInflow = SpringInflow(d.ProbInflow, d.ProbOutflow, balance, expectedAvg)
	d.NewProbOutflow = 1 - d.NewProbInflow

	for i, a := range actions {
		if a.IsInflow() {
			if d.ProbInflow > 0 {
				d.Final[i] = d.Raw[i] * d.NewProbInflow / d.ProbInflow
			}
			continue
		}
		if d.ProbOutflow > 0 {
			d.Final[i] = d.Raw[i] * d.NewProbOutflow / d.ProbOutflow
		}
	}
	return d
}

// SpringInflow returns the corrected inflow probability, clamped to [0, 1].
// The spring is attached to an equilibrium balance of
// SpringEquilibriumFactor times the expected average transaction; an agent
// with no expected transaction has no spring.
func SpringInflow(probInflow, probOutflow, balance, expectedAvg float64) float64 {
	equilibrium := constants.SpringEquilibriumFactor * expectedAvg

	springForce := 0.0
	if equilibrium > 0 {
		k := 1 / equilibrium
		springForce = k * (equilibrium - balance)
	}

	p := 0.5 * (1 + expectedAvg*constants.SpringCorrectionStrength*springForce + (probInflow - probOutflow))
	switch {
	case p > 1:
		return 1
	case p < 0:
		return 0
	}
	return p
}

// SelectAction picks the next action of an agent from its blended,
// spring-corrected distribution.
func SelectAction(agent models.ActionProfile, stepProbs map[models.ActionType]float64, balance, expectedAvg float64, rng random.Sampler) (models.ActionType, error) {
	d := Blend(agent, stepProbs, balance, expectedAvg)
	idx, ok := rng.Weighted(d.Final)
	if !ok {
		return "", fmt.Errorf("%w: profile %q", ErrNoAction, agent.Name)
	}
	return d.Actions[idx], nil
}
