package engine

import (
	"fmt"
	"math"

	"github.com/nvandessel/txsim/internal/models"
	"github.com/nvandessel/txsim/internal/random"
)

// AmountParams returns the mean and standard deviation of the amount
// distribution for an action. When the step defines the action the two
// distributions are averaged: mean = (a+s)/2, std = sqrt(a²+s²)/2.
func AmountParams(agent models.ActionStats, step *models.StepActionProfile) (mean, std float64) {
	if step == nil {
		return agent.Mean, agent.Std
	}
	mean = (agent.Mean + step.Mean) / 2
	std = math.Sqrt(agent.Std*agent.Std+step.Std*step.Std) / 2
	return mean, std
}

// SampleAmount draws a strictly positive amount for action. Non-positive
// draws are rejected and redrawn. A non-positive blended mean is refused up
// front so the redraw loop always terminates quickly.
func SampleAmount(action models.ActionType, agent models.ActionProfile, step *models.StepActionProfile, rng random.Sampler) (float64, error) {
	stats, ok := agent.Actions[action]
	if !ok {
		return 0, fmt.Errorf("%w: %s missing from profile %q", ErrUnknownAction, action, agent.Name)
	}

	mean, std := AmountParams(stats, step)
	if mean <= 0 {
		return 0, fmt.Errorf("%w: %s mean=%v std=%v", ErrNonPositiveAmount, action, mean, std)
	}

	amount := -1.0
	for amount <= 0 {
		amount = rng.Normal(mean, std)
	}
	return amount, nil
}
