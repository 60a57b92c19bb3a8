package models

import (
	"math"
	"sort"
)

// ActionStats holds the amount distribution and probability of one action.
type ActionStats struct {
	Probability float64 `json:"probability" yaml:"probability"`
	Mean        float64 `json:"mean" yaml:"mean"`
	Std         float64 `json:"std" yaml:"std"`
}

// ActionProfile is the per-action behavior of a single agent.
type ActionProfile struct {
	// Name identifies the profile in the profile bundle.
	Name string `json:"name" yaml:"name"`

	// TargetCount is the number of actions a client with this profile is
	// expected to perform over the whole run. It is turned into the client's
	// share weight of the step target counts.
	TargetCount int `json:"target_count" yaml:"target_count"`

	Actions map[ActionType]ActionStats `json:"actions" yaml:"actions"`
}

// Known returns the actions this profile defines, in canonical order.
func (p ActionProfile) Known() []ActionType {
	known := make([]ActionType, 0, len(p.Actions))
	for _, a := range Actions {
		if _, ok := p.Actions[a]; ok {
			known = append(known, a)
		}
	}
	return known
}

// ExpectedTransaction returns the probability-weighted mean amount and the
// combined standard deviation sqrt(Σ (std·p)²) of the profile.
func (p ActionProfile) ExpectedTransaction() (mean, std float64) {
	var variance float64
	for _, a := range p.Known() {
		s := p.Actions[a]
		mean += s.Mean * s.Probability
		variance += math.Pow(s.Std*s.Probability, 2)
	}
	return mean, math.Sqrt(variance)
}

// StepActionProfile is the population-wide distribution of one action during
// one step. Count and Sum are filled by aggregation; Probability is the
// action's share of the step.
type StepActionProfile struct {
	Step        int        `json:"step" yaml:"step"`
	Action      ActionType `json:"action" yaml:"action"`
	Month       int        `json:"month" yaml:"month"`
	Day         int        `json:"day" yaml:"day"`
	Hour        int        `json:"hour" yaml:"hour"`
	Count       int        `json:"count" yaml:"count"`
	Sum         float64    `json:"sum" yaml:"sum"`
	Mean        float64    `json:"mean" yaml:"mean"`
	Std         float64    `json:"std" yaml:"std"`
	Probability float64    `json:"probability" yaml:"probability"`
}

// Defined reports whether the action has a share of its step. Entries with
// neither a count nor a probability are ignored by selection and sampling.
func (p StepActionProfile) Defined() bool {
	return p.Count > 0 || p.Probability > 0
}

// StepProfile is every action profile of a single step.
type StepProfile struct {
	Step    int                              `json:"step" yaml:"step"`
	Actions map[ActionType]StepActionProfile `json:"actions" yaml:"actions"`
}

// TargetCount is the total number of actions expected during the step.
func (s *StepProfile) TargetCount() int {
	if s == nil {
		return 0
	}
	total := 0
	for _, a := range s.Actions {
		total += a.Count
	}
	return total
}

// Probabilities returns the shares of the defined actions of the step keyed
// by action type. A nil step yields nil.
func (s *StepProfile) Probabilities() map[ActionType]float64 {
	if s == nil {
		return nil
	}
	total := s.TargetCount()
	probs := make(map[ActionType]float64, len(s.Actions))
	for action, a := range s.Actions {
		if !a.Defined() {
			continue
		}
		switch {
		case a.Probability > 0:
			probs[action] = a.Probability
		case total > 0:
			probs[action] = float64(a.Count) / float64(total)
		}
	}
	return probs
}

// Action returns the profile of one action, or nil when the step does not
// define it. Probabilities and Action agree on which actions are defined.
func (s *StepProfile) Action(a ActionType) *StepActionProfile {
	if s == nil {
		return nil
	}
	p, ok := s.Actions[a]
	if !ok || !p.Defined() {
		return nil
	}
	return &p
}

// SortStepActionProfiles orders profiles by step, then canonical action order.
func SortStepActionProfiles(profiles []StepActionProfile) {
	sort.SliceStable(profiles, func(i, j int) bool {
		if profiles[i].Step != profiles[j].Step {
			return profiles[i].Step < profiles[j].Step
		}
		return ActionIndex(profiles[i].Action) < ActionIndex(profiles[j].Action)
	})
}
