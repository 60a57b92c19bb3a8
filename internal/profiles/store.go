package profiles

import (
	"fmt"
	"math"

	"github.com/nvandessel/txsim/internal/models"
	"github.com/nvandessel/txsim/internal/random"
)

// Store is the read side of a profile bundle as the simulation sees it.
type Store interface {
	// ClientProfiles returns the client profiles in bundle order.
	ClientProfiles() []ClientProfile

	// PickClientProfile draws a client profile weighted by frequency.
	PickClientProfile(rng random.Sampler) (ClientProfile, error)

	// StepProfile returns the profile of step, or nil when none is defined.
	StepProfile(step int) *models.StepProfile

	// StepTargetCount is the number of actions expected during step.
	StepTargetCount(step int) int

	// TotalTargetCount is the number of actions expected over steps [0, steps).
	TotalTargetCount(steps int) int

	Balances() BalanceTable
	Overdraft() OverdraftTable
}

// MemoryStore serves a validated bundle from memory.
type MemoryStore struct {
	bundle  *Bundle
	steps   map[int]*models.StepProfile
	weights []float64
}

var _ Store = (*MemoryStore)(nil)

// NewStore validates b and indexes it for lookups.
func NewStore(b *Bundle) (*MemoryStore, error) {
	if err := Check(b); err != nil {
		return nil, err
	}
	s := &MemoryStore{
		bundle:  b,
		steps:   make(map[int]*models.StepProfile, len(b.Steps)),
		weights: make([]float64, len(b.Clients)),
	}
	for i := range b.Steps {
		s.steps[b.Steps[i].Step] = &b.Steps[i]
	}

	total := 0.0
	for i, c := range b.Clients {
		s.weights[i] = c.Frequency
		total += c.Frequency
	}
	if total == 0 {
		for i := range s.weights {
			s.weights[i] = 1
		}
	}
	return s, nil
}

func (s *MemoryStore) ClientProfiles() []ClientProfile { return s.bundle.Clients }

func (s *MemoryStore) PickClientProfile(rng random.Sampler) (ClientProfile, error) {
	i, ok := rng.Weighted(s.weights)
	if !ok {
		return ClientProfile{}, fmt.Errorf("no client profile to pick")
	}
	return s.bundle.Clients[i], nil
}

func (s *MemoryStore) StepProfile(step int) *models.StepProfile {
	if p := s.bundle.Period; p > 0 {
		step %= p
	}
	return s.steps[step]
}

func (s *MemoryStore) StepTargetCount(step int) int {
	return s.StepProfile(step).TargetCount()
}

func (s *MemoryStore) TotalTargetCount(steps int) int {
	total := 0
	for step := 0; step < steps; step++ {
		total += s.StepTargetCount(step)
	}
	return total
}

func (s *MemoryStore) Balances() BalanceTable { return s.bundle.Balances }
func (s *MemoryStore) Overdraft() OverdraftTable { return s.bundle.Overdraft }

// ScaledCount applies the population multiplier to a target count.
func ScaledCount(count int, multiplier float64) int {
	if multiplier <= 0 {
		return count
	}
	return int(math.Round(float64(count) * multiplier))
}

// MeanClientTarget is the frequency-weighted mean target count of the client
// profiles, used to size the client population.
func MeanClientTarget(clients []ClientProfile) float64 {
	var sum, weight float64
	for _, c := range clients {
		w := c.Frequency
		sum += float64(c.TargetCount) * w
		weight += w
	}
	if weight == 0 {
		if len(clients) == 0 {
			return 0
		}
		for _, c := range clients {
			sum += float64(c.TargetCount)
		}
		return sum / float64(len(clients))
	}
	return sum / weight
}
