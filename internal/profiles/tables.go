package profiles

import (
	"github.com/nvandessel/txsim/internal/random"
)

// BalanceBucket is one range of the initial balance distribution.
type BalanceBucket struct {
	Low  float64 `json:"low" yaml:"low"`
	High float64 `json:"high" yaml:"high"`
	Freq float64 `json:"freq" yaml:"freq"`
}

// BalanceTable is the distribution clients draw their opening balance from.
type BalanceTable []BalanceBucket

// Pick draws a bucket weighted by frequency, then a uniform balance inside
// it. An empty table, or one without positive frequencies, yields 0.
func (t BalanceTable) Pick(rng random.Sampler) float64 {
	if len(t) == 0 {
		return 0
	}
	weights := make([]float64, len(t))
	for i, b := range t {
		weights[i] = b.Freq
	}
	i, ok := rng.Weighted(weights)
	if !ok {
		return 0
	}
	b := t[i]
	return b.Low + rng.Float64()*(b.High-b.Low)
}

// OverdraftBucket maps a range of mean transaction sizes to an authorized
// overdraft.
type OverdraftBucket struct {
	Low   float64 `json:"low" yaml:"low"`
	High  float64 `json:"high" yaml:"high"`
	Limit float64 `json:"limit" yaml:"limit"`
}

// OverdraftTable looks overdraft limits up by mean transaction size.
type OverdraftTable []OverdraftBucket

// Limit returns the overdraft of the first bucket with Low <= mean < High.
// Means outside every bucket get no overdraft.
func (t OverdraftTable) Limit(mean float64) float64 {
	for _, b := range t {
		if mean >= b.Low && mean < b.High {
			return b.Limit
		}
	}
	return 0
}
