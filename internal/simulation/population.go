package simulation

import (
	"math"
	"strconv"

	"github.com/nvandessel/txsim/internal/constants"
	"github.com/nvandessel/txsim/internal/engine"
	"github.com/nvandessel/txsim/internal/ledger"
	"github.com/nvandessel/txsim/internal/profiles"
	"github.com/nvandessel/txsim/internal/random"
	"github.com/nvandessel/txsim/internal/store"
)

// minClients keeps a transfer counterparty available for every client.
const minClients = 2

// population is the account set of a run.
type population struct {
	registry *ledger.Registry
	counts   []store.ProfileCount
}

// clientCount returns the configured client count or derives it from the
// scaled total target count.
func clientCount(sc Scenario, ps profiles.Store) int {
	if sc.Clients > 0 {
		return max(sc.Clients, minClients)
	}
	total := profiles.ScaledCount(ps.TotalTargetCount(sc.Steps), sc.Multiplier)
	mean := profiles.MeanClientTarget(ps.ClientProfiles())
	if mean <= 0 {
		return minClients
	}
	return max(int(math.Ceil(float64(total)/mean)), minClients)
}

// buildPopulation creates banks, merchants and clients in that order. Per
// client the draws are: bank, profile, initial balance, overdraft, fraud
// label. Changing this order changes every run.
func buildPopulation(sc Scenario, ps profiles.Store, rng random.Sampler) (*population, error) {
	reg := ledger.NewRegistry()

	for i := 0; i < sc.Banks; i++ {
		if err := reg.Add(ledger.New(constants.BankPrefix+strconv.Itoa(i), ledger.KindBank, 0)); err != nil {
			return nil, err
		}
	}
	for i := 0; i < sc.Merchants; i++ {
		if err := reg.Add(ledger.New(constants.MerchantPrefix+strconv.Itoa(i), ledger.KindMerchant, 0)); err != nil {
			return nil, err
		}
	}

	total := profiles.ScaledCount(ps.TotalTargetCount(sc.Steps), sc.Multiplier)
	byName := make(map[string]int)
	for _, p := range ps.ClientProfiles() {
		byName[p.Name] = 0
	}

	n := clientCount(sc, ps)
	for i := 0; i < n; i++ {
		bank, err := reg.PickBank(rng)
		if err != nil {
			return nil, err
		}
		profile, err := ps.PickClientProfile(rng)
		if err != nil {
			return nil, err
		}

		c := ledger.New(constants.ClientPrefix+strconv.Itoa(i), ledger.KindClient, ps.Balances().Pick(rng))
		c.Bank = bank

		var weight float64
		if total > 0 {
			weight = float64(profile.TargetCount) / float64(total)
		}
		engine.OpenClient(c, profile.ActionProfile, weight, rng, ps.Overdraft())
		c.Fraud = sc.FraudShare > 0 && rng.Float64() < sc.FraudShare

		if err := reg.Add(c); err != nil {
			return nil, err
		}
		byName[profile.Name]++
	}

	counts := make([]store.ProfileCount, 0, len(byName))
	for _, p := range ps.ClientProfiles() {
		counts = append(counts, store.ProfileCount{Name: p.Name, Count: byName[p.Name]})
	}
	return &population{registry: reg, counts: counts}, nil
}

// fraudsters returns the fraud-labelled clients in creation order.
func (p *population) fraudsters() []*ledger.Account {
	var out []*ledger.Account
	for _, c := range p.registry.Clients() {
		if c.Fraud {
			out = append(out, c)
		}
	}
	return out
}

func snapshotAccounts(reg *ledger.Registry) []AccountState {
	var out []AccountState
	for _, group := range [][]*ledger.Account{reg.Banks(), reg.Merchants(), reg.Clients()} {
		for _, a := range group {
			out = append(out, AccountState{
				ID:             a.ID,
				Kind:           string(a.Kind),
				Profile:        a.Profile.Name,
				Fraud:          a.Fraud,
				InitialBalance: a.InitialBalance(),
				Balance:        a.Balance(),
				OverdraftLimit: a.OverdraftLimit,
			})
		}
	}
	return out
}
