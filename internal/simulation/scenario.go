package simulation

import (
	"fmt"
	"math"

	"github.com/nvandessel/txsim/internal/config"
	"github.com/nvandessel/txsim/internal/constants"
	"github.com/nvandessel/txsim/internal/models"
	"github.com/nvandessel/txsim/internal/store"
)

// Scenario defines a complete simulation run.
type Scenario struct {
	Name  string
	Seed  uint64
	Steps int

	// Clients is the client population. 0 derives it from the scaled total
	// target count and the mean client target of the profiles.
	Clients   int
	Merchants int
	Banks     int

	TransferLimit float64

	// Multiplier scales every step target count. 0 is treated as 1.
	Multiplier float64

	// MaxTransactions aborts the run once this many records were emitted.
	// 0 means unlimited.
	MaxTransactions int

	// FraudShare is the probability that a client carries the fraud label.
	FraudShare float64

	// ProfilesPath is reported in the run parameters only.
	ProfilesPath string
}

// ScenarioFromConfig maps the simulation section of a config onto a Scenario.
func ScenarioFromConfig(cfg *config.SimConfig) Scenario {
	s := cfg.Simulation
	return Scenario{
		Name:            s.Name,
		Seed:            s.Seed,
		Steps:           s.Steps,
		Clients:         s.Clients,
		Merchants:       s.Merchants,
		Banks:           s.Banks,
		TransferLimit:   s.TransferLimit,
		Multiplier:      s.Multiplier,
		MaxTransactions: s.MaxTransactions,
		FraudShare:      s.FraudShare,
		ProfilesPath:    cfg.Profiles.Path,
	}
}

func (sc Scenario) withDefaults() Scenario {
	if sc.Name == "" {
		sc.Name = "txsim"
	}
	if sc.Merchants == 0 {
		sc.Merchants = constants.DefaultMerchants
	}
	if sc.Banks == 0 {
		sc.Banks = constants.DefaultBanks
	}
	if sc.TransferLimit == 0 {
		sc.TransferLimit = constants.DefaultTransferLimit
	}
	if sc.Multiplier == 0 {
		sc.Multiplier = 1
	}
	return sc
}

// Validate reports the first invalid field.
func (sc Scenario) Validate() error {
	switch {
	case sc.Steps <= 0:
		return fmt.Errorf("steps must be positive, got %d", sc.Steps)
	case sc.Clients < 0:
		return fmt.Errorf("clients must be non-negative, got %d", sc.Clients)
	case sc.Merchants <= 0:
		return fmt.Errorf("merchants must be positive, got %d", sc.Merchants)
	case sc.Banks <= 0:
		return fmt.Errorf("banks must be positive, got %d", sc.Banks)
	case sc.TransferLimit <= 0:
		return fmt.Errorf("transfer limit must be positive, got %f", sc.TransferLimit)
	case sc.Multiplier < 0:
		return fmt.Errorf("multiplier must be non-negative, got %f", sc.Multiplier)
	case sc.MaxTransactions < 0:
		return fmt.Errorf("max transactions must be non-negative, got %d", sc.MaxTransactions)
	case sc.FraudShare < 0 || sc.FraudShare > 1 || math.IsNaN(sc.FraudShare):
		return fmt.Errorf("fraud share must be between 0 and 1, got %f", sc.FraudShare)
	}
	return nil
}

// SimulationResult captures the run summary and the final ledger state.
type SimulationResult struct {
	Summary store.Summary

	// Accounts are every account of the run in creation order: banks,
	// merchants, then clients.
	Accounts []AccountState

	// StepsRun is the number of steps completed before the run ended.
	StepsRun int
}

// AccountState is a read-only snapshot of an account at the end of a run.
type AccountState struct {
	ID             string
	Kind           string
	Profile        string
	Fraud          bool
	InitialBalance float64
	Balance        float64
	OverdraftLimit float64
}

// Records returns the aggregate record of action during step, if any.
func (r SimulationResult) Records(step int, action models.ActionType) (models.StepActionProfile, bool) {
	for _, rec := range r.Summary.Aggregates {
		if rec.Step == step && rec.Action == action {
			return rec, true
		}
	}
	return models.StepActionProfile{}, false
}
