// Package constants provides named constants used throughout the txsim codebase.
// This centralizes magic numbers for better maintainability and documentation.
package constants

// Spring correction constants. The spring pulls a client's inflow/outflow
// balance back toward an equilibrium proportional to its typical
// transaction size, so balances do not drift without bound.
const (
	// SpringEquilibriumFactor multiplies the expected average transaction to
	// obtain the equilibrium balance.
	SpringEquilibriumFactor = 40.0

	// SpringCorrectionStrength scales the spring force in the inflow probability.
	SpringCorrectionStrength = 3e-5
)

// Fraud heuristic constants.
const (
	// FraudWarmupTransfers is the number of transfers a client performs before
	// the heuristic can flag it.
	FraudWarmupTransfers = 3

	// FraudThresholdMultiplier multiplies the transfer limit to obtain the
	// balance-drop threshold above which a transfer is blocked.
	FraudThresholdMultiplier = 2.5
)

// Calendar constants used to bucket steps for aggregation.
const (
	// StepsPerHour is the number of simulation steps in one hour.
	StepsPerHour = 1

	HoursPerDay  = 24
	DaysPerMonth = 30
)

// Simulation defaults.
const (
	// DefaultTransferLimit is the largest amount a single transfer chunk may carry.
	DefaultTransferLimit = 200000.0

	// DefaultSteps is one 30-day month of hourly steps.
	DefaultSteps = 720

	// DefaultSeed is the seed used when none is configured.
	DefaultSeed = 1

	DefaultMerchants = 50
	DefaultBanks     = 5

	// DefaultFraudShare is the share of clients carrying the fraud label.
	DefaultFraudShare = 0.01

	// OutputPrecision is the number of decimals written for amounts and balances.
	OutputPrecision = 2

	// ProbabilityTolerance is how far a probability set may drift from 1.
	ProbabilityTolerance = 1e-6
)

// Account id prefixes.
const (
	ClientPrefix   = "C"
	MerchantPrefix = "M"
	BankPrefix     = "B"
)
