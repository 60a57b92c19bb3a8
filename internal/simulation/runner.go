package simulation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nvandessel/txsim/internal/aggregate"
	"github.com/nvandessel/txsim/internal/engine"
	"github.com/nvandessel/txsim/internal/logging"
	"github.com/nvandessel/txsim/internal/models"
	"github.com/nvandessel/txsim/internal/profiles"
	"github.com/nvandessel/txsim/internal/random"
	"github.com/nvandessel/txsim/internal/ratelimit"
	"github.com/nvandessel/txsim/internal/store"
)

// Runner drives a run: it builds the population, steps every client in
// creation order and hands each step's records to the sink at the step
// boundary.
type Runner struct {
	profiles  profiles.Store
	sink      store.Sink
	logger    *slog.Logger
	decisions *logging.DecisionLogger
	pacer     *ratelimit.Pacer
	now       func() time.Time
	runID     string
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the operational logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithDecisionLogger records fraud blocks, agent aborts and run boundaries.
func WithDecisionLogger(dl *logging.DecisionLogger) Option {
	return func(r *Runner) { r.decisions = dl }
}

// WithPacer limits the number of steps per second.
func WithPacer(p *ratelimit.Pacer) Option {
	return func(r *Runner) { r.pacer = p }
}

// WithClock replaces time.Now for the run timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithRunID fixes the run id instead of generating a UUID.
func WithRunID(id string) Option {
	return func(r *Runner) { r.runID = id }
}

// NewRunner returns a runner reading from ps and writing to sink. A nil sink
// discards records.
func NewRunner(ps profiles.Store, sink store.Sink, opts ...Option) *Runner {
	r := &Runner{
		profiles: ps,
		sink:     sink,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	if r.sink == nil {
		r.sink = store.NewMultiSink()
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the scenario. Cancelling ctx stops the run at the next step
// boundary; the records produced so far are still finished on the sink and
// the summary is marked aborted. The sink is not closed.
func (r *Runner) Run(ctx context.Context, sc Scenario) (SimulationResult, error) {
	sc = sc.withDefaults()
	if err := sc.Validate(); err != nil {
		return SimulationResult{}, fmt.Errorf("invalid scenario: %w", err)
	}

	rng := random.New(sc.Seed)
	pop, err := buildPopulation(sc, r.profiles, rng)
	if err != nil {
		return SimulationResult{}, fmt.Errorf("failed to build population: %w", err)
	}
	eng := engine.New(pop.registry, engine.Params{TransferLimit: sc.TransferLimit})

	runID := r.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	run := store.RunInfo{
		ID:            runID,
		Name:          sc.Name,
		Seed:          sc.Seed,
		Steps:         sc.Steps,
		Clients:       len(pop.registry.Clients()),
		Merchants:     sc.Merchants,
		Banks:         sc.Banks,
		Fraudsters:    len(pop.fraudsters()),
		TransferLimit: sc.TransferLimit,
		Multiplier:    sc.Multiplier,
		Profiles:      sc.ProfilesPath,
		StartedAt:     r.now().UTC(),
	}

	// Sinks finish the steps already simulated even after cancellation.
	sinkCtx := context.WithoutCancel(ctx)
	if err := r.sink.Begin(sinkCtx, run); err != nil {
		return SimulationResult{}, err
	}
	r.logger.Info("run started", "run_id", runID, "name", sc.Name, "seed", sc.Seed,
		"steps", sc.Steps, "clients", run.Clients, "sink", r.sink.Name(),
		"steps_per_second", r.pacer.Rate())
	r.decisions.Log(map[string]any{
		"event":   logging.EventRunStarted,
		"run_id":  runID,
		"seed":    sc.Seed,
		"steps":   sc.Steps,
		"clients": run.Clients,
	})

	agg := aggregate.New()
	total := 0
	aborted := false
	stepsRun := 0

	for step := 0; step < sc.Steps && !aborted; step++ {
		target := profiles.ScaledCount(r.profiles.StepTargetCount(step), sc.Multiplier)
		in := engine.StepInput{
			Step:        step,
			TargetCount: target,
			Profile:     r.profiles.StepProfile(step),
		}

		var batch []models.Transaction
		consume := func(txs []models.Transaction) bool {
			batch = append(batch, txs...)
			total += len(txs)
			if sc.MaxTransactions > 0 && total >= sc.MaxTransactions {
				aborted = true
				return false
			}
			if ctx.Err() != nil {
				aborted = true
				return false
			}
			return true
		}

		for _, c := range pop.registry.Clients() {
			res, err := eng.Step(in, c, rng, consume)
			if err != nil {
				return SimulationResult{}, fmt.Errorf("step %d: %w", step, err)
			}
			r.logger.Log(ctx, logging.LevelTrace, "agent step", "step", step, "client", c.ID,
				"actions", res.Actions, "transactions", res.Transactions, "balance", c.Balance())
			if res.Aborted {
				r.decisions.AgentAborted(runID, step, c.ID, res.Actions, res.Planned)
				break
			}
		}

		agg.Consume(step, batch)
		if r.decisions.Enabled() {
			for _, tx := range batch {
				if tx.IsFlaggedFraud() {
					r.decisions.FraudBlocked(runID, step, tx.Origin().ID, tx.Amount(), tx.Origin().BalanceBefore)
				}
			}
		}
		if err := r.sink.Write(sinkCtx, step, batch); err != nil {
			return SimulationResult{}, fmt.Errorf("step %d: %w", step, err)
		}
		stepsRun++
		r.logger.Debug("step complete", "step", step, "target", target, "transactions", len(batch), "total", total)

		if !aborted && step+1 < sc.Steps {
			if err := r.pacer.Wait(ctx); err != nil {
				aborted = true
			}
		}
	}

	if aborted {
		r.logger.Warn("run stopped early", "run_id", runID, "steps_run", stepsRun,
			"transactions", total, "cancelled", ctx.Err() != nil)
	}

	expected := func(step int) int {
		return profiles.ScaledCount(r.profiles.StepTargetCount(step), sc.Multiplier)
	}
	expectedAction := func(action models.ActionType, step int) int {
		p := r.profiles.StepProfile(step).Action(action)
		if p == nil {
			return 0
		}
		return profiles.ScaledCount(p.Count, sc.Multiplier)
	}
	var fraudsters []aggregate.Fraudster
	for _, c := range pop.fraudsters() {
		fraudsters = append(fraudsters, agg.Fraudster(c.ID))
	}
	sum := store.Summary{
		Run:           run,
		Transactions:  total,
		TotalError:    agg.CountError(stepsRun, expected),
		ActionErrors:  agg.ActionCountErrors(stepsRun, expectedAction),
		Aborted:       aborted,
		Aggregates:    agg.Records(),
		ProfileCounts: pop.counts,
		Fraudsters:    fraudsters,
		FinishedAt:    r.now().UTC(),
	}
	if err := r.sink.Finish(sinkCtx, sum); err != nil {
		return SimulationResult{}, err
	}

	r.decisions.Log(map[string]any{
		"event":        logging.EventRunFinished,
		"run_id":       runID,
		"steps_run":    stepsRun,
		"transactions": total,
		"total_error":  sum.TotalError,
		"aborted":      aborted,
	})
	r.logger.Info("run finished", "run_id", runID, "transactions", total,
		"total_error", sum.TotalError, "aborted", aborted)

	return SimulationResult{
		Summary:  sum,
		Accounts: snapshotAccounts(pop.registry),
		StepsRun: stepsRun,
	}, nil
}
