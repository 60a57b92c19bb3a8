// Package aggregate turns the raw transaction stream into per-step action
// statistics, the same shape as the step profiles a run is driven by.
package aggregate

import (
	"math"

	"github.com/nvandessel/txsim/internal/models"
)

// key groups transactions by action and calendar position.
type key struct {
	action           models.ActionType
	month, day, hour int
}

// cell holds Welford running statistics for one key.
type cell struct {
	step  int
	count int
	sum   float64
	mean  float64
	m2    float64
}

func (c *cell) add(x float64) {
	c.count++
	c.sum += x
	delta := x - c.mean
	c.mean += delta / float64(c.count)
	c.m2 += delta * (x - c.mean)
}

// std is the population standard deviation of the amounts seen so far.
func (c *cell) std() float64 {
	if c.count < 2 {
		return 0
	}
	return math.Sqrt(c.m2 / float64(c.count))
}

// Aggregator accumulates running count, sum, mean and std of amounts per
// (action, month, day, hour). It is append-only and not safe for concurrent
// use.
type Aggregator struct {
	cells   map[key]*cell
	steps   map[int]int
	actions map[models.ActionType]map[int]int
	fraud   map[string]*fraudTally
	total   int
}

// fraudTally follows the fraud-labelled transfers and cash-outs of one client.
type fraudTally struct {
	victims map[string]struct{}
	profit  float64
}

// Fraudster is the outcome of one fraud-labelled client: how many distinct
// counterparties it moved money towards and how much it moved successfully.
type Fraudster struct {
	ID      string  `json:"id"`
	Victims int     `json:"victims"`
	Profit  float64 `json:"profit"`
}

// ActionError compares the records produced for one action with its target.
type ActionError struct {
	Action   models.ActionType `json:"action"`
	Expected int               `json:"expected"`
	Produced int               `json:"produced"`
	Error    float64           `json:"error"`
}

// New returns an empty aggregator.
func New() *Aggregator {
	return &Aggregator{
		cells:   make(map[key]*cell),
		steps:   make(map[int]int),
		actions: make(map[models.ActionType]map[int]int),
		fraud:   make(map[string]*fraudTally),
	}
}

// Consume folds the records of one step into the running statistics.
func (a *Aggregator) Consume(step int, txs []models.Transaction) {
	month, day, hour := models.StepCalendar(step)
	for _, tx := range txs {
		k := key{action: tx.Action(), month: month, day: day, hour: hour}
		c, ok := a.cells[k]
		if !ok {
			c = &cell{step: step}
			a.cells[k] = c
		}
		c.add(tx.Amount())
		a.steps[step]++
		a.total++

		perStep, ok := a.actions[tx.Action()]
		if !ok {
			perStep = make(map[int]int)
			a.actions[tx.Action()] = perStep
		}
		perStep[step]++

		if tx.IsFraud() && (tx.Action() == models.ActionTransfer || tx.Action() == models.ActionCashOut) {
			a.tallyFraud(tx)
		}
	}
}

func (a *Aggregator) tallyFraud(tx models.Transaction) {
	id := tx.Origin().ID
	f, ok := a.fraud[id]
	if !ok {
		f = &fraudTally{victims: make(map[string]struct{})}
		a.fraud[id] = f
	}
	f.victims[tx.Dest().ID] = struct{}{}
	if tx.IsSuccessful() {
		f.profit += tx.Amount()
	}
}

// Total is the number of records consumed.
func (a *Aggregator) Total() int { return a.total }

// StepCount is the number of records consumed for step.
func (a *Aggregator) StepCount(step int) int { return a.steps[step] }

// Records returns one profile per (step, action) seen, ordered by step then
// canonical action order. Probability is the action's share of its step.
func (a *Aggregator) Records() []models.StepActionProfile {
	out := make([]models.StepActionProfile, 0, len(a.cells))
	for k, c := range a.cells {
		p := models.StepActionProfile{
			Step:   c.step,
			Action: k.action,
			Month:  k.month,
			Day:    k.day,
			Hour:   k.hour,
			Count:  c.count,
			Sum:    c.sum,
			Mean:   c.mean,
			Std:    c.std(),
		}
		if n := a.steps[c.step]; n > 0 {
			p.Probability = float64(c.count) / float64(n)
		}
		out = append(out, p)
	}
	models.SortStepActionProfiles(out)
	return out
}

// CountError is the mean relative error between the number of records
// produced per step and the expected target count, over the steps in
// [0, steps) that expected any activity.
func (a *Aggregator) CountError(steps int, expected func(step int) int) float64 {
	return meanRelativeError(a.steps, steps, expected)
}

// ActionCountErrors breaks CountError down per action, in canonical action
// order. expected returns the target count of one action at one step. Actions
// neither expected nor produced are left out.
func (a *Aggregator) ActionCountErrors(steps int, expected func(action models.ActionType, step int) int) []ActionError {
	var out []ActionError
	for _, action := range models.Actions {
		want := func(step int) int { return expected(action, step) }
		e := ActionError{Action: action}
		for step := 0; step < steps; step++ {
			e.Expected += want(step)
			e.Produced += a.actions[action][step]
		}
		if e.Expected == 0 && e.Produced == 0 {
			continue
		}
		e.Error = meanRelativeError(a.actions[action], steps, want)
		out = append(out, e)
	}
	return out
}

// Fraudster returns the tally of client id. A client without any
// fraud-labelled transfer or cash-out has no victims and no profit.
func (a *Aggregator) Fraudster(id string) Fraudster {
	out := Fraudster{ID: id}
	if f, ok := a.fraud[id]; ok {
		out.Victims = len(f.victims)
		out.Profit = f.profit
	}
	return out
}

func meanRelativeError(produced map[int]int, steps int, expected func(step int) int) float64 {
	var sum float64
	n := 0
	for step := 0; step < steps; step++ {
		want := expected(step)
		if want <= 0 {
			continue
		}
		sum += math.Abs(float64(produced[step]-want)) / float64(want)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
