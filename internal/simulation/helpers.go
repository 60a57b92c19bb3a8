package simulation

import (
	"context"

	"github.com/nvandessel/txsim/internal/models"
	"github.com/nvandessel/txsim/internal/store"
)

// CollectSink keeps every record of a run in memory, in emission order.
type CollectSink struct {
	Run          store.RunInfo
	Transactions []models.Transaction
	StepSizes    map[int]int
	Summary      *store.Summary
	Closed       bool
}

var _ store.Sink = (*CollectSink)(nil)

// NewCollectSink returns an empty CollectSink.
func NewCollectSink() *CollectSink {
	return &CollectSink{StepSizes: make(map[int]int)}
}

func (c *CollectSink) Name() string { return "collect" }

func (c *CollectSink) Begin(_ context.Context, run store.RunInfo) error {
	c.Run = run
	return nil
}

func (c *CollectSink) Write(_ context.Context, step int, txs []models.Transaction) error {
	c.StepSizes[step] = len(txs)
	c.Transactions = append(c.Transactions, txs...)
	return nil
}

func (c *CollectSink) Finish(_ context.Context, sum store.Summary) error {
	c.Summary = &sum
	return nil
}

func (c *CollectSink) Close() error {
	c.Closed = true
	return nil
}

// Records returns the flat records of every collected transaction.
func (c *CollectSink) Records() []models.TransactionRecord {
	out := make([]models.TransactionRecord, len(c.Transactions))
	for i, tx := range c.Transactions {
		out[i] = tx.Record()
	}
	return out
}
