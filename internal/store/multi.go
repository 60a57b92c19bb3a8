package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/nvandessel/txsim/internal/models"
)

// MultiSink fans every call out to a list of sinks in order. The first
// failing sink stops Begin, Write and Finish; Close always reaches every sink.
type MultiSink struct {
	sinks []Sink
}

var _ Sink = (*MultiSink)(nil)

// NewMultiSink returns a sink writing to every non-nil sink given.
func NewMultiSink(sinks ...Sink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Name lists the wrapped sinks.
func (m *MultiSink) Name() string {
	name := "multi("
	for i, s := range m.sinks {
		if i > 0 {
			name += ","
		}
		name += s.Name()
	}
	return name + ")"
}

// Len is the number of wrapped sinks.
func (m *MultiSink) Len() int { return len(m.sinks) }

func (m *MultiSink) Begin(ctx context.Context, run RunInfo) error {
	for _, s := range m.sinks {
		if err := s.Begin(ctx, run); err != nil {
			return fmt.Errorf("failed to begin %s sink: %w", s.Name(), err)
		}
	}
	return nil
}

func (m *MultiSink) Write(ctx context.Context, step int, txs []models.Transaction) error {
	for _, s := range m.sinks {
		if err := s.Write(ctx, step, txs); err != nil {
			return fmt.Errorf("failed to write step %d to %s sink: %w", step, s.Name(), err)
		}
	}
	return nil
}

func (m *MultiSink) Finish(ctx context.Context, sum Summary) error {
	for _, s := range m.sinks {
		if err := s.Finish(ctx, sum); err != nil {
			return fmt.Errorf("failed to finish %s sink: %w", s.Name(), err)
		}
	}
	return nil
}

// Close closes every sink and joins their errors.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close %s sink: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
