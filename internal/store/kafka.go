package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nvandessel/txsim/internal/models"
	"github.com/segmentio/kafka-go"
)

// Event is the message published for every transaction on the stream sinks.
type Event struct {
	RunID string `json:"run_id"`
	models.TransactionRecord
}

// KafkaStore publishes each transaction as a JSON message keyed by the
// originating account, so one account's events stay ordered in a partition.
type KafkaStore struct {
	writer *kafka.Writer
	runID  string
}

var _ Sink = (*KafkaStore)(nil)

// NewKafkaStore returns a sink publishing to topic on brokers.
func NewKafkaStore(brokers []string, topic string, logger *slog.Logger) *KafkaStore {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		BatchSize:    500,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
	}
	if logger != nil {
		w.Logger = kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Debug(fmt.Sprintf(msg, args...), "sink", "kafka")
		})
	}
	return &KafkaStore{writer: w}
}

func (s *KafkaStore) Name() string { return "kafka" }

func (s *KafkaStore) Begin(ctx context.Context, run RunInfo) error {
	s.runID = run.ID
	return nil
}

// Write publishes the step's records and waits for the acknowledgements.
func (s *KafkaStore) Write(ctx context.Context, step int, txs []models.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	msgs, err := kafkaMessages(s.runID, txs)
	if err != nil {
		return err
	}
	if err := s.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to publish %d messages: %w", len(msgs), err)
	}
	return nil
}

func kafkaMessages(runID string, txs []models.Transaction) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(txs))
	for _, tx := range txs {
		data, err := json.Marshal(Event{RunID: runID, TransactionRecord: tx.Record()})
		if err != nil {
			return nil, fmt.Errorf("failed to encode event: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(tx.Origin().ID),
			Value: data,
			Headers: []kafka.Header{
				{Key: "action", Value: []byte(tx.Action())},
			},
		})
	}
	return msgs, nil
}

func (s *KafkaStore) Finish(ctx context.Context, sum Summary) error { return nil }

func (s *KafkaStore) Close() error {
	return s.writer.Close()
}
