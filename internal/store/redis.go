package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/nvandessel/txsim/internal/models"
	"github.com/redis/go-redis/v9"
)

// RedisStore appends each transaction to a Redis stream. One pipeline is
// executed per step.
type RedisStore struct {
	client *redis.Client
	stream string
	runID  string
}

var _ Sink = (*RedisStore)(nil)

// NewRedisStore connects to addr and verifies the connection.
func NewRedisStore(ctx context.Context, addr, password, stream string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:            addr,
		Password:        password,
		PoolSize:        4,
		ConnMaxIdleTime: 5 * time.Minute,
		MaxRetries:      3,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisStore{client: client, stream: stream}, nil
}

func (s *RedisStore) Name() string { return "redis" }

func (s *RedisStore) Begin(ctx context.Context, run RunInfo) error {
	s.runID = run.ID
	return nil
}

func (s *RedisStore) Write(ctx context.Context, step int, txs []models.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	pipe := s.client.Pipeline()
	for _, tx := range txs {
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: s.stream,
			Values: streamValues(s.runID, tx),
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append to stream %s: %w", s.stream, err)
	}
	return nil
}

func streamValues(runID string, tx models.Transaction) map[string]any {
	o, d := tx.Origin(), tx.Dest()
	return map[string]any{
		"run_id":                  runID,
		"step":                    strconv.Itoa(tx.Step()),
		"action":                  string(tx.Action()),
		"amount":                  formatAmount(tx.Amount()),
		"nameOrig":                o.ID,
		"oldBalanceOrig":          formatAmount(o.BalanceBefore),
		"newBalanceOrig":          formatAmount(o.BalanceAfter),
		"nameDest":                d.ID,
		"oldBalanceDest":          formatAmount(d.BalanceBefore),
		"newBalanceDest":          formatAmount(d.BalanceAfter),
		"isFraud":                 formatBool(tx.IsFraud()),
		"isFlaggedFraud":          formatBool(tx.IsFlaggedFraud()),
		"isUnauthorizedOverdraft": formatBool(tx.IsUnauthorizedOverdraft()),
	}
}

func (s *RedisStore) Finish(ctx context.Context, sum Summary) error { return nil }

func (s *RedisStore) Close() error {
	return s.client.Close()
}
