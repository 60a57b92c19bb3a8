package store

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/nvandessel/txsim/internal/models"
)

// Neo4jOptions configures the graph sink.
type Neo4jOptions struct {
	URI      string
	Username string
	Password string
	Database string
}

// writeStepCypher merges both accounts of every record and links them with a
// TRANSACTION relationship carrying the record's fields.
const writeStepCypher = `
UNWIND $rows AS r
MERGE (o:Account {id: r.nameOrig})
MERGE (d:Account {id: r.nameDest})
CREATE (o)-[:TRANSACTION {
    run_id: $run_id, step: r.step, action: r.action, amount: r.amount,
    is_fraud: r.isFraud, is_flagged_fraud: r.isFlaggedFraud,
    is_unauthorized_overdraft: r.isUnauthorizedOverdraft, is_successful: r.isSuccessful
}]->(d)`

// Neo4jStore writes the transaction graph: accounts as nodes, transactions
// as relationships. It is useful for fraud-ring exploration.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
	runID    string
}

var _ Sink = (*Neo4jStore)(nil)

// NewNeo4jStore establishes a Bolt connection.
func NewNeo4jStore(ctx context.Context, opts Neo4jOptions) (*Neo4jStore, error) {
	if opts.URI == "" {
		return nil, fmt.Errorf("neo4j uri is required")
	}
	auth := neo4j.NoAuth()
	if opts.Username != "" {
		auth = neo4j.BasicAuth(opts.Username, opts.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(opts.URI, auth)
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify graph connectivity: %w", err)
	}
	return &Neo4jStore{driver: driver, database: opts.Database}, nil
}

func (s *Neo4jStore) Name() string { return "neo4j" }

func (s *Neo4jStore) Begin(ctx context.Context, run RunInfo) error {
	s.runID = run.ID
	return nil
}

func (s *Neo4jStore) Write(ctx context.Context, step int, txs []models.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer session.Close(ctx)

	res, err := session.Run(ctx, writeStepCypher, map[string]any{
		"run_id": s.runID,
		"rows":   graphRows(txs),
	})
	if err != nil {
		return fmt.Errorf("failed to write step %d graph: %w", step, err)
	}
	if _, err := res.Consume(ctx); err != nil {
		return fmt.Errorf("failed to write step %d graph: %w", step, err)
	}
	return nil
}

// graphRows converts records into Cypher parameters. The driver only
// accepts basic types, so amounts stay float64 and flags stay bool.
func graphRows(txs []models.Transaction) []any {
	rows := make([]any, len(txs))
	for i, tx := range txs {
		rows[i] = map[string]any{
			"step":                    int64(tx.Step()),
			"action":                  string(tx.Action()),
			"amount":                  tx.Amount(),
			"nameOrig":                tx.Origin().ID,
			"nameDest":                tx.Dest().ID,
			"isFraud":                 tx.IsFraud(),
			"isFlaggedFraud":          tx.IsFlaggedFraud(),
			"isUnauthorizedOverdraft": tx.IsUnauthorizedOverdraft(),
			"isSuccessful":            tx.IsSuccessful(),
		}
	}
	return rows
}

func (s *Neo4jStore) Finish(ctx context.Context, sum Summary) error { return nil }

func (s *Neo4jStore) Close() error {
	return s.driver.Close(context.Background())
}
