package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/nvandessel/txsim/internal/models"
)

func TestRedisStore_AppendsToStream(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	s, err := NewRedisStore(ctx, mr.Addr(), "", "txsim:transactions")
	if err != nil {
		t.Fatalf("NewRedisStore() error = %v", err)
	}
	defer s.Close()

	mustT(t, s.Begin(ctx, testRun()))
	mustT(t, s.Write(ctx, 0, testTransactions()))
	mustT(t, s.Write(ctx, 1, nil))

	entries, err := s.client.XRange(ctx, "txsim:transactions", "-", "+").Result()
	if err != nil {
		t.Fatalf("XRange() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("stream has %d entries, want 3", len(entries))
	}
	first := entries[0].Values
	if first["run_id"] != "run-1" || first["action"] != "CASH_IN" || first["amount"] != "100.00" || first["nameDest"] != "M0" {
		t.Errorf("first entry = %v", first)
	}
	if entries[2].Values["isFlaggedFraud"] != "1" {
		t.Errorf("third entry should be flagged, got %v", entries[2].Values)
	}
}

func TestNewRedisStore_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := NewRedisStore(context.Background(), addr, "", "s"); err == nil {
		t.Error("expected error connecting to a closed server")
	}
}

func TestKafkaMessages(t *testing.T) {
	msgs, err := kafkaMessages("run-1", testTransactions())
	if err != nil {
		t.Fatalf("kafkaMessages() error = %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	if string(msgs[1].Key) != "C0" {
		t.Errorf("key = %q, want the originating account", msgs[1].Key)
	}
	if len(msgs[1].Headers) != 1 || string(msgs[1].Headers[0].Value) != "TRANSFER" {
		t.Errorf("headers = %v", msgs[1].Headers)
	}

	var ev Event
	if err := json.Unmarshal(msgs[1].Value, &ev); err != nil {
		t.Fatalf("message is not JSON: %v", err)
	}
	if ev.RunID != "run-1" || ev.Action != models.ActionTransfer || ev.Amount != 1000.5 || !ev.IsFraud || ev.NameDest != "C1" {
		t.Errorf("event = %+v", ev)
	}
}

func TestPostgresArgs(t *testing.T) {
	txs := testTransactions()
	args := postgresArgs("run-1", 9, txs[1])
	if len(args) != 15 {
		t.Fatalf("got %d args, want 15", len(args))
	}
	if args[0] != "run-1" || args[1] != int64(9) || args[3] != "TRANSFER" {
		t.Errorf("leading args = %v", args[:4])
	}
	if args[4] != "1000.50" || args[6] != "1100.00" || args[10] != "1000.50" {
		t.Errorf("money args = %v %v %v", args[4], args[6], args[10])
	}
	if args[11] != true || args[12] != false || args[14] != true {
		t.Errorf("flag args = %v", args[11:])
	}
}

func TestPostgresStore_BatchNumbersRecords(t *testing.T) {
	s := &PostgresStore{runID: "run-1"}
	b := s.batch(testTransactions())
	if b.Len() != 3 {
		t.Errorf("batch holds %d queries, want 3", b.Len())
	}
	if s.seq != 3 {
		t.Errorf("seq = %d after one batch, want 3", s.seq)
	}
}

func TestGraphRows(t *testing.T) {
	rows := graphRows(testTransactions())
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	r := rows[2].(map[string]any)
	if r["nameOrig"] != "C0" || r["nameDest"] != "C1" || r["isFlaggedFraud"] != true || r["isSuccessful"] != false {
		t.Errorf("row = %v", r)
	}
	if r["step"] != int64(0) {
		t.Errorf("step = %#v, want int64(0)", r["step"])
	}
}

func TestNewNeo4jStore_RequiresURI(t *testing.T) {
	if _, err := NewNeo4jStore(context.Background(), Neo4jOptions{}); err == nil {
		t.Error("expected error without a URI")
	}
}
