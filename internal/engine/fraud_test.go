package engine

import (
	"testing"

	"github.com/nvandessel/txsim/internal/ledger"
)

func TestFraudHeuristic_WarmupNeverBlocks(t *testing.T) {
	f := FraudHeuristic{TransferLimit: 10}
	a := ledger.New("C0", ledger.KindClient, 1e6)

	for i := 0; i < 3; i++ {
		// a huge drop between calls would block after warm-up
		if f.Blocks(a, 1) {
			t.Fatalf("transfer %d blocked during warm-up", i+1)
		}
		a.Withdraw(4e5)
	}
	if a.TransferCount != 3 {
		t.Errorf("TransferCount = %d, want 3", a.TransferCount)
	}
	if a.BalanceMax != 1e6 {
		t.Errorf("BalanceMax = %v, want 1e6", a.BalanceMax)
	}
	if !f.Blocks(a, 1) {
		t.Error("fourth transfer after a large drop should be blocked")
	}
	if a.TransferCount != 3 {
		t.Errorf("TransferCount changed after warm-up: %d", a.TransferCount)
	}
}

func TestFraudHeuristic_Threshold(t *testing.T) {
	tests := []struct {
		name    string
		amount  float64
		blocked bool
	}{
		{"exactly at threshold is allowed", 500, false},
		{"just above threshold is blocked", 499, true},
		{"well below threshold", 2000, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := FraudHeuristic{TransferLimit: 1000}
			a := ledger.New("C0", ledger.KindClient, 1000)
			a.TransferCount = 3
			a.BalanceMax = 4000

			// 4000 - 1000 - amount > 2500
			if got := f.Blocks(a, tt.amount); got != tt.blocked {
				t.Errorf("Blocks(%v) = %v, want %v", tt.amount, got, tt.blocked)
			}
		})
	}
}
