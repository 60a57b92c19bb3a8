package random

import (
	"math"
	"testing"
)

func TestNew_SameSeedSameSequence(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 100; i++ {
		if x, y := a.Float64(), b.Float64(); x != y {
			t.Fatalf("draw %d: %v != %v", i, x, y)
		}
		if x, y := a.Normal(10, 3), b.Normal(10, 3); x != y {
			t.Fatalf("normal draw %d: %v != %v", i, x, y)
		}
		if x, y := a.Binomial(50, 0.3), b.Binomial(50, 0.3); x != y {
			t.Fatalf("binomial draw %d: %v != %v", i, x, y)
		}
	}
}

func TestDerive(t *testing.T) {
	a := Derive(7, "C1")
	again := Derive(7, "C1")
	other := Derive(7, "C2")

	same := true
	differs := false
	for i := 0; i < 20; i++ {
		x, y, z := a.Float64(), again.Float64(), other.Float64()
		if x != y {
			same = false
		}
		if x != z {
			differs = true
		}
	}
	if !same {
		t.Error("Derive with the same seed and id should reproduce the stream")
	}
	if !differs {
		t.Error("Derive with different ids should produce different streams")
	}
}

func TestBinomial_Bounds(t *testing.T) {
	s := New(1)
	tests := []struct {
		name string
		n    int
		p    float64
		want int
	}{
		{"zero trials", 0, 0.5, 0},
		{"zero probability", 10, 0, 0},
		{"certain", 10, 1, 10},
		{"negative trials", -3, 0.5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Binomial(tt.n, tt.p); got != tt.want {
				t.Errorf("Binomial(%d, %v) = %d, want %d", tt.n, tt.p, got, tt.want)
			}
		})
	}

	for i := 0; i < 200; i++ {
		got := s.Binomial(20, 0.4)
		if got < 0 || got > 20 {
			t.Fatalf("Binomial(20, 0.4) = %d, out of range", got)
		}
	}
}

func TestNormal_ZeroStd(t *testing.T) {
	s := New(3)
	if got := s.Normal(12.5, 0); got != 12.5 {
		t.Errorf("Normal(12.5, 0) = %v, want 12.5", got)
	}
}

func TestNormal_Moments(t *testing.T) {
	s := New(11)
	const n = 20000
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += s.Normal(100, 5)
	}
	if mean := sum / n; math.Abs(mean-100) > 0.5 {
		t.Errorf("sample mean = %v, want ~100", mean)
	}
}

func TestWeighted(t *testing.T) {
	s := New(5)

	if _, ok := s.Weighted([]float64{0, 0, 0}); ok {
		t.Error("Weighted with all-zero weights should report !ok")
	}

	for i := 0; i < 50; i++ {
		idx, ok := s.Weighted([]float64{0, 0, 2.5, 0})
		if !ok || idx != 2 {
			t.Fatalf("Weighted with one positive weight = (%d, %v), want (2, true)", idx, ok)
		}
	}

	counts := make([]int, 2)
	for i := 0; i < 10000; i++ {
		idx, _ := s.Weighted([]float64{1, 3})
		counts[idx]++
	}
	ratio := float64(counts[1]) / 10000
	if math.Abs(ratio-0.75) > 0.03 {
		t.Errorf("weight 3 of 4 chosen %.3f of the time, want ~0.75", ratio)
	}
}
