package jitter

import "testing"

const draws = 100000

// chiSquare returns the goodness-of-fit statistic of counts against a
// uniform distribution.
func chiSquare(counts []int, total int) float64 {
	expected := float64(total) / float64(len(counts))
	var stat float64
	for _, c := range counts {
		d := float64(c) - expected
		stat += d * d / expected
	}
	return stat
}

func TestCompute_RangeInvariant(t *testing.T) {
	r := NewMathRand()
	for i := 0; i < draws; i++ {
		off := Compute(r)
		if !off.Valid() {
			t.Fatalf("draw %d out of range: %+v", i, off)
		}
	}
}

func TestCompute_Uniform(t *testing.T) {
	r := NewSeededRand(0x5eed, 0xa7c0)
	hours := make([]int, MaxHour+1)
	minutes := make([]int, MaxMinute+1)
	for i := 0; i < draws; i++ {
		off := Compute(r)
		hours[off.Hours]++
		minutes[off.Minutes]++
	}

	// Critical values of the chi-square distribution at p = 0.001.
	const (
		critHours   = 49.73 // 23 degrees of freedom
		critMinutes = 98.32 // 59 degrees of freedom
	)
	if stat := chiSquare(hours, draws); stat > critHours {
		t.Errorf("hours not uniform: chi2 = %.2f > %.2f (%v)", stat, critHours, hours)
	}
	if stat := chiSquare(minutes, draws); stat > critMinutes {
		t.Errorf("minutes not uniform: chi2 = %.2f > %.2f (%v)", stat, critMinutes, minutes)
	}
	for h, c := range hours {
		if c == 0 {
			t.Errorf("hour %d never drawn", h)
		}
	}
}

func TestMathRand_Bounds(t *testing.T) {
	r := NewMathRand()
	seenLow, seenHigh := false, false
	for i := 0; i < 1000; i++ {
		v := r.NextInt(3, 5)
		if v < 3 || v > 5 {
			t.Fatalf("value %d outside [3,5]", v)
		}
		seenLow = seenLow || v == 3
		seenHigh = seenHigh || v == 5
	}
	if !seenLow || !seenHigh {
		t.Fatal("expected both bounds to be reachable")
	}
	if v := r.NextInt(7, 7); v != 7 {
		t.Fatalf("expected 7 for a single-value range, got %d", v)
	}
}

func TestMathRand_InvalidRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for high < low")
		}
	}()
	NewMathRand().NextInt(5, 4)
}

func TestNewSeededRand_Deterministic(t *testing.T) {
	a := NewSeededRand(1, 2)
	b := NewSeededRand(1, 2)
	for i := 0; i < 50; i++ {
		if x, y := a.NextInt(0, 1000), b.NextInt(0, 1000); x != y {
			t.Fatalf("draw %d differs: %d != %d", i, x, y)
		}
	}
}

func TestSequence_WrapsAround(t *testing.T) {
	s := NewSequence(1, 2)
	got := []int{s.NextInt(0, 9), s.NextInt(0, 9), s.NextInt(0, 9)}
	if got[0] != 1 || got[1] != 2 || got[2] != 1 {
		t.Fatalf("unexpected sequence %v", got)
	}
	if s.Calls() != 3 {
		t.Fatalf("expected 3 calls, got %d", s.Calls())
	}
	if v := NewSequence().NextInt(4, 9); v != 4 {
		t.Fatalf("empty sequence should return low, got %d", v)
	}
}
