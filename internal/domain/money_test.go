package domain

import (
	"math/rand"
	"testing"
)

func TestMoneyMulPctBP_HalfUpRounding(t *testing.T) {
	tests := []struct {
		name   string
		amount Money
		bp     int64
		want   Money
	}{
		{"15% of 100.00", 10000, 1500, 1500},
		{"15% of 150.00", 15000, 1500, 2250},
		{"0% of anything", 12345, 0, 0},
		{"100% is identity", 12345, 10000, 12345},
		// 15% of 0.03 = 0.0045 -> rounds half-up to 0.00... 0.45 minor units -> 0.
		{"sub-cent rounds down", 3, 1500, 0},
		// 15% of 0.10 = 0.015 -> 1.5 minor units -> rounds half-up to 2.
		{"half rounds up", 10, 1500, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.amount.MulPctBP(tt.bp); got != tt.want {
				t.Errorf("MulPctBP(%d, %d) = %d, want %d", tt.amount, tt.bp, got, tt.want)
			}
		})
	}
}

func TestMoneySplitInvariant_Randomized(t *testing.T) {
	// commission + earnings must equal total exactly for any amount and rate,
	// including the 0%% and 100%% edges.
	rng := rand.New(rand.NewSource(42))

	rates := []int64{0, 1, 100, 1500, 2550, 9999, 10000}
	for i := 0; i < 2000; i++ {
		total := Money(rng.Int63n(10_000_000)) // up to 100,000.00
		for _, bp := range rates {
			commission := total.MulPctBP(bp)
			earnings := total - commission
			if commission+earnings != total {
				t.Fatalf("split broke invariant: total=%d bp=%d commission=%d earnings=%d",
					total, bp, commission, earnings)
			}
			if commission < 0 || commission > total {
				t.Fatalf("commission out of range: total=%d bp=%d commission=%d", total, bp, commission)
			}
		}
	}
}

func TestPctToBasisPoints(t *testing.T) {
	if got := PctToBasisPoints(15); got != 1500 {
		t.Errorf("15%% = %d bp, want 1500", got)
	}
	if got := PctToBasisPoints(12.5); got != 1250 {
		t.Errorf("12.5%% = %d bp, want 1250", got)
	}
	if got := PctToBasisPoints(-3); got != 0 {
		t.Errorf("negative pct should clamp to 0, got %d", got)
	}
	if got := PctToBasisPoints(250); got != 25000 {
		t.Errorf("pct above 100 should pass through, got %d", got)
	}
}

func TestMoneyString(t *testing.T) {
	if got := NewMoneyFromUnits(150, 0).String(); got != "150.00" {
		t.Errorf("got %q, want 150.00", got)
	}
	if got := Money(2250).String(); got != "22.50" {
		t.Errorf("got %q, want 22.50", got)
	}
	if got := Money(7).String(); got != "0.07" {
		t.Errorf("got %q, want 0.07", got)
	}
}
