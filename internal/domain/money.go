package domain

import "fmt"

// Money is an amount in minor currency units (piastres/cents). Integer
// arithmetic keeps the commission split exact; the naive float version loses
// cents.
type Money int64

// NewMoneyFromUnits builds a Money value from major units and minor remainder,
// e.g. NewMoneyFromUnits(150, 0) is 150.00.
func NewMoneyFromUnits(major int64, minor int64) Money {
	return Money(major*100 + minor)
}

// MulPctBP multiplies the amount by a percentage expressed in basis points of
// a percent (1% = 100 bp, 15.5% = 1550 bp), rounding half-up. Half-up is the
// documented rounding mode for all platform money math.
func (m Money) MulPctBP(bp int64) Money {
	return Money((int64(m)*bp + 5000) / 10000)
}

// Float64 returns the amount in major units for display only. Never feed the
// result back into money arithmetic.
func (m Money) Float64() float64 {
	return float64(m) / 100
}

// String formats the amount with two decimal places.
func (m Money) String() string {
	return fmt.Sprintf("%d.%02d", int64(m)/100, int64(m)%100)
}

// PctToBasisPoints converts a percentage like 15.0 or 12.5 into basis points
// of a percent. Negative values clamp to 0; values above 100 pass through
// (surcharges may exceed 100%).
func PctToBasisPoints(pct float64) int64 {
	if pct < 0 {
		pct = 0
	}
	return int64(pct*100 + 0.5)
}
