package domain

import "github.com/shopspring/decimal"

// Round2 normalizes a monetary amount to cents, rounding half away from
// zero. Every persisted amount goes through this.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// LineTotal computes the total for a quantity of a unit price.
func LineTotal(quantity int, unitPrice float64) float64 {
	return Round2(decimal.NewFromFloat(unitPrice).Mul(decimal.NewFromInt(int64(quantity))).InexactFloat64())
}

// WithinCent reports whether two amounts differ by at most one cent.
func WithinCent(a, b float64) bool {
	diff := decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Abs()
	return diff.LessThanOrEqual(decimal.NewFromFloat(0.01))
}
