// Package types provides money arithmetic shared by derivation rules and reports.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// NewMoney creates a Money value from a float.
// WARNING: Use NewMoneyFromString for precise values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromString creates a Money value from a string.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// Times multiplies a unit value by an integer quantity.
func Times(quantity int64, unit Money) Money {
	return unit.Mul(decimal.NewFromInt(quantity))
}

// Sum adds up all values.
func Sum(values ...Money) Money {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// FloorZero clamps negative values to zero.
func FloorZero(m Money) Money {
	if m.IsNegative() {
		return decimal.Zero
	}
	return m
}

// Percent returns part/whole*100 rounded to two places, or zero when whole is zero.
func Percent(part, whole Money) Money {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).Round(2)
}

// WithinTolerance reports whether |value-reference| <= reference*ratio.
func WithinTolerance(value, reference Money, ratio float64) bool {
	limit := reference.Abs().Mul(decimal.NewFromFloat(ratio))
	return value.Sub(reference).Abs().LessThanOrEqual(limit)
}
