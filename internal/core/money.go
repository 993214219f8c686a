// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents so sums are exact and recomputation is
// bit-identical. Ratio arithmetic goes through decimal and is rounded back
// to cents half away from zero.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in cents. Persisted amounts are always positive;
// derived values (net category amounts, impacts) may be negative.
type Money struct {
	Cents int64
}

// Cents builds a Money from a cent count.
func Cents(c int64) Money { return Money{Cents: c} }

// FromDecimal rounds a decimal amount to cents.
func FromDecimal(d decimal.Decimal) (Money, error) {
	c := d.Shift(2).Round(0)
	if !c.IsInteger() || c.GreaterThan(decimal.NewFromInt(MaxCents)) || c.LessThan(decimal.NewFromInt(-MaxCents)) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: c.IntPart()}, nil
}

// MaxCents bounds any single amount (10 trillion currency units). Sums of
// several thousand such amounts still fit in an int64.
const MaxCents = 1_000_000_000_000_000

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float64 returns the amount in currency units for display and metrics.
// Use cents for calculations to avoid floating-point precision issues.
func (m Money) Float64() float64 {
	return float64(m.Cents) / 100.0
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }
func (m Money) Neg() Money        { return Money{Cents: -m.Cents} }
func (m Money) IsZero() bool      { return m.Cents == 0 }

// Abs returns the magnitude of m.
func (m Money) Abs() Money {
	if m.Cents < 0 {
		return Money{Cents: -m.Cents}
	}
	return m
}

// Mul scales m by ratio, rounding to the nearest cent.
func (m Money) Mul(ratio decimal.Decimal) Money {
	return Money{Cents: m.Decimal().Mul(ratio).Shift(2).Round(0).IntPart()}
}

// Div divides m by a non-zero decimal divisor, rounding to the nearest cent.
func (m Money) Div(divisor decimal.Decimal) Money {
	if divisor.IsZero() {
		return Money{}
	}
	return Money{Cents: m.Decimal().Div(divisor).Shift(2).Round(0).IntPart()}
}

// Percent returns 100*m/of. It returns 0 when of is zero.
func (m Money) Percent(of Money) float64 {
	if of.Cents == 0 {
		return 0
	}
	pct, _ := decimal.NewFromInt(m.Cents).Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(of.Cents), 8).Float64()
	return pct
}

func (m Money) Validate() error {
	if m.Cents <= 0 || m.Cents > MaxCents {
		return ErrInvalidAmount
	}
	return nil
}

// String renders the amount with two decimals, e.g. "-45.90".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON encodes the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*m = Money{}
		return nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	v, err := FromDecimal(d)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
