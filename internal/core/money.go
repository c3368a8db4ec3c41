// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between cents and their decimal representation.
package core

import (
	"math"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Money is an amount in cents.
type Money struct {
	Cents int64
}

var (
	maxAmount = decimal.NewFromInt(MaxAmount)
	maxCents  = decimal.NewFromInt(math.MaxInt64)
	minCents  = decimal.NewFromInt(math.MinInt64)
)

// ParseAmount converts a decimal string to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Unlike the
// form layer in most trackers it does not round: more than MaxDecimalPlaces
// fractional digits is an error, as is a zero, negative or oversized amount.
//
// Examples:
//
//	ParseAmount("12.34")   -> {1234}, nil
//	ParseAmount("12,3")    -> {1230}, nil
//	ParseAmount("12.345")  -> ErrTooManyDecimals
//	ParseAmount("1000001") -> ErrAmountTooLarge
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrEmptyAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Money{}, ErrInvalidAmount
	}
	for _, part := range parts {
		for _, r := range part {
			if !unicode.IsDigit(r) {
				return Money{}, ErrInvalidAmount
			}
		}
	}
	if len(parts) == 2 && len(parts[1]) > MaxDecimalPlaces {
		return Money{}, ErrTooManyDecimals
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.GreaterThan(maxAmount) {
		return Money{}, ErrAmountTooLarge
	}
	m := MoneyFromDecimal(d)
	if m.Cents <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return m, nil
}

// MoneyFromDecimal rounds d half-up to whole cents.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Shift(2).Round(0).IntPart()}
}

// Validate rejects non-positive and oversized amounts.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	if m.Decimal().GreaterThan(maxAmount) {
		return ErrAmountTooLarge
	}
	return nil
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats the amount with exactly two decimals, e.g. "123.00".
func (m Money) String() string {
	return m.Decimal().StringFixed(MaxDecimalPlaces)
}

// MarshalJSON encodes the amount as a bare JSON number (125.56, 100).
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string. Unlike
// MoneyFromDecimal it never rounds: more than MaxDecimalPlaces fractional
// digits, or a value that does not fit in int64 cents, is an error.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	cents := d.Shift(MaxDecimalPlaces)
	if !cents.Equal(cents.Truncate(0)) {
		return ErrTooManyDecimals
	}
	if cents.GreaterThan(maxCents) || cents.LessThan(minCents) {
		return ErrAmountOutOfRange
	}
	*m = Money{Cents: cents.IntPart()}
	return nil
}

// Percent returns part as a percentage of total, rounded to one decimal place.
// A zero total yields 0.
func Percent(part, total Money) float64 {
	if total.Cents == 0 {
		return 0
	}
	p := decimal.NewFromInt(part.Cents).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(total.Cents)).
		Round(1)
	f, _ := p.Float64()
	return f
}
