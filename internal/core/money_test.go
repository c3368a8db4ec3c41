package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		err error
	}{
		{"1", 100, nil},
		{"1.0", 100, nil},
		{"1.23", 123, nil},
		{"1,23", 123, nil},
		{"0.01", 1, nil},
		{" 150.50 ", 15050, nil},
		{"1000000", 100000000, nil},
		{"1000000.01", 0, ErrAmountTooLarge},
		{"1000001", 0, ErrAmountTooLarge},
		{"1.005", 0, ErrTooManyDecimals},
		{"-1", 0, ErrInvalidAmount},
		{"0", 0, ErrInvalidAmount},
		{"0.00", 0, ErrInvalidAmount},
		{"abc", 0, ErrInvalidAmount},
		{"1e3", 0, ErrInvalidAmount},
		{"1.2.3", 0, ErrInvalidAmount},
		{"", 0, ErrEmptyAmount},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.err == nil {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
			continue
		}
		if !errors.Is(err, tc.err) {
			t.Fatalf("%q expected %v, got %v", tc.in, tc.err, err)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if err := (Money{Cents: MaxAmount*100 + 1}).Validate(); !errors.Is(err, ErrAmountTooLarge) {
		t.Fatalf("expected ErrAmountTooLarge, got %v", err)
	}
}

func TestMoneyJSON(t *testing.T) {
	cases := []struct {
		m    Money
		want string
	}{
		{Money{Cents: 12556}, "125.56"},
		{Money{Cents: 10000}, "100"},
		{Money{Cents: 5}, "0.05"},
	}
	for _, tc := range cases {
		b, err := json.Marshal(tc.m)
		if err != nil || string(b) != tc.want {
			t.Fatalf("marshal %d: got %s (err=%v), want %s", tc.m.Cents, b, err, tc.want)
		}
	}

	var m Money
	if err := json.Unmarshal([]byte(`125.56`), &m); err != nil || m.Cents != 12556 {
		t.Fatalf("unmarshal number: got %d err=%v", m.Cents, err)
	}
	if err := json.Unmarshal([]byte(`"99.9"`), &m); err != nil || m.Cents != 9990 {
		t.Fatalf("unmarshal string: got %d err=%v", m.Cents, err)
	}
	if err := json.Unmarshal([]byte(`true`), &m); err == nil {
		t.Fatalf("expected error for bool")
	}
}

func TestMoneyUnmarshalRejectsUnrepresentable(t *testing.T) {
	cases := []struct {
		in   string
		want error
	}{
		{`0.004`, ErrTooManyDecimals},
		{`"12.345"`, ErrTooManyDecimals},
		{`1e20`, ErrAmountOutOfRange},
		{`-1e20`, ErrAmountOutOfRange},
	}
	for _, tc := range cases {
		m := Money{Cents: 7}
		if err := json.Unmarshal([]byte(tc.in), &m); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.in, tc.want, err)
		}
		if m.Cents != 7 {
			t.Fatalf("%s: value overwritten with %d", tc.in, m.Cents)
		}
	}

	var m Money
	if err := json.Unmarshal([]byte(`1e3`), &m); err != nil || m.Cents != 100000 {
		t.Fatalf("exponent form: got %d err=%v", m.Cents, err)
	}
	if err := json.Unmarshal([]byte(`12.50`), &m); err != nil || m.Cents != 1250 {
		t.Fatalf("trailing zero: got %d err=%v", m.Cents, err)
	}
}

func TestMoneyString(t *testing.T) {
	if got := (Money{Cents: 12300}).String(); got != "123.00" {
		t.Fatalf("got %q", got)
	}
	if got := (Money{Cents: 123456}).String(); got != "1234.56" {
		t.Fatalf("got %q", got)
	}
}

func TestMoneyFromDecimalRoundsHalfUp(t *testing.T) {
	if got := MoneyFromDecimal(decimal.RequireFromString("1.005")); got.Cents != 101 {
		t.Fatalf("got %d", got.Cents)
	}
}

func TestPercent(t *testing.T) {
	total := Money{Cents: 90000}
	cases := []struct {
		part int64
		want float64
	}{
		{50000, 55.6},
		{25000, 27.8},
		{15000, 16.7},
		{90000, 100},
	}
	for _, tc := range cases {
		if got := Percent(Money{Cents: tc.part}, total); got != tc.want {
			t.Fatalf("Percent(%d) = %v, want %v", tc.part, got, tc.want)
		}
	}
	if got := Percent(Money{Cents: 1}, Money{}); got != 0 {
		t.Fatalf("zero total should give 0, got %v", got)
	}
}
