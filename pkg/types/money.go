package types

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a fixed-point rupee amount stored as NUMERIC(12,2).
// All arithmetic happens on decimals; rounding is half-up to paise.
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money {
	return Money{d}
}

func MoneyFromString(value string) (Money, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Money{}, fmt.Errorf("parse money %q: %w", value, err)
	}
	return Money{d}, nil
}

func MoneyFromFloat(value float64) Money {
	return Money{decimal.NewFromFloat(value)}
}

func ZeroMoney() Money {
	return Money{decimal.Zero}
}

// RoundPaise rounds half-up to two decimal places.
func (m Money) RoundPaise() Money {
	return Money{m.Decimal.Round(2)}
}

func (m Money) AddMoney(other Money) Money {
	return Money{m.Decimal.Add(other.Decimal)}
}

func (m Money) SubMoney(other Money) Money {
	return Money{m.Decimal.Sub(other.Decimal)}
}

func (m Money) MulInt(n int64) Money {
	return Money{m.Decimal.Mul(decimal.NewFromInt(n))}
}

// Percent returns pct% of m, rounded to paise.
func (m Money) Percent(pct decimal.Decimal) Money {
	return Money{m.Decimal.Mul(pct).Div(decimal.NewFromInt(100)).Round(2)}
}

func (m Money) IsNegative() bool {
	return m.Decimal.IsNegative()
}

func (m Money) LessThan(other Money) bool {
	return m.Decimal.LessThan(other.Decimal)
}

func (m Money) Value() (driver.Value, error) {
	return m.Decimal.Round(2).String(), nil
}

func (m *Money) Scan(value any) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return err
	}
	m.Decimal = d
	return nil
}
