package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPercentRoundsToPaise(t *testing.T) {
	subtotal, err := MoneyFromString("500.00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	discount := subtotal.Percent(decimal.NewFromInt(10))
	if got := discount.Decimal.StringFixed(2); got != "50.00" {
		t.Fatalf("expected 50.00, got %s", got)
	}

	odd, _ := MoneyFromString("333.33")
	discount = odd.Percent(decimal.NewFromInt(10))
	if got := discount.Decimal.StringFixed(2); got != "33.33" {
		t.Fatalf("expected 33.33, got %s", got)
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a, _ := MoneyFromString("500.00")
	b, _ := MoneyFromString("50.00")

	total := a.SubMoney(b)
	if got := total.Decimal.StringFixed(2); got != "450.00" {
		t.Fatalf("expected 450.00, got %s", got)
	}

	line, _ := MoneyFromString("99.50")
	if got := line.MulInt(3).Decimal.StringFixed(2); got != "298.50" {
		t.Fatalf("expected 298.50, got %s", got)
	}

	if !b.LessThan(a) {
		t.Fatalf("50 should be less than 500")
	}
	if total.IsNegative() {
		t.Fatalf("total should not be negative")
	}
}

func TestMoneyScanValueRoundTrip(t *testing.T) {
	m, _ := MoneyFromString("123.456")
	v, err := m.Value()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "123.46" {
		t.Fatalf("expected db value rounded to paise, got %v", v)
	}

	var scanned Money
	if err := scanned.Scan("450.00"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := scanned.Decimal.StringFixed(2); got != "450.00" {
		t.Fatalf("expected 450.00, got %s", got)
	}
}
