package schedule

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMonthlyPayment_Annuity(t *testing.T) {
	// 1000.00 at 12% annual over 12 months: periodic rate 0.01,
	// payment = 1000 * 0.01 * 1.01^12 / (1.01^12 - 1) = 88.85
	payment, err := MonthlyPayment(decimal.NewFromInt(1000), decimal.NewFromInt(12), 12)
	if err != nil {
		t.Fatalf("MonthlyPayment failed: %v", err)
	}
	expected := decimal.NewFromFloat(88.85)
	if !payment.Equal(expected) {
		t.Errorf("Expected payment %s, got %s", expected, payment)
	}
}

func TestMonthlyPayment_ZeroRate(t *testing.T) {
	payment, err := MonthlyPayment(decimal.NewFromInt(1000), decimal.Zero, 3)
	if err != nil {
		t.Fatalf("MonthlyPayment failed: %v", err)
	}
	expected := decimal.NewFromFloat(333.33)
	if !payment.Equal(expected) {
		t.Errorf("Expected payment %s, got %s", expected, payment)
	}
}

func TestMonthlyPayment_InvalidTerms(t *testing.T) {
	cases := []struct {
		name         string
		principal    decimal.Decimal
		rate         decimal.Decimal
		installments int
	}{
		{"zero installments", decimal.NewFromInt(1000), decimal.NewFromInt(12), 0},
		{"too many installments", decimal.NewFromInt(1000), decimal.NewFromInt(12), 37},
		{"negative principal", decimal.NewFromInt(-1), decimal.NewFromInt(12), 12},
		{"negative rate", decimal.NewFromInt(1000), decimal.NewFromInt(-1), 12},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := MonthlyPayment(tc.principal, tc.rate, tc.installments)
			if _, ok := err.(*InvalidTermError); !ok {
				t.Errorf("Expected InvalidTermError, got %v", err)
			}
		})
	}
}

func TestCompute_PrincipalRetiredExactly(t *testing.T) {
	principal := decimal.NewFromInt(1000)
	entries, err := Compute(principal, decimal.NewFromInt(12), 12, date(2024, time.February, 15))
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if len(entries) != 12 {
		t.Fatalf("Expected 12 entries, got %d", len(entries))
	}

	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Principal)
		if !e.Total.Equal(e.Principal.Add(e.Interest)) {
			t.Errorf("Entry %d: total %s != principal %s + interest %s", e.Number, e.Total, e.Principal, e.Interest)
		}
	}
	if !sum.Equal(principal) {
		t.Errorf("Expected principal portions to sum to %s, got %s", principal, sum)
	}

	// First installment: interest on the full balance at 1% monthly.
	first := entries[0]
	if !first.Interest.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected first interest 10, got %s", first.Interest)
	}
	if !first.Total.Equal(decimal.NewFromFloat(88.85)) {
		t.Errorf("Expected first total 88.85, got %s", first.Total)
	}
}

func TestCompute_ZeroRateEqualSplits(t *testing.T) {
	principal := decimal.NewFromInt(1000)
	entries, err := Compute(principal, decimal.Zero, 3, date(2024, time.March, 10))
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	split := decimal.NewFromFloat(333.33)
	if !entries[0].Total.Equal(split) || !entries[1].Total.Equal(split) {
		t.Errorf("Expected first two totals %s, got %s and %s", split, entries[0].Total, entries[1].Total)
	}
	// Last installment absorbs the residual cent.
	if !entries[2].Total.Equal(decimal.NewFromFloat(333.34)) {
		t.Errorf("Expected last total 333.34, got %s", entries[2].Total)
	}

	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Principal)
	}
	if !sum.Equal(principal) {
		t.Errorf("Expected principal portions to sum to %s, got %s", principal, sum)
	}
}

func TestCompute_DueDatesMonthly(t *testing.T) {
	entries, err := Compute(decimal.NewFromInt(300), decimal.Zero, 3, date(2024, time.January, 31))
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	want := []time.Time{
		date(2024, time.January, 31),
		date(2024, time.February, 29), // leap year, clamped from the 31st
		date(2024, time.March, 31),
	}
	for i, e := range entries {
		if !e.DueDate.Equal(want[i]) {
			t.Errorf("Entry %d: expected due date %s, got %s", e.Number, want[i], e.DueDate)
		}
	}
}

func TestCompute_SingleInstallment(t *testing.T) {
	principal := decimal.NewFromFloat(450.75)
	entries, err := Compute(principal, decimal.NewFromInt(24), 1, date(2024, time.June, 1))
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if !entries[0].Principal.Equal(principal) {
		t.Errorf("Expected principal %s, got %s", principal, entries[0].Principal)
	}
}

func TestAddMonths_Clamping(t *testing.T) {
	got := AddMonths(date(2023, time.January, 31), 1)
	if !got.Equal(date(2023, time.February, 28)) {
		t.Errorf("Expected 2023-02-28, got %s", got)
	}

	got = AddMonths(date(2023, time.October, 31), 1)
	if !got.Equal(date(2023, time.November, 30)) {
		t.Errorf("Expected 2023-11-30, got %s", got)
	}

	got = AddMonths(date(2023, time.December, 15), 2)
	if !got.Equal(date(2024, time.February, 15)) {
		t.Errorf("Expected 2024-02-15, got %s", got)
	}
}
