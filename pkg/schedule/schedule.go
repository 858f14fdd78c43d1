// Package schedule computes French (annuity) amortization schedules.
// Everything here is pure: no I/O, no clock, no partial failure.
package schedule

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	MinInstallments = 1
	MaxInstallments = 36
)

var (
	one          = decimal.NewFromInt(1)
	hundred      = decimal.NewFromInt(100)
	monthsInYear = decimal.NewFromInt(12)
)

// Entry is one row of the computed cronograma.
type Entry struct {
	Number    int
	DueDate   time.Time
	Principal decimal.Decimal
	Interest  decimal.Decimal
	Total     decimal.Decimal
}

// InvalidTermError reports a term or rate outside the supported range.
type InvalidTermError struct {
	Reason string
}

func (e *InvalidTermError) Error() string {
	return "invalid term: " + e.Reason
}

// MonthlyPayment returns the fixed annuity payment for the given principal,
// annual rate (percent) and number of installments, rounded half-up to 2
// decimals. A zero rate degenerates to an equal split of the principal.
func MonthlyPayment(principal, annualRatePercent decimal.Decimal, installments int) (decimal.Decimal, error) {
	if err := validateTerms(principal, annualRatePercent, installments); err != nil {
		return decimal.Zero, err
	}
	n := decimal.NewFromInt(int64(installments))
	rate := periodicRate(annualRatePercent)
	if rate.IsZero() {
		return principal.Div(n).Round(2), nil
	}
	// payment = P * r * (1+r)^n / ((1+r)^n - 1)
	pow := one.Add(rate).Pow(n)
	return principal.Mul(rate).Mul(pow).Div(pow.Sub(one)).Round(2), nil
}

// Compute materializes the full schedule for the given financed principal.
// Interest for each installment accrues on the outstanding balance; any
// residual cents left by rounding are absorbed by the last installment so
// the principal portions sum to the financed principal exactly.
func Compute(principal, annualRatePercent decimal.Decimal, installments int, firstDueDate time.Time) ([]Entry, error) {
	payment, err := MonthlyPayment(principal, annualRatePercent, installments)
	if err != nil {
		return nil, err
	}

	rate := periodicRate(annualRatePercent)
	balance := principal
	entries := make([]Entry, 0, installments)

	for i := 1; i <= installments; i++ {
		interest := balance.Mul(rate).Round(2)
		principalPortion := payment.Sub(interest)
		balance = balance.Sub(principalPortion)
		entries = append(entries, Entry{
			Number:    i,
			DueDate:   AddMonths(firstDueDate, i-1),
			Principal: principalPortion,
			Interest:  interest,
			Total:     payment,
		})
	}

	// Retire the residual cents on the last installment.
	if !balance.IsZero() {
		last := &entries[len(entries)-1]
		last.Principal = last.Principal.Add(balance)
		last.Total = last.Total.Add(balance)
	}

	return entries, nil
}

// AddMonths advances t by the given number of calendar months, clamping the
// day of month to the target month's last day (Jan 31 + 1 month = Feb 28/29).
func AddMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month, 1, 0, 0, 0, 0, t.Location()).AddDate(0, months, 0)
	if last := daysIn(first.Month(), first.Year()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, t.Location())
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func periodicRate(annualRatePercent decimal.Decimal) decimal.Decimal {
	return annualRatePercent.Div(hundred).Div(monthsInYear)
}

func validateTerms(principal, annualRatePercent decimal.Decimal, installments int) error {
	if principal.IsNegative() {
		return &InvalidTermError{Reason: "principal must not be negative"}
	}
	if installments < MinInstallments || installments > MaxInstallments {
		return &InvalidTermError{Reason: fmt.Sprintf("installments must be between %d and %d, got %d", MinInstallments, MaxInstallments, installments)}
	}
	if annualRatePercent.IsNegative() {
		return &InvalidTermError{Reason: "annual rate must not be negative"}
	}
	return nil
}
