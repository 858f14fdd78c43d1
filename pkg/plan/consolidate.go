package plan

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/munitax/fraccionamiento/pkg/models"
)

// duplicateDebtIDs returns the ids selected more than once, each reported once.
func duplicateDebtIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]int, len(ids))
	var dups []uuid.UUID
	for _, id := range ids {
		seen[id]++
		if seen[id] == 2 {
			dups = append(dups, id)
		}
	}
	return dups
}

// consolidate validates the selected debts and sums them into the principal
// to be financed. All debts must belong to the requesting taxpayer and carry
// consistent amounts. Every violation is reported, not just the first.
func consolidate(taxpayerCode string, debts []models.Debt) (decimal.Decimal, []string) {
	var violations []string
	total := decimal.Zero

	for _, debt := range debts {
		if debt.TaxpayerCode != taxpayerCode {
			violations = append(violations, fmt.Sprintf("debt %s belongs to taxpayer %s, not %s", debt.DebtCode, debt.TaxpayerCode, taxpayerCode))
			continue
		}
		if !debt.TotalAmount.Equal(debt.OriginalAmount.Add(debt.InterestAmount)) {
			violations = append(violations, fmt.Sprintf("debt %s total %s does not match original %s plus interest %s",
				debt.DebtCode, debt.TotalAmount, debt.OriginalAmount, debt.InterestAmount))
			continue
		}
		if debt.TotalAmount.IsNegative() {
			violations = append(violations, fmt.Sprintf("debt %s has a negative total", debt.DebtCode))
			continue
		}
		total = total.Add(debt.TotalAmount)
	}

	return total, violations
}
