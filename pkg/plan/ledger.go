package plan

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/munitax/fraccionamiento/pkg/errs"
	"github.com/munitax/fraccionamiento/pkg/models"
)

// GetCronograma returns the plan's cuotas with the derived VENCIDA status
// applied: an unpaid cuota past its due date reads as VENCIDA. The stored
// state is never touched.
func (s *Service) GetCronograma(ctx context.Context, planID uuid.UUID) ([]*models.Cuota, error) {
	if _, err := s.storage.GetPlan(ctx, planID); err != nil {
		return nil, err
	}

	cuotas, err := s.storage.GetCuotasByPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for _, cuota := range cuotas {
		cuota.Status = cuota.EffectiveStatus(now)
	}
	return cuotas, nil
}

// RegisterPayment records a payment against one cuota of a VIGENTE plan.
// Partial amounts accumulate; an amount that would take the paid total past
// the cuota total is rejected, so overpayments stay the caller's problem.
func (s *Service) RegisterPayment(ctx context.Context, planID, cuotaID uuid.UUID, amount decimal.Decimal, notes string) (*models.Cuota, error) {
	if !amount.IsPositive() {
		return nil, errs.Validationf("payment amount must be positive")
	}

	planRec, err := s.storage.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if planRec.Status != models.PlanStatusVigente {
		return nil, errs.Conflictf("payments can only be registered on a VIGENTE plan, plan %s is %s", planRec.PlanCode, planRec.Status)
	}

	cuota, err := s.storage.GetCuota(ctx, cuotaID)
	if err != nil {
		return nil, err
	}
	if cuota.PlanID != planID {
		return nil, errs.NotFound("cuota", cuotaID.String())
	}
	if cuota.Status == models.CuotaStatusPagada {
		return nil, errs.Conflictf("cuota %d of plan %s is already paid", cuota.Number, planRec.PlanCode)
	}

	prior := decimal.Zero
	if cuota.PaidAmount.Valid {
		prior = cuota.PaidAmount.Decimal
	}
	newPaid := prior.Add(amount)
	if newPaid.GreaterThan(cuota.Total) {
		return nil, errs.Validationf("payment of %s would exceed cuota total %s (already paid %s)", amount, cuota.Total, prior)
	}

	expected := cuota.Version
	if newPaid.Equal(cuota.Total) {
		now := s.now()
		cuota.Status = models.CuotaStatusPagada
		cuota.PaymentDate = &now
	} else {
		cuota.Status = models.CuotaStatusParcial
	}
	cuota.PaidAmount = decimal.NullDecimal{Decimal: newPaid, Valid: true}
	if notes != "" {
		cuota.Notes = notes
	}
	cuota.Version++

	if err := s.storage.UpdateCuota(ctx, cuota, expected); err != nil {
		return nil, err
	}

	slog.Info("payment registered",
		"plan_id", planID,
		"cuota", cuota.Number,
		"amount", amount,
		"paid", newPaid,
		"status", cuota.Status,
	)
	return cuota, nil
}
