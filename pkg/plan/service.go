// Package plan implements the fraccionamiento engine: debt consolidation,
// the installment-plan lifecycle and the per-cuota payment ledger.
package plan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/munitax/fraccionamiento/pkg/cache"
	"github.com/munitax/fraccionamiento/pkg/errs"
	"github.com/munitax/fraccionamiento/pkg/models"
	"github.com/munitax/fraccionamiento/pkg/schedule"
	"github.com/munitax/fraccionamiento/pkg/store"
)

// Service coordinates plan lifecycle operations over the repository port.
// Each public operation is a single unit of work: state transitions and
// their side effects (schedule materialization) are persisted atomically.
type Service struct {
	storage store.Storage
	cache   cache.Cache // optional, nil disables the statistics cache
	now     func() time.Time
}

// New creates a Service over the given storage. cache may be nil.
func New(storage store.Storage, cache cache.Cache) *Service {
	return &Service{
		storage: storage,
		cache:   cache,
		now:     time.Now,
	}
}

// CreateSolicitudRequest carries the caller's input for a new plan request.
type CreateSolicitudRequest struct {
	TaxpayerCode         string          `json:"taxpayer_code"`
	TaxpayerName         string          `json:"taxpayer_name"`
	DebtIDs              []uuid.UUID     `json:"debt_ids"`
	DownPayment          decimal.Decimal `json:"down_payment"`
	NumberOfInstallments int             `json:"number_of_installments"`
	AnnualInterestRate   decimal.Decimal `json:"annual_interest_rate"`
	Observations         string          `json:"observations,omitempty"`
}

// CreateSolicitud consolidates the selected debts into a new PENDIENTE plan.
// The installment amount is previewed with the annuity formula; cuotas are
// not materialized until approval.
func (s *Service) CreateSolicitud(ctx context.Context, req CreateSolicitudRequest) (*models.InstallmentPlan, error) {
	var violations []string
	if req.TaxpayerCode == "" {
		violations = append(violations, "taxpayer_code is required")
	}
	if req.NumberOfInstallments < schedule.MinInstallments || req.NumberOfInstallments > schedule.MaxInstallments {
		violations = append(violations, fmt.Sprintf("number_of_installments must be between %d and %d", schedule.MinInstallments, schedule.MaxInstallments))
	}
	if req.AnnualInterestRate.IsNegative() {
		violations = append(violations, "annual_interest_rate must not be negative")
	}
	if req.DownPayment.IsNegative() {
		violations = append(violations, "down_payment must not be negative")
	}

	// The request names a debt set: empty or repeated selections make the
	// consolidation meaningless, so only those short-circuit the debt checks.
	if len(req.DebtIDs) == 0 {
		violations = append(violations, "at least one debt must be selected")
		return nil, &errs.ValidationError{Violations: violations}
	}
	if dups := duplicateDebtIDs(req.DebtIDs); len(dups) > 0 {
		for _, id := range dups {
			violations = append(violations, fmt.Sprintf("debt %s is selected more than once", id))
		}
		return nil, &errs.ValidationError{Violations: violations}
	}

	debts, err := s.storage.GetDebtsByIDs(ctx, req.DebtIDs)
	if err != nil {
		return nil, err
	}

	total, debtViolations := consolidate(req.TaxpayerCode, debts)
	violations = append(violations, debtViolations...)
	if !req.DownPayment.IsNegative() && req.DownPayment.GreaterThan(total) {
		violations = append(violations, "down_payment must not exceed the consolidated total")
	}

	held, err := s.storage.DebtsInActivePlans(ctx, req.DebtIDs)
	if err != nil {
		return nil, err
	}
	for _, debt := range debts {
		if code, ok := held[debt.ID]; ok {
			violations = append(violations, fmt.Sprintf("debt %s is already part of plan %s", debt.DebtCode, code))
		}
	}
	if len(violations) > 0 {
		return nil, &errs.ValidationError{Violations: violations}
	}

	financed := total.Sub(req.DownPayment)
	preview, err := schedule.MonthlyPayment(financed, req.AnnualInterestRate, req.NumberOfInstallments)
	if err != nil {
		return nil, errs.Validationf("cannot compute installment preview: %v", err)
	}

	seq, err := s.storage.NextPlanSequence(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	plan := &models.InstallmentPlan{
		ID:                   uuid.New(),
		PlanCode:             planCode(seq, now),
		TaxpayerCode:         req.TaxpayerCode,
		TaxpayerName:         req.TaxpayerName,
		RequestDate:          now,
		TotalAmount:          total,
		DownPayment:          req.DownPayment,
		NumberOfInstallments: req.NumberOfInstallments,
		InstallmentAmount:    preview,
		AnnualInterestRate:   req.AnnualInterestRate,
		Status:               models.PlanStatusPendiente,
		Observations:         req.Observations,
		Debts:                debts,
		Version:              1,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.storage.CreatePlan(ctx, plan); err != nil {
		return nil, err
	}

	s.invalidateStatistics(ctx)
	slog.Info("solicitud created",
		"plan_id", plan.ID,
		"plan_code", plan.PlanCode,
		"taxpayer", plan.TaxpayerCode,
		"total", plan.TotalAmount,
		"installments", plan.NumberOfInstallments,
	)
	return plan, nil
}

// GetPlan retrieves a plan by id.
func (s *Service) GetPlan(ctx context.Context, id uuid.UUID) (*models.InstallmentPlan, error) {
	return s.storage.GetPlan(ctx, id)
}

// GetPlanByCode retrieves a plan by its human-readable code.
func (s *Service) GetPlanByCode(ctx context.Context, code string) (*models.InstallmentPlan, error) {
	return s.storage.GetPlanByCode(ctx, code)
}

// ListPlans retrieves all plans.
func (s *Service) ListPlans(ctx context.Context) ([]*models.InstallmentPlan, error) {
	return s.storage.GetAllPlans(ctx)
}

// Approve transitions a PENDIENTE plan to VIGENTE and materializes its
// cronograma in the same unit of work. The first cuota falls due one
// calendar month after approval.
func (s *Service) Approve(ctx context.Context, planID uuid.UUID, approvedBy, observations string) (*models.InstallmentPlan, error) {
	plan, err := s.storage.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.Status != models.PlanStatusPendiente {
		return nil, errs.Conflictf("plan %s cannot be approved from status %s", plan.PlanCode, plan.Status)
	}

	now := s.now()
	entries, err := schedule.Compute(plan.FinancedPrincipal(), plan.AnnualInterestRate, plan.NumberOfInstallments, schedule.AddMonths(now, 1))
	if err != nil {
		return nil, errs.Validationf("cannot generate cronograma: %v", err)
	}

	cuotas := buildCuotas(plan.ID, entries)
	expected := plan.Version
	plan.Status = models.PlanStatusVigente
	plan.ApprovalDate = &now
	plan.ApprovedBy = approvedBy
	if observations != "" {
		plan.Observations = observations
	}
	plan.InstallmentAmount = entries[0].Total
	plan.Version++
	plan.UpdatedAt = now

	if err := s.storage.SaveSchedule(ctx, plan, cuotas, expected); err != nil {
		return nil, err
	}

	s.invalidateStatistics(ctx)
	slog.Info("plan approved",
		"plan_id", plan.ID,
		"plan_code", plan.PlanCode,
		"cuotas", len(cuotas),
		"first_due", cuotas[0].DueDate.Format(time.DateOnly),
	)
	return plan, nil
}

// Reject moves a PENDIENTE plan to the terminal RECHAZADO state.
func (s *Service) Reject(ctx context.Context, planID uuid.UUID, motivo string) (*models.InstallmentPlan, error) {
	if motivo == "" {
		return nil, errs.Validationf("motivo is required to reject a plan")
	}

	plan, err := s.storage.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.Status != models.PlanStatusPendiente {
		return nil, errs.Conflictf("plan %s cannot be rejected from status %s", plan.PlanCode, plan.Status)
	}

	expected := plan.Version
	plan.Status = models.PlanStatusRechazado
	plan.RejectionReason = motivo
	plan.Version++
	plan.UpdatedAt = s.now()

	if err := s.storage.UpdatePlan(ctx, plan, expected); err != nil {
		return nil, err
	}

	s.invalidateStatistics(ctx)
	slog.Info("plan rejected", "plan_id", plan.ID, "plan_code", plan.PlanCode, "motivo", motivo)
	return plan, nil
}

// Cancel moves a VIGENTE plan to the terminal CANCELADO state. Payments
// already recorded stay on the ledger; only future registration is blocked.
func (s *Service) Cancel(ctx context.Context, planID uuid.UUID, motivo string) (*models.InstallmentPlan, error) {
	if motivo == "" {
		return nil, errs.Validationf("motivo is required to cancel a plan")
	}

	plan, err := s.storage.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.Status != models.PlanStatusVigente {
		return nil, errs.Conflictf("plan %s cannot be cancelled from status %s", plan.PlanCode, plan.Status)
	}

	expected := plan.Version
	plan.Status = models.PlanStatusCancelado
	if plan.Observations != "" {
		plan.Observations += "; "
	}
	plan.Observations += "cancelado: " + motivo
	plan.Version++
	plan.UpdatedAt = s.now()

	if err := s.storage.UpdatePlan(ctx, plan, expected); err != nil {
		return nil, err
	}

	s.invalidateStatistics(ctx)
	slog.Info("plan cancelled", "plan_id", plan.ID, "plan_code", plan.PlanCode, "motivo", motivo)
	return plan, nil
}

// GenerateSchedule materializes the cronograma for a VIGENTE plan that does
// not have one yet. If the schedule already exists this is a no-op returning
// the existing cuotas.
func (s *Service) GenerateSchedule(ctx context.Context, planID uuid.UUID) ([]*models.Cuota, error) {
	plan, err := s.storage.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.Status != models.PlanStatusVigente {
		return nil, errs.Conflictf("cronograma can only be generated for a VIGENTE plan, plan %s is %s", plan.PlanCode, plan.Status)
	}

	existing, err := s.storage.GetCuotasByPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	firstDue := schedule.AddMonths(s.now(), 1)
	if plan.ApprovalDate != nil {
		firstDue = schedule.AddMonths(*plan.ApprovalDate, 1)
	}
	entries, err := schedule.Compute(plan.FinancedPrincipal(), plan.AnnualInterestRate, plan.NumberOfInstallments, firstDue)
	if err != nil {
		return nil, errs.Validationf("cannot generate cronograma: %v", err)
	}

	cuotas := buildCuotas(plan.ID, entries)
	expected := plan.Version
	plan.Version++
	plan.UpdatedAt = s.now()
	if err := s.storage.SaveSchedule(ctx, plan, cuotas, expected); err != nil {
		return nil, err
	}

	slog.Info("cronograma generated", "plan_id", plan.ID, "cuotas", len(cuotas))
	return cuotas, nil
}

func buildCuotas(planID uuid.UUID, entries []schedule.Entry) []*models.Cuota {
	cuotas := make([]*models.Cuota, len(entries))
	for i, e := range entries {
		cuotas[i] = &models.Cuota{
			ID:        uuid.New(),
			PlanID:    planID,
			Number:    e.Number,
			DueDate:   e.DueDate,
			Principal: e.Principal,
			Interest:  e.Interest,
			Total:     e.Total,
			Status:    models.CuotaStatusPendiente,
			Version:   1,
		}
	}
	return cuotas
}

// planCode mints a human-readable code like FRC-2024-000042.
func planCode(seq int64, t time.Time) string {
	return fmt.Sprintf("FRC-%d-%06d", t.Year(), seq)
}
