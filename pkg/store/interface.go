package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/munitax/fraccionamiento/pkg/models"
)

// Storage defines the repository port for plans, cuotas and debts.
//
// Every write takes the caller's expected version of the aggregate; a
// mismatch means a concurrent writer got there first and surfaces as a
// ConflictError. The caller is expected to re-read and retry the whole
// operation rather than merge.
type Storage interface {
	// Debts are produced by the billing system; this service only ever
	// reads them (CreateDebt exists for the billing integration surface).
	CreateDebt(ctx context.Context, debt *models.Debt) error
	GetDebtsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Debt, error)
	GetDebtsByTaxpayer(ctx context.Context, taxpayerCode string) ([]models.Debt, error)

	// DebtsInActivePlans reports which of the given debts are already
	// attached to a PENDIENTE or VIGENTE plan, keyed by debt id with the
	// holding plan's code. A debt in a terminal plan can be consolidated
	// again.
	DebtsInActivePlans(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)

	CreatePlan(ctx context.Context, plan *models.InstallmentPlan) error
	GetPlan(ctx context.Context, id uuid.UUID) (*models.InstallmentPlan, error)
	GetPlanByCode(ctx context.Context, planCode string) (*models.InstallmentPlan, error)
	GetAllPlans(ctx context.Context) ([]*models.InstallmentPlan, error)
	UpdatePlan(ctx context.Context, plan *models.InstallmentPlan, expectedVersion int64) error

	// SaveSchedule persists the plan update and the full cuota set in a
	// single transaction. Either everything lands or nothing does; a
	// partial cronograma is never visible.
	SaveSchedule(ctx context.Context, plan *models.InstallmentPlan, cuotas []*models.Cuota, expectedVersion int64) error

	GetCuota(ctx context.Context, id uuid.UUID) (*models.Cuota, error)
	GetCuotasByPlan(ctx context.Context, planID uuid.UUID) ([]*models.Cuota, error)
	UpdateCuota(ctx context.Context, cuota *models.Cuota, expectedVersion int64) error

	// PlanStatistics aggregates plan counts and summed totals by status.
	PlanStatistics(ctx context.Context) ([]models.StatusStatistic, error)

	// NextPlanSequence returns a monotonically increasing sequence number
	// used to mint human-readable plan codes.
	NextPlanSequence(ctx context.Context) (int64, error)

	Close() error
}
