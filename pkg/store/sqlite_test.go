package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/munitax/fraccionamiento/pkg/errs"
	"github.com/munitax/fraccionamiento/pkg/models"
)

func newTestStore(t *testing.T, dbFile string) *SQLiteStore {
	os.Remove(dbFile)
	t.Cleanup(func() { os.Remove(dbFile) })

	s, err := NewSQLiteStore(dbFile)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testDebt(taxpayer string, amount float64) models.Debt {
	total := decimal.NewFromFloat(amount)
	return models.Debt{
		ID:             uuid.New(),
		DebtCode:       "D-001",
		TaxpayerCode:   taxpayer,
		Concept:        "Impuesto predial",
		Period:         "2023-01",
		OriginalAmount: total,
		InterestAmount: decimal.Zero,
		TotalAmount:    total,
	}
}

func testPlan(debts []models.Debt) *models.InstallmentPlan {
	total := decimal.Zero
	for _, d := range debts {
		total = total.Add(d.TotalAmount)
	}
	now := time.Now().UTC()
	return &models.InstallmentPlan{
		ID:                   uuid.New(),
		PlanCode:             "FRC-2024-000001",
		TaxpayerCode:         debts[0].TaxpayerCode,
		TaxpayerName:         "Juan Perez",
		RequestDate:          now,
		TotalAmount:          total,
		DownPayment:          decimal.Zero,
		NumberOfInstallments: 3,
		InstallmentAmount:    decimal.NewFromFloat(333.33),
		AnnualInterestRate:   decimal.Zero,
		Status:               models.PlanStatusPendiente,
		Debts:                debts,
		Version:              1,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

func TestSQLiteStore_CreateAndGetPlan(t *testing.T) {
	s := newTestStore(t, "test_store_plan.db")
	ctx := context.Background()

	debt := testDebt("C001", 1000)
	if err := s.CreateDebt(ctx, &debt); err != nil {
		t.Fatalf("Failed to create debt: %v", err)
	}

	plan := testPlan([]models.Debt{debt})
	if err := s.CreatePlan(ctx, plan); err != nil {
		t.Fatalf("Failed to create plan: %v", err)
	}

	fetched, err := s.GetPlan(ctx, plan.ID)
	if err != nil {
		t.Fatalf("Failed to get plan: %v", err)
	}
	if fetched.PlanCode != plan.PlanCode {
		t.Errorf("Expected plan code %s, got %s", plan.PlanCode, fetched.PlanCode)
	}
	if !fetched.TotalAmount.Equal(plan.TotalAmount) {
		t.Errorf("Expected total %s, got %s", plan.TotalAmount, fetched.TotalAmount)
	}
	if len(fetched.Debts) != 1 || !fetched.Debts[0].TotalAmount.Equal(debt.TotalAmount) {
		t.Errorf("Expected attached debt snapshot, got %+v", fetched.Debts)
	}
	if fetched.ApprovalDate != nil {
		t.Error("Expected nil approval date")
	}

	byCode, err := s.GetPlanByCode(ctx, plan.PlanCode)
	if err != nil {
		t.Fatalf("Failed to get plan by code: %v", err)
	}
	if byCode.ID != plan.ID {
		t.Errorf("Expected plan %s, got %s", plan.ID, byCode.ID)
	}

	var notFound *errs.NotFoundError
	if _, err := s.GetPlan(ctx, uuid.New()); !errors.As(err, &notFound) {
		t.Errorf("Expected NotFoundError, got %v", err)
	}
}

func TestSQLiteStore_SaveScheduleAndVersioning(t *testing.T) {
	s := newTestStore(t, "test_store_schedule.db")
	ctx := context.Background()

	debt := testDebt("C001", 1000)
	s.CreateDebt(ctx, &debt)
	plan := testPlan([]models.Debt{debt})
	if err := s.CreatePlan(ctx, plan); err != nil {
		t.Fatalf("Failed to create plan: %v", err)
	}

	approval := time.Now().UTC()
	plan.Status = models.PlanStatusVigente
	plan.ApprovalDate = &approval
	plan.Version = 2

	cuotas := make([]*models.Cuota, 3)
	for i := range cuotas {
		cuotas[i] = &models.Cuota{
			ID:        uuid.New(),
			PlanID:    plan.ID,
			Number:    i + 1,
			DueDate:   approval.AddDate(0, i+1, 0),
			Principal: decimal.NewFromFloat(333.33),
			Interest:  decimal.Zero,
			Total:     decimal.NewFromFloat(333.33),
			Status:    models.CuotaStatusPendiente,
			Version:   1,
		}
	}

	if err := s.SaveSchedule(ctx, plan, cuotas, 1); err != nil {
		t.Fatalf("SaveSchedule failed: %v", err)
	}

	fetched, _ := s.GetPlan(ctx, plan.ID)
	if fetched.Status != models.PlanStatusVigente {
		t.Errorf("Expected status VIGENTE, got %s", fetched.Status)
	}
	if fetched.Version != 2 {
		t.Errorf("Expected version 2, got %d", fetched.Version)
	}

	stored, err := s.GetCuotasByPlan(ctx, plan.ID)
	if err != nil {
		t.Fatalf("GetCuotasByPlan failed: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("Expected 3 cuotas, got %d", len(stored))
	}
	if stored[0].Number != 1 || stored[2].Number != 3 {
		t.Errorf("Expected cuotas ordered by number, got %d..%d", stored[0].Number, stored[2].Number)
	}

	// Stale version is a conflict, not a silent merge.
	var conflict *errs.ConflictError
	if err := s.SaveSchedule(ctx, plan, nil, 1); !errors.As(err, &conflict) {
		t.Errorf("Expected ConflictError on stale version, got %v", err)
	}
}

func TestSQLiteStore_UpdateCuota(t *testing.T) {
	s := newTestStore(t, "test_store_cuota.db")
	ctx := context.Background()

	debt := testDebt("C001", 1000)
	s.CreateDebt(ctx, &debt)
	plan := testPlan([]models.Debt{debt})
	s.CreatePlan(ctx, plan)

	plan.Status = models.PlanStatusVigente
	plan.Version = 2
	cuota := &models.Cuota{
		ID:        uuid.New(),
		PlanID:    plan.ID,
		Number:    1,
		DueDate:   time.Now().UTC().AddDate(0, 1, 0),
		Principal: decimal.NewFromInt(1000),
		Interest:  decimal.Zero,
		Total:     decimal.NewFromInt(1000),
		Status:    models.CuotaStatusPendiente,
		Version:   1,
	}
	if err := s.SaveSchedule(ctx, plan, []*models.Cuota{cuota}, 1); err != nil {
		t.Fatalf("SaveSchedule failed: %v", err)
	}

	paid := time.Now().UTC()
	cuota.Status = models.CuotaStatusPagada
	cuota.PaymentDate = &paid
	cuota.PaidAmount = decimal.NullDecimal{Decimal: cuota.Total, Valid: true}
	cuota.Version = 2
	if err := s.UpdateCuota(ctx, cuota, 1); err != nil {
		t.Fatalf("UpdateCuota failed: %v", err)
	}

	fetched, err := s.GetCuota(ctx, cuota.ID)
	if err != nil {
		t.Fatalf("GetCuota failed: %v", err)
	}
	if fetched.Status != models.CuotaStatusPagada {
		t.Errorf("Expected status PAGADA, got %s", fetched.Status)
	}
	if !fetched.PaidAmount.Valid || !fetched.PaidAmount.Decimal.Equal(cuota.Total) {
		t.Errorf("Expected paid amount %s, got %+v", cuota.Total, fetched.PaidAmount)
	}
	if fetched.PaymentDate == nil {
		t.Error("Expected payment date to be set")
	}

	var conflict *errs.ConflictError
	if err := s.UpdateCuota(ctx, cuota, 1); !errors.As(err, &conflict) {
		t.Errorf("Expected ConflictError on stale cuota version, got %v", err)
	}
}

func TestSQLiteStore_DebtsAndStatistics(t *testing.T) {
	s := newTestStore(t, "test_store_stats.db")
	ctx := context.Background()

	d1 := testDebt("C001", 600)
	d2 := testDebt("C001", 400)
	d3 := testDebt("C002", 50)
	for _, d := range []*models.Debt{&d1, &d2, &d3} {
		if err := s.CreateDebt(ctx, d); err != nil {
			t.Fatalf("Failed to create debt: %v", err)
		}
	}

	mine, err := s.GetDebtsByTaxpayer(ctx, "C001")
	if err != nil {
		t.Fatalf("GetDebtsByTaxpayer failed: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("Expected 2 debts for C001, got %d", len(mine))
	}

	// Order of results follows the requested ids.
	debts, err := s.GetDebtsByIDs(ctx, []uuid.UUID{d2.ID, d1.ID})
	if err != nil {
		t.Fatalf("GetDebtsByIDs failed: %v", err)
	}
	if debts[0].ID != d2.ID || debts[1].ID != d1.ID {
		t.Error("Expected debts in requested order")
	}

	var notFound *errs.NotFoundError
	if _, err := s.GetDebtsByIDs(ctx, []uuid.UUID{uuid.New()}); !errors.As(err, &notFound) {
		t.Errorf("Expected NotFoundError for unknown debt, got %v", err)
	}

	plan := testPlan([]models.Debt{d1, d2})
	if err := s.CreatePlan(ctx, plan); err != nil {
		t.Fatalf("Failed to create plan: %v", err)
	}

	stats, err := s.PlanStatistics(ctx)
	if err != nil {
		t.Fatalf("PlanStatistics failed: %v", err)
	}
	if len(stats) != 1 || stats[0].Status != models.PlanStatusPendiente {
		t.Fatalf("Unexpected statistics: %+v", stats)
	}
	if stats[0].PlanCount != 1 || !stats[0].TotalAmount.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Expected 1 plan totalling 1000, got %+v", stats[0])
	}
}

func TestSQLiteStore_DebtsInActivePlans(t *testing.T) {
	s := newTestStore(t, "test_store_active_debts.db")
	ctx := context.Background()

	held := testDebt("C001", 600)
	free := testDebt("C001", 400)
	for _, d := range []*models.Debt{&held, &free} {
		if err := s.CreateDebt(ctx, d); err != nil {
			t.Fatalf("Failed to create debt: %v", err)
		}
	}

	plan := testPlan([]models.Debt{held})
	if err := s.CreatePlan(ctx, plan); err != nil {
		t.Fatalf("Failed to create plan: %v", err)
	}

	got, err := s.DebtsInActivePlans(ctx, []uuid.UUID{held.ID, free.ID})
	if err != nil {
		t.Fatalf("DebtsInActivePlans failed: %v", err)
	}
	if code, ok := got[held.ID]; !ok || code != plan.PlanCode {
		t.Errorf("Expected debt held by %s, got %v", plan.PlanCode, got)
	}
	if _, ok := got[free.ID]; ok {
		t.Error("Expected unattached debt to be free")
	}

	// Terminal plans release their debts.
	expected := plan.Version
	plan.Status = models.PlanStatusRechazado
	plan.RejectionReason = "datos incompletos"
	plan.Version++
	if err := s.UpdatePlan(ctx, plan, expected); err != nil {
		t.Fatalf("UpdatePlan failed: %v", err)
	}
	got, err = s.DebtsInActivePlans(ctx, []uuid.UUID{held.ID})
	if err != nil {
		t.Fatalf("DebtsInActivePlans failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected no held debts after rejection, got %v", got)
	}
}

func TestSQLiteStore_NextPlanSequence(t *testing.T) {
	s := newTestStore(t, "test_store_seq.db")
	ctx := context.Background()

	first, err := s.NextPlanSequence(ctx)
	if err != nil {
		t.Fatalf("NextPlanSequence failed: %v", err)
	}
	second, err := s.NextPlanSequence(ctx)
	if err != nil {
		t.Fatalf("NextPlanSequence failed: %v", err)
	}
	if second <= first {
		t.Errorf("Expected increasing sequence, got %d then %d", first, second)
	}
}
