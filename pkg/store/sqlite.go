package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/munitax/fraccionamiento/pkg/errs"
	"github.com/munitax/fraccionamiento/pkg/models"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore manages the database connection and operations for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Storage = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLiteStore and initializes the database.
func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	// Manually enable foreign keys and WAL mode
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}
	return s, nil
}

// initSchema creates the database tables if they don't already exist.
// We use TEXT for decimal fields in SQLite to ensure no precision is lost.
// plan_debts holds a value-copy of each debt taken at consolidation time,
// so later changes in the billing system never touch an agreed plan.
func (s *SQLiteStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS debts (
		id TEXT PRIMARY KEY,
		debt_code TEXT NOT NULL,
		taxpayer_code TEXT NOT NULL,
		concept TEXT NOT NULL,
		period TEXT NOT NULL,
		original_amount TEXT NOT NULL,
		interest_amount TEXT NOT NULL,
		total_amount TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS plans (
		id TEXT PRIMARY KEY,
		plan_code TEXT NOT NULL UNIQUE,
		taxpayer_code TEXT NOT NULL,
		taxpayer_name TEXT NOT NULL,
		request_date DATETIME NOT NULL,
		approval_date DATETIME,
		total_amount TEXT NOT NULL,
		down_payment TEXT NOT NULL,
		installments INTEGER NOT NULL,
		installment_amount TEXT NOT NULL,
		annual_rate TEXT NOT NULL,
		status TEXT NOT NULL,
		observations TEXT NOT NULL DEFAULT '',
		approved_by TEXT NOT NULL DEFAULT '',
		rejection_reason TEXT NOT NULL DEFAULT '',
		version INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS plan_debts (
		plan_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		debt_id TEXT NOT NULL,
		debt_code TEXT NOT NULL,
		taxpayer_code TEXT NOT NULL,
		concept TEXT NOT NULL,
		period TEXT NOT NULL,
		original_amount TEXT NOT NULL,
		interest_amount TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		PRIMARY KEY (plan_id, position),
		FOREIGN KEY (plan_id) REFERENCES plans(id)
	);
	CREATE TABLE IF NOT EXISTS cuotas (
		id TEXT PRIMARY KEY,
		plan_id TEXT NOT NULL,
		number INTEGER NOT NULL,
		due_date DATETIME NOT NULL,
		principal TEXT NOT NULL,
		interest TEXT NOT NULL,
		total TEXT NOT NULL,
		status TEXT NOT NULL,
		payment_date DATETIME,
		paid_amount TEXT,
		notes TEXT NOT NULL DEFAULT '',
		version INTEGER NOT NULL,
		UNIQUE (plan_id, number),
		FOREIGN KEY (plan_id) REFERENCES plans(id)
	);
	CREATE TABLE IF NOT EXISTS plan_seq (
		id INTEGER PRIMARY KEY AUTOINCREMENT
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateDebt inserts a candidate debt pushed by the billing system.
func (s *SQLiteStore) CreateDebt(ctx context.Context, debt *models.Debt) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO debts (id, debt_code, taxpayer_code, concept, period, original_amount, interest_amount, total_amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		debt.ID.String(), debt.DebtCode, debt.TaxpayerCode, debt.Concept, debt.Period,
		debt.OriginalAmount, debt.InterestAmount, debt.TotalAmount,
	)
	if err != nil {
		return errs.Persistence("create debt", err)
	}
	return nil
}

// GetDebtsByIDs retrieves the debts for the given ids, in the given order.
// Every id must resolve; an unknown id is a NotFoundError.
func (s *SQLiteStore) GetDebtsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Debt, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id.String()
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, debt_code, taxpayer_code, concept, period, original_amount, interest_amount, total_amount
		FROM debts WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, errs.Persistence("get debts", err)
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]models.Debt, len(ids))
	for rows.Next() {
		debt, err := scanDebt(rows)
		if err != nil {
			return nil, errs.Persistence("scan debt", err)
		}
		byID[debt.ID] = debt
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Persistence("iterate debts", err)
	}

	debts := make([]models.Debt, 0, len(ids))
	for _, id := range ids {
		debt, ok := byID[id]
		if !ok {
			return nil, errs.NotFound("debt", id.String())
		}
		debts = append(debts, debt)
	}
	return debts, nil
}

// GetDebtsByTaxpayer retrieves all candidate debts for a taxpayer.
func (s *SQLiteStore) GetDebtsByTaxpayer(ctx context.Context, taxpayerCode string) ([]models.Debt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, debt_code, taxpayer_code, concept, period, original_amount, interest_amount, total_amount
		FROM debts WHERE taxpayer_code = ? ORDER BY period, debt_code`, taxpayerCode)
	if err != nil {
		return nil, errs.Persistence("get taxpayer debts", err)
	}
	defer rows.Close()

	var debts []models.Debt
	for rows.Next() {
		debt, err := scanDebt(rows)
		if err != nil {
			return nil, errs.Persistence("scan debt", err)
		}
		debts = append(debts, debt)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Persistence("iterate debts", err)
	}
	return debts, nil
}

// DebtsInActivePlans returns, for each of the given debt ids that is attached
// to a PENDIENTE or VIGENTE plan, the code of the holding plan.
func (s *SQLiteStore) DebtsInActivePlans(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(ids)+2)
	for _, id := range ids {
		args = append(args, id.String())
	}
	args = append(args, string(models.PlanStatusPendiente), string(models.PlanStatusVigente))

	rows, err := s.db.QueryContext(ctx,
		`SELECT pd.debt_id, p.plan_code
		FROM plan_debts pd
		JOIN plans p ON p.id = pd.plan_id
		WHERE pd.debt_id IN (`+placeholders+`) AND p.status IN (?, ?)`, args...)
	if err != nil {
		return nil, errs.Persistence("get active plan debts", err)
	}
	defer rows.Close()

	held := make(map[uuid.UUID]string)
	for rows.Next() {
		var idStr, code string
		if err := rows.Scan(&idStr, &code); err != nil {
			return nil, errs.Persistence("scan active plan debt", err)
		}
		held[uuid.MustParse(idStr)] = code
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Persistence("iterate active plan debts", err)
	}
	return held, nil
}

func scanDebt(rows *sql.Rows) (models.Debt, error) {
	var debt models.Debt
	var idStr string
	if err := rows.Scan(&idStr, &debt.DebtCode, &debt.TaxpayerCode, &debt.Concept, &debt.Period,
		&debt.OriginalAmount, &debt.InterestAmount, &debt.TotalAmount); err != nil {
		return models.Debt{}, err
	}
	debt.ID = uuid.MustParse(idStr)
	return debt, nil
}

// CreatePlan inserts a plan and its attached debt snapshot in one transaction.
func (s *SQLiteStore) CreatePlan(ctx context.Context, plan *models.InstallmentPlan) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Persistence("begin create plan", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO plans (id, plan_code, taxpayer_code, taxpayer_name, request_date, approval_date,
			total_amount, down_payment, installments, installment_amount, annual_rate, status,
			observations, approved_by, rejection_reason, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		plan.ID.String(), plan.PlanCode, plan.TaxpayerCode, plan.TaxpayerName, plan.RequestDate, nullableTime(plan.ApprovalDate),
		plan.TotalAmount, plan.DownPayment, plan.NumberOfInstallments, plan.InstallmentAmount, plan.AnnualInterestRate, string(plan.Status),
		plan.Observations, plan.ApprovedBy, plan.RejectionReason, plan.Version, plan.CreatedAt, plan.UpdatedAt,
	)
	if err != nil {
		return errs.Persistence("create plan", err)
	}

	if err := insertPlanDebts(ctx, tx, plan); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errs.Persistence("commit create plan", err)
	}
	return nil
}

func insertPlanDebts(ctx context.Context, tx *sql.Tx, plan *models.InstallmentPlan) error {
	for i, debt := range plan.Debts {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO plan_debts (plan_id, position, debt_id, debt_code, taxpayer_code, concept, period, original_amount, interest_amount, total_amount)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			plan.ID.String(), i+1, debt.ID.String(), debt.DebtCode, debt.TaxpayerCode, debt.Concept, debt.Period,
			debt.OriginalAmount, debt.InterestAmount, debt.TotalAmount,
		)
		if err != nil {
			return errs.Persistence("attach debt", err)
		}
	}
	return nil
}

// GetPlan retrieves a plan and its attached debts by id.
func (s *SQLiteStore) GetPlan(ctx context.Context, id uuid.UUID) (*models.InstallmentPlan, error) {
	return s.getPlanWhere(ctx, "id = ?", id.String())
}

// GetPlanByCode retrieves a plan by its human-readable code.
func (s *SQLiteStore) GetPlanByCode(ctx context.Context, planCode string) (*models.InstallmentPlan, error) {
	return s.getPlanWhere(ctx, "plan_code = ?", planCode)
}

func (s *SQLiteStore) getPlanWhere(ctx context.Context, where string, arg any) (*models.InstallmentPlan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, plan_code, taxpayer_code, taxpayer_name, request_date, approval_date,
			total_amount, down_payment, installments, installment_amount, annual_rate, status,
			observations, approved_by, rejection_reason, version, created_at, updated_at
		FROM plans WHERE `+where, arg)

	plan, err := scanPlan(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errs.NotFound("plan", fmt.Sprint(arg))
		}
		return nil, errs.Persistence("get plan", err)
	}

	debts, err := s.getPlanDebts(ctx, plan.ID)
	if err != nil {
		return nil, err
	}
	plan.Debts = debts
	return plan, nil
}

func (s *SQLiteStore) getPlanDebts(ctx context.Context, planID uuid.UUID) ([]models.Debt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT debt_id, debt_code, taxpayer_code, concept, period, original_amount, interest_amount, total_amount
		FROM plan_debts WHERE plan_id = ? ORDER BY position`, planID.String())
	if err != nil {
		return nil, errs.Persistence("get plan debts", err)
	}
	defer rows.Close()

	var debts []models.Debt
	for rows.Next() {
		debt, err := scanDebt(rows)
		if err != nil {
			return nil, errs.Persistence("scan plan debt", err)
		}
		debts = append(debts, debt)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Persistence("iterate plan debts", err)
	}
	return debts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*models.InstallmentPlan, error) {
	var plan models.InstallmentPlan
	var idStr, status string
	var approvalDate sql.NullTime
	err := row.Scan(&idStr, &plan.PlanCode, &plan.TaxpayerCode, &plan.TaxpayerName, &plan.RequestDate, &approvalDate,
		&plan.TotalAmount, &plan.DownPayment, &plan.NumberOfInstallments, &plan.InstallmentAmount, &plan.AnnualInterestRate, &status,
		&plan.Observations, &plan.ApprovedBy, &plan.RejectionReason, &plan.Version, &plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		return nil, err
	}
	plan.ID = uuid.MustParse(idStr)
	plan.Status = models.PlanStatus(status)
	if approvalDate.Valid {
		plan.ApprovalDate = &approvalDate.Time
	}
	return &plan, nil
}

// GetAllPlans retrieves all plans with their attached debts.
func (s *SQLiteStore) GetAllPlans(ctx context.Context) ([]*models.InstallmentPlan, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, plan_code, taxpayer_code, taxpayer_name, request_date, approval_date,
			total_amount, down_payment, installments, installment_amount, annual_rate, status,
			observations, approved_by, rejection_reason, version, created_at, updated_at
		FROM plans ORDER BY created_at DESC`)
	if err != nil {
		return nil, errs.Persistence("get all plans", err)
	}
	defer rows.Close()

	var plans []*models.InstallmentPlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, errs.Persistence("scan plan", err)
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Persistence("iterate plans", err)
	}

	for _, plan := range plans {
		debts, err := s.getPlanDebts(ctx, plan.ID)
		if err != nil {
			return nil, err
		}
		plan.Debts = debts
	}
	return plans, nil
}

// UpdatePlan updates a plan row guarded by the expected version.
func (s *SQLiteStore) UpdatePlan(ctx context.Context, plan *models.InstallmentPlan, expectedVersion int64) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE plans SET taxpayer_name = ?, approval_date = ?, installment_amount = ?, status = ?,
			observations = ?, approved_by = ?, rejection_reason = ?, version = ?, updated_at = ?
		WHERE id = ? AND version = ?`,
		plan.TaxpayerName, nullableTime(plan.ApprovalDate), plan.InstallmentAmount, string(plan.Status),
		plan.Observations, plan.ApprovedBy, plan.RejectionReason, plan.Version, plan.UpdatedAt,
		plan.ID.String(), expectedVersion,
	)
	if err != nil {
		return errs.Persistence("update plan", err)
	}
	return s.checkPlanWrite(ctx, result, plan.ID)
}

// SaveSchedule persists the approved plan and its full cuota set atomically.
func (s *SQLiteStore) SaveSchedule(ctx context.Context, plan *models.InstallmentPlan, cuotas []*models.Cuota, expectedVersion int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Persistence("begin save schedule", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE plans SET approval_date = ?, installment_amount = ?, status = ?,
			observations = ?, approved_by = ?, version = ?, updated_at = ?
		WHERE id = ? AND version = ?`,
		nullableTime(plan.ApprovalDate), plan.InstallmentAmount, string(plan.Status),
		plan.Observations, plan.ApprovedBy, plan.Version, plan.UpdatedAt,
		plan.ID.String(), expectedVersion,
	)
	if err != nil {
		return errs.Persistence("update plan for schedule", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errs.Persistence("check rows affected", err)
	}
	if affected == 0 {
		return s.missingOrStale(ctx, plan.ID)
	}

	for _, cuota := range cuotas {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO cuotas (id, plan_id, number, due_date, principal, interest, total, status, payment_date, paid_amount, notes, version)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			cuota.ID.String(), cuota.PlanID.String(), cuota.Number, cuota.DueDate,
			cuota.Principal, cuota.Interest, cuota.Total, string(cuota.Status),
			nullableTime(cuota.PaymentDate), cuota.PaidAmount, cuota.Notes, cuota.Version,
		)
		if err != nil {
			return errs.Persistence("insert cuota", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.Persistence("commit save schedule", err)
	}
	return nil
}

// GetCuota retrieves a single cuota by id.
func (s *SQLiteStore) GetCuota(ctx context.Context, id uuid.UUID) (*models.Cuota, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, plan_id, number, due_date, principal, interest, total, status, payment_date, paid_amount, notes, version
		FROM cuotas WHERE id = ?`, id.String())
	cuota, err := scanCuota(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errs.NotFound("cuota", id.String())
		}
		return nil, errs.Persistence("get cuota", err)
	}
	return cuota, nil
}

// GetCuotasByPlan retrieves the plan's cronograma ordered by installment number.
func (s *SQLiteStore) GetCuotasByPlan(ctx context.Context, planID uuid.UUID) ([]*models.Cuota, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, plan_id, number, due_date, principal, interest, total, status, payment_date, paid_amount, notes, version
		FROM cuotas WHERE plan_id = ? ORDER BY number`, planID.String())
	if err != nil {
		return nil, errs.Persistence("get cuotas", err)
	}
	defer rows.Close()

	var cuotas []*models.Cuota
	for rows.Next() {
		cuota, err := scanCuota(rows)
		if err != nil {
			return nil, errs.Persistence("scan cuota", err)
		}
		cuotas = append(cuotas, cuota)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Persistence("iterate cuotas", err)
	}
	return cuotas, nil
}

func scanCuota(row rowScanner) (*models.Cuota, error) {
	var cuota models.Cuota
	var idStr, planIDStr, status string
	var paymentDate sql.NullTime
	err := row.Scan(&idStr, &planIDStr, &cuota.Number, &cuota.DueDate,
		&cuota.Principal, &cuota.Interest, &cuota.Total, &status,
		&paymentDate, &cuota.PaidAmount, &cuota.Notes, &cuota.Version)
	if err != nil {
		return nil, err
	}
	cuota.ID = uuid.MustParse(idStr)
	cuota.PlanID = uuid.MustParse(planIDStr)
	cuota.Status = models.CuotaStatus(status)
	if paymentDate.Valid {
		cuota.PaymentDate = &paymentDate.Time
	}
	return &cuota, nil
}

// UpdateCuota updates a cuota row guarded by the expected version.
func (s *SQLiteStore) UpdateCuota(ctx context.Context, cuota *models.Cuota, expectedVersion int64) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE cuotas SET status = ?, payment_date = ?, paid_amount = ?, notes = ?, version = ?
		WHERE id = ? AND version = ?`,
		string(cuota.Status), nullableTime(cuota.PaymentDate), cuota.PaidAmount, cuota.Notes, cuota.Version,
		cuota.ID.String(), expectedVersion,
	)
	if err != nil {
		return errs.Persistence("update cuota", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errs.Persistence("check rows affected", err)
	}
	if affected == 0 {
		var exists int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM cuotas WHERE id = ?`, cuota.ID.String()).Scan(&exists)
		if err == sql.ErrNoRows {
			return errs.NotFound("cuota", cuota.ID.String())
		}
		if err != nil {
			return errs.Persistence("check cuota", err)
		}
		return errs.Conflictf("cuota %s was modified concurrently", cuota.ID)
	}
	return nil
}

// PlanStatistics aggregates plan counts and summed totals by status.
// Totals are summed in Go so the TEXT-stored decimals never round-trip
// through floating point.
func (s *SQLiteStore) PlanStatistics(ctx context.Context) ([]models.StatusStatistic, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, total_amount FROM plans`)
	if err != nil {
		return nil, errs.Persistence("plan statistics", err)
	}
	defer rows.Close()

	counts := make(map[models.PlanStatus]int)
	totals := make(map[models.PlanStatus]decimal.Decimal)
	var order []models.PlanStatus
	for rows.Next() {
		var status string
		var total decimal.Decimal
		if err := rows.Scan(&status, &total); err != nil {
			return nil, errs.Persistence("scan statistic", err)
		}
		st := models.PlanStatus(status)
		if counts[st] == 0 {
			order = append(order, st)
		}
		counts[st]++
		totals[st] = totals[st].Add(total)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Persistence("iterate statistics", err)
	}

	stats := make([]models.StatusStatistic, 0, len(order))
	for _, st := range order {
		stats = append(stats, models.StatusStatistic{Status: st, PlanCount: counts[st], TotalAmount: totals[st]})
	}
	return stats, nil
}

// NextPlanSequence mints the next plan code sequence number.
func (s *SQLiteStore) NextPlanSequence(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `INSERT INTO plan_seq DEFAULT VALUES`)
	if err != nil {
		return 0, errs.Persistence("next plan sequence", err)
	}
	seq, err := result.LastInsertId()
	if err != nil {
		return 0, errs.Persistence("read plan sequence", err)
	}
	return seq, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) checkPlanWrite(ctx context.Context, result sql.Result, planID uuid.UUID) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return errs.Persistence("check rows affected", err)
	}
	if affected == 0 {
		return s.missingOrStale(ctx, planID)
	}
	return nil
}

// missingOrStale distinguishes an unknown plan from a version mismatch.
func (s *SQLiteStore) missingOrStale(ctx context.Context, planID uuid.UUID) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM plans WHERE id = ?`, planID.String()).Scan(&exists)
	if err == sql.ErrNoRows {
		return errs.NotFound("plan", planID.String())
	}
	if err != nil {
		return errs.Persistence("check plan", err)
	}
	return errs.Conflictf("plan %s was modified concurrently", planID)
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
