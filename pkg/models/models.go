package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlanStatus is the lifecycle state of an installment plan.
type PlanStatus string

const (
	PlanStatusPendiente PlanStatus = "PENDIENTE"
	PlanStatusVigente   PlanStatus = "VIGENTE"
	PlanStatusRechazado PlanStatus = "RECHAZADO"
	PlanStatusCancelado PlanStatus = "CANCELADO"
)

// CuotaStatus is the payment state of a single installment.
// VENCIDA is derived at read time from the due date and is never stored.
type CuotaStatus string

const (
	CuotaStatusPendiente CuotaStatus = "PENDIENTE"
	CuotaStatusParcial   CuotaStatus = "PARCIAL"
	CuotaStatusPagada    CuotaStatus = "PAGADA"
	CuotaStatusVencida   CuotaStatus = "VENCIDA"
)

// Debt is a single outstanding obligation eligible for consolidation.
// Debts are created by the billing system and are read-only to this service;
// once attached to a plan the amounts are copied, never re-read.
type Debt struct {
	ID             uuid.UUID       `json:"id"`
	DebtCode       string          `json:"debt_code"`
	TaxpayerCode   string          `json:"taxpayer_code"`
	Concept        string          `json:"concept"`
	Period         string          `json:"period"` // e.g. "2023-01"
	OriginalAmount decimal.Decimal `json:"original_amount"`
	InterestAmount decimal.Decimal `json:"interest_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"` // original + interest
}

// InstallmentPlan is a consolidated payment agreement (fraccionamiento).
type InstallmentPlan struct {
	ID                   uuid.UUID       `json:"id"`
	PlanCode             string          `json:"plan_code"`
	TaxpayerCode         string          `json:"taxpayer_code"`
	TaxpayerName         string          `json:"taxpayer_name"`
	RequestDate          time.Time       `json:"request_date"`
	ApprovalDate         *time.Time      `json:"approval_date,omitempty"`
	TotalAmount          decimal.Decimal `json:"total_amount"` // sum of attached debt totals
	DownPayment          decimal.Decimal `json:"down_payment"`
	NumberOfInstallments int             `json:"number_of_installments"`
	InstallmentAmount    decimal.Decimal `json:"installment_amount"`   // annuity payment, previewed at creation
	AnnualInterestRate   decimal.Decimal `json:"annual_interest_rate"` // percent, e.g. 12 for 12%
	Status               PlanStatus      `json:"status"`
	Observations         string          `json:"observations,omitempty"`
	ApprovedBy           string          `json:"approved_by,omitempty"`
	RejectionReason      string          `json:"rejection_reason,omitempty"`
	Debts                []Debt          `json:"debts"`
	Version              int64           `json:"version"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// FinancedPrincipal is the amount actually amortized across installments.
func (p *InstallmentPlan) FinancedPrincipal() decimal.Decimal {
	return p.TotalAmount.Sub(p.DownPayment)
}

// Cuota is one scheduled installment within a plan. The schedule is generated
// once at approval; principal, interest and total never change afterwards.
type Cuota struct {
	ID          uuid.UUID           `json:"id"`
	PlanID      uuid.UUID           `json:"plan_id"`
	Number      int                 `json:"number"` // 1..NumberOfInstallments, contiguous
	DueDate     time.Time           `json:"due_date"`
	Principal   decimal.Decimal     `json:"principal"`
	Interest    decimal.Decimal     `json:"interest"`
	Total       decimal.Decimal     `json:"total"` // principal + interest
	Status      CuotaStatus         `json:"status"`
	PaymentDate *time.Time          `json:"payment_date,omitempty"`
	PaidAmount  decimal.NullDecimal `json:"paid_amount,omitempty"`
	Notes       string              `json:"notes,omitempty"`
	Version     int64               `json:"version"`
}

// EffectiveStatus reports the status as seen by readers: an unpaid cuota whose
// due date has passed reads as VENCIDA, without mutating the stored state.
func (c *Cuota) EffectiveStatus(now time.Time) CuotaStatus {
	if c.Status == CuotaStatusPagada {
		return c.Status
	}
	y, m, d := now.Date()
	startOfDay := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	if c.DueDate.Before(startOfDay) {
		return CuotaStatusVencida
	}
	return c.Status
}

// StatusStatistic is one row of the aggregate plans-by-status projection.
type StatusStatistic struct {
	Status      PlanStatus      `json:"status"`
	PlanCount   int             `json:"plan_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}
