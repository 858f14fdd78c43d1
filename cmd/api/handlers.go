package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/munitax/fraccionamiento/pkg/errs"
	"github.com/munitax/fraccionamiento/pkg/models"
	"github.com/munitax/fraccionamiento/pkg/plan"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto HTTP status codes. Persistence
// failures are rendered as a generic retry notice; the detail stays in logs.
func writeError(w http.ResponseWriter, err error) {
	var validation *errs.ValidationError
	if errors.As(err, &validation) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":      "validation failed",
			"violations": validation.Violations,
		})
		return
	}

	var notFound *errs.NotFoundError
	if errors.As(err, &notFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": notFound.Error()})
		return
	}

	var conflict *errs.ConflictError
	if errors.As(err, &conflict) {
		writeJSON(w, http.StatusConflict, map[string]any{"error": conflict.Error()})
		return
	}

	slog.Error("request failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error, please retry"})
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)[name])
}

func (s *Server) createDebtHandler(w http.ResponseWriter, r *http.Request) {
	var debt models.Debt
	if err := json.NewDecoder(r.Body).Decode(&debt); err != nil {
		writeError(w, errs.Validationf("invalid request body: %v", err))
		return
	}
	if debt.ID == uuid.Nil {
		debt.ID = uuid.New()
	}
	if debt.TotalAmount.IsZero() {
		debt.TotalAmount = debt.OriginalAmount.Add(debt.InterestAmount)
	}

	if err := s.storage.CreateDebt(r.Context(), &debt); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, debt)
}

func (s *Server) listTaxpayerDebtsHandler(w http.ResponseWriter, r *http.Request) {
	debts, err := s.storage.GetDebtsByTaxpayer(r.Context(), mux.Vars(r)["codigo"])
	if err != nil {
		writeError(w, err)
		return
	}
	if debts == nil {
		debts = []models.Debt{}
	}
	writeJSON(w, http.StatusOK, debts)
}

func (s *Server) createSolicitudHandler(w http.ResponseWriter, r *http.Request) {
	var req plan.CreateSolicitudRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.Validationf("invalid request body: %v", err))
		return
	}

	created, err := s.service.CreateSolicitud(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) listPlansHandler(w http.ResponseWriter, r *http.Request) {
	plans, err := s.service.ListPlans(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if plans == nil {
		plans = []*models.InstallmentPlan{}
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) getPlanHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, errs.Validationf("invalid plan id"))
		return
	}

	p, err := s.service.GetPlan(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) getPlanByCodeHandler(w http.ResponseWriter, r *http.Request) {
	p, err := s.service.GetPlanByCode(r.Context(), mux.Vars(r)["codigo"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) approveHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, errs.Validationf("invalid plan id"))
		return
	}

	var req struct {
		ApprovedBy   string `json:"approved_by"`
		Observations string `json:"observations"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, errs.Validationf("invalid request body: %v", err))
			return
		}
	}

	p, err := s.service.Approve(r.Context(), id, req.ApprovedBy, req.Observations)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) rejectHandler(w http.ResponseWriter, r *http.Request) {
	id, motivo, err := decodeMotivo(r)
	if err != nil {
		writeError(w, err)
		return
	}

	p, err := s.service.Reject(r.Context(), id, motivo)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) cancelHandler(w http.ResponseWriter, r *http.Request) {
	id, motivo, err := decodeMotivo(r)
	if err != nil {
		writeError(w, err)
		return
	}

	p, err := s.service.Cancel(r.Context(), id, motivo)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func decodeMotivo(r *http.Request) (uuid.UUID, string, error) {
	id, err := pathUUID(r, "id")
	if err != nil {
		return uuid.Nil, "", errs.Validationf("invalid plan id")
	}

	var req struct {
		Motivo string `json:"motivo"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return uuid.Nil, "", errs.Validationf("invalid request body: %v", err)
		}
	}
	return id, req.Motivo, nil
}

func (s *Server) generateScheduleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, errs.Validationf("invalid plan id"))
		return
	}

	cuotas, err := s.service.GenerateSchedule(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cuotas)
}

func (s *Server) getCronogramaHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, errs.Validationf("invalid plan id"))
		return
	}

	cuotas, err := s.service.GetCronograma(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if cuotas == nil {
		cuotas = []*models.Cuota{}
	}
	writeJSON(w, http.StatusOK, cuotas)
}

func (s *Server) registerPaymentHandler(w http.ResponseWriter, r *http.Request) {
	planID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, errs.Validationf("invalid plan id"))
		return
	}
	cuotaID, err := pathUUID(r, "cuotaId")
	if err != nil {
		writeError(w, errs.Validationf("invalid cuota id"))
		return
	}

	var req struct {
		Amount decimal.Decimal `json:"amount"`
		Notes  string          `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.Validationf("invalid request body: %v", err))
		return
	}

	cuota, err := s.service.RegisterPayment(r.Context(), planID, cuotaID, req.Amount, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cuota)
}

func (s *Server) statisticsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Statistics(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if stats == nil {
		stats = []models.StatusStatistic{}
	}
	writeJSON(w, http.StatusOK, stats)
}
