package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"comanda-backend/internal/domain"
	"comanda-backend/internal/service"
	"github.com/go-chi/chi/v5"
)

// PaymentHandler exposes the bill and the settlement flow of a table.
type PaymentHandler struct {
	Service service.PaymentService
}

func (h PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Get("/tables/{id}/bill", h.bill)
	r.Post("/tables/{id}/payments", h.create)
	r.Get("/tables/{id}/payments", h.listByTable)
	r.Get("/payments", h.list)
	r.Get("/payments/{id}", h.get)
	r.Post("/payments/{id}/finalize", h.finalize)
	r.Post("/payments/{id}/cancel", h.cancel)
}

type paymentMethodRequest struct {
	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

func (h PaymentHandler) bill(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	bill, err := h.Service.GetBillSummary(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBillResponse(bill))
}

func (h PaymentHandler) create(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Status  string                 `json:"status"`
		Methods []paymentMethodRequest `json:"methods"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Status == "" {
		req.Status = string(domain.PaymentPaid)
	}
	payment, err := h.Service.CreatePayment(r.Context(), id, toMethodInputs(req.Methods), domain.PaymentStatus(req.Status))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentResponse(*payment))
}

func (h PaymentHandler) finalize(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Methods []paymentMethodRequest `json:"methods"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	payment, err := h.Service.FinalizePending(r.Context(), id, toMethodInputs(req.Methods))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(*payment))
}

func (h PaymentHandler) cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	payment, err := h.Service.CancelPending(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(*payment))
}

func (h PaymentHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	payment, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(*payment))
}

func (h PaymentHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if q := r.URL.Query().Get("limit"); q != "" {
		if v, err := strconv.Atoi(q); err == nil && v > 0 && v <= 500 {
			limit = v
		}
	}
	payments, err := h.Service.List(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponses(payments))
}

func (h PaymentHandler) listByTable(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	payments, err := h.Service.ListByTable(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponses(payments))
}

func toMethodInputs(methods []paymentMethodRequest) []service.PaymentMethodInput {
	out := make([]service.PaymentMethodInput, 0, len(methods))
	for _, m := range methods {
		out = append(out, service.PaymentMethodInput{
			Type:        domain.PaymentMethodType(m.Type),
			Amount:      m.Amount,
			Description: m.Description,
		})
	}
	return out
}

func toBillResponse(bill *service.BillSummary) map[string]any {
	return map[string]any{
		"tableId":              strconv.FormatInt(bill.TableID, 10),
		"orderIds":             formatIDs(bill.OrderIDs),
		"orderCount":           bill.OrderCount,
		"baseAmount":           bill.BaseAmount,
		"commissionEnabled":    bill.CommissionEnabled,
		"commissionPercentage": bill.CommissionPercentage,
		"commissionAmount":     bill.CommissionAmount,
		"totalDue":             bill.TotalDue,
		"hasPendingPayment":    bill.HasPendingPayment,
		"canSettleNow":         bill.CanSettleNow,
	}
}

func toPaymentResponses(payments []domain.Payment) []map[string]any {
	out := make([]map[string]any, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentResponse(p))
	}
	return out
}

func toPaymentResponse(p domain.Payment) map[string]any {
	methods := make([]map[string]any, 0, len(p.Methods))
	for _, m := range p.Methods {
		methods = append(methods, map[string]any{
			"type":        string(m.Type),
			"amount":      m.Amount,
			"description": m.Description,
		})
	}
	out := map[string]any{
		"id":                   strconv.FormatInt(p.ID, 10),
		"code":                 p.Code,
		"tableIdentification":  p.TableIdentification,
		"orderIds":             formatIDs(p.OrderIDs),
		"baseAmount":           p.BaseAmount,
		"commissionEnabled":    p.CommissionEnabled,
		"commissionPercentage": p.CommissionPercentage,
		"commissionAmount":     p.CommissionAmount,
		"totalAmount":          p.TotalAmount,
		"paidAmount":           p.PaidAmount,
		"changeAmount":         p.ChangeAmount,
		"remainingAmount":      p.RemainingAmount(),
		"methods":              methods,
		"status":               string(p.Status),
		"createdAt":            p.CreatedAt.UTC().Format(time.RFC3339),
	}
	if p.TableID != nil {
		out["tableId"] = strconv.FormatInt(*p.TableID, 10)
	}
	if p.PaidAt != nil {
		out["paidAt"] = p.PaidAt.UTC().Format(time.RFC3339)
	}
	return out
}

func formatIDs(ids []int64) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, strconv.FormatInt(id, 10))
	}
	return out
}
