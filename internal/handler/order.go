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

// OrderHandler exposes ticket creation and the kitchen status flow.
type OrderHandler struct {
	Service service.OrderService
}

func (h OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/orders", h.create)
	r.Get("/orders", h.list)
	r.Get("/orders/{id}", h.get)
	r.Put("/orders/{id}/status", h.transition)
	r.Post("/orders/{id}/cancel", h.cancel)
	r.Get("/tables/{id}/orders", h.listByTable)
}

func (h OrderHandler) create(w http.ResponseWriter, r *http.Request) {
	caller, ok := currentCaller(w, r)
	if !ok {
		return
	}
	var req struct {
		TableID       int64  `json:"tableId"`
		Observations  string `json:"observations"`
		EstimatedTime *int   `json:"estimatedTime"`
		Items         []struct {
			ProductID    int64  `json:"productId"`
			Quantity     int    `json:"quantity"`
			Observations string `json:"observations"`
		} `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	in := service.CreateOrderInput{
		TableID:       req.TableID,
		Observations:  req.Observations,
		EstimatedTime: req.EstimatedTime,
	}
	for _, item := range req.Items {
		in.Items = append(in.Items, service.CreateOrderItemInput{
			ProductID:    item.ProductID,
			Quantity:     item.Quantity,
			Observations: item.Observations,
		})
	}

	order, err := h.Service.Create(r.Context(), caller, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(*order))
}

func (h OrderHandler) list(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		writeError(w, http.StatusBadRequest, "status query parameter is required")
		return
	}
	orders, err := h.Service.ListByStatus(r.Context(), domain.OrderStatus(status))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponses(orders))
}

func (h OrderHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	order, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

func (h OrderHandler) listByTable(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	orders, err := h.Service.ListByTable(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponses(orders))
}

func (h OrderHandler) transition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	caller, ok := currentCaller(w, r)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	order, err := h.Service.Transition(r.Context(), caller, id, domain.OrderStatus(req.Status))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

func (h OrderHandler) cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	caller, ok := currentCaller(w, r)
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	order, err := h.Service.Cancel(r.Context(), caller, id, req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

func toOrderResponses(orders []domain.Order) []map[string]any {
	out := make([]map[string]any, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	return out
}

func toOrderResponse(o domain.Order) map[string]any {
	items := make([]map[string]any, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, map[string]any{
			"id":           strconv.FormatInt(item.ID, 10),
			"productId":    strconv.FormatInt(item.ProductID, 10),
			"productName":  item.ProductName,
			"quantity":     item.Quantity,
			"unitPrice":    item.UnitPrice,
			"totalPrice":   item.TotalPrice,
			"observations": item.Observations,
		})
	}
	out := map[string]any{
		"id":          strconv.FormatInt(o.ID, 10),
		"tableId":     strconv.FormatInt(o.TableID, 10),
		"waiterId":    strconv.FormatInt(o.WaiterID, 10),
		"status":      string(o.Status),
		"items":       items,
		"totalAmount": o.TotalAmount,
		"createdAt":   o.CreatedAt.UTC().Format(time.RFC3339),
	}
	if o.Observations != "" {
		out["observations"] = o.Observations
	}
	if o.EstimatedTime != nil {
		out["estimatedTime"] = *o.EstimatedTime
	}
	if o.PaymentID != nil {
		out["paymentId"] = strconv.FormatInt(*o.PaymentID, 10)
	}
	if o.DeliveredAt != nil {
		out["deliveredAt"] = o.DeliveredAt.UTC().Format(time.RFC3339)
	}
	if o.CancelReason != nil {
		out["cancelReason"] = *o.CancelReason
	}
	if o.CancelledBy != nil {
		out["cancelledBy"] = strconv.FormatInt(*o.CancelledBy, 10)
	}
	return out
}
