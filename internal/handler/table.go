package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"comanda-backend/internal/domain"
	"comanda-backend/internal/server/authctx"
	"comanda-backend/internal/service"
	"github.com/go-chi/chi/v5"
)

// TableHandler exposes the table lifecycle: the floor plan plus the
// open/release session flow.
type TableHandler struct {
	Service service.TableService
}

func (h TableHandler) RegisterRoutes(r chi.Router) {
	r.Get("/tables", h.list)
	r.Get("/tables/{id}", h.get)
	r.Post("/tables/{id}/open", h.open)
	r.Post("/tables/{id}/release", h.release)
	r.Put("/tables/{id}/status", h.changeStatus)
}

func (h TableHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/tables", h.create)
	r.Delete("/tables/{id}", h.remove)
}

func (h TableHandler) list(w http.ResponseWriter, r *http.Request) {
	tables, err := h.Service.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(tables))
	for _, t := range tables {
		out = append(out, toTableResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h TableHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	table, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTableResponse(*table))
}

func (h TableHandler) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Number   int `json:"number"`
		Capacity int `json:"capacity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	table, err := h.Service.Create(r.Context(), req.Number, req.Capacity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTableResponse(*table))
}

func (h TableHandler) open(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	caller, ok := currentCaller(w, r)
	if !ok {
		return
	}
	var req struct {
		CustomerCount  int    `json:"customerCount"`
		WaiterID       *int64 `json:"waiterId"`
		Identification string `json:"identification"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	table, err := h.Service.Open(r.Context(), caller, service.OpenTableInput{
		TableID:        id,
		CustomerCount:  req.CustomerCount,
		WaiterID:       req.WaiterID,
		Identification: req.Identification,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTableResponse(*table))
}

func (h TableHandler) release(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	table, err := h.Service.Release(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTableResponse(*table))
}

func (h TableHandler) changeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
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
	res, err := h.Service.ChangeStatus(r.Context(), id, domain.TableStatus(req.Status))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	payload := toTableResponse(*res.Table)
	payload["activeOrders"] = res.ActiveOrders
	payload["requiresConfirmation"] = res.ActiveOrders > 0
	writeJSON(w, http.StatusOK, payload)
}

func (h TableHandler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func toTableResponse(t domain.Table) map[string]any {
	out := map[string]any{
		"id":       strconv.FormatInt(t.ID, 10),
		"number":   t.Number,
		"capacity": t.Capacity,
		"status":   string(t.Status),
	}
	if t.CurrentCustomers != nil {
		out["currentCustomers"] = *t.CurrentCustomers
	}
	if t.Identification != nil {
		out["identification"] = *t.Identification
	}
	if t.AssignedWaiterID != nil {
		out["assignedWaiterId"] = strconv.FormatInt(*t.AssignedWaiterID, 10)
	}
	if t.OpenedAt != nil {
		out["openedAt"] = t.OpenedAt.UTC().Format(time.RFC3339)
	}
	if t.ClosedAt != nil {
		out["closedAt"] = t.ClosedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func currentCaller(w http.ResponseWriter, r *http.Request) (service.Caller, bool) {
	user, ok := authctx.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return service.Caller{}, false
	}
	return service.Caller{ID: user.ID, Role: user.Role}, true
}
