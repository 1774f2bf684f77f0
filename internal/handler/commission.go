package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"comanda-backend/internal/domain"
	"github.com/go-chi/chi/v5"
)

type CommissionStore interface {
	GetOrCreateDefault(ctx context.Context) (*domain.CommissionConfig, error)
	Save(ctx context.Context, c domain.CommissionConfig) (*domain.CommissionConfig, error)
}

// CommissionHandler manages the global waiter-commission toggle. Changing it
// only affects future settlements; recorded payments keep their snapshot.
type CommissionHandler struct {
	Store CommissionStore
}

func (h CommissionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/settings/commission", h.get)
	r.Put("/settings/commission", h.update)
}

func (h CommissionHandler) get(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Store.GetOrCreateDefault(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toCommissionResponse(*cfg))
}

func (h CommissionHandler) update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled    bool    `json:"enabled"`
		Percentage float64 `json:"percentage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Percentage < 0 || req.Percentage > 50 {
		writeError(w, http.StatusBadRequest, "percentage must be between 0 and 50")
		return
	}
	cfg, err := h.Store.Save(r.Context(), domain.CommissionConfig{
		Enabled:    req.Enabled,
		Percentage: req.Percentage,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toCommissionResponse(*cfg))
}

func toCommissionResponse(cfg domain.CommissionConfig) map[string]any {
	return map[string]any{
		"enabled":    cfg.Enabled,
		"percentage": cfg.Percentage,
		"updatedAt":  cfg.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
