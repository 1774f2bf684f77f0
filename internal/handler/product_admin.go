package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"comanda-backend/internal/domain"
	"comanda-backend/internal/repository"
	"github.com/go-chi/chi/v5"
)

// ProductAdminHandler lets admins manage the menu.
type ProductAdminHandler struct {
	Repo repository.ProductRepository
}

func (h ProductAdminHandler) RegisterRoutes(r chi.Router) {
	r.Post("/products", h.create)
	r.Put("/products/{id}", h.update)
	r.Put("/products/{id}/availability", h.setAvailability)
	r.Delete("/products/{id}", h.remove)
}

type productRequest struct {
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Price     float64 `json:"price"`
	Available *bool   `json:"available"`
}

func (req productRequest) validate() string {
	if strings.TrimSpace(req.Name) == "" {
		return "name is required"
	}
	if req.Price < 0 {
		return "price must not be negative"
	}
	return ""
}

func (h ProductAdminHandler) create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	available := true
	if req.Available != nil {
		available = *req.Available
	}
	p, err := h.Repo.Save(r.Context(), domain.Product{
		Name:      strings.TrimSpace(req.Name),
		Category:  strings.TrimSpace(req.Category),
		Price:     domain.Round2(req.Price),
		Available: available,
	})
	if err != nil {
		if repository.IsDuplicate(err) {
			writeError(w, http.StatusBadRequest, "product name already in use")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(*p))
}

func (h ProductAdminHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	available := true
	if req.Available != nil {
		available = *req.Available
	}
	p, err := h.Repo.Save(r.Context(), domain.Product{
		ID:        id,
		Name:      strings.TrimSpace(req.Name),
		Category:  strings.TrimSpace(req.Category),
		Price:     domain.Round2(req.Price),
		Available: available,
	})
	if err != nil {
		if err == repository.ErrNotFound {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(*p))
}

func (h ProductAdminHandler) setAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Available bool `json:"available"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.Repo.SetAvailability(r.Context(), id, req.Available); err != nil {
		if err == repository.ErrNotFound {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h ProductAdminHandler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Repo.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
