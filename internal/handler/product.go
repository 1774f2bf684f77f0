package handler

import (
	"net/http"
	"strconv"

	"comanda-backend/internal/domain"
	"comanda-backend/internal/repository"
	"github.com/go-chi/chi/v5"
)

// ProductHandler serves the menu to staff. Unavailable items are included so
// waiters can see what is off today.
type ProductHandler struct {
	Repo repository.ProductRepository
}

func (h ProductHandler) RegisterRoutes(r chi.Router) {
	r.Get("/products", h.list)
	r.Get("/products/{id}", h.get)
}

func (h ProductHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.Repo.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toProductResponses(items))
}

func (h ProductHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.Repo.GetByID(r.Context(), id)
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

func toProductResponses(items []domain.Product) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, p := range items {
		out = append(out, toProductResponse(p))
	}
	return out
}

func toProductResponse(p domain.Product) map[string]any {
	return map[string]any{
		"id":        strconv.FormatInt(p.ID, 10),
		"name":      p.Name,
		"category":  p.Category,
		"price":     p.Price,
		"available": p.Available,
	}
}
