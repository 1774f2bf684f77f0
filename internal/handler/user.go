package handler

import (
	"net/http"
	"strconv"

	"comanda-backend/internal/domain"
	"comanda-backend/internal/repository"
	"github.com/go-chi/chi/v5"
)

// UserHandler lists waiters so the reception can assign tables.
type UserHandler struct {
	Repo repository.UserRepository
}

func (h UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/users/waiters", h.listWaiters)
}

func (h UserHandler) listWaiters(w http.ResponseWriter, r *http.Request) {
	users, err := h.Repo.ListByRole(r.Context(), domain.RoleWaiter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]map[string]any, 0, len(users))
	for _, u := range users {
		if !u.Active {
			continue
		}
		out = append(out, map[string]any{
			"id":    strconv.FormatInt(u.ID, 10),
			"name":  u.Name,
			"email": u.Email,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
