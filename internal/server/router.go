package server

import (
	"net/http"
	"time"

	"comanda-backend/internal/config"
	"comanda-backend/internal/domain"
	"comanda-backend/internal/handler"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"log/slog"
)

// NewRouter wires HTTP routes and middleware.
func NewRouter(cfg config.Config,
	logger *slog.Logger,
	health handler.HealthHandler,
	auth handler.AuthHandler,
	tables handler.TableHandler,
	orders handler.OrderHandler,
	payments handler.PaymentHandler,
	products handler.ProductHandler,
	productsAdmin handler.ProductAdminHandler,
	commission handler.CommissionHandler,
	users handler.UserHandler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httprate.LimitByIP(200, 1*time.Minute))

	health.RegisterRoutes(r)
	auth.RegisterRoutes(r)
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Group(func(pr chi.Router) {
		pr.Use(AuthMiddleware(cfg.JWTSecret))
		// staff-level (waiter/receptionist/admin)
		pr.Group(func(sr chi.Router) {
			sr.Use(RequireRole(domain.RoleAdmin, domain.RoleReceptionist, domain.RoleWaiter))
			tables.RegisterRoutes(sr)
			orders.RegisterRoutes(sr)
			payments.RegisterRoutes(sr)
			products.RegisterRoutes(sr)
		})
		// reception-level (receptionist/admin)
		pr.Group(func(rr chi.Router) {
			rr.Use(RequireRole(domain.RoleAdmin, domain.RoleReceptionist))
			users.RegisterRoutes(rr)
		})
		// admin-level
		pr.Group(func(ar chi.Router) {
			ar.Use(RequireRole(domain.RoleAdmin))
			tables.RegisterAdminRoutes(ar)
			productsAdmin.RegisterRoutes(ar)
			commission.RegisterRoutes(ar)
		})
	})

	return r
}
