package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"comanda-backend/internal/config"
	"comanda-backend/internal/db"
	"comanda-backend/internal/events"
	"comanda-backend/internal/handler"
	"comanda-backend/internal/repository"
	"comanda-backend/internal/server"
	"comanda-backend/internal/service"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect database", "err", err)
		os.Exit(1)
	}
	defer pg.Close()

	// Event broker (optional)
	var publisher events.Publisher = events.Noop{}
	if cfg.AMQPURL != "" {
		amqp, err := events.NewAMQP(cfg.AMQPURL, cfg.EventExchange, logger)
		if err != nil {
			logger.Error("failed to connect broker", "err", err)
			os.Exit(1)
		}
		defer amqp.Close()
		publisher = amqp
	}

	// repositories
	userRepo := repository.UserRepository{DB: pg}
	productRepo := repository.ProductRepository{DB: pg}
	tableRepo := repository.TableRepository{DB: pg}
	orderRepo := repository.OrderRepository{DB: pg}
	paymentRepo := repository.PaymentRepository{DB: pg}
	commissionRepo := repository.CommissionRepository{DB: pg}

	if err := productRepo.SeedDefaults(ctx); err != nil {
		logger.Warn("menu seed failed", "err", err)
	}

	// services
	authSvc := service.AuthService{Config: cfg, Users: userRepo, Logger: logger}
	tableSvc := service.TableService{Tables: tableRepo, Orders: orderRepo, Events: publisher, Logger: logger}
	orderSvc := service.OrderService{Orders: orderRepo, Tables: tableRepo, Products: productRepo, Events: publisher, Logger: logger}
	paymentSvc := service.PaymentService{Payments: paymentRepo, Orders: orderRepo, Tables: tableRepo, Commission: commissionRepo, Events: publisher, Logger: logger}

	// handlers
	healthHandler := handler.HealthHandler{DB: pg}
	authHandler := handler.AuthHandler{Service: &authSvc}
	tableHandler := handler.TableHandler{Service: tableSvc}
	orderHandler := handler.OrderHandler{Service: orderSvc}
	paymentHandler := handler.PaymentHandler{Service: paymentSvc}
	productHandler := handler.ProductHandler{Repo: productRepo}
	productAdminHandler := handler.ProductAdminHandler{Repo: productRepo}
	commissionHandler := handler.CommissionHandler{Store: commissionRepo}
	userHandler := handler.UserHandler{Repo: userRepo}

	router := server.NewRouter(cfg, logger, healthHandler, authHandler, tableHandler, orderHandler, paymentHandler, productHandler, productAdminHandler, commissionHandler, userHandler)

	if err := server.Start(ctx, cfg, router, logger); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}
