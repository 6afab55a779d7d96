package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tallyup/tallyup/internal/auth"
	"github.com/tallyup/tallyup/internal/config"
	apihttp "github.com/tallyup/tallyup/internal/http"
	"github.com/tallyup/tallyup/internal/http/accounts"
	"github.com/tallyup/tallyup/internal/http/contacts"
	"github.com/tallyup/tallyup/internal/http/debts"
	"github.com/tallyup/tallyup/internal/http/expenses"
	"github.com/tallyup/tallyup/internal/http/settlements"
	"github.com/tallyup/tallyup/internal/http/suggestions"
	"github.com/tallyup/tallyup/internal/metrics"
	"github.com/tallyup/tallyup/internal/service"
	"github.com/tallyup/tallyup/internal/storage"
	"github.com/tallyup/tallyup/internal/storage/sqlite"
	"github.com/tallyup/tallyup/pkg/logging"
)

func main() {
	logging.Setup()
	logger := slog.Default()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("storage initialized", "database", cfg.DBPath)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	clock := storage.SystemClock{}
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	authenticator := auth.NewPasswordAuthenticator(store, clock)

	authSvc := service.NewAuthService(authenticator, jwtManager, store, logger)
	contactSvc := service.NewContactService(store, clock, logger)
	debtSvc := service.NewDebtService(store, clock, logger, m)
	expenseSvc := service.NewExpenseService(store, clock, logger, m)
	settlementSvc := service.NewSettlementService(store, clock, logger, m)
	suggestionSvc := service.NewSuggestionService(store, clock, logger, m)

	handler := apihttp.New(apihttp.Deps{
		Accounts:    accounts.NewHandler(authSvc),
		Contacts:    contacts.NewHandler(contactSvc, debtSvc),
		Debts:       debts.NewHandler(debtSvc),
		Expenses:    expenses.NewHandler(expenseSvc),
		Settlements: settlements.NewHandler(settlementSvc),
		Suggestions: suggestions.NewHandler(suggestionSvc),
		JWTManager:  jwtManager,
		Logger:      logger,
		Metrics:     m,
		MetricsHTTP: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSOrigins: cfg.CORSOrigins,
	})

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	go func() {
		logger.Info("server starting", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
