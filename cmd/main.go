package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/futbolmvp/booking-system/config"
	"github.com/futbolmvp/booking-system/db"
	"github.com/futbolmvp/booking-system/fixtures"
	"github.com/futbolmvp/booking-system/handlers"
	"github.com/futbolmvp/booking-system/repositories"
	api "github.com/futbolmvp/booking-system/routes"
	"github.com/futbolmvp/booking-system/services"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	wsHub := fixtures.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	transactor := repositories.NewSQLTransactor(dbConn)
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	eventRepo := repositories.NewPostgresEventRepository(dbConn)
	courtRepo := repositories.NewPostgresCourtRepository(dbConn)
	registrationRepo := repositories.NewPostgresRegistrationRepository(dbConn)
	captainRepo := repositories.NewPostgresCaptainRepository(dbConn)
	auditRepo := repositories.NewPostgresAuditRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	notificationRepo := repositories.NewPostgresNotificationRepository(dbConn)
	logger.Info("Repositories initialized")

	authService := services.NewAuthService(transactor, userRepo, []byte(cfg.JWTSecretKey), logger)
	eventService := services.NewEventService(
		transactor,
		eventRepo,
		courtRepo,
		registrationRepo,
		captainRepo,
		userRepo,
		auditRepo,
		logger,
	)
	registrationService := services.NewRegistrationService(
		transactor,
		registrationRepo,
		courtRepo,
		eventRepo,
		captainRepo,
		userRepo,
		auditRepo,
		logger,
	)
	tournamentService := services.NewTournamentService(
		transactor,
		tournamentRepo,
		teamRepo,
		matchRepo,
		userRepo,
		logger,
	)
	matchService := services.NewMatchService(
		transactor,
		tournamentRepo,
		teamRepo,
		matchRepo,
		userRepo,
		wsHub,
		logger,
	)
	notificationService := services.NewNotificationService(transactor, notificationRepo, userRepo)
	logger.Info("Services initialized")

	// Scheduled auto-close runs on a ticker; each due event is closed in
	// its own transaction so one failure never blocks the rest.
	go func() {
		ticker := time.NewTicker(cfg.SchedulerInterval)
		defer ticker.Stop()
		logger.Info("event auto-close scheduler started", slog.Duration("interval", cfg.SchedulerInterval))

		runOnce := func() {
			closed, err := eventService.AutoCloseDueEvents(context.Background(), time.Now().UTC())
			if err != nil {
				logger.Error("scheduler: auto-close run failed", slog.Any("error", err))
				return
			}
			if len(closed) > 0 {
				logger.Info("scheduler: events auto-closed", slog.Int("count", len(closed)))
			}
		}

		runOnce()
		for range ticker.C {
			runOnce()
		}
	}()

	h := api.Handlers{
		Auth:             handlers.NewAuthHandler(authService),
		Event:            handlers.NewEventHandler(eventService, registrationService),
		AdminEvent:       handlers.NewAdminEventHandler(eventService),
		Tournament:       handlers.NewTournamentHandler(tournamentService, matchService),
		PublicTournament: handlers.NewPublicTournamentHandler(matchService, wsHub, logger),
		Notification:     handlers.NewNotificationHandler(notificationService),
	}
	logger.Info("HTTP handlers initialized")

	router := api.InitRoutes(h, authService)
	logger.Info("Routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
