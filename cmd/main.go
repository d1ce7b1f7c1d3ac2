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

	"github.com/fantaleague/league-system/config"
	"github.com/fantaleague/league-system/db"
	"github.com/fantaleague/league-system/handlers"
	"github.com/fantaleague/league-system/notifications"
	"github.com/fantaleague/league-system/repositories"
	api "github.com/fantaleague/league-system/routes"
	"github.com/fantaleague/league-system/services"
	"github.com/fantaleague/league-system/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

const inviteSweepInterval = 10 * time.Minute // Как часто чистим истёкшие приглашения

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	database, err := db.Connect(cfg.DatabaseURL, 10*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Инициализация загрузчика файлов (Cloudflare R2)
	uploader, err := storage.NewR2Uploader(storage.R2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 uploader initialized")

	// Инициализация WebSocket Hub
	hub := notifications.NewHub()
	go hub.Run()
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(database)
	leagueRepo := repositories.NewPostgresLeagueRepository(database)
	teamRepo := repositories.NewPostgresTeamRepository(database)
	playerRepo := repositories.NewPostgresPlayerRepository(database)
	offerRepo := repositories.NewPostgresOfferRepository(database)
	inviteRepo := repositories.NewPostgresInviteRepository(database)
	notificationRepo := repositories.NewPostgresNotificationRepository(database)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	authService := services.NewAuthService(userRepo)
	leagueService := services.NewLeagueService(leagueRepo, teamRepo)
	teamService := services.NewTeamService(teamRepo, playerRepo, leagueRepo, userRepo, uploader, logger)
	offerService := services.NewOfferService(database, offerRepo, teamRepo, playerRepo, leagueRepo, userRepo, notificationRepo, hub, logger)
	rosterService := services.NewRosterService(database, playerRepo, teamRepo, leagueRepo, userRepo, notificationRepo, hub, logger)
	inviteService := services.NewInviteService(inviteRepo, leagueRepo, teamRepo, userRepo)
	notificationService := services.NewNotificationService(notificationRepo)
	logger.Info("Services initialized")

	// Периодическая чистка истёкших приглашений
	go func() {
		ticker := time.NewTicker(inviteSweepInterval)
		defer ticker.Stop()
		logger.Info("Invite sweeper started", slog.Duration("interval", inviteSweepInterval))

		for range ticker.C {
			deleted, err := inviteRepo.DeleteExpired(context.Background())
			if err != nil {
				logger.Error("Invite sweeper: run failed", slog.Any("error", err))
				continue
			}
			if deleted > 0 {
				logger.Info("Invite sweeper: expired invites removed", slog.Int64("count", deleted))
			}
		}
	}()

	// Инициализация обработчиков HTTP
	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	leagueHandler := handlers.NewLeagueHandler(leagueService, teamService)
	teamHandler := handlers.NewTeamHandler(teamService)
	offerHandler := handlers.NewOfferHandler(offerService)
	rosterHandler := handlers.NewRosterHandler(rosterService)
	inviteHandler := handlers.NewInviteHandler(inviteService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	webSocketHandler := handlers.NewWebSocketHandler(hub)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		authHandler,
		leagueHandler,
		teamHandler,
		offerHandler,
		rosterHandler,
		inviteHandler,
		notificationHandler,
		webSocketHandler,
	)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		} else {
			logger.Info("server shutdown complete")
		}
	}

	logger.Info("application exited")
}
