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

	"github.com/Dosada05/match-archive/config"
	"github.com/Dosada05/match-archive/db"
	"github.com/Dosada05/match-archive/handlers"
	"github.com/Dosada05/match-archive/middleware"
	"github.com/Dosada05/match-archive/realtime"
	"github.com/Dosada05/match-archive/repositories"
	api "github.com/Dosada05/match-archive/routes"
	"github.com/Dosada05/match-archive/services"
	"github.com/Dosada05/match-archive/storage"
	"github.com/go-chi/chi/v5"
)

const (
	schedulerInterval = 5 * time.Minute
	schedulerTimeout  = time.Minute
	shutdownTimeout   = 15 * time.Second
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("timezone", cfg.Timezone.String()))

	appCtx, stopApp := context.WithCancel(context.Background())
	defer stopApp()

	// Подключение к базе данных
	dsn, err := db.WithTimeZone(cfg.DatabaseURL, cfg.Timezone)
	if err != nil {
		logger.Error("invalid database URL", slog.Any("error", err))
		os.Exit(1)
	}
	dbConn, err := db.Connect(dsn, 5*time.Second)
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

	if cfg.RunMigrations {
		if err := db.Migrate(appCtx, dbConn); err != nil {
			logger.Error("failed to apply migrations", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("migrations applied")
	}

	// Инициализация загрузчика файлов (Cloudflare R2); без настроек загрузки отключены.
	var uploader storage.FileUploader
	if cfg.R2Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(appCtx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		}, logger)
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 is not configured, file uploads are disabled")
	}

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	memberRepo := repositories.NewPostgresMemberRepository(dbConn)
	venueRepo := repositories.NewPostgresVenueRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	attendanceRepo := repositories.NewPostgresAttendanceRepository(dbConn)
	recordRepo := repositories.NewPostgresRecordRepository(dbConn)
	inviteRepo := repositories.NewPostgresInviteRepository(dbConn)
	notificationRepo := repositories.NewPostgresNotificationRepository(dbConn)
	recordMergeRepo := repositories.NewPostgresRecordMergeRepository(dbConn)
	teamMergeRepo := repositories.NewPostgresTeamMergeRepository(dbConn)
	logger.Info("repositories initialized")

	// Инициализация WebSocket Hub и доставки уведомлений из базы
	wsHub := realtime.NewHub(logger)
	go wsHub.Run(appCtx)
	listener := realtime.NewListener(cfg.DatabaseURL, notificationRepo, wsHub, logger)
	go listener.Run(appCtx)
	logger.Info("WebSocket hub and notification listener started")

	// Инициализация сервисов
	emailService := services.NewEmailService(cfg, logger)
	notificationService := services.NewNotificationService(notificationRepo, memberRepo, logger)
	authService := services.NewAuthService(userRepo, emailService, logger)
	userService := services.NewUserService(userRepo, uploader, logger)
	teamService := services.NewTeamService(teamRepo, memberRepo, notificationService, uploader, logger)
	venueService := services.NewVenueService(venueRepo, memberRepo)
	inviteService := services.NewInviteService(inviteRepo, teamRepo, memberRepo, notificationService, emailService, cfg.PublicURL, logger)
	matchService := services.NewMatchService(matchRepo, memberRepo, venueRepo, attendanceRepo, recordRepo, notificationService, cfg.Timezone, logger)
	recordService := services.NewRecordService(recordRepo, matchRepo, memberRepo)
	recordMergeService := services.NewRecordMergeService(recordMergeRepo, memberRepo, userRepo, notificationService, logger)
	teamMergeService := services.NewTeamMergeService(teamMergeRepo, teamRepo, memberRepo, matchRepo, notificationService, cfg.Timezone, logger)
	statsService := services.NewStatsService(
		teamRepo,
		memberRepo,
		matchRepo,
		recordRepo,
		attendanceRepo,
		notificationRepo,
		recordMergeRepo,
		teamMergeRepo,
		uploader,
		cfg.Timezone,
	)
	logger.Info("services initialized")

	authLimiter := middleware.NewRateLimiter(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst)

	// Планировщик: просроченные приглашения и напоминания о матчах
	go runScheduler(appCtx, logger, inviteService, matchService, authLimiter)

	// Инициализация обработчиков HTTP
	h := api.Handlers{
		Auth:         handlers.NewAuthHandler(authService, cfg.JWTSecretKey, cfg.JWTTTL),
		User:         handlers.NewUserHandler(userService),
		Team:         handlers.NewTeamHandler(teamService),
		Venue:        handlers.NewVenueHandler(venueService),
		Match:        handlers.NewMatchHandler(matchService, recordService),
		Invite:       handlers.NewInviteHandler(inviteService),
		Notification: handlers.NewNotificationHandler(notificationService),
		Merge:        handlers.NewMergeHandler(recordMergeService, teamMergeService),
		Dashboard:    handlers.NewDashboardHandler(statsService),
		Page:         handlers.NewPageHandler(statsService, cfg.Timezone),
		WebSocket:    handlers.NewWebSocketHandler(wsHub, cfg.JWTSecretKey, cfg.CORSAllowedOrigins),
	}
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, h, api.Options{
		JWTSecret:      []byte(cfg.JWTSecretKey),
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AuthLimiter:    authLimiter,
		Logger:         logger,
	})
	logger.Info("routes configured")

	// Настройка и запуск HTTP-сервера
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

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			stopApp()
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
		// Хаб и listener останавливаются вместе с appCtx, websocket-клиенты получают close.
		stopApp()
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

func runScheduler(ctx context.Context, logger *slog.Logger, invites services.InviteService, matches services.MatchService, limiter *middleware.RateLimiter) {
	ticker := time.NewTicker(schedulerInterval)
	defer ticker.Stop()
	logger.Info("scheduler started", slog.Duration("interval", schedulerInterval))

	run := func() {
		runCtx, cancel := context.WithTimeout(ctx, schedulerTimeout)
		defer cancel()

		if purged, err := invites.PurgeExpired(runCtx); err != nil {
			logger.Error("scheduler: failed to purge expired invites", slog.Any("error", err))
		} else if purged > 0 {
			logger.Info("scheduler: expired invites purged", slog.Int64("count", purged))
		}

		if sent, err := matches.SendDueReminders(runCtx); err != nil {
			logger.Error("scheduler: failed to send match reminders", slog.Any("error", err))
		} else if sent > 0 {
			logger.Info("scheduler: match reminders sent", slog.Int("matches", sent))
		}

		limiter.Cleanup()
	}

	// Первый прогон сразу при старте
	run()
	for {
		select {
		case <-ctx.Done():
			logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			run()
		}
	}
}
