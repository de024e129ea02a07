package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/arenaline/chess-arena/brackets"
	"github.com/arenaline/chess-arena/config"
	"github.com/arenaline/chess-arena/db"
	"github.com/arenaline/chess-arena/engine"
	"github.com/arenaline/chess-arena/handlers"
	"github.com/arenaline/chess-arena/middleware"
	"github.com/arenaline/chess-arena/models"
	"github.com/arenaline/chess-arena/repositories"
	api "github.com/arenaline/chess-arena/routes"
	"github.com/arenaline/chess-arena/services"
	"github.com/arenaline/chess-arena/sessions"
	"github.com/arenaline/chess-arena/storage"
)

// systemCreatorID owns tournaments created by the scheduler rather than a
// person. The row must exist in the competitors table.
const systemCreatorID = 1

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

	uploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2Config{
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

	wsHub := brackets.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket hub started")

	competitorRepo := repositories.NewPostgresCompetitorRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	logger.Info("repositories initialized")

	var notifier services.Notifier = services.NewSlogNotifier(logger)
	if cfg.SMTPHost != "" {
		notifier = services.NewEmailNotifier(services.EmailNotifierConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.SMTPFrom,
		}, competitorRepo, logger)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	authService := services.NewAuthService(competitorRepo)
	competitorService := services.NewCompetitorService(competitorRepo, uploader)
	ratingService := services.NewRatingService(competitorRepo)
	tournamentService := services.NewTournamentService(
		dbConn,
		tournamentRepo,
		participantRepo,
		matchRepo,
		competitorRepo,
		notifier,
		wsHub,
		logger,
		rng,
	)
	analysisEngine := engine.NewHTTPEngine(cfg.EngineURL, cfg.EngineTimeout)
	gameService := services.NewGameService(
		sessions.NewMemoryStore(),
		analysisEngine,
		matchRepo,
		tournamentService,
		logger,
	)
	logger.Info("services initialized")

	scheduler, err := services.NewScheduler(services.SchedulerConfig{
		SweepInterval: cfg.SchedulerSweepInterval,
		DailyCron:     cfg.DailyTournamentCron,
		DailySettings: models.TournamentSettings{
			MaxParticipants: 16,
			Format:          models.FormatSwiss,
			TimeControl:     "10+0",
			IsRated:         true,
			AutoStart:       true,
			AutoAdvance:     true,
		},
		CreatorID: systemCreatorID,
	}, tournamentService, logger)
	if err != nil {
		logger.Error("failed to create scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	if err := scheduler.Start(); err != nil {
		logger.Error("failed to start scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			logger.Error("scheduler shutdown failed", slog.Any("error", err))
		}
	}()

	authenticator := middleware.NewAuthenticator(cfg.JWTSecretKey)
	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	competitorHandler := handlers.NewCompetitorHandler(competitorService)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	ratingHandler := handlers.NewRatingHandler(ratingService)
	gameHandler := handlers.NewGameHandler(gameService)
	websocketHandler := handlers.NewWebsocketHandler(wsHub, tournamentService, logger)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		authenticator,
		authHandler,
		competitorHandler,
		tournamentHandler,
		ratingHandler,
		gameHandler,
		websocketHandler,
	)
	logger.Info("routes configured")

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
