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

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/coach-plus/backend/config"
	"github.com/coach-plus/backend/db"
	"github.com/coach-plus/backend/handlers"
	"github.com/coach-plus/backend/middleware"
	"github.com/coach-plus/backend/models"
	"github.com/coach-plus/backend/notifications"
	"github.com/coach-plus/backend/repositories"
	api "github.com/coach-plus/backend/routes"
	"github.com/coach-plus/backend/services"
	"github.com/coach-plus/backend/storage"
)

const invitationSweepInterval = 1 * time.Hour

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 10*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	cloudflareUploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
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

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	// Repositories
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	membershipRepo := repositories.NewPostgresMembershipRepository(dbConn)
	invitationRepo := repositories.NewPostgresInvitationRepository(dbConn)
	eventRepo := repositories.NewPostgresEventRepository(dbConn)
	participationRepo := repositories.NewPostgresParticipationRepository(dbConn)
	newsRepo := repositories.NewPostgresNewsRepository(dbConn)
	deviceRepo := repositories.NewPostgresDeviceRepository(dbConn)
	verificationRepo := repositories.NewPostgresVerificationRepository(dbConn)
	logger.Info("repositories initialized")

	// Push senders, one per platform. FCM carries both through APNs.
	senders := map[models.DeviceSystem]notifications.PushSender{}
	if cfg.FCMCredentialsFile != "" {
		fcmSender, err := notifications.NewFCMSender(rootCtx, cfg.FCMCredentialsFile, logger)
		if err != nil {
			logger.Error("failed to initialize FCM sender", slog.Any("error", err))
			os.Exit(1)
		}
		senders[models.SystemAndroid] = fcmSender
		senders[models.SystemIOS] = fcmSender
		logger.Info("FCM sender initialized")
	} else {
		logger.Warn("FCM_CREDENTIALS_FILE not set, push delivery disabled")
	}

	dispatcher := notifications.NewPushDispatcher(membershipRepo, deviceRepo, participationRepo, senders, logger)
	go dispatcher.Run(rootCtx)

	// Services
	mailer := services.NewEmailService(cfg)
	authService := services.NewAuthService(userRepo, verificationRepo, mailer, []byte(cfg.JWTSecretKey), logger)
	userService := services.NewUserService(userRepo, membershipRepo, deviceRepo, cloudflareUploader)
	teamService := services.NewTeamService(dbConn, teamRepo, membershipRepo, invitationRepo, cloudflareUploader, cfg.AppURL)
	membershipService := services.NewMembershipService(membershipRepo, cloudflareUploader)
	eventService := services.NewEventService(eventRepo, participationRepo, membershipRepo, dispatcher, cloudflareUploader)
	newsService := services.NewNewsService(newsRepo, eventRepo, membershipRepo, dispatcher, cloudflareUploader)
	logger.Info("services initialized")

	// Expired invitations are swept periodically; redeemed tokens stay
	// valid until then.
	go func() {
		ticker := time.NewTicker(invitationSweepInterval)
		defer ticker.Stop()
		logger.Info("invitation sweeper started", slog.Duration("interval", invitationSweepInterval))

		for {
			select {
			case <-rootCtx.Done():
				return
			case <-ticker.C:
				deleted, err := invitationRepo.DeleteExpired(rootCtx)
				if err != nil {
					logger.Error("invitation sweep failed", slog.Any("error", err))
					continue
				}
				if deleted > 0 {
					logger.Info("expired invitations deleted", slog.Int64("count", deleted))
				}
			}
		}
	}()

	// HTTP handlers
	authenticator := middleware.NewAuthenticator([]byte(cfg.JWTSecretKey))
	userHandler := handlers.NewUserHandler(authService, userService)
	teamHandler := handlers.NewTeamHandler(teamService)
	eventHandler := handlers.NewEventHandler(eventService)
	newsHandler := handlers.NewNewsHandler(newsService)
	membershipHandler := handlers.NewMembershipHandler(membershipService)
	invitationHandler := handlers.NewInvitationHandler(teamService)
	metricsHandler := handlers.NewMetricsHandler(
		cfg.MonitoringToken,
		userRepo, teamRepo, membershipRepo, eventRepo,
		participationRepo, newsRepo, invitationRepo, deviceRepo, verificationRepo,
	)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		authenticator,
		userHandler,
		teamHandler,
		eventHandler,
		newsHandler,
		membershipHandler,
		invitationHandler,
		metricsHandler,
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

	cancelRoot()
	logger.Info("application exited")
}
