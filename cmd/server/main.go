package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devotee-memorial/backend/internal/config"
	"github.com/devotee-memorial/backend/internal/handlers"
	"github.com/devotee-memorial/backend/internal/logger"
	"github.com/devotee-memorial/backend/internal/models"
	"github.com/devotee-memorial/backend/internal/services"
	"github.com/devotee-memorial/backend/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	log := logger.New(cfg.Logger.Level, cfg.Logger.Format)

	ctx := context.Background()

	startCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	stores, err := services.OpenStores(startCtx, cfg.Mongo, cfg.Server.DataDir)
	cancel()
	if err != nil {
		log.WithError(err).Fatal("failed to open stores")
	}
	log.WithField("backend", stores.Backend).Info("stores ready")

	host, err := services.NewMediaHost(ctx, cfg.Media)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize media host")
	}
	if c, ok := host.(io.Closer); ok {
		defer c.Close()
	}

	var screener services.ImageScreener
	if cfg.Media.SafeSearchEnabled {
		vs, err := services.NewVisionScreener(ctx)
		if err != nil {
			log.WithError(err).Warn("image screening disabled: vision client unavailable")
		} else {
			screener = vs
		}
	}

	maxFileSize := cfg.Server.MaxUploadSizeMB << 20
	staging, err := storage.NewStaging(cfg.Server.StagingDir, maxFileSize)
	if err != nil {
		log.WithError(err).Fatal("failed to prepare staging directory")
	}

	gateway := services.NewMediaGateway(host, screener, cfg.Media.Timeout, log)
	profileService := services.NewProfileService(stores.Profiles, gateway, cfg.Validation, cfg.Media.RootFolder, log)
	if cfg.Notify.SendGridAPIKey != "" {
		profileService.WithNotifier(services.NewSendGridMailer(
			cfg.Notify.SendGridAPIKey, cfg.Notify.FromEmail, cfg.Notify.ToEmail, cfg.Notify.ReviewURL,
		))
		log.Info("moderator email notifications enabled")
	}
	offeringService := services.NewOfferingService(stores.Offerings, stores.Profiles, gateway, cfg.Media.RootFolder, log)
	authService := services.NewAuthService([]services.Account{
		{Username: cfg.Auth.AdminUsername, PasswordHash: cfg.Auth.AdminPasswordHash, Role: models.RoleAdmin},
		{Username: cfg.Auth.ModeratorUsername, PasswordHash: cfg.Auth.ModeratorPasswordHash, Role: models.RoleModerator},
	}, services.DefaultRolePolicy(), cfg.Auth.JWTSecret, cfg.Auth.JWTExpiration)
	if cfg.Auth.JWTSecret == "" {
		log.Warn("JWT_SECRET is not set; login and moderation routes are disabled")
	} else if cfg.Auth.AdminPasswordHash == "" {
		log.Warn("ADMIN_PASSWORD_HASH is not set; admin login is disabled")
	}

	uploads := handlers.NewUploader(staging, maxFileSize, log)
	if cfg.Notify.RecaptchaSecret != "" {
		uploads.WithCaptcha(services.NewRecaptchaVerifier(cfg.Notify.RecaptchaSecret))
		log.Info("captcha required on submissions")
	}

	routerCfg := handlers.RouterConfig{
		Profiles:       handlers.NewProfileHandler(profileService, uploads, log),
		Offerings:      handlers.NewOfferingHandler(offeringService, uploads, log),
		Auth:           handlers.NewAuthHandler(authService, log),
		AuthService:    authService,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Log:            log,
	}
	if cfg.Media.Provider == "local" {
		routerCfg.UploadDir = cfg.Media.UploadDir
	}

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handlers.NewRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"addr":           cfg.Server.Address,
			"media_provider": cfg.Media.Provider,
		}).Info("memorial API server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed to start")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.WithField("signal", sig.String()).Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(ctx, 30*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	if err := stores.Close(shutdownCtx); err != nil {
		log.WithError(err).Error("failed to close stores")
	}
}
