package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/fleetops/fleet-manager/internal/app"
	"github.com/fleetops/fleet-manager/internal/auth"
	"github.com/fleetops/fleet-manager/internal/fleet"
	"github.com/fleetops/fleet-manager/internal/observability"
	"github.com/fleetops/fleet-manager/internal/platform/cache"
	"github.com/fleetops/fleet-manager/internal/platform/db"
	"github.com/fleetops/fleet-manager/internal/platform/objectstore"
	"github.com/fleetops/fleet-manager/internal/rbac"
	"github.com/fleetops/fleet-manager/internal/reports"
	"github.com/fleetops/fleet-manager/internal/shared"
	"github.com/fleetops/fleet-manager/internal/users"
	"github.com/fleetops/fleet-manager/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	dbpool, err := db.New(ctx, cfg.PGDSN, db.Options{})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	store, err := objectstore.NewS3Store(objectstore.Config{
		Endpoint:     cfg.S3Endpoint,
		Region:       cfg.S3Region,
		Bucket:       cfg.S3Bucket,
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		PublicURL:    cfg.S3PublicURL,
		UsePathStyle: cfg.S3UsePathStyle,
	})
	if err != nil {
		logger.Error("init object store", slog.Any("error", err))
		os.Exit(1)
	}

	policy, err := rbac.DefaultPolicy()
	if err != nil {
		logger.Error("load rbac policy", slog.Any("error", err))
		os.Exit(1)
	}
	metrics := observability.NewMetrics()
	rbacMiddleware := rbac.Middleware{Policy: policy, Logger: logger, Observer: metrics}

	verifier, err := auth.NewVerifier(auth.VerifierConfig{
		Secret:       cfg.JWTSecret,
		PublicKeyPEM: cfg.JWTPublicKey,
		Issuer:       cfg.JWTIssuer,
		Audience:     cfg.JWTAudience,
	})
	if err != nil {
		logger.Error("init token verifier", slog.Any("error", err))
		os.Exit(1)
	}
	principalCache := auth.NewPrincipalCache(redisClient, cfg.PrincipalTTL)
	authService := auth.NewService(auth.NewRepository(dbpool), principalCache)
	authHandler := auth.NewHandler(logger, verifier, authService)

	activity := shared.NewActivityLogger(dbpool)

	usersService := users.NewService(users.NewRepository(dbpool), principalCache, activity, logger)
	usersHandler := users.NewHandler(logger, usersService, rbacMiddleware)

	fleetModule := fleet.New(fleet.Deps{
		Pool:           dbpool,
		Logger:         logger,
		RBAC:           rbacMiddleware,
		Store:          store,
		Activity:       activity,
		MaxUploadBytes: cfg.UploadMaxBytes,
	})

	reportsService := reports.NewService(reports.NewRepository(dbpool), fleetModule.Ownership())
	reportsHandler := reports.NewHandler(logger, reportsService, rbacMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Metrics:            metrics,
		Authenticate:       authHandler.Middleware,
		PermissionsHandler: rbac.NewPermissionsHandler(logger, policy),
		UsersHandler:       usersHandler,
		Fleet:              fleetModule,
		ReportsHandler:     reportsHandler,
		JobHandler:         jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("policy_version", policy.Version()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
