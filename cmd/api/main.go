// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/carterperez-dev/visitpro/internal/auth"
	"github.com/carterperez-dev/visitpro/internal/billing"
	"github.com/carterperez-dev/visitpro/internal/company"
	"github.com/carterperez-dev/visitpro/internal/config"
	"github.com/carterperez-dev/visitpro/internal/core"
	"github.com/carterperez-dev/visitpro/internal/health"
	"github.com/carterperez-dev/visitpro/internal/invite"
	"github.com/carterperez-dev/visitpro/internal/mailer"
	"github.com/carterperez-dev/visitpro/internal/middleware"
	"github.com/carterperez-dev/visitpro/internal/notification"
	"github.com/carterperez-dev/visitpro/internal/plan"
	"github.com/carterperez-dev/visitpro/internal/property"
	"github.com/carterperez-dev/visitpro/internal/push"
	"github.com/carterperez-dev/visitpro/internal/server"
	"github.com/carterperez-dev/visitpro/internal/session"
	"github.com/carterperez-dev/visitpro/internal/upload"
	"github.com/carterperez-dev/visitpro/internal/user"
	"github.com/carterperez-dev/visitpro/internal/visit"
)

const (
	drainDelay      = 5 * time.Second
	testPushPerHour = 10
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	startedAt := time.Now()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	redis, err := core.NewRedis(ctx, cfg.Redis, cfg.App.Name)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	sessions := session.NewStore(redis.Client, cfg.Session.TTL())

	mail, err := mailer.New(cfg.Mail, cfg.App)
	if err != nil {
		return err
	}
	if mail == nil {
		logger.Warn("SMTP is not configured, invite and visit emails are disabled")
	}

	notifier, err := push.New(ctx, cfg.Firebase)
	if err != nil {
		return err
	}
	if notifier == nil {
		logger.Warn("Firebase is not configured, push notifications are disabled")
	}

	userRepo := user.NewRepository(db.DB)
	companyRepo := company.NewRepository(db.DB)
	propertyRepo := property.NewRepository(db.DB)
	visitRepo := visit.NewRepository(db.DB)
	enforcer := plan.NewEnforcer(db.DB)

	var billingProvider billing.Provider
	if cfg.Stripe.Configured() {
		billingProvider = billing.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)
	} else {
		logger.Warn("Stripe is not configured, billing routes answer 503")
	}
	billingSvc := billing.NewService(
		billingProvider,
		companyRepo,
		userRepo,
		billing.NewPriceTable(cfg.Stripe.Prices),
		billing.Options{
			BrandName:             cfg.App.BrandName,
			PublicURL:             cfg.App.PublicURL,
			TrialPeriodDays:       cfg.Stripe.TrialPeriodDays,
			PortalConfigurationID: cfg.Stripe.PortalConfigurationID,
			SyncInterval:          cfg.Stripe.SyncInterval,
			WebhookEnabled:        strings.TrimSpace(cfg.Stripe.WebhookSecret) != "",
		},
		logger,
	)

	var (
		inviteMail invite.Mailer
		reportMail visit.ReportMailer
		pushSender visit.PushSender
		testSender notification.PushSender
	)
	if mail != nil {
		inviteMail = mail
		reportMail = mail
	}
	if notifier != nil {
		pushSender = notifier
		testSender = notifier
	}

	inviteSvc := invite.NewService(userRepo, enforcer, propertyRepo, inviteMail, logger)
	authSvc := auth.NewService(userRepo, companyRepo, sessions, db, logger)
	companySvc := company.NewService(companyRepo, userRepo, enforcer, inviteSvc, billingSvc, logger)
	propertySvc := property.NewService(propertyRepo, enforcer, inviteSvc, companyRepo, logger)
	visitSvc := visit.NewService(visitRepo, propertySvc, userRepo, reportMail, pushSender, logger)
	notificationSvc := notification.NewService(userRepo, testSender, logger)

	images := upload.NewImages(cfg.Cloudflare, logger)
	if !images.Configured() {
		logger.Warn("Cloudflare Images is not configured, upload signing answers 501")
	}

	healthHandler := health.NewHandler(health.Config{
		DB:         db,
		Redis:      redis,
		DBStats:    db.DB.Stats,
		RedisStats: redis.Stats,
		StartedAt:  startedAt,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			Name:       "global",
			FailOpen:   true,
			BypassFunc: bypassGlobalLimit,
			Logger:     logger,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	authLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit: middleware.PerMinute(
			cfg.RateLimit.AuthRequests,
			cfg.RateLimit.AuthBurst,
		),
		Name:     "auth",
		KeyFunc:  middleware.KeyByIPAndEndpoint,
		FailOpen: true,
		Logger:   logger,
	}).Handler

	testPushLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Name:     "push-test",
		Limit:    middleware.PerHour(testPushPerHour, testPushPerHour),
		KeyFunc:  middleware.KeyByUser,
		FailOpen: true,
		Logger:   logger,
	}).Handler

	authenticator := middleware.Authenticator(sessions)

	healthHandler.RegisterRoutes(router)
	auth.NewHandler(authSvc).RegisterRoutes(router, authenticator, authLimiter)
	company.NewHandler(companySvc).RegisterRoutes(router, authenticator)
	billing.NewHandler(billingSvc).RegisterRoutes(router, authenticator)
	property.NewHandler(propertySvc).RegisterRoutes(router, authenticator)
	visit.NewHandler(visitSvc).RegisterRoutes(router, authenticator)
	notification.NewHandler(notificationSvc).RegisterRoutes(router, authenticator, testPushLimiter)
	upload.NewHandler(images).RegisterRoutes(router, authenticator)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

// bypassGlobalLimit skips health checks and the Stripe webhook, which retries on
// its own schedule.
func bypassGlobalLimit(r *http.Request) bool {
	switch r.URL.Path {
	case "/health", "/healthz", "/livez", "/readyz", "/stripe/webhook":
		return true
	}
	return false
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
