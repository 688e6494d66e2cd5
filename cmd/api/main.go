// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	redis_rate "github.com/go-redis/redis_rate/v10"

	"github.com/carterperez-dev/moderation-admin/internal/admin"
	"github.com/carterperez-dev/moderation-admin/internal/auth"
	"github.com/carterperez-dev/moderation-admin/internal/classifier"
	"github.com/carterperez-dev/moderation-admin/internal/config"
	"github.com/carterperez-dev/moderation-admin/internal/core"
	"github.com/carterperez-dev/moderation-admin/internal/digest"
	"github.com/carterperez-dev/moderation-admin/internal/events"
	"github.com/carterperez-dev/moderation-admin/internal/health"
	"github.com/carterperez-dev/moderation-admin/internal/metrics"
	"github.com/carterperez-dev/moderation-admin/internal/middleware"
	"github.com/carterperez-dev/moderation-admin/internal/moderation"
	"github.com/carterperez-dev/moderation-admin/internal/review"
	"github.com/carterperez-dev/moderation-admin/internal/role"
	"github.com/carterperez-dev/moderation-admin/internal/server"
	"github.com/carterperez-dev/moderation-admin/internal/upgrade"
	"github.com/carterperez-dev/moderation-admin/internal/user"
	"github.com/carterperez-dev/moderation-admin/internal/wordfilter"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen,gocyclo // bootstrap code is inherently verbose
func run(configPath string) error {
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

	telemetry, err := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
	if err != nil {
		return err
	}
	if cfg.Otel.Enabled {
		logger.Info("OpenTelemetry exporter initialized", "endpoint", cfg.Otel.Endpoint)
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"driver", cfg.Database.Driver,
		"max_open_conns", cfg.Database.MaxOpenConns,
	)

	if cfg.Database.AutoMigrate {
		if err := core.Migrate(ctx, db.DB); err != nil {
			return err
		}
		logger.Info("database schema migrated")
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected", "pool_size", cfg.Redis.PoolSize)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.KeyID(),
	)

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo)
	userHandler := user.NewHandler(userSvc)

	authSvc := auth.NewService(
		auth.NewRepository(redis.Client),
		jwtManager,
		userSvc,
		auth.NewRedisBlacklist(redis.Client),
	)
	authHandler := auth.NewHandler(authSvc)

	reviewRepo := review.NewRepository(db.DB)
	reviewSvc := review.NewService(reviewRepo)
	reviewHandler := review.NewHandler(reviewSvc)

	wordStore, err := wordfilter.NewStore(cfg.Words, db.DB)
	if err != nil {
		return err
	}
	filter, err := wordfilter.NewFilter(ctx, wordStore)
	if err != nil {
		return err
	}
	logger.Info("offensive word list loaded",
		"backend", cfg.Words.Backend,
		"words", filter.Count(),
	)
	wordHandler := wordfilter.NewHandler(filter, logger)

	clf, err := classifier.New(cfg.Classifier, logger)
	if err != nil {
		return err
	}

	publisher := events.NewPublisher(cfg.Queue, logger)

	workflow := moderation.NewWorkflow(moderation.Config{
		DB:         db.DB,
		Filter:     filter,
		Classifier: clf,
		Publisher:  publisher,
		Logger:     logger,
	})
	moderationHandler := moderation.NewHandler(workflow, logger)

	upgradeSvc := upgrade.NewService(upgrade.Config{
		DB:        db.DB,
		Publisher: publisher,
		Logger:    logger,
	})
	upgradeHandler := upgrade.NewHandler(upgradeSvc, logger)

	digestJob, scheduler, err := setupDigest(cfg, db, redis, logger)
	if err != nil {
		return err
	}

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: db},
		health.Dependency{Name: "redis", Checker: redis},
	)

	adminCfg := admin.HandlerConfig{
		DBStats:         db.DB.Stats,
		RedisStats:      redis.PoolStats,
		Reviews:         reviewSvc,
		Users:           userRepo,
		UpgradeRequests: upgrade.NewRepository(db.DB),
		Words:           filter,
		Logger:          logger,
	}
	if digestJob != nil {
		adminCfg.Digest = digestJob
	}
	adminHandler := admin.NewHandler(adminCfg)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Tracing(telemetry.Tracer))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	router.Get("/.well-known/jwks.json", jwtManager.JWKSHandler())

	authenticator := middleware.Authenticator(authSvc)
	ipLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit:    baseLimit(cfg.RateLimit),
		FailOpen: true,
	})
	roleLimiter := middleware.NewRateLimiter(redis.Client, rateLimitConfig(cfg.RateLimit))

	router.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(ipLimiter.Handler)
			authHandler.RegisterRoutes(r, authenticator)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Use(middleware.RequireModerator)
			r.Use(roleLimiter.Handler)

			r.Route("/reviews", func(r chi.Router) {
				reviewHandler.RegisterRoutes(r)
				moderationHandler.RegisterReviewRoutes(r)
			})

			r.Route("/users", func(r chi.Router) {
				userHandler.RegisterRoutes(r)
				reviewHandler.RegisterUserRoutes(r)
				moderationHandler.RegisterUserRoutes(r)
			})

			moderationHandler.RegisterRoutes(r)
			wordHandler.RegisterRoutes(r)
			upgradeHandler.RegisterRoutes(r)
			adminHandler.RegisterRoutes(r, middleware.RequireManager)
		})
	})

	if scheduler != nil {
		scheduler.Start()
	}

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

	if scheduler != nil {
		if err := scheduler.Stop(shutdownCtx); err != nil {
			logger.Error("digest scheduler stop error", "error", err)
		}
	}

	if closer, ok := publisher.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("event publisher close error", "error", err)
		}
	}

	if closer, ok := clf.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("classifier close error", "error", err)
		}
	}

	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown error", "error", err)
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

// setupDigest builds the digest job and, when enabled, its scheduler. Missing
// mail credentials keep the job in place so every run aborts loudly instead
// of silently never firing.
func setupDigest(
	cfg *config.Config,
	db *core.Database,
	redis *core.Redis,
	logger *slog.Logger,
) (*digest.Job, *digest.Scheduler, error) {
	renderer, err := digest.NewRenderer()
	if err != nil {
		return nil, nil, err
	}

	var mailer digest.Mailer
	smtp, err := digest.NewSMTPMailer(cfg.Mail)
	switch {
	case errors.Is(err, digest.ErrMailNotConfigured):
		logger.Warn("mail is not configured, digest runs will abort")
	case err != nil:
		return nil, nil, err
	default:
		mailer = smtp
	}

	users := user.NewRepository(db.DB)
	job := digest.NewJob(digest.JobConfig{
		Collector:  digest.NewCollector(users, review.NewRepository(db.DB), cfg.Digest.Recent),
		Renderer:   renderer,
		Mailer:     mailer,
		LastRun:    digest.NewRedisLastRunStore(redis.Client, cfg.Digest.LastRunKey),
		Users:      users,
		Recipients: cfg.Digest.Recipients,
		Logger:     logger.With("component", "digest"),
	})

	if !cfg.Digest.Enabled {
		return job, nil, nil
	}

	scheduler, err := digest.NewScheduler(cfg.Digest.Schedule, job, logger)
	if err != nil {
		return nil, nil, err
	}
	return job, scheduler, nil
}

func baseLimit(cfg config.RateLimitConfig) redis_rate.Limit {
	return redis_rate.Limit{Rate: cfg.Requests, Burst: cfg.Burst, Period: cfg.Window}
}

// rateLimitConfig buckets authenticated moderators per endpoint and gives
// Managers twice the base budget; they run the bulk upgrade and purge
// operations.
func rateLimitConfig(cfg config.RateLimitConfig) middleware.RateLimitConfig {
	base := baseLimit(cfg)
	manager := base
	manager.Rate *= 2
	manager.Burst *= 2

	return middleware.RateLimitConfig{
		Limit:      base,
		RoleLimits: map[role.Type]redis_rate.Limit{role.Manager: manager},
		KeyFunc:    middleware.KeyByUserAndEndpoint,
		FailOpen:   true,
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
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

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
