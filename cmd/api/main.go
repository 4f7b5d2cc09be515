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
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/defect-tracker/internal/access"
	"github.com/carterperez-dev/defect-tracker/internal/auth"
	"github.com/carterperez-dev/defect-tracker/internal/config"
	"github.com/carterperez-dev/defect-tracker/internal/core"
	"github.com/carterperez-dev/defect-tracker/internal/defect"
	"github.com/carterperez-dev/defect-tracker/internal/health"
	"github.com/carterperez-dev/defect-tracker/internal/middleware"
	"github.com/carterperez-dev/defect-tracker/internal/project"
	"github.com/carterperez-dev/defect-tracker/internal/report"
	"github.com/carterperez-dev/defect-tracker/internal/server"
	"github.com/carterperez-dev/defect-tracker/internal/user"
)

const (
	authRateLimit = 10
	authRateBurst = 5
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

	var tracing *core.Tracing
	if cfg.Otel.Enabled {
		t, tracingErr := core.NewTracing(ctx, cfg.Otel, cfg.App)
		if tracingErr != nil {
			logger.Warn("failed to initialize tracing", "error", tracingErr)
		} else {
			tracing = t
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
		if err := db.Migrate(); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	generated, err := auth.EnsureKeyPair(cfg.JWT)
	if err != nil {
		return err
	}
	if generated {
		logger.Warn("generated a new JWT signing key pair",
			"private_key_path", cfg.JWT.PrivateKeyPath,
		)
	}

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	clock := core.SystemClock{}
	gate := access.NewGate(logger)

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo)
	userHandler := user.NewHandler(userSvc)

	authSvc := auth.NewService(
		jwtManager,
		userSvc,
		auth.NewRedisRevocationStore(redis.Client),
		core.NewPasswordHasher(cfg.Password),
		logger,
	)
	authHandler := auth.NewHandler(authSvc)

	projectRepo := project.NewRepository(db.DB)
	projectSvc := project.NewService(projectRepo, clock)
	projectHandler := project.NewHandler(projectSvc)

	defectRepo := defect.NewRepository(db.DB)
	defectSvc := defect.NewService(defectRepo, projectSvc, gate, clock, logger)
	defectHandler := defect.NewHandler(defectSvc)

	reportRepo := report.NewRepository(db.DB)
	reportSvc := report.NewService(reportRepo, gate, clock, logger)
	reportHandler := report.NewHandler(reportSvc)

	healthHandler := health.NewHandler(health.Config{
		Dependencies: []health.Dependency{
			{Name: "database", Checker: db},
			{Name: "redis", Checker: redis},
		},
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	limit := middleware.PerWindow(
		cfg.RateLimit.Requests,
		cfg.RateLimit.Burst,
		cfg.RateLimit.Window,
	)
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit:    limit,
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.App.Environment == "production"))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	userLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit:    limit,
		KeyFunc:  middleware.KeyByPrincipal,
		FailOpen: true,
	})
	authenticator := middleware.Authenticator(authSvc)
	authenticated := userLimiter.After(authenticator)
	managerOnly := middleware.RequireManager

	authLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit:   middleware.PerMinute(authRateLimit, authRateBurst),
		KeyFunc: func(r *http.Request) string { return "auth:" + middleware.KeyByIP(r) },
	})

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r.With(authLimiter.Handler), authenticator)

		userHandler.RegisterRoutes(r, authenticated, managerOnly)
		projectHandler.RegisterRoutes(r, authenticated, managerOnly)
		defectHandler.RegisterRoutes(r, authenticated)
		reportHandler.RegisterRoutes(r, authenticated, managerOnly)
		healthHandler.RegisterStatsRoutes(r, authenticated, managerOnly)
	})

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

	drainDelay := cfg.Server.DrainDelay
	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if tracing != nil {
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			logger.Error("tracing shutdown error", "error", err)
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
