// Package main is the entrypoint for the Timetably API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/timetably/timetably/internal/cache"
	"github.com/timetably/timetably/internal/config"
	"github.com/timetably/timetably/internal/db"
	"github.com/timetably/timetably/internal/handler"
	"github.com/timetably/timetably/internal/metrics"
	"github.com/timetably/timetably/internal/middleware"
	"github.com/timetably/timetably/internal/repository"
	"github.com/timetably/timetably/internal/server"
	"github.com/timetably/timetably/internal/service"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	retryPolicy := db.Policy{
		MaxAttempts:  cfg.DBMaxRetries,
		InitialDelay: cfg.DBRetryInitialDelay,
		Multiplier:   cfg.DBRetryMultiplier,
		MaxDelay:     cfg.DBRetryMaxDelay,
	}

	// Apply migrations before serving traffic. The same retry policy
	// covers a database that is still waking up at boot.
	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx, cfg.DatabaseURL, cfg.MigrationsDir, retryPolicy, logger); err != nil {
			logger.Error(
				"failed to apply migrations",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", redactURL(cfg.DatabaseURL)),
			)
			os.Exit(1)
		}
		logger.Info("migrations applied")
	}

	// Initialize database
	repo, err := repository.New(ctx, repository.Config{
		DatabaseURL:    cfg.DatabaseURL,
		ConnectTimeout: cfg.DBConnectTimeout,
		Retry:          retryPolicy,
	}, logger)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	// Initialize metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewPrometheus(registry)

	// Surface pool churn and retry pressure as metrics.
	repo.Supervisor().OnReconnect = recorder.IncDBReconnect
	repo.Executor().OnRetry = func(name string, attempt int) {
		recorder.IncDBRetry(name)
	}

	// Initialize services
	scheduleService := service.NewScheduleService(repo, cacheClient, recorder, cfg.CacheScheduleTTL, cfg.CacheListTTL)
	courseService := service.NewCourseService(repo, cacheClient, recorder, cfg.CacheListTTL)
	userService := service.NewUserService(repo, recorder)

	// Initialize handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	scheduleHandler := handler.NewScheduleHandler(scheduleService, logger)
	courseHandler := handler.NewCourseHandler(courseService, logger)
	userHandler := handler.NewUserHandler(userService, logger)

	// Setup router
	r := setupRouter(h, healthHandler, scheduleHandler, courseHandler, userHandler, registry, cfg, logger)

	// Create and run server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	h *handler.Handler,
	healthHandler *handler.HealthHandler,
	scheduleHandler *handler.ScheduleHandler,
	courseHandler *handler.CourseHandler,
	userHandler *handler.UserHandler,
	registry *prometheus.Registry,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))

	securityCfg := middleware.SecurityConfig{
		IsDevelopment:      cfg.IsDevelopment(),
		AllowedOrigins:     cfg.GetCORSAllowedOrigins(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	}
	r.Use(middleware.Security(securityCfg))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))

	// Health and metrics endpoints
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Method("GET", "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Root info endpoint
	r.Get("/", h.Hello)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", userHandler.Register)
			r.Post("/login", userHandler.Login)
		})

		r.Route("/courses", func(r chi.Router) {
			r.Get("/", courseHandler.List)
			r.Get("/{code}", courseHandler.Get)
		})

		r.Route("/schedules", func(r chi.Router) {
			r.Get("/", scheduleHandler.List)
			r.Post("/", scheduleHandler.Create)
			r.Get("/{id}", scheduleHandler.Get)
			r.Put("/{id}", scheduleHandler.Update)
			r.Delete("/{id}", scheduleHandler.Delete)
		})
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
