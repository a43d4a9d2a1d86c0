package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	fmhttp "github.com/stackline/foreman/internal/adapter/http"
	fmnats "github.com/stackline/foreman/internal/adapter/nats"
	fmotel "github.com/stackline/foreman/internal/adapter/otel"
	"github.com/stackline/foreman/internal/adapter/openai"
	"github.com/stackline/foreman/internal/adapter/postgres"
	"github.com/stackline/foreman/internal/adapter/ristretto"
	"github.com/stackline/foreman/internal/adapter/ws"
	"github.com/stackline/foreman/internal/config"
	"github.com/stackline/foreman/internal/middleware"
	"github.com/stackline/foreman/internal/resilience"
	"github.com/stackline/foreman/internal/service"
)

const serviceName = "foreman"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"model", cfg.Model.Name,
		"max_iterations", cfg.Assistant.MaxIterations,
	)

	ctx := context.Background()

	// --- Telemetry ---
	shutdownOtel, err := fmotel.Setup(ctx, cfg.Telemetry, serviceName)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		if err := shutdownOtel(context.Background()); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()

	metrics, err := fmotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	queue, err := fmnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Close() }()

	conversationCache, err := ristretto.New(cfg.Cache.MaxCostBytes)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer conversationCache.Close()

	// --- Model endpoint ---
	llmClient := openai.NewClient(cfg.Model)
	llmClient.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Cooldown))

	// --- Services ---
	hub := ws.NewHub()
	store := postgres.NewStore(pool)

	projectSvc := service.NewProjectService(store)
	contactSvc := service.NewContactService(store)
	actionSvc := service.NewActionService(store, queue, hub, metrics)
	runSvc := service.NewRunService(store)
	resolver := service.NewResolverService(store)

	registry, err := service.NewRegistry(service.DefaultTools()...)
	if err != nil {
		return fmt.Errorf("tool registry: %w", err)
	}

	assistantSvc := service.NewAssistantService(
		store, llmClient, conversationCache, registry,
		actionSvc, resolver, hub, metrics,
		cfg.Model, cfg.Assistant, cfg.Cache.ConversationTTL,
	)

	// --- HTTP ---
	handlers := &fmhttp.Handlers{
		Projects:  projectSvc,
		Contacts:  contactSvc,
		Actions:   actionSvc,
		Runs:      runSvc,
		Assistant: assistantSvc,
		Hub:       hub,
	}

	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	stopCleanup := limiter.StartCleanup(time.Minute, 10*time.Minute)
	defer stopCleanup()

	r := chi.NewRouter()
	r.Use(fmhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(fmhttp.Logger)
	r.Use(middleware.RequestID)
	r.Use(middleware.CompanyID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(limiter.Handler)
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "http.server")
	})

	fmhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Runs block on the model endpoint; give them room to finish.
		WriteTimeout: cfg.Model.Timeout + 60*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
