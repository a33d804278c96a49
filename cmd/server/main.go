package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/arturoeanton/go-ecs-exec-evidence/internal/app"
	"github.com/arturoeanton/go-ecs-exec-evidence/internal/handler"
	"github.com/arturoeanton/go-ecs-exec-evidence/internal/middleware"
	"github.com/arturoeanton/go-ecs-exec-evidence/pkg/config"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"

	_ "github.com/lib/pq"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()
	app.NewLogger(os.Stdout, cfg.LogLevel)

	slog.Info("starting evidence server",
		"port", cfg.Port,
		"flow", cfg.KosliFlow,
		"log_bucket", cfg.LogBucket,
		"locator_timeout", cfg.LocatorTimeout,
	)

	// ── Runtime ──────────────────────────────────────────────────────────
	rt, err := app.New(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to build runtime", "error", err)
		os.Exit(1)
	}
	defer rt.Close()

	// ── Fiber App ────────────────────────────────────────────────────────
	// A log-delivered request may wait the full locator timeout.
	timeout := cfg.LocatorTimeout + time.Minute
	server := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: timeout,
		IdleTimeout:  timeout,
	})

	// Global middleware
	server.Use(recover.New())
	server.Use(middleware.RequestLog())
	server.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Api-Key"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
	}))

	// Health check
	server.Get("/api/v1/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"app":     cfg.AppName,
			"version": "1.0.0",
		})
	})

	// ── Protected Routes ─────────────────────────────────────────────────
	api := server.Group("/api/v1", middleware.APIKeyMiddleware(cfg.EventsAPIKey))

	jobs := handler.NewJobTracker(timeout)

	handler.NewEventHandler(rt.Service, jobs).Register(api)
	handler.NewJobsHandler(jobs).Register(api)
	handler.NewInvocationHandler(rt.Ledger).Register(api)

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("fiber listening", "port", cfg.Port)
	if err := server.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
