package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/hodlgate/hodlgate/backend/chain"
	"github.com/hodlgate/hodlgate/backend/handlers"
	"github.com/hodlgate/hodlgate/backend/middleware"
	"github.com/hodlgate/hodlgate/backend/services"
	"github.com/hodlgate/hodlgate/backend/store"
	"github.com/hodlgate/hodlgate/hodlgate"
	"github.com/hodlgate/hodlgate/hodlgate/logger"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	// Both processes read the same config.toml from the working directory.
	configPath := "config.toml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	// Initialize logger first
	customHandler := logger.NewHandler("HodlGate-Backend")
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting HodlGate Backend API",
		slog.String("version", version),
		slog.String("commit", commit))

	cfg, err := hodlgate.LoadConfig(configPath)
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// In-memory state, intentionally ephemeral: a restart clears every
	// session and the relay queue.
	sessions := store.NewSessionStore(cfg.Session.Timeout.Std())
	queue := store.NewRelayQueue()

	chainClient := chain.NewClient(
		cfg.Chain.RPCURL,
		cfg.Chain.NFTContract,
		cfg.Chain.StakingContract,
		cfg.Chain.CacheTTL.Std(),
	)

	verifier := services.NewVerificationService(sessions, queue, chainClient, cfg.Chain.QueryTimeout.Std())
	dashboard := services.NewDashboardService(sessions, queue)

	sweeper := store.NewSweeper(sessions, cfg.Session.SweepInterval.Std())
	if err := sweeper.Start(); err != nil {
		slog.Error("Failed to start session sweeper", slog.String("error", err.Error()))
		os.Exit(1)
	}

	app := fiber.New(fiber.Config{
		AppName:      "HodlGate Backend API",
		ServerHeader: "HodlGate-Backend",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(middleware.SecurityHeaders())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Web.AllowedOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,X-API-Key",
	}))
	app.Use(middleware.LoggingMiddleware())

	webApp := &handlers.WebApp{
		Sessions:  sessions,
		Queue:     queue,
		Verifier:  verifier,
		Dashboard: dashboard,
		Version:   version,
		Commit:    commit,
	}

	setupRoutes(app, webApp, cfg.Web.APIKey)

	address := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	slog.Info("Starting backend server", slog.String("address", address))

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := app.Listen(address); err != nil {
			slog.Error("Failed to start server", slog.String("error", err.Error()))
		}
	}()

	<-c
	slog.Info("Shutting down backend server...")

	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		slog.Error("Server shutdown error", slog.String("error", err.Error()))
	}

	slog.Info("Backend server shutdown complete")
}

// setupRoutes configures all application routes
func setupRoutes(app *fiber.App, webApp *handlers.WebApp, apiKey string) {
	app.Get("/health", handlers.HealthCheck(webApp))

	// Session lifecycle (web UI facing)
	app.Post("/session", handlers.CreateSession(webApp))
	app.Get("/session/:id", handlers.GetSession(webApp))

	// Wallet verification
	discord := app.Group("/discord")
	discord.Post("/webhook", handlers.DiscordWebhook(webApp))
	discord.Post("/:sessionId/wallets", handlers.VerifyWallet(webApp))

	// Relay queue (bot facing, shared-secret guarded)
	botOnly := middleware.APIKeyRequired(apiKey)
	app.Post("/role-update", botOnly, handlers.EnqueueRoleUpdate(webApp))
	app.Get("/pending-role-updates", botOnly, handlers.DrainRoleUpdates(webApp))
	app.Post("/role-update/complete", botOnly, handlers.CompleteRoleUpdate(webApp))

	// Dashboard
	app.Get("/api/dashboard/stats", handlers.DashboardStatsAPI(webApp))

	app.Use(func(c *fiber.Ctx) error {
		slog.Warn("No route matched for request",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
		)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Not Found",
		})
	})
}
