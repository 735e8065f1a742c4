package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	"github.com/roomly-app/MessagingBack/internal/config"
	"github.com/roomly-app/MessagingBack/internal/database"
	"github.com/roomly-app/MessagingBack/internal/middleware"
	"github.com/roomly-app/MessagingBack/internal/routes"
)

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := setupLogger(cfg)

	// 2. Connect to Database
	if cfg.DBUrl == "" {
		appLogger.Fatal().Msg("DB_URL is required")
	}
	if err := database.ConnectDB(cfg.DBUrl); err != nil {
		appLogger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.CloseDB()
	appLogger.Info().Msg("connected to PostgreSQL")

	// 3. Connect to Redis (optional, rate limiting only)
	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("Failed to connect to redis")
	}
	if redisClient != nil {
		defer redisClient.Close()
		appLogger.Info().Msg("connected to Redis")
	} else {
		appLogger.Warn().Msg("REDIS_URL not set, rate limiting disabled")
	}

	// 4. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "MessagingBack",
	})

	// Middleware
	app.Use(cors.New())
	app.Use(recover.New())
	app.Use(middleware.RequestLogger(appLogger))
	app.Use(middleware.Metrics())

	// Routes
	if err := routes.RegisterRoutes(app, cfg, database.DB, redisClient, appLogger); err != nil {
		appLogger.Fatal().Err(err).Msg("Failed to register routes")
	}

	// 5. Start Server
	go func() {
		appLogger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.AppEnv).
			Msg("starting server")

		if err := app.Listen(":" + cfg.Port); err != nil {
			appLogger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// 6. Wait for interrupt, then drain
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info().Msg("shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Error().Err(err).Msg("server forced to shutdown")
	}
	appLogger.Info().Msg("server stopped")
}

func setupLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.AppEnv == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	return logger.Level(level)
}
