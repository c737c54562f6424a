// Package main is the entry point for the CashPilot Telegram bot.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
	_ "time/tzdata"

	"gitlab.com/yelinaung/cashpilot-bot/internal/bot"
	"gitlab.com/yelinaung/cashpilot-bot/internal/cashpilot"
	"gitlab.com/yelinaung/cashpilot-bot/internal/config"
	"gitlab.com/yelinaung/cashpilot-bot/internal/database"
	"gitlab.com/yelinaung/cashpilot-bot/internal/logger"
	"gitlab.com/yelinaung/cashpilot-bot/internal/metrics"
	"gitlab.com/yelinaung/cashpilot-bot/internal/ratelimit"
	"gitlab.com/yelinaung/cashpilot-bot/internal/repository"
	"gitlab.com/yelinaung/cashpilot-bot/internal/server"
	"gitlab.com/yelinaung/cashpilot-bot/internal/telemetry"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const (
	startupTimeout  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("cashpilot-bot %s (commit: %s, built: %s)\n", version, commit, date)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.Configure(cfg.LogLevel, cfg.LogFormat)
	if err := logger.SetHashSalt(cfg.LogHashSalt); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to set log hash salt")
	}

	logger.Log.Info().
		Str("version", version).
		Str("api_url", cfg.CashPilotAPIURL).
		Msg("Starting CashPilot bot")

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Config{
		Exporter:       cfg.OTelExporter,
		ServiceName:    cfg.OTelServiceName,
		ServiceVersion: version,
	})
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to set up telemetry")
	}

	metrics.MustRegister()

	checks := map[string]server.Check{}

	users, closeStore := openUserStore(ctx, cfg, checks)
	defer closeStore()

	client := cashpilot.NewClient(cfg.CashPilotAPIURL, cfg.CashPilotAPIKey,
		cashpilot.WithTimeout(cfg.CashPilotTimeout),
		cashpilot.WithMaxRetries(cfg.CashPilotMaxRetries),
	)
	api := cashpilot.NewCachedClient(client, cfg.BusinessCacheTTL)

	healthCtx, cancelHealth := context.WithTimeout(ctx, startupTimeout)
	if health, err := api.HealthCheck(healthCtx); err != nil {
		logger.Log.Warn().Err(err).Msg("CashPilot API health check failed, continuing")
	} else {
		logger.Log.Info().Str("status", health.Status).Str("api_version", health.Version).Msg("CashPilot API reachable")
	}
	cancelHealth()
	checks["cashpilot"] = func(ctx context.Context) error {
		_, err := api.HealthCheck(ctx)
		return err
	}

	var limiter ratelimit.Limiter
	if cfg.RedisEnabled() {
		redisClient, err := ratelimit.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer func() { _ = redisClient.Close() }()

		limiter = ratelimit.NewRedisLimiter(redisClient, cfg.RateLimitPerMinute, time.Minute)
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
		logger.Log.Info().Int("per_minute", cfg.RateLimitPerMinute).Msg("Rate limiting enabled")
	}

	telegramBot, err := bot.New(cfg, users, api, limiter)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to create bot")
	}

	var wg sync.WaitGroup
	if cfg.OpsAddr != "" {
		ops := server.New(cfg.OpsAddr, checks)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ops.Start(ctx); err != nil {
				logger.Log.Error().Err(err).Msg("Ops server failed")
			}
		}()
	}

	stopReminders, err := telegramBot.StartReminders(ctx)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to start reminders")
	}

	telegramBot.Start(ctx)

	logger.Log.Info().Msg("Shutting down...")
	if err := stopReminders(); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to stop reminders")
	}
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := shutdownTelemetry(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Log.Error().Err(err).Msg("Failed to flush telemetry")
	}
}

// openUserStore connects to Postgres when DATABASE_URL is set and falls back
// to process memory otherwise.
func openUserStore(ctx context.Context, cfg *config.Config, checks map[string]server.Check) (repository.UserStore, func()) {
	if cfg.DatabaseURL == "" {
		logger.Log.Warn().Msg("DATABASE_URL not set, user state is kept in memory")
		return repository.NewMemoryUserRepository(), func() {}
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	if err := database.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		logger.Log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	logger.Log.Info().Msg("Database initialized successfully")
	checks["database"] = pool.Ping
	return repository.NewUserRepository(pool), pool.Close
}
