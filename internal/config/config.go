// Package config provides application configuration loading from environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // zone names validate the same on hosts without zoneinfo

	"github.com/caarlos0/env/v9"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	TelegramToken string `env:"TELEGRAM_TOKEN" validate:"required"`

	CashPilotAPIURL     string        `env:"CASHPILOT_API_URL" validate:"required,url"`
	CashPilotAPIKey     string        `env:"CASHPILOT_API_KEY"`
	CashPilotTimeout    time.Duration `env:"CASHPILOT_TIMEOUT" envDefault:"10s" validate:"gt=0"`
	CashPilotMaxRetries uint64        `env:"CASHPILOT_MAX_RETRIES" envDefault:"3" validate:"lte=10"`
	BusinessCacheTTL    time.Duration `env:"BUSINESS_CACHE_TTL" envDefault:"10m"`
	DefaultBusinessID   string        `env:"DEFAULT_BUSINESS_ID" validate:"omitempty,uuid"`

	DatabaseURL string `env:"DATABASE_URL"`

	RedisAddr          string `env:"REDIS_ADDR"`
	RedisPassword      string `env:"REDIS_PASSWORD"`
	RedisDB            int    `env:"REDIS_DB" envDefault:"0" validate:"gte=0"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20" validate:"gt=0"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console" validate:"oneof=console json"`
	// LogHashSalt keys the hashes that replace Telegram ids in logs.
	LogHashSalt string `env:"LOG_HASH_SALT" validate:"required,min=32"`

	ReminderEnabled  bool   `env:"REMINDER_ENABLED" envDefault:"false"`
	ReminderCron     string `env:"REMINDER_CRON" envDefault:"0 21 * * *"`
	ReminderTimezone string `env:"REMINDER_TIMEZONE" envDefault:"America/Asuncion" validate:"timezone"`

	OpsAddr         string `env:"OPS_ADDR" envDefault:":8081"`
	OTelExporter    string `env:"OTEL_EXPORTER" envDefault:"none" validate:"oneof=none stdout otlp-grpc otlp-http"`
	OTelServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"cashpilot-bot"`

	// Parsed by hand so malformed entries are skipped instead of failing startup.
	WhitelistedUserIDs   []int64
	WhitelistedUsernames []string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.CashPilotAPIURL = strings.TrimRight(strings.TrimSpace(cfg.CashPilotAPIURL), "/")
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))

	cfg.ReminderTimezone = strings.TrimSpace(cfg.ReminderTimezone)

	whitelistStr := os.Getenv("WHITELISTED_USER_IDS")
	if whitelistStr != "" {
		for idStr := range strings.SplitSeq(whitelistStr, ",") {
			idStr = strings.TrimSpace(idStr)
			if idStr == "" {
				continue
			}
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil {
				continue
			}
			cfg.WhitelistedUserIDs = append(cfg.WhitelistedUserIDs, id)
		}
	}

	whitelistUsernames := os.Getenv("WHITELISTED_USERNAMES")
	if whitelistUsernames != "" {
		for username := range strings.SplitSeq(whitelistUsernames, ",") {
			username = strings.TrimSpace(username)
			if username == "" {
				continue
			}
			username = strings.TrimPrefix(username, "@")
			cfg.WhitelistedUsernames = append(cfg.WhitelistedUsernames, username)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks that all required configuration is present and well-formed.
func (c *Config) validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	errs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, describeFieldError(fe))
	}

	return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
}

// envNames maps struct fields to the variables they are read from.
var envNames = map[string]string{
	"TelegramToken":       "TELEGRAM_TOKEN",
	"CashPilotAPIURL":     "CASHPILOT_API_URL",
	"CashPilotTimeout":    "CASHPILOT_TIMEOUT",
	"CashPilotMaxRetries": "CASHPILOT_MAX_RETRIES",
	"DefaultBusinessID":   "DEFAULT_BUSINESS_ID",
	"RedisDB":             "REDIS_DB",
	"RateLimitPerMinute":  "RATE_LIMIT_PER_MINUTE",
	"LogLevel":            "LOG_LEVEL",
	"LogFormat":           "LOG_FORMAT",
	"LogHashSalt":         "LOG_HASH_SALT",
	"OTelExporter":        "OTEL_EXPORTER",
	"ReminderTimezone":    "REMINDER_TIMEZONE",
}

func describeFieldError(fe validator.FieldError) string {
	name, ok := envNames[fe.StructField()]
	if !ok {
		name = fe.StructField()
	}

	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "url":
		return name + " must be a valid URL"
	case "uuid":
		return name + " must be a UUID"
	case "timezone":
		return name + " must be an IANA time zone"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s=%s)", name, fe.Tag(), fe.Param())
	}
}

// RedisEnabled reports whether per-user rate limiting is backed by Redis.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// WhitelistEnabled reports whether access is restricted to listed users.
func (c *Config) WhitelistEnabled() bool {
	return len(c.WhitelistedUserIDs) > 0 || len(c.WhitelistedUsernames) > 0
}

// IsUserWhitelisted checks if a Telegram user ID or username may use the bot.
// An empty whitelist allows everyone.
func (c *Config) IsUserWhitelisted(userID int64, username string) bool {
	if !c.WhitelistEnabled() {
		return true
	}

	if slices.Contains(c.WhitelistedUserIDs, userID) {
		return true
	}

	if username != "" {
		username = strings.TrimPrefix(username, "@")
		for _, whitelisted := range c.WhitelistedUsernames {
			if strings.EqualFold(whitelisted, username) {
				return true
			}
		}
	}

	return false
}
