package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"mixlab/internal/pkg/xendit"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr         = ":3000"
	defaultDatabaseURL      = "mixlab.db"
	defaultJWTSecret        = "change-me-jwt-secret"
	defaultJWTTTL           = "24h"
	defaultInvoiceDuration  = "24h"
	defaultCallbackToken    = "change-me-callback-token"
	defaultBookingRateLimit = "1"
	defaultBookingRateBurst = "10"
	defaultLogLevel         = "info"
	defaultShutdownTimeout  = "10s"
	defaultReconcileAfter   = "1h"
)

type Config struct {
	AppEnv          string
	HTTPAddr        string
	DatabaseURL     string
	LogLevel        string
	ShutdownTimeout time.Duration

	JWTSecret string
	JWTTTL    time.Duration

	Xendit xendit.Config

	CORSAllowedOrigins []string
	BookingRateLimit   float64
	BookingRateBurst   int

	// ReconcileAfter is how old an online booking without an invoice must
	// be before the reconcile job reports it.
	ReconcileAfter time.Duration
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" && os.Getenv("HTTP_ADDR") == "" {
		cfg.HTTPAddr = ":" + port
	}
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.LogLevel = strings.TrimSpace(getEnv("LOG_LEVEL", defaultLogLevel))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))

	var err error
	if cfg.ShutdownTimeout, err = parseDurationEnv("SHUTDOWN_TIMEOUT", defaultShutdownTimeout); err != nil {
		return nil, err
	}
	if cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL); err != nil {
		return nil, err
	}
	if cfg.ReconcileAfter, err = parseDurationEnv("RECONCILE_AFTER", defaultReconcileAfter); err != nil {
		return nil, err
	}

	cfg.Xendit = xendit.Config{
		SecretKey:          strings.TrimSpace(os.Getenv("XENDIT_SECRET_KEY")),
		CallbackToken:      strings.TrimSpace(getEnv("XENDIT_CALLBACK_TOKEN", defaultCallbackToken)),
		BaseURL:            strings.TrimSpace(getEnv("XENDIT_BASE_URL", xendit.DefaultBaseURL)),
		Currency:           strings.TrimSpace(getEnv("XENDIT_CURRENCY", "PHP")),
		SuccessRedirectURL: strings.TrimSpace(os.Getenv("XENDIT_SUCCESS_URL")),
		FailureRedirectURL: strings.TrimSpace(os.Getenv("XENDIT_FAILURE_URL")),
	}
	if cfg.Xendit.InvoiceDuration, err = parseDurationEnv("INVOICE_DURATION", defaultInvoiceDuration); err != nil {
		return nil, err
	}

	cfg.CORSAllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))

	limit := strings.TrimSpace(getEnv("BOOKING_RATE_LIMIT", defaultBookingRateLimit))
	if cfg.BookingRateLimit, err = strconv.ParseFloat(limit, 64); err != nil {
		return nil, fmt.Errorf("invalid BOOKING_RATE_LIMIT value %q: %w", limit, err)
	}
	burst := strings.TrimSpace(getEnv("BOOKING_RATE_BURST", defaultBookingRateBurst))
	if cfg.BookingRateBurst, err = strconv.Atoi(burst); err != nil {
		return nil, fmt.Errorf("invalid BOOKING_RATE_BURST value %q: %w", burst, err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether the app runs in a prod-like environment.
func (c *Config) IsProduction() bool {
	return isProdLike(c.AppEnv)
}

func validateConfig(cfg *Config) error {
	if cfg.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.Xendit.InvoiceDuration <= 0 {
		return fmt.Errorf("INVOICE_DURATION must be > 0")
	}
	if cfg.BookingRateLimit <= 0 {
		return fmt.Errorf("BOOKING_RATE_LIMIT must be > 0")
	}
	if cfg.BookingRateBurst <= 0 {
		return fmt.Errorf("BOOKING_RATE_BURST must be > 0")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if isEmptyOrDefault(cfg.Xendit.CallbackToken, defaultCallbackToken) {
			return fmt.Errorf("in prod/release XENDIT_CALLBACK_TOKEN must be set and not default")
		}
		if cfg.Xendit.SecretKey == "" {
			return fmt.Errorf("in prod/release XENDIT_SECRET_KEY must be set")
		}
	}
	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
