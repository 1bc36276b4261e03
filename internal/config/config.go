package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	HTTPPort    string
	DatabaseURL string

	// Scraping
	FinanceBaseURL   string
	ScrapeTimeout    time.Duration
	FreshnessWindow  time.Duration
	PrimaryExchange  string
	FallbackExchange string

	// Workers
	PriceWorkerInterval  time.Duration
	ReportWorkerInterval time.Duration

	// Auth
	SessionTTL      time.Duration
	OTPTTL          time.Duration
	VerifyTokenTTL  time.Duration
	ResetTokenTTL   time.Duration
	PublicBaseURL   string
	MailFromAddress string

	// SMTP (mail delivery is disabled when host is empty)
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	// Google Sheets market report (disabled when either is empty)
	SheetsSpreadsheetID   string
	SheetsCredentialsJSON string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		HTTPPort:    envOrDefault("HTTP_PORT", "8080"),
		DatabaseURL: envOrDefaultWarn("DATABASE_URL", ""),

		FinanceBaseURL:   envOrDefault("FINANCE_BASE_URL", "https://www.google.com/finance"),
		ScrapeTimeout:    envOrDefaultDuration("SCRAPE_TIMEOUT", 10*time.Second),
		FreshnessWindow:  envOrDefaultDuration("PRICE_FRESHNESS_WINDOW", 300*time.Second),
		PrimaryExchange:  envOrDefault("PRIMARY_EXCHANGE", "NSE"),
		FallbackExchange: envOrDefault("FALLBACK_EXCHANGE", "BSE"),

		PriceWorkerInterval:  envOrDefaultDuration("PRICE_WORKER_INTERVAL", 5*time.Minute),
		ReportWorkerInterval: envOrDefaultDuration("REPORT_WORKER_INTERVAL", 24*time.Hour),

		SessionTTL:      envOrDefaultDuration("SESSION_TTL", 30*24*time.Hour),
		OTPTTL:          envOrDefaultDuration("OTP_TTL", 10*time.Minute),
		VerifyTokenTTL:  envOrDefaultDuration("VERIFY_TOKEN_TTL", 24*time.Hour),
		ResetTokenTTL:   envOrDefaultDuration("RESET_TOKEN_TTL", time.Hour),
		PublicBaseURL:   envOrDefault("PUBLIC_BASE_URL", "http://localhost:8080"),
		MailFromAddress: envOrDefault("MAIL_FROM", "noreply@sharefolio.local"),

		SMTPHost:     envOrDefault("SMTP_HOST", ""),
		SMTPPort:     envOrDefaultInt("SMTP_PORT", 587),
		SMTPUsername: envOrDefault("SMTP_USERNAME", ""),
		SMTPPassword: envOrDefault("SMTP_PASSWORD", ""),

		SheetsSpreadsheetID:   envOrDefault("SHEETS_SPREADSHEET_ID", ""),
		SheetsCredentialsJSON: envOrDefault("SHEETS_CREDENTIALS_JSON", ""),
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultWarn(key, defaultVal string) string {
	v := envOrDefault(key, defaultVal)
	if v == "" {
		slog.Warn("required env var not set", "key", key)
	}
	return v
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}
