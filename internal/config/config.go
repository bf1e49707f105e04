package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"tesoretto/internal/core"
)

type Config struct {
	// HTTP Server
	Port            string
	RateLimit       int
	ShutdownTimeout time.Duration

	// Storage
	DataBackend  string
	DataDir      string
	SQLiteDBPath string

	// Presentation and analysis
	LogLevel       string
	DefaultTheme   string
	TrendWindow    int
	ForecastMonths int

	// AMQP, disabled when the URL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror, disabled when the spreadsheet id is empty
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	GoogleOAuthClientFile    string
	GoogleOAuthTokenFile     string
	GoogleOAuthClientJSON    string
	GoogleOAuthTokenJSON     string
	OAuthRedirectPort        string

	// S3 backups, disabled when the bucket is empty
	S3Bucket   string
	S3Prefix   string
	S3Region   string
	S3Endpoint string

	// Worker schedules use six-field cron expressions (seconds first).
	StreakSchedule   string
	RolloverSchedule string
	BackupSchedule   string
	ResyncSchedule   string
	JobTimeout       time.Duration
}

var validBackends = []string{"memory", "sqlite"}

var scheduleParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8081"),
		RateLimit:       getEnvInt("RATE_LIMIT", 60),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		DataDir:      getEnv("DATA_DIR", ""),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/tesoretto.db"),

		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DefaultTheme:   getEnv("DEFAULT_THEME", string(core.ThemeLight)),
		TrendWindow:    getEnvInt("TREND_WINDOW", 3),
		ForecastMonths: getEnvInt("FORECAST_MONTHS", 6),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "tesoretto"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "entry_events"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Entries"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleOAuthClientFile:    getEnv("GOOGLE_OAUTH_CLIENT_FILE", ""),
		GoogleOAuthTokenFile:     getEnv("GOOGLE_OAUTH_TOKEN_FILE", ""),
		GoogleOAuthClientJSON:    getEnv("GOOGLE_OAUTH_CLIENT_JSON", ""),
		GoogleOAuthTokenJSON:     getEnv("GOOGLE_OAUTH_TOKEN_JSON", ""),
		OAuthRedirectPort:        getEnv("OAUTH_REDIRECT_PORT", "8085"),

		S3Bucket:   getEnv("S3_BUCKET", ""),
		S3Prefix:   getEnv("S3_PREFIX", "tesoretto"),
		S3Region:   getEnv("S3_REGION", ""),
		S3Endpoint: getEnv("S3_ENDPOINT", ""),

		StreakSchedule:   getEnv("STREAK_SCHEDULE", "0 5 0 * * *"),
		RolloverSchedule: getEnv("ROLLOVER_SCHEDULE", "0 0 0 1 * *"),
		BackupSchedule:   getEnv("BACKUP_SCHEDULE", "0 0 3 * * *"),
		ResyncSchedule:   getEnv("RESYNC_SCHEDULE", "0 0 */6 * * *"),
		JobTimeout:       getEnvDuration("JOB_TIMEOUT", 2*time.Minute),
	}
}

func (c *Config) AMQPEnabled() bool   { return c.AMQPURL != "" }
func (c *Config) SheetsEnabled() bool { return c.GoogleSpreadsheetID != "" }
func (c *Config) BackupEnabled() bool { return c.S3Bucket != "" }

// Validate validates the configuration and returns every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimit))
	}

	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	if !core.Theme(c.DefaultTheme).IsValid() {
		errors = append(errors, fmt.Sprintf("invalid default theme '%s': must be light or dark", c.DefaultTheme))
	}
	if c.TrendWindow < 1 || c.TrendWindow > 24 {
		errors = append(errors, fmt.Sprintf("invalid trend window %d: must be between 1 and 24", c.TrendWindow))
	}
	if c.ForecastMonths < 1 || c.ForecastMonths > 24 {
		errors = append(errors, fmt.Sprintf("invalid forecast months %d: must be between 1 and 24", c.ForecastMonths))
	}

	if c.AMQPEnabled() {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SheetsEnabled() {
		for name, path := range map[string]string{
			"service account": c.GoogleServiceAccountFile,
			"OAuth client":    c.GoogleOAuthClientFile,
			"OAuth token":     c.GoogleOAuthTokenFile,
		} {
			if path == "" {
				continue
			}
			if _, err := os.Stat(path); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google %s file does not exist: %s", name, path))
			}
		}
	}

	if c.S3Endpoint != "" {
		if u, err := url.Parse(c.S3Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid S3 endpoint '%s': must be an absolute URL", c.S3Endpoint))
		}
	}

	for name, spec := range map[string]string{
		"streak":   c.StreakSchedule,
		"rollover": c.RolloverSchedule,
		"backup":   c.BackupSchedule,
		"resync":   c.ResyncSchedule,
	} {
		if _, err := scheduleParser.Parse(spec); err != nil {
			errors = append(errors, fmt.Sprintf("invalid %s schedule '%s': %v", name, spec, err))
		}
	}

	if c.JobTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid job timeout %v: must be at least 1 second", c.JobTimeout))
	} else if c.JobTimeout > time.Hour {
		errors = append(errors, fmt.Sprintf("invalid job timeout %v: must be at most 1 hour", c.JobTimeout))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
