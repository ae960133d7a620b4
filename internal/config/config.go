package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config represents runtime configuration derived from environment variables.
type Config struct {
	Server     ServerConfig
	Logging    LoggingConfig
	Database   DatabaseConfig
	Import     ImportConfig
	Match      MatchConfig
	Assessment AssessmentThresholds
	OpenAI     OpenAIConfig
}

// ServerConfig holds HTTP server runtime parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LoggingConfig represents structured logging configuration.
type LoggingConfig struct {
	Level  slog.Level
	Format string
}

// DatabaseConfig holds Postgres connection parameters.
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
	ConnectTimeout     time.Duration
}

// SourceMode selects how the external BTC calendar is consumed.
type SourceMode string

const (
	SourceModeAPI SourceMode = "api" // JSON HTTP API
	SourceModeICS SourceMode = "ics" // published ICS feed
)

// ImportConfig holds the knobs for the BTC import pipeline.
type ImportConfig struct {
	// AppID scopes every catalog lookup and event write to one tenant.
	AppID string

	Mode   SourceMode
	APIURL string
	ICSURL string

	// DryRun computes full statistics but suppresses persistence.
	DryRun bool

	// Cron, when non-empty, schedules an automatic import of the previous
	// day (e.g. "15 4 * * *"). Empty disables scheduling.
	Cron string

	// Timezone is the calendar's local zone, used to key days.
	Timezone string
}

// MatchConfig holds fuzzy-matching thresholds for entity resolution. These
// are configuration, not constants buried in resolver logic.
type MatchConfig struct {
	// MaxEditDistance is the largest Levenshtein distance between normalized
	// names still considered a match.
	MaxEditDistance int

	// FuzzyMinLength is the shortest normalized name eligible for fuzzy
	// matching; shorter names match exactly or not at all.
	FuzzyMinLength int
}

// OpenAIConfig enables AI suggestions for unmatched entities when an API key
// is present. Resolution itself never depends on it.
type OpenAIConfig struct {
	APIKey string
	Model  string
}

// Enabled reports whether suggestion support is configured.
func (c OpenAIConfig) Enabled() bool { return c.APIKey != "" }

const (
	defaultPort            = "8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultShutdownTimeout = 5 * time.Second

	defaultLogFormat = "json"

	defaultMaxConnections     = 25
	defaultMaxIdleConnections = 5
	defaultConnMaxLifetime    = 5 * time.Minute
	defaultConnectTimeout     = 10 * time.Second

	defaultAppID           = "1"
	defaultTimezone        = "America/New_York"
	defaultMaxEditDistance = 2
	defaultFuzzyMinLength  = 5

	defaultOpenAIModel = "gpt-4o-mini"
)

// Load reads configuration from environment variables, applying defaults
// when values are not provided.
func Load() (Config, error) {
	// Cloud Run sets PORT, but allow SERVER_PORT override for local dev
	port := getEnv("PORT", "")
	if port == "" {
		port = getEnv("SERVER_PORT", defaultPort)
	}

	cfg := Config{
		Server: ServerConfig{
			Port:            port,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:  slog.LevelInfo,
			Format: defaultLogFormat,
		},
		Database: DatabaseConfig{
			URL:                os.Getenv("DATABASE_URL"),
			MaxConnections:     defaultMaxConnections,
			MaxIdleConnections: defaultMaxIdleConnections,
			ConnMaxLifetime:    defaultConnMaxLifetime,
			ConnectTimeout:     defaultConnectTimeout,
		},
		Import: ImportConfig{
			AppID:    getEnv("APP_ID", defaultAppID),
			Mode:     SourceModeAPI,
			APIURL:   os.Getenv("BTC_API_URL"),
			ICSURL:   os.Getenv("BTC_ICS_URL"),
			Cron:     os.Getenv("IMPORT_CRON"),
			Timezone: getEnv("IMPORT_TIMEZONE", defaultTimezone),
		},
		Match: MatchConfig{
			MaxEditDistance: defaultMaxEditDistance,
			FuzzyMinLength:  defaultFuzzyMinLength,
		},
		Assessment: DefaultAssessmentThresholds(),
		OpenAI: OpenAIConfig{
			APIKey: os.Getenv("OPENAI_API_KEY"),
			Model:  getEnv("OPENAI_MODEL", defaultOpenAIModel),
		},
	}

	if v := os.Getenv("SERVER_READ_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_READ_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ReadTimeout = d
	}

	if v := os.Getenv("SERVER_WRITE_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.WriteTimeout = d
	}

	if v := os.Getenv("SERVER_SHUTDOWN_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ShutdownTimeout = d
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.Logging.Level = level
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		switch v {
		case "json", "text":
			cfg.Logging.Format = v
		default:
			return Config{}, fmt.Errorf("invalid LOG_FORMAT: must be 'json' or 'text'")
		}
	}

	if v := os.Getenv("DB_MAX_CONNECTIONS"); v != "" {
		n, err := parsePositiveInt(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DB_MAX_CONNECTIONS: %w", err)
		}
		cfg.Database.MaxConnections = n
	}

	if v := os.Getenv("BTC_SOURCE"); v != "" {
		switch SourceMode(v) {
		case SourceModeAPI, SourceModeICS:
			cfg.Import.Mode = SourceMode(v)
		default:
			return Config{}, fmt.Errorf("invalid BTC_SOURCE: must be 'api' or 'ics'")
		}
	}

	if v := os.Getenv("DRY_RUN"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DRY_RUN: %w", err)
		}
		cfg.Import.DryRun = b
	}

	if v := os.Getenv("MATCH_MAX_EDIT_DISTANCE"); v != "" {
		n, err := parsePositiveInt(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid MATCH_MAX_EDIT_DISTANCE: %w", err)
		}
		cfg.Match.MaxEditDistance = n
	}

	if v := os.Getenv("MATCH_FUZZY_MIN_LENGTH"); v != "" {
		n, err := parsePositiveInt(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid MATCH_FUZZY_MIN_LENGTH: %w", err)
		}
		cfg.Match.FuzzyMinLength = n
	}

	thresholds, err := loadAssessmentThresholds(cfg.Assessment)
	if err != nil {
		return Config{}, err
	}
	cfg.Assessment = thresholds

	if _, err := time.LoadLocation(cfg.Import.Timezone); err != nil {
		return Config{}, fmt.Errorf("invalid IMPORT_TIMEZONE: %w", err)
	}

	return cfg, nil
}

// Location resolves the import timezone. Load has already validated it.
func (c ImportConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func parseSeconds(raw string) (time.Duration, error) {
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("must be a non-negative integer")
	}
	return time.Duration(seconds) * time.Second, nil
}

func parsePositiveInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("must be a positive integer")
	}
	return n, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch raw {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("must be one of debug, info, warn, error")
	}
}
