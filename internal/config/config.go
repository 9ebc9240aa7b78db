// Package config centralises configuration parsing for the wellness binaries.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"example.com/wellness/internal/domain"
	"example.com/wellness/internal/pipeline"
	"example.com/wellness/internal/report"
)

// Fetch backends.
const (
	BackendBrowser = "browser"
	BackendAPI     = "api"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverMemory   = "memory"
)

// Config captures runtime configuration values shared by every binary.
type Config struct {
	FetchBackend   string
	SigninEmail    string
	SigninPassword string
	APIToken       string
	BaseURL        string
	DisplayName    string
	FetchAttempts  int
	FetchRetry     time.Duration

	StoreDriver  string
	PostgresURL  string
	DatabasePath string
	MySQLDSN     string

	KafkaBrokers       []string
	SchemaRegistryURL  string
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	PushgatewayURL     string
	DLQMaxRetries      int
	DLQBaseDelay       time.Duration
	DLQPollInterval    time.Duration
	MetricsAddress     string

	LogLevel      string
	LogFile       string
	LogConsole    bool
	LogMaxSizeMB  int
	LogMaxBackups int

	AnnualStepTarget  int64
	ReclassifyRules   []pipeline.ReclassifyRule
	ReclassifyTimeout time.Duration
	ReclassifyPoll    time.Duration

	HTTPAddress string
	JWTSecret   string
	JWTIssuer   string
}

// Load reads environment variables into Config, applying defaults for a single-user setup.
func Load() (Config, error) {
	cfg := Config{
		FetchBackend:   getEnv("FETCH_BACKEND", BackendBrowser),
		SigninEmail:    os.Getenv("GARMIN_SIGNIN_EMAIL"),
		SigninPassword: os.Getenv("GARMIN_SIGNIN_PASSWORD"),
		APIToken:       os.Getenv("GARMIN_API_TOKEN"),
		BaseURL:        getEnv("GARMIN_BASE_URL", "https://connect.garmin.com"),
		DisplayName:    os.Getenv("GARMIN_DISPLAY_NAME"),
		FetchAttempts:  getIntEnv("FETCH_ATTEMPTS", 2),
		FetchRetry:     getDurationEnv("FETCH_RETRY_DELAY", 5*time.Second),

		StoreDriver:  getEnv("STORE_DRIVER", DriverSQLite),
		PostgresURL:  os.Getenv("POSTGRES_URL"),
		DatabasePath: os.Getenv("GARMIN_DATABASE_PATH"),
		MySQLDSN:     os.Getenv("MYSQL_DSN"),

		KafkaBrokers:       splitAndTrim(os.Getenv("KAFKA_BROKERS")),
		SchemaRegistryURL:  os.Getenv("SCHEMA_REGISTRY_URL"),
		OutboxPollInterval: getDurationEnv("OUTBOX_POLL_INTERVAL", 2*time.Second),
		OutboxBatchSize:    getIntEnv("OUTBOX_BATCH_SIZE", 25),
		PushgatewayURL:     os.Getenv("PUSHGATEWAY_URL"),
		DLQMaxRetries:      getIntEnv("DLQ_MAX_RETRIES", 5),
		DLQBaseDelay:       getDurationEnv("DLQ_BASE_DELAY", time.Minute),
		DLQPollInterval:    getDurationEnv("DLQ_POLL_INTERVAL", 30*time.Second),
		MetricsAddress:     getEnv("METRICS_ADDRESS", ":9091"),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", defaultLogFile()),
		LogConsole:    getBoolEnv("LOG_CONSOLE", true),
		LogMaxSizeMB:  getIntEnv("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getIntEnv("LOG_MAX_BACKUPS", 2),

		AnnualStepTarget:  int64(getIntEnv("ANNUAL_STEP_TARGET", int(report.DefaultAnnualTarget))),
		ReclassifyTimeout: getDurationEnv("RECLASSIFY_TIMEOUT", 30*time.Second),
		ReclassifyPoll:    getDurationEnv("RECLASSIFY_POLL_INTERVAL", time.Second),

		HTTPAddress: getEnv("HTTP_ADDRESS", ":8080"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		JWTIssuer:   getEnv("JWT_ISSUER", "wellness"),
	}

	rules, err := ParseReclassifyRules(os.Getenv("RECLASSIFY_RULES"))
	if err != nil {
		return Config{}, err
	}
	cfg.ReclassifyRules = rules
	return cfg, nil
}

// Validate reports missing settings for the selected fetch backend and store driver.
// needsFetch is false for binaries that only read the store.
func (c Config) Validate(needsFetch bool) error {
	var errs []error
	if needsFetch {
		switch c.FetchBackend {
		case BackendBrowser:
			if c.SigninEmail == "" {
				errs = append(errs, missing("GARMIN_SIGNIN_EMAIL"))
			}
			if c.SigninPassword == "" {
				errs = append(errs, missing("GARMIN_SIGNIN_PASSWORD"))
			}
		case BackendAPI:
			if c.APIToken == "" {
				errs = append(errs, missing("GARMIN_API_TOKEN"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown FETCH_BACKEND %q", c.FetchBackend))
		}
		if c.DisplayName == "" {
			errs = append(errs, missing("GARMIN_DISPLAY_NAME"))
		}
	}

	switch c.StoreDriver {
	case DriverPostgres:
		if c.PostgresURL == "" {
			errs = append(errs, missing("POSTGRES_URL"))
		}
	case DriverSQLite:
		if c.DatabasePath == "" {
			errs = append(errs, missing("GARMIN_DATABASE_PATH"))
		}
	case DriverMySQL:
		if c.MySQLDSN == "" {
			errs = append(errs, missing("MYSQL_DSN"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	if len(c.KafkaBrokers) > 0 && c.StoreDriver != DriverPostgres {
		errs = append(errs, errors.New("KAFKA_BROKERS requires STORE_DRIVER=postgres"))
	}
	return errors.Join(errs...)
}

func missing(key string) error {
	return fmt.Errorf("please make sure %s is set in the environment variables", key)
}

// ParseReclassifyRules parses "from:to:key:parent" entries separated by commas.
func ParseReclassifyRules(value string) ([]pipeline.ReclassifyRule, error) {
	entries := splitAndTrim(value)
	rules := make([]pipeline.ReclassifyRule, 0, len(entries))
	for _, entry := range entries {
		parts := strings.Split(entry, ":")
		if len(parts) != 4 {
			return nil, fmt.Errorf("invalid reclassify rule %q: want from:to:key:parent", entry)
		}
		from, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid reclassify rule %q: %w", entry, err)
		}
		to, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid reclassify rule %q: %w", entry, err)
		}
		parent, err := strconv.Atoi(parts[3])
		if err != nil {
			return nil, fmt.Errorf("invalid reclassify rule %q: %w", entry, err)
		}
		rules = append(rules, pipeline.ReclassifyRule{
			FromTypeID: from,
			To:         domain.ActivityType{TypeID: to, TypeKey: parts[2], ParentTypeID: parent},
		})
	}
	return rules, nil
}

func defaultLogFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".logs", "garmin_extract.log")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
