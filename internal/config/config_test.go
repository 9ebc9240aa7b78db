package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/wellness/internal/domain"
	"example.com/wellness/internal/pipeline"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FETCH_BACKEND", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("ANNUAL_STEP_TARGET", "")
	t.Setenv("RECLASSIFY_RULES", "")
	t.Setenv("LOG_MAX_SIZE_MB", "")
	t.Setenv("DLQ_MAX_RETRIES", "")
	t.Setenv("DLQ_BASE_DELAY", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, BackendBrowser, cfg.FetchBackend)
	require.Equal(t, DriverSQLite, cfg.StoreDriver)
	require.Empty(t, cfg.KafkaBrokers)
	require.EqualValues(t, 5_000_000, cfg.AnnualStepTarget)
	require.Empty(t, cfg.ReclassifyRules)
	require.Equal(t, 10, cfg.LogMaxSizeMB)
	require.Equal(t, 2*time.Second, cfg.OutboxPollInterval)
	require.Equal(t, 5, cfg.DLQMaxRetries)
	require.Equal(t, time.Minute, cfg.DLQBaseDelay)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " kafka-1:9092, ,kafka-2:9092 ")
	t.Setenv("RECLASSIFY_TIMEOUT", "45s")
	t.Setenv("RECLASSIFY_RULES", "11:213:ultimate_disc:206")
	t.Setenv("FETCH_ATTEMPTS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	require.Equal(t, 45*time.Second, cfg.ReclassifyTimeout)
	require.Equal(t, 2, cfg.FetchAttempts)
	require.Equal(t, []pipeline.ReclassifyRule{{
		FromTypeID: 11,
		To:         domain.ActivityType{TypeID: 213, TypeKey: "ultimate_disc", ParentTypeID: 206},
	}}, cfg.ReclassifyRules)
}

func TestParseReclassifyRulesRejectsMalformedEntries(t *testing.T) {
	_, err := ParseReclassifyRules("11:213:ultimate_disc")
	require.Error(t, err)

	_, err = ParseReclassifyRules("eleven:213:ultimate_disc:206")
	require.Error(t, err)
}

func TestValidateReportsMissingCredentials(t *testing.T) {
	cfg := Config{FetchBackend: BackendBrowser, StoreDriver: DriverSQLite}

	err := cfg.Validate(true)
	require.ErrorContains(t, err, "GARMIN_SIGNIN_EMAIL")
	require.ErrorContains(t, err, "GARMIN_SIGNIN_PASSWORD")
	require.ErrorContains(t, err, "GARMIN_DATABASE_PATH")

	// Read-only binaries do not need remote credentials.
	cfg.DatabasePath = "/tmp/garmin.db"
	require.NoError(t, cfg.Validate(false))
}

func TestValidateRequiresPostgresForEvents(t *testing.T) {
	cfg := Config{StoreDriver: DriverMemory, KafkaBrokers: []string{"kafka:9092"}}
	require.ErrorContains(t, cfg.Validate(false), "KAFKA_BROKERS")

	cfg = Config{FetchBackend: BackendAPI, APIToken: "t", DisplayName: "me", StoreDriver: DriverPostgres, PostgresURL: "postgres://x"}
	require.NoError(t, cfg.Validate(true))
}
