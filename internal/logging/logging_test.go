package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONToRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "sync.log")

	logger, closer, err := New("sync", Options{Level: "debug", File: path, MaxSizeMB: 1, MaxBackups: 1})
	require.NoError(t, err)
	logger.Debug("starting extract", "days", 3)
	require.NoError(t, closer.Close())

	body, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(body, &entry))
	require.Equal(t, "starting extract", entry["msg"])
	require.Equal(t, "sync", entry["program"])
	require.NotEmpty(t, entry["run_id"])
	require.EqualValues(t, 3, entry["days"])

	stamp, ok := entry["time"].(string)
	require.True(t, ok)
	require.True(t, strings.HasSuffix(stamp, "Z"), "timestamp %q is not UTC", stamp)
}

func TestUTCTimeLeavesGroupedAttrs(t *testing.T) {
	local := time.Date(2023, time.March, 14, 9, 0, 0, 0, time.FixedZone("EST", -5*3600))

	a := utcTime(nil, slog.Time(slog.TimeKey, local))
	require.Equal(t, time.UTC, a.Value.Time().Location())
	require.True(t, local.Equal(a.Value.Time()))

	nested := utcTime([]string{"request"}, slog.Time(slog.TimeKey, local))
	zone, _ := nested.Value.Time().Zone()
	require.Equal(t, "EST", zone)
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	require.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
