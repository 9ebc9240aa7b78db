package browser

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewAppliesDefaults(t *testing.T) {
	f := New(Config{BaseURL: "https://example.test/"})
	require.Equal(t, "https://example.test", f.cfg.BaseURL)
	require.Equal(t, DefaultSigninURL, f.cfg.SigninURL)
	require.Equal(t, 2, f.cfg.Attempts)
	require.Equal(t, 5*time.Second, f.cfg.SettleDelay)
	f.Close()
}

func TestFetchScriptEscapesArguments(t *testing.T) {
	script := fetchScript("PUT", `https://example.test/proxy/activity-service/activity/"1"`, []byte(`{"activityId":1}`))

	require.True(t, strings.HasPrefix(script, `fetch("https://example.test/proxy/activity-service/activity/\"1\"", {`))
	require.Contains(t, script, `"method":"PUT"`)
	require.Contains(t, script, `"X-HTTP-Method-Override":"PUT"`)
	require.Contains(t, script, `"body":"{\"activityId\":1}"`)

	get := fetchScript("GET", "https://example.test/x", nil)
	require.NotContains(t, get, `"body"`)
}

func TestAllocatorOptionsTrackShowUI(t *testing.T) {
	require.Len(t, allocatorOptions(false), len(allocatorOptions(true)))
}
