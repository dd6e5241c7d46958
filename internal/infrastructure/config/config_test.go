package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600))
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 120, cfg.App.PageLength)
	assert.Equal(t, 3, cfg.App.GroupingMin)
	assert.Equal(t, 10, cfg.App.MaxPages)
	assert.Equal(t, "https://api.opensea.io", cfg.OpenSea.APIBaseURL)
	assert.Equal(t, "OpenSea-Orders", cfg.OpenSea.OrderMatcherUsername)
	assert.Equal(t, 15*time.Second, cfg.OpenSea.Timeout)
	assert.Equal(t, 500*time.Millisecond, cfg.OpenSea.RetryDelay)
	assert.Equal(t, time.Hour, cfg.Redis.TTL)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 45*time.Second, cfg.HTTP.RequestTimeout)
	assert.Equal(t, 30*time.Second, cfg.NATS.RequestTimeout)
	assert.Equal(t, 4, cfg.NATS.Workers)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := writeConfig(t, `
app:
  page_length: 50
  grouping_min: 5
opensea:
  api_key: from-file
  requests_per_second: 4
nats:
  subject_prefix: wallets
`)
	t.Setenv("APP_MAX_PAGES", "3")
	t.Setenv("OPENSEA_API_KEY", "from-env")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.App.PageLength)
	assert.Equal(t, 5, cfg.App.GroupingMin)
	assert.Equal(t, 3, cfg.App.MaxPages)
	assert.Equal(t, "from-env", cfg.OpenSea.APIKey)
	assert.Equal(t, 4.0, cfg.OpenSea.RequestsPerSecond)
	assert.Equal(t, "wallets", cfg.NATS.SubjectPrefix)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero page length", "app:\n  page_length: 0\n"},
		{"grouping minimum below one", "app:\n  grouping_min: 0\n"},
		{"ethereum without rpc url", "ethereum:\n  enabled: true\n"},
		{"redis without address", "redis:\n  enabled: true\n  addr: \"\"\n"},
		{"negative retries", "opensea:\n  max_retries: -1\n"},
		{"nats without workers", "nats:\n  enabled: true\n  workers: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	_, err := Load(writeConfig(t, "app: [unterminated"))
	assert.Error(t, err)
}
