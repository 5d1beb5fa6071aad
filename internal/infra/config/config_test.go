package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, 24*time.Hour, cfg.Team.IdleTTL)
	assert.Equal(t, 10, cfg.RateLimit.Default.PerMinute)
}

func TestLoadLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logger:
  level: debug
providers:
  - name: openai
    model: gpt-4o-mini
    base_url: https://api.openai.com/v1
    throttle_rps: 2
ratelimit:
  providers:
    openai:
      per_minute: 5
team:
  idle_ttl: 1h
`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "text", cfg.Logger.Format, "unset fields keep defaults")
	require.Len(t, cfg.Providers, 1)
	assert.Equal(t, "openai", cfg.Providers[0].Name)
	assert.Equal(t, 2.0, cfg.Providers[0].ThrottleRPS)
	assert.Equal(t, 5, cfg.RateLimit.Providers["openai"].PerMinute)
	assert.Equal(t, time.Hour, cfg.Team.IdleTTL)
}

func TestLoadRejectsDuplicateProviders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
providers:
  - name: openai
    model: a
  - name: openai
    model: b
`), 0600))

	_, err := Load(path)
	assert.ErrorContains(t, err, "duplicate provider")
}

func TestValidateRejectsNegativeValues(t *testing.T) {
	cfg := Default()
	cfg.Team.IdleTTL = -time.Hour
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Providers = []ProviderConfig{{Name: "p", ThrottleRPS: -1}}
	assert.Error(t, cfg.Validate())
}
