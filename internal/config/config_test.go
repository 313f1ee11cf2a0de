package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "stocklens.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 24, cfg.Store.BundleTTLHours)
	assert.Equal(t, 6, cfg.Store.ResultTTLHours)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://financialmodelingprep.com/api/v3", cfg.FMP.BaseURL)
	assert.Equal(t, 15, cfg.FMP.TimeoutSecs)
	assert.Equal(t, 10, cfg.FMP.AnnualPeriods)
	assert.Equal(t, "https://api.tavily.com", cfg.Tavily.BaseURL)
	assert.InDelta(t, 4.0, cfg.Tavily.RateLimit, 0.001)
	assert.Equal(t, 8, cfg.Tavily.RateBurst)
	assert.True(t, cfg.Imputation.Enabled)
	assert.Equal(t, 20, cfg.Imputation.DeadlineSecs)
	assert.Equal(t, 4, cfg.Imputation.MaxQueriesPerField)
	assert.Equal(t, 3, cfg.Imputation.MaxDocsPerQuery)
	assert.Equal(t, 4, cfg.Imputation.MaxConcurrentFields)
	assert.Equal(t, 6, cfg.Imputation.MaxConcurrentSearches)
	assert.InDelta(t, 0.02, cfg.Imputation.ClusterTolerance, 0.0001)
	assert.InDelta(t, 0.5, cfg.Imputation.LowConfidenceThreshold, 0.001)
	assert.InDelta(t, 0.4, cfg.Credibility.DomainWeight, 0.001)
	assert.InDelta(t, 0.3, cfg.Credibility.ContentWeight, 0.001)
	assert.InDelta(t, 0.15, cfg.Credibility.RecencyWeight, 0.001)
	assert.InDelta(t, 0.15, cfg.Credibility.PresentationWeight, 0.001)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/stocklens
log:
  level: debug
  format: console
server:
  port: 9090
imputation:
  enabled: false
  max_queries_per_field: 2
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/stocklens", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.False(t, cfg.Imputation.Enabled)
	assert.Equal(t, 2, cfg.Imputation.MaxQueriesPerField)
	// Defaults still apply for unset values
	assert.Equal(t, 3, cfg.Imputation.MaxDocsPerQuery)
	assert.Equal(t, 24, cfg.Store.BundleTTLHours)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("STOCKLENS_STORE_DRIVER", "postgres")
	t.Setenv("STOCKLENS_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("STOCKLENS_SERVER_PORT", "3000")
	t.Setenv("STOCKLENS_FMP_KEY", "demo-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "demo-key", cfg.FMP.Key)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
