package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "listo.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 30*time.Second, cfg.Store.SnapshotTTL())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "PH", cfg.Geocode.Region)
	assert.InDelta(t, 10, cfg.Geocode.RateLimit, 0.001)
	assert.Equal(t, 1024, cfg.Geocode.CacheSize)
	assert.Equal(t, time.Hour, cfg.Geocode.CacheTTL())
	assert.Equal(t, 30*time.Second, cfg.Functions.Timeout())
	assert.Equal(t, 10, cfg.Filter.PageSize)
	assert.Equal(t, "Asia/Manila", cfg.Filter.Timezone)
	assert.Equal(t, 4, cfg.Import.Concurrency)
	assert.InDelta(t, 14.6522, cfg.Import.DefaultLat, 1e-9)
	assert.InDelta(t, 121.0633, cfg.Import.DefaultLng, 1e-9)
	assert.InDelta(t, 14.693963, cfg.Bounds.NELat, 1e-9)
	assert.InDelta(t, 121.067052, cfg.Bounds.SWLng, 1e-9)
	assert.Empty(t, cfg.Monitoring.WebhookURL)
	assert.Equal(t, 300, cfg.Monitoring.CheckIntervalSecs)
	assert.Equal(t, 24, cfg.Monitoring.LookbackWindowHours)
	assert.Equal(t, 25, cfg.Monitoring.PendingThreshold)
	assert.Equal(t, 48, cfg.Monitoring.PendingMaxAgeHours)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/listo
log:
  level: debug
  format: console
server:
  port: 9090
filter:
  page_size: 25
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/listo", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 25, cfg.Filter.PageSize)
	// Defaults still apply for unset values
	assert.Equal(t, 4, cfg.Import.Concurrency)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("LISTO_STORE_DRIVER", "postgres")
	t.Setenv("LISTO_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("LISTO_SERVER_PORT", "3000")
	t.Setenv("LISTO_GEOCODE_GOOGLE_KEY", "gk")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "gk", cfg.Geocode.GoogleKey)
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

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "listo.db"
	cfg.Server.Port = 8080
	cfg.Auth.SigningSecret = "secret"
	cfg.Filter.PageSize = 10
	cfg.Filter.Timezone = "Asia/Manila"
	cfg.Import.Concurrency = 4
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("cli"))
	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"

	err := cfg.Validate("cli")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store driver")
}

func TestValidate_MissingDatabaseURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("cli")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidate_PageSize(t *testing.T) {
	cfg := validDefaults()
	cfg.Filter.PageSize = 0

	err := cfg.Validate("cli")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "filter.page_size")
}

func TestValidate_Timezone(t *testing.T) {
	cfg := validDefaults()
	cfg.Filter.Timezone = "Mars/Olympus_Mons"

	err := cfg.Validate("cli")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timezone")
}

func TestValidate_Concurrency(t *testing.T) {
	cfg := validDefaults()
	cfg.Import.Concurrency = 0

	err := cfg.Validate("cli")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import.concurrency")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
	assert.NoError(t, cfg.Validate("cli"))
}

func TestValidateServe_MissingSecret(t *testing.T) {
	cfg := validDefaults()
	cfg.Auth.SigningSecret = ""

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.signing_secret")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestFilterLocation(t *testing.T) {
	loc, err := FilterConfig{Timezone: "Asia/Manila"}.Location()
	require.NoError(t, err)
	at := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC).In(loc)
	_, offset := at.Zone()
	assert.Equal(t, 8*60*60, offset)

	loc, err = FilterConfig{}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}
