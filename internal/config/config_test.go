package config_test

import (
	"testing"
	"time"

	"tasktrack/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Environment)
	assert.Equal(t, "tasktrack", cfg.Database.Name)
	assert.Equal(t, 5*time.Second, cfg.Database.StoreTimeout)
	assert.Equal(t, 5, cfg.Tasks.DefaultPageSize)
	assert.False(t, cfg.Tasks.OptionFiltersEnabled)
	assert.Equal(t, 10*time.Minute, cfg.Tasks.CacheTTL)
	assert.Equal(t, []string{"default", "reminders"}, cfg.Worker.Queues)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_STORE_TIMEOUT", "250ms")
	t.Setenv("OPTION_FILTERS_ENABLED", "true")
	t.Setenv("TASKS_DEFAULT_PAGE_SIZE", "20")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Database.StoreTimeout)
	assert.True(t, cfg.Tasks.OptionFiltersEnabled)
	assert.Equal(t, 20, cfg.Tasks.DefaultPageSize)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadConfig_InvalidEnvFallsBackToDefault(t *testing.T) {
	t.Setenv("TASKS_DEFAULT_PAGE_SIZE", "not-a-number")
	t.Setenv("DB_STORE_TIMEOUT", "soon")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Tasks.DefaultPageSize)
	assert.Equal(t, 5*time.Second, cfg.Database.StoreTimeout)
}

func TestLoadConfig_ProductionRequiresDBPassword(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "prod-secret")

	_, err := config.LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database password")
}

func TestLoadConfig_ProductionRequiresJWTSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DB_PASSWORD", "hunter2")

	_, err := config.LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT secret")
}

func TestLoadConfig_RejectsNonPositivePageSize(t *testing.T) {
	t.Setenv("TASKS_DEFAULT_PAGE_SIZE", "0")

	_, err := config.LoadConfig()
	assert.Error(t, err)
}

func TestConfig_Addresses(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("REDIS_HOST", "cache.internal")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Contains(t, cfg.GetDatabaseDSN(), "host=db.internal")
	assert.Contains(t, cfg.GetDatabaseDSN(), "port=5433")
	assert.Equal(t, "cache.internal:6379", cfg.GetRedisAddr())
	assert.Equal(t, "localhost:8080", cfg.GetServerAddr())
	assert.False(t, cfg.IsProduction())
}
