package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigContent = `
[development]
host = "localhost"
port = 9000
log_level = "trace"
log_to_stdout = true
redis_host = "localhost"
redis_port = "6379"
postgres_host = "localhost"
postgres_port = "5432"
postgres_db_name = "fitlog"
prometheus_metrics_host = "localhost"
prometheus_metrics_port = "2112"
login_rate_limit_allowed_per_min = 10

[production]
host = "localhost"
port = 8080
log_level = "debug"
logs_path = "/var/log/fitlog/service.log"
sentry_enabled = true
redis_host = "localhost"
redis_port = "6379"
postgres_host = "localhost"
postgres_port = "5432"
postgres_db_name = "fitlog"
prometheus_metrics_host = "localhost"
prometheus_metrics_port = "2112"
login_rate_limit_allowed_per_min = 5
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(testConfigContent), 0o600))

	cfg, err := Load("development", path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "trace", cfg.LogLevel)
	assert.Equal(t, "development", cfg.Environment)
	assert.True(t, cfg.LogToStdout)
	assert.Equal(t, 10, cfg.LoginRateLimitAllowedPerMin)

	cfg, err = Load("prod", path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.SentryEnabled)
	assert.Equal(t, "fitlog", cfg.PostgresDBName)

	_, err = Load("staging", path)
	require.Error(t, err)

	_, err = Load("dev", filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}
