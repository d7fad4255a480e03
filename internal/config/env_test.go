package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_Defaults(t *testing.T) {
	env, err := LoadEnv()
	require.NoError(t, err)

	assert.Equal(t, "local", env.Env)
	assert.Equal(t, "3100", env.HTTPPort)
	assert.Equal(t, "http://127.0.0.1:8000/api/v1/plans", env.PlannerEnv.URL)
	assert.Equal(t, 60*time.Second, env.Timeout)
	assert.Equal(t, "smartplanner-user", env.UserID)
	assert.Equal(t, "local", env.StorageEnv.Type)
	assert.Equal(t, ".smartplanner/data", env.BaseDir)
	assert.Equal(t, "primary", env.CalendarID)
}

func TestLoadEnv_Overrides(t *testing.T) {
	t.Setenv("SMARTPLANNER_HTTP_PORT", "8080")
	t.Setenv("SMARTPLANNER_PLANNER_URL", "http://planner.internal/api/v1/plans")
	t.Setenv("SMARTPLANNER_PLANNER_TIMEOUT", "5s")
	t.Setenv("SMARTPLANNER_STORAGE_TYPE", "s3")
	t.Setenv("SMARTPLANNER_S3_BUCKET", "plans")

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "8080", env.HTTPPort)
	assert.Equal(t, "http://planner.internal/api/v1/plans", env.PlannerEnv.URL)
	assert.Equal(t, 5*time.Second, env.Timeout)
	assert.Equal(t, "s3", env.StorageEnv.Type)
	assert.Equal(t, "plans", env.S3Bucket)
}

func TestLoadEnv_InvalidTimeout(t *testing.T) {
	t.Setenv("SMARTPLANNER_PLANNER_TIMEOUT", "soon")
	_, err := LoadEnv()
	assert.Error(t, err)
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, (*BaseEnv)(nil).SlogLevel())
	assert.Equal(t, slog.LevelWarn, (&BaseEnv{LogLevel: "warn"}).SlogLevel())
	assert.Equal(t, slog.LevelDebug, (&BaseEnv{LogLevel: "loud"}).SlogLevel())
}

func TestAddr(t *testing.T) {
	assert.Equal(t, ":3100", (&BaseEnv{HTTPPort: "3100"}).Addr())
	assert.Equal(t, "127.0.0.1:8080", (&BaseEnv{HTTPHost: "127.0.0.1", HTTPPort: "8080"}).Addr())
}
