package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Equal(t, "demo", cfg.Mode)
	assert.Equal(t, "newcastle", cfg.CouncilID)
	assert.Equal(t, "plana-qc", cfg.ServiceName)
	assert.Equal(t, int64(1<<20), cfg.MaxRequestBodyBytes)
	assert.NotEmpty(t, cfg.DatabaseURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PLANA_PORT", "9090")
	t.Setenv("PLANA_MODE", "live")
	t.Setenv("PLANA_READ_TIMEOUT", "5s")
	t.Setenv("DATABASE_URL", "postgres://x:y@db:5432/plana")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "live", cfg.Mode)
	assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
	assert.Equal(t, "postgres://x:y@db:5432/plana", cfg.DatabaseURL)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("PLANA_PORT", "not-a-number")
	t.Setenv("PLANA_READ_TIMEOUT", "soon")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
}

func TestValidate(t *testing.T) {
	t.Setenv("PLANA_MODE", "staging")
	_, err := config.Load()
	assert.Error(t, err)

	t.Setenv("PLANA_MODE", "demo")
	t.Setenv("PLANA_PORT", "70000")
	_, err = config.Load()
	assert.Error(t, err)
}
