package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "go-syncclient/1", cfg.UserAgent)
	assert.Equal(t, 30, cfg.HTTPTimeoutSeconds)
	assert.Equal(t, 100, cfg.Limit.MaxPostRecords)
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "not-a-level")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidTimeout(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT_SECONDS", "0")
	_, err := Load()
	assert.Error(t, err)
}

func TestLogger_BuildsFromLevel(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	log, err := cfg.Logger()
	require.NoError(t, err)
	assert.Equal(t, "info", log.GetLevel().String())
}
