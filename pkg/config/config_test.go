package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "k6", cfg.K6Binary)
	assert.Equal(t, "./results", cfg.ResultsDir)
	assert.Equal(t, "protocol", cfg.DefaultTestType)
	assert.Equal(t, "8083", cfg.Port)
	assert.InDelta(t, 1000.0, cfg.P95ThresholdMs, 0.001)
	assert.InDelta(t, 0.01, cfg.ErrorRateThreshold, 0.001)
	assert.Equal(t, 10*time.Minute, cfg.HistoryGCPeriod)
	assert.True(t, cfg.HistoryGCEnabled)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.AllowedIPs)
	assert.False(t, cfg.EnableAuth)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("K6_BINARY", "/usr/local/bin/k6")
	t.Setenv("P95_THRESHOLD_MS", "2500")
	t.Setenv("K6_STOP_TIMEOUT", "5s")
	t.Setenv("ENABLE_AUTH", "true")
	t.Setenv("ALLOWED_IPS", "10.0.0.1, 192.168.0.0/24")
	t.Setenv("HISTORY_CACHE_SIZE", "1048576")

	cfg := Load()

	assert.Equal(t, "/usr/local/bin/k6", cfg.K6Binary)
	assert.InDelta(t, 2500.0, cfg.P95ThresholdMs, 0.001)
	assert.Equal(t, 5*time.Second, cfg.K6StopTimeout)
	assert.True(t, cfg.EnableAuth)
	assert.Equal(t, []string{"10.0.0.1", "192.168.0.0/24"}, cfg.AllowedIPs)
	assert.Equal(t, int64(1<<20), cfg.HistoryCacheSize)
}

func TestLoadMalformedValuesFallBack(t *testing.T) {
	t.Setenv("P95_THRESHOLD_MS", "fast")
	t.Setenv("K6_STOP_TIMEOUT", "soon")
	t.Setenv("ENABLE_AUTH", "yes please")
	t.Setenv("BURST_LIMIT", "many")

	cfg := Load()

	assert.InDelta(t, 1000.0, cfg.P95ThresholdMs, 0.001)
	assert.Equal(t, 10*time.Second, cfg.K6StopTimeout)
	assert.False(t, cfg.EnableAuth)
	assert.Equal(t, 200, cfg.BurstLimit)
}

func TestEnvStringSlice(t *testing.T) {
	t.Run("empty value keeps default", func(t *testing.T) {
		t.Setenv("ALLOWED_ORIGINS", "")
		cfg := Load()
		assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	})

	t.Run("whitespace-only entries dropped", func(t *testing.T) {
		t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
		cfg := Load()
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	})
}
