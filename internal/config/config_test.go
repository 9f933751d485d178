package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJSON = `{
	"port": "3000",
	"log_level": "warn",
	"metrics_address": ":9100",
	"metrics_trusted_subnet": "10.0.0.0/8",
	"cors_allowed_origins": ["https://json-config.com"],
	"metrics_trust_proxy_headers": true,
	"enable_gzip": true
}`

func writeTempJSON(t *testing.T, content string) string {
	t.Helper()
	file, err := os.CreateTemp("", "config*.json")
	require.NoError(t, err)
	_, err = file.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, file.Close())
	t.Cleanup(func() {
		err := os.Remove(file.Name())
		require.NoError(t, err)
	})
	return file.Name()
}

func TestConfigDefaults(t *testing.T) {
	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, "4000", cfg.Port)
	assert.Equal(t, ":4000", cfg.RunAddr())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.MetricsAddr)
	assert.Empty(t, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.EnableGzip.Enabled())
	assert.False(t, cfg.MetricsTrustProxyHeaders.Enabled())
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 5*time.Second, cfg.ReadHeaderTimeout)
}

func TestConfigEnvOnly(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.com,https://b.com")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"https://a.com", "https://b.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
}

func TestConfigPriorityJSONOnly(t *testing.T) {
	t.Setenv("CONFIG", writeTempJSON(t, testJSON))

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
	assert.Equal(t, "10.0.0.0/8", cfg.MetricsSubnet)
	assert.Equal(t, []string{"https://json-config.com"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.EnableGzip.Enabled())
	assert.True(t, cfg.MetricsTrustProxyHeaders.Enabled())
}

func TestConfigPriorityJSONPlusEnv(t *testing.T) {
	t.Setenv("CONFIG", writeTempJSON(t, testJSON))
	t.Setenv("PORT", "4001")

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, "4001", cfg.Port) // env overrides json
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestConfigPriorityAllSources(t *testing.T) {
	t.Setenv("CONFIG", writeTempJSON(t, testJSON))
	t.Setenv("PORT", "4001")
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := New(WithArgs([]string{"-p", "6000", "-cors", "https://cli.com"}))
	require.NoError(t, err)

	assert.Equal(t, "6000", cfg.Port) // CLI > ENV > JSON
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, []string{"https://cli.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, ":9100", cfg.MetricsAddr) // from JSON
}

func TestConfigSwitchesCanBeTurnedOff(t *testing.T) {
	t.Run("env switches off what the JSON file switched on", func(t *testing.T) {
		t.Setenv("CONFIG", writeTempJSON(t, testJSON))
		t.Setenv("ENABLE_GZIP", "false")
		t.Setenv("METRICS_TRUST_PROXY_HEADERS", "false")

		cfg, err := New(WithDisableFlagsParsing(true))
		require.NoError(t, err)

		assert.False(t, cfg.EnableGzip.Enabled())
		assert.False(t, cfg.MetricsTrustProxyHeaders.Enabled())
	})

	t.Run("flags switch off what env switched on", func(t *testing.T) {
		t.Setenv("ENABLE_GZIP", "true")
		t.Setenv("METRICS_TRUST_PROXY_HEADERS", "true")

		cfg, err := New(WithArgs([]string{"-gzip=false", "-trust-proxy=false"}))
		require.NoError(t, err)

		assert.False(t, cfg.EnableGzip.Enabled())
		assert.False(t, cfg.MetricsTrustProxyHeaders.Enabled())
	})

	t.Run("bare flag switches on", func(t *testing.T) {
		t.Setenv("ENABLE_GZIP", "false")

		cfg, err := New(WithArgs([]string{"-gzip"}))
		require.NoError(t, err)

		assert.True(t, cfg.EnableGzip.Enabled())
	})

	t.Run("unset env keeps the JSON value", func(t *testing.T) {
		t.Setenv("CONFIG", writeTempJSON(t, testJSON))

		cfg, err := New(WithArgs([]string{"-p", "5000"}))
		require.NoError(t, err)

		assert.True(t, cfg.EnableGzip.Enabled())
	})

	t.Run("null in the JSON file leaves the switch unset", func(t *testing.T) {
		t.Setenv("CONFIG", writeTempJSON(t, `{"enable_gzip": null}`))

		cfg, err := New(WithDisableFlagsParsing(true))
		require.NoError(t, err)

		assert.False(t, cfg.EnableGzip.Enabled())
		assert.False(t, cfg.EnableGzip.IsSet())
	})

	t.Run("invalid env value", func(t *testing.T) {
		t.Setenv("ENABLE_GZIP", "sometimes")

		_, err := New(WithDisableFlagsParsing(true))
		assert.Error(t, err)
	})
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "non numeric port", key: "PORT", value: "http"},
		{name: "port out of range", key: "PORT", value: "70000"},
		{name: "unknown log level", key: "LOG_LEVEL", value: "verbose"},
		{name: "bad metrics address", key: "METRICS_ADDRESS", value: "no-port-here"},
		{name: "bad trusted subnet", key: "METRICS_TRUSTED_SUBNET", value: "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := New(WithDisableFlagsParsing(true))
			assert.Error(t, err)
		})
	}
}

func TestConfigMissingJSONFile(t *testing.T) {
	t.Setenv("CONFIG", "/definitely/not/here.json")

	_, err := New(WithDisableFlagsParsing(true))
	assert.Error(t, err)
}
