package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Transport)
	assert.Equal(t, DefaultPrefix, cfg.Prefix)
	assert.InDelta(t, DefaultJointAngleTolerance, cfg.JointAngleTolerance, 1e-12)
	assert.Equal(t, float64(DefaultRateHz), cfg.HeadRateHz)
	assert.Equal(t, float64(DefaultRateHz), cfg.DispatchRateHz)
	assert.Equal(t, 2*time.Second, cfg.ReconnectInterval)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("RSDK_TRANSPORT", "nats")
	t.Setenv("RSDK_ENDPOINT", "nats://10.0.0.2:4222")
	t.Setenv("HEAD_RATE_HZ", "50")
	t.Setenv("DASHBOARD_ADDR", ":9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "nats", cfg.Transport)
	assert.Equal(t, "nats://10.0.0.2:4222", cfg.Endpoint)
	assert.Equal(t, 50.0, cfg.HeadRateHz)
	assert.Equal(t, ":9090", cfg.DashboardAddr)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("RSDK_PREFIX=baxter\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("RSDK_PREFIX") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "baxter", cfg.Prefix)
}

func TestLoad_MissingNamedEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo.env")

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "typo.env")
}

func TestLoad_NoDefaultEnvFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultPrefix, cfg.Prefix)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Transport:           "memory",
			Prefix:              "rsdk",
			JointAngleTolerance: 0.01,
			HeadRateHz:          100,
			DispatchRateHz:      100,
		}
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		shouldErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"unknown_transport", func(c *Config) { c.Transport = "zmq" }, true},
		{"nats_without_endpoint", func(c *Config) { c.Transport = "nats" }, true},
		{"mqtt_with_endpoint", func(c *Config) { c.Transport = "mqtt"; c.Endpoint = "tcp://localhost:1883" }, false},
		{"empty_prefix", func(c *Config) { c.Prefix = "" }, true},
		{"zero_tolerance", func(c *Config) { c.JointAngleTolerance = 0 }, true},
		{"negative_rate", func(c *Config) { c.DispatchRateHz = -1 }, true},
		{"negative_attempts", func(c *Config) { c.MaxReconnectAttempts = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.shouldErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBus(t *testing.T) {
	t.Setenv("RSDK_TRANSPORT", "mqtt")
	t.Setenv("RSDK_ENDPOINT", "tcp://10.0.0.2:1883")
	t.Setenv("RSDK_CLIENT_ID", "operator-1")
	t.Setenv("MAX_RECONNECT_ATTEMPTS", "3")

	cfg, err := Load()
	require.NoError(t, err)

	bus := cfg.Bus()
	require.NoError(t, bus.Validate())
	assert.Equal(t, "mqtt", bus.Driver)
	assert.Equal(t, "tcp://10.0.0.2:1883", bus.Endpoint)
	assert.Equal(t, "operator-1", bus.ClientID)
	assert.Equal(t, 3, bus.MaxReconnectAttempts)
	assert.Equal(t, DefaultPrefix, bus.Prefix)
}
