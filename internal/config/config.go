// Package config provides configuration helpers for go-rsdk commands.
//
// Everything is read from the environment (optionally seeded from a .env
// file) so the same binary runs against the simulator or a real robot.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/teslashibe/go-rsdk/pkg/transport"
)

// Default robot configuration.
const (
	DefaultPrefix              = "rsdk"
	DefaultJointAngleTolerance = 0.008726646 // 0.5 degrees
	DefaultRateHz              = 100
)

// Config is the process-wide configuration.
type Config struct {
	// Transport selects the pub/sub backend: memory, nats or mqtt.
	Transport string `env:"RSDK_TRANSPORT" envDefault:"memory"`
	// Endpoint is the broker URL, e.g. nats://10.0.0.2:4222 or tcp://10.0.0.2:1883.
	Endpoint string `env:"RSDK_ENDPOINT"`
	Prefix   string `env:"RSDK_PREFIX" envDefault:"rsdk"`
	ClientID string `env:"RSDK_CLIENT_ID" envDefault:"rsdk"`

	ReconnectInterval    time.Duration `env:"RECONNECT_INTERVAL" envDefault:"2s"`
	MaxReconnectAttempts int           `env:"MAX_RECONNECT_ATTEMPTS" envDefault:"0"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	JointAngleTolerance float64 `env:"JOINT_ANGLE_TOLERANCE" envDefault:"0.008726646"`
	HeadRateHz          float64 `env:"HEAD_RATE_HZ" envDefault:"100"`
	DispatchRateHz      float64 `env:"DISPATCH_RATE_HZ" envDefault:"100"`

	// DashboardAddr enables the operator dashboard when non-empty, e.g. ":8080".
	DashboardAddr string `env:"DASHBOARD_ADDR"`
}

// Load reads the named env files, or ./.env when present if none are
// named, and parses the environment. A named file must exist.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		if len(envFiles) > 0 || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file: %w", err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Transport {
	case "memory":
	case "nats", "mqtt":
		if c.Endpoint == "" {
			return fmt.Errorf("RSDK_ENDPOINT is required for transport %q", c.Transport)
		}
	default:
		return fmt.Errorf("RSDK_TRANSPORT must be memory, nats or mqtt, got %q", c.Transport)
	}
	if c.Prefix == "" {
		return fmt.Errorf("RSDK_PREFIX is required")
	}
	if c.JointAngleTolerance <= 0 {
		return fmt.Errorf("JOINT_ANGLE_TOLERANCE must be positive, got %v", c.JointAngleTolerance)
	}
	if c.HeadRateHz <= 0 || c.DispatchRateHz <= 0 {
		return fmt.Errorf("loop rates must be positive (head=%v, dispatch=%v)", c.HeadRateHz, c.DispatchRateHz)
	}
	if c.MaxReconnectAttempts < 0 {
		return fmt.Errorf("MAX_RECONNECT_ATTEMPTS must be >= 0")
	}
	return nil
}

// Bus returns the transport configuration.
func (c *Config) Bus() transport.Config {
	return transport.Config{
		Driver:               c.Transport,
		Endpoint:             c.Endpoint,
		Prefix:               c.Prefix,
		ClientID:             c.ClientID,
		ReconnectInterval:    c.ReconnectInterval,
		MaxReconnectAttempts: c.MaxReconnectAttempts,
	}
}
