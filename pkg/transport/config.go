package transport

import (
	"fmt"
	"time"
)

// Config holds transport configuration.
type Config struct {
	// Driver selects the backend: "memory", "nats" or "mqtt".
	Driver string `yaml:"driver" json:"driver"`

	// Endpoint is the broker URL.
	// Examples: "nats://10.0.0.2:4222", "tcp://10.0.0.2:1883"
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// Prefix is the topic prefix for all topics.
	// Default: "rsdk"
	Prefix string `yaml:"prefix" json:"prefix"`

	// ClientID names this connection on the broker.
	ClientID string `yaml:"client_id" json:"client_id"`

	// ReconnectInterval is how often to attempt reconnection on failure.
	ReconnectInterval time.Duration `yaml:"reconnect_interval" json:"reconnect_interval"`

	// MaxReconnectAttempts is the maximum number of connection attempts.
	// 0 means unlimited.
	MaxReconnectAttempts int `yaml:"max_reconnect_attempts" json:"max_reconnect_attempts"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Driver:               "memory",
		Prefix:               "rsdk",
		ClientID:             "rsdk",
		ReconnectInterval:    2 * time.Second,
		MaxReconnectAttempts: 0, // Unlimited
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	switch c.Driver {
	case "memory":
	case "nats", "mqtt":
		if c.Endpoint == "" {
			return fmt.Errorf("endpoint is required for driver '%s'", c.Driver)
		}
	default:
		return fmt.Errorf("driver must be 'memory', 'nats' or 'mqtt', got '%s'", c.Driver)
	}
	if c.Prefix == "" {
		return fmt.Errorf("prefix is required")
	}
	if c.MaxReconnectAttempts < 0 {
		return fmt.Errorf("max_reconnect_attempts must be >= 0")
	}
	return nil
}
