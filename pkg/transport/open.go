package transport

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Open validates cfg, dials the selected backend and retries failed
// connection attempts every ReconnectInterval, giving up after
// MaxReconnectAttempts (0 = retry until ctx is done).
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Bus, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("driver", cfg.Driver)

	c := &counters{}
	if cfg.Driver == "memory" {
		return newMemoryBus(c), nil
	}

	logger.Info("connecting to broker", "endpoint", cfg.Endpoint)

	attempts := 0
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		bus, err := dial(cfg, logger, c)
		if err == nil {
			logger.Info("connected to broker", "endpoint", cfg.Endpoint)
			return bus, nil
		}

		attempts++
		c.reconnects.Add(1)

		if cfg.MaxReconnectAttempts > 0 && attempts >= cfg.MaxReconnectAttempts {
			return nil, fmt.Errorf("max reconnect attempts (%d) reached: %w", cfg.MaxReconnectAttempts, err)
		}

		logger.Warn("broker connection failed, retrying",
			"error", err,
			"attempt", attempts,
			"retry_in", cfg.ReconnectInterval,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.ReconnectInterval):
		}
	}
}

func dial(cfg Config, logger *slog.Logger, c *counters) (Bus, error) {
	switch cfg.Driver {
	case "nats":
		b, err := dialNATS(cfg, logger, c)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "mqtt":
		b, err := dialMQTT(cfg, logger, c)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
	}
}
