package transport

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"
)

// NATSBus is a Bus backed by a NATS connection. Topic separators "/" are
// mapped to NATS subject tokens ".".
type NATSBus struct {
	nc     *nats.Conn
	logger *slog.Logger
	stats  *counters
}

func dialNATS(cfg Config, logger *slog.Logger, c *counters) (*NATSBus, error) {
	nc, err := nats.Connect(cfg.Endpoint,
		nats.Name(cfg.ClientID),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(cfg.ReconnectInterval),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			c.reconnects.Add(1)
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return &NATSBus{nc: nc, logger: logger, stats: c}, nil
}

// Subject converts a bus topic to a NATS subject.
func Subject(topic string) string {
	return strings.ReplaceAll(topic, "/", ".")
}

// Publish publishes data to a topic.
func (b *NATSBus) Publish(topic string, data []byte) error {
	if b.nc.IsClosed() {
		return ErrClosed
	}
	if err := b.nc.Publish(Subject(topic), data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	b.stats.sent.Add(1)
	return nil
}

// Subscribe subscribes to a topic. The nats client runs handlers on its
// own per-subscription goroutine.
func (b *NATSBus) Subscribe(topic string, h Handler) (Subscription, error) {
	if b.nc.IsClosed() {
		return nil, ErrClosed
	}
	sub, err := b.nc.Subscribe(Subject(topic), func(m *nats.Msg) {
		b.stats.received.Add(1)
		h(m.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	b.logger.Debug("subscribed to topic", "topic", topic)
	return sub, nil
}

// Stats returns bus statistics.
func (b *NATSBus) Stats() Stats {
	return b.stats.snapshot("nats", b.nc.IsConnected())
}

// Close drains subscriptions and closes the connection.
func (b *NATSBus) Close() error {
	if b.nc.IsClosed() {
		return nil
	}
	if err := b.nc.Drain(); err != nil {
		return fmt.Errorf("failed to drain nats connection: %w", err)
	}
	b.logger.Info("nats bus closed")
	return nil
}
