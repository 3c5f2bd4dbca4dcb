package transport

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	mqttQoS          = 0
	mqttOpTimeout    = 2 * time.Second
	mqttDisconnectMs = 250
)

// MQTTBus is a Bus backed by an MQTT broker at QoS 0.
type MQTTBus struct {
	client mqtt.Client
	logger *slog.Logger
	stats  *counters
	closed atomic.Bool
}

func dialMQTT(cfg Config, logger *slog.Logger, c *counters) (*MQTTBus, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Endpoint).
		SetClientID(cfg.ClientID).
		SetKeepAlive(30 * time.Second).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(cfg.ReconnectInterval).
		SetConnectTimeout(mqttOpTimeout).
		SetOrderMatters(false).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Warn("mqtt connection lost", "error", err)
		}).
		SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
			c.reconnects.Add(1)
		})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to mqtt: %w", token.Error())
	}

	return &MQTTBus{client: client, logger: logger, stats: c}, nil
}

// Publish publishes data to a topic at QoS 0.
func (b *MQTTBus) Publish(topic string, data []byte) error {
	if b.closed.Load() {
		return ErrClosed
	}
	token := b.client.Publish(topic, mqttQoS, false, data)
	token.WaitTimeout(mqttOpTimeout)
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	b.stats.sent.Add(1)
	return nil
}

// Subscribe subscribes to a topic. With ordering disabled paho invokes
// each handler on its own goroutine.
func (b *MQTTBus) Subscribe(topic string, h Handler) (Subscription, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}
	token := b.client.Subscribe(topic, mqttQoS, func(_ mqtt.Client, m mqtt.Message) {
		b.stats.received.Add(1)
		h(m.Payload())
	})
	if !token.WaitTimeout(mqttOpTimeout) {
		return nil, fmt.Errorf("timed out subscribing to %s", topic)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	b.logger.Debug("subscribed to topic", "topic", topic)
	return &mqttSub{client: b.client, topic: topic}, nil
}

// Stats returns bus statistics.
func (b *MQTTBus) Stats() Stats {
	return b.stats.snapshot("mqtt", !b.closed.Load() && b.client.IsConnectionOpen())
}

// Close disconnects from the broker.
func (b *MQTTBus) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	b.client.Disconnect(mqttDisconnectMs)
	b.logger.Info("mqtt bus closed")
	return nil
}

type mqttSub struct {
	client mqtt.Client
	topic  string
}

func (s *mqttSub) Unsubscribe() error {
	token := s.client.Unsubscribe(s.topic)
	token.WaitTimeout(mqttOpTimeout)
	return token.Error()
}
