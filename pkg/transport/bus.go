// Package transport provides the publish/subscribe bus the robot
// interfaces talk over.
//
// The contract is deliberately weak: Publish is fire-and-forget with no
// delivery guarantee, and handlers run asynchronously on a goroutine owned
// by the backend, in no particular order relative to other topics.
//
// Backends:
//   - memory: in-process, used by the simulator and tests
//   - nats:   github.com/nats-io/nats.go
//   - mqtt:   github.com/eclipse/paho.mqtt.golang (QoS 0)
package transport

import (
	"errors"
)

// ErrClosed is returned by operations on a closed bus.
var ErrClosed = errors.New("transport: bus closed")

// Handler receives a message payload. It must not block for long; the
// payload must not be retained after the handler returns.
type Handler func(data []byte)

// Subscription is an active subscription.
type Subscription interface {
	Unsubscribe() error
}

// Publisher publishes fire-and-forget messages.
type Publisher interface {
	Publish(topic string, data []byte) error
}

// Bus is a pub/sub connection.
type Bus interface {
	Publisher
	Subscribe(topic string, h Handler) (Subscription, error)
	Stats() Stats
	Close() error
}

// Stats contains bus statistics.
type Stats struct {
	Driver           string `json:"driver"`
	Connected        bool   `json:"connected"`
	MessagesSent     int64  `json:"messages_sent"`
	MessagesReceived int64  `json:"messages_received"`
	ReconnectCount   int64  `json:"reconnect_count"`
}
