package transport

import "sync/atomic"

type counters struct {
	sent       atomic.Int64
	received   atomic.Int64
	reconnects atomic.Int64
}

func (c *counters) snapshot(driver string, connected bool) Stats {
	return Stats{
		Driver:           driver,
		Connected:        connected,
		MessagesSent:     c.sent.Load(),
		MessagesReceived: c.received.Load(),
		ReconnectCount:   c.reconnects.Load(),
	}
}
