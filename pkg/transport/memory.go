package transport

import (
	"sync"
)

// memoryQueueSize bounds each subscription's backlog. When a slow handler
// lets it fill up the oldest message is dropped, matching the best-effort
// delivery of the network backends.
const memoryQueueSize = 64

// MemoryBus is an in-process Bus. Each subscription owns a goroutine so
// handlers run asynchronously with respect to Publish.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[string]map[*memorySub]struct{}
	closed bool

	stats *counters
}

// NewMemoryBus creates an empty in-process bus.
func NewMemoryBus() *MemoryBus {
	return newMemoryBus(&counters{})
}

func newMemoryBus(c *counters) *MemoryBus {
	return &MemoryBus{
		subs:  make(map[string]map[*memorySub]struct{}),
		stats: c,
	}
}

// Publish delivers a copy of data to every current subscriber of topic.
// It never blocks on slow subscribers.
func (b *MemoryBus) Publish(topic string, data []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}

	for s := range b.subs[topic] {
		s.push(append([]byte(nil), data...))
	}
	b.stats.sent.Add(1)
	return nil
}

// Subscribe registers h for exact matches of topic.
func (b *MemoryBus) Subscribe(topic string, h Handler) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	s := &memorySub{
		bus:   b,
		topic: topic,
		h:     h,
		queue: make(chan []byte, memoryQueueSize),
		done:  make(chan struct{}),
	}
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[*memorySub]struct{})
	}
	b.subs[topic][s] = struct{}{}

	go s.run()
	return s, nil
}

// Subscribers returns the number of live subscriptions on topic.
func (b *MemoryBus) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// Stats returns bus statistics.
func (b *MemoryBus) Stats() Stats {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	return b.stats.snapshot("memory", !closed)
}

// Close stops every subscription. Further calls return ErrClosed.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for _, set := range b.subs {
		for s := range set {
			s.stop()
		}
	}
	b.subs = nil
	return nil
}

type memorySub struct {
	bus   *MemoryBus
	topic string
	h     Handler

	queue chan []byte
	done  chan struct{}
	once  sync.Once
}

func (s *memorySub) push(data []byte) {
	select {
	case s.queue <- data:
		return
	default:
	}

	// Full: drop oldest.
	select {
	case <-s.queue:
	default:
	}
	select {
	case s.queue <- data:
	default:
	}
}

func (s *memorySub) run() {
	for {
		select {
		case <-s.done:
			return
		case data := <-s.queue:
			select {
			case <-s.done:
				return
			default:
			}
			s.bus.stats.received.Add(1)
			s.h(data)
		}
	}
}

func (s *memorySub) stop() {
	s.once.Do(func() { close(s.done) })
}

// Unsubscribe removes the subscription. Pending messages are discarded.
func (s *memorySub) Unsubscribe() error {
	b := s.bus
	b.mu.Lock()
	if set, ok := b.subs[s.topic]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(b.subs, s.topic)
		}
	}
	b.mu.Unlock()

	s.stop()
	return nil
}
