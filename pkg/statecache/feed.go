package statecache

import (
	"github.com/teslashibe/go-rsdk/pkg/metrics"
)

// Feed returns a subscription callback that decodes each payload and
// stores it in c. Payloads that fail to decode, partial snapshots
// included, never reach the cache; they are counted and handed to reject
// (which may be nil).
func (c *Cache[S]) Feed(actuator string, decode func([]byte) (S, error), reject func(error)) func([]byte) {
	updates := metrics.StateUpdates.WithLabelValues(actuator)
	rejected := metrics.StateRejected.WithLabelValues(actuator)

	return func(data []byte) {
		s, err := decode(data)
		if err != nil {
			rejected.Inc()
			if reject != nil {
				reject(err)
			}
			return
		}
		c.Update(s)
		updates.Inc()
	}
}
