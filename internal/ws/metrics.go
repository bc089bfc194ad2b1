package ws

import "sync"

// Counters tracks how many frames were routed per message type. Exposed
// through the stats endpoint together with the live connection and room
// gauges.
type Counters struct {
	mu     sync.Mutex
	routed map[string]uint64
}

func NewCounters() *Counters {
	return &Counters{routed: make(map[string]uint64)}
}

func (c *Counters) Inc(msgType string) {
	c.mu.Lock()
	c.routed[msgType]++
	c.mu.Unlock()
}

func (c *Counters) Snapshot() map[string]uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]uint64, len(c.routed))
	for k, v := range c.routed {
		out[k] = v
	}
	return out
}

// Stats is the JSON shape served by GET /api/stats.
type Stats struct {
	ActiveConnections int               `json:"activeConnections"`
	ActiveRooms       int               `json:"activeRooms"`
	MessagesRouted    map[string]uint64 `json:"messagesRouted"`
}
