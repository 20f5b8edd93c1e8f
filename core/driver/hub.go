package driver

import "sync"

// Hub fans out position updates to in-process subscribers. Slow
// subscribers drop updates instead of blocking the publisher.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan Position]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan Position]struct{})}
}

// Subscribe returns a channel of updates for one driver and a cancel
// function that must be called when done.
func (h *Hub) Subscribe(driverID string) (<-chan Position, func()) {
	ch := make(chan Position, 8)

	h.mu.Lock()
	if h.subs[driverID] == nil {
		h.subs[driverID] = make(map[chan Position]struct{})
	}
	h.subs[driverID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[driverID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, driverID)
			}
		}
		h.mu.Unlock()
	}

	return ch, cancel
}

func (h *Hub) Publish(pos Position) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[pos.DriverID] {
		select {
		case ch <- pos:
		default:
		}
	}
}
