package rendersim

import (
	"sync"

	"cutroom/internal/renderapi"
)

const subscriberBuffer = 64

// progressHub fans render progress events out to stream connections. Each
// subscriber drains its own bounded channel; a subscriber that falls behind
// loses the oldest events rather than blocking the publisher. The poll
// endpoint remains authoritative, so dropped events are recoverable.
type progressHub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan renderapi.ProgressEvent
}

func newProgressHub() *progressHub {
	return &progressHub{subs: make(map[int]chan renderapi.ProgressEvent)}
}

func (h *progressHub) subscribe() (int, <-chan renderapi.ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := h.nextID
	ch := make(chan renderapi.ProgressEvent, subscriberBuffer)
	h.subs[id] = ch
	return id, ch
}

func (h *progressHub) unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
}

func (h *progressHub) publish(event renderapi.ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- event:
			continue
		default:
		}
		// Buffer full: evict the oldest event, then deliver.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- event:
		default:
		}
	}
}
