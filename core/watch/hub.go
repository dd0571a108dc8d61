// Package watch follows the trimmed tree for sidecar and output changes and
// fans the resulting events out to subscribers.
package watch

import (
	"sync"

	"hourtrim/logger"
	"hourtrim/model"
)

const subscriberBuffer = 32

// Hub broadcasts library events to every subscriber. Slow subscribers drop
// events instead of blocking the publisher.
type Hub struct {
	mu     sync.RWMutex
	subs   map[chan model.LibraryEvent]struct{}
	closed bool
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan model.LibraryEvent]struct{})}
}

// Subscribe registers a subscriber. The returned cancel func unregisters it
// and closes the channel.
func (h *Hub) Subscribe() (<-chan model.LibraryEvent, func()) {
	ch := make(chan model.LibraryEvent, subscriberBuffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
		})
	}
}

// Publish delivers ev to all current subscribers.
func (h *Hub) Publish(ev model.LibraryEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			logger.Warn("subscriber too slow, dropping event",
				logger.String("type", ev.Type), logger.String("path", ev.Path))
		}
	}
}

// Subscribers returns the number of registered subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close closes every subscriber channel. Later subscriptions get a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subs {
		close(ch)
		delete(h.subs, ch)
	}
}
