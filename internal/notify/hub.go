// Package notify fans toasts out to live subscribers (websocket clients).
//
// HOW IT WORKS:
// Each subscriber owns a small buffered channel. Publish never blocks: if a
// subscriber's buffer is full (a slow or stuck client), that toast is dropped
// for that subscriber only. Toasts are transient; the persisted history is
// the source of truth, so a dropped toast loses nothing.
package notify

import (
	"log/slog"
	"sync"

	"github.com/sakif/learning-tracker/internal/model"
)

// DefaultBuffer is how many undelivered toasts a subscriber may queue.
const DefaultBuffer = 16

// Subscription is one live listener. Read toasts from C until it is closed.
type Subscription struct {
	C <-chan model.Toast

	ch  chan model.Toast
	hub *Hub
}

// Close unsubscribes. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.remove(s)
}

// Hub is a ToastSink with any number of subscribers.
type Hub struct {
	logger *slog.Logger
	buffer int

	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger,
		buffer: DefaultBuffer,
		subs:   make(map[*Subscription]struct{}),
	}
}

// Subscribe registers a listener. After Shutdown it returns a subscription
// whose channel is already closed.
func (h *Hub) Subscribe() *Subscription {
	ch := make(chan model.Toast, h.buffer)
	sub := &Subscription{C: ch, ch: ch, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return sub
	}
	h.subs[sub] = struct{}{}
	return sub
}

// Publish delivers t to every subscriber without blocking.
func (h *Hub) Publish(t model.Toast) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		select {
		case sub.ch <- t:
		default:
			h.logger.Warn("dropping toast for slow subscriber",
				slog.Int64("notification_id", t.Notification.ID),
			)
		}
	}
}

// Subscribers returns the number of live listeners.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Shutdown closes every subscription. Later Publishes are no-ops.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for sub := range h.subs {
		close(sub.ch)
		delete(h.subs, sub)
	}
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	close(sub.ch)
}
