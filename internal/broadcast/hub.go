// Package broadcast fans committed availability changes out to live viewers.
//
// Delivery is best effort. Within one seat or zone, changes reach a
// subscriber in version order and never twice. There is no replay: a
// subscriber that falls behind is closed with Lagged set and must reload a
// snapshot before subscribing again.
package broadcast

import (
	"log/slog"
	"sync"

	"github.com/cimillas/seatlease/internal/domain"
)

const defaultBuffer = 64

type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[*Subscription]struct{}
	last   map[string]int64
	buffer int
	logger *slog.Logger
}

type Option func(*Hub)

// WithBuffer sets how many undelivered changes a subscriber may queue before
// it is considered lagging.
func WithBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		subs:   make(map[string]map[*Subscription]struct{}),
		last:   make(map[string]int64),
		buffer: defaultBuffer,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscription receives the changes of one event until it is closed.
type Subscription struct {
	EventID string

	hub    *Hub
	ch     chan domain.AvailabilityChange
	closed bool
	lagged bool
}

// Changes is closed when the subscription ends.
func (s *Subscription) Changes() <-chan domain.AvailabilityChange {
	return s.ch
}

// Lagged reports whether the hub dropped the subscription because it fell
// behind or because the change feed was interrupted.
func (s *Subscription) Lagged() bool {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	return s.lagged
}

func (s *Subscription) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	s.hub.removeLocked(s, false)
}

func (h *Hub) Subscribe(eventID string) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	sub := &Subscription{
		EventID: eventID,
		hub:     h,
		ch:      make(chan domain.AvailabilityChange, h.buffer),
	}
	set, ok := h.subs[eventID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[eventID] = set
	}
	set[sub] = struct{}{}
	return sub
}

// Publish delivers c to every subscriber of its event unless a change with
// the same or a newer version was already delivered for that seat or zone.
// It returns the number of subscribers the change was queued for.
func (h *Hub) Publish(c domain.AvailabilityChange) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := c.EventID + "/" + c.Key()
	if last, seen := h.last[key]; seen && c.Version <= last {
		return 0
	}
	h.last[key] = c.Version

	delivered := 0
	for sub := range h.subs[c.EventID] {
		select {
		case sub.ch <- c:
			delivered++
		default:
			h.logger.Warn("dropping lagging subscriber", slog.String("event_id", c.EventID))
			h.removeLocked(sub, true)
		}
	}
	return delivered
}

// Resync closes every subscription as lagged and forgets delivered versions.
// It is called when the upstream feed may have missed changes.
func (h *Hub) Resync() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.subs {
		for sub := range set {
			h.removeLocked(sub, true)
		}
	}
	h.last = make(map[string]int64)
}

// Subscribers returns the number of open subscriptions for an event.
func (h *Hub) Subscribers(eventID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[eventID])
}

func (h *Hub) removeLocked(sub *Subscription, lagged bool) {
	if sub.closed {
		return
	}
	sub.closed = true
	sub.lagged = lagged
	close(sub.ch)
	if set, ok := h.subs[sub.EventID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.EventID)
		}
	}
}
