// Package events is the server side of the visit stream: a registry of
// connected clients and the fan-out that pushes visit lifecycle events to
// the right users.
package events

import (
	"encoding/json"
	"sync"

	"gatepass/internal/domain"
	"gatepass/pkg/logger"
)

// subscriptionBuffer bounds how many undelivered events a slow client may
// hold before the hub drops it.
const subscriptionBuffer = 16

// Event is one message queued for delivery to a subscriber.
type Event struct {
	Kind    domain.EventKind
	Payload json.RawMessage
}

// Subscription is one client connection's mailbox. A user may hold
// several (multiple devices).
type Subscription struct {
	UserID string
	Role   string
	ch     chan Event
}

// Events is the channel the stream handler drains.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Hub tracks live subscriptions and routes events to them. All methods
// are safe for concurrent use.
type Hub struct {
	log *logger.Logger

	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{} // userID -> connections
}

// NewHub creates an empty hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:  log,
		subs: make(map[string]map[*Subscription]struct{}),
	}
}

// Subscribe registers a new connection for a user.
func (h *Hub) Subscribe(userID, role string) *Subscription {
	sub := &Subscription{
		UserID: userID,
		Role:   role,
		ch:     make(chan Event, subscriptionBuffer),
	}

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*Subscription]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	h.mu.Unlock()

	h.log.WithFields(map[string]interface{}{
		"user_id": userID,
		"role":    role,
	}).Debug("stream client connected")
	return sub
}

// Unsubscribe removes a connection. Idempotent.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	conns, ok := h.subs[sub.UserID]
	if ok {
		if _, present := conns[sub]; present {
			delete(conns, sub)
			close(sub.ch)
		}
		if len(conns) == 0 {
			delete(h.subs, sub.UserID)
		}
	}
	h.mu.Unlock()

	if ok {
		h.log.WithField("user_id", sub.UserID).Debug("stream client disconnected")
	}
}

// SendToUser queues an event for every connection a user holds. Unknown
// users are a no-op: the recipient is simply not connected right now and
// will catch up from the snapshot API.
func (h *Hub) SendToUser(userID string, kind domain.EventKind, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		h.log.WithError(err).Error("failed to encode stream event")
		return
	}
	h.send(userID, Event{Kind: kind, Payload: body})
}

// send queues a pre-encoded event for every connection a user holds.
func (h *Hub) send(userID string, ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[userID] {
		select {
		case sub.ch <- ev:
		default:
			// The client stopped draining; cut it loose rather than
			// block every other delivery.
			delete(h.subs[userID], sub)
			close(sub.ch)
			h.log.WithField("user_id", userID).Warn("dropping unresponsive stream client")
		}
	}
	if len(h.subs[userID]) == 0 {
		delete(h.subs, userID)
	}
}

// BroadcastToRole queues an event for every connected user with the
// given role.
func (h *Hub) BroadcastToRole(role string, kind domain.EventKind, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		h.log.WithError(err).Error("failed to encode stream event")
		return
	}
	ev := Event{Kind: kind, Payload: body}

	h.mu.RLock()
	var targets []string
	seen := make(map[string]struct{})
	for userID, conns := range h.subs {
		for sub := range conns {
			if sub.Role == role {
				if _, dup := seen[userID]; !dup {
					seen[userID] = struct{}{}
					targets = append(targets, userID)
				}
				break
			}
		}
	}
	h.mu.RUnlock()

	for _, userID := range targets {
		h.send(userID, ev)
	}
}

// ConnectionCount reports how many connections are live, for health
// reporting.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, conns := range h.subs {
		n += len(conns)
	}
	return n
}
