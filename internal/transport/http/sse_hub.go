package http

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
	"vn.io.arda/notify/internal/domain"
)

const subscriberBuffer = 32

// Subscriber is one open notification stream.
type Subscriber struct {
	tenant    string
	recipient string
	send      chan []byte
}

// Frames delivers SSE frames. It is closed when the hub shuts down.
func (s *Subscriber) Frames() <-chan []byte { return s.send }

// Hub fans newly stored notifications out to the recipient's open streams.
// Streams are keyed by tenant and recipient and live in this process only.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[string][]*Subscriber // tenant -> recipient -> subscribers
	closed bool
}

// NewHub creates a new SSE Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[string][]*Subscriber)}
}

// Subscribe opens a stream for recipient in tenant.
func (h *Hub) Subscribe(tenant, recipient string) *Subscriber {
	s := &Subscriber{tenant: tenant, recipient: recipient, send: make(chan []byte, subscriberBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(s.send)
		return s
	}
	if h.subs[tenant] == nil {
		h.subs[tenant] = make(map[string][]*Subscriber)
	}
	h.subs[tenant][recipient] = append(h.subs[tenant][recipient], s)

	log.Debug().Str("tenant", tenant).Str("recipient", recipient).Msg("SSE client connected")
	return s
}

// Unsubscribe removes s. It is safe to call more than once.
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	byRecipient := h.subs[s.tenant]
	if byRecipient == nil {
		return
	}
	current := byRecipient[s.recipient]
	kept := current[:0:0]
	for _, other := range current {
		if other != s {
			kept = append(kept, other)
		}
	}
	switch {
	case len(kept) == len(current):
		return
	case len(kept) == 0:
		delete(byRecipient, s.recipient)
		if len(byRecipient) == 0 {
			delete(h.subs, s.tenant)
		}
	default:
		byRecipient[s.recipient] = kept
	}
	log.Debug().Str("tenant", s.tenant).Str("recipient", s.recipient).Msg("SSE client disconnected")
}

// Broadcast queues n on every stream of recipient. Slow streams drop the frame.
// This satisfies the application.SSEHub interface.
func (h *Hub) Broadcast(tenant, recipient string, n *domain.Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	subs := h.subs[tenant][recipient]
	if len(subs) == 0 {
		return
	}
	frame, err := notificationFrame(n)
	if err != nil {
		log.Error().Err(err).Str("id", n.ID).Msg("SSE frame encoding failed")
		return
	}
	for _, s := range subs {
		select {
		case s.send <- frame:
		default:
			log.Warn().Str("tenant", tenant).Str("recipient", recipient).Msg("SSE client send buffer full, skipping")
		}
	}
}

// Count returns the number of open streams.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, byRecipient := range h.subs {
		for _, subs := range byRecipient {
			total += len(subs)
		}
	}
	return total
}

// Close ends every open stream.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, byRecipient := range h.subs {
		for _, subs := range byRecipient {
			for _, s := range subs {
				close(s.send)
			}
		}
	}
	h.subs = map[string]map[string][]*Subscriber{}
}

// notificationFrame formats n as an SSE "notification" event carrying its id.
func notificationFrame(n *domain.Notification) ([]byte, error) {
	b, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	frame := make([]byte, 0, len(b)+64)
	frame = append(frame, "id: "...)
	frame = append(frame, n.ID...)
	frame = append(frame, "\nevent: notification\ndata: "...)
	frame = append(frame, b...)
	frame = append(frame, "\n\n"...)
	return frame, nil
}
