// Package server provides the websocket gateway: ingestion of the two inbound
// streams and delivery of feedback to per-meeting subscribers.
package server

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/dfalkner/meetcoach/internal/events"
)

// Hub fans fired alerts out to the websocket subscribers of each meeting.
// It implements engine.Delivery.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[*subscriber]struct{} // meetingID -> subscribers
	logger *slog.Logger
}

type subscriber struct {
	conn *websocket.Conn
	send chan events.FeedbackEvent
}

// subscriberBuffer bounds the per-subscriber queue; a subscriber that cannot
// keep up is dropped rather than back-pressuring detection.
const subscriberBuffer = 32

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{subs: make(map[string]map[*subscriber]struct{}), logger: logger}
}

// Deliver queues the alert for every subscriber of its meeting.
func (h *Hub) Deliver(fb events.FeedbackEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs[fb.MeetingID] {
		select {
		case sub.send <- fb:
		default:
			h.logger.Warn("dropping slow feedback subscriber", "meeting", fb.MeetingID)
			h.removeLocked(fb.MeetingID, sub)
		}
	}
}

func (h *Hub) add(meetingID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[meetingID] == nil {
		h.subs[meetingID] = make(map[*subscriber]struct{})
	}
	h.subs[meetingID][sub] = struct{}{}
}

func (h *Hub) remove(meetingID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(meetingID, sub)
}

func (h *Hub) removeLocked(meetingID string, sub *subscriber) {
	if set, ok := h.subs[meetingID]; ok {
		if _, ok := set[sub]; ok {
			delete(set, sub)
			close(sub.send)
			if len(set) == 0 {
				delete(h.subs, meetingID)
			}
		}
	}
}
