package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/dfalkner/meetcoach/internal/engine"
	"github.com/dfalkner/meetcoach/internal/events"
	"github.com/dfalkner/meetcoach/internal/metrics"
)

// Envelope is one frame on the ingestion socket.
type Envelope struct {
	Type      string          `json:"type"` // "sample", "text", "meeting_ended"
	MeetingID string          `json:"meetingId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Gateway terminates the websocket endpoints and hands events to the engine.
type Gateway struct {
	engine    *engine.Engine
	hub       *Hub
	collector *metrics.Collector
	logger    *slog.Logger
	upgrader  websocket.Upgrader
}

// NewGateway creates the gateway around an engine and its hub.
func NewGateway(eng *engine.Engine, hub *Hub, collector *metrics.Collector, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		engine:    eng,
		hub:       hub,
		collector: collector,
		logger:    logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // upstream services connect from their own hosts
			},
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

// Routes registers the gateway's endpoints on the mux.
func (g *Gateway) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/ingest", g.handleIngest)
	mux.HandleFunc("/feed", g.handleFeed)
	mux.HandleFunc("/stats", g.handleStats)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// handleIngest reads envelopes until the peer disconnects. Malformed frames
// are logged and skipped; detection itself never fails.
func (g *Gateway) handleIngest(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error("ingest upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.logger.Warn("ingest connection closed", "error", err)
			}
			return
		}
		g.dispatch(env)
	}
}

func (g *Gateway) dispatch(env Envelope) {
	switch env.Type {
	case "sample":
		var ev events.IngestionEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			g.logger.Warn("malformed sample frame", "error", err)
			return
		}
		g.engine.HandleSample(ev)
	case "text":
		var ev events.TextEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			g.logger.Warn("malformed text frame", "error", err)
			return
		}
		g.engine.HandleText(ev)
	case "meeting_ended":
		if env.MeetingID != "" {
			g.engine.EndMeeting(env.MeetingID)
		}
	default:
		g.logger.Warn("unknown envelope type", "type", env.Type)
	}
}

// handleFeed streams feedback payloads for one meeting.
func (g *Gateway) handleFeed(w http.ResponseWriter, r *http.Request) {
	meetingID := r.URL.Query().Get("meeting")
	if meetingID == "" {
		http.Error(w, "missing meeting parameter", http.StatusBadRequest)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error("feed upgrade failed", "error", err)
		return
	}

	sub := &subscriber{conn: conn, send: make(chan events.FeedbackEvent, subscriberBuffer)}
	g.hub.add(meetingID, sub)

	// Reader goroutine: only to observe disconnect.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				g.hub.remove(meetingID, sub)
				conn.Close()
				return
			}
		}
	}()

	for fb := range sub.send {
		if err := conn.WriteJSON(fb); err != nil {
			g.hub.remove(meetingID, sub)
			conn.Close()
			return
		}
	}
	conn.Close()
}

func (g *Gateway) handleStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if g.collector == nil {
		w.Write([]byte("{}"))
		return
	}
	if err := json.NewEncoder(w).Encode(g.collector.Snapshot()); err != nil {
		g.logger.Error("stats encode failed", "error", err)
	}
}
