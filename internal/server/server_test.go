package server

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfalkner/meetcoach/internal/config"
	"github.com/dfalkner/meetcoach/internal/engine"
	"github.com/dfalkner/meetcoach/internal/events"
)

func TestHubDeliversToMeetingSubscribers(t *testing.T) {
	h := NewHub(nil)

	s1 := &subscriber{send: make(chan events.FeedbackEvent, subscriberBuffer)}
	s2 := &subscriber{send: make(chan events.FeedbackEvent, subscriberBuffer)}
	h.add("m1", s1)
	h.add("m2", s2)

	h.Deliver(events.FeedbackEvent{ID: "fb-1", MeetingID: "m1"})

	select {
	case fb := <-s1.send:
		assert.Equal(t, "fb-1", fb.ID)
	default:
		t.Fatal("subscriber of m1 received nothing")
	}
	assert.Empty(t, s2.send, "subscriber of m2 must not receive m1 alerts")
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	h := NewHub(nil)

	slow := &subscriber{send: make(chan events.FeedbackEvent)} // unbuffered, never read
	h.add("m1", slow)

	h.Deliver(events.FeedbackEvent{ID: "fb-1", MeetingID: "m1"})

	// The subscriber was removed and its channel closed.
	_, open := <-slow.send
	assert.False(t, open)
	assert.Empty(t, h.subs)
}

func testGateway() (*Gateway, *engine.Engine) {
	cfg := &config.Detection{
		GlobalDebounce:       2 * time.Second,
		LowTensionTightenPct: 20,
	}
	hub := NewHub(nil)
	eng := engine.New(cfg, hub, engine.Options{})
	return NewGateway(eng, hub, nil, nil), eng
}

func TestDispatchSample(t *testing.T) {
	g, eng := testGateway()

	payload, err := json.Marshal(events.IngestionEvent{
		MeetingID:       "m1",
		ParticipantID:   "p1",
		ParticipantRole: events.RoleGuest,
		TS:              1000,
		Prosody:         events.Prosody{SpeechDetected: true},
	})
	require.NoError(t, err)

	g.dispatch(Envelope{Type: "sample", Payload: payload})

	st, ok := eng.Registry().Lookup("m1", "p1")
	require.True(t, ok)
	assert.Len(t, st.Samples, 1)
}

func TestDispatchMeetingEnded(t *testing.T) {
	g, eng := testGateway()

	payload, _ := json.Marshal(events.IngestionEvent{
		MeetingID:       "m1",
		ParticipantID:   "p1",
		ParticipantRole: events.RoleGuest,
		TS:              1000,
		Prosody:         events.Prosody{SpeechDetected: true},
	})
	g.dispatch(Envelope{Type: "sample", Payload: payload})
	g.dispatch(Envelope{Type: "meeting_ended", MeetingID: "m1"})

	_, ok := eng.Registry().Lookup("m1", "p1")
	assert.False(t, ok)
}

func TestDispatchToleratesMalformedFrames(t *testing.T) {
	g, eng := testGateway()

	g.dispatch(Envelope{Type: "sample", Payload: []byte("{broken")})
	g.dispatch(Envelope{Type: "text", Payload: []byte("[]")})
	g.dispatch(Envelope{Type: "nonsense"})

	_, ok := eng.Registry().Lookup("m1", "p1")
	assert.False(t, ok)
}
