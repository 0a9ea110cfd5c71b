// Package detect implements the layered rule pipeline that turns participant
// state into coaching alerts: four ordered, short-circuiting layers (primary
// emotion, meta-state, prosody, long-term behavior) of hand-tuned heuristics.
package detect

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/dfalkner/meetcoach/internal/config"
	"github.com/dfalkner/meetcoach/internal/events"
	"github.com/dfalkner/meetcoach/internal/state"
)

// Directory resolves participant display names. It is an optional
// capability: a nil Directory degrades messages to the participant id.
type Directory interface {
	ParticipantName(meetingID, participantID string) string
}

// Context binds one detection pass to a (meeting, participant, now) triple
// plus the collaborators detectors are allowed to touch. It is ephemeral and
// never holds state of its own.
type Context struct {
	MeetingID     string
	ParticipantID string
	Now           int64 // unix millis

	Registry *state.Registry
	Cfg      *config.Detection

	Directory Directory     // optional
	NewID     func() string // optional, defaults to uuid
	Logger    *slog.Logger  // optional
}

// Meeting returns the meeting-scoped state for this pass.
func (c *Context) Meeting() *state.Meeting {
	return c.Registry.Meeting(c.MeetingID)
}

func (c *Context) id() string {
	if c.NewID != nil {
		return c.NewID()
	}
	return uuid.NewString()
}

func (c *Context) name() string {
	if c.Directory != nil {
		if n := c.Directory.ParticipantName(c.MeetingID, c.ParticipantID); n != "" {
			return n
		}
	}
	return c.ParticipantID
}

func (c *Context) log() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// feedback assembles an immutable payload for this participant over the
// trailing window.
func (c *Context) feedback(t events.FeedbackType, sev events.Severity, windowMS int64, msg string, tips []string, meta map[string]any) *events.FeedbackEvent {
	return &events.FeedbackEvent{
		ID:            c.id(),
		Type:          t,
		Severity:      sev,
		TS:            c.Now,
		MeetingID:     c.MeetingID,
		ParticipantID: c.ParticipantID,
		Window:        events.Window{Start: c.Now - windowMS, End: c.Now},
		Message:       msg,
		Tips:          tips,
		Metadata:      meta,
	}
}

// groupFeedback assembles a meeting-wide payload.
func (c *Context) groupFeedback(t events.FeedbackType, sev events.Severity, windowMS int64, msg string, tips []string, meta map[string]any) *events.FeedbackEvent {
	fb := c.feedback(t, sev, windowMS, msg, tips, meta)
	fb.ParticipantID = events.GroupParticipantID
	return fb
}
