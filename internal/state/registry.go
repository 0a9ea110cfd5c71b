package state

import (
	"github.com/dfalkner/meetcoach/internal/events"
)

const (
	// PostInterruptionMaxAgeMS is how long an interruption candidate may wait
	// for its valence comparison before it expires.
	PostInterruptionMaxAgeMS = 30_000

	// overlapHistoryMS bounds the per-meeting overlap event history.
	overlapHistoryMS = 60_000

	// solutionContextCap bounds the per-meeting ring of explanation turns.
	solutionContextCap = 12
)

// PostInterruptionCandidate marks a participant who was just talked over; the
// meta layer later compares their valence against ValenceBefore.
type PostInterruptionCandidate struct {
	TS            int64
	InterruptedID string
	ValenceBefore *float64
}

// SolutionContextEntry is one admitted "explanation-like" turn kept as the
// semantic reference for the solution-understood detector.
type SolutionContextEntry struct {
	TS            int64
	ParticipantID string
	Role          events.Role
	Text          string
	Embedding     []float32
	Keywords      map[string]struct{}
	Strength      float64
}

// Meeting holds the meeting-scoped collections shared by group detectors.
type Meeting struct {
	ID           string
	Participants map[string]*ParticipantState

	CooldownUntil map[events.FeedbackType]int64 // meeting-level cooldowns

	// Overlap bookkeeping for the long-term layer.
	OverlapEvents     []int64 // timestamps, pruned to overlapHistoryMS
	LastOverlapSample int64   // throttle stamp for overlap counting
	DominantSpeakerID string

	PostInterruption []PostInterruptionCandidate

	SolutionContext []SolutionContextEntry // oldest first

	LastActivity int64
}

// Registry owns every live Meeting and ParticipantState. It is not internally
// synchronized: the engine serializes all access per its single-scheduler
// contract, and tests drive it single-threaded.
type Registry struct {
	meetings map[string]*Meeting
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{meetings: make(map[string]*Meeting)}
}

// Meeting returns the meeting state, creating it on first use.
func (r *Registry) Meeting(meetingID string) *Meeting {
	m, ok := r.meetings[meetingID]
	if !ok {
		m = &Meeting{
			ID:            meetingID,
			Participants:  make(map[string]*ParticipantState),
			CooldownUntil: make(map[events.FeedbackType]int64),
		}
		r.meetings[meetingID] = m
	}
	return m
}

// Participant returns the participant state, creating it on first use.
func (r *Registry) Participant(meetingID, participantID string) *ParticipantState {
	m := r.Meeting(meetingID)
	st, ok := m.Participants[participantID]
	if !ok {
		st = &ParticipantState{
			MeetingID:     meetingID,
			ParticipantID: participantID,
			Role:          events.RoleUnknown,
			CooldownUntil: make(map[events.FeedbackType]int64),
		}
		m.Participants[participantID] = st
	}
	return st
}

// Lookup returns the participant state without creating it.
func (r *Registry) Lookup(meetingID, participantID string) (*ParticipantState, bool) {
	m, ok := r.meetings[meetingID]
	if !ok {
		return nil, false
	}
	st, ok := m.Participants[participantID]
	return st, ok
}

// ApplySample appends the sample to the participant's buffer, prunes the
// retention horizon, and updates the EMA. Returns the mutated state.
func (r *Registry) ApplySample(ev events.IngestionEvent) *ParticipantState {
	st := r.Participant(ev.MeetingID, ev.ParticipantID)
	if ev.ParticipantRole != "" {
		st.Role = ev.ParticipantRole
	}

	s := Sample{
		TS:       ev.TS,
		Speech:   ev.Prosody.SpeechDetected,
		Valence:  ev.Prosody.Valence,
		Arousal:  ev.Prosody.Arousal,
		Emotions: ev.Prosody.Emotions,
	}
	if ev.Signal != nil {
		s.RMSDbfs = ev.Signal.RMSDbfs
	}
	st.applySample(s)

	r.Meeting(ev.MeetingID).LastActivity = ev.TS
	return st
}

// ApplyText folds an analyzed utterance into the participant's text sub-state.
func (r *Registry) ApplyText(ev events.TextEvent) *ParticipantState {
	st := r.Participant(ev.MeetingID, ev.ParticipantID)
	if ev.ParticipantRole != "" {
		st.Role = ev.ParticipantRole
	}
	st.applyText(ev)
	r.Meeting(ev.MeetingID).LastActivity = ev.Timestamp
	return st
}

// ParticipantIDs returns every participant id of the meeting, in no particular
// order. Group detectors iterate this.
func (r *Registry) ParticipantIDs(meetingID string) []string {
	m, ok := r.meetings[meetingID]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(m.Participants))
	for id := range m.Participants {
		ids = append(ids, id)
	}
	return ids
}

// RecordOverlap appends an overlap event timestamp and prunes the history.
func (m *Meeting) RecordOverlap(ts int64) {
	m.OverlapEvents = append(m.OverlapEvents, ts)
	cutoff := ts - overlapHistoryMS
	i := 0
	for i < len(m.OverlapEvents) && m.OverlapEvents[i] < cutoff {
		i++
	}
	if i > 0 {
		m.OverlapEvents = append(m.OverlapEvents[:0], m.OverlapEvents[i:]...)
	}
}

// OverlapsSince counts overlap events at or after the cutoff.
func (m *Meeting) OverlapsSince(since int64) int {
	n := 0
	for _, ts := range m.OverlapEvents {
		if ts >= since {
			n++
		}
	}
	return n
}

// AddPostInterruption queues an interruption candidate. The meta layer
// consumes and rewrites the queue; candidates older than
// PostInterruptionMaxAgeMS expire there.
func (m *Meeting) AddPostInterruption(c PostInterruptionCandidate) {
	m.PostInterruption = append(m.PostInterruption, c)
}

// AddSolutionContext admits an explanation turn into the bounded ring and
// prunes it by the given window.
func (m *Meeting) AddSolutionContext(e SolutionContextEntry, windowMS int64) {
	m.SolutionContext = append(m.SolutionContext, e)
	m.pruneSolutionContext(e.TS, windowMS)
}

// SolutionContextSince returns admitted entries inside the window, oldest
// first.
func (m *Meeting) SolutionContextSince(now, windowMS int64) []SolutionContextEntry {
	var out []SolutionContextEntry
	for _, e := range m.SolutionContext {
		if now-e.TS <= windowMS {
			out = append(out, e)
		}
	}
	return out
}

func (m *Meeting) pruneSolutionContext(now, windowMS int64) {
	kept := m.SolutionContext[:0]
	for _, e := range m.SolutionContext {
		if now-e.TS <= windowMS {
			kept = append(kept, e)
		}
	}
	m.SolutionContext = kept
	if over := len(m.SolutionContext) - solutionContextCap; over > 0 {
		m.SolutionContext = append(m.SolutionContext[:0], m.SolutionContext[over:]...)
	}
}

// EndMeeting drops all state for the meeting. Called by the lifecycle hook
// when the meeting ends; without it the registry would grow without bound
// across meetings.
func (r *Registry) EndMeeting(meetingID string) {
	delete(r.meetings, meetingID)
}

// SweepIdle drops meetings with no activity for the TTL and returns their
// ids. Safety net for meetings that never send an end-of-meeting signal.
func (r *Registry) SweepIdle(now, ttlMS int64) []string {
	var swept []string
	for id, m := range r.meetings {
		if now-m.LastActivity > ttlMS {
			delete(r.meetings, id)
			swept = append(swept, id)
		}
	}
	return swept
}
