package state

import (
	"github.com/dfalkner/meetcoach/internal/events"
)

// Cooldowns are "unlock-at" stamps: setting one writes now+duration into the
// owning state and refiring is blocked until that instant. Participant and
// meeting scopes are independent maps so one participant's cooldown never
// blocks another's group alert.

// InCooldown reports whether the type is still locked for the participant.
func (st *ParticipantState) InCooldown(t events.FeedbackType, now int64) bool {
	return st.CooldownUntil[t] > now
}

// SetCooldown locks the type for the participant and stamps the global
// debounce marker.
func (st *ParticipantState) SetCooldown(t events.FeedbackType, now, durationMS int64) {
	st.CooldownUntil[t] = now + durationMS
	st.LastFeedbackAt = now
}

// InGlobalDebounce reports whether any alert fired for this participant
// within the cross-type gap.
func (st *ParticipantState) InGlobalDebounce(now, gapMS int64) bool {
	return st.LastFeedbackAt > 0 && now-st.LastFeedbackAt < gapMS
}

// InCooldown reports whether the type is still locked at meeting scope.
func (m *Meeting) InCooldown(t events.FeedbackType, now int64) bool {
	return m.CooldownUntil[t] > now
}

// SetCooldown locks the type at meeting scope.
func (m *Meeting) SetCooldown(t events.FeedbackType, now, durationMS int64) {
	m.CooldownUntil[t] = now + durationMS
}
