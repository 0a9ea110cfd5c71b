package detect

import (
	"github.com/dfalkner/meetcoach/internal/events"
	"github.com/dfalkner/meetcoach/internal/state"
)

// Long-term behavior layer: runs last, over the 60s horizon.

// recentSpeechMS is how fresh a participant's last sample must be to count as
// "speaking right now" for concurrency checks.
const recentSpeechMS = 1_500

func detectSilence(st *state.ParticipantState, ctx *Context) *events.FeedbackEvent {
	if st.InCooldown(events.TypeSilence, ctx.Now) {
		return nil
	}
	// Someone who never spoke is not "gone quiet".
	if !st.HasSpoken {
		return nil
	}

	w := state.Window(st, ctx.Now, behaviorMS)
	if w.Samples == 0 || w.Coverage() >= silenceCoverageMax {
		return nil
	}

	level := w.MeanRMSDbfs
	if level == nil {
		level = st.EMA.RMSDbfs
	}
	if level == nil || *level > silenceRMSMax {
		return nil
	}

	return fire(st, ctx, events.TypeSilence, events.SeverityInfo, behaviorMS,
		silenceMessage(ctx.name()),
		map[string]any{"coverage": w.Coverage(), "rmsDbfs": *level})
}

// speakingNow returns the ids of participants currently producing speech,
// restricted to those with enough window coverage to be meaningful.
func speakingNow(m *state.Meeting, now int64) []string {
	var ids []string
	for id, p := range m.Participants {
		if len(p.Samples) == 0 {
			continue
		}
		last := p.Samples[len(p.Samples)-1]
		if !last.Speech || now-last.TS > recentSpeechMS {
			continue
		}
		if state.Window(p, now, longWindowMS).Coverage() < overlapCoverage {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func detectOverlap(_ *state.ParticipantState, ctx *Context) *events.FeedbackEvent {
	m := ctx.Meeting()
	if m.InCooldown(events.TypeOverlap, ctx.Now) {
		return nil
	}

	speakers := speakingNow(m, ctx.Now)
	if len(speakers) < overlapMinSpeakers {
		return nil
	}

	m.SetCooldown(events.TypeOverlap, ctx.Now, cooldownMS[events.TypeOverlap])
	msg := overlapMessage()
	return ctx.groupFeedback(events.TypeOverlap, events.SeverityInfo, longWindowMS, msg.text, msg.tips,
		map[string]any{"speakers": len(speakers)})
}

// detectInterruptionFrequency samples concurrency at most every 2s, keeps the
// meeting's overlap history, and — when an overlap displaces the dominant
// speaker — queues a post-interruption candidate carrying that speaker's
// valence for the meta layer to revisit.
func detectInterruptionFrequency(_ *state.ParticipantState, ctx *Context) *events.FeedbackEvent {
	m := ctx.Meeting()

	if ctx.Now-m.LastOverlapSample >= interruptionThrottleMS {
		m.LastOverlapSample = ctx.Now

		speakers := speakingNow(m, ctx.Now)
		if len(speakers) >= overlapMinSpeakers {
			m.RecordOverlap(ctx.Now)

			// The previously dominant speaker is being talked over: remember
			// their current valence so the meta layer can measure the after-effect.
			if m.DominantSpeakerID != "" {
				if dom, ok := m.Participants[m.DominantSpeakerID]; ok && contains(speakers, m.DominantSpeakerID) {
					var before *float64
					if dom.EMA.Valence != nil {
						v := *dom.EMA.Valence
						before = &v
					}
					m.AddPostInterruption(state.PostInterruptionCandidate{
						TS:            ctx.Now,
						InterruptedID: m.DominantSpeakerID,
						ValenceBefore: before,
					})
				}
			}
		} else if len(speakers) == 1 {
			if state.Window(m.Participants[speakers[0]], ctx.Now, longWindowMS).Coverage() >= dominantMinCoverage {
				m.DominantSpeakerID = speakers[0]
			}
		}
	}

	if m.InCooldown(events.TypeInterruption, ctx.Now) {
		return nil
	}
	if m.OverlapsSince(ctx.Now-behaviorMS) < interruptionMinEvents {
		return nil
	}

	m.SetCooldown(events.TypeInterruption, ctx.Now, cooldownMS[events.TypeInterruption])
	msg := interruptionMessage()
	return ctx.groupFeedback(events.TypeInterruption, events.SeverityWarning, behaviorMS, msg.text, msg.tips,
		map[string]any{"overlaps": m.OverlapsSince(ctx.Now - behaviorMS)})
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
