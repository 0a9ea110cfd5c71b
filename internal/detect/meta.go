package detect

import (
	"github.com/dfalkner/meetcoach/internal/events"
	"github.com/dfalkner/meetcoach/internal/state"
)

// Meta-state layer: trend and cross-participant detectors that only run when
// the primary layer saw nothing.

// detectFrustrationTrend is the fallback for participants whose emotion map
// carries no significant signal: it splits the trailing window at its
// midpoint and compares the halves.
func detectFrustrationTrend(st *state.ParticipantState, ctx *Context) *events.FeedbackEvent {
	// Fallback only: any significant emotion means the primary layer owns
	// this participant.
	if anyEmotionAbove(st.EMA.Emotions, significantEmotion) {
		return nil
	}
	// Shares the cooldown type with the primary frustration detector so the
	// two can never double-fire.
	if st.InCooldown(events.TypeFrustration, ctx.Now) {
		return nil
	}

	samples := state.WindowSamples(st, ctx.Now, trendWindowMS)
	w := state.Window(st, ctx.Now, trendWindowMS)
	if w.SpeechCount < trendMinSpeech || w.Coverage() < trendMinCoverage {
		return nil
	}

	mid := ctx.Now - trendWindowMS/2
	var earlyA, lateA, earlyV, lateV sum
	observations := 0
	for _, s := range samples {
		late := s.TS >= mid
		if s.Arousal != nil {
			observations++
			if late {
				lateA.add(*s.Arousal)
			} else {
				earlyA.add(*s.Arousal)
			}
		}
		if s.Valence != nil {
			observations++
			if late {
				lateV.add(*s.Valence)
			} else {
				earlyV.add(*s.Valence)
			}
		}
	}
	if observations < trendMinObservations {
		return nil
	}
	if earlyA.n == 0 || lateA.n == 0 || earlyV.n == 0 || lateV.n == 0 {
		return nil
	}

	arousalDelta := lateA.mean() - earlyA.mean()
	valenceDelta := lateV.mean() - earlyV.mean()

	arousalRising := arousalDelta >= trendArousalDelta
	valenceFalling := valenceDelta <= trendValenceDelta

	// OR, not AND: either signal alone is worth surfacing here. This is an
	// intentional relaxation relative to the primary detector's combination
	// logic.
	if !arousalRising && !valenceFalling {
		return nil
	}

	sev := events.SeverityInfo
	if arousalRising && valenceFalling {
		sev = events.SeverityWarning
	}

	return fire(st, ctx, events.TypeFrustration, sev, trendWindowMS,
		frustrationTrendMessage(ctx.name()),
		map[string]any{"arousalDelta": arousalDelta, "valenceDelta": valenceDelta})
}

// detectPostInterruption walks the meeting's interruption-candidate queue and
// compares each interrupted participant's current valence against the value
// recorded when they were displaced. The queue is rewritten pending-only.
func detectPostInterruption(_ *state.ParticipantState, ctx *Context) *events.FeedbackEvent {
	m := ctx.Meeting()
	if len(m.PostInterruption) == 0 {
		return nil
	}

	var fb *events.FeedbackEvent
	pending := m.PostInterruption[:0]
	for _, c := range m.PostInterruption {
		age := ctx.Now - c.TS
		if age > state.PostInterruptionMaxAgeMS {
			continue // expired
		}
		if fb != nil || age < postInterruptionMinAgeMS {
			pending = append(pending, c) // too fresh to judge, keep waiting
			continue
		}

		target, ok := ctx.Registry.Lookup(ctx.MeetingID, c.InterruptedID)
		if !ok || c.ValenceBefore == nil || target.EMA.Valence == nil {
			pending = append(pending, c)
			continue
		}
		if target.InCooldown(events.TypePostInterruption, ctx.Now) {
			pending = append(pending, c)
			continue
		}

		delta := *target.EMA.Valence - *c.ValenceBefore
		coverage := state.Window(target, ctx.Now, behaviorMS).Coverage()
		if delta > postInterruptionDrop || coverage < postInterruptionCoverage {
			pending = append(pending, c) // not (yet) affected, keep watching
			continue
		}

		target.SetCooldown(events.TypePostInterruption, ctx.Now, cooldownMS[events.TypePostInterruption])
		msg := postInterruptionMessage(ctx.nameOf(c.InterruptedID))
		fb = ctx.feedback(events.TypePostInterruption, events.SeverityWarning, behaviorMS,
			msg.text, msg.tips, map[string]any{"valenceDelta": delta})
		fb.ParticipantID = c.InterruptedID
	}
	m.PostInterruption = pending
	return fb
}

// detectPolarization buckets the meeting's non-host participants by smoothed
// valence and fires when the two camps sit far apart.
func detectPolarization(_ *state.ParticipantState, ctx *Context) *events.FeedbackEvent {
	m := ctx.Meeting()
	if m.InCooldown(events.TypePolarization, ctx.Now) {
		return nil
	}

	var neg, pos sum
	qualifying := 0
	for _, p := range m.Participants {
		if p.Role == events.RoleHost {
			continue
		}
		if p.EMA.Valence == nil {
			continue
		}
		if state.Window(p, ctx.Now, longWindowMS).Coverage() < groupCoverageGate {
			continue
		}
		qualifying++
		switch v := *p.EMA.Valence; {
		case v <= polarizationNeg:
			neg.add(v)
		case v >= polarizationPos:
			pos.add(v)
		}
	}

	if qualifying < polarizationMinAll || neg.n < polarizationMinSide || pos.n < polarizationMinSide {
		return nil
	}
	gap := pos.mean() - neg.mean()
	if gap < polarizationGap {
		return nil
	}

	sev := events.SeverityInfo
	if neg.n >= polarizationWarnSide && pos.n >= polarizationWarnSide {
		sev = events.SeverityWarning
	}

	m.SetCooldown(events.TypePolarization, ctx.Now, cooldownMS[events.TypePolarization])
	msg := polarizationMessage()
	return ctx.groupFeedback(events.TypePolarization, sev, longWindowMS, msg.text, msg.tips,
		map[string]any{"gap": gap, "positive": pos.n, "negative": neg.n})
}

// sum is a tiny mean accumulator.
type sum struct {
	total float64
	n     int
}

func (s *sum) add(v float64) { s.total += v; s.n++ }

func (s *sum) mean() float64 {
	if s.n == 0 {
		return 0
	}
	return s.total / float64(s.n)
}

func anyEmotionAbove(emotions map[string]float64, threshold float64) bool {
	for _, v := range emotions {
		if v > threshold {
			return true
		}
	}
	return false
}

// nameOf resolves another participant's display name.
func (c *Context) nameOf(participantID string) string {
	if c.Directory != nil {
		if n := c.Directory.ParticipantName(c.MeetingID, participantID); n != "" {
			return n
		}
	}
	return participantID
}
