package detect

import (
	"github.com/dfalkner/meetcoach/internal/events"
	"github.com/dfalkner/meetcoach/internal/state"
)

// engagementFloor is the minimum subcategory score worth reporting at all.
const engagementFloor = 0.05

// detectEngagement is the most elaborate primary detector. Three positive
// subcategories compete for the score; a battery of absolute blocks, negative
// combinations and relative-intensity tie-breaks rejects mixed states; the
// survivors are graded and rate-limited hard, because praise alerts lose all
// value once they spam.
func detectEngagement(st *state.ParticipantState, ctx *Context) *events.FeedbackEvent {
	if !primaryReady(st, ctx) || st.InCooldown(events.TypeEngagement, ctx.Now) {
		return nil
	}
	em := st.EMA.Emotions

	modName, moderate := maxOf(em, engagementModerate)
	intName, intense := maxOf(em, engagementIntense)
	playName, playful := maxOf(em, engagementPlayful)

	score := moderate
	winner := modName
	subcat := "moderate"
	if intense > score {
		score, winner, subcat = intense, intName, "intense"
	}
	if playful > score {
		score, winner, subcat = playful, playName, "playful"
	}
	if score < engagementFloor {
		return nil
	}

	// Affect gates.
	if st.EMA.Valence != nil && *st.EMA.Valence <= engagementValenceMin {
		return nil
	}
	if st.EMA.Arousal != nil && *st.EMA.Arousal < engagementArousalMin {
		return nil
	}

	// In a low-tension state the negative blocks tighten by a configured
	// percentage, so weaker counter-signals already disqualify praise.
	tighten := 1.0
	if st.EMA.Arousal != nil && st.EMA.Valence != nil &&
		*st.EMA.Arousal < lowTensionArousalMax && *st.EMA.Valence > lowTensionValenceMin {
		tighten = 1.0 - ctx.Cfg.LowTensionTightenPct/100.0
	}

	_, hostility := maxOf(em, hostilityEmotions)
	_, hostActive := maxOf(em, hostilityActive)
	_, fear := maxOf(em, fearEmotions)
	_, sadness := maxOf(em, sadnessEmotions)
	_, deepSad := maxOf(em, deepSadnessEmotions)
	frustration := em["frustration"]

	// Absolute blocks.
	switch {
	case anyAbove(em, hostilityEmotions, engagementNegAbs*tighten),
		anyAbove(em, fearEmotions, engagementNegAbs*tighten),
		hostActive > engagementHostActive*tighten,
		deepSad > engagementDeepSad*tighten,
		anyAbove(em, sadnessEmotions, engagementAnySad*tighten),
		frustration > engagementFrustration*tighten:
		return nil
	}

	// Combination blocks: two co-present negatives reject even when each is
	// individually below its absolute block.
	switch {
	case hostility > engagementComboHost*tighten && frustration > engagementComboFrust*tighten,
		sadness > engagementComboSad*tighten && frustration > engagementComboSad*tighten,
		hostility > engagementComboHost*tighten && sadness > engagementComboSad*tighten,
		fear > engagementFearThreat*tighten:
		return nil
	}

	// Relative-intensity tie-breaks: a negative close to the positive score
	// means the read is ambiguous.
	if hostility > score*engagementHostRatio ||
		sadness > score*engagementSadRatio ||
		frustration > score*engagementFrustRatio {
		return nil
	}
	maxNegative := max(hostility, max(sadness, max(frustration, fear)))
	if subcat == "intense" && maxNegative > engagementIntenseNeg*intense {
		return nil
	}
	if subcat == "playful" && hostility > engagementPlayfulRatio*playful {
		return nil
	}

	// Anti-spam: bursts and near-duplicates.
	recent := st.DetectionsSince(events.TypeEngagement, ctx.Now-engagementSpamWindowMS)
	if len(recent) >= engagementSpamCount {
		return nil
	}
	for _, d := range st.DetectionsSince(events.TypeEngagement, ctx.Now-engagementDupWindowMS) {
		if score <= d.Score*engagementDupRatio {
			return nil
		}
	}

	// Severity: warning by default, info when a negative is co-present in the
	// moderate band or the affect signals are only mildly positive.
	sev := events.SeverityWarning
	if maxNegative > engagementModerateBand {
		sev = events.SeverityInfo
	}
	if st.EMA.Valence != nil && *st.EMA.Valence < engagementMildValence {
		sev = events.SeverityInfo
	}
	if st.EMA.Arousal != nil && *st.EMA.Arousal < engagementMildArousal {
		sev = events.SeverityInfo
	}

	// A recent negative detection recontextualizes the message: this is a
	// recovery, not plain enthusiasm.
	_, conflicted := st.RecentDetectionOfAny(
		[]events.FeedbackType{events.TypeHostility, events.TypeFrustration, events.TypeSadness},
		ctx.Now-60_000,
	)

	return fire(st, ctx, events.TypeEngagement, sev, longWindowMS,
		engagementMessage(ctx.name(), winner, conflicted),
		map[string]any{"score": score, "emotion": winner, "subcategory": subcat})
}
