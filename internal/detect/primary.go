package detect

import (
	"github.com/dfalkner/meetcoach/internal/events"
	"github.com/dfalkner/meetcoach/internal/state"
)

// Primary emotion layer: per-participant detectors over the smoothed emotion
// map. Common contract: a minimum of recent samples and a nonzero EMA emotion
// map, otherwise nil (insufficient data, not an error). Each detector applies
// an absolute threshold, an optional combination or ratio refinement, grades
// severity, sets its cooldown, and builds a templated message.

// primaryReady is the shared data gate.
func primaryReady(st *state.ParticipantState, ctx *Context) bool {
	if len(st.EMA.Emotions) == 0 {
		return false
	}
	w := state.Window(st, ctx.Now, longWindowMS)
	return w.Samples >= primaryMinSamples
}

// fire finalizes a detection: cooldown stamp plus payload assembly.
func fire(st *state.ParticipantState, ctx *Context, t events.FeedbackType, sev events.Severity, windowMS int64, m message, meta map[string]any) *events.FeedbackEvent {
	st.SetCooldown(t, ctx.Now, cooldownMS[t])
	return ctx.feedback(t, sev, windowMS, m.text, m.tips, meta)
}

func detectHostility(st *state.ParticipantState, ctx *Context) *events.FeedbackEvent {
	if !primaryReady(st, ctx) || st.InCooldown(events.TypeHostility, ctx.Now) {
		return nil
	}

	name, score := maxOf(st.EMA.Emotions, hostilityEmotions)
	_, frust := maxOf(st.EMA.Emotions, []string{"frustration"})

	// Combination refinement: hostility plus frustration fires below the
	// solo floor.
	combo := score > comboFloor && frust > comboFloor
	if score < hostilityFloor && !combo {
		return nil
	}

	sev := events.SeverityInfo
	switch {
	case score >= hostilityCrit:
		sev = events.SeverityCritical
	case score >= hostilityWarn || combo:
		sev = events.SeverityWarning
	}

	return fire(st, ctx, events.TypeHostility, sev, longWindowMS,
		hostilityMessage(ctx.name(), sev),
		map[string]any{"score": score, "emotion": name})
}

func detectFrustration(st *state.ParticipantState, ctx *Context) *events.FeedbackEvent {
	if !primaryReady(st, ctx) || st.InCooldown(events.TypeFrustration, ctx.Now) {
		return nil
	}

	score := st.EMA.Emotions["frustration"]
	_, host := maxOf(st.EMA.Emotions, hostilityEmotions)

	combo := score > comboFloor && host > comboFloor
	if score < frustrationFloor && !combo {
		return nil
	}

	sev := events.SeverityInfo
	if score >= frustrationWarn || combo {
		sev = events.SeverityWarning
	}
	// Negative valence confirms the acoustic reading.
	if st.EMA.Valence != nil && *st.EMA.Valence <= -0.3 && sev == events.SeverityInfo {
		sev = events.SeverityWarning
	}

	return fire(st, ctx, events.TypeFrustration, sev, longWindowMS,
		frustrationMessage(ctx.name()),
		map[string]any{"score": score})
}

func detectSadness(st *state.ParticipantState, ctx *Context) *events.FeedbackEvent {
	if !primaryReady(st, ctx) || st.InCooldown(events.TypeSadness, ctx.Now) {
		return nil
	}

	name, score := maxOf(st.EMA.Emotions, sadnessEmotions)
	_, deep := maxOf(st.EMA.Emotions, deepSadnessEmotions)
	if score < sadnessFloor && deep < deepSadnessWarn {
		return nil
	}

	sev := events.SeverityInfo
	if deep >= deepSadnessWarn || (st.EMA.Valence != nil && *st.EMA.Valence <= -0.3) {
		sev = events.SeverityWarning
	}

	return fire(st, ctx, events.TypeSadness, sev, longWindowMS,
		sadnessMessage(ctx.name()),
		map[string]any{"score": score, "emotion": name})
}

func detectBoredom(st *state.ParticipantState, ctx *Context) *events.FeedbackEvent {
	if !primaryReady(st, ctx) || st.InCooldown(events.TypeBoredom, ctx.Now) {
		return nil
	}

	name, score := maxOf(st.EMA.Emotions, boredomEmotions)
	if score < boredomFloor {
		return nil
	}
	// High arousal contradicts boredom; better explained elsewhere.
	if st.EMA.Arousal != nil && *st.EMA.Arousal > boredomArousalMax {
		return nil
	}

	sev := events.SeverityInfo
	if score >= boredomFloor*1.5 {
		sev = events.SeverityWarning
	}

	return fire(st, ctx, events.TypeBoredom, sev, longWindowMS,
		boredomMessage(ctx.name()),
		map[string]any{"score": score, "emotion": name})
}

func detectConfusion(st *state.ParticipantState, ctx *Context) *events.FeedbackEvent {
	if !primaryReady(st, ctx) || st.InCooldown(events.TypeConfusion, ctx.Now) {
		return nil
	}

	name, score := maxOf(st.EMA.Emotions, confusionEmotions)
	if score < confusionFloor {
		return nil
	}

	sev := events.SeverityInfo
	if score >= confusionFloor*1.5 {
		sev = events.SeverityWarning
	}

	return fire(st, ctx, events.TypeConfusion, sev, longWindowMS,
		confusionMessage(ctx.name()),
		map[string]any{"score": score, "emotion": name})
}

func detectSerenity(st *state.ParticipantState, ctx *Context) *events.FeedbackEvent {
	if !primaryReady(st, ctx) || st.InCooldown(events.TypeSerenity, ctx.Now) {
		return nil
	}

	name, score := maxOf(st.EMA.Emotions, serenityEmotions)
	if score < serenityFloor {
		return nil
	}
	// Serenity demands a clean negative profile and calm activation.
	if anyAbove(st.EMA.Emotions, hostilityEmotions, serenityNegMax) ||
		anyAbove(st.EMA.Emotions, sadnessEmotions, serenityNegMax) ||
		anyAbove(st.EMA.Emotions, fearEmotions, serenityNegMax) {
		return nil
	}
	if st.EMA.Arousal != nil && *st.EMA.Arousal > 0.3 {
		return nil
	}
	if st.EMA.Valence != nil && *st.EMA.Valence < 0 {
		return nil
	}

	return fire(st, ctx, events.TypeSerenity, events.SeverityInfo, longWindowMS,
		serenityMessage(ctx.name()),
		map[string]any{"score": score, "emotion": name})
}

func detectConnection(st *state.ParticipantState, ctx *Context) *events.FeedbackEvent {
	if !primaryReady(st, ctx) || st.InCooldown(events.TypeConnection, ctx.Now) {
		return nil
	}

	name, score := maxOf(st.EMA.Emotions, connectionEmotions)
	if score < connectionFloor {
		return nil
	}
	if st.EMA.Valence != nil && *st.EMA.Valence < 0 {
		return nil
	}
	if anyAbove(st.EMA.Emotions, hostilityEmotions, serenityNegMax) {
		return nil
	}

	return fire(st, ctx, events.TypeConnection, events.SeverityInfo, longWindowMS,
		connectionMessage(ctx.name()),
		map[string]any{"score": score, "emotion": name})
}

// detectMentalState is the generic catch-all: any single emotion strong
// enough to matter that no specific detector claimed.
func detectMentalState(st *state.ParticipantState, ctx *Context) *events.FeedbackEvent {
	if !primaryReady(st, ctx) || st.InCooldown(events.TypeMentalState, ctx.Now) {
		return nil
	}

	name, score := dominantUnclaimedEmotion(st.EMA.Emotions)
	if score < mentalStateFloor {
		return nil
	}

	return fire(st, ctx, events.TypeMentalState, events.SeverityInfo, longWindowMS,
		mentalStateMessage(ctx.name(), name),
		map[string]any{"score": score, "emotion": name})
}
