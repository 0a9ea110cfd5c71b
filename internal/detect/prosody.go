package detect

import (
	"math"

	"github.com/dfalkner/meetcoach/internal/events"
	"github.com/dfalkner/meetcoach/internal/state"
)

// Prosody layer: delivery-level detectors that run when neither the primary
// nor the meta layer matched. Order: volume, monotony, pace, then the two
// affect fallbacks (only for participants with no smoothed emotions at all),
// then group energy.

func detectVolume(st *state.ParticipantState, ctx *Context) *events.FeedbackEvent {
	w := state.Window(st, ctx.Now, shortWindowMS)
	if w.Samples == 0 || w.Coverage() < volumeCoverageMin {
		return nil
	}

	// Window mean when available, smoothed value as fallback.
	level := w.MeanRMSDbfs
	if level == nil {
		level = st.EMA.RMSDbfs
	}
	if level == nil {
		return nil
	}

	low := *level <= volumeLowDbfs
	high := *level >= volumeHighDbfs
	if low && high {
		return nil // impossible state, trust neither reading
	}

	switch {
	case low:
		if st.InCooldown(events.TypeVolumeLow, ctx.Now) {
			return nil
		}
		sev := events.SeverityWarning
		if *level <= volumeLowCrit {
			sev = events.SeverityCritical
		}
		return fire(st, ctx, events.TypeVolumeLow, sev, shortWindowMS,
			volumeMessage(events.TypeVolumeLow, ctx.name(), sev),
			map[string]any{"rmsDbfs": *level})
	case high:
		if st.InCooldown(events.TypeVolumeHigh, ctx.Now) {
			return nil
		}
		sev := events.SeverityWarning
		if *level >= volumeHighCrit {
			sev = events.SeverityCritical
		}
		return fire(st, ctx, events.TypeVolumeHigh, sev, shortWindowMS,
			volumeMessage(events.TypeVolumeHigh, ctx.name(), sev),
			map[string]any{"rmsDbfs": *level})
	}
	return nil
}

// detectMonotony flags flat arousal over sustained speech. A speaker holding
// an extreme smoothed arousal is deliberately read as high or low energy
// rather than monotony, even when the variation itself is flat enough to
// qualify.
func detectMonotony(st *state.ParticipantState, ctx *Context) *events.FeedbackEvent {
	if st.InCooldown(events.TypeMonotony, ctx.Now) {
		return nil
	}
	// Sustained extreme energy is not monotony, it is just high or low
	// energy; those reads belong to other detectors.
	if st.EMA.Arousal != nil && (*st.EMA.Arousal >= monotonyArousalHigh || *st.EMA.Arousal <= monotonyArousalLow) {
		return nil
	}

	w := state.Window(st, ctx.Now, longWindowMS)
	if w.SpeechCount < monotonyMinSpeech || w.Coverage() < monotonyCoverage {
		return nil
	}

	var values []float64
	for _, s := range state.WindowSamples(st, ctx.Now, longWindowMS) {
		if s.Arousal != nil {
			values = append(values, *s.Arousal)
		}
	}
	if len(values) < monotonyMinArousal {
		return nil
	}

	sd := stdev(values)
	if sd >= monotonyStdevInfo {
		return nil
	}
	sev := events.SeverityInfo
	if sd < monotonyStdevWarn {
		sev = events.SeverityWarning
	}

	return fire(st, ctx, events.TypeMonotony, sev, longWindowMS,
		monotonyMessage(ctx.name()),
		map[string]any{"stdev": sd})
}

func detectPace(st *state.ParticipantState, ctx *Context) *events.FeedbackEvent {
	samples := state.WindowSamples(st, ctx.Now, longWindowMS)
	if len(samples) < 2 {
		return nil
	}
	w := state.Window(st, ctx.Now, longWindowMS)

	// Reconstruct speech/silence segment boundaries from the raw samples.
	switches := 0
	speechSegments := 0
	var longestSilenceMS int64
	var silenceStart int64 = -1
	prevSpeech := samples[0].Speech
	if prevSpeech {
		speechSegments++
	} else {
		silenceStart = samples[0].TS
	}
	for _, s := range samples[1:] {
		if s.Speech == prevSpeech {
			continue
		}
		switches++
		if s.Speech {
			speechSegments++
			if silenceStart >= 0 {
				longestSilenceMS = max(longestSilenceMS, s.TS-silenceStart)
				silenceStart = -1
			}
		} else {
			silenceStart = s.TS
		}
		prevSpeech = s.Speech
	}
	if silenceStart >= 0 {
		longestSilenceMS = max(longestSilenceMS, ctx.Now-silenceStart)
	}

	windowSec := float64(longWindowMS) / 1000.0
	switchesPerSec := float64(switches) / windowSec

	accelerated := switchesPerSec >= paceSwitchRate && speechSegments >= paceMinSegments
	paused := longestSilenceMS >= paceSilenceMS && w.Coverage() < paceSilenceCoverage
	if accelerated && paused {
		return nil // contradictory reconstruction, trust neither
	}

	// Extreme arousal contradicts the respective reading.
	if accelerated && st.EMA.Arousal != nil && *st.EMA.Arousal <= paceArousalLow {
		accelerated = false
	}
	if paused && st.EMA.Arousal != nil && *st.EMA.Arousal >= paceArousalHigh {
		paused = false
	}

	switch {
	case accelerated:
		if st.InCooldown(events.TypePaceAccelerated, ctx.Now) {
			return nil
		}
		sev := events.SeverityInfo
		if switchesPerSec >= paceSwitchRateWarn {
			sev = events.SeverityWarning
		}
		return fire(st, ctx, events.TypePaceAccelerated, sev, longWindowMS,
			paceMessage(events.TypePaceAccelerated, ctx.name()),
			map[string]any{"switchesPerSec": switchesPerSec, "speechSegments": speechSegments})
	case paused:
		if st.InCooldown(events.TypePacePaused, ctx.Now) {
			return nil
		}
		sev := events.SeverityInfo
		if longestSilenceMS >= paceSilenceWarnMS {
			sev = events.SeverityWarning
		}
		return fire(st, ctx, events.TypePacePaused, sev, longWindowMS,
			paceMessage(events.TypePacePaused, ctx.name()),
			map[string]any{"longestSilenceMs": longestSilenceMS})
	}
	return nil
}

// detectArousalFallback reads raw activation when the emotion model gave the
// primary layer nothing to work with.
func detectArousalFallback(st *state.ParticipantState, ctx *Context) *events.FeedbackEvent {
	if len(st.EMA.Emotions) > 0 || st.EMA.Arousal == nil {
		return nil
	}
	a := *st.EMA.Arousal

	switch {
	case a <= fallbackArousalLow:
		if st.InCooldown(events.TypeArousalLow, ctx.Now) {
			return nil
		}
		sev := events.SeverityInfo
		if a <= fallbackArousalLow*2 {
			sev = events.SeverityWarning
		}
		return fire(st, ctx, events.TypeArousalLow, sev, longWindowMS,
			arousalMessage(events.TypeArousalLow, ctx.name()),
			map[string]any{"arousal": a})
	case a >= fallbackArousalHigh:
		if st.InCooldown(events.TypeArousalHigh, ctx.Now) {
			return nil
		}
		sev := events.SeverityInfo
		if a >= 0.8 {
			sev = events.SeverityWarning
		}
		return fire(st, ctx, events.TypeArousalHigh, sev, longWindowMS,
			arousalMessage(events.TypeArousalHigh, ctx.name()),
			map[string]any{"arousal": a})
	}
	return nil
}

// detectValenceFallback branches negative valence into tension (high
// activation), low energy (low activation), or a generic negative read.
func detectValenceFallback(st *state.ParticipantState, ctx *Context) *events.FeedbackEvent {
	if len(st.EMA.Emotions) > 0 || st.EMA.Valence == nil {
		return nil
	}
	v := *st.EMA.Valence
	if v > fallbackValenceInfo {
		return nil
	}

	t := events.TypeNegativeValence
	if st.EMA.Arousal != nil {
		switch {
		case *st.EMA.Arousal >= tensionArousalMin:
			t = events.TypeTension
		case *st.EMA.Arousal <= lowEnergyArousalMax:
			t = events.TypeLowEnergy
		}
	}
	if st.InCooldown(t, ctx.Now) {
		return nil
	}

	sev := events.SeverityInfo
	if v <= fallbackValenceWarn {
		sev = events.SeverityWarning
	}

	return fire(st, ctx, t, sev, longWindowMS,
		valenceMessage(t, ctx.name()),
		map[string]any{"valence": v})
}

// detectGroupEnergy averages smoothed arousal across the meeting's covered
// non-host participants and fires at meeting scope.
func detectGroupEnergy(_ *state.ParticipantState, ctx *Context) *events.FeedbackEvent {
	m := ctx.Meeting()
	if m.InCooldown(events.TypeGroupEnergy, ctx.Now) {
		return nil
	}

	var energy sum
	for _, p := range m.Participants {
		if p.Role == events.RoleHost || p.EMA.Arousal == nil {
			continue
		}
		if state.Window(p, ctx.Now, longWindowMS).Coverage() < groupCoverageGate {
			continue
		}
		energy.add(*p.EMA.Arousal)
	}
	if energy.n < 2 {
		return nil
	}

	mean := energy.mean()
	if mean > groupEnergyInfo {
		return nil
	}
	sev := events.SeverityInfo
	if mean <= groupEnergyWarn {
		sev = events.SeverityWarning
	}

	m.SetCooldown(events.TypeGroupEnergy, ctx.Now, cooldownMS[events.TypeGroupEnergy])
	msg := groupEnergyMessage()
	return ctx.groupFeedback(events.TypeGroupEnergy, sev, longWindowMS, msg.text, msg.tips,
		map[string]any{"meanArousal": mean, "participants": energy.n})
}

func stdev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}
