// Package state owns the in-memory detection state: per-participant sample
// buffers with exponential smoothing, per-meeting auxiliary collections, and
// the cooldown bookkeeping every detector consults. Nothing here persists
// beyond the bounded retention horizon.
package state

import (
	"github.com/dfalkner/meetcoach/internal/events"
)

const (
	// SampleRetentionMS bounds the per-participant buffer; samples older than
	// this are pruned on every append.
	SampleRetentionMS = 65_000

	// emaAlpha is the smoothing factor for every EMA signal.
	emaAlpha = 0.3

	// textHistoryCap bounds the per-participant ring of analyzed utterances.
	textHistoryCap = 20

	// detectionHistoryMS bounds how long fired detections are remembered for
	// anti-spam and message contextualization.
	detectionHistoryMS = 60_000
)

// Sample is one prosody frame. Immutable once appended; arrival order is
// treated as time order.
type Sample struct {
	TS       int64
	Speech   bool
	Valence  *float64
	Arousal  *float64
	RMSDbfs  *float64
	Emotions map[string]float64
}

// EMA holds the exponentially smoothed signals. Every field is nil (or absent
// from the map) until the first sample carrying that signal arrives; from then
// on each update is alpha*new + (1-alpha)*old, per signal and per named
// emotion independently.
type EMA struct {
	Valence  *float64
	Arousal  *float64
	RMSDbfs  *float64
	Emotions map[string]float64
}

// Detection records one fired alert for anti-spam and contextualization.
type Detection struct {
	Type  events.FeedbackType
	TS    int64
	Score float64
}

// TextChunk is one analyzed utterance kept in the bounded text history.
type TextChunk struct {
	Text     string
	TS       int64
	Analysis events.TextAnalysis
}

// TextState holds the latest text-analysis fields plus the bounded history.
type TextState struct {
	LatestSentiment      string
	LatestSentimentScore float64
	LatestKeywords       []string
	LatestSalesCategory  string
	History              []TextChunk // oldest first, capped at textHistoryCap
}

// ParticipantState is the engine's entire memory about one participant of one
// meeting. Exactly one instance exists per (meetingID, participantID) key and
// it is only ever mutated by the ingestion and text-update paths.
type ParticipantState struct {
	MeetingID     string
	ParticipantID string
	Role          events.Role

	Samples []Sample // chronologically non-decreasing, pruned to SampleRetentionMS
	EMA     EMA

	// HasSpoken becomes true on the first speech sample and never resets;
	// silence alerts only make sense for someone who spoke before.
	HasSpoken bool

	CooldownUntil  map[events.FeedbackType]int64
	LastFeedbackAt int64 // 0 = never; drives the cross-type global debounce

	Detections []Detection // recent fired alerts, pruned to detectionHistoryMS

	Text *TextState
}

// applySample appends the sample, prunes the buffer, and folds every present
// signal into the EMA.
func (st *ParticipantState) applySample(s Sample) {
	st.Samples = append(st.Samples, s)
	st.pruneSamples(s.TS)

	if s.Speech {
		st.HasSpoken = true
	}

	st.EMA.Valence = smooth(st.EMA.Valence, s.Valence)
	st.EMA.Arousal = smooth(st.EMA.Arousal, s.Arousal)
	st.EMA.RMSDbfs = smooth(st.EMA.RMSDbfs, s.RMSDbfs)

	if len(s.Emotions) > 0 {
		if st.EMA.Emotions == nil {
			st.EMA.Emotions = make(map[string]float64, len(s.Emotions))
		}
		for name, score := range s.Emotions {
			if prev, ok := st.EMA.Emotions[name]; ok {
				st.EMA.Emotions[name] = emaAlpha*score + (1-emaAlpha)*prev
			} else {
				// First occurrence sets the raw value; smoothing starts
				// from the next observation.
				st.EMA.Emotions[name] = score
			}
		}
	}
}

func (st *ParticipantState) pruneSamples(now int64) {
	cutoff := now - SampleRetentionMS
	i := 0
	for i < len(st.Samples) && st.Samples[i].TS < cutoff {
		i++
	}
	if i > 0 {
		st.Samples = append(st.Samples[:0], st.Samples[i:]...)
	}
}

// applyText folds an analyzed utterance into the text sub-state.
func (st *ParticipantState) applyText(ev events.TextEvent) {
	if st.Text == nil {
		st.Text = &TextState{}
	}
	t := st.Text
	t.LatestSentiment = ev.Analysis.Sentiment
	t.LatestSentimentScore = ev.Analysis.SentimentScore
	t.LatestKeywords = ev.Analysis.Keywords
	if ev.Analysis.SalesCategory != "" {
		t.LatestSalesCategory = ev.Analysis.SalesCategory
	}
	t.History = append(t.History, TextChunk{Text: ev.Text, TS: ev.Timestamp, Analysis: ev.Analysis})
	if len(t.History) > textHistoryCap {
		t.History = append(t.History[:0], t.History[len(t.History)-textHistoryCap:]...)
	}
}

// RecordDetection remembers a fired alert for the anti-spam window.
func (st *ParticipantState) RecordDetection(d Detection) {
	st.Detections = append(st.Detections, d)
	cutoff := d.TS - detectionHistoryMS
	i := 0
	for i < len(st.Detections) && st.Detections[i].TS < cutoff {
		i++
	}
	if i > 0 {
		st.Detections = append(st.Detections[:0], st.Detections[i:]...)
	}
}

// DetectionsSince returns the recorded detections of the given type at or
// after the cutoff, oldest first.
func (st *ParticipantState) DetectionsSince(t events.FeedbackType, since int64) []Detection {
	var out []Detection
	for _, d := range st.Detections {
		if d.Type == t && d.TS >= since {
			out = append(out, d)
		}
	}
	return out
}

// RecentDetectionOfAny reports whether any of the given types fired at or
// after the cutoff.
func (st *ParticipantState) RecentDetectionOfAny(types []events.FeedbackType, since int64) (Detection, bool) {
	for i := len(st.Detections) - 1; i >= 0; i-- {
		d := st.Detections[i]
		if d.TS < since {
			break
		}
		for _, t := range types {
			if d.Type == t {
				return d, true
			}
		}
	}
	return Detection{}, false
}

func smooth(prev, next *float64) *float64 {
	if next == nil {
		return prev
	}
	if prev == nil {
		v := *next
		return &v
	}
	v := emaAlpha*(*next) + (1-emaAlpha)*(*prev)
	return &v
}
