package state

import (
	"math"
	"testing"

	"github.com/dfalkner/meetcoach/internal/events"
)

func f(v float64) *float64 { return &v }

func sampleEvent(meeting, participant string, ts int64, speech bool) events.IngestionEvent {
	return events.IngestionEvent{
		MeetingID:       meeting,
		ParticipantID:   participant,
		ParticipantRole: events.RoleGuest,
		TS:              ts,
		Prosody:         events.Prosody{SpeechDetected: speech},
	}
}

func TestApplySamplePrunesRetentionHorizon(t *testing.T) {
	r := NewRegistry()
	for ts := int64(0); ts <= 200_000; ts += 1000 {
		r.ApplySample(sampleEvent("m1", "p1", ts, true))
	}

	st, ok := r.Lookup("m1", "p1")
	if !ok {
		t.Fatal("participant state missing")
	}
	now := int64(200_000)
	for _, s := range st.Samples {
		if s.TS < now-SampleRetentionMS {
			t.Errorf("retained sample at ts=%d, older than horizon %d", s.TS, now-SampleRetentionMS)
		}
	}
	if len(st.Samples) == 0 {
		t.Fatal("all samples pruned")
	}
}

func TestEMAFirstSampleIsRaw(t *testing.T) {
	r := NewRegistry()
	ev := sampleEvent("m1", "p1", 1000, true)
	ev.Prosody.Valence = f(0.42)
	ev.Prosody.Emotions = map[string]float64{"interest": 0.17}
	st := r.ApplySample(ev)

	if st.EMA.Valence == nil || *st.EMA.Valence != 0.42 {
		t.Errorf("EMA valence after first sample = %v, want 0.42", st.EMA.Valence)
	}
	if st.EMA.Emotions["interest"] != 0.17 {
		t.Errorf("EMA interest after first sample = %v, want 0.17", st.EMA.Emotions["interest"])
	}
}

func TestEMAConvergesMonotonically(t *testing.T) {
	r := NewRegistry()
	ev := sampleEvent("m1", "p1", 0, true)
	ev.Prosody.Arousal = f(0.0)
	r.ApplySample(ev)

	st, _ := r.Lookup("m1", "p1")
	prevGap := 1.0
	for i := 1; i <= 20; i++ {
		ev := sampleEvent("m1", "p1", int64(i)*1000, true)
		ev.Prosody.Arousal = f(1.0)
		r.ApplySample(ev)

		gap := math.Abs(1.0 - *st.EMA.Arousal)
		if gap >= prevGap {
			t.Fatalf("EMA not converging at step %d: gap %v >= %v", i, gap, prevGap)
		}
		prevGap = gap
	}
	if prevGap > 0.01 {
		t.Errorf("EMA gap after 20 constant samples = %v, want near 0", prevGap)
	}
}

func TestEMAUnsetSignalStaysNil(t *testing.T) {
	r := NewRegistry()
	st := r.ApplySample(sampleEvent("m1", "p1", 0, true))
	if st.EMA.Valence != nil || st.EMA.Arousal != nil || st.EMA.RMSDbfs != nil {
		t.Error("EMA fields set without any observation")
	}
}

func TestCooldownBoundary(t *testing.T) {
	r := NewRegistry()
	st := r.Participant("m1", "p1")

	st.SetCooldown(events.TypeMonotony, 10_000, 5000)

	if !st.InCooldown(events.TypeMonotony, 14_999) {
		t.Error("expected cooldown at t=14999")
	}
	if st.InCooldown(events.TypeMonotony, 15_000) {
		t.Error("expected unlock at t=15000")
	}
	if st.LastFeedbackAt != 10_000 {
		t.Errorf("LastFeedbackAt = %d, want 10000", st.LastFeedbackAt)
	}
}

func TestMeetingCooldownIndependentOfParticipant(t *testing.T) {
	r := NewRegistry()
	m := r.Meeting("m1")
	st := r.Participant("m1", "p1")

	m.SetCooldown(events.TypePolarization, 0, 30_000)
	if st.InCooldown(events.TypePolarization, 1000) {
		t.Error("meeting cooldown leaked into participant scope")
	}
	if !m.InCooldown(events.TypePolarization, 1000) {
		t.Error("expected meeting cooldown active")
	}
}

func TestWindowStats(t *testing.T) {
	r := NewRegistry()
	for ts := int64(0); ts < 20_000; ts += 1000 {
		ev := sampleEvent("m1", "p1", ts, ts%2000 == 0)
		ev.Signal = &events.Signal{RMSDbfs: f(-30)}
		r.ApplySample(ev)
	}
	st, _ := r.Lookup("m1", "p1")

	w := Window(st, 19_000, 10_000)
	if w.Samples != 11 {
		t.Errorf("Samples = %d, want 11", w.Samples)
	}
	if w.SpeechCount != 5 {
		t.Errorf("SpeechCount = %d, want 5", w.SpeechCount)
	}
	if w.MeanRMSDbfs == nil || *w.MeanRMSDbfs != -30 {
		t.Errorf("MeanRMSDbfs = %v, want -30", w.MeanRMSDbfs)
	}
	if got := w.Coverage(); math.Abs(got-5.0/11.0) > 1e-9 {
		t.Errorf("Coverage = %v, want %v", got, 5.0/11.0)
	}
}

func TestTextHistoryCapped(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 30; i++ {
		r.ApplyText(events.TextEvent{
			MeetingID:     "m1",
			ParticipantID: "p1",
			Text:          "chunk",
			Timestamp:     int64(i) * 1000,
		})
	}
	st, _ := r.Lookup("m1", "p1")
	if len(st.Text.History) != textHistoryCap {
		t.Errorf("history length = %d, want %d", len(st.Text.History), textHistoryCap)
	}
	if st.Text.History[0].TS != 10_000 {
		t.Errorf("oldest retained chunk ts = %d, want 10000", st.Text.History[0].TS)
	}
}

func TestEndMeetingDropsState(t *testing.T) {
	r := NewRegistry()
	r.ApplySample(sampleEvent("m1", "p1", 0, true))
	r.EndMeeting("m1")
	if _, ok := r.Lookup("m1", "p1"); ok {
		t.Error("state survived EndMeeting")
	}
}

func TestSweepIdle(t *testing.T) {
	r := NewRegistry()
	r.ApplySample(sampleEvent("m1", "p1", 0, true))
	r.ApplySample(sampleEvent("m2", "p1", 90_000, true))

	swept := r.SweepIdle(100_000, 60_000)
	if len(swept) != 1 || swept[0] != "m1" {
		t.Errorf("swept = %v, want [m1]", swept)
	}
	if _, ok := r.Lookup("m2", "p1"); !ok {
		t.Error("active meeting swept")
	}
}

func TestSolutionContextRingBounds(t *testing.T) {
	m := NewRegistry().Meeting("m1")
	for i := 0; i < 20; i++ {
		m.AddSolutionContext(SolutionContextEntry{TS: int64(i) * 1000, Text: "x"}, 90_000)
	}
	if len(m.SolutionContext) != solutionContextCap {
		t.Errorf("ring length = %d, want %d", len(m.SolutionContext), solutionContextCap)
	}

	// Entries beyond the time window drop out even under the cap.
	m2 := NewRegistry().Meeting("m2")
	m2.AddSolutionContext(SolutionContextEntry{TS: 0}, 90_000)
	m2.AddSolutionContext(SolutionContextEntry{TS: 100_000}, 90_000)
	if len(m2.SolutionContext) != 1 {
		t.Errorf("expired entry retained: %d entries", len(m2.SolutionContext))
	}
}
