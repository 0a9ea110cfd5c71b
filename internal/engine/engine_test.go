package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfalkner/meetcoach/internal/config"
	"github.com/dfalkner/meetcoach/internal/events"
	"github.com/dfalkner/meetcoach/internal/metrics"
)

func engineCfg() *config.Detection {
	return &config.Detection{
		GlobalDebounce:       2 * time.Second,
		LowTensionTightenPct: 20,

		IndecisionEnabled:       true,
		IndecisionCooldown:      120 * time.Second,
		IndecisionMinConfidence: 0.5,

		SolutionEnabled:       true,
		SolutionCooldown:      120 * time.Second,
		SolutionMinConfidence: 0.7,
		SolutionMinTextLen:    40,
		SolutionContextWindow: 90 * time.Second,
	}
}

func angrySample(participant string, role events.Role, ts int64) events.IngestionEvent {
	return events.IngestionEvent{
		MeetingID:       "m1",
		ParticipantID:   participant,
		ParticipantRole: role,
		TS:              ts,
		Prosody: events.Prosody{
			SpeechDetected: true,
			Emotions:       map[string]float64{"anger": 0.5},
		},
	}
}

func TestHandleSampleFiresAndDelivers(t *testing.T) {
	var delivered []events.FeedbackEvent
	e := New(engineCfg(), DeliveryFunc(func(fb events.FeedbackEvent) {
		delivered = append(delivered, fb)
	}), Options{})

	var fb *events.FeedbackEvent
	for ts := int64(0); ts <= 5000; ts += 1000 {
		if got := e.HandleSample(angrySample("p1", events.RoleGuest, ts)); got != nil {
			fb = got
		}
	}

	require.NotNil(t, fb)
	assert.Equal(t, events.TypeHostility, fb.Type)
	require.Len(t, delivered, 1)
	assert.Equal(t, fb.ID, delivered[0].ID)
	assert.NotEmpty(t, delivered[0].ID)
}

func TestHandleSampleDropsHostByDefault(t *testing.T) {
	e := New(engineCfg(), DeliveryFunc(func(events.FeedbackEvent) {}), Options{})

	for ts := int64(0); ts <= 5000; ts += 1000 {
		assert.Nil(t, e.HandleSample(angrySample("host1", events.RoleHost, ts)))
	}
	_, ok := e.Registry().Lookup("m1", "host1")
	assert.False(t, ok, "host samples must not create state")
}

func TestHandleSampleIncludeHost(t *testing.T) {
	cfg := engineCfg()
	cfg.IncludeHost = true
	e := New(cfg, DeliveryFunc(func(events.FeedbackEvent) {}), Options{})

	var fb *events.FeedbackEvent
	for ts := int64(0); ts <= 5000; ts += 1000 {
		if got := e.HandleSample(angrySample("host1", events.RoleHost, ts)); got != nil {
			fb = got
		}
	}
	require.NotNil(t, fb)
	assert.Equal(t, events.TypeHostility, fb.Type)
}

func TestHandleTextCoEmission(t *testing.T) {
	var delivered []events.FeedbackEvent
	e := New(engineCfg(), DeliveryFunc(func(fb events.FeedbackEvent) {
		delivered = append(delivered, fb)
	}), Options{})

	ev := events.TextEvent{
		MeetingID:       "m1",
		ParticipantID:   "guest1",
		ParticipantRole: events.RoleGuest,
		Text:            "Vou pensar com calma e depois a gente decide, pode ser? Se der certo, a gente fecha.",
		Timestamp:       60_000,
		Analysis: events.TextAnalysis{
			SalesCategory:           "indecision",
			SalesCategoryConfidence: 0.9,
			SalesCategoryFlags:      []string{"decision_postponement"},
			SalesCategoryAggregated: &events.CategoryAggregate{
				Category:  "indecision",
				Stability: 0.8,
				Trend:     "stable",
				Chunks:    3,
			},
			IndecisionMetrics: &events.IndecisionMetrics{
				Postponement:        0.8,
				ConditionalLanguage: 0.5,
				LackOfCommitment:    0.7,
			},
		},
	}

	fired := e.HandleText(ev)
	require.Len(t, fired, 1)
	assert.Equal(t, events.TypeClientIndecision, fired[0].Type)
	assert.Len(t, delivered, 1)
}

func TestEndMeetingDropsState(t *testing.T) {
	e := New(engineCfg(), DeliveryFunc(func(events.FeedbackEvent) {}), Options{})

	e.HandleSample(angrySample("p1", events.RoleGuest, 1000))
	_, ok := e.Registry().Lookup("m1", "p1")
	require.True(t, ok)

	e.EndMeeting("m1")
	_, ok = e.Registry().Lookup("m1", "p1")
	assert.False(t, ok)
}

func TestMetricsRecorded(t *testing.T) {
	c := metrics.NewCollector()
	e := New(engineCfg(), DeliveryFunc(func(events.FeedbackEvent) {}), Options{Metrics: c})

	for ts := int64(0); ts <= 5000; ts += 1000 {
		e.HandleSample(angrySample("p1", events.RoleGuest, ts))
	}

	snap := c.Snapshot()
	require.NotNil(t, snap.Ingestion)
	assert.Equal(t, int64(6), snap.Ingestion.Events)
	assert.Equal(t, int64(1), snap.Ingestion.Fired)
	assert.Equal(t, int64(1), snap.FiredByType[string(events.TypeHostility)])
}
