package sales

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfalkner/meetcoach/internal/config"
	"github.com/dfalkner/meetcoach/internal/events"
	"github.com/dfalkner/meetcoach/internal/state"
)

func salesCfg() *config.Detection {
	return &config.Detection{
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

const hostPitch = "Funciona assim: a solução conecta o seu CRM com a nossa plataforma e " +
	"sincroniza os contatos automaticamente, sem planilha, sem retrabalho, e o seu time " +
	"passa a ver o histórico completo de cada cliente em um lugar só."

func hostExplanation(ts int64, embedding []float32) events.TextEvent {
	return events.TextEvent{
		MeetingID:       "m1",
		ParticipantID:   "host1",
		ParticipantRole: events.RoleHost,
		Text:            hostPitch,
		Timestamp:       ts,
		Analysis: events.TextAnalysis{
			SalesCategory: "solution_presentation",
			Keywords:      []string{"CRM", "plataforma"},
			Embedding:     embedding,
		},
	}
}

func guestReformulation(ts int64, embedding []float32) events.TextEvent {
	return events.TextEvent{
		MeetingID:       "m1",
		ParticipantID:   "guest1",
		ParticipantRole: events.RoleGuest,
		Text:            "Ou seja, o crm fica sincronizado sozinho e a gente para de usar planilha, é isso?",
		Timestamp:       ts,
		Analysis: events.TextAnalysis{
			SpeechAct: "confirmation",
			Keywords:  []string{"crm"},
			Embedding: embedding,
		},
	}
}

func TestSolutionUnderstoodFires(t *testing.T) {
	r := state.NewRegistry()
	a := NewAnalyzer(salesCfg(), r, func() string { return "id-1" }, nil)

	a.Observe(hostExplanation(0, []float32{1, 0, 0}))

	ev := guestReformulation(10_000, []float32{1, 0, 0})
	st := r.ApplyText(ev)
	out := a.Run(st, ev)

	require.Len(t, out, 1)
	fb := out[0]
	assert.Equal(t, events.TypeSolutionUnderstood, fb.Type)
	assert.Equal(t, events.SeverityInfo, fb.Severity)
	assert.Equal(t, "guest1", fb.ParticipantID)
	assert.InDelta(t, 0.80, fb.Metadata["confidence"].(float64), 0.02)
	assert.Equal(t, 1, fb.Metadata["keywordOverlap"])
}

func TestSolutionUnderstoodOrthogonalEmbedding(t *testing.T) {
	r := state.NewRegistry()
	a := NewAnalyzer(salesCfg(), r, nil, nil)

	a.Observe(hostExplanation(0, []float32{1, 0, 0}))

	ev := guestReformulation(10_000, []float32{0, 1, 0})
	st := r.ApplyText(ev)

	assert.Empty(t, a.Run(st, ev))
}

func TestSolutionUnderstoodContextExpires(t *testing.T) {
	r := state.NewRegistry()
	a := NewAnalyzer(salesCfg(), r, nil, nil)

	a.Observe(hostExplanation(0, []float32{1, 0, 0}))

	// 100s later the 90s context window is empty.
	ev := guestReformulation(100_000, []float32{1, 0, 0})
	st := r.ApplyText(ev)

	assert.Empty(t, a.Run(st, ev))
}

func TestSolutionUnderstoodRequiresMarker(t *testing.T) {
	r := state.NewRegistry()
	a := NewAnalyzer(salesCfg(), r, nil, nil)

	a.Observe(hostExplanation(0, []float32{1, 0, 0}))

	ev := guestReformulation(10_000, []float32{1, 0, 0})
	ev.Text = "Entendi, o crm fica sincronizado sozinho e a gente para de usar a planilha."
	st := r.ApplyText(ev)

	assert.Empty(t, a.Run(st, ev))
}

func TestSolutionUnderstoodIgnoresHostTurns(t *testing.T) {
	r := state.NewRegistry()
	a := NewAnalyzer(salesCfg(), r, nil, nil)

	a.Observe(hostExplanation(0, []float32{1, 0, 0}))

	ev := guestReformulation(10_000, []float32{1, 0, 0})
	ev.ParticipantID = "host1"
	ev.ParticipantRole = events.RoleHost
	st := r.ApplyText(ev)

	assert.Empty(t, a.Run(st, ev))
}

func TestSolutionContextGuestAdmissionFloor(t *testing.T) {
	r := state.NewRegistry()
	a := NewAnalyzer(salesCfg(), r, nil, nil)

	// Without the classifier backing, the pitch scores around 0.75: enough
	// for the 0.5 host floor, not for the 0.95 guest floor.
	ev := hostExplanation(0, []float32{1, 0, 0})
	ev.Analysis.SalesCategory = ""
	ev.ParticipantID = "guest2"
	ev.ParticipantRole = events.RoleGuest
	a.Observe(ev)
	assert.Empty(t, r.Meeting("m1").SolutionContext)

	host := hostExplanation(0, []float32{1, 0, 0})
	host.Analysis.SalesCategory = ""
	a.Observe(host)
	assert.Len(t, r.Meeting("m1").SolutionContext, 1)
}

func TestSolutionContextSkipsTurnsWithoutEmbedding(t *testing.T) {
	r := state.NewRegistry()
	a := NewAnalyzer(salesCfg(), r, nil, nil)

	a.Observe(hostExplanation(0, nil))

	assert.Empty(t, r.Meeting("m1").SolutionContext)
}

func TestSolutionCooldownZeroBypassesStaleStamp(t *testing.T) {
	cfg := salesCfg()
	cfg.SolutionCooldown = 0
	r := state.NewRegistry()
	a := NewAnalyzer(cfg, r, nil, nil)

	a.Observe(hostExplanation(0, []float32{1, 0, 0}))

	ev := guestReformulation(10_000, []float32{1, 0, 0})
	st := r.ApplyText(ev)
	// Stale unlock stamp from an earlier configuration must be ignored.
	st.SetCooldown(events.TypeSolutionUnderstood, 9000, 300_000)

	out := a.Run(st, ev)
	require.Len(t, out, 1)
	assert.Equal(t, events.TypeSolutionUnderstood, out[0].Type)
}

func indecisionEvent(ts int64) events.TextEvent {
	return events.TextEvent{
		MeetingID:       "m1",
		ParticipantID:   "guest1",
		ParticipantRole: events.RoleGuest,
		Text:            "Vou pensar com calma e depois a gente decide, pode ser? Se der certo, a gente fecha.",
		Timestamp:       ts,
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
}

func TestIndecisionFires(t *testing.T) {
	r := state.NewRegistry()
	a := NewAnalyzer(salesCfg(), r, nil, nil)

	ev := indecisionEvent(60_000)
	st := r.ApplyText(ev)
	out := a.Run(st, ev)

	require.Len(t, out, 1)
	fb := out[0]
	assert.Equal(t, events.TypeClientIndecision, fb.Type)
	assert.Equal(t, events.SeverityWarning, fb.Severity)
	assert.Equal(t, 3, fb.Metadata["patterns"])
	assert.Equal(t, true, fb.Metadata["temporalConsistency"])
	assert.NotEmpty(t, fb.Metadata["phrases"])
	assert.InDelta(t, 0.88, fb.Metadata["confidence"].(float64), 0.02)
}

func TestIndecisionCooldownSuppressesRepeat(t *testing.T) {
	r := state.NewRegistry()
	a := NewAnalyzer(salesCfg(), r, nil, nil)

	first := indecisionEvent(60_000)
	st := r.ApplyText(first)
	require.Len(t, a.Run(st, first), 1)

	second := indecisionEvent(70_000)
	r.ApplyText(second)
	assert.Empty(t, a.Run(st, second))
}

func TestIndecisionCooldownZeroRefires(t *testing.T) {
	cfg := salesCfg()
	cfg.IndecisionCooldown = 0
	r := state.NewRegistry()
	a := NewAnalyzer(cfg, r, nil, nil)

	first := indecisionEvent(60_000)
	st := r.ApplyText(first)
	require.Len(t, a.Run(st, first), 1)

	second := indecisionEvent(61_000)
	r.ApplyText(second)
	out := a.Run(st, second)
	require.Len(t, out, 1)
	assert.Equal(t, events.TypeClientIndecision, out[0].Type)
}

func TestIndecisionRequiresPattern(t *testing.T) {
	r := state.NewRegistry()
	a := NewAnalyzer(salesCfg(), r, nil, nil)

	ev := events.TextEvent{
		MeetingID:       "m1",
		ParticipantID:   "guest1",
		ParticipantRole: events.RoleGuest,
		Text:            "O preço está dentro do que a gente esperava.",
		Timestamp:       60_000,
		Analysis: events.TextAnalysis{
			SalesCategory:           "pricing",
			SalesCategoryConfidence: 0.9,
		},
	}
	st := r.ApplyText(ev)

	assert.Empty(t, a.Run(st, ev))
}

func TestIndecisionBelowConfidence(t *testing.T) {
	r := state.NewRegistry()
	a := NewAnalyzer(salesCfg(), r, nil, nil)

	// A single weak pattern with no aggregate backing stays under the bar.
	ev := events.TextEvent{
		MeetingID:       "m1",
		ParticipantID:   "guest1",
		ParticipantRole: events.RoleGuest,
		Text:            "Se a diretoria aprovar, a gente avança.",
		Timestamp:       60_000,
		Analysis: events.TextAnalysis{
			SalesCategory:               "objection",
			ConditionalKeywordsDetected: []string{"se"},
		},
	}
	st := r.ApplyText(ev)

	assert.Empty(t, a.Run(st, ev))
}
