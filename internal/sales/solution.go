package sales

import (
	"fmt"
	"strings"

	"github.com/dfalkner/meetcoach/internal/events"
	"github.com/dfalkner/meetcoach/internal/state"
	"github.com/dfalkner/meetcoach/internal/vector"
)

// Similarity handling for the reformulation check.
const (
	similarityFloor = 0.60
	// Without any keyword overlap the embedding has to carry the whole
	// argument, so the bar rises.
	similarityFloorNoOverlap = 0.72

	// Confidence rescales similarity from this band to 0..1.
	similarityRescaleLow  = 0.55
	similarityRescaleHigh = 0.80
)

// reformulationMarkers are the pt-BR patterns of a speaker paraphrasing what
// they just heard.
var reformulationMarkers = []string{
	"ou seja",
	"se eu entendi",
	"se entendi bem",
	"então você está dizendo",
	"entao voce esta dizendo",
	"quer dizer que",
	"em outras palavras",
	"deixa eu ver se entendi",
	"resumindo",
	"pelo que entendi",
}

func countMarkers(text string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, m := range reformulationMarkers {
		if strings.Contains(lower, m) {
			n++
		}
	}
	return n
}

func speechActScore(act string) float64 {
	switch act {
	case "confirmation", "agreement":
		return 1.0
	case "question", "information_seeking":
		return 0.5
	default:
		return 0
	}
}

// detectSolutionUnderstood fires when a non-host turn reformulates a recent
// explanation: a reformulation marker plus embedding similarity against the
// solution context's centroid, graded into a weighted confidence.
func (a *Analyzer) detectSolutionUnderstood(st *state.ParticipantState, ev events.TextEvent) *events.FeedbackEvent {
	if ev.ParticipantRole == events.RoleHost {
		return nil
	}
	if len(ev.Text) < a.cfg.SolutionMinTextLen {
		return nil
	}
	markers := countMarkers(ev.Text)
	if markers == 0 {
		return nil
	}
	// Cooldown zero disables debouncing entirely, even when a stale unlock
	// stamp is still in memory from an earlier configuration.
	if a.cfg.SolutionCooldown > 0 && st.InCooldown(events.TypeSolutionUnderstood, ev.Timestamp) {
		return nil
	}

	m := a.registry.Meeting(ev.MeetingID)
	entries := m.SolutionContextSince(ev.Timestamp, a.cfg.SolutionContextWindow.Milliseconds())
	if len(entries) == 0 {
		return nil
	}

	embeddings := make([][]float32, 0, len(entries))
	contextKeywords := make(map[string]struct{})
	var strengthSum float64
	for _, e := range entries {
		embeddings = append(embeddings, e.Embedding)
		for k := range e.Keywords {
			contextKeywords[k] = struct{}{}
		}
		strengthSum += e.Strength
	}
	centroid := vector.Centroid(embeddings)
	similarity := vector.Cosine(ev.Analysis.Embedding, centroid)

	overlap := 0
	for _, k := range ev.Analysis.Keywords {
		if _, ok := contextKeywords[strings.ToLower(k)]; ok {
			overlap++
		}
	}

	floor := similarityFloor
	if overlap == 0 {
		floor = similarityFloorNoOverlap
	}
	if similarity < floor {
		return nil
	}

	simScore := clamp01((similarity - similarityRescaleLow) / (similarityRescaleHigh - similarityRescaleLow))
	markerScore := clamp01(float64(markers) / 2.0)
	overlapScore := clamp01(float64(overlap) / 3.0)
	meanStrength := strengthSum / float64(len(entries))

	confidence := simScore*0.45 +
		markerScore*0.20 +
		overlapScore*0.15 +
		meanStrength*0.15 +
		speechActScore(ev.Analysis.SpeechAct)*0.05

	if confidence < a.cfg.SolutionMinConfidence {
		a.logger.Debug("solution understood below confidence",
			"participant", ev.ParticipantID, "confidence", confidence, "similarity", similarity)
		return nil
	}

	st.SetCooldown(events.TypeSolutionUnderstood, ev.Timestamp, a.cfg.SolutionCooldown.Milliseconds())

	name := ev.ParticipantID
	return a.feedback(ev, events.TypeSolutionUnderstood, events.SeverityInfo,
		a.cfg.SolutionContextWindow.Milliseconds(),
		fmt.Sprintf("%s reformulou a solução com as próprias palavras: bom sinal de entendimento.", name),
		[]string{"Confirme o entendimento e avance para o próximo passo da proposta."},
		map[string]any{
			"confidence":     confidence,
			"similarity":     similarity,
			"markers":        markers,
			"keywordOverlap": overlap,
			"contextEntries": len(entries),
		})
}
