package sales

import (
	"fmt"

	"github.com/dfalkner/meetcoach/internal/events"
	"github.com/dfalkner/meetcoach/internal/state"
)

// Client-indecision detection: three boolean patterns, each derivable from an
// upstream flag, a contextual rule over the aggregated category, or a numeric
// metric, folded into a weighted confidence.

const (
	postponementMetricMin = 0.6
	conditionalMetricMin  = 0.4
	commitmentMetricMin   = 0.6

	// temporalConsistency requirements over the trailing minute of chunks.
	consistencyWindowMS   = 60_000
	consistencyRatio      = 0.70
	consistencyConfidence = 0.60
	consistencyStability  = 0.50

	maxRepresentativePhrases = 5
	phraseSnippetLen         = 120
)

// Confidence weights, summing to 1.
const (
	weightPatterns      = 0.30
	weightMetrics       = 0.25
	weightStability     = 0.15
	weightTrend         = 0.10
	weightVolume        = 0.10
	weightCategoryRatio = 0.05
	weightConsistency   = 0.05
)

func hasFlag(flags []string, name string) bool {
	for _, f := range flags {
		if f == name {
			return true
		}
	}
	return false
}

func trendStrength(trend string) float64 {
	switch trend {
	case "stable":
		return 1.0
	case "rising":
		return 0.5
	default:
		return 0
	}
}

// indecisionPatterns evaluates the three patterns for this utterance.
func indecisionPatterns(ev events.TextEvent) (postponement, conditional, commitment bool) {
	an := ev.Analysis
	agg := an.SalesCategoryAggregated
	var metrics events.IndecisionMetrics
	if an.IndecisionMetrics != nil {
		metrics = *an.IndecisionMetrics
	}

	postponement = hasFlag(an.SalesCategoryFlags, "decision_postponement") ||
		(agg != nil && agg.Category == indecisionCategory && agg.Stability >= 0.5 && agg.Trend != "falling") ||
		metrics.Postponement >= postponementMetricMin

	conditional = hasFlag(an.SalesCategoryFlags, "conditional_language") ||
		len(an.ConditionalKeywordsDetected) > 0 ||
		metrics.ConditionalLanguage >= conditionalMetricMin

	commitment = hasFlag(an.SalesCategoryFlags, "lack_of_commitment") ||
		(agg != nil && agg.Category == indecisionCategory && agg.Trend == "rising" && agg.Velocity < 1.0) ||
		metrics.LackOfCommitment >= commitmentMetricMin

	return postponement, conditional, commitment
}

// temporallyConsistent reports whether the trailing minute of chunks reads as
// sustained indecision rather than a one-off phrase.
func temporallyConsistent(st *state.ParticipantState, ev events.TextEvent) bool {
	agg := ev.Analysis.SalesCategoryAggregated
	if agg == nil || agg.Stability < consistencyStability || agg.Trend != "stable" {
		return false
	}
	if st.Text == nil {
		return false
	}

	total, indecisive := 0, 0
	for _, c := range st.Text.History {
		if ev.Timestamp-c.TS > consistencyWindowMS {
			continue
		}
		total++
		if c.Analysis.SalesCategory == indecisionCategory &&
			c.Analysis.SalesCategoryConfidence >= consistencyConfidence {
			indecisive++
		}
	}
	return total > 0 && float64(indecisive)/float64(total) >= consistencyRatio
}

// representativePhrases picks up to five historical indecision utterances to
// attach as evidence, falling back to a snippet of the current text.
func representativePhrases(st *state.ParticipantState, ev events.TextEvent) []string {
	var phrases []string
	if st.Text != nil {
		for i := len(st.Text.History) - 1; i >= 0 && len(phrases) < maxRepresentativePhrases; i-- {
			c := st.Text.History[i]
			if c.Analysis.SalesCategory != indecisionCategory ||
				c.Analysis.SalesCategoryConfidence < consistencyConfidence {
				continue
			}
			phrases = append(phrases, snippet(c.Text))
		}
	}
	if len(phrases) == 0 {
		phrases = append(phrases, snippet(ev.Text))
	}
	return phrases
}

func snippet(text string) string {
	if len(text) <= phraseSnippetLen {
		return text
	}
	return text[:phraseSnippetLen] + "..."
}

func (a *Analyzer) detectIndecision(st *state.ParticipantState, ev events.TextEvent) *events.FeedbackEvent {
	an := ev.Analysis
	agg := an.SalesCategoryAggregated

	// At least one analyzed chunk must carry a sales category.
	chunks := 0
	if agg != nil {
		chunks = agg.Chunks
	}
	if chunks == 0 && an.SalesCategory != "" {
		chunks = 1
	}
	if chunks == 0 {
		return nil
	}

	if a.cfg.IndecisionCooldown > 0 && st.InCooldown(events.TypeClientIndecision, ev.Timestamp) {
		return nil
	}

	postponement, conditional, commitment := indecisionPatterns(ev)
	detected := 0
	for _, p := range []bool{postponement, conditional, commitment} {
		if p {
			detected++
		}
	}
	if detected == 0 {
		return nil
	}

	var maxMetric float64
	if an.IndecisionMetrics != nil {
		maxMetric = max(an.IndecisionMetrics.Postponement,
			max(an.IndecisionMetrics.ConditionalLanguage, an.IndecisionMetrics.LackOfCommitment))
	}

	var stability, trendScore float64
	if agg != nil {
		stability = agg.Stability
		trendScore = trendStrength(agg.Trend)
	}
	volumeScore := clamp01(float64(chunks) / 5.0)

	// Fraction of the retained history classified as indecision.
	categoryRatio := 0.0
	if st.Text != nil && len(st.Text.History) > 0 {
		n := 0
		for _, c := range st.Text.History {
			if c.Analysis.SalesCategory == indecisionCategory {
				n++
			}
		}
		categoryRatio = float64(n) / float64(len(st.Text.History))
	}

	consistent := temporallyConsistent(st, ev)
	consistencyScore := 0.0
	if consistent {
		consistencyScore = 1.0
	}

	confidence := (float64(detected)/3.0)*weightPatterns +
		maxMetric*weightMetrics +
		stability*weightStability +
		trendScore*weightTrend +
		volumeScore*weightVolume +
		categoryRatio*weightCategoryRatio +
		consistencyScore*weightConsistency

	if confidence < a.cfg.IndecisionMinConfidence {
		a.logger.Debug("indecision below confidence",
			"participant", ev.ParticipantID, "confidence", confidence, "patterns", detected)
		return nil
	}

	st.SetCooldown(events.TypeClientIndecision, ev.Timestamp, a.cfg.IndecisionCooldown.Milliseconds())

	return a.feedback(ev, events.TypeClientIndecision, events.SeverityWarning,
		consistencyWindowMS,
		fmt.Sprintf("O cliente demonstra sinais de indecisão (%d padrões detectados).", detected),
		[]string{
			"Pergunte diretamente qual ponto ainda gera dúvida.",
			"Resuma o valor já validado antes de pedir uma decisão.",
		},
		map[string]any{
			"confidence":          confidence,
			"patterns":            detected,
			"postponement":        postponement,
			"conditionalLanguage": conditional,
			"lackOfCommitment":    commitment,
			"temporalConsistency": consistent,
			"phrases":             representativePhrases(st, ev),
		})
}
