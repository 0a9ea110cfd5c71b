package sales

import (
	"strings"

	"github.com/dfalkner/meetcoach/internal/events"
	"github.com/dfalkner/meetcoach/internal/state"
)

// Solution-context admission: explanation-like turns (mostly the host's) are
// scored and, above a role-dependent strength floor, kept as the semantic
// reference the solution-understood detector compares guest turns against.

// Admission strength floors by role. The asymmetry is deliberate: a guest
// turn has to be unmistakably an explanation to qualify as solution context.
const (
	strengthFloorHost    = 0.5
	strengthFloorUnknown = 0.85
	strengthFloorGuest   = 0.95
)

// explanatoryPhrases are pt-BR markers of an explanation in progress.
var explanatoryPhrases = []string{
	"funciona assim",
	"a solução",
	"a proposta",
	"o que a gente faz",
	"nossa plataforma",
	"isso permite",
	"na prática",
	"por exemplo",
	"o sistema",
	"a ferramenta",
}

// explanatoryCategories are upstream sales categories that indicate the
// speaker is presenting the solution.
var explanatoryCategories = map[string]bool{
	"solution_presentation": true,
	"product_explanation":   true,
	"value_proposition":     true,
	"demo":                  true,
}

func strengthFloor(role events.Role) float64 {
	switch role {
	case events.RoleHost:
		return strengthFloorHost
	case events.RoleGuest:
		return strengthFloorGuest
	default:
		return strengthFloorUnknown
	}
}

// explanationStrength scores how explanation-like a turn is, in [0,1]:
// longer turns, explanatory phrasing and a fitting sales category raise it,
// questions pull it down.
func explanationStrength(ev events.TextEvent) float64 {
	lower := strings.ToLower(ev.Text)

	lengthScore := clamp01(float64(len(ev.Text)) / 200.0)

	hits := 0
	for _, p := range explanatoryPhrases {
		if strings.Contains(lower, p) {
			hits++
		}
	}
	phraseScore := clamp01(float64(hits) / 3.0)

	categoryScore := 0.0
	if explanatoryCategories[ev.Analysis.SalesCategory] {
		categoryScore = 1.0
	}

	questionPenalty := clamp01(float64(strings.Count(ev.Text, "?")) * 0.5)

	return clamp01(0.30*lengthScore + 0.35*phraseScore + 0.25*categoryScore + 0.10 - 0.25*questionPenalty)
}

// observeSolutionContext admits qualifying turns into the meeting's bounded
// context ring. Turns without an embedding carry no semantic reference and
// are skipped.
func (a *Analyzer) observeSolutionContext(ev events.TextEvent) {
	if len(ev.Analysis.Embedding) == 0 {
		return
	}

	strength := explanationStrength(ev)
	if strength < strengthFloor(ev.ParticipantRole) {
		return
	}

	keywords := make(map[string]struct{}, len(ev.Analysis.Keywords))
	for _, k := range ev.Analysis.Keywords {
		keywords[strings.ToLower(k)] = struct{}{}
	}

	m := a.registry.Meeting(ev.MeetingID)
	m.AddSolutionContext(state.SolutionContextEntry{
		TS:            ev.Timestamp,
		ParticipantID: ev.ParticipantID,
		Role:          ev.ParticipantRole,
		Text:          ev.Text,
		Embedding:     ev.Analysis.Embedding,
		Keywords:      keywords,
		Strength:      strength,
	}, a.cfg.SolutionContextWindow.Milliseconds())

	a.logger.Debug("solution context admitted",
		"meeting", ev.MeetingID,
		"participant", ev.ParticipantID,
		"strength", strength,
	)
}
