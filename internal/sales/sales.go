// Package sales implements the text-analysis detectors: client indecision and
// solution-understood. They run independently of the prosody pipeline and may
// co-emit alongside it.
package sales

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/dfalkner/meetcoach/internal/config"
	"github.com/dfalkner/meetcoach/internal/events"
	"github.com/dfalkner/meetcoach/internal/state"
)

// indecisionCategory is the upstream classifier's label for undecided-client
// utterances.
const indecisionCategory = "indecision"

// Analyzer evaluates analyzed utterances against the sales detectors.
type Analyzer struct {
	cfg      *config.Detection
	registry *state.Registry
	newID    func() string
	logger   *slog.Logger
}

// NewAnalyzer creates the analyzer. newID may be nil (defaults to uuid).
func NewAnalyzer(cfg *config.Detection, registry *state.Registry, newID func() string, logger *slog.Logger) *Analyzer {
	if newID == nil {
		newID = uuid.NewString
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{cfg: cfg, registry: registry, newID: newID, logger: logger}
}

// Observe feeds every utterance through the solution-context admission before
// detection runs, so a host explanation in this very turn is available to the
// next guest turn, never to its own.
func (a *Analyzer) Observe(ev events.TextEvent) {
	a.observeSolutionContext(ev)
}

// Run evaluates both sales detectors for the utterance. Either, both, or
// neither may emit.
func (a *Analyzer) Run(st *state.ParticipantState, ev events.TextEvent) []*events.FeedbackEvent {
	var out []*events.FeedbackEvent
	if a.cfg.IndecisionEnabled {
		if fb := a.detectIndecision(st, ev); fb != nil {
			out = append(out, fb)
		}
	}
	if a.cfg.SolutionEnabled {
		if fb := a.detectSolutionUnderstood(st, ev); fb != nil {
			out = append(out, fb)
		}
	}
	return out
}

func (a *Analyzer) feedback(ev events.TextEvent, t events.FeedbackType, sev events.Severity, windowMS int64, msg string, tips []string, meta map[string]any) *events.FeedbackEvent {
	return &events.FeedbackEvent{
		ID:            a.newID(),
		Type:          t,
		Severity:      sev,
		TS:            ev.Timestamp,
		MeetingID:     ev.MeetingID,
		ParticipantID: ev.ParticipantID,
		Window:        events.Window{Start: ev.Timestamp - windowMS, End: ev.Timestamp},
		Message:       msg,
		Tips:          tips,
		Metadata:      meta,
	}
}

// clamp01 bounds a score to [0,1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
