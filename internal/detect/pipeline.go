package detect

import (
	"github.com/dfalkner/meetcoach/internal/events"
	"github.com/dfalkner/meetcoach/internal/state"
)

// DetectorFunc inspects a participant's state and either returns a feedback
// payload or nil. Nil means "rules did not match" — insufficient data is
// never an error.
type DetectorFunc func(st *state.ParticipantState, ctx *Context) *events.FeedbackEvent

// Detector is a named rule. The name keeps ordering inspectable and shows up
// in logs and metrics.
type Detector struct {
	Name string
	Run  DetectorFunc
}

// Layer is an ordered list of detectors; the first non-nil result wins.
type Layer struct {
	Name      string
	Detectors []Detector
}

// Run evaluates the layer's detectors in order and returns the first match.
func (l Layer) Run(st *state.ParticipantState, ctx *Context) (*events.FeedbackEvent, string) {
	for _, d := range l.Detectors {
		if fb := d.Run(st, ctx); fb != nil {
			return fb, d.Name
		}
	}
	return nil, ""
}

// Pipeline is the four-layer detection chain. Layers short-circuit: one
// ingestion tick yields at most one payload, and an earlier layer's match
// prevents every later detector from running.
type Pipeline struct {
	Layers []Layer
}

// NewPipeline builds the standard layer ordering.
func NewPipeline() *Pipeline {
	return &Pipeline{
		Layers: []Layer{
			{Name: "primary", Detectors: []Detector{
				{Name: "hostility", Run: detectHostility},
				{Name: "frustration", Run: detectFrustration},
				{Name: "sadness", Run: detectSadness},
				{Name: "boredom", Run: detectBoredom},
				{Name: "confusion", Run: detectConfusion},
				{Name: "engagement", Run: detectEngagement},
				{Name: "serenity", Run: detectSerenity},
				{Name: "connection", Run: detectConnection},
				{Name: "mental-state", Run: detectMentalState},
			}},
			{Name: "meta", Detectors: []Detector{
				{Name: "frustration-trend", Run: detectFrustrationTrend},
				{Name: "post-interruption", Run: detectPostInterruption},
				{Name: "polarization", Run: detectPolarization},
			}},
			{Name: "prosody", Detectors: []Detector{
				{Name: "volume", Run: detectVolume},
				{Name: "monotony", Run: detectMonotony},
				{Name: "pace", Run: detectPace},
				{Name: "arousal-fallback", Run: detectArousalFallback},
				{Name: "valence-fallback", Run: detectValenceFallback},
				{Name: "group-energy", Run: detectGroupEnergy},
			}},
			{Name: "longterm", Detectors: []Detector{
				{Name: "silence", Run: detectSilence},
				{Name: "overlap", Run: detectOverlap},
				{Name: "interruption-frequency", Run: detectInterruptionFrequency},
			}},
		},
	}
}

// Run executes the pipeline for one ingestion tick. The cross-type global
// debounce gates the whole chain; a fired payload is recorded on the state
// for the anti-spam history before being returned.
func (p *Pipeline) Run(st *state.ParticipantState, ctx *Context) *events.FeedbackEvent {
	if st.InGlobalDebounce(ctx.Now, ctx.Cfg.GlobalDebounce.Milliseconds()) {
		return nil
	}

	for _, layer := range p.Layers {
		fb, name := layer.Run(st, ctx)
		if fb == nil {
			continue
		}
		score, _ := fb.Metadata["score"].(float64)
		st.RecordDetection(state.Detection{Type: fb.Type, TS: ctx.Now, Score: score})
		ctx.log().Info("detector fired",
			"layer", layer.Name,
			"detector", name,
			"type", fb.Type,
			"severity", fb.Severity,
			"meeting", ctx.MeetingID,
			"participant", fb.ParticipantID,
		)
		return fb
	}
	return nil
}
