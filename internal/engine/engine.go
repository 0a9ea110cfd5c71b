// Package engine wires the registry, the four-layer pipeline, and the sales
// analyzer into the two inbound event handlers and fans fired alerts out to
// the delivery collaborator.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dfalkner/meetcoach/internal/config"
	"github.com/dfalkner/meetcoach/internal/detect"
	"github.com/dfalkner/meetcoach/internal/events"
	"github.com/dfalkner/meetcoach/internal/metrics"
	"github.com/dfalkner/meetcoach/internal/sales"
	"github.com/dfalkner/meetcoach/internal/state"
)

// slowEventThreshold marks event handling worth a WARN log.
const slowEventThreshold = 50 * time.Millisecond

// Delivery receives fired alerts, keyed by meeting. Implementations must not
// block; the engine calls them inline.
type Delivery interface {
	Deliver(fb events.FeedbackEvent)
}

// DeliveryFunc adapts a function to Delivery.
type DeliveryFunc func(fb events.FeedbackEvent)

func (f DeliveryFunc) Deliver(fb events.FeedbackEvent) { f(fb) }

// Options carries the optional engine collaborators.
type Options struct {
	Directory detect.Directory // nil degrades messages to participant ids
	NewID     func() string    // nil defaults to uuid
	Metrics   *metrics.Collector
	Logger    *slog.Logger
}

// Engine processes inbound events run-to-completion. A single mutex
// serializes all handlers: the prosody stream and the text stream for the
// same participant mutate the same state, and the detection pass itself is
// bounded, in-memory work, so one writer at a time is both correct and cheap.
type Engine struct {
	mu sync.Mutex

	cfg      *config.Detection
	registry *state.Registry
	pipeline *detect.Pipeline
	analyzer *sales.Analyzer
	delivery Delivery

	directory detect.Directory
	newID     func() string
	collector *metrics.Collector
	logger    *slog.Logger
}

// New creates an engine with its own registry.
func New(cfg *config.Detection, delivery Delivery, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := state.NewRegistry()
	return &Engine{
		cfg:       cfg,
		registry:  registry,
		pipeline:  detect.NewPipeline(),
		analyzer:  sales.NewAnalyzer(cfg, registry, opts.NewID, logger),
		delivery:  delivery,
		directory: opts.Directory,
		newID:     opts.NewID,
		collector: opts.Metrics,
		logger:    logger,
	}
}

func (e *Engine) context(meetingID, participantID string, now int64) *detect.Context {
	return &detect.Context{
		MeetingID:     meetingID,
		ParticipantID: participantID,
		Now:           now,
		Registry:      e.registry,
		Cfg:           e.cfg,
		Directory:     e.directory,
		NewID:         e.newID,
		Logger:        e.logger,
	}
}

// HandleSample processes one prosody frame: state update, then the four-layer
// pipeline. At most one alert per tick.
func (e *Engine) HandleSample(ev events.IngestionEvent) *events.FeedbackEvent {
	if ev.ParticipantRole == events.RoleHost && !e.cfg.IncludeHost {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	st := e.registry.ApplySample(ev)
	fb := e.pipeline.Run(st, e.context(ev.MeetingID, ev.ParticipantID, ev.TS))

	if fb != nil {
		e.finish(metrics.StreamIngestion, start, []*events.FeedbackEvent{fb})
		e.delivery.Deliver(*fb)
	} else {
		e.finish(metrics.StreamIngestion, start, nil)
	}
	return fb
}

// HandleText processes one analyzed utterance: text-state update and solution
// context admission, a re-run of the four layers (the emotional picture may
// have shifted), and the independent sales layer, which may co-emit.
func (e *Engine) HandleText(ev events.TextEvent) []*events.FeedbackEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	st := e.registry.ApplyText(ev)
	e.analyzer.Observe(ev)

	var fired []*events.FeedbackEvent
	if fb := e.pipeline.Run(st, e.context(ev.MeetingID, ev.ParticipantID, ev.Timestamp)); fb != nil {
		fired = append(fired, fb)
	}
	fired = append(fired, e.analyzer.Run(st, ev)...)

	e.finish(metrics.StreamText, start, fired)
	for _, fb := range fired {
		e.delivery.Deliver(*fb)
	}
	return fired
}

func (e *Engine) finish(stream string, start time.Time, fired []*events.FeedbackEvent) {
	elapsed := time.Since(start)
	if e.collector != nil {
		types := make([]events.FeedbackType, 0, len(fired))
		for _, fb := range fired {
			types = append(types, fb.Type)
		}
		e.collector.RecordEvent(stream, elapsed, types)
	}
	if elapsed > slowEventThreshold {
		e.logger.Warn("slow event handling", "stream", stream, "duration_ms", elapsed.Milliseconds())
	}
}

// EndMeeting drops all engine state for the meeting. Lifecycle hook for the
// transport layer's end-of-meeting signal.
func (e *Engine) EndMeeting(meetingID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.registry.EndMeeting(meetingID)
	e.logger.Info("meeting ended", "meeting", meetingID)
}

// RunSweeper evicts meetings idle beyond the TTL until the context is
// cancelled. Safety net for meetings that never signal their end.
func (e *Engine) RunSweeper(ctx context.Context) {
	interval := e.cfg.SweepInterval
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			e.mu.Lock()
			swept := e.registry.SweepIdle(now.UnixMilli(), e.cfg.MeetingIdleTTL.Milliseconds())
			e.mu.Unlock()
			for _, id := range swept {
				e.logger.Info("idle meeting evicted", "meeting", id)
			}
		}
	}
}

// Registry exposes the engine's registry for replay tooling and tests.
func (e *Engine) Registry() *state.Registry {
	return e.registry
}
