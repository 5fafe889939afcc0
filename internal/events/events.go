/*

This file contains the notification sink: a fire-and-forget side
channel for structured events. Core logic never branches on whether
delivery succeeded; sink implementations swallow their own failures.

*/

package events

import (
	"github.com/sip-protocol/farmd/internal/logger"
	"github.com/sip-protocol/farmd/internal/types"
)

// Sink receives emitted events. Emit must never fail into the caller.
type Sink interface {
	Emit(event types.Event)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Emit(types.Event) {}

// LogSink writes events to the structured log.
type LogSink struct{}

func (LogSink) Emit(event types.Event) {
	eventLogger := logger.GetForComponent("events")
	entry := eventLogger.Info().
		Str("kind", string(event.Kind)).
		Str("trace_id", event.TraceID).
		Str("account", event.Account).
		Uint64("pool_index", uint64(event.PoolIndex))
	if !event.Amount.IsNil() {
		entry = entry.Str("amount", event.Amount.String())
	}
	if !event.Reward.IsNil() {
		entry = entry.Str("reward", event.Reward.String())
	}
	if event.Identity != "" {
		entry = entry.Str("identity", event.Identity)
	}
	entry.Msg("event emitted")
}

// Multi fans an event out to several sinks.
type Multi []Sink

func (m Multi) Emit(event types.Event) {
	for _, sink := range m {
		sink.Emit(event)
	}
}

// Recorder keeps every emitted event in memory. Used by tests and by
// the web API's recent-events view.
type Recorder struct {
	Events []types.Event
	limit  int
}

// NewRecorder creates a recorder retaining at most limit events
// (0 means unbounded).
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

func (r *Recorder) Emit(event types.Event) {
	r.Events = append(r.Events, event)
	if r.limit > 0 && len(r.Events) > r.limit {
		r.Events = r.Events[len(r.Events)-r.limit:]
	}
}

// Recent returns up to n most recent events, newest last.
func (r *Recorder) Recent(n int) []types.Event {
	if n <= 0 || n >= len(r.Events) {
		n = len(r.Events)
	}
	out := make([]types.Event, n)
	copy(out, r.Events[len(r.Events)-n:])
	return out
}
