// Package metrics defines the sink interfaces the engine records into.
// Implementations live under infra/metrics.
package metrics

import (
	"time"

	"github.com/voltonic/campusgrid/core/model"
)

// RoomTelemetry is one per-room reading recorded after a tick.
type RoomTelemetry struct {
	RoomID     string
	BuildingID string
	Source     model.Source
	LoadKW     float64
	Occupied   bool
	Optimized  bool
	Time       time.Time
}

// Sink records engine output for observability purposes.
type Sink interface {
	RecordTelemetry(readings []RoomTelemetry) error
	RecordAction(entry model.ActionEntry) error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordTelemetry([]RoomTelemetry) error { return nil }
func (NopSink) RecordAction(model.ActionEntry) error  { return nil }

// MultiSink fans records out to several sinks, returning the first error.
type MultiSink struct{ sinks []Sink }

// NewMultiSink combines sinks into one.
func NewMultiSink(sinks ...Sink) *MultiSink { return &MultiSink{sinks: sinks} }

func (m *MultiSink) RecordTelemetry(r []RoomTelemetry) error {
	var first error
	for _, s := range m.sinks {
		if err := s.RecordTelemetry(r); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m *MultiSink) RecordAction(e model.ActionEntry) error {
	var first error
	for _, s := range m.sinks {
		if err := s.RecordAction(e); err != nil && first == nil {
			first = err
		}
	}
	return first
}
