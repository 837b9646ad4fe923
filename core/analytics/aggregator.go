// Package analytics derives cumulative savings and rolling forecast
// accuracy from the action log and resolved predictions.
package analytics

import (
	"context"
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/voltonic/campusgrid/core/actionlog"
	"github.com/voltonic/campusgrid/core/model"
)

// NoAccuracy is the sentinel reported when no prediction has resolved yet.
// It is deliberately neither zero nor an error.
const NoAccuracy = -1.0

// SavingsReport sums the impact of logged actions over a window.
type SavingsReport struct {
	Window         time.Duration  `json:"window"`
	EnergySavedKWh float64        `json:"energy_saved_kwh"`
	CostSaved      float64        `json:"cost_saved"`
	ActionCounts   map[string]int `json:"action_counts"`
	Entries        int            `json:"entries"`
}

// AccuracyReport carries 100*(1-MAPE) over resolved predictions.
type AccuracyReport struct {
	Accuracy float64 `json:"accuracy"`
	Resolved int     `json:"resolved"`
	HasData  bool    `json:"has_data"`
}

// Aggregator reads the action log and the prediction tracker.
type Aggregator struct {
	store   actionlog.Store
	tracker *Tracker
}

// NewAggregator creates an Aggregator.
func NewAggregator(store actionlog.Store, tracker *Tracker) *Aggregator {
	return &Aggregator{store: store, tracker: tracker}
}

// Savings sums savings and counts entries by action type within the window
// ending now.
func (a *Aggregator) Savings(ctx context.Context, now time.Time, window time.Duration) (SavingsReport, error) {
	entries, err := a.store.Entries(ctx, actionlog.Query{Start: now.Add(-window), End: now})
	if err != nil {
		return SavingsReport{}, err
	}
	rep := SavingsReport{Window: window, ActionCounts: map[string]int{}}
	for _, e := range entries {
		rep.EnergySavedKWh += e.EnergySavedKWh
		rep.CostSaved += e.CostSaved
		rep.ActionCounts[e.Action.String()]++
		rep.Entries++
	}
	return rep, nil
}

// Accuracy returns the rolling forecast accuracy over predictions resolved
// within the window ending now. With no resolved predictions it returns the
// NoAccuracy sentinel and HasData false.
func (a *Aggregator) Accuracy(now time.Time, window time.Duration) AccuracyReport {
	resolved := a.tracker.ResolvedSince(now.Add(-window))
	if len(resolved) == 0 {
		return AccuracyReport{Accuracy: NoAccuracy, HasData: false}
	}
	errs := make([]float64, 0, len(resolved))
	for _, r := range resolved {
		if r.ActualLoad == 0 {
			continue
		}
		errs = append(errs, math.Abs((r.ActualLoad-r.PredictedLoad)/r.ActualLoad))
	}
	if len(errs) == 0 {
		return AccuracyReport{Accuracy: NoAccuracy, HasData: false}
	}
	mape := stat.Mean(errs, nil)
	acc := 100 * (1 - mape)
	return AccuracyReport{Accuracy: acc, Resolved: len(errs), HasData: true}
}

// Tracker retains prediction records and fills in actuals once observed.
type Tracker struct {
	mu      sync.Mutex
	pending []model.PredictionRecord
	done    []model.PredictionRecord
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker { return &Tracker{} }

// Record registers a prediction awaiting resolution.
func (t *Tracker) Record(rec model.PredictionRecord) {
	t.mu.Lock()
	t.pending = append(t.pending, rec)
	t.mu.Unlock()
}

// Resolve fills actuals for every pending record whose horizon has elapsed
// by now, using the currently observed campus load.
func (t *Tracker) Resolve(now time.Time, actualLoad float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var remaining []model.PredictionRecord
	for _, r := range t.pending {
		if !now.Before(r.Timestamp.Add(r.Horizon)) {
			r.ActualLoad = actualLoad
			r.Resolved = true
			t.done = append(t.done, r)
			continue
		}
		remaining = append(remaining, r)
	}
	t.pending = remaining
}

// ResolvedSince returns resolved records whose resolution time falls at or
// after the cutoff.
func (t *Tracker) ResolvedSince(cutoff time.Time) []model.PredictionRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	var res []model.PredictionRecord
	for _, r := range t.done {
		if !r.Timestamp.Add(r.Horizon).Before(cutoff) {
			res = append(res, r)
		}
	}
	return res
}
