// Package forecast wraps the trained campus load predictor behind an
// adapter with atomic model swaps. Training runs off the tick path; the
// decision engine only consumes the prediction contract.
package forecast

import (
	"errors"
	"time"
)

// ErrModelNotReady is returned by prediction calls before a model has been
// trained and installed.
var ErrModelNotReady = errors.New("forecast: model not ready")

// Trend classifies the 30-minute outlook relative to the current load.
type Trend int

const (
	TrendStable Trend = iota
	TrendIncreasing
	TrendDecreasing
)

// String returns a human-readable representation of the trend.
func (t Trend) String() string {
	switch t {
	case TrendStable:
		return "stable"
	case TrendIncreasing:
		return "increasing"
	case TrendDecreasing:
		return "decreasing"
	default:
		return "unknown"
	}
}

// Features is the input vector for one prediction.
type Features struct {
	Hour          int
	DayOfWeek     time.Weekday
	IsWeekend     bool
	OccupancyRate float64
	LastLoadKW    float64
}

// HourForecast is the next-hour prediction with its confidence bounds.
type HourForecast struct {
	ValueKW float64
	LowerKW float64
	UpperKW float64
	For     time.Time
}

// HalfHourForecast is the 30-minute prediction with its trend.
type HalfHourForecast struct {
	ValueKW float64
	Trend   Trend
	For     time.Time
}

// ModelInfo describes the installed model.
type ModelInfo struct {
	Version   string    `json:"version"`
	TrainedAt time.Time `json:"trained_at"`
	Features  []string  `json:"features"`
	Samples   int       `json:"samples"`
	MAEKW     float64   `json:"mae_kw"`
}

// Model is an installed predictor. Implementations must be safe for
// concurrent reads; the adapter never mutates an installed model.
type Model interface {
	Predict(f Features) float64
	// ResidualKW is the standard deviation of training residuals, used to
	// derive confidence intervals.
	ResidualKW() float64
	Info() ModelInfo
}

// SamplePoint is one hourly aggregate used for training.
type SamplePoint struct {
	Time          time.Time
	CampusLoadKW  float64
	OccupancyRate float64
}

// HistorySource provides hourly campus aggregates for training.
type HistorySource interface {
	HourlyCampusLoads(hoursBack int) ([]SamplePoint, error)
}
