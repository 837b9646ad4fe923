package forecast

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/voltonic/campusgrid/core/logger"
)

// Adapter exposes the prediction contract over whichever model is currently
// installed. The model reference is swapped atomically so a retrain never
// blocks or tears a tick's forecast calls.
type Adapter struct {
	model atomic.Pointer[modelHolder]

	history    HistorySource
	log        logger.Logger
	tolerance  float64
	minSamples int

	mu       sync.Mutex
	cancelIn context.CancelFunc
	trainGen uint64
}

type modelHolder struct{ m Model }

// Config tunes the adapter.
type Config struct {
	// StableTolerance is the relative band within which the 30-minute trend
	// is reported as stable.
	StableTolerance float64 `json:"stable_tolerance"`
	// MinSamples is the smallest hourly history Train accepts.
	MinSamples int `json:"min_samples"`
}

// SetDefaults applies the documented defaults.
func (c *Config) SetDefaults() {
	if c.StableTolerance <= 0 {
		c.StableTolerance = 0.01
	}
	if c.MinSamples <= 0 {
		c.MinSamples = 24
	}
}

// NewAdapter creates an Adapter without an installed model. Prediction
// calls fail with ErrModelNotReady until Train or Install succeeds.
func NewAdapter(cfg Config, history HistorySource, log logger.Logger) *Adapter {
	cfg.SetDefaults()
	return &Adapter{history: history, log: log, tolerance: cfg.StableTolerance, minSamples: cfg.MinSamples}
}

// Install atomically replaces the active model.
func (a *Adapter) Install(m Model) {
	a.model.Store(&modelHolder{m: m})
}

// Ready reports whether a model is installed.
func (a *Adapter) Ready() bool { return a.model.Load() != nil }

// PredictNextHour returns the next-hour forecast with a 95% confidence
// interval derived from the training residual.
func (a *Adapter) PredictNextHour(now time.Time, f Features) (HourForecast, error) {
	h := a.model.Load()
	if h == nil {
		return HourForecast{}, ErrModelNotReady
	}
	v := h.m.Predict(f)
	margin := 1.96 * h.m.ResidualKW()
	lower := v - margin
	if lower < 0 {
		lower = 0
	}
	return HourForecast{ValueKW: v, LowerKW: lower, UpperKW: v + margin, For: now.Add(time.Hour)}, nil
}

// PredictNext30Min returns the 30-minute forecast and its trend relative to
// the current load. The half-hour value interpolates between now and the
// hourly prediction.
func (a *Adapter) PredictNext30Min(now time.Time, f Features) (HalfHourForecast, error) {
	h := a.model.Load()
	if h == nil {
		return HalfHourForecast{}, ErrModelNotReady
	}
	hourly := h.m.Predict(f)
	v := f.LastLoadKW + (hourly-f.LastLoadKW)/2
	trend := TrendStable
	if f.LastLoadKW > 0 {
		rel := (v - f.LastLoadKW) / f.LastLoadKW
		switch {
		case rel > a.tolerance:
			trend = TrendIncreasing
		case rel < -a.tolerance:
			trend = TrendDecreasing
		}
	} else if v > 0 {
		trend = TrendIncreasing
	}
	return HalfHourForecast{ValueKW: v, Trend: trend, For: now.Add(30 * time.Minute)}, nil
}

// ModelInfo returns metadata for the installed model.
func (a *Adapter) ModelInfo() (ModelInfo, error) {
	h := a.model.Load()
	if h == nil {
		return ModelInfo{}, ErrModelNotReady
	}
	return h.m.Info(), nil
}

// Train fits a new model on the last hoursBack hours of history and
// installs it on success. A newer Train call supersedes an in-flight one:
// the superseded run is cancelled and its result discarded.
func (a *Adapter) Train(ctx context.Context, hoursBack int) error {
	if a.history == nil {
		return fmt.Errorf("forecast: no history source configured")
	}
	a.mu.Lock()
	if a.cancelIn != nil {
		a.cancelIn()
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancelIn = cancel
	a.trainGen++
	gen := a.trainGen
	a.mu.Unlock()

	points, err := a.history.HourlyCampusLoads(hoursBack)
	if err != nil {
		return fmt.Errorf("forecast: load history: %w", err)
	}
	if len(points) < a.minSamples {
		return fmt.Errorf("forecast: %d hourly samples, need at least %d", len(points), a.minSamples)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m, err := FitLinear(points, time.Now())
	if err != nil {
		return err
	}
	// A superseded run must not clobber the model installed by its
	// successor; the generation is re-checked under the lock so the check
	// and the install cannot interleave with a newer Train.
	a.mu.Lock()
	if gen != a.trainGen {
		a.mu.Unlock()
		return context.Canceled
	}
	a.model.Store(&modelHolder{m: m})
	a.mu.Unlock()
	if a.log != nil {
		info := m.Info()
		a.log.Infof("installed forecast model %s (%d samples, mae %.2f kW)", info.Version, info.Samples, info.MAEKW)
	}
	return nil
}
