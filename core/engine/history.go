package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/voltonic/campusgrid/core/forecast"
)

// HourlyHistory aggregates tick-level campus loads into hourly samples for
// forecaster training. It keeps a bounded number of hours.
type HourlyHistory struct {
	mu      sync.Mutex
	maxHrs  int
	samples []forecast.SamplePoint

	curHour  time.Time
	sumLoad  float64
	sumOcc   float64
	curCount int
}

// NewHourlyHistory creates a history bounded to maxHours entries.
func NewHourlyHistory(maxHours int) *HourlyHistory {
	if maxHours <= 0 {
		maxHours = 24 * 7
	}
	return &HourlyHistory{maxHrs: maxHours}
}

// Add folds one tick aggregate into the current hour bucket, sealing the
// previous bucket when the hour rolls over.
func (h *HourlyHistory) Add(p forecast.SamplePoint) {
	hour := p.Time.Truncate(time.Hour)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.curCount > 0 && !hour.Equal(h.curHour) {
		h.seal()
	}
	h.curHour = hour
	h.sumLoad += p.CampusLoadKW
	h.sumOcc += p.OccupancyRate
	h.curCount++
}

func (h *HourlyHistory) seal() {
	h.samples = append(h.samples, forecast.SamplePoint{
		Time:          h.curHour,
		CampusLoadKW:  h.sumLoad / float64(h.curCount),
		OccupancyRate: h.sumOcc / float64(h.curCount),
	})
	if len(h.samples) > h.maxHrs {
		h.samples = h.samples[len(h.samples)-h.maxHrs:]
	}
	h.sumLoad, h.sumOcc, h.curCount = 0, 0, 0
}

// HourlyCampusLoads implements forecast.HistorySource.
func (h *HourlyHistory) HourlyCampusLoads(hoursBack int) ([]forecast.SamplePoint, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.samples) == 0 {
		return nil, fmt.Errorf("engine: no hourly history recorded yet")
	}
	start := 0
	if hoursBack > 0 && len(h.samples) > hoursBack {
		start = len(h.samples) - hoursBack
	}
	res := make([]forecast.SamplePoint, len(h.samples)-start)
	copy(res, h.samples[start:])
	return res, nil
}
