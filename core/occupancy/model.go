// Package occupancy learns recurring cancellation patterns per weekly slot
// and drives the engine's automatic power cutoffs.
package occupancy

import (
	"sort"
	"sync"
	"time"
)

// Config tunes the exponential moving average and the cutoff hysteresis.
type Config struct {
	// Alpha is the EMA smoothing factor for cancellation observations.
	Alpha float64 `json:"alpha"`
	// CutoffRate is the rate a slot must sustain before auto-cutoff arms.
	CutoffRate float64 `json:"cutoff_rate"`
	// DisableRate re-arms the hysteresis when the rate falls below it.
	DisableRate float64 `json:"disable_rate"`
	// ConsecutiveObservations is how many qualifying observations in a row
	// are required before auto-cutoff enables.
	ConsecutiveObservations int `json:"consecutive_observations"`
}

// SetDefaults applies the documented defaults.
func (c *Config) SetDefaults() {
	if c.Alpha <= 0 || c.Alpha > 1 {
		c.Alpha = 0.2
	}
	if c.CutoffRate <= 0 {
		c.CutoffRate = 0.7
	}
	if c.DisableRate <= 0 {
		c.DisableRate = 0.5
	}
	if c.ConsecutiveObservations <= 0 {
		c.ConsecutiveObservations = 2
	}
}

// SlotKey identifies one weekly (room, day, hour) slot.
type SlotKey struct {
	RoomID string       `json:"room_id"`
	Day    time.Weekday `json:"day_of_week"`
	Hour   int          `json:"hour"`
}

// Slot carries the learned state for one weekly slot.
type Slot struct {
	Key          SlotKey `json:"key"`
	Rate         float64 `json:"cancellation_rate"`
	AutoCutoff   bool    `json:"auto_cutoff_enabled"`
	Observations int     `json:"observations"`

	consecutive int
}

// RoomRisk summarises a room's risky slots for dashboards.
type RoomRisk struct {
	RoomID string `json:"room_id"`
	Count  int    `json:"count"`
	Slots  []Slot `json:"slots"`
}

// Model maintains cancellation-rate EMAs keyed by weekly slot.
type Model struct {
	mu    sync.RWMutex
	cfg   Config
	slots map[SlotKey]*Slot
}

// NewModel creates a Model with defaults applied to cfg.
func NewModel(cfg Config) *Model {
	cfg.SetDefaults()
	return &Model{cfg: cfg, slots: map[SlotKey]*Slot{}}
}

// Observe folds one resolved slot outcome into the EMA. cancelled is true
// when the scheduled class did not take place. Auto-cutoff enables only
// after ConsecutiveObservations observations in a row kept the rate at or
// above CutoffRate, and disarms when the rate drops below DisableRate.
func (m *Model) Observe(roomID string, day time.Weekday, hour int, cancelled bool) Slot {
	key := SlotKey{RoomID: roomID, Day: day, Hour: hour}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[key]
	if !ok {
		s = &Slot{Key: key}
		m.slots[key] = s
	}
	obs := 0.0
	if cancelled {
		obs = 1.0
	}
	s.Rate = m.cfg.Alpha*obs + (1-m.cfg.Alpha)*s.Rate
	if s.Rate < 0 {
		s.Rate = 0
	}
	if s.Rate > 1 {
		s.Rate = 1
	}
	s.Observations++

	if s.Rate >= m.cfg.CutoffRate {
		s.consecutive++
		if s.consecutive >= m.cfg.ConsecutiveObservations {
			s.AutoCutoff = true
		}
	} else {
		s.consecutive = 0
		if s.Rate < m.cfg.DisableRate {
			s.AutoCutoff = false
		}
	}
	return *s
}

// ShouldCutoff reports whether auto-cutoff is armed for the room's slot at
// the given time, along with the learned cancellation rate.
func (m *Model) ShouldCutoff(roomID string, t time.Time) (bool, float64) {
	key := SlotKey{RoomID: roomID, Day: t.Weekday(), Hour: t.Hour()}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.slots[key]; ok {
		return s.AutoCutoff, s.Rate
	}
	return false, 0
}

// Rate returns the learned cancellation rate for a specific slot.
func (m *Model) Rate(roomID string, day time.Weekday, hour int) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.slots[SlotKey{RoomID: roomID, Day: day, Hour: hour}]; ok {
		return s.Rate
	}
	return 0
}

// RiskySchedules returns, per room, the slots whose rate is at or above
// minRate, ordered by room ID and descending rate within a room.
func (m *Model) RiskySchedules(minRate float64) []RoomRisk {
	m.mu.RLock()
	byRoom := map[string][]Slot{}
	for _, s := range m.slots {
		if s.Rate >= minRate {
			byRoom[s.Key.RoomID] = append(byRoom[s.Key.RoomID], *s)
		}
	}
	m.mu.RUnlock()

	res := make([]RoomRisk, 0, len(byRoom))
	for id, slots := range byRoom {
		sort.Slice(slots, func(i, j int) bool {
			if slots[i].Rate != slots[j].Rate {
				return slots[i].Rate > slots[j].Rate
			}
			if slots[i].Key.Day != slots[j].Key.Day {
				return slots[i].Key.Day < slots[j].Key.Day
			}
			return slots[i].Key.Hour < slots[j].Key.Hour
		})
		res = append(res, RoomRisk{RoomID: id, Count: len(slots), Slots: slots})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].RoomID < res[j].RoomID })
	return res
}
