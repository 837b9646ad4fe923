package engine

import (
	"time"

	"github.com/voltonic/campusgrid/core/model"
)

// Snapshot is one consistent view of the campus produced by a tick. It is
// immutable once published; external readers never observe a half-updated
// room set.
type Snapshot struct {
	TakenAt        time.Time
	Rooms          []model.Room
	Buildings      []model.Building
	Grid           model.GridState
	SolarFactor    float64
	CampusLoadKW   float64
	OptimizedRooms int
}

// CampusSummary is the live aggregate exposed to the serving layer.
type CampusSummary struct {
	Timestamp              time.Time `json:"timestamp"`
	TotalLoadKW            float64   `json:"total_load_kw"`
	TotalRooms             int       `json:"total_rooms"`
	OptimizedRooms         int       `json:"optimized_rooms"`
	OptimizationPercentage float64   `json:"optimization_percentage"`
	GridAvailable          bool      `json:"grid_available"`
	SolarFactor            float64   `json:"solar_factor"`
}

// BuildingSummary aggregates one building's live state.
type BuildingSummary struct {
	BuildingID  string  `json:"building_id"`
	Name        string  `json:"name"`
	TotalLoadKW float64 `json:"total_load_kw"`
	TotalRooms  int     `json:"total_rooms"`
	OnSolar     int     `json:"on_solar"`
	OnDiesel    int     `json:"on_diesel"`
}

// Summary derives the campus aggregate from the snapshot.
func (s *Snapshot) Summary() CampusSummary {
	sum := CampusSummary{
		Timestamp:      s.TakenAt,
		TotalLoadKW:    s.CampusLoadKW,
		TotalRooms:     len(s.Rooms),
		OptimizedRooms: s.OptimizedRooms,
		GridAvailable:  s.Grid.Available,
		SolarFactor:    s.SolarFactor,
	}
	if sum.TotalRooms > 0 {
		sum.OptimizationPercentage = 100 * float64(sum.OptimizedRooms) / float64(sum.TotalRooms)
	}
	return sum
}

// BuildingSummaries derives per-building aggregates, in building order.
func (s *Snapshot) BuildingSummaries() []BuildingSummary {
	idx := make(map[string]int, len(s.Buildings))
	res := make([]BuildingSummary, len(s.Buildings))
	for i, b := range s.Buildings {
		idx[b.ID] = i
		res[i] = BuildingSummary{BuildingID: b.ID, Name: b.Name}
	}
	for _, r := range s.Rooms {
		i, ok := idx[r.BuildingID]
		if !ok {
			continue
		}
		res[i].TotalLoadKW += r.CurrentLoadKW
		res[i].TotalRooms++
		switch r.CurrentSource {
		case model.SourceSolar:
			res[i].OnSolar++
		case model.SourceDiesel:
			res[i].OnDiesel++
		}
	}
	return res
}

// Room returns a copy of the room with the given ID.
func (s *Snapshot) Room(id string) (model.Room, bool) {
	for _, r := range s.Rooms {
		if r.ID == id {
			return r, true
		}
	}
	return model.Room{}, false
}

// buildingLoads sums current load per building.
func (s *Snapshot) buildingLoads() map[string]float64 {
	loads := make(map[string]float64, len(s.Buildings))
	for _, r := range s.Rooms {
		loads[r.BuildingID] += r.CurrentLoadKW
	}
	return loads
}
