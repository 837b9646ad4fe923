// Package policy decides what powers each room. Select is a pure function
// of the snapshot it is handed; running it twice on the same input yields
// identical assignments.
package policy

import (
	"sort"

	"github.com/voltonic/campusgrid/core/model"
)

// Input is the snapshot slice the policy evaluates.
type Input struct {
	Rooms       []model.Room
	Buildings   []model.Building
	Grid        model.GridState
	SolarFactor float64
}

// Result carries the per-room assignments and any buildings whose hybrid
// configuration was inconsistent (hybrid enabled, zero solar capacity).
type Result struct {
	Assignments map[string]model.Source
	Anomalies   []string
}

// Select maps every room to a supply source. With the grid up all rooms
// stay on grid. During an outage, hybrid buildings serve solar-eligible
// rooms smallest-load-first until effective solar capacity is exhausted;
// everything else runs on diesel.
func Select(in Input) Result {
	res := Result{Assignments: make(map[string]model.Source, len(in.Rooms))}
	if in.Grid.Available {
		for _, r := range in.Rooms {
			res.Assignments[r.ID] = model.SourceGrid
		}
		return res
	}

	byBuilding := make(map[string][]model.Room)
	for _, r := range in.Rooms {
		byBuilding[r.BuildingID] = append(byBuilding[r.BuildingID], r)
	}

	for _, b := range in.Buildings {
		rooms := byBuilding[b.ID]
		if len(rooms) == 0 {
			continue
		}
		if b.HybridEnabled && b.SolarCapacityKW <= 0 {
			res.Anomalies = append(res.Anomalies, b.ID)
			assignAll(res.Assignments, rooms, model.SourceDiesel)
			continue
		}
		if !b.HybridEnabled || in.SolarFactor <= 0 {
			assignAll(res.Assignments, rooms, model.SourceDiesel)
			continue
		}

		var candidates []model.Room
		for _, r := range rooms {
			switch {
			case r.Type.SolarEligible():
				candidates = append(candidates, r)
			default:
				res.Assignments[r.ID] = model.SourceDiesel
			}
		}
		// Smallest loads first maximises the number of rooms served under
		// the capacity constraint. Ties break by ID for determinism.
		sort.Slice(candidates, func(i, j int) bool {
			if candidates[i].CurrentLoadKW != candidates[j].CurrentLoadKW {
				return candidates[i].CurrentLoadKW < candidates[j].CurrentLoadKW
			}
			return candidates[i].ID < candidates[j].ID
		})
		budget := b.SolarCapacityKW * in.SolarFactor
		for _, r := range candidates {
			if r.CurrentLoadKW <= budget {
				res.Assignments[r.ID] = model.SourceSolar
				budget -= r.CurrentLoadKW
			} else {
				res.Assignments[r.ID] = model.SourceDiesel
			}
		}
	}

	// Rooms whose building is missing from the directory still need a
	// deterministic assignment.
	for _, r := range in.Rooms {
		if _, ok := res.Assignments[r.ID]; !ok {
			res.Assignments[r.ID] = model.SourceDiesel
		}
	}
	sort.Strings(res.Anomalies)
	return res
}

func assignAll(dst map[string]model.Source, rooms []model.Room, s model.Source) {
	for _, r := range rooms {
		dst[r.ID] = s
	}
}
