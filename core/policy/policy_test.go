package policy

import (
	"reflect"
	"testing"

	"github.com/voltonic/campusgrid/core/model"
)

func hybridBuilding(capacity float64) model.Building {
	return model.Building{ID: "bld01", HybridEnabled: true, SolarCapacityKW: capacity}
}

func TestSelectGridAvailable(t *testing.T) {
	in := Input{
		Rooms: []model.Room{
			{ID: "r1", BuildingID: "bld01", Type: model.RoomClassroom},
			{ID: "r2", BuildingID: "bld01", Type: model.RoomLab},
		},
		Buildings:   []model.Building{hybridBuilding(10)},
		Grid:        model.GridState{Available: true},
		SolarFactor: 1.0,
	}
	res := Select(in)
	for id, src := range res.Assignments {
		if src != model.SourceGrid {
			t.Fatalf("room %s on %s with grid available", id, src)
		}
	}
}

func TestSelectOutageSolarSmallestFirst(t *testing.T) {
	in := Input{
		Rooms: []model.Room{
			{ID: "big", BuildingID: "bld01", Type: model.RoomClassroom, CurrentLoadKW: 4},
			{ID: "small", BuildingID: "bld01", Type: model.RoomStaff, CurrentLoadKW: 1},
			{ID: "mid", BuildingID: "bld01", Type: model.RoomClassroom, CurrentLoadKW: 2},
			{ID: "lab", BuildingID: "bld01", Type: model.RoomLab, CurrentLoadKW: 0.5},
		},
		Buildings:   []model.Building{hybridBuilding(3.5)},
		Grid:        model.GridState{Available: false, Reason: "storm"},
		SolarFactor: 1.0,
	}
	res := Select(in)
	want := map[string]model.Source{
		"small": model.SourceSolar, // 1 kW fits, budget 2.5 left
		"mid":   model.SourceSolar, // 2 kW fits, budget 0.5 left
		"big":   model.SourceDiesel,
		"lab":   model.SourceDiesel, // never solar eligible
	}
	if !reflect.DeepEqual(res.Assignments, want) {
		t.Fatalf("assignments: got %v want %v", res.Assignments, want)
	}
}

func TestSelectSolarBudgetScalesWithFactor(t *testing.T) {
	in := Input{
		Rooms: []model.Room{
			{ID: "r1", BuildingID: "bld01", Type: model.RoomClassroom, CurrentLoadKW: 2},
		},
		Buildings:   []model.Building{hybridBuilding(10)},
		Grid:        model.GridState{Available: false},
		SolarFactor: 0.1, // evening band, effective budget 1 kW
	}
	res := Select(in)
	if res.Assignments["r1"] != model.SourceDiesel {
		t.Fatalf("room exceeding scaled budget must fall to diesel, got %s", res.Assignments["r1"])
	}
}

func TestSelectSolarNeverExceedsCapacity(t *testing.T) {
	rooms := []model.Room{
		{ID: "r1", BuildingID: "bld01", Type: model.RoomClassroom, CurrentLoadKW: 1.2},
		{ID: "r2", BuildingID: "bld01", Type: model.RoomStaff, CurrentLoadKW: 0.8},
		{ID: "r3", BuildingID: "bld01", Type: model.RoomClassroom, CurrentLoadKW: 2.4},
		{ID: "r4", BuildingID: "bld01", Type: model.RoomStaff, CurrentLoadKW: 1.9},
	}
	b := hybridBuilding(4)
	res := Select(Input{Rooms: rooms, Buildings: []model.Building{b}, SolarFactor: 1.0,
		Grid: model.GridState{Available: false}})
	total := 0.0
	for _, r := range rooms {
		if res.Assignments[r.ID] == model.SourceSolar {
			total += r.CurrentLoadKW
		}
	}
	if total > b.SolarCapacityKW {
		t.Fatalf("solar load %f exceeds capacity %f", total, b.SolarCapacityKW)
	}
}

func TestSelectNonHybridBuildingAllDiesel(t *testing.T) {
	in := Input{
		Rooms:       []model.Room{{ID: "r1", BuildingID: "bld01", Type: model.RoomClassroom, CurrentLoadKW: 1}},
		Buildings:   []model.Building{{ID: "bld01", HybridEnabled: false, SolarCapacityKW: 10}},
		Grid:        model.GridState{Available: false},
		SolarFactor: 1.0,
	}
	res := Select(in)
	if res.Assignments["r1"] != model.SourceDiesel {
		t.Fatalf("non-hybrid building must run on diesel, got %s", res.Assignments["r1"])
	}
}

func TestSelectNightOutageAllDiesel(t *testing.T) {
	in := Input{
		Rooms:       []model.Room{{ID: "r1", BuildingID: "bld01", Type: model.RoomStaff, CurrentLoadKW: 0.5}},
		Buildings:   []model.Building{hybridBuilding(10)},
		Grid:        model.GridState{Available: false},
		SolarFactor: 0,
	}
	res := Select(in)
	if res.Assignments["r1"] != model.SourceDiesel {
		t.Fatalf("zero solar factor must force diesel, got %s", res.Assignments["r1"])
	}
}

func TestSelectHybridZeroCapacityAnomaly(t *testing.T) {
	in := Input{
		Rooms:       []model.Room{{ID: "r1", BuildingID: "bld01", Type: model.RoomClassroom, CurrentLoadKW: 1}},
		Buildings:   []model.Building{{ID: "bld01", HybridEnabled: true, SolarCapacityKW: 0}},
		Grid:        model.GridState{Available: false},
		SolarFactor: 1.0,
	}
	res := Select(in)
	if len(res.Anomalies) != 1 || res.Anomalies[0] != "bld01" {
		t.Fatalf("expected anomaly for bld01, got %v", res.Anomalies)
	}
	if res.Assignments["r1"] != model.SourceDiesel {
		t.Fatalf("anomalous building must run on diesel, got %s", res.Assignments["r1"])
	}
}

func TestSelectOrphanRoomGetsDiesel(t *testing.T) {
	in := Input{
		Rooms:       []model.Room{{ID: "r1", BuildingID: "ghost", Type: model.RoomClassroom}},
		Grid:        model.GridState{Available: false},
		SolarFactor: 1.0,
	}
	res := Select(in)
	if res.Assignments["r1"] != model.SourceDiesel {
		t.Fatalf("orphan room must get a deterministic diesel assignment, got %s", res.Assignments["r1"])
	}
}

func TestSelectIsPure(t *testing.T) {
	in := Input{
		Rooms: []model.Room{
			{ID: "r1", BuildingID: "bld01", Type: model.RoomClassroom, CurrentLoadKW: 1.5},
			{ID: "r2", BuildingID: "bld01", Type: model.RoomStaff, CurrentLoadKW: 1.5},
		},
		Buildings:   []model.Building{hybridBuilding(2)},
		Grid:        model.GridState{Available: false},
		SolarFactor: 1.0,
	}
	a := Select(in)
	b := Select(in)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same input produced different results: %v vs %v", a, b)
	}
}
