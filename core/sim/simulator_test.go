package sim

import (
	"testing"
	"time"

	"github.com/voltonic/campusgrid/core/model"
)

func testRoom() model.Room {
	return model.Room{
		ID:              "room0001",
		Type:            model.RoomClassroom,
		BaseLoadKW:      0.5,
		EquipmentLoadKW: 1.5,
		BuildingID:      "bld01",
	}
}

func TestSampleDeterministic(t *testing.T) {
	s := New(42)
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	a := s.Sample(testRoom(), now)
	b := s.Sample(testRoom(), now)
	if a != b {
		t.Fatalf("same (room, time, seed) produced different readings: %+v vs %+v", a, b)
	}
}

func TestSampleSeedChangesReading(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	a := New(1).Sample(testRoom(), now)
	b := New(2).Sample(testRoom(), now)
	if a.LoadKW == b.LoadKW && a.Occupied == b.Occupied {
		t.Fatalf("different seeds produced identical readings")
	}
}

func TestSampleLoadBounds(t *testing.T) {
	s := New(7)
	room := testRoom()
	now := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 24*12; i++ {
		r := s.Sample(room, now.Add(time.Duration(i)*5*time.Minute))
		if r.LoadKW < 0 {
			t.Fatalf("negative load %f at %v", r.LoadKW, r.Timestamp)
		}
		max := room.BaseLoadKW + room.EquipmentLoadKW + 0.5 + s.NoiseKW
		if r.LoadKW > max {
			t.Fatalf("load %f exceeds plausible max %f", r.LoadKW, max)
		}
	}
}

func TestOccupancyProbabilityCurves(t *testing.T) {
	monday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC) // a Monday
	cases := []struct {
		typ  model.RoomType
		hour int
		want float64
	}{
		{model.RoomClassroom, 10, 0.75},
		{model.RoomClassroom, 14, 0.6},
		{model.RoomClassroom, 8, 0.3},
		{model.RoomClassroom, 3, 0.05},
		{model.RoomSmartClass, 10, 0.75},
		{model.RoomLab, 12, 0.65},
		{model.RoomLab, 18, 0.25},
		{model.RoomStaff, 12, 0.8},
		{model.RoomStaff, 9, 0.5},
	}
	for _, c := range cases {
		got := OccupancyProbability(c.typ, monday.Add(time.Duration(c.hour)*time.Hour))
		if got != c.want {
			t.Errorf("%s at %02dh: got %f want %f", c.typ, c.hour, got, c.want)
		}
	}
}

func TestOccupancyProbabilityWeekendDamping(t *testing.T) {
	saturday := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	got := OccupancyProbability(model.RoomClassroom, saturday)
	if got != 0.75*0.2 {
		t.Fatalf("weekend probability: got %f want %f", got, 0.75*0.2)
	}
}

func TestSampleAllPreservesOrder(t *testing.T) {
	s := New(3)
	rooms := []model.Room{testRoom(), {ID: "room0002", Type: model.RoomLab, BaseLoadKW: 0.6, EquipmentLoadKW: 3}}
	now := time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)
	readings := s.SampleAll(rooms, now)
	if len(readings) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(readings))
	}
	for i := range rooms {
		if readings[i].RoomID != rooms[i].ID {
			t.Fatalf("reading %d for room %s, want %s", i, readings[i].RoomID, rooms[i].ID)
		}
	}
}
