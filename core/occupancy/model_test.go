package occupancy

import (
	"math"
	"testing"
	"time"
)

func TestObserveFirstCancellation(t *testing.T) {
	m := NewModel(Config{})
	s := m.Observe("room1", time.Monday, 10, true)
	if math.Abs(s.Rate-0.2) > 1e-9 {
		t.Fatalf("first cancellation rate: got %f want 0.2", s.Rate)
	}
	if s.AutoCutoff {
		t.Fatalf("auto cutoff must not arm after one observation")
	}
}

func TestObserveSmoothsTowardsZero(t *testing.T) {
	m := NewModel(Config{})
	m.Observe("room1", time.Monday, 10, true)
	s := m.Observe("room1", time.Monday, 10, false)
	if math.Abs(s.Rate-0.16) > 1e-9 {
		t.Fatalf("rate after held class: got %f want 0.16", s.Rate)
	}
}

func TestAutoCutoffArmsAfterConsecutiveHighRate(t *testing.T) {
	m := NewModel(Config{})
	// rate = 1 - 0.8^n crosses 0.7 at the sixth observation; arming needs
	// two in a row at or above the threshold.
	var armedAt int
	for i := 1; i <= 10; i++ {
		s := m.Observe("room1", time.Monday, 10, true)
		if s.AutoCutoff {
			armedAt = i
			break
		}
	}
	if armedAt != 7 {
		t.Fatalf("auto cutoff armed at observation %d, want 7", armedAt)
	}
}

func TestAutoCutoffDisarmsBelowDisableRate(t *testing.T) {
	m := NewModel(Config{})
	for i := 0; i < 7; i++ {
		m.Observe("room1", time.Monday, 10, true)
	}
	if ok, _ := m.ShouldCutoff("room1", time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)); !ok {
		t.Fatalf("expected armed slot")
	}
	// Held classes decay the rate: armed state survives the band between
	// the two thresholds and clears only below the disable rate.
	s := m.Observe("room1", time.Monday, 10, false)
	if !s.AutoCutoff {
		t.Fatalf("cutoff disarmed at rate %f, above disable threshold", s.Rate)
	}
	s = m.Observe("room1", time.Monday, 10, false)
	if !s.AutoCutoff {
		t.Fatalf("cutoff disarmed at rate %f, above disable threshold", s.Rate)
	}
	s = m.Observe("room1", time.Monday, 10, false)
	if s.AutoCutoff {
		t.Fatalf("cutoff still armed at rate %f, below disable threshold", s.Rate)
	}
}

func TestShouldCutoffUnknownSlot(t *testing.T) {
	m := NewModel(Config{})
	ok, rate := m.ShouldCutoff("room1", time.Now())
	if ok || rate != 0 {
		t.Fatalf("unknown slot: got (%t, %f), want (false, 0)", ok, rate)
	}
}

func TestSlotsAreIndependent(t *testing.T) {
	m := NewModel(Config{})
	m.Observe("room1", time.Monday, 10, true)
	if r := m.Rate("room1", time.Tuesday, 10); r != 0 {
		t.Fatalf("tuesday slot affected by monday observation: %f", r)
	}
	if r := m.Rate("room2", time.Monday, 10); r != 0 {
		t.Fatalf("room2 affected by room1 observation: %f", r)
	}
}

func TestRiskySchedulesOrdering(t *testing.T) {
	m := NewModel(Config{})
	for i := 0; i < 7; i++ {
		m.Observe("roomB", time.Monday, 10, true)
	}
	for i := 0; i < 4; i++ {
		m.Observe("roomA", time.Wednesday, 14, true)
	}
	m.Observe("roomA", time.Friday, 9, true)

	risky := m.RiskySchedules(0.3)
	if len(risky) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(risky))
	}
	if risky[0].RoomID != "roomA" || risky[1].RoomID != "roomB" {
		t.Fatalf("rooms not ordered by ID: %s, %s", risky[0].RoomID, risky[1].RoomID)
	}
	if risky[0].Count != 1 {
		t.Fatalf("roomA risky slots: got %d want 1", risky[0].Count)
	}
	if risky[1].Slots[0].Rate < 0.7 {
		t.Fatalf("roomB slot rate %f, want >= 0.7", risky[1].Slots[0].Rate)
	}
}
