package model

import "time"

// Source identifies the supply feeding a room.
type Source int

const (
	SourceGrid Source = iota
	SourceSolar
	SourceDiesel
)

// String returns a human-readable representation of the source.
func (s Source) String() string {
	switch s {
	case SourceGrid:
		return "grid"
	case SourceSolar:
		return "solar"
	case SourceDiesel:
		return "diesel"
	default:
		return "unknown"
	}
}

// CostPerKWh returns the tariff for one kWh drawn from the source. Solar is
// the cheapest supply, diesel the most expensive.
func (s Source) CostPerKWh() float64 {
	switch s {
	case SourceGrid:
		return 8.0
	case SourceSolar:
		return 2.5
	case SourceDiesel:
		return 22.0
	default:
		return 0
	}
}

// GridState reflects the utility feed for the whole campus. It is mutated
// only through the engine's command queue and applied at tick boundaries.
type GridState struct {
	Available bool
	Reason    string
	ChangedAt time.Time
}
