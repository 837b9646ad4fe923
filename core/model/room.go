package model

import "fmt"

// RoomType is a closed enumeration of the room categories on campus.
type RoomType int

const (
	RoomClassroom RoomType = iota
	RoomLab
	RoomStaff
	RoomSmartClass
)

// String returns a human-readable representation of the room type.
func (t RoomType) String() string {
	switch t {
	case RoomClassroom:
		return "classroom"
	case RoomLab:
		return "lab"
	case RoomStaff:
		return "staff"
	case RoomSmartClass:
		return "smart_class"
	default:
		return "unknown"
	}
}

// ParseRoomType converts a configuration string into a RoomType.
func ParseRoomType(s string) (RoomType, error) {
	switch s {
	case "classroom":
		return RoomClassroom, nil
	case "lab":
		return RoomLab, nil
	case "staff":
		return RoomStaff, nil
	case "smart_class":
		return RoomSmartClass, nil
	default:
		return 0, fmt.Errorf("unknown room type %q", s)
	}
}

// Room represents a single managed space. Structural fields (ID, Type,
// Capacity, BaseLoadKW, EquipmentLoadKW, FloorID, BuildingID) are owned by
// the external directory; the runtime fields (CurrentSource, Occupied,
// Optimized, CurrentLoadKW) are mutated only by the engine tick.
type Room struct {
	ID              string
	Name            string
	Type            RoomType
	Capacity        int
	BaseLoadKW      float64
	EquipmentLoadKW float64
	FloorID         string
	BuildingID      string

	CurrentSource Source
	Occupied      bool
	Optimized     bool
	CurrentLoadKW float64
}

// Floor groups rooms within a building.
type Floor struct {
	ID         string
	Number     int
	BuildingID string
	RoomIDs    []string
}

// Building holds floors and the solar configuration used by the source
// selection policy during grid outages.
type Building struct {
	ID              string
	Name            string
	FacultyID       string
	HybridEnabled   bool
	SolarCapacityKW float64
	FloorIDs        []string
}

// Validate checks that the room configuration is sound.
func (r Room) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("room id is required")
	}
	if r.BaseLoadKW < 0 || r.EquipmentLoadKW < 0 {
		return fmt.Errorf("room %s: loads must be non-negative", r.ID)
	}
	if r.FloorID == "" || r.BuildingID == "" {
		return fmt.Errorf("room %s: floor and building references are required", r.ID)
	}
	return nil
}

// SolarEligible reports whether the room type may run on solar during an
// outage. Labs and smart classes require the firmer diesel supply.
func (t RoomType) SolarEligible() bool {
	switch t {
	case RoomClassroom, RoomStaff:
		return true
	case RoomLab, RoomSmartClass:
		return false
	default:
		return false
	}
}
