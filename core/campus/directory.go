package campus

import (
	"fmt"
	"sort"
	"sync"

	"github.com/voltonic/campusgrid/core/model"
)

// Directory provides read access to the structural hierarchy. Structural
// entities are created by the external management layer; the engine only
// reads them.
type Directory interface {
	Buildings() []model.Building
	Floors() []model.Floor
	Rooms() []model.Room
	Building(id string) (model.Building, bool)
	Room(id string) (model.Room, bool)
	// Version increases whenever the structure changes, letting the engine
	// detect additions between ticks without a subscription.
	Version() uint64
}

// MemoryDirectory is the in-process Directory implementation.
type MemoryDirectory struct {
	mu        sync.RWMutex
	buildings map[string]model.Building
	floors    map[string]model.Floor
	rooms     map[string]model.Room
	version   uint64
}

// NewMemoryDirectory creates an empty directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		buildings: map[string]model.Building{},
		floors:    map[string]model.Floor{},
		rooms:     map[string]model.Room{},
	}
}

// AddBuilding registers a building.
func (d *MemoryDirectory) AddBuilding(b model.Building) error {
	if b.ID == "" {
		return fmt.Errorf("building id is required")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buildings[b.ID] = b
	d.version++
	return nil
}

// AddFloor registers a floor under an existing building.
func (d *MemoryDirectory) AddFloor(f model.Floor) error {
	if f.ID == "" {
		return fmt.Errorf("floor id is required")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.buildings[f.BuildingID]
	if !ok {
		return fmt.Errorf("floor %s: unknown building %s", f.ID, f.BuildingID)
	}
	if _, exists := d.floors[f.ID]; !exists {
		b.FloorIDs = append(b.FloorIDs, f.ID)
		d.buildings[b.ID] = b
	}
	d.floors[f.ID] = f
	d.version++
	return nil
}

// AddRoom registers a room under an existing floor. The room's building
// reference must match its floor's building.
func (d *MemoryDirectory) AddRoom(r model.Room) error {
	if err := r.Validate(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	f, ok := d.floors[r.FloorID]
	if !ok {
		return fmt.Errorf("room %s: unknown floor %s", r.ID, r.FloorID)
	}
	if f.BuildingID != r.BuildingID {
		return fmt.Errorf("room %s: building %s does not own floor %s", r.ID, r.BuildingID, r.FloorID)
	}
	if _, exists := d.rooms[r.ID]; !exists {
		f.RoomIDs = append(f.RoomIDs, r.ID)
		d.floors[f.ID] = f
	}
	d.rooms[r.ID] = r
	d.version++
	return nil
}

// Buildings returns all buildings sorted by ID.
func (d *MemoryDirectory) Buildings() []model.Building {
	d.mu.RLock()
	defer d.mu.RUnlock()
	res := make([]model.Building, 0, len(d.buildings))
	for _, b := range d.buildings {
		res = append(res, b)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// Floors returns all floors sorted by ID.
func (d *MemoryDirectory) Floors() []model.Floor {
	d.mu.RLock()
	defer d.mu.RUnlock()
	res := make([]model.Floor, 0, len(d.floors))
	for _, f := range d.floors {
		res = append(res, f)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// Rooms returns all rooms sorted by ID.
func (d *MemoryDirectory) Rooms() []model.Room {
	d.mu.RLock()
	defer d.mu.RUnlock()
	res := make([]model.Room, 0, len(d.rooms))
	for _, r := range d.rooms {
		res = append(res, r)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// Building returns the building with the given ID.
func (d *MemoryDirectory) Building(id string) (model.Building, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	b, ok := d.buildings[id]
	return b, ok
}

// Room returns the room with the given ID.
func (d *MemoryDirectory) Room(id string) (model.Room, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.rooms[id]
	return r, ok
}

// Version returns the current structural generation.
func (d *MemoryDirectory) Version() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.version
}
