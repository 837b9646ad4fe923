// Package actionlog persists the engine's autonomous decisions. Entries
// are append-only; nothing in the module mutates or deletes a stored entry.
package actionlog

import (
	"context"
	"time"

	"github.com/voltonic/campusgrid/core/model"
)

// Query defines filters for retrieving entries.
type Query struct {
	Start      time.Time
	End        time.Time
	Action     *model.ActionType
	RoomID     string
	BuildingID string
}

// Store persists ActionEntries and supports windowed queries.
type Store interface {
	Append(ctx context.Context, e model.ActionEntry) error
	Entries(ctx context.Context, q Query) ([]model.ActionEntry, error)
	Close() error
}

func matches(e model.ActionEntry, q Query) bool {
	if !q.Start.IsZero() && e.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && e.Timestamp.After(q.End) {
		return false
	}
	if q.Action != nil && e.Action != *q.Action {
		return false
	}
	if q.RoomID != "" && e.RoomID != q.RoomID {
		return false
	}
	if q.BuildingID != "" && e.BuildingID != q.BuildingID {
		return false
	}
	return true
}
