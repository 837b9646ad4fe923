package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/voltonic/campusgrid/core/actionlog"
	"github.com/voltonic/campusgrid/core/model"
)

// Notification is a log entry enriched for display. Notifications are
// pulled on demand over a recency window, never pushed.
type Notification struct {
	Entry   model.ActionEntry `json:"entry"`
	Icon    string            `json:"icon"`
	Display string            `json:"display"`
}

// Notifications returns display-ready entries from the last minutes.
func (e *Engine) Notifications(ctx context.Context, minutes int) ([]Notification, error) {
	now := e.clock()
	entries, err := e.store.Entries(ctx, actionlog.Query{
		Start: now.Add(-time.Duration(minutes) * time.Minute),
		End:   now,
	})
	if err != nil {
		return nil, err
	}
	res := make([]Notification, len(entries))
	for i, entry := range entries {
		res[i] = Notification{
			Entry:   entry,
			Icon:    actionIcon(entry.Action),
			Display: displayMessage(entry),
		}
	}
	return res, nil
}

func actionIcon(t model.ActionType) string {
	switch t {
	case model.ActionPowerCutoff:
		return "🔌"
	case model.ActionHybridMode:
		return "☀️"
	case model.ActionDemandSpike:
		return "⚡"
	case model.ActionPredictiveSwitch:
		return "🔮"
	default:
		return "ℹ️"
	}
}

func displayMessage(e model.ActionEntry) string {
	switch e.Action {
	case model.ActionPowerCutoff:
		return fmt.Sprintf("Auto cutoff: %s", e.Message)
	case model.ActionHybridMode:
		return fmt.Sprintf("Supply switch: %s", e.Message)
	case model.ActionDemandSpike:
		if e.ConfigAnomaly {
			return fmt.Sprintf("Configuration anomaly: %s", e.Message)
		}
		return fmt.Sprintf("Demand alert: %s", e.Message)
	case model.ActionPredictiveSwitch:
		return fmt.Sprintf("Forecast advisory: %s", e.Message)
	default:
		return e.Message
	}
}
