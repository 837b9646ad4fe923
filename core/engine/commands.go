package engine

import "fmt"

// ManualAction enumerates the supported manual power-control operations.
type ManualAction int

const (
	ManualIncrease ManualAction = iota
	ManualDecrease
	ManualSet
)

// String returns the wire representation of the manual action.
func (a ManualAction) String() string {
	switch a {
	case ManualIncrease:
		return "increase"
	case ManualDecrease:
		return "decrease"
	case ManualSet:
		return "set"
	default:
		return "unknown"
	}
}

// ParseManualAction converts a request string into a ManualAction.
func ParseManualAction(s string) (ManualAction, error) {
	switch s {
	case "increase":
		return ManualIncrease, nil
	case "decrease":
		return ManualDecrease, nil
	case "set":
		return ManualSet, nil
	default:
		return 0, fmt.Errorf("unsupported action %q", s)
	}
}

// command is one queued external event, applied at the next tick boundary.
type command struct {
	gridChange *gridChange
	manual     *manualOverride
}

type gridChange struct {
	available bool
	reason    string
}

type manualOverride struct {
	roomID string
	action ManualAction
	// value is the adjustment in kW; for ManualSet it is the target load.
	value float64
}

// SetGridStatus queues a grid availability change for the next tick. The
// change never applies mid-tick.
func (e *Engine) SetGridStatus(available bool, reason string) error {
	return e.enqueue(command{gridChange: &gridChange{available: available, reason: reason}})
}

// ManualPowerControl validates and queues a manual load override for the
// room. Invalid requests are rejected synchronously and never enqueued.
func (e *Engine) ManualPowerControl(roomID, action string, value *float64) error {
	act, err := ParseManualAction(action)
	if err != nil {
		return err
	}
	if _, ok := e.dir.Room(roomID); !ok {
		return fmt.Errorf("unknown room %q", roomID)
	}
	if act == ManualSet {
		if value == nil {
			return fmt.Errorf("action %q requires a value", action)
		}
		if *value < 0 {
			return fmt.Errorf("target load must be non-negative")
		}
	}
	v := e.cfg.ManualStepKW
	if value != nil {
		v = *value
	}
	return e.enqueue(command{manual: &manualOverride{roomID: roomID, action: act, value: v}})
}

func (e *Engine) enqueue(cmd command) error {
	select {
	case e.commands <- cmd:
		return nil
	default:
		return fmt.Errorf("command queue full")
	}
}

// drainCommands consumes all queued events and returns the resulting grid
// change (last writer wins) and manual overrides keyed by room.
func (e *Engine) drainCommands() (*gridChange, map[string]manualOverride) {
	var grid *gridChange
	overrides := map[string]manualOverride{}
	for {
		select {
		case cmd := <-e.commands:
			if cmd.gridChange != nil {
				grid = cmd.gridChange
			}
			if cmd.manual != nil {
				overrides[cmd.manual.roomID] = *cmd.manual
			}
		default:
			return grid, overrides
		}
	}
}

// applyOverride adjusts a freshly simulated load.
func applyOverride(load float64, o manualOverride) float64 {
	switch o.action {
	case ManualIncrease:
		load += o.value
	case ManualDecrease:
		load -= o.value
	case ManualSet:
		load = o.value
	}
	if load < 0 {
		load = 0
	}
	return load
}
