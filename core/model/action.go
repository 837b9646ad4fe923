package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// ActionType classifies an autonomous decision recorded by the engine.
type ActionType int

const (
	ActionPowerCutoff ActionType = iota
	ActionHybridMode
	ActionDemandSpike
	ActionPredictiveSwitch
)

// String returns the wire representation of the action type.
func (t ActionType) String() string {
	switch t {
	case ActionPowerCutoff:
		return "POWER_CUTOFF"
	case ActionHybridMode:
		return "HYBRID_MODE"
	case ActionDemandSpike:
		return "DEMAND_SPIKE"
	case ActionPredictiveSwitch:
		return "PREDICTIVE_SWITCH"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the action type by name.
func (t ActionType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes the action type from its name.
func (t *ActionType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseActionType(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseActionType converts the wire representation into an ActionType.
func ParseActionType(s string) (ActionType, error) {
	switch s {
	case "POWER_CUTOFF":
		return ActionPowerCutoff, nil
	case "HYBRID_MODE":
		return ActionHybridMode, nil
	case "DEMAND_SPIKE":
		return ActionDemandSpike, nil
	case "PREDICTIVE_SWITCH":
		return ActionPredictiveSwitch, nil
	default:
		return 0, fmt.Errorf("unknown action type %q", s)
	}
}

// ActionEntry is one immutable record of an autonomous decision and its
// energy and cost impact. Savings may be negative when a change increased
// cost; such entries are logged all the same.
type ActionEntry struct {
	ID             string     `json:"id"`
	Timestamp      time.Time  `json:"timestamp"`
	Action         ActionType `json:"action"`
	RoomID         string     `json:"room_id,omitempty"`
	BuildingID     string     `json:"building_id,omitempty"`
	Message        string     `json:"message"`
	EnergySavedKWh float64    `json:"energy_saved_kwh"`
	CostSaved      float64    `json:"cost_saved"`
	ConfigAnomaly  bool       `json:"config_anomaly,omitempty"`
}

// PredictionRecord pairs a forecast with the actual load once observed.
// Resolved is false until the horizon elapses and the actual is filled in.
type PredictionRecord struct {
	Timestamp     time.Time     `json:"timestamp"`
	Horizon       time.Duration `json:"horizon"`
	PredictedLoad float64       `json:"predicted_load"`
	ActualLoad    float64       `json:"actual_load"`
	Resolved      bool          `json:"resolved"`
}
