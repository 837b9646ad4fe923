package engine

import "time"

// Config defines the decision-engine parameters loaded from configuration.
type Config struct {
	// TickSeconds is the evaluation interval of the loop.
	TickSeconds int `json:"tick_seconds"`
	// ForecastHighWaterPct triggers PREDICTIVE_SWITCH when the next-hour
	// forecast exceeds this fraction of aggregate campus capacity.
	ForecastHighWaterPct float64 `json:"forecast_high_water_pct"`
	// DemandSpikeKW is the per-building load increase between consecutive
	// ticks that logs a DEMAND_SPIKE advisory.
	DemandSpikeKW float64 `json:"demand_spike_kw"`
	// StandbyFraction of base load remains after an autonomous cutoff.
	StandbyFraction float64 `json:"standby_fraction"`
	// StandbyFloorKW is the minimum standby load.
	StandbyFloorKW float64 `json:"standby_floor_kw"`
	// ManualStepKW is the default adjustment for increase/decrease commands
	// without an explicit value.
	ManualStepKW float64 `json:"manual_step_kw"`
	// CommandQueue bounds the number of external events held for the next
	// tick.
	CommandQueue int `json:"command_queue"`
}

// SetDefaults applies the documented defaults.
func (c *Config) SetDefaults() {
	if c.TickSeconds <= 0 {
		c.TickSeconds = 5
	}
	if c.ForecastHighWaterPct <= 0 {
		c.ForecastHighWaterPct = 0.9
	}
	if c.DemandSpikeKW <= 0 {
		c.DemandSpikeKW = 2.0
	}
	if c.StandbyFraction <= 0 {
		c.StandbyFraction = 0.05
	}
	if c.StandbyFloorKW <= 0 {
		c.StandbyFloorKW = 0.05
	}
	if c.ManualStepKW <= 0 {
		c.ManualStepKW = 0.5
	}
	if c.CommandQueue <= 0 {
		c.CommandQueue = 128
	}
}

// TickInterval returns the tick duration.
func (c Config) TickInterval() time.Duration {
	return time.Duration(c.TickSeconds) * time.Second
}
