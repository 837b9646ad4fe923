package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/voltonic/campusgrid/core/campus"
	"github.com/voltonic/campusgrid/core/engine"
	"github.com/voltonic/campusgrid/core/forecast"
	"github.com/voltonic/campusgrid/core/metrics"
	"github.com/voltonic/campusgrid/core/occupancy"
	"github.com/voltonic/campusgrid/infra/mqtt"
)

type Config struct {
	Campus    campus.GenerateConfig `json:"campus"`
	Simulator SimulatorConfig       `json:"simulator"`
	Engine    engine.Config         `json:"engine"`
	Occupancy occupancy.Config      `json:"occupancy"`
	Forecast  ForecastConfig        `json:"forecast"`
	ActionLog ActionLogConfig       `json:"action_log"`
	MQTT      mqtt.Config           `json:"mqtt"`
	Metrics   metrics.Config        `json:"metrics"`
}

// SimulatorConfig drives the synthetic telemetry source.
type SimulatorConfig struct {
	Seed    int64   `json:"seed"`
	NoiseKW float64 `json:"noise_kw"`
}

// ForecastConfig combines adapter tuning with the background retrain cycle.
type ForecastConfig struct {
	StableTolerance float64 `json:"stable_tolerance"`
	// RetrainMinutes is the interval between background model refits. Zero
	// disables periodic retraining.
	RetrainMinutes int `json:"retrain_minutes"`
	// MinSamples is the smallest history the fitter accepts.
	MinSamples int `json:"min_samples"`
}

// Adapter returns the forecast adapter tuning section.
func (c ForecastConfig) Adapter() forecast.Config {
	return forecast.Config{StableTolerance: c.StableTolerance, MinSamples: c.MinSamples}
}

// SetDefaults applies sane defaults.
func (c *ForecastConfig) SetDefaults() {
	if c.MinSamples <= 0 {
		c.MinSamples = 24
	}
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("CG_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "cg_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Engine.SetDefaults()
	cfg.Occupancy.SetDefaults()
	cfg.Forecast.SetDefaults()
	cfg.ActionLog.SetDefaults()
	cfg.Metrics.SetDefaults()
	if err := cfg.ActionLog.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.ValidateCampus(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ValidateCampus checks the topology dimensions.
func (c Config) ValidateCampus() error {
	if c.Campus.Buildings <= 0 || c.Campus.FloorsPer <= 0 || c.Campus.RoomsPerFloor <= 0 {
		return fmt.Errorf("campus dimensions must be positive")
	}
	if c.Campus.HybridPct < 0 || c.Campus.HybridPct > 1 {
		return fmt.Errorf("hybrid_pct must be within [0,1]")
	}
	return nil
}
