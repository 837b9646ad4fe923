package config

import (
	"fmt"
)

// ActionLogConfig selects the append-only decision log backend.
type ActionLogConfig struct {
	// Backend selects the log store type: "memory", "jsonl" or "sqlite".
	Backend string `json:"backend"`
	// Path is the file location of the log store. Ignored for "memory".
	Path string `json:"path"`
	// MaxEntries bounds the in-memory backend.
	MaxEntries int `json:"max_entries"`
	// Retries is the number of append retries before an entry is reported
	// lost.
	Retries int `json:"retries"`
}

// SetDefaults applies sane defaults.
func (c *ActionLogConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		c.Path = "actions.log"
	}
	if c.Retries <= 0 {
		c.Retries = 3
	}
}

// Validate checks mandatory fields.
func (c ActionLogConfig) Validate() error {
	switch c.Backend {
	case "memory":
		return nil
	case "jsonl", "sqlite":
		if c.Path == "" {
			return fmt.Errorf("path is required")
		}
		return nil
	default:
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
}
