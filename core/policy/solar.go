package policy

import "time"

// SolarFactor returns the solar availability for the given wall-clock time.
// Full output runs from 06:00 to 18:00, decays through the evening band and
// reaches zero at night. The value is recomputed each tick, never stored.
func SolarFactor(t time.Time) float64 {
	h := t.Hour()
	switch {
	case h >= 6 && h < 18:
		return 1.0
	case h == 18:
		return 0.3
	case h == 19:
		return 0.2
	case h == 20:
		return 0.1
	case h == 21:
		return 0.05
	case h == 5:
		return 0.5
	default:
		return 0.0
	}
}
