package policy

import (
	"testing"
	"time"
)

func TestSolarFactorBands(t *testing.T) {
	day := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		hour int
		want float64
	}{
		{0, 0}, {4, 0}, {5, 0.5}, {6, 1.0}, {12, 1.0}, {17, 1.0},
		{18, 0.3}, {19, 0.2}, {20, 0.1}, {21, 0.05}, {22, 0}, {23, 0},
	}
	for _, c := range cases {
		got := SolarFactor(day.Add(time.Duration(c.hour) * time.Hour))
		if got != c.want {
			t.Errorf("hour %02d: got %f want %f", c.hour, got, c.want)
		}
	}
}
