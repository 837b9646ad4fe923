package forecast

import (
	"math"
	"testing"
	"time"
)

func TestFitLinearTooFewSamples(t *testing.T) {
	points := hourlyRamp(2)
	if _, err := FitLinear(points, time.Now()); err == nil {
		t.Fatalf("expected error with %d samples", len(points))
	}
}

// TestFitLinearExactSignal generates a series that is an exact linear
// function of the model's features; the fit must recover it with near-zero
// residual.
func TestFitLinearExactSignal(t *testing.T) {
	start := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC) // Friday
	n := 96
	points := make([]SamplePoint, n)
	load := 30.0
	for i := range points {
		ts := start.Add(time.Duration(i) * time.Hour)
		occ := float64((i*7)%10) / 10
		points[i] = SamplePoint{Time: ts, CampusLoadKW: load, OccupancyRate: occ}
		weekend := 0.0
		if ts.Weekday() == time.Saturday || ts.Weekday() == time.Sunday {
			weekend = 1.0
		}
		angle := 2 * math.Pi * float64(ts.Hour()) / 24
		load = 5 + 0.5*load + 10*occ + 3*math.Sin(angle) - 4*weekend
	}
	m, err := FitLinear(points, time.Now())
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if m.ResidualKW() > 1e-6 {
		t.Fatalf("exact signal residual: got %g want ~0", m.ResidualKW())
	}
	i := 10
	want := points[i+1].CampusLoadKW
	got := m.Predict(Features{
		Hour:          points[i].Time.Hour(),
		IsWeekend:     false,
		OccupancyRate: points[i].OccupancyRate,
		LastLoadKW:    points[i].CampusLoadKW,
	})
	if math.Abs(got-want) > 1e-6 {
		t.Fatalf("prediction: got %f want %f", got, want)
	}
}

func TestPredictNeverNegative(t *testing.T) {
	points := hourlyRamp(48)
	m, err := FitLinear(points, time.Now())
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	got := m.Predict(Features{Hour: 3, IsWeekend: true, OccupancyRate: 0, LastLoadKW: 0})
	if got < 0 {
		t.Fatalf("prediction %f is negative", got)
	}
}

func TestFitLinearInfo(t *testing.T) {
	trainedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	points := hourlyRamp(48)
	m, err := FitLinear(points, trainedAt)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	info := m.Info()
	if !info.TrainedAt.Equal(trainedAt) {
		t.Fatalf("trained at %v, want %v", info.TrainedAt, trainedAt)
	}
	if info.Samples != len(points)-1 {
		t.Fatalf("samples: got %d want %d", info.Samples, len(points)-1)
	}
	if len(info.Features) != 6 {
		t.Fatalf("feature names: got %d want 6", len(info.Features))
	}
	if info.Version == "" {
		t.Fatalf("empty model version")
	}
}
