package forecast

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var featureNames = []string{"bias", "hour_sin", "hour_cos", "is_weekend", "occupancy_rate", "last_hour_load"}

// LinearModel is a least-squares regression over time-of-day, weekend and
// lag features. It is immutable once fitted.
type LinearModel struct {
	coef     []float64
	residual float64
	info     ModelInfo
}

// FitLinear trains a LinearModel on consecutive hourly samples. Each row
// predicts the load one hour after its own timestamp, so at least three
// points are required.
func FitLinear(points []SamplePoint, trainedAt time.Time) (*LinearModel, error) {
	if len(points) < 3 {
		return nil, fmt.Errorf("forecast: need at least 3 samples, got %d", len(points))
	}
	rows := len(points) - 1
	cols := len(featureNames)
	x := mat.NewDense(rows, cols, nil)
	y := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		f := featureRow(Features{
			Hour:          points[i].Time.Hour(),
			DayOfWeek:     points[i].Time.Weekday(),
			IsWeekend:     isWeekend(points[i].Time),
			OccupancyRate: points[i].OccupancyRate,
			LastLoadKW:    points[i].CampusLoadKW,
		})
		x.SetRow(i, f)
		y.SetVec(i, points[i+1].CampusLoadKW)
	}

	var qr mat.QR
	qr.Factorize(x)
	coef := mat.NewVecDense(cols, nil)
	if err := qr.SolveVecTo(coef, false, y); err != nil {
		return nil, fmt.Errorf("forecast: fit failed: %w", err)
	}

	m := &LinearModel{coef: make([]float64, cols)}
	for i := 0; i < cols; i++ {
		m.coef[i] = coef.AtVec(i)
	}

	residuals := make([]float64, rows)
	absErr := 0.0
	for i := 0; i < rows; i++ {
		pred := dot(m.coef, x.RawRowView(i))
		residuals[i] = y.AtVec(i) - pred
		absErr += math.Abs(residuals[i])
	}
	m.residual = stat.StdDev(residuals, nil)
	if math.IsNaN(m.residual) {
		m.residual = 0
	}
	m.info = ModelInfo{
		Version:   fmt.Sprintf("linear-%d", trainedAt.Unix()),
		TrainedAt: trainedAt,
		Features:  featureNames,
		Samples:   rows,
		MAEKW:     absErr / float64(rows),
	}
	return m, nil
}

// Predict evaluates the fitted regression for the given features.
func (m *LinearModel) Predict(f Features) float64 {
	v := dot(m.coef, featureRow(f))
	if v < 0 {
		return 0
	}
	return v
}

// ResidualKW returns the standard deviation of training residuals.
func (m *LinearModel) ResidualKW() float64 { return m.residual }

// Info returns the model metadata.
func (m *LinearModel) Info() ModelInfo { return m.info }

func featureRow(f Features) []float64 {
	weekend := 0.0
	if f.IsWeekend {
		weekend = 1.0
	}
	angle := 2 * math.Pi * float64(f.Hour) / 24
	return []float64{1, math.Sin(angle), math.Cos(angle), weekend, f.OccupancyRate, f.LastLoadKW}
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func isWeekend(t time.Time) bool {
	return t.Weekday() == time.Saturday || t.Weekday() == time.Sunday
}
