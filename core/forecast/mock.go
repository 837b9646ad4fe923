package forecast

// MockModel returns fixed predictions for tests.
type MockModel struct {
	Value    float64
	Residual float64
	Meta     ModelInfo
}

// Predict returns the configured value regardless of features.
func (m MockModel) Predict(Features) float64 { return m.Value }

// ResidualKW returns the configured residual.
func (m MockModel) ResidualKW() float64 { return m.Residual }

// Info returns the configured metadata.
func (m MockModel) Info() ModelInfo { return m.Meta }
