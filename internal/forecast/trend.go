package forecast

import (
	"context"
)

// TrendModel is the built-in fallback forecaster: an ordinary least-squares
// fit of close against bar index, extended horizon days past the end of the
// series. It exists so the service works without a remote model configured.
type TrendModel struct {
	name string
}

// NewTrendModel creates a TrendModel reporting the given model name
func NewTrendModel(name string) *TrendModel {
	if name == "" {
		name = "linear_trend_v1"
	}
	return &TrendModel{name: name}
}

// Name returns the model name recorded in the run registry
func (m *TrendModel) Name() string {
	return m.name
}

// Project fits close = a + b*t over the input series and evaluates the line
// at t = n .. n+horizon-1. Projections are floored at zero; a price cannot
// go negative.
func (m *TrendModel) Project(_ context.Context, series []float64, horizon int) ([]float64, error) {
	n := len(series)
	if n < 2 {
		return nil, ErrInsufficientData
	}

	// OLS over t = 0..n-1
	var sumT, sumY, sumTY, sumTT float64
	for t, y := range series {
		ft := float64(t)
		sumT += ft
		sumY += y
		sumTY += ft * y
		sumTT += ft * ft
	}
	fn := float64(n)
	denom := fn*sumTT - sumT*sumT
	var slope float64
	if denom != 0 {
		slope = (fn*sumTY - sumT*sumY) / denom
	}
	intercept := (sumY - slope*sumT) / fn

	projected := make([]float64, horizon)
	for i := 0; i < horizon; i++ {
		v := intercept + slope*float64(n+i)
		if v < 0 {
			v = 0
		}
		projected[i] = v
	}
	return projected, nil
}
