package forecast

import (
	"context"
	"errors"
)

// ErrInsufficientData is returned when a series is too short to fit a model
var ErrInsufficientData = errors.New("not enough data points to forecast")

// Model projects a close-price series forward. Implementations must return
// exactly horizon values: the projected closes for the horizon trading days
// after the end of the input series.
type Model interface {
	Name() string
	Project(ctx context.Context, series []float64, horizon int) ([]float64, error)
}
