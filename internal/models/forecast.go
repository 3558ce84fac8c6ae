package models

import (
	"time"
)

// ModelRun records one invocation of the forecasting routine with its
// parameters, for reproducibility.
type ModelRun struct {
	ID        int64     `json:"id"`
	Model     string    `json:"model"`
	Params    string    `json:"params"` // serialized JSON
	CreatedAt time.Time `json:"created_at"`
}

// Prediction is one point prediction emitted by a model run.
// ActualClose stays nil until the target date's close is realized and the
// back-fill job fills it in. Rows are unique on (model_run_id, ticker, date).
type Prediction struct {
	ID             int64     `json:"id"`
	ModelRunID     int64     `json:"model_run_id"`
	Ticker         string    `json:"ticker"`
	Date           time.Time `json:"date"`
	PredictedClose float64   `json:"predicted_close"`
	ActualClose    *float64  `json:"actual_close,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ModelRunDetail combines a model run with its predictions
type ModelRunDetail struct {
	Run         ModelRun     `json:"run"`
	Predictions []Prediction `json:"predictions"`
}

// ModelRunParams is the serialized shape stored in model_runs.params.
type ModelRunParams struct {
	HorizonDays  int       `json:"horizon_days"`
	LookbackDays int       `json:"lookback_days"`
	AsOf         string    `json:"as_of"`
	Holdings     []Holding `json:"holdings"`
}
