package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/akozyrev/stockcast/internal/forecast"
	"github.com/akozyrev/stockcast/internal/models"
	"github.com/akozyrev/stockcast/internal/repository"
)

// fakeHoldingsCatalog resolves a fixed set of known symbols
type fakeHoldingsCatalog struct {
	known map[string]bool
	err   error
}

func (f *fakeHoldingsCatalog) GetActiveBySymbols(_ context.Context, symbols []string) (map[string]*models.Ticker, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]*models.Ticker)
	for _, s := range symbols {
		if f.known[s] {
			out[s] = &models.Ticker{Symbol: s, IsActive: true}
		}
	}
	return out, nil
}

// fakeBarReader serves synthetic constant-price histories per ticker
type fakeBarReader struct {
	closes  map[string]float64
	numBars map[string]int
	lastDay time.Time
}

func (f *fakeBarReader) GetRecentBars(_ context.Context, ticker string, limit int) ([]models.PriceBar, error) {
	n := f.numBars[ticker]
	if n > limit {
		n = limit
	}
	bars := make([]models.PriceBar, n)
	for i := 0; i < n; i++ {
		bars[i] = models.PriceBar{
			Ticker: ticker,
			Date:   f.lastDay.AddDate(0, 0, i-n+1),
			Close:  f.closes[ticker],
		}
	}
	return bars, nil
}

// fakeRunRegistry captures saved runs in memory
type fakeRunRegistry struct {
	saveErr     error
	nextID      int64
	savedRun    *models.ModelRun
	savedPreds  []models.Prediction
	runs        map[int64]*models.ModelRun
	predictions map[int64][]models.Prediction
}

func newFakeRunRegistry() *fakeRunRegistry {
	return &fakeRunRegistry{
		nextID:      1,
		runs:        make(map[int64]*models.ModelRun),
		predictions: make(map[int64][]models.Prediction),
	}
}

func (f *fakeRunRegistry) SaveRun(_ context.Context, run *models.ModelRun, predictions []models.Prediction) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	run.ID = f.nextID
	run.CreatedAt = time.Now()
	f.nextID++
	for i := range predictions {
		predictions[i].ModelRunID = run.ID
	}
	f.savedRun = run
	f.savedPreds = predictions
	f.runs[run.ID] = run
	f.predictions[run.ID] = predictions
	return nil
}

func (f *fakeRunRegistry) GetRun(_ context.Context, id int64) (*models.ModelRun, error) {
	run, ok := f.runs[id]
	if !ok {
		return nil, repository.ErrModelRunNotFound
	}
	return run, nil
}

func (f *fakeRunRegistry) GetPredictionsByRun(_ context.Context, runID int64) ([]models.Prediction, error) {
	return f.predictions[runID], nil
}

func newTestForecastService(catalog *fakeHoldingsCatalog, bars *fakeBarReader, registry *fakeRunRegistry) *ForecastService {
	return NewForecastService(catalog, bars, registry, forecast.NewTrendModel(""), 400, 30)
}

func TestForecastPortfolio(t *testing.T) {
	catalog := &fakeHoldingsCatalog{known: map[string]bool{"AAPL.US": true, "MSFT.US": true}}
	bars := &fakeBarReader{
		closes:  map[string]float64{"AAPL.US": 100, "MSFT.US": 200},
		numBars: map[string]int{"AAPL.US": 120, "MSFT.US": 120},
		lastDay: time.Date(2025, 7, 23, 0, 0, 0, 0, time.UTC), // Wednesday
	}
	registry := newFakeRunRegistry()
	svc := newTestForecastService(catalog, bars, registry)

	resp, err := svc.ForecastPortfolio(context.Background(), &models.ForecastPortfolioRequest{
		Holdings: []models.Holding{
			{Ticker: "AAPL.US", Weight: 0.6},
			{Ticker: "MSFT.US", Weight: 0.4},
		},
		HorizonDays: 5,
	})
	if err != nil {
		t.Fatalf("ForecastPortfolio failed: %v", err)
	}

	if len(resp.ProjectedValues) != 5 {
		t.Fatalf("Expected 5 projected values, got %d", len(resp.ProjectedValues))
	}
	// Both histories are flat, so the weighted growth curve stays at 1.0
	for i, v := range resp.ProjectedValues {
		if math.Abs(v-1.0) > 1e-9 {
			t.Errorf("projected_values[%d] = %.6f, expected 1.0 for flat histories", i, v)
		}
	}
	if resp.ModelRunID != 1 {
		t.Errorf("ModelRunID = %d, expected 1", resp.ModelRunID)
	}
	if resp.Model != "linear_trend_v1" {
		t.Errorf("Model = %q, expected linear_trend_v1", resp.Model)
	}
	if resp.AsOf != "2025-07-23" {
		t.Errorf("AsOf = %q, expected 2025-07-23", resp.AsOf)
	}

	// One prediction per holding, dated horizon days out (Jul 28 is a Monday)
	if len(registry.savedPreds) != 2 {
		t.Fatalf("Expected 2 predictions, got %d", len(registry.savedPreds))
	}
	wantDate := time.Date(2025, 7, 28, 0, 0, 0, 0, time.UTC)
	for _, p := range registry.savedPreds {
		if !p.Date.Equal(wantDate) {
			t.Errorf("Prediction date for %s = %v, expected %v", p.Ticker, p.Date, wantDate)
		}
		if p.ModelRunID != 1 {
			t.Errorf("Prediction ModelRunID = %d, expected 1", p.ModelRunID)
		}
	}

	// Run params record the request
	if !strings.Contains(registry.savedRun.Params, `"horizon_days":5`) {
		t.Errorf("Run params missing horizon: %s", registry.savedRun.Params)
	}
}

func TestForecastPortfolioWeekendTarget(t *testing.T) {
	catalog := &fakeHoldingsCatalog{known: map[string]bool{"AAPL.US": true}}
	bars := &fakeBarReader{
		closes:  map[string]float64{"AAPL.US": 100},
		numBars: map[string]int{"AAPL.US": 120},
		lastDay: time.Date(2025, 7, 23, 0, 0, 0, 0, time.UTC), // Wednesday
	}
	registry := newFakeRunRegistry()
	svc := newTestForecastService(catalog, bars, registry)

	// Wednesday + 3 days = Saturday, which rolls to Monday Jul 28
	_, err := svc.ForecastPortfolio(context.Background(), &models.ForecastPortfolioRequest{
		Holdings:    []models.Holding{{Ticker: "AAPL.US", Weight: 1}},
		HorizonDays: 3,
	})
	if err != nil {
		t.Fatalf("ForecastPortfolio failed: %v", err)
	}

	wantDate := time.Date(2025, 7, 28, 0, 0, 0, 0, time.UTC)
	if !registry.savedPreds[0].Date.Equal(wantDate) {
		t.Errorf("Prediction date = %v, expected %v (rolled off weekend)", registry.savedPreds[0].Date, wantDate)
	}
}

func TestForecastPortfolioValidation(t *testing.T) {
	catalog := &fakeHoldingsCatalog{known: map[string]bool{"AAPL.US": true, "MSFT.US": true}}
	bars := &fakeBarReader{
		closes:  map[string]float64{"AAPL.US": 100, "MSFT.US": 200},
		numBars: map[string]int{"AAPL.US": 120, "MSFT.US": 120},
		lastDay: time.Date(2025, 7, 23, 0, 0, 0, 0, time.UTC),
	}

	testCases := []struct {
		name string
		req  models.ForecastPortfolioRequest
	}{
		{
			name: "empty holdings",
			req:  models.ForecastPortfolioRequest{Holdings: []models.Holding{}, HorizonDays: 30},
		},
		{
			name: "zero horizon",
			req: models.ForecastPortfolioRequest{
				Holdings:    []models.Holding{{Ticker: "AAPL.US", Weight: 1}},
				HorizonDays: 0,
			},
		},
		{
			name: "horizon too long",
			req: models.ForecastPortfolioRequest{
				Holdings:    []models.Holding{{Ticker: "AAPL.US", Weight: 1}},
				HorizonDays: 366,
			},
		},
		{
			name: "duplicate ticker",
			req: models.ForecastPortfolioRequest{
				Holdings: []models.Holding{
					{Ticker: "AAPL.US", Weight: 0.5},
					{Ticker: "AAPL.US", Weight: 0.5},
				},
				HorizonDays: 30,
			},
		},
		{
			name: "negative weight",
			req: models.ForecastPortfolioRequest{
				Holdings: []models.Holding{
					{Ticker: "AAPL.US", Weight: -0.5},
					{Ticker: "MSFT.US", Weight: 1.5},
				},
				HorizonDays: 30,
			},
		},
		{
			name: "zero weight sum",
			req: models.ForecastPortfolioRequest{
				Holdings:    []models.Holding{{Ticker: "AAPL.US", Weight: 0}},
				HorizonDays: 30,
			},
		},
		{
			name: "unknown ticker",
			req: models.ForecastPortfolioRequest{
				Holdings:    []models.Holding{{Ticker: "NOPE.US", Weight: 1}},
				HorizonDays: 30,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			registry := newFakeRunRegistry()
			svc := newTestForecastService(catalog, bars, registry)
			_, err := svc.ForecastPortfolio(context.Background(), &tc.req)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("Expected ErrValidation, got %v", err)
			}
			if registry.savedRun != nil {
				t.Error("No run should be recorded for an invalid request")
			}
		})
	}
}

func TestForecastPortfolioInsufficientHistory(t *testing.T) {
	catalog := &fakeHoldingsCatalog{known: map[string]bool{"AAPL.US": true}}
	bars := &fakeBarReader{
		closes:  map[string]float64{"AAPL.US": 100},
		numBars: map[string]int{"AAPL.US": 10}, // below minBars
		lastDay: time.Date(2025, 7, 23, 0, 0, 0, 0, time.UTC),
	}
	svc := newTestForecastService(catalog, bars, newFakeRunRegistry())

	_, err := svc.ForecastPortfolio(context.Background(), &models.ForecastPortfolioRequest{
		Holdings:    []models.Holding{{Ticker: "AAPL.US", Weight: 1}},
		HorizonDays: 30,
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for thin history, got %v", err)
	}
}

func TestForecastPortfolioDuplicateRun(t *testing.T) {
	catalog := &fakeHoldingsCatalog{known: map[string]bool{"AAPL.US": true}}
	bars := &fakeBarReader{
		closes:  map[string]float64{"AAPL.US": 100},
		numBars: map[string]int{"AAPL.US": 120},
		lastDay: time.Date(2025, 7, 23, 0, 0, 0, 0, time.UTC),
	}
	registry := newFakeRunRegistry()
	registry.saveErr = fmt.Errorf("%w: run 1 ticker AAPL.US", repository.ErrDuplicatePrediction)
	svc := newTestForecastService(catalog, bars, registry)

	_, err := svc.ForecastPortfolio(context.Background(), &models.ForecastPortfolioRequest{
		Holdings:    []models.Holding{{Ticker: "AAPL.US", Weight: 1}},
		HorizonDays: 30,
	})
	if !errors.Is(err, repository.ErrDuplicatePrediction) {
		t.Errorf("Expected ErrDuplicatePrediction to surface, got %v", err)
	}
}

func TestGetRun(t *testing.T) {
	catalog := &fakeHoldingsCatalog{known: map[string]bool{"AAPL.US": true}}
	bars := &fakeBarReader{
		closes:  map[string]float64{"AAPL.US": 100},
		numBars: map[string]int{"AAPL.US": 120},
		lastDay: time.Date(2025, 7, 23, 0, 0, 0, 0, time.UTC),
	}
	registry := newFakeRunRegistry()
	svc := newTestForecastService(catalog, bars, registry)

	resp, err := svc.ForecastPortfolio(context.Background(), &models.ForecastPortfolioRequest{
		Holdings:    []models.Holding{{Ticker: "AAPL.US", Weight: 1}},
		HorizonDays: 30,
	})
	if err != nil {
		t.Fatalf("ForecastPortfolio failed: %v", err)
	}

	detail, err := svc.GetRun(context.Background(), resp.ModelRunID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if detail.Run.ID != resp.ModelRunID {
		t.Errorf("Run ID = %d, expected %d", detail.Run.ID, resp.ModelRunID)
	}
	if len(detail.Predictions) != 1 {
		t.Errorf("Expected 1 prediction, got %d", len(detail.Predictions))
	}
}

func TestGetRunNotFound(t *testing.T) {
	svc := newTestForecastService(
		&fakeHoldingsCatalog{known: map[string]bool{}},
		&fakeBarReader{},
		newFakeRunRegistry(),
	)

	_, err := svc.GetRun(context.Background(), 999)
	if !errors.Is(err, ErrModelRunMissing) {
		t.Errorf("Expected ErrModelRunMissing, got %v", err)
	}
}
