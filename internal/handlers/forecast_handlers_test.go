package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/akozyrev/stockcast/internal/forecast"
	"github.com/akozyrev/stockcast/internal/models"
	"github.com/akozyrev/stockcast/internal/repository"
	"github.com/akozyrev/stockcast/internal/services"
	"github.com/gin-gonic/gin"
)

type stubCatalog struct {
	known map[string]bool
}

func (s *stubCatalog) GetActiveBySymbols(_ context.Context, symbols []string) (map[string]*models.Ticker, error) {
	out := make(map[string]*models.Ticker)
	for _, sym := range symbols {
		if s.known[sym] {
			out[sym] = &models.Ticker{Symbol: sym, IsActive: true}
		}
	}
	return out, nil
}

type stubBars struct {
	closes float64
	n      int
}

func (s *stubBars) GetRecentBars(_ context.Context, ticker string, limit int) ([]models.PriceBar, error) {
	n := s.n
	if n > limit {
		n = limit
	}
	last := time.Date(2025, 7, 23, 0, 0, 0, 0, time.UTC)
	bars := make([]models.PriceBar, n)
	for i := 0; i < n; i++ {
		bars[i] = models.PriceBar{Ticker: ticker, Date: last.AddDate(0, 0, i-n+1), Close: s.closes}
	}
	return bars, nil
}

type stubRegistry struct {
	saveErr error
	runs    map[int64]*models.ModelRun
	preds   map[int64][]models.Prediction
	nextID  int64
}

func newStubRegistry() *stubRegistry {
	return &stubRegistry{
		runs:   make(map[int64]*models.ModelRun),
		preds:  make(map[int64][]models.Prediction),
		nextID: 1,
	}
}

func (s *stubRegistry) SaveRun(_ context.Context, run *models.ModelRun, predictions []models.Prediction) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	run.ID = s.nextID
	s.nextID++
	s.runs[run.ID] = run
	s.preds[run.ID] = predictions
	return nil
}

func (s *stubRegistry) GetRun(_ context.Context, id int64) (*models.ModelRun, error) {
	run, ok := s.runs[id]
	if !ok {
		return nil, repository.ErrModelRunNotFound
	}
	return run, nil
}

func (s *stubRegistry) GetPredictionsByRun(_ context.Context, runID int64) ([]models.Prediction, error) {
	return s.preds[runID], nil
}

func newForecastRouter(registry *stubRegistry) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := services.NewForecastService(
		&stubCatalog{known: map[string]bool{"AAPL.US": true, "MSFT.US": true}},
		&stubBars{closes: 100, n: 120},
		registry,
		forecast.NewTrendModel(""),
		400, 30,
	)
	handler := NewForecastHandler(svc)

	router := gin.New()
	router.POST("/api/v1/forecast/portfolio", handler.ForecastPortfolio)
	router.GET("/api/v1/forecast/runs/:id", handler.GetRun)
	return router
}

func postForecast(t *testing.T, router *gin.Engine, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/forecast/portfolio", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestForecastPortfolioEndpoint(t *testing.T) {
	router := newForecastRouter(newStubRegistry())

	w := postForecast(t, router, models.ForecastPortfolioRequest{
		Holdings: []models.Holding{
			{Ticker: "AAPL.US", Weight: 0.5},
			{Ticker: "MSFT.US", Weight: 0.5},
		},
		HorizonDays: 10,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, expected 200: %s", w.Code, w.Body.String())
	}

	var resp models.ForecastPortfolioResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(resp.ProjectedValues) != 10 {
		t.Errorf("Expected 10 projected values, got %d", len(resp.ProjectedValues))
	}
	if resp.ModelRunID == 0 {
		t.Error("Expected a model run ID")
	}
}

func TestForecastPortfolioEndpointBadBody(t *testing.T) {
	router := newForecastRouter(newStubRegistry())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/forecast/portfolio", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Status = %d, expected 400", w.Code)
	}
}

func TestForecastPortfolioEndpointValidation(t *testing.T) {
	router := newForecastRouter(newStubRegistry())

	w := postForecast(t, router, models.ForecastPortfolioRequest{
		Holdings:    []models.Holding{{Ticker: "NOPE.US", Weight: 1}},
		HorizonDays: 10,
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Status = %d, expected 400: %s", w.Code, w.Body.String())
	}

	var resp models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Error != "bad_request" {
		t.Errorf("Error = %q, expected bad_request", resp.Error)
	}
}

func TestForecastPortfolioEndpointConflict(t *testing.T) {
	registry := newStubRegistry()
	registry.saveErr = fmt.Errorf("%w: run 1 ticker AAPL.US", repository.ErrDuplicatePrediction)
	router := newForecastRouter(registry)

	w := postForecast(t, router, models.ForecastPortfolioRequest{
		Holdings:    []models.Holding{{Ticker: "AAPL.US", Weight: 1}},
		HorizonDays: 10,
	})

	if w.Code != http.StatusConflict {
		t.Fatalf("Status = %d, expected 409: %s", w.Code, w.Body.String())
	}

	var resp models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Error != "conflict" {
		t.Errorf("Error = %q, expected conflict", resp.Error)
	}
}

func TestForecastPortfolioEndpointInternalError(t *testing.T) {
	registry := newStubRegistry()
	registry.saveErr = fmt.Errorf("pq: out of disk")
	router := newForecastRouter(registry)

	w := postForecast(t, router, models.ForecastPortfolioRequest{
		Holdings:    []models.Holding{{Ticker: "AAPL.US", Weight: 1}},
		HorizonDays: 10,
	})

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Status = %d, expected 500", w.Code)
	}

	// The storage failure must not leak into the payload
	var resp models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Message != "forecast failed" {
		t.Errorf("Message = %q, expected the generic forecast failed", resp.Message)
	}
}

func TestGetRunEndpoint(t *testing.T) {
	registry := newStubRegistry()
	router := newForecastRouter(registry)

	w := postForecast(t, router, models.ForecastPortfolioRequest{
		Holdings:    []models.Holding{{Ticker: "AAPL.US", Weight: 1}},
		HorizonDays: 10,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Forecast failed: %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/forecast/runs/1", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, expected 200: %s", w.Code, w.Body.String())
	}

	var detail models.ModelRunDetail
	if err := json.Unmarshal(w.Body.Bytes(), &detail); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if detail.Run.ID != 1 {
		t.Errorf("Run ID = %d, expected 1", detail.Run.ID)
	}
	if len(detail.Predictions) != 1 {
		t.Errorf("Expected 1 prediction, got %d", len(detail.Predictions))
	}
}

func TestGetRunEndpointNotFound(t *testing.T) {
	router := newForecastRouter(newStubRegistry())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/forecast/runs/999", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("Status = %d, expected 404", w.Code)
	}
}

func TestGetRunEndpointBadID(t *testing.T) {
	router := newForecastRouter(newStubRegistry())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/forecast/runs/abc", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Status = %d, expected 400", w.Code)
	}
}
