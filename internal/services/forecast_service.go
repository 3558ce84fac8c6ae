package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/akozyrev/stockcast/internal/forecast"
	"github.com/akozyrev/stockcast/internal/models"
	"github.com/akozyrev/stockcast/internal/repository"
	"github.com/akozyrev/stockcast/internal/util"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	ErrValidation      = errors.New("invalid forecast request")
	ErrModelRunMissing = errors.New("model run not found")
)

// maxHorizonDays caps how far out a forecast may reach
const maxHorizonDays = 365

// fetchConcurrency bounds the per-holding fan-out against DB and model server
const fetchConcurrency = 4

// HoldingsCatalog resolves forecast holdings against the ticker catalog
type HoldingsCatalog interface {
	GetActiveBySymbols(ctx context.Context, symbols []string) (map[string]*models.Ticker, error)
}

// BarReader supplies the historical closes fed to the model
type BarReader interface {
	GetRecentBars(ctx context.Context, ticker string, limit int) ([]models.PriceBar, error)
}

// RunRegistry persists and reads forecast runs
type RunRegistry interface {
	SaveRun(ctx context.Context, run *models.ModelRun, predictions []models.Prediction) error
	GetRun(ctx context.Context, id int64) (*models.ModelRun, error)
	GetPredictionsByRun(ctx context.Context, runID int64) ([]models.Prediction, error)
}

// ForecastService produces portfolio growth projections and records each
// invocation in the run registry.
type ForecastService struct {
	catalog      HoldingsCatalog
	bars         BarReader
	registry     RunRegistry
	model        forecast.Model
	lookbackDays int
	minBars      int
}

// NewForecastService creates a new ForecastService
func NewForecastService(catalog HoldingsCatalog, bars BarReader, registry RunRegistry, model forecast.Model, lookbackDays, minBars int) *ForecastService {
	return &ForecastService{
		catalog:      catalog,
		bars:         bars,
		registry:     registry,
		model:        model,
		lookbackDays: lookbackDays,
		minBars:      minBars,
	}
}

// holdingProjection is the per-ticker output of the model fan-out
type holdingProjection struct {
	weight    float64
	lastClose float64
	lastDate  time.Time
	projected []float64
}

// ForecastPortfolio validates the request, projects every holding through
// the model, combines the projections into a weighted growth curve and
// persists one ModelRun plus one Prediction per holding.
func (s *ForecastService) ForecastPortfolio(ctx context.Context, req *models.ForecastPortfolioRequest) (*models.ForecastPortfolioResponse, error) {
	defer TrackTime("ForecastPortfolio", time.Now())

	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	var weightSum float64
	for _, h := range req.Holdings {
		weightSum += h.Weight
	}

	projections := make([]holdingProjection, len(req.Holdings))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, h := range req.Holdings {
		i, h := i, h
		g.Go(func() error {
			bars, err := s.bars.GetRecentBars(gctx, h.Ticker, s.lookbackDays)
			if err != nil {
				return fmt.Errorf("failed to fetch history for %s: %w", h.Ticker, err)
			}
			if len(bars) < s.minBars {
				return fmt.Errorf("%w: %s has %d bars of history, need at least %d",
					ErrValidation, h.Ticker, len(bars), s.minBars)
			}

			closes := make([]float64, len(bars))
			for j, b := range bars {
				closes[j] = b.Close
			}

			projected, err := s.model.Project(gctx, closes, req.HorizonDays)
			if err != nil {
				return fmt.Errorf("model projection failed for %s: %w", h.Ticker, err)
			}
			if len(projected) != req.HorizonDays {
				return fmt.Errorf("model returned %d values for %s, expected %d",
					len(projected), h.Ticker, req.HorizonDays)
			}

			projections[i] = holdingProjection{
				weight:    h.Weight / weightSum,
				lastClose: closes[len(closes)-1],
				lastDate:  bars[len(bars)-1].Date,
				projected: projected,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Weighted growth curve: each holding's projection normalized to its
	// last close, combined by normalized weight.
	curve := make([]float64, req.HorizonDays)
	asOf := projections[0].lastDate
	for _, p := range projections {
		if p.lastDate.After(asOf) {
			asOf = p.lastDate
		}
		for d, v := range p.projected {
			if p.lastClose > 0 {
				curve[d] += p.weight * v / p.lastClose
			}
		}
	}

	targetDate := util.NextTradingDate(util.DateOnly(asOf).AddDate(0, 0, req.HorizonDays))
	predictions := make([]models.Prediction, len(req.Holdings))
	for i, h := range req.Holdings {
		predictions[i] = models.Prediction{
			Ticker:         h.Ticker,
			Date:           targetDate,
			PredictedClose: projections[i].projected[req.HorizonDays-1],
		}
	}

	params, err := json.Marshal(models.ModelRunParams{
		HorizonDays:  req.HorizonDays,
		LookbackDays: s.lookbackDays,
		AsOf:         asOf.Format("2006-01-02"),
		Holdings:     req.Holdings,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize run params: %w", err)
	}

	run := &models.ModelRun{
		Model:  s.model.Name(),
		Params: string(params),
	}
	if err := s.registry.SaveRun(ctx, run, predictions); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"model_run_id": run.ID,
		"model":        run.Model,
		"holdings":     len(req.Holdings),
		"horizon_days": req.HorizonDays,
	}).Info("portfolio forecast recorded")

	return &models.ForecastPortfolioResponse{
		ProjectedValues: curve,
		ModelRunID:      run.ID,
		Model:           run.Model,
		AsOf:            asOf.Format("2006-01-02"),
	}, nil
}

// GetRun returns a model run with its predictions
func (s *ForecastService) GetRun(ctx context.Context, id int64) (*models.ModelRunDetail, error) {
	run, err := s.registry.GetRun(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrModelRunNotFound) {
			return nil, ErrModelRunMissing
		}
		return nil, fmt.Errorf("failed to get model run: %w", err)
	}

	predictions, err := s.registry.GetPredictionsByRun(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get predictions: %w", err)
	}

	return &models.ModelRunDetail{
		Run:         *run,
		Predictions: predictions,
	}, nil
}

// validate enforces the request invariants: non-empty holdings, unique known
// tickers, non-negative weights with a positive sum, horizon within bounds.
func (s *ForecastService) validate(ctx context.Context, req *models.ForecastPortfolioRequest) error {
	if len(req.Holdings) == 0 {
		return fmt.Errorf("%w: holdings must not be empty", ErrValidation)
	}
	if req.HorizonDays < 1 || req.HorizonDays > maxHorizonDays {
		return fmt.Errorf("%w: horizon_days must be between 1 and %d", ErrValidation, maxHorizonDays)
	}

	var problems []string
	seen := make(map[string]bool)
	symbols := make([]string, 0, len(req.Holdings))
	var weightSum float64
	for i, h := range req.Holdings {
		if h.Ticker == "" {
			problems = append(problems, fmt.Sprintf("holdings[%d]: ticker is required", i))
			continue
		}
		if seen[h.Ticker] {
			problems = append(problems, fmt.Sprintf("holdings[%d]: duplicate ticker %s", i, h.Ticker))
			continue
		}
		seen[h.Ticker] = true
		symbols = append(symbols, h.Ticker)

		if h.Weight < 0 {
			problems = append(problems, fmt.Sprintf("holdings[%d]: weight must be non-negative", i))
			continue
		}
		weightSum += h.Weight
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(problems, "; "))
	}
	if weightSum <= 0 {
		return fmt.Errorf("%w: total weight must be positive", ErrValidation)
	}

	known, err := s.catalog.GetActiveBySymbols(ctx, symbols)
	if err != nil {
		return fmt.Errorf("failed to resolve holdings: %w", err)
	}
	var unknown []string
	for _, sym := range symbols {
		if _, ok := known[sym]; !ok {
			unknown = append(unknown, sym)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: unknown tickers: %s", ErrValidation, strings.Join(unknown, ", "))
	}
	return nil
}
