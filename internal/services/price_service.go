package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akozyrev/stockcast/internal/models"
	"github.com/akozyrev/stockcast/internal/repository"
)

var ErrTickerNotFound = errors.New("ticker not found")

// TickerLookup resolves catalog symbols
type TickerLookup interface {
	GetBySymbol(ctx context.Context, symbol string) (*models.Ticker, error)
}

// PriceReader is the slice of the price repository the series path needs
type PriceReader interface {
	GetSeries(ctx context.Context, ticker string, from, to *time.Time) ([]models.PriceBar, error)
}

// ActionReader is the slice of the corporate-actions repository the
// adjustment path needs
type ActionReader interface {
	GetDividends(ctx context.Context, ticker string, from, to time.Time) ([]models.Dividend, error)
	GetSplits(ctx context.Context, ticker string, from, to time.Time) ([]models.Split, error)
}

// PriceService handles price series retrieval and corporate-action adjustment
type PriceService struct {
	tickers TickerLookup
	prices  PriceReader
	actions ActionReader
}

// NewPriceService creates a new PriceService
func NewPriceService(tickers TickerLookup, prices PriceReader, actions ActionReader) *PriceService {
	return &PriceService{
		tickers: tickers,
		prices:  prices,
		actions: actions,
	}
}

// GetSeries returns the chronological price series for a symbol. An unknown
// symbol is ErrTickerNotFound; an empty range is an empty slice, not an
// error. With adjusted set, OHLC values are back-adjusted for splits and
// dividends from the corporate-actions store.
func (s *PriceService) GetSeries(ctx context.Context, symbol string, from, to *time.Time, adjusted bool) ([]models.PriceBar, error) {
	defer TrackTime("GetSeries", time.Now())

	if _, err := s.tickers.GetBySymbol(ctx, symbol); err != nil {
		if errors.Is(err, repository.ErrTickerNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
		}
		return nil, fmt.Errorf("failed to resolve ticker: %w", err)
	}

	bars, err := s.prices.GetSeries(ctx, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch price series: %w", err)
	}
	if len(bars) == 0 {
		return []models.PriceBar{}, nil
	}

	if !adjusted {
		return bars, nil
	}

	first := bars[0].Date
	last := bars[len(bars)-1].Date
	splits, err := s.actions.GetSplits(ctx, symbol, first, last)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch splits: %w", err)
	}
	dividends, err := s.actions.GetDividends(ctx, symbol, first, last)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dividends: %w", err)
	}

	return AdjustBars(bars, splits, dividends), nil
}

// AdjustBars back-adjusts OHLC values for splits and dividends. Each event
// scales every bar strictly before its date: a split divides by its
// coefficient, a dividend scales by (prevClose - amount) / prevClose where
// prevClose is the close of the last bar before the ex-date. The most recent
// bar is always unchanged. AdjClose on the returned bars carries the
// adjusted close; OHLC fields are scaled in place on copies.
func AdjustBars(bars []models.PriceBar, splits []models.Split, dividends []models.Dividend) []models.PriceBar {
	factors := make([]float64, len(bars))
	for i := range factors {
		factors[i] = 1.0
	}

	applyBefore := func(cutoff time.Time, f float64) {
		if f <= 0 {
			return
		}
		for i := range bars {
			if bars[i].Date.Before(cutoff) {
				factors[i] *= f
			}
		}
	}

	for _, sp := range splits {
		coeff := sp.Coefficient()
		if coeff > 0 {
			applyBefore(sp.Date, 1.0/coeff)
		}
	}

	for _, d := range dividends {
		prev := lastCloseBefore(bars, d.ExDate)
		if prev > 0 && d.Amount > 0 && d.Amount < prev {
			applyBefore(d.ExDate, (prev-d.Amount)/prev)
		}
	}

	adjusted := make([]models.PriceBar, len(bars))
	for i, b := range bars {
		f := factors[i]
		b.Open *= f
		b.High *= f
		b.Low *= f
		b.Close *= f
		b.AdjClose = b.Close
		adjusted[i] = b
	}
	return adjusted
}

// lastCloseBefore returns the unadjusted close of the last bar strictly
// before cutoff, or 0 when none exists.
func lastCloseBefore(bars []models.PriceBar, cutoff time.Time) float64 {
	for i := len(bars) - 1; i >= 0; i-- {
		if bars[i].Date.Before(cutoff) {
			return bars[i].Close
		}
	}
	return 0
}
