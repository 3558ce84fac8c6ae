package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akozyrev/stockcast/internal/models"
	"github.com/akozyrev/stockcast/internal/repository"
	"github.com/akozyrev/stockcast/internal/util"
	log "github.com/sirupsen/logrus"
)

var ErrNoMarketData = errors.New("market data source not configured")

// defaultSyncYears is how far back a first sync reaches when a ticker has no
// stored bars yet.
const defaultSyncYears = 10

// MarketData is the external EOD data source (EODHD in production)
type MarketData interface {
	GetEOD(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error)
	GetDividends(ctx context.Context, symbol string, from time.Time) ([]models.Dividend, error)
	GetSplits(ctx context.Context, symbol string, from time.Time) ([]models.Split, error)
}

// CatalogWriter is the slice of the ticker repository the admin paths need
type CatalogWriter interface {
	GetBySymbol(ctx context.Context, symbol string) (*models.Ticker, error)
	UpsertTickers(ctx context.Context, inputs []repository.TickerInput) (int, int, []error)
	Deactivate(ctx context.Context, symbol string) error
}

// BarWriter persists synced market data
type BarWriter interface {
	LastDate(ctx context.Context, ticker string) (*time.Time, error)
	StoreBars(ctx context.Context, bars []models.PriceBar) error
}

// ActionWriter persists synced corporate actions
type ActionWriter interface {
	StoreDividends(ctx context.Context, dividends []models.Dividend) error
	StoreSplits(ctx context.Context, splits []models.Split) error
}

// AdminService handles catalog imports and market-data syncs
type AdminService struct {
	catalog CatalogWriter
	prices  BarWriter
	actions ActionWriter
	market  MarketData
}

// NewAdminService creates a new AdminService. market may be nil when no
// EODHD token is configured; SyncPrices then fails with ErrNoMarketData.
func NewAdminService(catalog CatalogWriter, prices BarWriter, actions ActionWriter, market MarketData) *AdminService {
	return &AdminService{
		catalog: catalog,
		prices:  prices,
		actions: actions,
		market:  market,
	}
}

// ImportTickers upserts parsed catalog rows. Existing symbols are updated
// and reactivated.
func (s *AdminService) ImportTickers(ctx context.Context, inputs []repository.TickerInput) (*models.ImportTickersResponse, error) {
	imported, skipped, errs := s.catalog.UpsertTickers(ctx, inputs)
	for _, err := range errs {
		log.Warnf("ticker import: %v", err)
	}

	log.WithFields(log.Fields{
		"imported": imported,
		"skipped":  skipped,
	}).Info("catalog import finished")

	return &models.ImportTickersResponse{
		Imported: imported,
		Skipped:  skipped,
	}, nil
}

// DeactivateTicker soft-deletes a catalog row. History and predictions for
// the symbol stay in place; it just stops appearing in listings and can no
// longer be forecast.
func (s *AdminService) DeactivateTicker(ctx context.Context, symbol string) error {
	if err := s.catalog.Deactivate(ctx, symbol); err != nil {
		if errors.Is(err, repository.ErrTickerNotFound) {
			return fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
		}
		return fmt.Errorf("failed to deactivate ticker: %w", err)
	}

	log.WithField("symbol", symbol).Info("ticker deactivated")
	return nil
}

// SyncPrices pulls EOD bars, dividends and splits for one symbol from the
// market-data source and upserts them. The sync is incremental: it resumes
// from the day after the last stored bar, or reaches defaultSyncYears back
// on first sync.
func (s *AdminService) SyncPrices(ctx context.Context, symbol string) (*models.SyncPricesResponse, error) {
	defer TrackTime("SyncPrices", time.Now())

	if s.market == nil {
		return nil, ErrNoMarketData
	}

	if _, err := s.catalog.GetBySymbol(ctx, symbol); err != nil {
		if errors.Is(err, repository.ErrTickerNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
		}
		return nil, fmt.Errorf("failed to resolve ticker: %w", err)
	}

	to := util.DateOnly(time.Now().UTC())
	from := to.AddDate(-defaultSyncYears, 0, 0)
	last, err := s.prices.LastDate(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to determine sync start: %w", err)
	}
	if last != nil {
		from = last.AddDate(0, 0, 1)
	}

	bars, err := s.market.GetEOD(ctx, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch EOD bars: %w", err)
	}
	if err := s.prices.StoreBars(ctx, bars); err != nil {
		return nil, err
	}

	dividends, err := s.market.GetDividends(ctx, symbol, from)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dividends: %w", err)
	}
	if err := s.actions.StoreDividends(ctx, dividends); err != nil {
		return nil, err
	}

	splits, err := s.market.GetSplits(ctx, symbol, from)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch splits: %w", err)
	}
	if err := s.actions.StoreSplits(ctx, splits); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"symbol":    symbol,
		"bars":      len(bars),
		"dividends": len(dividends),
		"splits":    len(splits),
	}).Info("price sync finished")

	return &models.SyncPricesResponse{
		Symbol:    symbol,
		Bars:      len(bars),
		Dividends: len(dividends),
		Splits:    len(splits),
		From:      from.Format("2006-01-02"),
		To:        to.Format("2006-01-02"),
	}, nil
}
