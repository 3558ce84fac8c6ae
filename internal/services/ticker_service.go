package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/akozyrev/stockcast/internal/cache"
	"github.com/akozyrev/stockcast/internal/models"
)

var ErrUnknownExchange = errors.New("unknown exchange")

// TickerCatalog is the slice of the ticker repository the listing path needs
type TickerCatalog interface {
	ListActive(ctx context.Context, exchange, sector string) ([]*models.Ticker, error)
	ExchangeExists(ctx context.Context, exchange string) (bool, error)
}

// TickerService handles catalog listing logic
type TickerService struct {
	catalog  TickerCatalog
	memCache *cache.MemoryCache
}

// NewTickerService creates a new TickerService. memCache may be nil to
// disable caching.
func NewTickerService(catalog TickerCatalog, memCache *cache.MemoryCache) *TickerService {
	return &TickerService{
		catalog:  catalog,
		memCache: memCache,
	}
}

// List returns active tickers ordered by symbol. An exchange filter that no
// catalog row carries at all is ErrUnknownExchange; a known exchange with no
// active tickers yields an empty list.
func (s *TickerService) List(ctx context.Context, exchange, sector string) ([]*models.Ticker, error) {
	if s.memCache != nil {
		if cached, ok := s.memCache.GetTickers(exchange, sector); ok {
			return cached, nil
		}
	}

	tickers, err := s.catalog.ListActive(ctx, exchange, sector)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickers: %w", err)
	}

	if len(tickers) == 0 && exchange != "" {
		exists, err := s.catalog.ExchangeExists(ctx, exchange)
		if err != nil {
			return nil, fmt.Errorf("failed to check exchange: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: %s", ErrUnknownExchange, exchange)
		}
	}

	if tickers == nil {
		tickers = []*models.Ticker{}
	}
	if s.memCache != nil {
		s.memCache.SetTickers(exchange, sector, tickers)
	}
	return tickers, nil
}
