package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/akozyrev/stockcast/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrTickerNotFound = errors.New("ticker not found")

// TickerRepository handles database operations for the ticker catalog
type TickerRepository struct {
	pool *pgxpool.Pool
}

// NewTickerRepository creates a new TickerRepository
func NewTickerRepository(pool *pgxpool.Pool) *TickerRepository {
	return &TickerRepository{pool: pool}
}

// ListActive retrieves active tickers ordered by symbol, optionally filtered
// by exchange and/or sector.
func (r *TickerRepository) ListActive(ctx context.Context, exchange, sector string) ([]*models.Ticker, error) {
	query := `
		SELECT id, symbol, name, exchange, sector, industry, currency, is_active
		FROM tickers
		WHERE is_active
	`
	args := []any{}
	if exchange != "" {
		args = append(args, exchange)
		query += fmt.Sprintf(" AND exchange = $%d", len(args))
	}
	if sector != "" {
		args = append(args, sector)
		query += fmt.Sprintf(" AND sector = $%d", len(args))
	}
	query += " ORDER BY symbol"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickers: %w", err)
	}
	defer rows.Close()

	var result []*models.Ticker
	for rows.Next() {
		t := &models.Ticker{}
		if err := rows.Scan(&t.ID, &t.Symbol, &t.Name, &t.Exchange, &t.Sector, &t.Industry, &t.Currency, &t.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// ExchangeExists reports whether any catalog row, active or not, carries the
// given exchange. Used to distinguish "unknown exchange" from "known but empty".
func (r *TickerRepository) ExchangeExists(ctx context.Context, exchange string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM tickers WHERE exchange = $1)`, exchange,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check exchange: %w", err)
	}
	return exists, nil
}

// GetBySymbol retrieves a ticker by its symbol
func (r *TickerRepository) GetBySymbol(ctx context.Context, symbol string) (*models.Ticker, error) {
	query := `
		SELECT id, symbol, name, exchange, sector, industry, currency, is_active
		FROM tickers
		WHERE symbol = $1
	`
	t := &models.Ticker{}
	err := r.pool.QueryRow(ctx, query, symbol).Scan(
		&t.ID, &t.Symbol, &t.Name, &t.Exchange, &t.Sector, &t.Industry, &t.Currency, &t.IsActive,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTickerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticker: %w", err)
	}
	return t, nil
}

// GetActiveBySymbols retrieves active tickers for the given symbols in one
// query, keyed by symbol. Symbols absent from the map are unknown or inactive.
func (r *TickerRepository) GetActiveBySymbols(ctx context.Context, symbols []string) (map[string]*models.Ticker, error) {
	if len(symbols) == 0 {
		return make(map[string]*models.Ticker), nil
	}

	query := `
		SELECT id, symbol, name, exchange, sector, industry, currency, is_active
		FROM tickers
		WHERE is_active AND symbol = ANY($1)
	`
	rows, err := r.pool.Query(ctx, query, symbols)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickers by symbols: %w", err)
	}
	defer rows.Close()

	result := make(map[string]*models.Ticker)
	for rows.Next() {
		t := &models.Ticker{}
		if err := rows.Scan(&t.ID, &t.Symbol, &t.Name, &t.Exchange, &t.Sector, &t.Industry, &t.Currency, &t.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}
		result[t.Symbol] = t
	}
	return result, rows.Err()
}

// TickerInput represents one catalog row for bulk import
type TickerInput struct {
	Symbol   string
	Name     string
	Exchange string
	Sector   *string
	Industry *string
	Currency string
}

// UpsertTickers bulk-upserts catalog rows. Existing symbols are updated and
// reactivated; tickers are never hard-deleted. Returns imported/skipped counts.
func (r *TickerRepository) UpsertTickers(ctx context.Context, inputs []TickerInput) (imported int, skipped int, errs []error) {
	if len(inputs) == 0 {
		return 0, 0, nil
	}

	query := `
		INSERT INTO tickers (symbol, name, exchange, sector, industry, currency, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, true)
		ON CONFLICT (symbol) DO UPDATE SET
			name = EXCLUDED.name,
			exchange = EXCLUDED.exchange,
			sector = EXCLUDED.sector,
			industry = EXCLUDED.industry,
			currency = EXCLUDED.currency,
			is_active = true
	`

	batch := &pgx.Batch{}
	for _, in := range inputs {
		batch.Queue(query, in.Symbol, in.Name, in.Exchange, in.Sector, in.Industry, in.Currency)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for _, in := range inputs {
		if _, err := br.Exec(); err != nil {
			errs = append(errs, fmt.Errorf("failed to upsert ticker %s: %w", in.Symbol, err))
			skipped++
			continue
		}
		imported++
	}
	return imported, skipped, errs
}

// Deactivate soft-deletes a ticker by clearing its active flag
func (r *TickerRepository) Deactivate(ctx context.Context, symbol string) error {
	ct, err := r.pool.Exec(ctx, `UPDATE tickers SET is_active = false WHERE symbol = $1`, symbol)
	if err != nil {
		return fmt.Errorf("failed to deactivate ticker: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrTickerNotFound
	}
	return nil
}

// Count returns the total number of catalog rows
func (r *TickerRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tickers: %w", err)
	}
	return n, nil
}
