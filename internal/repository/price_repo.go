package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akozyrev/stockcast/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PriceRepository handles database operations for the price history store
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new PriceRepository
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// GetSeries retrieves price bars for a ticker in ascending date order.
// A nil bound leaves that side of the range open.
func (r *PriceRepository) GetSeries(ctx context.Context, ticker string, from, to *time.Time) ([]models.PriceBar, error) {
	query := `
		SELECT ticker, date, open, high, low, close, adj_close, volume
		FROM prices
		WHERE ticker = $1
	`
	args := []any{ticker}
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	query += " ORDER BY date ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()

	var bars []models.PriceBar
	for rows.Next() {
		var b models.PriceBar
		if err := rows.Scan(&b.Ticker, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.AdjClose, &b.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan price bar: %w", err)
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// GetRecentBars retrieves the most recent limit bars for a ticker, returned
// in ascending date order.
func (r *PriceRepository) GetRecentBars(ctx context.Context, ticker string, limit int) ([]models.PriceBar, error) {
	query := `
		SELECT ticker, date, open, high, low, close, adj_close, volume
		FROM (
			SELECT ticker, date, open, high, low, close, adj_close, volume
			FROM prices
			WHERE ticker = $1
			ORDER BY date DESC
			LIMIT $2
		) recent
		ORDER BY date ASC
	`
	rows, err := r.pool.Query(ctx, query, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent bars: %w", err)
	}
	defer rows.Close()

	var bars []models.PriceBar
	for rows.Next() {
		var b models.PriceBar
		if err := rows.Scan(&b.Ticker, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.AdjClose, &b.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan price bar: %w", err)
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// LastDate returns the latest stored date for a ticker, or nil when no bars
// exist yet. Used for incremental EODHD syncs.
func (r *PriceRepository) LastDate(ctx context.Context, ticker string) (*time.Time, error) {
	var last time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT date FROM prices WHERE ticker = $1 ORDER BY date DESC LIMIT 1`, ticker,
	).Scan(&last)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last price date: %w", err)
	}
	return &last, nil
}

// StoreBars upserts daily price bars. Re-ingesting the same (ticker, date)
// is idempotent.
func (r *PriceRepository) StoreBars(ctx context.Context, bars []models.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}

	query := `
		INSERT INTO prices (ticker, date, open, high, low, close, adj_close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (ticker, date) DO UPDATE
		SET open = EXCLUDED.open, high = EXCLUDED.high, low = EXCLUDED.low,
		    close = EXCLUDED.close, adj_close = EXCLUDED.adj_close,
		    volume = EXCLUDED.volume
	`

	batch := &pgx.Batch{}
	for _, b := range bars {
		batch.Queue(query, b.Ticker, b.Date, b.Open, b.High, b.Low, b.Close, b.AdjClose, b.Volume)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range bars {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to store price bar: %w", err)
		}
	}
	return nil
}

// CountBars returns the total number of stored price rows
func (r *PriceRepository) CountBars(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM prices`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count price rows: %w", err)
	}
	return n, nil
}
