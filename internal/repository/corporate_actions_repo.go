package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/akozyrev/stockcast/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CorporateActionsRepository handles database operations for dividends and splits
type CorporateActionsRepository struct {
	pool *pgxpool.Pool
}

// NewCorporateActionsRepository creates a new CorporateActionsRepository
func NewCorporateActionsRepository(pool *pgxpool.Pool) *CorporateActionsRepository {
	return &CorporateActionsRepository{pool: pool}
}

// StoreDividends upserts dividend events keyed on (ticker, ex_date)
func (r *CorporateActionsRepository) StoreDividends(ctx context.Context, dividends []models.Dividend) error {
	if len(dividends) == 0 {
		return nil
	}

	query := `
		INSERT INTO dividends (ticker, ex_date, pay_date, amount, currency)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (ticker, ex_date) DO UPDATE
		SET pay_date = EXCLUDED.pay_date, amount = EXCLUDED.amount,
		    currency = EXCLUDED.currency
	`

	batch := &pgx.Batch{}
	for _, d := range dividends {
		batch.Queue(query, d.Ticker, d.ExDate, d.PayDate, d.Amount, d.Currency)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range dividends {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to store dividend: %w", err)
		}
	}
	return nil
}

// StoreSplits upserts split events keyed on (ticker, date)
func (r *CorporateActionsRepository) StoreSplits(ctx context.Context, splits []models.Split) error {
	if len(splits) == 0 {
		return nil
	}

	query := `
		INSERT INTO splits (ticker, date, numerator, denominator)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (ticker, date) DO UPDATE
		SET numerator = EXCLUDED.numerator, denominator = EXCLUDED.denominator
	`

	batch := &pgx.Batch{}
	for _, s := range splits {
		batch.Queue(query, s.Ticker, s.Date, s.Numerator, s.Denominator)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range splits {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to store split: %w", err)
		}
	}
	return nil
}

// GetDividends retrieves dividends for a ticker within a date range, ascending by ex_date
func (r *CorporateActionsRepository) GetDividends(ctx context.Context, ticker string, from, to time.Time) ([]models.Dividend, error) {
	query := `
		SELECT ticker, ex_date, pay_date, amount, currency
		FROM dividends
		WHERE ticker = $1 AND ex_date >= $2 AND ex_date <= $3
		ORDER BY ex_date ASC
	`
	rows, err := r.pool.Query(ctx, query, ticker, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query dividends: %w", err)
	}
	defer rows.Close()

	var dividends []models.Dividend
	for rows.Next() {
		var d models.Dividend
		if err := rows.Scan(&d.Ticker, &d.ExDate, &d.PayDate, &d.Amount, &d.Currency); err != nil {
			return nil, fmt.Errorf("failed to scan dividend: %w", err)
		}
		dividends = append(dividends, d)
	}
	return dividends, rows.Err()
}

// GetSplits retrieves splits for a ticker within a date range, ascending by date
func (r *CorporateActionsRepository) GetSplits(ctx context.Context, ticker string, from, to time.Time) ([]models.Split, error) {
	query := `
		SELECT ticker, date, numerator, denominator
		FROM splits
		WHERE ticker = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC
	`
	rows, err := r.pool.Query(ctx, query, ticker, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query splits: %w", err)
	}
	defer rows.Close()

	var splits []models.Split
	for rows.Next() {
		var s models.Split
		if err := rows.Scan(&s.Ticker, &s.Date, &s.Numerator, &s.Denominator); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		splits = append(splits, s)
	}
	return splits, rows.Err()
}
