package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/akozyrev/stockcast/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrModelRunNotFound    = errors.New("model run not found")
	ErrDuplicatePrediction = errors.New("prediction already exists for this run, ticker and date")
)

const uniqueViolationCode = "23505"

// ForecastRepository handles database operations for model runs and predictions
type ForecastRepository struct {
	pool *pgxpool.Pool
}

// NewForecastRepository creates a new ForecastRepository
func NewForecastRepository(pool *pgxpool.Pool) *ForecastRepository {
	return &ForecastRepository{pool: pool}
}

// BeginTx starts a new transaction
func (r *ForecastRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// CreateRun inserts a model_runs row and fills in its ID and timestamp
func (r *ForecastRepository) CreateRun(ctx context.Context, tx pgx.Tx, run *models.ModelRun) error {
	query := `
		INSERT INTO model_runs (model, params)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	err := tx.QueryRow(ctx, query, run.Model, run.Params).Scan(&run.ID, &run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert model run: %w", err)
	}
	return nil
}

// InsertPredictions inserts prediction rows with actual_close left NULL.
// A duplicate (model_run_id, ticker, date) surfaces as ErrDuplicatePrediction;
// the unique index is deliberately not absorbed with ON CONFLICT so that
// concurrent identical writes fail loudly instead of silently overwriting.
func (r *ForecastRepository) InsertPredictions(ctx context.Context, tx pgx.Tx, predictions []models.Prediction) error {
	if len(predictions) == 0 {
		return nil
	}

	query := `
		INSERT INTO predictions (model_run_id, ticker, date, predicted_close)
		VALUES ($1, $2, $3, $4)
	`

	batch := &pgx.Batch{}
	for _, p := range predictions {
		batch.Queue(query, p.ModelRunID, p.Ticker, p.Date, p.PredictedClose)
	}

	br := tx.SendBatch(ctx, batch)
	defer br.Close()

	for _, p := range predictions {
		if _, err := br.Exec(); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
				return fmt.Errorf("%w: %s@%s", ErrDuplicatePrediction, p.Ticker, p.Date.Format("2006-01-02"))
			}
			return fmt.Errorf("failed to insert prediction for %s: %w", p.Ticker, err)
		}
	}
	return nil
}

// SaveRun persists a model run and its predictions in one transaction.
// Prediction rows get the new run's ID before insert.
func (r *ForecastRepository) SaveRun(ctx context.Context, run *models.ModelRun, predictions []models.Prediction) error {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := r.CreateRun(ctx, tx, run); err != nil {
		return err
	}
	for i := range predictions {
		predictions[i].ModelRunID = run.ID
	}
	if err := r.InsertPredictions(ctx, tx, predictions); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetRun retrieves a model run by ID
func (r *ForecastRepository) GetRun(ctx context.Context, id int64) (*models.ModelRun, error) {
	query := `
		SELECT id, model, params, created_at
		FROM model_runs
		WHERE id = $1
	`
	run := &models.ModelRun{}
	err := r.pool.QueryRow(ctx, query, id).Scan(&run.ID, &run.Model, &run.Params, &run.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrModelRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get model run: %w", err)
	}
	return run, nil
}

// GetPredictionsByRun retrieves the predictions of a model run, ordered by
// ticker then date.
func (r *ForecastRepository) GetPredictionsByRun(ctx context.Context, runID int64) ([]models.Prediction, error) {
	query := `
		SELECT id, model_run_id, ticker, date, predicted_close, actual_close, created_at
		FROM predictions
		WHERE model_run_id = $1
		ORDER BY ticker, date
	`
	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var predictions []models.Prediction
	for rows.Next() {
		var p models.Prediction
		if err := rows.Scan(&p.ID, &p.ModelRunID, &p.Ticker, &p.Date, &p.PredictedClose, &p.ActualClose, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		predictions = append(predictions, p)
	}
	return predictions, rows.Err()
}

// BackfillActuals fills actual_close on matured predictions from realized
// closes. Only rows with actual_close IS NULL are touched, so repeated runs
// are idempotent. Returns the number of rows filled.
func (r *ForecastRepository) BackfillActuals(ctx context.Context) (int64, error) {
	query := `
		UPDATE predictions p
		SET actual_close = pr.close
		FROM prices pr
		WHERE pr.ticker = p.ticker
		  AND pr.date = p.date
		  AND p.actual_close IS NULL
	`
	ct, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to backfill actuals: %w", err)
	}
	return ct.RowsAffected(), nil
}
