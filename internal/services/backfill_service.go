package services

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// ActualsFiller fills realized closes into matured predictions
type ActualsFiller interface {
	BackfillActuals(ctx context.Context) (int64, error)
}

// BackfillService fills predictions.actual_close from realized closes.
// Runs nightly on a cron schedule and on demand via the admin endpoint;
// both paths are idempotent.
type BackfillService struct {
	registry ActualsFiller
}

// NewBackfillService creates a new BackfillService
func NewBackfillService(registry ActualsFiller) *BackfillService {
	return &BackfillService{registry: registry}
}

// Run back-fills matured predictions and returns the number of rows filled
func (s *BackfillService) Run(ctx context.Context) (int64, error) {
	defer TrackTime("Backfill", time.Now())

	filled, err := s.registry.BackfillActuals(ctx)
	if err != nil {
		log.Errorf("prediction backfill failed: %v", err)
		return 0, err
	}

	if filled > 0 {
		log.WithField("filled", filled).Info("prediction backfill finished")
	}
	return filled, nil
}
