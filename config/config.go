package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment variables
type Config struct {
	PGURL      string
	Port       string
	EODHDToken string

	// Forecast model. When ModelURL is empty the built-in linear trend
	// model is used instead of the remote one.
	ModelURL  string
	ModelName string

	// LookbackDays bounds how much history is fed to the model.
	// MinBars is the minimum number of bars a ticker needs before it can
	// be forecast.
	LookbackDays int
	MinBars      int

	// BackfillSchedule is a cron expression for the nightly job that fills
	// predictions.actual_close from realized prices.
	BackfillSchedule string
}

// Load reads configuration from the environment, with an optional .env file.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	pgURL := os.Getenv("PG_URL")
	if pgURL == "" {
		return nil, fmt.Errorf("PG_URL environment variable is required")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	modelName := os.Getenv("MODEL_NAME")
	if modelName == "" {
		modelName = "linear_trend_v1"
	}

	schedule := os.Getenv("BACKFILL_SCHEDULE")
	if schedule == "" {
		schedule = "30 2 * * *" // 02:30 daily, after EOD data lands
	}

	lookback, err := intEnv("LOOKBACK_DAYS", 400)
	if err != nil {
		return nil, err
	}
	minBars, err := intEnv("MIN_BARS", 30)
	if err != nil {
		return nil, err
	}

	return &Config{
		PGURL:            pgURL,
		Port:             port,
		EODHDToken:       os.Getenv("EODHD_TOKEN"),
		ModelURL:         os.Getenv("MODEL_URL"),
		ModelName:        modelName,
		LookbackDays:     lookback,
		MinBars:          minBars,
		BackfillSchedule: schedule,
	}, nil
}

func intEnv(name string, def int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	return v, nil
}
