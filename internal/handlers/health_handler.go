package handlers

import (
	"context"
	"net/http"

	"github.com/akozyrev/stockcast/internal/models"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// TickerCounter reports catalog size
type TickerCounter interface {
	Count(ctx context.Context) (int64, error)
}

// PriceCounter reports stored price rows
type PriceCounter interface {
	CountBars(ctx context.Context) (int64, error)
}

// HealthHandler handles the liveness endpoint
type HealthHandler struct {
	tickers TickerCounter
	prices  PriceCounter
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(tickers TickerCounter, prices PriceCounter) *HealthHandler {
	return &HealthHandler{
		tickers: tickers,
		prices:  prices,
	}
}

// Health handles GET /api/v1/health
// @Summary Liveness check
// @Description Reports ok with catalog and price-row counts; 503 when the store is unreachable
// @Tags health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /api/v1/health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	tickerCount, err := h.tickers.Count(ctx)
	if err != nil {
		log.Errorf("health check failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:   "service_unavailable",
			Message: "database unreachable",
		})
		return
	}

	priceCount, err := h.prices.CountBars(ctx)
	if err != nil {
		log.Errorf("health check failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:   "service_unavailable",
			Message: "database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "ok",
		Tickers:   tickerCount,
		PriceRows: priceCount,
	})
}
