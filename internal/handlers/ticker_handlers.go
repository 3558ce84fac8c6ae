package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/akozyrev/stockcast/internal/models"
	"github.com/akozyrev/stockcast/internal/services"
	"github.com/gin-gonic/gin"
)

// TickerHandler handles catalog and price-history endpoints
type TickerHandler struct {
	tickerSvc *services.TickerService
	priceSvc  *services.PriceService
}

// NewTickerHandler creates a new TickerHandler
func NewTickerHandler(tickerSvc *services.TickerService, priceSvc *services.PriceService) *TickerHandler {
	return &TickerHandler{
		tickerSvc: tickerSvc,
		priceSvc:  priceSvc,
	}
}

// List handles GET /api/v1/tickers
// @Summary List active tickers
// @Description Active tickers ordered by symbol, optionally filtered by exchange and sector
// @Tags tickers
// @Produce json
// @Param exchange query string false "Exchange filter"
// @Param sector query string false "Sector filter"
// @Success 200 {array} models.Ticker
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/tickers [get]
func (h *TickerHandler) List(c *gin.Context) {
	var req models.ListTickersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
		return
	}

	tickers, err := h.tickerSvc.List(c.Request.Context(), req.Exchange, req.Sector)
	if err != nil {
		if errors.Is(err, services.ErrUnknownExchange) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "internal error",
		})
		return
	}

	c.JSON(http.StatusOK, tickers)
}

// GetPrices handles GET /api/v1/tickers/:symbol/prices
// @Summary Get price history for a ticker
// @Description Chronological EOD series, optionally bounded and corporate-action adjusted
// @Tags tickers
// @Produce json
// @Param symbol path string true "Ticker symbol, e.g. AAPL.US"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Param adjusted query bool false "Apply split/dividend adjustment"
// @Success 200 {object} models.GetPricesResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/tickers/{symbol}/prices [get]
func (h *TickerHandler) GetPrices(c *gin.Context) {
	symbol := c.Param("symbol")

	var req models.GetPricesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
		return
	}

	var from, to *time.Time
	if req.From != "" {
		d, err := time.Parse("2006-01-02", req.From)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "bad_request",
				Message: "from must be in YYYY-MM-DD format",
			})
			return
		}
		from = &d
	}
	if req.To != "" {
		d, err := time.Parse("2006-01-02", req.To)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "bad_request",
				Message: "to must be in YYYY-MM-DD format",
			})
			return
		}
		to = &d
	}
	if from != nil && to != nil && from.After(*to) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: "from must not be after to",
		})
		return
	}

	bars, err := h.priceSvc.GetSeries(c.Request.Context(), symbol, from, to, req.Adjusted)
	if err != nil {
		if errors.Is(err, services.ErrTickerNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "internal error",
		})
		return
	}

	c.JSON(http.StatusOK, models.GetPricesResponse{
		Symbol:     symbol,
		Adjusted:   req.Adjusted,
		DataPoints: len(bars),
		Prices:     bars,
	})
}
