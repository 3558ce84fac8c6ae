package handlers

import (
	"errors"
	"net/http"

	"github.com/akozyrev/stockcast/internal/cache"
	"github.com/akozyrev/stockcast/internal/models"
	"github.com/akozyrev/stockcast/internal/services"
	"github.com/gin-gonic/gin"
)

// AdminHandler handles admin endpoints
type AdminHandler struct {
	adminSvc    *services.AdminService
	backfillSvc *services.BackfillService
	memCache    *cache.MemoryCache
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(adminSvc *services.AdminService, backfillSvc *services.BackfillService, memCache *cache.MemoryCache) *AdminHandler {
	return &AdminHandler{
		adminSvc:    adminSvc,
		backfillSvc: backfillSvc,
		memCache:    memCache,
	}
}

// ImportTickers handles POST /admin/tickers/import
// @Summary Import ticker catalog from CSV
// @Description Upserts catalog rows from a CSV body (symbol,name,exchange[,sector,industry,currency])
// @Tags admin
// @Accept text/csv
// @Produce json
// @Success 200 {object} models.ImportTickersResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /admin/tickers/import [post]
func (h *AdminHandler) ImportTickers(c *gin.Context) {
	rows, err := ParseTickersCSV(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
		return
	}
	if len(rows) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: "CSV contains no ticker rows",
		})
		return
	}

	result, err := h.adminSvc.ImportTickers(c.Request.Context(), rows)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "catalog import failed",
		})
		return
	}

	if h.memCache != nil {
		h.memCache.Clear()
	}
	c.JSON(http.StatusOK, result)
}

// DeactivateTicker handles DELETE /admin/tickers/:symbol
// @Summary Deactivate a ticker
// @Description Soft-deletes a catalog row; price history and predictions are kept
// @Tags admin
// @Produce json
// @Param symbol path string true "Ticker symbol, e.g. AAPL.US"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /admin/tickers/{symbol} [delete]
func (h *AdminHandler) DeactivateTicker(c *gin.Context) {
	symbol := c.Param("symbol")

	if err := h.adminSvc.DeactivateTicker(c.Request.Context(), symbol); err != nil {
		if errors.Is(err, services.ErrTickerNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "deactivation failed",
		})
		return
	}

	if h.memCache != nil {
		h.memCache.Clear()
	}
	c.Status(http.StatusNoContent)
}

// SyncPrices handles POST /admin/prices/sync
// @Summary Sync prices from EODHD
// @Description Incrementally fetches EOD bars, dividends and splits for one symbol
// @Tags admin
// @Produce json
// @Param symbol query string true "Ticker symbol, e.g. AAPL.US"
// @Success 200 {object} models.SyncPricesResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /admin/prices/sync [post]
func (h *AdminHandler) SyncPrices(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: "symbol query parameter is required",
		})
		return
	}

	result, err := h.adminSvc.SyncPrices(c.Request.Context(), symbol)
	if err != nil {
		if errors.Is(err, services.ErrTickerNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: err.Error(),
			})
			return
		}
		if errors.Is(err, services.ErrNoMarketData) {
			c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
				Error:   "service_unavailable",
				Message: "EODHD_TOKEN not configured",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "price sync failed",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// BackfillPredictions handles POST /admin/backfill-predictions
// @Summary Back-fill realized closes
// @Description Fills actual_close on matured predictions; same job the nightly cron runs
// @Tags admin
// @Produce json
// @Success 200 {object} models.BackfillResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /admin/backfill-predictions [post]
func (h *AdminHandler) BackfillPredictions(c *gin.Context) {
	filled, err := h.backfillSvc.Run(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "backfill failed",
		})
		return
	}

	c.JSON(http.StatusOK, models.BackfillResponse{Filled: filled})
}
