package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/akozyrev/stockcast/internal/models"
	"github.com/akozyrev/stockcast/internal/repository"
	"github.com/akozyrev/stockcast/internal/services"
	"github.com/gin-gonic/gin"
)

// ForecastHandler handles portfolio forecast endpoints
type ForecastHandler struct {
	forecastSvc *services.ForecastService
}

// NewForecastHandler creates a new ForecastHandler
func NewForecastHandler(forecastSvc *services.ForecastService) *ForecastHandler {
	return &ForecastHandler{
		forecastSvc: forecastSvc,
	}
}

// ForecastPortfolio handles POST /api/v1/forecast/portfolio
// @Summary Forecast portfolio growth
// @Description Projects a weighted portfolio forward and records the model run
// @Tags forecast
// @Accept json
// @Produce json
// @Param request body models.ForecastPortfolioRequest true "Holdings and horizon"
// @Success 200 {object} models.ForecastPortfolioResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/forecast/portfolio [post]
func (h *ForecastHandler) ForecastPortfolio(c *gin.Context) {
	var req models.ForecastPortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
		return
	}

	resp, err := h.forecastSvc.ForecastPortfolio(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "bad_request",
				Message: err.Error(),
			})
			return
		}
		if errors.Is(err, repository.ErrDuplicatePrediction) {
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Error:   "conflict",
				Message: err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "forecast failed",
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetRun handles GET /api/v1/forecast/runs/:id
// @Summary Get a model run
// @Description Returns a recorded model run with its predictions
// @Tags forecast
// @Produce json
// @Param id path int true "Model run ID"
// @Success 200 {object} models.ModelRunDetail
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/forecast/runs/{id} [get]
func (h *ForecastHandler) GetRun(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: "invalid model run ID",
		})
		return
	}

	detail, err := h.forecastSvc.GetRun(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrModelRunMissing) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: "model run not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "internal error",
		})
		return
	}

	c.JSON(http.StatusOK, detail)
}
