package handlers

import (
	"net/http"

	"github.com/andresuchdata/stocksense/internal/domain"
	"github.com/andresuchdata/stocksense/internal/service"
	"github.com/gin-gonic/gin"
)

type ForecastHandler struct {
	forecastService *service.ForecastService
}

func NewForecastHandler(forecastService *service.ForecastService) *ForecastHandler {
	return &ForecastHandler{forecastService: forecastService}
}

// Generate runs the forecast batch for every active product of the caller
func (h *ForecastHandler) Generate(c *gin.Context) {
	cl, ok := caller(c)
	if !ok {
		return
	}

	result, err := h.forecastService.GenerateForecasts(c.Request.Context(), cl)
	if err != nil {
		errorResponse(c, err, "failed to generate forecasts")
		return
	}

	c.JSON(http.StatusOK, result)
}

// List returns the caller's forecasts, newest first
func (h *ForecastHandler) List(c *gin.Context) {
	cl, ok := caller(c)
	if !ok {
		return
	}

	productID, ok := parseOptionalID(c.Query("product_id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_id must be a positive integer"})
		return
	}
	limit, ok := parseLimit(c.Query("limit"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}

	forecasts, err := h.forecastService.ListForecasts(c.Request.Context(), cl, productID, limit)
	if err != nil {
		errorResponse(c, err, "failed to fetch forecasts")
		return
	}
	if forecasts == nil {
		forecasts = []domain.Forecast{}
	}

	c.JSON(http.StatusOK, gin.H{"forecasts": forecasts, "count": len(forecasts)})
}
