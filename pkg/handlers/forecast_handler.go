package handlers

import (
	"net/http"

	"market-insight-api/pkg/services"

	"github.com/gin-gonic/gin"
)

const defaultForecastHorizon = 2

// ForecastHandler serves trend projections over the filtered time series.
type ForecastHandler struct {
	analytics *services.AnalyticsService
	forecast  *services.ForecastService
	narrative *services.NarrativeService
}

// NewForecastHandler creates a new ForecastHandler.
func NewForecastHandler(analytics *services.AnalyticsService, forecast *services.ForecastService, narrative *services.NarrativeService) *ForecastHandler {
	return &ForecastHandler{
		analytics: analytics,
		forecast:  forecast,
		narrative: narrative,
	}
}

// GetForecast projects future periods for the filtered series. An empty
// history answers 200 with no predictions and an explanatory narrative; only
// malformed parameters are rejected.
func (h *ForecastHandler) GetForecast(c *gin.Context) {
	filter, err := parseFilterQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	horizon, err := parseBoundedIntQuery(c, "horizon", defaultForecastHorizon, services.MinForecastHorizon, services.MaxForecastHorizon)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	matched := h.analytics.Filter(filter)
	history := h.analytics.AggregatesByPeriod(matched)
	result := h.forecast.Forecast(history, horizon)
	narrative := h.narrative.ForecastNarrative(c.Request.Context(), filter, result)

	c.JSON(http.StatusOK, gin.H{
		"predictions": result.Predictions,
		"confidence":  result.Confidence,
		"method":      result.Method,
		"narrative":   narrative,
	})
}
