package services

import (
	"fmt"
	"math"
	"sort"

	"market-insight-api/pkg/models"
)

// Forecast horizon bounds. The HTTP layer rejects values outside the range;
// the service clamps defensively for programmatic callers.
const (
	MinForecastHorizon = 1
	MaxForecastHorizon = 5
)

// Confidence policy: a trend fit always outranks a degraded single-point
// forecast, and the band widens with distance from the last observed period.
const (
	flatConfidence       = 0.3
	trendBaseConfidence  = 0.5
	trendScaleConfidence = 0.4
	baseMarginFraction   = 0.10
	stepMarginFraction   = 0.03
)

// ForecastService projects future periods from per-period aggregates using a
// least-squares linear trend, falling back to a flat projection when only one
// historical period exists.
type ForecastService struct{}

// NewForecastService creates a new ForecastService.
func NewForecastService() *ForecastService {
	return &ForecastService{}
}

// Forecast projects horizon future periods from the historical aggregates.
// Zero historical points yield an insufficient-data result with no predictions;
// that is an expected outcome of filtering, not an error.
func (s *ForecastService) Forecast(history []models.PeriodAggregate, horizon int) models.ForecastResult {
	if horizon < MinForecastHorizon {
		horizon = MinForecastHorizon
	}
	if horizon > MaxForecastHorizon {
		horizon = MaxForecastHorizon
	}

	if len(history) == 0 {
		return models.ForecastResult{
			Predictions: []models.ForecastPoint{},
			Confidence:  0,
			Method:      models.MethodInsufficientData,
		}
	}

	sorted := make([]models.PeriodAggregate, len(history))
	copy(sorted, history)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Period < sorted[j].Period })

	periods := make([]float64, len(sorted))
	marketSizes := make([]float64, len(sorted))
	avgPrices := make([]float64, len(sorted))
	growthRates := make([]float64, len(sorted))
	for i, agg := range sorted {
		periods[i] = float64(agg.Period)
		marketSizes[i] = agg.MarketSize
		avgPrices[i] = agg.AvgPrice
		growthRates[i] = agg.GrowthRate
	}

	marketTrend := fitTrend(periods, marketSizes)
	priceTrend := fitTrend(periods, avgPrices)
	growthTrend := fitTrend(periods, growthRates)

	lastPeriod := sorted[len(sorted)-1].Period
	predictions := make([]models.ForecastPoint, 0, horizon)
	for step := 1; step <= horizon; step++ {
		futurePeriod := lastPeriod + step
		predicted := math.Max(0, marketTrend.at(float64(futurePeriod)))

		// Proportional band, widening with each step beyond the last
		// observed period; lower bound clamped at zero.
		margin := (baseMarginFraction + stepMarginFraction*float64(step)) * predicted

		predictions = append(predictions, models.ForecastPoint{
			Period:              futurePeriod,
			PredictedValue:      round2(predicted),
			LowerBound:          round2(math.Max(0, predicted-margin)),
			UpperBound:          round2(predicted + margin),
			PredictedAvgPrice:   round2(math.Max(0, priceTrend.at(float64(futurePeriod)))),
			PredictedGrowthRate: round2(growthTrend.at(float64(futurePeriod))),
		})
	}

	method := models.MethodFlat
	confidence := flatConfidence
	if marketTrend.fitted {
		method = models.MethodLinearTrend
		confidence = trendBaseConfidence + trendScaleConfidence*clamp01(marketTrend.rSquared)
	}

	return models.ForecastResult{
		Predictions: predictions,
		Confidence:  round2(confidence),
		Method:      method,
	}
}

// trendLine is a fitted projection: y = slope*x + intercept. When fitted is
// false the line is a flat hold of the last observed value.
type trendLine struct {
	slope     float64
	intercept float64
	rSquared  float64
	fitted    bool
}

func (t trendLine) at(x float64) float64 {
	return t.slope*x + t.intercept
}

// fitTrend fits a least-squares line through (x, y) when at least two distinct
// x values exist; otherwise it holds the last value flat.
func fitTrend(x, y []float64) trendLine {
	if len(x) < 2 {
		return trendLine{intercept: y[len(y)-1]}
	}

	reg, err := performLinearRegression(x, y)
	if err != nil {
		return trendLine{intercept: y[len(y)-1]}
	}
	return trendLine{slope: reg.Slope, intercept: reg.Intercept, rSquared: reg.RSquared, fitted: true}
}

// performLinearRegression fits an ordinary least-squares line and reports the
// coefficient of determination.
func performLinearRegression(x, y []float64) (*models.RegressionResult, error) {
	if len(x) != len(y) || len(x) < 2 {
		return nil, fmt.Errorf("series length mismatch or not enough data points")
	}

	n := float64(len(x))
	var sumX, sumY, sumXY, sumX2 float64
	for i := 0; i < len(x); i++ {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
	}

	denominator := n*sumX2 - sumX*sumX
	if denominator == 0 {
		return nil, fmt.Errorf("all x values are identical, slope is undefined")
	}

	slope := (n*sumXY - sumX*sumY) / denominator
	intercept := (sumY - slope*sumX) / n

	meanY := sumY / n
	var ssTotal, ssResidual float64
	for i := 0; i < len(x); i++ {
		predicted := slope*x[i] + intercept
		ssTotal += (y[i] - meanY) * (y[i] - meanY)
		ssResidual += (y[i] - predicted) * (y[i] - predicted)
	}

	// A constant series is fit perfectly by the horizontal line.
	rSquared := 1.0
	if ssTotal > 0 {
		rSquared = 1 - ssResidual/ssTotal
	}

	return &models.RegressionResult{
		Slope:       slope,
		Intercept:   intercept,
		RSquared:    rSquared,
		Description: fmt.Sprintf("y = %.2fx + %.2f (R² = %.3f)", slope, intercept, rSquared),
	}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
