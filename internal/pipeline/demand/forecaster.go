package demand

import (
	"fmt"
	"math"
	"time"

	"github.com/andresuchdata/stocksense/internal/domain"
)

const (
	// DefaultMinDataPoints is the minimum number of distinct sales days needed to forecast.
	DefaultMinDataPoints = 7
	// AlgorithmLinearSeasonal tags forecasts produced by Forecaster.
	AlgorithmLinearSeasonal = "linear_regression_seasonal"

	minConfidence = 0.1
	maxConfidence = 0.9
)

// Result is a single next-day demand prediction.
type Result struct {
	PredictedDemand float64 `json:"predicted_demand"`
	Confidence      float64 `json:"confidence"`
	SeasonalFactor  float64 `json:"seasonal_factor"`
	TrendFactor     float64 `json:"trend_factor"`
}

// Forecaster predicts next-day demand with an ordinary least squares trend
// over the series index, scaled by a day-of-week factor.
type Forecaster struct {
	minDataPoints int
}

// NewForecaster creates a forecaster. minDataPoints below 2 falls back to the default,
// since a regression needs at least two points.
func NewForecaster(minDataPoints int) *Forecaster {
	if minDataPoints < 2 {
		minDataPoints = DefaultMinDataPoints
	}
	return &Forecaster{minDataPoints: minDataPoints}
}

// MinDataPoints returns the configured minimum series length.
func (f *Forecaster) MinDataPoints() int {
	return f.minDataPoints
}

// Forecast computes the prediction for the day after the last point of series.
// series must be ascending by date with one entry per day, as produced by Aggregate.
func (f *Forecaster) Forecast(series []domain.DailySalesPoint) (Result, error) {
	n := len(series)
	if n < f.minDataPoints {
		return Result{}, fmt.Errorf("%w: %d sales days, need %d", domain.ErrInsufficientData, n, f.minDataPoints)
	}

	quantities := make([]float64, n)
	for i, p := range series {
		quantities[i] = float64(p.Quantity)
	}
	avg := mean(quantities)

	// 1. Trend: regress quantity on the sequence position, not the date,
	// so gaps between sales days are invisible.
	slope, intercept := linearFit(quantities)
	raw := intercept + slope*float64(n)

	// 2. Day-of-week adjustment for the day after the last observation
	target := series[n-1].Date.UTC().AddDate(0, 0, 1).Weekday()
	seasonal := seasonalFactor(series, target, avg)

	// 3. Confidence from the coefficient of variation
	confidence := confidenceFromSpread(quantities, avg)

	return Result{
		PredictedDemand: roundFloat(math.Max(0, raw*seasonal), 2),
		Confidence:      confidence,
		SeasonalFactor:  seasonal,
		TrendFactor:     slope,
	}, nil
}

// linearFit returns the least squares slope and intercept of ys against x = 0..n-1.
// A degenerate denominator yields a flat line through the mean.
func linearFit(ys []float64) (slope, intercept float64) {
	n := float64(len(ys))
	if n == 0 {
		return 0, 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denominator := n*sumXX - sumX*sumX
	if denominator != 0 {
		slope = (n*sumXY - sumX*sumY) / denominator
	}
	intercept = (sumY - slope*sumX) / n

	return slope, intercept
}

// seasonalFactor compares the average of the target weekday's observations
// with the overall mean. Missing days are not treated as zero demand.
func seasonalFactor(series []domain.DailySalesPoint, target time.Weekday, avg float64) float64 {
	byWeekday := make(map[time.Weekday][]float64, 7)
	for _, p := range series {
		wd := p.Date.UTC().Weekday()
		byWeekday[wd] = append(byWeekday[wd], float64(p.Quantity))
	}

	bucket := byWeekday[target]
	if len(bucket) == 0 || avg <= 0 {
		return 1
	}

	return mean(bucket) / avg
}

func confidenceFromSpread(quantities []float64, avg float64) float64 {
	var variance float64
	for _, q := range quantities {
		variance += (q - avg) * (q - avg)
	}
	variance /= float64(len(quantities))

	cv := 1.0
	if avg > 0 {
		cv = math.Sqrt(variance) / avg
	}

	return clamp(1-cv, minConfidence, maxConfidence)
}

// NextForecastDate returns local midnight of the day after now.
func NextForecastDate(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
}
