package demand

import (
	"math"
	"testing"
	"time"

	"github.com/andresuchdata/stocksense/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// monday is 2024-01-01, a Monday.
var monday = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func consecutiveSeries(start time.Time, quantities ...int) []domain.DailySalesPoint {
	series := make([]domain.DailySalesPoint, len(quantities))
	for i, q := range quantities {
		series[i] = domain.DailySalesPoint{Date: start.AddDate(0, 0, i), Quantity: q}
	}
	return series
}

func TestForecaster_RefusesShortSeries(t *testing.T) {
	f := NewForecaster(DefaultMinDataPoints)

	for n := 0; n < DefaultMinDataPoints; n++ {
		quantities := make([]int, n)
		for i := range quantities {
			quantities[i] = 3
		}
		_, err := f.Forecast(consecutiveSeries(monday, quantities...))
		require.Error(t, err, "n=%d", n)
		assert.ErrorIs(t, err, domain.ErrInsufficientData)
	}
}

func TestForecaster_WeeklySeries(t *testing.T) {
	f := NewForecaster(DefaultMinDataPoints)
	series := consecutiveSeries(monday, 2, 3, 2, 4, 3, 5, 4)

	got, err := f.Forecast(series)
	require.NoError(t, err)

	// slope 77/196; next day is a Monday whose only observation is 2
	assert.InDelta(t, 77.0/196.0, got.TrendFactor, 1e-12)
	assert.InDelta(t, 2.0/(23.0/7.0), got.SeasonalFactor, 1e-12)
	assert.Equal(t, 2.96, got.PredictedDemand)
	assert.InDelta(t, 0.68647, got.Confidence, 1e-4)

	again, err := f.Forecast(series)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestForecaster_NegativeTrendIsFlooredAtZero(t *testing.T) {
	f := NewForecaster(DefaultMinDataPoints)
	series := consecutiveSeries(monday, 60, 45, 30, 20, 10, 5, 1)

	got, err := f.Forecast(series)
	require.NoError(t, err)

	assert.Less(t, got.TrendFactor, 0.0)
	assert.Equal(t, 0.0, got.PredictedDemand)
}

func TestForecaster_ConstantDemandHasMaxConfidence(t *testing.T) {
	f := NewForecaster(DefaultMinDataPoints)
	series := consecutiveSeries(monday, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4)

	got, err := f.Forecast(series)
	require.NoError(t, err)

	assert.Equal(t, 0.9, got.Confidence)
	assert.Equal(t, 0.0, got.TrendFactor)
	assert.Equal(t, 1.0, got.SeasonalFactor)
	assert.Equal(t, 4.0, got.PredictedDemand)
}

func TestForecaster_VolatileDemandHasFloorConfidence(t *testing.T) {
	f := NewForecaster(DefaultMinDataPoints)
	series := consecutiveSeries(monday, 1, 1, 1, 1, 1, 1, 200)

	got, err := f.Forecast(series)
	require.NoError(t, err)

	assert.Equal(t, 0.1, got.Confidence)
}

func TestForecaster_MissingWeekdayKeepsNeutralFactor(t *testing.T) {
	f := NewForecaster(DefaultMinDataPoints)
	// Sales only on Mondays and Tuesdays; the day after the last point
	// (a Tuesday) is a Wednesday, which has no observations.
	var series []domain.DailySalesPoint
	for week := 0; week < 4; week++ {
		base := monday.AddDate(0, 0, 7*week)
		series = append(series,
			domain.DailySalesPoint{Date: base, Quantity: 5},
			domain.DailySalesPoint{Date: base.AddDate(0, 0, 1), Quantity: 9},
		)
	}

	got, err := f.Forecast(series)
	require.NoError(t, err)

	assert.Equal(t, 1.0, got.SeasonalFactor)
}

func TestForecaster_PropertiesHoldAcrossInputs(t *testing.T) {
	f := NewForecaster(DefaultMinDataPoints)
	inputs := [][]int{
		{1, 1, 1, 1, 1, 1, 1},
		{10, 1, 10, 1, 10, 1, 10, 1},
		{100, 90, 80, 70, 60, 50, 40, 30, 20, 10},
		{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14},
		{3, 7, 1, 9, 2, 8, 4, 6, 5, 3, 1, 12},
	}

	for _, quantities := range inputs {
		got, err := f.Forecast(consecutiveSeries(monday.AddDate(0, 0, 3), quantities...))
		require.NoError(t, err)

		assert.GreaterOrEqual(t, got.PredictedDemand, 0.0)
		assert.False(t, math.IsNaN(got.PredictedDemand) || math.IsInf(got.PredictedDemand, 0))
		assert.GreaterOrEqual(t, got.Confidence, 0.1)
		assert.LessOrEqual(t, got.Confidence, 0.9)
		assert.GreaterOrEqual(t, got.SeasonalFactor, 0.0)
	}
}

func TestNewForecaster_ClampsMinimum(t *testing.T) {
	assert.Equal(t, DefaultMinDataPoints, NewForecaster(0).MinDataPoints())
	assert.Equal(t, DefaultMinDataPoints, NewForecaster(1).MinDataPoints())
	assert.Equal(t, 14, NewForecaster(14).MinDataPoints())
}

func TestLinearFit_DegenerateSeries(t *testing.T) {
	slope, intercept := linearFit([]float64{5})
	assert.Equal(t, 0.0, slope)
	assert.Equal(t, 5.0, intercept)
}

func TestNextForecastDate(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*60*60)
	now := time.Date(2024, 3, 31, 23, 30, 0, 0, loc)

	got := NextForecastDate(now)

	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, loc), got)
}
