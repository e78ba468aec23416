package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/stocksense/internal/cache"
	"github.com/andresuchdata/stocksense/internal/domain"
	"github.com/andresuchdata/stocksense/internal/metrics"
	"github.com/andresuchdata/stocksense/internal/pipeline"
	"github.com/andresuchdata/stocksense/internal/pipeline/demand"
	"github.com/andresuchdata/stocksense/internal/repository"
	"github.com/rs/zerolog/log"
)

const (
	defaultWindowDays = 90
	defaultListLimit  = 50
	maxListLimit      = 500
)

// ForecastOptions tunes forecast generation
type ForecastOptions struct {
	WindowDays    int
	MinDataPoints int
	Algorithm     string
}

// ForecastRunResult summarizes one forecast batch
type ForecastRunResult struct {
	Success               bool   `json:"success"`
	Message               string `json:"message"`
	SuccessCount          int    `json:"success_count"`
	ErrorCount            int    `json:"error_count"`
	SkippedForNoDataCount int    `json:"skipped_for_no_data_count"`
}

type ForecastService struct {
	products     repository.ProductRepository
	sales        repository.SalesRepository
	forecasts    repository.ForecastRepository
	cache        cache.ForecastCache
	forecaster   *demand.Forecaster
	orchestrator *pipeline.Orchestrator
	metrics      *metrics.Metrics
	windowDays   int
	algorithm    string
	now          func() time.Time
}

func NewForecastService(
	store repository.Store,
	cacheImpl cache.ForecastCache,
	orchestrator *pipeline.Orchestrator,
	m *metrics.Metrics,
	opts ForecastOptions,
) *ForecastService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopForecastCache()
	}
	if orchestrator == nil {
		orchestrator = pipeline.NewOrchestrator(nil, pipeline.DefaultConfig())
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = defaultWindowDays
	}
	if opts.Algorithm == "" {
		opts.Algorithm = demand.AlgorithmLinearSeasonal
	}

	return &ForecastService{
		products:     store,
		sales:        store,
		forecasts:    store,
		cache:        cacheImpl,
		forecaster:   demand.NewForecaster(opts.MinDataPoints),
		orchestrator: orchestrator,
		metrics:      m,
		windowDays:   opts.WindowDays,
		algorithm:    opts.Algorithm,
		now:          time.Now,
	}
}

// GenerateForecasts forecasts next-day demand for every active product of the caller.
// A failing product is counted and logged; it never stops the batch.
func (s *ForecastService) GenerateForecasts(ctx context.Context, caller domain.Caller) (*ForecastRunResult, error) {
	started := s.now()

	products, err := s.products.ListActiveProducts(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active products: %w", err)
	}

	if len(products) == 0 {
		return &ForecastRunResult{Success: true, Message: "No active products to forecast."}, nil
	}

	byID := make(map[int64]domain.Product, len(products))
	ids := make([]int64, len(products))
	for i, p := range products {
		byID[p.ID] = p
		ids[i] = p.ID
	}

	windowStart := demand.WindowStart(started, s.windowDays)
	forecastDate := demand.NextForecastDate(started)

	counts, runErr := s.orchestrator.Run(ctx, pipeline.JobForecast, caller.UserID, ids,
		func(ctx context.Context, productID int64) (pipeline.Outcome, error) {
			return s.forecastProduct(ctx, caller, byID[productID], windowStart, forecastDate)
		})

	s.metrics.ProductsProcessed(pipeline.JobForecast, "succeeded", counts.Succeeded)
	s.metrics.ProductsProcessed(pipeline.JobForecast, "skipped", counts.Skipped)
	s.metrics.ProductsProcessed(pipeline.JobForecast, "failed", counts.Failed)
	s.metrics.ObserveBatch(pipeline.JobForecast, s.now().Sub(started))

	result := &ForecastRunResult{
		Success:               counts.Failed == 0,
		Message:               forecastMessage(counts, s.forecaster.MinDataPoints()),
		SuccessCount:          counts.Succeeded,
		ErrorCount:            counts.Failed,
		SkippedForNoDataCount: counts.Skipped,
	}
	if runErr != nil {
		result.Success = false
		return result, runErr
	}
	return result, nil
}

func (s *ForecastService) forecastProduct(
	ctx context.Context,
	caller domain.Caller,
	product domain.Product,
	windowStart, forecastDate time.Time,
) (pipeline.Outcome, error) {
	sales, err := s.sales.ListSalesSince(ctx, product.ID, windowStart)
	if err != nil {
		return pipeline.OutcomeFailed, err
	}

	series := demand.Aggregate(sales)
	if len(series) < s.forecaster.MinDataPoints() {
		log.Debug().
			Int64("product_id", product.ID).
			Int("sales_days", len(series)).
			Msg("forecast: not enough sales history, skipping")
		return pipeline.OutcomeSkipped, nil
	}

	result, err := s.forecaster.Forecast(series)
	if errors.Is(err, domain.ErrInsufficientData) {
		return pipeline.OutcomeSkipped, nil
	}
	if err != nil {
		return pipeline.OutcomeFailed, err
	}

	f := domain.Forecast{
		ProductID:       product.ID,
		PredictedDemand: result.PredictedDemand,
		Confidence:      result.Confidence,
		SeasonalFactor:  result.SeasonalFactor,
		TrendFactor:     result.TrendFactor,
		Algorithm:       s.algorithm,
		ForecastDate:    forecastDate,
		CreatedBy:       caller.UserID,
	}
	if err := s.forecasts.SaveForecast(ctx, &f); err != nil {
		return pipeline.OutcomeFailed, err
	}

	if err := s.cache.SetLatest(ctx, f); err != nil {
		log.Warn().Err(err).Int64("product_id", product.ID).Msg("forecast: cache set latest failed")
	}
	s.metrics.ObserveConfidence(f.Confidence)

	log.Debug().
		Int64("product_id", product.ID).
		Float64("predicted_demand", f.PredictedDemand).
		Float64("confidence", f.Confidence).
		Msg("forecast saved")

	return pipeline.OutcomeSucceeded, nil
}

func forecastMessage(c pipeline.Counts, minDataPoints int) string {
	if c.Succeeded == 0 && c.Failed == 0 && c.Skipped > 0 {
		return fmt.Sprintf("No forecasts generated: all %d product(s) lack sufficient sales history (minimum %d days).",
			c.Skipped, minDataPoints)
	}

	var msg string
	switch {
	case c.Failed == 0:
		msg = fmt.Sprintf("Forecasts generated for %d product(s).", c.Succeeded)
	case c.Succeeded == 0:
		msg = fmt.Sprintf("Forecast generation failed for %d product(s).", c.Failed)
	default:
		msg = fmt.Sprintf("Forecasts generated for %d product(s); %d failed.", c.Succeeded, c.Failed)
	}

	if c.Skipped > 0 {
		msg += fmt.Sprintf(" %d product(s) skipped for insufficient sales history.", c.Skipped)
	}
	return msg
}

// ListForecasts returns the caller's forecasts, most recent forecast date first.
func (s *ForecastService) ListForecasts(ctx context.Context, caller domain.Caller, productID *int64, limit int) ([]domain.Forecast, error) {
	return s.forecasts.ListForecasts(ctx, domain.ForecastFilter{
		OwnerID:   caller.UserID,
		ProductID: productID,
		Limit:     normalizeLimit(limit),
	})
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
