package service

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/stocksense/internal/cache"
	"github.com/andresuchdata/stocksense/internal/domain"
	"github.com/andresuchdata/stocksense/internal/metrics"
	"github.com/andresuchdata/stocksense/internal/pipeline"
	"github.com/andresuchdata/stocksense/internal/pipeline/reorder"
	"github.com/andresuchdata/stocksense/internal/repository"
	"github.com/rs/zerolog/log"
)

// WarningNoQuantity is returned when a suggestion with nothing to order is approved.
const WarningNoQuantity = "Suggestion approved with no quantity to order; stock unchanged."

// ReorderRunResult summarizes one reorder suggestion batch
type ReorderRunResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	SuccessCount  int    `json:"success_count"`
	NoActionCount int    `json:"no_action_count"`
	ErrorCount    int    `json:"error_count"`
}

// StatusUpdateResult is the outcome of approving or rejecting a suggestion
type StatusUpdateResult struct {
	Suggestion *domain.ReorderSuggestion `json:"suggestion"`
	NewStock   *int                      `json:"new_stock,omitempty"`
	Warning    string                    `json:"warning,omitempty"`
}

type ReorderService struct {
	products     repository.ProductRepository
	forecasts    repository.ForecastRepository
	suggestions  repository.SuggestionRepository
	cache        cache.ForecastCache
	calculator   *reorder.Calculator
	orchestrator *pipeline.Orchestrator
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewReorderService(
	store repository.Store,
	cacheImpl cache.ForecastCache,
	orchestrator *pipeline.Orchestrator,
	m *metrics.Metrics,
	cfg reorder.Config,
) *ReorderService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopForecastCache()
	}
	if orchestrator == nil {
		orchestrator = pipeline.NewOrchestrator(nil, pipeline.DefaultConfig())
	}

	return &ReorderService{
		products:     store,
		forecasts:    store,
		suggestions:  store,
		cache:        cacheImpl,
		calculator:   reorder.NewCalculator(cfg),
		orchestrator: orchestrator,
		metrics:      m,
		now:          time.Now,
	}
}

// GenerateReorderSuggestions evaluates every active product of the caller and
// creates or refreshes its pending suggestion when a reorder is needed.
func (s *ReorderService) GenerateReorderSuggestions(ctx context.Context, caller domain.Caller) (*ReorderRunResult, error) {
	started := s.now()

	products, err := s.products.ListActiveProducts(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active products: %w", err)
	}

	if len(products) == 0 {
		return &ReorderRunResult{Success: true, Message: "No active products to evaluate."}, nil
	}

	byID := make(map[int64]domain.Product, len(products))
	ids := make([]int64, len(products))
	for i, p := range products {
		byID[p.ID] = p
		ids[i] = p.ID
	}

	counts, runErr := s.orchestrator.Run(ctx, pipeline.JobReorder, caller.UserID, ids,
		func(ctx context.Context, productID int64) (pipeline.Outcome, error) {
			return s.evaluateProduct(ctx, caller, byID[productID], started)
		})

	s.metrics.ProductsProcessed(pipeline.JobReorder, "succeeded", counts.Succeeded)
	s.metrics.ProductsProcessed(pipeline.JobReorder, "skipped", counts.Skipped)
	s.metrics.ProductsProcessed(pipeline.JobReorder, "failed", counts.Failed)
	s.metrics.ObserveBatch(pipeline.JobReorder, s.now().Sub(started))

	result := &ReorderRunResult{
		Success:       counts.Failed == 0,
		Message:       reorderMessage(counts),
		SuccessCount:  counts.Succeeded,
		NoActionCount: counts.Skipped,
		ErrorCount:    counts.Failed,
	}
	if runErr != nil {
		result.Success = false
		return result, runErr
	}
	return result, nil
}

func (s *ReorderService) evaluateProduct(ctx context.Context, caller domain.Caller, product domain.Product, now time.Time) (pipeline.Outcome, error) {
	forecast, err := s.latestForecast(ctx, product.ID)
	if err != nil {
		return pipeline.OutcomeFailed, err
	}

	decision := s.calculator.Evaluate(product, forecast, now)
	if !decision.ShouldReorder {
		return pipeline.OutcomeSkipped, nil
	}

	suggestion := domain.ReorderSuggestion{
		ProductID:             product.ID,
		SuggestedQuantity:     decision.Quantity,
		Urgency:               decision.Urgency,
		Reason:                decision.Reason,
		EstimatedStockoutDate: decision.EstimatedStockoutDate,
		CostImpact:            decision.CostImpact,
		CreatedBy:             caller.UserID,
		UpdatedBy:             caller.UserID,
	}
	if err := s.suggestions.UpsertPending(ctx, &suggestion); err != nil {
		return pipeline.OutcomeFailed, err
	}

	s.metrics.SuggestionWritten(string(suggestion.Urgency))
	log.Debug().
		Int64("product_id", product.ID).
		Int64("suggestion_id", suggestion.ID).
		Str("urgency", string(suggestion.Urgency)).
		Int("quantity", suggestion.SuggestedQuantity).
		Msg("reorder suggestion written")

	return pipeline.OutcomeSucceeded, nil
}

// latestForecast reads through the cache. Cache failures fall back to the store.
func (s *ReorderService) latestForecast(ctx context.Context, productID int64) (*domain.Forecast, error) {
	if f, ok, err := s.cache.GetLatest(ctx, productID); err == nil && ok {
		return f, nil
	} else if err != nil {
		log.Warn().Err(err).Int64("product_id", productID).Msg("reorder: cache get latest forecast failed")
	}

	f, err := s.forecasts.GetLatestForecast(ctx, productID)
	if err != nil {
		return nil, err
	}

	if f != nil {
		if err := s.cache.SetLatest(ctx, *f); err != nil {
			log.Warn().Err(err).Int64("product_id", productID).Msg("reorder: cache set latest forecast failed")
		}
	}
	return f, nil
}

func reorderMessage(c pipeline.Counts) string {
	var msg string
	switch {
	case c.Failed == 0:
		msg = fmt.Sprintf("Reorder suggestions updated for %d product(s).", c.Succeeded)
	case c.Succeeded == 0 && c.Skipped == 0:
		msg = fmt.Sprintf("Reorder evaluation failed for all %d product(s).", c.Failed)
	default:
		msg = fmt.Sprintf("Reorder suggestions updated for %d product(s); %d failed.", c.Succeeded, c.Failed)
	}

	if c.Skipped > 0 {
		msg += fmt.Sprintf(" %d product(s) need no reorder.", c.Skipped)
	}
	return msg
}

// UpdateSuggestionStatus approves or rejects a pending suggestion owned by the caller.
// Approval adds the suggested quantity to the product stock and audits the movement.
func (s *ReorderService) UpdateSuggestionStatus(
	ctx context.Context,
	caller domain.Caller,
	suggestionID int64,
	status domain.SuggestionStatus,
	notes *string,
) (*StatusUpdateResult, error) {
	if !status.IsTerminal() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}

	suggestion, err := s.suggestions.GetSuggestion(ctx, suggestionID)
	if err != nil {
		return nil, err
	}

	product, err := s.products.GetProduct(ctx, suggestion.ProductID)
	if err != nil {
		return nil, err
	}
	if product.OwnerID != caller.UserID {
		return nil, fmt.Errorf("suggestion %d: %w", suggestionID, domain.ErrUnauthorized)
	}

	if suggestion.Status != domain.StatusPending {
		return nil, fmt.Errorf("suggestion %d is %s: %w", suggestionID, suggestion.Status, domain.ErrInvalidTransition)
	}

	change := domain.StatusChange{
		SuggestionID: suggestion.ID,
		ProductID:    product.ID,
		Status:       status,
		Notes:        notes,
		UpdatedBy:    caller.UserID,
		At:           s.now(),
	}

	result := &StatusUpdateResult{}
	if status == domain.StatusApproved {
		if suggestion.SuggestedQuantity > 0 {
			change.StockDelta = suggestion.SuggestedQuantity
		} else {
			result.Warning = WarningNoQuantity
		}
	}

	newStock, err := s.suggestions.ApplyStatusChange(ctx, change)
	if err != nil {
		return nil, err
	}
	result.NewStock = newStock

	s.metrics.StatusTransition(string(status))
	log.Info().
		Int64("suggestion_id", suggestion.ID).
		Int64("product_id", product.ID).
		Str("status", string(status)).
		Int("stock_delta", change.StockDelta).
		Msg("reorder suggestion status updated")

	updated, err := s.suggestions.GetSuggestion(ctx, suggestion.ID)
	if err != nil {
		return nil, err
	}
	result.Suggestion = updated

	return result, nil
}

// ListSuggestions returns the caller's suggestions, most urgent first.
func (s *ReorderService) ListSuggestions(
	ctx context.Context,
	caller domain.Caller,
	status domain.SuggestionStatus,
	urgency domain.Urgency,
	limit int,
) ([]domain.ReorderSuggestion, error) {
	return s.suggestions.ListSuggestions(ctx, domain.SuggestionFilter{
		OwnerID: caller.UserID,
		Status:  status,
		Urgency: urgency,
		Limit:   normalizeLimit(limit),
	})
}
