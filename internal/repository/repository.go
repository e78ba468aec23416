// internal/repository/repository.go
package repository

import (
	"context"
	"time"

	"github.com/andresuchdata/stocksense/internal/domain"
)

// ProductRepository reads the product catalog.
type ProductRepository interface {
	// ListActiveProducts returns the owner's active products ordered by ID.
	ListActiveProducts(ctx context.Context, ownerID int64) ([]domain.Product, error)
	// GetProduct returns domain.ErrNotFound when the product does not exist.
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
}

// SalesRepository reads recorded sales.
type SalesRepository interface {
	ListSalesSince(ctx context.Context, productID int64, since time.Time) ([]domain.Sale, error)
}

// ForecastRepository stores forecast history.
type ForecastRepository interface {
	// SaveForecast inserts f and sets its ID.
	SaveForecast(ctx context.Context, f *domain.Forecast) error
	// GetLatestForecast returns nil, nil when the product has no forecast.
	GetLatestForecast(ctx context.Context, productID int64) (*domain.Forecast, error)
	// ListForecasts returns the owner's forecasts, most recent forecast date first.
	ListForecasts(ctx context.Context, filter domain.ForecastFilter) ([]domain.Forecast, error)
}

// SuggestionRepository stores reorder suggestions and applies their side effects.
type SuggestionRepository interface {
	// GetPendingSuggestion returns nil, nil when the product has no pending suggestion.
	GetPendingSuggestion(ctx context.Context, productID int64) (*domain.ReorderSuggestion, error)
	// UpsertPending creates the product's pending suggestion or patches the
	// existing one in place, keeping its ID, CreatedAt and CreatedBy.
	// On return s carries the stored ID and timestamps.
	UpsertPending(ctx context.Context, s *domain.ReorderSuggestion) error
	// GetSuggestion returns domain.ErrNotFound when the suggestion does not exist.
	GetSuggestion(ctx context.Context, id int64) (*domain.ReorderSuggestion, error)
	// ListSuggestions orders by urgency rank, then newest first.
	ListSuggestions(ctx context.Context, filter domain.SuggestionFilter) ([]domain.ReorderSuggestion, error)
	// ApplyStatusChange atomically updates the suggestion status and, when
	// StockDelta is non-zero, the product stock plus one stock movement.
	// It returns the new stock level, or nil when stock was untouched.
	// A suggestion that is no longer pending yields domain.ErrInvalidTransition.
	ApplyStatusChange(ctx context.Context, change domain.StatusChange) (*int, error)
}

// Store groups every repository the services need.
type Store interface {
	ProductRepository
	SalesRepository
	ForecastRepository
	SuggestionRepository
}
