package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andresuchdata/stocksense/internal/domain"
)

const forecastColumns = `f.id, f.product_id, f.predicted_demand, f.confidence,
		f.seasonal_factor, f.trend_factor, f.algorithm, f.forecast_date,
		f.created_at, f.created_by`

type forecastRepository struct {
	db *DB
}

func NewForecastRepository(db *DB) *forecastRepository {
	return &forecastRepository{db: db}
}

func (r *forecastRepository) SaveForecast(ctx context.Context, f *domain.Forecast) error {
	query := `
		INSERT INTO forecasts (
			product_id, predicted_demand, confidence, seasonal_factor,
			trend_factor, algorithm, forecast_date, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query,
		f.ProductID, f.PredictedDemand, f.Confidence, f.SeasonalFactor,
		f.TrendFactor, f.Algorithm, f.ForecastDate, f.CreatedBy,
	).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save forecast for product %d: %w", f.ProductID, err)
	}
	return nil
}

func (r *forecastRepository) GetLatestForecast(ctx context.Context, productID int64) (*domain.Forecast, error) {
	query := `SELECT ` + forecastColumns + `
		FROM forecasts f
		WHERE f.product_id = $1
		ORDER BY f.forecast_date DESC, f.created_at DESC, f.id DESC
		LIMIT 1`

	var f domain.Forecast
	if err := r.db.GetContext(ctx, &f, query, productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest forecast for product %d: %w", productID, err)
	}
	return &f, nil
}

func (r *forecastRepository) ListForecasts(ctx context.Context, filter domain.ForecastFilter) ([]domain.Forecast, error) {
	query := `SELECT ` + forecastColumns + `
		FROM forecasts f
		JOIN products p ON p.id = f.product_id
		WHERE p.owner_id = $1`
	args := []interface{}{filter.OwnerID}

	if filter.ProductID != nil {
		args = append(args, *filter.ProductID)
		query += fmt.Sprintf(" AND f.product_id = $%d", len(args))
	}

	query += " ORDER BY f.forecast_date DESC, f.created_at DESC, f.id DESC"

	limit, limitArgs := limitClause(filter.Limit, len(args)+1)
	query += limit
	args = append(args, limitArgs...)

	forecasts := []domain.Forecast{}
	if err := r.db.SelectContext(ctx, &forecasts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list forecasts: %w", err)
	}
	return forecasts, nil
}
