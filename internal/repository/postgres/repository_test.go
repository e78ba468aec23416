package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/andresuchdata/stocksense/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(Wrap(sqlx.NewDb(db, "postgres"))), mock
}

var suggestionRowColumns = []string{
	"id", "product_id", "suggested_quantity", "urgency", "reason",
	"estimated_stockout_date", "cost_impact", "status", "created_at",
	"updated_at", "created_by", "updated_by", "notes",
}

func TestListActiveProducts(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{
		"id", "owner_id", "sku", "name", "current_stock", "reorder_point",
		"min_stock_level", "max_stock_level", "reorder_quantity", "unit_cost",
		"selling_price", "lead_time_days", "is_active",
	}).
		AddRow(1, 7, "SKU-1", "Arabica 1kg", 12, 25, 5, 100, 50, 4.5, 9.0, 5, true).
		AddRow(2, 7, "SKU-2", "Robusta 1kg", 0, 10, 0, 60, 20, 3.25, 6.0, 3, true)

	mock.ExpectQuery(regexp.QuoteMeta("FROM products")).
		WithArgs(int64(7)).
		WillReturnRows(rows)

	products, err := store.ListActiveProducts(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "SKU-1", products[0].SKU)
	assert.Equal(t, 25, products[0].ReorderPoint)
	assert.Equal(t, 3.25, products[1].UnitCost)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProduct_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE id = $1")).
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetProduct(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetLatestForecast_None(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY f.forecast_date DESC, f.created_at DESC, f.id DESC")).
		WithArgs(int64(3)).
		WillReturnError(sql.ErrNoRows)

	f, err := store.GetLatestForecast(context.Background(), 3)
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestSaveForecast(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	f := &domain.Forecast{
		ProductID: 3, PredictedDemand: 2.96, Confidence: 0.69, SeasonalFactor: 0.61,
		TrendFactor: 0.39, Algorithm: "linear_regression_seasonal",
		ForecastDate: time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), CreatedBy: 7,
	}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO forecasts")).
		WithArgs(f.ProductID, f.PredictedDemand, f.Confidence, f.SeasonalFactor,
			f.TrendFactor, f.Algorithm, f.ForecastDate, f.CreatedBy).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(11, created))

	require.NoError(t, store.SaveForecast(context.Background(), f))
	assert.Equal(t, int64(11), f.ID)
	assert.Equal(t, created, f.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListForecasts_ProductFilterAndLimit(t *testing.T) {
	store, mock := newMockStore(t)
	productID := int64(3)

	mock.ExpectQuery(regexp.QuoteMeta("AND f.product_id = $2 ORDER BY f.forecast_date DESC, f.created_at DESC, f.id DESC LIMIT $3")).
		WithArgs(int64(7), productID, 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id"}))

	forecasts, err := store.ListForecasts(context.Background(), domain.ForecastFilter{OwnerID: 7, ProductID: &productID, Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, forecasts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSuggestions_Filters(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(suggestionRowColumns).
		AddRow(5, 3, 88, "medium", "Stock below reorder point (25)", nil, 352.0, "pending", created, created, 7, 7, nil)

	mock.ExpectQuery(`WHERE p.owner_id = \$1 AND s.status = \$2 AND s.urgency = \$3\s+ORDER BY CASE s.urgency`).
		WithArgs(int64(7), domain.StatusPending, domain.UrgencyMedium, 10).
		WillReturnRows(rows)

	got, err := store.ListSuggestions(context.Background(), domain.SuggestionFilter{
		OwnerID: 7, Status: domain.StatusPending, Urgency: domain.UrgencyMedium, Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.UrgencyMedium, got[0].Urgency)
	assert.Nil(t, got[0].EstimatedStockoutDate)
	assert.Nil(t, got[0].Notes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertPending(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)

	sg := &domain.ReorderSuggestion{
		ProductID: 3, SuggestedQuantity: 88, Urgency: domain.UrgencyMedium,
		Reason: "Stock below reorder point (25)", CostImpact: 352, CreatedBy: 9,
	}

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (product_id) WHERE status = 'pending'")).
		WithArgs(int64(3), 88, domain.UrgencyMedium, sg.Reason, nil, 352.0, int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "created_at", "updated_at", "created_by", "notes"}).
			AddRow(5, "pending", created, updated, 7, nil))

	require.NoError(t, store.UpsertPending(context.Background(), sg))
	assert.Equal(t, int64(5), sg.ID)
	assert.Equal(t, domain.StatusPending, sg.Status)
	assert.Equal(t, created, sg.CreatedAt)
	assert.Equal(t, int64(7), sg.CreatedBy)
	assert.Equal(t, int64(9), sg.UpdatedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyStatusChange_Approve(t *testing.T) {
	store, mock := newMockStore(t)
	at := time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)
	change := domain.StatusChange{
		SuggestionID: 5, ProductID: 3, Status: domain.StatusApproved,
		StockDelta: 50, UpdatedBy: 7, At: at,
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reorder_suggestions")).
		WithArgs(domain.StatusApproved, nil, at, int64(7), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE products")).
		WithArgs(50, at, int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"current_stock"}).AddRow(62))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO stock_movements")).
		WithArgs(int64(3), domain.MovementReorderApproved, 50, "REORDER-5", nil, at, int64(7)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	stock, err := store.ApplyStatusChange(context.Background(), change)
	require.NoError(t, err)
	require.NotNil(t, stock)
	assert.Equal(t, 62, *stock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyStatusChange_RejectTouchesNoStock(t *testing.T) {
	store, mock := newMockStore(t)
	at := time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)
	notes := "supplier discontinued"

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reorder_suggestions")).
		WithArgs(domain.StatusRejected, notes, at, int64(7), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	stock, err := store.ApplyStatusChange(context.Background(), domain.StatusChange{
		SuggestionID: 5, ProductID: 3, Status: domain.StatusRejected, Notes: &notes, UpdatedBy: 7, At: at,
	})
	require.NoError(t, err)
	assert.Nil(t, stock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyStatusChange_AlreadyDecided(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reorder_suggestions")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM reorder_suggestions")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("approved"))
	mock.ExpectRollback()

	_, err := store.ApplyStatusChange(context.Background(), domain.StatusChange{
		SuggestionID: 5, ProductID: 3, Status: domain.StatusApproved, StockDelta: 50,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyStatusChange_Missing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reorder_suggestions")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM reorder_suggestions")).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := store.ApplyStatusChange(context.Background(), domain.StatusChange{SuggestionID: 5})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
