// internal/domain/models.go
package domain

import (
	"fmt"
	"time"
)

// Caller is the already-authenticated actor a core operation runs on behalf of.
type Caller struct {
	UserID  int64  `json:"user_id"`
	Subject string `json:"subject,omitempty"`
}

// Product represents a catalog item owned by a user
type Product struct {
	ID              int64   `json:"id" db:"id"`
	OwnerID         int64   `json:"owner_id" db:"owner_id"`
	SKU             string  `json:"sku" db:"sku"`
	Name            string  `json:"name" db:"name"`
	CurrentStock    int     `json:"current_stock" db:"current_stock"`
	ReorderPoint    int     `json:"reorder_point" db:"reorder_point"`
	MinStockLevel   int     `json:"min_stock_level" db:"min_stock_level"`
	MaxStockLevel   int     `json:"max_stock_level" db:"max_stock_level"`
	ReorderQuantity int     `json:"reorder_quantity" db:"reorder_quantity"`
	UnitCost        float64 `json:"unit_cost" db:"unit_cost"`
	SellingPrice    float64 `json:"selling_price" db:"selling_price"`
	LeadTimeDays    int     `json:"lead_time_days" db:"lead_time_days"`
	IsActive        bool    `json:"is_active" db:"is_active"`
}

// Sale is a single recorded sale event
type Sale struct {
	ID        int64     `json:"id" db:"id"`
	ProductID int64     `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	UnitPrice float64   `json:"unit_price" db:"unit_price"`
	SaleDate  time.Time `json:"sale_date" db:"sale_date"`
	Channel   string    `json:"channel" db:"channel"`
}

// DailySalesPoint is the total quantity sold on one UTC calendar day
type DailySalesPoint struct {
	Date     time.Time `json:"date"`
	Quantity int       `json:"quantity"`
}

// Forecast is a persisted next-day demand prediction
type Forecast struct {
	ID              int64     `json:"id" db:"id"`
	ProductID       int64     `json:"product_id" db:"product_id"`
	PredictedDemand float64   `json:"predicted_demand" db:"predicted_demand"`
	Confidence      float64   `json:"confidence" db:"confidence"`
	SeasonalFactor  float64   `json:"seasonal_factor" db:"seasonal_factor"`
	TrendFactor     float64   `json:"trend_factor" db:"trend_factor"`
	Algorithm       string    `json:"algorithm" db:"algorithm"`
	ForecastDate    time.Time `json:"forecast_date" db:"forecast_date"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	CreatedBy       int64     `json:"created_by" db:"created_by"`
}

// ReorderSuggestion is a proposed replenishment for a product
type ReorderSuggestion struct {
	ID                    int64            `json:"id" db:"id"`
	ProductID             int64            `json:"product_id" db:"product_id"`
	SuggestedQuantity     int              `json:"suggested_quantity" db:"suggested_quantity"`
	Urgency               Urgency          `json:"urgency" db:"urgency"`
	Reason                string           `json:"reason" db:"reason"`
	EstimatedStockoutDate *time.Time       `json:"estimated_stockout_date,omitempty" db:"estimated_stockout_date"`
	CostImpact            float64          `json:"cost_impact" db:"cost_impact"`
	Status                SuggestionStatus `json:"status" db:"status"`
	CreatedAt             time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at" db:"updated_at"`
	CreatedBy             int64            `json:"created_by" db:"created_by"`
	UpdatedBy             int64            `json:"updated_by" db:"updated_by"`
	Notes                 *string          `json:"notes,omitempty" db:"notes"`
}

// StockMovement is an audit entry for a change in a product's stock
type StockMovement struct {
	ID           int64     `json:"id" db:"id"`
	ProductID    int64     `json:"product_id" db:"product_id"`
	Type         string    `json:"type" db:"type"`
	Quantity     int       `json:"quantity" db:"quantity"`
	Reference    string    `json:"reference" db:"reference"`
	Notes        *string   `json:"notes,omitempty" db:"notes"`
	MovementDate time.Time `json:"movement_date" db:"movement_date"`
	CreatedBy    int64     `json:"created_by" db:"created_by"`
}

// MovementReorderApproved is the stock movement type written when a suggestion is approved.
const MovementReorderApproved = "reorder_approved"

// ReorderReference is the stock movement reference for an approved suggestion.
func ReorderReference(suggestionID int64) string {
	return fmt.Sprintf("REORDER-%d", suggestionID)
}

// ForecastFilter narrows forecast listings
type ForecastFilter struct {
	OwnerID   int64
	ProductID *int64
	Limit     int
}

// SuggestionFilter narrows reorder suggestion listings
type SuggestionFilter struct {
	OwnerID int64
	Status  SuggestionStatus
	Urgency Urgency
	Limit   int
}

// StatusChange describes a suggestion status transition and its stock side effect.
// StockDelta of zero means no stock update and no movement record.
type StatusChange struct {
	SuggestionID int64
	ProductID    int64
	Status       SuggestionStatus
	Notes        *string
	StockDelta   int
	UpdatedBy    int64
	At           time.Time
}
