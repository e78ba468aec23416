package reorder

import (
	"time"

	"github.com/andresuchdata/stocksense/internal/domain"
)

// CostModel selects how the financial exposure of a suggestion is computed.
type CostModel string

const (
	// CostModelOrderValue prices the suggested order at unit cost.
	CostModelOrderValue CostModel = "order_value"
	// CostModelCarrying estimates the holding cost of the order over the lead time.
	CostModelCarrying CostModel = "carrying"
)

// Config holds the tunables of the reorder rule ladder
type Config struct {
	DefaultDailyDemand float64   // Demand assumed when no usable forecast exists
	SafetyStockRatio   float64   // Safety stock as a share of lead time demand
	LowStockFloor      int       // Absolute stock level below which reorders are critical
	StockoutBufferDays int       // Days beyond lead time that still trigger a projected-stockout reorder
	CostModel          CostModel // Cost impact model
	AnnualCarryingRate float64   // Yearly holding cost rate for the carrying model
}

// DefaultConfig returns the rule ladder's standard parameters.
func DefaultConfig() Config {
	return Config{
		DefaultDailyDemand: 1,
		SafetyStockRatio:   0.2,
		LowStockFloor:      5,
		StockoutBufferDays: 2,
		CostModel:          CostModelOrderValue,
		AnnualCarryingRate: 0.25,
	}
}

// Decision is the outcome of evaluating one product
type Decision struct {
	ShouldReorder         bool
	Quantity              int
	Urgency               domain.Urgency
	Reason                string
	EstimatedStockoutDate *time.Time
	CostImpact            float64

	// Inputs derived along the way, kept for logging
	DailyDemand       float64
	LeadTimeDemand    float64
	SafetyStock       float64
	DaysUntilStockout float64
}
