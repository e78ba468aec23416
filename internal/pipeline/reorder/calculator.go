package reorder

import (
	"fmt"
	"math"
	"time"

	"github.com/andresuchdata/stocksense/internal/domain"
	"github.com/shopspring/decimal"
)

// maxStockoutDays keeps projected stockout dates inside time.Duration range.
const maxStockoutDays = 100 * 365

// Calculator evaluates the reorder rule ladder for a product
type Calculator struct {
	cfg Config
}

// NewCalculator creates a new reorder calculator
func NewCalculator(cfg Config) *Calculator {
	def := DefaultConfig()
	if cfg.DefaultDailyDemand <= 0 {
		cfg.DefaultDailyDemand = def.DefaultDailyDemand
	}
	if cfg.SafetyStockRatio < 0 {
		cfg.SafetyStockRatio = def.SafetyStockRatio
	}
	if cfg.StockoutBufferDays < 0 {
		cfg.StockoutBufferDays = def.StockoutBufferDays
	}
	if cfg.CostModel == "" {
		cfg.CostModel = def.CostModel
	}
	if cfg.AnnualCarryingRate <= 0 {
		cfg.AnnualCarryingRate = def.AnnualCarryingRate
	}
	return &Calculator{cfg: cfg}
}

// Evaluate decides whether product needs a reorder. forecast may be nil.
// Rules are checked in priority order and the first match wins.
func (c *Calculator) Evaluate(product domain.Product, forecast *domain.Forecast, now time.Time) Decision {
	// 1. Daily demand, falling back to the conservative default
	dailyDemand := c.cfg.DefaultDailyDemand
	if forecast != nil && forecast.PredictedDemand > 0 {
		dailyDemand = forecast.PredictedDemand
	}

	// 2. Lead time demand and safety stock
	leadTime := float64(product.LeadTimeDays)
	leadTimeDemand := dailyDemand * leadTime
	safetyStock := leadTimeDemand * c.cfg.SafetyStockRatio

	// 3. Days until stockout at the current rate
	daysUntilStockout := math.Inf(1)
	if dailyDemand > 0 {
		daysUntilStockout = float64(product.CurrentStock) / dailyDemand
	}

	d := Decision{
		Urgency:           domain.UrgencyLow,
		DailyDemand:       dailyDemand,
		LeadTimeDemand:    leadTimeDemand,
		SafetyStock:       safetyStock,
		DaysUntilStockout: daysUntilStockout,
	}

	stock := product.CurrentStock
	gapToMax := float64(product.MaxStockLevel - stock)
	reorderQty := float64(product.ReorderQuantity)

	var quantity float64
	switch {
	case stock <= 0:
		d.ShouldReorder = true
		d.Urgency = domain.UrgencyCritical
		d.Reason = "Out of stock"
		quantity = math.Max(reorderQty, leadTimeDemand+safetyStock)
		stockout := now
		d.EstimatedStockoutDate = &stockout

	case stock < c.cfg.LowStockFloor:
		d.ShouldReorder = true
		d.Urgency = domain.UrgencyCritical
		d.Reason = fmt.Sprintf("Critically low stock (below %d units)", c.cfg.LowStockFloor)
		quantity = math.Max(reorderQty, math.Max(gapToMax, leadTimeDemand+safetyStock))
		d.EstimatedStockoutDate = stockoutDate(now, daysUntilStockout)

	case stock <= product.ReorderPoint:
		d.ShouldReorder = true
		d.Urgency = domain.UrgencyMedium
		if daysUntilStockout <= leadTime {
			d.Urgency = domain.UrgencyHigh
		}
		d.Reason = fmt.Sprintf("Stock below reorder point (%d)", product.ReorderPoint)
		quantity = math.Max(reorderQty, gapToMax)
		d.EstimatedStockoutDate = stockoutDate(now, daysUntilStockout)

	case !math.IsInf(daysUntilStockout, 1) && daysUntilStockout <= leadTime+float64(c.cfg.StockoutBufferDays):
		d.ShouldReorder = true
		d.Urgency = domain.UrgencyMedium
		d.Reason = fmt.Sprintf("Projected stockout within lead time + %d days (%d days)",
			c.cfg.StockoutBufferDays, int(math.Round(daysUntilStockout)))
		quantity = leadTimeDemand + safetyStock
		d.EstimatedStockoutDate = stockoutDate(now, daysUntilStockout)

	default:
		return d
	}

	// 4. Round to whole units; inconsistent product limits may push this negative
	d.Quantity = int(math.Max(0, math.Round(quantity)))

	// 5. Cost impact
	d.CostImpact = c.costImpact(product, d.Quantity)

	return d
}

func (c *Calculator) costImpact(product domain.Product, quantity int) float64 {
	unitCost := decimal.NewFromFloat(product.UnitCost)
	orderValue := unitCost.Mul(decimal.NewFromInt(int64(quantity)))

	cost := orderValue
	if c.cfg.CostModel == CostModelCarrying {
		cost = orderValue.
			Mul(decimal.NewFromFloat(c.cfg.AnnualCarryingRate)).
			Div(decimal.NewFromInt(365)).
			Mul(decimal.NewFromInt(int64(product.LeadTimeDays)))
	}

	if cost.IsNegative() {
		return 0
	}
	return cost.Round(2).InexactFloat64()
}

// stockoutDate projects now forward by days, or returns nil when the
// projection is infinite or too far out to represent.
func stockoutDate(now time.Time, days float64) *time.Time {
	if math.IsInf(days, 0) || math.IsNaN(days) || days > maxStockoutDays {
		return nil
	}
	if days < 0 {
		days = 0
	}
	t := now.Add(time.Duration(days * float64(24*time.Hour)))
	return &t
}
