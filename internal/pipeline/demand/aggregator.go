package demand

import (
	"sort"
	"time"

	"github.com/andresuchdata/stocksense/internal/domain"
)

const dayLayout = "2006-01-02"

// Aggregate sums sale quantities per UTC calendar day. The result is sparse
// (days without sales are absent) and sorted ascending by date.
func Aggregate(sales []domain.Sale) []domain.DailySalesPoint {
	if len(sales) == 0 {
		return []domain.DailySalesPoint{}
	}

	byDay := make(map[string]int, len(sales))
	for _, s := range sales {
		byDay[s.SaleDate.UTC().Format(dayLayout)] += s.Quantity
	}

	points := make([]domain.DailySalesPoint, 0, len(byDay))
	for day, qty := range byDay {
		date, err := time.Parse(dayLayout, day)
		if err != nil {
			// keys are produced by Format above
			continue
		}
		points = append(points, domain.DailySalesPoint{Date: date, Quantity: qty})
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	return points
}

// WindowStart returns the earliest sale timestamp included in a trailing window of days.
func WindowStart(now time.Time, days int) time.Time {
	return now.Add(-time.Duration(days) * 24 * time.Hour)
}
