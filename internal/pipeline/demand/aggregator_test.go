package demand

import (
	"testing"
	"time"

	"github.com/andresuchdata/stocksense/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestAggregate_GroupsByUTCDay(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	sales := []domain.Sale{
		{ProductID: 1, Quantity: 2, SaleDate: time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)},
		{ProductID: 1, Quantity: 3, SaleDate: time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC)},
		{ProductID: 1, Quantity: 4, SaleDate: time.Date(2024, 5, 2, 18, 0, 0, 0, time.UTC)},
		// 2024-05-03 03:00 WIB is still 2024-05-02 in UTC
		{ProductID: 1, Quantity: 1, SaleDate: time.Date(2024, 5, 3, 3, 0, 0, 0, jakarta)},
		{ProductID: 1, Quantity: 6, SaleDate: time.Date(2024, 5, 5, 12, 0, 0, 0, time.UTC)},
	}

	got := Aggregate(sales)

	assert.Equal(t, []domain.DailySalesPoint{
		{Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Quantity: 3},
		{Date: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), Quantity: 7},
		{Date: time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC), Quantity: 6},
	}, got)
}

func TestAggregate_IsIdempotent(t *testing.T) {
	sales := []domain.Sale{
		{Quantity: 1, SaleDate: time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)},
		{Quantity: 5, SaleDate: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
		{Quantity: 2, SaleDate: time.Date(2024, 1, 3, 11, 0, 0, 0, time.UTC)},
	}

	assert.Equal(t, Aggregate(sales), Aggregate(sales))
}

func TestAggregate_Empty(t *testing.T) {
	got := Aggregate(nil)

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestWindowStart(t *testing.T) {
	now := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC), WindowStart(now, 90))
}
