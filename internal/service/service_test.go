package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/andresuchdata/stocksense/internal/domain"
	"github.com/andresuchdata/stocksense/internal/repository/memory"
)

var (
	owner    = domain.Caller{UserID: 7, Subject: "user_7"}
	stranger = domain.Caller{UserID: 8, Subject: "user_8"}

	// fixedNow is a Monday; 2024-01-01 was the Monday one week earlier.
	fixedNow = time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC)
)

func clock() time.Time { return fixedNow }

func newTestStore() *memory.Store {
	s := memory.NewStore()
	s.SetClock(clock)
	return s
}

// addDailySales records one sale per day starting at start.
func addDailySales(s *memory.Store, productID int64, start time.Time, quantities ...int) {
	for i, q := range quantities {
		s.AddSales(domain.Sale{
			ProductID: productID,
			Quantity:  q,
			UnitPrice: 10,
			SaleDate:  start.AddDate(0, 0, i).Add(10 * time.Hour),
			Channel:   "pos",
		})
	}
}

var errSalesUnavailable = errors.New("sales unavailable")

// flakyStore fails sales reads for a single product.
type flakyStore struct {
	*memory.Store
	failProductID int64
}

func (s *flakyStore) ListSalesSince(ctx context.Context, productID int64, since time.Time) ([]domain.Sale, error) {
	if productID == s.failProductID {
		return nil, errSalesUnavailable
	}
	return s.Store.ListSalesSince(ctx, productID, since)
}

// fakeCache is an in-memory cache.ForecastCache
type fakeCache struct {
	mu      sync.Mutex
	entries map[int64]domain.Forecast
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[int64]domain.Forecast)}
}

func (c *fakeCache) GetLatest(_ context.Context, productID int64) (*domain.Forecast, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.entries[productID]
	if !ok {
		return nil, false, nil
	}
	return &f, true, nil
}

func (c *fakeCache) SetLatest(_ context.Context, f domain.Forecast) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[f.ProductID] = f
	c.sets++
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, productID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, productID)
	return nil
}

func (c *fakeCache) Close() error { return nil }
