// Package memory is an in-process Store used by tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/andresuchdata/stocksense/internal/domain"
)

// Store keeps every record in maps guarded by a single mutex.
type Store struct {
	mu sync.Mutex

	products    map[int64]domain.Product
	sales       []domain.Sale
	forecasts   []domain.Forecast
	suggestions map[int64]domain.ReorderSuggestion
	movements   []domain.StockMovement

	nextID int64
	now    func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		products:    make(map[int64]domain.Product),
		suggestions: make(map[int64]domain.ReorderSuggestion),
		now:         time.Now,
	}
}

// SetClock overrides the timestamp source.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// AddProduct inserts or replaces a product. A zero ID is assigned.
func (s *Store) AddProduct(p domain.Product) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == 0 {
		p.ID = s.id()
	} else if p.ID > s.nextID {
		s.nextID = p.ID
	}
	s.products[p.ID] = p
	return p
}

// AddSales records sales events.
func (s *Store) AddSales(sales ...domain.Sale) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sale := range sales {
		if sale.ID == 0 {
			sale.ID = s.id()
		}
		s.sales = append(s.sales, sale)
	}
}

// Movements returns a copy of the stock movement log.
func (s *Store) Movements() []domain.StockMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.StockMovement(nil), s.movements...)
}

func (s *Store) ListActiveProducts(_ context.Context, ownerID int64) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := []domain.Product{}
	for _, p := range s.products {
		if p.OwnerID == ownerID && p.IsActive {
			products = append(products, p)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (s *Store) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}
	return &p, nil
}

func (s *Store) ListSalesSince(_ context.Context, productID int64, since time.Time) ([]domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sales := []domain.Sale{}
	for _, sale := range s.sales {
		if sale.ProductID == productID && !sale.SaleDate.Before(since) {
			sales = append(sales, sale)
		}
	}
	return sales, nil
}

func (s *Store) SaveForecast(_ context.Context, f *domain.Forecast) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f.ID = s.id()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = s.now()
	}
	s.forecasts = append(s.forecasts, *f)
	return nil
}

func (s *Store) GetLatestForecast(_ context.Context, productID int64) (*domain.Forecast, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *domain.Forecast
	for i := range s.forecasts {
		f := s.forecasts[i]
		if f.ProductID != productID {
			continue
		}
		if latest == nil || forecastAfter(f, *latest) {
			latest = &f
		}
	}
	return latest, nil
}

func forecastAfter(a, b domain.Forecast) bool {
	if !a.ForecastDate.Equal(b.ForecastDate) {
		return a.ForecastDate.After(b.ForecastDate)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func (s *Store) ListForecasts(_ context.Context, filter domain.ForecastFilter) ([]domain.Forecast, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	forecasts := []domain.Forecast{}
	for _, f := range s.forecasts {
		p, ok := s.products[f.ProductID]
		if !ok || p.OwnerID != filter.OwnerID {
			continue
		}
		if filter.ProductID != nil && f.ProductID != *filter.ProductID {
			continue
		}
		forecasts = append(forecasts, f)
	}

	sort.SliceStable(forecasts, func(i, j int) bool { return forecastAfter(forecasts[i], forecasts[j]) })
	if filter.Limit > 0 && len(forecasts) > filter.Limit {
		forecasts = forecasts[:filter.Limit]
	}
	return forecasts, nil
}

func (s *Store) GetPendingSuggestion(_ context.Context, productID int64) (*domain.ReorderSuggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.pendingFor(productID); ok {
		return &existing, nil
	}
	return nil, nil
}

func (s *Store) pendingFor(productID int64) (domain.ReorderSuggestion, bool) {
	for _, sg := range s.suggestions {
		if sg.ProductID == productID && sg.Status == domain.StatusPending {
			return sg, true
		}
	}
	return domain.ReorderSuggestion{}, false
}

func (s *Store) UpsertPending(_ context.Context, sg *domain.ReorderSuggestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sg.Status = domain.StatusPending
	sg.UpdatedAt = now

	if existing, ok := s.pendingFor(sg.ProductID); ok {
		sg.ID = existing.ID
		sg.CreatedAt = existing.CreatedAt
		sg.CreatedBy = existing.CreatedBy
		sg.Notes = existing.Notes
	} else {
		sg.ID = s.id()
		sg.CreatedAt = now
	}

	s.suggestions[sg.ID] = *sg
	return nil
}

func (s *Store) GetSuggestion(_ context.Context, id int64) (*domain.ReorderSuggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sg, ok := s.suggestions[id]
	if !ok {
		return nil, fmt.Errorf("suggestion %d: %w", id, domain.ErrNotFound)
	}
	return &sg, nil
}

func (s *Store) ListSuggestions(_ context.Context, filter domain.SuggestionFilter) ([]domain.ReorderSuggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []domain.ReorderSuggestion{}
	for _, sg := range s.suggestions {
		p, ok := s.products[sg.ProductID]
		if !ok || p.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Status != "" && sg.Status != filter.Status {
			continue
		}
		if filter.Urgency != "" && sg.Urgency != filter.Urgency {
			continue
		}
		out = append(out, sg)
	}

	sort.Slice(out, func(i, j int) bool {
		ri, rj := out[i].Urgency.Rank(), out[j].Urgency.Rank()
		if ri != rj {
			return ri > rj
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *Store) ApplyStatusChange(_ context.Context, change domain.StatusChange) (*int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sg, ok := s.suggestions[change.SuggestionID]
	if !ok {
		return nil, fmt.Errorf("suggestion %d: %w", change.SuggestionID, domain.ErrNotFound)
	}
	if sg.Status != domain.StatusPending {
		return nil, fmt.Errorf("suggestion %d is %s: %w", sg.ID, sg.Status, domain.ErrInvalidTransition)
	}

	var newStock *int
	if change.StockDelta != 0 {
		p, ok := s.products[change.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %d: %w", change.ProductID, domain.ErrNotFound)
		}
		p.CurrentStock += change.StockDelta
		s.products[p.ID] = p
		stock := p.CurrentStock
		newStock = &stock

		s.movements = append(s.movements, domain.StockMovement{
			ID:           s.id(),
			ProductID:    p.ID,
			Type:         domain.MovementReorderApproved,
			Quantity:     change.StockDelta,
			Reference:    domain.ReorderReference(sg.ID),
			Notes:        change.Notes,
			MovementDate: change.At,
			CreatedBy:    change.UpdatedBy,
		})
	}

	sg.Status = change.Status
	sg.Notes = change.Notes
	sg.UpdatedAt = change.At
	sg.UpdatedBy = change.UpdatedBy
	s.suggestions[sg.ID] = sg

	return newStock, nil
}
