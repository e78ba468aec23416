package service

import (
	"context"
	"testing"
	"time"

	"github.com/andresuchdata/stocksense/internal/domain"
	"github.com/andresuchdata/stocksense/internal/pipeline/reorder"
	"github.com/andresuchdata/stocksense/internal/repository"
	"github.com/andresuchdata/stocksense/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReorderService(store repository.Store, c *fakeCache) *ReorderService {
	svc := NewReorderService(store, c, nil, nil, reorder.DefaultConfig())
	svc.now = clock
	return svc
}

func TestGenerateReorderSuggestions_BelowReorderPoint(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	p := store.AddProduct(domain.Product{
		OwnerID: owner.UserID, SKU: "A", IsActive: true,
		CurrentStock: 12, ReorderPoint: 25, MaxStockLevel: 100,
		ReorderQuantity: 50, LeadTimeDays: 5, UnitCost: 4,
	})
	require.NoError(t, store.SaveForecast(ctx, &domain.Forecast{ProductID: p.ID, PredictedDemand: 2, ForecastDate: fixedNow}))

	result, err := newReorderService(store, newFakeCache()).GenerateReorderSuggestions(ctx, owner)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, "Reorder suggestions updated for 1 product(s).", result.Message)

	sg, err := store.GetPendingSuggestion(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, sg)
	assert.Equal(t, domain.UrgencyMedium, sg.Urgency)
	assert.Equal(t, 88, sg.SuggestedQuantity)
	assert.Equal(t, 352.0, sg.CostImpact)
	assert.Equal(t, "Stock below reorder point (25)", sg.Reason)
	assert.Equal(t, owner.UserID, sg.CreatedBy)
}

func TestGenerateReorderSuggestions_OutOfStockWithoutForecast(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	p := store.AddProduct(domain.Product{
		OwnerID: owner.UserID, IsActive: true,
		CurrentStock: 0, ReorderQuantity: 50, LeadTimeDays: 7, UnitCost: 2,
	})

	_, err := newReorderService(store, newFakeCache()).GenerateReorderSuggestions(ctx, owner)
	require.NoError(t, err)

	sg, err := store.GetPendingSuggestion(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, sg)
	assert.Equal(t, domain.UrgencyCritical, sg.Urgency)
	assert.Equal(t, 50, sg.SuggestedQuantity)
	require.NotNil(t, sg.EstimatedStockoutDate)
	assert.Equal(t, fixedNow, *sg.EstimatedStockoutDate)
}

func TestGenerateReorderSuggestions_KeepsOnePendingPerProduct(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	product := domain.Product{
		OwnerID: owner.UserID, IsActive: true,
		CurrentStock: 12, ReorderPoint: 25, MaxStockLevel: 100, ReorderQuantity: 50, LeadTimeDays: 5,
	}
	p := store.AddProduct(product)
	svc := newReorderService(store, newFakeCache())

	_, err := svc.GenerateReorderSuggestions(ctx, owner)
	require.NoError(t, err)
	first, err := store.GetPendingSuggestion(ctx, p.ID)
	require.NoError(t, err)

	// Stock drops further; the pending suggestion is patched in place
	product.ID = p.ID
	product.CurrentStock = 2
	store.AddProduct(product)
	store.SetClock(func() time.Time { return fixedNow.Add(time.Hour) })

	_, err = svc.GenerateReorderSuggestions(ctx, owner)
	require.NoError(t, err)

	all, err := store.ListSuggestions(ctx, domain.SuggestionFilter{OwnerID: owner.UserID})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, first.CreatedAt, all[0].CreatedAt)
	assert.Equal(t, domain.UrgencyCritical, all[0].Urgency)
	assert.Equal(t, 98, all[0].SuggestedQuantity)
}

func TestGenerateReorderSuggestions_NoAction(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	healthy := store.AddProduct(domain.Product{
		OwnerID: owner.UserID, IsActive: true,
		CurrentStock: 100, ReorderPoint: 10, MaxStockLevel: 200, LeadTimeDays: 5,
	})
	store.AddProduct(domain.Product{
		OwnerID: owner.UserID, IsActive: true,
		CurrentStock: 0, ReorderQuantity: 10, LeadTimeDays: 2,
	})

	result, err := newReorderService(store, newFakeCache()).GenerateReorderSuggestions(ctx, owner)
	require.NoError(t, err)

	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.NoActionCount)
	assert.Equal(t, "Reorder suggestions updated for 1 product(s). 1 product(s) need no reorder.", result.Message)

	sg, err := store.GetPendingSuggestion(ctx, healthy.ID)
	require.NoError(t, err)
	assert.Nil(t, sg)
}

func TestGenerateReorderSuggestions_PrefersCachedForecast(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	p := store.AddProduct(domain.Product{
		OwnerID: owner.UserID, IsActive: true,
		CurrentStock: 30, ReorderPoint: 5, MaxStockLevel: 200, LeadTimeDays: 5,
	})
	c := newFakeCache()
	require.NoError(t, c.SetLatest(ctx, domain.Forecast{ProductID: p.ID, PredictedDemand: 10}))

	_, err := newReorderService(store, c).GenerateReorderSuggestions(ctx, owner)
	require.NoError(t, err)

	// 30 units at 10 per day run out in 3 days, inside lead time + 2
	sg, err := store.GetPendingSuggestion(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, sg)
	assert.Equal(t, 60, sg.SuggestedQuantity)
}

func TestGenerateReorderSuggestions_FillsCacheFromStore(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	p := store.AddProduct(domain.Product{OwnerID: owner.UserID, IsActive: true, CurrentStock: 500, LeadTimeDays: 1})
	require.NoError(t, store.SaveForecast(ctx, &domain.Forecast{ProductID: p.ID, PredictedDemand: 1, ForecastDate: fixedNow}))
	c := newFakeCache()

	_, err := newReorderService(store, c).GenerateReorderSuggestions(ctx, owner)
	require.NoError(t, err)

	_, hit, err := c.GetLatest(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, hit)
}

func seedPending(t *testing.T, store *memory.Store, quantity int) (domain.Product, *domain.ReorderSuggestion) {
	t.Helper()
	p := store.AddProduct(domain.Product{OwnerID: owner.UserID, IsActive: true, CurrentStock: 12})
	sg := &domain.ReorderSuggestion{
		ProductID: p.ID, SuggestedQuantity: quantity, Urgency: domain.UrgencyMedium,
		Reason: "Stock below reorder point (25)", CreatedBy: owner.UserID,
	}
	require.NoError(t, store.UpsertPending(context.Background(), sg))
	return p, sg
}

func TestUpdateSuggestionStatus_ApproveAddsStock(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	p, sg := seedPending(t, store, 50)
	notes := "PO-1042 placed"

	result, err := newReorderService(store, newFakeCache()).UpdateSuggestionStatus(ctx, owner, sg.ID, domain.StatusApproved, &notes)
	require.NoError(t, err)

	require.NotNil(t, result.NewStock)
	assert.Equal(t, 62, *result.NewStock)
	assert.Empty(t, result.Warning)
	assert.Equal(t, domain.StatusApproved, result.Suggestion.Status)
	require.NotNil(t, result.Suggestion.Notes)
	assert.Equal(t, notes, *result.Suggestion.Notes)

	updated, err := store.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 62, updated.CurrentStock)

	movements := store.Movements()
	require.Len(t, movements, 1)
	assert.Equal(t, domain.MovementReorderApproved, movements[0].Type)
	assert.Equal(t, 50, movements[0].Quantity)
	assert.Equal(t, p.ID, movements[0].ProductID)
	assert.Equal(t, owner.UserID, movements[0].CreatedBy)
}

func TestUpdateSuggestionStatus_ApproveZeroQuantityWarns(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	p, sg := seedPending(t, store, 0)

	result, err := newReorderService(store, newFakeCache()).UpdateSuggestionStatus(ctx, owner, sg.ID, domain.StatusApproved, nil)
	require.NoError(t, err)

	assert.Equal(t, WarningNoQuantity, result.Warning)
	assert.Nil(t, result.NewStock)
	assert.Equal(t, domain.StatusApproved, result.Suggestion.Status)

	unchanged, err := store.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, unchanged.CurrentStock)
	assert.Empty(t, store.Movements())
}

func TestUpdateSuggestionStatus_RejectLeavesStock(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	p, sg := seedPending(t, store, 50)

	result, err := newReorderService(store, newFakeCache()).UpdateSuggestionStatus(ctx, owner, sg.ID, domain.StatusRejected, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusRejected, result.Suggestion.Status)
	assert.Nil(t, result.NewStock)

	unchanged, err := store.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, unchanged.CurrentStock)
}

func TestUpdateSuggestionStatus_Errors(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	p, sg := seedPending(t, store, 50)
	svc := newReorderService(store, newFakeCache())

	_, err := svc.UpdateSuggestionStatus(ctx, owner, sg.ID, domain.StatusPending, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = svc.UpdateSuggestionStatus(ctx, owner, 9999, domain.StatusApproved, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.UpdateSuggestionStatus(ctx, stranger, sg.ID, domain.StatusApproved, nil)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	untouched, err := store.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, untouched.CurrentStock)
	pending, err := store.GetSuggestion(ctx, sg.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, pending.Status)

	_, err = svc.UpdateSuggestionStatus(ctx, owner, sg.ID, domain.StatusRejected, nil)
	require.NoError(t, err)

	_, err = svc.UpdateSuggestionStatus(ctx, owner, sg.ID, domain.StatusApproved, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestListSuggestions_MostUrgentFirst(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	for _, stock := range []int{8, 0, 12} {
		store.AddProduct(domain.Product{
			OwnerID: owner.UserID, IsActive: true,
			CurrentStock: stock, ReorderPoint: 15, MaxStockLevel: 100, ReorderQuantity: 10, LeadTimeDays: 10,
		})
	}
	svc := newReorderService(store, newFakeCache())
	_, err := svc.GenerateReorderSuggestions(ctx, owner)
	require.NoError(t, err)

	got, err := svc.ListSuggestions(ctx, owner, "", "", 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, domain.UrgencyCritical, got[0].Urgency)
	assert.Equal(t, domain.UrgencyHigh, got[1].Urgency)
	assert.Equal(t, domain.UrgencyMedium, got[2].Urgency)

	critical, err := svc.ListSuggestions(ctx, owner, domain.StatusPending, domain.UrgencyCritical, 0)
	require.NoError(t, err)
	assert.Len(t, critical, 1)

	none, err := svc.ListSuggestions(ctx, stranger, "", "", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}
