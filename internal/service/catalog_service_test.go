package service

import (
	"context"
	"strings"
	"testing"

	"quote-service/internal/models"
	"quote-service/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCatalogStore backs both the catalog and the price ledger, mirroring the
// transactional cost-apply policy of the SQL store.
type fakeCatalogStore struct {
	items     map[int64]*models.Item
	suppliers map[int64]*models.Supplier
	entries   []models.PriceEntry
	nextID    int64
}

func newFakeCatalogStore() *fakeCatalogStore {
	return &fakeCatalogStore{
		items:     make(map[int64]*models.Item),
		suppliers: make(map[int64]*models.Supplier),
	}
}

func (f *fakeCatalogStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeCatalogStore) hasBrandModel(brand, model string, excludeID int64) bool {
	for _, it := range f.items {
		if it.ID != excludeID && it.Brand == brand && it.Model == model {
			return true
		}
	}
	return false
}

func (f *fakeCatalogStore) CreateItem(ctx context.Context, item *models.Item) error {
	if f.hasBrandModel(item.Brand, item.Model, 0) {
		return store.ErrDuplicate
	}
	item.ID = f.id()
	copied := *item
	f.items[item.ID] = &copied
	return nil
}

func (f *fakeCatalogStore) GetItemByID(ctx context.Context, id int64) (*models.Item, error) {
	it, ok := f.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *it
	return &copied, nil
}

func (f *fakeCatalogStore) GetItems(ctx context.Context, statusFilter string) ([]models.Item, error) {
	items := make([]models.Item, 0)
	for _, it := range f.items {
		if statusFilter == models.StatusFilterAll || it.Status == statusFilter {
			items = append(items, *it)
		}
	}
	return items, nil
}

func (f *fakeCatalogStore) UpdateItem(ctx context.Context, item *models.Item) error {
	current, ok := f.items[item.ID]
	if !ok {
		return store.ErrNotFound
	}
	if f.hasBrandModel(item.Brand, item.Model, item.ID) {
		return store.ErrDuplicate
	}
	current.Name = item.Name
	current.Brand = item.Brand
	current.Model = item.Model
	current.Description = item.Description
	current.Category = item.Category
	current.Year = item.Year
	current.SalePrice = item.SalePrice
	return nil
}

func (f *fakeCatalogStore) SetItemStatus(ctx context.Context, id int64, status string) error {
	it, ok := f.items[id]
	if !ok {
		return store.ErrNotFound
	}
	it.Status = status
	return nil
}

func (f *fakeCatalogStore) GetSupplierByID(ctx context.Context, id int64) (*models.Supplier, error) {
	s, ok := f.suppliers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeCatalogStore) latestEntry(itemID int64, typeFilter string) *models.PriceEntry {
	var latest *models.PriceEntry
	for i := range f.entries {
		entry := &f.entries[i]
		if entry.ItemID != itemID {
			continue
		}
		if typeFilter != "" && entry.Type != typeFilter {
			continue
		}
		if latest == nil || entry.Date.After(latest.Date) ||
			(entry.Date.Equal(latest.Date) && entry.ID > latest.ID) {
			latest = entry
		}
	}
	return latest
}

func (f *fakeCatalogStore) RecordPriceTx(ctx context.Context, entry *models.PriceEntry) (bool, error) {
	latestBefore := f.latestEntry(entry.ItemID, "")
	entry.ID = f.id()
	f.entries = append(f.entries, *entry)

	applied := entry.Type == models.PriceTypePurchase &&
		(latestBefore == nil || !latestBefore.Date.After(entry.Date))
	if applied {
		if it, ok := f.items[entry.ItemID]; ok {
			it.CostPrice = entry.Price
			it.Year = entry.Date.Year()
		}
	}
	return applied, nil
}

func (f *fakeCatalogStore) LatestPriceEntry(ctx context.Context, itemID int64, typeFilter string) (*models.PriceEntry, error) {
	latest := f.latestEntry(itemID, typeFilter)
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (f *fakeCatalogStore) GetPriceHistory(ctx context.Context, itemID int64) ([]models.PriceEntry, error) {
	entries := make([]models.PriceEntry, 0)
	for _, e := range f.entries {
		if e.ItemID == itemID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (f *fakeCatalogStore) SearchPriceHistory(ctx context.Context, query string, limit int) ([]models.PriceEntryDetail, error) {
	details := make([]models.PriceEntryDetail, 0)
	for _, e := range f.entries {
		it, ok := f.items[e.ItemID]
		if !ok {
			continue
		}
		if !strings.Contains(strings.ToLower(it.Name), strings.ToLower(query)) &&
			!strings.Contains(strings.ToLower(it.Brand), strings.ToLower(query)) &&
			!strings.Contains(strings.ToLower(it.Model), strings.ToLower(query)) {
			continue
		}
		details = append(details, models.PriceEntryDetail{
			PriceEntry: e,
			ItemName:   it.Name,
			ItemBrand:  it.Brand,
			ItemModel:  it.Model,
		})
		if len(details) == limit {
			break
		}
	}
	return details, nil
}

func newCatalogFixture() (*fakeCatalogStore, *CatalogService) {
	fs := newFakeCatalogStore()
	fs.suppliers[1] = &models.Supplier{ID: 1, Name: "Hartono Teknik"}
	prices := NewPriceService(fs, nil, 0)
	return fs, NewCatalogService(fs, prices, nil)
}

func TestCreateItemBrandModelConflict(t *testing.T) {
	_, svc := newCatalogFixture()
	ctx := context.Background()

	first, err := svc.CreateItem(ctx, &CreateItemRequest{
		Name:      "Hydraulic pump",
		Brand:     "Rexroth",
		Model:     "A10VSO",
		SalePrice: decimal.RequireFromString("1500.00"),
	})
	require.NoError(t, err)

	_, err = svc.CreateItem(ctx, &CreateItemRequest{
		Name:  "Another pump",
		Brand: "Rexroth",
		Model: "A10VSO",
	})
	assert.Equal(t, KindConflict, ErrorKind(err))

	// Archiving does not release the brand/model pair.
	_, err = svc.ArchiveItem(ctx, first.ID)
	require.NoError(t, err)
	_, err = svc.CreateItem(ctx, &CreateItemRequest{
		Name:  "Another pump",
		Brand: "Rexroth",
		Model: "A10VSO",
	})
	assert.Equal(t, KindConflict, ErrorKind(err))
}

func TestCreateItemValidation(t *testing.T) {
	_, svc := newCatalogFixture()
	ctx := context.Background()

	_, err := svc.CreateItem(ctx, &CreateItemRequest{Brand: "b", Model: "m"})
	assert.Equal(t, KindValidation, ErrorKind(err))

	_, err = svc.CreateItem(ctx, &CreateItemRequest{
		Name: "n", Brand: "b", Model: "m",
		SalePrice: decimal.RequireFromString("-1"),
	})
	assert.Equal(t, KindValidation, ErrorKind(err))

	cost := decimal.RequireFromString("10")
	_, err = svc.CreateItem(ctx, &CreateItemRequest{
		Name: "n", Brand: "b", Model: "m",
		InitialCost: &cost,
	})
	assert.Equal(t, KindValidation, ErrorKind(err))
}

func TestCreateItemWithInitialCost(t *testing.T) {
	fs, svc := newCatalogFixture()
	ctx := context.Background()

	cost := decimal.RequireFromString("180.00")
	supplierID := int64(1)
	item, err := svc.CreateItem(ctx, &CreateItemRequest{
		Name:        "Spindle bearing",
		Brand:       "SKF",
		Model:       "6205-2RS",
		SalePrice:   decimal.RequireFromString("250.00"),
		InitialCost: &cost,
		SupplierID:  &supplierID,
	})
	require.NoError(t, err)

	// The ledger entry drove the cost price; the item was never written
	// with a cost directly.
	assert.True(t, item.CostPrice.Equal(cost))
	require.Len(t, fs.entries, 1)
	assert.Equal(t, models.PriceTypePurchase, fs.entries[0].Type)
}

func TestUpdateItemArchivedReadOnly(t *testing.T) {
	_, svc := newCatalogFixture()
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, &CreateItemRequest{
		Name: "Gearbox", Brand: "SEW", Model: "R37",
	})
	require.NoError(t, err)

	_, err = svc.ArchiveItem(ctx, item.ID)
	require.NoError(t, err)

	_, err = svc.UpdateItem(ctx, item.ID, &UpdateItemRequest{
		Name: "Gearbox v2", Brand: "SEW", Model: "R37",
	})
	assert.Equal(t, KindConflict, ErrorKind(err))

	// Reactivation restores writability.
	_, err = svc.ActivateItem(ctx, item.ID)
	require.NoError(t, err)
	updated, err := svc.UpdateItem(ctx, item.ID, &UpdateItemRequest{
		Name: "Gearbox v2", Brand: "SEW", Model: "R37",
	})
	require.NoError(t, err)
	assert.Equal(t, "Gearbox v2", updated.Name)
}

func TestListItemsStatusFilter(t *testing.T) {
	_, svc := newCatalogFixture()
	ctx := context.Background()

	active, err := svc.CreateItem(ctx, &CreateItemRequest{Name: "a", Brand: "b1", Model: "m1"})
	require.NoError(t, err)
	archived, err := svc.CreateItem(ctx, &CreateItemRequest{Name: "b", Brand: "b2", Model: "m2"})
	require.NoError(t, err)
	_, err = svc.ArchiveItem(ctx, archived.ID)
	require.NoError(t, err)

	// Default filter hides archived items.
	items, err := svc.ListItems(ctx, "")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, active.ID, items[0].ID)

	items, err = svc.ListItems(ctx, models.StatusFilterAll)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, err = svc.ListItems(ctx, "RETIRED")
	assert.Equal(t, KindValidation, ErrorKind(err))

	// Archived items stay addressable by ID.
	got, err := svc.GetItem(ctx, archived.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusArchived, got.Status)
}
