package service

import (
	"context"
	"testing"

	"quote-service/internal/models"
	"quote-service/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProductStore struct {
	products  map[int64]*models.Product
	materials map[int64]*models.ProductMaterial
	items     map[int64]*models.Item
	nextID    int64
}

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{
		products:  make(map[int64]*models.Product),
		materials: make(map[int64]*models.ProductMaterial),
		items:     make(map[int64]*models.Item),
	}
}

func (f *fakeProductStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeProductStore) CreateProduct(ctx context.Context, product *models.Product) error {
	product.ID = f.id()
	copied := *product
	f.products[product.ID] = &copied
	return nil
}

func (f *fakeProductStore) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakeProductStore) GetProducts(ctx context.Context) ([]models.Product, error) {
	products := make([]models.Product, 0, len(f.products))
	for _, p := range f.products {
		products = append(products, *p)
	}
	return products, nil
}

func (f *fakeProductStore) UpdateProduct(ctx context.Context, product *models.Product) error {
	p, ok := f.products[product.ID]
	if !ok {
		return store.ErrNotFound
	}
	p.Name = product.Name
	p.Description = product.Description
	return nil
}

func (f *fakeProductStore) DeleteProduct(ctx context.Context, id int64) error {
	if _, ok := f.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.products, id)
	for mid, m := range f.materials {
		if m.ProductID == id {
			delete(f.materials, mid)
		}
	}
	return nil
}

func (f *fakeProductStore) AddProductMaterial(ctx context.Context, material *models.ProductMaterial) error {
	material.ID = f.id()
	copied := *material
	f.materials[material.ID] = &copied
	return nil
}

func (f *fakeProductStore) GetProductMaterialByID(ctx context.Context, id int64) (*models.ProductMaterial, error) {
	m, ok := f.materials[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *m
	return &copied, nil
}

func (f *fakeProductStore) UpdateProductMaterialQuantity(ctx context.Context, id int64, quantity int) error {
	m, ok := f.materials[id]
	if !ok {
		return store.ErrNotFound
	}
	m.Quantity = quantity
	return nil
}

func (f *fakeProductStore) RemoveProductMaterial(ctx context.Context, id int64) error {
	if _, ok := f.materials[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.materials, id)
	return nil
}

func (f *fakeProductStore) GetProductMaterials(ctx context.Context, productID int64) ([]models.ProductMaterialDetail, error) {
	details := make([]models.ProductMaterialDetail, 0)
	for _, m := range f.materials {
		if m.ProductID != productID {
			continue
		}
		detail := models.ProductMaterialDetail{ProductMaterial: *m}
		if it, ok := f.items[m.ItemID]; ok {
			detail.ItemName = it.Name
			detail.ItemCostPrice = it.CostPrice
		}
		details = append(details, detail)
	}
	return details, nil
}

func (f *fakeProductStore) GetItemByID(ctx context.Context, id int64) (*models.Item, error) {
	it, ok := f.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *it
	return &copied, nil
}

func TestSumMaterialCost(t *testing.T) {
	materials := []models.ProductMaterialDetail{
		{ProductMaterial: models.ProductMaterial{Quantity: 2},
			ItemCostPrice: decimal.RequireFromString("10.50")},
		{ProductMaterial: models.ProductMaterial{Quantity: 3},
			ItemCostPrice: decimal.RequireFromString("4.00")},
	}

	total := sumMaterialCost(materials)
	assert.True(t, total.Equal(decimal.RequireFromString("33.00")))

	assert.True(t, sumMaterialCost(nil).IsZero())
}

func TestAddMaterialValidation(t *testing.T) {
	fs := newFakeProductStore()
	fs.items[1] = &models.Item{ID: 1, Name: "Bolt M8"}
	svc := NewProductService(fs)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, &ProductRequest{Name: "Conveyor frame"})
	require.NoError(t, err)

	_, err = svc.AddMaterial(ctx, product.ID, &AddMaterialRequest{ItemID: 1, Quantity: 0})
	assert.Equal(t, KindValidation, ErrorKind(err))

	_, err = svc.AddMaterial(ctx, 999, &AddMaterialRequest{ItemID: 1, Quantity: 2})
	assert.Equal(t, KindNotFound, ErrorKind(err))

	_, err = svc.AddMaterial(ctx, product.ID, &AddMaterialRequest{ItemID: 999, Quantity: 2})
	assert.Equal(t, KindNotFound, ErrorKind(err))
}

func TestMaterialCostTracksCatalog(t *testing.T) {
	fs := newFakeProductStore()
	fs.items[1] = &models.Item{ID: 1, Name: "Bolt M8",
		CostPrice: decimal.RequireFromString("0.50")}
	fs.items[2] = &models.Item{ID: 2, Name: "Plate",
		CostPrice: decimal.RequireFromString("12.00")}
	svc := NewProductService(fs)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, &ProductRequest{Name: "Bracket assembly"})
	require.NoError(t, err)

	_, err = svc.AddMaterial(ctx, product.ID, &AddMaterialRequest{ItemID: 1, Quantity: 8})
	require.NoError(t, err)
	_, err = svc.AddMaterial(ctx, product.ID, &AddMaterialRequest{ItemID: 2, Quantity: 1})
	require.NoError(t, err)

	cost, err := svc.MaterialCost(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, cost.Equal(decimal.RequireFromString("16.00")))

	// Unlike quote snapshots, material cost follows the current catalog.
	fs.items[1].CostPrice = decimal.RequireFromString("1.00")
	cost, err = svc.MaterialCost(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, cost.Equal(decimal.RequireFromString("20.00")))
}

func TestUpdateMaterialQuantity(t *testing.T) {
	fs := newFakeProductStore()
	fs.items[1] = &models.Item{ID: 1, Name: "Bolt M8"}
	svc := NewProductService(fs)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, &ProductRequest{Name: "Frame"})
	require.NoError(t, err)
	material, err := svc.AddMaterial(ctx, product.ID, &AddMaterialRequest{ItemID: 1, Quantity: 2})
	require.NoError(t, err)

	updated, err := svc.UpdateMaterialQuantity(ctx, material.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Quantity)

	_, err = svc.UpdateMaterialQuantity(ctx, material.ID, 0)
	assert.Equal(t, KindValidation, ErrorKind(err))

	require.NoError(t, svc.RemoveMaterial(ctx, material.ID))
	err = svc.RemoveMaterial(ctx, material.ID)
	assert.Equal(t, KindNotFound, ErrorKind(err))
}
