package service

import (
	"context"

	"quote-service/internal/models"
	"quote-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// productStore is the persistence surface of the BOM engine
type productStore interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	GetProducts(ctx context.Context) ([]models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	AddProductMaterial(ctx context.Context, material *models.ProductMaterial) error
	GetProductMaterialByID(ctx context.Context, id int64) (*models.ProductMaterial, error)
	UpdateProductMaterialQuantity(ctx context.Context, id int64, quantity int) error
	RemoveProductMaterial(ctx context.Context, id int64) error
	GetProductMaterials(ctx context.Context, productID int64) ([]models.ProductMaterialDetail, error)
	GetItemByID(ctx context.Context, id int64) (*models.Item, error)
}

// ProductService manages bill-of-materials products
type ProductService struct {
	store  productStore
	logger *zap.Logger
}

// NewProductService creates a new product service
func NewProductService(store productStore) *ProductService {
	return &ProductService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// ProductRequest carries product header fields
type ProductRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// AddMaterialRequest adds an item to a product's BOM
type AddMaterialRequest struct {
	ItemID   int64 `json:"item_id" binding:"required"`
	Quantity int   `json:"quantity" binding:"required"`
}

// CreateProduct creates a new BOM product
func (s *ProductService) CreateProduct(ctx context.Context, req *ProductRequest) (*models.Product, error) {
	if req.Name == "" {
		return nil, validationError("name is required")
	}
	product := &models.Product{Name: req.Name, Description: req.Description}
	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, wrapStoreErr(err, "failed to create product")
	}
	s.logger.Info("Product created", zap.Int64("product_id", product.ID))
	return product, nil
}

// UpdateProduct updates product header fields
func (s *ProductService) UpdateProduct(ctx context.Context, id int64, req *ProductRequest) (*models.Product, error) {
	if req.Name == "" {
		return nil, validationError("name is required")
	}
	product, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err, "product not found")
	}
	product.Name = req.Name
	product.Description = req.Description
	if err := s.store.UpdateProduct(ctx, product); err != nil {
		return nil, wrapStoreErr(err, "failed to update product")
	}
	return product, nil
}

// DeleteProduct removes a product and its BOM lines
func (s *ProductService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return wrapStoreErr(err, "product not found")
	}
	s.logger.Info("Product deleted", zap.Int64("product_id", id))
	return nil
}

// ListProducts lists all products, most recently updated first
func (s *ProductService) ListProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.store.GetProducts(ctx)
	if err != nil {
		return nil, wrapStoreErr(err, "failed to list products")
	}
	return products, nil
}

// AddMaterial appends an item line to a product's BOM
func (s *ProductService) AddMaterial(ctx context.Context, productID int64, req *AddMaterialRequest) (*models.ProductMaterial, error) {
	if req.Quantity <= 0 {
		return nil, validationError("quantity must be at least 1")
	}
	if _, err := s.store.GetProductByID(ctx, productID); err != nil {
		return nil, wrapStoreErr(err, "product not found")
	}
	if _, err := s.store.GetItemByID(ctx, req.ItemID); err != nil {
		return nil, wrapStoreErr(err, "item not found")
	}

	material := &models.ProductMaterial{
		ProductID: productID,
		ItemID:    req.ItemID,
		Quantity:  req.Quantity,
	}
	if err := s.store.AddProductMaterial(ctx, material); err != nil {
		return nil, wrapStoreErr(err, "failed to add material")
	}
	return material, nil
}

// UpdateMaterialQuantity writes the quantity of a BOM line
func (s *ProductService) UpdateMaterialQuantity(ctx context.Context, materialID int64, quantity int) (*models.ProductMaterial, error) {
	if quantity <= 0 {
		return nil, validationError("quantity must be at least 1")
	}
	if err := s.store.UpdateProductMaterialQuantity(ctx, materialID, quantity); err != nil {
		return nil, wrapStoreErr(err, "product material not found")
	}
	material, err := s.store.GetProductMaterialByID(ctx, materialID)
	if err != nil {
		return nil, wrapStoreErr(err, "failed to reload material")
	}
	return material, nil
}

// RemoveMaterial deletes a BOM line
func (s *ProductService) RemoveMaterial(ctx context.Context, materialID int64) error {
	if err := s.store.RemoveProductMaterial(ctx, materialID); err != nil {
		return wrapStoreErr(err, "product material not found")
	}
	return nil
}

// GetMaterials returns a product's BOM lines joined with their items
func (s *ProductService) GetMaterials(ctx context.Context, productID int64) ([]models.ProductMaterialDetail, error) {
	if _, err := s.store.GetProductByID(ctx, productID); err != nil {
		return nil, wrapStoreErr(err, "product not found")
	}
	materials, err := s.store.GetProductMaterials(ctx, productID)
	if err != nil {
		return nil, wrapStoreErr(err, "failed to load materials")
	}
	return materials, nil
}

// MaterialCost computes the aggregate material cost of a product: the sum of
// item cost price times quantity over its BOM. Computed fresh on every read
// so it tracks the current catalog, unlike quote snapshots.
func (s *ProductService) MaterialCost(ctx context.Context, productID int64) (decimal.Decimal, error) {
	materials, err := s.GetMaterials(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	return sumMaterialCost(materials), nil
}

func sumMaterialCost(materials []models.ProductMaterialDetail) decimal.Decimal {
	total := decimal.Zero
	for _, m := range materials {
		total = total.Add(m.ItemCostPrice.Mul(decimal.NewFromInt(int64(m.Quantity))))
	}
	return total
}
