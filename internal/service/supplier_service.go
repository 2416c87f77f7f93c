package service

import (
	"context"

	"quote-service/internal/models"
	"quote-service/internal/util"

	"go.uber.org/zap"
)

// supplierStore is the persistence surface for suppliers
type supplierStore interface {
	CreateSupplier(ctx context.Context, supplier *models.Supplier) error
	GetSupplierByID(ctx context.Context, id int64) (*models.Supplier, error)
	GetSuppliers(ctx context.Context) ([]models.Supplier, error)
	UpdateSupplier(ctx context.Context, supplier *models.Supplier) error
	CountPriceEntriesBySupplier(ctx context.Context, supplierID int64) (int64, error)
	DeleteSupplier(ctx context.Context, id int64) error
}

// SupplierService manages the supplier directory
type SupplierService struct {
	store  supplierStore
	logger *zap.Logger
}

// NewSupplierService creates a new supplier service
func NewSupplierService(store supplierStore) *SupplierService {
	return &SupplierService{store: store, logger: util.GetLogger()}
}

// SupplierRequest carries supplier contact fields
type SupplierRequest struct {
	Name           string `json:"name" binding:"required"`
	Contact        string `json:"contact"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	BusinessNumber string `json:"business_number"`
	Address        string `json:"address"`
}

// CreateSupplier creates a supplier
func (s *SupplierService) CreateSupplier(ctx context.Context, req *SupplierRequest) (*models.Supplier, error) {
	if req.Name == "" {
		return nil, validationError("name is required")
	}
	supplier := &models.Supplier{
		Name:           req.Name,
		Contact:        req.Contact,
		Email:          req.Email,
		Phone:          req.Phone,
		BusinessNumber: req.BusinessNumber,
		Address:        req.Address,
	}
	if err := s.store.CreateSupplier(ctx, supplier); err != nil {
		return nil, wrapStoreErr(err, "failed to create supplier")
	}
	s.logger.Info("Supplier created", zap.Int64("supplier_id", supplier.ID))
	return supplier, nil
}

// GetSupplier retrieves a supplier by ID
func (s *SupplierService) GetSupplier(ctx context.Context, id int64) (*models.Supplier, error) {
	supplier, err := s.store.GetSupplierByID(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err, "supplier not found")
	}
	return supplier, nil
}

// ListSuppliers lists all suppliers, newest first
func (s *SupplierService) ListSuppliers(ctx context.Context) ([]models.Supplier, error) {
	suppliers, err := s.store.GetSuppliers(ctx)
	if err != nil {
		return nil, wrapStoreErr(err, "failed to list suppliers")
	}
	return suppliers, nil
}

// UpdateSupplier updates supplier contact fields
func (s *SupplierService) UpdateSupplier(ctx context.Context, id int64, req *SupplierRequest) (*models.Supplier, error) {
	if req.Name == "" {
		return nil, validationError("name is required")
	}
	supplier, err := s.store.GetSupplierByID(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err, "supplier not found")
	}
	supplier.Name = req.Name
	supplier.Contact = req.Contact
	supplier.Email = req.Email
	supplier.Phone = req.Phone
	supplier.BusinessNumber = req.BusinessNumber
	supplier.Address = req.Address
	if err := s.store.UpdateSupplier(ctx, supplier); err != nil {
		return nil, wrapStoreErr(err, "failed to update supplier")
	}
	return supplier, nil
}

// DeleteSupplier removes a supplier. A supplier referenced by ledger entries
// cannot be deleted; the history it anchors is immutable.
func (s *SupplierService) DeleteSupplier(ctx context.Context, id int64) error {
	count, err := s.store.CountPriceEntriesBySupplier(ctx, id)
	if err != nil {
		return wrapStoreErr(err, "failed to check supplier references")
	}
	if count > 0 {
		return conflictError("supplier %d is referenced by %d price entries", id, count)
	}
	if err := s.store.DeleteSupplier(ctx, id); err != nil {
		return wrapStoreErr(err, "supplier not found")
	}
	s.logger.Info("Supplier deleted", zap.Int64("supplier_id", id))
	return nil
}
