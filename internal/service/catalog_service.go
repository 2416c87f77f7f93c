package service

import (
	"context"
	"time"

	"quote-service/internal/broker"
	"quote-service/internal/models"
	"quote-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// catalogStore is the persistence surface of the catalog
type catalogStore interface {
	CreateItem(ctx context.Context, item *models.Item) error
	GetItemByID(ctx context.Context, id int64) (*models.Item, error)
	GetItems(ctx context.Context, statusFilter string) ([]models.Item, error)
	UpdateItem(ctx context.Context, item *models.Item) error
	SetItemStatus(ctx context.Context, id int64, status string) error
}

// CatalogService manages catalog items. The cost price on an item is owned
// by the price ledger; this service only ever writes the sale price.
type CatalogService struct {
	store  catalogStore
	prices *PriceService
	events *broker.EventPublisher
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store catalogStore, prices *PriceService, events *broker.EventPublisher) *CatalogService {
	return &CatalogService{
		store:  store,
		prices: prices,
		events: events,
		logger: util.GetLogger(),
	}
}

// CreateItemRequest carries the fields of a new catalog item. InitialCost
// and SupplierID together record a first PURCHASE ledger entry.
type CreateItemRequest struct {
	Name        string           `json:"name" binding:"required"`
	Brand       string           `json:"brand" binding:"required"`
	Model       string           `json:"model" binding:"required"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Year        int              `json:"year"`
	SalePrice   decimal.Decimal  `json:"sale_price"`
	InitialCost *decimal.Decimal `json:"initial_cost,omitempty"`
	SupplierID  *int64           `json:"supplier_id,omitempty"`
}

// UpdateItemRequest carries the maintainer-editable fields of an item.
// NewCost and SupplierID together record a PURCHASE ledger entry.
type UpdateItemRequest struct {
	Name        string           `json:"name" binding:"required"`
	Brand       string           `json:"brand" binding:"required"`
	Model       string           `json:"model" binding:"required"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Year        int              `json:"year"`
	SalePrice   decimal.Decimal  `json:"sale_price"`
	NewCost     *decimal.Decimal `json:"new_cost,omitempty"`
	SupplierID  *int64           `json:"supplier_id,omitempty"`
}

// CreateItem creates a catalog item. The (brand, model) pair must be unique
// across active and archived items alike.
func (s *CatalogService) CreateItem(ctx context.Context, req *CreateItemRequest) (*models.Item, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateItem")
	defer span.End()

	if req.Name == "" || req.Brand == "" || req.Model == "" {
		return nil, validationError("name, brand and model are required")
	}
	if req.SalePrice.IsNegative() {
		return nil, validationError("sale price must not be negative")
	}
	if req.InitialCost != nil && req.SupplierID == nil {
		return nil, validationError("initial cost requires a supplier")
	}

	item := &models.Item{
		Name:        req.Name,
		Brand:       req.Brand,
		Model:       req.Model,
		Description: req.Description,
		Category:    req.Category,
		Year:        req.Year,
		Status:      models.ItemStatusActive,
		SalePrice:   req.SalePrice,
		CostPrice:   decimal.Zero,
	}

	if err := s.store.CreateItem(ctx, item); err != nil {
		util.ItemConflictsTotal.Inc()
		return nil, wrapStoreErr(err, "brand and model already in use")
	}

	s.logger.Info("Item created",
		zap.Int64("item_id", item.ID),
		zap.String("brand", item.Brand),
		zap.String("model", item.Model))

	if req.InitialCost != nil {
		_, err := s.prices.RecordPrice(ctx, &RecordPriceRequest{
			ItemID:     item.ID,
			SupplierID: *req.SupplierID,
			Price:      *req.InitialCost,
			Date:       time.Now(),
			Type:       models.PriceTypePurchase,
		})
		if err != nil {
			return nil, err
		}
		// Re-read so the response carries the applied cost price.
		fresh, err := s.store.GetItemByID(ctx, item.ID)
		if err != nil {
			return nil, wrapStoreErr(err, "failed to reload item")
		}
		item = fresh
	}

	return item, nil
}

// UpdateItem updates the editable fields of an item. Archived items are
// read-only until reactivated.
func (s *CatalogService) UpdateItem(ctx context.Context, id int64, req *UpdateItemRequest) (*models.Item, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.UpdateItem")
	defer span.End()

	if req.Name == "" || req.Brand == "" || req.Model == "" {
		return nil, validationError("name, brand and model are required")
	}
	if req.SalePrice.IsNegative() {
		return nil, validationError("sale price must not be negative")
	}
	if req.NewCost != nil && req.SupplierID == nil {
		return nil, validationError("new cost requires a supplier")
	}

	item, err := s.store.GetItemByID(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err, "item not found")
	}
	if item.Status == models.ItemStatusArchived {
		return nil, conflictError("item %d is archived", id)
	}

	item.Name = req.Name
	item.Brand = req.Brand
	item.Model = req.Model
	item.Description = req.Description
	item.Category = req.Category
	item.Year = req.Year
	item.SalePrice = req.SalePrice

	if err := s.store.UpdateItem(ctx, item); err != nil {
		util.ItemConflictsTotal.Inc()
		return nil, wrapStoreErr(err, "brand and model already in use")
	}

	if req.NewCost != nil {
		_, err := s.prices.RecordPrice(ctx, &RecordPriceRequest{
			ItemID:     item.ID,
			SupplierID: *req.SupplierID,
			Price:      *req.NewCost,
			Date:       time.Now(),
			Type:       models.PriceTypePurchase,
		})
		if err != nil {
			return nil, err
		}
	}

	fresh, err := s.store.GetItemByID(ctx, item.ID)
	if err != nil {
		return nil, wrapStoreErr(err, "failed to reload item")
	}
	return fresh, nil
}

// GetItem retrieves an item by ID; archived items remain addressable
func (s *CatalogService) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	item, err := s.store.GetItemByID(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err, "item not found")
	}
	return item, nil
}

// ListItems lists items for a status filter; empty defaults to ACTIVE
func (s *CatalogService) ListItems(ctx context.Context, statusFilter string) ([]models.Item, error) {
	if statusFilter == "" {
		statusFilter = models.StatusFilterActive
	}
	if !models.ValidItemStatusFilter(statusFilter) {
		return nil, validationError("unknown status filter %q", statusFilter)
	}
	items, err := s.store.GetItems(ctx, statusFilter)
	if err != nil {
		return nil, wrapStoreErr(err, "failed to list items")
	}
	return items, nil
}

// ArchiveItem soft-retires an item. It disappears from default listings and
// refuses edits, but stays addressable and keeps its history.
func (s *CatalogService) ArchiveItem(ctx context.Context, id int64) (*models.Item, error) {
	return s.setStatus(ctx, id, models.ItemStatusArchived, models.EventTypeItemArchived)
}

// ActivateItem reverses an archive
func (s *CatalogService) ActivateItem(ctx context.Context, id int64) (*models.Item, error) {
	return s.setStatus(ctx, id, models.ItemStatusActive, models.EventTypeItemActivated)
}

func (s *CatalogService) setStatus(ctx context.Context, id int64, status, eventType string) (*models.Item, error) {
	if err := s.store.SetItemStatus(ctx, id, status); err != nil {
		return nil, wrapStoreErr(err, "item not found")
	}

	item, err := s.store.GetItemByID(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err, "failed to reload item")
	}

	s.logger.Info("Item status changed",
		zap.Int64("item_id", id),
		zap.String("status", status))

	if s.events != nil {
		event := &models.ItemStatusEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: eventType,
				Timestamp: time.Now(),
			},
			ItemID: id,
			Status: status,
		}
		if err := s.events.PublishItemStatus(ctx, event); err != nil {
			s.logger.Error("Failed to publish item status event", zap.Error(err))
		}
	}

	return item, nil
}
