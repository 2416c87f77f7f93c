package service

import (
	"context"
	"strings"
	"time"

	"quote-service/internal/broker"
	"quote-service/internal/models"
	"quote-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// priceStore is the persistence surface of the price ledger
type priceStore interface {
	GetItemByID(ctx context.Context, id int64) (*models.Item, error)
	GetSupplierByID(ctx context.Context, id int64) (*models.Supplier, error)
	RecordPriceTx(ctx context.Context, entry *models.PriceEntry) (bool, error)
	LatestPriceEntry(ctx context.Context, itemID int64, typeFilter string) (*models.PriceEntry, error)
	GetPriceHistory(ctx context.Context, itemID int64) ([]models.PriceEntry, error)
	SearchPriceHistory(ctx context.Context, query string, limit int) ([]models.PriceEntryDetail, error)
}

// PriceService owns the append-only price ledger and the policy that keeps
// the catalog cost price in sync with the latest PURCHASE entry.
type PriceService struct {
	store       priceStore
	events      *broker.EventPublisher
	logger      *zap.Logger
	searchLimit int
}

// NewPriceService creates a new price ledger service
func NewPriceService(store priceStore, events *broker.EventPublisher, searchLimit int) *PriceService {
	if searchLimit <= 0 {
		searchLimit = 200
	}
	return &PriceService{
		store:       store,
		events:      events,
		logger:      util.GetLogger(),
		searchLimit: searchLimit,
	}
}

// RecordPriceRequest is a request to append a ledger entry
type RecordPriceRequest struct {
	ItemID     int64           `json:"item_id" binding:"required"`
	SupplierID int64           `json:"supplier_id" binding:"required"`
	Price      decimal.Decimal `json:"price"`
	Date       time.Time       `json:"date"`
	Type       string          `json:"type" binding:"required"`
}

// RecordPrice appends an immutable ledger entry. When the entry is the new
// latest-by-date PURCHASE record for the item, the item's cost price and
// year are updated in the same transaction; QUOTATION entries never touch
// the cached cost regardless of date ordering.
func (s *PriceService) RecordPrice(ctx context.Context, req *RecordPriceRequest) (*models.PriceEntry, error) {
	ctx, span := util.StartSpan(ctx, "PriceService.RecordPrice")
	defer span.End()

	if req.Price.IsNegative() {
		return nil, validationError("price must not be negative")
	}
	if !models.ValidPriceType(req.Type) {
		return nil, validationError("unknown price type %q", req.Type)
	}
	date := req.Date
	if date.IsZero() {
		date = time.Now()
	}

	if _, err := s.store.GetItemByID(ctx, req.ItemID); err != nil {
		return nil, wrapStoreErr(err, "item not found")
	}
	if _, err := s.store.GetSupplierByID(ctx, req.SupplierID); err != nil {
		return nil, wrapStoreErr(err, "supplier not found")
	}

	entry := &models.PriceEntry{
		ItemID:     req.ItemID,
		SupplierID: req.SupplierID,
		Price:      req.Price,
		Date:       date,
		Type:       req.Type,
	}

	applied, err := s.store.RecordPriceTx(ctx, entry)
	if err != nil {
		return nil, wrapStoreErr(err, "failed to record price")
	}

	util.PriceEntriesRecordedTotal.WithLabelValues(entry.Type).Inc()
	if applied {
		util.CostPriceUpdatesTotal.Inc()
	}
	s.logger.Info("Price entry recorded",
		zap.Int64("entry_id", entry.ID),
		zap.Int64("item_id", entry.ItemID),
		zap.String("type", entry.Type),
		zap.Bool("cost_applied", applied))

	if s.events != nil {
		event := &models.PriceRecordedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypePriceRecorded,
				Timestamp: time.Now(),
			},
			EntryID:     entry.ID,
			ItemID:      entry.ItemID,
			SupplierID:  entry.SupplierID,
			Price:       entry.Price,
			Date:        entry.Date,
			PriceType:   entry.Type,
			CostApplied: applied,
		}
		if err := s.events.PublishPriceRecorded(ctx, event); err != nil {
			s.logger.Error("Failed to publish PriceRecorded event", zap.Error(err))
		}
	}

	return entry, nil
}

// LatestEntry returns the most recent ledger entry for an item, optionally
// filtered by type. Returns nil when the item has no matching entries.
func (s *PriceService) LatestEntry(ctx context.Context, itemID int64, typeFilter string) (*models.PriceEntry, error) {
	if typeFilter != "" && !models.ValidPriceType(typeFilter) {
		return nil, validationError("unknown price type %q", typeFilter)
	}
	entry, err := s.store.LatestPriceEntry(ctx, itemID, typeFilter)
	if err != nil {
		return nil, wrapStoreErr(err, "failed to load latest price entry")
	}
	return entry, nil
}

// History returns all ledger entries for an item, newest first
func (s *PriceService) History(ctx context.Context, itemID int64) ([]models.PriceEntry, error) {
	if _, err := s.store.GetItemByID(ctx, itemID); err != nil {
		return nil, wrapStoreErr(err, "item not found")
	}
	entries, err := s.store.GetPriceHistory(ctx, itemID)
	if err != nil {
		return nil, wrapStoreErr(err, "failed to load price history")
	}
	return entries, nil
}

// Search returns ledger entries whose item name, brand or model contains the
// query, joined with item and supplier, newest first.
func (s *PriceService) Search(ctx context.Context, query string) ([]models.PriceEntryDetail, error) {
	ctx, span := util.StartSpan(ctx, "PriceService.Search")
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, validationError("search query must not be empty")
	}

	entries, err := s.store.SearchPriceHistory(ctx, query, s.searchLimit)
	if err != nil {
		return nil, wrapStoreErr(err, "failed to search price history")
	}
	return entries, nil
}
