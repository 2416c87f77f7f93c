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

// quoteStore is the persistence surface of the quote aggregate engine
type quoteStore interface {
	CreateQuote(ctx context.Context, quote *models.Quote) error
	GetQuoteByID(ctx context.Context, id int64) (*models.Quote, error)
	GetQuotes(ctx context.Context) ([]models.Quote, error)
	UpdateQuoteStatus(ctx context.Context, id int64, status string) error
	GetQuoteItems(ctx context.Context, quoteID int64) ([]models.QuoteItem, error)
	GetQuoteItemByID(ctx context.Context, id int64) (*models.QuoteItem, error)
	AddQuoteItemTx(ctx context.Context, item *models.QuoteItem) (decimal.Decimal, error)
	UpdateQuoteItemTx(ctx context.Context, item *models.QuoteItem) (decimal.Decimal, error)
	SoftDeleteQuoteItemTx(ctx context.Context, quoteID, itemID int64) ([]int64, decimal.Decimal, error)
	RecomputeQuoteTotal(ctx context.Context, quoteID int64) (decimal.Decimal, error)
	GetClientByID(ctx context.Context, id int64) (*models.Client, error)
	GetItemByID(ctx context.Context, id int64) (*models.Item, error)
	LatestPriceEntry(ctx context.Context, itemID int64, typeFilter string) (*models.PriceEntry, error)
}

// quoteCache caches assembled quotes and per-item cost bases, and serializes
// per-quote writers
type quoteCache interface {
	GetQuote(ctx context.Context, id int64) (*models.QuoteDetail, error)
	SetQuote(ctx context.Context, detail *models.QuoteDetail) error
	InvalidateQuote(ctx context.Context, id int64) error
	GetItemCost(ctx context.Context, itemID int64) (string, error)
	SetItemCost(ctx context.Context, itemID int64, cost string) error
	AcquireQuoteLock(ctx context.Context, quoteID int64) (string, error)
	ReleaseQuoteLock(ctx context.Context, quoteID int64, token string) error
}

// QuoteService owns the quote line-item tree: snapshot-on-add, merged
// updates, single-level soft-delete cascade and total recomputation. Every
// mutation ends with the quote total rewritten in the same transaction.
type QuoteService struct {
	store  quoteStore
	cache  quoteCache
	events *broker.EventPublisher
	logger *zap.Logger
}

// NewQuoteService creates a new quote service
func NewQuoteService(store quoteStore, cache quoteCache, events *broker.EventPublisher) *QuoteService {
	return &QuoteService{
		store:  store,
		cache:  cache,
		events: events,
		logger: util.GetLogger(),
	}
}

// AddQuoteItemRequest adds a catalog item line to a quote
type AddQuoteItemRequest struct {
	ItemID   int64  `json:"item_id" binding:"required"`
	ParentID *int64 `json:"parent_id,omitempty"`
}

// UpdateQuoteItemRequest carries partial edits to a quote line. Nil fields
// keep their current value; the line total is recomputed from the merged
// quantity and unit price.
type UpdateQuoteItemRequest struct {
	Quantity    *int             `json:"quantity,omitempty"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
}

// CreateQuote opens a DRAFT quote for a client with a zero total
func (s *QuoteService) CreateQuote(ctx context.Context, clientID int64) (*models.Quote, error) {
	ctx, span := util.StartSpan(ctx, "QuoteService.CreateQuote")
	defer span.End()

	if _, err := s.store.GetClientByID(ctx, clientID); err != nil {
		return nil, wrapStoreErr(err, "client not found")
	}

	quote := &models.Quote{
		ClientID:    clientID,
		Status:      models.QuoteStatusDraft,
		Date:        time.Now(),
		TotalAmount: decimal.Zero,
	}
	if err := s.store.CreateQuote(ctx, quote); err != nil {
		return nil, wrapStoreErr(err, "failed to create quote")
	}

	util.QuotesCreatedTotal.Inc()
	s.logger.Info("Quote created",
		zap.Int64("quote_id", quote.ID),
		zap.Int64("client_id", clientID))

	if s.events != nil {
		event := &models.QuoteCreatedEvent{
			BaseEvent: baseEvent(models.EventTypeQuoteCreated),
			QuoteID:   quote.ID,
			ClientID:  clientID,
		}
		if err := s.events.PublishQuoteCreated(ctx, event); err != nil {
			s.logger.Error("Failed to publish QuoteCreated event", zap.Error(err))
		}
	}

	return quote, nil
}

// ListQuotes lists all quotes, newest first
func (s *QuoteService) ListQuotes(ctx context.Context) ([]models.Quote, error) {
	quotes, err := s.store.GetQuotes(ctx)
	if err != nil {
		return nil, wrapStoreErr(err, "failed to list quotes")
	}
	return quotes, nil
}

// GetQuote returns the assembled quote: header, client and the live item
// tree ordered by display order.
func (s *QuoteService) GetQuote(ctx context.Context, id int64) (*models.QuoteDetail, error) {
	ctx, span := util.StartSpan(ctx, "QuoteService.GetQuote")
	defer span.End()

	if s.cache != nil {
		if detail, err := s.cache.GetQuote(ctx, id); err != nil {
			s.logger.Warn("Quote cache read failed", zap.Int64("quote_id", id), zap.Error(err))
		} else if detail != nil {
			util.CacheHitsTotal.WithLabelValues("quote").Inc()
			return detail, nil
		} else {
			util.CacheMissesTotal.WithLabelValues("quote").Inc()
		}
	}

	quote, err := s.store.GetQuoteByID(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err, "quote not found")
	}

	client, err := s.store.GetClientByID(ctx, quote.ClientID)
	if err != nil {
		s.logger.Warn("Failed to load quote client",
			zap.Int64("quote_id", id), zap.Error(err))
		client = nil
	}

	items, err := s.store.GetQuoteItems(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err, "failed to load quote items")
	}

	detail := &models.QuoteDetail{
		Quote:  *quote,
		Client: client,
		Items:  buildQuoteItemTree(items),
	}

	if s.cache != nil {
		if err := s.cache.SetQuote(ctx, detail); err != nil {
			s.logger.Warn("Quote cache write failed", zap.Int64("quote_id", id), zap.Error(err))
		}
	}

	return detail, nil
}

// AddItem appends a line to a quote, snapshotting the source item's name,
// brand, model, description and sale price, plus the latest PURCHASE ledger
// price as the cost basis. The quote total is recomputed in the same
// transaction as the insert.
func (s *QuoteService) AddItem(ctx context.Context, quoteID int64, req *AddQuoteItemRequest) (*models.QuoteItem, error) {
	ctx, span := util.StartSpan(ctx, "QuoteService.AddItem")
	defer span.End()

	item, err := s.store.GetItemByID(ctx, req.ItemID)
	if err != nil {
		util.QuoteMutationsFailedTotal.WithLabelValues("item_not_found").Inc()
		return nil, wrapStoreErr(err, "item not found")
	}

	if req.ParentID != nil {
		parent, err := s.store.GetQuoteItemByID(ctx, *req.ParentID)
		if err != nil {
			return nil, wrapStoreErr(err, "parent quote item not found")
		}
		if parent.QuoteID != quoteID {
			return nil, validationError("parent item %d belongs to another quote", parent.ID)
		}
		if parent.DeletedAt != nil {
			return nil, validationError("parent item %d is deleted", parent.ID)
		}
		if parent.ParentID != nil {
			return nil, validationError("quote items nest at most one level")
		}
	}

	costBasis, err := s.lookupCostBasis(ctx, item.ID)
	if err != nil {
		return nil, err
	}

	quoteItem := &models.QuoteItem{
		QuoteID:     quoteID,
		ParentID:    req.ParentID,
		ItemID:      &item.ID,
		Name:        item.Name,
		Brand:       item.Brand,
		Model:       item.Model,
		Description: item.Description,
		Quantity:    1,
		UnitPrice:   item.SalePrice,
		Total:       item.SalePrice,
		CostBasis:   costBasis,
	}

	total, err := s.withQuoteLock(ctx, quoteID, func(ctx context.Context) (decimal.Decimal, error) {
		return s.store.AddQuoteItemTx(ctx, quoteItem)
	})
	if err != nil {
		util.QuoteMutationsFailedTotal.WithLabelValues("add_failed").Inc()
		return nil, wrapStoreErr(err, "failed to add quote item")
	}

	s.invalidateQuote(ctx, quoteID)
	util.QuoteItemsAddedTotal.Inc()
	util.QuoteTotalRecomputesTotal.Inc()

	if s.events != nil {
		event := &models.QuoteItemAddedEvent{
			BaseEvent:   baseEvent(models.EventTypeQuoteItemAdded),
			QuoteID:     quoteID,
			QuoteItemID: quoteItem.ID,
			TotalAmount: total,
		}
		if err := s.events.PublishQuoteItemAdded(ctx, event); err != nil {
			s.logger.Error("Failed to publish QuoteItemAdded event", zap.Error(err))
		}
	}

	return quoteItem, nil
}

// UpdateItem merges the provided fields over the current line. When the
// quantity or unit price changes, the line total is recomputed against the
// merged values, so an update supplying only a quantity still multiplies by
// the existing unit price. The quote total is rewritten transactionally.
func (s *QuoteService) UpdateItem(ctx context.Context, id int64, req *UpdateQuoteItemRequest) (*models.QuoteItem, error) {
	ctx, span := util.StartSpan(ctx, "QuoteService.UpdateItem")
	defer span.End()

	current, err := s.store.GetQuoteItemByID(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err, "quote item not found")
	}
	if current.DeletedAt != nil {
		return nil, notFoundError("quote item %d is deleted", id)
	}

	merged, err := mergeQuoteItemUpdate(current, req)
	if err != nil {
		return nil, err
	}

	total, err := s.withQuoteLock(ctx, merged.QuoteID, func(ctx context.Context) (decimal.Decimal, error) {
		return s.store.UpdateQuoteItemTx(ctx, merged)
	})
	if err != nil {
		util.QuoteMutationsFailedTotal.WithLabelValues("update_failed").Inc()
		return nil, wrapStoreErr(err, "failed to update quote item")
	}

	s.invalidateQuote(ctx, merged.QuoteID)
	util.QuoteTotalRecomputesTotal.Inc()

	if s.events != nil {
		event := &models.QuoteItemUpdatedEvent{
			BaseEvent:   baseEvent(models.EventTypeQuoteItemUpdated),
			QuoteID:     merged.QuoteID,
			QuoteItemID: merged.ID,
			TotalAmount: total,
		}
		if err := s.events.PublishQuoteItemUpdated(ctx, event); err != nil {
			s.logger.Error("Failed to publish QuoteItemUpdated event", zap.Error(err))
		}
	}

	return merged, nil
}

// DeleteItem soft-deletes a quote line together with its direct children
// and recomputes the quote total, all in one transaction. Deleting an
// already-deleted line is a no-op.
func (s *QuoteService) DeleteItem(ctx context.Context, id int64) error {
	ctx, span := util.StartSpan(ctx, "QuoteService.DeleteItem")
	defer span.End()

	current, err := s.store.GetQuoteItemByID(ctx, id)
	if err != nil {
		return wrapStoreErr(err, "quote item not found")
	}
	if current.DeletedAt != nil {
		return nil
	}

	var cascaded []int64
	total, err := s.withQuoteLock(ctx, current.QuoteID, func(ctx context.Context) (decimal.Decimal, error) {
		var total decimal.Decimal
		cascaded, total, err = s.store.SoftDeleteQuoteItemTx(ctx, current.QuoteID, id)
		return total, err
	})
	if err != nil {
		util.QuoteMutationsFailedTotal.WithLabelValues("delete_failed").Inc()
		return wrapStoreErr(err, "failed to delete quote item")
	}

	s.invalidateQuote(ctx, current.QuoteID)
	util.QuoteItemsDeletedTotal.Add(float64(1 + len(cascaded)))
	util.QuoteTotalRecomputesTotal.Inc()
	s.logger.Info("Quote item deleted",
		zap.Int64("quote_item_id", id),
		zap.Int64("quote_id", current.QuoteID),
		zap.Int("cascaded", len(cascaded)))

	if s.events != nil {
		event := &models.QuoteItemDeletedEvent{
			BaseEvent:   baseEvent(models.EventTypeQuoteItemDeleted),
			QuoteID:     current.QuoteID,
			QuoteItemID: id,
			CascadedIDs: cascaded,
			TotalAmount: total,
		}
		if err := s.events.PublishQuoteItemDeleted(ctx, event); err != nil {
			s.logger.Error("Failed to publish QuoteItemDeleted event", zap.Error(err))
		}
	}

	return nil
}

// RecomputeTotal re-derives the quote total from its live items. Idempotent.
func (s *QuoteService) RecomputeTotal(ctx context.Context, quoteID int64) (decimal.Decimal, error) {
	total, err := s.store.RecomputeQuoteTotal(ctx, quoteID)
	if err != nil {
		return decimal.Zero, wrapStoreErr(err, "failed to recompute quote total")
	}
	s.invalidateQuote(ctx, quoteID)
	util.QuoteTotalRecomputesTotal.Inc()
	return total, nil
}

// UpdateStatus writes the quote status. Transitions among DRAFT, SENT and
// ACCEPTED are free-form.
func (s *QuoteService) UpdateStatus(ctx context.Context, id int64, status string) error {
	if !models.ValidQuoteStatus(status) {
		return validationError("unknown quote status %q", status)
	}
	if err := s.store.UpdateQuoteStatus(ctx, id, status); err != nil {
		return wrapStoreErr(err, "quote not found")
	}

	s.invalidateQuote(ctx, id)

	if s.events != nil {
		event := &models.QuoteStatusChangedEvent{
			BaseEvent: baseEvent(models.EventTypeQuoteStatusChanged),
			QuoteID:   id,
			Status:    status,
		}
		if err := s.events.PublishQuoteStatusChanged(ctx, event); err != nil {
			s.logger.Error("Failed to publish QuoteStatusChanged event", zap.Error(err))
		}
	}

	return nil
}

// lookupCostBasis resolves the latest PURCHASE price for an item, reading
// through the item-cost cache the price watch worker keeps warm. A miss falls
// back to the ledger and warms the cache; an item with no purchase history
// has a zero cost basis.
func (s *QuoteService) lookupCostBasis(ctx context.Context, itemID int64) (decimal.Decimal, error) {
	if s.cache != nil {
		cached, err := s.cache.GetItemCost(ctx, itemID)
		switch {
		case err != nil:
			s.logger.Warn("Item cost cache read failed",
				zap.Int64("item_id", itemID), zap.Error(err))
		case cached != "":
			cost, err := decimal.NewFromString(cached)
			if err == nil {
				util.CacheHitsTotal.WithLabelValues("item-cost").Inc()
				return cost, nil
			}
			s.logger.Warn("Discarding malformed cached item cost",
				zap.Int64("item_id", itemID), zap.String("value", cached))
		default:
			util.CacheMissesTotal.WithLabelValues("item-cost").Inc()
		}
	}

	latest, err := s.store.LatestPriceEntry(ctx, itemID, models.PriceTypePurchase)
	if err != nil {
		return decimal.Zero, wrapStoreErr(err, "failed to load cost basis")
	}
	if latest == nil {
		return decimal.Zero, nil
	}

	if s.cache != nil {
		if err := s.cache.SetItemCost(ctx, itemID, latest.Price.String()); err != nil {
			s.logger.Warn("Item cost cache write failed",
				zap.Int64("item_id", itemID), zap.Error(err))
		}
	}
	return latest.Price, nil
}

// withQuoteLock serializes mutations of one quote behind a short-lived
// distributed lock. The database row lock inside each transaction is the
// correctness guarantee; this lock only queues concurrent writers, so a
// cache failure falls open rather than blocking the mutation.
func (s *QuoteService) withQuoteLock(ctx context.Context, quoteID int64, fn func(context.Context) (decimal.Decimal, error)) (decimal.Decimal, error) {
	if s.cache == nil {
		return fn(ctx)
	}
	token, err := s.cache.AcquireQuoteLock(ctx, quoteID)
	if err != nil {
		s.logger.Warn("Quote lock unavailable, relying on row lock",
			zap.Int64("quote_id", quoteID), zap.Error(err))
		return fn(ctx)
	}
	defer func() {
		if err := s.cache.ReleaseQuoteLock(ctx, quoteID, token); err != nil {
			s.logger.Warn("Failed to release quote lock",
				zap.Int64("quote_id", quoteID), zap.Error(err))
		}
	}()
	return fn(ctx)
}

func (s *QuoteService) invalidateQuote(ctx context.Context, quoteID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateQuote(ctx, quoteID); err != nil {
		s.logger.Warn("Quote cache invalidation failed",
			zap.Int64("quote_id", quoteID), zap.Error(err))
	}
}

// mergeQuoteItemUpdate applies a partial update over the current line and
// recomputes the line total from the merged quantity and unit price.
func mergeQuoteItemUpdate(current *models.QuoteItem, req *UpdateQuoteItemRequest) (*models.QuoteItem, error) {
	merged := *current
	if req.Quantity != nil {
		if *req.Quantity < 1 {
			return nil, validationError("quantity must be at least 1")
		}
		merged.Quantity = *req.Quantity
	}
	if req.UnitPrice != nil {
		if req.UnitPrice.IsNegative() {
			return nil, validationError("unit price must not be negative")
		}
		merged.UnitPrice = *req.UnitPrice
	}
	if req.Name != nil {
		if *req.Name == "" {
			return nil, validationError("name must not be empty")
		}
		merged.Name = *req.Name
	}
	if req.Description != nil {
		merged.Description = *req.Description
	}
	merged.Total = merged.UnitPrice.Mul(decimal.NewFromInt(int64(merged.Quantity)))
	return &merged, nil
}

// buildQuoteItemTree assembles the flat, display-ordered item slice into a
// tree. Two passes: index every live item by id, then attach each to its
// parent's children when the parent is present and live, else keep it as a
// root. A child whose parent was deleted therefore never hides silently.
func buildQuoteItemTree(items []models.QuoteItem) []*models.QuoteItemNode {
	nodes := make(map[int64]*models.QuoteItemNode, len(items))
	ordered := make([]*models.QuoteItemNode, 0, len(items))
	for i := range items {
		if items[i].DeletedAt != nil {
			continue
		}
		node := &models.QuoteItemNode{QuoteItem: items[i]}
		nodes[node.ID] = node
		ordered = append(ordered, node)
	}

	roots := make([]*models.QuoteItemNode, 0, len(ordered))
	for _, node := range ordered {
		if node.ParentID != nil {
			if parent, ok := nodes[*node.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

func baseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}
