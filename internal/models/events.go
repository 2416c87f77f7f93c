package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypePriceRecorded      = "PRICE_RECORDED"
	EventTypeItemArchived       = "ITEM_ARCHIVED"
	EventTypeItemActivated      = "ITEM_ACTIVATED"
	EventTypeQuoteCreated       = "QUOTE_CREATED"
	EventTypeQuoteItemAdded     = "QUOTE_ITEM_ADDED"
	EventTypeQuoteItemUpdated   = "QUOTE_ITEM_UPDATED"
	EventTypeQuoteItemDeleted   = "QUOTE_ITEM_DELETED"
	EventTypeQuoteStatusChanged = "QUOTE_STATUS_CHANGED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// PriceRecordedEvent published when a ledger entry is written.
// CostApplied is true when the entry became the item's new cost basis.
type PriceRecordedEvent struct {
	BaseEvent
	EntryID     int64           `json:"entry_id"`
	ItemID      int64           `json:"item_id"`
	SupplierID  int64           `json:"supplier_id"`
	Price       decimal.Decimal `json:"price"`
	Date        time.Time       `json:"date"`
	PriceType   string          `json:"price_type"`
	CostApplied bool            `json:"cost_applied"`
}

// ItemStatusEvent published when an item is archived or reactivated
type ItemStatusEvent struct {
	BaseEvent
	ItemID int64  `json:"item_id"`
	Status string `json:"status"`
}

// QuoteCreatedEvent published when a quote is created
type QuoteCreatedEvent struct {
	BaseEvent
	QuoteID  int64 `json:"quote_id"`
	ClientID int64 `json:"client_id"`
}

// QuoteItemAddedEvent published when a line is added to a quote
type QuoteItemAddedEvent struct {
	BaseEvent
	QuoteID     int64           `json:"quote_id"`
	QuoteItemID int64           `json:"quote_item_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// QuoteItemUpdatedEvent published when a quote line is edited
type QuoteItemUpdatedEvent struct {
	BaseEvent
	QuoteID     int64           `json:"quote_id"`
	QuoteItemID int64           `json:"quote_item_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// QuoteItemDeletedEvent published when a quote line is soft-deleted.
// CascadedIDs lists the direct children deleted in the same transaction.
type QuoteItemDeletedEvent struct {
	BaseEvent
	QuoteID     int64           `json:"quote_id"`
	QuoteItemID int64           `json:"quote_item_id"`
	CascadedIDs []int64         `json:"cascaded_ids,omitempty"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// QuoteStatusChangedEvent published when a quote status is written
type QuoteStatusChangedEvent struct {
	BaseEvent
	QuoteID int64  `json:"quote_id"`
	Status  string `json:"status"`
}
