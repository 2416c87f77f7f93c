package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Supplier is a vendor we purchase from or request quotations from.
type Supplier struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Contact        string    `db:"contact" json:"contact,omitempty"`
	Email          string    `db:"email" json:"email,omitempty"`
	Phone          string    `db:"phone" json:"phone,omitempty"`
	BusinessNumber string    `db:"business_number" json:"business_number,omitempty"`
	Address        string    `db:"address" json:"address,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Client owns quotes.
type Client struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Address        string    `db:"address" json:"address,omitempty"`
	Email          string    `db:"email" json:"email,omitempty"`
	Phone          string    `db:"phone" json:"phone,omitempty"`
	BusinessNumber string    `db:"business_number" json:"business_number,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Item is a catalog part or service.
//
// SalePrice is set by catalog maintainers and is what quotes snapshot.
// CostPrice is a cache of the latest PURCHASE-type price entry; only the
// ledger write path updates it, so manual edits can never overwrite the
// audited cost basis.
type Item struct {
	ID          int64           `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Brand       string          `db:"brand" json:"brand"`
	Model       string          `db:"model" json:"model"`
	Description string          `db:"description" json:"description,omitempty"`
	Category    string          `db:"category" json:"category"`
	Year        int             `db:"year" json:"year"`
	Status      string          `db:"status" json:"status"`
	SalePrice   decimal.Decimal `db:"sale_price" json:"sale_price"`
	CostPrice   decimal.Decimal `db:"cost_price" json:"cost_price"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// Item statuses
const (
	ItemStatusActive   = "ACTIVE"
	ItemStatusArchived = "ARCHIVED"
)

// Item listing filters
const (
	StatusFilterActive   = "ACTIVE"
	StatusFilterArchived = "ARCHIVED"
	StatusFilterAll      = "ALL"
)

// PriceEntry is an append-only record of a purchase or quotation price for
// an item from a supplier. Entries are immutable once written.
type PriceEntry struct {
	ID         int64           `db:"id" json:"id"`
	ItemID     int64           `db:"item_id" json:"item_id"`
	SupplierID int64           `db:"supplier_id" json:"supplier_id"`
	Price      decimal.Decimal `db:"price" json:"price"`
	Date       time.Time       `db:"date" json:"date"`
	Type       string          `db:"type" json:"type"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// Price entry types
const (
	PriceTypePurchase  = "PURCHASE"
	PriceTypeQuotation = "QUOTATION"
)

// PriceEntryDetail is a ledger entry joined with its item and supplier,
// as returned by price history search.
type PriceEntryDetail struct {
	PriceEntry
	ItemName     string `db:"item_name" json:"item_name"`
	ItemBrand    string `db:"item_brand" json:"item_brand"`
	ItemModel    string `db:"item_model" json:"item_model"`
	SupplierName string `db:"supplier_name" json:"supplier_name"`
}

// Product is a bill-of-materials composition of catalog items.
type Product struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ProductMaterial is one BOM line: an item and its quantity.
type ProductMaterial struct {
	ID        int64     `db:"id" json:"id"`
	ProductID int64     `db:"product_id" json:"product_id"`
	ItemID    int64     `db:"item_id" json:"item_id"`
	Quantity  int       `db:"quantity" json:"quantity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ProductMaterialDetail is a BOM line joined with its item, used for
// material cost aggregation.
type ProductMaterialDetail struct {
	ProductMaterial
	ItemName      string          `db:"item_name" json:"item_name"`
	ItemCostPrice decimal.Decimal `db:"item_cost_price" json:"item_cost_price"`
}

// Quote is a client-facing quotation. TotalAmount is derived: it always
// equals the sum of Total over non-deleted quote items and is rewritten
// inside the same transaction as any item mutation.
type Quote struct {
	ID          int64           `db:"id" json:"id"`
	ClientID    int64           `db:"client_id" json:"client_id"`
	Status      string          `db:"status" json:"status"`
	Date        time.Time       `db:"date" json:"date"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"total_amount"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// Quote statuses
const (
	QuoteStatusDraft    = "DRAFT"
	QuoteStatusSent     = "SENT"
	QuoteStatusAccepted = "ACCEPTED"
)

// QuoteItem is one line of a quote. Name, brand, model, description,
// unit price and cost basis are snapshots captured when the line is added;
// later edits to the source item never touch them. A nil DeletedAt means
// the line is live.
type QuoteItem struct {
	ID           int64           `db:"id" json:"id"`
	QuoteID      int64           `db:"quote_id" json:"quote_id"`
	ParentID     *int64          `db:"parent_id" json:"parent_id,omitempty"`
	ItemID       *int64          `db:"item_id" json:"item_id,omitempty"`
	ProductID    *int64          `db:"product_id" json:"product_id,omitempty"`
	Name         string          `db:"name" json:"name"`
	Brand        string          `db:"brand" json:"brand,omitempty"`
	Model        string          `db:"model" json:"model,omitempty"`
	Description  string          `db:"description" json:"description,omitempty"`
	Quantity     int             `db:"quantity" json:"quantity"`
	UnitPrice    decimal.Decimal `db:"unit_price" json:"unit_price"`
	Total        decimal.Decimal `db:"total" json:"total"`
	CostBasis    decimal.Decimal `db:"cost_basis" json:"cost_basis"`
	DisplayOrder int             `db:"display_order" json:"display_order"`
	DeletedAt    *time.Time      `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// QuoteItemNode is a quote item with its direct children resolved.
type QuoteItemNode struct {
	QuoteItem
	Children []*QuoteItemNode `json:"children,omitempty"`
}

// QuoteDetail is a fully assembled quote: header, client and the item tree.
type QuoteDetail struct {
	Quote
	Client *Client          `json:"client,omitempty"`
	Items  []*QuoteItemNode `json:"items"`
}

// ValidItemStatusFilter reports whether f is a recognized listing filter.
func ValidItemStatusFilter(f string) bool {
	switch f {
	case StatusFilterActive, StatusFilterArchived, StatusFilterAll:
		return true
	}
	return false
}

// ValidQuoteStatus reports whether s is a recognized quote status.
func ValidQuoteStatus(s string) bool {
	switch s {
	case QuoteStatusDraft, QuoteStatusSent, QuoteStatusAccepted:
		return true
	}
	return false
}

// ValidPriceType reports whether t is a recognized price entry type.
func ValidPriceType(t string) bool {
	return t == PriceTypePurchase || t == PriceTypeQuotation
}
