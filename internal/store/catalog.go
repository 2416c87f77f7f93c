package store

import (
	"context"
	"database/sql"
	"fmt"

	"quote-service/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// CreateItem inserts a new catalog item. A (brand, model) collision with any
// existing item, archived or not, surfaces as ErrDuplicate.
func (s *Store) CreateItem(ctx context.Context, item *models.Item) error {
	query := `
		INSERT INTO items (name, brand, model, description, category, year, status, sale_price, cost_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := s.db.GetContext(ctx, item, query,
		item.Name, item.Brand, item.Model, item.Description,
		item.Category, item.Year, item.Status, item.SalePrice, item.CostPrice)
	if isUniqueViolation(err) {
		return fmt.Errorf("item %s/%s: %w", item.Brand, item.Model, ErrDuplicate)
	}
	return err
}

// GetItemByID retrieves a catalog item by ID
func (s *Store) GetItemByID(ctx context.Context, id int64) (*models.Item, error) {
	var item models.Item
	err := s.db.GetContext(ctx, &item, "SELECT * FROM items WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetItems retrieves catalog items for the given status filter, most recently
// updated first. StatusFilterAll returns archived items too.
func (s *Store) GetItems(ctx context.Context, statusFilter string) ([]models.Item, error) {
	var items []models.Item
	var err error
	if statusFilter == models.StatusFilterAll {
		err = s.db.SelectContext(ctx, &items,
			"SELECT * FROM items ORDER BY updated_at DESC")
	} else {
		err = s.db.SelectContext(ctx, &items,
			"SELECT * FROM items WHERE status = $1 ORDER BY updated_at DESC", statusFilter)
	}
	return items, err
}

// UpdateItem updates the maintainer-editable fields of an item. The cost
// price is deliberately absent: only the ledger write path touches it.
func (s *Store) UpdateItem(ctx context.Context, item *models.Item) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE items
		SET name = $1, brand = $2, model = $3, description = $4, category = $5,
		    year = $6, sale_price = $7, updated_at = NOW()
		WHERE id = $8`,
		item.Name, item.Brand, item.Model, item.Description,
		item.Category, item.Year, item.SalePrice, item.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("item %s/%s: %w", item.Brand, item.Model, ErrDuplicate)
	}
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("item %d: %w", item.ID, ErrNotFound)
	}
	return nil
}

// SetItemStatus flips an item between ACTIVE and ARCHIVED
func (s *Store) SetItemStatus(ctx context.Context, id int64, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE items SET status = $1, updated_at = NOW() WHERE id = $2", status, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	return nil
}

// applyCostPrice writes the ledger-derived cost price and year. Shared by
// the standalone hook and the in-tx apply so the two can never drift.
func applyCostPrice(ctx context.Context, db sqlx.ExecerContext, itemID int64, price decimal.Decimal, year int) error {
	_, err := db.ExecContext(ctx,
		"UPDATE items SET cost_price = $1, year = $2, updated_at = NOW() WHERE id = $3",
		price, year, itemID)
	return err
}

// ApplyLatestPurchasePrice writes the ledger-derived cost price and year
// outside a ledger append, for rebuilding the cache after a manual backfill.
// Idempotent: re-applying the current values is a no-op update.
func (s *Store) ApplyLatestPurchasePrice(ctx context.Context, itemID int64, price decimal.Decimal, year int) error {
	return applyCostPrice(ctx, s.db, itemID, price, year)
}

// LatestPriceEntry returns the entry with the maximum date for an item,
// optionally filtered by type. Ties on date go to the most recently inserted
// row. Returns nil when the item has no matching entries.
func (s *Store) LatestPriceEntry(ctx context.Context, itemID int64, typeFilter string) (*models.PriceEntry, error) {
	var entry models.PriceEntry
	var err error
	if typeFilter == "" {
		err = s.db.GetContext(ctx, &entry, `
			SELECT * FROM price_entries
			WHERE item_id = $1
			ORDER BY date DESC, id DESC LIMIT 1`, itemID)
	} else {
		err = s.db.GetContext(ctx, &entry, `
			SELECT * FROM price_entries
			WHERE item_id = $1 AND type = $2
			ORDER BY date DESC, id DESC LIMIT 1`, itemID, typeFilter)
	}
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetPriceHistory returns all ledger entries for an item, newest first
func (s *Store) GetPriceHistory(ctx context.Context, itemID int64) ([]models.PriceEntry, error) {
	var entries []models.PriceEntry
	err := s.db.SelectContext(ctx, &entries, `
		SELECT * FROM price_entries
		WHERE item_id = $1
		ORDER BY date DESC, id DESC`, itemID)
	return entries, err
}

// SearchPriceHistory returns ledger entries whose item name, brand or model
// contains the query, joined with item and supplier, newest first.
func (s *Store) SearchPriceHistory(ctx context.Context, query string, limit int) ([]models.PriceEntryDetail, error) {
	var entries []models.PriceEntryDetail
	pattern := "%" + query + "%"
	err := s.db.SelectContext(ctx, &entries, `
		SELECT pe.*, i.name AS item_name, i.brand AS item_brand, i.model AS item_model,
		       s.name AS supplier_name
		FROM price_entries pe
		JOIN items i ON i.id = pe.item_id
		JOIN suppliers s ON s.id = pe.supplier_id
		WHERE i.name ILIKE $1 OR i.brand ILIKE $1 OR i.model ILIKE $1
		ORDER BY pe.date DESC, pe.id DESC
		LIMIT $2`, pattern, limit)
	return entries, err
}

// purchaseApplies decides whether a newly inserted entry becomes the item's
// cost basis. Only PURCHASE entries qualify, and only when no earlier entry
// of any type carries a strictly later date; on equal dates the new insert
// wins because it has the highest id.
func purchaseApplies(entry, latestBefore *models.PriceEntry) bool {
	if entry.Type != models.PriceTypePurchase {
		return false
	}
	if latestBefore == nil {
		return true
	}
	return !latestBefore.Date.After(entry.Date)
}

// RecordPriceTx appends a ledger entry and, when the entry is the new
// latest-by-date PURCHASE record for the item, updates the item's cached
// cost price and year inside the same transaction. Returns whether the cost
// was applied.
func (s *Store) RecordPriceTx(ctx context.Context, entry *models.PriceEntry) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var latestBefore *models.PriceEntry
	var latest models.PriceEntry
	err = tx.GetContext(ctx, &latest, `
		SELECT * FROM price_entries
		WHERE item_id = $1
		ORDER BY date DESC, id DESC LIMIT 1`, entry.ItemID)
	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("failed to load latest entry: %w", err)
	}
	if err == nil {
		latestBefore = &latest
	}

	err = tx.GetContext(ctx, entry, `
		INSERT INTO price_entries (item_id, supplier_id, price, date, type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		entry.ItemID, entry.SupplierID, entry.Price, entry.Date, entry.Type)
	if err != nil {
		return false, fmt.Errorf("failed to insert price entry: %w", err)
	}

	applied := purchaseApplies(entry, latestBefore)
	if applied {
		if err := applyCostPrice(ctx, tx, entry.ItemID, entry.Price, entry.Date.Year()); err != nil {
			return false, fmt.Errorf("failed to apply purchase price: %w", err)
		}
	}

	return applied, tx.Commit()
}
