package store

import (
	"context"
	"database/sql"
	"fmt"

	"quote-service/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// CreateQuote inserts a new quote
func (s *Store) CreateQuote(ctx context.Context, quote *models.Quote) error {
	query := `
		INSERT INTO quotes (client_id, status, date, total_amount)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, quote, query,
		quote.ClientID, quote.Status, quote.Date, quote.TotalAmount)
}

// GetQuoteByID retrieves a quote by ID
func (s *Store) GetQuoteByID(ctx context.Context, id int64) (*models.Quote, error) {
	var quote models.Quote
	err := s.db.GetContext(ctx, &quote, "SELECT * FROM quotes WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("quote %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// GetQuotes retrieves all quotes, newest first
func (s *Store) GetQuotes(ctx context.Context) ([]models.Quote, error) {
	var quotes []models.Quote
	err := s.db.SelectContext(ctx, &quotes, "SELECT * FROM quotes ORDER BY created_at DESC")
	return quotes, err
}

// UpdateQuoteStatus writes the quote status. Transitions are free-form.
func (s *Store) UpdateQuoteStatus(ctx context.Context, id int64, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE quotes SET status = $1, updated_at = NOW() WHERE id = $2", status, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("quote %d: %w", id, ErrNotFound)
	}
	return nil
}

// GetQuoteItems retrieves the live (non-deleted) items of a quote in display order
func (s *Store) GetQuoteItems(ctx context.Context, quoteID int64) ([]models.QuoteItem, error) {
	var items []models.QuoteItem
	err := s.db.SelectContext(ctx, &items, `
		SELECT * FROM quote_items
		WHERE quote_id = $1 AND deleted_at IS NULL
		ORDER BY display_order ASC`, quoteID)
	return items, err
}

// GetQuoteItemByID retrieves a quote item by ID, deleted or not
func (s *Store) GetQuoteItemByID(ctx context.Context, id int64) (*models.QuoteItem, error) {
	var item models.QuoteItem
	err := s.db.GetContext(ctx, &item, "SELECT * FROM quote_items WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("quote item %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// lockQuoteTx takes a row lock on the quote so concurrent mutations of the
// same quote serialize. Also confirms the quote exists.
func lockQuoteTx(ctx context.Context, tx *sqlx.Tx, quoteID int64) error {
	var id int64
	err := tx.GetContext(ctx, &id, "SELECT id FROM quotes WHERE id = $1 FOR UPDATE", quoteID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("quote %d: %w", quoteID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to lock quote: %w", err)
	}
	return nil
}

// recomputeQuoteTotalTx rewrites total_amount as the sum over live items
func recomputeQuoteTotalTx(ctx context.Context, tx *sqlx.Tx, quoteID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := tx.GetContext(ctx, &total, `
		UPDATE quotes
		SET total_amount = COALESCE(
			(SELECT SUM(total) FROM quote_items WHERE quote_id = $1 AND deleted_at IS NULL), 0),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING total_amount`, quoteID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to recompute quote total: %w", err)
	}
	return total, nil
}

// AddQuoteItemTx inserts a quote line and recomputes the quote total in one
// transaction. The display order and the parent's liveness are read under the
// quote row lock, so concurrent adds cannot duplicate positions and a delete
// racing the add cannot leave a live child under a deleted parent.
func (s *Store) AddQuoteItemTx(ctx context.Context, item *models.QuoteItem) (decimal.Decimal, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return decimal.Zero, err
	}
	defer tx.Rollback()

	if err := lockQuoteTx(ctx, tx, item.QuoteID); err != nil {
		return decimal.Zero, err
	}

	if item.ParentID != nil {
		var parent models.QuoteItem
		err := tx.GetContext(ctx, &parent,
			"SELECT * FROM quote_items WHERE id = $1", *item.ParentID)
		if err == sql.ErrNoRows {
			return decimal.Zero, fmt.Errorf("quote item %d: %w", *item.ParentID, ErrNotFound)
		}
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to load parent quote item: %w", err)
		}
		if parent.QuoteID != item.QuoteID || parent.DeletedAt != nil || parent.ParentID != nil {
			return decimal.Zero, fmt.Errorf("quote item %d: %w", *item.ParentID, ErrInvalidParent)
		}
	}

	// Quote-wide max, not per-parent: new lines always append to the end.
	err = tx.GetContext(ctx, &item.DisplayOrder, `
		SELECT COALESCE(MAX(display_order), 0) + 1 FROM quote_items WHERE quote_id = $1`,
		item.QuoteID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to compute display order: %w", err)
	}

	err = tx.GetContext(ctx, item, `
		INSERT INTO quote_items (quote_id, parent_id, item_id, product_id, name, brand, model,
		                         description, quantity, unit_price, total, cost_basis, display_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`,
		item.QuoteID, item.ParentID, item.ItemID, item.ProductID,
		item.Name, item.Brand, item.Model, item.Description,
		item.Quantity, item.UnitPrice, item.Total, item.CostBasis, item.DisplayOrder)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to insert quote item: %w", err)
	}

	total, err := recomputeQuoteTotalTx(ctx, tx, item.QuoteID)
	if err != nil {
		return decimal.Zero, err
	}

	return total, tx.Commit()
}

// UpdateQuoteItemTx writes the merged fields of a live quote line and
// recomputes the quote total in one transaction. A line soft-deleted between
// the caller's read and the row lock reads as not found rather than silently
// resurfacing through an update.
func (s *Store) UpdateQuoteItemTx(ctx context.Context, item *models.QuoteItem) (decimal.Decimal, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return decimal.Zero, err
	}
	defer tx.Rollback()

	if err := lockQuoteTx(ctx, tx, item.QuoteID); err != nil {
		return decimal.Zero, err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE quote_items
		SET name = $1, description = $2, quantity = $3, unit_price = $4, total = $5, updated_at = NOW()
		WHERE id = $6 AND deleted_at IS NULL`,
		item.Name, item.Description, item.Quantity, item.UnitPrice, item.Total, item.ID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to update quote item: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return decimal.Zero, err
	}
	if rows == 0 {
		return decimal.Zero, fmt.Errorf("quote item %d: %w", item.ID, ErrNotFound)
	}

	total, err := recomputeQuoteTotalTx(ctx, tx, item.QuoteID)
	if err != nil {
		return decimal.Zero, err
	}

	return total, tx.Commit()
}

// SoftDeleteQuoteItemTx marks a quote line and its direct children deleted
// and recomputes the quote total, all in one transaction. Returns the ids of
// the cascaded children and the new total.
func (s *Store) SoftDeleteQuoteItemTx(ctx context.Context, quoteID, itemID int64) ([]int64, decimal.Decimal, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, decimal.Zero, err
	}
	defer tx.Rollback()

	if err := lockQuoteTx(ctx, tx, quoteID); err != nil {
		return nil, decimal.Zero, err
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE quote_items SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL",
		itemID)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to soft-delete quote item: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, decimal.Zero, err
	}
	if rows == 0 {
		return nil, decimal.Zero, fmt.Errorf("quote item %d: %w", itemID, ErrNotFound)
	}

	// One level of cascade: the schema only ever nests a single level deep.
	var cascaded []int64
	err = tx.SelectContext(ctx, &cascaded, `
		UPDATE quote_items SET deleted_at = NOW(), updated_at = NOW()
		WHERE parent_id = $1 AND deleted_at IS NULL
		RETURNING id`, itemID)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to cascade soft delete: %w", err)
	}

	total, err := recomputeQuoteTotalTx(ctx, tx, quoteID)
	if err != nil {
		return nil, decimal.Zero, err
	}

	return cascaded, total, tx.Commit()
}

// RecomputeQuoteTotal recomputes and persists the quote total on demand.
// Idempotent: with no intervening mutation it always yields the same value.
func (s *Store) RecomputeQuoteTotal(ctx context.Context, quoteID int64) (decimal.Decimal, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return decimal.Zero, err
	}
	defer tx.Rollback()

	if err := lockQuoteTx(ctx, tx, quoteID); err != nil {
		return decimal.Zero, err
	}

	total, err := recomputeQuoteTotalTx(ctx, tx, quoteID)
	if err != nil {
		return decimal.Zero, err
	}

	return total, tx.Commit()
}
