package store

import (
	"context"
	"database/sql"
	"fmt"

	"quote-service/internal/models"
)

// CreateProduct inserts a new product
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	query := `
		INSERT INTO products (name, description)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, product, query, product.Name, product.Description)
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProducts retrieves all products, most recently updated first
func (s *Store) GetProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products, "SELECT * FROM products ORDER BY updated_at DESC")
	return products, err
}

// UpdateProduct updates product fields
func (s *Store) UpdateProduct(ctx context.Context, product *models.Product) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE products SET name = $1, description = $2, updated_at = NOW() WHERE id = $3",
		product.Name, product.Description, product.ID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("product %d: %w", product.ID, ErrNotFound)
	}
	return nil
}

// DeleteProduct removes a product and its BOM lines
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM product_materials WHERE product_id = $1", id); err != nil {
		return fmt.Errorf("failed to delete product materials: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("product %d: %w", id, ErrNotFound)
	}

	return tx.Commit()
}

// AddProductMaterial inserts a BOM line
func (s *Store) AddProductMaterial(ctx context.Context, material *models.ProductMaterial) error {
	query := `
		INSERT INTO product_materials (product_id, item_id, quantity)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, material, query,
		material.ProductID, material.ItemID, material.Quantity)
}

// GetProductMaterialByID retrieves a BOM line by ID
func (s *Store) GetProductMaterialByID(ctx context.Context, id int64) (*models.ProductMaterial, error) {
	var material models.ProductMaterial
	err := s.db.GetContext(ctx, &material, "SELECT * FROM product_materials WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product material %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &material, nil
}

// UpdateProductMaterialQuantity writes a BOM line quantity
func (s *Store) UpdateProductMaterialQuantity(ctx context.Context, id int64, quantity int) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE product_materials SET quantity = $1 WHERE id = $2", quantity, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("product material %d: %w", id, ErrNotFound)
	}
	return nil
}

// RemoveProductMaterial deletes a BOM line
func (s *Store) RemoveProductMaterial(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM product_materials WHERE id = $1", id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("product material %d: %w", id, ErrNotFound)
	}
	return nil
}

// GetProductMaterials retrieves the BOM lines of a product joined with their
// items, in insertion order. The joined cost price is read fresh so material
// cost always reflects the current catalog, unlike quote snapshots.
func (s *Store) GetProductMaterials(ctx context.Context, productID int64) ([]models.ProductMaterialDetail, error) {
	var materials []models.ProductMaterialDetail
	err := s.db.SelectContext(ctx, &materials, `
		SELECT pm.*, i.name AS item_name, i.cost_price AS item_cost_price
		FROM product_materials pm
		JOIN items i ON i.id = pm.item_id
		WHERE pm.product_id = $1
		ORDER BY pm.id ASC`, productID)
	return materials, err
}
