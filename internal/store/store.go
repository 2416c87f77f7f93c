package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quote-service/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Sentinel errors translated from driver errors so callers never have to
// inspect pq error codes themselves.
var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicate     = errors.New("duplicate record")
	ErrInvalidParent = errors.New("invalid parent quote item")
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// isUniqueViolation reports whether err is a postgres unique constraint error
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// CreateSupplier inserts a new supplier
func (s *Store) CreateSupplier(ctx context.Context, supplier *models.Supplier) error {
	query := `
		INSERT INTO suppliers (name, contact, email, phone, business_number, address)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, supplier, query,
		supplier.Name, supplier.Contact, supplier.Email,
		supplier.Phone, supplier.BusinessNumber, supplier.Address)
}

// GetSupplierByID retrieves a supplier by ID
func (s *Store) GetSupplierByID(ctx context.Context, id int64) (*models.Supplier, error) {
	var supplier models.Supplier
	err := s.db.GetContext(ctx, &supplier, "SELECT * FROM suppliers WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("supplier %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

// GetSuppliers retrieves all suppliers, newest first
func (s *Store) GetSuppliers(ctx context.Context) ([]models.Supplier, error) {
	var suppliers []models.Supplier
	err := s.db.SelectContext(ctx, &suppliers, "SELECT * FROM suppliers ORDER BY created_at DESC")
	return suppliers, err
}

// UpdateSupplier updates supplier fields
func (s *Store) UpdateSupplier(ctx context.Context, supplier *models.Supplier) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE suppliers
		SET name = $1, contact = $2, email = $3, phone = $4, business_number = $5, address = $6, updated_at = NOW()
		WHERE id = $7`,
		supplier.Name, supplier.Contact, supplier.Email,
		supplier.Phone, supplier.BusinessNumber, supplier.Address, supplier.ID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("supplier %d: %w", supplier.ID, ErrNotFound)
	}
	return nil
}

// CountPriceEntriesBySupplier counts ledger entries referencing a supplier
func (s *Store) CountPriceEntriesBySupplier(ctx context.Context, supplierID int64) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM price_entries WHERE supplier_id = $1", supplierID)
	return count, err
}

// DeleteSupplier removes a supplier row
func (s *Store) DeleteSupplier(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM suppliers WHERE id = $1", id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("supplier %d: %w", id, ErrNotFound)
	}
	return nil
}

// CreateClient inserts a new client
func (s *Store) CreateClient(ctx context.Context, client *models.Client) error {
	query := `
		INSERT INTO clients (name, address, email, phone, business_number)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, client, query,
		client.Name, client.Address, client.Email, client.Phone, client.BusinessNumber)
}

// GetClientByID retrieves a client by ID
func (s *Store) GetClientByID(ctx context.Context, id int64) (*models.Client, error) {
	var client models.Client
	err := s.db.GetContext(ctx, &client, "SELECT * FROM clients WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("client %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}

// GetClients retrieves all clients, newest first
func (s *Store) GetClients(ctx context.Context) ([]models.Client, error) {
	var clients []models.Client
	err := s.db.SelectContext(ctx, &clients, "SELECT * FROM clients ORDER BY created_at DESC")
	return clients, err
}

// UpdateClient updates client fields
func (s *Store) UpdateClient(ctx context.Context, client *models.Client) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE clients
		SET name = $1, address = $2, email = $3, phone = $4, business_number = $5, updated_at = NOW()
		WHERE id = $6`,
		client.Name, client.Address, client.Email,
		client.Phone, client.BusinessNumber, client.ID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("client %d: %w", client.ID, ErrNotFound)
	}
	return nil
}

// CountQuotesByClient counts quotes owned by a client
func (s *Store) CountQuotesByClient(ctx context.Context, clientID int64) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM quotes WHERE client_id = $1", clientID)
	return count, err
}

// DeleteClient removes a client row
func (s *Store) DeleteClient(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM clients WHERE id = $1", id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("client %d: %w", id, ErrNotFound)
	}
	return nil
}
