package service

import (
	"context"

	"quote-service/internal/models"
	"quote-service/internal/util"

	"go.uber.org/zap"
)

// clientStore is the persistence surface for clients
type clientStore interface {
	CreateClient(ctx context.Context, client *models.Client) error
	GetClientByID(ctx context.Context, id int64) (*models.Client, error)
	GetClients(ctx context.Context) ([]models.Client, error)
	UpdateClient(ctx context.Context, client *models.Client) error
	CountQuotesByClient(ctx context.Context, clientID int64) (int64, error)
	DeleteClient(ctx context.Context, id int64) error
}

// ClientService manages the client directory
type ClientService struct {
	store  clientStore
	logger *zap.Logger
}

// NewClientService creates a new client service
func NewClientService(store clientStore) *ClientService {
	return &ClientService{store: store, logger: util.GetLogger()}
}

// ClientRequest carries client contact fields
type ClientRequest struct {
	Name           string `json:"name" binding:"required"`
	Address        string `json:"address"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	BusinessNumber string `json:"business_number"`
}

// CreateClient creates a client
func (s *ClientService) CreateClient(ctx context.Context, req *ClientRequest) (*models.Client, error) {
	if req.Name == "" {
		return nil, validationError("name is required")
	}
	client := &models.Client{
		Name:           req.Name,
		Address:        req.Address,
		Email:          req.Email,
		Phone:          req.Phone,
		BusinessNumber: req.BusinessNumber,
	}
	if err := s.store.CreateClient(ctx, client); err != nil {
		return nil, wrapStoreErr(err, "failed to create client")
	}
	s.logger.Info("Client created", zap.Int64("client_id", client.ID))
	return client, nil
}

// GetClient retrieves a client by ID
func (s *ClientService) GetClient(ctx context.Context, id int64) (*models.Client, error) {
	client, err := s.store.GetClientByID(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err, "client not found")
	}
	return client, nil
}

// ListClients lists all clients, newest first
func (s *ClientService) ListClients(ctx context.Context) ([]models.Client, error) {
	clients, err := s.store.GetClients(ctx)
	if err != nil {
		return nil, wrapStoreErr(err, "failed to list clients")
	}
	return clients, nil
}

// UpdateClient updates client contact fields
func (s *ClientService) UpdateClient(ctx context.Context, id int64, req *ClientRequest) (*models.Client, error) {
	if req.Name == "" {
		return nil, validationError("name is required")
	}
	client, err := s.store.GetClientByID(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err, "client not found")
	}
	client.Name = req.Name
	client.Address = req.Address
	client.Email = req.Email
	client.Phone = req.Phone
	client.BusinessNumber = req.BusinessNumber
	if err := s.store.UpdateClient(ctx, client); err != nil {
		return nil, wrapStoreErr(err, "failed to update client")
	}
	return client, nil
}

// DeleteClient removes a client. A client that owns quotes cannot be
// deleted.
func (s *ClientService) DeleteClient(ctx context.Context, id int64) error {
	count, err := s.store.CountQuotesByClient(ctx, id)
	if err != nil {
		return wrapStoreErr(err, "failed to check client references")
	}
	if count > 0 {
		return conflictError("client %d owns %d quotes", id, count)
	}
	if err := s.store.DeleteClient(ctx, id); err != nil {
		return wrapStoreErr(err, "client not found")
	}
	s.logger.Info("Client deleted", zap.Int64("client_id", id))
	return nil
}
