package services

import (
	"context"
	"errors"

	"github.com/facturado/billing-api/internal/models"
	"github.com/facturado/billing-api/internal/repository"

	"gorm.io/gorm"
)

// ClientService exposes the client directory to the billing surface. The
// CRM owns clients; billing only needs lookups and a minimal create for
// bootstrapping.
type ClientService struct {
	repo repository.ClientRepository
}

// NewClientService creates a new client service
func NewClientService(repo repository.ClientRepository) *ClientService {
	return &ClientService{repo: repo}
}

// Get returns a client by id
func (s *ClientService) Get(ctx context.Context, id uint) (*models.Client, error) {
	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return client, nil
}

// Create adds a client to the directory
func (s *ClientService) Create(ctx context.Context, client *models.Client) error {
	if client.CompanyName == "" {
		return NewValidationError("company_name", "company name is required")
	}
	return s.repo.Create(ctx, client)
}

// List returns a page of clients
func (s *ClientService) List(ctx context.Context, query *repository.ListQuery) ([]models.Client, int64, error) {
	return s.repo.List(ctx, query)
}
