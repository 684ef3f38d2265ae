package repository

import (
	"context"

	"github.com/facturado/billing-api/internal/models"

	"gorm.io/gorm"
)

// ClientRepository defines the interface for client directory lookups.
// Clients are managed by the CRM; billing only reads them and stores ids.
type ClientRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Client, error)
	Create(ctx context.Context, client *models.Client) error
	List(ctx context.Context, query *ListQuery) ([]models.Client, int64, error)
	Exists(ctx context.Context, id uint) (bool, error)
}

type clientRepository struct {
	db *gorm.DB
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *gorm.DB) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) FindByID(ctx context.Context, id uint) (*models.Client, error) {
	var client models.Client
	err := r.db.WithContext(ctx).First(&client, id).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepository) Create(ctx context.Context, client *models.Client) error {
	return r.db.WithContext(ctx).Create(client).Error
}

func (r *clientRepository) List(ctx context.Context, query *ListQuery) ([]models.Client, int64, error) {
	var clients []models.Client
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Client{})

	if search := query.Filters["search_term"]; search != "" {
		term := "%" + search + "%"
		db = db.Where("company_name ILIKE ? OR primary_email ILIKE ? OR primary_contact_name ILIKE ?", term, term, term)
	}

	countDb := db.Session(&gorm.Session{})
	if err := countDb.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.
		Order("company_name ASC").
		Offset(query.Offset()).
		Limit(query.PerPage).
		Find(&clients).Error

	return clients, total, err
}

func (r *clientRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Client{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}
