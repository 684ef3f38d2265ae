package repository

import (
	"context"
	"strings"

	"github.com/facturado/billing-api/internal/models"

	"gorm.io/gorm"
)

// PaymentRepository defines the interface for payment record data access.
// Payments are append-only; there is no update or delete.
type PaymentRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Payment, error)
	Create(ctx context.Context, payment *models.Payment) error
	List(ctx context.Context, query *ListQuery) ([]models.Payment, int64, error)
	FindCompletedByMonth(ctx context.Context, month, year int) ([]models.Payment, error)
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) FindByID(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Preload("Client").
		First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepository) List(ctx context.Context, query *ListQuery) ([]models.Payment, int64, error) {
	var payments []models.Payment
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Payment{})

	if statusFilter := query.Filters["status"]; statusFilter != "" {
		if strings.Contains(statusFilter, ",") {
			db = db.Where("payments.status IN ?", strings.Split(statusFilter, ","))
		} else {
			db = db.Where("payments.status = ?", statusFilter)
		}
	}
	if clientID := query.Filters["client_id"]; clientID != "" {
		db = db.Where("payments.client_id = ?", clientID)
	}
	if invoiceID := query.Filters["invoice_id"]; invoiceID != "" {
		db = db.Where("payments.invoice_id = ?", invoiceID)
	}
	if method := query.Filters["payment_method"]; method != "" {
		db = db.Where("payments.payment_method = ?", method)
	}
	if val := query.Filters["start_date"]; val != "" {
		db = db.Where("payments.payment_date >= ?", val)
	}
	if val := query.Filters["end_date"]; val != "" {
		db = db.Where("payments.payment_date <= ?", val)
	}

	countDb := db.Session(&gorm.Session{})
	if err := countDb.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = applySort(db, query, "payments", map[string]bool{
		"payment_date": true, "amount_paid": true, "status": true, "created_at": true,
	}, "payments.payment_date DESC, payments.created_at DESC")

	err := db.
		Preload("Client").
		Offset(query.Offset()).
		Limit(query.PerPage).
		Find(&payments).Error

	return payments, total, err
}

func (r *paymentRepository) FindCompletedByMonth(ctx context.Context, month, year int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("status = ?", models.PaymentStatusCompleted).
		Where("EXTRACT(MONTH FROM payment_date) = ? AND EXTRACT(YEAR FROM payment_date) = ?", month, year).
		Order("payment_date ASC").
		Find(&payments).Error
	return payments, err
}
