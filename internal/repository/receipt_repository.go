package repository

import (
	"context"
	"strings"

	"github.com/facturado/billing-api/internal/models"

	"gorm.io/gorm"
)

// ReceiptRepository defines the interface for receipt data access
type ReceiptRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Receipt, error)
	Create(ctx context.Context, tx *gorm.DB, receipt *models.Receipt) error
	Update(ctx context.Context, tx *gorm.DB, receipt *models.Receipt) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	List(ctx context.Context, query *ListQuery) ([]models.Receipt, int64, error)

	// SumForInvoice aggregates amount_received over all receipts linked to
	// the invoice, excluding excludeID when non-zero (the delete path).
	// Runs inside tx so the aggregate is consistent with the status write.
	SumForInvoice(ctx context.Context, tx *gorm.DB, invoiceID uint, excludeID uint) (float64, error)
}

type receiptRepository struct {
	db *gorm.DB
}

// NewReceiptRepository creates a new receipt repository
func NewReceiptRepository(db *gorm.DB) ReceiptRepository {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) FindByID(ctx context.Context, id uint) (*models.Receipt, error) {
	var receipt models.Receipt
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Invoice").
		First(&receipt, id).Error
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *receiptRepository) Create(ctx context.Context, tx *gorm.DB, receipt *models.Receipt) error {
	return tx.WithContext(ctx).Create(receipt).Error
}

func (r *receiptRepository) Update(ctx context.Context, tx *gorm.DB, receipt *models.Receipt) error {
	return tx.WithContext(ctx).Save(receipt).Error
}

func (r *receiptRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	return tx.WithContext(ctx).Delete(&models.Receipt{}, id).Error
}

func (r *receiptRepository) List(ctx context.Context, query *ListQuery) ([]models.Receipt, int64, error) {
	var receipts []models.Receipt
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Receipt{})

	if clientID := query.Filters["client_id"]; clientID != "" {
		db = db.Where("receipts.client_id = ?", clientID)
	}
	if invoiceID := query.Filters["invoice_id"]; invoiceID != "" {
		db = db.Where("receipts.invoice_id = ?", invoiceID)
	}
	if method := query.Filters["payment_method"]; method != "" {
		if strings.Contains(method, ",") {
			db = db.Where("receipts.payment_method IN ?", strings.Split(method, ","))
		} else {
			db = db.Where("receipts.payment_method = ?", method)
		}
	}
	if val := query.Filters["start_date"]; val != "" {
		db = db.Where("receipts.payment_date >= ?", val)
	}
	if val := query.Filters["end_date"]; val != "" {
		db = db.Where("receipts.payment_date <= ?", val)
	}
	if search := query.Filters["search_term"]; search != "" {
		term := "%" + search + "%"
		db = db.Joins("LEFT JOIN clients ON clients.id = receipts.client_id").
			Where("receipts.receipt_number ILIKE ? OR clients.company_name ILIKE ?", term, term)
	}

	countDb := db.Session(&gorm.Session{})
	if err := countDb.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = applySort(db, query, "receipts", map[string]bool{
		"receipt_number": true, "receipt_date": true, "payment_date": true,
		"amount_received": true, "created_at": true,
	}, "receipts.created_at DESC")

	err := db.
		Preload("Client").
		Preload("Invoice").
		Offset(query.Offset()).
		Limit(query.PerPage).
		Find(&receipts).Error

	return receipts, total, err
}

func (r *receiptRepository) SumForInvoice(ctx context.Context, tx *gorm.DB, invoiceID uint, excludeID uint) (float64, error) {
	var result struct {
		Total float64
	}

	db := tx.WithContext(ctx).
		Model(&models.Receipt{}).
		Select("COALESCE(SUM(amount_received), 0) as total").
		Where("invoice_id = ?", invoiceID)
	if excludeID != 0 {
		db = db.Where("id <> ?", excludeID)
	}

	err := db.Scan(&result).Error
	return result.Total, err
}
