package repository

import (
	"context"
	"strings"
	"time"

	"github.com/facturado/billing-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InvoiceRepository defines the interface for invoice data access
type InvoiceRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Invoice, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Invoice, error)
	Create(ctx context.Context, tx *gorm.DB, invoice *models.Invoice) error
	Update(ctx context.Context, invoice *models.Invoice) error
	ReplaceItems(ctx context.Context, tx *gorm.DB, invoice *models.Invoice, items []models.LineItem) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status string) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, query *ListQuery) ([]models.Invoice, int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) FindByID(ctx context.Context, id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Client").
		First(&invoice, id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// FindByIDForUpdate loads the invoice row inside tx holding a row lock so
// concurrent reconciliations of the same invoice serialize. Items are loaded
// separately; the lock only needs the invoice row.
func (r *invoiceRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&invoice, id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) Create(ctx context.Context, tx *gorm.DB, invoice *models.Invoice) error {
	return tx.WithContext(ctx).Create(invoice).Error
}

// Update saves an edited invoice. Status is omitted from the write: it is
// derived by reconciliation and only ever changes through UpdateStatus, so a
// stale in-memory copy must not overwrite a concurrent status transition.
func (r *invoiceRepository) Update(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: false}).
		Omit("status").
		Save(invoice).Error
}

// ReplaceItems swaps an invoice's line items for a new set inside tx,
// then saves the invoice's recomputed totals. Status stays untouched for the
// same reason as in Update.
func (r *invoiceRepository) ReplaceItems(ctx context.Context, tx *gorm.DB, invoice *models.Invoice, items []models.LineItem) error {
	db := tx.WithContext(ctx)
	if err := db.Where("invoice_id = ?", invoice.ID).Delete(&models.LineItem{}).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].ID = 0
		items[i].InvoiceID = invoice.ID
	}
	if len(items) > 0 {
		if err := db.Create(&items).Error; err != nil {
			return err
		}
	}
	invoice.Items = items
	return db.Omit("status").Save(invoice).Error
}

func (r *invoiceRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status string) error {
	return tx.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *invoiceRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Select("Items").Delete(&models.Invoice{ID: id}).Error
}

func (r *invoiceRepository) List(ctx context.Context, query *ListQuery) ([]models.Invoice, int64, error) {
	var invoices []models.Invoice
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Invoice{})

	// Apply status filter (single value or comma-separated list)
	if statusFilter := query.Filters["status"]; statusFilter != "" {
		if strings.Contains(statusFilter, ",") {
			db = db.Where("invoices.status IN ?", strings.Split(statusFilter, ","))
		} else {
			db = db.Where("invoices.status = ?", statusFilter)
		}
	}

	if clientID := query.Filters["client_id"]; clientID != "" {
		db = db.Where("invoices.client_id = ?", clientID)
	}

	// Apply date filters on invoice date
	if val := query.Filters["start_date"]; val != "" {
		db = db.Where("invoices.invoice_date >= ?", val)
	}
	if val := query.Filters["end_date"]; val != "" {
		db = db.Where("invoices.invoice_date <= ?", val)
	}

	// Search by invoice number or client company name
	if search := query.Filters["search_term"]; search != "" {
		term := "%" + search + "%"
		db = db.Joins("LEFT JOIN clients ON clients.id = invoices.client_id").
			Where("invoices.invoice_number ILIKE ? OR clients.company_name ILIKE ?", term, term)
	}

	// Clone the session for count to avoid affecting the main query
	countDb := db.Session(&gorm.Session{})
	if err := countDb.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = applySort(db, query, "invoices", map[string]bool{
		"invoice_number": true, "invoice_date": true, "due_date": true,
		"total_amount": true, "status": true, "created_at": true,
	}, "invoices.created_at DESC")

	err := db.
		Preload("Items").
		Preload("Client").
		Offset(query.Offset()).
		Limit(query.PerPage).
		Find(&invoices).Error

	return invoices, total, err
}

func (r *invoiceRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// MarkOverdue flips sent invoices past their due date to overdue and returns
// how many rows changed. Reconciliation-derived statuses are untouched.
func (r *invoiceRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("status = ? AND due_date < ?", models.InvoiceStatusSent, asOf).
		Update("status", models.InvoiceStatusOverdue)
	return result.RowsAffected, result.Error
}

// applySort orders db by the requested column when it is in the allowed set,
// falling back to defaultOrder.
func applySort(db *gorm.DB, query *ListQuery, table string, allowed map[string]bool, defaultOrder string) *gorm.DB {
	if query.SortBy != "" && allowed[query.SortBy] {
		dir := "ASC"
		if strings.EqualFold(query.SortDir, "desc") {
			dir = "DESC"
		}
		return db.Order(table + "." + query.SortBy + " " + dir)
	}
	return db.Order(defaultOrder)
}
