package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/facturado/billing-api/internal/models"
	"github.com/facturado/billing-api/internal/repository"
)

// mockTxManager runs the callback without a real transaction. Repository
// mocks ignore the tx argument, so passing nil is fine.
type mockTxManager struct{}

func (m *mockTxManager) Do(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

// mockSettingsRepo keeps the settings singleton in memory and mimics the
// lazy-create behavior of the real repository.
type mockSettingsRepo struct {
	settings *models.AccountSettings
	getErr   error
	saveErr  error
}

func (m *mockSettingsRepo) Get(ctx context.Context, defaults models.AccountSettings) (*models.AccountSettings, error) {
	return m.fetch(defaults)
}

func (m *mockSettingsRepo) GetForUpdate(ctx context.Context, tx *gorm.DB, defaults models.AccountSettings) (*models.AccountSettings, error) {
	return m.fetch(defaults)
}

func (m *mockSettingsRepo) fetch(defaults models.AccountSettings) (*models.AccountSettings, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.settings == nil {
		s := defaults
		s.ID = 1
		m.settings = &s
	}
	copied := *m.settings
	return &copied, nil
}

func (m *mockSettingsRepo) Save(ctx context.Context, tx *gorm.DB, settings *models.AccountSettings) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	copied := *settings
	m.settings = &copied
	return nil
}

type mockInvoiceRepo struct {
	repository.InvoiceRepository
	mockFindByID          func(ctx context.Context, id uint) (*models.Invoice, error)
	mockFindByIDForUpdate func(ctx context.Context, tx *gorm.DB, id uint) (*models.Invoice, error)
	mockCreate            func(ctx context.Context, tx *gorm.DB, invoice *models.Invoice) error
	mockUpdate            func(ctx context.Context, invoice *models.Invoice) error
	mockReplaceItems      func(ctx context.Context, tx *gorm.DB, invoice *models.Invoice, items []models.LineItem) error
	mockUpdateStatus      func(ctx context.Context, tx *gorm.DB, id uint, status string) error
	mockDelete            func(ctx context.Context, id uint) error
	mockCountByStatus     func(ctx context.Context) (map[string]int64, error)
	mockMarkOverdue       func(ctx context.Context, asOf time.Time) (int64, error)
}

func (m *mockInvoiceRepo) FindByID(ctx context.Context, id uint) (*models.Invoice, error) {
	return m.mockFindByID(ctx, id)
}

func (m *mockInvoiceRepo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Invoice, error) {
	return m.mockFindByIDForUpdate(ctx, tx, id)
}

func (m *mockInvoiceRepo) Create(ctx context.Context, tx *gorm.DB, invoice *models.Invoice) error {
	return m.mockCreate(ctx, tx, invoice)
}

func (m *mockInvoiceRepo) Update(ctx context.Context, invoice *models.Invoice) error {
	return m.mockUpdate(ctx, invoice)
}

func (m *mockInvoiceRepo) ReplaceItems(ctx context.Context, tx *gorm.DB, invoice *models.Invoice, items []models.LineItem) error {
	return m.mockReplaceItems(ctx, tx, invoice, items)
}

func (m *mockInvoiceRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status string) error {
	return m.mockUpdateStatus(ctx, tx, id, status)
}

func (m *mockInvoiceRepo) Delete(ctx context.Context, id uint) error {
	return m.mockDelete(ctx, id)
}

func (m *mockInvoiceRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return m.mockCountByStatus(ctx)
}

func (m *mockInvoiceRepo) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	return m.mockMarkOverdue(ctx, asOf)
}

type mockReceiptRepo struct {
	repository.ReceiptRepository
	mockFindByID      func(ctx context.Context, id uint) (*models.Receipt, error)
	mockCreate        func(ctx context.Context, tx *gorm.DB, receipt *models.Receipt) error
	mockUpdate        func(ctx context.Context, tx *gorm.DB, receipt *models.Receipt) error
	mockDelete        func(ctx context.Context, tx *gorm.DB, id uint) error
	mockSumForInvoice func(ctx context.Context, tx *gorm.DB, invoiceID uint, excludeID uint) (float64, error)
}

func (m *mockReceiptRepo) FindByID(ctx context.Context, id uint) (*models.Receipt, error) {
	return m.mockFindByID(ctx, id)
}

func (m *mockReceiptRepo) Create(ctx context.Context, tx *gorm.DB, receipt *models.Receipt) error {
	return m.mockCreate(ctx, tx, receipt)
}

func (m *mockReceiptRepo) Update(ctx context.Context, tx *gorm.DB, receipt *models.Receipt) error {
	return m.mockUpdate(ctx, tx, receipt)
}

func (m *mockReceiptRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	return m.mockDelete(ctx, tx, id)
}

func (m *mockReceiptRepo) SumForInvoice(ctx context.Context, tx *gorm.DB, invoiceID uint, excludeID uint) (float64, error) {
	return m.mockSumForInvoice(ctx, tx, invoiceID, excludeID)
}

type mockPaymentRepo struct {
	repository.PaymentRepository
	mockCreate               func(ctx context.Context, payment *models.Payment) error
	mockFindCompletedByMonth func(ctx context.Context, month, year int) ([]models.Payment, error)
}

func (m *mockPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	return m.mockCreate(ctx, payment)
}

func (m *mockPaymentRepo) FindCompletedByMonth(ctx context.Context, month, year int) ([]models.Payment, error) {
	return m.mockFindCompletedByMonth(ctx, month, year)
}

type mockClientRepo struct {
	repository.ClientRepository
	mockFindByID func(ctx context.Context, id uint) (*models.Client, error)
}

func (m *mockClientRepo) FindByID(ctx context.Context, id uint) (*models.Client, error) {
	return m.mockFindByID(ctx, id)
}

func defaultSettings() models.AccountSettings {
	return models.AccountSettings{
		InvoicePrefix:       "INV",
		InvoiceNextNumber:   1,
		ReceiptPrefix:       "RCP",
		ReceiptNextNumber:   1,
		DefaultPaymentTerms: "net_30",
		DefaultCurrency:     "USD",
	}
}
