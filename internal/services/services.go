package services

import (
	"github.com/facturado/billing-api/internal/config"
	"github.com/facturado/billing-api/internal/jobs"
	"github.com/facturado/billing-api/internal/models"
	"github.com/facturado/billing-api/internal/repository"

	"gorm.io/gorm"
)

// Services holds all service instances
type Services struct {
	Sequence       *SequenceService
	Invoice        *InvoiceService
	Receipt        *ReceiptService
	Payment        *PaymentService
	Reconciliation *ReconciliationService
	Client         *ClientService
	Audit          *AuditService
	Export         *ExportService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, cfg *config.Config, db *gorm.DB) *Services {
	auditSvc := NewAuditService(db)

	sequenceSvc := NewSequenceService(repos.Settings, models.AccountSettings{
		InvoicePrefix:       cfg.InvoicePrefix,
		InvoiceNextNumber:   1,
		ReceiptPrefix:       cfg.ReceiptPrefix,
		ReceiptNextNumber:   1,
		DefaultPaymentTerms: cfg.DefaultPaymentTerms,
		DefaultCurrency:     cfg.DefaultCurrency,
	})

	reconSvc := NewReconciliationService(repos.Tx, repos.Invoice, repos.Receipt)
	paymentSvc := NewPaymentService(repos.Payment, auditSvc)
	invoiceSvc := NewInvoiceService(repos.Tx, repos.Invoice, repos.Client, sequenceSvc, auditSvc)
	receiptSvc := NewReceiptService(repos.Tx, repos.Receipt, sequenceSvc, reconSvc, paymentSvc, auditSvc, worker)

	return &Services{
		Sequence:       sequenceSvc,
		Invoice:        invoiceSvc,
		Receipt:        receiptSvc,
		Payment:        paymentSvc,
		Reconciliation: reconSvc,
		Client:         NewClientService(repos.Client),
		Audit:          auditSvc,
		Export:         NewExportService(repos.Payment),
	}
}
