package services

import (
	"context"
	"errors"

	"github.com/facturado/billing-api/internal/models"
	"github.com/facturado/billing-api/internal/repository"
	"github.com/facturado/billing-api/pkg/logger"

	"gorm.io/gorm"
)

// ReconciliationService is the single place that decides an invoice's
// paid-derived status. It is invoked by the receipt ledger after every
// committing write; recomputing with the same receipt set always yields the
// same status.
type ReconciliationService struct {
	txm         repository.TxManager
	invoiceRepo repository.InvoiceRepository
	receiptRepo repository.ReceiptRepository
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(
	txm repository.TxManager,
	invoiceRepo repository.InvoiceRepository,
	receiptRepo repository.ReceiptRepository,
) *ReconciliationService {
	return &ReconciliationService{
		txm:         txm,
		invoiceRepo: invoiceRepo,
		receiptRepo: receiptRepo,
	}
}

// Reconcile recomputes the invoice's paid total and status in its own
// transaction.
func (s *ReconciliationService) Reconcile(ctx context.Context, invoiceID uint) error {
	return s.txm.Do(ctx, func(tx *gorm.DB) error {
		return s.ReconcileInTx(ctx, tx, invoiceID, 0)
	})
}

// ReconcileInTx recomputes the invoice's status inside an existing
// transaction. excludeReceiptID, when non-zero, removes that receipt from the
// aggregate; the delete path uses it so the receipt being removed no longer
// counts. The invoice row is locked for the duration of tx, serializing
// concurrent reconciliations of the same invoice.
func (s *ReconciliationService) ReconcileInTx(ctx context.Context, tx *gorm.DB, invoiceID uint, excludeReceiptID uint) error {
	invoice, err := s.invoiceRepo.FindByIDForUpdate(ctx, tx, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Orphaned reference: a receipt may point at a deleted invoice.
			// Not an error for the receipt operation.
			logger.Warn("reconciliation skipped, invoice not found", "invoice_id", invoiceID)
			return nil
		}
		return err
	}

	totalPaid, err := s.receiptRepo.SumForInvoice(ctx, tx, invoiceID, excludeReceiptID)
	if err != nil {
		return err
	}

	next := DeriveStatus(invoice.Status, totalPaid, invoice.TotalAmount)
	if next == invoice.Status {
		return nil
	}

	logger.Info("invoice status reconciled",
		"invoice_id", invoiceID,
		"invoice_number", invoice.InvoiceNumber,
		"total_paid", totalPaid,
		"total_amount", invoice.TotalAmount,
		"from", invoice.Status,
		"to", next,
	)

	return s.invoiceRepo.UpdateStatus(ctx, tx, invoiceID, next)
}

// DeriveStatus maps a paid total onto an invoice status. Cancellation is
// terminal: a cancelled invoice is never moved by reconciliation. When the
// last receipt goes away, a paid or partially paid invoice reverts to sent,
// never to draft; any other status is left alone.
func DeriveStatus(current string, totalPaid, totalAmount float64) string {
	if current == models.InvoiceStatusCancelled {
		return current
	}

	switch {
	case totalPaid <= 0:
		if current == models.InvoiceStatusPaid || current == models.InvoiceStatusPartiallyPaid {
			return models.InvoiceStatusSent
		}
		return current
	case totalPaid >= totalAmount:
		return models.InvoiceStatusPaid
	default:
		return models.InvoiceStatusPartiallyPaid
	}
}
