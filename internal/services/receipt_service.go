package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/facturado/billing-api/internal/jobs"
	"github.com/facturado/billing-api/internal/models"
	"github.com/facturado/billing-api/internal/repository"
	"github.com/facturado/billing-api/pkg/logger"

	"gorm.io/gorm"
)

// CreateReceiptInput carries the fields accepted on receipt creation
type CreateReceiptInput struct {
	ClientID       uint       `json:"client_id"`
	InvoiceID      *uint      `json:"invoice_id"`
	ReceiptDate    *time.Time `json:"receipt_date"`
	PaymentDate    *time.Time `json:"payment_date"`
	PaymentMethod  string     `json:"payment_method"`
	AmountReceived float64    `json:"amount_received"`
	Currency       string     `json:"currency"`
	ExchangeRate   *float64   `json:"exchange_rate"`
	BankName       *string    `json:"bank_name"`
	ChequeNumber   *string    `json:"cheque_number"`
	Notes          *string    `json:"notes"`
}

// UpdateReceiptInput carries a partial receipt update. Nil fields are left
// unchanged. Relinking to a different invoice reconciles both the old and
// the new invoice.
type UpdateReceiptInput struct {
	InvoiceID      *uint      `json:"invoice_id"`
	ReceiptDate    *time.Time `json:"receipt_date"`
	PaymentDate    *time.Time `json:"payment_date"`
	PaymentMethod  *string    `json:"payment_method"`
	AmountReceived *float64   `json:"amount_received"`
	Currency       *string    `json:"currency"`
	ExchangeRate   *float64   `json:"exchange_rate"`
	BankName       *string    `json:"bank_name"`
	ChequeNumber   *string    `json:"cheque_number"`
	Notes          *string    `json:"notes"`
}

// ReceiptService records money received and drives invoice reconciliation.
// Receipts are the ledger of record for invoice payment state; every
// committing write re-derives the linked invoice's status.
type ReceiptService struct {
	txm         repository.TxManager
	repo        repository.ReceiptRepository
	sequenceSvc *SequenceService
	reconSvc    *ReconciliationService
	paymentSvc  *PaymentService
	auditSvc    *AuditService
	worker      *jobs.Worker
}

// NewReceiptService creates a new receipt service
func NewReceiptService(
	txm repository.TxManager,
	repo repository.ReceiptRepository,
	sequenceSvc *SequenceService,
	reconSvc *ReconciliationService,
	paymentSvc *PaymentService,
	auditSvc *AuditService,
	worker *jobs.Worker,
) *ReceiptService {
	return &ReceiptService{
		txm:         txm,
		repo:        repo,
		sequenceSvc: sequenceSvc,
		reconSvc:    reconSvc,
		paymentSvc:  paymentSvc,
		auditSvc:    auditSvc,
		worker:      worker,
	}
}

// Create validates the input, allocates the next receipt number, persists
// the receipt and reconciles the linked invoice, all in one transaction. The
// cash-flow payment record is appended asynchronously afterwards; the two
// writes are deliberately independent (receipts drive invoice status,
// payments only feed reporting).
func (s *ReceiptService) Create(ctx context.Context, input *CreateReceiptInput, actor, ip, userAgent string) (*models.Receipt, error) {
	if input.ClientID == 0 {
		return nil, NewValidationError("client_id", "client is required")
	}
	if !models.ValidPaymentMethod(input.PaymentMethod) {
		return nil, NewValidationError("payment_method", fmt.Sprintf("unknown payment method %q", input.PaymentMethod))
	}
	if input.AmountReceived <= 0 {
		return nil, NewValidationError("amount_received", "amount received must be greater than zero")
	}

	now := time.Now()
	receiptDate := now
	if input.ReceiptDate != nil {
		receiptDate = *input.ReceiptDate
	}
	paymentDate := now
	if input.PaymentDate != nil {
		paymentDate = *input.PaymentDate
	}
	currency := input.Currency
	if currency == "" {
		settings, err := s.sequenceSvc.Settings(ctx)
		if err != nil {
			return nil, err
		}
		currency = settings.DefaultCurrency
	}

	receipt := &models.Receipt{
		ClientID:       input.ClientID,
		InvoiceID:      input.InvoiceID,
		ReceiptDate:    receiptDate,
		PaymentDate:    paymentDate,
		PaymentMethod:  input.PaymentMethod,
		AmountReceived: input.AmountReceived,
		Currency:       currency,
		ExchangeRate:   input.ExchangeRate,
		BankName:       input.BankName,
		ChequeNumber:   input.ChequeNumber,
		Notes:          input.Notes,
		CreatedBy:      actor,
	}

	err := s.txm.Do(ctx, func(tx *gorm.DB) error {
		number, err := s.sequenceSvc.Allocate(ctx, tx, models.SeriesReceipt)
		if err != nil {
			return err
		}
		receipt.ReceiptNumber = number

		if err := s.repo.Create(ctx, tx, receipt); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: duplicate receipt number %s", ErrAllocation, number)
			}
			return err
		}

		if receipt.InvoiceID != nil {
			return s.reconSvc.ReconcileInTx(ctx, tx, *receipt.InvoiceID, 0)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Mirror into the cash-flow payment log. Fire-and-forget: momentary
	// inconsistency between the two ledgers is an accepted trade-off.
	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.paymentSvc.RecordFromReceipt(ctx, receipt)
	})

	s.auditSvc.Log(ctx, actor, "CREATE", "Receipt", receipt.ID,
		fmt.Sprintf("Receipt %s recorded, %.2f %s received from client #%d", receipt.ReceiptNumber, receipt.AmountReceived, receipt.Currency, receipt.ClientID), ip, userAgent)

	return receipt, nil
}

// Update applies a partial update and re-reconciles the affected invoice(s)
// when the amount, payment date or linkage changed.
func (s *ReceiptService) Update(ctx context.Context, id uint, input *UpdateReceiptInput, actor, ip, userAgent string) (*models.Receipt, error) {
	receipt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	oldInvoiceID := receipt.InvoiceID
	needsReconcile := false

	if input.AmountReceived != nil {
		if *input.AmountReceived <= 0 {
			return nil, NewValidationError("amount_received", "amount received must be greater than zero")
		}
		if *input.AmountReceived != receipt.AmountReceived {
			needsReconcile = true
		}
		receipt.AmountReceived = *input.AmountReceived
	}
	if input.PaymentMethod != nil {
		if !models.ValidPaymentMethod(*input.PaymentMethod) {
			return nil, NewValidationError("payment_method", fmt.Sprintf("unknown payment method %q", *input.PaymentMethod))
		}
		receipt.PaymentMethod = *input.PaymentMethod
	}
	if input.InvoiceID != nil {
		if oldInvoiceID == nil || *input.InvoiceID != *oldInvoiceID {
			needsReconcile = true
		}
		receipt.InvoiceID = input.InvoiceID
	}
	if input.ReceiptDate != nil {
		receipt.ReceiptDate = *input.ReceiptDate
	}
	if input.PaymentDate != nil {
		if !input.PaymentDate.Equal(receipt.PaymentDate) {
			needsReconcile = true
		}
		receipt.PaymentDate = *input.PaymentDate
	}
	if input.Currency != nil {
		receipt.Currency = *input.Currency
	}
	if input.ExchangeRate != nil {
		receipt.ExchangeRate = input.ExchangeRate
	}
	if input.BankName != nil {
		receipt.BankName = input.BankName
	}
	if input.ChequeNumber != nil {
		receipt.ChequeNumber = input.ChequeNumber
	}
	if input.Notes != nil {
		receipt.Notes = input.Notes
	}

	// Preloaded associations must not be written back with stale data.
	receipt.Invoice = nil
	receipt.Client = models.Client{}

	err = s.txm.Do(ctx, func(tx *gorm.DB) error {
		if err := s.repo.Update(ctx, tx, receipt); err != nil {
			return err
		}
		if !needsReconcile {
			return nil
		}
		// Relinking moves paid amounts between invoices: both sides get
		// re-derived in the same transaction.
		if oldInvoiceID != nil && (receipt.InvoiceID == nil || *receipt.InvoiceID != *oldInvoiceID) {
			if err := s.reconSvc.ReconcileInTx(ctx, tx, *oldInvoiceID, 0); err != nil {
				return err
			}
		}
		if receipt.InvoiceID != nil {
			return s.reconSvc.ReconcileInTx(ctx, tx, *receipt.InvoiceID, 0)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actor, "UPDATE", "Receipt", receipt.ID,
		fmt.Sprintf("Receipt %s updated", receipt.ReceiptNumber), ip, userAgent)

	return receipt, nil
}

// Delete removes a receipt. The linked invoice is reconciled with the
// deleted receipt excluded from the aggregate, in the same transaction as
// the delete.
func (s *ReceiptService) Delete(ctx context.Context, id uint, actor, ip, userAgent string) error {
	receipt, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	err = s.txm.Do(ctx, func(tx *gorm.DB) error {
		if receipt.InvoiceID != nil {
			if err := s.reconSvc.ReconcileInTx(ctx, tx, *receipt.InvoiceID, receipt.ID); err != nil {
				return err
			}
		}
		return s.repo.Delete(ctx, tx, receipt.ID)
	})
	if err != nil {
		return err
	}

	logger.Info("receipt deleted", "receipt_id", receipt.ID, "receipt_number", receipt.ReceiptNumber)

	s.auditSvc.Log(ctx, actor, "DELETE", "Receipt", receipt.ID,
		fmt.Sprintf("Receipt %s deleted", receipt.ReceiptNumber), ip, userAgent)

	return nil
}

// Get returns a receipt by id
func (s *ReceiptService) Get(ctx context.Context, id uint) (*models.Receipt, error) {
	receipt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return receipt, nil
}

// List returns a page of receipts
func (s *ReceiptService) List(ctx context.Context, query *repository.ListQuery) ([]models.Receipt, int64, error) {
	return s.repo.List(ctx, query)
}
