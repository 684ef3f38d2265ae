package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/facturado/billing-api/internal/jobs"
	"github.com/facturado/billing-api/internal/models"
)

type receiptFixture struct {
	svc         *ReceiptService
	receiptRepo *mockReceiptRepo
	invoiceRepo *mockInvoiceRepo
	worker      *jobs.Worker
	mirrored    chan *models.Payment
	transitions *[]string
}

// newReceiptFixture wires a receipt service against an in-memory invoice so
// reconciliation effects are observable. totalPaid is what the receipt sum
// reports after the operation under test.
func newReceiptFixture(t *testing.T, invoice *models.Invoice, totalPaid *float64) *receiptFixture {
	t.Helper()

	var transitions []string
	invoiceRepo := &mockInvoiceRepo{
		mockFindByIDForUpdate: func(ctx context.Context, tx *gorm.DB, id uint) (*models.Invoice, error) {
			if invoice == nil || invoice.ID != id {
				return nil, gorm.ErrRecordNotFound
			}
			return invoice, nil
		},
		mockUpdateStatus: func(ctx context.Context, tx *gorm.DB, id uint, status string) error {
			transitions = append(transitions, status)
			invoice.Status = status
			return nil
		},
	}

	receiptRepo := &mockReceiptRepo{
		mockCreate: func(ctx context.Context, tx *gorm.DB, receipt *models.Receipt) error {
			receipt.ID = 100
			return nil
		},
		mockUpdate: func(ctx context.Context, tx *gorm.DB, receipt *models.Receipt) error {
			return nil
		},
		mockDelete: func(ctx context.Context, tx *gorm.DB, id uint) error {
			return nil
		},
		mockSumForInvoice: func(ctx context.Context, tx *gorm.DB, invoiceID uint, excludeID uint) (float64, error) {
			return *totalPaid, nil
		},
	}

	mirrored := make(chan *models.Payment, 1)
	paymentRepo := &mockPaymentRepo{
		mockCreate: func(ctx context.Context, payment *models.Payment) error {
			mirrored <- payment
			return nil
		},
	}

	txm := &mockTxManager{}
	sequenceSvc := NewSequenceService(&mockSettingsRepo{}, defaultSettings())
	auditSvc := NewAuditService(nil)
	reconSvc := NewReconciliationService(txm, invoiceRepo, receiptRepo)
	paymentSvc := NewPaymentService(paymentRepo, auditSvc)

	worker := jobs.NewWorker(1)
	t.Cleanup(worker.Shutdown)

	svc := NewReceiptService(txm, receiptRepo, sequenceSvc, reconSvc, paymentSvc, auditSvc, worker)
	return &receiptFixture{
		svc:         svc,
		receiptRepo: receiptRepo,
		invoiceRepo: invoiceRepo,
		worker:      worker,
		mirrored:    mirrored,
		transitions: &transitions,
	}
}

func TestReceiptService_Create_ReconcilesLinkedInvoice(t *testing.T) {
	invoice := &models.Invoice{ID: 5, Status: models.InvoiceStatusSent, TotalAmount: 1000}
	totalPaid := 400.0
	f := newReceiptFixture(t, invoice, &totalPaid)

	invoiceID := uint(5)
	receipt, err := f.svc.Create(context.Background(), &CreateReceiptInput{
		ClientID:       10,
		InvoiceID:      &invoiceID,
		PaymentMethod:  models.PaymentMethodBankTransfer,
		AmountReceived: 400,
	}, "bob@example.com", "127.0.0.1", "test")
	require.NoError(t, err)

	assert.Equal(t, "RCP-0001", receipt.ReceiptNumber)
	assert.Equal(t, []string{models.InvoiceStatusPartiallyPaid}, *f.transitions)
	assert.Equal(t, "USD", receipt.Currency)
	assert.Equal(t, "bob@example.com", receipt.CreatedBy)
}

func TestReceiptService_Create_ExactAmountMarksPaid(t *testing.T) {
	invoice := &models.Invoice{ID: 5, Status: models.InvoiceStatusPartiallyPaid, TotalAmount: 1000}
	totalPaid := 1000.0
	f := newReceiptFixture(t, invoice, &totalPaid)

	invoiceID := uint(5)
	_, err := f.svc.Create(context.Background(), &CreateReceiptInput{
		ClientID:       10,
		InvoiceID:      &invoiceID,
		PaymentMethod:  models.PaymentMethodCash,
		AmountReceived: 600,
	}, "bob", "", "")
	require.NoError(t, err)

	assert.Equal(t, []string{models.InvoiceStatusPaid}, *f.transitions)
}

func TestReceiptService_Create_UnlinkedSkipsReconciliation(t *testing.T) {
	totalPaid := 0.0
	f := newReceiptFixture(t, nil, &totalPaid)

	receipt, err := f.svc.Create(context.Background(), &CreateReceiptInput{
		ClientID:       10,
		PaymentMethod:  models.PaymentMethodCash,
		AmountReceived: 250,
	}, "bob", "", "")
	require.NoError(t, err)

	assert.Nil(t, receipt.InvoiceID)
	assert.Empty(t, *f.transitions)
}

func TestReceiptService_Create_MirrorsIntoPaymentLog(t *testing.T) {
	totalPaid := 0.0
	f := newReceiptFixture(t, nil, &totalPaid)

	receipt, err := f.svc.Create(context.Background(), &CreateReceiptInput{
		ClientID:       10,
		PaymentMethod:  models.PaymentMethodCheque,
		AmountReceived: 250,
	}, "bob", "", "")
	require.NoError(t, err)

	select {
	case payment := <-f.mirrored:
		assert.Equal(t, receipt.AmountReceived, payment.AmountPaid)
		assert.Equal(t, receipt.ClientID, payment.ClientID)
		assert.Equal(t, models.PaymentStatusCompleted, payment.Status)
		require.NotNil(t, payment.ReceiptID)
		assert.Equal(t, receipt.ID, *payment.ReceiptID)
	case <-time.After(2 * time.Second):
		t.Fatal("payment mirror was never written")
	}
}

func TestReceiptService_Create_Validation(t *testing.T) {
	totalPaid := 0.0
	f := newReceiptFixture(t, nil, &totalPaid)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, &CreateReceiptInput{
		PaymentMethod: models.PaymentMethodCash, AmountReceived: 10,
	}, "bob", "", "")
	assert.True(t, IsValidationError(err))

	_, err = f.svc.Create(ctx, &CreateReceiptInput{
		ClientID: 1, PaymentMethod: "crypto", AmountReceived: 10,
	}, "bob", "", "")
	assert.True(t, IsValidationError(err))

	_, err = f.svc.Create(ctx, &CreateReceiptInput{
		ClientID: 1, PaymentMethod: models.PaymentMethodCash, AmountReceived: 0,
	}, "bob", "", "")
	assert.True(t, IsValidationError(err))
}

func TestReceiptService_Delete_ExcludesReceiptFromAggregate(t *testing.T) {
	invoice := &models.Invoice{ID: 5, Status: models.InvoiceStatusPaid, TotalAmount: 1000}
	totalPaid := 0.0
	f := newReceiptFixture(t, invoice, &totalPaid)

	invoiceID := uint(5)
	var excludedID uint
	f.receiptRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Receipt, error) {
		return &models.Receipt{ID: id, ClientID: 10, InvoiceID: &invoiceID, AmountReceived: 1000}, nil
	}
	f.receiptRepo.mockSumForInvoice = func(ctx context.Context, tx *gorm.DB, invID uint, excludeID uint) (float64, error) {
		excludedID = excludeID
		return 0, nil
	}

	require.NoError(t, f.svc.Delete(context.Background(), 77, "bob", "", ""))

	// The deleted receipt must not count toward the new status
	assert.Equal(t, uint(77), excludedID)
	assert.Equal(t, []string{models.InvoiceStatusSent}, *f.transitions)
}

func TestReceiptService_Update_RelinkReconcilesBothInvoices(t *testing.T) {
	oldInvoice := &models.Invoice{ID: 5, Status: models.InvoiceStatusPaid, TotalAmount: 500}
	totalPaid := 0.0
	f := newReceiptFixture(t, oldInvoice, &totalPaid)

	newInvoice := &models.Invoice{ID: 6, Status: models.InvoiceStatusSent, TotalAmount: 500}
	f.invoiceRepo.mockFindByIDForUpdate = func(ctx context.Context, tx *gorm.DB, id uint) (*models.Invoice, error) {
		switch id {
		case 5:
			return oldInvoice, nil
		case 6:
			return newInvoice, nil
		}
		return nil, gorm.ErrRecordNotFound
	}
	f.invoiceRepo.mockUpdateStatus = func(ctx context.Context, tx *gorm.DB, id uint, status string) error {
		if id == 5 {
			oldInvoice.Status = status
		} else {
			newInvoice.Status = status
		}
		return nil
	}
	f.receiptRepo.mockSumForInvoice = func(ctx context.Context, tx *gorm.DB, invID uint, excludeID uint) (float64, error) {
		// The receipt now belongs to invoice 6 only
		if invID == 6 {
			return 500, nil
		}
		return 0, nil
	}

	oldID := uint(5)
	f.receiptRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Receipt, error) {
		return &models.Receipt{ID: id, ClientID: 10, InvoiceID: &oldID, AmountReceived: 500,
			PaymentMethod: models.PaymentMethodCash, Currency: "USD"}, nil
	}

	newID := uint(6)
	_, err := f.svc.Update(context.Background(), 77, &UpdateReceiptInput{InvoiceID: &newID}, "bob", "", "")
	require.NoError(t, err)

	assert.Equal(t, models.InvoiceStatusSent, oldInvoice.Status)
	assert.Equal(t, models.InvoiceStatusPaid, newInvoice.Status)
}

func TestReceiptService_Update_AmountChangeReconciles(t *testing.T) {
	invoice := &models.Invoice{ID: 5, Status: models.InvoiceStatusPartiallyPaid, TotalAmount: 1000}
	totalPaid := 1000.0
	f := newReceiptFixture(t, invoice, &totalPaid)

	invoiceID := uint(5)
	f.receiptRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Receipt, error) {
		return &models.Receipt{ID: id, ClientID: 10, InvoiceID: &invoiceID, AmountReceived: 400,
			PaymentMethod: models.PaymentMethodCash, Currency: "USD"}, nil
	}

	amount := 1000.0
	_, err := f.svc.Update(context.Background(), 77, &UpdateReceiptInput{AmountReceived: &amount}, "bob", "", "")
	require.NoError(t, err)

	assert.Equal(t, []string{models.InvoiceStatusPaid}, *f.transitions)
}

func TestReceiptService_Update_NoFinancialChangeSkipsReconcile(t *testing.T) {
	invoice := &models.Invoice{ID: 5, Status: models.InvoiceStatusPartiallyPaid, TotalAmount: 1000}
	totalPaid := 400.0
	f := newReceiptFixture(t, invoice, &totalPaid)

	invoiceID := uint(5)
	f.receiptRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Receipt, error) {
		return &models.Receipt{ID: id, ClientID: 10, InvoiceID: &invoiceID, AmountReceived: 400,
			PaymentMethod: models.PaymentMethodCash, Currency: "USD"}, nil
	}

	sumCalls := 0
	f.receiptRepo.mockSumForInvoice = func(ctx context.Context, tx *gorm.DB, invID uint, excludeID uint) (float64, error) {
		sumCalls++
		return totalPaid, nil
	}

	bank := "First National"
	_, err := f.svc.Update(context.Background(), 77, &UpdateReceiptInput{BankName: &bank}, "bob", "", "")
	require.NoError(t, err)
	assert.Zero(t, sumCalls)
}

func TestReceiptService_Get_NotFound(t *testing.T) {
	totalPaid := 0.0
	f := newReceiptFixture(t, nil, &totalPaid)
	f.receiptRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Receipt, error) {
		return nil, gorm.ErrRecordNotFound
	}

	_, err := f.svc.Get(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}
