package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/facturado/billing-api/internal/models"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name        string
		current     string
		totalPaid   float64
		totalAmount float64
		expected    string
	}{
		{"no receipts leaves sent alone", models.InvoiceStatusSent, 0, 1000, models.InvoiceStatusSent},
		{"no receipts leaves draft alone", models.InvoiceStatusDraft, 0, 1000, models.InvoiceStatusDraft},
		{"no receipts leaves overdue alone", models.InvoiceStatusOverdue, 0, 1000, models.InvoiceStatusOverdue},
		{"partial payment", models.InvoiceStatusSent, 400, 1000, models.InvoiceStatusPartiallyPaid},
		{"exact payment", models.InvoiceStatusSent, 1000, 1000, models.InvoiceStatusPaid},
		{"overpayment", models.InvoiceStatusSent, 1200, 1000, models.InvoiceStatusPaid},
		{"overdue invoice receiving partial payment", models.InvoiceStatusOverdue, 500, 1000, models.InvoiceStatusPartiallyPaid},
		{"overdue invoice fully paid", models.InvoiceStatusOverdue, 1000, 1000, models.InvoiceStatusPaid},
		{"last receipt removed reverts paid to sent", models.InvoiceStatusPaid, 0, 1000, models.InvoiceStatusSent},
		{"last receipt removed reverts partially_paid to sent", models.InvoiceStatusPartiallyPaid, 0, 1000, models.InvoiceStatusSent},
		{"cancelled is terminal with payments", models.InvoiceStatusCancelled, 1000, 1000, models.InvoiceStatusCancelled},
		{"cancelled is terminal without payments", models.InvoiceStatusCancelled, 0, 1000, models.InvoiceStatusCancelled},
		{"zero-total invoice with no receipts stays draft", models.InvoiceStatusDraft, 0, 0, models.InvoiceStatusDraft},
		{"zero-total invoice with a receipt becomes paid", models.InvoiceStatusSent, 50, 0, models.InvoiceStatusPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveStatus(tt.current, tt.totalPaid, tt.totalAmount))
		})
	}
}

func TestDeriveStatus_Idempotent(t *testing.T) {
	// Re-deriving with the same receipt set never moves the status again
	statuses := []string{
		models.InvoiceStatusDraft,
		models.InvoiceStatusSent,
		models.InvoiceStatusOverdue,
		models.InvoiceStatusCancelled,
	}
	for _, current := range statuses {
		for _, paid := range []float64{0, 400, 1000, 1200} {
			first := DeriveStatus(current, paid, 1000)
			second := DeriveStatus(first, paid, 1000)
			assert.Equal(t, first, second, "status %s with paid %.0f", current, paid)
		}
	}
}

func reconFixture(invoice *models.Invoice, totalPaid float64) (*ReconciliationService, *mockInvoiceRepo, *[]string) {
	var transitions []string
	invoiceRepo := &mockInvoiceRepo{
		mockFindByIDForUpdate: func(ctx context.Context, tx *gorm.DB, id uint) (*models.Invoice, error) {
			if invoice == nil {
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
		mockSumForInvoice: func(ctx context.Context, tx *gorm.DB, invoiceID uint, excludeID uint) (float64, error) {
			return totalPaid, nil
		},
	}
	svc := NewReconciliationService(&mockTxManager{}, invoiceRepo, receiptRepo)
	return svc, invoiceRepo, &transitions
}

func TestReconciliationService_PartialThenFullPayment(t *testing.T) {
	invoice := &models.Invoice{ID: 7, Status: models.InvoiceStatusSent, TotalAmount: 1000}

	svc, _, transitions := reconFixture(invoice, 400)
	require.NoError(t, svc.Reconcile(context.Background(), 7))
	assert.Equal(t, []string{models.InvoiceStatusPartiallyPaid}, *transitions)

	svc, _, transitions = reconFixture(invoice, 1000)
	require.NoError(t, svc.Reconcile(context.Background(), 7))
	assert.Equal(t, []string{models.InvoiceStatusPaid}, *transitions)
}

func TestReconciliationService_NoChangeSkipsWrite(t *testing.T) {
	invoice := &models.Invoice{ID: 7, Status: models.InvoiceStatusPartiallyPaid, TotalAmount: 1000}

	svc, _, transitions := reconFixture(invoice, 400)
	require.NoError(t, svc.Reconcile(context.Background(), 7))
	assert.Empty(t, *transitions)
}

func TestReconciliationService_LastReceiptRevertsToSent(t *testing.T) {
	invoice := &models.Invoice{ID: 7, Status: models.InvoiceStatusPaid, TotalAmount: 1000}

	svc, _, transitions := reconFixture(invoice, 0)
	require.NoError(t, svc.Reconcile(context.Background(), 7))
	assert.Equal(t, []string{models.InvoiceStatusSent}, *transitions)
}

func TestReconciliationService_CancelledIsNeverMoved(t *testing.T) {
	invoice := &models.Invoice{ID: 7, Status: models.InvoiceStatusCancelled, TotalAmount: 1000}

	svc, _, transitions := reconFixture(invoice, 1000)
	require.NoError(t, svc.Reconcile(context.Background(), 7))
	assert.Empty(t, *transitions)
}

func TestReconciliationService_MissingInvoiceIsNoOp(t *testing.T) {
	// A receipt may reference a deleted invoice; reconciliation must not
	// fail the receipt operation.
	svc, _, transitions := reconFixture(nil, 0)
	require.NoError(t, svc.Reconcile(context.Background(), 99))
	assert.Empty(t, *transitions)
}
