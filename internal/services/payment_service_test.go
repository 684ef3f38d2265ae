package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturado/billing-api/internal/models"
)

func TestPaymentService_Record(t *testing.T) {
	var created *models.Payment
	repo := &mockPaymentRepo{
		mockCreate: func(ctx context.Context, payment *models.Payment) error {
			payment.ID = 1
			created = payment
			return nil
		},
	}
	svc := NewPaymentService(repo, NewAuditService(nil))

	payment, err := svc.Record(context.Background(), &RecordPaymentInput{
		ClientID:      10,
		AmountPaid:    250,
		PaymentMethod: models.PaymentMethodCard,
		Currency:      "USD",
	}, "carol@example.com", "127.0.0.1", "test")
	require.NoError(t, err)
	require.NotNil(t, created)

	// Status defaults to pending when omitted
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.Equal(t, 250.0, payment.AmountPaid)
	assert.Equal(t, "carol@example.com", payment.CreatedBy)
	assert.WithinDuration(t, time.Now(), payment.PaymentDate, time.Minute)
}

func TestPaymentService_Record_Validation(t *testing.T) {
	svc := NewPaymentService(&mockPaymentRepo{}, NewAuditService(nil))
	ctx := context.Background()

	tests := []struct {
		name  string
		input *RecordPaymentInput
		field string
	}{
		{"missing client", &RecordPaymentInput{AmountPaid: 10, PaymentMethod: models.PaymentMethodCash}, "client_id"},
		{"zero amount", &RecordPaymentInput{ClientID: 1, PaymentMethod: models.PaymentMethodCash}, "amount_paid"},
		{"negative amount", &RecordPaymentInput{ClientID: 1, AmountPaid: -5, PaymentMethod: models.PaymentMethodCash}, "amount_paid"},
		{"unknown method", &RecordPaymentInput{ClientID: 1, AmountPaid: 10, PaymentMethod: "barter"}, "payment_method"},
		{"unknown status", &RecordPaymentInput{ClientID: 1, AmountPaid: 10, PaymentMethod: models.PaymentMethodCash, Status: "maybe"}, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Record(ctx, tt.input, "carol", "", "")
			require.Error(t, err)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestPaymentService_RecordFromReceipt(t *testing.T) {
	var created *models.Payment
	repo := &mockPaymentRepo{
		mockCreate: func(ctx context.Context, payment *models.Payment) error {
			created = payment
			return nil
		},
	}
	svc := NewPaymentService(repo, NewAuditService(nil))

	invoiceID := uint(5)
	when := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	receipt := &models.Receipt{
		ID:             42,
		ClientID:       10,
		InvoiceID:      &invoiceID,
		PaymentDate:    when,
		AmountReceived: 750,
		PaymentMethod:  models.PaymentMethodBankTransfer,
		Currency:       "EUR",
		CreatedBy:      "carol",
	}

	require.NoError(t, svc.RecordFromReceipt(context.Background(), receipt))
	require.NotNil(t, created)

	assert.Equal(t, uint(10), created.ClientID)
	require.NotNil(t, created.ReceiptID)
	assert.Equal(t, uint(42), *created.ReceiptID)
	require.NotNil(t, created.InvoiceID)
	assert.Equal(t, uint(5), *created.InvoiceID)
	assert.Equal(t, 750.0, created.AmountPaid)
	assert.Equal(t, models.PaymentStatusCompleted, created.Status)
	assert.Equal(t, "EUR", created.Currency)
	assert.Equal(t, when, created.PaymentDate)
}

func TestPaymentService_GetMonthlyStatistics(t *testing.T) {
	repo := &mockPaymentRepo{
		mockFindCompletedByMonth: func(ctx context.Context, month, year int) ([]models.Payment, error) {
			return []models.Payment{
				{AmountPaid: 100, PaymentDate: time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)},
				{AmountPaid: 50, PaymentDate: time.Date(2026, 2, 3, 15, 0, 0, 0, time.UTC)},
				{AmountPaid: 200, PaymentDate: time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC)},
			}, nil
		},
	}
	svc := NewPaymentService(repo, NewAuditService(nil))

	points, err := svc.GetMonthlyStatistics(context.Background(), 2, 2026)
	require.NoError(t, err)

	// Every day of the month gets a point, including zero days
	require.Len(t, points, 28)
	assert.Equal(t, "2026-02-01", points[0].Date)
	assert.Equal(t, 0.0, points[0].Amount)
	assert.Equal(t, "2026-02-03", points[2].Date)
	assert.Equal(t, 150.0, points[2].Amount)
	assert.Equal(t, 200.0, points[19].Amount)
	assert.Equal(t, "2026-02-28", points[27].Date)
}
