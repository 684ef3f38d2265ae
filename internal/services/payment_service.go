package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/facturado/billing-api/internal/models"
	"github.com/facturado/billing-api/internal/repository"

	"gorm.io/gorm"
)

// RevenuePoint represents a data point in the revenue chart
type RevenuePoint struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// RecordPaymentInput carries the fields accepted when recording a payment
type RecordPaymentInput struct {
	ClientID      uint       `json:"client_id"`
	InvoiceID     *uint      `json:"invoice_id"`
	ReceiptID     *uint      `json:"receipt_id"`
	PaymentDate   *time.Time `json:"payment_date"`
	AmountPaid    float64    `json:"amount_paid"`
	PaymentMethod string     `json:"payment_method"`
	Status        string     `json:"status"`
	Currency      string     `json:"currency"`
	Notes         *string    `json:"notes"`
}

// PaymentService owns the append-only payment log used for cash-flow
// reporting. It never touches invoice or receipt state: receipts are the
// ledger of record for invoice status, payments are a reporting view. A
// second path mutating invoice status would race the receipt-driven one.
type PaymentService struct {
	repo     repository.PaymentRepository
	auditSvc *AuditService
}

// NewPaymentService creates a new payment service
func NewPaymentService(repo repository.PaymentRepository, auditSvc *AuditService) *PaymentService {
	return &PaymentService{repo: repo, auditSvc: auditSvc}
}

// Record appends a payment. Pure insert; no side effects on invoices or
// receipts.
func (s *PaymentService) Record(ctx context.Context, input *RecordPaymentInput, actor, ip, userAgent string) (*models.Payment, error) {
	if input.ClientID == 0 {
		return nil, NewValidationError("client_id", "client is required")
	}
	if input.AmountPaid <= 0 {
		return nil, NewValidationError("amount_paid", "amount paid must be greater than zero")
	}
	if !models.ValidPaymentMethod(input.PaymentMethod) {
		return nil, NewValidationError("payment_method", fmt.Sprintf("unknown payment method %q", input.PaymentMethod))
	}
	status := input.Status
	if status == "" {
		status = models.PaymentStatusPending
	}
	if !models.ValidPaymentStatus(status) {
		return nil, NewValidationError("status", fmt.Sprintf("unknown payment status %q", status))
	}

	paymentDate := time.Now()
	if input.PaymentDate != nil {
		paymentDate = *input.PaymentDate
	}

	payment := &models.Payment{
		ClientID:      input.ClientID,
		InvoiceID:     input.InvoiceID,
		ReceiptID:     input.ReceiptID,
		PaymentDate:   paymentDate,
		AmountPaid:    input.AmountPaid,
		PaymentMethod: input.PaymentMethod,
		Status:        status,
		Currency:      input.Currency,
		Notes:         input.Notes,
		CreatedBy:     actor,
	}

	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actor, "CREATE", "Payment", payment.ID,
		fmt.Sprintf("Payment of %.2f recorded for client #%d", payment.AmountPaid, payment.ClientID), ip, userAgent)

	return payment, nil
}

// RecordFromReceipt mirrors a committed receipt into the payment log as a
// completed payment. Called asynchronously after receipt creation; the two
// ledgers are kept consistent by application discipline only.
func (s *PaymentService) RecordFromReceipt(ctx context.Context, receipt *models.Receipt) error {
	receiptID := receipt.ID
	payment := &models.Payment{
		ClientID:      receipt.ClientID,
		InvoiceID:     receipt.InvoiceID,
		ReceiptID:     &receiptID,
		PaymentDate:   receipt.PaymentDate,
		AmountPaid:    receipt.AmountReceived,
		PaymentMethod: receipt.PaymentMethod,
		Status:        models.PaymentStatusCompleted,
		Currency:      receipt.Currency,
		CreatedBy:     receipt.CreatedBy,
	}
	return s.repo.Create(ctx, payment)
}

// Get returns a payment by id
func (s *PaymentService) Get(ctx context.Context, id uint) (*models.Payment, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return payment, nil
}

// List returns a page of payments
func (s *PaymentService) List(ctx context.Context, query *repository.ListQuery) ([]models.Payment, int64, error) {
	return s.repo.List(ctx, query)
}

// GetMonthlyStatistics aggregates completed payments per day for one month
func (s *PaymentService) GetMonthlyStatistics(ctx context.Context, month, year int) ([]RevenuePoint, error) {
	payments, err := s.repo.FindCompletedByMonth(ctx, month, year)
	if err != nil {
		return nil, err
	}

	// Aggregate by day
	dailyMap := make(map[string]float64)
	for _, p := range payments {
		dateStr := p.PaymentDate.Format("2006-01-02")
		dailyMap[dateStr] += p.AmountPaid
	}

	var results []RevenuePoint

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format("2006-01-02")
		results = append(results, RevenuePoint{
			Date:   dateStr,
			Amount: dailyMap[dateStr],
		})
	}

	return results, nil
}
