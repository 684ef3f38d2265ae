package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/facturado/billing-api/internal/models"
	"github.com/facturado/billing-api/internal/repository"
	"github.com/facturado/billing-api/internal/statemachine"
	"github.com/facturado/billing-api/pkg/logger"

	"gorm.io/gorm"
)

// LineItemInput is a caller-supplied line item. Amount is always computed
// server-side from quantity and unit price.
type LineItemInput struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TaxRate     float64 `json:"tax_rate"`
}

// CreateInvoiceInput carries the fields accepted on invoice creation
type CreateInvoiceInput struct {
	ClientID           uint            `json:"client_id"`
	InvoiceDate        *time.Time      `json:"invoice_date"`
	DueDate            *time.Time      `json:"due_date"`
	PaymentTerms       string          `json:"payment_terms"`
	Items              []LineItemInput `json:"items"`
	TaxRate            float64         `json:"tax_rate"`
	DiscountAmount     float64         `json:"discount_amount"`
	Currency           string          `json:"currency"`
	BillingAddress     *string         `json:"billing_address"`
	ShippingAddress    *string         `json:"shipping_address"`
	Notes              *string         `json:"notes"`
	TermsAndConditions *string         `json:"terms_and_conditions"`
}

// UpdateInvoiceInput carries a partial invoice update. Nil fields are left
// unchanged; when Items is present the financial fields are recomputed
// exactly as on create.
type UpdateInvoiceInput struct {
	InvoiceDate        *time.Time       `json:"invoice_date"`
	DueDate            *time.Time       `json:"due_date"`
	PaymentTerms       *string          `json:"payment_terms"`
	Items              *[]LineItemInput `json:"items"`
	TaxRate            *float64         `json:"tax_rate"`
	DiscountAmount     *float64         `json:"discount_amount"`
	Currency           *string          `json:"currency"`
	BillingAddress     *string          `json:"billing_address"`
	ShippingAddress    *string          `json:"shipping_address"`
	Notes              *string          `json:"notes"`
	TermsAndConditions *string          `json:"terms_and_conditions"`
}

// InvoiceStats summarizes invoices by status for the dashboard
type InvoiceStats struct {
	Draft         int64 `json:"draft"`
	Sent          int64 `json:"sent"`
	Paid          int64 `json:"paid"`
	PartiallyPaid int64 `json:"partially_paid"`
	Overdue       int64 `json:"overdue"`
	Cancelled     int64 `json:"cancelled"`
	Total         int64 `json:"total"`
}

// InvoiceService owns the invoice lifecycle: creation with sequential
// numbering, totals computation, state guards and manual transitions.
type InvoiceService struct {
	txm         repository.TxManager
	repo        repository.InvoiceRepository
	clientRepo  repository.ClientRepository
	sequenceSvc *SequenceService
	auditSvc    *AuditService
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(
	txm repository.TxManager,
	repo repository.InvoiceRepository,
	clientRepo repository.ClientRepository,
	sequenceSvc *SequenceService,
	auditSvc *AuditService,
) *InvoiceService {
	return &InvoiceService{
		txm:         txm,
		repo:        repo,
		clientRepo:  clientRepo,
		sequenceSvc: sequenceSvc,
		auditSvc:    auditSvc,
	}
}

// Create validates the input, computes totals, allocates the next invoice
// number and persists the invoice as draft. Number allocation and the insert
// share one transaction: a failed insert never burns a number.
func (s *InvoiceService) Create(ctx context.Context, input *CreateInvoiceInput, actor, ip, userAgent string) (*models.Invoice, error) {
	if input.ClientID == 0 {
		return nil, NewValidationError("client_id", "client is required")
	}
	items, err := buildLineItems(input.Items)
	if err != nil {
		return nil, err
	}
	if input.TaxRate < 0 || input.TaxRate > 100 {
		return nil, NewValidationError("tax_rate", "tax rate must be between 0 and 100")
	}
	if input.DiscountAmount < 0 {
		return nil, NewValidationError("discount_amount", "discount cannot be negative")
	}

	settings, err := s.sequenceSvc.Settings(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	invoiceDate := now
	if input.InvoiceDate != nil {
		invoiceDate = *input.InvoiceDate
	}
	dueDate := invoiceDate.AddDate(0, 0, 30)
	if input.DueDate != nil {
		dueDate = *input.DueDate
	}
	paymentTerms := input.PaymentTerms
	if paymentTerms == "" {
		paymentTerms = settings.DefaultPaymentTerms
	}
	currency := input.Currency
	if currency == "" {
		currency = settings.DefaultCurrency
	}

	invoice := &models.Invoice{
		ClientID:           input.ClientID,
		InvoiceDate:        invoiceDate,
		DueDate:            dueDate,
		Status:             models.InvoiceStatusDraft,
		PaymentTerms:       paymentTerms,
		Items:              items,
		TaxRate:            input.TaxRate,
		DiscountAmount:     input.DiscountAmount,
		Currency:           currency,
		BillingAddress:     input.BillingAddress,
		ShippingAddress:    input.ShippingAddress,
		Notes:              input.Notes,
		TermsAndConditions: input.TermsAndConditions,
		CreatedBy:          actor,
	}
	invoice.ComputeTotals()

	err = s.txm.Do(ctx, func(tx *gorm.DB) error {
		number, err := s.sequenceSvc.Allocate(ctx, tx, models.SeriesInvoice)
		if err != nil {
			return err
		}
		invoice.InvoiceNumber = number

		if err := s.repo.Create(ctx, tx, invoice); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// A number collision means the counter is corrupt. Never
				// retry with a fresh number; that would desynchronize the
				// series further.
				return fmt.Errorf("%w: duplicate invoice number %s", ErrAllocation, number)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Denormalized display data; an unresolvable client is not fatal.
	if client, err := s.clientRepo.FindByID(ctx, invoice.ClientID); err == nil {
		invoice.Client = *client
	} else {
		logger.Warn("client lookup failed for new invoice", "client_id", invoice.ClientID, "error", err)
	}

	s.auditSvc.Log(ctx, actor, "CREATE", "Invoice", invoice.ID,
		fmt.Sprintf("Invoice %s created for client #%d, total %.2f %s", invoice.InvoiceNumber, invoice.ClientID, invoice.TotalAmount, invoice.Currency), ip, userAgent)

	return invoice, nil
}

// Update applies a partial update. Paid and cancelled invoices are
// immutable. When line items change, subtotal/tax/total are recomputed from
// scratch using the patch's tax rate and discount when provided, else the
// stored values.
func (s *InvoiceService) Update(ctx context.Context, id uint, input *UpdateInvoiceInput, actor, ip, userAgent string) (*models.Invoice, error) {
	invoice, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !invoice.IsEditable() {
		return nil, fmt.Errorf("%w: cannot edit a %s invoice", ErrInvalidState, invoice.Status)
	}

	if input.TaxRate != nil {
		if *input.TaxRate < 0 || *input.TaxRate > 100 {
			return nil, NewValidationError("tax_rate", "tax rate must be between 0 and 100")
		}
		invoice.TaxRate = *input.TaxRate
	}
	if input.DiscountAmount != nil {
		if *input.DiscountAmount < 0 {
			return nil, NewValidationError("discount_amount", "discount cannot be negative")
		}
		invoice.DiscountAmount = *input.DiscountAmount
	}
	if input.InvoiceDate != nil {
		invoice.InvoiceDate = *input.InvoiceDate
	}
	if input.DueDate != nil {
		invoice.DueDate = *input.DueDate
	}
	if input.PaymentTerms != nil {
		invoice.PaymentTerms = *input.PaymentTerms
	}
	if input.Currency != nil {
		invoice.Currency = *input.Currency
	}
	if input.BillingAddress != nil {
		invoice.BillingAddress = input.BillingAddress
	}
	if input.ShippingAddress != nil {
		invoice.ShippingAddress = input.ShippingAddress
	}
	if input.Notes != nil {
		invoice.Notes = input.Notes
	}
	if input.TermsAndConditions != nil {
		invoice.TermsAndConditions = input.TermsAndConditions
	}

	if input.Items != nil {
		items, err := buildLineItems(*input.Items)
		if err != nil {
			return nil, err
		}
		invoice.Items = items
		invoice.ComputeTotals()
		err = s.txm.Do(ctx, func(tx *gorm.DB) error {
			return s.repo.ReplaceItems(ctx, tx, invoice, items)
		})
		if err != nil {
			return nil, err
		}
	} else {
		// Tax rate or discount may have changed; totals always derive from
		// the stored items.
		invoice.ComputeTotals()
		if err := s.repo.Update(ctx, invoice); err != nil {
			return nil, err
		}
	}

	s.auditSvc.Log(ctx, actor, "UPDATE", "Invoice", invoice.ID,
		fmt.Sprintf("Invoice %s updated", invoice.InvoiceNumber), ip, userAgent)

	return invoice, nil
}

// Delete removes a draft invoice. Any other status is refused.
func (s *InvoiceService) Delete(ctx context.Context, id uint, actor, ip, userAgent string) error {
	invoice, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if !invoice.IsDeletable() {
		return fmt.Errorf("%w: only draft invoices can be deleted, current status is %s", ErrInvalidState, invoice.Status)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.auditSvc.Log(ctx, actor, "DELETE", "Invoice", id,
		fmt.Sprintf("Invoice %s deleted", invoice.InvoiceNumber), ip, userAgent)

	return nil
}

// Get returns an invoice with its line items
func (s *InvoiceService) Get(ctx context.Context, id uint) (*models.Invoice, error) {
	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return invoice, nil
}

// List returns a page of invoices
func (s *InvoiceService) List(ctx context.Context, query *repository.ListQuery) ([]models.Invoice, int64, error) {
	return s.repo.List(ctx, query)
}

// Send marks a draft invoice as sent
func (s *InvoiceService) Send(ctx context.Context, id uint, actor, ip, userAgent string) (*models.Invoice, error) {
	return s.transition(ctx, id, actor, ip, userAgent, "SEND", func(f *statemachine.InvoiceFSM) error {
		return f.Send(ctx)
	})
}

// Cancel cancels an invoice. Cancellation is terminal: reconciliation never
// moves a cancelled invoice again.
func (s *InvoiceService) Cancel(ctx context.Context, id uint, actor, ip, userAgent string) (*models.Invoice, error) {
	return s.transition(ctx, id, actor, ip, userAgent, "CANCEL", func(f *statemachine.InvoiceFSM) error {
		return f.Cancel(ctx)
	})
}

func (s *InvoiceService) transition(ctx context.Context, id uint, actor, ip, userAgent, action string, event func(*statemachine.InvoiceFSM) error) (*models.Invoice, error) {
	invoice, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	ifsm := statemachine.NewInvoiceFSM(invoice)
	if err := event(ifsm); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	err = s.txm.Do(ctx, func(tx *gorm.DB) error {
		return s.repo.UpdateStatus(ctx, tx, invoice.ID, invoice.Status)
	})
	if err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actor, action, "Invoice", invoice.ID,
		fmt.Sprintf("Invoice %s moved to %s", invoice.InvoiceNumber, invoice.Status), ip, userAgent)

	return invoice, nil
}

// MarkOverdueInvoices flips sent invoices past their due date to overdue.
// Runs on the background scheduler; a payment arriving later moves the
// invoice to partially_paid or paid through the normal reconciliation path.
func (s *InvoiceService) MarkOverdueInvoices(ctx context.Context) error {
	count, err := s.repo.MarkOverdue(ctx, time.Now())
	if err != nil {
		return err
	}
	if count > 0 {
		logger.Info("overdue sweep completed", "invoices_marked", count)
	}
	return nil
}

// Stats returns invoice counts by status
func (s *InvoiceService) Stats(ctx context.Context) (*InvoiceStats, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	stats := &InvoiceStats{
		Draft:         counts[models.InvoiceStatusDraft],
		Sent:          counts[models.InvoiceStatusSent],
		Paid:          counts[models.InvoiceStatusPaid],
		PartiallyPaid: counts[models.InvoiceStatusPartiallyPaid],
		Overdue:       counts[models.InvoiceStatusOverdue],
		Cancelled:     counts[models.InvoiceStatusCancelled],
	}
	for _, c := range counts {
		stats.Total += c
	}
	return stats, nil
}

// buildLineItems validates caller-supplied items and computes each amount.
// The schema tolerates zero quantity but a zero-quantity line is always an
// input mistake, so it is rejected here.
func buildLineItems(inputs []LineItemInput) ([]models.LineItem, error) {
	if len(inputs) == 0 {
		return nil, NewValidationError("items", "at least one line item is required")
	}

	items := make([]models.LineItem, 0, len(inputs))
	for i, in := range inputs {
		if in.Description == "" {
			return nil, NewValidationError(fmt.Sprintf("items[%d].description", i), "description is required")
		}
		if in.Quantity <= 0 {
			return nil, NewValidationError(fmt.Sprintf("items[%d].quantity", i), "quantity must be greater than zero")
		}
		if in.UnitPrice < 0 {
			return nil, NewValidationError(fmt.Sprintf("items[%d].unit_price", i), "unit price cannot be negative")
		}
		if in.TaxRate < 0 || in.TaxRate > 100 {
			return nil, NewValidationError(fmt.Sprintf("items[%d].tax_rate", i), "tax rate must be between 0 and 100")
		}
		items = append(items, models.LineItem{
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			TaxRate:     in.TaxRate,
			Amount:      in.Quantity * in.UnitPrice,
		})
	}
	return items, nil
}
