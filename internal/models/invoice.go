package models

import (
	"time"
)

// Invoice status constants
const (
	InvoiceStatusDraft         = "draft"
	InvoiceStatusSent          = "sent"
	InvoiceStatusPaid          = "paid"
	InvoiceStatusPartiallyPaid = "partially_paid"
	InvoiceStatusOverdue       = "overdue"
	InvoiceStatusCancelled     = "cancelled"
)

// Invoice represents a billable document issued to a client. Subtotal, tax
// and total are always recomputed from the line items; they are never taken
// from the caller.
type Invoice struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	InvoiceNumber string `gorm:"size:20;not null;uniqueIndex" json:"invoice_number"`
	ClientID      uint   `gorm:"not null;index" json:"client_id"`

	InvoiceDate  time.Time `gorm:"type:date;not null" json:"invoice_date"`
	DueDate      time.Time `gorm:"type:date;not null;index" json:"due_date"`
	Status       string    `gorm:"size:20;default:draft;not null;index" json:"status"`
	PaymentTerms string    `gorm:"size:50" json:"payment_terms"`

	Items []LineItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`

	Subtotal       float64 `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	TaxRate        float64 `gorm:"type:decimal(5,2);default:0" json:"tax_rate"`
	TaxAmount      float64 `gorm:"type:decimal(12,2);not null" json:"tax_amount"`
	DiscountAmount float64 `gorm:"type:decimal(12,2);default:0" json:"discount_amount"`
	TotalAmount    float64 `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Currency       string  `gorm:"size:10;default:'USD'" json:"currency"`

	BillingAddress     *string `gorm:"type:text" json:"billing_address,omitempty"`
	ShippingAddress    *string `gorm:"type:text" json:"shipping_address,omitempty"`
	Notes              *string `gorm:"type:text" json:"notes,omitempty"`
	TermsAndConditions *string `gorm:"type:text" json:"terms_and_conditions,omitempty"`

	CreatedBy string    `gorm:"size:255" json:"created_by"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Client Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`
}

// TableName specifies the table name for Invoice
func (Invoice) TableName() string {
	return "invoices"
}

// LineItem is a single billable row on an invoice
type LineItem struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	InvoiceID   uint    `gorm:"not null;index" json:"-"`
	Description string  `gorm:"size:500;not null" json:"description"`
	Quantity    float64 `gorm:"type:decimal(12,2);not null" json:"quantity"`
	UnitPrice   float64 `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	TaxRate     float64 `gorm:"type:decimal(5,2);default:0" json:"tax_rate"`
	Amount      float64 `gorm:"type:decimal(12,2);not null" json:"amount"`
}

// TableName specifies the table name for LineItem
func (LineItem) TableName() string {
	return "line_items"
}

// ComputeTotals recomputes amount per item and the invoice's derived
// financial fields from its line items. Call after any change to items,
// tax rate or discount.
func (i *Invoice) ComputeTotals() {
	subtotal := 0.0
	for idx := range i.Items {
		item := &i.Items[idx]
		item.Amount = item.Quantity * item.UnitPrice
		subtotal += item.Amount
	}
	i.Subtotal = subtotal
	i.TaxAmount = subtotal * i.TaxRate / 100
	i.TotalAmount = i.Subtotal + i.TaxAmount - i.DiscountAmount
}

// IsEditable returns true if the invoice can still be modified
func (i *Invoice) IsEditable() bool {
	return i.Status != InvoiceStatusPaid && i.Status != InvoiceStatusCancelled
}

// IsDeletable returns true if the invoice can be removed
func (i *Invoice) IsDeletable() bool {
	return i.Status == InvoiceStatusDraft
}

// MaySend returns true if the invoice can transition to sent
func (i *Invoice) MaySend() bool {
	return i.Status == InvoiceStatusDraft
}

// MayCancel returns true if the invoice can be cancelled manually.
// Cancellation is terminal with respect to reconciliation.
func (i *Invoice) MayCancel() bool {
	switch i.Status {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusOverdue:
		return true
	}
	return false
}

// IsPastDue returns true if an unpaid, sent invoice is past its due date
func (i *Invoice) IsPastDue(now time.Time) bool {
	return i.Status == InvoiceStatusSent && now.After(i.DueDate)
}

// InvoiceResponse is the JSON response format for invoices
type InvoiceResponse struct {
	ID                 uint       `json:"id"`
	InvoiceNumber      string     `json:"invoice_number"`
	ClientID           uint       `json:"client_id"`
	ClientName         string     `json:"client_name,omitempty"`
	InvoiceDate        time.Time  `json:"invoice_date"`
	DueDate            time.Time  `json:"due_date"`
	Status             string     `json:"status"`
	PaymentTerms       string     `json:"payment_terms"`
	Items              []LineItem `json:"items"`
	Subtotal           float64    `json:"subtotal"`
	TaxRate            float64    `json:"tax_rate"`
	TaxAmount          float64    `json:"tax_amount"`
	DiscountAmount     float64    `json:"discount_amount"`
	TotalAmount        float64    `json:"total_amount"`
	Currency           string     `json:"currency"`
	BillingAddress     *string    `json:"billing_address,omitempty"`
	ShippingAddress    *string    `json:"shipping_address,omitempty"`
	Notes              *string    `json:"notes,omitempty"`
	TermsAndConditions *string    `json:"terms_and_conditions,omitempty"`
	CreatedBy          string     `json:"created_by"`
	CreatedAt          time.Time  `json:"created_at"`
}

// ToResponse converts Invoice to InvoiceResponse
func (i *Invoice) ToResponse() InvoiceResponse {
	resp := InvoiceResponse{
		ID:                 i.ID,
		InvoiceNumber:      i.InvoiceNumber,
		ClientID:           i.ClientID,
		InvoiceDate:        i.InvoiceDate,
		DueDate:            i.DueDate,
		Status:             i.Status,
		PaymentTerms:       i.PaymentTerms,
		Items:              i.Items,
		Subtotal:           i.Subtotal,
		TaxRate:            i.TaxRate,
		TaxAmount:          i.TaxAmount,
		DiscountAmount:     i.DiscountAmount,
		TotalAmount:        i.TotalAmount,
		Currency:           i.Currency,
		BillingAddress:     i.BillingAddress,
		ShippingAddress:    i.ShippingAddress,
		Notes:              i.Notes,
		TermsAndConditions: i.TermsAndConditions,
		CreatedBy:          i.CreatedBy,
		CreatedAt:          i.CreatedAt,
	}

	if i.Client.ID != 0 {
		resp.ClientName = i.Client.CompanyName
	}

	return resp
}
