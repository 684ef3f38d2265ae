package models

import (
	"time"
)

// Payment status constants
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// ValidPaymentStatus reports whether s is a known payment status
func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted,
		PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// Payment is an append-only audit record of money movement, used for
// cash-flow reporting. It never drives invoice status; that is the receipt
// ledger's job. A payment may reference a receipt and/or invoice but no
// invariant ties their amounts together.
type Payment struct {
	ID        uint  `gorm:"primaryKey" json:"id"`
	InvoiceID *uint `gorm:"index" json:"invoice_id,omitempty"`
	ReceiptID *uint `gorm:"index" json:"receipt_id,omitempty"`
	ClientID  uint  `gorm:"not null;index" json:"client_id"`

	PaymentDate   time.Time `gorm:"type:date;not null;index" json:"payment_date"`
	AmountPaid    float64   `gorm:"type:decimal(12,2);not null" json:"amount_paid"`
	PaymentMethod string    `gorm:"size:20;not null" json:"payment_method"`
	Status        string    `gorm:"size:20;default:pending;not null;index" json:"status"`
	Currency      string    `gorm:"size:10;default:'USD'" json:"currency"`

	Notes     *string   `gorm:"type:text" json:"notes,omitempty"`
	CreatedBy string    `gorm:"size:255" json:"created_by"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Client Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`
}

// TableName specifies the table name for Payment
func (Payment) TableName() string {
	return "payments"
}

// PaymentResponse is the JSON response format for payments
type PaymentResponse struct {
	ID            uint      `json:"id"`
	InvoiceID     *uint     `json:"invoice_id,omitempty"`
	ReceiptID     *uint     `json:"receipt_id,omitempty"`
	ClientID      uint      `json:"client_id"`
	ClientName    string    `json:"client_name,omitempty"`
	PaymentDate   time.Time `json:"payment_date"`
	AmountPaid    float64   `json:"amount_paid"`
	PaymentMethod string    `json:"payment_method"`
	Status        string    `json:"status"`
	Currency      string    `json:"currency"`
	Notes         *string   `json:"notes,omitempty"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// ToResponse converts Payment to PaymentResponse
func (p *Payment) ToResponse() PaymentResponse {
	resp := PaymentResponse{
		ID:            p.ID,
		InvoiceID:     p.InvoiceID,
		ReceiptID:     p.ReceiptID,
		ClientID:      p.ClientID,
		PaymentDate:   p.PaymentDate,
		AmountPaid:    p.AmountPaid,
		PaymentMethod: p.PaymentMethod,
		Status:        p.Status,
		Currency:      p.Currency,
		Notes:         p.Notes,
		CreatedBy:     p.CreatedBy,
		CreatedAt:     p.CreatedAt,
	}

	if p.Client.ID != 0 {
		resp.ClientName = p.Client.CompanyName
	}

	return resp
}
