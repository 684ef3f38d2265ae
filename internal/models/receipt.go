package models

import (
	"time"
)

// Payment method constants, shared by receipts and payment records
const (
	PaymentMethodCash         = "cash"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodCheque       = "cheque"
	PaymentMethodOnline       = "online"
	PaymentMethodCard         = "card"
	PaymentMethodOther        = "other"
)

// ValidPaymentMethod reports whether m is a known payment method
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCheque,
		PaymentMethodOnline, PaymentMethodCard, PaymentMethodOther:
		return true
	}
	return false
}

// Receipt records money received from a client. A receipt may be linked to
// one invoice, in which case every create/update/delete triggers
// reconciliation of that invoice's paid status. Receipts are the ledger of
// record for invoice payment state.
type Receipt struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	ReceiptNumber string `gorm:"size:20;not null;uniqueIndex" json:"receipt_number"`
	InvoiceID     *uint  `gorm:"index" json:"invoice_id,omitempty"`
	ClientID      uint   `gorm:"not null;index" json:"client_id"`

	ReceiptDate    time.Time `gorm:"type:date;not null" json:"receipt_date"`
	PaymentDate    time.Time `gorm:"type:date;not null" json:"payment_date"`
	PaymentMethod  string    `gorm:"size:20;not null" json:"payment_method"`
	AmountReceived float64   `gorm:"type:decimal(12,2);not null" json:"amount_received"`
	Currency       string    `gorm:"size:10;default:'USD'" json:"currency"`
	ExchangeRate   *float64  `gorm:"type:decimal(12,6)" json:"exchange_rate,omitempty"`

	// Bank/cheque detail block, populated for the matching payment methods
	BankName     *string `gorm:"size:255" json:"bank_name,omitempty"`
	ChequeNumber *string `gorm:"size:50" json:"cheque_number,omitempty"`

	Notes     *string   `gorm:"type:text" json:"notes,omitempty"`
	CreatedBy string    `gorm:"size:255" json:"created_by"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Client  Client   `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Invoice *Invoice `gorm:"foreignKey:InvoiceID" json:"invoice,omitempty"`
}

// TableName specifies the table name for Receipt
func (Receipt) TableName() string {
	return "receipts"
}

// ReceiptResponse is the JSON response format for receipts
type ReceiptResponse struct {
	ID             uint      `json:"id"`
	ReceiptNumber  string    `json:"receipt_number"`
	InvoiceID      *uint     `json:"invoice_id,omitempty"`
	InvoiceNumber  string    `json:"invoice_number,omitempty"`
	ClientID       uint      `json:"client_id"`
	ClientName     string    `json:"client_name,omitempty"`
	ReceiptDate    time.Time `json:"receipt_date"`
	PaymentDate    time.Time `json:"payment_date"`
	PaymentMethod  string    `json:"payment_method"`
	AmountReceived float64   `json:"amount_received"`
	Currency       string    `json:"currency"`
	ExchangeRate   *float64  `json:"exchange_rate,omitempty"`
	BankName       *string   `json:"bank_name,omitempty"`
	ChequeNumber   *string   `json:"cheque_number,omitempty"`
	Notes          *string   `json:"notes,omitempty"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
}

// ToResponse converts Receipt to ReceiptResponse
func (r *Receipt) ToResponse() ReceiptResponse {
	resp := ReceiptResponse{
		ID:             r.ID,
		ReceiptNumber:  r.ReceiptNumber,
		InvoiceID:      r.InvoiceID,
		ClientID:       r.ClientID,
		ReceiptDate:    r.ReceiptDate,
		PaymentDate:    r.PaymentDate,
		PaymentMethod:  r.PaymentMethod,
		AmountReceived: r.AmountReceived,
		Currency:       r.Currency,
		ExchangeRate:   r.ExchangeRate,
		BankName:       r.BankName,
		ChequeNumber:   r.ChequeNumber,
		Notes:          r.Notes,
		CreatedBy:      r.CreatedBy,
		CreatedAt:      r.CreatedAt,
	}

	if r.Client.ID != 0 {
		resp.ClientName = r.Client.CompanyName
	}
	if r.Invoice != nil && r.Invoice.ID != 0 {
		resp.InvoiceNumber = r.Invoice.InvoiceNumber
	}

	return resp
}
