package models

import (
	"time"
)

// Series names for document numbering
const (
	SeriesInvoice = "invoice"
	SeriesReceipt = "receipt"
)

// AccountSettings is the singleton row holding tenant-wide billing defaults
// and the document number counters. NextNumber fields only ever increase;
// they are the single source of truth for the next number in each series.
type AccountSettings struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	InvoicePrefix     string    `gorm:"size:10;not null;default:'INV'" json:"invoice_prefix"`
	InvoiceNextNumber int       `gorm:"not null;default:1" json:"invoice_next_number"`
	ReceiptPrefix     string    `gorm:"size:10;not null;default:'RCP'" json:"receipt_prefix"`
	ReceiptNextNumber int       `gorm:"not null;default:1" json:"receipt_next_number"`

	DefaultPaymentTerms string `gorm:"size:50;default:'net_30'" json:"default_payment_terms"`
	DefaultCurrency     string `gorm:"size:10;default:'USD'" json:"default_currency"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for AccountSettings
func (AccountSettings) TableName() string {
	return "account_settings"
}
