package models

import (
	"time"
)

// Client is a billing counterparty. Lead tracking, activities and the rest of
// the CRM live elsewhere; invoices and receipts only consume the id and the
// denormalized display fields below.
type Client struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	CompanyName        string    `gorm:"size:255;not null" json:"company_name"`
	PrimaryContactName string    `gorm:"size:255" json:"primary_contact_name"`
	PrimaryEmail       string    `gorm:"size:255;index" json:"primary_email"`
	Phone              *string   `gorm:"size:50" json:"phone,omitempty"`
	BillingAddress     *string   `gorm:"type:text" json:"billing_address,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// TableName specifies the table name for Client
func (Client) TableName() string {
	return "clients"
}
