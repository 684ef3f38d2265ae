package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Tx       TxManager
	Settings SettingsRepository
	Invoice  InvoiceRepository
	Receipt  ReceiptRepository
	Payment  PaymentRepository
	Client   ClientRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Tx:       NewTxManager(db),
		Settings: NewSettingsRepository(db),
		Invoice:  NewInvoiceRepository(db),
		Receipt:  NewReceiptRepository(db),
		Payment:  NewPaymentRepository(db),
		Client:   NewClientRepository(db),
	}
}
