package handlers

import (
	"github.com/facturado/billing-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health  *HealthHandler
	Invoice *InvoiceHandler
	Receipt *ReceiptHandler
	Payment *PaymentHandler
	Client  *ClientHandler
	Audit   *AuditHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(),
		Invoice: NewInvoiceHandler(svcs.Invoice, svcs.Export),
		Receipt: NewReceiptHandler(svcs.Receipt),
		Payment: NewPaymentHandler(svcs.Payment, svcs.Export),
		Client:  NewClientHandler(svcs.Client),
		Audit:   NewAuditHandler(svcs.Audit),
	}
}
