package statemachine

import (
	"context"
	"fmt"

	"github.com/facturado/billing-api/internal/models"
	"github.com/looplab/fsm"
)

// InvoiceFSM wraps an invoice with the state machine for its manual
// transitions. Paid and partially_paid are reconciliation-derived and are
// written by the reconciliation engine, not through events here.
type InvoiceFSM struct {
	invoice *models.Invoice
	fsm     *fsm.FSM
}

// NewInvoiceFSM creates a new invoice state machine
func NewInvoiceFSM(invoice *models.Invoice) *InvoiceFSM {
	ifsm := &InvoiceFSM{
		invoice: invoice,
	}

	ifsm.fsm = fsm.NewFSM(
		invoice.Status,
		fsm.Events{
			// draft → sent
			{Name: "send", Src: []string{models.InvoiceStatusDraft}, Dst: models.InvoiceStatusSent},

			// draft/sent/overdue → cancelled (terminal)
			{Name: "cancel", Src: []string{
				models.InvoiceStatusDraft,
				models.InvoiceStatusSent,
				models.InvoiceStatusOverdue,
			}, Dst: models.InvoiceStatusCancelled},

			// sent → overdue (time-based sweep)
			{Name: "mark_overdue", Src: []string{models.InvoiceStatusSent}, Dst: models.InvoiceStatusOverdue},
		},
		fsm.Callbacks{},
	)

	return ifsm
}

// Send transitions the invoice to sent
func (f *InvoiceFSM) Send(ctx context.Context) error {
	if !f.invoice.MaySend() {
		return fmt.Errorf("invoice cannot be sent in current state: %s", f.invoice.Status)
	}

	if err := f.fsm.Event(ctx, "send"); err != nil {
		return fmt.Errorf("failed to send invoice: %w", err)
	}

	f.invoice.Status = f.fsm.Current()
	return nil
}

// Cancel transitions the invoice to cancelled
func (f *InvoiceFSM) Cancel(ctx context.Context) error {
	if !f.invoice.MayCancel() {
		return fmt.Errorf("invoice cannot be cancelled in current state: %s", f.invoice.Status)
	}

	if err := f.fsm.Event(ctx, "cancel"); err != nil {
		return fmt.Errorf("failed to cancel invoice: %w", err)
	}

	f.invoice.Status = f.fsm.Current()
	return nil
}

// MarkOverdue transitions a sent invoice to overdue
func (f *InvoiceFSM) MarkOverdue(ctx context.Context) error {
	if err := f.fsm.Event(ctx, "mark_overdue"); err != nil {
		return fmt.Errorf("failed to mark invoice overdue: %w", err)
	}

	f.invoice.Status = f.fsm.Current()
	return nil
}

// Current returns the current state
func (f *InvoiceFSM) Current() string {
	return f.fsm.Current()
}

// Can checks if a transition is possible
func (f *InvoiceFSM) Can(event string) bool {
	return f.fsm.Can(event)
}
