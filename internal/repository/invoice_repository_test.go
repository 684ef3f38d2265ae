package repository

import (
	"context"
	"testing"
	"time"

	"github.com/facturado/billing-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newDryRunDB opens a gorm handle that builds SQL without touching a
// database, so generated statements can be inspected.
func newDryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  "host=localhost user=billing dbname=billing sslmode=disable",
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db
}

func captureUpdateSQL(t *testing.T, db *gorm.DB, captured *string) {
	t.Helper()
	err := db.Callback().Update().After("gorm:update").Register("capture_update_sql", func(tx *gorm.DB) {
		*captured = tx.Statement.SQL.String()
	})
	require.NoError(t, err)
}

func dryRunInvoice() *models.Invoice {
	return &models.Invoice{
		ID:            7,
		InvoiceNumber: "INV-0007",
		ClientID:      1,
		InvoiceDate:   time.Now(),
		DueDate:       time.Now().AddDate(0, 1, 0),
		Status:        models.InvoiceStatusSent,
		Subtotal:      100,
		TotalAmount:   100,
	}
}

// Status is reconciliation-derived; a field edit saved from a stale copy
// must never write it back.
func TestInvoiceRepository_UpdateOmitsStatus(t *testing.T) {
	db := newDryRunDB(t)

	var captured string
	captureUpdateSQL(t, db, &captured)

	repo := NewInvoiceRepository(db)
	require.NoError(t, repo.Update(context.Background(), dryRunInvoice()))

	require.NotEmpty(t, captured)
	assert.NotContains(t, captured, `"status"`)
	assert.Contains(t, captured, `"subtotal"`)
	assert.Contains(t, captured, `"total_amount"`)
}

func TestInvoiceRepository_ReplaceItemsOmitsStatus(t *testing.T) {
	db := newDryRunDB(t)

	var captured string
	captureUpdateSQL(t, db, &captured)

	repo := NewInvoiceRepository(db)
	invoice := dryRunInvoice()
	items := []models.LineItem{
		{Description: "consulting", Quantity: 2, UnitPrice: 50, Amount: 100},
	}
	require.NoError(t, repo.ReplaceItems(context.Background(), db, invoice, items))

	require.NotEmpty(t, captured)
	assert.NotContains(t, captured, `"status"`)
	assert.Contains(t, captured, `"subtotal"`)
}
