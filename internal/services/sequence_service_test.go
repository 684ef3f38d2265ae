package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturado/billing-api/internal/models"
)

func TestSequenceService_Allocate_FirstInvoiceNumber(t *testing.T) {
	repo := &mockSettingsRepo{}
	svc := NewSequenceService(repo, defaultSettings())

	number, err := svc.Allocate(context.Background(), nil, models.SeriesInvoice)
	require.NoError(t, err)
	assert.Equal(t, "INV-0001", number)
	assert.Equal(t, 2, repo.settings.InvoiceNextNumber)
}

func TestSequenceService_Allocate_Increments(t *testing.T) {
	repo := &mockSettingsRepo{}
	svc := NewSequenceService(repo, defaultSettings())
	ctx := context.Background()

	for i := 1; i <= 12; i++ {
		number, err := svc.Allocate(ctx, nil, models.SeriesInvoice)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("INV-%04d", i), number)
	}
}

func TestSequenceService_Allocate_SeriesAreIndependent(t *testing.T) {
	repo := &mockSettingsRepo{}
	svc := NewSequenceService(repo, defaultSettings())
	ctx := context.Background()

	inv, err := svc.Allocate(ctx, nil, models.SeriesInvoice)
	require.NoError(t, err)
	rcp, err := svc.Allocate(ctx, nil, models.SeriesReceipt)
	require.NoError(t, err)

	assert.Equal(t, "INV-0001", inv)
	assert.Equal(t, "RCP-0001", rcp)

	// Allocating in one series never advances the other
	inv2, err := svc.Allocate(ctx, nil, models.SeriesInvoice)
	require.NoError(t, err)
	assert.Equal(t, "INV-0002", inv2)
	assert.Equal(t, 2, repo.settings.ReceiptNextNumber)
}

func TestSequenceService_Allocate_PaddingGrowsPastFourDigits(t *testing.T) {
	repo := &mockSettingsRepo{}
	defaults := defaultSettings()
	defaults.InvoiceNextNumber = 10000
	svc := NewSequenceService(repo, defaults)

	number, err := svc.Allocate(context.Background(), nil, models.SeriesInvoice)
	require.NoError(t, err)
	assert.Equal(t, "INV-10000", number)
}

func TestSequenceService_Allocate_UnknownSeries(t *testing.T) {
	svc := NewSequenceService(&mockSettingsRepo{}, defaultSettings())

	_, err := svc.Allocate(context.Background(), nil, "credit_note")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllocation)
}

func TestSequenceService_Allocate_RepoErrorsWrapAllocation(t *testing.T) {
	svc := NewSequenceService(&mockSettingsRepo{getErr: errors.New("connection lost")}, defaultSettings())
	_, err := svc.Allocate(context.Background(), nil, models.SeriesInvoice)
	assert.ErrorIs(t, err, ErrAllocation)

	svc = NewSequenceService(&mockSettingsRepo{saveErr: errors.New("write failed")}, defaultSettings())
	_, err = svc.Allocate(context.Background(), nil, models.SeriesInvoice)
	assert.ErrorIs(t, err, ErrAllocation)
}

func TestSequenceService_Settings_SeedsDefaults(t *testing.T) {
	svc := NewSequenceService(&mockSettingsRepo{}, defaultSettings())

	settings, err := svc.Settings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "USD", settings.DefaultCurrency)
	assert.Equal(t, "net_30", settings.DefaultPaymentTerms)
	assert.Equal(t, 1, settings.InvoiceNextNumber)
}
