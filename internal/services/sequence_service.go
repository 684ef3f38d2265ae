package services

import (
	"context"
	"fmt"

	"github.com/facturado/billing-api/internal/models"
	"github.com/facturado/billing-api/internal/repository"

	"gorm.io/gorm"
)

// SequenceService hands out document numbers. Numbers are unique and
// strictly increasing per series; the counter lives on the account settings
// singleton and is incremented under a row lock, so two concurrent
// allocations can never observe the same value.
//
// Allocate must be called inside the same transaction that inserts the
// document: if the insert rolls back, the counter increment rolls back with
// it and the number is never burned.
type SequenceService struct {
	settingsRepo repository.SettingsRepository
	defaults     models.AccountSettings
}

// NewSequenceService creates a new sequence service. defaults seed the
// settings singleton when it is created lazily on first allocation.
func NewSequenceService(settingsRepo repository.SettingsRepository, defaults models.AccountSettings) *SequenceService {
	return &SequenceService{
		settingsRepo: settingsRepo,
		defaults:     defaults,
	}
}

// Allocate reserves the next number in the series and returns it formatted
// as {prefix}-{4-digit zero-padded sequence}, e.g. INV-0001. The format is a
// stable external contract.
func (s *SequenceService) Allocate(ctx context.Context, tx *gorm.DB, series string) (string, error) {
	settings, err := s.settingsRepo.GetForUpdate(ctx, tx, s.defaults)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAllocation, err)
	}

	var prefix string
	var next int

	switch series {
	case models.SeriesInvoice:
		prefix = settings.InvoicePrefix
		next = settings.InvoiceNextNumber
		settings.InvoiceNextNumber = next + 1
	case models.SeriesReceipt:
		prefix = settings.ReceiptPrefix
		next = settings.ReceiptNextNumber
		settings.ReceiptNextNumber = next + 1
	default:
		return "", fmt.Errorf("%w: unknown series %q", ErrAllocation, series)
	}

	if err := s.settingsRepo.Save(ctx, tx, settings); err != nil {
		return "", fmt.Errorf("%w: %w", ErrAllocation, err)
	}

	return fmt.Sprintf("%s-%04d", prefix, next), nil
}

// Settings returns the current account settings, creating them with the
// configured defaults if absent.
func (s *SequenceService) Settings(ctx context.Context) (*models.AccountSettings, error) {
	return s.settingsRepo.Get(ctx, s.defaults)
}
