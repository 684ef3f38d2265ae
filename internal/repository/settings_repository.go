package repository

import (
	"context"
	"errors"

	"github.com/facturado/billing-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingsRepository owns the account settings singleton that carries the
// document number counters.
type SettingsRepository interface {
	// Get returns the settings row without locking, creating it with the
	// given defaults if absent.
	Get(ctx context.Context, defaults models.AccountSettings) (*models.AccountSettings, error)

	// GetForUpdate loads the settings row inside tx holding a row lock,
	// creating it with the given defaults if absent. Concurrent allocators
	// block here until the owning transaction commits.
	GetForUpdate(ctx context.Context, tx *gorm.DB, defaults models.AccountSettings) (*models.AccountSettings, error)

	// Save persists counter increments inside tx.
	Save(ctx context.Context, tx *gorm.DB, settings *models.AccountSettings) error
}

// settingsSingletonID is the fixed primary key of the settings row. Pinning
// it turns a racing first-allocation insert into a duplicate-key error.
const settingsSingletonID = 1

type settingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context, defaults models.AccountSettings) (*models.AccountSettings, error) {
	return fetchOrCreate(r.db.WithContext(ctx), false, defaults)
}

func (r *settingsRepository) GetForUpdate(ctx context.Context, tx *gorm.DB, defaults models.AccountSettings) (*models.AccountSettings, error) {
	return fetchOrCreate(tx.WithContext(ctx), true, defaults)
}

func (r *settingsRepository) Save(ctx context.Context, tx *gorm.DB, settings *models.AccountSettings) error {
	return tx.WithContext(ctx).Save(settings).Error
}

func fetchOrCreate(db *gorm.DB, lock bool, defaults models.AccountSettings) (*models.AccountSettings, error) {
	find := func() (*models.AccountSettings, error) {
		var settings models.AccountSettings
		q := db.Session(&gorm.Session{}).Order("id ASC")
		if lock {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&settings).Error; err != nil {
			return nil, err
		}
		return &settings, nil
	}

	settings, err := find()
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Lazily initialize the singleton on first allocation. The pinned primary
	// key makes a concurrent first-allocation collide here; ON CONFLICT DO
	// NOTHING keeps the transaction alive (a unique violation would abort
	// it), and the loser re-reads the row the winner created.
	fresh := seedSettings(defaults)
	res := db.Session(&gorm.Session{}).Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return find()
	}
	return &fresh, nil
}

// seedSettings builds the initial settings row from the configured defaults.
func seedSettings(defaults models.AccountSettings) models.AccountSettings {
	fresh := defaults
	fresh.ID = settingsSingletonID
	if fresh.InvoiceNextNumber < 1 {
		fresh.InvoiceNextNumber = 1
	}
	if fresh.ReceiptNextNumber < 1 {
		fresh.ReceiptNextNumber = 1
	}
	return fresh
}
