package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrTxConflict marks a transaction Postgres aborted for serialization or
// locking reasons. Nothing was committed; the whole operation is safe to
// retry from scratch.
var ErrTxConflict = errors.New("concurrent modification detected, retry the operation")

// TxManager runs a function inside a database transaction. Number allocation
// and reconciliation depend on this: the counter increment / status write
// must commit atomically with the document write, and row locks taken inside
// fn are held until the transaction ends.
type TxManager interface {
	Do(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type txManager struct {
	db *gorm.DB
}

// NewTxManager creates a TxManager backed by the given database
func NewTxManager(db *gorm.DB) TxManager {
	return &txManager{db: db}
}

func (m *txManager) Do(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if err := m.db.WithContext(ctx).Transaction(fn); err != nil {
		return translateTxError(err)
	}
	return nil
}

// translateTxError maps Postgres serialization failures (40001), deadlocks
// (40P01) and lock-not-available errors (55P03) onto ErrTxConflict.
func translateTxError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return fmt.Errorf("%w: %v", ErrTxConflict, err)
		}
	}
	return err
}
