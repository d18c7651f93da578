package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/arunvm123/ticketbooking/repository"
	"gorm.io/gorm"
)

type TxManager struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// NewTxManager begins transactions on db. A positive lockTimeout bounds how
// long any statement in the transaction waits for a row lock.
func NewTxManager(db *gorm.DB, lockTimeout time.Duration) *TxManager {
	return &TxManager{db: db, lockTimeout: lockTimeout}
}

// Begin opens a transaction bound to ctx. Cancelling ctx rolls it back.
func (m *TxManager) Begin(ctx context.Context) (repository.Tx, error) {
	gtx := m.db.WithContext(ctx).Begin()
	if gtx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", gtx.Error)
	}

	if m.lockTimeout > 0 {
		// SET LOCAL takes no bind parameters.
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", m.lockTimeout.Milliseconds())
		if err := gtx.Exec(stmt).Error; err != nil {
			gtx.Rollback()
			return nil, fmt.Errorf("failed to set lock timeout: %w", err)
		}
	}

	return &Tx{db: gtx}, nil
}

// Tx wraps a gorm transaction. It is not safe for concurrent use.
type Tx struct {
	db   *gorm.DB
	done bool
}

func (t *Tx) Commit() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	if err := t.db.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	// database/sql already rolled back if the context was cancelled.
	if err := t.db.Rollback().Error; err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("failed to roll back transaction: %w", err)
	}
	return nil
}

func unwrapTx(ctx context.Context, tx repository.Tx) (*gorm.DB, error) {
	t, ok := tx.(*Tx)
	if !ok || t == nil {
		return nil, repository.ErrTxMismatch
	}
	if t.done {
		return nil, sql.ErrTxDone
	}
	return t.db.WithContext(ctx), nil
}
