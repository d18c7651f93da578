package service

import (
	"context"

	"github.com/arunvm123/ticketbooking/model"
	"github.com/arunvm123/ticketbooking/repository"
	"go.uber.org/zap"
)

// withinTx runs fn in one unit of work. fn's error rolls the transaction back;
// domain errors come back unchanged and anything else is wrapped in a
// *model.TransactionError.
func withinTx(ctx context.Context, txm repository.TxManager, log *zap.Logger, op string, fn func(tx repository.Tx) error) (err error) {
	tx, err := txm.Begin(ctx)
	if err != nil {
		return &model.TransactionError{Op: op, Err: err}
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error("failed to roll back transaction",
				zap.String("op", op),
				zap.Error(rbErr),
				zap.NamedError("cause", err),
			)
		}
		if model.IsClientError(err) {
			return err
		}
		return &model.TransactionError{Op: op, Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &model.TransactionError{Op: op, Err: err}
	}
	return nil
}
