package dbmap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// beginner is satisfied by *sql.DB and *sql.Conn.
type beginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

var errHandleCannotBegin = errors.New("[dbmap] connection handle cannot begin transactions")

// Transact runs fn inside a transaction scope. The Database passed to fn is
// a view of the receiver whose calls execute on the transaction.
//
// On a nil return from fn the transaction commits. On an error return, or
// on a panic propagating out of fn, the transaction rolls back and the
// original failure is re-raised unchanged; the rollback never masks it. If
// the rollback itself fails, the returned error wraps both ErrRollbackFailed
// and the original error.
//
// Scopes do not nest: opening a second scope while one is active fails with
// ErrTransactionActive. Nested logical units share the outer scope.
func (d *Database) Transact(ctx context.Context, fn func(tx *Database) error) error {
	if d.inTx {
		return fmt.Errorf("%w: nested scopes share the outer transaction", ErrTransactionActive)
	}

	b, ok := d.handle.(beginner)
	if !ok {
		return errHandleCannotBegin
	}

	if !d.txActive.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: nested scopes share the outer transaction", ErrTransactionActive)
	}
	defer d.txActive.Store(false)

	tx, err := b.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if d.logger != nil {
		d.logger.Debug("transaction begin successful")
	}

	view := d.withHandle(tx, true)

	panicked := true

	defer func() {
		if !panicked {
			return
		}

		// fn panicked; roll back before the panic continues unwinding.
		if rbErr := tx.Rollback(); rbErr != nil && d.logger != nil {
			d.logger.Errorf("unable to rollback transaction: %v", rbErr)
		}
	}()

	err = fn(view)
	panicked = false

	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w: %v (while handling: %w)", ErrRollbackFailed, rbErr, err)
		}

		if d.logger != nil {
			d.logger.Debugf("transaction rolled back: %v", err)
		}

		return err
	}

	return tx.Commit()
}
