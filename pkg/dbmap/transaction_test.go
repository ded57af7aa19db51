package dbmap

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sllt/dbmap/pkg/dbmap/template"
)

func TestTransact_RollsBackOnError(t *testing.T) {
	db := sqliteDatabase(t)
	ctx := context.Background()

	require.NoError(t, db.Register("create_user",
		[]string{"INSERT INTO users(name, password) VALUES(${name}, ${password})"}))
	require.NoError(t, db.Register("count_users",
		[]string{"SELECT COUNT(*) AS n FROM users"}))

	err := db.Transact(ctx, func(tx *Database) error {
		if _, err := tx.Call(ctx, "create_user", Named{"name": "hal", "password": "brightestday"}); err != nil {
			return err
		}

		// Duplicate primary key; the driver error aborts the scope.
		_, err := tx.Call(ctx, "create_user", Named{"name": "hal", "password": "darkestnight"})

		return err
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRollbackFailed)

	rows, err := db.Call(ctx, "count_users")
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows[0].(map[string]any)["n"])
}

func TestTransact_CommitsOnSuccess(t *testing.T) {
	db := sqliteDatabase(t)
	ctx := context.Background()

	require.NoError(t, db.Register("create_user",
		[]string{"INSERT INTO users(name, password) VALUES(${name}, ${password})"}))
	require.NoError(t, db.Register("count_users",
		[]string{"SELECT COUNT(*) AS n FROM users"}))

	err := db.Transact(ctx, func(tx *Database) error {
		for _, user := range []string{"hal", "guy", "john"} {
			if _, err := tx.Call(ctx, "create_user", Named{"name": user, "password": "lantern"}); err != nil {
				return err
			}
		}

		return nil
	})
	require.NoError(t, err)

	rows, err := db.Call(ctx, "count_users")
	require.NoError(t, err)
	assert.Equal(t, int64(3), rows[0].(map[string]any)["n"])
}

func TestTransact_RollsBackOnPanic(t *testing.T) {
	db := sqliteDatabase(t)
	ctx := context.Background()

	require.NoError(t, db.Register("create_user",
		[]string{"INSERT INTO users(name, password) VALUES(${name}, ${password})"}))
	require.NoError(t, db.Register("count_users",
		[]string{"SELECT COUNT(*) AS n FROM users"}))

	assert.PanicsWithValue(t, "sinestro", func() {
		_ = db.Transact(ctx, func(tx *Database) error {
			if _, err := tx.Call(ctx, "create_user", Named{"name": "hal", "password": "brightestday"}); err != nil {
				return err
			}

			panic("sinestro")
		})
	})

	rows, err := db.Call(ctx, "count_users")
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows[0].(map[string]any)["n"])
}

func TestTransact_NestedScopeRejected(t *testing.T) {
	db := sqliteDatabase(t)
	ctx := context.Background()

	err := db.Transact(ctx, func(tx *Database) error {
		return tx.Transact(ctx, func(*Database) error { return nil })
	})
	assert.ErrorIs(t, err, ErrTransactionActive)

	// The guard resets once the scope closes.
	err = db.Transact(ctx, func(*Database) error { return nil })
	assert.NoError(t, err)
}

func TestTransact_ConcurrentScopeRejected(t *testing.T) {
	db := sqliteDatabase(t)
	ctx := context.Background()

	inner := make(chan error)

	err := db.Transact(ctx, func(*Database) error {
		go func() {
			inner <- db.Transact(ctx, func(*Database) error { return nil })
		}()

		return <-inner
	})
	assert.ErrorIs(t, err, ErrTransactionActive)
}

func TestTransact_RollbackFailureWrapsBothErrors(t *testing.T) {
	handle, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() { handle.Close() })

	db, err := New(handle, template.Qmark)
	require.NoError(t, err)

	scopeErr := errors.New("scope failed")
	rollbackErr := errors.New("connection lost")

	mock.ExpectBegin()
	mock.ExpectRollback().WillReturnError(rollbackErr)

	err = db.Transact(context.Background(), func(*Database) error { return scopeErr })
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRollbackFailed)
	assert.ErrorIs(t, err, scopeErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransact_BeginFailure(t *testing.T) {
	handle, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() { handle.Close() })

	db, err := New(handle, template.Qmark)
	require.NoError(t, err)

	beginErr := errors.New("no connection")
	mock.ExpectBegin().WillReturnError(beginErr)

	err = db.Transact(context.Background(), func(*Database) error { return nil })
	assert.ErrorIs(t, err, beginErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}
