package dbmap

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sllt/dbmap/pkg/dbmap/template"
)

func mockDatabase(t *testing.T, style template.ParamStyle) (*Database, sqlmock.Sqlmock) {
	t.Helper()

	handle, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	t.Cleanup(func() { handle.Close() })

	db, err := New(handle, style)
	require.NoError(t, err)

	return db, mock
}

func TestCall_NamedStyleWireFormat(t *testing.T) {
	db, mock := mockDatabase(t, template.Named)

	require.NoError(t, db.Register("get_user",
		[]string{"SELECT name, password FROM users WHERE name = ${name}"}))

	mock.ExpectQuery("SELECT name, password FROM users WHERE name = :name").
		WithArgs(sql.Named("name", "bruce")).
		WillReturnRows(sqlmock.NewRows([]string{"name", "password"}).AddRow("bruce", "iamthenight"))

	rows, err := db.Call(context.Background(), "get_user", Named{"name": "bruce"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "bruce", rows[0].(map[string]any)["name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCall_DollarStyleDeduplicatesRepeatedNames(t *testing.T) {
	db, mock := mockDatabase(t, template.Dollar)

	require.NoError(t, db.Register("find",
		[]string{"SELECT * FROM users WHERE name = ${who} OR nick = ${who} AND role = ${role}"}))

	// A repeated name binds once: two distinct values on the wire, not three.
	mock.ExpectQuery("SELECT * FROM users WHERE name = $1 OR nick = $1 AND role = $2").
		WithArgs("oqueen", "archer").
		WillReturnRows(sqlmock.NewRows([]string{"name"}))

	_, err := db.Call(context.Background(), "find", Named{"who": "oqueen", "role": "archer"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCall_QmarkStyleRepeatsValues(t *testing.T) {
	db, mock := mockDatabase(t, template.Qmark)

	require.NoError(t, db.Register("find",
		[]string{"SELECT * FROM users WHERE name = ${who} OR nick = ${who}"}))

	mock.ExpectQuery("SELECT * FROM users WHERE name = ? OR nick = ?").
		WithArgs("oqueen", "oqueen").
		WillReturnRows(sqlmock.NewRows([]string{"name"}))

	_, err := db.Call(context.Background(), "find", "oqueen")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCall_MultiStatementExecThenQuery(t *testing.T) {
	db, mock := mockDatabase(t, template.Qmark)

	require.NoError(t, db.Register("create_user_returning_id", []string{
		"INSERT INTO users(name, password) VALUES(${name}, ${password})",
		"SELECT last_insert_rowid() AS id",
	}))

	mock.ExpectExec("INSERT INTO users(name, password) VALUES(?, ?)").
		WithArgs("dprince", "greathera").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery("SELECT last_insert_rowid() AS id").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	rows, err := db.Call(context.Background(), "create_user_returning_id", "dprince", "greathera")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(7), rows[0].(map[string]any)["id"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCall_DriverErrorsPassThrough(t *testing.T) {
	db, mock := mockDatabase(t, template.Qmark)

	require.NoError(t, db.Register("boom", []string{"SELECT * FROM missing"}))

	driverErr := assert.AnError
	mock.ExpectQuery("SELECT * FROM missing").WillReturnError(driverErr)

	_, err := db.Call(context.Background(), "boom")
	assert.ErrorIs(t, err, driverErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSplitArgs(t *testing.T) {
	positional, kwargs := splitArgs([]any{
		"first",
		Named{"a": 1},
		sql.Named("b", 2),
		"second",
	})

	assert.Equal(t, []any{"first", "second"}, positional)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, kwargs)
}
