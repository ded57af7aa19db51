package dbmap

import "errors"

var (
	// ErrUnknownQuery reports a call against an operation name that was
	// never registered.
	ErrUnknownQuery = errors.New("[dbmap] unknown query")
	// ErrInvalidQueryName reports a registration name that is not a valid
	// identifier.
	ErrInvalidQueryName = errors.New("[dbmap] invalid query name")
	// ErrInvalidQuerySpec reports a malformed QUERIES configuration entry.
	ErrInvalidQuerySpec = errors.New("[dbmap] invalid query specification")
	// ErrInvalidConfig reports an unusable connection configuration.
	ErrInvalidConfig = errors.New("[dbmap] invalid connection configuration")
	// ErrUnknownParameter reports an explicit parameter list that does not
	// cover every placeholder used by the statements.
	ErrUnknownParameter = errors.New("[dbmap] parameter not in declared list")
	// ErrPositionalParameter reports malformed positional placeholders:
	// a non-contiguous _0.._n sequence, or positional placeholders combined
	// with an explicit parameter list.
	ErrPositionalParameter = errors.New("[dbmap] invalid positional parameters")
	// ErrArgument reports a call-time argument mismatch: an unresolved
	// formal parameter, a keyword that nothing consumes, or surplus
	// positional values. No statement executes when it is returned.
	ErrArgument = errors.New("[dbmap] argument mismatch")
	// ErrTransactionActive reports an attempt to open a transaction scope
	// while another scope is active on the same connection.
	ErrTransactionActive = errors.New("[dbmap] transaction already active")
	// ErrRollbackFailed reports that rolling back after an in-scope failure
	// itself failed. It is fatal and carries both causes.
	ErrRollbackFailed = errors.New("[dbmap] rollback failed")
)
