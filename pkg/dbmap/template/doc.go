// Package template implements the dbmap query template engine.
//
// A template is plain SQL text carrying two placeholder layers. Safe
// placeholders of the form ${name} (or positional ${_0}, ${_1}, ...) are
// rewritten into the driver's native bound-parameter syntax and never touch
// the SQL text. Unsafe interpolations of the form %(name)s are substituted
// as literal text before parsing and exist for structural fragments (table
// names, sort order, limits) that drivers cannot bind; they provide no
// protection against SQL injection.
//
// Translation targets the DB-API paramstyle conventions (qmark, numeric,
// named, format, pyformat) plus the PostgreSQL dollar convention used by
// Go drivers.
package template
