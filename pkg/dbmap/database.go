package dbmap

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"

	"github.com/sllt/dbmap/pkg/dbmap/template"
)

// Named carries keyword arguments for Call. Each entry expands to one named
// argument, so positional and keyword values can be mixed in a single call:
//
//	db.Call(ctx, "create_user", dbmap.Named{"name": "bruce", "password": "iamthenight"})
type Named map[string]any

// RowMapper transforms one result row. It receives the result column names
// and the scanned values in column order.
type RowMapper func(columns []string, values []any) (any, error)

// MapRow is the default RowMapper: each row becomes a map of column name to
// value.
func MapRow(columns []string, values []any) (any, error) {
	row := make(map[string]any, len(columns))
	for i, col := range columns {
		row[col] = values[i]
	}

	return row, nil
}

// CallFunc is a bound operation closure returned by Callable.
type CallFunc func(ctx context.Context, args ...any) ([]any, error)

// Database is the operation surface: a registry of named queries bound to a
// live connection handle and its paramstyle.
type Database struct {
	handle   DBTX
	style    template.ParamStyle
	registry *Registry
	logger   Logger
	metrics  Metrics
	tracer   trace.Tracer
	rowMap   RowMapper

	// txActive guards against reentrant transaction scopes; shared by every
	// view of the same underlying connection.
	txActive *atomic.Bool
	inTx     bool
}

// Option configures a Database.
type Option func(*Database)

// WithLogger attaches a logger; every executed statement is reported to it.
func WithLogger(l Logger) Option {
	return func(d *Database) { d.logger = l }
}

// WithMetrics attaches a metrics sink for execution timings.
func WithMetrics(m Metrics) Option {
	return func(d *Database) { d.metrics = m }
}

// WithTracer attaches an OpenTelemetry tracer; each operation call runs in
// its own span.
func WithTracer(t trace.Tracer) Option {
	return func(d *Database) { d.tracer = t }
}

// WithRowMapper replaces the default map-per-row transform.
func WithRowMapper(m RowMapper) Option {
	return func(d *Database) { d.rowMap = m }
}

// New returns an empty operation surface bound to handle. style names the
// driver's parameter-binding convention.
func New(handle DBTX, style template.ParamStyle, opts ...Option) (*Database, error) {
	normalized, err := template.NormalizeParamStyle(string(style))
	if err != nil {
		return nil, err
	}

	d := &Database{
		handle:   handle,
		style:    normalized,
		registry: NewRegistry(),
		rowMap:   MapRow,
		txActive: &atomic.Bool{},
	}

	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

// FromConfig builds a Database and registers every operation found in the
// configuration's QUERIES section. cfg may be any mapping satisfying
// Section; MapSection adapts a plain map[string]any.
func FromConfig(cfg Section, handle DBTX, style template.ParamStyle, opts ...Option) (*Database, error) {
	d, err := New(handle, style, opts...)
	if err != nil {
		return nil, err
	}

	queries, ok := cfg.Get("QUERIES")
	if !ok {
		return d, nil
	}

	section, ok := asSection(queries)
	if !ok {
		return nil, fmt.Errorf("%w: QUERIES is not a mapping", ErrInvalidQuerySpec)
	}

	if err := d.LoadQueries(section); err != nil {
		return nil, err
	}

	return d, nil
}

// LoadQueries registers every entry of a QUERIES mapping. Entries may be a
// single statement string, a sequence of statements, or a record with
// statements and parameters.
func (d *Database) LoadQueries(queries Section) error {
	for _, name := range queries.Keys() {
		v, _ := queries.Get(name)

		spec, err := decodeQuerySpec(name, v)
		if err != nil {
			return err
		}

		if err := d.registry.Register(name, spec.statements, spec.parameters...); err != nil {
			return err
		}
	}

	return nil
}

// Register adds or replaces an operation at runtime. The optional
// parameters list declares the formal-parameter order for positional calls
// and must cover every placeholder the statements use.
func (d *Database) Register(name string, statements []string, parameters ...string) error {
	return d.registry.Register(name, statements, parameters...)
}

// Registry exposes the underlying query registry.
func (d *Database) Registry() *Registry {
	return d.registry
}

// ParamStyle returns the binding convention the surface translates to.
func (d *Database) ParamStyle() template.ParamStyle {
	return d.style
}

// Callable returns a bound closure for one operation name. The name is
// resolved on every invocation, so a runtime re-registration takes effect
// on the next call.
func (d *Database) Callable(name string) (CallFunc, error) {
	if _, err := d.registry.Lookup(name); err != nil {
		return nil, err
	}

	return func(ctx context.Context, args ...any) ([]any, error) {
		return d.Call(ctx, name, args...)
	}, nil
}

// withHandle returns a view of the Database that executes against h. The
// registry, logger, and transaction guard are shared.
func (d *Database) withHandle(h DBTX, inTx bool) *Database {
	view := *d
	view.handle = h
	view.inTx = inTx

	return &view
}
