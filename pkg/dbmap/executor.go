package dbmap

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Call executes the named operation. Plain args bind positionally against
// the operation's formal parameters, left to right; Named maps and
// sql.NamedArg values bind by name. The transformed rows of the final
// statement are returned; earlier statements run for their side effects.
//
// Argument resolution completes before the first statement executes, so an
// argument mismatch never leaves a partially executed operation behind.
// Driver errors pass through unmodified.
func (d *Database) Call(ctx context.Context, name string, args ...any) ([]any, error) {
	q, err := d.registry.Lookup(name)
	if err != nil {
		return nil, err
	}

	if d.tracer != nil {
		var span trace.Span

		ctx, span = d.tracer.Start(ctx, "dbmap."+name,
			trace.WithAttributes(attribute.String("dbmap.operation", name)))
		defer span.End()
	}

	positional, kwargs := splitArgs(args)

	values, err := q.resolveArguments(positional, kwargs)
	if err != nil {
		return nil, err
	}

	// Compile every statement up front: the unsafe interpolation pass and
	// any argument problem it exposes must fail before anything runs.
	plan := make([]*compiled, len(q.statements))

	for i, qs := range q.statements {
		c, err := q.compile(qs, d.style, kwargs)
		if err != nil {
			return nil, err
		}

		for _, p := range c.parsed.DistinctParams() {
			if _, ok := values[p]; !ok {
				return nil, fmt.Errorf("%w: no value for parameter %q", ErrArgument, p)
			}
		}

		plan[i] = c
	}

	if err := q.checkKeywords(plan, kwargs); err != nil {
		return nil, err
	}

	var results []any

	for i, c := range plan {
		bind, err := c.parsed.BindArgs(d.style, values)
		if err != nil {
			// resolveArguments and the plan check make this unreachable;
			// surface it as an argument mismatch if a driver-facing gap
			// slips through.
			return nil, fmt.Errorf("%w: %v", ErrArgument, err)
		}

		last := i == len(plan)-1

		if !last {
			start := time.Now()

			if _, err := d.handle.ExecContext(ctx, c.text, bind...); err != nil {
				return nil, err
			}

			d.sendOperationStats(ctx, start, "Exec", c.text, bind...)

			continue
		}

		start := time.Now()

		rows, err := d.handle.QueryContext(ctx, c.text, bind...)
		if err != nil {
			return nil, err
		}

		results, err = d.mapRows(rows)
		if err != nil {
			return nil, err
		}

		d.sendOperationStats(ctx, start, "Query", c.text, bind...)
	}

	return results, nil
}

// splitArgs separates plain positional values from keyword values supplied
// as Named maps or sql.NamedArg entries.
func splitArgs(args []any) ([]any, map[string]any) {
	var positional []any

	kwargs := map[string]any{}

	for _, arg := range args {
		switch v := arg.(type) {
		case Named:
			for k, val := range v {
				kwargs[k] = val
			}
		case sql.NamedArg:
			kwargs[v.Name] = v.Value
		default:
			positional = append(positional, arg)
		}
	}

	return positional, kwargs
}

// resolveArguments binds call arguments to the operation's parameter names.
// Keyword values bind by name; positional values fill the formal parameters
// left to right and are also addressable as _0, _1, ... for templates using
// positional placeholders.
func (q *Query) resolveArguments(positional []any, kwargs map[string]any) (map[string]any, error) {
	// Interpolation may introduce positional placeholders that are invisible
	// statically, so the surplus check only applies to static queries.
	if len(positional) > len(q.formals) && !q.dynamic() {
		return nil, fmt.Errorf("%w: %q takes at most %d positional arguments, got %d",
			ErrArgument, q.name, len(q.formals), len(positional))
	}

	values := make(map[string]any, len(kwargs)+2*len(positional))

	for k, v := range kwargs {
		values[k] = v
	}

	for i, v := range positional {
		if i >= len(q.formals) {
			break
		}

		values[q.formals[i]] = v
	}

	// Positional placeholders always see the i-th positional value, whatever
	// order they occur in within the statement text.
	for i, v := range positional {
		values["_"+strconv.Itoa(i)] = v
	}

	for _, formal := range q.formals {
		if _, ok := values[formal]; !ok {
			return nil, fmt.Errorf("%w: missing value for parameter %q of %q", ErrArgument, formal, q.name)
		}
	}

	return values, nil
}

// checkKeywords rejects keyword arguments that nothing consumes: a keyword
// must match a formal parameter, an interpolation key, or a placeholder of
// the compiled (post-interpolation) statements.
func (q *Query) checkKeywords(plan []*compiled, kwargs map[string]any) error {
	if len(kwargs) == 0 {
		return nil
	}

	allowed := make(map[string]struct{}, len(q.formals)+len(q.interpKeys))

	for _, f := range q.formals {
		allowed[f] = struct{}{}
	}

	for _, k := range q.interpKeys {
		allowed[k] = struct{}{}
	}

	for _, c := range plan {
		for _, p := range c.parsed.DistinctParams() {
			allowed[p] = struct{}{}
		}
	}

	for k := range kwargs {
		if _, ok := allowed[k]; !ok {
			return fmt.Errorf("%w: unexpected keyword %q for %q", ErrArgument, k, q.name)
		}
	}

	return nil
}

// mapRows drains rows through the row mapper.
func (d *Database) mapRows(rows *sql.Rows) ([]any, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := []any{}

	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))

		for i := range values {
			ptrs[i] = &values[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		mapped, err := d.rowMap(columns, values)
		if err != nil {
			return nil, err
		}

		results = append(results, mapped)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
