package dbmap

import (
	"fmt"
	"sort"
	"strings"
)

// Section is the minimal mapping capability dbmap needs from a
// configuration object: lookup by key and key iteration. Any configuration
// system can adapt to it; MapSection adapts a plain map.
type Section interface {
	Get(key string) (any, bool)
	Keys() []string
}

// MapSection adapts a map[string]any to the Section interface.
type MapSection map[string]any

func (m MapSection) Get(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

func (m MapSection) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// asSection coerces the nested shapes configuration loaders produce into a
// Section.
func asSection(v any) (Section, bool) {
	switch s := v.(type) {
	case Section:
		return s, true
	case map[string]any:
		return MapSection(s), true
	default:
		return nil, false
	}
}

// querySpec is one decoded QUERIES entry.
type querySpec struct {
	statements []string
	parameters []string
}

// decodeQuerySpec accepts the three supported entry shapes: a single
// statement string, a sequence of statement strings, or a record with
// "statements" (or the legacy "query") plus optional "parameters".
func decodeQuerySpec(name string, v any) (querySpec, error) {
	switch spec := v.(type) {
	case string:
		return querySpec{statements: []string{spec}}, nil

	case []string:
		return querySpec{statements: append([]string(nil), spec...)}, nil

	case []any:
		statements, err := stringSlice(spec)
		if err != nil {
			return querySpec{}, fmt.Errorf("%w: %q: %v", ErrInvalidQuerySpec, name, err)
		}

		return querySpec{statements: statements}, nil
	}

	record, ok := asSection(v)
	if !ok {
		return querySpec{}, fmt.Errorf("%w: %q: unsupported entry type %T", ErrInvalidQuerySpec, name, v)
	}

	var out querySpec

	stmts, ok := record.Get("statements")
	if !ok {
		// The original single-statement record shape.
		stmts, ok = record.Get("query")
	}

	if !ok {
		return querySpec{}, fmt.Errorf("%w: %q: record is missing statements", ErrInvalidQuerySpec, name)
	}

	switch s := stmts.(type) {
	case string:
		out.statements = []string{s}
	case []string:
		out.statements = append([]string(nil), s...)
	case []any:
		statements, err := stringSlice(s)
		if err != nil {
			return querySpec{}, fmt.Errorf("%w: %q: %v", ErrInvalidQuerySpec, name, err)
		}

		out.statements = statements
	default:
		return querySpec{}, fmt.Errorf("%w: %q: unsupported statements type %T", ErrInvalidQuerySpec, name, stmts)
	}

	if params, ok := record.Get("parameters"); ok {
		switch p := params.(type) {
		case string:
			out.parameters = strings.Fields(p)
		case []string:
			out.parameters = append([]string(nil), p...)
		case []any:
			names, err := stringSlice(p)
			if err != nil {
				return querySpec{}, fmt.Errorf("%w: %q: %v", ErrInvalidQuerySpec, name, err)
			}

			out.parameters = names
		default:
			return querySpec{}, fmt.Errorf("%w: %q: unsupported parameters type %T", ErrInvalidQuerySpec, name, params)
		}
	}

	return out, nil
}

func stringSlice(values []any) ([]string, error) {
	out := make([]string, 0, len(values))

	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}

		out = append(out, s)
	}

	return out, nil
}
