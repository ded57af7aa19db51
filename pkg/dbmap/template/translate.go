package template

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrUnsupportedParamStyle reports a paramstyle outside the supported set.
	ErrUnsupportedParamStyle = errors.New("[template] unsupported paramstyle")
	// ErrMissingBinding reports a placeholder with no value to bind.
	ErrMissingBinding = errors.New("[template] missing binding value")
)

// ParamStyle identifies a driver parameter-binding convention.
type ParamStyle string

const (
	// Qmark binds with ? placeholders and an ordered argument list.
	Qmark ParamStyle = "qmark"
	// Numeric binds with :1, :2, ... placeholders; a repeated name reuses
	// its number.
	Numeric ParamStyle = "numeric"
	// Named binds with :name placeholders and named arguments.
	Named ParamStyle = "named"
	// Format binds with %s placeholders and an ordered argument list.
	Format ParamStyle = "format"
	// Pyformat binds with %(name)s placeholders and named arguments.
	Pyformat ParamStyle = "pyformat"
	// Dollar binds with $1, $2, ... placeholders, the PostgreSQL wire
	// convention; a repeated name reuses its number.
	Dollar ParamStyle = "dollar"
)

// NormalizeParamStyle resolves a paramstyle identifier, accepting a few
// driver-flavored aliases.
func NormalizeParamStyle(style string) (ParamStyle, error) {
	switch strings.ToLower(strings.TrimSpace(style)) {
	case string(Qmark), "question", "?":
		return Qmark, nil
	case string(Numeric):
		return Numeric, nil
	case string(Named):
		return Named, nil
	case string(Format):
		return Format, nil
	case string(Pyformat):
		return Pyformat, nil
	case string(Dollar), "postgres", "$":
		return Dollar, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedParamStyle, style)
	}
}

// ordinal returns the 1-based number of each distinct parameter name in
// first-seen order.
func (s *Statement) ordinal() map[string]int {
	m := make(map[string]int, len(s.params))

	for _, name := range s.params {
		if _, ok := m[name]; !ok {
			m[name] = len(m) + 1
		}
	}

	return m
}

// Translate rewrites the statement's placeholders into the native syntax of
// the given paramstyle and returns the driver-ready SQL text. A statement
// with no placeholders translates to its input text for every style.
func (s *Statement) Translate(style ParamStyle) (string, error) {
	var numbers map[string]int

	switch style {
	case Qmark, Named, Format, Pyformat:
	case Numeric, Dollar:
		numbers = s.ordinal()
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedParamStyle, style)
	}

	var out strings.Builder

	out.Grow(len(s.source))

	for _, seg := range s.segments {
		if !seg.isParam {
			out.WriteString(seg.text)
			continue
		}

		switch style {
		case Qmark:
			out.WriteByte('?')
		case Numeric:
			out.WriteByte(':')
			out.WriteString(strconv.Itoa(numbers[seg.param]))
		case Named:
			out.WriteByte(':')
			out.WriteString(seg.param)
		case Format:
			out.WriteString("%s")
		case Pyformat:
			out.WriteString("%(")
			out.WriteString(seg.param)
			out.WriteString(")s")
		case Dollar:
			out.WriteByte('$')
			out.WriteString(strconv.Itoa(numbers[seg.param]))
		}
	}

	return out.String(), nil
}

// BindArgs builds the driver argument list for the given paramstyle from a
// name-to-value mapping. Ordered styles (qmark, format) repeat a value per
// occurrence; numbered styles (numeric, dollar) emit one value per distinct
// name in first-seen order; named styles (named, pyformat) emit one
// sql.Named argument per distinct name. Callers supply each value once
// regardless of style.
func (s *Statement) BindArgs(style ParamStyle, values map[string]any) ([]any, error) {
	if len(s.params) == 0 {
		return nil, nil
	}

	lookup := func(name string) (any, error) {
		val, ok := values[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingBinding, name)
		}

		return val, nil
	}

	switch style {
	case Qmark, Format:
		args := make([]any, 0, len(s.params))

		for _, name := range s.params {
			val, err := lookup(name)
			if err != nil {
				return nil, err
			}

			args = append(args, val)
		}

		return args, nil

	case Numeric, Dollar:
		distinct := s.DistinctParams()
		args := make([]any, 0, len(distinct))

		for _, name := range distinct {
			val, err := lookup(name)
			if err != nil {
				return nil, err
			}

			args = append(args, val)
		}

		return args, nil

	case Named, Pyformat:
		distinct := s.DistinctParams()
		args := make([]any, 0, len(distinct))

		for _, name := range distinct {
			val, err := lookup(name)
			if err != nil {
				return nil, err
			}

			args = append(args, sql.Named(name, val))
		}

		return args, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedParamStyle, style)
	}
}
