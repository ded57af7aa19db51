package template

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrTemplateSyntax reports malformed placeholder or interpolation syntax.
	ErrTemplateSyntax = errors.New("[template] malformed template syntax")
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// positional identifiers look like _0, _1, ...
var positionalPattern = regexp.MustCompile(`^_[0-9]+$`)

// segment is one run of a parsed template: either literal SQL text or a
// single safe-placeholder occurrence.
type segment struct {
	text    string
	param   string
	isParam bool
}

// Statement is the parsed form of one SQL template: literal text split
// around safe-placeholder occurrences, with the occurrence-ordered
// parameter name list (duplicates preserved).
type Statement struct {
	source   string
	segments []segment
	params   []string
}

// Parse scans text left to right for ${identifier} placeholders.
// An unterminated ${ or an invalid identifier fails with ErrTemplateSyntax.
func Parse(text string) (*Statement, error) {
	st := &Statement{source: text}

	var literal strings.Builder

	for i := 0; i < len(text); {
		if text[i] != '$' || i+1 >= len(text) || text[i+1] != '{' {
			literal.WriteByte(text[i])
			i++

			continue
		}

		end := strings.IndexByte(text[i+2:], '}')
		if end < 0 {
			return nil, fmt.Errorf("%w: unterminated placeholder at offset %d", ErrTemplateSyntax, i)
		}

		name := text[i+2 : i+2+end]
		if !identifierPattern.MatchString(name) {
			return nil, fmt.Errorf("%w: invalid placeholder name %q", ErrTemplateSyntax, name)
		}

		if literal.Len() > 0 {
			st.segments = append(st.segments, segment{text: literal.String()})
			literal.Reset()
		}

		st.segments = append(st.segments, segment{param: name, isParam: true})
		st.params = append(st.params, name)
		i += end + 3
	}

	if literal.Len() > 0 {
		st.segments = append(st.segments, segment{text: literal.String()})
	}

	return st, nil
}

// Source returns the template text the statement was parsed from.
func (s *Statement) Source() string {
	return s.source
}

// Params returns the placeholder names in occurrence order, one entry per
// occurrence. A name used twice appears twice.
func (s *Statement) Params() []string {
	out := make([]string, len(s.params))
	copy(out, s.params)

	return out
}

// DistinctParams returns the placeholder names de-duplicated in first-seen
// order.
func (s *Statement) DistinctParams() []string {
	seen := make(map[string]struct{}, len(s.params))
	out := make([]string, 0, len(s.params))

	for _, name := range s.params {
		if _, ok := seen[name]; ok {
			continue
		}

		seen[name] = struct{}{}
		out = append(out, name)
	}

	return out
}

// IsPositional reports whether name is a positional identifier (_0, _1, ...).
func IsPositional(name string) bool {
	return positionalPattern.MatchString(name)
}
