package template

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingInterpolation reports a %(name)s reference with no supplied value.
	ErrMissingInterpolation = errors.New("[template] missing interpolation value")
)

// Interpolate substitutes every %(name)s occurrence in text with the literal
// rendering of kwargs[name]. The substituted text is not quoted or escaped
// in any way; callers own the safety of inserted fragments. %% renders a
// literal percent. Referencing a name absent from kwargs fails with
// ErrMissingInterpolation.
//
// Interpolation runs strictly before Parse, so a substituted fragment may
// introduce new ${...} placeholders.
func Interpolate(text string, kwargs map[string]any) (string, error) {
	if !strings.Contains(text, "%") {
		return text, nil
	}

	var out strings.Builder

	out.Grow(len(text))

	for i := 0; i < len(text); {
		name, width, err := interpolationAt(text, i)
		if err != nil {
			return "", err
		}

		if width == 0 {
			out.WriteByte(text[i])
			i++

			continue
		}

		if name == "" { // %%
			out.WriteByte('%')
			i += width

			continue
		}

		val, ok := kwargs[name]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrMissingInterpolation, name)
		}

		out.WriteString(fmt.Sprint(val))
		i += width
	}

	return out.String(), nil
}

// Keys returns the interpolation names referenced by text in first-seen
// order. Malformed interpolation syntax is reported the same way
// Interpolate reports it.
func Keys(text string) ([]string, error) {
	if !strings.Contains(text, "%") {
		return nil, nil
	}

	var keys []string

	seen := map[string]struct{}{}

	for i := 0; i < len(text); {
		name, width, err := interpolationAt(text, i)
		if err != nil {
			return nil, err
		}

		if width == 0 {
			i++
			continue
		}

		if name != "" {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				keys = append(keys, name)
			}
		}

		i += width
	}

	return keys, nil
}

// interpolationAt decodes the interpolation directive starting at offset i,
// if any. It returns the referenced name ("" for %%), the directive width in
// bytes (0 when text[i] starts no directive), or a syntax error for an
// unterminated or non-string directive.
func interpolationAt(text string, i int) (name string, width int, err error) {
	if text[i] != '%' {
		return "", 0, nil
	}

	if i+1 < len(text) && text[i+1] == '%' {
		return "", 2, nil
	}

	if i+1 >= len(text) || text[i+1] != '(' {
		// A bare % is common in SQL (LIKE patterns, modulo); leave it alone.
		return "", 0, nil
	}

	end := strings.IndexByte(text[i+2:], ')')
	if end < 0 {
		return "", 0, fmt.Errorf("%w: unterminated interpolation at offset %d", ErrTemplateSyntax, i)
	}

	name = text[i+2 : i+2+end]
	if name == "" || !identifierPattern.MatchString(name) {
		return "", 0, fmt.Errorf("%w: invalid interpolation name %q", ErrTemplateSyntax, name)
	}

	rest := i + 2 + end + 1
	if rest >= len(text) || text[rest] != 's' {
		return "", 0, fmt.Errorf("%w: interpolation %%(%s) must use the s conversion", ErrTemplateSyntax, name)
	}

	return name, rest - i + 1, nil
}
