package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// ErrSyntax reports a malformed query configuration file.
var ErrSyntax = errors.New("[config] query file syntax error")

// ParseQueryFile reads the section-based query file format:
//
//	[DATABASE]
//	database = app.db
//
//	[QUERY create_user]
//	parameters = name password
//	statement1 = INSERT INTO users(name, password) VALUES(${name}, ${password})
//	statement2 = SELECT last_insert_rowid() AS id
//
// Values continue onto following lines when those lines are indented.
// Every [QUERY name] section becomes an entry of the returned mapping's
// QUERIES section, with statementN keys ordered by N; other sections are
// passed through under their own names.
func ParseQueryFile(r io.Reader) (map[string]any, error) {
	sections, order, err := scanSections(r)
	if err != nil {
		return nil, err
	}

	cfg := map[string]any{}
	queries := map[string]any{}

	for _, name := range order {
		contents := sections[name]

		if name != "QUERY" && !strings.HasPrefix(name, "QUERY ") {
			cfg[name] = anyMap(contents)
			continue
		}

		queryName := strings.TrimSpace(strings.TrimPrefix(name, "QUERY"))
		if queryName == "" {
			return nil, fmt.Errorf("%w: [QUERY] section is missing a name", ErrSyntax)
		}

		spec := map[string]any{
			"statements": statementValues(contents),
		}

		if params, ok := contents["parameters"]; ok {
			spec["parameters"] = strings.Fields(params)
		}

		queries[queryName] = spec
	}

	if len(queries) > 0 {
		cfg["QUERIES"] = queries
	}

	return cfg, nil
}

// scanSections tokenizes the file into named key/value sections, preserving
// section order and folding indented continuation lines into the previous
// value.
func scanSections(r io.Reader) (map[string]map[string]string, []string, error) {
	sections := map[string]map[string]string{}

	var (
		order   []string
		current map[string]string
		lastKey string
		lineNo  int
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ";") {
			lastKey = ""
			continue
		}

		if strings.HasPrefix(trimmed, "[") {
			if !strings.HasSuffix(trimmed, "]") {
				return nil, nil, fmt.Errorf("%w: line %d: unterminated section header", ErrSyntax, lineNo)
			}

			name := strings.TrimSpace(trimmed[1 : len(trimmed)-1])
			if name == "" {
				return nil, nil, fmt.Errorf("%w: line %d: empty section name", ErrSyntax, lineNo)
			}

			if _, exists := sections[name]; exists {
				return nil, nil, fmt.Errorf("%w: line %d: duplicate section %q", ErrSyntax, lineNo, name)
			}

			current = map[string]string{}
			sections[name] = current
			order = append(order, name)
			lastKey = ""

			continue
		}

		if current == nil {
			return nil, nil, fmt.Errorf("%w: line %d: value outside any section", ErrSyntax, lineNo)
		}

		// Indented lines continue the previous value.
		if line != strings.TrimLeft(line, " \t") {
			if lastKey == "" {
				return nil, nil, fmt.Errorf("%w: line %d: continuation without a preceding key", ErrSyntax, lineNo)
			}

			current[lastKey] += " " + trimmed

			continue
		}

		key, value, ok := strings.Cut(trimmed, "=")
		if !ok {
			return nil, nil, fmt.Errorf("%w: line %d: expected key = value", ErrSyntax, lineNo)
		}

		key = strings.TrimSpace(key)
		if key == "" {
			return nil, nil, fmt.Errorf("%w: line %d: empty key", ErrSyntax, lineNo)
		}

		if _, exists := current[key]; exists {
			return nil, nil, fmt.Errorf("%w: line %d: duplicate key %q", ErrSyntax, lineNo, key)
		}

		current[key] = strings.TrimSpace(value)
		lastKey = key
	}

	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}

	return sections, order, nil
}

// statementValues collects the statementN values of a QUERY section in
// numeric order; a bare "statement" key sorts first.
func statementValues(contents map[string]string) []any {
	type numbered struct {
		n    int
		text string
	}

	var stmts []numbered

	for key, value := range contents {
		if !strings.HasPrefix(key, "statement") {
			continue
		}

		n, err := strconv.Atoi(key[len("statement"):])
		if err != nil {
			n = 0
		}

		stmts = append(stmts, numbered{n: n, text: value})
	}

	sort.Slice(stmts, func(i, j int) bool { return stmts[i].n < stmts[j].n })

	out := make([]any, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, s.text)
	}

	return out
}

func anyMap(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}

	return out
}
