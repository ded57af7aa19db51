package dbmap

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/sllt/dbmap/pkg/dbmap/template"
)

var queryNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// queryStatement is one compiled statement of a query. Statements whose
// template references interpolation keys are re-parsed per call, because
// the structural text depends on call-time values; everything else is
// parsed once here.
type queryStatement struct {
	raw        string
	interpKeys []string
	parsed     *template.Statement // nil when interpKeys is non-empty
}

func (qs *queryStatement) dynamic() bool {
	return len(qs.interpKeys) > 0
}

// compiled is the per-call, per-style form of a statement: native driver
// text plus the parsed statement the binding args come from.
type compiled struct {
	text   string
	parsed *template.Statement
}

// Query is the immutable definition of one named operation: ordered
// statements plus the canonical formal-parameter list callers bind
// positional arguments against.
type Query struct {
	name       string
	statements []*queryStatement
	formals    []string
	interpKeys []string
	explicit   bool

	mu   sync.Mutex
	memo map[string]*compiled
}

// Name returns the operation name.
func (q *Query) Name() string {
	return q.name
}

// Parameters returns the formal parameter names in declaration order.
func (q *Query) Parameters() []string {
	out := make([]string, len(q.formals))
	copy(out, q.formals)

	return out
}

// dynamic reports whether any statement depends on unsafe interpolation.
func (q *Query) dynamic() bool {
	return len(q.interpKeys) > 0
}

// newQuery assembles a query definition from raw statement templates and an
// optional explicit formal-parameter list. All assembly-time validation
// happens here; a query that fails never reaches the registry.
func newQuery(name string, statements []string, parameters []string) (*Query, error) {
	if !queryNamePattern.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidQueryName, name)
	}

	if len(statements) == 0 {
		return nil, fmt.Errorf("%w: %q has no statements", ErrInvalidQuerySpec, name)
	}

	q := &Query{
		name:     name,
		explicit: len(parameters) > 0,
		memo:     map[string]*compiled{},
	}

	seenFormal := map[string]struct{}{}
	seenInterp := map[string]struct{}{}

	for _, text := range statements {
		keys, err := template.Keys(text)
		if err != nil {
			return nil, err
		}

		// A %% escape in a statement without interpolation keys resolves here,
		// once, since no per-call pass will run for it.
		if len(keys) == 0 && strings.Contains(text, "%%") {
			resolved, err := template.Interpolate(text, nil)
			if err != nil {
				return nil, err
			}

			text = resolved
		}

		qs := &queryStatement{raw: text, interpKeys: keys}

		for _, k := range keys {
			if _, ok := seenInterp[k]; !ok {
				seenInterp[k] = struct{}{}
				q.interpKeys = append(q.interpKeys, k)
			}
		}

		// Statements with interpolation keys are parsed per call; the
		// statically visible placeholders still contribute to the formal
		// parameter list.
		parsed, err := template.Parse(text)
		if err != nil {
			return nil, err
		}

		if !qs.dynamic() {
			qs.parsed = parsed
		}

		if err := checkPositional(parsed, q.explicit); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		for _, p := range parsed.DistinctParams() {
			if _, ok := seenFormal[p]; !ok {
				seenFormal[p] = struct{}{}
				q.formals = append(q.formals, p)
			}
		}

		q.statements = append(q.statements, qs)
	}

	if q.explicit {
		declared := make(map[string]struct{}, len(parameters))
		for _, p := range parameters {
			declared[p] = struct{}{}
		}

		for _, used := range q.formals {
			if _, ok := declared[used]; !ok {
				return nil, fmt.Errorf("%w: %q used by %q but not declared", ErrUnknownParameter, used, name)
			}
		}

		q.formals = append([]string(nil), parameters...)
	}

	return q, nil
}

// checkPositional enforces the positional-placeholder rules: positional
// names are rejected when an explicit parameter list is declared, and must
// otherwise form a contiguous zero-based sequence within the statement.
func checkPositional(st *template.Statement, explicit bool) error {
	var indices []int

	for _, name := range st.DistinctParams() {
		if !template.IsPositional(name) {
			continue
		}

		if explicit {
			return fmt.Errorf("%w: %q combined with an explicit parameter list", ErrPositionalParameter, name)
		}

		n, err := strconv.Atoi(name[1:])
		if err != nil {
			return fmt.Errorf("%w: %q", ErrPositionalParameter, name)
		}

		indices = append(indices, n)
	}

	sort.Ints(indices)

	for i, n := range indices {
		if n != i {
			return fmt.Errorf("%w: positions must be contiguous from _0, got _%d", ErrPositionalParameter, n)
		}
	}

	return nil
}

// compile resolves one statement for a call: the unsafe interpolation pass,
// the placeholder parse, and the paramstyle translation. Results are
// memoized per (style, resolved text), so statements without interpolation
// hit the cache on every call and dynamic statements hit it whenever the
// resolved structural text repeats.
func (q *Query) compile(qs *queryStatement, style template.ParamStyle, kwargs map[string]any) (*compiled, error) {
	text := qs.raw

	if qs.dynamic() {
		resolved, err := template.Interpolate(text, kwargs)
		if err != nil {
			return nil, err
		}

		text = resolved
	}

	key := string(style) + "\x00" + text

	q.mu.Lock()
	hit, ok := q.memo[key]
	q.mu.Unlock()

	if ok {
		return hit, nil
	}

	parsed := qs.parsed

	if parsed == nil {
		p, err := template.Parse(text)
		if err != nil {
			return nil, err
		}

		parsed = p
	}

	native, err := parsed.Translate(style)
	if err != nil {
		return nil, err
	}

	c := &compiled{text: native, parsed: parsed}

	q.mu.Lock()
	q.memo[key] = c
	q.mu.Unlock()

	return c, nil
}

// memoSize reports the number of cached (style, text) translations.
func (q *Query) memoSize() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.memo)
}
