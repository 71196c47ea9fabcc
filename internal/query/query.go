// Package query implements the generic filter, search, ordering and
// pagination engine shared by every listing in the application. Field
// names arriving from clients are resolved through a closed per-entity
// column map; names that are not in the map are dropped silently.
package query

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Direction of an ordering key.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Order is one (field, direction) sort key.
type Order struct {
	Field string
	Dir   Direction
}

// Search is the list request every domain module accepts. All parts are
// optional; the zero value matches the full entity set.
type Search struct {
	// Text is matched as a case-insensitive substring against Field, or
	// OR-combined across Fields when more than one column is searchable.
	Text   string
	Field  string
	Fields []string

	// Filters are AND-combined equality constraints keyed by field name.
	Filters map[string]any

	// OrderBy keys are applied left to right.
	OrderBy []Order

	// Page is 1-based. PerPage is clamped to MaxPerPage.
	Page       int
	PerPage    int
	MaxPerPage int
}

// Spec describes the filterable surface of one entity.
type Spec struct {
	// Table is the relation the entity lives in.
	Table string
	// Columns maps permitted field names to column expressions.
	Columns map[string]string
	// DefaultOrder applies when the request carries no valid order keys.
	DefaultOrder []Order
}

// Validate checks that the default order only references known fields.
func (s Spec) Validate() error {
	if s.Table == "" {
		return fmt.Errorf("query: spec has no table")
	}
	if len(s.Columns) == 0 {
		return fmt.Errorf("query: spec for %s has no columns", s.Table)
	}
	for _, o := range s.DefaultOrder {
		if _, ok := s.Columns[o.Field]; !ok {
			return fmt.Errorf("query: default order field %q not declared on %s", o.Field, s.Table)
		}
	}
	return nil
}

// MustSpec validates the spec at package initialisation time.
func MustSpec(s Spec) Spec {
	if err := s.Validate(); err != nil {
		panic(err)
	}
	return s
}

const (
	defaultPerPage = 20
	defaultMaxPage = 100
)

// Fragment holds the built SQL pieces. Where and Order carry no leading
// keyword so repositories can splice them into arbitrary SELECTs.
type Fragment struct {
	Where  string
	Args   []any
	Order  string
	Limit  int
	Offset int

	// Normalised pagination inputs, echoed back for page metadata.
	Page    int
	PerPage int
}

// Build translates the search request into SQL fragments against spec.
// Unknown field names never produce an error; they are skipped.
func Build(spec Spec, s Search) Fragment {
	f := Fragment{}
	var conds []string

	for _, name := range sortedKeys(s.Filters) {
		col, ok := spec.Columns[name]
		if !ok {
			continue
		}
		f.Args = append(f.Args, s.Filters[name])
		conds = append(conds, col+" = $"+strconv.Itoa(len(f.Args)))
	}

	if s.Text != "" {
		if cond, ok := f.textCond(spec, s); ok {
			conds = append(conds, cond)
		}
	}

	f.Where = strings.Join(conds, " AND ")
	f.Order = orderClause(spec, s.OrderBy)

	page := s.Page
	if page < 1 {
		page = 1
	}
	maxPerPage := s.MaxPerPage
	if maxPerPage <= 0 {
		maxPerPage = defaultMaxPage
	}
	perPage := s.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	f.Page = page
	f.PerPage = perPage
	f.Limit = perPage
	f.Offset = (page - 1) * perPage
	return f
}

// LimitOffset appends the LIMIT/OFFSET arguments and returns the SQL
// suffix referencing them. Call after the count query has consumed the
// filter arguments.
func (f *Fragment) LimitOffset() string {
	f.Args = append(f.Args, f.Limit)
	limit := "$" + strconv.Itoa(len(f.Args))
	f.Args = append(f.Args, f.Offset)
	offset := "$" + strconv.Itoa(len(f.Args))
	return " LIMIT " + limit + " OFFSET " + offset
}

// And appends a raw condition, substituting each '?' with the next
// positional placeholder. Used by callers layering pre-resolved
// conditions (date ranges, ID sets) on top of the generic filters.
func (f *Fragment) And(cond string, args ...any) {
	var b strings.Builder
	for _, part := range strings.SplitAfter(cond, "?") {
		if strings.HasSuffix(part, "?") {
			b.WriteString(part[:len(part)-1])
			b.WriteString("$")
			f.Args = append(f.Args, args[0])
			args = args[1:]
			b.WriteString(strconv.Itoa(len(f.Args)))
			continue
		}
		b.WriteString(part)
	}
	if f.Where == "" {
		f.Where = b.String()
		return
	}
	f.Where += " AND " + b.String()
}

func (f *Fragment) textCond(spec Spec, s Search) (string, bool) {
	pattern := "%" + EscapeLike(s.Text) + "%"

	if s.Field != "" {
		col, ok := spec.Columns[s.Field]
		if !ok {
			return "", false
		}
		f.Args = append(f.Args, pattern)
		return col + " ILIKE $" + strconv.Itoa(len(f.Args)), true
	}

	var cols []string
	for _, name := range s.Fields {
		if col, ok := spec.Columns[name]; ok {
			cols = append(cols, col)
		}
	}
	if len(cols) == 0 {
		return "", false
	}
	f.Args = append(f.Args, pattern)
	ph := "$" + strconv.Itoa(len(f.Args))
	if len(cols) == 1 {
		return cols[0] + " ILIKE " + ph, true
	}
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = col + " ILIKE " + ph
	}
	return "(" + strings.Join(parts, " OR ") + ")", true
}

func orderClause(spec Spec, orders []Order) string {
	var keys []string
	for _, o := range orders {
		col, ok := spec.Columns[o.Field]
		if !ok {
			continue
		}
		dir := "ASC"
		if o.Dir == Desc {
			dir = "DESC"
		}
		keys = append(keys, col+" "+dir)
	}
	if len(keys) == 0 {
		for _, o := range spec.DefaultOrder {
			dir := "ASC"
			if o.Dir == Desc {
				dir = "DESC"
			}
			keys = append(keys, spec.Columns[o.Field]+" "+dir)
		}
	}
	return strings.Join(keys, ", ")
}

// EscapeLike escapes the pattern metacharacters of LIKE/ILIKE so user
// text is matched literally.
func EscapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// Filters maps are iterated in sorted key order so the generated SQL is
// deterministic for identical requests.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
