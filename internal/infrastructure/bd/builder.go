// Package db composes parameterized list queries. A ListSpec describes one
// listing (tables, allow-listed filters, searchable and sortable columns);
// Build merges it with a caller's scope predicate and request criteria into a
// COUNT and a SELECT that share one predicate list.
package db

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	apperrors "sales-crm/pkg/errors"
	"sales-crm/pkg/types"
)

var Psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// FilterFunc turns a present, non-empty filter value into a predicate.
type FilterFunc func(value string) (sq.Sqlizer, error)

type FilterDef struct {
	Name  string
	Apply FilterFunc
}

type SortDef struct {
	Key  string
	Expr string
}

type ListSpec struct {
	// From is the driving table with its alias, e.g. "customers c".
	From string
	// Joins are needed by predicates and are shared by COUNT and SELECT.
	// They must not multiply rows.
	Joins []string
	// SelectJoins only feed the projection (lookup names, lateral rollups).
	SelectJoins []string
	Columns     []string
	// Base predicates always apply after the scope, e.g. soft-delete guards.
	Base []sq.Sqlizer
	// Filters are applied in declaration order.
	Filters       []FilterDef
	SearchColumns []string
	Sortable      []SortDef
	DefaultSort   string
	DefaultDir    types.SortDirection
	// TieBreaker keeps page boundaries stable when sort values repeat.
	TieBreaker string
}

type Query struct {
	Count    sq.SelectBuilder
	Select   sq.SelectBuilder
	Criteria types.Criteria
}

// Where returns the full predicate list: scope first, then base predicates,
// then caller filters and finally the search group. A nil scope is rejected
// so no listing can run without one.
func (s ListSpec) Where(scope sq.Sqlizer, c types.Criteria) (sq.And, error) {
	if scope == nil {
		return nil, apperrors.NewUpstreamError(fmt.Errorf("list on %q built without a scope predicate", s.From))
	}
	where := sq.And{scope}
	where = append(where, s.Base...)

	for _, f := range s.Filters {
		value, ok := c.Value(f.Name)
		if !ok {
			continue
		}
		pred, err := f.Apply(value)
		if err != nil {
			return nil, err
		}
		if pred != nil {
			where = append(where, pred)
		}
	}

	if term := strings.TrimSpace(c.Search); term != "" && len(s.SearchColumns) > 0 {
		pattern := "%" + EscapeLike(term) + "%"
		group := make(sq.Or, 0, len(s.SearchColumns))
		for _, col := range s.SearchColumns {
			group = append(group, sq.ILike{col: pattern})
		}
		where = append(where, group)
	}
	return where, nil
}

// Filtered returns "SELECT <columns> FROM <from+joins> WHERE <predicates>"
// without projection joins, ordering or paging. Aggregations build on it so
// they count exactly what the listing shows.
func (s ListSpec) Filtered(scope sq.Sqlizer, c types.Criteria, columns ...string) (sq.SelectBuilder, error) {
	where, err := s.Where(scope, c)
	if err != nil {
		return sq.SelectBuilder{}, err
	}
	b := Psql.Select(columns...).From(s.From)
	for _, j := range s.Joins {
		b = b.JoinClause(j)
	}
	return b.Where(where), nil
}

func (s ListSpec) Build(scope sq.Sqlizer, c types.Criteria) (*Query, error) {
	c = c.Normalized()

	count, err := s.Filtered(scope, c, "COUNT(*)")
	if err != nil {
		return nil, err
	}
	sel, err := s.Filtered(scope, c, s.Columns...)
	if err != nil {
		return nil, err
	}
	for _, j := range s.SelectJoins {
		sel = sel.JoinClause(j)
	}
	sel = sel.OrderBy(s.orderBy(c)...).
		Limit(uint64(c.Limit)).
		Offset(c.Offset())

	return &Query{Count: count, Select: sel, Criteria: c}, nil
}

func (s ListSpec) orderBy(c types.Criteria) []string {
	expr := ""
	for _, d := range s.Sortable {
		if d.Key == c.SortBy {
			expr = d.Expr
			break
		}
	}
	dir := c.SortDir
	if expr == "" {
		expr, dir = s.defaultSort()
	}
	if dir == "" {
		dir = types.SortAsc
	}

	sqlDir := "ASC"
	if dir == types.SortDesc {
		sqlDir = "DESC"
	}
	clauses := []string{fmt.Sprintf("%s %s NULLS LAST", expr, sqlDir)}
	if s.TieBreaker != "" && s.TieBreaker != expr {
		clauses = append(clauses, fmt.Sprintf("%s %s", s.TieBreaker, sqlDir))
	}
	return clauses
}

func (s ListSpec) defaultSort() (string, types.SortDirection) {
	for _, d := range s.Sortable {
		if d.Key == s.DefaultSort {
			dir := s.DefaultDir
			if dir == "" {
				dir = types.SortDesc
			}
			return d.Expr, dir
		}
	}
	return s.TieBreaker, types.SortDesc
}

// EscapeLike makes LIKE wildcards in user input match literally.
func EscapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// ---- filter constructors ----

func EqInt64(column string) FilterFunc {
	return func(value string) (sq.Sqlizer, error) {
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil || id <= 0 {
			return nil, apperrors.NewValidationError("filter %s: %q is not a valid id", column, value)
		}
		return sq.Eq{column: id}, nil
	}
}

// InInt64 accepts a comma separated id list.
func InInt64(column string) FilterFunc {
	return func(value string) (sq.Sqlizer, error) {
		var ids []int64
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id <= 0 {
				return nil, apperrors.NewValidationError("filter %s: %q is not a valid id", column, part)
			}
			ids = append(ids, id)
		}
		if len(ids) == 0 {
			return nil, nil
		}
		return sq.Eq{column: ids}, nil
	}
}

func EqString(column string) FilterFunc {
	return func(value string) (sq.Sqlizer, error) {
		return sq.Eq{column: value}, nil
	}
}

func OneOf(column string, allowed []string) FilterFunc {
	return func(value string) (sq.Sqlizer, error) {
		for _, a := range allowed {
			if a == value {
				return sq.Eq{column: value}, nil
			}
		}
		return nil, apperrors.NewValidationError("filter %s: unsupported value %q", column, value)
	}
}

func Bool(column string) FilterFunc {
	return func(value string) (sq.Sqlizer, error) {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, apperrors.NewValidationError("filter %s: %q is not a boolean", column, value)
		}
		return sq.Eq{column: b}, nil
	}
}

// DateFrom is inclusive. A bare date starts at midnight UTC.
func DateFrom(column string) FilterFunc {
	return func(value string) (sq.Sqlizer, error) {
		t, _, err := parseTime(value)
		if err != nil {
			return nil, apperrors.NewValidationError("filter %s: %q is not a date", column, value)
		}
		return sq.GtOrEq{column: t}, nil
	}
}

// DateTo is inclusive. A bare date covers the whole day.
func DateTo(column string) FilterFunc {
	return func(value string) (sq.Sqlizer, error) {
		t, dateOnly, err := parseTime(value)
		if err != nil {
			return nil, apperrors.NewValidationError("filter %s: %q is not a date", column, value)
		}
		if dateOnly {
			return sq.Lt{column: t.AddDate(0, 0, 1)}, nil
		}
		return sq.LtOrEq{column: t}, nil
	}
}

func parseTime(value string) (time.Time, bool, error) {
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	return t, false, err
}
