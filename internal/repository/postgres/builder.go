package postgres

import (
	"fmt"
	"strconv"
	"strings"

	domcol "github.com/kailas-cloud/kbase/internal/domain/collection"
	"github.com/kailas-cloud/kbase/internal/domain/collection/field"
	"github.com/kailas-cloud/kbase/internal/domain/search/filter"
	"github.com/kailas-cloud/kbase/internal/domain/search/request"
)

// sqlBuilder renders predicates and orderings with positional arguments.
type sqlBuilder struct {
	args []any
}

func (b *sqlBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

// value renders the text value of a field; absent fields are NULL.
func (b *sqlBuilder) value(name string) string {
	if name == domcol.IDField {
		return "id"
	}
	return "(fields->>" + b.arg(name) + ")"
}

// where renders p. Leaves are COALESCEd so that a NULL field is a definite
// non-match and NOT over it holds.
func (b *sqlBuilder) where(p filter.Predicate) string {
	switch p.Kind() {
	case filter.KindAll:
		return "TRUE"
	case filter.KindNone:
		return "FALSE"
	case filter.KindContains:
		// lower() is simple case mapping; "STRASSE" does not contain "ß" here.
		v := b.value(p.Field())
		return fmt.Sprintf("COALESCE(strpos(lower(%s), lower(%s)) > 0, FALSE)", v, b.arg(p.Value()))
	case filter.KindEquals:
		v := b.value(p.Field())
		return fmt.Sprintf("COALESCE(%s = %s, FALSE)", v, b.arg(p.Value()))
	case filter.KindNot:
		return "NOT " + b.where(p.Children()[0])
	case filter.KindAnd, filter.KindOr:
		op := " AND "
		if p.Kind() == filter.KindOr {
			op = " OR "
		}
		children := p.Children()
		parts := make([]string, len(children))
		for i, c := range children {
			parts[i] = b.where(c)
		}
		return "(" + strings.Join(parts, op) + ")"
	}
	return "FALSE"
}

// orderBy renders keys with typed casts, ending with id for a stable order.
// Postgres puts NULLs last ascending and first descending.
func (b *sqlBuilder) orderBy(col domcol.Collection, keys []request.SortKey) string {
	parts := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		expr := b.value(k.Field())
		if f, ok := col.FieldByName(k.Field()); ok {
			switch f.FieldType() {
			case field.Numeric:
				expr += "::double precision"
			case field.Datetime:
				expr += "::timestamptz"
			}
		}
		if k.Desc() {
			expr += " DESC"
		}
		parts = append(parts, expr)
	}
	parts = append(parts, "id")
	return strings.Join(parts, ", ")
}

// selectQuery renders the fetch statement for plan.
func selectQuery(table string, col domcol.Collection, plan request.Plan) (string, []any) {
	b := &sqlBuilder{}
	var q strings.Builder
	q.WriteString("SELECT id, fields, revision FROM ")
	q.WriteString(quote(table))
	q.WriteString(" WHERE collection = ")
	q.WriteString(b.arg(col.Name()))
	q.WriteString(" AND ")
	q.WriteString(b.where(plan.Where))
	q.WriteString(" ORDER BY ")
	q.WriteString(b.orderBy(col, plan.Order))
	if plan.Limit > 0 {
		q.WriteString(" LIMIT ")
		q.WriteString(b.arg(plan.Limit))
	}
	if plan.Offset > 0 {
		q.WriteString(" OFFSET ")
		q.WriteString(b.arg(plan.Offset))
	}
	return q.String(), b.args
}

// countQuery renders the count statement for where.
func countQuery(table, collectionName string, where filter.Predicate) (string, []any) {
	b := &sqlBuilder{}
	q := "SELECT count(*) FROM " + quote(table) +
		" WHERE collection = " + b.arg(collectionName) +
		" AND " + b.where(where)
	return q, b.args
}
