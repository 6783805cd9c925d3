package search

import (
	"context"

	domcol "github.com/kailas-cloud/kbase/internal/domain/collection"
	"github.com/kailas-cloud/kbase/internal/domain/search/filter"
	"github.com/kailas-cloud/kbase/internal/domain/search/request"
)

// Queryable is the chainable search surface shared by QuerySet and Manager.
type Queryable interface {
	Search(raw string, fields ...string) QuerySet
	Filter(p filter.Predicate) QuerySet
	Where(field, value string) QuerySet
	OrderBy(keys ...request.SortKey) QuerySet
	Slice(offset, limit int) QuerySet
	None() QuerySet
	All(ctx context.Context) (Results, error)
	Count(ctx context.Context) (int, error)
}

var (
	_ Queryable = QuerySet{}
	_ Queryable = (*Manager)(nil)
)

// QuerySet is a lazily evaluated search over one collection. Each method
// returns a derived QuerySet; nothing is fetched until All or Count.
type QuerySet struct {
	svc *Service
	col domcol.Collection
	req request.Request
}

// Search narrows the set to records matching raw. Fields are resolved from,
// in order: the fields given here, fields accumulated by earlier searches or
// manager defaults, the collection's search fields, and finally every text
// field of the collection. With none resolvable the set matches nothing.
func (q QuerySet) Search(raw string, fields ...string) QuerySet {
	q.req = q.req.Search(raw, q.resolveFields(fields))
	return q
}

func (q QuerySet) resolveFields(override []string) []string {
	if len(override) > 0 {
		return override
	}
	if acc := q.req.Fields(); len(acc) > 0 {
		return acc
	}
	return q.col.DefaultSearchFields()
}

// Filter narrows the set by an arbitrary predicate.
func (q QuerySet) Filter(p filter.Predicate) QuerySet {
	q.req = q.req.Filter(p)
	return q
}

// Where narrows the set to records whose field equals value exactly.
func (q QuerySet) Where(field, value string) QuerySet {
	q.req = q.req.Where(field, value)
	return q
}

// OrderBy sorts by keys and disables relevance ranking for this set and
// every set derived from it.
func (q QuerySet) OrderBy(keys ...request.SortKey) QuerySet {
	q.req = q.req.OrderBy(keys...)
	return q
}

// Slice limits the set to a window of results.
func (q QuerySet) Slice(offset, limit int) QuerySet {
	q.req = q.req.Slice(offset, limit)
	return q
}

// None returns an empty set.
func (q QuerySet) None() QuerySet {
	q.req = q.req.None()
	return q
}

// All executes the search.
func (q QuerySet) All(ctx context.Context) (Results, error) {
	return q.svc.Execute(ctx, q.col, q.req)
}

// Count returns the number of matching records, ignoring the slice window.
func (q QuerySet) Count(ctx context.Context) (int, error) {
	return q.svc.Count(ctx, q.col, q.req)
}

// Request returns the accumulated request.
func (q QuerySet) Request() request.Request { return q.req }

// Collection returns the collection the set searches.
func (q QuerySet) Collection() domcol.Collection { return q.col }
