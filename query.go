package kbase

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/kailas-cloud/kbase/internal/domain/search/request"
	searchuc "github.com/kailas-cloud/kbase/internal/usecase/search"
)

// Query is a chainable typed search. Each method returns a new Query, so a
// partially built one can be reused as the base of several others.
// Nothing runs until Do or Count.
type Query[T any] struct {
	idx    *Index[T]
	steps  []func(searchuc.QuerySet) searchuc.QuerySet
	order  []string
	offset int
	limit  int
}

func (q *Query[T]) with(step func(searchuc.QuerySet) searchuc.QuerySet) *Query[T] {
	next := *q
	next.steps = append(slices.Clip(q.steps), step)
	return &next
}

// Search narrows the results to items matching raw. Without fields it
// searches the fields used by earlier Search calls, then the fields tagged
// `search`, then every text field.
func (q *Query[T]) Search(raw string, fields ...string) *Query[T] {
	return q.with(func(qs searchuc.QuerySet) searchuc.QuerySet { return qs.Search(raw, fields...) })
}

// Where keeps items whose field equals value.
func (q *Query[T]) Where(field, value string) *Query[T] {
	return q.with(func(qs searchuc.QuerySet) searchuc.QuerySet { return qs.Where(field, value) })
}

// Published keeps items whose status is "Published".
func (q *Query[T]) Published() *Query[T] {
	return q.Where(searchuc.StatusField, searchuc.StatusPublished)
}

// OrderBy sorts by the given keys ("name" ascending, "-name" descending)
// instead of relevance. Calling it with no keys still disables ranking.
func (q *Query[T]) OrderBy(specs ...string) *Query[T] {
	next := *q
	next.order = append([]string{}, specs...)
	return &next
}

// Offset skips the first n results.
func (q *Query[T]) Offset(n int) *Query[T] {
	next := *q
	next.offset = n
	return &next
}

// Limit caps the number of results. Zero means no limit.
func (q *Query[T]) Limit(n int) *Query[T] {
	next := *q
	next.limit = n
	return &next
}

func (q *Query[T]) build(ctx context.Context) (searchuc.QuerySet, error) {
	m, err := q.idx.client.searchSvc.Manager(ctx, q.idx.name)
	if err != nil {
		return searchuc.QuerySet{}, err
	}
	qs := m.Query()
	for _, step := range q.steps {
		qs = step(qs)
	}
	if q.order != nil {
		keys, err := request.ParseSortKeys(q.order...)
		if err != nil {
			return searchuc.QuerySet{}, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
		}
		qs = qs.OrderBy(keys...)
	}
	if q.offset < 0 || q.limit < 0 {
		return searchuc.QuerySet{}, fmt.Errorf("%w: negative offset or limit", ErrInvalidSchema)
	}
	return qs.Slice(q.offset, q.limit), nil
}

// Do runs the query.
func (q *Query[T]) Do(ctx context.Context) (_ []Hit[T], err error) {
	start := time.Now()
	defer func() { q.idx.client.obs.observe("search.do", start, err) }()

	qs, err := q.build(ctx)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	res, err := qs.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	hits := make([]Hit[T], len(res.Hits))
	for i, h := range res.Hits {
		item, err := fromRecord[T](q.idx.meta, h.ID(), h.Fields())
		if err != nil {
			return nil, fmt.Errorf("query: %w", err)
		}
		hits[i] = Hit[T]{Item: item, Score: h.Score()}
	}
	return hits, nil
}

// Count returns how many items match, ignoring Offset and Limit.
func (q *Query[T]) Count(ctx context.Context) (_ int, err error) {
	start := time.Now()
	defer func() { q.idx.client.obs.observe("search.count", start, err) }()

	qs, err := q.build(ctx)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	n, err := qs.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}
