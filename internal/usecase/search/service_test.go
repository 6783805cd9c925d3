package search

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/kailas-cloud/kbase/internal/domain"
	domcol "github.com/kailas-cloud/kbase/internal/domain/collection"
	"github.com/kailas-cloud/kbase/internal/domain/collection/field"
	domrec "github.com/kailas-cloud/kbase/internal/domain/record"
	"github.com/kailas-cloud/kbase/internal/domain/search/filter"
	"github.com/kailas-cloud/kbase/internal/domain/search/request"
)

func mustManager(t *testing.T, svc *Service, defaults ...string) *Manager {
	t.Helper()
	m, err := svc.Manager(context.Background(), "snippets", defaults...)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return m
}

func TestSearch_RanksByOccurrences(t *testing.T) {
	src := &mockSource{recs: []domrec.Record{
		rec("b", map[string]string{"title": "a cow"}),
		rec("a", map[string]string{"title": "Cow eats cow"}),
		rec("c", map[string]string{"title": "horse"}),
	}}
	m := mustManager(t, newTestService(src))

	res, err := m.Search("cow").All(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := hitIDs(res); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("expected [a b], got %v", got)
	}
	if res.Ordering != request.Relevance {
		t.Errorf("expected relevance ordering, got %s", res.Ordering)
	}
	if res.Hits[0].Score() != 2 || res.Hits[1].Score() != 1 {
		t.Errorf("unexpected scores %v, %v", res.Hits[0].Score(), res.Hits[1].Score())
	}
}

func TestSearch_ExplicitOrderingDisablesRanking(t *testing.T) {
	recs := []domrec.Record{
		rec("b", map[string]string{"title": "a cow"}),
		rec("a", map[string]string{"title": "cow cow"}),
	}

	tests := []struct {
		name  string
		build func(m *Manager) QuerySet
	}{
		{"order before search", func(m *Manager) QuerySet { return m.OrderBy(request.Asc("title")).Search("cow") }},
		{"order after search", func(m *Manager) QuerySet { return m.Search("cow").OrderBy(request.Asc("title")) }},
		{"empty order", func(m *Manager) QuerySet { return m.OrderBy().Search("cow").Search("eats") }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			src := &mockSource{recs: recs}
			m := mustManager(t, newTestService(src))

			res, err := tc.build(m).All(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Ordering != request.Explicit {
				t.Errorf("expected explicit ordering, got %s", res.Ordering)
			}
			for _, h := range res.Hits {
				if h.Score() != 0 {
					t.Errorf("expected unscored hit, got %v", h.Score())
				}
			}
		})
	}
}

func TestSearch_ExplicitOrderingReachesSource(t *testing.T) {
	src := &mockSource{}
	m := mustManager(t, newTestService(src))

	if _, err := m.Search("cow").OrderBy(request.Desc("title")).All(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(src.lastPlan.Order) != 1 || src.lastPlan.Order[0] != request.Desc("title") {
		t.Errorf("expected -title, got %v", src.lastPlan.Order)
	}
}

func TestSearch_DefaultOrderingKeepsRanking(t *testing.T) {
	src := &mockSource{}
	m := mustManager(t, newTestService(src))

	res, err := m.Search("cow").All(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Ordering != request.Relevance {
		t.Errorf("expected relevance, got %s", res.Ordering)
	}
	if len(src.lastPlan.Order) != 1 || src.lastPlan.Order[0] != request.Desc("date_created") {
		t.Errorf("expected collection default ordering, got %v", src.lastPlan.Order)
	}
}

func TestSearch_RequiredSuppressesOptional(t *testing.T) {
	src := &mockSource{recs: []domrec.Record{
		rec("brown-only", map[string]string{"title": "brown"}),
		rec("cow", map[string]string{"title": "cow"}),
		rec("both", map[string]string{"title": "brown cow"}),
	}}
	m := mustManager(t, newTestService(src))

	res, err := m.Search("+cow brown", "title").All(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := hitIDs(res); !slices.Equal(got, []string{"both", "cow"}) {
		t.Errorf("expected [both cow], got %v", got)
	}
}

func TestSearch_ExclusionCoversEveryField(t *testing.T) {
	src := &mockSource{recs: []domrec.Record{
		rec("desc", map[string]string{"title": "fine", "description": "has cow"}),
		rec("clean", map[string]string{"title": "fine", "description": "nothing"}),
		rec("null", map[string]string{"title": "fine"}),
	}}
	m := mustManager(t, newTestService(src))

	res, err := m.Search("-cow", "title", "description").All(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := hitIDs(res)
	slices.Sort(got)
	if !slices.Equal(got, []string{"clean", "null"}) {
		t.Errorf("expected [clean null], got %v", got)
	}
}

func TestSearch_NoResolvableFields(t *testing.T) {
	col := domcol.Reconstruct("counters", []field.Field{
		field.Reconstruct("hits", field.Numeric),
	}, nil, nil, 0, 1)
	src := &mockSource{recs: []domrec.Record{rec("x", map[string]string{"hits": "1"})}}
	colls := &mockColls{getFn: func(_ context.Context, _ string) (domcol.Collection, error) { return col, nil }}
	m, err := New(src, colls).Manager(context.Background(), "counters")
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	res, err := m.Search("anything").All(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Hits) != 0 {
		t.Errorf("expected no hits, got %d", len(res.Hits))
	}
	if src.fetchCalls != 0 {
		t.Errorf("expected source untouched, got %d fetches", src.fetchCalls)
	}
}

func TestSearch_RepeatedSearchAccumulatesTerms(t *testing.T) {
	src := &mockSource{}
	m := mustManager(t, newTestService(src))

	q := m.Search("cow").Search("cow").Search("brown")
	if n := q.Request().Terms().Len(); n != 2 {
		t.Errorf("expected 2 terms, got %d", n)
	}
}

func TestSearch_FieldResolution(t *testing.T) {
	src := &mockSource{}
	svc := newTestService(src)

	tests := []struct {
		name     string
		defaults []string
		override []string
		want     []string
	}{
		{"collection search fields", nil, nil, []string{"title", "description"}},
		{"manager defaults", []string{"code"}, nil, []string{"code"}},
		{"explicit override", []string{"code"}, []string{"title"}, []string{"code", "title"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := mustManager(t, svc, tc.defaults...)
			q := m.Search("cow", tc.override...)
			got := q.Request().Fields()
			if !slices.Equal(got, tc.want) {
				t.Errorf("expected fields %v, got %v", tc.want, got)
			}
		})
	}
}

func TestSearch_OverrideNarrowsOnlyGivenFields(t *testing.T) {
	src := &mockSource{recs: []domrec.Record{
		rec("in-code", map[string]string{"code": "cow()"}),
		rec("in-title", map[string]string{"title": "cow"}),
	}}
	m := mustManager(t, newTestService(src))

	res, err := m.Search("cow", "code").All(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := hitIDs(res); !slices.Equal(got, []string{"in-code"}) {
		t.Errorf("expected [in-code], got %v", got)
	}
}

func TestSearch_PagingAfterRanking(t *testing.T) {
	src := &mockSource{recs: []domrec.Record{
		rec("one", map[string]string{"title": "cow"}),
		rec("three", map[string]string{"title": "cow cow cow"}),
		rec("two", map[string]string{"title": "cow cow"}),
	}}
	m := mustManager(t, newTestService(src))

	res, err := m.Search("cow").Slice(1, 1).All(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.lastPlan.Offset != 0 || src.lastPlan.Limit != 0 {
		t.Errorf("ranked fetch must be unpaged, got offset=%d limit=%d", src.lastPlan.Offset, src.lastPlan.Limit)
	}
	if got := hitIDs(res); !slices.Equal(got, []string{"two"}) {
		t.Errorf("expected [two], got %v", got)
	}
}

func TestSearch_PagingPushedDownWhenUnranked(t *testing.T) {
	src := &mockSource{}
	m := mustManager(t, newTestService(src))

	if _, err := m.Slice(5, 10).All(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.lastPlan.Offset != 5 || src.lastPlan.Limit != 10 {
		t.Errorf("expected offset=5 limit=10, got %d/%d", src.lastPlan.Offset, src.lastPlan.Limit)
	}
}

func TestSearch_ExcludedTermRanking(t *testing.T) {
	recs := []domrec.Record{
		rec("a", map[string]string{"title": "x", "description": "cow how how"}),
		rec("b", map[string]string{"title": "y", "description": "cow cow"}),
	}

	tests := []struct {
		name string
		opts []Option
		want []string
	}{
		{"counted by default", nil, []string{"a", "b"}},
		{"ignored when disabled", []Option{WithExcludedTermRanking(false)}, []string{"b", "a"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			src := &mockSource{recs: recs}
			m := mustManager(t, newTestService(src, tc.opts...))

			res, err := m.Search("-how", "title").Search("cow", "description").All(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := hitIDs(res); !slices.Equal(got, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestSearch_UnknownFieldIsInvalidSchema(t *testing.T) {
	m := mustManager(t, newTestService(&mockSource{}))

	tests := []struct {
		name string
		q    QuerySet
	}{
		{"search field", m.Search("cow", "missing")},
		{"where field", m.Where("missing", "x")},
		{"order field", m.OrderBy(request.Asc("missing"))},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.q.All(context.Background())
			if !errors.Is(err, domain.ErrInvalidSchema) {
				t.Errorf("expected ErrInvalidSchema, got %v", err)
			}
		})
	}
}

func TestSearch_SourceError(t *testing.T) {
	boom := errors.New("boom")
	m := mustManager(t, newTestService(&mockSource{fetchErr: boom, countErr: boom}))

	if _, err := m.Search("cow").All(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected wrapped source error, got %v", err)
	}
	if _, err := m.Count(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected wrapped count error, got %v", err)
	}
}

func TestSearch_RecorderObserves(t *testing.T) {
	recorder := &mockRecorder{}
	src := &mockSource{recs: []domrec.Record{
		titled("a", "cow"),
	}}
	m := mustManager(t, newTestService(src, WithRecorder(recorder)))

	if _, err := m.Search("cow brown").All(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := observation{collection: "snippets", ordering: "relevance", terms: 2, hits: 1}
	if len(recorder.seen) != 1 || recorder.seen[0] != want {
		t.Errorf("expected %+v, got %+v", want, recorder.seen)
	}
}

func TestCount_IgnoresSliceAndNone(t *testing.T) {
	src := &mockSource{recs: []domrec.Record{
		titled("a", "cow"), titled("b", "cow"), titled("c", "horse"),
	}}
	m := mustManager(t, newTestService(src))

	n, err := m.Search("cow").Slice(0, 1).Count(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2, got %d", n)
	}

	n, err = m.Search("cow").None().Count(context.Background())
	if err != nil || n != 0 {
		t.Errorf("expected 0 for none, got %d (%v)", n, err)
	}
}

func TestManager_Published(t *testing.T) {
	src := &mockSource{recs: []domrec.Record{
		rec("p", map[string]string{"title": "cow", "status": "Published"}),
		rec("d", map[string]string{"title": "cow", "status": "Draft"}),
	}}
	m := mustManager(t, newTestService(src))

	res, err := m.Published().Search("cow").All(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := hitIDs(res); !slices.Equal(got, []string{"p"}) {
		t.Errorf("expected [p], got %v", got)
	}
}

func TestManager_FilterDelegates(t *testing.T) {
	src := &mockSource{recs: []domrec.Record{titled("a", "cow"), titled("b", "horse")}}
	m := mustManager(t, newTestService(src))

	res, err := m.Filter(filter.Contains("title", "HORSE")).All(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := hitIDs(res); !slices.Equal(got, []string{"b"}) {
		t.Errorf("expected [b], got %v", got)
	}
	if res.Ordering != request.Unordered {
		t.Errorf("expected unordered, got %s", res.Ordering)
	}
}

func TestManager_CollectionNotFound(t *testing.T) {
	colls := &mockColls{getFn: func(_ context.Context, _ string) (domcol.Collection, error) {
		return domcol.Collection{}, domain.ErrNotFound
	}}
	_, err := New(&mockSource{}, colls).Manager(context.Background(), "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestQuerySet_DerivationDoesNotMutate(t *testing.T) {
	m := mustManager(t, newTestService(&mockSource{}))

	base := m.Search("cow")
	_ = base.OrderBy(request.Asc("title"))
	_ = base.Search("brown")

	if base.Request().Ordering() != request.Relevance {
		t.Errorf("base ordering changed to %s", base.Request().Ordering())
	}
	if base.Request().Terms().Len() != 1 {
		t.Errorf("base terms changed to %d", base.Request().Terms().Len())
	}
}

func titled(id, title string) domrec.Record {
	return rec(id, map[string]string{"title": title})
}
