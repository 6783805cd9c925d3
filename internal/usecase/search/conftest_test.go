package search

import (
	"context"
	"time"

	domcol "github.com/kailas-cloud/kbase/internal/domain/collection"
	"github.com/kailas-cloud/kbase/internal/domain/collection/field"
	domrec "github.com/kailas-cloud/kbase/internal/domain/record"
	"github.com/kailas-cloud/kbase/internal/domain/search/filter"
	"github.com/kailas-cloud/kbase/internal/domain/search/request"
)

// --- Mocks ---

// mockSource evaluates plans over an in-memory slice, in slice order.
type mockSource struct {
	recs     []domrec.Record
	fetchErr error
	countErr error

	fetchCalls int
	lastPlan   request.Plan
}

func (m *mockSource) Fetch(_ context.Context, _ domcol.Collection, plan request.Plan) ([]domrec.Record, error) {
	m.fetchCalls++
	m.lastPlan = plan
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	var out []domrec.Record
	for _, r := range m.recs {
		if plan.Where.Eval(r) {
			out = append(out, r)
		}
	}
	if plan.Offset > 0 {
		if plan.Offset >= len(out) {
			return nil, nil
		}
		out = out[plan.Offset:]
	}
	if plan.Limit > 0 && plan.Limit < len(out) {
		out = out[:plan.Limit]
	}
	return out, nil
}

func (m *mockSource) Count(_ context.Context, _ domcol.Collection, where filter.Predicate) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	n := 0
	for _, r := range m.recs {
		if where.Eval(r) {
			n++
		}
	}
	return n, nil
}

type mockColls struct {
	getFn func(ctx context.Context, name string) (domcol.Collection, error)
}

func (m *mockColls) Get(ctx context.Context, name string) (domcol.Collection, error) {
	return m.getFn(ctx, name)
}

type observation struct {
	collection string
	ordering   string
	terms      int
	hits       int
}

type mockRecorder struct {
	seen []observation
}

func (m *mockRecorder) ObserveSearch(collection, ordering string, terms, hits int, _ time.Duration) {
	m.seen = append(m.seen, observation{collection, ordering, terms, hits})
}

// --- Helpers ---

func snippetsCollection() domcol.Collection {
	return domcol.Reconstruct("snippets", []field.Field{
		field.Reconstruct("title", field.Char),
		field.Reconstruct("description", field.Text),
		field.Reconstruct("code", field.Text),
		field.Reconstruct("status", field.Tag),
		field.Reconstruct("date_created", field.Datetime),
	}, []string{"title", "description"}, []string{"-date_created"}, 0, 1)
}

func rec(id string, fields map[string]string) domrec.Record {
	return domrec.Reconstruct(id, fields, 1)
}

func hitIDs(res Results) []string {
	ids := make([]string, len(res.Hits))
	for i, h := range res.Hits {
		ids[i] = h.ID()
	}
	return ids
}

func newTestService(src *mockSource, opts ...Option) *Service {
	col := snippetsCollection()
	colls := &mockColls{getFn: func(_ context.Context, _ string) (domcol.Collection, error) { return col, nil }}
	return New(src, colls, opts...)
}
