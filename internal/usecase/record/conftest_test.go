package record

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/kbase/internal/domain"
	domcol "github.com/kailas-cloud/kbase/internal/domain/collection"
	"github.com/kailas-cloud/kbase/internal/domain/collection/field"
	domrec "github.com/kailas-cloud/kbase/internal/domain/record"
)

// --- Mocks ---

type mockRepo struct {
	recs map[string]domrec.Record

	upsertErr     error
	upsertManyErr error
	getErr        error
	deleteErr     error

	upsertManyCalls int
}

func newMockRepo(recs ...domrec.Record) *mockRepo {
	m := &mockRepo{recs: make(map[string]domrec.Record)}
	for _, r := range recs {
		m.recs[r.ID()] = r
	}
	return m
}

func (m *mockRepo) Upsert(_ context.Context, _ string, rec domrec.Record) (bool, error) {
	if m.upsertErr != nil {
		return false, m.upsertErr
	}
	_, existed := m.recs[rec.ID()]
	m.recs[rec.ID()] = rec
	return !existed, nil
}

func (m *mockRepo) UpsertMany(_ context.Context, _ string, recs []domrec.Record) error {
	m.upsertManyCalls++
	if m.upsertManyErr != nil {
		return m.upsertManyErr
	}
	for _, r := range recs {
		m.recs[r.ID()] = r
	}
	return nil
}

func (m *mockRepo) Get(_ context.Context, _, id string) (domrec.Record, error) {
	if m.getErr != nil {
		return domrec.Record{}, m.getErr
	}
	r, ok := m.recs[id]
	if !ok {
		return domrec.Record{}, domain.ErrRecordNotFound
	}
	return r, nil
}

func (m *mockRepo) Delete(_ context.Context, _, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.recs[id]; !ok {
		return domain.ErrRecordNotFound
	}
	delete(m.recs, id)
	return nil
}

type mockColls struct {
	col domcol.Collection
	err error
}

func (m *mockColls) Get(_ context.Context, _ string) (domcol.Collection, error) {
	return m.col, m.err
}

// --- Helpers ---

func snippets() *mockColls {
	return &mockColls{col: domcol.Reconstruct("snippets", []field.Field{
		field.Reconstruct("title", field.Char),
		field.Reconstruct("status", field.Tag),
		field.Reconstruct("date_created", field.Datetime),
	}, nil, nil, 0, 1)}
}

func newTestService(repo *mockRepo, colls *mockColls) *Service {
	svc := New(repo, colls)
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("gen-%d", n)
	}
	return svc
}
