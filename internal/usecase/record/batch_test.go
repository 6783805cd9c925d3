package record

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/kbase/internal/domain"
	dombatch "github.com/kailas-cloud/kbase/internal/domain/batch"
	domrec "github.com/kailas-cloud/kbase/internal/domain/record"
)

func TestBatchUpsert_MixedItems(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, snippets())

	items := []Item{
		{ID: "a", Fields: map[string]string{"title": "ok"}},
		{ID: "b", Fields: map[string]string{"nope": "x"}},
		{Fields: map[string]string{"title": "generated"}},
	}
	results := svc.BatchUpsert(context.Background(), "snippets", items)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Status() != dombatch.StatusOK {
		t.Errorf("item 0: %v", results[0].Err())
	}
	if !errors.Is(results[1].Err(), domain.ErrInvalidSchema) {
		t.Errorf("item 1: expected ErrInvalidSchema, got %v", results[1].Err())
	}
	if results[2].ID() != "gen-1" || results[2].Status() != dombatch.StatusOK {
		t.Errorf("item 2: got id=%q status=%q", results[2].ID(), results[2].Status())
	}
	if items[2].ID != "" {
		t.Error("caller items must not be modified")
	}
	if repo.upsertManyCalls != 1 {
		t.Errorf("expected one bulk write, got %d", repo.upsertManyCalls)
	}
	if got := dombatch.Summarize(results); got.Failed != 1 || got.Succeeded != 2 {
		t.Errorf("unexpected summary %+v", got)
	}
}

func TestBatchUpsert_TooLarge(t *testing.T) {
	svc := newTestService(newMockRepo(), snippets()).WithMaxBatchSize(1)

	results := svc.BatchUpsert(context.Background(), "snippets", []Item{{ID: "a"}, {ID: "b"}})
	for _, r := range results {
		if !errors.Is(r.Err(), domain.ErrInvalidSchema) {
			t.Errorf("expected ErrInvalidSchema for %s, got %v", r.ID(), r.Err())
		}
	}
}

func TestBatchUpsert_CollectionError(t *testing.T) {
	svc := newTestService(newMockRepo(), &mockColls{err: domain.ErrNotFound})

	results := svc.BatchUpsert(context.Background(), "missing", []Item{{ID: "a"}})
	if !errors.Is(results[0].Err(), domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", results[0].Err())
	}
}

func TestBatchUpsert_StoreError(t *testing.T) {
	repo := newMockRepo()
	repo.upsertManyErr = errors.New("pipeline failed")
	svc := newTestService(repo, snippets())

	results := svc.BatchUpsert(context.Background(), "snippets", []Item{
		{ID: "a", Fields: map[string]string{"title": "x"}},
		{ID: "b", Fields: map[string]string{"title": "y"}},
	})
	for _, r := range results {
		if r.Status() != dombatch.StatusError {
			t.Errorf("expected %s to fail", r.ID())
		}
	}
}

func TestBatchDelete(t *testing.T) {
	repo := newMockRepo(domrec.Reconstruct("a", nil, 1))
	svc := newTestService(repo, snippets())

	results := svc.BatchDelete(context.Background(), "snippets", []string{"a", "missing"})
	if results[0].Status() != dombatch.StatusOK {
		t.Errorf("expected a deleted, got %v", results[0].Err())
	}
	if !errors.Is(results[1].Err(), domain.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", results[1].Err())
	}
	if results[1].Index() != 1 {
		t.Errorf("expected index 1, got %d", results[1].Index())
	}
}
