package record

import (
	"context"
	"fmt"
	"slices"

	"github.com/kailas-cloud/kbase/internal/domain"
	dombatch "github.com/kailas-cloud/kbase/internal/domain/batch"
	domrec "github.com/kailas-cloud/kbase/internal/domain/record"
)

// MaxBatchSize is the maximum number of items per batch request.
const MaxBatchSize = 100

// Item is one record of a batch upsert. An empty ID gets a generated one.
type Item struct {
	ID     string
	Fields map[string]string
}

// WithMaxBatchSize configures the maximum batch size.
func (s *Service) WithMaxBatchSize(size int) *Service {
	if size > 0 {
		s.maxBatchSize = size
	}
	return s
}

// BatchUpsert validates every item and writes the valid ones in one call.
// Invalid items are reported individually and do not block the others.
// Stored revisions are not bumped; use Put for revision tracking.
func (s *Service) BatchUpsert(ctx context.Context, collectionName string, items []Item) []dombatch.Result {
	items = slices.Clone(items)
	ids := make([]string, len(items))
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = s.newID()
		}
		ids[i] = items[i].ID
	}

	if len(items) > s.maxBatchSize {
		return dombatch.FailAll(ids, fmt.Errorf("batch size exceeds %d: %w", s.maxBatchSize, domain.ErrInvalidSchema))
	}

	col, err := s.colls.Get(ctx, collectionName)
	if err != nil {
		return dombatch.FailAll(ids, fmt.Errorf("get collection: %w", err))
	}

	results := make([]dombatch.Result, len(items))
	valid := make([]domrec.Record, 0, len(items))
	validIdx := make([]int, 0, len(items))
	for i, item := range items {
		rec, err := build(col, item.ID, item.Fields)
		if err != nil {
			results[i] = dombatch.NewError(i, item.ID, err)
			continue
		}
		valid = append(valid, rec)
		validIdx = append(validIdx, i)
	}

	if len(valid) == 0 {
		return results
	}

	if err := s.repo.UpsertMany(ctx, collectionName, valid); err != nil {
		for _, i := range validIdx {
			results[i] = dombatch.NewError(i, ids[i], fmt.Errorf("batch upsert: %w", err))
		}
		return results
	}

	for _, i := range validIdx {
		results[i] = dombatch.NewOK(i, ids[i])
	}
	return results
}

// BatchDelete removes records by ID, reporting each outcome.
func (s *Service) BatchDelete(ctx context.Context, collectionName string, ids []string) []dombatch.Result {
	if len(ids) > s.maxBatchSize {
		return dombatch.FailAll(ids, fmt.Errorf("batch size exceeds %d: %w", s.maxBatchSize, domain.ErrInvalidSchema))
	}

	if _, err := s.colls.Get(ctx, collectionName); err != nil {
		return dombatch.FailAll(ids, fmt.Errorf("get collection: %w", err))
	}

	results := make([]dombatch.Result, len(ids))
	for i, id := range ids {
		if err := s.repo.Delete(ctx, collectionName, id); err != nil {
			results[i] = dombatch.NewError(i, id, fmt.Errorf("delete: %w", err))
			continue
		}
		results[i] = dombatch.NewOK(i, id)
	}
	return results
}
