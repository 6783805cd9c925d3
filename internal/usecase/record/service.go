package record

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kailas-cloud/kbase/internal/domain"
	domcol "github.com/kailas-cloud/kbase/internal/domain/collection"
	domrec "github.com/kailas-cloud/kbase/internal/domain/record"
	"github.com/kailas-cloud/kbase/internal/domain/record/patch"
)

// Service handles record CRUD with schema validation.
type Service struct {
	repo         Repository
	colls        CollectionReader
	newID        func() string
	maxBatchSize int
}

// New creates a record service.
func New(repo Repository, colls CollectionReader) *Service {
	return &Service{repo: repo, colls: colls, newID: uuid.NewString, maxBatchSize: MaxBatchSize}
}

// Create stores a new record under a generated ID.
func (s *Service) Create(ctx context.Context, collectionName string, fields map[string]string) (domrec.Record, error) {
	rec, _, err := s.Put(ctx, collectionName, s.newID(), fields)
	return rec, err
}

// Put creates or replaces the record with the given ID. Replacing bumps the
// revision. Returns true if the record was created.
func (s *Service) Put(
	ctx context.Context, collectionName, id string, fields map[string]string,
) (domrec.Record, bool, error) {
	col, err := s.colls.Get(ctx, collectionName)
	if err != nil {
		return domrec.Record{}, false, fmt.Errorf("get collection: %w", err)
	}

	rec, err := build(col, id, fields)
	if err != nil {
		return domrec.Record{}, false, err
	}

	current, err := s.repo.Get(ctx, collectionName, id)
	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
	case err != nil:
		return domrec.Record{}, false, fmt.Errorf("get record: %w", err)
	default:
		rec = rec.WithRevision(current.Revision() + 1)
	}

	created, err := s.repo.Upsert(ctx, collectionName, rec)
	if err != nil {
		return domrec.Record{}, false, fmt.Errorf("upsert record: %w", err)
	}
	return rec, created, nil
}

// Get retrieves a record by collection and ID.
func (s *Service) Get(ctx context.Context, collectionName, id string) (domrec.Record, error) {
	if _, err := s.colls.Get(ctx, collectionName); err != nil {
		return domrec.Record{}, fmt.Errorf("get collection: %w", err)
	}

	rec, err := s.repo.Get(ctx, collectionName, id)
	if err != nil {
		return domrec.Record{}, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

// Delete removes a record.
func (s *Service) Delete(ctx context.Context, collectionName, id string) error {
	if _, err := s.colls.Get(ctx, collectionName); err != nil {
		return fmt.Errorf("get collection: %w", err)
	}

	if err := s.repo.Delete(ctx, collectionName, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// Patch applies a partial update. A positive expectedRevision must match
// the stored revision.
func (s *Service) Patch(
	ctx context.Context, collectionName, id string, p patch.Patch, expectedRevision int,
) (domrec.Record, error) {
	col, err := s.colls.Get(ctx, collectionName)
	if err != nil {
		return domrec.Record{}, fmt.Errorf("get collection: %w", err)
	}
	for name := range p.Fields() {
		if name == domcol.IDField || !col.HasField(name) {
			return domrec.Record{}, fmt.Errorf("unknown field %q: %w", name, domain.ErrInvalidSchema)
		}
	}
	if err := col.ValidateValues(p.Sets()); err != nil {
		return domrec.Record{}, fmt.Errorf("%w: %w", domain.ErrInvalidSchema, err)
	}

	current, err := s.repo.Get(ctx, collectionName, id)
	if err != nil {
		return domrec.Record{}, fmt.Errorf("get record: %w", err)
	}
	if expectedRevision > 0 && current.Revision() != expectedRevision {
		return domrec.Record{}, domain.NewRevisionConflict(current.Revision())
	}

	next := p.Apply(current)
	if _, err := s.repo.Upsert(ctx, collectionName, next); err != nil {
		return domrec.Record{}, fmt.Errorf("patch record: %w", err)
	}
	return next, nil
}

// build validates id and fields against col.
func build(col domcol.Collection, id string, fields map[string]string) (domrec.Record, error) {
	if err := col.ValidateValues(fields); err != nil {
		return domrec.Record{}, fmt.Errorf("%w: %w", domain.ErrInvalidSchema, err)
	}
	rec, err := domrec.New(id, fields)
	if err != nil {
		return domrec.Record{}, fmt.Errorf("%w: %w", domain.ErrInvalidSchema, err)
	}
	return rec, nil
}
