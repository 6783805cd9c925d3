package collection

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/kbase/internal/domain"
	domcol "github.com/kailas-cloud/kbase/internal/domain/collection"
	"github.com/kailas-cloud/kbase/internal/domain/collection/field"
)

// Service handles collection schema registration and lookup.
type Service struct {
	repo    Repository
	records RecordPurger
}

// New creates a collection service. records may be nil.
func New(repo Repository, records RecordPurger) *Service {
	return &Service{repo: repo, records: records}
}

// Create validates and stores a new collection.
func (s *Service) Create(
	ctx context.Context, name string, fields []field.Field, searchFields, ordering []string,
) (domcol.Collection, error) {
	col, err := domcol.New(name, fields, searchFields, ordering)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("validate collection: %w: %w", domain.ErrInvalidSchema, err)
	}

	if err := s.repo.Create(ctx, col); err != nil {
		return domcol.Collection{}, fmt.Errorf("create collection: %w", err)
	}

	return col, nil
}

// Ensure registers col, replacing a stored schema that differs from it.
// An identical stored schema is returned unchanged.
func (s *Service) Ensure(ctx context.Context, col domcol.Collection) (domcol.Collection, error) {
	current, err := s.repo.Get(ctx, col.Name())
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if err := s.repo.Create(ctx, col); err != nil {
			return domcol.Collection{}, fmt.Errorf("create collection: %w", err)
		}
		return col, nil
	case err != nil:
		return domcol.Collection{}, fmt.Errorf("get collection: %w", err)
	case current.SameSchema(col):
		return current, nil
	}

	next := col.Replacing(current)
	if err := s.repo.Replace(ctx, next); err != nil {
		return domcol.Collection{}, fmt.Errorf("replace collection: %w", err)
	}
	return next, nil
}

// Get retrieves a collection by name.
func (s *Service) Get(ctx context.Context, name string) (domcol.Collection, error) {
	col, err := s.repo.Get(ctx, name)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("get collection: %w", err)
	}
	return col, nil
}

// List returns all collections.
func (s *Service) List(ctx context.Context) ([]domcol.Collection, error) {
	cols, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return cols, nil
}

// Delete removes a collection and its records.
func (s *Service) Delete(ctx context.Context, name string) error {
	if err := s.repo.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	if s.records != nil {
		if err := s.records.Purge(ctx, name); err != nil {
			return fmt.Errorf("purge records of %s: %w", name, err)
		}
	}
	return nil
}
