package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kbase/internal/domain"
	domcol "github.com/kailas-cloud/kbase/internal/domain/collection"
	"github.com/kailas-cloud/kbase/internal/domain/search/request"
	"github.com/kailas-cloud/kbase/internal/domain/search/result"
	"github.com/kailas-cloud/kbase/internal/logger"
)

// Results is the outcome of an executed search.
type Results struct {
	Hits     []result.Result
	Ordering request.Ordering
}

// Service executes chained searches against a record source.
type Service struct {
	source       Source
	colls        CollectionReader
	recorder     Recorder
	rankExcluded bool
}

// Option configures a Service.
type Option func(*Service)

// WithExcludedTermRanking controls whether excluded terms count towards the
// relevance score. Enabled by default.
func WithExcludedTermRanking(enabled bool) Option {
	return func(s *Service) { s.rankExcluded = enabled }
}

// WithRecorder sets the observer notified after every executed search.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// New creates a search service.
func New(source Source, colls CollectionReader, opts ...Option) *Service {
	s := &Service{source: source, colls: colls, rankExcluded: true}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Manager loads the collection schema and returns its search entry point.
// defaultFields are searched when a search names no fields of its own.
func (s *Service) Manager(ctx context.Context, collectionName string, defaultFields ...string) (*Manager, error) {
	col, err := s.colls.Get(ctx, collectionName)
	if err != nil {
		return nil, fmt.Errorf("get collection: %w", err)
	}
	return NewManager(s, col, defaultFields...), nil
}

// Execute runs req against col. Ranked requests are fetched whole, scored,
// and paged afterwards.
func (s *Service) Execute(ctx context.Context, col domcol.Collection, req request.Request) (Results, error) {
	start := time.Now()
	res := Results{Ordering: req.Ordering(), Hits: []result.Result{}}

	if !req.IsNone() {
		if err := validateAgainstSchema(req, col); err != nil {
			return Results{}, fmt.Errorf("%w: %w", domain.ErrInvalidSchema, err)
		}

		recs, err := s.source.Fetch(ctx, col, req.Plan(col.Ordering()))
		if err != nil {
			return Results{}, fmt.Errorf("fetch records: %w", err)
		}

		if req.Ranked() {
			res.Hits = page(rank(recs, req.Terms().Texts(s.rankExcluded), req.Fields()), req.Offset(), req.Limit())
		} else {
			res.Hits = unranked(recs)
		}
	}

	took := time.Since(start)
	logger.FromContext(ctx).Debug("search executed",
		zap.String("collection", col.Name()),
		zap.Strings("terms", req.Terms().Texts(true)),
		zap.Stringer("where", req.Predicate()),
		zap.Stringer("ordering", res.Ordering),
		zap.Int("hits", len(res.Hits)),
		zap.Duration("duration", took),
	)
	if s.recorder != nil {
		s.recorder.ObserveSearch(col.Name(), res.Ordering.String(), req.Terms().Len(), len(res.Hits), took)
	}
	return res, nil
}

// Count returns the number of records matching req, ignoring paging.
func (s *Service) Count(ctx context.Context, col domcol.Collection, req request.Request) (int, error) {
	if req.IsNone() {
		return 0, nil
	}
	if err := validateAgainstSchema(req, col); err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrInvalidSchema, err)
	}
	n, err := s.source.Count(ctx, col, req.Predicate())
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// validateAgainstSchema ensures every field the request touches exists in col.
func validateAgainstSchema(req request.Request, col domcol.Collection) error {
	var errs []error
	check := func(kind, name string) {
		if !col.HasField(name) {
			errs = append(errs, fmt.Errorf("%s field %q not in collection %q", kind, name, col.Name()))
		}
	}
	for _, f := range req.Fields() {
		check("search", f)
	}
	for _, f := range req.Predicate().Fields() {
		check("filter", f)
	}
	for _, k := range req.Order() {
		check("order", k.Field())
	}
	return errors.Join(errs...)
}
