package kbase

import (
	"context"
	"fmt"
	"time"

	domcol "github.com/kailas-cloud/kbase/internal/domain/collection"
	recorduc "github.com/kailas-cloud/kbase/internal/usecase/record"
)

// Index is a generic, schema-first collection backed by a Client.
// Schema is inferred from T's struct tags at construction time.
type Index[T any] struct {
	name     string
	client   *Client
	meta     *schemaMeta
	ordering []string
}

// IndexOption configures an Index.
type IndexOption func(*indexConfig)

type indexConfig struct {
	ordering []string
}

// WithOrdering sets the collection's default ordering, e.g. "-date_created".
// It applies to unranked queries and breaks ties between ranked hits.
func WithOrdering(specs ...string) IndexOption {
	return func(c *indexConfig) {
		c.ordering = append(c.ordering, specs...)
	}
}

// NewIndex creates a typed index handle for the given collection name.
// T must be a struct with kbase tags. Schema is parsed once and cached.
func NewIndex[T any](client *Client, name string, opts ...IndexOption) (*Index[T], error) {
	meta, err := parseSchema[T]()
	if err != nil {
		return nil, fmt.Errorf("new index %q: %w", name, err)
	}
	var cfg indexConfig
	for _, o := range opts {
		o(&cfg)
	}
	return &Index[T]{name: name, client: client, meta: meta, ordering: cfg.ordering}, nil
}

// Name returns the collection name.
func (idx *Index[T]) Name() string { return idx.name }

// Ensure creates the collection or brings its schema in line with T.
func (idx *Index[T]) Ensure(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { idx.client.obs.observe("collection.ensure", start, err) }()

	fields, err := idx.meta.schemaFields()
	if err != nil {
		return fmt.Errorf("ensure %q: %w", idx.name, err)
	}
	col, err := domcol.New(idx.name, fields, idx.meta.searchFields, idx.ordering)
	if err != nil {
		return fmt.Errorf("ensure %q: %w: %w", idx.name, ErrInvalidSchema, err)
	}
	if _, err = idx.client.collSvc.Ensure(ctx, col); err != nil {
		return fmt.Errorf("ensure %q: %w", idx.name, err)
	}
	return nil
}

// Info returns the stored collection schema.
func (idx *Index[T]) Info(ctx context.Context) (CollectionInfo, error) {
	col, err := idx.client.collSvc.Get(ctx, idx.name)
	if err != nil {
		return CollectionInfo{}, fmt.Errorf("info %q: %w", idx.name, err)
	}
	return fromInternalCollection(col), nil
}

// Upsert creates or replaces a single item. Returns true if created.
func (idx *Index[T]) Upsert(ctx context.Context, item T) (_ bool, err error) {
	start := time.Now()
	defer func() { idx.client.obs.observe("record.upsert", start, err) }()

	id, values := idx.meta.toRecord(item)
	_, created, err := idx.client.recSvc.Put(ctx, idx.name, id, values)
	if err != nil {
		return false, fmt.Errorf("upsert: %w", err)
	}
	return created, nil
}

// UpsertBatch creates or replaces items, reporting each outcome.
func (idx *Index[T]) UpsertBatch(ctx context.Context, items []T) []BatchResult {
	start := time.Now()

	batch := make([]recorduc.Item, len(items))
	for i, item := range items {
		batch[i].ID, batch[i].Fields = idx.meta.toRecord(item)
	}
	results := idx.client.recSvc.BatchUpsert(ctx, idx.name, batch)

	out := make([]BatchResult, len(results))
	var firstErr error
	for i, r := range results {
		out[i] = BatchResult{Index: r.Index(), ID: r.ID(), Err: r.Err()}
		if firstErr == nil {
			firstErr = r.Err()
		}
	}
	idx.client.obs.observe("record.upsert_batch", start, firstErr)
	return out
}

// Get retrieves a typed item by ID.
func (idx *Index[T]) Get(ctx context.Context, id string) (_ T, err error) {
	start := time.Now()
	defer func() { idx.client.obs.observe("record.get", start, err) }()

	rec, err := idx.client.recSvc.Get(ctx, idx.name, id)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("get: %w", err)
	}
	return fromRecord[T](idx.meta, rec.ID(), rec.Fields())
}

// Delete removes an item by ID.
func (idx *Index[T]) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { idx.client.obs.observe("record.delete", start, err) }()

	if err = idx.client.recSvc.Delete(ctx, idx.name, id); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

// Count returns the number of items in the collection.
func (idx *Index[T]) Count(ctx context.Context) (int, error) {
	return idx.Query().Count(ctx)
}

// Query starts a chainable query over the index.
func (idx *Index[T]) Query() *Query[T] {
	return &Query[T]{idx: idx}
}
