// Package record stores records as hashes and serves them as a search source.
package record

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/kbase/internal/db"
	"github.com/kailas-cloud/kbase/internal/domain"
	domcol "github.com/kailas-cloud/kbase/internal/domain/collection"
	domrec "github.com/kailas-cloud/kbase/internal/domain/record"
	"github.com/kailas-cloud/kbase/internal/domain/search/filter"
	"github.com/kailas-cloud/kbase/internal/domain/search/request"
)

// store is the consumer interface for records (ISP).
type store interface {
	Replace(ctx context.Context, hashes ...db.Hash) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements usecase/record.Repository and usecase/search.Source.
// Predicates are evaluated in process against every record of the collection.
type Repo struct {
	store store
}

// New creates a record repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Upsert creates or replaces a record. Returns true if created.
// Fields missing from rec are removed from the stored hash.
func (r *Repo) Upsert(ctx context.Context, collectionName string, rec domrec.Record) (bool, error) {
	key := recordKey(collectionName, rec.ID())
	existed, err := r.store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check exists %s: %w", key, err)
	}
	if err := r.store.Replace(ctx, db.Hash{Key: key, Fields: buildHashFields(rec)}); err != nil {
		return false, fmt.Errorf("replace %s: %w", key, err)
	}
	return !existed, nil
}

// UpsertMany writes records in one pipelined round-trip.
func (r *Repo) UpsertMany(ctx context.Context, collectionName string, recs []domrec.Record) error {
	if len(recs) == 0 {
		return nil
	}
	hashes := make([]db.Hash, len(recs))
	for i, rec := range recs {
		hashes[i] = db.Hash{Key: recordKey(collectionName, rec.ID()), Fields: buildHashFields(rec)}
	}
	if err := r.store.Replace(ctx, hashes...); err != nil {
		return fmt.Errorf("replace %d records in %s: %w", len(recs), collectionName, err)
	}
	return nil
}

// Get returns a record by ID.
func (r *Repo) Get(ctx context.Context, collectionName, id string) (domrec.Record, error) {
	key := recordKey(collectionName, id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domrec.Record{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(m) == 0 {
		return domrec.Record{}, domain.ErrRecordNotFound
	}
	return parseHashFields(id, m), nil
}

// Delete removes a record.
func (r *Repo) Delete(ctx context.Context, collectionName, id string) error {
	key := recordKey(collectionName, id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrRecordNotFound
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// Purge removes every record of a collection.
func (r *Repo) Purge(ctx context.Context, collectionName string) error {
	keys, err := r.store.Scan(ctx, recordKey(collectionName, "*"))
	if err != nil {
		return fmt.Errorf("scan %s: %w", collectionName, err)
	}
	if err := r.store.Del(ctx, keys...); err != nil {
		return fmt.Errorf("del %d records of %s: %w", len(keys), collectionName, err)
	}
	return nil
}

// Fetch returns the records matching plan.Where, sorted by plan.Order and paged.
func (r *Repo) Fetch(ctx context.Context, col domcol.Collection, plan request.Plan) ([]domrec.Record, error) {
	recs, err := r.matching(ctx, col.Name(), plan.Where)
	if err != nil {
		return nil, err
	}
	sortRecords(col, recs, plan.Order)
	return page(recs, plan.Offset, plan.Limit), nil
}

// Count returns the number of records matching where.
func (r *Repo) Count(ctx context.Context, col domcol.Collection, where filter.Predicate) (int, error) {
	recs, err := r.matching(ctx, col.Name(), where)
	if err != nil {
		return 0, err
	}
	return len(recs), nil
}

func (r *Repo) matching(ctx context.Context, collectionName string, where filter.Predicate) ([]domrec.Record, error) {
	if where.IsNone() {
		return []domrec.Record{}, nil
	}
	keys, err := r.store.Scan(ctx, recordKey(collectionName, "*"))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", collectionName, err)
	}
	if len(keys) == 0 {
		return []domrec.Record{}, nil
	}
	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi %s: %w", collectionName, err)
	}

	out := make([]domrec.Record, 0, len(hashes))
	for i, m := range hashes {
		if len(m) == 0 {
			continue // deleted between SCAN and HGETALL
		}
		rec := parseHashFields(extractID(keys[i], collectionName), m)
		if where.Eval(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Key pattern: kbase:rec:{collection}:{id}

func recordKey(collectionName, id string) string {
	return fmt.Sprintf("%srec:%s:%s", domain.KeyPrefix, collectionName, id)
}

func extractID(key, collectionName string) string {
	return strings.TrimPrefix(key, recordKey(collectionName, ""))
}
