package record

import (
	"context"

	domcol "github.com/kailas-cloud/kbase/internal/domain/collection"
	domrec "github.com/kailas-cloud/kbase/internal/domain/record"
)

// Repository defines the storage contract for records.
type Repository interface {
	Upsert(ctx context.Context, collectionName string, rec domrec.Record) (created bool, err error)
	UpsertMany(ctx context.Context, collectionName string, recs []domrec.Record) error
	Get(ctx context.Context, collectionName, id string) (domrec.Record, error)
	Delete(ctx context.Context, collectionName, id string) error
}

// CollectionReader reads collections for existence and schema validation.
type CollectionReader interface {
	Get(ctx context.Context, name string) (domcol.Collection, error)
}
