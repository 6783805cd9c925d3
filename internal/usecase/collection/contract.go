package collection

import (
	"context"

	domcol "github.com/kailas-cloud/kbase/internal/domain/collection"
)

// Repository defines the storage contract for collection schemas.
type Repository interface {
	Create(ctx context.Context, col domcol.Collection) error
	Replace(ctx context.Context, col domcol.Collection) error
	Get(ctx context.Context, name string) (domcol.Collection, error)
	List(ctx context.Context) ([]domcol.Collection, error)
	Delete(ctx context.Context, name string) error
}

// RecordPurger drops every record of a collection. Used when records live
// outside the schema store (e.g. PostgreSQL).
type RecordPurger interface {
	Purge(ctx context.Context, collectionName string) error
}
