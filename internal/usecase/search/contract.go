package search

import (
	"context"
	"time"

	domcol "github.com/kailas-cloud/kbase/internal/domain/collection"
	domrec "github.com/kailas-cloud/kbase/internal/domain/record"
	"github.com/kailas-cloud/kbase/internal/domain/search/filter"
	"github.com/kailas-cloud/kbase/internal/domain/search/request"
)

// Source is the record source a search reads candidates from.
type Source interface {
	Fetch(ctx context.Context, col domcol.Collection, plan request.Plan) ([]domrec.Record, error)
	Count(ctx context.Context, col domcol.Collection, where filter.Predicate) (int, error)
}

// CollectionReader reads collection schemas.
type CollectionReader interface {
	Get(ctx context.Context, name string) (domcol.Collection, error)
}

// Recorder observes executed searches.
type Recorder interface {
	ObserveSearch(collection, ordering string, terms, hits int, took time.Duration)
}
