package record

import (
	"context"
	"testing"

	"github.com/kailas-cloud/kbase/internal/db"
	"github.com/kailas-cloud/kbase/internal/db/memory"
	domcol "github.com/kailas-cloud/kbase/internal/domain/collection"
	"github.com/kailas-cloud/kbase/internal/domain/collection/field"
	domrec "github.com/kailas-cloud/kbase/internal/domain/record"
)

// failingStore wraps a memory store and fails selected operations.
type failingStore struct {
	*memory.Store
	scanErr    error
	replaceErr error
}

func (f *failingStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	return f.Store.Scan(ctx, pattern)
}

func (f *failingStore) Replace(ctx context.Context, hashes ...db.Hash) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	return f.Store.Replace(ctx, hashes...)
}

func newTestRepo(t *testing.T) (*Repo, *memory.Store) {
	t.Helper()
	s := memory.NewStore()
	return New(s), s
}

func testCollection() domcol.Collection {
	return domcol.Reconstruct(
		"snippets",
		[]field.Field{
			field.Reconstruct("title", field.Char),
			field.Reconstruct("code", field.Text),
			field.Reconstruct("status", field.Tag),
			field.Reconstruct("views", field.Numeric),
			field.Reconstruct("date_created", field.Datetime),
		},
		[]string{"title", "code"},
		[]string{"-date_created"},
		1700000000000,
		1,
	)
}

func mustRecord(t *testing.T, id string, fields map[string]string) domrec.Record {
	t.Helper()
	rec, err := domrec.New(id, fields)
	if err != nil {
		t.Fatalf("record.New(%q): %v", id, err)
	}
	return rec
}

func seed(t *testing.T, repo *Repo, recs ...domrec.Record) {
	t.Helper()
	for _, rec := range recs {
		if _, err := repo.Upsert(context.Background(), "snippets", rec); err != nil {
			t.Fatalf("seed %s: %v", rec.ID(), err)
		}
	}
}

func ids(recs []domrec.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID()
	}
	return out
}
