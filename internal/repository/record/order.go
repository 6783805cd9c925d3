package record

import (
	"cmp"
	"slices"
	"strconv"
	"time"

	domcol "github.com/kailas-cloud/kbase/internal/domain/collection"
	"github.com/kailas-cloud/kbase/internal/domain/collection/field"
	domrec "github.com/kailas-cloud/kbase/internal/domain/record"
	"github.com/kailas-cloud/kbase/internal/domain/search/request"
)

// sortRecords orders recs by keys using the collection's field types.
// Records are first put in id order so the result is deterministic.
// Absent values sort after present ones ascending and before them descending.
func sortRecords(col domcol.Collection, recs []domrec.Record, keys []request.SortKey) {
	slices.SortStableFunc(recs, func(a, b domrec.Record) int {
		return cmp.Compare(a.ID(), b.ID())
	})
	if len(keys) == 0 {
		return
	}
	types := make([]field.Type, len(keys))
	for i, k := range keys {
		if f, ok := col.FieldByName(k.Field()); ok {
			types[i] = f.FieldType()
		}
	}
	slices.SortStableFunc(recs, func(a, b domrec.Record) int {
		for i, k := range keys {
			c := compareValues(a, b, k.Field(), types[i])
			if k.Desc() {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
}

func compareValues(a, b domrec.Record, name string, ft field.Type) int {
	av, aok := a.Value(name)
	bv, bok := b.Value(name)
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return 1
	case !bok:
		return -1
	}
	switch ft {
	case field.Numeric:
		af, aerr := strconv.ParseFloat(av, 64)
		bf, berr := strconv.ParseFloat(bv, 64)
		if aerr == nil && berr == nil {
			return cmp.Compare(af, bf)
		}
	case field.Datetime:
		at, aerr := time.Parse(time.RFC3339, av)
		bt, berr := time.Parse(time.RFC3339, bv)
		if aerr == nil && berr == nil {
			return at.Compare(bt)
		}
	}
	return cmp.Compare(av, bv)
}

// page applies offset and limit (0 = unlimited).
func page(recs []domrec.Record, offset, limit int) []domrec.Record {
	if offset >= len(recs) {
		return []domrec.Record{}
	}
	recs = recs[offset:]
	if limit > 0 && limit < len(recs) {
		recs = recs[:limit]
	}
	return recs
}
