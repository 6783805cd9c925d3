package search

import (
	"sort"
	"strings"

	domrec "github.com/kailas-cloud/kbase/internal/domain/record"
	"github.com/kailas-cloud/kbase/internal/domain/search/query"
	"github.com/kailas-cloud/kbase/internal/domain/search/result"
)

// rank scores every record by how often the term texts occur in fields and
// orders the results by score, highest first. Records with equal scores keep
// their relative input order.
func rank(recs []domrec.Record, terms, fields []string) []result.Result {
	folded := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = query.Fold(t); t != "" {
			folded = append(folded, t)
		}
	}

	out := make([]result.Result, len(recs))
	for i, rec := range recs {
		out[i] = result.New(rec, float64(score(rec, folded, fields)))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score() > out[j].Score()
	})
	return out
}

// score counts non-overlapping occurrences of every term in every field.
// Terms are expected to be folded already.
func score(rec domrec.Record, terms, fields []string) int {
	total := 0
	for _, f := range fields {
		v, ok := rec.Value(f)
		if !ok || v == "" {
			continue
		}
		v = query.Fold(v)
		for _, t := range terms {
			total += strings.Count(v, t)
		}
	}
	return total
}

func unranked(recs []domrec.Record) []result.Result {
	out := make([]result.Result, len(recs))
	for i, rec := range recs {
		out[i] = result.New(rec, 0)
	}
	return out
}

func page(hits []result.Result, offset, limit int) []result.Result {
	if offset >= len(hits) {
		return []result.Result{}
	}
	hits = hits[offset:]
	if limit > 0 && limit < len(hits) {
		hits = hits[:limit]
	}
	return hits
}
