package result

import "github.com/kailas-cloud/kbase/internal/domain/record"

// Result is a single search hit.
type Result struct {
	record record.Record
	score  float64
}

// New creates a search result.
func New(rec record.Record, score float64) Result {
	return Result{record: rec, score: score}
}

// ID returns the record identifier.
func (r Result) ID() string { return r.record.ID() }

// Score returns the relevance score (0 when results were not ranked).
func (r Result) Score() float64 { return r.score }

// Record returns the matched record.
func (r Result) Record() record.Record { return r.record }

// Fields returns the record field values.
func (r Result) Fields() map[string]string { return r.record.Fields() }
