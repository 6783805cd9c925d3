// Package request holds the immutable state of a chained search.
package request

import (
	"github.com/kailas-cloud/kbase/internal/domain/search/filter"
	"github.com/kailas-cloud/kbase/internal/domain/search/query"
)

// Paging and input limits enforced by callers that accept user input.
const (
	// MaxQueryLength is the maximum allowed raw search string length.
	MaxQueryLength = 4096
	DefaultLimit   = 20
	MaxLimit       = 500
)

// Ordering describes how results of a request are ordered.
type Ordering int

// Ordering values.
const (
	Unordered Ordering = iota
	Explicit
	Relevance
)

// String returns the lowercase ordering name.
func (o Ordering) String() string {
	switch o {
	case Explicit:
		return "explicit"
	case Relevance:
		return "relevance"
	default:
		return "unordered"
	}
}

// Request is a search in progress. Every method returns a new value; the
// receiver is never modified, so a Request can be shared and branched freely.
type Request struct {
	fields   []string
	terms    query.TermSet
	where    filter.Predicate
	order    []SortKey
	explicit bool
	none     bool
	offset   int
	limit    int
}

// New returns an empty request that matches everything.
func New() Request { return Request{where: filter.All()} }

// WithFields adds fields to the accumulated search fields.
func (r Request) WithFields(fields ...string) Request {
	r.fields = union(r.fields, fields)
	return r
}

// Search parses raw, narrows the request by the compiled predicate over
// fields and accumulates the terms for ranking. With no fields the request
// matches nothing.
func (r Request) Search(raw string, fields []string) Request {
	if len(fields) == 0 {
		return r.None()
	}
	terms := query.Parse(raw)
	r.where = filter.And(r.where, filter.Compile(terms, fields))
	r.fields = union(r.fields, fields)
	r.terms = r.terms.Add(terms...)
	return r
}

// Filter narrows the request by p.
func (r Request) Filter(p filter.Predicate) Request {
	r.where = filter.And(r.where, p)
	return r
}

// Where narrows the request to records whose field equals value.
func (r Request) Where(field, value string) Request {
	return r.Filter(filter.Equals(field, value))
}

// OrderBy replaces the sort keys and marks the request explicitly ordered.
// The mark is permanent for every request derived from the result, even
// when keys is empty.
func (r Request) OrderBy(keys ...SortKey) Request {
	r.order = append([]SortKey(nil), keys...)
	r.explicit = true
	return r
}

// Slice sets the window of results. A limit of zero means no limit.
func (r Request) Slice(offset, limit int) Request {
	r.offset = max(offset, 0)
	r.limit = max(limit, 0)
	return r
}

// None makes the request match nothing.
func (r Request) None() Request {
	r.none = true
	r.where = filter.None()
	return r
}

// Fields returns the accumulated search fields.
func (r Request) Fields() []string { return append([]string(nil), r.fields...) }

// Terms returns the accumulated terms.
func (r Request) Terms() query.TermSet { return r.terms }

// Predicate returns the accumulated filter.
func (r Request) Predicate() filter.Predicate { return r.where }

// Order returns the explicit sort keys.
func (r Request) Order() []SortKey { return append([]SortKey(nil), r.order...) }

// Offset returns the number of results to skip.
func (r Request) Offset() int { return r.offset }

// Limit returns the maximum number of results (0 = unlimited).
func (r Request) Limit() int { return r.limit }

// IsNone reports whether the request can match nothing.
func (r Request) IsNone() bool { return r.none || r.where.IsNone() }

// Ordering reports the effective result ordering.
func (r Request) Ordering() Ordering {
	switch {
	case r.explicit:
		return Explicit
	case r.terms.Len() > 0:
		return Relevance
	default:
		return Unordered
	}
}

// Ranked reports whether results must be reordered by relevance.
func (r Request) Ranked() bool { return r.Ordering() == Relevance }

// Plan is what a record source receives to fetch candidates.
type Plan struct {
	Where  filter.Predicate
	Order  []SortKey
	Offset int
	Limit  int
}

// Plan builds the fetch plan. Explicit sort keys win over defaultOrder. A
// ranked request fetches every candidate; paging is then applied after ranking.
func (r Request) Plan(defaultOrder []SortKey) Plan {
	p := Plan{Where: r.where, Order: r.Order()}
	if !r.explicit {
		p.Order = append([]SortKey(nil), defaultOrder...)
	}
	if !r.Ranked() {
		p.Offset = r.offset
		p.Limit = r.limit
	}
	return p
}

func union(have, add []string) []string {
	out := make([]string, len(have), len(have)+len(add))
	copy(out, have)
	for _, f := range add {
		if f == "" || contains(out, f) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
