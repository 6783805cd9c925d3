package filter

import "github.com/kailas-cloud/kbase/internal/domain/search/query"

// Compile turns parsed terms into a predicate over fields.
//
// An excluded term must be absent from every field. A required term must be
// present in at least one field. Optional terms filter only when no term is
// required; then at least one of them must match somewhere.
// Empty fields compile to None. No terms compile to All.
func Compile(terms []query.Term, fields []string) Predicate {
	if len(fields) == 0 {
		return None()
	}

	var excluded, required, optional []Predicate
	for _, t := range terms {
		switch t.Modifier() {
		case query.Excluded:
			excluded = append(excluded, absentEverywhere(t.Raw(), fields))
		case query.Required:
			required = append(required, presentSomewhere(t.Raw(), fields))
		default:
			optional = append(optional, presentSomewhere(t.Raw(), fields))
		}
	}

	exclusion := And(excluded...)
	switch {
	case len(required) > 0:
		return And(exclusion, And(required...))
	case len(optional) > 0:
		return And(exclusion, Or(optional...))
	default:
		return exclusion
	}
}

func presentSomewhere(value string, fields []string) Predicate {
	ps := make([]Predicate, len(fields))
	for i, f := range fields {
		ps[i] = Contains(f, value)
	}
	return Or(ps...)
}

func absentEverywhere(value string, fields []string) Predicate {
	ps := make([]Predicate, len(fields))
	for i, f := range fields {
		ps[i] = Not(Contains(f, value))
	}
	return And(ps...)
}
