package query

// TermSet is an insertion-ordered set of terms keyed by case-folded text.
// The zero value is an empty set. Add never mutates the receiver.
type TermSet struct {
	terms []Term
	index map[string]int
}

// NewTermSet builds a set from terms, dropping duplicates.
func NewTermSet(terms ...Term) TermSet {
	return TermSet{}.Add(terms...)
}

// Add returns a new set containing the receiver's terms followed by any new ones.
// A term whose text is already present is ignored (the first modifier wins).
func (s TermSet) Add(terms ...Term) TermSet {
	out := TermSet{
		terms: make([]Term, len(s.terms), len(s.terms)+len(terms)),
		index: make(map[string]int, len(s.terms)+len(terms)),
	}
	copy(out.terms, s.terms)
	for k, v := range s.index {
		out.index[k] = v
	}
	for _, t := range terms {
		key := Fold(t.Text())
		if _, dup := out.index[key]; dup {
			continue
		}
		out.index[key] = len(out.terms)
		out.terms = append(out.terms, t)
	}
	return out
}

// Len returns the number of distinct terms.
func (s TermSet) Len() int { return len(s.terms) }

// Contains reports whether a term with the given text (any case) is present.
func (s TermSet) Contains(text string) bool {
	_, ok := s.index[toKey(text)]
	return ok
}

// Terms returns a copy of the terms in insertion order.
func (s TermSet) Terms() []Term {
	out := make([]Term, len(s.terms))
	copy(out, s.terms)
	return out
}

// Texts returns the normalized term texts, optionally skipping excluded terms.
func (s TermSet) Texts(includeExcluded bool) []string {
	out := make([]string, 0, len(s.terms))
	for _, t := range s.terms {
		if !includeExcluded && t.Modifier() == Excluded {
			continue
		}
		out = append(out, t.Text())
	}
	return out
}

func toKey(text string) string {
	t, ok := NewTerm(text, Optional, false)
	if !ok {
		return ""
	}
	return Fold(t.Text())
}
