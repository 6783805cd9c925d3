// Package query turns free-form search strings into typed terms.
package query

import (
	"strings"

	"golang.org/x/text/cases"
)

// Modifier controls how a term participates in filtering.
type Modifier int

// Modifier values.
const (
	// Optional terms carry no prefix.
	Optional Modifier = iota
	// Required terms are prefixed with "+".
	Required
	// Excluded terms are prefixed with "-".
	Excluded
)

// String returns the lowercase modifier name.
func (m Modifier) String() string {
	switch m {
	case Required:
		return "required"
	case Excluded:
		return "excluded"
	default:
		return "optional"
	}
}

// Term is a single parsed word or quoted phrase (immutable value object).
type Term struct {
	text     string
	raw      string
	modifier Modifier
	phrase   bool
}

// NewTerm builds a term from already-stripped text. Returns false if text is empty.
func NewTerm(raw string, m Modifier, phrase bool) (Term, bool) {
	raw = trimBoundary(raw)
	if raw == "" {
		return Term{}, false
	}
	return Term{text: strings.ToLower(raw), raw: raw, modifier: m, phrase: phrase}, true
}

// Text returns the normalized (lowercase) term text.
func (t Term) Text() string { return t.text }

// Raw returns the stripped text in its original case.
func (t Term) Raw() string { return t.raw }

// Modifier returns the term modifier.
func (t Term) Modifier() Modifier { return t.modifier }

// IsPhrase reports whether the term came from a quoted phrase.
func (t Term) IsPhrase() bool { return t.phrase }

// String renders the term the way it would be typed.
func (t Term) String() string {
	var prefix string
	switch t.modifier {
	case Required:
		prefix = "+"
	case Excluded:
		prefix = "-"
	}
	if t.phrase {
		return prefix + `"` + t.raw + `"`
	}
	return prefix + t.raw
}

// Fold returns s case-folded for case-insensitive comparison.
// A new Caser is built per call: Casers are stateful and not safe for concurrent use.
func Fold(s string) string {
	return cases.Fold().String(s)
}
