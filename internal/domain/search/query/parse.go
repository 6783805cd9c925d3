package query

import (
	"strings"
	"unicode"
)

var (
	// A modifier followed by whitespace binds to nothing and is removed
	// together with the space, wherever it appears.
	detachedReplacer = strings.NewReplacer(
		"+ ", "",
		"- ", "",
	)
	quoteReplacer = strings.NewReplacer(
		`+"`, `"+`,
		`-"`, `"-`,
	)
)

// Parse converts a raw search string into terms: quoted phrases first, then
// the remaining words, each in source order. It never fails; input with no
// usable text yields no terms.
func Parse(raw string) []Term {
	normalized := strings.Join(strings.Fields(raw), " ")
	normalized = quoteReplacer.Replace(detachedReplacer.Replace(normalized))

	segments := strings.Split(normalized, `"`)

	var phrases []string
	var rest []string
	for i, seg := range segments {
		if i%2 == 1 {
			phrases = append(phrases, seg)
		} else {
			rest = append(rest, seg)
		}
	}

	terms := make([]Term, 0, len(phrases)+len(rest))
	for _, p := range phrases {
		if t, ok := parseToken(p, true); ok {
			terms = append(terms, t)
		}
	}
	for _, w := range strings.Fields(strings.Join(rest, " ")) {
		if t, ok := parseToken(w, false); ok {
			terms = append(terms, t)
		}
	}
	return terms
}

func parseToken(tok string, phrase bool) (Term, bool) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return Term{}, false
	}
	m := Optional
	switch tok[0] {
	case '+':
		m = Required
		tok = tok[1:]
	case '-':
		m = Excluded
		tok = tok[1:]
	}
	return NewTerm(tok, m, phrase)
}

// trimBoundary strips leading and trailing runes that are neither letters nor digits.
func trimBoundary(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
