package request

import (
	"fmt"
	"strings"
)

// SortKey orders results by one field.
type SortKey struct {
	field string
	desc  bool
}

// Asc sorts by field ascending.
func Asc(field string) SortKey { return SortKey{field: field} }

// Desc sorts by field descending.
func Desc(field string) SortKey { return SortKey{field: field, desc: true} }

// ParseSortKey parses "field" (ascending) or "-field" (descending).
func ParseSortKey(s string) (SortKey, error) {
	s = strings.TrimSpace(s)
	desc := strings.HasPrefix(s, "-")
	field := strings.TrimPrefix(s, "-")
	if field == "" {
		return SortKey{}, fmt.Errorf("empty sort key %q", s)
	}
	return SortKey{field: field, desc: desc}, nil
}

// ParseSortKeys parses each spec with ParseSortKey.
func ParseSortKeys(specs ...string) ([]SortKey, error) {
	keys := make([]SortKey, 0, len(specs))
	for _, s := range specs {
		k, err := ParseSortKey(s)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// Field returns the sort field.
func (k SortKey) Field() string { return k.field }

// Desc reports whether the order is descending.
func (k SortKey) Desc() bool { return k.desc }

// String renders the key in ParseSortKey form.
func (k SortKey) String() string {
	if k.desc {
		return "-" + k.field
	}
	return k.field
}
