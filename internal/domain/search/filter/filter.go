// Package filter builds boolean predicates over record field values.
package filter

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/kbase/internal/domain/search/query"
)

// Kind identifies the node type of a Predicate.
type Kind int

// Predicate kinds.
const (
	KindAll Kind = iota
	KindNone
	KindContains
	KindEquals
	KindNot
	KindAnd
	KindOr
)

// Valuer exposes field values of a record. Absent fields report false.
type Valuer interface {
	Value(field string) (string, bool)
}

// Predicate is an immutable boolean condition tree. The zero value matches everything.
type Predicate struct {
	kind     Kind
	field    string
	value    string
	children []Predicate
}

// All matches every record.
func All() Predicate { return Predicate{kind: KindAll} }

// None matches no record.
func None() Predicate { return Predicate{kind: KindNone} }

// Contains matches records whose field contains value, ignoring case.
func Contains(field, value string) Predicate {
	return Predicate{kind: KindContains, field: field, value: value}
}

// Equals matches records whose field is exactly value.
func Equals(field, value string) Predicate {
	return Predicate{kind: KindEquals, field: field, value: value}
}

// Not negates p.
func Not(p Predicate) Predicate {
	switch p.kind {
	case KindAll:
		return None()
	case KindNone:
		return All()
	case KindNot:
		return p.children[0]
	}
	return Predicate{kind: KindNot, children: []Predicate{p}}
}

// And matches when every child matches. And() with no children is All.
func And(ps ...Predicate) Predicate {
	children := make([]Predicate, 0, len(ps))
	for _, p := range ps {
		switch p.kind {
		case KindAll:
			continue
		case KindNone:
			return None()
		case KindAnd:
			children = append(children, p.children...)
		default:
			children = append(children, p)
		}
	}
	return collapse(KindAnd, children, All())
}

// Or matches when any child matches. Or() with no children is None.
func Or(ps ...Predicate) Predicate {
	children := make([]Predicate, 0, len(ps))
	for _, p := range ps {
		switch p.kind {
		case KindNone:
			continue
		case KindAll:
			return All()
		case KindOr:
			children = append(children, p.children...)
		default:
			children = append(children, p)
		}
	}
	return collapse(KindOr, children, None())
}

func collapse(k Kind, children []Predicate, empty Predicate) Predicate {
	switch len(children) {
	case 0:
		return empty
	case 1:
		return children[0]
	}
	return Predicate{kind: k, children: children}
}

// Kind returns the node type.
func (p Predicate) Kind() Kind { return p.kind }

// Field returns the field of a Contains or Equals node.
func (p Predicate) Field() string { return p.field }

// Value returns the comparison value of a Contains or Equals node.
func (p Predicate) Value() string { return p.value }

// Children returns a copy of the child predicates.
func (p Predicate) Children() []Predicate {
	out := make([]Predicate, len(p.children))
	copy(out, p.children)
	return out
}

// IsAll reports whether p matches everything.
func (p Predicate) IsAll() bool { return p.kind == KindAll }

// IsNone reports whether p matches nothing.
func (p Predicate) IsNone() bool { return p.kind == KindNone }

// Eval reports whether the record satisfies p.
func (p Predicate) Eval(r Valuer) bool {
	switch p.kind {
	case KindAll:
		return true
	case KindNone:
		return false
	case KindContains:
		v, ok := r.Value(p.field)
		if !ok {
			return false
		}
		return strings.Contains(query.Fold(v), query.Fold(p.value))
	case KindEquals:
		v, ok := r.Value(p.field)
		return ok && v == p.value
	case KindNot:
		return !p.children[0].Eval(r)
	case KindAnd:
		for _, c := range p.children {
			if !c.Eval(r) {
				return false
			}
		}
		return true
	case KindOr:
		for _, c := range p.children {
			if c.Eval(r) {
				return true
			}
		}
		return false
	}
	return false
}

// Fields returns every field referenced by p, in first-seen order.
func (p Predicate) Fields() []string {
	var out []string
	seen := make(map[string]struct{})
	var walk func(Predicate)
	walk = func(n Predicate) {
		if n.kind == KindContains || n.kind == KindEquals {
			if _, ok := seen[n.field]; !ok {
				seen[n.field] = struct{}{}
				out = append(out, n.field)
			}
			return
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(p)
	return out
}

// String renders p for logs. The output is deterministic.
func (p Predicate) String() string {
	var b strings.Builder
	p.write(&b)
	return b.String()
}

func (p Predicate) write(b *strings.Builder) {
	switch p.kind {
	case KindAll:
		b.WriteString("ALL")
	case KindNone:
		b.WriteString("NONE")
	case KindContains:
		b.WriteString(p.field)
		b.WriteString("~")
		b.WriteString(strconv.Quote(p.value))
	case KindEquals:
		b.WriteString(p.field)
		b.WriteString("=")
		b.WriteString(strconv.Quote(p.value))
	case KindNot:
		b.WriteString("NOT ")
		p.children[0].write(b)
	case KindAnd, KindOr:
		op := " AND "
		if p.kind == KindOr {
			op = " OR "
		}
		b.WriteString("(")
		for i, c := range p.children {
			if i > 0 {
				b.WriteString(op)
			}
			c.write(b)
		}
		b.WriteString(")")
	}
}
