// Package record defines the record aggregate stored in collections.
package record

import (
	"fmt"
	"maps"
	"regexp"
)

var (
	idRegex     = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	reservedIDs = map[string]bool{"search": true, "collections": true}
)

// MaxValueSize is the maximum size of a single field value in bytes.
const MaxValueSize = 163840 // 160KB

// Record is a set of named string values (immutable value object).
type Record struct {
	id       string
	fields   map[string]string
	revision int
}

// New validates and creates a Record.
// ID: ^[a-zA-Z0-9_-]+$, 1-256 chars, not reserved. Values: max 160KB each.
// Schema validation happens in the service layer.
func New(id string, fields map[string]string) (Record, error) {
	if err := ValidateID(id); err != nil {
		return Record{}, err
	}
	for k, v := range fields {
		if len(v) > MaxValueSize {
			return Record{}, fmt.Errorf("field %q too large (max %d bytes)", k, MaxValueSize)
		}
	}
	return Record{id: id, fields: maps.Clone(fields), revision: 1}, nil
}

// ValidateID checks record ID syntax.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("record ID is required")
	}
	if len(id) > 256 {
		return fmt.Errorf("record ID too long (max 256)")
	}
	if !idRegex.MatchString(id) {
		return fmt.Errorf("record ID must be alphanumeric with underscores and hyphens")
	}
	if reservedIDs[id] {
		return fmt.Errorf("record ID %q is reserved", id)
	}
	return nil
}

// Reconstruct creates a Record without validation (storage hydration).
func Reconstruct(id string, fields map[string]string, revision int) Record {
	return Record{id: id, fields: fields, revision: revision}
}

// ID returns the record identifier.
func (r Record) ID() string { return r.id }

// Fields returns a copy of the field values.
func (r Record) Fields() map[string]string { return maps.Clone(r.fields) }

// Revision returns the record revision number.
func (r Record) Revision() int { return r.revision }

// Value returns the value of field. "id" resolves to the record ID.
func (r Record) Value(field string) (string, bool) {
	if field == "id" {
		return r.id, true
	}
	v, ok := r.fields[field]
	return v, ok
}

// WithRevision returns a copy with the given revision.
func (r Record) WithRevision(rev int) Record {
	r.revision = rev
	return r
}
