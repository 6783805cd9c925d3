// Package patch describes partial record updates.
package patch

import (
	"fmt"
	"maps"

	"github.com/kailas-cloud/kbase/internal/domain/record"
)

// Patch is a partial record update. A nil value deletes that field.
type Patch struct {
	fields map[string]*string
}

// New validates and creates a Patch. At least one field must be provided.
func New(fields map[string]*string) (Patch, error) {
	if len(fields) == 0 {
		return Patch{}, fmt.Errorf("at least one field must be provided")
	}
	for k, v := range fields {
		if v != nil && len(*v) > record.MaxValueSize {
			return Patch{}, fmt.Errorf("field %q too large (max %d bytes)", k, record.MaxValueSize)
		}
	}
	return Patch{fields: maps.Clone(fields)}, nil
}

// Fields returns the field updates (nil value = delete).
func (p Patch) Fields() map[string]*string { return p.fields }

// Sets returns the non-nil updates as plain values.
func (p Patch) Sets() map[string]string {
	out := make(map[string]string, len(p.fields))
	for k, v := range p.fields {
		if v != nil {
			out[k] = *v
		}
	}
	return out
}

// Apply returns r with the patch applied and its revision bumped.
func (p Patch) Apply(r record.Record) record.Record {
	fields := r.Fields()
	if fields == nil {
		fields = make(map[string]string, len(p.fields))
	}
	for k, v := range p.fields {
		if v == nil {
			delete(fields, k)
			continue
		}
		fields[k] = *v
	}
	return record.Reconstruct(r.ID(), fields, r.Revision()+1)
}
