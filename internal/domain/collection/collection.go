package collection

import (
	"fmt"
	"regexp"
	"slices"
	"time"

	"github.com/kailas-cloud/kbase/internal/domain/collection/field"
	"github.com/kailas-cloud/kbase/internal/domain/search/request"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// IDField is the implicit identifier field present in every collection.
const IDField = "id"

// MaxFields is the maximum number of fields per collection.
const MaxFields = 64

// Collection is a record source schema (immutable value object).
type Collection struct {
	name         string
	fields       []field.Field
	searchFields []string
	ordering     []request.SortKey
	createdAt    int64
	revision     int
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("collection name is required")
	}
	if len(name) > 64 {
		return fmt.Errorf("collection name too long (max 64)")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("collection name must be alphanumeric with underscores and hyphens")
	}
	return nil
}

func validateFields(fields []field.Field) error {
	if len(fields) > MaxFields {
		return fmt.Errorf("too many fields (max %d)", MaxFields)
	}
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.Name()] {
			return fmt.Errorf("duplicate field name: %s", f.Name())
		}
		seen[f.Name()] = true
	}
	return nil
}

// New validates and creates a Collection.
// Name: ^[a-zA-Z0-9_-]+$, 1-64 chars. Fields: unique names, max 64.
// Search fields must name text fields. Ordering specs ("field" or "-field")
// must name existing fields.
func New(name string, fields []field.Field, searchFields, ordering []string) (Collection, error) {
	if err := validateName(name); err != nil {
		return Collection{}, err
	}
	if err := validateFields(fields); err != nil {
		return Collection{}, err
	}

	c := Collection{name: name, fields: fields}

	seen := make(map[string]bool, len(searchFields))
	for _, sf := range searchFields {
		f, ok := c.FieldByName(sf)
		if !ok {
			return Collection{}, fmt.Errorf("search field %q is not defined", sf)
		}
		if !f.FieldType().IsText() {
			return Collection{}, fmt.Errorf("search field %q has non-text type %s", sf, f.FieldType())
		}
		if seen[sf] {
			return Collection{}, fmt.Errorf("duplicate search field: %s", sf)
		}
		seen[sf] = true
	}

	keys, err := request.ParseSortKeys(ordering...)
	if err != nil {
		return Collection{}, fmt.Errorf("ordering: %w", err)
	}
	for _, k := range keys {
		if !c.HasField(k.Field()) {
			return Collection{}, fmt.Errorf("ordering field %q is not defined", k.Field())
		}
	}

	c.searchFields = append([]string(nil), searchFields...)
	c.ordering = keys
	c.createdAt = time.Now().UnixMilli()
	c.revision = 1
	return c, nil
}

// Reconstruct creates a Collection without validation (storage hydration).
// Unparseable ordering specs are skipped.
func Reconstruct(
	name string, fields []field.Field, searchFields, ordering []string,
	createdAt int64, revision int,
) Collection {
	keys := make([]request.SortKey, 0, len(ordering))
	for _, spec := range ordering {
		if k, err := request.ParseSortKey(spec); err == nil {
			keys = append(keys, k)
		}
	}
	return Collection{
		name:         name,
		fields:       fields,
		searchFields: searchFields,
		ordering:     keys,
		createdAt:    createdAt,
		revision:     revision,
	}
}

// Name returns the collection name.
func (c Collection) Name() string { return c.name }

// Fields returns the field definitions.
func (c Collection) Fields() []field.Field { return c.fields }

// SearchFields returns the configured default search fields (may be empty).
func (c Collection) SearchFields() []string { return append([]string(nil), c.searchFields...) }

// Ordering returns the default result ordering.
func (c Collection) Ordering() []request.SortKey {
	return append([]request.SortKey(nil), c.ordering...)
}

// OrderingSpecs returns the default ordering in "field" / "-field" form.
func (c Collection) OrderingSpecs() []string {
	out := make([]string, len(c.ordering))
	for i, k := range c.ordering {
		out[i] = k.String()
	}
	return out
}

// CreatedAt returns the creation timestamp (unix millis).
func (c Collection) CreatedAt() int64 { return c.createdAt }

// Revision returns the optimistic concurrency version.
func (c Collection) Revision() int { return c.revision }

// Replacing returns c as the successor of prev: same creation time, next revision.
func (c Collection) Replacing(prev Collection) Collection {
	c.createdAt = prev.createdAt
	c.revision = prev.revision + 1
	return c
}

// SameSchema reports whether c and o define the same fields, search fields and ordering.
func (c Collection) SameSchema(o Collection) bool {
	return c.name == o.name &&
		slices.Equal(c.fields, o.fields) &&
		slices.Equal(c.searchFields, o.searchFields) &&
		slices.Equal(c.ordering, o.ordering)
}

// HasField reports whether name is the id field or a defined field.
func (c Collection) HasField(name string) bool {
	if name == IDField {
		return true
	}
	_, ok := c.FieldByName(name)
	return ok
}

// FieldByName looks up a field by name.
func (c Collection) FieldByName(name string) (field.Field, bool) {
	for _, f := range c.fields {
		if f.Name() == name {
			return f, true
		}
	}
	return field.Field{}, false
}

// FieldsOfType returns the names of fields of any of the given types, in definition order.
func (c Collection) FieldsOfType(types ...field.Type) []string {
	var out []string
	for _, f := range c.fields {
		for _, t := range types {
			if f.FieldType() == t {
				out = append(out, f.Name())
				break
			}
		}
	}
	return out
}

// DefaultSearchFields returns the configured search fields, falling back to
// every text-typed field. The result may be empty.
func (c Collection) DefaultSearchFields() []string {
	if len(c.searchFields) > 0 {
		return c.SearchFields()
	}
	return c.FieldsOfType(field.TextTypes...)
}

// ValidateValues checks that every key names a field and every value fits its type.
func (c Collection) ValidateValues(values map[string]string) error {
	for name, v := range values {
		f, ok := c.FieldByName(name)
		if !ok {
			return fmt.Errorf("unknown field %q", name)
		}
		if err := f.Validate(v); err != nil {
			return err
		}
	}
	return nil
}
