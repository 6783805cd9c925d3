package field

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Type is the value type of a field.
type Type string

// Field type constants.
const (
	// Char is a short single-line string (titles, names).
	Char Type = "char"
	// Text is free-form multi-line text.
	Text Type = "text"
	// Slug is a URL-safe identifier string.
	Slug Type = "slug"
	// Tag is an exact-match label.
	Tag      Type = "tag"
	Numeric  Type = "numeric"
	Datetime Type = "datetime"
)

// TextTypes are the types searched when a collection configures no search fields.
var TextTypes = []Type{Char, Text, Slug}

var (
	nameRegex          = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)
	slugRegex          = regexp.MustCompile(`^[a-zA-Z0-9_-]*$`)
	reservedFieldNames = map[string]bool{"id": true, "score": true}
)

// IsValid reports whether t is a known field type.
func (t Type) IsValid() bool {
	switch t {
	case Char, Text, Slug, Tag, Numeric, Datetime:
		return true
	}
	return false
}

// IsText reports whether t holds searchable text.
func (t Type) IsText() bool {
	return t == Char || t == Text || t == Slug
}

// MaxCharLength is the maximum length of a char value in bytes.
const MaxCharLength = 255

// Field is an immutable value object describing a collection field.
type Field struct {
	name      string
	fieldType Type
}

// New validates and creates a Field.
// Name must start with a letter, contain only [a-zA-Z0-9_], be max 64 chars and not reserved.
func New(name string, ft Type) (Field, error) {
	if name == "" {
		return Field{}, fmt.Errorf("field name is required")
	}
	if len(name) > 64 {
		return Field{}, fmt.Errorf("field name %q too long (max 64)", name)
	}
	if reservedFieldNames[name] {
		return Field{}, fmt.Errorf("field name %q is reserved", name)
	}
	if !nameRegex.MatchString(name) {
		return Field{}, fmt.Errorf("field name %q must start with a letter and contain only letters, digits and underscores", name)
	}
	if !ft.IsValid() {
		return Field{}, fmt.Errorf("invalid field type %q for %q", ft, name)
	}
	return Field{name: name, fieldType: ft}, nil
}

// Reconstruct creates a Field without validation (storage hydration).
func Reconstruct(name string, ft Type) Field {
	return Field{name: name, fieldType: ft}
}

// Name returns the field name.
func (f Field) Name() string { return f.name }

// FieldType returns the field's value type.
func (f Field) FieldType() Type { return f.fieldType }

// Validate checks that value is well-formed for the field type.
func (f Field) Validate(value string) error {
	switch f.fieldType {
	case Char:
		if len(value) > MaxCharLength {
			return fmt.Errorf("field %q too long (max %d)", f.name, MaxCharLength)
		}
	case Slug:
		if !slugRegex.MatchString(value) {
			return fmt.Errorf("field %q must be a slug", f.name)
		}
	case Numeric:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("field %q must be numeric", f.name)
		}
	case Datetime:
		if _, err := time.Parse(time.RFC3339, value); err != nil {
			return fmt.Errorf("field %q must be an RFC 3339 timestamp", f.name)
		}
	}
	return nil
}
