package kbase

// FieldType is the value type of a collection field.
type FieldType string

// Field types.
const (
	FieldChar     FieldType = "char"
	FieldText     FieldType = "text"
	FieldSlug     FieldType = "slug"
	FieldTag      FieldType = "tag"
	FieldNumeric  FieldType = "numeric"
	FieldDatetime FieldType = "datetime"
)

// FieldInfo describes one collection field.
type FieldInfo struct {
	Name string
	Type FieldType
}

// CollectionInfo describes a collection schema.
type CollectionInfo struct {
	Name         string
	Fields       []FieldInfo
	SearchFields []string
	Ordering     []string
	Revision     int
}

// Hit is one search result. Score is zero unless the results were ranked.
type Hit[T any] struct {
	Item  T
	Score float64
}

// BatchResult reports the outcome of one item in a batch operation.
type BatchResult struct {
	Index int
	ID    string
	Err   error
}
