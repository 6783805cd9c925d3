package collection

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/kbase/internal/domain/collection"
	"github.com/kailas-cloud/kbase/internal/domain/collection/field"
)

// fieldRow is the JSON-serializable representation of a field for HSET.
type fieldRow struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// collectionToHash converts a domain Collection to a map for HSET.
func collectionToHash(col collection.Collection) (map[string]string, error) {
	rows := make([]fieldRow, len(col.Fields()))
	for i, f := range col.Fields() {
		rows[i] = fieldRow{Name: f.Name(), Type: string(f.FieldType())}
	}
	fieldsJSON, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("marshal fields: %w", err)
	}
	searchJSON, err := json.Marshal(nonNil(col.SearchFields()))
	if err != nil {
		return nil, fmt.Errorf("marshal search fields: %w", err)
	}
	orderingJSON, err := json.Marshal(nonNil(col.OrderingSpecs()))
	if err != nil {
		return nil, fmt.Errorf("marshal ordering: %w", err)
	}
	return map[string]string{
		"name":               col.Name(),
		"fields_json":        string(fieldsJSON),
		"search_fields_json": string(searchJSON),
		"ordering_json":      string(orderingJSON),
		"created_at":         strconv.FormatInt(col.CreatedAt(), 10),
		"revision":           strconv.Itoa(col.Revision()),
	}, nil
}

// collectionFromHash hydrates a domain Collection from an HGETALL result map.
func collectionFromHash(m map[string]string) (collection.Collection, error) {
	createdAt, err := strconv.ParseInt(m["created_at"], 10, 64)
	if err != nil {
		return collection.Collection{}, fmt.Errorf("invalid created_at: %w", err)
	}

	var rows []fieldRow
	if err := unmarshalOptional(m["fields_json"], &rows); err != nil {
		return collection.Collection{}, fmt.Errorf("unmarshal fields: %w", err)
	}
	fields := make([]field.Field, len(rows))
	for i, r := range rows {
		fields[i] = field.Reconstruct(r.Name, field.Type(r.Type))
	}

	var searchFields, ordering []string
	if err := unmarshalOptional(m["search_fields_json"], &searchFields); err != nil {
		return collection.Collection{}, fmt.Errorf("unmarshal search fields: %w", err)
	}
	if err := unmarshalOptional(m["ordering_json"], &ordering); err != nil {
		return collection.Collection{}, fmt.Errorf("unmarshal ordering: %w", err)
	}

	revision := 1
	if revStr, ok := m["revision"]; ok && revStr != "" {
		if parsed, err := strconv.Atoi(revStr); err == nil {
			revision = parsed
		}
	}

	return collection.Reconstruct(m["name"], fields, searchFields, ordering, createdAt, revision), nil
}

func unmarshalOptional(s string, v any) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), v)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
