package kbase

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/kbase/internal/domain/collection/field"
)

const tagKey = "kbase"

var timeType = reflect.TypeFor[time.Time]()

// schemaMeta holds parsed struct tag metadata, cached per Index.
type schemaMeta struct {
	typ   reflect.Type // struct type for reconstruction
	idIdx int

	fields       []fieldMapping
	searchFields []string
}

type fieldMapping struct {
	structIdx int
	name      string
	ftype     FieldType
}

// parseSchema reflects on T and extracts kbase struct tag metadata.
// Tags have the form `kbase:"name,type[,search]"`; `kbase:"id"` marks the
// record ID.
func parseSchema[T any]() (*schemaMeta, error) {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("kbase: type %s is not a struct", t)
	}

	meta := &schemaMeta{typ: t, idIdx: -1}
	seen := make(map[string]bool)

	for i := range t.NumField() {
		f := t.Field(i)
		tag := f.Tag.Get(tagKey)
		if tag == "" || tag == "-" {
			continue
		}
		if err := applyTag(meta, f, i, tag, seen); err != nil {
			return nil, err
		}
	}

	if meta.idIdx == -1 {
		return nil, fmt.Errorf("kbase: no field with `kbase:\"id\"` tag in %s", t)
	}
	return meta, nil
}

// applyTag processes a single struct field's kbase tag.
func applyTag(meta *schemaMeta, f reflect.StructField, idx int, tag string, seen map[string]bool) error {
	parts := strings.Split(tag, ",")
	name := parts[0]

	if name == "id" {
		if meta.idIdx != -1 {
			return fmt.Errorf("kbase: duplicate id tag on field %s", f.Name)
		}
		if f.Type.Kind() != reflect.String {
			return fmt.Errorf("kbase: id field %s must be a string", f.Name)
		}
		meta.idIdx = idx
		return nil
	}

	if len(parts) < 2 {
		return fmt.Errorf("kbase: field %s: tag %q has no type", f.Name, tag)
	}
	ft := FieldType(parts[1])
	if !field.Type(ft).IsValid() {
		return fmt.Errorf("kbase: field %s: unknown type %q", f.Name, ft)
	}
	if err := checkKind(f, ft); err != nil {
		return err
	}
	if seen[name] {
		return fmt.Errorf("kbase: duplicate field name %q", name)
	}
	seen[name] = true

	meta.fields = append(meta.fields, fieldMapping{structIdx: idx, name: name, ftype: ft})

	for _, opt := range parts[2:] {
		switch opt {
		case "search":
			meta.searchFields = append(meta.searchFields, name)
		default:
			return fmt.Errorf("kbase: unknown option %q on field %s", opt, f.Name)
		}
	}
	return nil
}

// checkKind rejects Go types that cannot hold values of ft.
func checkKind(f reflect.StructField, ft FieldType) error {
	k := f.Type.Kind()
	ok := k == reflect.String
	switch ft {
	case FieldNumeric:
		ok = ok || isNumber(k)
	case FieldDatetime:
		ok = ok || f.Type == timeType
	}
	if !ok {
		return fmt.Errorf("kbase: field %s: %s cannot hold %s values", f.Name, f.Type, ft)
	}
	return nil
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// schemaFields builds domain fields from parsed metadata.
func (m *schemaMeta) schemaFields() ([]field.Field, error) {
	out := make([]field.Field, len(m.fields))
	for i, fm := range m.fields {
		f, err := field.New(fm.name, field.Type(fm.ftype))
		if err != nil {
			return nil, fmt.Errorf("kbase: %w", err)
		}
		out[i] = f
	}
	return out, nil
}

// toRecord converts a typed struct to an ID and field values.
// Zero times and empty strings are left out.
func (m *schemaMeta) toRecord(item any) (string, map[string]string) {
	v := reflect.ValueOf(item)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}

	values := make(map[string]string, len(m.fields))
	for _, fm := range m.fields {
		if s := formatValue(v.Field(fm.structIdx)); s != "" {
			values[fm.name] = s
		}
	}
	return v.Field(m.idIdx).String(), values
}

func formatValue(v reflect.Value) string {
	switch {
	case v.Type() == timeType:
		t, _ := v.Interface().(time.Time)
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(time.RFC3339)
	case v.Kind() == reflect.String:
		return v.String()
	case v.CanInt():
		return strconv.FormatInt(v.Int(), 10)
	case v.CanUint():
		return strconv.FormatUint(v.Uint(), 10)
	case v.CanFloat():
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	}
	return ""
}

// fromRecord converts stored values back to T.
func fromRecord[T any](m *schemaMeta, id string, values map[string]string) (T, error) {
	var item T
	v := reflect.ValueOf(&item).Elem()

	v.Field(m.idIdx).SetString(id)
	for _, fm := range m.fields {
		s, ok := values[fm.name]
		if !ok {
			continue
		}
		if err := setValue(v.Field(fm.structIdx), s); err != nil {
			return item, fmt.Errorf("kbase: field %q: %w", fm.name, err)
		}
	}
	return item, nil
}

func setValue(v reflect.Value, s string) error {
	switch {
	case v.Type() == timeType:
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return err
		}
		v.Set(reflect.ValueOf(t))
	case v.Kind() == reflect.String:
		v.SetString(s)
	case v.CanInt():
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		v.SetInt(n)
	case v.CanUint():
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return err
		}
		v.SetUint(n)
	case v.CanFloat():
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		v.SetFloat(f)
	}
	return nil
}
