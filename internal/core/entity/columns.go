package entity

import (
	"fmt"
	"reflect"
	"sync"
	"time"
)

// ExtractDBColumns extracts all column names from struct "db" tags.
// Embedded structs are walked recursively. Meant to be called once at startup.
//
//	columns := ExtractDBColumns[warehouse.Warehouse]()
//	// ["id", "date_create", "date_update", "code", "name", ...]
func ExtractDBColumns[T any]() []string {
	var zero T
	return extractColumnsFromType(reflect.TypeOf(zero))
}

func extractColumnsFromType(t reflect.Type) []string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var cols []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Anonymous {
			cols = append(cols, extractColumnsFromType(field.Type)...)
			continue
		}

		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		cols = append(cols, tag)
	}
	return cols
}

type fieldInfo struct {
	index int
	dbTag string
}

type typeMetadata struct {
	fields          []fieldInfo
	embeddedIndices []int
}

var typeCache sync.Map // map[reflect.Type]*typeMetadata

func getOrCreateTypeMetadata(t reflect.Type) *typeMetadata {
	if cached, ok := typeCache.Load(t); ok {
		return cached.(*typeMetadata)
	}

	meta := &typeMetadata{}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous {
			meta.embeddedIndices = append(meta.embeddedIndices, i)
			continue
		}
		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" || !field.IsExported() {
			continue
		}
		meta.fields = append(meta.fields, fieldInfo{index: i, dbTag: tag})
	}

	typeCache.Store(t, meta)
	return meta
}

// StructToMap converts a struct (or pointer to struct) to a column->value map
// using "db" tags. Type metadata is cached after the first call per type.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	res := make(map[string]any)
	collectColumns(rv, res)
	return res
}

func collectColumns(rv reflect.Value, res map[string]any) {
	meta := getOrCreateTypeMetadata(rv.Type())
	for _, fi := range meta.fields {
		res[fi.dbTag] = rv.Field(fi.index).Interface()
	}
	for _, idx := range meta.embeddedIndices {
		f := rv.Field(idx)
		if f.Kind() == reflect.Ptr {
			if f.IsNil() {
				continue
			}
			f = f.Elem()
		}
		if f.Kind() == reflect.Struct {
			collectColumns(f, res)
		}
	}
}

// Columns returns the subset of StructToMap(v) restricted to cols, in cols order.
func Columns(v any, cols []string) ([]any, error) {
	data := StructToMap(v)
	values := make([]any, 0, len(cols))
	for _, col := range cols {
		val, ok := data[col]
		if !ok {
			return nil, fmt.Errorf("column %q has no db-tagged field in %T", col, v)
		}
		values = append(values, val)
	}
	return values, nil
}

// Assign sets the db-tagged fields of dst (a pointer to struct) from row.
// Columns missing from row are left untouched; nil values zero the field.
func Assign(dst any, row map[string]any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("assign into %T: want non-nil pointer to struct", dst)
	}
	return assignColumns(rv.Elem(), row)
}

func assignColumns(rv reflect.Value, row map[string]any) error {
	meta := getOrCreateTypeMetadata(rv.Type())
	for _, fi := range meta.fields {
		v, ok := row[fi.dbTag]
		if !ok {
			continue
		}
		field := rv.Field(fi.index)
		if v == nil {
			field.Set(reflect.Zero(field.Type()))
			continue
		}
		val := reflect.ValueOf(v)
		switch {
		case val.Type().AssignableTo(field.Type()):
			field.Set(val)
		case val.Type().ConvertibleTo(field.Type()):
			field.Set(val.Convert(field.Type()))
		default:
			return fmt.Errorf("column %q: cannot assign %T to %s", fi.dbTag, v, field.Type())
		}
	}
	for _, idx := range meta.embeddedIndices {
		f := rv.Field(idx)
		if f.Kind() == reflect.Ptr {
			if f.IsNil() {
				continue
			}
			f = f.Elem()
		}
		if f.Kind() == reflect.Struct {
			if err := assignColumns(f, row); err != nil {
				return err
			}
		}
	}
	return nil
}

// CopyInto overwrites *dst with *src. Both must be non-nil pointers to the same struct type.
func CopyInto(dst, src Record) error {
	dv := reflect.ValueOf(dst)
	sv := reflect.ValueOf(src)
	if dv.Kind() != reflect.Ptr || sv.Kind() != reflect.Ptr || dv.IsNil() || sv.IsNil() {
		return fmt.Errorf("copy %T into %T: both must be non-nil pointers", src, dst)
	}
	if dv.Type() != sv.Type() {
		return fmt.Errorf("copy %T into %T: type mismatch", src, dst)
	}
	if dv.Pointer() != sv.Pointer() {
		dv.Elem().Set(sv.Elem())
	}
	return nil
}

// MergeInto is CopyInto that keeps dst's creation time when dst already has
// one, so a detached copy with a zero or stale DateCreate never replaces it.
func MergeInto(dst, src Record) error {
	var created time.Time
	stamped, ok := dst.(CreationStamped)
	if ok {
		created = stamped.CreatedAt()
	}
	if err := CopyInto(dst, src); err != nil {
		return err
	}
	if ok && !created.IsZero() {
		stamped.SetCreatedAt(created)
	}
	return nil
}

// ColumnDateCreate is written by inserts and never by updates.
const ColumnDateCreate = "date_create"

var insertOnly = []string{ColumnDateCreate}

// UpdateColumns returns the columns an update writes for r: every db column
// except the key columns and the insert-only ones.
func UpdateColumns(r Record) map[string]any {
	data := StructToMap(r)
	for col := range r.Key() {
		delete(data, col)
	}
	for _, col := range insertOnly {
		delete(data, col)
	}
	return data
}

// New allocates a fresh zero value of the same pointer type as r.
func New(r Record) Record {
	rv := reflect.ValueOf(r)
	return reflect.New(rv.Type().Elem()).Interface().(Record)
}
