package tablerow

import (
	stdjson "encoding/json"
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cast"
	deepcopy "github.com/tiendc/go-deepcopy"

	"github.com/kasuganosora/tablerow/pkg/json"
	"github.com/kasuganosora/tablerow/pkg/resource/domain"
)

// fieldKind is how a struct field's value is read.
type fieldKind int

const (
	fieldSigned fieldKind = iota
	fieldUnsigned
	fieldFloat
	fieldBool
	fieldString
	fieldBytes
	fieldTime
	fieldOther
)

type fieldBinding struct {
	index []int
	kind  fieldKind
}

// Schema is the column layout of a struct type, in json field order.
type Schema struct {
	columns []domain.ColumnInfo
	fields  []fieldBinding
	rowID   int
}

// Columns returns the column definitions
func (s *Schema) Columns() []domain.ColumnInfo {
	return slices.Clone(s.columns)
}

// Len returns the number of columns
func (s *Schema) Len() int {
	return len(s.columns)
}

var schemaCache sync.Map // reflect.Type → *Schema

// SchemaOf reflects the column layout of struct type T. Column names and
// order come from the JSON schema of T, so `json:"name"` renames a column and
// `json:"-"` hides a field. Results are cached per type.
func SchemaOf[T any]() (*Schema, error) {
	return schemaForType(reflect.TypeFor[T]())
}

func schemaForType(t reflect.Type) (*Schema, error) {
	if cached, ok := schemaCache.Load(t); ok {
		return cached.(*Schema), nil
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("row type must be a struct, got %s", t)
	}

	r := jsonschema.Reflector{Anonymous: true, DoNotReference: true}
	js := r.ReflectFromType(t)

	visible := reflect.VisibleFields(t)
	s := &Schema{rowID: -1}
	if js.Properties == nil {
		schemaCache.Store(t, s)
		return s, nil
	}
	for pair := js.Properties.Oldest(); pair != nil; pair = pair.Next() {
		name := pair.Key
		field, ok := findField(visible, name)
		if !ok {
			return nil, fmt.Errorf("row type %s: no field for column %q", t, name)
		}
		kind, colType := classifyField(field.Type)
		if name == RowIDColumn || domain.FoldName(name) == RowIDColumn {
			s.rowID = len(s.columns)
		}
		s.columns = append(s.columns, domain.ColumnInfo{Name: name, Type: colType})
		s.fields = append(s.fields, fieldBinding{index: field.Index, kind: kind})
	}

	actual, _ := schemaCache.LoadOrStore(t, s)
	return actual.(*Schema), nil
}

func findField(fields []reflect.StructField, name string) (reflect.StructField, bool) {
	for _, f := range fields {
		if !f.IsExported() || (f.Anonymous && f.Tag.Get("json") == "" && isStructOrPtr(f.Type)) {
			continue
		}
		if jsonFieldName(&f) == name {
			return f, true
		}
	}
	return reflect.StructField{}, false
}

func isStructOrPtr(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

// jsonFieldName returns the JSON field name for a struct field.
func jsonFieldName(field *reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" || tag == "-" {
		return field.Name
	}
	for i, c := range tag {
		if c == ',' {
			if i == 0 {
				return field.Name
			}
			return tag[:i]
		}
	}
	return tag
}

// classifyField maps a Go field type to how it is read and its declared type.
func classifyField(t reflect.Type) (fieldKind, domain.ColumnType) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == reflect.TypeFor[time.Time]() {
		return fieldTime, domain.ColumnTypeText
	}
	if t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 {
		return fieldBytes, domain.ColumnTypeBlob
	}

	switch t.Kind() {
	case reflect.Bool:
		return fieldBool, domain.ColumnTypeInteger
	case reflect.Int8, reflect.Int16, reflect.Int32:
		return fieldSigned, domain.ColumnTypeInteger
	case reflect.Int, reflect.Int64:
		return fieldSigned, domain.ColumnTypeBigInt
	case reflect.Uint8, reflect.Uint16:
		return fieldUnsigned, domain.ColumnTypeInteger
	case reflect.Uint, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return fieldUnsigned, domain.ColumnTypeBigInt
	case reflect.Float32, reflect.Float64:
		return fieldFloat, domain.ColumnTypeDouble
	case reflect.String:
		return fieldString, domain.ColumnTypeText
	default:
		return fieldOther, domain.ColumnTypeText
	}
}

// StructRow is a TableRow backed by a typed struct value. It is the
// strongly-typed counterpart of MapRow: values are delivered from their Go
// types without parsing, and numbers serialize as JSON numbers.
type StructRow[T any] struct {
	noCopy noCopy

	value  T
	schema *Schema
}

var _ TableRow = (*StructRow[struct{}])(nil)

// NewStructRow wraps a deep copy of value.
func NewStructRow[T any](value T) (*StructRow[T], error) {
	schema, err := SchemaOf[T]()
	if err != nil {
		return nil, err
	}
	return &StructRow[T]{value: mustDeepCopy(value), schema: schema}, nil
}

// Value returns a deep copy of the wrapped struct
func (r *StructRow[T]) Value() T {
	return mustDeepCopy(r.value)
}

// Schema returns the row's column layout
func (r *StructRow[T]) Schema() *Schema {
	return r.schema
}

// field returns the dereferenced value of column col; ok is false for NULL.
// Nil pointers, slices, maps and interfaces are NULL. The value stays
// addressable so pointer-receiver methods remain reachable.
func (r *StructRow[T]) field(col int) (reflect.Value, fieldKind, bool) {
	b := r.schema.fields[col]
	v, err := reflect.ValueOf(&r.value).Elem().FieldByIndexErr(b.index)
	if err != nil {
		// nil embedded pointer on the path
		return reflect.Value{}, b.kind, false
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, b.kind, false
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Map, reflect.Interface:
		if v.IsNil() {
			return reflect.Value{}, b.kind, false
		}
	}
	return v, b.kind, true
}

// RowID reads the rowid column when the struct has one.
func (r *StructRow[T]) RowID(defaultValue int64) (int64, error) {
	if r.schema.rowID < 0 {
		return defaultValue, nil
	}
	v, kind, ok := r.field(r.schema.rowID)
	if !ok {
		return defaultValue, nil
	}
	switch kind {
	case fieldSigned:
		return v.Int(), nil
	case fieldUnsigned:
		if u := v.Uint(); u <= math.MaxInt64 {
			return int64(u), nil
		}
		return 0, domain.NewErrInvalidRowID(FormatUint(v.Uint()), "exceeds 64-bit signed range")
	case fieldString:
		if v.String() == "" {
			return defaultValue, nil
		}
		if id, ok := parseInteger(v.String()); ok {
			return id, nil
		}
		return 0, domain.NewErrInvalidRowID(v.String(), "not a base-10 64-bit integer")
	default:
		return 0, domain.NewErrInvalidRowID(fmt.Sprint(v.Interface()), "unsupported rowid field type "+v.Type().String())
	}
}

// Column delivers column col from its Go value.
func (r *StructRow[T]) Column(col int, sink ResultSink) error {
	if col < 0 || col >= len(r.schema.columns) {
		sink.ResultNull()
		return nil
	}
	v, kind, ok := r.field(col)
	if !ok {
		sink.ResultNull()
		return nil
	}
	declared := r.schema.columns[col].Type

	switch kind {
	case fieldSigned:
		if declared == domain.ColumnTypeInteger {
			sink.ResultInt(int32(v.Int()))
		} else {
			sink.ResultInt64(v.Int())
		}
	case fieldUnsigned:
		u := v.Uint()
		switch {
		case u > math.MaxInt64:
			deliverMismatch(sink, col, declared)
		case declared == domain.ColumnTypeInteger:
			sink.ResultInt(int32(u))
		default:
			sink.ResultInt64(int64(u))
		}
	case fieldBool:
		if v.Bool() {
			sink.ResultInt(1)
		} else {
			sink.ResultInt(0)
		}
	case fieldFloat:
		sink.ResultDouble(v.Float())
	case fieldString:
		sink.ResultText(v.String())
	case fieldBytes:
		sink.ResultBlob(v.Bytes())
	case fieldTime:
		sink.ResultText(FormatTime(v.Interface().(time.Time)))
	default:
		text, err := otherText(v)
		if err != nil {
			slog.Debug("column value has no text form, delivering NULL",
				"column", r.schema.columns[col].Name, "error", err)
			deliverMismatch(sink, col, declared)
			return nil
		}
		sink.ResultText(text)
	}
	return nil
}

// Serialize writes numbers as JSON numbers and everything else as strings;
// NULL fields become JSON null.
func (r *StructRow[T]) Serialize(obj *json.Object) error {
	batch := obj.Stage()
	for i, col := range r.schema.columns {
		v, kind, ok := r.field(i)
		if !ok {
			batch.AddNull(col.Name)
			continue
		}
		switch kind {
		case fieldSigned:
			batch.AddInt64(col.Name, v.Int())
		case fieldUnsigned:
			if u := v.Uint(); u <= math.MaxInt64 {
				batch.AddInt64(col.Name, int64(u))
			} else {
				batch.AddString(col.Name, FormatUint(u))
			}
		case fieldBool:
			if v.Bool() {
				batch.AddInt64(col.Name, 1)
			} else {
				batch.AddInt64(col.Name, 0)
			}
		case fieldFloat:
			batch.AddFloat64(col.Name, v.Float())
		case fieldString:
			batch.AddString(col.Name, v.String())
		case fieldBytes:
			batch.AddString(col.Name, FormatBlob(v.Bytes()))
		case fieldTime:
			batch.AddString(col.Name, FormatTime(v.Interface().(time.Time)))
		default:
			text, err := otherText(v)
			if err != nil {
				batch.Fail(domain.NewErrSerialize(col.Name, err))
				continue
			}
			batch.AddString(col.Name, text)
		}
	}
	if err := batch.Commit(); err != nil {
		return domain.NewErrSerialize("", err)
	}
	return nil
}

// Clone returns a deep copy
func (r *StructRow[T]) Clone() TableRow {
	return &StructRow[T]{value: mustDeepCopy(r.value), schema: r.schema}
}

// ToRow renders every column in canonical text; NULL becomes "".
func (r *StructRow[T]) ToRow() domain.Row {
	row := make(domain.Row, len(r.schema.columns))
	for i, col := range r.schema.columns {
		v, kind, ok := r.field(i)
		if !ok {
			row[col.Name] = ""
			continue
		}
		switch kind {
		case fieldSigned:
			row[col.Name] = FormatInt(v.Int())
		case fieldUnsigned:
			row[col.Name] = FormatUint(v.Uint())
		case fieldBool:
			row[col.Name] = FormatBool(v.Bool())
		case fieldFloat:
			row[col.Name] = FormatFloat(v.Float())
		case fieldString:
			row[col.Name] = v.String()
		case fieldBytes:
			row[col.Name] = FormatBlob(v.Bytes())
		case fieldTime:
			row[col.Name] = FormatTime(v.Interface().(time.Time))
		default:
			text, _ := otherText(v)
			row[col.Name] = text
		}
	}
	return row
}

// otherText renders composite values: Stringers and errors by their text,
// everything else as compact JSON.
func otherText(v reflect.Value) (string, error) {
	x := v.Interface()
	if v.CanAddr() {
		x = v.Addr().Interface()
	}
	if text, err := cast.ToStringE(x); err == nil {
		return text, nil
	}
	data, err := stdjson.Marshal(x)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// mustDeepCopy copies v including nested slices, maps and pointers. A failure
// means the type holds something uncopyable, which SchemaOf would not accept.
func mustDeepCopy[T any](v T) T {
	var out T
	if err := deepcopy.Copy(&out, &v, deepcopy.IgnoreNonCopyableTypes(true)); err != nil {
		panic(fmt.Sprintf("tablerow: deep copy of %T: %v", v, err))
	}
	return out
}
