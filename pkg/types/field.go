package types

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Declared field type names.
const (
	FieldText           = "text"
	FieldTextarea       = "textarea"
	FieldHTML           = "html"
	FieldNumber         = "number"
	FieldDate           = "date"
	FieldDatetime       = "datetime"
	FieldImage          = "image"
	FieldFile           = "file"
	FieldTemplateSelect = "templateselect"
	FieldSlug           = "slug"
	FieldDivider        = "divider"
	FieldRelation       = "relation"
	FieldTaxonomy       = "taxonomy"
)

// ColumnKind is the native column family a field materializes as.
type ColumnKind int

// Column kinds. ColumnNone marks fields that never become a column of the
// content table.
const (
	ColumnNone ColumnKind = iota
	ColumnAutoID
	ColumnInteger
	ColumnBoolean
	ColumnString
	ColumnDecimal
	ColumnText
	ColumnTimestamp
)

// Column describes one table column for DDL generation.
type Column struct {
	Name      string
	Kind      ColumnKind
	Length    int // ColumnString only.
	Precision int // ColumnDecimal only.
	Scale     int // ColumnDecimal only.
}

// FieldType describes how a declared field type is stored, hydrated,
// persisted and filtered.
type FieldType struct {
	Name       string
	Column     ColumnKind
	Length     int
	Precision  int
	Scale      int
	Value      ValueKind
	Searchable bool // Included in the free-text filter.
}

var fieldTypes = map[string]FieldType{
	FieldText:           {Name: FieldText, Column: ColumnString, Length: 256, Value: KindString, Searchable: true},
	FieldTemplateSelect: {Name: FieldTemplateSelect, Column: ColumnString, Length: 256, Value: KindString},
	FieldImage:          {Name: FieldImage, Column: ColumnString, Length: 256, Value: KindString},
	FieldFile:           {Name: FieldFile, Column: ColumnString, Length: 256, Value: KindString},
	FieldNumber:         {Name: FieldNumber, Column: ColumnDecimal, Precision: 18, Scale: 9, Value: KindNumber},
	FieldHTML:           {Name: FieldHTML, Column: ColumnText, Value: KindString, Searchable: true},
	FieldTextarea:       {Name: FieldTextarea, Column: ColumnText, Value: KindString, Searchable: true},
	FieldDate:           {Name: FieldDate, Column: ColumnTimestamp, Value: KindTime},
	FieldDatetime:       {Name: FieldDatetime, Column: ColumnTimestamp, Value: KindTime},
	FieldSlug:           {Name: FieldSlug, Column: ColumnNone, Value: KindString},
	FieldDivider:        {Name: FieldDivider, Column: ColumnNone, Value: KindNull},
	FieldRelation:       {Name: FieldRelation, Column: ColumnNone, Value: KindIDs},
	FieldTaxonomy:       {Name: FieldTaxonomy, Column: ColumnNone, Value: KindString},
}

// LookupFieldType returns the registered descriptor for a declared type.
func LookupFieldType(name string) (FieldType, bool) {
	ft, ok := fieldTypes[name]
	return ft, ok
}

// FieldTypeNames returns every registered type name in sorted order.
func FieldTypeNames() []string {
	names := make([]string, 0, len(fieldTypes))
	for name := range fieldTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Materialized reports whether fields of this type are columns of the
// content table.
func (ft FieldType) Materialized() bool {
	return ft.Column != ColumnNone
}

// ColumnFor returns the column definition for a field of this type.
func (ft FieldType) ColumnFor(name string) Column {
	return Column{
		Name:      name,
		Kind:      ft.Column,
		Length:    ft.Length,
		Precision: ft.Precision,
		Scale:     ft.Scale,
	}
}

// Default returns the initial value of a field of this type. A declared
// default wins over the type's zero value.
func (ft FieldType) Default(declared string) Value {
	switch ft.Value {
	case KindNumber:
		if declared != "" {
			if f, err := strconv.ParseFloat(declared, 64); err == nil {
				return NumberValue(f)
			}
		}
		return NumberValue(0)
	case KindTime:
		if t, ok := ParseTimestamp(declared); ok {
			return TimeValue(t)
		}
		return NullValue()
	case KindIDs:
		return IDsValue()
	case KindString:
		return StringValue(declared)
	default:
		return NullValue()
	}
}

// Hydrate converts a raw column value returned by a database driver into
// the Value kind of this field type.
func (ft FieldType) Hydrate(raw any) Value {
	if raw == nil {
		if ft.Value == KindTime {
			return NullValue()
		}
		return ft.Default("")
	}
	switch ft.Value {
	case KindNumber:
		switch n := raw.(type) {
		case int64:
			return NumberValue(float64(n))
		case float64:
			return NumberValue(n)
		}
		if f, ok := StringValue(rawString(raw)).Num(); ok {
			return NumberValue(f)
		}
		return NumberValue(0)
	case KindTime:
		if t, ok := raw.(time.Time); ok {
			return TimeValue(t.UTC())
		}
		if t, ok := ParseTimestamp(rawString(raw)); ok {
			return TimeValue(t)
		}
		return NullValue()
	default:
		return StringValue(rawString(raw))
	}
}

// Persist converts v into the value bound for a column of this field type.
// Empty timestamps persist as NULL; numbers fall back to 0.
func (ft FieldType) Persist(v Value) any {
	switch ft.Value {
	case KindNumber:
		f, _ := v.Num()
		return f
	case KindTime:
		t, ok := v.Time()
		if !ok {
			return nil
		}
		return t.UTC().Format(TimestampLayout)
	default:
		return v.Str()
	}
}

// Bind converts a filter operand into the value bound for a predicate on
// a column of this field type.
func (ft FieldType) Bind(operand string) any {
	if ft.Value == KindNumber {
		if f, err := strconv.ParseFloat(strings.TrimSpace(operand), 64); err == nil {
			return f
		}
	}
	return operand
}

// rawString renders a driver value as text.
func rawString(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "1"
		}
		return "0"
	case time.Time:
		return v.UTC().Format(TimestampLayout)
	default:
		return ""
	}
}

// RawInt64 converts a driver value holding an integer into int64.
func RawInt64(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	}
	n, err := strconv.ParseInt(strings.TrimSpace(rawString(raw)), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// RawString converts a driver value into its text form.
func RawString(raw any) string {
	return rawString(raw)
}
