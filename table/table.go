package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/razeghi71/esqlchain/value"
)

// ValueType represents the type of a Value.
type ValueType int

const (
	TypeNull ValueType = iota
	TypeInt
	TypeFloat
	TypeString
	TypeBool
	TypeList // multi-valued field
)

// Value is a dynamically-typed cell in a table.
type Value struct {
	Type  ValueType
	Int   int64
	Float float64
	Str   string
	Bool  bool
	List  []Value
}

// Null returns a null value.
func Null() Value {
	return Value{Type: TypeNull}
}

// IntVal creates an integer value.
func IntVal(v int64) Value {
	return Value{Type: TypeInt, Int: v}
}

// FloatVal creates a float value.
func FloatVal(v float64) Value {
	return Value{Type: TypeFloat, Float: v}
}

// StrVal creates a string value.
func StrVal(v string) Value {
	return Value{Type: TypeString, Str: v}
}

// BoolVal creates a boolean value.
func BoolVal(v bool) Value {
	return Value{Type: TypeBool, Bool: v}
}

// ListVal creates a multi-valued cell. A list of one value is that value,
// and an empty list is null.
func ListVal(vs []Value) Value {
	switch len(vs) {
	case 0:
		return Null()
	case 1:
		return vs[0]
	}
	return Value{Type: TypeList, List: vs}
}

// IsNull returns true if the value is null.
func (v Value) IsNull() bool {
	return v.Type == TypeNull
}

// AsFloat attempts to coerce to float64 for arithmetic.
func (v Value) AsFloat() (float64, bool) {
	switch v.Type {
	case TypeInt:
		return float64(v.Int), true
	case TypeFloat:
		return v.Float, true
	default:
		return 0, false
	}
}

// AsString returns the string representation.
func (v Value) AsString() string {
	switch v.Type {
	case TypeNull:
		return "null"
	case TypeInt:
		return strconv.FormatInt(v.Int, 10)
	case TypeFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case TypeString:
		return v.Str
	case TypeBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case TypeList:
		return "[" + strings.Join(lo.Map(v.List, func(e Value, _ int) string { return e.AsString() }), ", ") + "]"
	default:
		return "?"
	}
}

// AsBool coerces to boolean for logical operations.
func (v Value) AsBool() (bool, bool) {
	switch v.Type {
	case TypeBool:
		return v.Bool, true
	case TypeNull:
		return false, true
	default:
		return false, false
	}
}

// Values returns the elements of a list, the value itself otherwise. Null
// has no elements.
func (v Value) Values() []Value {
	switch v.Type {
	case TypeNull:
		return nil
	case TypeList:
		return v.List
	}
	return []Value{v}
}

// Raw converts v to a plain Go value: nil, int64, float64, string, bool or
// []any.
func (v Value) Raw() any {
	switch v.Type {
	case TypeInt:
		return v.Int
	case TypeFloat:
		return v.Float
	case TypeString:
		return v.Str
	case TypeBool:
		return v.Bool
	case TypeList:
		return lo.Map(v.List, func(e Value, _ int) any { return e.Raw() })
	}
	return nil
}

// Scalar converts a single (non-list) value to the value model queries are
// built from. Lists have no scalar form and convert to value.Other.
func (v Value) Scalar() value.Value {
	switch v.Type {
	case TypeNull:
		return value.Null()
	case TypeInt:
		return value.Number(float64(v.Int))
	case TypeFloat:
		return value.Number(v.Float)
	case TypeString:
		return value.String(v.Str)
	case TypeBool:
		return value.Bool(v.Bool)
	}
	return value.Other()
}

// Row is a single row in a table, mapping column index to value.
type Row struct {
	Values []Value
}

// Table is the core data structure: columns + rows.
type Table struct {
	Columns []string
	Rows    []Row

	// Types holds the declared type of columns whose source carried one.
	// Other columns have their type inferred from their values.
	Types map[string]string
}

// NewTable creates an empty table with the given columns.
func NewTable(columns []string) *Table {
	return &Table{
		Columns: columns,
		Rows:    nil,
	}
}

// ColIndex returns the index of a column by name, or -1.
func (t *Table) ColIndex(name string) int {
	return lo.IndexOf(t.Columns, name)
}

// Declare records the declared type of a column.
func (t *Table) Declare(name, typ string) {
	if t.Types == nil {
		t.Types = make(map[string]string)
	}
	t.Types[name] = typ
}

// AddRow appends a row to the table.
func (t *Table) AddRow(values []Value) {
	t.Rows = append(t.Rows, Row{Values: values})
}

// Get returns the value at a given row and column name.
func (t *Table) Get(row int, col string) Value {
	idx := t.ColIndex(col)
	if idx < 0 || row < 0 || row >= len(t.Rows) {
		return Null()
	}
	return t.Rows[row].Values[idx]
}

// Column returns every value of a column, or nil if there is no such column.
func (t *Table) Column(name string) []Value {
	idx := t.ColIndex(name)
	if idx < 0 {
		return nil
	}
	return lo.Map(t.Rows, func(r Row, _ int) Value { return r.Values[idx] })
}

// ColumnType returns the declared type of a column, or infers one from its
// values when none was declared. A column without values is a keyword.
func (t *Table) ColumnType(name string) string {
	if typ, ok := t.Types[name]; ok {
		return typ
	}
	typ := ""
	for _, v := range t.Column(name) {
		typ = WidenType(typ, TypeOf(v))
	}
	if typ == "" {
		return "keyword"
	}
	return typ
}

// TypeOf returns the ES|QL type a single cell suggests: long, double,
// boolean, geo_point or geo_shape for WKT text, and keyword for other text.
// Null suggests nothing and yields "".
func TypeOf(v Value) string {
	switch v.Type {
	case TypeInt:
		return "long"
	case TypeFloat:
		return "double"
	case TypeBool:
		return "boolean"
	case TypeString:
		if geom, ok := value.ParseGeo(v.Str); ok {
			return value.GeoType(geom)
		}
		return "keyword"
	case TypeList:
		typ := ""
		for _, e := range v.List {
			typ = WidenType(typ, TypeOf(e))
		}
		return typ
	}
	return ""
}

// WidenType returns a type that holds values of both a and b. Integers widen
// to double, points to shapes, and anything else that disagrees to keyword.
func WidenType(a, b string) string {
	switch {
	case a == "" || a == b:
		return b
	case b == "":
		return a
	}
	numeric := []string{"integer", "long", "double"}
	if lo.Contains(numeric, a) && lo.Contains(numeric, b) {
		if a == "double" || b == "double" {
			return "double"
		}
		return "long"
	}
	if value.ClassOf(a) == value.ClassGeo && value.ClassOf(b) == value.ClassGeo {
		return "geo_shape"
	}
	return "keyword"
}

// Schema returns each column with its inferred type.
func (t *Table) Schema() []value.Column {
	return lo.Map(t.Columns, func(c string, _ int) value.Column {
		return value.Column{Name: c, Type: t.ColumnType(c)}
	})
}

// Clone creates a deep copy of the table structure (shares Value data).
func (t *Table) Clone() *Table {
	cols := make([]string, len(t.Columns))
	copy(cols, t.Columns)
	rows := make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		vals := make([]Value, len(r.Values))
		copy(vals, r.Values)
		rows[i] = Row{Values: vals}
	}
	var types map[string]string
	if t.Types != nil {
		types = make(map[string]string, len(t.Types))
		for k, v := range t.Types {
			types[k] = v
		}
	}
	return &Table{Columns: cols, Rows: rows, Types: types}
}

// String returns a compact representation of the table.
func (t *Table) String() string {
	if len(t.Rows) == 0 {
		return "[" + strings.Join(t.Columns, ", ") + "] (0 rows)"
	}

	var sb strings.Builder
	sb.WriteString("[ ")
	for i, r := range t.Rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("{")
		for j, v := range r.Values {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s:%s", t.Columns[j], v.AsString())
		}
		sb.WriteString("}")
	}
	sb.WriteString(" ]")
	return sb.String()
}
