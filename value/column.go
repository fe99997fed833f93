package value

// Class is the coarse type class of a column. It drives literal escaping and
// the choice of comparison operators.
type Class int

const (
	ClassString Class = iota
	ClassNumeric
	ClassBoolean
	ClassGeo
)

func (c Class) String() string {
	switch c {
	case ClassNumeric:
		return "numeric"
	case ClassBoolean:
		return "boolean"
	case ClassGeo:
		return "geo"
	default:
		return "string"
	}
}

var classes = map[string]Class{
	"boolean": ClassBoolean,

	"long":            ClassNumeric,
	"integer":         ClassNumeric,
	"double":          ClassNumeric,
	"float":           ClassNumeric,
	"half_float":      ClassNumeric,
	"scaled_float":    ClassNumeric,
	"unsigned_long":   ClassNumeric,
	"short":           ClassNumeric,
	"byte":            ClassNumeric,
	"counter_long":    ClassNumeric,
	"counter_integer": ClassNumeric,
	"counter_double":  ClassNumeric,

	"geo_point":       ClassGeo,
	"geo_shape":       ClassGeo,
	"cartesian_point": ClassGeo,
	"cartesian_shape": ClassGeo,
}

// ClassOf maps a declared column type to its class. Unknown types
// (keyword, text, ip, date, ...) are strings.
func ClassOf(declared string) Class {
	if c, ok := classes[declared]; ok {
		return c
	}
	return ClassString
}

// Column is a field name together with its declared type.
type Column struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// Class returns the type class of the column's declared type.
func (c Column) Class() Class {
	return ClassOf(c.Type)
}
