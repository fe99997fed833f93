package value

import (
	"fmt"
	"math"
	"strconv"
)

// Kind identifies what a Value holds.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindTrue
	KindFalse
	KindNull
	KindOther // catch-all for every value not otherwise enumerated
)

var kindNames = map[Kind]string{
	KindString: "string",
	KindNumber: "number",
	KindTrue:   "true",
	KindFalse:  "false",
	KindNull:   "null",
	KindOther:  "other",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Value is a scalar literal. It is comparable, so booleans, null and the
// other-values sentinel share map keys with strings and numbers.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
}

// String creates a string value.
func String(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// Number creates a numeric value.
func Number(n float64) Value {
	return Value{Kind: KindNumber, Num: n}
}

// Bool returns the true or false sentinel.
func Bool(b bool) Value {
	if b {
		return Value{Kind: KindTrue}
	}
	return Value{Kind: KindFalse}
}

// Null returns the null sentinel.
func Null() Value {
	return Value{Kind: KindNull}
}

// Other returns the "other values" sentinel.
func Other() Value {
	return Value{Kind: KindOther}
}

func (v Value) IsNull() bool  { return v.Kind == KindNull }
func (v Value) IsOther() bool { return v.Kind == KindOther }

// Text returns the plain text of the value, without any quoting. Numbers
// without an ES|QL literal (NaN and the infinities) read as null.
func (v Value) Text() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			return "null"
		}
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindTrue:
		return "true"
	case KindFalse:
		return "false"
	case KindNull:
		return "null"
	case KindOther:
		return "(other values)"
	default:
		return "?"
	}
}

func (v Value) String() string {
	if v.Kind == KindString {
		return strconv.Quote(v.Str)
	}
	return v.Text()
}
