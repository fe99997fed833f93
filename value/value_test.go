package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscape(t *testing.T) {
	cases := map[string]string{
		"valid_name":      "valid_name",
		"name with space": "`name with space`",
		"a`b":             "`a``b`",
		"@timestamp":      "@timestamp",
		"host.name":       "host.name",
		"_id":             "_id",
		"1st":             "`1st`",
		"a@b":             "`a@b`",
		".hidden":         "`.hidden`",
		"":                "``",
		"ünïcode":         "`ünïcode`",
	}
	for in, want := range cases {
		assert.Equal(t, want, Escape(in), "Escape(%q)", in)
	}
}

func TestRepresentScalars(t *testing.T) {
	assert.Equal(t, "1", Represent(Number(1), nil))
	assert.Equal(t, "2.5", Represent(Number(2.5), nil))
	assert.Equal(t, "-3", Represent(Number(-3), nil))
	assert.Equal(t, "1000000000000", Represent(Number(1e12), nil))
	assert.Equal(t, "true", Represent(Bool(true), nil))
	assert.Equal(t, "false", Represent(Bool(false), nil))
	assert.Equal(t, "null", Represent(Null(), nil))
}

func TestRepresentNonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.Equal(t, "null", Represent(Number(f), nil), "Represent(%v)", f)
		assert.Equal(t, "null", Number(f).String(), "String(%v)", f)
	}
}

func TestRepresentStrings(t *testing.T) {
	assert.Equal(t, `"plain"`, Represent(String("plain"), nil))
	assert.Equal(t, `"""say "hi\""""`, Represent(String(`say "hi\"`), nil))
	assert.Equal(t, `"""a "b" c"""`, Represent(String(`a "b" c`), nil))
	// A string already holding the triple-quote sequence falls back to
	// backslash escapes.
	assert.Equal(t, `"x\"\"\"y"`, Represent(String(`x"""y`), nil))
	assert.Equal(t, `""`, Represent(String(""), nil))
}

func TestRepresentGeoHint(t *testing.T) {
	loc := &Column{Name: "location", Type: "geo_point"}
	assert.Equal(t, `"POINT(1, 2)"::geo_point`, Represent(String("POINT(1, 2)"), loc))

	name := &Column{Name: "name", Type: "keyword"}
	assert.Equal(t, `"POINT(1, 2)"`, Represent(String("POINT(1, 2)"), name))
}

func TestClassOf(t *testing.T) {
	assert.Equal(t, ClassBoolean, ClassOf("boolean"))
	assert.Equal(t, ClassNumeric, ClassOf("long"))
	assert.Equal(t, ClassNumeric, ClassOf("double"))
	assert.Equal(t, ClassNumeric, ClassOf("counter_double"))
	assert.Equal(t, ClassGeo, ClassOf("geo_point"))
	assert.Equal(t, ClassGeo, ClassOf("cartesian_shape"))
	assert.Equal(t, ClassString, ClassOf("keyword"))
	assert.Equal(t, ClassString, ClassOf("date"))
	assert.Equal(t, ClassString, ClassOf(""))
}

func TestValuesAsMapKeys(t *testing.T) {
	counts := map[Value]int{}
	counts[String("true")]++
	counts[Bool(true)]++
	counts[Bool(true)]++
	counts[Null()]++
	counts[String("null")]++
	counts[Number(1)]++
	counts[Other()]++

	assert.Equal(t, 1, counts[String("true")])
	assert.Equal(t, 2, counts[Bool(true)])
	assert.Equal(t, 1, counts[Null()])
	assert.Equal(t, 1, counts[String("null")])
	assert.Len(t, counts, 6)
}

func TestNormalizeGeo(t *testing.T) {
	assert.Equal(t, NormalizeGeo("POINT (1 2)"), NormalizeGeo("POINT(1 2)"))
	assert.Equal(t, "not a geometry", NormalizeGeo("not a geometry"))

	geom, ok := ParseGeo("POINT(1 2)")
	assert.True(t, ok)
	assert.Equal(t, "geo_point", GeoType(geom))

	geom, ok = ParseGeo("POLYGON((0 0, 1 0, 1 1, 0 0))")
	assert.True(t, ok)
	assert.Equal(t, "geo_shape", GeoType(geom))
}
