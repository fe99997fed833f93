package value

import (
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// ParseGeo parses WKT text such as "POINT (1 2)".
func ParseGeo(s string) (orb.Geometry, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	geom, err := wkt.Unmarshal(s)
	if err != nil {
		return nil, false
	}
	return geom, true
}

// NormalizeGeo returns the canonical WKT form of s so that differently
// spaced spellings of one geometry count as the same value. Text that is
// not WKT is returned unchanged.
func NormalizeGeo(s string) string {
	geom, ok := ParseGeo(s)
	if !ok {
		return s
	}
	return wkt.MarshalString(geom)
}

// GeoType returns the declared type a WKT geometry would be indexed as.
func GeoType(geom orb.Geometry) string {
	if _, ok := geom.(orb.Point); ok {
		return "geo_point"
	}
	return "geo_shape"
}
