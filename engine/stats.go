package engine

import (
	"fmt"

	"github.com/razeghi71/esqlchain/stats"
	"github.com/razeghi71/esqlchain/table"
	"github.com/razeghi71/esqlchain/value"
)

// Stats counts the values of a column. Geo values are counted in their
// canonical WKT form.
func Stats(t *table.Table, field string) (*stats.Statistics, error) {
	idx := t.ColIndex(field)
	if idx < 0 {
		return nil, fmt.Errorf("stats: column %q not found", field)
	}
	geo := value.ClassOf(t.ColumnType(field)) == value.ClassGeo

	raw := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		v := row.Values[idx]
		if geo {
			v = normalizeGeo(v)
		}
		raw[i] = v.Raw()
	}
	return stats.CountValues(raw), nil
}

func normalizeGeo(v table.Value) table.Value {
	switch v.Type {
	case table.TypeString:
		return table.StrVal(value.NormalizeGeo(v.Str))
	case table.TypeList:
		elems := make([]table.Value, len(v.List))
		for i, e := range v.List {
			elems[i] = normalizeGeo(e)
		}
		return table.ListVal(elems)
	}
	return v
}
