// Package engine previews a chain by running it against an in-memory table.
package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/razeghi71/esqlchain/ast"
	"github.com/razeghi71/esqlchain/parser"
	"github.com/razeghi71/esqlchain/table"
	"github.com/razeghi71/esqlchain/value"
)

// Execute runs every block of c, in order, on the given input table.
func Execute(c ast.Chain, input *table.Table) (*table.Table, error) {
	current := input
	for i, b := range c {
		next, err := execBlock(b, current)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		carryTypes(b, current, next)
		current = next
	}
	return current, nil
}

// carryTypes copies declared column types from one block's input to its
// output. Renamed columns keep their type; evaluated columns are inferred.
func carryTypes(b ast.Block, from, to *table.Table) {
	if from == to || len(from.Types) == 0 {
		return
	}
	origin := make(map[string]string, len(from.Columns))
	for _, col := range from.Columns {
		origin[col] = col
	}
	switch b := b.(type) {
	case ast.Rename:
		for _, pair := range b.Pairs {
			origin[pair.New] = origin[pair.Old]
			delete(origin, pair.Old)
		}
	case ast.Eval:
		for _, e := range b.Expressions {
			field := e.Field
			if field == "" {
				field = strings.TrimSpace(e.Expression)
			}
			delete(origin, field)
		}
	}
	for _, col := range to.Columns {
		if typ, ok := from.Types[origin[col]]; ok {
			to.Declare(col, typ)
		}
	}
}

func execBlock(b ast.Block, t *table.Table) (*table.Table, error) {
	switch b := b.(type) {
	case ast.Limit:
		return execLimit(b, t), nil
	case ast.Keep:
		return execKeep(b, t)
	case ast.Drop:
		return execDrop(b, t)
	case ast.Expand:
		return execExpand(b, t)
	case ast.Rename:
		return execRename(b, t)
	case ast.Filter:
		return execFilter(b, t)
	case ast.Match:
		return execMatch(b, t)
	case ast.Eval:
		return execEval(b, t)
	case ast.Sort:
		return execSort(b, t)
	default:
		return nil, fmt.Errorf("unknown block type %T", b)
	}
}

func execLimit(b ast.Limit, t *table.Table) *table.Table {
	if b.Limit == nil {
		return t
	}
	n := max(min(*b.Limit, len(t.Rows)), 0)
	result := table.NewTable(t.Columns)
	result.Rows = t.Rows[:n]
	return result
}

func execKeep(b ast.Keep, t *table.Table) (*table.Table, error) {
	if len(b.Fields) == 0 {
		return t, nil
	}
	indices := make([]int, len(b.Fields))
	for i, c := range b.Fields {
		idx := t.ColIndex(c)
		if idx < 0 {
			return nil, fmt.Errorf("keep: column %q not found", c)
		}
		indices[i] = idx
	}

	result := table.NewTable(b.Fields)
	for _, row := range t.Rows {
		vals := make([]table.Value, len(indices))
		for i, idx := range indices {
			vals[i] = row.Values[idx]
		}
		result.AddRow(vals)
	}
	return result, nil
}

func execDrop(b ast.Drop, t *table.Table) (*table.Table, error) {
	for _, c := range b.Fields {
		if t.ColIndex(c) < 0 {
			return nil, fmt.Errorf("drop: column %q not found", c)
		}
	}

	var keepCols []string
	var keepIndices []int
	for i, c := range t.Columns {
		if !lo.Contains(b.Fields, c) {
			keepCols = append(keepCols, c)
			keepIndices = append(keepIndices, i)
		}
	}

	result := table.NewTable(keepCols)
	for _, row := range t.Rows {
		vals := make([]table.Value, len(keepIndices))
		for i, idx := range keepIndices {
			vals[i] = row.Values[idx]
		}
		result.AddRow(vals)
	}
	return result, nil
}

// execExpand emits one row per element of each expanded field. Rows with a
// null field are kept as they are.
func execExpand(b ast.Expand, t *table.Table) (*table.Table, error) {
	result := t
	for _, field := range b.Fields {
		idx := result.ColIndex(field)
		if idx < 0 {
			return nil, fmt.Errorf("expand: column %q not found", field)
		}
		expanded := table.NewTable(result.Columns)
		for _, row := range result.Rows {
			cell := row.Values[idx]
			if cell.Type != table.TypeList {
				expanded.AddRow(row.Values)
				continue
			}
			for _, elem := range cell.List {
				vals := make([]table.Value, len(row.Values))
				copy(vals, row.Values)
				vals[idx] = elem
				expanded.AddRow(vals)
			}
		}
		result = expanded
	}
	return result, nil
}

func execRename(b ast.Rename, t *table.Table) (*table.Table, error) {
	newCols := make([]string, len(t.Columns))
	copy(newCols, t.Columns)

	for _, pair := range b.Pairs {
		i := lo.IndexOf(newCols, pair.Old)
		if i < 0 {
			return nil, fmt.Errorf("rename: column %q not found", pair.Old)
		}
		newCols[i] = pair.New
	}

	result := table.NewTable(newCols)
	result.Rows = t.Rows
	return result, nil
}

// execFilter keeps the rows whose value is included. A multi-valued cell
// passes when any of its values is included.
func execFilter(b ast.Filter, t *table.Table) (*table.Table, error) {
	if len(b.Values) == 0 {
		return t, nil
	}
	idx := t.ColIndex(b.Field.Name)
	if idx < 0 {
		return nil, fmt.Errorf("filter: column %q not found", b.Field.Name)
	}

	geo := b.Field.Class() == value.ClassGeo
	normalize := func(v value.Value) value.Value {
		if geo && v.Kind == value.KindString {
			return value.String(value.NormalizeGeo(v.Str))
		}
		return v
	}
	included := make(map[value.Value]bool, len(b.Values))
	for _, fv := range b.Values {
		included[normalize(fv.Value)] = fv.Included
	}
	defaultIncluded := b.DefaultIncluded()
	passes := func(v value.Value) bool {
		if inc, ok := included[normalize(v)]; ok {
			return inc
		}
		return defaultIncluded
	}

	result := table.NewTable(t.Columns)
	for _, row := range t.Rows {
		cell := row.Values[idx]
		ok := cell.IsNull() && passes(value.Null())
		for _, v := range cell.Values() {
			ok = ok || passes(v.Scalar())
		}
		if ok {
			result.AddRow(row.Values)
		}
	}
	return result, nil
}

// execMatch keeps the rows whose field contains every word of the pattern,
// ignoring case.
func execMatch(b ast.Match, t *table.Table) (*table.Table, error) {
	words := strings.Fields(strings.ToLower(b.Pattern))
	if len(words) == 0 {
		return t, nil
	}
	idx := t.ColIndex(b.Field.Name)
	if idx < 0 {
		return nil, fmt.Errorf("match: column %q not found", b.Field.Name)
	}

	result := table.NewTable(t.Columns)
	for _, row := range t.Rows {
		if row.Values[idx].IsNull() {
			continue
		}
		text := strings.ToLower(row.Values[idx].AsString())
		missing := lo.Filter(words, func(w string, _ int) bool { return !strings.Contains(text, w) })
		if len(missing) == 0 {
			result.AddRow(row.Values)
		}
	}
	return result, nil
}

// execEval computes the expressions in order, so later ones may use the
// fields earlier ones produce. Assigning to an existing field moves it to
// the end. An expression without a field is named by its text.
func execEval(b ast.Eval, t *table.Table) (*table.Table, error) {
	result := t
	for _, e := range b.Expressions {
		text := strings.TrimSpace(e.Expression)
		if text == "" {
			continue
		}
		expr, err := parser.ParseExpr(text)
		if err != nil {
			return nil, fmt.Errorf("eval %q: %w", text, err)
		}
		field := e.Field
		if field == "" {
			field = text
		}
		result, err = withColumn(result, field, expr)
		if err != nil {
			return nil, fmt.Errorf("eval %q: %w", field, err)
		}
	}
	return result, nil
}

func withColumn(t *table.Table, field string, expr ast.Expr) (*table.Table, error) {
	existing := t.ColIndex(field)
	newCols := lo.Without(t.Columns, field)
	newCols = append(newCols, field)

	result := table.NewTable(newCols)
	for _, row := range t.Rows {
		ctx := &EvalContext{Table: t, Row: &row}
		v, err := Eval(expr, ctx)
		if err != nil {
			return nil, err
		}
		vals := make([]table.Value, 0, len(newCols))
		for i, old := range row.Values {
			if i != existing {
				vals = append(vals, old)
			}
		}
		result.AddRow(append(vals, v))
	}
	return result, nil
}

// execSort orders rows by each key in turn. Nulls sort last ascending and
// first descending. Geo keys cannot be sorted on and are skipped.
func execSort(b ast.Sort, t *table.Table) (*table.Table, error) {
	type key struct {
		idx int
		asc bool
	}
	var keys []key
	for _, k := range b.Order {
		if k.Class == value.ClassGeo {
			continue
		}
		idx := t.ColIndex(k.Field)
		if idx < 0 {
			return nil, fmt.Errorf("sort: column %q not found", k.Field)
		}
		keys = append(keys, key{idx: idx, asc: k.Ascending})
	}
	if len(keys) == 0 {
		return t, nil
	}

	result := t.Clone()
	sort.SliceStable(result.Rows, func(i, j int) bool {
		for _, k := range keys {
			a := result.Rows[i].Values[k.idx]
			b := result.Rows[j].Values[k.idx]
			cmp := sortCompare(a, b)
			if cmp != 0 {
				if k.asc {
					return cmp < 0
				}
				return cmp > 0
			}
		}
		return false
	})
	return result, nil
}

func sortCompare(a, b table.Value) int {
	// Nulls sort last
	if a.IsNull() && b.IsNull() {
		return 0
	}
	if a.IsNull() {
		return 1
	}
	if b.IsNull() {
		return -1
	}

	// Numeric comparison
	af, aok := a.AsFloat()
	bf, bok := b.AsFloat()
	if aok && bok {
		if af < bf {
			return -1
		}
		if af > bf {
			return 1
		}
		return 0
	}

	// String comparison
	return strings.Compare(a.AsString(), b.AsString())
}
