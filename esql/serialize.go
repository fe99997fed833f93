package esql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/razeghi71/esqlchain/ast"
	"github.com/razeghi71/esqlchain/value"
)

// Separator joins pipeline stages.
const Separator = "\n| "

// Chain appends the stages of c to the upstream query text prior.
func Chain(prior string, c ast.Chain) string {
	var lines []string
	for _, b := range c {
		if line, ok := Block(b); ok {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return prior
	}
	if prior == "" {
		return strings.Join(lines, Separator)
	}
	return prior + Separator + strings.Join(lines, Separator)
}

// Block renders one stage. It returns false when the block has no effect
// and must not appear in the query.
func Block(b ast.Block) (string, bool) {
	var line string
	switch b := b.(type) {
	case ast.Limit:
		line = renderLimit(b)
	case ast.Keep:
		line = renderFields("KEEP ", b.Fields)
	case ast.Drop:
		line = renderFields("DROP ", b.Fields)
	case ast.Expand:
		line = renderExpand(b)
	case ast.Rename:
		line = renderRename(b)
	case ast.Filter:
		line = renderFilter(b)
	case ast.Match:
		line = renderMatch(b)
	case ast.Eval:
		line = renderEval(b)
	case ast.Sort:
		line = renderSort(b)
	default:
		panic(fmt.Sprintf("esql: unhandled block type %T", b))
	}
	return line, line != ""
}

func renderLimit(b ast.Limit) string {
	if b.Limit == nil {
		return ""
	}
	return "LIMIT " + strconv.Itoa(*b.Limit)
}

func renderFields(keyword string, fields []string) string {
	if len(fields) == 0 {
		return ""
	}
	return keyword + escapeAll(fields)
}

func escapeAll(fields []string) string {
	escaped := make([]string, len(fields))
	for i, f := range fields {
		escaped[i] = value.Escape(f)
	}
	return strings.Join(escaped, ", ")
}

// MV_EXPAND takes a single field, so each field gets its own stage.
func renderExpand(b ast.Expand) string {
	if len(b.Fields) == 0 {
		return ""
	}
	stages := make([]string, len(b.Fields))
	for i, f := range b.Fields {
		stages[i] = "MV_EXPAND " + value.Escape(f)
	}
	return strings.Join(stages, Separator)
}

func renderRename(b ast.Rename) string {
	if len(b.Pairs) == 0 {
		return ""
	}
	parts := make([]string, len(b.Pairs))
	for i, p := range b.Pairs {
		parts[i] = value.Escape(p.Old) + " AS " + value.Escape(p.New)
	}
	return "RENAME " + strings.Join(parts, ", ")
}

func renderFilter(b ast.Filter) string {
	if len(b.Values) == 0 {
		return ""
	}
	defaultIncluded := b.DefaultIncluded()
	var special []value.Value
	nullIsSpecial := false
	for _, fv := range b.Values {
		if fv.Value.IsOther() || fv.Included == defaultIncluded {
			continue
		}
		if fv.Value.IsNull() {
			nullIsSpecial = true
			continue
		}
		special = append(special, fv.Value)
	}
	clause := Clause(b.Field, defaultIncluded, special, nullIsSpecial)
	if clause == "true" {
		return ""
	}
	return "WHERE " + clause
}

func renderMatch(b ast.Match) string {
	if strings.TrimSpace(b.Pattern) == "" {
		return ""
	}
	return "WHERE MATCH(" + value.Escape(b.Field.Name) + ", " + value.Represent(value.String(b.Pattern), nil) + ")"
}

func renderEval(b ast.Eval) string {
	var parts []string
	for _, e := range b.Expressions {
		expr := strings.TrimSpace(e.Expression)
		if expr == "" {
			continue
		}
		if e.Field == "" {
			parts = append(parts, expr)
			continue
		}
		parts = append(parts, value.Escape(e.Field)+" = "+expr)
	}
	if len(parts) == 0 {
		return ""
	}
	return "EVAL " + strings.Join(parts, ", ")
}

// Geo fields cannot be sorted on and are left out of the order.
func renderSort(b ast.Sort) string {
	var keys []string
	for _, k := range b.Order {
		if k.Class == value.ClassGeo {
			continue
		}
		dir := " DESC"
		if k.Ascending {
			dir = " ASC"
		}
		keys = append(keys, value.Escape(k.Field)+dir)
	}
	if len(keys) == 0 {
		return ""
	}
	return "SORT " + strings.Join(keys, ", ")
}
