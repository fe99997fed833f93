package chain

import (
	"fmt"

	"github.com/razeghi71/esqlchain/ast"
	"github.com/razeghi71/esqlchain/stats"
	"github.com/razeghi71/esqlchain/value"
)

// Kind identifies an action.
type Kind int

const (
	KindLimit Kind = iota
	KindKeep
	KindDrop
	KindSortAsc
	KindSortDesc
	KindRename
	KindFilter
	KindEval
	KindMatch
	KindExpand
)

var kindNames = map[Kind]string{
	KindLimit:    "limit",
	KindKeep:     "keep",
	KindDrop:     "drop",
	KindSortAsc:  "sort_asc",
	KindSortDesc: "sort_desc",
	KindRename:   "rename",
	KindFilter:   "filter",
	KindEval:     "eval",
	KindMatch:    "match",
	KindExpand:   "expand",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Action is a high-level edit of a chain. It is a sealed interface.
type Action interface {
	actionNode()
	Kind() Kind
}

// Limit caps the result, adding a LIMIT stage if there is none.
type Limit struct{}

// Keep projects every known field.
type Keep struct{}

// Drop hides one field.
type Drop struct {
	Field string
}

// SortAsc makes Field the primary ascending sort key.
type SortAsc struct {
	Field string
	Class value.Class
}

// SortDesc makes Field the primary descending sort key.
type SortDesc struct {
	Field string
	Class value.Class
}

// Rename renames From to To.
type Rename struct {
	From string
	To   string
}

// Filter starts an enumerated-value filter on Field, seeded from Stats.
type Filter struct {
	Field value.Column
	Stats *stats.Statistics
}

// Eval adds computed fields. SourceField, when set, is the field the new
// fields are derived from; projections downstream place them next to it.
type Eval struct {
	Expressions []ast.Expression
	SourceField string
}

// Match sets a free-text match on Field.
type Match struct {
	Field   value.Column
	Pattern string
}

// Expand expands a multi-valued field into one row per value.
type Expand struct {
	Field string
}

func (Limit) actionNode()    {}
func (Keep) actionNode()     {}
func (Drop) actionNode()     {}
func (SortAsc) actionNode()  {}
func (SortDesc) actionNode() {}
func (Rename) actionNode()   {}
func (Filter) actionNode()   {}
func (Eval) actionNode()     {}
func (Match) actionNode()    {}
func (Expand) actionNode()   {}

func (Limit) Kind() Kind    { return KindLimit }
func (Keep) Kind() Kind     { return KindKeep }
func (Drop) Kind() Kind     { return KindDrop }
func (SortAsc) Kind() Kind  { return KindSortAsc }
func (SortDesc) Kind() Kind { return KindSortDesc }
func (Rename) Kind() Kind   { return KindRename }
func (Filter) Kind() Kind   { return KindFilter }
func (Eval) Kind() Kind     { return KindEval }
func (Match) Kind() Kind    { return KindMatch }
func (Expand) Kind() Kind   { return KindExpand }

// NewFields returns the distinct non-empty field names the eval introduces.
func (e Eval) NewFields() []string {
	var fields []string
	seen := make(map[string]bool)
	for _, x := range e.Expressions {
		if x.Field == "" || seen[x.Field] {
			continue
		}
		seen[x.Field] = true
		fields = append(fields, x.Field)
	}
	return fields
}
