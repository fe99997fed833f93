package ast

import (
	"fmt"

	"github.com/razeghi71/esqlchain/stats"
	"github.com/razeghi71/esqlchain/value"
)

// Command names the pipeline command a block renders to.
type Command int

const (
	CommandLimit Command = iota
	CommandKeep
	CommandDrop
	CommandExpand
	CommandRename
	CommandFilter
	CommandMatch
	CommandEval
	CommandSort
)

var commandNames = map[Command]string{
	CommandLimit:  "limit",
	CommandKeep:   "keep",
	CommandDrop:   "drop",
	CommandExpand: "expand",
	CommandRename: "rename",
	CommandFilter: "filter",
	CommandMatch:  "match",
	CommandEval:   "eval",
	CommandSort:   "sort",
}

func (c Command) String() string {
	if s, ok := commandNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Command(%d)", int(c))
}

// Block is one stage of a chain.
//
// This is a sealed interface: only the types in this file implement it, so
// type switches over Block can be exhaustive. Blocks are plain values and
// are never modified once they are part of a chain.
type Block interface {
	blockNode()
	BlockID() ID
	Command() Command
}

// Chain is an ordered pipeline of blocks.
type Chain []Block

// Limit caps the number of rows. A nil Limit renders nothing.
type Limit struct {
	Identity
	Limit *int
}

func (Limit) blockNode() {}
func (Limit) Command() Command { return CommandLimit }

// Keep projects the listed fields.
type Keep struct {
	Identity
	Fields []string
}

func (Keep) blockNode() {}
func (Keep) Command() Command { return CommandKeep }

// Drop removes the listed fields.
type Drop struct {
	Identity
	Fields []string
}

func (Drop) blockNode() {}
func (Drop) Command() Command { return CommandDrop }

// Expand turns each multi-valued field into one row per value.
type Expand struct {
	Identity
	Fields []string
}

func (Expand) blockNode() {}
func (Expand) Command() Command { return CommandExpand }

// RenamePair maps an old field name to a new one.
type RenamePair struct {
	Old string
	New string
}

// Rename renames fields. Old names are unique within Pairs.
type Rename struct {
	Identity
	Pairs []RenamePair
}

func (Rename) blockNode() {}
func (Rename) Command() Command { return CommandRename }

// Lookup returns the new name for old, if old is renamed.
func (r Rename) Lookup(old string) (string, bool) {
	for _, p := range r.Pairs {
		if p.Old == old {
			return p.New, true
		}
	}
	return "", false
}

// FilterValue is one candidate of an enumerated filter. Value may be the
// other-values sentinel.
type FilterValue struct {
	Value    value.Value
	Included bool
}

// Filter keeps rows whose field value is included.
type Filter struct {
	Identity
	Field  value.Column
	Values []FilterValue

	LocalStats        *stats.Statistics
	TopStats          *stats.Statistics
	TopStatsRetrieved int
}

func (Filter) blockNode() {}
func (Filter) Command() Command { return CommandFilter }

// DefaultIncluded reports whether values not listed individually pass the
// filter, i.e. whether the other-values entry is included.
func (f Filter) DefaultIncluded() bool {
	for _, fv := range f.Values {
		if fv.Value.IsOther() {
			return fv.Included
		}
	}
	return false
}

// Included reports whether v passes the filter.
func (f Filter) Included(v value.Value) bool {
	for _, fv := range f.Values {
		if fv.Value == v {
			return fv.Included
		}
	}
	return f.DefaultIncluded()
}

// Set returns f with v included or excluded. A value without an entry gets
// one in front of the other-values entry.
func (f Filter) Set(v value.Value, included bool) Filter {
	values := make([]FilterValue, 0, len(f.Values)+1)
	found := false
	for _, fv := range f.Values {
		if fv.Value == v {
			fv.Included = included
			found = true
		}
		values = append(values, fv)
	}
	if !found {
		at := len(values)
		for i, fv := range values {
			if fv.Value.IsOther() {
				at = i
				break
			}
		}
		values = append(values[:at], append([]FilterValue{{Value: v, Included: included}}, values[at:]...)...)
	}
	f.Values = values
	return f
}

// Only returns f with exactly vs included.
func (f Filter) Only(vs ...value.Value) Filter {
	values := make([]FilterValue, len(f.Values))
	for i, fv := range f.Values {
		values[i] = FilterValue{Value: fv.Value}
	}
	f.Values = values
	for _, v := range vs {
		f = f.Set(v, true)
	}
	return f
}

// Match is a free-text match on one field.
type Match struct {
	Identity
	Field   value.Column
	Pattern string
}

func (Match) blockNode() {}
func (Match) Command() Command { return CommandMatch }

// Expression assigns the result of an expression to a field.
type Expression struct {
	Field      string
	Expression string
}

// Eval computes new fields.
type Eval struct {
	Identity
	Expressions []Expression
}

func (Eval) blockNode() {}
func (Eval) Command() Command { return CommandEval }

// SortKey is one sort criterion.
type SortKey struct {
	Field     string
	Class     value.Class
	Ascending bool
}

// Sort orders rows; the first key is primary.
type Sort struct {
	Identity
	Order []SortKey
}

func (Sort) blockNode() {}
func (Sort) Command() Command { return CommandSort }
