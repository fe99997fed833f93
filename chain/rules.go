package chain

import (
	"github.com/samber/lo"

	"github.com/razeghi71/esqlchain/ast"
	"github.com/razeghi71/esqlchain/stats"
	"github.com/razeghi71/esqlchain/value"
)

// DefaultLimit is the row cap of a LIMIT stage created by a limit action.
const DefaultLimit = 10

// rule decides where an action lands and what it leaves there.
//
// canAct reports whether the action folds into the block; canBubble whether
// the action commutes with the block so the scan may continue past it.
// update returns the block to store at the update point; prev is nil when
// a new block is inserted.
type rule struct {
	canAct    func(a Action, b ast.Block) bool
	canBubble func(a Action, b ast.Block) bool
	update    func(prev ast.Block, a Action, known []string) (ast.Block, error)
}

var rules = map[Kind]rule{
	KindLimit:    {canAct: on(ast.CommandLimit), canBubble: never, update: updateLimit},
	KindKeep:     {canAct: on(ast.CommandKeep), canBubble: overLimit, update: updateKeep},
	KindDrop:     {canAct: on(ast.CommandDrop, ast.CommandKeep), canBubble: overLimit, update: updateDrop},
	KindSortAsc:  {canAct: on(ast.CommandSort), canBubble: overProjection, update: updateSort},
	KindSortDesc: {canAct: on(ast.CommandSort), canBubble: overProjection, update: updateSort},
	KindRename:   {canAct: on(ast.CommandRename), canBubble: overLimit, update: updateRename},
	KindFilter:   {canAct: filterOnSameField, canBubble: overProjection, update: updateFilter},
	KindEval:     {canAct: on(ast.CommandEval), canBubble: overProjection, update: updateEval},
	KindMatch:    {canAct: matchOnSameField, canBubble: overProjection, update: updateMatch},
	KindExpand:   {canAct: on(ast.CommandExpand), canBubble: overLimit, update: updateExpand},
}

func on(commands ...ast.Command) func(Action, ast.Block) bool {
	return func(_ Action, b ast.Block) bool {
		return lo.Contains(commands, b.Command())
	}
}

func filterOnSameField(a Action, b ast.Block) bool {
	f, ok := b.(ast.Filter)
	return ok && f.Field.Name == a.(Filter).Field.Name
}

func matchOnSameField(a Action, b ast.Block) bool {
	m, ok := b.(ast.Match)
	return ok && m.Field.Name == a.(Match).Field.Name
}

func never(Action, ast.Block) bool { return false }

// Row capping is treated as the last stage wherever LIMIT appears, so every
// action but limit itself passes over it.
func overLimit(_ Action, b ast.Block) bool {
	return b.Command() == ast.CommandLimit
}

// Field visibility does not change what sorting, filtering or computing a
// field means, as long as the field is still addressable upstream.
func overProjection(a Action, b ast.Block) bool {
	switch b.Command() {
	case ast.CommandKeep, ast.CommandDrop:
		return true
	}
	return overLimit(a, b)
}

func updateLimit(prev ast.Block, _ Action, _ []string) (ast.Block, error) {
	if prev != nil {
		return prev, nil
	}
	n := DefaultLimit
	return ast.Limit{Limit: &n}, nil
}

// keep resets the projection to the whole known-fields snapshot.
func updateKeep(_ ast.Block, _ Action, known []string) (ast.Block, error) {
	return ast.Keep{Fields: lo.Uniq(known)}, nil
}

func updateDrop(prev ast.Block, a Action, _ []string) (ast.Block, error) {
	field := a.(Drop).Field
	switch p := prev.(type) {
	case ast.Drop:
		p.Fields = append(lo.Without(p.Fields, field), field)
		return p, nil
	case ast.Keep:
		p.Fields = lo.Without(p.Fields, field)
		return p, nil
	default:
		return ast.Drop{Fields: []string{field}}, nil
	}
}

func updateSort(prev ast.Block, a Action, _ []string) (ast.Block, error) {
	var key ast.SortKey
	switch a := a.(type) {
	case SortAsc:
		key = ast.SortKey{Field: a.Field, Class: a.Class, Ascending: true}
	case SortDesc:
		key = ast.SortKey{Field: a.Field, Class: a.Class, Ascending: false}
	}
	p, ok := prev.(ast.Sort)
	if !ok {
		return ast.Sort{Order: []ast.SortKey{key}}, nil
	}
	rest := lo.Filter(p.Order, func(k ast.SortKey, _ int) bool {
		return k.Field != key.Field
	})
	p.Order = append([]ast.SortKey{key}, rest...)
	return p, nil
}

func updateRename(prev ast.Block, a Action, known []string) (ast.Block, error) {
	r := a.(Rename)
	if lo.Contains(known, r.To) {
		return nil, &NamingCollisionError{Field: r.To}
	}
	p, ok := prev.(ast.Rename)
	if !ok {
		return ast.Rename{Pairs: []ast.RenamePair{{Old: r.From, New: r.To}}}, nil
	}
	pairs := make([]ast.RenamePair, len(p.Pairs), len(p.Pairs)+1)
	copy(pairs, p.Pairs)
	i := lo.IndexOf(lo.Map(pairs, func(rp ast.RenamePair, _ int) string { return rp.Old }), r.From)
	if i >= 0 {
		pairs[i].New = r.To
	} else {
		pairs = append(pairs, ast.RenamePair{Old: r.From, New: r.To})
	}
	p.Pairs = pairs
	return p, nil
}

// filter always replaces: candidates are the known values by descending
// frequency, then every other value, all included.
func updateFilter(_ ast.Block, a Action, _ []string) (ast.Block, error) {
	f := a.(Filter)
	entries := stats.ByCount(stats.Entries(f.Stats))
	values := make([]ast.FilterValue, 0, len(entries)+1)
	for _, e := range entries {
		values = append(values, ast.FilterValue{Value: e.Value, Included: true})
	}
	values = append(values, ast.FilterValue{Value: value.Other(), Included: true})
	return ast.Filter{Field: f.Field, Values: values, LocalStats: f.Stats}, nil
}

func updateEval(prev ast.Block, a Action, _ []string) (ast.Block, error) {
	e := a.(Eval)
	p, ok := prev.(ast.Eval)
	if !ok {
		return ast.Eval{Expressions: append([]ast.Expression(nil), e.Expressions...)}, nil
	}
	exprs := make([]ast.Expression, 0, len(p.Expressions)+len(e.Expressions))
	exprs = append(exprs, p.Expressions...)
	p.Expressions = append(exprs, e.Expressions...)
	return p, nil
}

func updateMatch(_ ast.Block, a Action, _ []string) (ast.Block, error) {
	m := a.(Match)
	return ast.Match{Field: m.Field, Pattern: m.Pattern}, nil
}

func updateExpand(prev ast.Block, a Action, _ []string) (ast.Block, error) {
	field := a.(Expand).Field
	p, ok := prev.(ast.Expand)
	if !ok {
		return ast.Expand{Fields: []string{field}}, nil
	}
	if lo.Contains(p.Fields, field) {
		return p, nil
	}
	p.Fields = append(append([]string(nil), p.Fields...), field)
	return p, nil
}
