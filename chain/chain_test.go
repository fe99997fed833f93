package chain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/razeghi71/esqlchain/ast"
	"github.com/razeghi71/esqlchain/esql"
	"github.com/razeghi71/esqlchain/stats"
	"github.com/razeghi71/esqlchain/value"
)

func withoutIDs(c ast.Chain) ast.Chain {
	out := make(ast.Chain, len(c))
	for i, b := range c {
		out[i] = ast.SetID(b, 0)
	}
	return out
}

func limit(n int) ast.Limit { return ast.Limit{Limit: &n} }

func apply(t *testing.T, c ast.Chain, a Action, known ...string) Result {
	t.Helper()
	res, err := NewBuilder(zaptest.NewLogger(t)).Apply(c, a, known)
	require.NoError(t, err)
	return res
}

func TestLimitOnEmptyChain(t *testing.T) {
	res := apply(t, nil, Limit{})
	assert.Equal(t, ast.Chain{limit(DefaultLimit)}, withoutIDs(res.Chain))
	assert.Equal(t, 0, res.Position)
	assert.NotZero(t, res.Chain[0].BlockID())
}

func TestLimitReusesExisting(t *testing.T) {
	c := ast.Chain{ast.Identify(limit(50)), ast.Identify(ast.Drop{Fields: []string{"a"}})}
	res := apply(t, c, Limit{})

	// limit does not bubble, so the drop stops the scan and a new LIMIT is
	// appended after it
	assert.Equal(t, ast.Chain{limit(50), ast.Drop{Fields: []string{"a"}}, limit(DefaultLimit)}, withoutIDs(res.Chain))

	res = apply(t, ast.Chain{c[1], c[0]}, Limit{})
	assert.Equal(t, ast.Chain{c[1], c[0]}, res.Chain)
	assert.Equal(t, 1, res.Position)
}

func TestKeepIdempotent(t *testing.T) {
	known := []string{"a", "b", "c"}
	first := apply(t, nil, Keep{}, known...)
	second := apply(t, first.Chain, Keep{}, known...)

	require.Len(t, second.Chain, 1)
	assert.Equal(t, ast.Keep{Fields: known}, ast.SetID(second.Chain[0], 0))
	assert.Equal(t, first.Chain[0].BlockID(), second.Chain[0].BlockID())
}

func TestKeepResetsToSnapshot(t *testing.T) {
	c := ast.Chain{ast.Keep{Fields: []string{"a"}}}
	res := apply(t, c, Keep{}, "a", "b", "b", "c")
	assert.Equal(t, ast.Chain{ast.Keep{Fields: []string{"a", "b", "c"}}}, withoutIDs(res.Chain))
}

func TestKeepEmptySnapshot(t *testing.T) {
	res := apply(t, nil, Keep{})
	require.Len(t, res.Chain, 1)
	_, ok := esql.Block(res.Chain[0])
	assert.False(t, ok)
}

func TestDropReorders(t *testing.T) {
	c := ast.Chain{ast.Drop{Fields: []string{"a", "b"}}}
	res := apply(t, c, Drop{Field: "a"})
	assert.Equal(t, ast.Chain{ast.Drop{Fields: []string{"b", "a"}}}, withoutIDs(res.Chain))
	// input untouched
	assert.Equal(t, []string{"a", "b"}, c[0].(ast.Drop).Fields)
}

func TestDropFromKeep(t *testing.T) {
	c := ast.Chain{ast.Keep{Fields: []string{"a", "b", "c"}}, limit(10)}
	res := apply(t, c, Drop{Field: "b"})
	assert.Equal(t, ast.Chain{ast.Keep{Fields: []string{"a", "c"}}, limit(10)}, withoutIDs(res.Chain))
	assert.Equal(t, 0, res.Position)
}

func TestDropInsertsAfterOtherBlocks(t *testing.T) {
	c := ast.Chain{ast.Sort{Order: []ast.SortKey{{Field: "a", Ascending: true}}}}
	res := apply(t, c, Drop{Field: "x"})
	assert.Equal(t, ast.Chain{c[0], ast.Drop{Fields: []string{"x"}}}, withoutIDs(res.Chain))
	assert.Equal(t, 1, res.Position)
}

func TestSortBubblesOverLimit(t *testing.T) {
	c := ast.Chain{ast.Keep{Fields: []string{"f1", "f2"}}, limit(10)}
	res := apply(t, c, SortAsc{Field: "f1", Class: value.ClassString})

	want := ast.Chain{
		ast.Keep{Fields: []string{"f1", "f2"}},
		ast.Sort{Order: []ast.SortKey{{Field: "f1", Class: value.ClassString, Ascending: true}}},
		limit(10),
	}
	assert.Equal(t, want, withoutIDs(res.Chain))
	assert.Equal(t, 1, res.Position)
}

func TestSortOnlyLimitInsertsAtHead(t *testing.T) {
	res := apply(t, ast.Chain{limit(10)}, SortDesc{Field: "a"})
	assert.Equal(t, ast.Chain{ast.Sort{Order: []ast.SortKey{{Field: "a"}}}, limit(10)}, withoutIDs(res.Chain))
	assert.Equal(t, 0, res.Position)
}

func TestSortMergesThroughProjections(t *testing.T) {
	c := ast.Chain{
		ast.Identify(ast.Sort{Order: []ast.SortKey{
			{Field: "a", Ascending: true},
			{Field: "b", Ascending: true},
		}}),
		ast.Drop{Fields: []string{"x"}},
		ast.Keep{Fields: []string{"a", "b"}},
		limit(5),
	}
	res := apply(t, c, SortDesc{Field: "b", Class: value.ClassNumeric})

	sort := res.Chain[0].(ast.Sort)
	assert.Equal(t, []ast.SortKey{
		{Field: "b", Class: value.ClassNumeric, Ascending: false},
		{Field: "a", Ascending: true},
	}, sort.Order)
	assert.Equal(t, c[0].BlockID(), sort.BlockID())
	assert.Equal(t, c[1:], res.Chain[1:])
	assert.Equal(t, 0, res.Position)
}

func TestFilterStopsAtSortBeforeProjection(t *testing.T) {
	sort := ast.Sort{Order: []ast.SortKey{{Field: "a", Ascending: true}}}
	keep := ast.Keep{Fields: []string{"a", "b"}}
	res := apply(t, ast.Chain{sort, keep}, Filter{Field: value.Column{Name: "b", Type: "keyword"}})

	require.Len(t, res.Chain, 3)
	assert.Equal(t, 1, res.Position)
	assert.Equal(t, sort, res.Chain[0])
	assert.IsType(t, ast.Filter{}, res.Chain[1])
	assert.Equal(t, keep, res.Chain[2])
}

func TestEvalStopsBeforeProjections(t *testing.T) {
	c := ast.Chain{
		ast.Sort{Order: []ast.SortKey{{Field: "a"}}},
		ast.Drop{Fields: []string{"z", "x"}},
		ast.Keep{Fields: []string{"a", "z"}},
		limit(10),
	}
	res := apply(t, c, Eval{Expressions: []ast.Expression{{Field: "z", Expression: "a + 1"}}, SourceField: "a"})

	assert.Equal(t, 1, res.Position)
	assert.Equal(t, ast.Chain{
		ast.Sort{Order: []ast.SortKey{{Field: "a"}}},
		ast.Eval{Expressions: []ast.Expression{{Field: "z", Expression: "a + 1"}}},
		ast.Drop{Fields: []string{"x"}},
		ast.Keep{Fields: []string{"a", "z"}},
		limit(10),
	}, withoutIDs(res.Chain))
}

func TestEvalReachingHeadGoesAfterProjections(t *testing.T) {
	c := ast.Chain{
		ast.Drop{Fields: []string{"x"}},
		ast.Keep{Fields: []string{"a"}},
		ast.Drop{Fields: []string{"y"}},
	}
	res := apply(t, c, Eval{Expressions: []ast.Expression{{Field: "z", Expression: "1"}}})
	assert.Equal(t, 3, res.Position)
	assert.Len(t, res.Chain, 4)
}

func TestRenameCollision(t *testing.T) {
	c := ast.Chain{ast.Drop{Fields: []string{"z"}}}
	_, err := Apply(c, Rename{From: "x", To: "y"}, []string{"x", "y"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNamingCollision))

	var collision *NamingCollisionError
	require.True(t, errors.As(err, &collision))
	assert.Equal(t, "y", collision.Field)
	assert.Equal(t, ast.Chain{ast.Drop{Fields: []string{"z"}}}, c)
}

func TestRenameMerge(t *testing.T) {
	res := apply(t, nil, Rename{From: "a", To: "b"}, "a")
	res = apply(t, res.Chain, Rename{From: "c", To: "d"}, "b", "c")
	res = apply(t, res.Chain, Rename{From: "a", To: "e"}, "b", "d")

	want := ast.Chain{ast.Rename{Pairs: []ast.RenamePair{{Old: "a", New: "e"}, {Old: "c", New: "d"}}}}
	assert.Equal(t, want, withoutIDs(res.Chain))
}

func TestFilterSeedsFromStats(t *testing.T) {
	city := value.Column{Name: "city", Type: "keyword"}
	s := stats.CountValues([]any{"LA", "NY", "NY", nil, "NY", "LA"})
	res := apply(t, ast.Chain{limit(10)}, Filter{Field: city, Stats: s})

	f := res.Chain[0].(ast.Filter)
	assert.Equal(t, city, f.Field)
	assert.Equal(t, []ast.FilterValue{
		{Value: value.String("NY"), Included: true},
		{Value: value.String("LA"), Included: true},
		{Value: value.Null(), Included: true},
		{Value: value.Other(), Included: true},
	}, f.Values)
	assert.Same(t, s, f.LocalStats)
	assert.Nil(t, f.TopStats)

	// nothing is excluded yet, so nothing is rendered
	assert.Equal(t, "FROM x\n| LIMIT 10", esql.Chain("FROM x", res.Chain))
}

func TestFilterWithoutStats(t *testing.T) {
	res := apply(t, nil, Filter{Field: value.Column{Name: "a", Type: "long"}})
	f := res.Chain[0].(ast.Filter)
	assert.Equal(t, []ast.FilterValue{{Value: value.Other(), Included: true}}, f.Values)
}

func TestFilterReplacesSameField(t *testing.T) {
	city := value.Column{Name: "city", Type: "keyword"}
	old := ast.Identify(ast.Filter{Field: city, Values: []ast.FilterValue{{Value: value.String("NY"), Included: false}}})
	other := ast.Filter{Field: value.Column{Name: "age", Type: "long"}}
	c := ast.Chain{old, ast.Keep{Fields: []string{"city"}}}

	res := apply(t, c, Filter{Field: city, Stats: stats.CountValues([]any{"SF"})})
	require.Len(t, res.Chain, 2)
	f := res.Chain[0].(ast.Filter)
	assert.Equal(t, old.BlockID(), f.BlockID())
	assert.Len(t, f.Values, 2)

	// a filter on another field does not merge
	res = apply(t, ast.Chain{other}, Filter{Field: city})
	assert.Len(t, res.Chain, 2)
	assert.Equal(t, 1, res.Position)
}

func TestEvalAppendsAndPropagatesToKeep(t *testing.T) {
	c := ast.Chain{
		ast.Eval{Expressions: []ast.Expression{{Field: "x", Expression: "1"}}},
		ast.Keep{Fields: []string{"f0", "f1", "f3"}},
	}
	res := apply(t, c, Eval{
		Expressions: []ast.Expression{{Field: "f2", Expression: "f1 * 2"}},
		SourceField: "f1",
	})

	want := ast.Chain{
		ast.Eval{Expressions: []ast.Expression{
			{Field: "x", Expression: "1"},
			{Field: "f2", Expression: "f1 * 2"},
		}},
		ast.Keep{Fields: []string{"f0", "f1", "f2", "f3"}},
	}
	assert.Equal(t, want, withoutIDs(res.Chain))
	assert.Equal(t, 0, res.Position)
	assert.Equal(t, []ast.Expression{{Field: "x", Expression: "1"}}, c[0].(ast.Eval).Expressions)
}

func TestEvalKeepPlacement(t *testing.T) {
	c := ast.Chain{
		ast.Eval{},
		ast.Keep{Fields: []string{"f1"}},
	}
	res := apply(t, c, Eval{
		Expressions: []ast.Expression{{Field: "f2", Expression: "f1 + 1"}},
		SourceField: "f1",
	})
	assert.Equal(t, []string{"f1", "f2"}, res.Chain[1].(ast.Keep).Fields)
}

func TestEvalPropagation(t *testing.T) {
	c := ast.Chain{
		ast.Eval{},
		ast.Drop{Fields: []string{"n", "other"}},
		ast.Rename{Pairs: []ast.RenamePair{{Old: "src", New: "renamed"}}},
		ast.Sort{Order: []ast.SortKey{{Field: "renamed"}}},
		ast.Keep{Fields: []string{"a", "renamed", "b"}},
		ast.Keep{Fields: []string{"a", "n", "renamed"}},
		ast.Keep{Fields: []string{"a"}},
		limit(3),
	}
	got := append(ast.Chain(nil), c...)
	propagate(got, 0, Eval{
		Expressions: []ast.Expression{{Field: "n", Expression: "LENGTH(src)"}},
		SourceField: "src",
	})

	assert.Equal(t, ast.Drop{Fields: []string{"other"}}, got[1])
	assert.Equal(t, c[2], got[2])
	assert.Equal(t, c[3], got[3])
	assert.Equal(t, ast.Keep{Fields: []string{"a", "renamed", "n", "b"}}, got[4])
	assert.Equal(t, c[5], got[5])
	assert.Equal(t, ast.Keep{Fields: []string{"a", "n"}}, got[6])
	assert.Equal(t, c[7], got[7])
}

func TestEvalInsertsAfterKeep(t *testing.T) {
	c := ast.Chain{ast.Keep{Fields: []string{"a"}}, limit(10)}
	res := apply(t, c, Eval{Expressions: []ast.Expression{{Field: "b", Expression: "a"}}, SourceField: "a"})
	assert.Equal(t, ast.Chain{
		ast.Keep{Fields: []string{"a"}},
		ast.Eval{Expressions: []ast.Expression{{Field: "b", Expression: "a"}}},
		limit(10),
	}, withoutIDs(res.Chain))
	assert.Equal(t, 1, res.Position)
}

func TestMatchAndExpand(t *testing.T) {
	msg := value.Column{Name: "message", Type: "text"}
	res := apply(t, nil, Match{Field: msg, Pattern: "disk"})
	res = apply(t, res.Chain, Match{Field: msg, Pattern: "timeout"})
	require.Len(t, res.Chain, 1)
	assert.Equal(t, "timeout", res.Chain[0].(ast.Match).Pattern)

	res = apply(t, res.Chain, Expand{Field: "tags"})
	res = apply(t, res.Chain, Expand{Field: "ids"})
	res = apply(t, res.Chain, Expand{Field: "tags"})
	assert.Equal(t, ast.Chain{
		ast.Match{Field: msg, Pattern: "timeout"},
		ast.Expand{Fields: []string{"tags", "ids"}},
	}, withoutIDs(res.Chain))
}

func TestUntouchedBlocksKeepIdentity(t *testing.T) {
	c := ast.Chain{
		ast.Identify(ast.Drop{Fields: []string{"a"}}),
		ast.Identify(ast.Sort{Order: []ast.SortKey{{Field: "b"}}}),
	}
	res := apply(t, c, Drop{Field: "c"})
	require.Len(t, res.Chain, 3)
	assert.Equal(t, c[0], res.Chain[0])
	assert.Equal(t, c[1], res.Chain[1])
	assert.NotEqual(t, c[0].BlockID(), res.Chain[2].BlockID())
}

func TestRulesCoverEveryAction(t *testing.T) {
	for k := range kindNames {
		_, ok := rules[k]
		assert.True(t, ok, "no rule for %s", k)
	}
}
