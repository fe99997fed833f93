package script

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/razeghi71/esqlchain/ast"
	"github.com/razeghi71/esqlchain/table"
	"github.com/razeghi71/esqlchain/value"
)

func users() *table.Table {
	t := table.NewTable([]string{"name", "age", "city"})
	t.AddRow([]table.Value{table.StrVal("Alice"), table.IntVal(30), table.StrVal("NY")})
	t.AddRow([]table.Value{table.StrVal("Bob"), table.IntVal(25), table.StrVal("LA")})
	t.AddRow([]table.Value{table.StrVal("Charlie"), table.IntVal(35), table.StrVal("NY")})
	t.AddRow([]table.Value{table.StrVal("Diana"), table.IntVal(28), table.Null()})
	return t
}

func replay(t *testing.T, actions ...string) *Result {
	t.Helper()
	r := NewRunner(zaptest.NewLogger(t))
	res, err := r.Replay(&Script{Name: t.Name(), Query: "FROM users", Actions: actions}, users())
	require.NoError(t, err)
	return res
}

func TestLoad(t *testing.T) {
	s, err := Load(filepath.Join("..", "testdata", "users.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "users", s.Name)
	assert.Equal(t, "FROM users", s.Query)
	assert.Equal(t, filepath.Join("..", "testdata", "users.csv"), s.Source)
	assert.Len(t, s.Actions, 5)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("name: x\nactoins:\n  - keep\n"))
	require.Error(t, err)
}

func TestParseRequiresActions(t *testing.T) {
	_, err := Parse([]byte("name: x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "actions")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestRunFromFile(t *testing.T) {
	s, err := Load(filepath.Join("..", "testdata", "users.yaml"))
	require.NoError(t, err)

	res, err := NewRunner(nil).Run(s)
	require.NoError(t, err)

	require.Len(t, res.Chain, 5)
	assert.Equal(t, 4, res.Position)
	assert.Equal(t, []string{"name", "age", "city", "decade"}, res.Table.Columns)
	require.Len(t, res.Table.Rows, 4)
	assert.Equal(t, "Frank", res.Table.Get(0, "name").Str)
	assert.Equal(t, "Diana", res.Table.Get(3, "name").Str)

	assert.Contains(t, res.Query, "FROM users\n| DROP score\n| WHERE ")
	assert.Contains(t, res.Query, `"LA"`)
	assert.Contains(t, res.Query, "| SORT age DESC\n| EVAL decade = age / 10\n| LIMIT 10")
}

func TestReplayResolvesTypes(t *testing.T) {
	res := replay(t, "sort_asc age", "match name \"ali\"")

	sort := res.Chain[0].(ast.Sort)
	assert.Equal(t, value.ClassNumeric, sort.Order[0].Class)

	match := res.Chain[1].(ast.Match)
	assert.Equal(t, value.Column{Name: "name", Type: "keyword"}, match.Field)

	require.Len(t, res.Table.Rows, 1)
	assert.Equal(t, "Alice", res.Table.Get(0, "name").Str)
}

func TestReplayFilterSeedsFromPreview(t *testing.T) {
	res := replay(t, "filter city")

	f := res.Chain[0].(ast.Filter)
	assert.Equal(t, value.Column{Name: "city", Type: "keyword"}, f.Field)
	require.NotNil(t, f.LocalStats)
	assert.Equal(t, 4, f.LocalStats.Total)
	assert.Equal(t, value.String("NY"), f.Values[0].Value)
	assert.True(t, f.Values[len(f.Values)-1].Value.IsOther())

	// everything is included, so nothing is filtered or rendered
	assert.Len(t, res.Table.Rows, 4)
	assert.Equal(t, "FROM users", res.Query)
}

func TestReplayFilterExclude(t *testing.T) {
	res := replay(t, "filter city not NY, null")

	f := res.Chain[0].(ast.Filter)
	assert.False(t, f.Included(value.String("NY")))
	assert.False(t, f.Included(value.Null()))
	assert.True(t, f.Included(value.String("LA")))

	require.Len(t, res.Table.Rows, 1)
	assert.Equal(t, "Bob", res.Table.Get(0, "name").Str)
}

func TestReplayFilterOnly(t *testing.T) {
	res := replay(t, "filter age only 30, 35")

	f := res.Chain[0].(ast.Filter)
	assert.False(t, f.DefaultIncluded())
	assert.True(t, f.Included(value.Number(30)))

	require.Len(t, res.Table.Rows, 2)
	assert.Equal(t, "Alice", res.Table.Get(0, "name").Str)
	assert.Equal(t, "Charlie", res.Table.Get(1, "name").Str)
}

func TestReplayRefilterReplaces(t *testing.T) {
	res := replay(t, "filter city not NY", "filter city only NY")

	require.Len(t, res.Chain, 1)
	assert.Equal(t, 0, res.Position)
	assert.Len(t, res.Table.Rows, 2)
}

func TestReplayKeepsChainOnCollision(t *testing.T) {
	res := replay(t, "drop age", "rename name AS city", "rename name AS person")

	assert.Equal(t, []string{"rename name AS city"}, res.Rejected)
	require.Len(t, res.Chain, 2)
	assert.Equal(t, []string{"person", "city"}, res.Table.Columns)
}

func TestReplayEvalAfterKeep(t *testing.T) {
	res := replay(t, "keep", "eval older = age + 1")

	require.Len(t, res.Chain, 2)
	keep := res.Chain[0].(ast.Keep)
	assert.Equal(t, []string{"name", "age", "city"}, keep.Fields)
	assert.Equal(t, 1, res.Position)
	assert.Equal(t, []string{"name", "age", "city", "older"}, res.Table.Columns)
	assert.Equal(t, int64(31), res.Table.Get(0, "older").Int)
}

func TestReplayErrors(t *testing.T) {
	r := NewRunner(nil)
	tests := []struct {
		name    string
		actions []string
	}{
		{"parse error", []string{"frobnicate"}},
		{"unknown filter field", []string{"filter nope"}},
		{"unknown sort field", []string{"sort_desc nope"}},
		{"preview error", []string{"drop nope", "limit"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Replay(&Script{Actions: tt.actions}, users())
			require.Error(t, err)
		})
	}
}

func TestRunWithoutSource(t *testing.T) {
	res, err := NewRunner(nil).Run(&Script{Query: "FROM logs", Actions: []string{"limit"}})
	require.NoError(t, err)
	assert.Equal(t, "FROM logs\n| LIMIT 10", res.Query)
	assert.Empty(t, res.Table.Rows)
}

func TestRunMissingSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: s\nsource: nope.csv\nactions:\n  - limit\n"), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	_, err = NewRunner(nil).Run(s)
	require.Error(t, err)
}
