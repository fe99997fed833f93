// Package script replays action scripts: a data source, the query text the
// chain continues, and one action per line.
package script

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/razeghi71/esqlchain/ast"
	"github.com/razeghi71/esqlchain/chain"
	"github.com/razeghi71/esqlchain/engine"
	"github.com/razeghi71/esqlchain/esql"
	"github.com/razeghi71/esqlchain/loader"
	"github.com/razeghi71/esqlchain/parser"
	"github.com/razeghi71/esqlchain/table"
	"github.com/razeghi71/esqlchain/value"
)

// Script is an action script as read from YAML.
type Script struct {
	// Name identifies the script in logs.
	Name string `yaml:"name"`

	// Source is the data file previews run against. Relative paths are
	// resolved against the script's directory. Without a source previews
	// run against an empty table.
	Source string `yaml:"source,omitempty"`

	// Query is the upstream query text the chain is appended to.
	Query string `yaml:"query,omitempty"`

	// Actions holds one action line each, e.g. "drop city".
	Actions []string `yaml:"actions"`
}

// Load reads a script file. Unknown keys are rejected.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Source != "" && !filepath.IsAbs(s.Source) {
		s.Source = filepath.Join(filepath.Dir(path), s.Source)
	}
	return s, nil
}

// Parse decodes a script from YAML.
func Parse(data []byte) (*Script, error) {
	var s Script
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(s.Actions) == 0 {
		return nil, errors.New("actions list is required and must be non-empty")
	}
	return &s, nil
}

// Result is the outcome of a replay.
type Result struct {
	Chain ast.Chain
	// Position is where the last accepted action landed.
	Position int
	// Query is the rendered ES|QL text.
	Query string
	// Table is the local preview of the final chain.
	Table *table.Table
	// Rejected lists the action lines that were refused with a naming
	// collision and left the chain as it was.
	Rejected []string
}

// Runner replays scripts.
type Runner struct {
	logger  *zap.Logger
	builder *chain.Builder
}

// NewRunner returns a Runner. A nil logger discards everything.
func NewRunner(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger, builder: chain.NewBuilder(logger)}
}

// Run loads the script's source and replays its actions.
func (r *Runner) Run(s *Script) (*Result, error) {
	input := table.NewTable(nil)
	if s.Source != "" {
		var err error
		input, err = loader.Load(s.Source)
		if err != nil {
			return nil, fmt.Errorf("load source: %w", err)
		}
	}
	return r.Replay(s, input)
}

// Replay applies the script's actions in order, previewing the chain against
// input before each one.
func (r *Runner) Replay(s *Script, input *table.Table) (*Result, error) {
	logger := r.logger.With(zap.String("script", s.Name))
	res := &Result{}

	for i, text := range s.Actions {
		line, err := parser.ParseAction(text)
		if err != nil {
			return nil, fmt.Errorf("action %d (%q): %w", i+1, text, err)
		}
		preview, err := engine.Execute(res.Chain, input)
		if err != nil {
			return nil, fmt.Errorf("action %d (%q): preview: %w", i+1, text, err)
		}
		action, err := resolve(line.Action, preview)
		if err != nil {
			return nil, fmt.Errorf("action %d (%q): %w", i+1, text, err)
		}

		applied, err := r.builder.Apply(res.Chain, action, preview.Columns)
		if errors.Is(err, chain.ErrNamingCollision) {
			logger.Warn("action rejected", zap.String("action", text), zap.Error(err))
			res.Rejected = append(res.Rejected, text)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("action %d (%q): %w", i+1, text, err)
		}
		if len(line.Values) > 0 {
			applied.Chain = selectValues(applied.Chain, applied.Position, line)
		}
		res.Chain, res.Position = applied.Chain, applied.Position
		logger.Debug("action applied", zap.String("action", text), zap.Int("position", res.Position))
	}

	final, err := engine.Execute(res.Chain, input)
	if err != nil {
		return nil, fmt.Errorf("preview: %w", err)
	}
	res.Table = final
	res.Query = esql.Chain(s.Query, res.Chain)
	return res, nil
}

// resolve fills in what the parser cannot know: column types, sort classes
// and the statistics a filter is seeded from.
func resolve(a chain.Action, preview *table.Table) (chain.Action, error) {
	column := func(name string) (value.Column, error) {
		if preview.ColIndex(name) < 0 {
			return value.Column{}, fmt.Errorf("unknown field %q", name)
		}
		return value.Column{Name: name, Type: preview.ColumnType(name)}, nil
	}

	switch a := a.(type) {
	case chain.Filter:
		col, err := column(a.Field.Name)
		if err != nil {
			return nil, err
		}
		st, err := engine.Stats(preview, col.Name)
		if err != nil {
			return nil, err
		}
		return chain.Filter{Field: col, Stats: st}, nil
	case chain.Match:
		col, err := column(a.Field.Name)
		if err != nil {
			return nil, err
		}
		a.Field = col
		return a, nil
	case chain.SortAsc:
		col, err := column(a.Field)
		if err != nil {
			return nil, err
		}
		a.Class = col.Class()
		return a, nil
	case chain.SortDesc:
		col, err := column(a.Field)
		if err != nil {
			return nil, err
		}
		a.Class = col.Class()
		return a, nil
	}
	return a, nil
}

// selectValues applies a filter line's selection to the filter block at pos
// and returns a new chain.
func selectValues(c ast.Chain, pos int, line parser.Line) ast.Chain {
	f, ok := c[pos].(ast.Filter)
	if !ok {
		return c
	}
	values := make([]value.Value, len(line.Values))
	for i, v := range line.Values {
		if f.Field.Class() == value.ClassGeo && v.Kind == value.KindString {
			v = value.String(value.NormalizeGeo(v.Str))
		}
		values[i] = v
	}

	if line.Only {
		f = f.Only(values...)
	} else {
		for _, v := range values {
			f = f.Set(v, false)
		}
	}
	out := make(ast.Chain, len(c))
	copy(out, c)
	out[pos] = f
	return out
}
