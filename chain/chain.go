// Package chain applies high-level edits to a chain of pipeline blocks.
//
// Each edit either merges into an existing block of the same command,
// bubbles over blocks it commutes with, or inserts a new block. Chains are
// never modified in place: Apply returns a new chain and reuses the blocks
// the edit did not touch.
package chain

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/razeghi71/esqlchain/ast"
)

// Result is the chain after an edit and the position of the block the edit
// landed in.
type Result struct {
	Chain    ast.Chain
	Position int
}

// Builder applies actions to chains.
type Builder struct {
	logger *zap.Logger
}

// NewBuilder returns a Builder that logs placement decisions at debug level.
func NewBuilder(logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{logger: logger}
}

var defaultBuilder = NewBuilder(nil)

// Apply applies a to c. See Builder.Apply.
func Apply(c ast.Chain, a Action, known []string) (Result, error) {
	return defaultBuilder.Apply(c, a, known)
}

// Apply returns c with a applied. known is the ordered list of fields the
// current result has; it is consulted by keep and by rename collision
// checks. On error c is left as it was and the result must be discarded.
func (b *Builder) Apply(c ast.Chain, a Action, known []string) (Result, error) {
	r, ok := rules[a.Kind()]
	if !ok {
		panic(fmt.Sprintf("chain: unhandled action %s", a.Kind()))
	}

	pos, merge := findUpdatePoint(c, a, r)
	var prev ast.Block
	if merge {
		prev = c[pos]
	}
	next, err := r.update(prev, a, known)
	if err != nil {
		b.logger.Debug("edit rejected", zap.Stringer("action", a.Kind()), zap.Error(err))
		return Result{}, err
	}
	if prev != nil && prev.BlockID() != 0 {
		next = ast.SetID(next, prev.BlockID())
	}
	next = ast.Identify(next)

	out := make(ast.Chain, 0, len(c)+1)
	out = append(out, c[:pos]...)
	out = append(out, next)
	if merge {
		out = append(out, c[pos+1:]...)
	} else {
		out = append(out, c[pos:]...)
	}

	if e, ok := a.(Eval); ok {
		propagate(out, pos, e)
	}

	b.logger.Debug("edit applied",
		zap.Stringer("action", a.Kind()),
		zap.Int("position", pos),
		zap.Bool("merged", merge),
		zap.Int("blocks", len(out)))
	return Result{Chain: out, Position: pos}, nil
}

// findUpdatePoint scans c from the tail for a block the action can act on,
// bubbling over the blocks it commutes with. A scan that stops at a block it
// cannot pass inserts right after that block. A scan that reaches the head
// without a merge target places the new block after the last block that is
// not a LIMIT: a projection is bubbled over to reach a block to merge into,
// never to place a new one in front of it.
func findUpdatePoint(c ast.Chain, a Action, r rule) (pos int, merge bool) {
	for i := len(c) - 1; i >= 0; i-- {
		if r.canAct(a, c[i]) {
			return i, true
		}
		if !r.canBubble(a, c[i]) {
			return i + 1, false
		}
	}
	for i := len(c) - 1; i >= 0; i-- {
		if c[i].Command() != ast.CommandLimit {
			return i + 1, false
		}
	}
	return 0, false
}
