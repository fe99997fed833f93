package ast

import (
	"fmt"
	"sync/atomic"
)

// ID is an opaque block identity. It survives rewrites of the chain so that
// per-block state held elsewhere can follow a block. The zero ID means the
// block has not been identified yet.
type ID uint64

// Identity carries a block's ID.
type Identity struct {
	ID ID
}

func (i Identity) BlockID() ID { return i.ID }

var lastID atomic.Uint64

func nextID() ID {
	return ID(lastID.Add(1))
}

// Identify returns b with a freshly minted ID, or b itself if it already
// has one.
func Identify(b Block) Block {
	if b.BlockID() != 0 {
		return b
	}
	return SetID(b, nextID())
}

// SetID returns a copy of b carrying id.
func SetID(b Block, id ID) Block {
	switch b := b.(type) {
	case Limit:
		b.ID = id
		return b
	case Keep:
		b.ID = id
		return b
	case Drop:
		b.ID = id
		return b
	case Expand:
		b.ID = id
		return b
	case Rename:
		b.ID = id
		return b
	case Filter:
		b.ID = id
		return b
	case Match:
		b.ID = id
		return b
	case Eval:
		b.ID = id
		return b
	case Sort:
		b.ID = id
		return b
	default:
		panic(fmt.Sprintf("ast: unhandled block type %T", b))
	}
}

// Identified returns a copy of c in which every block has an ID.
func (c Chain) Identified() Chain {
	out := make(Chain, len(c))
	for i, b := range c {
		out[i] = Identify(b)
	}
	return out
}
