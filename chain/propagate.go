package chain

import (
	"github.com/samber/lo"

	"github.com/razeghi71/esqlchain/ast"
)

// propagate carries the fields introduced by an eval at pos into every
// later block of c, replacing blocks in c (a fresh slice owned by Apply).
//
// A later DROP cannot remove a field computed upstream of it, so the new
// fields are taken out of it. A later KEEP gains the new fields right after
// the eval's source field. A later RENAME of the source field changes the
// name the remaining blocks know it by.
func propagate(c ast.Chain, pos int, e Eval) {
	fields := e.NewFields()
	if len(fields) == 0 {
		return
	}
	source := e.SourceField
	for i := pos + 1; i < len(c); i++ {
		switch b := c[i].(type) {
		case ast.Drop:
			if len(lo.Intersect(b.Fields, fields)) > 0 {
				b.Fields = lo.Without(b.Fields, fields...)
				c[i] = b
			}
		case ast.Keep:
			c[i] = keepWith(b, source, fields)
		case ast.Rename:
			if renamed, ok := b.Lookup(source); ok && source != "" {
				source = renamed
			}
		}
	}
}

// keepWith inserts the missing fields right after source, or at the end
// when source is not kept.
func keepWith(k ast.Keep, source string, fields []string) ast.Keep {
	missing := lo.Filter(fields, func(f string, _ int) bool {
		return !lo.Contains(k.Fields, f)
	})
	if len(missing) == 0 {
		return k
	}
	at := len(k.Fields)
	if source != "" {
		if i := lo.IndexOf(k.Fields, source); i >= 0 {
			at = i + 1
		}
	}
	kept := make([]string, 0, len(k.Fields)+len(missing))
	kept = append(kept, k.Fields[:at]...)
	kept = append(kept, missing...)
	kept = append(kept, k.Fields[at:]...)
	k.Fields = kept
	return k
}
