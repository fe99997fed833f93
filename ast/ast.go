package ast

// Expr is a parsed EVAL expression, used when a chain is previewed locally.
type Expr interface {
	exprNode()
}

// LiteralExpr represents a literal value: number, string, bool, null.
type LiteralExpr struct {
	// Kind: "int", "float", "string", "bool", "null"
	Kind  string
	Int   int64
	Float float64
	Str   string
	Bool  bool
}

func (e *LiteralExpr) exprNode() {}

// ColumnExpr references a field by name.
type ColumnExpr struct {
	Name string
}

func (e *ColumnExpr) exprNode() {}

// BinaryExpr represents a binary operation: a op b.
type BinaryExpr struct {
	Op    string // +, -, *, /, %, ==, !=, <, >, <=, >=, and, or
	Left  Expr
	Right Expr
}

func (e *BinaryExpr) exprNode() {}

// UnaryExpr represents a unary operation (not, unary minus).
type UnaryExpr struct {
	Op      string // "not", "-"
	Operand Expr
}

func (e *UnaryExpr) exprNode() {}

// FuncCallExpr represents a function call. Name is upper case.
type FuncCallExpr struct {
	Name string
	Args []Expr
}

func (e *FuncCallExpr) exprNode() {}

// IsNullExpr represents "x IS NULL" or "x IS NOT NULL".
type IsNullExpr struct {
	Operand Expr
	Negated bool // true = "is not null"
}

func (e *IsNullExpr) exprNode() {}

// InExpr represents "x IN (a, b)" or "x NOT IN (a, b)".
type InExpr struct {
	Operand Expr
	List    []Expr
	Negated bool
}

func (e *InExpr) exprNode() {}

// Columns returns the distinct field names referenced by expr, in the order
// they first appear.
func Columns(expr Expr) []string {
	var names []string
	seen := make(map[string]bool)
	var walk func(Expr)
	walk = func(e Expr) {
		switch e := e.(type) {
		case *ColumnExpr:
			if !seen[e.Name] {
				seen[e.Name] = true
				names = append(names, e.Name)
			}
		case *BinaryExpr:
			walk(e.Left)
			walk(e.Right)
		case *UnaryExpr:
			walk(e.Operand)
		case *FuncCallExpr:
			for _, a := range e.Args {
				walk(a)
			}
		case *IsNullExpr:
			walk(e.Operand)
		case *InExpr:
			walk(e.Operand)
			for _, item := range e.List {
				walk(item)
			}
		}
	}
	walk(expr)
	return names
}
