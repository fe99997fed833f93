package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/razeghi71/esqlchain/ast"
	"github.com/razeghi71/esqlchain/table"
)

// EvalContext provides column lookup for expression evaluation.
type EvalContext struct {
	Table *table.Table
	Row   *table.Row
}

// Eval evaluates an expression against a row context.
//
// Null follows ES|QL: arithmetic, comparisons, IN and NOT on a null operand
// are null, and AND/OR are null only when the other operand does not decide
// the result.
func Eval(expr ast.Expr, ctx *EvalContext) (table.Value, error) {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		return literal(e), nil
	case *ast.ColumnExpr:
		idx := ctx.Table.ColIndex(e.Name)
		if idx < 0 {
			return table.Null(), fmt.Errorf("column %q not found", e.Name)
		}
		return ctx.Row.Values[idx], nil
	case *ast.BinaryExpr:
		return evalBinary(e, ctx)
	case *ast.UnaryExpr:
		return evalUnary(e, ctx)
	case *ast.FuncCallExpr:
		return evalFunc(e, ctx)
	case *ast.IsNullExpr:
		operand, err := Eval(e.Operand, ctx)
		if err != nil {
			return table.Null(), err
		}
		return table.BoolVal(operand.IsNull() != e.Negated), nil
	case *ast.InExpr:
		return evalIn(e, ctx)
	default:
		return table.Null(), fmt.Errorf("unknown expression type %T", expr)
	}
}

func literal(e *ast.LiteralExpr) table.Value {
	switch e.Kind {
	case "int":
		return table.IntVal(e.Int)
	case "float":
		return table.FloatVal(e.Float)
	case "string":
		return table.StrVal(e.Str)
	case "bool":
		return table.BoolVal(e.Bool)
	}
	return table.Null()
}

// binaryOp applies an operator to two operands that are neither null nor
// multi-valued.
type binaryOp func(op string, l, r table.Value) (table.Value, error)

var binaryOps = map[string]binaryOp{
	"+":  arith,
	"-":  arith,
	"*":  arith,
	"/":  arith,
	"%":  arith,
	"==": comparison,
	"!=": comparison,
	"<":  comparison,
	">":  comparison,
	"<=": comparison,
	">=": comparison,
}

func evalBinary(e *ast.BinaryExpr, ctx *EvalContext) (table.Value, error) {
	left, err := Eval(e.Left, ctx)
	if err != nil {
		return table.Null(), err
	}
	right, err := Eval(e.Right, ctx)
	if err != nil {
		return table.Null(), err
	}

	switch e.Op {
	case "and", "or":
		return logical(e.Op, left, right)
	}
	apply, ok := binaryOps[e.Op]
	if !ok {
		return table.Null(), fmt.Errorf("unknown operator %q", e.Op)
	}
	if left.IsNull() || right.IsNull() {
		return table.Null(), nil
	}
	if left.Type == table.TypeList || right.Type == table.TypeList {
		return table.Null(), nil
	}
	return apply(e.Op, left, right)
}

// number is a numeric operand. Integer arithmetic stays integral.
type number struct {
	i     int64
	f     float64
	isInt bool
}

func toNumber(v table.Value) (number, bool) {
	switch v.Type {
	case table.TypeInt:
		return number{i: v.Int, f: float64(v.Int), isInt: true}, true
	case table.TypeFloat:
		return number{f: v.Float}, true
	}
	return number{}, false
}

// arith returns null on division or modulo by zero. Integer division
// truncates.
func arith(op string, l, r table.Value) (table.Value, error) {
	a, aok := toNumber(l)
	b, bok := toNumber(r)
	if !aok || !bok {
		return table.Null(), fmt.Errorf("cannot perform %s on %v and %v", op, l.AsString(), r.AsString())
	}

	if a.isInt && b.isInt {
		switch op {
		case "+":
			return table.IntVal(a.i + b.i), nil
		case "-":
			return table.IntVal(a.i - b.i), nil
		case "*":
			return table.IntVal(a.i * b.i), nil
		case "/":
			if b.i == 0 {
				return table.Null(), nil
			}
			return table.IntVal(a.i / b.i), nil
		case "%":
			if b.i == 0 {
				return table.Null(), nil
			}
			return table.IntVal(a.i % b.i), nil
		}
	}

	switch op {
	case "+":
		return table.FloatVal(a.f + b.f), nil
	case "-":
		return table.FloatVal(a.f - b.f), nil
	case "*":
		return table.FloatVal(a.f * b.f), nil
	case "/":
		if b.f == 0 {
			return table.Null(), nil
		}
		return table.FloatVal(a.f / b.f), nil
	case "%":
		if b.f == 0 {
			return table.Null(), nil
		}
		return table.FloatVal(math.Mod(a.f, b.f)), nil
	}
	return table.Null(), fmt.Errorf("unknown operator %q", op)
}

func comparison(op string, l, r table.Value) (table.Value, error) {
	cmp, err := compareValues(l, r)
	if err != nil {
		return table.Null(), err
	}
	if l.Type == table.TypeBool && op != "==" && op != "!=" {
		return table.Null(), fmt.Errorf("cannot use %s on booleans", op)
	}
	switch op {
	case "==":
		return table.BoolVal(cmp == 0), nil
	case "!=":
		return table.BoolVal(cmp != 0), nil
	case "<":
		return table.BoolVal(cmp < 0), nil
	case ">":
		return table.BoolVal(cmp > 0), nil
	case "<=":
		return table.BoolVal(cmp <= 0), nil
	default:
		return table.BoolVal(cmp >= 0), nil
	}
}

// compareValues orders two non-null scalars of compatible types. Ints and
// floats compare with each other.
func compareValues(l, r table.Value) (int, error) {
	switch {
	case l.Type == table.TypeString && r.Type == table.TypeString:
		return strings.Compare(l.Str, r.Str), nil
	case l.Type == table.TypeBool && r.Type == table.TypeBool:
		switch {
		case l.Bool == r.Bool:
			return 0, nil
		case r.Bool:
			return -1, nil
		}
		return 1, nil
	}
	a, aok := toNumber(l)
	b, bok := toNumber(r)
	if !aok || !bok {
		return 0, fmt.Errorf("cannot compare %v with %v", l.AsString(), r.AsString())
	}
	if a.isInt && b.isInt {
		switch {
		case a.i < b.i:
			return -1, nil
		case a.i > b.i:
			return 1, nil
		}
		return 0, nil
	}
	switch {
	case a.f < b.f:
		return -1, nil
	case a.f > b.f:
		return 1, nil
	}
	return 0, nil
}

// truth is a three-valued boolean.
type truth int8

const (
	unknown truth = iota
	no
	yes
)

func truthOf(op string, v table.Value) (truth, error) {
	switch v.Type {
	case table.TypeNull:
		return unknown, nil
	case table.TypeBool:
		if v.Bool {
			return yes, nil
		}
		return no, nil
	}
	return unknown, fmt.Errorf("%s requires boolean operands, got %v", strings.ToUpper(op), v.AsString())
}

func (t truth) value() table.Value {
	switch t {
	case yes:
		return table.BoolVal(true)
	case no:
		return table.BoolVal(false)
	}
	return table.Null()
}

func (t truth) not() truth {
	switch t {
	case yes:
		return no
	case no:
		return yes
	}
	return unknown
}

func logical(op string, l, r table.Value) (table.Value, error) {
	a, err := truthOf(op, l)
	if err != nil {
		return table.Null(), err
	}
	b, err := truthOf(op, r)
	if err != nil {
		return table.Null(), err
	}

	// decisive is the operand value that settles the result on its own.
	decisive := no
	if op == "or" {
		decisive = yes
	}
	switch {
	case a == decisive || b == decisive:
		return decisive.value(), nil
	case a == unknown || b == unknown:
		return table.Null(), nil
	}
	return decisive.not().value(), nil
}

func evalUnary(e *ast.UnaryExpr, ctx *EvalContext) (table.Value, error) {
	operand, err := Eval(e.Operand, ctx)
	if err != nil {
		return table.Null(), err
	}

	switch e.Op {
	case "not":
		t, err := truthOf("not", operand)
		if err != nil {
			return table.Null(), err
		}
		return t.not().value(), nil
	case "-":
		switch operand.Type {
		case table.TypeNull:
			return table.Null(), nil
		case table.TypeInt:
			return table.IntVal(-operand.Int), nil
		case table.TypeFloat:
			return table.FloatVal(-operand.Float), nil
		}
		return table.Null(), fmt.Errorf("cannot negate %v", operand.AsString())
	}
	return table.Null(), fmt.Errorf("unknown unary operator %q", e.Op)
}

// evalIn is true on a match, null when nothing matched but the list holds a
// null, and false otherwise. A null operand is null.
func evalIn(e *ast.InExpr, ctx *EvalContext) (table.Value, error) {
	operand, err := Eval(e.Operand, ctx)
	if err != nil {
		return table.Null(), err
	}
	items := make([]table.Value, len(e.List))
	for i, item := range e.List {
		if items[i], err = Eval(item, ctx); err != nil {
			return table.Null(), err
		}
	}
	if operand.IsNull() || operand.Type == table.TypeList {
		return table.Null(), nil
	}

	result := no
	for _, item := range items {
		if item.IsNull() || item.Type == table.TypeList {
			result = unknown
			continue
		}
		cmp, err := compareValues(operand, item)
		if err != nil {
			return table.Null(), err
		}
		if cmp == 0 {
			result = yes
			break
		}
	}
	if e.Negated {
		result = result.not()
	}
	return result.value(), nil
}
