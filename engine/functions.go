package engine

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/razeghi71/esqlchain/ast"
	"github.com/razeghi71/esqlchain/table"
)

// evalFunc dispatches function calls to the appropriate implementation.
// Names are upper case.
func evalFunc(e *ast.FuncCallExpr, ctx *EvalContext) (table.Value, error) {
	switch e.Name {
	// String functions
	case "TO_UPPER":
		return callUpper(e.Args, ctx)
	case "TO_LOWER":
		return callLower(e.Args, ctx)
	case "LENGTH":
		return callLength(e.Args, ctx)
	case "SUBSTRING":
		return callSubstring(e.Args, ctx)
	case "TRIM":
		return callTrim(e.Args, ctx)
	case "CONCAT":
		return callConcat(e.Args, ctx)

	// Conditional functions
	case "COALESCE":
		return callCoalesce(e.Args, ctx)
	case "CASE":
		return callCase(e.Args, ctx)

	// Math functions
	case "ABS":
		return callAbs(e.Args, ctx)
	case "ROUND":
		return callRound(e.Args, ctx)

	// Date functions
	case "DATE_EXTRACT":
		return callDateExtract(e.Args, ctx)

	default:
		return table.Null(), fmt.Errorf("unknown function %s", e.Name)
	}
}

// evalArgs evaluates exactly n arguments of fn.
func evalArgs(fn string, args []ast.Expr, ctx *EvalContext, n int) ([]table.Value, error) {
	if len(args) != n {
		return nil, fmt.Errorf("%s() takes %d argument(s), got %d", fn, n, len(args))
	}
	vals := make([]table.Value, n)
	for i, arg := range args {
		v, err := Eval(arg, ctx)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func callUpper(args []ast.Expr, ctx *EvalContext) (table.Value, error) {
	vals, err := evalArgs("TO_UPPER", args, ctx, 1)
	if err != nil {
		return table.Null(), err
	}
	if vals[0].IsNull() {
		return table.Null(), nil
	}
	return table.StrVal(strings.ToUpper(vals[0].AsString())), nil
}

func callLower(args []ast.Expr, ctx *EvalContext) (table.Value, error) {
	vals, err := evalArgs("TO_LOWER", args, ctx, 1)
	if err != nil {
		return table.Null(), err
	}
	if vals[0].IsNull() {
		return table.Null(), nil
	}
	return table.StrVal(strings.ToLower(vals[0].AsString())), nil
}

// callLength counts characters, not bytes.
func callLength(args []ast.Expr, ctx *EvalContext) (table.Value, error) {
	vals, err := evalArgs("LENGTH", args, ctx, 1)
	if err != nil {
		return table.Null(), err
	}
	if vals[0].IsNull() {
		return table.Null(), nil
	}
	return table.IntVal(int64(utf8.RuneCountInString(vals[0].AsString()))), nil
}

// callSubstring takes a 1-based start position and an optional length.
func callSubstring(args []ast.Expr, ctx *EvalContext) (table.Value, error) {
	if len(args) != 2 && len(args) != 3 {
		return table.Null(), fmt.Errorf("SUBSTRING() takes 2 or 3 arguments (string, start[, length]), got %d", len(args))
	}
	vals, err := evalArgs("SUBSTRING", args, ctx, len(args))
	if err != nil {
		return table.Null(), err
	}
	if vals[0].IsNull() {
		return table.Null(), nil
	}
	s := []rune(vals[0].AsString())

	startF, ok := vals[1].AsFloat()
	if !ok {
		return table.Null(), fmt.Errorf("SUBSTRING: start must be a number")
	}
	length := len(s)
	if len(vals) == 3 {
		lenF, ok := vals[2].AsFloat()
		if !ok {
			return table.Null(), fmt.Errorf("SUBSTRING: length must be a number")
		}
		length = int(lenF)
	}

	start := int(startF) - 1
	if start < 0 {
		// Negative positions count from the end
		start = max(len(s)+int(startF), 0)
	}
	if start >= len(s) || length <= 0 {
		return table.StrVal(""), nil
	}
	end := min(start+length, len(s))
	return table.StrVal(string(s[start:end])), nil
}

func callTrim(args []ast.Expr, ctx *EvalContext) (table.Value, error) {
	vals, err := evalArgs("TRIM", args, ctx, 1)
	if err != nil {
		return table.Null(), err
	}
	if vals[0].IsNull() {
		return table.Null(), nil
	}
	return table.StrVal(strings.TrimSpace(vals[0].AsString())), nil
}

// callConcat joins its arguments; any null argument makes the result null.
func callConcat(args []ast.Expr, ctx *EvalContext) (table.Value, error) {
	if len(args) < 2 {
		return table.Null(), fmt.Errorf("CONCAT() requires at least 2 arguments")
	}
	vals, err := evalArgs("CONCAT", args, ctx, len(args))
	if err != nil {
		return table.Null(), err
	}
	var sb strings.Builder
	for _, v := range vals {
		if v.IsNull() {
			return table.Null(), nil
		}
		sb.WriteString(v.AsString())
	}
	return table.StrVal(sb.String()), nil
}

func callCoalesce(args []ast.Expr, ctx *EvalContext) (table.Value, error) {
	if len(args) == 0 {
		return table.Null(), fmt.Errorf("COALESCE() requires at least 1 argument")
	}
	for _, arg := range args {
		v, err := Eval(arg, ctx)
		if err != nil {
			return table.Null(), err
		}
		if !v.IsNull() {
			return v, nil
		}
	}
	return table.Null(), nil
}

// callCase takes condition/value pairs and an optional trailing else value.
// Without an else value and without a true condition the result is null.
func callCase(args []ast.Expr, ctx *EvalContext) (table.Value, error) {
	if len(args) < 2 {
		return table.Null(), fmt.Errorf("CASE() requires at least 2 arguments (condition, value), got %d", len(args))
	}
	i := 0
	for ; i+1 < len(args); i += 2 {
		cond, err := Eval(args[i], ctx)
		if err != nil {
			return table.Null(), err
		}
		b, ok := cond.AsBool()
		if !ok {
			return table.Null(), fmt.Errorf("CASE: condition must be boolean")
		}
		if b {
			return Eval(args[i+1], ctx)
		}
	}
	if i < len(args) {
		return Eval(args[i], ctx)
	}
	return table.Null(), nil
}

func callAbs(args []ast.Expr, ctx *EvalContext) (table.Value, error) {
	vals, err := evalArgs("ABS", args, ctx, 1)
	if err != nil {
		return table.Null(), err
	}
	v := vals[0]
	switch v.Type {
	case table.TypeNull:
		return table.Null(), nil
	case table.TypeInt:
		if v.Int < 0 {
			return table.IntVal(-v.Int), nil
		}
		return v, nil
	case table.TypeFloat:
		return table.FloatVal(math.Abs(v.Float)), nil
	}
	return table.Null(), fmt.Errorf("ABS: cannot use %v", v.AsString())
}

// callRound rounds half away from zero to the given number of decimals
// (default 0). Integers stay integers.
func callRound(args []ast.Expr, ctx *EvalContext) (table.Value, error) {
	if len(args) != 1 && len(args) != 2 {
		return table.Null(), fmt.Errorf("ROUND() takes 1 or 2 arguments, got %d", len(args))
	}
	vals, err := evalArgs("ROUND", args, ctx, len(args))
	if err != nil {
		return table.Null(), err
	}
	v := vals[0]
	if v.IsNull() {
		return table.Null(), nil
	}
	decimals := 0
	if len(vals) == 2 {
		d, ok := vals[1].AsFloat()
		if !ok {
			return table.Null(), fmt.Errorf("ROUND: decimals must be a number")
		}
		decimals = int(d)
	}
	if v.Type == table.TypeInt && decimals >= 0 {
		return v, nil
	}
	f, ok := v.AsFloat()
	if !ok {
		return table.Null(), fmt.Errorf("ROUND: cannot use %v", v.AsString())
	}
	scale := math.Pow(10, float64(decimals))
	rounded := math.Round(f*scale) / scale
	if v.Type == table.TypeInt {
		return table.IntVal(int64(rounded)), nil
	}
	return table.FloatVal(rounded), nil
}

var dateFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
}

var dateParts = map[string]func(time.Time) int{
	"YEAR":             func(t time.Time) int { return t.Year() },
	"MONTH_OF_YEAR":    func(t time.Time) int { return int(t.Month()) },
	"DAY_OF_MONTH":     func(t time.Time) int { return t.Day() },
	"DAY_OF_WEEK":      func(t time.Time) int { return (int(t.Weekday())+6)%7 + 1 },
	"DAY_OF_YEAR":      func(t time.Time) int { return t.YearDay() },
	"HOUR_OF_DAY":      func(t time.Time) int { return t.Hour() },
	"MINUTE_OF_HOUR":   func(t time.Time) int { return t.Minute() },
	"SECOND_OF_MINUTE": func(t time.Time) int { return t.Second() },
}

// callDateExtract takes a date part name such as "YEAR" or "DAY_OF_MONTH"
// and a date.
func callDateExtract(args []ast.Expr, ctx *EvalContext) (table.Value, error) {
	vals, err := evalArgs("DATE_EXTRACT", args, ctx, 2)
	if err != nil {
		return table.Null(), err
	}
	part, ok := dateParts[strings.ToUpper(vals[0].AsString())]
	if !ok {
		return table.Null(), fmt.Errorf("DATE_EXTRACT: unknown date part %q", vals[0].AsString())
	}
	if vals[1].IsNull() {
		return table.Null(), nil
	}
	s := vals[1].AsString()

	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return table.IntVal(int64(part(t))), nil
		}
	}
	return table.Null(), fmt.Errorf("DATE_EXTRACT: cannot parse %q as a date", s)
}
