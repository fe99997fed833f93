package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/razeghi71/esqlchain/ast"
	"github.com/razeghi71/esqlchain/chain"
	"github.com/razeghi71/esqlchain/lexer"
	"github.com/razeghi71/esqlchain/value"
)

// Parser converts a token stream into actions and expressions.
type Parser struct {
	input  []rune
	tokens []lexer.Token
	pos    int
}

func newParser(input string) (*Parser, error) {
	tokens, err := lexer.Lex(input)
	if err != nil {
		return nil, fmt.Errorf("lex error: %w", err)
	}
	return &Parser{input: []rune(input), tokens: tokens}, nil
}

// ParseExpr parses a single eval expression.
func ParseExpr(input string) (ast.Expr, error) {
	p, err := newParser(input)
	if err != nil {
		return nil, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectEOF(); err != nil {
		return nil, err
	}
	return expr, nil
}

// Line is one parsed action line.
//
// Field types and statistics are not known to the parser: Filter and Match
// actions carry a column with only its name set, and sort actions carry the
// zero class. Values is the selection of a filter line, either the values to
// exclude or, with Only set, the only values to include.
type Line struct {
	Action chain.Action
	Values []value.Value
	Only   bool
}

// ParseAction parses one action line such as "drop city" or
// "eval age2 = age * 2".
func ParseAction(input string) (Line, error) {
	p, err := newParser(input)
	if err != nil {
		return Line{}, err
	}
	line, err := p.parseAction()
	if err != nil {
		return Line{}, err
	}
	if err := p.expectEOF(); err != nil {
		return Line{}, err
	}
	return line, nil
}

func (p *Parser) peek() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Type: lexer.TokenEOF, Pos: len(p.input)}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekAt(offset int) lexer.Token {
	if p.pos+offset >= len(p.tokens) {
		return lexer.Token{Type: lexer.TokenEOF, Pos: len(p.input)}
	}
	return p.tokens[p.pos+offset]
}

func (p *Parser) advance() lexer.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(tt lexer.TokenType) (lexer.Token, error) {
	tok := p.advance()
	if tok.Type != tt {
		return tok, fmt.Errorf("expected %s, got %s (%q) at position %d", tt, tok.Type, tok.Val, tok.Pos)
	}
	return tok, nil
}

func (p *Parser) expectEOF() error {
	if tok := p.peek(); tok.Type != lexer.TokenEOF {
		return fmt.Errorf("unexpected token %s (%q) at position %d", tok.Type, tok.Val, tok.Pos)
	}
	return nil
}

func (p *Parser) parseAction() (Line, error) {
	tok := p.peek()
	if tok.Type != lexer.TokenIdent {
		return Line{}, fmt.Errorf("expected action name, got %s (%q) at position %d", tok.Type, tok.Val, tok.Pos)
	}

	switch strings.ToLower(tok.Val) {
	case "limit":
		p.advance()
		return Line{Action: chain.Limit{}}, nil
	case "keep":
		p.advance()
		return Line{Action: chain.Keep{}}, nil
	case "drop":
		return p.parseDrop()
	case "sort_asc":
		return p.parseSort(true)
	case "sort_desc":
		return p.parseSort(false)
	case "rename":
		return p.parseRename()
	case "filter":
		return p.parseFilter()
	case "match":
		return p.parseMatch()
	case "expand":
		return p.parseExpand()
	case "eval":
		return p.parseEval()
	default:
		return Line{}, fmt.Errorf("unknown action %q at position %d", tok.Val, tok.Pos)
	}
}

func (p *Parser) parseDrop() (Line, error) {
	p.advance() // consume "drop"
	field, err := p.parseField()
	if err != nil {
		return Line{}, fmt.Errorf("drop: %w", err)
	}
	return Line{Action: chain.Drop{Field: field}}, nil
}

func (p *Parser) parseSort(asc bool) (Line, error) {
	name := p.advance().Val
	field, err := p.parseField()
	if err != nil {
		return Line{}, fmt.Errorf("%s: %w", name, err)
	}
	if asc {
		return Line{Action: chain.SortAsc{Field: field}}, nil
	}
	return Line{Action: chain.SortDesc{Field: field}}, nil
}

func (p *Parser) parseRename() (Line, error) {
	p.advance() // consume "rename"
	from, err := p.parseField()
	if err != nil {
		return Line{}, fmt.Errorf("rename: %w", err)
	}
	if _, err := p.expect(lexer.TokenAs); err != nil {
		return Line{}, fmt.Errorf("rename: %w", err)
	}
	to, err := p.parseField()
	if err != nil {
		return Line{}, fmt.Errorf("rename: %w", err)
	}
	return Line{Action: chain.Rename{From: from, To: to}}, nil
}

// parseFilter reads "filter f", "filter f not v1, v2" or "filter f only v1, v2".
func (p *Parser) parseFilter() (Line, error) {
	p.advance() // consume "filter"
	field, err := p.parseField()
	if err != nil {
		return Line{}, fmt.Errorf("filter: %w", err)
	}
	line := Line{Action: chain.Filter{Field: value.Column{Name: field}}}

	switch tok := p.peek(); {
	case tok.Type == lexer.TokenNot:
	case tok.Type == lexer.TokenIdent && strings.EqualFold(tok.Val, "only"):
		line.Only = true
	default:
		return line, nil
	}
	p.advance()

	for {
		v, err := p.parseValue()
		if err != nil {
			return Line{}, fmt.Errorf("filter: %w", err)
		}
		line.Values = append(line.Values, v)
		if p.peek().Type != lexer.TokenComma {
			break
		}
		p.advance() // consume comma
	}
	return line, nil
}

func (p *Parser) parseMatch() (Line, error) {
	p.advance() // consume "match"
	field, err := p.parseField()
	if err != nil {
		return Line{}, fmt.Errorf("match: %w", err)
	}
	pattern, err := p.expect(lexer.TokenString)
	if err != nil {
		return Line{}, fmt.Errorf("match: %w", err)
	}
	return Line{Action: chain.Match{Field: value.Column{Name: field}, Pattern: pattern.Val}}, nil
}

func (p *Parser) parseExpand() (Line, error) {
	p.advance() // consume "expand"
	field, err := p.parseField()
	if err != nil {
		return Line{}, fmt.Errorf("expand: %w", err)
	}
	return Line{Action: chain.Expand{Field: field}}, nil
}

// parseEval reads comma-separated "field = expr" assignments. An assignment
// may leave out "field =", in which case the expression text names the
// column. The expression text is kept as written.
func (p *Parser) parseEval() (Line, error) {
	p.advance() // consume "eval"

	var (
		exprs  []ast.Expression
		source string
	)
	for {
		var field string
		if t := p.peek().Type; t == lexer.TokenIdent || t == lexer.TokenBacktickIdent {
			if p.pos+1 < len(p.tokens) && p.tokens[p.pos+1].Type == lexer.TokenEquals {
				field = p.advance().Val
				p.advance() // consume =
			}
		}

		start := p.peek().Pos
		expr, err := p.parseExpr()
		if err != nil {
			if field != "" {
				return Line{}, fmt.Errorf("eval: in assignment for %q: %w", field, err)
			}
			return Line{}, fmt.Errorf("eval: %w", err)
		}
		text := strings.TrimSpace(string(p.input[start:p.peek().Pos]))
		if len(exprs) == 0 {
			if cols := ast.Columns(expr); len(cols) > 0 {
				source = cols[0]
			}
		}
		exprs = append(exprs, ast.Expression{Field: field, Expression: text})

		if p.peek().Type != lexer.TokenComma {
			break
		}
		p.advance() // consume comma
	}

	return Line{Action: chain.Eval{Expressions: exprs, SourceField: source}}, nil
}

// --- Helpers ---

func (p *Parser) parseField() (string, error) {
	tok := p.advance()
	if tok.Type != lexer.TokenIdent && tok.Type != lexer.TokenBacktickIdent {
		return "", fmt.Errorf("expected field name, got %s (%q) at position %d", tok.Type, tok.Val, tok.Pos)
	}
	return tok.Val, nil
}

// parseValue reads a filter value. Bare words are strings.
func (p *Parser) parseValue() (value.Value, error) {
	tok := p.advance()
	switch tok.Type {
	case lexer.TokenString, lexer.TokenIdent, lexer.TokenBacktickIdent:
		return value.String(tok.Val), nil
	case lexer.TokenInt, lexer.TokenFloat:
		f, err := strconv.ParseFloat(tok.Val, 64)
		if err != nil {
			return value.Value{}, fmt.Errorf("invalid number %q: %w", tok.Val, err)
		}
		return value.Number(f), nil
	case lexer.TokenTrue:
		return value.Bool(true), nil
	case lexer.TokenFalse:
		return value.Bool(false), nil
	case lexer.TokenNull:
		return value.Null(), nil
	}
	return value.Value{}, fmt.Errorf("expected value, got %s (%q) at position %d", tok.Type, tok.Val, tok.Pos)
}

// --- Expression parsing (Pratt parser / precedence climbing) ---

// Precedence levels
const (
	precOr    = 1
	precAnd   = 2
	precComp  = 3
	precAdd   = 4
	precMul   = 5
	precUnary = 6
)

func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseExprPrec(precOr)
}

func (p *Parser) parseExprPrec(minPrec int) (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		if minPrec <= precComp {
			postfix, err := p.parsePostfix(left)
			if err != nil {
				return nil, err
			}
			if postfix != nil {
				left = postfix
				continue
			}
		}

		op, prec, ok := p.peekBinaryOp()
		if !ok || prec < minPrec {
			break
		}
		p.advance() // consume the operator

		right, err := p.parseExprPrec(prec + 1) // left-associative
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right}
	}

	return left, nil
}

// parsePostfix reads "IS [NOT] NULL" and "[NOT] IN (...)" after operand. It
// returns nil when neither follows.
func (p *Parser) parsePostfix(operand ast.Expr) (ast.Expr, error) {
	switch p.peek().Type {
	case lexer.TokenIs:
		p.advance()
		negated := false
		if p.peek().Type == lexer.TokenNot {
			p.advance()
			negated = true
		}
		if _, err := p.expect(lexer.TokenNull); err != nil {
			if negated {
				return nil, fmt.Errorf("expected NULL after IS NOT")
			}
			return nil, fmt.Errorf("expected NULL after IS")
		}
		return &ast.IsNullExpr{Operand: operand, Negated: negated}, nil
	case lexer.TokenNot:
		if p.peekAt(1).Type != lexer.TokenIn {
			return nil, nil
		}
		p.advance()
		p.advance()
		list, err := p.parseInList()
		if err != nil {
			return nil, err
		}
		return &ast.InExpr{Operand: operand, List: list, Negated: true}, nil
	case lexer.TokenIn:
		p.advance()
		list, err := p.parseInList()
		if err != nil {
			return nil, err
		}
		return &ast.InExpr{Operand: operand, List: list}, nil
	}
	return nil, nil
}

func (p *Parser) parseInList() ([]ast.Expr, error) {
	if _, err := p.expect(lexer.TokenLParen); err != nil {
		return nil, fmt.Errorf("expected ( after IN")
	}
	var list []ast.Expr
	for {
		item, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		list = append(list, item)
		if p.peek().Type != lexer.TokenComma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(lexer.TokenRParen); err != nil {
		return nil, fmt.Errorf("expected ) to close IN list")
	}
	return list, nil
}

func (p *Parser) peekBinaryOp() (string, int, bool) {
	tok := p.peek()
	switch tok.Type {
	case lexer.TokenOr:
		return "or", precOr, true
	case lexer.TokenAnd:
		return "and", precAnd, true
	case lexer.TokenEq:
		return "==", precComp, true
	case lexer.TokenNeq:
		return "!=", precComp, true
	case lexer.TokenLt:
		return "<", precComp, true
	case lexer.TokenGt:
		return ">", precComp, true
	case lexer.TokenLte:
		return "<=", precComp, true
	case lexer.TokenGte:
		return ">=", precComp, true
	case lexer.TokenPlus:
		return "+", precAdd, true
	case lexer.TokenMinus:
		return "-", precAdd, true
	case lexer.TokenStar:
		return "*", precMul, true
	case lexer.TokenSlash:
		return "/", precMul, true
	case lexer.TokenPercent:
		return "%", precMul, true
	}
	return "", 0, false
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.peek().Type == lexer.TokenNot {
		p.advance()
		operand, err := p.parseExprPrec(precComp)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: "not", Operand: operand}, nil
	}
	if p.peek().Type == lexer.TokenMinus {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: "-", Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.peek()

	switch tok.Type {
	case lexer.TokenInt:
		p.advance()
		v, err := strconv.ParseInt(tok.Val, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", tok.Val, err)
		}
		return &ast.LiteralExpr{Kind: "int", Int: v}, nil

	case lexer.TokenFloat:
		p.advance()
		v, err := strconv.ParseFloat(tok.Val, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float %q: %w", tok.Val, err)
		}
		return &ast.LiteralExpr{Kind: "float", Float: v}, nil

	case lexer.TokenString:
		p.advance()
		return &ast.LiteralExpr{Kind: "string", Str: tok.Val}, nil

	case lexer.TokenTrue:
		p.advance()
		return &ast.LiteralExpr{Kind: "bool", Bool: true}, nil

	case lexer.TokenFalse:
		p.advance()
		return &ast.LiteralExpr{Kind: "bool", Bool: false}, nil

	case lexer.TokenNull:
		p.advance()
		return &ast.LiteralExpr{Kind: "null"}, nil

	case lexer.TokenBacktickIdent:
		p.advance()
		return &ast.ColumnExpr{Name: tok.Val}, nil

	case lexer.TokenIdent:
		p.advance()
		// Check if it's a function call
		if p.peek().Type == lexer.TokenLParen {
			return p.parseFuncCall(tok.Val)
		}
		return &ast.ColumnExpr{Name: tok.Val}, nil

	case lexer.TokenLParen:
		p.advance() // consume (
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenRParen); err != nil {
			return nil, err
		}
		return expr, nil

	default:
		return nil, fmt.Errorf("unexpected token %s (%q) at position %d in expression", tok.Type, tok.Val, tok.Pos)
	}
}

func (p *Parser) parseFuncCall(name string) (ast.Expr, error) {
	p.advance() // consume (
	name = strings.ToUpper(name)

	var args []ast.Expr
	if p.peek().Type != lexer.TokenRParen {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, fmt.Errorf("in function %s: %w", name, err)
			}
			args = append(args, arg)
			if p.peek().Type != lexer.TokenComma {
				break
			}
			p.advance() // consume comma
		}
	}

	if _, err := p.expect(lexer.TokenRParen); err != nil {
		return nil, fmt.Errorf("in function %s: %w", name, err)
	}

	return &ast.FuncCallExpr{Name: name, Args: args}, nil
}
