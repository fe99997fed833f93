package lexer

import (
	"testing"
)

func TestLexBasic(t *testing.T) {
	tokens, err := Lex(`rename host.name AS host`)
	if err != nil {
		t.Fatal(err)
	}
	expected := []TokenType{TokenIdent, TokenIdent, TokenAs, TokenIdent, TokenEOF}
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d", len(expected), len(tokens))
	}
	for i, tt := range expected {
		if tokens[i].Type != tt {
			t.Errorf("token %d: expected %s, got %s (%q)", i, tt, tokens[i].Type, tokens[i].Val)
		}
	}
	if tokens[1].Val != "host.name" {
		t.Errorf("expected dotted identifier, got %q", tokens[1].Val)
	}
}

func TestLexDottedDigits(t *testing.T) {
	for _, input := range []string{"a.1", "metrics.cpu.0", "x.1.y"} {
		tokens, err := Lex(input)
		if err != nil {
			t.Fatal(err)
		}
		if len(tokens) != 2 || tokens[0].Type != TokenIdent || tokens[0].Val != input {
			t.Errorf("%q: expected a single identifier, got %v", input, tokens)
		}
	}
}

func TestLexIn(t *testing.T) {
	tokens, err := Lex(`city NOT IN ("NY") or x in (1)`)
	if err != nil {
		t.Fatal(err)
	}
	expected := []TokenType{
		TokenIdent, TokenNot, TokenIn, TokenLParen, TokenString, TokenRParen,
		TokenOr, TokenIdent, TokenIn, TokenLParen, TokenInt, TokenRParen, TokenEOF,
	}
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d", len(expected), len(tokens))
	}
	for i, tt := range expected {
		if tokens[i].Type != tt {
			t.Errorf("token %d: expected %s, got %s (%q)", i, tt, tokens[i].Type, tokens[i].Val)
		}
	}
}

func TestLexCondition(t *testing.T) {
	tokens, err := Lex(`age > 20 AND city == "NY"`)
	if err != nil {
		t.Fatal(err)
	}
	expected := []TokenType{
		TokenIdent, TokenGt, TokenInt,
		TokenAnd, TokenIdent, TokenEq, TokenString, TokenEOF,
	}
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d", len(expected), len(tokens))
	}
	for i, tt := range expected {
		if tokens[i].Type != tt {
			t.Errorf("token %d: expected %s, got %s (%q)", i, tt, tokens[i].Type, tokens[i].Val)
		}
	}
	if tokens[6].Val != "NY" {
		t.Errorf("string token value: expected 'NY', got %q", tokens[6].Val)
	}
}

func TestLexBacktick(t *testing.T) {
	tokens, err := Lex("`first name`")
	if err != nil {
		t.Fatal(err)
	}
	if tokens[0].Type != TokenBacktickIdent {
		t.Errorf("expected backtick ident, got %s", tokens[0].Type)
	}
	if tokens[0].Val != "first name" {
		t.Errorf("expected 'first name', got %q", tokens[0].Val)
	}

	tokens, err = Lex("`a``b`")
	if err != nil {
		t.Fatal(err)
	}
	if tokens[0].Val != "a`b" {
		t.Errorf("expected doubled backtick to unescape, got %q", tokens[0].Val)
	}
}

func TestLexAtIdentifier(t *testing.T) {
	tokens, err := Lex("@timestamp")
	if err != nil {
		t.Fatal(err)
	}
	if tokens[0].Type != TokenIdent || tokens[0].Val != "@timestamp" {
		t.Errorf("expected @timestamp identifier, got %s", tokens[0])
	}
}

func TestLexFloats(t *testing.T) {
	tokens, err := Lex("3.14")
	if err != nil {
		t.Fatal(err)
	}
	if tokens[0].Type != TokenFloat {
		t.Errorf("expected FLOAT, got %s", tokens[0].Type)
	}
	if tokens[0].Val != "3.14" {
		t.Errorf("expected '3.14', got %q", tokens[0].Val)
	}
}

func TestLexNegativeNumber(t *testing.T) {
	tokens, err := Lex("age > -5")
	if err != nil {
		t.Fatal(err)
	}
	expected := []TokenType{TokenIdent, TokenGt, TokenInt, TokenEOF}
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d", len(expected), len(tokens))
	}
	if tokens[2].Val != "-5" {
		t.Errorf("expected '-5', got %q", tokens[2].Val)
	}
}

func TestLexOperators(t *testing.T) {
	tokens, err := Lex("== != <= >= < > + - * / %")
	if err != nil {
		t.Fatal(err)
	}
	expected := []TokenType{
		TokenEq, TokenNeq, TokenLte, TokenGte, TokenLt, TokenGt,
		TokenPlus, TokenMinus, TokenStar, TokenSlash, TokenPercent, TokenEOF,
	}
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d", len(expected), len(tokens))
	}
	for i, tt := range expected {
		if tokens[i].Type != tt {
			t.Errorf("token %d: expected %s, got %s", i, tt, tokens[i].Type)
		}
	}
}

func TestLexIsNull(t *testing.T) {
	for _, input := range []string{"age is not null", "age IS NOT NULL"} {
		tokens, err := Lex(input)
		if err != nil {
			t.Fatal(err)
		}
		expected := []TokenType{TokenIdent, TokenIs, TokenNot, TokenNull, TokenEOF}
		if len(tokens) != len(expected) {
			t.Fatalf("%q: expected %d tokens, got %d", input, len(expected), len(tokens))
		}
		for i, tt := range expected {
			if tokens[i].Type != tt {
				t.Errorf("%q token %d: expected %s, got %s", input, i, tt, tokens[i].Type)
			}
		}
	}
}

func TestLexStringEscape(t *testing.T) {
	tokens, err := Lex(`"hello \"world\""`)
	if err != nil {
		t.Fatal(err)
	}
	if tokens[0].Val != `hello "world"` {
		t.Errorf("expected 'hello \"world\"', got %q", tokens[0].Val)
	}
}

func TestLexTripleQuoted(t *testing.T) {
	tokens, err := Lex(`"""say "hi" \n"""`)
	if err != nil {
		t.Fatal(err)
	}
	if tokens[0].Type != TokenString {
		t.Fatalf("expected STRING, got %s", tokens[0].Type)
	}
	if tokens[0].Val != `say "hi" \n` {
		t.Errorf("expected raw contents, got %q", tokens[0].Val)
	}
	if tokens[1].Type != TokenEOF {
		t.Errorf("expected EOF after string, got %s", tokens[1].Type)
	}

	if _, err := Lex(`"""open`); err == nil {
		t.Error("expected error for unterminated triple-quoted string")
	}
}

func TestLexComment(t *testing.T) {
	tokens, err := Lex("age // this is a comment\n+ 5")
	if err != nil {
		t.Fatal(err)
	}
	expected := []TokenType{TokenIdent, TokenPlus, TokenInt, TokenEOF}
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d", len(expected), len(tokens))
	}
}
