package value

import "strings"

const identDelim = "`"

// Escape returns name as an identifier, wrapping it in backticks when it is
// not a plain identifier. Embedded backticks are doubled.
func Escape(name string) string {
	if isPlainIdent(name) {
		return name
	}
	return identDelim + strings.ReplaceAll(name, identDelim, identDelim+identDelim) + identDelim
}

func isPlainIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, ch := range name {
		switch {
		case isASCIILetter(ch), ch == '_':
		case i == 0 && ch == '@':
		case i > 0 && (isASCIIDigit(ch) || ch == '.'):
		default:
			return false
		}
	}
	return true
}

func isASCIILetter(ch rune) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isASCIIDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

// Represent renders v as a literal. When hint is a geo column the literal is
// cast to the column's declared type.
func Represent(v Value, hint *Column) string {
	var lit string
	switch v.Kind {
	case KindString:
		lit = quote(v.Str)
	default:
		lit = v.Text()
	}
	if hint != nil && hint.Class() == ClassGeo {
		lit += "::" + hint.Type
	}
	return lit
}

func quote(s string) string {
	if strings.Contains(s, `"`) && !strings.Contains(s, `"""`) {
		return `"""` + s + `"""`
	}
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
