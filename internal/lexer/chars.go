package lexer

import (
	"unicode"

	"golang.org/x/text/unicode/rangetable"
)

// pnCharsBase is PN_CHARS_BASE from the SPARQL 1.1 grammar.
var pnCharsBase = rangetable.Merge(
	rangetable.New([]rune("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz")...),
	&unicode.RangeTable{
		R16: []unicode.Range16{
			{Lo: 0x00C0, Hi: 0x00D6, Stride: 1},
			{Lo: 0x00D8, Hi: 0x00F6, Stride: 1},
			{Lo: 0x00F8, Hi: 0x02FF, Stride: 1},
			{Lo: 0x0370, Hi: 0x037D, Stride: 1},
			{Lo: 0x037F, Hi: 0x1FFF, Stride: 1},
			{Lo: 0x200C, Hi: 0x200D, Stride: 1},
			{Lo: 0x2070, Hi: 0x218F, Stride: 1},
			{Lo: 0x2C00, Hi: 0x2FEF, Stride: 1},
			{Lo: 0x3001, Hi: 0xD7FF, Stride: 1},
			{Lo: 0xF900, Hi: 0xFDCF, Stride: 1},
			{Lo: 0xFDF0, Hi: 0xFFFD, Stride: 1},
		},
		R32: []unicode.Range32{
			{Lo: 0x10000, Hi: 0xEFFFF, Stride: 1},
		},
	},
)

// pnCharsExtra holds the characters PN_CHARS adds to PN_CHARS_U.
var pnCharsExtra = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: '-', Hi: '-', Stride: 1},
		{Lo: '0', Hi: '9', Stride: 1},
		{Lo: 0x00B7, Hi: 0x00B7, Stride: 1},
		{Lo: 0x0300, Hi: 0x036F, Stride: 1},
		{Lo: 0x203F, Hi: 0x2040, Stride: 1},
	},
}

func isPNCharsBase(c rune) bool { return unicode.Is(pnCharsBase, c) }

func isPNCharsU(c rune) bool { return c == '_' || isPNCharsBase(c) }

func isPNChars(c rune) bool { return isPNCharsU(c) || unicode.Is(pnCharsExtra, c) }

// isVarNameStart reports whether c may begin a VARNAME.
func isVarNameStart(c rune) bool { return isPNCharsU(c) || isDigit(c) }

// isVarNameChar reports whether c may continue a VARNAME.
func isVarNameChar(c rune) bool {
	return isVarNameStart(c) || c == 0x00B7 ||
		(c >= 0x0300 && c <= 0x036F) || (c >= 0x203F && c <= 0x2040)
}

func isDigit(c rune) bool { return c >= '0' && c <= '9' }

func isHex(c rune) bool {
	_, ok := hexValue(c)
	return ok
}

func isASCIILetter(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isWhitespace(c rune) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// isIRIChar reports whether c may appear unescaped inside an IRIREF.
// The backslash is accepted here and validated as an escape afterwards.
func isIRIChar(c rune) bool {
	if c <= 0x20 {
		return false
	}
	switch c {
	case '<', '>', '"', '{', '}', '|', '^', '`':
		return false
	}
	return true
}

// isLocalEscapable reports whether c may follow a backslash in PN_LOCAL.
func isLocalEscapable(c rune) bool {
	switch c {
	case '_', '~', '.', '-', '!', '$', '&', '\'', '(', ')', '*', '+', ',', ';', '=', '/', '?', '#', '@', '%':
		return true
	}
	return false
}

// IsPrefixName reports whether s is a valid prefix label (PN_PREFIX) or
// the empty prefix.
func IsPrefixName(s string) bool {
	if s == "" {
		return true
	}
	runes := []rune(s)
	if !isPNCharsBase(runes[0]) || runes[len(runes)-1] == '.' {
		return false
	}
	for _, c := range runes[1:] {
		if c != '.' && !isPNChars(c) {
			return false
		}
	}
	return true
}
