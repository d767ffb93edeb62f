package lexer

// hotKeywords are checked before the full vocabulary.
var hotKeywords = [...]string{"PREFIX", "SELECT", "WHERE", "FILTER", "LIMIT"}

// keywords is the closed keyword vocabulary, uppercase.
var keywords = toSet(
	// query structure
	"BASE", "PREFIX", "SELECT", "CONSTRUCT", "DESCRIBE", "ASK",
	"FROM", "NAMED", "WHERE", "DISTINCT", "REDUCED", "AS",
	"ORDER", "BY", "ASC", "DESC", "LIMIT", "OFFSET",
	"GROUP", "HAVING", "VALUES", "UNDEF",
	"OPTIONAL", "UNION", "MINUS", "GRAPH", "SERVICE", "SILENT",
	"FILTER", "BIND", "NOT", "IN", "EXISTS",

	// update (recognized, not parsed)
	"LOAD", "CLEAR", "DROP", "CREATE", "ADD", "MOVE", "COPY",
	"INSERT", "DELETE", "DATA", "WITH", "USING", "INTO", "TO",
	"DEFAULT", "ALL",

	// built-in functions
	"STR", "LANG", "LANGMATCHES", "DATATYPE", "BOUND", "IRI", "URI",
	"BNODE", "RAND", "ABS", "CEIL", "FLOOR", "ROUND", "CONCAT",
	"STRLEN", "UCASE", "LCASE", "ENCODE_FOR_URI", "CONTAINS",
	"STRSTARTS", "STRENDS", "STRBEFORE", "STRAFTER", "YEAR", "MONTH",
	"DAY", "HOURS", "MINUTES", "SECONDS", "TIMEZONE", "TZ", "NOW",
	"UUID", "STRUUID", "MD5", "SHA1", "SHA256", "SHA384", "SHA512",
	"COALESCE", "IF", "STRLANG", "STRDT", "SAMETERM", "ISIRI", "ISURI",
	"ISBLANK", "ISLITERAL", "ISNUMERIC", "REGEX", "SUBSTR", "REPLACE",

	// aggregates
	"COUNT", "SUM", "MIN", "MAX", "AVG", "SAMPLE", "GROUP_CONCAT",
	"SEPARATOR",

	// window functions
	"OVER", "PARTITION", "ROWS", "RANGE", "BETWEEN", "UNBOUNDED",
	"CURRENT", "ROW", "PRECEDING", "FOLLOWING", "AND",
	"ROW_NUMBER", "RANK", "DENSE_RANK", "NTILE",
)

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// IsKeyword reports whether word (any case) is in the keyword vocabulary.
func IsKeyword(word string) bool {
	_, ok := lookupKeyword(word)
	return ok
}

func lookupKeyword(word string) (string, bool) {
	for _, hot := range hotKeywords {
		if equalFoldASCII(word, hot) {
			return hot, true
		}
	}
	upper := upperASCII(word)
	if _, ok := keywords[upper]; ok {
		return upper, true
	}
	return "", false
}

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		x, y := a[i], b[i]
		if 'a' <= x && x <= 'z' {
			x -= 'a' - 'A'
		}
		if x != y {
			return false
		}
	}
	return true
}

func upperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'a' <= c && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}
