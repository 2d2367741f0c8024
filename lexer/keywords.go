package lexer

// keywords is the fixed set of words the lexer tags as Keyword rather
// than Identifier. Modelled on the teacher's reserved-word map (parser
// token.go's `keywords`), trimmed to the dialect subset in spec §6.1.
// NOTE: if you add a keyword here, the statement-dispatch switches
// (sqlparser.Parser.Parse and compiler.Compiler's compile) must also
// learn about it where relevant.
var keywords = buildKeywordSet(
	"select", "insert", "into", "values", "update", "delete",
	"create", "table", "alter", "add", "drop", "column",
	"truncate", "repair", "copy", "stdin", "show", "tables", "columns", "explain",
	"as", "cast", "timestamp", "partition", "by",
	"none", "day", "month", "year",
	"capacity", "cache", "nocache", "index",
	"set", "from", "where", "group", "order", "limit", "sample",
	"join", "inner", "left", "right", "outer", "cross", "on",
	"and", "or", "not", "null", "true", "false",
	"asc", "desc", "distinct", "all", "exists", "in", "between", "like",
	"case", "when", "then", "else", "end", "is",
)

func buildKeywordSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[upper(w)] = struct{}{}
	}
	return m
}

func isKeyword(word string) bool {
	_, ok := keywords[upper(word)]
	return ok
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

// defaultOperators is the configured set of multi-character operator tokens,
// longest first so the lexer matches greedily (spec §2: "recognize
// configured symbol/operator tokens"). Callers needing a different
// dialect's operator set can build a Lexer with NewWithOperators.
var defaultOperators = []string{
	"<>", "!=", "<=", ">=", "||", "::",
	"=", "<", ">", "+", "-", "*", "/", "%",
}

var singleCharPunctuation = map[byte]struct{}{
	'(': {}, ')': {}, ',': {}, '.': {}, ';': {},
}
