package lexer

import (
	"strings"

	"github.com/vertsql/vertsql/sqlerr"
)

// Lexer tokenizes one SQL statement's text. It is single-use: build a
// fresh Lexer per compile() call (compiler.Compiler does so with New on
// every call; Lexers are not pooled). Lexer supports
// a one-token pushback, which is all the dispatcher in §4.1 step 3/4
// needs to peek the first token and hand the whole stream to a
// keyword executor unmodified.
type Lexer struct {
	src        string
	pos        int
	operators  []string
	pushedBack *Token
}

// New builds a Lexer over sql using the default operator set.
func New(sql string) *Lexer {
	return &Lexer{src: sql, operators: defaultOperators}
}

// NewWithOperators builds a Lexer with a caller-supplied operator set,
// longest-match-first order assumed already applied by the caller.
func NewWithOperators(sql string, operators []string) *Lexer {
	return &Lexer{src: sql, operators: operators}
}

// Pushback returns tok to the stream; the next Next() call yields it
// again. Only one token of pushback is supported, which is all the
// sqlparser and compiler call sites use (spec §2: "support unquoting and pushback").
func (l *Lexer) Pushback(tok Token) {
	l.pushedBack = &tok
}

// Next returns the next token, or an EOF-kind token at end of input.
// Errors are *sqlerr.SqlError with Kind Syntax.
func (l *Lexer) Next() (Token, error) {
	if l.pushedBack != nil {
		tok := *l.pushedBack
		l.pushedBack = nil
		return tok, nil
	}
	l.skipWhitespaceAndComments()
	if l.pos >= len(l.src) {
		return Token{Kind: EOF, Position: l.pos}, nil
	}

	start := l.pos
	c := l.src[l.pos]

	switch {
	case c == '\'':
		return l.readQuotedString(start)
	case c == '"':
		return l.readQuotedIdentifier(start)
	case isDigit(c):
		return l.readNumber(start)
	case isIdentStart(c):
		return l.readIdentifierOrKeyword(start)
	case c == '_' && l.pos+1 < len(l.src) && isIdentStart(l.src[l.pos+1]):
		return l.readIdentifierOrKeyword(start)
	default:
		if _, ok := singleCharPunctuation[c]; ok {
			l.pos++
			return Token{Kind: Punctuation, Text: string(c), Position: start}, nil
		}
		for _, op := range l.operators {
			if strings.HasPrefix(l.src[l.pos:], op) {
				l.pos += len(op)
				return Token{Kind: Operator, Text: op, Position: start}, nil
			}
		}
		return Token{}, sqlerr.SyntaxAt(start, "unexpected character %q", c)
	}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.pos++
		case c == '-' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '-':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '*':
			end := strings.Index(l.src[l.pos+2:], "*/")
			if end < 0 {
				l.pos = len(l.src)
				return
			}
			l.pos += end + 4
		default:
			return
		}
	}
}

func (l *Lexer) readQuotedString(start int) (Token, error) {
	l.pos++ // opening quote
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return Token{}, sqlerr.SyntaxAt(start, "unterminated string literal")
		}
		c := l.src[l.pos]
		if c == '\'' {
			if l.pos+1 < len(l.src) && l.src[l.pos+1] == '\'' {
				sb.WriteByte('\'')
				l.pos += 2
				continue
			}
			l.pos++
			return Token{Kind: String, Text: sb.String(), Position: start}, nil
		}
		sb.WriteByte(c)
		l.pos++
	}
}

func (l *Lexer) readQuotedIdentifier(start int) (Token, error) {
	l.pos++ // opening quote
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return Token{}, sqlerr.SyntaxAt(start, "unterminated quoted identifier")
		}
		c := l.src[l.pos]
		if c == '"' {
			if l.pos+1 < len(l.src) && l.src[l.pos+1] == '"' {
				sb.WriteByte('"')
				l.pos += 2
				continue
			}
			l.pos++
			return Token{Kind: QuotedIdentifier, Text: sb.String(), Position: start}, nil
		}
		sb.WriteByte(c)
		l.pos++
	}
}

func (l *Lexer) readNumber(start int) (Token, error) {
	for l.pos < len(l.src) && (isDigit(l.src[l.pos]) || l.src[l.pos] == '.') {
		l.pos++
	}
	// exponent, e.g. 1e9 / 1.5e-9
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		save := l.pos
		l.pos++
		if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
			l.pos++
		}
		if l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
				l.pos++
			}
		} else {
			l.pos = save
		}
	}
	return Token{Kind: Number, Text: l.src[start:l.pos], Position: start}, nil
}

func (l *Lexer) readIdentifierOrKeyword(start int) (Token, error) {
	l.pos++
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.pos++
	}
	text := l.src[start:l.pos]
	if isKeyword(text) {
		return Token{Kind: Keyword, Text: text, Position: start}, nil
	}
	return Token{Kind: Identifier, Text: text, Position: start}, nil
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '_'
}
