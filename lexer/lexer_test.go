package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, sql string) []Token {
	t.Helper()
	l := New(sql)
	var toks []Token
	for {
		tok, err := l.Next()
		require.NoError(t, err)
		if tok.Kind == EOF {
			return toks
		}
		toks = append(toks, tok)
	}
}

func TestLexerKeywordsCaseInsensitive(t *testing.T) {
	toks := collect(t, "SeLeCt x FROM a")
	require.Len(t, toks, 4)
	assert.True(t, toks[0].IsKeyword("select"))
	assert.True(t, toks[2].IsKeyword("FROM"))
	assert.Equal(t, Identifier, toks[1].Kind)
}

func TestLexerQuotedIdentifierAndStringEscaping(t *testing.T) {
	toks := collect(t, `SELECT "weird col" FROM t WHERE s = 'it''s'`)
	var quoted, str Token
	for _, tok := range toks {
		if tok.Kind == QuotedIdentifier {
			quoted = tok
		}
		if tok.Kind == String {
			str = tok
		}
	}
	assert.Equal(t, "weird col", quoted.Text)
	assert.Equal(t, "it's", str.Text)
}

func TestLexerPushbackReturnsSameToken(t *testing.T) {
	l := New("CREATE TABLE")
	first, err := l.Next()
	require.NoError(t, err)
	l.Pushback(first)
	again, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestLexerPositionsTrackOffsets(t *testing.T) {
	toks := collect(t, "  x = 1")
	require.Len(t, toks, 3)
	assert.Equal(t, 2, toks[0].Position)
	assert.Equal(t, 4, toks[1].Position)
	assert.Equal(t, 6, toks[2].Position)
}

func TestLexerOperators(t *testing.T) {
	toks := collect(t, "a <> b AND c <= d")
	assert.Equal(t, "<>", toks[1].Text)
	assert.Equal(t, Operator, toks[1].Kind)
	assert.Equal(t, "<=", toks[5].Text)
}

func TestLexerUnterminatedStringIsSyntaxError(t *testing.T) {
	l := New("'abc")
	_, err := l.Next()
	assert.Error(t, err)
}

func TestLexerSkipsCommentsAndNumbers(t *testing.T) {
	toks := collect(t, "-- leading comment\nSELECT 1.5e-3 /* trailing */")
	require.Len(t, toks, 2)
	assert.Equal(t, Number, toks[1].Kind)
	assert.Equal(t, "1.5e-3", toks[1].Text)
}
