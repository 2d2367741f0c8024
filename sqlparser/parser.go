// Package sqlparser consumes a token stream from lexer.Lexer and
// builds the typed sqlast.ExecutionModel the rest of the pipeline
// operates on (spec §2 "Parser", §4.1 step 4). It owns no pools itself:
// the Compiler injects the expression arena and character store it
// reset at the start of every compile() call, so a Parser value is
// cheap to construct per statement.
package sqlparser

import (
	"strconv"
	"strings"

	"github.com/vertsql/vertsql/coltype"
	"github.com/vertsql/vertsql/lexer"
	"github.com/vertsql/vertsql/pool"
	"github.com/vertsql/vertsql/sqlast"
	"github.com/vertsql/vertsql/sqlerr"
)

// Parser builds one sqlast.ExecutionModel per call to Parse. A Parser
// is not safe for concurrent use, matching the single-threaded Compiler
// it is always constructed from (spec §5).
type Parser struct {
	lex   *lexer.Lexer
	exprs *pool.Arena[sqlast.ExpressionNode]
	chars *pool.CharStore
}

// New builds a Parser reading tok from lex and allocating expression
// nodes from exprs, with identifiers that must outlive the parse (e.g.
// table/column names copied into the model) snapshotted through chars.
func New(lex *lexer.Lexer, exprs *pool.Arena[sqlast.ExpressionNode], chars *pool.CharStore) *Parser {
	return &Parser{lex: lex, exprs: exprs, chars: chars}
}

// Parse consumes the full statement and returns its ExecutionModel.
// Callers that need to dispatch keyword executors (ALTER/TRUNCATE/
// REPAIR/SET/DROP, spec §4.1 step 3) must peek the first token
// themselves before calling Parse; those keywords are not handled here.
func (p *Parser) Parse() (*sqlast.ExecutionModel, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	switch {
	case tok.IsKeyword("select"):
		model, err := p.parseQueryModel()
		if err != nil {
			return nil, err
		}
		return &sqlast.ExecutionModel{Kind: sqlast.ExecQuery, Query: model}, nil
	case tok.IsKeyword("insert"):
		return p.parseInsert()
	case tok.IsKeyword("create"):
		return p.parseCreateTable()
	case tok.IsKeyword("copy"):
		return p.parseCopy()
	case tok.Kind == lexer.Identifier && strings.EqualFold(tok.Text, "rename"):
		return p.parseRename()
	default:
		return nil, sqlerr.SyntaxAt(tok.Position, "unexpected token %q, expected a statement", tok.Text)
	}
}

// --- token stream helpers -------------------------------------------------

func (p *Parser) next() (lexer.Token, error) {
	return p.lex.Next()
}

func (p *Parser) peek() (lexer.Token, error) {
	tok, err := p.lex.Next()
	if err != nil {
		return tok, err
	}
	p.lex.Pushback(tok)
	return tok, nil
}

func (p *Parser) expectKeyword(name string) (lexer.Token, error) {
	tok, err := p.next()
	if err != nil {
		return tok, err
	}
	if !tok.IsKeyword(name) {
		return tok, sqlerr.SyntaxAt(tok.Position, "expected keyword %s, got %q", strings.ToUpper(name), tok.Text)
	}
	return tok, nil
}

func (p *Parser) expectPunct(text string) (lexer.Token, error) {
	tok, err := p.next()
	if err != nil {
		return tok, err
	}
	if tok.Text != text || (tok.Kind != lexer.Punctuation && tok.Kind != lexer.Operator) {
		return tok, sqlerr.SyntaxAt(tok.Position, "expected %q, got %q", text, tok.Text)
	}
	return tok, nil
}

func (p *Parser) tryPunct(text string) (bool, error) {
	tok, err := p.peek()
	if err != nil {
		return false, err
	}
	if (tok.Kind == lexer.Punctuation || tok.Kind == lexer.Operator) && tok.Text == text {
		_, err := p.next()
		return true, err
	}
	return false, nil
}

func (p *Parser) tryKeyword(name string) (bool, error) {
	tok, err := p.peek()
	if err != nil {
		return false, err
	}
	if tok.IsKeyword(name) {
		_, err := p.next()
		return true, err
	}
	return false, nil
}

// expectIdentifier accepts either a bare or double-quoted identifier
// and snapshots it into the character store, since the model that
// holds it is returned to the caller past this compile's token stream.
func (p *Parser) expectIdentifier() (string, int, error) {
	tok, err := p.next()
	if err != nil {
		return "", 0, err
	}
	if tok.Kind != lexer.Identifier && tok.Kind != lexer.QuotedIdentifier {
		return "", 0, sqlerr.SyntaxAt(tok.Position, "expected identifier, got %q", tok.Text)
	}
	return p.chars.Immutable(tok.Text), tok.Position, nil
}

func (p *Parser) parseTypeName(tok lexer.Token) (coltype.Type, error) {
	t, ok := coltype.ParseName(tok.Text)
	if !ok {
		return 0, sqlerr.SemanticAt(tok.Position, "invalid type name %q", tok.Text)
	}
	return t, nil
}

func (p *Parser) parseIntLiteral() (int, error) {
	tok, err := p.next()
	if err != nil {
		return 0, err
	}
	if tok.Kind != lexer.Number {
		return 0, sqlerr.SyntaxAt(tok.Position, "expected a number, got %q", tok.Text)
	}
	n, err := strconv.Atoi(tok.Text)
	if err != nil {
		return 0, sqlerr.SyntaxAt(tok.Position, "invalid integer literal %q", tok.Text)
	}
	return n, nil
}

// allocExpr reserves a new pooled ExpressionNode and returns both its
// Ref (the only thing callers should retain past this function) and a
// pointer valid until the arena's next Reset.
func (p *Parser) allocExpr() (pool.Ref, *sqlast.ExpressionNode) {
	return p.exprs.Alloc()
}
