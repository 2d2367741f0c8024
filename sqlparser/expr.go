package sqlparser

import (
	"github.com/vertsql/vertsql/lexer"
	"github.com/vertsql/vertsql/pool"
	"github.com/vertsql/vertsql/sqlast"
	"github.com/vertsql/vertsql/sqlerr"
)

// parseExpr parses a full expression using precedence climbing:
// OR < AND < NOT < comparison < additive < multiplicative < unary < primary.
func (p *Parser) parseExpr() (pool.Ref, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (pool.Ref, error) {
	lhs, err := p.parseAnd()
	if err != nil {
		return pool.Ref{}, err
	}
	for {
		ok, err := p.tryKeyword("or")
		if err != nil {
			return pool.Ref{}, err
		}
		if !ok {
			return lhs, nil
		}
		rhs, err := p.parseAnd()
		if err != nil {
			return pool.Ref{}, err
		}
		lhs = p.binary("or", lhs, rhs)
	}
}

func (p *Parser) parseAnd() (pool.Ref, error) {
	lhs, err := p.parseNot()
	if err != nil {
		return pool.Ref{}, err
	}
	for {
		ok, err := p.tryKeyword("and")
		if err != nil {
			return pool.Ref{}, err
		}
		if !ok {
			return lhs, nil
		}
		rhs, err := p.parseNot()
		if err != nil {
			return pool.Ref{}, err
		}
		lhs = p.binary("and", lhs, rhs)
	}
}

func (p *Parser) parseNot() (pool.Ref, error) {
	ok, err := p.tryKeyword("not")
	if err != nil {
		return pool.Ref{}, err
	}
	if !ok {
		return p.parseComparison()
	}
	operand, err := p.parseNot()
	if err != nil {
		return pool.Ref{}, err
	}
	ref, node := p.allocExpr()
	node.Kind = sqlast.Operator
	node.Token = "not"
	node.Lhs = operand
	return ref, nil
}

var comparisonOps = map[string]struct{}{
	"=": {}, "<>": {}, "!=": {}, "<": {}, ">": {}, "<=": {}, ">=": {},
}

func (p *Parser) parseComparison() (pool.Ref, error) {
	lhs, err := p.parseAdditive()
	if err != nil {
		return pool.Ref{}, err
	}
	tok, err := p.peek()
	if err != nil {
		return pool.Ref{}, err
	}
	if tok.Kind == lexer.Operator {
		if _, ok := comparisonOps[tok.Text]; ok {
			if _, err := p.next(); err != nil {
				return pool.Ref{}, err
			}
			rhs, err := p.parseAdditive()
			if err != nil {
				return pool.Ref{}, err
			}
			return p.binary(tok.Text, lhs, rhs), nil
		}
	}
	return lhs, nil
}

func (p *Parser) parseAdditive() (pool.Ref, error) {
	lhs, err := p.parseMultiplicative()
	if err != nil {
		return pool.Ref{}, err
	}
	for {
		tok, err := p.peek()
		if err != nil {
			return pool.Ref{}, err
		}
		if tok.Kind != lexer.Operator || (tok.Text != "+" && tok.Text != "-") {
			return lhs, nil
		}
		if _, err := p.next(); err != nil {
			return pool.Ref{}, err
		}
		rhs, err := p.parseMultiplicative()
		if err != nil {
			return pool.Ref{}, err
		}
		lhs = p.binary(tok.Text, lhs, rhs)
	}
}

func (p *Parser) parseMultiplicative() (pool.Ref, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return pool.Ref{}, err
	}
	for {
		tok, err := p.peek()
		if err != nil {
			return pool.Ref{}, err
		}
		if tok.Kind != lexer.Operator || (tok.Text != "*" && tok.Text != "/" && tok.Text != "%") {
			return lhs, nil
		}
		if _, err := p.next(); err != nil {
			return pool.Ref{}, err
		}
		rhs, err := p.parseUnary()
		if err != nil {
			return pool.Ref{}, err
		}
		lhs = p.binary(tok.Text, lhs, rhs)
	}
}

func (p *Parser) parseUnary() (pool.Ref, error) {
	tok, err := p.peek()
	if err != nil {
		return pool.Ref{}, err
	}
	if tok.Kind == lexer.Operator && tok.Text == "-" {
		if _, err := p.next(); err != nil {
			return pool.Ref{}, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return pool.Ref{}, err
		}
		ref, node := p.allocExpr()
		node.Kind = sqlast.Operator
		node.Token = "neg"
		node.Position = tok.Position
		node.Lhs = operand
		return ref, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (pool.Ref, error) {
	tok, err := p.next()
	if err != nil {
		return pool.Ref{}, err
	}
	switch {
	case tok.Kind == lexer.Number:
		ref, node := p.allocExpr()
		node.Kind = sqlast.Constant
		node.Token = tok.Text
		node.Position = tok.Position
		return ref, nil
	case tok.Kind == lexer.String:
		ref, node := p.allocExpr()
		node.Kind = sqlast.Literal
		node.Token = p.chars.Immutable(tok.Text)
		node.Position = tok.Position
		return ref, nil
	case tok.IsKeyword("true") || tok.IsKeyword("false") || tok.IsKeyword("null"):
		ref, node := p.allocExpr()
		node.Kind = sqlast.Constant
		node.Token = tok.Text
		node.Position = tok.Position
		return ref, nil
	case tok.IsKeyword("cast"):
		return p.parseCast(tok.Position)
	case tok.Text == "(" && tok.Kind == lexer.Punctuation:
		// Either a parenthesized expression or a scalar sub-query.
		sub, err := p.peek()
		if err != nil {
			return pool.Ref{}, err
		}
		if sub.IsKeyword("select") {
			qm, err := p.parseQueryModel()
			if err != nil {
				return pool.Ref{}, err
			}
			if _, err := p.expectPunct(")"); err != nil {
				return pool.Ref{}, err
			}
			ref, node := p.allocExpr()
			node.Kind = sqlast.Query
			node.Position = tok.Position
			node.SubQuery = qm
			return ref, nil
		}
		inner, err := p.parseExpr()
		if err != nil {
			return pool.Ref{}, err
		}
		if _, err := p.expectPunct(")"); err != nil {
			return pool.Ref{}, err
		}
		return inner, nil
	case tok.Kind == lexer.Identifier || tok.Kind == lexer.QuotedIdentifier:
		return p.parseIdentifierOrCall(tok)
	default:
		return pool.Ref{}, sqlerr.SyntaxAt(tok.Position, "unexpected token %q in expression", tok.Text)
	}
}

func (p *Parser) parseIdentifierOrCall(tok lexer.Token) (pool.Ref, error) {
	name := p.chars.Immutable(tok.Text)
	isCall, err := p.tryPunct("(")
	if err != nil {
		return pool.Ref{}, err
	}
	if !isCall {
		// Qualified column reference, e.g. `t.sym` (spec §6.1 allows an
		// alias or table name to disambiguate a join's columns).
		for {
			dotted, err := p.tryPunct(".")
			if err != nil {
				return pool.Ref{}, err
			}
			if !dotted {
				break
			}
			part, _, err := p.expectIdentifier()
			if err != nil {
				return pool.Ref{}, err
			}
			name = p.chars.Immutable(name + "." + part)
		}
		ref, node := p.allocExpr()
		node.Kind = sqlast.Literal
		node.Token = name
		node.Position = tok.Position
		return ref, nil
	}

	var args []pool.Ref
	closed, err := p.tryPunct(")")
	if err != nil {
		return pool.Ref{}, err
	}
	if !closed {
		// `count(*)` is the one function allowed a bare star argument.
		star, err := p.tryPunct("*")
		if err != nil {
			return pool.Ref{}, err
		}
		if star {
			ref, node := p.allocExpr()
			node.Kind = sqlast.Literal
			node.Token = "*"
			args = append(args, ref)
			_ = node
		} else {
			for {
				arg, err := p.parseExpr()
				if err != nil {
					return pool.Ref{}, err
				}
				args = append(args, arg)
				more, err := p.tryPunct(",")
				if err != nil {
					return pool.Ref{}, err
				}
				if !more {
					break
				}
			}
		}
		if _, err := p.expectPunct(")"); err != nil {
			return pool.Ref{}, err
		}
	}

	ref, node := p.allocExpr()
	node.Kind = sqlast.Function
	node.Token = name
	node.Position = tok.Position
	node.Args = args
	return ref, nil
}

// parseCast handles CAST(expr AS type), the one case in this dialect
// where a type name appears inside a value expression (spec §4.5 step 4
// uses the same grammar for per-column CAST in CREATE TABLE AS SELECT).
func (p *Parser) parseCast(position int) (pool.Ref, error) {
	if _, err := p.expectPunct("("); err != nil {
		return pool.Ref{}, err
	}
	operand, err := p.parseExpr()
	if err != nil {
		return pool.Ref{}, err
	}
	if _, err := p.expectKeyword("as"); err != nil {
		return pool.Ref{}, err
	}
	typeTok, err := p.next()
	if err != nil {
		return pool.Ref{}, err
	}
	targetType, err := p.parseTypeName(typeTok)
	if err != nil {
		return pool.Ref{}, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return pool.Ref{}, err
	}
	ref, node := p.allocExpr()
	node.Kind = sqlast.Function
	node.Token = "cast"
	node.Position = position
	node.Lhs = operand
	node.Args = []pool.Ref{operand}
	// The target type name is carried in Args[0]'s sibling via Rhs as a
	// synthetic Constant node so funcreg can bind the overload purely
	// from the AST shape, without a side channel.
	typeRef, typeNode := p.allocExpr()
	typeNode.Kind = sqlast.Constant
	typeNode.Token = targetType.String()
	node.Rhs = typeRef
	return ref, nil
}

func (p *Parser) binary(op string, lhs, rhs pool.Ref) pool.Ref {
	ref, node := p.allocExpr()
	node.Kind = sqlast.Operator
	node.Token = op
	node.Lhs = lhs
	node.Rhs = rhs
	return ref
}
