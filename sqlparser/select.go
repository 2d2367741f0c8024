package sqlparser

import (
	"github.com/vertsql/vertsql/lexer"
	"github.com/vertsql/vertsql/sqlast"
	"github.com/vertsql/vertsql/sqlerr"
)

// parseQueryModel parses a single SELECT (without a trailing semicolon)
// into a sqlast.QueryModel. It is reentered for parenthesized
// sub-queries in FROM clauses and scalar sub-query expressions.
func (p *Parser) parseQueryModel() (*sqlast.QueryModel, error) {
	if _, err := p.expectKeyword("select"); err != nil {
		return nil, err
	}

	model := &sqlast.QueryModel{}

	// DISTINCT/ALL are accepted and discarded: QueryModel has no field
	// for them, so DISTINCT does not remove duplicate rows.
	if _, err := p.tryKeyword("distinct"); err != nil {
		return nil, err
	}
	if _, err := p.tryKeyword("all"); err != nil {
		return nil, err
	}

	cols, err := p.parseSelectList()
	if err != nil {
		return nil, err
	}
	model.Columns = cols

	if _, err := p.expectKeyword("from"); err != nil {
		return nil, err
	}
	if err := p.parseFromClause(model); err != nil {
		return nil, err
	}

	for {
		joined, err := p.tryParseJoin(model)
		if err != nil {
			return nil, err
		}
		if !joined {
			break
		}
	}

	if ok, err := p.tryKeyword("where"); err != nil {
		return nil, err
	} else if ok {
		where, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		model.Where = where
	}

	if ok, err := p.tryKeyword("group"); err != nil {
		return nil, err
	} else if ok {
		if _, err := p.expectKeyword("by"); err != nil {
			return nil, err
		}
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			model.GroupBy = append(model.GroupBy, e)
			more, err := p.tryPunct(",")
			if err != nil {
				return nil, err
			}
			if !more {
				break
			}
		}
	}

	if ok, err := p.tryKeyword("sample"); err != nil {
		return nil, err
	} else if ok {
		if _, err := p.expectKeyword("by"); err != nil {
			return nil, err
		}
		n, err := p.parseIntLiteral()
		if err != nil {
			return nil, err
		}
		unitTok, err := p.next()
		if err != nil {
			return nil, err
		}
		if unitTok.Kind != lexer.Identifier || len(unitTok.Text) != 1 {
			return nil, sqlerr.SyntaxAt(unitTok.Position, "expected a single-letter SAMPLE BY unit, got %q", unitTok.Text)
		}
		model.SampleBy = &sqlast.SampleByClause{Amount: n, Unit: unitTok.Text[0]}
	}

	if ok, err := p.tryKeyword("order"); err != nil {
		return nil, err
	} else if ok {
		if _, err := p.expectKeyword("by"); err != nil {
			return nil, err
		}
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			desc := false
			if ok, err := p.tryKeyword("desc"); err != nil {
				return nil, err
			} else if ok {
				desc = true
			} else if ok, err := p.tryKeyword("asc"); err != nil {
				return nil, err
			} else {
				_ = ok
			}
			model.OrderBy = append(model.OrderBy, sqlast.OrderByColumn{Ast: e, Descending: desc})
			more, err := p.tryPunct(",")
			if err != nil {
				return nil, err
			}
			if !more {
				break
			}
		}
	}

	if ok, err := p.tryKeyword("limit"); err != nil {
		return nil, err
	} else if ok {
		count, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		limit := &sqlast.LimitClause{Count: count}
		if hasOffset, err := p.tryPunct(","); err != nil {
			return nil, err
		} else if hasOffset {
			offset, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			limit.Offset = offset
		}
		model.Limit = limit
	}

	return model, nil
}

func (p *Parser) parseSelectList() ([]sqlast.QueryColumn, error) {
	if star, err := p.tryPunct("*"); err != nil {
		return nil, err
	} else if star {
		ref, node := p.allocExpr()
		node.Kind = sqlast.Literal
		node.Token = "*"
		return []sqlast.QueryColumn{{Ast: ref}}, nil
	}

	var cols []sqlast.QueryColumn
	for {
		pos, err := p.currentPosition()
		if err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		alias := ""
		if ok, err := p.tryKeyword("as"); err != nil {
			return nil, err
		} else if ok {
			name, _, err := p.expectIdentifier()
			if err != nil {
				return nil, err
			}
			alias = name
		} else if next, err := p.peek(); err != nil {
			return nil, err
		} else if next.Kind == lexer.Identifier {
			name, _, err := p.expectIdentifier()
			if err != nil {
				return nil, err
			}
			alias = name
		}
		cols = append(cols, sqlast.QueryColumn{Alias: alias, Ast: e, Position: pos})

		more, err := p.tryPunct(",")
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
	}
	return cols, nil
}

func (p *Parser) currentPosition() (int, error) {
	tok, err := p.peek()
	if err != nil {
		return 0, err
	}
	return tok.Position, nil
}

func (p *Parser) parseFromClause(model *sqlast.QueryModel) error {
	if isParen, err := p.tryPunct("("); err != nil {
		return err
	} else if isParen {
		sub, err := p.parseQueryModel()
		if err != nil {
			return err
		}
		if _, err := p.expectPunct(")"); err != nil {
			return err
		}
		model.SubQuery = sub
	} else {
		name, _, err := p.expectIdentifier()
		if err != nil {
			return err
		}
		model.TableName = name
	}

	if ok, err := p.tryKeyword("as"); err != nil {
		return err
	} else if ok {
		alias, _, err := p.expectIdentifier()
		if err != nil {
			return err
		}
		model.Alias = alias
	} else if next, err := p.peek(); err != nil {
		return err
	} else if next.Kind == lexer.Identifier {
		alias, _, err := p.expectIdentifier()
		if err != nil {
			return err
		}
		model.Alias = alias
	}
	return nil
}

func (p *Parser) tryParseJoin(model *sqlast.QueryModel) (bool, error) {
	kind := sqlast.JoinInner
	matched := false

	if ok, err := p.tryKeyword("join"); err != nil {
		return false, err
	} else if ok {
		matched = true
	} else if ok, err := p.tryKeyword("inner"); err != nil {
		return false, err
	} else if ok {
		if _, err := p.expectKeyword("join"); err != nil {
			return false, err
		}
		matched = true
	} else if ok, err := p.tryKeyword("left"); err != nil {
		return false, err
	} else if ok {
		_, _ = p.tryKeyword("outer")
		if _, err := p.expectKeyword("join"); err != nil {
			return false, err
		}
		kind = sqlast.JoinLeft
		matched = true
	} else if ok, err := p.tryKeyword("cross"); err != nil {
		return false, err
	} else if ok {
		if _, err := p.expectKeyword("join"); err != nil {
			return false, err
		}
		kind = sqlast.JoinCross
		matched = true
	}

	if !matched {
		return false, nil
	}

	joined := &sqlast.QueryModel{}
	if err := p.parseFromClause(joined); err != nil {
		return false, err
	}

	var predicate = joined.Where // zero Ref unless ON is present
	if kind != sqlast.JoinCross {
		if _, err := p.expectKeyword("on"); err != nil {
			return false, err
		}
		pred, err := p.parseExpr()
		if err != nil {
			return false, err
		}
		predicate = pred
	}

	model.Joins = append(model.Joins, sqlast.JoinClause{Kind: kind, Model: joined, Predicate: predicate})
	return true, nil
}
