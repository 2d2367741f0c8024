package compiler

import (
	"fmt"
	"strings"

	"github.com/vertsql/vertsql/engine"
	"github.com/vertsql/vertsql/lexer"
	"github.com/vertsql/vertsql/pool"
	"github.com/vertsql/vertsql/sqlast"
	"github.com/vertsql/vertsql/sqlerr"
	"github.com/vertsql/vertsql/sqlparser"
)

// compileExplain handles `EXPLAIN <query>` (spec §4 "supplemented
// features"): it parses the inner statement and renders the
// QueryModel's shape as indented text without running it, grounded on
// the teacher's compile-then-print dry-run pattern rather than
// actually executing the plan.
func (c *Compiler) compileExplain(execCtx engine.SecurityContext, lex *lexer.Lexer) (*CompiledQuery, error) {
	if _, err := expectKeyword(lex, "explain"); err != nil {
		return nil, err
	}

	parser := sqlparser.New(lex, c.exprs, c.chars)
	model, err := parser.Parse()
	if err != nil {
		return nil, err
	}
	if model.Kind != sqlast.ExecQuery {
		return nil, sqlerr.New(sqlerr.Syntax, 0, "EXPLAIN only supports SELECT")
	}

	var lines []string
	c.explainQuery(model.Query, 0, &lines)

	rows := make([][]string, len(lines))
	for i, l := range lines {
		rows[i] = []string{l}
	}
	factory := newStringRowsFactory([]string{"QUERY PLAN"}, rows)
	return &CompiledQuery{Kind: KindExplain, Factory: factory}, nil
}

func (c *Compiler) explainQuery(model *sqlast.QueryModel, depth int, lines *[]string) {
	indent := strings.Repeat("  ", depth)
	switch {
	case model.SubQuery != nil:
		*lines = append(*lines, indent+"Subquery Scan")
		c.explainQuery(model.SubQuery, depth+1, lines)
	default:
		alias := ""
		if model.Alias != "" {
			alias = " " + model.Alias
		}
		*lines = append(*lines, fmt.Sprintf("%sTable Scan on %s%s", indent, model.TableName, alias))
	}

	for _, j := range model.Joins {
		*lines = append(*lines, fmt.Sprintf("%s%s Join", indent, joinKindName(j.Kind)))
		if j.Predicate.Valid() {
			*lines = append(*lines, fmt.Sprintf("%s  Condition: %s", indent, c.exprText(j.Predicate)))
		}
		c.explainQuery(j.Model, depth+1, lines)
	}

	if model.Where.Valid() {
		*lines = append(*lines, fmt.Sprintf("%sFilter: %s", indent, c.exprText(model.Where)))
	}
	if len(model.GroupBy) > 0 {
		cols := make([]string, len(model.GroupBy))
		for i, ref := range model.GroupBy {
			cols[i] = c.exprText(ref)
		}
		*lines = append(*lines, fmt.Sprintf("%sGroupBy: %s", indent, strings.Join(cols, ", ")))
	}
	if model.SampleBy != nil {
		*lines = append(*lines, fmt.Sprintf("%sSampleBy: %d%c", indent, model.SampleBy.Amount, model.SampleBy.Unit))
	}
	if len(model.OrderBy) > 0 {
		cols := make([]string, len(model.OrderBy))
		for i, ob := range model.OrderBy {
			dir := "ASC"
			if ob.Descending {
				dir = "DESC"
			}
			cols[i] = c.exprText(ob.Ast) + " " + dir
		}
		*lines = append(*lines, fmt.Sprintf("%sOrderBy: %s", indent, strings.Join(cols, ", ")))
	}
	if model.Limit != nil {
		*lines = append(*lines, fmt.Sprintf("%sLimit: %s", indent, c.exprText(model.Limit.Count)))
	}
}

func joinKindName(k sqlast.JoinKind) string {
	switch k {
	case sqlast.JoinInner:
		return "Inner"
	case sqlast.JoinLeft:
		return "Left"
	case sqlast.JoinCross:
		return "Cross"
	default:
		return "Unknown"
	}
}

// exprText renders an expression node shallowly: operators show both
// operands, everything else shows its own token — enough to identify
// what EXPLAIN is pointing at without re-implementing a full printer.
func (c *Compiler) exprText(ref pool.Ref) string {
	if !ref.Valid() {
		return ""
	}
	n := c.exprs.Get(ref)
	switch n.Kind {
	case sqlast.Operator:
		return c.exprText(n.Lhs) + " " + n.Token + " " + c.exprText(n.Rhs)
	case sqlast.Function:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = c.exprText(a)
		}
		return n.Token + "(" + strings.Join(args, ", ") + ")"
	default:
		return n.Token
	}
}
