package optimizer

import (
	"github.com/vertsql/vertsql/pool"
	"github.com/vertsql/vertsql/sqlast"
)

// inlineTrivialSubqueries flattens `FROM (SELECT * FROM t) x` into
// `FROM t AS x` whenever the inner query does no work of its own
// (no WHERE/GROUP BY/SAMPLE BY/ORDER BY/LIMIT and a bare `*` projection),
// so later passes and codegen see one fewer RecordCursorFactory layer to
// build and tear down per row.
func inlineTrivialSubqueries(model *sqlast.QueryModel, exprs *pool.Arena[sqlast.ExpressionNode]) *sqlast.QueryModel {
	if model.SubQuery != nil && isTrivialProjection(model.SubQuery, exprs) {
		inner := model.SubQuery
		outerAlias := model.Alias
		model.TableName = inner.TableName
		model.SubQuery = inner.SubQuery
		model.Joins = append(inner.Joins, model.Joins...)
		if outerAlias == "" {
			model.Alias = inner.Alias
		}
	}
	return model
}

func isTrivialProjection(m *sqlast.QueryModel, exprs *pool.Arena[sqlast.ExpressionNode]) bool {
	if m.Where.Valid() || len(m.GroupBy) > 0 || m.SampleBy != nil || len(m.OrderBy) > 0 || m.Limit != nil {
		return false
	}
	if len(m.Columns) != 1 || m.Columns[0].Alias != "" {
		return false
	}
	col := m.Columns[0]
	if !col.Ast.Valid() {
		return false
	}
	node := exprs.Get(col.Ast)
	return node.Kind == sqlast.Literal && node.Token == "*"
}
