package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vertsql/vertsql/lexer"
	"github.com/vertsql/vertsql/pool"
	"github.com/vertsql/vertsql/sqlast"
	"github.com/vertsql/vertsql/sqlparser"
)

func parseQuery(t *testing.T, sql string) (*sqlast.QueryModel, *pool.Arena[sqlast.ExpressionNode]) {
	t.Helper()
	exprs := pool.NewArena[sqlast.ExpressionNode](32)
	chars := pool.NewCharStore(256)
	p := sqlparser.New(lexer.New(sql), exprs, chars)
	model, err := p.Parse()
	require.NoError(t, err)
	require.Equal(t, sqlast.ExecQuery, model.Kind)
	return model.Query, exprs
}

func TestPushDownPredicatesMovesJoinScopedConjunct(t *testing.T) {
	model, exprs := parseQuery(t, "select * from trades t join quotes q on t.sym = q.sym where q.bid > 1 and t.px > 0")
	pushDownPredicates(model, exprs)

	assert.True(t, model.Joins[0].Predicate.Valid())
	// Both the original ON and the pushed-down q.bid>1 conjunct should
	// now live under the join; only t.px>0 remains in WHERE.
	remaining := splitConjuncts(exprs, model.Where)
	require.Len(t, remaining, 1)
	node := exprs.Get(remaining[0])
	lhs := exprs.Get(node.Lhs)
	assert.Equal(t, "t.px", lhs.Token)
}

func TestPushDownPredicatesLeavesAmbiguousConjunctsInWhere(t *testing.T) {
	model, exprs := parseQuery(t, "select * from trades t join quotes q on t.sym = q.sym where t.px > q.bid")
	pushDownPredicates(model, exprs)
	assert.True(t, model.Where.Valid())
}

func TestReorderJoinsOrdersByDependency(t *testing.T) {
	model, exprs := parseQuery(t, "select * from a join c on c.k = b.k join b on b.k = a.k")
	require.NoError(t, reorderJoins(model, exprs))
	require.Len(t, model.Joins, 2)
	assert.Equal(t, "b", sourceName(model.Joins[0].Model))
	assert.Equal(t, "c", sourceName(model.Joins[1].Model))
}

func TestInlineTrivialSubquery(t *testing.T) {
	model, exprs := parseQuery(t, "select * from (select * from t) x")
	out := inlineTrivialSubqueries(model, exprs)
	assert.Equal(t, "t", out.TableName)
	assert.Nil(t, out.SubQuery)
}

func TestOptimizeEndToEnd(t *testing.T) {
	model, exprs := parseQuery(t, "select * from (select * from trades) t join quotes q on t.sym = q.sym where q.bid > 1")
	o := New()
	out, err := o.Optimize(model, exprs)
	require.NoError(t, err)
	assert.Equal(t, "trades", out.TableName)
	assert.True(t, out.Joins[0].Predicate.Valid())
	assert.False(t, out.Where.Valid())
}
