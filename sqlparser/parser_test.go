package sqlparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vertsql/vertsql/coltype"
	"github.com/vertsql/vertsql/lexer"
	"github.com/vertsql/vertsql/pool"
	"github.com/vertsql/vertsql/sqlast"
)

func newParser(sql string) *Parser {
	return New(lexer.New(sql), pool.NewArena[sqlast.ExpressionNode](16), pool.NewCharStore(64))
}

func TestParseSelectBasic(t *testing.T) {
	p := newParser("select a, b as bb from t where a > 1 order by a desc limit 10,5")
	model, err := p.Parse()
	require.NoError(t, err)
	require.Equal(t, sqlast.ExecQuery, model.Kind)
	q := model.Query
	require.Len(t, q.Columns, 2)
	assert.Equal(t, "bb", q.Columns[1].Alias)
	assert.Equal(t, "t", q.TableName)
	assert.True(t, q.Where.Valid())
	require.Len(t, q.OrderBy, 1)
	assert.True(t, q.OrderBy[0].Descending)
	require.NotNil(t, q.Limit)
	assert.True(t, q.Limit.Offset.Valid())
}

func TestParseSelectJoinAndSampleBy(t *testing.T) {
	p := newParser("select * from trades t join quotes q on t.sym = q.sym sample by 5m")
	model, err := p.Parse()
	require.NoError(t, err)
	q := model.Query
	require.Len(t, q.Joins, 1)
	assert.Equal(t, sqlast.JoinInner, q.Joins[0].Kind)
	require.NotNil(t, q.SampleBy)
	assert.Equal(t, 5, q.SampleBy.Amount)
	assert.Equal(t, byte('m'), q.SampleBy.Unit)
}

func TestParseCreateTableExplicitColumns(t *testing.T) {
	p := newParser(`create table trades (
		sym symbol capacity 256 cache index,
		price double,
		ts timestamp
	) timestamp(ts) partition by day`)
	model, err := p.Parse()
	require.NoError(t, err)
	require.Equal(t, sqlast.ExecCreateTable, model.Kind)
	ct := model.CreateTable
	require.Len(t, ct.Columns, 3)
	assert.Equal(t, coltype.Symbol, ct.Columns[0].Type)
	assert.True(t, ct.Columns[0].Indexed)
	assert.Equal(t, 256, ct.Columns[0].SymbolCapacity)
	assert.Equal(t, "ts", ct.TimestampColumn)
	assert.Equal(t, sqlast.PartitionDay, ct.PartitionBy)
}

func TestParseCreateTableAsSelectWithCast(t *testing.T) {
	p := newParser(`create table t2 as (select a, b from t1), cast(a as double) timestamp(b) partition by month`)
	model, err := p.Parse()
	require.NoError(t, err)
	ct := model.CreateTable
	require.NotNil(t, ct.Query)
	assert.Equal(t, coltype.Double, ct.CastMap["a"])
	assert.Equal(t, sqlast.PartitionMonth, ct.PartitionBy)
}

func TestParseInsertValues(t *testing.T) {
	p := newParser(`insert into t (a, b) values (1, 'x')`)
	model, err := p.Parse()
	require.NoError(t, err)
	require.Equal(t, sqlast.ExecInsert, model.Kind)
	in := model.Insert
	assert.Equal(t, []string{"a", "b"}, in.Columns)
	assert.Len(t, in.Values, 2)
}

func TestParseInsertAsSelect(t *testing.T) {
	p := newParser(`insert into t select a, b from u`)
	model, err := p.Parse()
	require.NoError(t, err)
	in := model.Insert
	require.NotNil(t, in.Query)
	assert.Equal(t, "u", in.Query.TableName)
}

func TestParseCopyStdinAndFile(t *testing.T) {
	p1 := newParser(`copy stdin into t`)
	m1, err := p1.Parse()
	require.NoError(t, err)
	assert.True(t, m1.Copy.Stdin)
	assert.Equal(t, "t", m1.Copy.DestTable)

	p2 := newParser(`copy '/tmp/data.csv' into t`)
	m2, err := p2.Parse()
	require.NoError(t, err)
	assert.False(t, m2.Copy.Stdin)
	assert.True(t, m2.Copy.SourceFile.Valid())
}

func TestParseRename(t *testing.T) {
	p := newParser(`rename table old_t to new_t`)
	model, err := p.Parse()
	require.NoError(t, err)
	require.Equal(t, sqlast.ExecRename, model.Kind)
	assert.Equal(t, "old_t", model.Rename.OldName)
	assert.Equal(t, "new_t", model.Rename.NewName)
}

func TestParseCreateTableRejectsCapacityOnNonSymbol(t *testing.T) {
	p := newParser(`create table t (a int capacity 10)`)
	_, err := p.Parse()
	require.Error(t, err)
}
