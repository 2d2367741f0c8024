package compiler_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vertsql/vertsql/compiler"
	"github.com/vertsql/vertsql/config"
	"github.com/vertsql/vertsql/engine/memengine"
)

func newCompiler() *compiler.Compiler {
	return compiler.New(memengine.New(), config.Default())
}

func mustCompile(t *testing.T, c *compiler.Compiler, sql string) *compiler.CompiledQuery {
	t.Helper()
	q, err := c.Compile(context.Background(), nil, sql)
	require.NoError(t, err, "compiling %q", sql)
	return q
}

func drainFactory(t *testing.T, q *compiler.CompiledQuery) [][]any {
	t.Helper()
	require.NotNil(t, q.Factory)
	cursor, err := q.Factory.GetCursor(context.Background())
	require.NoError(t, err)
	defer cursor.Close()

	meta := q.Factory.Metadata()
	var out [][]any
	for cursor.Next() {
		rec := cursor.Record()
		row := make([]any, meta.ColumnCount())
		for i := range row {
			row[i] = rec.GetDouble(i)
		}
		out = append(out, row)
	}
	return out
}

func drainStringRows(t *testing.T, q *compiler.CompiledQuery) [][]string {
	t.Helper()
	require.NotNil(t, q.Factory)
	cursor, err := q.Factory.GetCursor(context.Background())
	require.NoError(t, err)
	defer cursor.Close()

	meta := q.Factory.Metadata()
	var out [][]string
	for cursor.Next() {
		rec := cursor.Record()
		row := make([]string, meta.ColumnCount())
		for i := range row {
			row[i] = rec.GetStr(i)
		}
		out = append(out, row)
	}
	return out
}

func TestCreateTableInsertSelect(t *testing.T) {
	c := newCompiler()
	mustCompile(t, c, "create table trades (sym symbol, px double, qty int)")
	mustCompile(t, c, "insert into trades values ('ABC', 10.5, 100)")
	mustCompile(t, c, "insert into trades values ('XYZ', 20.0, 50)")

	q := mustCompile(t, c, "select * from trades where px > 15")
	rows := drainFactory(t, q)
	require.Len(t, rows, 1)
}

func TestGroupByAggregate(t *testing.T) {
	c := newCompiler()
	mustCompile(t, c, "create table trades (sym symbol, px double, qty int)")
	mustCompile(t, c, "insert into trades values ('ABC', 10.0, 1)")
	mustCompile(t, c, "insert into trades values ('ABC', 20.0, 2)")
	mustCompile(t, c, "insert into trades values ('XYZ', 5.0, 3)")

	q, err := c.Compile(context.Background(), nil, "select sym, count(*) from trades group by sym")
	require.NoError(t, err)
	require.NotNil(t, q.Factory)
	cursor, err := q.Factory.GetCursor(context.Background())
	require.NoError(t, err)
	defer cursor.Close()
	groups := 0
	for cursor.Next() {
		groups++
	}
	assert.Equal(t, 2, groups)
}

func TestJoinInner(t *testing.T) {
	c := newCompiler()
	mustCompile(t, c, "create table trades (sym symbol, px double)")
	mustCompile(t, c, "create table quotes (sym symbol, bid double)")
	mustCompile(t, c, "insert into trades values ('ABC', 10.0)")
	mustCompile(t, c, "insert into quotes values ('ABC', 9.5)")
	mustCompile(t, c, "insert into quotes values ('XYZ', 1.0)")

	q := mustCompile(t, c, "select * from trades t join quotes q on t.sym = q.sym")
	rows := drainFactory(t, q)
	require.Len(t, rows, 1)
}

func TestAlterTableAddColumn(t *testing.T) {
	c := newCompiler()
	mustCompile(t, c, "create table trades (sym symbol, px double)")
	q := mustCompile(t, c, "alter table trades add column qty int")
	assert.Equal(t, compiler.KindAlter, q.Kind)
}

func TestAlterTableDropColumnErrorMessagePreserved(t *testing.T) {
	c := newCompiler()
	mustCompile(t, c, "create table trades (sym symbol, px double)")
	_, err := c.Compile(context.Background(), nil, "alter table trades drop column missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cannot add column. Try again later.")
}

func TestTruncateTable(t *testing.T) {
	c := newCompiler()
	mustCompile(t, c, "create table trades (sym symbol, px double)")
	mustCompile(t, c, "insert into trades values ('ABC', 10.0)")
	q := mustCompile(t, c, "truncate table trades")
	assert.Equal(t, compiler.KindTruncate, q.Kind)

	sel := mustCompile(t, c, "select * from trades")
	assert.Empty(t, drainFactory(t, sel))
}

func TestDropTable(t *testing.T) {
	c := newCompiler()
	mustCompile(t, c, "create table trades (sym symbol, px double)")
	q := mustCompile(t, c, "drop table trades")
	assert.Equal(t, compiler.KindDrop, q.Kind)

	_, err := c.Compile(context.Background(), nil, "select * from trades")
	assert.Error(t, err)
}

func TestSetIsNoop(t *testing.T) {
	c := newCompiler()
	q := mustCompile(t, c, "set statement_timeout = 1000")
	assert.Equal(t, compiler.KindSet, q.Kind)
}

func TestRepairTable(t *testing.T) {
	c := newCompiler()
	mustCompile(t, c, "create table trades (sym symbol, px double)")
	q := mustCompile(t, c, "repair table trades")
	assert.Equal(t, compiler.KindRepair, q.Kind)
}

func TestCreateTableAsSelect(t *testing.T) {
	c := newCompiler()
	mustCompile(t, c, "create table trades (sym symbol, px double)")
	mustCompile(t, c, "insert into trades values ('ABC', 10.0)")
	mustCompile(t, c, "insert into trades values ('XYZ', 20.0)")

	q := mustCompile(t, c, "create table cheap as (select * from trades where px < 15)")
	assert.Equal(t, compiler.KindCreateTable, q.Kind)

	sel := mustCompile(t, c, "select * from cheap")
	rows := drainFactory(t, sel)
	require.Len(t, rows, 1)
}

func TestRenameRejected(t *testing.T) {
	c := newCompiler()
	mustCompile(t, c, "create table trades (sym symbol, px double)")
	_, err := c.Compile(context.Background(), nil, "rename table trades to deals")
	require.Error(t, err)
}

func TestTruncateBusyWithOpenReader(t *testing.T) {
	c := newCompiler()
	mustCompile(t, c, "create table trades (sym symbol, px double)")
	mustCompile(t, c, "insert into trades values ('ABC', 10.0)")

	reader, err := c.Engine.GetReader(nil, "trades", -1)
	require.NoError(t, err)
	defer reader.Close()

	_, err = c.Compile(context.Background(), nil, "truncate table trades")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "active query")
}

func TestInsertMustPopulateTimestamp(t *testing.T) {
	c := newCompiler()
	mustCompile(t, c, "create table trades (ts timestamp, sym symbol, px double) timestamp(ts)")

	q := mustCompile(t, c, "insert into trades values (0, 'ABC', 10.0)")
	assert.Equal(t, compiler.KindInsert, q.Kind)

	_, err := c.Compile(context.Background(), nil, "insert into trades (sym, px) values ('XYZ', 5.0)")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert statement must populate timestamp")
}

func TestInsertAsSelectMustPopulateTimestamp(t *testing.T) {
	c := newCompiler()
	mustCompile(t, c, "create table trades (ts timestamp, sym symbol, px double) timestamp(ts)")
	mustCompile(t, c, "create table staging (sym symbol, px double)")
	mustCompile(t, c, "insert into staging values ('ABC', 10.0)")

	_, err := c.Compile(context.Background(), nil, "insert into trades (sym, px) select sym, px from staging")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert statement must populate timestamp")
}

func TestInsertAsSelectImplicitExtraSourceColumnIgnored(t *testing.T) {
	c := newCompiler()
	mustCompile(t, c, "create table trades (sym symbol, px double)")
	mustCompile(t, c, "create table staging (sym symbol, px double, note symbol)")
	mustCompile(t, c, "insert into staging values ('ABC', 10.0, 'n')")

	q := mustCompile(t, c, "insert into trades select * from staging")
	assert.Equal(t, compiler.KindInsertAsSelect, q.Kind)

	sel := mustCompile(t, c, "select * from trades")
	rows := drainFactory(t, sel)
	require.Len(t, rows, 1)
}

func TestShowTables(t *testing.T) {
	c := newCompiler()
	mustCompile(t, c, "create table trades (sym symbol, px double)")
	mustCompile(t, c, "create table quotes (sym symbol, bid double)")

	q := mustCompile(t, c, "show tables")
	assert.Equal(t, compiler.KindShow, q.Kind)
	rows := drainStringRows(t, q)
	require.Len(t, rows, 2)
	assert.Equal(t, "quotes", rows[0][0])
	assert.Equal(t, "trades", rows[1][0])
}

func TestShowColumnsFrom(t *testing.T) {
	c := newCompiler()
	mustCompile(t, c, "create table trades (ts timestamp, sym symbol, px double) timestamp(ts)")

	q := mustCompile(t, c, "show columns from trades")
	assert.Equal(t, compiler.KindShow, q.Kind)
	rows := drainStringRows(t, q)
	require.Len(t, rows, 3)
	assert.Equal(t, "ts", rows[0][0])
	assert.Equal(t, "designated", rows[0][2])
	assert.Equal(t, "", rows[1][2])
}

func TestShowColumnsFromMissingTable(t *testing.T) {
	c := newCompiler()
	_, err := c.Compile(context.Background(), nil, "show columns from nosuch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestExplainSelect(t *testing.T) {
	c := newCompiler()
	mustCompile(t, c, "create table trades (sym symbol, px double)")

	q := mustCompile(t, c, "explain select * from trades where px > 1.0")
	assert.Equal(t, compiler.KindExplain, q.Kind)
	rows := drainStringRows(t, q)
	require.NotEmpty(t, rows)
	assert.Contains(t, rows[0][0], "Table Scan on trades")
}

func TestCompilerStats(t *testing.T) {
	c := newCompiler()
	mustCompile(t, c, "create table trades (sym symbol, px double)")
	_, err := c.Compile(context.Background(), nil, "select * from nosuch")
	require.Error(t, err)

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Compiles)
	assert.Equal(t, int64(1), stats.Errors)
}
