package memengine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vertsql/vertsql/coltype"
	"github.com/vertsql/vertsql/engine"
)

func testStructure() engine.TableStructure {
	return engine.TableStructure{
		Name: "trades",
		Columns: []engine.ColumnSpec{
			{Name: "sym", Type: coltype.Symbol},
			{Name: "price", Type: coltype.Double},
			{Name: "ts", Type: coltype.Timestamp},
		},
		TimestampColumn: "ts",
		PartitionBy:     "DAY",
	}
}

func TestStatusAndCreateTable(t *testing.T) {
	e := New()
	assert.Equal(t, engine.DoesNotExist, e.Status(nil, "", "trades"))
	require.NoError(t, e.CreateTable(nil, "", "", testStructure()))
	assert.Equal(t, engine.Exists, e.Status(nil, "", "trades"))
	assert.Error(t, e.CreateTable(nil, "", "", testStructure()))
}

func TestWriterInsertAndReaderCursor(t *testing.T) {
	e := New()
	require.NoError(t, e.CreateTable(nil, "", "", testStructure()))

	w, err := e.GetWriter(nil, "trades")
	require.NoError(t, err)
	r := w.NewRow(1000)
	r.PutSym(0, "AAPL")
	r.PutDouble(1, 123.45)
	r.Append()
	require.NoError(t, w.Commit())
	w.Close()

	reader, err := e.GetReader(nil, "trades", engine.AnyVersion)
	require.NoError(t, err)
	defer reader.Close()

	factory := reader.NewCursorFactory()
	cur, err := factory.GetCursor(context.Background())
	require.NoError(t, err)
	defer cur.Close()

	require.True(t, cur.Next())
	rec := cur.Record()
	assert.Equal(t, "AAPL", rec.GetSym(0))
	assert.Equal(t, 123.45, rec.GetDouble(1))
	assert.Equal(t, int64(1000), rec.GetTimestamp(2))
	assert.False(t, cur.Next())
}

func TestWriterBusyWhileHeld(t *testing.T) {
	e := New()
	require.NoError(t, e.CreateTable(nil, "", "", testStructure()))
	w1, err := e.GetWriter(nil, "trades")
	require.NoError(t, err)
	defer w1.Close()

	_, err = e.GetWriter(nil, "trades")
	require.Error(t, err)
}

func TestAddColumnAppendsToExistingRows(t *testing.T) {
	e := New()
	require.NoError(t, e.CreateTable(nil, "", "", testStructure()))
	w, err := e.GetWriter(nil, "trades")
	require.NoError(t, err)
	row := w.NewRow(1000)
	row.PutSym(0, "AAPL")
	row.Append()
	require.NoError(t, w.Commit())

	require.NoError(t, w.AddColumn("qty", coltype.Int, 0, false, false, 0))
	w.Close()

	reader, err := e.GetReader(nil, "trades", engine.AnyVersion)
	require.NoError(t, err)
	defer reader.Close()
	assert.Equal(t, 4, reader.Metadata().ColumnCount())

	cur, err := reader.NewCursorFactory().GetCursor(context.Background())
	require.NoError(t, err)
	defer cur.Close()
	require.True(t, cur.Next())
	assert.Equal(t, int32(0), cur.Record().GetInt(3))
}

func TestGetReaderRejectsStaleVersion(t *testing.T) {
	e := New()
	require.NoError(t, e.CreateTable(nil, "", "", testStructure()))
	w, err := e.GetWriter(nil, "trades")
	require.NoError(t, err)
	require.NoError(t, w.AddColumn("qty", coltype.Int, 0, false, false, 0))
	w.Close()

	_, err = e.GetReader(nil, "trades", 1)
	require.Error(t, err)
}

func TestTruncateClearsRows(t *testing.T) {
	e := New()
	require.NoError(t, e.CreateTable(nil, "", "", testStructure()))
	w, err := e.GetWriter(nil, "trades")
	require.NoError(t, err)
	row := w.NewRow(1000)
	row.Append()
	require.NoError(t, w.Commit())
	require.NoError(t, w.Truncate())
	w.Close()

	reader, err := e.GetReader(nil, "trades", engine.AnyVersion)
	require.NoError(t, err)
	defer reader.Close()
	cur, err := reader.NewCursorFactory().GetCursor(context.Background())
	require.NoError(t, err)
	defer cur.Close()
	assert.False(t, cur.Next())
}

func TestLockPreventsDoubleReservation(t *testing.T) {
	e := New()
	assert.True(t, e.Lock(nil, "new_table"))
	assert.False(t, e.Lock(nil, "new_table"))
	assert.Equal(t, engine.Reserved, e.Status(nil, "", "new_table"))
	e.Unlock(nil, "new_table", nil)
	assert.Equal(t, engine.DoesNotExist, e.Status(nil, "", "new_table"))
}
