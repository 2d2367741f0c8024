package compiler

import (
	"context"

	"github.com/vertsql/vertsql/coltype"
	"github.com/vertsql/vertsql/engine"
	"github.com/vertsql/vertsql/rowcopy"
	"github.com/vertsql/vertsql/sqlast"
	"github.com/vertsql/vertsql/sqlerr"
)

// insert runs the literal-VALUES form of INSERT (spec §4.3): one row,
// built directly from model.Values, written through a single Writer
// acquisition. It does not retry — a plain INSERT never reads a cursor,
// so ReaderOutOfDate cannot occur.
func (c *Compiler) insert(execCtx engine.SecurityContext, model *sqlast.InsertModel) (*CompiledQuery, error) {
	writer, err := c.Engine.GetWriter(execCtx, model.TableName)
	if err != nil {
		return nil, err
	}
	defer writer.Close()

	meta := writer.Metadata()
	targets, err := resolveInsertColumns(meta, model.Columns, model.Position)
	if err != nil {
		return nil, err
	}
	if len(targets) != len(model.Values) {
		return nil, sqlerr.SemanticAt(model.Position, "column count (%d) does not match value count (%d)", len(targets), len(model.Values))
	}

	tsIndex := meta.TimestampIndex()
	if tsIndex >= 0 && !containsInt(targets, tsIndex) {
		return nil, sqlerr.SemanticAt(model.Position, "insert statement must populate timestamp")
	}

	values := make([]Value, len(model.Values))
	var ts int64
	for i, valueRef := range model.Values {
		dstCol := targets[i]
		v, err := c.evaluateExpr(valueRef, nil, nil)
		if err != nil {
			return nil, err
		}
		srcType, err := c.inferType(valueRef, nil)
		if err != nil {
			return nil, err
		}
		dstType := meta.ColumnType(dstCol)
		if !coltype.IsAssignable(dstType, srcType) {
			return nil, sqlerr.SemanticAt(model.Position, "cannot assign %s to column %q of type %s", srcType, meta.ColumnName(dstCol), dstType)
		}
		values[i] = v
		if dstCol == tsIndex {
			n, _ := asNumeric(v)
			ts = int64(n)
		}
	}

	row := writer.NewRow(ts)
	for i, dstCol := range targets {
		putValue(row, dstCol, meta.ColumnType(dstCol), values[i])
	}
	row.Append()

	if err := writer.Commit(); err != nil {
		return nil, err
	}
	return &CompiledQuery{Kind: KindInsert, Tables: []string{model.TableName}}, nil
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

// resolveInsertColumns maps model.Columns (or, when empty, every table
// column in declared order) to destination column indices.
func resolveInsertColumns(meta engine.Metadata, columns []string, position int) ([]int, error) {
	if len(columns) == 0 {
		targets := make([]int, meta.ColumnCount())
		for i := range targets {
			targets[i] = i
		}
		return targets, nil
	}
	targets := make([]int, len(columns))
	for i, name := range columns {
		idx := meta.ColumnIndex(name)
		if idx < 0 {
			return nil, sqlerr.SemanticAt(position, "unknown column %q", name)
		}
		targets[i] = idx
	}
	return targets, nil
}

// putValue writes v, coerced to t's Go representation, into row at idx.
func putValue(row engine.Row, idx int, t coltype.Type, v Value) {
	switch t {
	case coltype.Boolean:
		b, _ := v.(bool)
		row.PutBool(idx, b)
	case coltype.Byte:
		n, _ := asNumeric(v)
		row.PutByte(idx, byte(n))
	case coltype.Short:
		n, _ := asNumeric(v)
		row.PutShort(idx, int16(n))
	case coltype.Char:
		if s, ok := v.(string); ok && len(s) > 0 {
			row.PutChar(idx, []rune(s)[0])
			return
		}
		r, _ := v.(rune)
		row.PutChar(idx, r)
	case coltype.Int:
		n, _ := asNumeric(v)
		row.PutInt(idx, int32(n))
	case coltype.Long:
		n, _ := asNumeric(v)
		row.PutLong(idx, int64(n))
	case coltype.Float:
		n, _ := asNumeric(v)
		row.PutFloat(idx, float32(n))
	case coltype.Double:
		n, _ := asNumeric(v)
		row.PutDouble(idx, n)
	case coltype.Date:
		n, _ := asNumeric(v)
		row.PutDate(idx, int64(n))
	case coltype.Timestamp:
		n, _ := asNumeric(v)
		row.PutTimestamp(idx, int64(n))
	case coltype.String:
		s, _ := v.(string)
		row.PutStr(idx, s)
	case coltype.Symbol:
		s, _ := v.(string)
		row.PutSym(idx, s)
	case coltype.Binary:
		b, _ := v.([]byte)
		row.PutBin(idx, b)
	case coltype.Long256:
		l, _ := v.(rowcopy.Long256)
		row.PutLong256(idx, l)
	}
}

// insertAsSelectWithRetries runs INSERT INTO t [(cols)] <query> (spec
// §4.4): the SELECT side is re-compiled from scratch on every retry
// attempt since a ReaderOutOfDate means the cursor it drove the first
// time is no longer trustworthy.
func (c *Compiler) insertAsSelectWithRetries(ctx context.Context, execCtx engine.SecurityContext, sql string, model *sqlast.InsertModel) (*CompiledQuery, error) {
	return c.executeWithRetries(ctx, "insert as select", func() (*CompiledQuery, error) {
		return c.insertAsSelectOnce(execCtx, model)
	})
}

func (c *Compiler) insertAsSelectOnce(execCtx engine.SecurityContext, model *sqlast.InsertModel) (*CompiledQuery, error) {
	factory, err := c.compileSelect(execCtx, model.Query)
	if err != nil {
		return nil, err
	}

	writer, err := c.Engine.GetWriter(execCtx, model.TableName)
	if err != nil {
		return nil, err
	}
	defer writer.Close()

	dstMeta := writer.Metadata()
	targets, err := resolveInsertColumns(dstMeta, model.Columns, model.Position)
	if err != nil {
		return nil, err
	}

	srcMeta := factory.Metadata()
	srcTypes := make([]coltype.Type, srcMeta.ColumnCount())
	dstTypes := make([]coltype.Type, dstMeta.ColumnCount())
	for i := range srcTypes {
		srcTypes[i] = srcMeta.ColumnType(i)
	}
	for i := range dstTypes {
		dstTypes[i] = dstMeta.ColumnType(i)
	}

	// filter maps every source column (index i, in query order) to the
	// destination column it feeds, or -1 to drop it. An explicit column
	// list must name exactly as many columns as the query produces; the
	// implicit (bare INSERT INTO t SELECT ...) form only requires the
	// query to produce at least one column per destination column,
	// ignoring any extra trailing source columns (spec §4.4).
	var filter []int
	if len(model.Columns) == 0 {
		if len(srcTypes) < len(targets) {
			return nil, sqlerr.SemanticAt(model.Position, "query produces %d columns, fewer than the %d columns of table %q", len(srcTypes), len(targets), model.TableName)
		}
		filter = make([]int, len(srcTypes))
		for i := range filter {
			if i < len(targets) {
				filter[i] = targets[i]
			} else {
				filter[i] = -1
			}
		}
	} else {
		if len(targets) != len(srcTypes) {
			return nil, sqlerr.SemanticAt(model.Position, "column count (%d) does not match query column count (%d)", len(targets), len(srcTypes))
		}
		filter = targets
	}

	tsIndex := dstMeta.TimestampIndex()
	if tsIndex >= 0 && !containsInt(filter, tsIndex) {
		return nil, sqlerr.SemanticAt(model.Position, "insert statement must populate timestamp")
	}

	copier, err := rowcopy.BuildCopier(srcTypes, dstTypes, filter, tsIndex)
	if err != nil {
		return nil, err
	}

	cursor, err := factory.GetCursor(context.Background())
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	for cursor.Next() {
		rec := cursor.Record()
		var ts int64
		if tsIndex >= 0 {
			for i, dstCol := range filter {
				if dstCol == tsIndex {
					ts = readTimestampLike(rec, i, srcTypes[i])
				}
			}
		}
		row := writer.NewRow(ts)
		copier(rec, row)
		row.Append()
	}

	if err := writer.Commit(); err != nil {
		return nil, err
	}
	return &CompiledQuery{Kind: KindInsertAsSelect, Tables: []string{model.TableName}}, nil
}

// readTimestampLike extracts an int64 epoch from rec's column i
// regardless of which int-like type it was declared, for the timestamp
// NewRow needs up front (the engine partitions by it before Commit).
func readTimestampLike(rec engine.Record, i int, t coltype.Type) int64 {
	switch t {
	case coltype.Timestamp:
		return rec.GetTimestamp(i)
	case coltype.Date:
		return rec.GetDate(i)
	case coltype.Long:
		return rec.GetLong(i)
	case coltype.Int:
		return int64(rec.GetInt(i))
	default:
		return 0
	}
}
