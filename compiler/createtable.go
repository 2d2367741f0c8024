package compiler

import (
	"context"

	"github.com/google/uuid"

	"github.com/vertsql/vertsql/coltype"
	"github.com/vertsql/vertsql/engine"
	"github.com/vertsql/vertsql/rowcopy"
	"github.com/vertsql/vertsql/sqlast"
	"github.com/vertsql/vertsql/sqlerr"
	"github.com/vertsql/vertsql/util"
)

// createTableWithRetries runs CREATE TABLE / CREATE TABLE AS SELECT
// (spec §4.5). Only the AS SELECT form needs the retry wrapper — a
// plain column-list CREATE TABLE never reads a cursor, but re-running
// the whole path on a ReaderOutOfDate from the SELECT side is simpler
// and harmless for the plain form too, since it takes the name lock
// before doing anything and fails fast with AlreadyExists on a repeat.
func (c *Compiler) createTableWithRetries(ctx context.Context, execCtx engine.SecurityContext, sql string, model *sqlast.CreateTableModel) (*CompiledQuery, error) {
	return c.executeWithRetries(ctx, "create table", func() (*CompiledQuery, error) {
		return c.createTableOnce(execCtx, model)
	})
}

func (c *Compiler) createTableOnce(execCtx engine.SecurityContext, model *sqlast.CreateTableModel) (*CompiledQuery, error) {
	if !c.Engine.Lock(execCtx, model.TableName) {
		return nil, sqlerr.New(sqlerr.Busy, model.Position, "table %q is already being created", model.TableName)
	}
	scratch := uuid.NewString()
	var createdWriter engine.Writer
	defer func() {
		c.Engine.Unlock(execCtx, model.TableName, createdWriter)
	}()

	if c.Engine.Status(execCtx, "", model.TableName) == engine.Exists {
		return nil, sqlerr.New(sqlerr.AlreadyExists, model.Position, "table %q already exists", model.TableName)
	}

	var q *CompiledQuery
	var err error
	if model.Query != nil {
		q, createdWriter, err = c.createTableAsSelect(execCtx, model, scratch)
	} else {
		q, err = c.createTablePlain(execCtx, model)
	}
	return q, err
}

func (c *Compiler) createTablePlain(execCtx engine.SecurityContext, model *sqlast.CreateTableModel) (*CompiledQuery, error) {
	structure := engine.TableStructure{
		Name:            model.TableName,
		TimestampColumn: model.TimestampColumn,
		PartitionBy:     model.PartitionBy.String(),
	}
	structure.Columns = util.TransformSlice(model.Columns, c.columnSpec)
	if err := c.Engine.CreateTable(execCtx, "", model.TableName, structure); err != nil {
		return nil, err
	}
	return &CompiledQuery{Kind: KindCreateTable, Tables: []string{model.TableName}}, nil
}

func (c *Compiler) columnSpec(col sqlast.ColumnDef) engine.ColumnSpec {
	symCap := col.SymbolCapacity
	if symCap == 0 {
		symCap = c.Config.DefaultSymbolCapacity
	}
	cache := col.SymbolCacheEnabled
	if !col.SymbolCacheSet {
		cache = c.Config.DefaultSymbolCacheEnabled
	}
	idxCap := col.IndexValueBlockCapacity
	if idxCap == 0 {
		idxCap = c.Config.DefaultIndexValueBlockCapacity
	}
	return engine.ColumnSpec{
		Name:                    col.Name,
		Type:                    col.Type,
		SymbolCapacity:          symCap,
		SymbolCacheEnabled:      cache,
		Indexed:                 col.Indexed,
		IndexValueBlockCapacity: idxCap,
	}
}

// createTableAsSelect runs the query side first so the new table's
// structure can be derived from its result columns, honoring any CAST
// overrides in model.CastMap (spec §4.5 step 4). scratch names the
// temporary state cleaned up if anything after CreateTable fails. On
// success it returns the Writer copyTableData populated, still open,
// so the caller can hand it to Engine.Unlock for the engine to adopt.
func (c *Compiler) createTableAsSelect(execCtx engine.SecurityContext, model *sqlast.CreateTableModel, scratch string) (*CompiledQuery, engine.Writer, error) {
	factory, err := c.compileSelect(execCtx, model.Query)
	if err != nil {
		return nil, nil, err
	}
	srcMeta := factory.Metadata()

	structure := engine.TableStructure{
		Name:            model.TableName,
		TimestampColumn: model.TimestampColumn,
		PartitionBy:     model.PartitionBy.String(),
	}
	srcTypes := make([]coltype.Type, srcMeta.ColumnCount())
	for i := 0; i < srcMeta.ColumnCount(); i++ {
		name := srcMeta.ColumnName(i)
		srcType := srcMeta.ColumnType(i)
		srcTypes[i] = srcType
		dstType := srcType
		if cast, ok := model.CastMap[name]; ok {
			if !coltype.CastCompatible(srcType, cast) {
				return nil, nil, sqlerr.SemanticAt(model.Position, "cannot CAST column %q from %s to %s", name, srcType, cast)
			}
			dstType = cast
		}
		structure.Columns = append(structure.Columns, engine.ColumnSpec{
			Name: name, Type: dstType,
			SymbolCapacity:          c.Config.DefaultSymbolCapacity,
			SymbolCacheEnabled:      c.Config.DefaultSymbolCacheEnabled,
			IndexValueBlockCapacity: c.Config.DefaultIndexValueBlockCapacity,
		})
	}

	if err := c.Engine.CreateTable(execCtx, scratch, model.TableName, structure); err != nil {
		return nil, nil, err
	}

	writer, copyErr := c.copyTableData(execCtx, model.TableName, factory, srcTypes, structure)
	if copyErr != nil {
		// The copy failed partway: drop the half-populated table rather
		// than leave it visible with only some of its rows copied. If
		// the cleanup itself fails, the caller can no longer tell
		// whether the table exists or in what state, so that gets its
		// own distinct error instead of silently returning copyErr.
		if rmErr := c.Engine.Remove(execCtx, scratch, model.TableName); rmErr != nil {
			return nil, nil, sqlerr.Wrap(sqlerr.IO, model.Position, rmErr, "could not clean up table %q after failed CREATE TABLE AS SELECT (%v)", model.TableName, copyErr)
		}
		return nil, nil, copyErr
	}

	return &CompiledQuery{Kind: KindCreateTable, Tables: []string{model.TableName}}, writer, nil
}

// copyTableData streams factory's rows into name's writer. On success
// it returns the writer still open, for the caller to hand to
// Engine.Unlock; on failure it closes the writer itself and returns a
// nil writer, since the caller cannot adopt a partially written table.
func (c *Compiler) copyTableData(execCtx engine.SecurityContext, name string, factory engine.RecordCursorFactory, srcTypes []coltype.Type, structure engine.TableStructure) (engine.Writer, error) {
	writer, err := c.Engine.GetWriter(execCtx, name)
	if err != nil {
		return nil, err
	}

	dstTypes := make([]coltype.Type, len(structure.Columns))
	filter := make([]int, len(srcTypes))
	for i := range dstTypes {
		dstTypes[i] = structure.Columns[i].Type
	}
	for i := range filter {
		filter[i] = i
	}
	tsIndex := structure.TimestampIndex()

	copier, err := rowcopy.BuildCopier(srcTypes, dstTypes, filter, tsIndex)
	if err != nil {
		writer.Close()
		return nil, err
	}

	cursor, err := factory.GetCursor(context.Background())
	if err != nil {
		writer.Close()
		return nil, err
	}
	defer cursor.Close()

	for cursor.Next() {
		rec := cursor.Record()
		var ts int64
		if tsIndex >= 0 {
			ts = readTimestampLike(rec, tsIndex, srcTypes[tsIndex])
		}
		row := writer.NewRow(ts)
		copier(rec, row)
		row.Append()
	}
	if err := writer.Commit(); err != nil {
		writer.Close()
		return nil, err
	}
	return writer, nil
}
